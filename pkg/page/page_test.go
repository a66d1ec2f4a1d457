package page_test

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formsubmit/pkg/action"
	"github.com/goliatone/go-formsubmit/pkg/issue"
	"github.com/goliatone/go-formsubmit/pkg/overlay"
	"github.com/goliatone/go-formsubmit/pkg/page"
	"github.com/goliatone/go-formsubmit/pkg/testsupport"
)

func newEngine(t *testing.T, opts ...page.Option) *page.Engine {
	t.Helper()
	engine, err := page.New(opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func rejectedView() action.View {
	report := issue.NewReport([]issue.FieldIssue{
		issue.New("username", "too_small", "is required"),
		{Path: issue.Path{}, Code: "custom", Message: "Try again later"},
	})
	return action.View{
		Title:   "Sign up",
		Action:  "/",
		Method:  "POST",
		Enctype: "application/x-www-form-urlencoded",
		Status:  422,
		Fields: []action.Field{
			{Name: "username", Label: "Username", Type: "text", Required: true, Value: "", Error: "is required", ErrorType: "too_small"},
			{Name: "bio", Label: "Bio", Type: "textarea", Value: "<b>hi</b>"},
		},
		Hidden:     []action.HiddenField{{Name: "_csrf", Value: "tok"}},
		FormErrors: []string{"Try again later"},
		Report:     &report,
		Errors:     overlay.New(nil, &report),
	}
}

func TestFormRendererRendersServerErrors(t *testing.T) {
	renderer := page.NewFormRenderer(newEngine(t), "", nil)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		var buf bytes.Buffer
		err := renderer.Render(context.Background(), io.MultiWriter(w, &buf), rejectedView())
		return buf.String(), err
	})
	if result != written {
		t.Fatalf("writer output mismatch")
	}

	for _, want := range []string{
		`<h1>Sign up</h1>`,
		`<form method="post" action="/"`,
		`<input type="hidden" name="_csrf" value="tok">`,
		`aria-describedby="username-error"`,
		`data-error-type="too_small">is required</p>`,
		`<li>Try again later</li>`,
		`&lt;b&gt;hi&lt;/b&gt;</textarea>`,
		`<script type="application/json" id="__formErrors">{"__formErrors":[`,
	} {
		if !strings.Contains(result, want) {
			t.Fatalf("expected output to contain %q\n%s", want, result)
		}
	}
}

func TestFormRendererEmbedsParseableReport(t *testing.T) {
	renderer := page.NewFormRenderer(newEngine(t), page.FormTemplate, nil)
	var buf bytes.Buffer
	if err := renderer.Render(context.Background(), &buf, rejectedView()); err != nil {
		t.Fatalf("render: %v", err)
	}

	out := buf.String()
	start := strings.Index(out, `id="__formErrors">`)
	end := strings.Index(out, `</script>`)
	if start < 0 || end < start {
		t.Fatalf("report script not found\n%s", out)
	}
	report := issue.ParseReport([]byte(out[start+len(`id="__formErrors">`) : end]))
	if report == nil || report.Len() != 2 {
		t.Fatalf("expected embedded report with two issues, got %#v", report)
	}
}

func TestFormRendererPristine(t *testing.T) {
	renderer := page.NewFormRenderer(newEngine(t), "", map[string]any{"submit_label": "Create account"})
	view := action.View{
		Method: "POST",
		Action: "/",
		Fields: []action.Field{{Name: "username", Label: "Username", Type: "text"}},
		Errors: overlay.New(nil, nil),
	}
	var buf bytes.Buffer
	if err := renderer.Render(context.Background(), &buf, view); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "__formErrors") || strings.Contains(out, "field-error") {
		t.Fatalf("pristine form must not carry errors\n%s", out)
	}
	if !strings.Contains(out, "Create account") {
		t.Fatalf("expected extra data to reach the template\n%s", out)
	}
}

func TestEngineCustomTemplatesAndGlobals(t *testing.T) {
	files := fstest.MapFS{
		"hello.tpl": {Data: []byte(`Hello {{ name }} from {{ settings.env }}`)},
	}
	engine := newEngine(t,
		page.WithFS(files),
		page.WithGlobalData(map[string]any{"settings": map[string]any{"env": "staging"}}),
	)

	got, err := engine.RenderTemplate("hello", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Hello Ada from staging" {
		t.Fatalf("unexpected output %q", got)
	}

	if _, err := engine.RenderTemplate(page.SuccessTemplate, map[string]any{"data": "{}"}); err != nil {
		t.Fatalf("built-in templates must stay available: %v", err)
	}
}

func TestEngineExtensionAndWriters(t *testing.T) {
	files := fstest.MapFS{
		"note.html": {Data: []byte(`<p>{{ text }}</p>`)},
	}
	engine := newEngine(t, page.WithFS(files), page.WithExtension("html"))

	got, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("note", map[string]any{"text": "saved"}, w)
	})
	if got != "<p>saved</p>" || written != got {
		t.Fatalf("unexpected output %q (writer %q)", got, written)
	}

	if _, err := engine.RenderString(`{{ items }}`, []string{"a"}); err == nil {
		t.Fatal("expected an error for non-object view data")
	}
}

func TestEngineTemplateFunc(t *testing.T) {
	engine := newEngine(t, page.WithTemplateFunc(map[string]any{
		"shout": func(s string) string { return strings.ToUpper(s) + "!" },
	}))
	got, err := engine.RenderString(`{{ shout(name) }}`, map[string]any{"name": "ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "ADA!" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngineStructData(t *testing.T) {
	type greeting struct {
		Name string `json:"name"`
	}
	engine := newEngine(t)
	got, err := engine.RenderString(`{{ name|trim }}`, greeting{Name: "  Ada  "})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Ada" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestFailureTemplate(t *testing.T) {
	renderer := page.NewFormRenderer(newEngine(t), page.FailureTemplate, nil)
	var buf bytes.Buffer
	if err := renderer.Render(context.Background(), &buf, action.View{Action: "/signup", Errors: overlay.New(nil, nil)}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), `href="/signup"`) {
		t.Fatalf("expected link back to the form\n%s", buf.String())
	}
}

func TestAssetsShipOverlayScript(t *testing.T) {
	data, err := fs.ReadFile(page.Assets(), page.OverlayScript)
	if err != nil {
		t.Fatalf("read overlay script: %v", err)
	}
	if !strings.Contains(string(data), "__formErrors") {
		t.Fatalf("overlay script must read the embedded report")
	}
}

func TestFormRendererLinksRuntimeScript(t *testing.T) {
	engine := newEngine(t, page.WithGlobalData(map[string]any{"runtime_src": "/runtime/formsubmit-overlay.js"}))
	var buf bytes.Buffer
	if err := page.NewFormRenderer(engine, "", nil).Render(context.Background(), &buf, rejectedView()); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), `<script src="/runtime/formsubmit-overlay.js" defer></script>`) {
		t.Fatalf("expected runtime script tag:\n%s", buf.String())
	}
}
