package action_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsubmit/pkg/action"
	"github.com/goliatone/go-formsubmit/pkg/issue"
	"github.com/goliatone/go-formsubmit/pkg/schema"
)

const signupYAML = `
type: object
required: [username, password]
properties:
  username:
    type: string
    minLength: 1
    x-messages:
      minLength: is required
  bio:
    type: string
  password:
    type: string
    format: password
    minLength: 8
`

type signup struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
}

func signupSchema(t *testing.T) schema.TypedSchema[signup] {
	t.Helper()
	doc, err := schema.NewDocument(schema.SourceFromBytes("signup.yaml"), []byte(signupYAML))
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	s, err := schema.Parse(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return schema.Typed[signup](s)
}

// captureRenderer records the last view and prints one line per field.
type captureRenderer struct {
	last action.View
}

func (c *captureRenderer) Render(_ context.Context, w io.Writer, view action.View) error {
	c.last = view
	for _, field := range view.Fields {
		fmt.Fprintf(w, "%s=%v error=%q\n", field.Name, field.Value, field.Error)
	}
	return nil
}

func newHandler(t *testing.T, renderer action.Renderer, onSuccess action.SuccessFunc[signup], opts ...action.Option) *action.Handler[signup] {
	t.Helper()
	handler, err := action.New(signupSchema(t), renderer, onSuccess, opts...)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

func postForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestGetRendersPristineForm(t *testing.T) {
	renderer := &captureRenderer{}
	handler := newHandler(t, renderer, nil, action.WithHiddenFields(action.CSRFToken("_csrf", "abc")))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/signup", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	wantFields := []action.Field{
		{Name: "username", Label: "Username", Type: "text", Required: true},
		{Name: "bio", Label: "Bio", Type: "text"},
		{Name: "password", Label: "Password", Type: "password", Required: true},
	}
	if diff := cmp.Diff(wantFields, renderer.last.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]action.HiddenField{{Name: "_csrf", Value: "abc"}}, renderer.last.Hidden); diff != "" {
		t.Fatalf("hidden mismatch (-want +got):\n%s", diff)
	}
	if renderer.last.Action != "/signup" || renderer.last.Method != http.MethodPost {
		t.Fatalf("unexpected form target %s %s", renderer.last.Method, renderer.last.Action)
	}
}

func TestPostRejectionRerendersWithServerErrors(t *testing.T) {
	renderer := &captureRenderer{}
	handler := newHandler(t, renderer, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, postForm(url.Values{
		"username": {""},
		"password": {"short"},
		"bio":      {"hello"},
	}))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	want := "username= error=\"is required\"\n" +
		"bio=hello error=\"\"\n" +
		"password=<nil> error=\"String must contain at least 8 character(s)\"\n"
	if diff := cmp.Diff(want, rec.Body.String()); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
	if got := renderer.last.ErrorFor("password"); got != "String must contain at least 8 character(s)" {
		t.Fatalf("unexpected view error %q", got)
	}
	if renderer.last.Report.Len() != 2 {
		t.Fatalf("expected report with 2 issues, got %d", renderer.last.Report.Len())
	}
}

func TestPostRejectionAsJSON(t *testing.T) {
	handler := newHandler(t, &captureRenderer{}, nil)

	req := postForm(url.Values{"username": {""}, "password": {"correct horse"}})
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	report := issue.ParseReport(rec.Body.Bytes())
	if report == nil {
		t.Fatalf("expected a __formErrors report, got %s", rec.Body.String())
	}
	want := []issue.FieldIssue{issue.New("username", "too_small", "is required")}
	if diff := cmp.Diff(want, report.FormErrors); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestPostRejectionLocalized(t *testing.T) {
	translations := map[string]map[string]string{
		"es": {"formsubmit.username.too_small": "es obligatorio"},
		"de": {"formsubmit.username.too_small": "ist erforderlich"},
	}
	translator := issue.TranslatorFunc(func(locale, key string, _ ...any) (string, error) {
		if msg, ok := translations[locale][key]; ok {
			return msg, nil
		}
		return "", errors.New("missing")
	})
	handler := newHandler(t, &captureRenderer{}, nil, action.WithTranslator(translator, "en", "es", "de"))

	cases := map[string]string{
		"es-MX,es;q=0.9": "es obligatorio",
		"de":             "ist erforderlich",
		"fr":             "is required",
		"":               "is required",
	}
	t.Run("lang query", func(t *testing.T) {
		req := postForm(url.Values{"username": {""}, "password": {"correct horse"}})
		req.URL.RawQuery = "lang=de"
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Accept-Language", "es")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if report := issue.ParseReport(rec.Body.Bytes()); report == nil || report.FormErrors[0].Message != "ist erforderlich" {
			t.Fatalf("lang parameter must win, got %s", rec.Body.String())
		}
	})
	for header, want := range cases {
		t.Run(header, func(t *testing.T) {
			req := postForm(url.Values{"username": {""}, "password": {"correct horse"}})
			req.Header.Set("Accept", "application/json")
			if header != "" {
				req.Header.Set("Accept-Language", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			report := issue.ParseReport(rec.Body.Bytes())
			if report == nil || report.Len() != 1 {
				t.Fatalf("expected one issue, got %s", rec.Body.String())
			}
			if got := report.FormErrors[0].Message; got != want {
				t.Fatalf("message = %q, want %q", got, want)
			}
		})
	}
}

func TestPostSuccessCallsHook(t *testing.T) {
	var got signup
	handler := newHandler(t, &captureRenderer{}, func(_ context.Context, value signup) (string, error) {
		got = value
		return "/welcome", nil
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, postForm(url.Values{
		"username": {"first", "ada"},
		"password": {"correct horse"},
	}))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/welcome" {
		t.Fatalf("expected redirect to /welcome, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if diff := cmp.Diff(signup{Username: "ada", Password: "correct horse"}, got); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestPostSuccessDefaultRedirect(t *testing.T) {
	handler := newHandler(t, &captureRenderer{}, nil, action.WithSuccessRedirect("/done"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, postForm(url.Values{"username": {"ada"}, "password": {"correct horse"}}))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/done" {
		t.Fatalf("expected redirect to /done, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestPostSuccessHookError(t *testing.T) {
	handler := newHandler(t, &captureRenderer{}, func(context.Context, signup) (string, error) {
		return "", errors.New("store unavailable")
	}, action.WithErrorLog(discardLog()))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, postForm(url.Values{"username": {"ada"}, "password": {"correct horse"}}))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestPostUnreadableBody(t *testing.T) {
	renderer := &captureRenderer{}
	handler := newHandler(t, renderer, nil, action.WithErrorLog(discardLog()))

	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"username":"ada"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(renderer.last.Fields) != 0 {
		t.Fatalf("unreadable bodies must not render field errors")
	}
}

func TestPostUnreadableBodyFailurePage(t *testing.T) {
	failure := action.RendererFunc(func(_ context.Context, w io.Writer, view action.View) error {
		_, err := fmt.Fprintf(w, "failed with %d", view.Status)
		return err
	})
	handler := newHandler(t, &captureRenderer{}, nil, action.WithFailurePage(failure), action.WithErrorLog(discardLog()))

	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader("%zz"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest || rec.Body.String() != "failed with 400" {
		t.Fatalf("expected failure page, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestPostBodyTooLarge(t *testing.T) {
	handler := newHandler(t, &captureRenderer{}, nil, action.WithMaxBytes(8), action.WithErrorLog(discardLog()))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, postForm(url.Values{"username": {"a very long username"}, "password": {"correct horse"}}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPostMultipart(t *testing.T) {
	var got signup
	handler := newHandler(t, &captureRenderer{}, func(_ context.Context, value signup) (string, error) {
		got = value
		return "", nil
	})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("username", "ada")
	_ = writer.WriteField("password", "correct horse")
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/signup", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/signup" || got.Username != "ada" {
		t.Fatalf("expected multipart success, got %d %#v", rec.Code, got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newHandler(t, &captureRenderer{}, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/signup", nil))
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") == "" {
		t.Fatalf("expected 405 with Allow header, got %d", rec.Code)
	}
}

func TestNewRequiresSchemaAndRenderer(t *testing.T) {
	if _, err := action.New[signup](nil, &captureRenderer{}, nil); err == nil {
		t.Fatalf("expected error without schema")
	}
	if _, err := action.New[signup](signupSchema(t), nil, nil); err == nil {
		t.Fatalf("expected error without renderer")
	}
}
