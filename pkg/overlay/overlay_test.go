package overlay_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsubmit/pkg/issue"
	"github.com/goliatone/go-formsubmit/pkg/overlay"
)

func serverReport(issues ...issue.FieldIssue) *issue.Report {
	report := issue.NewReport(issues)
	return &report
}

func TestErrorFor_ClientWinsOverServer(t *testing.T) {
	client := overlay.ErrorMap{
		"username": {Type: "required", Message: "X"},
	}
	view := overlay.New(client, serverReport(issue.New("username", "y", "Y")))

	got, ok := view.ErrorFor("username")
	if !ok {
		t.Fatalf("expected an error for username")
	}
	want := issue.FieldError{Type: "required", Message: "X"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("effective error mismatch (-want +got):\n%s", diff)
	}
	if origin := view.Origin("username"); origin != overlay.OriginClient {
		t.Fatalf("expected client origin, got %s", origin)
	}
}

func TestErrorFor_FallsBackToServer(t *testing.T) {
	view := overlay.New(overlay.ErrorMap{}, serverReport(
		issue.New("username", "too_small", "is required"),
		issue.New("password", "too_small", "String must contain at least 8 character(s)"),
	))

	got, ok := view.ErrorFor("password")
	if !ok {
		t.Fatalf("expected server error for password")
	}
	want := issue.FieldError{Type: "too_small", Message: "String must contain at least 8 character(s)"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("effective error mismatch (-want +got):\n%s", diff)
	}
	if origin := view.Origin("password"); origin != overlay.OriginServer {
		t.Fatalf("expected server origin, got %s", origin)
	}
}

func TestErrorFor_Miss(t *testing.T) {
	view := overlay.New(overlay.ErrorMap{}, serverReport(issue.New("username", "too_small", "is required")))

	got, ok := view.ErrorFor("bio")
	if ok {
		t.Fatalf("expected no error for bio, got %#v", got)
	}
	if got != (issue.FieldError{}) {
		t.Fatalf("miss must return the zero error, got %#v", got)
	}
	if view.Message("bio") != "" {
		t.Fatalf("miss must have an empty message")
	}
	if view.Origin("bio") != overlay.OriginNone {
		t.Fatalf("miss must have no origin")
	}
}

func TestErrorFor_SeesLiveClientMutations(t *testing.T) {
	client := overlay.ErrorMap{}
	view := overlay.New(client, serverReport(issue.New("password", "too_small", "stale server error")))

	if got := view.Message("password"); got != "stale server error" {
		t.Fatalf("expected server fallback before mutation, got %q", got)
	}

	client.Set("password", issue.FieldError{Type: "pattern", Message: "needs a digit"})
	if got := view.Message("password"); got != "needs a digit" {
		t.Fatalf("expected live client error after mutation, got %q", got)
	}

	client.Clear("password")
	if got := view.Message("password"); got != "stale server error" {
		t.Fatalf("expected server fallback after clearing, got %q", got)
	}
}

func TestErrorFor_FirstServerIssueWins(t *testing.T) {
	view := overlay.New(nil, serverReport(
		issue.New("email", "invalid_string", "first"),
		issue.New("email", "too_big", "second"),
	))
	if got := view.Message("email"); got != "first" {
		t.Fatalf("expected the first server issue, got %q", got)
	}
}

func TestErrorFor_MatchesOnTopLevelSegmentOnly(t *testing.T) {
	view := overlay.New(nil, serverReport(
		issue.FieldIssue{Path: issue.NewPath("address", "zip"), Code: "too_small", Message: "zip"},
		issue.FieldIssue{Path: issue.NewPath(0), Code: "custom", Message: "index"},
	))
	if got := view.Message("address"); got != "zip" {
		t.Fatalf("expected nested issue to match its top-level field, got %q", got)
	}
	if _, ok := view.ErrorFor("zip"); ok {
		t.Fatalf("nested segment must not match")
	}
	if _, ok := view.ErrorFor("0"); ok {
		t.Fatalf("index segment must not match a field named \"0\"")
	}
}

func TestErrorFor_AbsentSources(t *testing.T) {
	var nilMap overlay.ErrorMap
	cases := map[string]*overlay.Overlay{
		"nil client and report": overlay.New(nil, nil),
		"nil map":               overlay.New(nilMap, nil),
		"empty report":          overlay.New(nil, &issue.Report{}),
		"nil overlay":           nil,
	}
	for name, view := range cases {
		t.Run(name, func(t *testing.T) {
			if _, ok := view.ErrorFor("username"); ok {
				t.Fatalf("expected no error")
			}
			if got := view.Resolve("username", "password"); len(got) != 0 {
				t.Fatalf("expected empty resolution, got %#v", got)
			}
		})
	}
}

func TestErrorFor_DoesNotMutateSources(t *testing.T) {
	client := overlay.ErrorMap{"username": {Type: "required", Message: "X"}}
	report := serverReport(issue.New("password", "too_small", "short"))
	before, err := report.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	view := overlay.New(client, report)
	for i := 0; i < 3; i++ {
		view.ErrorFor("username")
		view.ErrorFor("password")
		view.ErrorFor("bio")
	}

	after, err := report.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("report mutated\nbefore: %s\n after: %s", before, after)
	}
	if len(client) != 1 {
		t.Fatalf("client map mutated: %#v", client)
	}
}

func TestResolve(t *testing.T) {
	view := overlay.New(
		overlay.ErrorMap{"username": {Type: "required", Message: "X"}},
		serverReport(issue.New("password", "too_small", "short")),
	)

	got := view.Resolve("username", "password", "bio")
	want := map[string]issue.FieldError{
		"username": {Type: "required", Message: "X"},
		"password": {Type: "too_small", Message: "short"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestOverlayIsClientErrors(t *testing.T) {
	var _ overlay.ClientErrors = overlay.New(nil, nil)

	inner := overlay.New(overlay.ErrorMap{"a": {Type: "t", Message: "inner"}}, nil)
	outer := overlay.New(inner, serverReport(issue.New("b", "c", "outer")))
	if outer.Message("a") != "inner" || outer.Message("b") != "outer" {
		t.Fatalf("stacked overlays must compose")
	}
}
