package payload_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/unicode/norm"

	"github.com/goliatone/go-formsubmit/pkg/payload"
)

func TestFlatten_LastValueWins(t *testing.T) {
	fields := payload.NewFields().
		AddText("color", "red").
		AddText("color", "green").
		AddText("size", "m")

	got := payload.Flatten(fields)
	want := map[string]any{"color": "green", "size": "m"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("flatten mismatch (-want +got):\n%s", diff)
	}
}

func TestFlatten_MultiValueExtension(t *testing.T) {
	fields := payload.NewFields().
		AddText("roles", "admin").
		AddText("roles", "editor").
		AddText("name", "first").
		AddText("name", "second")

	got := payload.Flatten(fields, payload.WithMultiValue("roles", " "))
	want := map[string]any{
		"roles": []any{"admin", "editor"},
		"name":  "second",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("flatten mismatch (-want +got):\n%s", diff)
	}
}

func TestFlatten_TextTransforms(t *testing.T) {
	decomposed := "Cafe\u0301"
	fields := payload.NewFields().
		AddText("bio", "  <b>hello</b> world  ").
		AddText("city", decomposed)

	got := payload.Flatten(fields,
		payload.WithTrimSpace(),
		payload.WithStrictSanitizer(),
		payload.WithNormalization(norm.NFC),
	)

	if got["bio"] != "hello world" {
		t.Fatalf("expected markup stripped and trimmed, got %q", got["bio"])
	}
	if got["city"] != "Caf\u00e9" {
		t.Fatalf("expected NFC composed city, got %q", got["city"])
	}
}

func TestFlatten_NilSource(t *testing.T) {
	got := payload.Flatten(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil map, got %#v", got)
	}
}

type emptyValues struct{}

func (emptyValues) Names() []string              { return []string{"ghost"} }
func (emptyValues) Values(string) []payload.Value { return nil }

func TestFlatten_SkipsNamesWithoutValues(t *testing.T) {
	if got := payload.Flatten(emptyValues{}); len(got) != 0 {
		t.Fatalf("expected names without values to be skipped, got %#v", got)
	}
}
