package schema_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLint(t *testing.T) {
	const raw = `
type: object
properties:
  username:
    type: string
    x-messages:
      minLength: is required
      tooShort: nope
  color:
    type: string
    x-input: dial
  age:
    type: integer
    x-input: 3
  bio:
    type: string
    x-messages: plain
  email:
    type: string
    x-input: email
    x-messages:
      format: 7
`
	got := mustParse(t, raw).Lint()
	messages := make([]string, 0, len(got))
	for _, v := range got {
		messages = append(messages, v.String())
	}
	want := []string{
		"age -> x-input must be a string, found float64",
		"bio -> x-messages must be an object, found string",
		`color -> unsupported x-input "dial"`,
		"email -> x-messages.format must be a string, found float64",
		`username -> unsupported x-messages keyword "tooShort" (supported: enum, exclusiveMaximum, exclusiveMinimum, format, maxItems, maxLength, maximum, minItems, minLength, minimum, multipleOf, pattern, required, type, uniqueItems)`,
	}
	if diff := cmp.Diff(want, messages); diff != "" {
		t.Fatalf("lint mismatch (-want +got):\n%s", diff)
	}
}

func TestLintClean(t *testing.T) {
	if got := mustParse(t, signupYAML).Lint(); len(got) != 0 {
		t.Fatalf("expected no violations, got %v", got)
	}
}
