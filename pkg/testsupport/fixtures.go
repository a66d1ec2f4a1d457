package testsupport

import (
	"bytes"
	"context"
	"embed"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-formsubmit/pkg/issue"
	"github.com/goliatone/go-formsubmit/pkg/schema"
)

//go:embed testdata/*.yaml
var fixtures embed.FS

// SignupSchemaPath is the embedded path of the username/bio/password schema.
const SignupSchemaPath = "testdata/signup.yaml"

// SignupSchema loads the signup fixture: username (minLength 1, "is
// required"), optional bio, password (minLength 8).
func SignupSchema(t *testing.T, opts ...schema.Option) *schema.Schema {
	t.Helper()
	s, err := schema.Load(context.Background(), schema.SourceFromFS(fixtures, SignupSchemaPath), opts...)
	if err != nil {
		t.Fatalf("load signup schema: %v", err)
	}
	return s
}

// MustReadReport reads a golden __formErrors document.
func MustReadReport(t *testing.T, path string) *issue.Report {
	t.Helper()
	report := issue.ParseReport(MustReadGolden(t, path))
	if report == nil {
		t.Fatalf("golden %s is not a __formErrors report", path)
	}
	return report
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
