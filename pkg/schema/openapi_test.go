package schema_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsubmit/pkg/schema"
)

const signupOpenAPI = `
openapi: 3.0.3
info:
  title: signup
  version: 1.0.0
paths:
  /signup:
    post:
      operationId: createAccount
      requestBody:
        content:
          application/x-www-form-urlencoded:
            schema:
              $ref: '#/components/schemas/Signup'
      responses:
        '303':
          description: created
components:
  schemas:
    Signup:
      type: object
      required: [username, password]
      properties:
        username:
          type: string
          minLength: 1
        password:
          type: string
          minLength: 8
        bio:
          type: string
`

func TestFromOpenAPI(t *testing.T) {
	doc, err := schema.NewDocument(schema.SourceFromBytes("openapi.yaml"), []byte(signupOpenAPI))
	if err != nil {
		t.Fatalf("document: %v", err)
	}

	for _, operation := range []string{"createAccount", "post:/signup"} {
		t.Run(operation, func(t *testing.T) {
			s, err := schema.FromOpenAPI(context.Background(), doc, operation)
			if err != nil {
				t.Fatalf("from openapi: %v", err)
			}
			if diff := cmp.Diff([]string{"username", "password", "bio"}, s.Fields()); diff != "" {
				t.Fatalf("fields mismatch (-want +got):\n%s", diff)
			}
			if s.Name() != operation {
				t.Fatalf("expected name %q, got %q", operation, s.Name())
			}
		})
	}

	if _, err := schema.FromOpenAPI(context.Background(), doc, "missing"); err == nil {
		t.Fatalf("expected error for unknown operation")
	}
}

func TestRegistry(t *testing.T) {
	registry := schema.NewRegistry()
	signup := mustParse(t, signupYAML)
	profile := mustParse(t, profileYAML, schema.WithName("profile"))

	registry.MustRegister(signup)
	registry.MustRegister(profile)
	if err := registry.Register(signup); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := registry.Register(mustParse(t, profileYAML, schema.WithName(""))); err == nil {
		t.Fatalf("expected unnamed schema to be rejected")
	}

	if diff := cmp.Diff([]string{"profile", "signup"}, registry.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	got, err := registry.Get("signup")
	if err != nil || got != signup {
		t.Fatalf("expected signup schema, got %v (%v)", got, err)
	}
	if registry.Has("missing") {
		t.Fatalf("unexpected schema")
	}
}
