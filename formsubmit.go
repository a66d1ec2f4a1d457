// Package formsubmit validates HTML form submissions against a schema and
// merges the resulting server issues with live client errors.
//
// The root package re-exports the common entry points; the pkg/ packages carry
// the full APIs.
package formsubmit

import (
	"context"
	"net/http"

	"github.com/goliatone/go-formsubmit/pkg/action"
	"github.com/goliatone/go-formsubmit/pkg/issue"
	"github.com/goliatone/go-formsubmit/pkg/overlay"
	"github.com/goliatone/go-formsubmit/pkg/payload"
	"github.com/goliatone/go-formsubmit/pkg/schema"
)

// FieldIssue is one schema violation.
type FieldIssue = issue.FieldIssue

// FieldError is the effective error shown next to an input.
type FieldError = issue.FieldError

// Report is the {"__formErrors": [...]} wire report.
type Report = issue.Report

// Result is the outcome of decoding one submission.
type Result[T any] = payload.Result[T]

// Schema validates flattened submissions.
type Schema[T any] = payload.Schema[T]

// ErrSourceRead matches every submission read failure.
var ErrSourceRead = payload.ErrSourceRead

// ReportKey is the wire key of a failure report.
const ReportKey = issue.ReportKey

// Decode flattens src and validates it with s.
func Decode[T any](ctx context.Context, s Schema[T], src payload.Source, opts ...payload.Option) (Result[T], error) {
	return payload.Decode(ctx, s, src, opts...)
}

// DecodeRequest reads r's form body and validates it with s.
func DecodeRequest[T any](ctx context.Context, s Schema[T], r *http.Request, opts ...payload.Option) (Result[T], error) {
	return payload.DecodeRequest(ctx, s, r, opts...)
}

// NewOverlay merges live client errors with a server report.
func NewOverlay(client overlay.ClientErrors, report *Report) *overlay.Overlay {
	return overlay.New(client, report)
}

// NewHandler builds an http.Handler that renders, validates and accepts one
// form.
func NewHandler[T any](s Schema[T], renderer action.Renderer, onSuccess action.SuccessFunc[T], opts ...action.Option) (*action.Handler[T], error) {
	return action.New(s, renderer, onSuccess, opts...)
}

// LoadSchema reads and compiles a form schema document.
func LoadSchema(ctx context.Context, src schema.Source, opts ...schema.Option) (*schema.Schema, error) {
	return schema.Load(ctx, src, opts...)
}

// SchemaFromOpenAPI compiles the form request body of one OpenAPI operation.
func SchemaFromOpenAPI(ctx context.Context, src schema.Source, operation string, opts ...schema.Option) (*schema.Schema, error) {
	doc, err := schema.ReadDocument(ctx, src, nil)
	if err != nil {
		return nil, err
	}
	return schema.FromOpenAPI(ctx, doc, operation, opts...)
}
