package payload

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/goliatone/go-formsubmit/pkg/issue"
)

// ErrNilSchema is returned when Decode is called without a schema.
var ErrNilSchema = errors.New("payload: schema is required")

// Schema validates a flattened submission and returns its typed output. The
// output may differ from the input shape (coercion, defaults, stripped keys).
// A rejection should implement IssueLister so its issues reach the caller.
type Schema[T any] interface {
	Validate(ctx context.Context, data map[string]any) (T, error)
}

// SchemaFunc adapts a function to Schema.
type SchemaFunc[T any] func(ctx context.Context, data map[string]any) (T, error)

// Validate calls f.
func (f SchemaFunc[T]) Validate(ctx context.Context, data map[string]any) (T, error) {
	return f(ctx, data)
}

// IssueLister is implemented by schema rejections that carry an ordered list
// of field issues.
type IssueLister interface {
	Issues() []issue.FieldIssue
}

// ValidationError is the stock schema rejection.
type ValidationError struct {
	issues []issue.FieldIssue
}

// NewValidationError wraps issues in a ValidationError.
func NewValidationError(issues ...issue.FieldIssue) *ValidationError {
	out := make([]issue.FieldIssue, len(issues))
	copy(out, issues)
	return &ValidationError{issues: out}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "payload: validation failed"
	}
	return fmt.Sprintf("payload: validation failed with %d issue(s)", len(e.issues))
}

// Issues returns the rejection's issues in schema order.
func (e *ValidationError) Issues() []issue.FieldIssue {
	if e == nil {
		return nil
	}
	return e.issues
}

// Result is the outcome of decoding: either OK with Value, or not OK with the
// schema's Issues.
type Result[T any] struct {
	OK     bool
	Value  T
	Issues []issue.FieldIssue
}

// Report returns the wire report for a failed result and nil for a successful
// one.
func (r Result[T]) Report() *issue.Report {
	if r.OK {
		return nil
	}
	report := FormErrors(r.Issues)
	return &report
}

// FormErrors converts a failure's issues into the `__formErrors` wire report.
func FormErrors(issues []issue.FieldIssue) issue.Report {
	return issue.NewReport(issues)
}

// Decode flattens src and validates it against schema.
//
// A rejection exposing issues yields Result{OK: false} with those issues in the
// schema's order; nothing is re-mapped or de-duplicated. Any other schema error
// (for example a cancelled context) is returned as-is.
func Decode[T any](ctx context.Context, schema Schema[T], src Source, opts ...Option) (Result[T], error) {
	cfg := newConfig(opts)
	return decodeMap(ctx, schema, flatten(src, cfg), cfg)
}

// DecodeMap validates an already flattened submission.
func DecodeMap[T any](ctx context.Context, schema Schema[T], data map[string]any, opts ...Option) (Result[T], error) {
	return decodeMap(ctx, schema, data, newConfig(opts))
}

// DecodeRequest reads the request body as form data and decodes it. Read
// failures are returned unchanged as *SourceReadError so callers can answer
// with a generic failure instead of field errors.
func DecodeRequest[T any](ctx context.Context, schema Schema[T], r *http.Request, opts ...Option) (Result[T], error) {
	src, err := FromRequest(r, opts...)
	if err != nil {
		return Result[T]{}, err
	}
	return Decode(ctx, schema, src, opts...)
}

func decodeMap[T any](ctx context.Context, schema Schema[T], data map[string]any, cfg config) (Result[T], error) {
	if schema == nil {
		return Result[T]{}, ErrNilSchema
	}
	if data == nil {
		data = map[string]any{}
	}

	ctx, span := cfg.tracer.Start(ctx, "payload.Decode")
	defer span.End()
	span.SetAttributes(attribute.Int("formsubmit.payload.fields", len(data)))

	value, err := schema.Validate(ctx, data)
	if err == nil {
		span.SetAttributes(attribute.Bool("formsubmit.payload.ok", true))
		return Result[T]{OK: true, Value: value}, nil
	}

	var lister IssueLister
	if errors.As(err, &lister) {
		issues := lister.Issues()
		span.SetAttributes(
			attribute.Bool("formsubmit.payload.ok", false),
			attribute.Int("formsubmit.payload.issues", len(issues)),
		)
		return Result[T]{OK: false, Issues: issues}, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return Result[T]{}, err
}
