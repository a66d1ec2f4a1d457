package issue

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// ReportKey is the top-level key that marks a response as a server error
// report. Clients recognise server-origin errors by this key alone.
const ReportKey = "__formErrors"

// Report is the wire shape returned by a form action when decoding fails. A nil
// or empty report means the last submission succeeded or none occurred.
type Report struct {
	FormErrors []FieldIssue `json:"__formErrors"`
}

// NewReport wraps issues into a report. The slice is copied so later changes
// to the caller's slice do not leak into the report.
func NewReport(issues []FieldIssue) Report {
	out := make([]FieldIssue, len(issues))
	copy(out, issues)
	return Report{FormErrors: out}
}

// Empty reports whether the report carries no issues. A nil report is empty.
func (r *Report) Empty() bool {
	return r == nil || len(r.FormErrors) == 0
}

// Len returns the number of issues in the report.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.FormErrors)
}

// First returns the first issue, in report order, whose top-level path segment
// equals field.
func (r *Report) First(field string) (FieldIssue, bool) {
	if r == nil {
		return FieldIssue{}, false
	}
	for _, candidate := range r.FormErrors {
		if head, ok := candidate.Path.Head(); ok && head == field {
			return candidate, true
		}
	}
	return FieldIssue{}, false
}

// Fields lists the distinct top-level fields that have issues, in report order.
func (r *Report) Fields() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(r.FormErrors))
	var out []string
	for _, candidate := range r.FormErrors {
		head, ok := candidate.Path.Head()
		if !ok {
			continue
		}
		if _, exists := seen[head]; exists {
			continue
		}
		seen[head] = struct{}{}
		out = append(out, head)
	}
	return out
}

// FormLevel returns issues that are not attached to a named field (empty path
// or index-rooted path).
func (r *Report) FormLevel() []FieldIssue {
	if r == nil {
		return nil
	}
	var out []FieldIssue
	for _, candidate := range r.FormErrors {
		if _, ok := candidate.Path.Head(); !ok {
			out = append(out, candidate)
		}
	}
	return out
}

// Marshal encodes the report in its wire shape. A nil issue list encodes as an
// empty array so the marker key is always present.
func (r Report) Marshal() ([]byte, error) {
	if r.FormErrors == nil {
		r.FormErrors = []FieldIssue{}
	}
	data, err := sonic.ConfigStd.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("issue: encode report: %w", err)
	}
	return data, nil
}

// ParseReport reads a response document. It returns nil whenever the document
// is not a server error report: malformed JSON, a different shape, or a
// missing __formErrors key. Entries that do not decode as an issue (a bad path
// segment, a non-object entry) are skipped and the rest are kept. Callers
// render with degraded error information rather than failing.
func ParseReport(data []byte) *Report {
	if len(data) == 0 {
		return nil
	}
	var envelope struct {
		FormErrors *[]json.RawMessage `json:"__formErrors"`
	}
	if err := sonic.ConfigStd.Unmarshal(data, &envelope); err != nil {
		return nil
	}
	if envelope.FormErrors == nil {
		return nil
	}
	issues := make([]FieldIssue, 0, len(*envelope.FormErrors))
	for _, raw := range *envelope.FormErrors {
		var found FieldIssue
		if err := sonic.ConfigStd.Unmarshal(raw, &found); err != nil {
			continue
		}
		issues = append(issues, found)
	}
	return &Report{FormErrors: issues}
}

// ReportFrom extracts a report from arbitrary page data, such as an action
// result kept in a template context. Values that are already reports are
// returned directly; everything else round-trips through JSON and is subject
// to the same rules as ParseReport.
func ReportFrom(value any) *Report {
	switch v := value.(type) {
	case nil:
		return nil
	case *Report:
		return v
	case Report:
		return &v
	case []byte:
		return ParseReport(v)
	case string:
		return ParseReport([]byte(v))
	}
	data, err := sonic.ConfigStd.Marshal(value)
	if err != nil {
		return nil
	}
	return ParseReport(data)
}
