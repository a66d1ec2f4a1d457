package issue

// FieldIssue is a single validation failure reported by a schema engine.
// Path locates the failing field (and subfield); only the first segment is used
// to associate an issue with a top-level form field.
type FieldIssue struct {
	Path    Path   `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// New builds a FieldIssue for a top-level field.
func New(field, code, message string) FieldIssue {
	return FieldIssue{
		Path:    Path{Key(field)},
		Code:    code,
		Message: message,
	}
}

// Field returns the top-level field name the issue belongs to. Issues rooted at
// an index, or with an empty path, report ok=false.
func (i FieldIssue) Field() (string, bool) {
	return i.Path.Head()
}

// FieldError reshapes the issue into the client error shape, mapping the
// machine-readable code onto Type.
func (i FieldIssue) FieldError() FieldError {
	return FieldError{
		Type:    i.Code,
		Message: i.Message,
	}
}

// FieldError is the per-field error shape produced by client-side validation
// and returned by overlay lookups.
type FieldError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
