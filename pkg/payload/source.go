package payload

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// DefaultMaxMemory bounds the in-memory part of multipart parsing; larger file
// parts spill to temporary files.
const DefaultMaxMemory int64 = 32 << 20

// ErrSourceRead classifies every failure to read or parse a raw submission.
var ErrSourceRead = errors.New("payload: submission could not be read")

// ErrUnsupportedContentType is wrapped by SourceReadError when the request body
// is not form encoded.
var ErrUnsupportedContentType = errors.New("payload: unsupported content type")

// SourceReadError reports a transport or encoding failure while reading the
// submission. It is not a validation failure and is never converted to issues.
type SourceReadError struct {
	Err error
}

func (e *SourceReadError) Error() string {
	if e == nil || e.Err == nil {
		return ErrSourceRead.Error()
	}
	return fmt.Sprintf("%s: %v", ErrSourceRead.Error(), e.Err)
}

func (e *SourceReadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is(err, ErrSourceRead) match any SourceReadError.
func (e *SourceReadError) Is(target error) bool {
	return target == ErrSourceRead
}

// Value is a single submitted value: text, or a file blob from a multipart
// submission.
type Value struct {
	Text string
	File *multipart.FileHeader
}

// Text wraps a text value.
func Text(s string) Value {
	return Value{Text: s}
}

// File wraps an uploaded file.
func File(header *multipart.FileHeader) Value {
	return Value{File: header}
}

// IsFile reports whether the value is a file blob.
func (v Value) IsFile() bool {
	return v.File != nil
}

// Source is a source-agnostic accessor over a submission: the distinct field
// names in source order and the values submitted for each.
type Source interface {
	Names() []string
	Values(name string) []Value
}

// Fields is an ordered multi-map Source. The zero value is ready to use.
type Fields struct {
	names  []string
	values map[string][]Value
}

// NewFields returns an empty Fields.
func NewFields() *Fields {
	return &Fields{values: make(map[string][]Value)}
}

// Add appends a value for name, recording name on first sight.
func (f *Fields) Add(name string, value Value) *Fields {
	if f.values == nil {
		f.values = make(map[string][]Value)
	}
	if _, seen := f.values[name]; !seen {
		f.names = append(f.names, name)
	}
	f.values[name] = append(f.values[name], value)
	return f
}

// AddText appends a text value for name.
func (f *Fields) AddText(name, text string) *Fields {
	return f.Add(name, Text(text))
}

// Names returns the distinct names in insertion order.
func (f *Fields) Names() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Values returns the values recorded for name, in insertion order.
func (f *Fields) Values(name string) []Value {
	if f == nil {
		return nil
	}
	return f.values[name]
}

// FromValues adapts url.Values. url.Values carries no ordering between names,
// so names are sorted; the order of values within a name is preserved.
func FromValues(values url.Values) *Fields {
	fields := NewFields()
	for _, name := range sortedKeys(values) {
		for _, text := range values[name] {
			fields.AddText(name, text)
		}
	}
	return fields
}

// FromMultipart adapts a parsed multipart form. Text parts come first, then
// file parts, each group sorted by name.
func FromMultipart(form *multipart.Form) *Fields {
	fields := NewFields()
	if form == nil {
		return fields
	}
	for _, name := range sortedKeys(form.Value) {
		for _, text := range form.Value[name] {
			fields.AddText(name, text)
		}
	}
	for _, name := range sortedKeys(form.File) {
		for _, header := range form.File[name] {
			fields.Add(name, File(header))
		}
	}
	return fields
}

// FromRequest reads the request body as form data. URL-encoded and multipart
// bodies are supported; the query string is ignored. The body is consumed: do
// not read it again afterwards. Failures are returned as *SourceReadError.
func FromRequest(r *http.Request, opts ...Option) (*Fields, error) {
	if r == nil {
		return nil, &SourceReadError{Err: errors.New("request is nil")}
	}
	cfg := newConfig(opts)

	mediaType := ""
	if raw := strings.TrimSpace(r.Header.Get("Content-Type")); raw != "" {
		parsed, _, err := mime.ParseMediaType(raw)
		if err != nil {
			return nil, &SourceReadError{Err: fmt.Errorf("parse content type: %w", err)}
		}
		mediaType = strings.ToLower(parsed)
	}

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(cfg.maxMemory); err != nil {
			return nil, &SourceReadError{Err: fmt.Errorf("parse multipart form: %w", err)}
		}
		return FromMultipart(r.MultipartForm), nil
	case "", "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, &SourceReadError{Err: fmt.Errorf("parse form: %w", err)}
		}
		return FromValues(r.PostForm), nil
	default:
		return nil, &SourceReadError{Err: fmt.Errorf("%w %q", ErrUnsupportedContentType, mediaType)}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
