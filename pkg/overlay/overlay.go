package overlay

import (
	"github.com/goliatone/go-formsubmit/pkg/issue"
)

// ClientErrors is a read-only, field-keyed view over client validation errors.
type ClientErrors interface {
	Lookup(field string) (issue.FieldError, bool)
}

// ErrorMap is the plain live client error container. It is a map, so an
// overlay built over it observes later writes made by its owner.
type ErrorMap map[string]issue.FieldError

// Lookup implements ClientErrors. A nil map has no errors.
func (m ErrorMap) Lookup(field string) (issue.FieldError, bool) {
	err, ok := m[field]
	return err, ok
}

// Set records an error for field.
func (m ErrorMap) Set(field string, err issue.FieldError) {
	m[field] = err
}

// Clear removes errors for the given fields, or every error when none are
// given.
func (m ErrorMap) Clear(fields ...string) {
	if len(fields) == 0 {
		for field := range m {
			delete(m, field)
		}
		return
	}
	for _, field := range fields {
		delete(m, field)
	}
}

// Origin identifies which source produced an effective error.
type Origin int

const (
	OriginNone Origin = iota
	OriginClient
	OriginServer
)

func (o Origin) String() string {
	switch o {
	case OriginClient:
		return "client"
	case OriginServer:
		return "server"
	default:
		return "none"
	}
}

// Overlay is the merged, read-through error view. It holds references only and
// never writes to either source.
type Overlay struct {
	client ClientErrors
	report *issue.Report
}

// New builds an overlay over a live client error source and an optional
// server report. Either may be nil.
func New(client ClientErrors, report *issue.Report) *Overlay {
	return &Overlay{
		client: client,
		report: report,
	}
}

// ErrorFor returns the effective error for field.
func (o *Overlay) ErrorFor(field string) (issue.FieldError, bool) {
	err, origin := o.resolve(field)
	return err, origin != OriginNone
}

// Lookup makes an Overlay usable wherever ClientErrors is expected.
func (o *Overlay) Lookup(field string) (issue.FieldError, bool) {
	return o.ErrorFor(field)
}

// Origin reports which source currently supplies the error for field.
func (o *Overlay) Origin(field string) Origin {
	_, origin := o.resolve(field)
	return origin
}

// Message returns the effective error message for field, or "".
func (o *Overlay) Message(field string) string {
	err, _ := o.ErrorFor(field)
	return err.Message
}

// Resolve evaluates ErrorFor for each field and returns the fields that have
// an error. The map is a snapshot for one render pass.
func (o *Overlay) Resolve(fields ...string) map[string]issue.FieldError {
	out := make(map[string]issue.FieldError, len(fields))
	for _, field := range fields {
		if err, ok := o.ErrorFor(field); ok {
			out[field] = err
		}
	}
	return out
}

// Report returns the server report the overlay was built with.
func (o *Overlay) Report() *issue.Report {
	if o == nil {
		return nil
	}
	return o.report
}

func (o *Overlay) resolve(field string) (issue.FieldError, Origin) {
	if o == nil {
		return issue.FieldError{}, OriginNone
	}
	if o.client != nil {
		if err, ok := o.client.Lookup(field); ok {
			return err, OriginClient
		}
	}
	if found, ok := o.report.First(field); ok {
		return found.FieldError(), OriginServer
	}
	return issue.FieldError{}, OriginNone
}
