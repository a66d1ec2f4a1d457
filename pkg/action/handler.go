package action

import (
	"bytes"
	"context"
	"errors"
	"log"
	"mime"
	"net/http"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/goliatone/go-formsubmit/pkg/issue"
	"github.com/goliatone/go-formsubmit/pkg/overlay"
	"github.com/goliatone/go-formsubmit/pkg/payload"
)

var tracer = otel.Tracer("github.com/goliatone/go-formsubmit/pkg/action")

const outcomeKey = attribute.Key("formsubmit.action.outcome")

// SuccessFunc handles a validated submission and returns where to redirect.
// An empty location falls back to WithSuccessRedirect, then to the form URL.
type SuccessFunc[T any] func(ctx context.Context, value T) (string, error)

// describer is implemented by schemas that can list their inputs, such as
// *schema.Schema and schema.TypedSchema.
type describer interface {
	Fields() []string
	Required() []string
	Label(field string) string
	InputType(field string) string
}

// Handler serves one form.
type Handler[T any] struct {
	schema    payload.Schema[T]
	renderer  Renderer
	onSuccess SuccessFunc[T]
	fields    []Field
	cfg       config
}

// New builds a Handler. onSuccess may be nil, in which case a successful
// submission is redirected straight away.
func New[T any](schema payload.Schema[T], renderer Renderer, onSuccess SuccessFunc[T], opts ...Option) (*Handler[T], error) {
	if schema == nil {
		return nil, errors.New("action: schema is required")
	}
	if renderer == nil {
		return nil, errors.New("action: renderer is required")
	}
	cfg := config{errorLog: log.Default(), tracer: tracer}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	fields := cfg.fields
	if len(fields) == 0 {
		if d, ok := any(schema).(describer); ok {
			fields = describe(d)
		}
	}

	return &Handler[T]{
		schema:    schema,
		renderer:  renderer,
		onSuccess: onSuccess,
		fields:    fields,
		cfg:       cfg,
	}, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler[T]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.render(w, r, http.StatusOK, nil, nil)
	case http.MethodPost:
		h.submit(w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

// View builds the page model for r with the given server report. It is what
// ServeHTTP hands to the renderer.
func (h *Handler[T]) View(r *http.Request, status int, values map[string]any, report *issue.Report) View {
	errs := overlay.New(nil, report)

	fields := make([]Field, 0, len(h.fields))
	enctype := "application/x-www-form-urlencoded"
	for _, field := range h.fields {
		secret := field.Type == "password" || field.Type == "file"
		if field.Type == "file" {
			enctype = "multipart/form-data"
		}
		if value, ok := values[field.Name]; ok && (!secret || h.cfg.echoSecrets) {
			field.Value = value
		}
		if found, ok := errs.ErrorFor(field.Name); ok {
			field.Error = found.Message
			field.ErrorType = found.Type
		}
		fields = append(fields, field)
	}

	var formErrors []string
	for _, found := range report.FormLevel() {
		formErrors = append(formErrors, found.Message)
	}

	var dynamic []HiddenField
	if h.cfg.hiddenFunc != nil {
		dynamic = h.cfg.hiddenFunc(r)
	}

	action := h.cfg.action
	if action == "" {
		action = r.URL.RequestURI()
	}

	return View{
		Title:      h.cfg.title,
		Action:     action,
		Method:     http.MethodPost,
		Enctype:    enctype,
		Status:     status,
		Fields:     fields,
		Hidden:     mergeHidden(h.cfg.hidden, dynamic),
		FormErrors: formErrors,
		Report:     report,
		Errors:     errs,
	}
}

func (h *Handler[T]) submit(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.cfg.tracer.Start(r.Context(), "action.Submit")
	defer span.End()
	r = r.WithContext(ctx)

	if h.cfg.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.maxBytes)
	}

	result, err := payload.DecodeRequest(r.Context(), h.schema, r, h.cfg.decode...)
	if err != nil {
		if errors.Is(err, payload.ErrSourceRead) {
			span.SetAttributes(outcomeKey.String("unreadable"))
			h.cfg.errorLog.Printf("action: read submission: %v", err)
			h.badRequest(w, r)
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.fail(w, "decode submission", err)
		return
	}

	if !result.OK {
		span.SetAttributes(outcomeKey.String("rejected"), attribute.Int("formsubmit.action.issues", len(result.Issues)))
		report := payload.FormErrors(h.localize(r, result.Issues))
		if wantsJSON(r) {
			h.writeReport(w, &report)
			return
		}
		h.render(w, r, http.StatusUnprocessableEntity, submittedValues(r), &report)
		return
	}

	location := ""
	if h.onSuccess != nil {
		location, err = h.onSuccess(r.Context(), result.Value)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			h.fail(w, "success hook", err)
			return
		}
	}
	if location == "" {
		location = h.cfg.successURL
	}
	if location == "" {
		location = r.URL.RequestURI()
	}
	span.SetAttributes(outcomeKey.String("accepted"))
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (h *Handler[T]) render(w http.ResponseWriter, r *http.Request, status int, values map[string]any, report *issue.Report) {
	var buf bytes.Buffer
	if err := h.renderer.Render(r.Context(), &buf, h.View(r, status, values, report)); err != nil {
		h.fail(w, "render form", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(buf.Bytes())
	}
}

func (h *Handler[T]) writeReport(w http.ResponseWriter, report *issue.Report) {
	data, err := report.Marshal()
	if err != nil {
		h.fail(w, "encode report", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_, _ = w.Write(data)
}

// badRequest answers an unreadable submission without field errors.
func (h *Handler[T]) badRequest(w http.ResponseWriter, r *http.Request) {
	if h.cfg.failure == nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	view := View{
		Title:  h.cfg.title,
		Action: r.URL.RequestURI(),
		Method: http.MethodPost,
		Status: http.StatusBadRequest,
		Errors: overlay.New(nil, nil),
	}
	var buf bytes.Buffer
	if err := h.cfg.failure.Render(r.Context(), &buf, view); err != nil {
		h.fail(w, "render failure page", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler[T]) fail(w http.ResponseWriter, step string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	h.cfg.errorLog.Printf("action: %s: %v", step, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// submittedValues echoes the last value of each posted text field.
func submittedValues(r *http.Request) map[string]any {
	values := make(map[string]any, len(r.PostForm))
	for name, list := range r.PostForm {
		if len(list) > 0 {
			values[name] = list[len(list)-1]
		}
	}
	return values
}

func describe(d describer) []Field {
	required := d.Required()
	names := d.Fields()
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, Field{
			Name:     name,
			Label:    d.Label(name),
			Type:     d.InputType(name),
			Required: slices.Contains(required, name),
		})
	}
	return fields
}

// wantsJSON reports whether the most preferred media type in Accept is JSON.
func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if accept == "" {
		return false
	}
	first, _, _ := strings.Cut(accept, ",")
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(first))
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}
