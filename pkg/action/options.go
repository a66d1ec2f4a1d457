package action

import (
	"log"
	"net/http"
	"slices"

	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-formsubmit/pkg/issue"
	"github.com/goliatone/go-formsubmit/pkg/payload"
)

// Option configures a Handler.
type Option func(*config)

type config struct {
	title       string
	action      string
	successURL  string
	maxBytes    int64
	fields      []Field
	hidden      []HiddenField
	hiddenFunc  func(*http.Request) []HiddenField
	decode      []payload.Option
	errorLog    *log.Logger
	echoSecrets bool
	failure     Renderer
	translator  issue.Translator
	onMissing   issue.MissingTranslationHandler
	locales     *localeMatcher
	tracer      trace.Tracer
}

// WithTitle sets the page title.
func WithTitle(title string) Option {
	return func(cfg *config) {
		cfg.title = title
	}
}

// WithAction overrides the form's action URL. By default the form posts back
// to the URL it was served from.
func WithAction(url string) Option {
	return func(cfg *config) {
		cfg.action = url
	}
}

// WithSuccessRedirect sets where a successful submission is redirected when
// the success hook returns no location.
func WithSuccessRedirect(url string) Option {
	return func(cfg *config) {
		cfg.successURL = url
	}
}

// WithMaxBytes caps the request body size. Larger bodies are rejected as
// unreadable.
func WithMaxBytes(n int64) Option {
	return func(cfg *config) {
		cfg.maxBytes = n
	}
}

// WithFields declares the visible inputs. Without it the fields are taken from
// the schema when it describes them.
func WithFields(fields ...Field) Option {
	return func(cfg *config) {
		cfg.fields = slices.Clone(fields)
	}
}

// WithHiddenFields adds static hidden inputs.
func WithHiddenFields(fields ...HiddenField) Option {
	return func(cfg *config) {
		cfg.hidden = append(cfg.hidden, fields...)
	}
}

// WithHiddenFunc adds per-request hidden inputs, such as a CSRF token bound to
// the session.
func WithHiddenFunc(fn func(*http.Request) []HiddenField) Option {
	return func(cfg *config) {
		cfg.hiddenFunc = fn
	}
}

// WithDecodeOptions forwards options to payload.DecodeRequest.
func WithDecodeOptions(opts ...payload.Option) Option {
	return func(cfg *config) {
		cfg.decode = append(cfg.decode, opts...)
	}
}

// WithErrorLog sets the logger for failures the client never sees in detail.
func WithErrorLog(logger *log.Logger) Option {
	return func(cfg *config) {
		cfg.errorLog = logger
	}
}

// WithSecretEcho re-fills password and file inputs after a rejected
// submission. Off by default.
func WithSecretEcho(echo bool) Option {
	return func(cfg *config) {
		cfg.echoSecrets = echo
	}
}

// WithFailurePage renders unreadable submissions with renderer instead of a
// plain text 400.
func WithFailurePage(renderer Renderer) Option {
	return func(cfg *config) {
		cfg.failure = renderer
	}
}

// WithTranslator localizes rejection messages with t. The locale is the best
// match between the request's Accept-Language header and supported; the first
// supported locale is the default.
func WithTranslator(t issue.Translator, supported ...string) Option {
	return func(cfg *config) {
		cfg.translator = t
		cfg.locales = newLocaleMatcher(supported)
	}
}

// WithMissingTranslation sets the handler used when a message has no
// translation.
func WithMissingTranslation(fn issue.MissingTranslationHandler) Option {
	return func(cfg *config) {
		cfg.onMissing = fn
	}
}

// WithTracer overrides the tracer used for submission spans.
func WithTracer(t trace.Tracer) Option {
	return func(cfg *config) {
		if t != nil {
			cfg.tracer = t
		}
	}
}
