package payload

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"
)

const instrumentationName = "github.com/goliatone/go-formsubmit/pkg/payload"

// Sanitizer rewrites a submitted text value. *bluemonday.Policy satisfies it.
type Sanitizer interface {
	Sanitize(string) string
}

// Option configures reading and flattening.
type Option func(*config)

type config struct {
	maxMemory int64
	multi     map[string]struct{}
	sanitizer Sanitizer
	normalize *norm.Form
	trim      bool
	tracer    trace.Tracer
}

func newConfig(opts []Option) config {
	cfg := config{
		maxMemory: DefaultMaxMemory,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer(instrumentationName)
	}
	return cfg
}

// WithMaxMemory overrides the in-memory budget for multipart parsing.
func WithMaxMemory(bytes int64) Option {
	return func(cfg *config) {
		if bytes > 0 {
			cfg.maxMemory = bytes
		}
	}
}

// WithMultiValue keeps every value of the named fields as a []any instead of
// collapsing to the last one. Use it for checkbox groups and multi-selects.
func WithMultiValue(names ...string) Option {
	return func(cfg *config) {
		if cfg.multi == nil {
			cfg.multi = make(map[string]struct{}, len(names))
		}
		for _, name := range names {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				cfg.multi[trimmed] = struct{}{}
			}
		}
	}
}

// WithSanitizer runs every text value through s while flattening.
func WithSanitizer(s Sanitizer) Option {
	return func(cfg *config) {
		cfg.sanitizer = s
	}
}

// WithStrictSanitizer strips all markup from text values using bluemonday's
// strict policy. Note that the policy HTML-escapes the remaining text.
func WithStrictSanitizer() Option {
	return WithSanitizer(strictPolicy())
}

// WithNormalization applies the given Unicode normalization form (typically
// norm.NFC) to text values so visually identical input compares equal.
func WithNormalization(form norm.Form) Option {
	return func(cfg *config) {
		f := form
		cfg.normalize = &f
	}
}

// WithTrimSpace trims leading and trailing whitespace from text values.
func WithTrimSpace() Option {
	return func(cfg *config) {
		cfg.trim = true
	}
}

// WithTracer overrides the tracer used for decode spans. Defaults to the
// global OpenTelemetry provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(cfg *config) {
		cfg.tracer = tracer
	}
}

func (cfg config) text(value string) string {
	if cfg.normalize != nil {
		value = cfg.normalize.String(value)
	}
	if cfg.trim {
		value = strings.TrimSpace(value)
	}
	if cfg.sanitizer != nil {
		value = cfg.sanitizer.Sanitize(value)
	}
	return value
}

func (cfg config) isMulti(name string) bool {
	if len(cfg.multi) == 0 {
		return false
	}
	_, ok := cfg.multi[name]
	return ok
}

var (
	strictPolicyOnce sync.Once
	strictPolicyInst *bluemonday.Policy
)

func strictPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicyInst = bluemonday.StrictPolicy()
	})
	return strictPolicyInst
}
