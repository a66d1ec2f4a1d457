package page

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"reflect"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/flosch/pongo2/v6"
)

//go:embed templates/*.tpl
var embedded embed.FS

// Templates returns the built-in templates: form, success and failure.
func Templates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

//go:embed assets/*.js
var assets embed.FS

// OverlayScript is the name of the browser overlay inside Assets().
const OverlayScript = "formsubmit-overlay.js"

// Assets returns the browser scripts shipped with the templates. The form
// template loads OverlayScript from the runtime_src global when it is set.
func Assets() fs.FS {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

// Option configures an Engine before construction.
type Option func(*config)

type config struct {
	baseDir    string
	templates  fs.FS
	extension  string
	templateFn map[string]any
	globalData map[string]any
}

// WithBaseDir loads templates from a directory on disk. It takes precedence
// over WithFS and the built-in templates.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from an fs.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the template extension (default ".tpl").
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithTemplateFunc registers helper functions available to every template.
func WithTemplateFunc(funcs map[string]any) Option {
	return func(cfg *config) {
		if len(funcs) == 0 {
			return
		}
		if cfg.templateFn == nil {
			cfg.templateFn = make(map[string]any, len(funcs))
		}
		for name, fn := range funcs {
			cfg.templateFn[strings.TrimSpace(name)] = fn
		}
	}
}

// WithGlobalData seeds context values available to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// Engine renders named templates from a pongo2 template set. Parsed templates
// are cached by file name.
type Engine struct {
	set       *pongo2.TemplateSet
	ext       string
	mu        sync.Mutex // guards set.Globals
	templates sync.Map   // file name -> *pongo2.Template
}

// New constructs an Engine. Lookups try WithBaseDir, then WithFS, then the
// built-in templates.
func New(options ...Option) (*Engine, error) {
	cfg := &config{extension: ".tpl"}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		local, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("page: template dir %s: %w", cfg.baseDir, err)
		}
		loaders = append(loaders, local)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}
	loaders = append(loaders, pongo2.NewFSLoader(Templates()))

	set := pongo2.NewSet("formsubmit", loaders...)
	set.Globals = pongo2.Context{}
	engine := &Engine{set: set, ext: cfg.extension}

	if !pongo2.FilterExists("trim") {
		if err := pongo2.RegisterFilter("trim", filterTrim); err != nil {
			return nil, fmt.Errorf("page: register trim filter: %w", err)
		}
	}
	for name, fn := range cfg.templateFn {
		if name == "" || reflect.ValueOf(fn).Kind() != reflect.Func {
			return nil, fmt.Errorf("page: template func %q is %T, not a function", name, fn)
		}
		set.Globals[name] = fn
	}
	if err := engine.GlobalContext(cfg.globalData); err != nil {
		return nil, err
	}
	return engine, nil
}

// RenderTemplate renders the named template, adding the engine's extension
// when name has none, and also writes the output to every writer in out.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil {
		return "", errors.New("page: engine is nil")
	}
	file := name
	if !strings.HasSuffix(file, e.ext) {
		file += e.ext
	}

	var tmpl *pongo2.Template
	if cached, ok := e.templates.Load(file); ok {
		tmpl = cached.(*pongo2.Template)
	} else {
		parsed, err := e.set.FromFile(file)
		if err != nil {
			return "", fmt.Errorf("page: load template %q: %w", file, err)
		}
		cached, _ := e.templates.LoadOrStore(file, parsed)
		tmpl = cached.(*pongo2.Template)
	}
	return e.execute(tmpl, file, data, out)
}

// RenderString parses and renders inline template source.
func (e *Engine) RenderString(source string, data any, out ...io.Writer) (string, error) {
	if e == nil {
		return "", errors.New("page: engine is nil")
	}
	tmpl, err := e.set.FromString(source)
	if err != nil {
		return "", fmt.Errorf("page: parse inline template: %w", err)
	}
	return e.execute(tmpl, "inline", data, out)
}

// GlobalContext merges data into the values every template sees.
func (e *Engine) GlobalContext(data any) error {
	if e == nil {
		return errors.New("page: engine is nil")
	}
	ctx, err := toContext(data)
	if err != nil {
		return fmt.Errorf("page: global data: %w", err)
	}
	e.mu.Lock()
	e.set.Globals.Update(ctx)
	e.mu.Unlock()
	return nil
}

func (e *Engine) execute(tmpl *pongo2.Template, label string, data any, out []io.Writer) (string, error) {
	ctx, err := toContext(data)
	if err != nil {
		return "", fmt.Errorf("page: %s data: %w", label, err)
	}

	var rendered bytes.Buffer
	e.mu.Lock()
	err = tmpl.ExecuteWriter(ctx, &rendered)
	e.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("page: render %s: %w", label, err)
	}

	if len(out) > 0 {
		if _, err := io.MultiWriter(out...).Write(rendered.Bytes()); err != nil {
			return "", err
		}
	}
	return rendered.String(), nil
}

// toContext reduces view data to maps, slices and scalars so templates reach
// struct fields by their JSON names. Functions stay callable.
func toContext(data any) (pongo2.Context, error) {
	if data == nil {
		return pongo2.Context{}, nil
	}
	plain, err := toPlain(data)
	if err != nil {
		return nil, err
	}
	fields, ok := plain.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("view data must be an object, got %T", data)
	}
	ctx := make(pongo2.Context, len(fields))
	for key, value := range fields {
		if key = strings.TrimSpace(key); key != "" {
			ctx[key] = value
		}
	}
	return ctx, nil
}

func toPlain(value any) (any, error) {
	switch v := value.(type) {
	case nil, string, bool, int, int64, float64:
		return v, nil
	case pongo2.Context:
		return toPlain(map[string]any(v))
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			plain, err := toPlain(item)
			if err != nil {
				return nil, err
			}
			out[key] = plain
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			plain, err := toPlain(item)
			if err != nil {
				return nil, err
			}
			out[i] = plain
		}
		return out, nil
	}
	if reflect.ValueOf(value).Kind() == reflect.Func {
		return value, nil
	}

	raw, err := sonic.ConfigStd.Marshal(value)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := sonic.ConfigStd.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}
