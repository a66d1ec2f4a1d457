package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"
	"golang.org/x/text/unicode/norm"

	"github.com/goliatone/go-formsubmit/internal/config"
	"github.com/goliatone/go-formsubmit/pkg/action"
	"github.com/goliatone/go-formsubmit/pkg/page"
	"github.com/goliatone/go-formsubmit/pkg/payload"
	"github.com/goliatone/go-formsubmit/pkg/schema"
)

//go:embed schemas/*.yaml
var bundled embed.FS

const defaultSchema = "schemas/signup.yaml"

// applyFlags lets command-line flags override the environment configuration.
func applyFlags(cfg config.Server, args []string, stderr io.Writer) (config.Server, error) {
	fs := flag.NewFlagSet("formsubmit-server", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&cfg.SchemaPath, "schema", cfg.SchemaPath, "schema file or URL (defaults to the bundled signup form)")
	fs.StringVar(&cfg.TemplateDir, "templates", cfg.TemplateDir, "directory of template overrides")
	if err := fs.Parse(args); err != nil {
		return config.Server{}, err
	}
	if fs.NArg() > 0 {
		return config.Server{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return cfg, nil
}

// loadSchema reads FORMSUBMIT_SCHEMA when set, otherwise the bundled signup
// form.
func loadSchema(ctx context.Context, cfg config.Server) (*schema.Schema, error) {
	if cfg.SchemaPath == "" {
		return schema.Load(ctx, schema.SourceFromFS(bundled, defaultSchema))
	}
	return schema.Load(ctx, parseSource(cfg.SchemaPath))
}

func parseSource(raw string) schema.Source {
	if u, err := url.Parse(raw); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return schema.SourceFromURL(raw)
	}
	return schema.SourceFromFile(raw)
}

func newEngine(cfg config.Server) (*page.Engine, error) {
	opts := []page.Option{
		page.WithGlobalData(map[string]any{
			"submit_label": "Sign up",
			"runtime_src":  "/runtime/" + page.OverlayScript,
		}),
	}
	if cfg.TemplateDir != "" {
		opts = append(opts, page.WithBaseDir(cfg.TemplateDir))
	}
	return page.New(opts...)
}

// newMux wires the form, the success page, the overlay script and the health
// check.
func newMux(cfg config.Server, s *schema.Schema, engine *page.Engine, logger *log.Logger) (*http.ServeMux, error) {
	form, err := action.New[map[string]any](
		s,
		page.NewFormRenderer(engine, page.FormTemplate, nil),
		func(_ context.Context, value map[string]any) (string, error) {
			raw, err := sonic.ConfigStd.Marshal(value)
			if err != nil {
				return "", fmt.Errorf("encode submission: %w", err)
			}
			return "/success?data=" + url.QueryEscape(string(raw)), nil
		},
		action.WithTitle(s.Name()),
		action.WithAction("/"),
		action.WithMaxBytes(cfg.MaxBodyBytes),
		action.WithDecodeOptions(payload.WithNormalization(norm.NFC)),
		action.WithFailurePage(page.NewFormRenderer(engine, page.FailureTemplate, nil)),
		action.WithErrorLog(logger),
	)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/", form)
	mux.HandleFunc("/success", successHandler(engine, logger))
	mux.Handle("/runtime/", http.StripPrefix("/runtime/", http.FileServerFS(page.Assets())))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux, nil
}

func successHandler(engine *page.Engine, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := r.URL.Query().Get("data")
		var decoded any
		if err := sonic.ConfigStd.UnmarshalFromString(data, &decoded); err != nil {
			http.Error(w, "invalid submission data", http.StatusBadRequest)
			return
		}
		pretty, err := sonic.ConfigStd.MarshalIndent(decoded, "", "  ")
		if err != nil {
			logger.Printf("success page: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := engine.RenderTemplate(page.SuccessTemplate, map[string]any{
			"title": "Welcome",
			"data":  string(pretty),
			"back":  "/",
		}, w); err != nil {
			logger.Printf("success page: %v", err)
		}
	}
}
