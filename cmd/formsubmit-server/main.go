package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-formsubmit/internal/config"
	"github.com/goliatone/go-formsubmit/internal/telemetry"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		config.Exitf("formsubmit-server: %v", err)
	}
	cfg, err = applyFlags(cfg, os.Args[1:], os.Stderr)
	if err != nil {
		config.Exitf("formsubmit-server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}

	s, err := loadSchema(ctx, cfg)
	if err != nil {
		log.Fatalf("load schema: %v", err)
	}
	engine, err := newEngine(cfg)
	if err != nil {
		log.Fatalf("init templates: %v", err)
	}
	mux, err := newMux(cfg, s, engine, log.Default())
	if err != nil {
		log.Fatalf("build routes: %v", err)
	}

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	log.Printf("serving %q form on %s", s.Name(), cfg.Addr)

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		log.Fatalf("listen: %v", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
}
