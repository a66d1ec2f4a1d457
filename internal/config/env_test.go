package config

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadServerDefaults(t *testing.T) {
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("load server: %v", err)
	}
	want := Server{
		Addr:            ":8080",
		MaxBodyBytes:    1 << 20,
		ShutdownTimeout: 10 * time.Second,
		Telemetry: Telemetry{
			Enabled:     true,
			ServiceName: "formsubmit",
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadServerOverrides(t *testing.T) {
	t.Setenv("FORMSUBMIT_ADDR", "127.0.0.1:9000")
	t.Setenv("FORMSUBMIT_SCHEMA", "forms/signup.yaml")
	t.Setenv("FORMSUBMIT_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("FORMSUBMIT_OTEL_ENABLED", "false")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("load server: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" || cfg.SchemaPath != "forms/signup.yaml" {
		t.Fatalf("unexpected server config %#v", cfg)
	}
	if cfg.Telemetry.Endpoint != "http://localhost:4318" || cfg.Telemetry.Enabled {
		t.Fatalf("unexpected telemetry config %#v", cfg.Telemetry)
	}
}

func TestLoadServerErrors(t *testing.T) {
	cases := map[string]string{
		"FORMSUBMIT_MAX_BODY_BYTES":   "-1",
		"FORMSUBMIT_SHUTDOWN_TIMEOUT": "soon",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadServer()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "parse env:") {
				t.Fatalf("expected parse env prefix, got %v", err)
			}
		})
	}
}
