package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Telemetry configures OpenTelemetry tracing. Tracing is off unless an
// endpoint is set.
type Telemetry struct {
	Endpoint    string `env:"FORMSUBMIT_OTEL_ENDPOINT"`
	Enabled     bool   `env:"FORMSUBMIT_OTEL_ENABLED" envDefault:"true"`
	ServiceName string `env:"FORMSUBMIT_OTEL_SERVICE" envDefault:"formsubmit"`
}

// Server configures the demo form server.
type Server struct {
	Addr            string        `env:"FORMSUBMIT_ADDR" envDefault:":8080"`
	SchemaPath      string        `env:"FORMSUBMIT_SCHEMA"`
	TemplateDir     string        `env:"FORMSUBMIT_TEMPLATE_DIR"`
	MaxBodyBytes    int64         `env:"FORMSUBMIT_MAX_BODY_BYTES" envDefault:"1048576"`
	ShutdownTimeout time.Duration `env:"FORMSUBMIT_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	Telemetry       Telemetry
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServer reads the server configuration from the environment.
func LoadServer() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return Server{}, err
	}
	if cfg.MaxBodyBytes < 0 {
		return Server{}, fmt.Errorf("parse env: FORMSUBMIT_MAX_BODY_BYTES must not be negative")
	}
	return cfg, nil
}
