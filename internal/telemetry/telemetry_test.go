package telemetry

import (
	"context"
	"testing"

	"github.com/flemzord/cronbot/internal/config"
)

func TestSetup_NoEndpointIsNoop(t *testing.T) {
	p, err := Setup(context.Background(), config.TracingConfig{}, "dev", nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	_, span := p.Tracer("test").Start(context.Background(), "op")
	if span.SpanContext().IsValid() {
		t.Error("no-op provider produced a recording span")
	}
	span.End()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestEndpointURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cfg  config.TracingConfig
		want string
	}{
		{config.TracingConfig{Endpoint: "collector:4318", Insecure: true}, "http://collector:4318/v1/traces"},
		{config.TracingConfig{Endpoint: "collector:4318"}, "https://collector:4318/v1/traces"},
		{config.TracingConfig{Endpoint: "http://otel.local/custom"}, "http://otel.local/custom"},
	}
	for _, tt := range tests {
		if got := endpointURL(tt.cfg); got != tt.want {
			t.Errorf("endpointURL(%+v) = %q, want %q", tt.cfg, got, tt.want)
		}
	}
}
