package otel

import (
	"context"
	"testing"
)

func TestConfigActive(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{name: "empty", cfg: Config{}, want: false},
		{name: "endpoint", cfg: Config{Endpoint: "http://localhost:4318"}, want: true},
		{name: "disabled", cfg: Config{Endpoint: "http://localhost:4318", Enabled: "FALSE"}, want: false},
		{name: "enabled without endpoint", cfg: Config{Enabled: "true"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Active(); got != tt.want {
				t.Fatalf("active = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetupNoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("FRACTURING_SPACE_OTEL_ENDPOINT", "")
	t.Setenv("FRACTURING_SPACE_OTEL_ENABLED", "")

	shutdown, err := Setup(context.Background(), "rules-test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupCreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so nothing is exported.
	shutdown, err := SetupWithConfig(context.Background(), "rules-test", Config{Endpoint: "http://192.0.2.1:4318"})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if Tracer("rules-test") == nil {
		t.Fatal("expected tracer")
	}
}
