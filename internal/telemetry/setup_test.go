package telemetry

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

// TestSetupDisabled verifies an empty endpoint installs nothing and shuts down cleanly.
func TestSetupDisabled(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	shutdown, err := Setup(context.Background(), ExportConfig{}, log)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

// TestSetupEnabled verifies exporters are created lazily without a reachable collector.
func TestSetupEnabled(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	shutdown, err := Setup(context.Background(), ExportConfig{Endpoint: "127.0.0.1:4317", Insecure: true}, log)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if shutdown == nil {
		t.Fatal("nil shutdown")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Nothing is listening, so only the call itself is checked.
	_ = shutdown(ctx)
}
