package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
environment: test
market_data:
  base_url: http://localhost:1
insight:
  base_url: http://localhost:2
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
	if cfg.MarketData.IntradayTTL != 5*time.Minute {
		t.Fatalf("intraday ttl = %s", cfg.MarketData.IntradayTTL)
	}
	if cfg.Recorder.Backend != "none" {
		t.Fatalf("backend = %s", cfg.Recorder.Backend)
	}
	if cfg.Recorder.DeliveryTimeout != 10*time.Second {
		t.Fatalf("delivery timeout = %s, want default 10s", cfg.Recorder.DeliveryTimeout)
	}
}

func TestLoadRecorderDeliveryTimeout(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
recorder:
  backend: clickhouse
  delivery_timeout: 3s
  clickhouse:
    host: localhost
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Recorder.DeliveryTimeout != 3*time.Second {
		t.Fatalf("delivery timeout = %s, want 3s", cfg.Recorder.DeliveryTimeout)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	if _, err := Load(writeConfig(t, minimalConfig+`
recorder:
  backend: carrier-pigeon
`)); err == nil {
		t.Fatalf("expected validation error for unknown backend")
	}
}
