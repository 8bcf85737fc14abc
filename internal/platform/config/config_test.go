package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("expected default timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.AuditTopic != "backoffice.audit" {
		t.Fatalf("expected default audit topic, got %q", cfg.AuditTopic)
	}
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "addr: \":9090\"\npostgres_url: \"postgres://file\"\nkafka_brokers:\n  - broker-a:9092\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("BACKOFFICE_CONFIG", path)
	t.Setenv("BACKOFFICE_POSTGRES_URL", "postgres://env")
	t.Setenv("BACKOFFICE_KAFKA_BROKERS", "broker-b:9092, broker-c:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("expected addr from file, got %q", cfg.Addr)
	}
	if cfg.PostgresURL != "postgres://env" {
		t.Fatalf("env must override file, got %q", cfg.PostgresURL)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "broker-c:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	t.Setenv("BACKOFFICE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
