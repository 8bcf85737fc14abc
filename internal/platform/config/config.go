// Package config loads service configuration. Environment variables win over
// the optional YAML file so deployments can override single values without
// editing the file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures everything main needs to wire the service.
type Config struct {
	Addr       string `yaml:"addr"`
	AdminToken string `yaml:"admin_token"`

	PostgresURL string `yaml:"postgres_url"`
	RedisURL    string `yaml:"redis_url"`

	KafkaBrokers []string `yaml:"kafka_brokers"`
	AuditTopic   string   `yaml:"audit_topic"`

	BootstrapAdminLogin    string `yaml:"bootstrap_admin_login"`
	BootstrapAdminPassword string `yaml:"bootstrap_admin_password"`

	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Load builds the config from the optional YAML file named by
// BACKOFFICE_CONFIG, then applies environment overrides and defaults.
func Load() (Config, error) {
	var cfg Config

	if path := os.Getenv("BACKOFFICE_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Addr, "BACKOFFICE_ADDR")
	setString(&cfg.AdminToken, "BACKOFFICE_ADMIN_TOKEN")
	setString(&cfg.PostgresURL, "BACKOFFICE_POSTGRES_URL")
	setString(&cfg.RedisURL, "BACKOFFICE_REDIS_URL")
	setString(&cfg.AuditTopic, "BACKOFFICE_AUDIT_TOPIC")
	setString(&cfg.BootstrapAdminLogin, "BACKOFFICE_BOOTSTRAP_ADMIN_LOGIN")
	setString(&cfg.BootstrapAdminPassword, "BACKOFFICE_BOOTSTRAP_ADMIN_PASSWORD")

	if v := os.Getenv("BACKOFFICE_KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = splitAndTrim(v)
	}
	if v := os.Getenv("BACKOFFICE_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.AuditTopic == "" {
		cfg.AuditTopic = "backoffice.audit"
	}
	if cfg.BootstrapAdminLogin == "" {
		cfg.BootstrapAdminLogin = "admin"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
