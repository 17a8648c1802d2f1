package internal

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadConfigDefaults tests that the default values are applied correctly when loading a config.
func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
		t.Fatalf("write app config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxBodyBytes != 1<<20 {
		t.Fatalf("expected default body cap, got %d", cfg.Server.MaxBodyBytes)
	}
	if cfg.Relay.WebhookPath != "/sentry-webhook" {
		t.Fatalf("expected default webhook path, got %q", cfg.Relay.WebhookPath)
	}
	if cfg.Relay.HealthPath != "/health-check" {
		t.Fatalf("expected default health path, got %q", cfg.Relay.HealthPath)
	}
	if cfg.Relay.NotifyTimeoutMS != 5000 {
		t.Fatalf("expected default notify timeout, got %d", cfg.Relay.NotifyTimeoutMS)
	}
}

// TestLoadConfigMissingFile tests that a missing config file falls back to
// defaults plus environment variables instead of failing.
func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("GOOGLE_CHAT_WEBHOOK_URL", "https://chat.example.com/hook")
	t.Setenv("ALLOWED_ENVIRONMENTS", "production, prod")
	t.Setenv("SENTRY_DSN", "https://key@sentry.example.com/1")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Relay.GoogleChatWebhookURL != "https://chat.example.com/hook" {
		t.Fatalf("expected webhook url from env, got %q", cfg.Relay.GoogleChatWebhookURL)
	}
	if cfg.Relay.SentryDSN != "https://key@sentry.example.com/1" {
		t.Fatalf("expected dsn from env, got %q", cfg.Relay.SentryDSN)
	}
	envs := cfg.Relay.AllowedEnvironmentList()
	if len(envs) != 2 || envs[0] != "production" || envs[1] != "prod" {
		t.Fatalf("expected [production prod], got %v", envs)
	}
}

// TestLoadConfigExpandsEnv tests that ${VAR} references in the file are expanded.
func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("TEST_CHAT_URL", "https://chat.example.com/spaces/x")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "relay:\n  google_chat_webhook_url: ${TEST_CHAT_URL}\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Relay.GoogleChatWebhookURL != "https://chat.example.com/spaces/x" {
		t.Fatalf("expected expanded url, got %q", cfg.Relay.GoogleChatWebhookURL)
	}
}

// TestAllowedEnvironmentList tests normalization of the allow-list string.
func TestAllowedEnvironmentList(t *testing.T) {
	relay := RelayConfig{AllowedEnvironments: " Production ,prod,, PROD ,staging"}

	envs := relay.AllowedEnvironmentList()
	if len(envs) != 3 {
		t.Fatalf("expected 3 environments, got %v", envs)
	}
	if envs[0] != "production" || envs[1] != "prod" || envs[2] != "staging" {
		t.Fatalf("expected normalized order-preserving list, got %v", envs)
	}
}

// TestAllowedEnvironmentListEmpty tests that an unset allow-list yields no environments.
func TestAllowedEnvironmentListEmpty(t *testing.T) {
	relay := RelayConfig{}
	if envs := relay.AllowedEnvironmentList(); len(envs) != 0 {
		t.Fatalf("expected empty list, got %v", envs)
	}
}

// TestLoadConfigInvalidRule tests that loading a config with an empty rule returns an error.
func TestLoadConfigInvalidRule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "rules:\n  - when: \"   \"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for empty when")
	}
}

// TestLoadConfigTrimsRules tests that rule expressions are trimmed.
func TestLoadConfigTrimsRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "rules:\n  - when: \"  level == \\\"error\\\"  \"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Rules[0].When != "level == \"error\"" {
		t.Fatalf("expected trimmed when, got %q", cfg.Rules[0].When)
	}
}
