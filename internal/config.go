package internal

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig represents the main application configuration.
type AppConfig struct {
	// Server holds server-specific configuration.
	Server struct {
		Port           int    `yaml:"port"`
		ReadTimeoutMS  int64  `yaml:"read_timeout_ms"`
		WriteTimeoutMS int64  `yaml:"write_timeout_ms"`
		IdleTimeoutMS  int64  `yaml:"idle_timeout_ms"`
		ReadHeaderMS   int64  `yaml:"read_header_timeout_ms"`
		MaxBodyBytes   int64  `yaml:"max_body_bytes"`
		RateLimitRPS   int64  `yaml:"rate_limit_rps"`
		RateLimitBurst int64  `yaml:"rate_limit_burst"`
		MetricsEnabled bool   `yaml:"metrics_enabled"`
		MetricsPath    string `yaml:"metrics_path"`
	} `yaml:"server"`
	// Relay holds the webhook relay configuration.
	Relay RelayConfig `yaml:"relay"`
}

// RelayConfig represents the configuration for the Sentry to Google Chat relay.
type RelayConfig struct {
	WebhookPath          string `yaml:"webhook_path"`
	HealthPath           string `yaml:"health_path"`
	GoogleChatWebhookURL string `yaml:"google_chat_webhook_url"`
	AllowedEnvironments  string `yaml:"allowed_environments"`
	SentryDSN            string `yaml:"sentry_dsn"`
	NotifyTimeoutMS      int64  `yaml:"notify_timeout_ms"`
}

// Config represents the application configuration including filter rules.
type Config struct {
	AppConfig   `yaml:",inline"`
	Rules       []Rule `yaml:"rules"`
	RulesStrict bool   `yaml:"rules_strict"`
}

// LoadConfig loads the application configuration from a YAML file.
// It expands environment variables in the file, applies default values, and
// normalizes filter rules. A missing file is not an error: the relay then
// runs on defaults plus the GOOGLE_CHAT_WEBHOOK_URL, ALLOWED_ENVIRONMENTS
// and SENTRY_DSN environment variables.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, err
	}

	if len(data) > 0 {
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return cfg, err
		}
	}

	applyDefaults(&cfg.AppConfig)
	normalized, err := normalizeRules(cfg.Rules)
	if err != nil {
		return cfg, err
	}
	cfg.Rules = normalized

	return cfg, nil
}

// AllowedEnvironmentList returns the allowed environments as a normalized
// list: comma-separated entries are trimmed, lowercased, and deduplicated
// with their original order preserved. An empty list means no environment
// is allowed.
func (c *RelayConfig) AllowedEnvironmentList() []string {
	seen := make(map[string]bool)
	out := make([]string, 0, 4)
	for _, env := range strings.Split(c.AllowedEnvironments, ",") {
		env = strings.ToLower(strings.TrimSpace(env))
		if env == "" || seen[env] {
			continue
		}
		seen[env] = true
		out = append(out, env)
	}
	return out
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeoutMS == 0 {
		cfg.Server.ReadTimeoutMS = 5000
	}
	if cfg.Server.WriteTimeoutMS == 0 {
		cfg.Server.WriteTimeoutMS = 10000
	}
	if cfg.Server.IdleTimeoutMS == 0 {
		cfg.Server.IdleTimeoutMS = 60000
	}
	if cfg.Server.ReadHeaderMS == 0 {
		cfg.Server.ReadHeaderMS = 5000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if cfg.Server.MetricsPath == "" {
		cfg.Server.MetricsPath = "/metrics"
	}
	if cfg.Relay.WebhookPath == "" {
		cfg.Relay.WebhookPath = "/sentry-webhook"
	}
	if cfg.Relay.HealthPath == "" {
		cfg.Relay.HealthPath = "/health-check"
	}
	if cfg.Relay.NotifyTimeoutMS == 0 {
		cfg.Relay.NotifyTimeoutMS = 5000
	}
	if cfg.Relay.GoogleChatWebhookURL == "" {
		cfg.Relay.GoogleChatWebhookURL = os.Getenv("GOOGLE_CHAT_WEBHOOK_URL")
	}
	if cfg.Relay.AllowedEnvironments == "" {
		cfg.Relay.AllowedEnvironments = os.Getenv("ALLOWED_ENVIRONMENTS")
	}
	if cfg.Relay.SentryDSN == "" {
		cfg.Relay.SentryDSN = os.Getenv("SENTRY_DSN")
	}
}

func normalizeRules(rules []Rule) ([]Rule, error) {
	out := make([]Rule, 0, len(rules))
	for i := range rules {
		rule := rules[i]
		rule.When = strings.TrimSpace(rule.When)
		if rule.When == "" {
			return nil, fmt.Errorf("rule %d is missing when", i)
		}
		out = append(out, rule)
	}
	return out, nil
}
