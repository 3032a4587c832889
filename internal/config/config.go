// Package config provides configuration types and loading for basehelp.
package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config is the root configuration struct.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Tasks     TasksConfig     `json:"tasks"`
	Slack     SlackConfig     `json:"slack"`
	LLM       LLMConfig       `json:"llm"`
	Tenants   TenantsConfig   `json:"tenants"`
	Analytics AnalyticsConfig `json:"analytics"`
}

// ServerConfig groups HTTP server settings.
type ServerConfig struct {
	ListenAddr string `json:"listenAddr" envconfig:"LISTEN_ADDR" default:":8080"`
	// BaseURL is the public URL of this deployment. Cloud Tasks
	// delivers tasks back to {BaseURL}/api/slack/tasks.
	BaseURL string `json:"baseUrl" envconfig:"BASE_URL"`
}

// TasksConfig groups Google Cloud Tasks settings. ProjectID, Location,
// Queue and ServiceAccount are all required to dispatch tasks; a
// missing value is a fatal misconfiguration, not a retryable condition.
type TasksConfig struct {
	ProjectID      string `json:"projectId" envconfig:"GOOGLE_PROJECT_ID"`
	Location       string `json:"location" envconfig:"GOOGLE_TASKS_LOCATION"`
	Queue          string `json:"queue" envconfig:"GOOGLE_TASKS_QUEUE"`
	ServiceAccount string `json:"serviceAccount" envconfig:"GOOGLE_TASKS_SERVICE_ACCOUNT"`
}

// SlackConfig groups Slack integration settings. Per-tenant bot tokens
// live in the tenant store, not here.
type SlackConfig struct {
	SigningSecret string `json:"signingSecret" envconfig:"SLACK_SIGNING_SECRET"`
}

// LLMConfig groups settings for the OpenAI-compatible classification
// endpoint.
type LLMConfig struct {
	APIKey          string `json:"apiKey" envconfig:"OPENAI_API_KEY"`
	APIBase         string `json:"apiBase" envconfig:"OPENAI_API_BASE" default:"https://api.openai.com/v1"`
	ClassifierModel string `json:"classifierModel" envconfig:"CLASSIFIER_MODEL" default:"gpt-4.1-nano-2025-04-14"`
}

// TenantsConfig groups tenant store settings.
type TenantsConfig struct {
	DBPath string `json:"dbPath" envconfig:"TENANT_DB_PATH" default:"basehelp.db"`
	// RagieBaseURL is the upstream document host; the public document
	// route refuses to proxy URLs outside it.
	RagieBaseURL string `json:"ragieBaseUrl" envconfig:"RAGIE_API_BASE_URL" default:"https://api.ragie.ai"`
}

// AnalyticsConfig groups the optional Kafka reply mirror. Disabled
// unless Brokers is set.
type AnalyticsConfig struct {
	Brokers string `json:"brokers" envconfig:"KAFKA_BROKERS"`
	Topic   string `json:"topic" envconfig:"KAFKA_TOPIC" default:"basehelp.replies"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("BASEHELP_SERVER", &cfg.Server); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}
	if err := envconfig.Process("", &cfg.Tasks); err != nil {
		return nil, fmt.Errorf("load tasks config: %w", err)
	}
	if err := envconfig.Process("", &cfg.Slack); err != nil {
		return nil, fmt.Errorf("load slack config: %w", err)
	}
	if err := envconfig.Process("", &cfg.LLM); err != nil {
		return nil, fmt.Errorf("load llm config: %w", err)
	}
	if err := envconfig.Process("BASEHELP", &cfg.Tenants); err != nil {
		return nil, fmt.Errorf("load tenants config: %w", err)
	}
	if err := envconfig.Process("BASEHELP", &cfg.Analytics); err != nil {
		return nil, fmt.Errorf("load analytics config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings required to serve Slack traffic.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Server.BaseURL) == "" {
		missing = append(missing, "BASEHELP_SERVER_BASE_URL")
	}
	if strings.TrimSpace(c.Tasks.ProjectID) == "" {
		missing = append(missing, "GOOGLE_PROJECT_ID")
	}
	if strings.TrimSpace(c.Tasks.Location) == "" {
		missing = append(missing, "GOOGLE_TASKS_LOCATION")
	}
	if strings.TrimSpace(c.Tasks.Queue) == "" {
		missing = append(missing, "GOOGLE_TASKS_QUEUE")
	}
	if strings.TrimSpace(c.Tasks.ServiceAccount) == "" {
		missing = append(missing, "GOOGLE_TASKS_SERVICE_ACCOUNT")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// KafkaBrokerList splits the configured broker string.
func (c *AnalyticsConfig) KafkaBrokerList() []string {
	if strings.TrimSpace(c.Brokers) == "" {
		return nil
	}
	parts := strings.Split(c.Brokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
