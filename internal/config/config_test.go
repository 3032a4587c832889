package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.Server.ListenAddr)
	}
	if cfg.LLM.APIBase != "https://api.openai.com/v1" {
		t.Errorf("APIBase = %q", cfg.LLM.APIBase)
	}
	if cfg.Analytics.Topic != "basehelp.replies" {
		t.Errorf("Topic = %q", cfg.Analytics.Topic)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_PROJECT_ID", "proj-1")
	t.Setenv("GOOGLE_TASKS_LOCATION", "us-central1")
	t.Setenv("GOOGLE_TASKS_QUEUE", "slack-events")
	t.Setenv("GOOGLE_TASKS_SERVICE_ACCOUNT", "tasks@proj-1.iam.gserviceaccount.com")
	t.Setenv("BASEHELP_SERVER_BASE_URL", "https://bot.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tasks.Queue != "slack-events" {
		t.Errorf("Queue = %q", cfg.Tasks.Queue)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateReportsAllMissing(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate: want error for empty config")
	}
	for _, key := range []string{
		"BASEHELP_SERVER_BASE_URL",
		"GOOGLE_PROJECT_ID",
		"GOOGLE_TASKS_LOCATION",
		"GOOGLE_TASKS_QUEUE",
		"GOOGLE_TASKS_SERVICE_ACCOUNT",
	} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("Validate error missing %s: %v", key, err)
		}
	}
}

func TestKafkaBrokerList(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"localhost:9092", 1},
		{"a:9092, b:9092 ,", 2},
	}
	for _, tt := range tests {
		cfg := AnalyticsConfig{Brokers: tt.in}
		if got := cfg.KafkaBrokerList(); len(got) != tt.want {
			t.Errorf("KafkaBrokerList(%q) = %v, want %d entries", tt.in, got, tt.want)
		}
	}
}
