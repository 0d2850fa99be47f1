package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.ItemsPerSource != 5 {
		t.Errorf("expected 5 items per source, got %d", cfg.ItemsPerSource)
	}
	if cfg.Sources.LinkedIn.Enabled {
		t.Error("linkedin should be disabled by default")
	}
}

func TestItemsFor(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.ItemsFor(0); got != 5 {
		t.Errorf("expected fallback 5, got %d", got)
	}
	if got := cfg.ItemsFor(12); got != 12 {
		t.Errorf("expected 12, got %d", got)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "briefbot.yaml")
	data := `
items_per_source: 3
sources:
  reddit:
    subreddits: [golang]
  linkedin:
    enabled: true
    items: 7
  web_sources:
    sources: [mit_news]
browser:
  detail_concurrency: 4
  navigation_timeout: 45s
llm:
  model: test/model
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ItemsPerSource != 3 {
		t.Errorf("expected 3, got %d", cfg.ItemsPerSource)
	}
	if strings.Join(cfg.Sources.Reddit.Subreddits, ",") != "golang" {
		t.Errorf("unexpected subreddits %v", cfg.Sources.Reddit.Subreddits)
	}
	if !cfg.Sources.LinkedIn.Enabled || cfg.Sources.LinkedIn.Items != 7 {
		t.Errorf("unexpected linkedin config %+v", cfg.Sources.LinkedIn)
	}
	if cfg.Sources.LinkedIn.ProfileDir != ".linkedin_browser_profile" {
		t.Errorf("profile dir default lost: %q", cfg.Sources.LinkedIn.ProfileDir)
	}
	if cfg.Browser.NavigationTimeout != 45*time.Second {
		t.Errorf("expected 45s, got %s", cfg.Browser.NavigationTimeout)
	}
	if cfg.Browser.DetailConcurrency != 4 {
		t.Errorf("expected 4, got %d", cfg.Browser.DetailConcurrency)
	}
	if cfg.LLM.Model != "test/model" {
		t.Errorf("expected test/model, got %q", cfg.LLM.Model)
	}
	if cfg.LLM.Endpoint != "https://openrouter.ai/api/v1" {
		t.Errorf("endpoint default lost: %q", cfg.LLM.Endpoint)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("loaded config invalid: %v", err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BRIEFBOT_LLM_API_KEY", "secret")
	t.Setenv("BRIEFBOT_ITEMS_PER_SOURCE", "9")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLM.APIKey != "secret" {
		t.Errorf("expected api key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.ItemsPerSource != 9 {
		t.Errorf("expected 9 from env, got %d", cfg.ItemsPerSource)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero items", func(c *Config) { c.ItemsPerSource = 0 }},
		{"negative source items", func(c *Config) { c.Sources.Futurism.Items = -1 }},
		{"reddit without subreddits", func(c *Config) { c.Sources.Reddit.Subreddits = nil }},
		{"linkedin without profile", func(c *Config) {
			c.Sources.LinkedIn.Enabled = true
			c.Sources.LinkedIn.ProfileDir = ""
		}},
		{"zero concurrency", func(c *Config) { c.Browser.DetailConcurrency = 0 }},
		{"bad fetcher", func(c *Config) { c.Fetcher.Type = "curl" }},
		{"bad proxy", func(c *Config) {
			c.Proxy.Enabled = true
			c.Proxy.URLs = []string{"not a url"}
		}},
		{"relative llm endpoint", func(c *Config) { c.LLM.Endpoint = "/v1" }},
		{"mongo without uri", func(c *Config) { c.Storage.Mongo.Enabled = true }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad metrics port", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Port = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
