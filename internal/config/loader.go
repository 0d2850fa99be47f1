package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("BRIEFBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("briefbot")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".briefbot"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env overrides apply to
// keys the file does not mention.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("items_per_source", cfg.ItemsPerSource)
	v.SetDefault("sites_file", cfg.SitesFile)

	v.SetDefault("sources.reddit.enabled", cfg.Sources.Reddit.Enabled)
	v.SetDefault("sources.reddit.subreddits", cfg.Sources.Reddit.Subreddits)
	v.SetDefault("sources.reddit.items", cfg.Sources.Reddit.Items)

	v.SetDefault("sources.linkedin.enabled", cfg.Sources.LinkedIn.Enabled)
	v.SetDefault("sources.linkedin.email", cfg.Sources.LinkedIn.Email)
	v.SetDefault("sources.linkedin.password", cfg.Sources.LinkedIn.Password)
	v.SetDefault("sources.linkedin.items", cfg.Sources.LinkedIn.Items)
	v.SetDefault("sources.linkedin.profile_dir", cfg.Sources.LinkedIn.ProfileDir)
	v.SetDefault("sources.linkedin.headless", cfg.Sources.LinkedIn.Headless)

	v.SetDefault("sources.futurism.enabled", cfg.Sources.Futurism.Enabled)
	v.SetDefault("sources.futurism.items", cfg.Sources.Futurism.Items)
	v.SetDefault("sources.theneuron.enabled", cfg.Sources.TheNeuron.Enabled)
	v.SetDefault("sources.theneuron.items", cfg.Sources.TheNeuron.Items)

	v.SetDefault("sources.web_sources.enabled", cfg.Sources.Web.Enabled)
	v.SetDefault("sources.web_sources.items", cfg.Sources.Web.Items)
	v.SetDefault("sources.web_sources.sources", cfg.Sources.Web.Sources)

	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.navigation_timeout", cfg.Browser.NavigationTimeout)
	v.SetDefault("browser.detail_timeout", cfg.Browser.DetailTimeout)
	v.SetDefault("browser.user_agent", cfg.Browser.UserAgent)
	v.SetDefault("browser.detail_concurrency", cfg.Browser.DetailConcurrency)
	v.SetDefault("browser.requests_per_second", cfg.Browser.RequestsPerSecond)

	v.SetDefault("fetcher.type", cfg.Fetcher.Type)

	v.SetDefault("proxy.enabled", cfg.Proxy.Enabled)
	v.SetDefault("proxy.rotation", cfg.Proxy.Rotation)
	v.SetDefault("proxy.urls", cfg.Proxy.URLs)

	v.SetDefault("pipeline.max_body_length", cfg.Pipeline.MaxBodyLength)
	v.SetDefault("pipeline.redact_pii", cfg.Pipeline.RedactPII)

	v.SetDefault("llm.endpoint", cfg.LLM.Endpoint)
	v.SetDefault("llm.model", cfg.LLM.Model)
	v.SetDefault("llm.api_key", cfg.LLM.APIKey)
	v.SetDefault("llm.timeout", cfg.LLM.Timeout)
	v.SetDefault("llm.max_tokens", cfg.LLM.MaxTokens)
	v.SetDefault("llm.temperature", cfg.LLM.Temperature)
	v.SetDefault("llm.referer", cfg.LLM.Referer)
	v.SetDefault("llm.title", cfg.LLM.Title)
	v.SetDefault("llm.system_prompt_file", cfg.LLM.SystemPromptFile)

	v.SetDefault("storage.output_dir", cfg.Storage.OutputDir)
	v.SetDefault("storage.records", cfg.Storage.Records)
	v.SetDefault("storage.mongo.enabled", cfg.Storage.Mongo.Enabled)
	v.SetDefault("storage.mongo.uri", cfg.Storage.Mongo.URI)
	v.SetDefault("storage.mongo.database", cfg.Storage.Mongo.Database)
	v.SetDefault("storage.mongo.collection", cfg.Storage.Mongo.Collection)
	v.SetDefault("storage.sqlite.enabled", cfg.Storage.SQLite.Enabled)
	v.SetDefault("storage.sqlite.path", cfg.Storage.SQLite.Path)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
