package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.ItemsPerSource < 1 {
		return fmt.Errorf("items_per_source must be >= 1, got %d", cfg.ItemsPerSource)
	}
	for name, items := range map[string]int{
		"sources.reddit.items":      cfg.Sources.Reddit.Items,
		"sources.linkedin.items":    cfg.Sources.LinkedIn.Items,
		"sources.futurism.items":    cfg.Sources.Futurism.Items,
		"sources.theneuron.items":   cfg.Sources.TheNeuron.Items,
		"sources.web_sources.items": cfg.Sources.Web.Items,
	} {
		if items < 0 {
			return fmt.Errorf("%s must be >= 0, got %d", name, items)
		}
	}
	if cfg.Sources.Reddit.Enabled && len(cfg.Sources.Reddit.Subreddits) == 0 {
		return fmt.Errorf("sources.reddit.subreddits must not be empty when reddit is enabled")
	}
	if cfg.Sources.LinkedIn.Enabled && cfg.Sources.LinkedIn.ProfileDir == "" {
		return fmt.Errorf("sources.linkedin.profile_dir is required when linkedin is enabled")
	}

	if cfg.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be > 0")
	}
	if cfg.Browser.DetailTimeout <= 0 {
		return fmt.Errorf("browser.detail_timeout must be > 0")
	}
	if cfg.Browser.DetailConcurrency < 1 {
		return fmt.Errorf("browser.detail_concurrency must be >= 1, got %d", cfg.Browser.DetailConcurrency)
	}
	if cfg.Browser.RequestsPerSecond < 0 {
		return fmt.Errorf("browser.requests_per_second must be >= 0")
	}

	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}

	if cfg.Proxy.Enabled {
		if cfg.Proxy.Rotation != "round_robin" && cfg.Proxy.Rotation != "random" {
			return fmt.Errorf("proxy.rotation must be 'round_robin' or 'random', got %q", cfg.Proxy.Rotation)
		}
		for _, proxyURL := range cfg.Proxy.URLs {
			if err := ValidateURL(proxyURL); err != nil {
				return fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
			}
		}
	}

	if cfg.Pipeline.MaxBodyLength < 0 {
		return fmt.Errorf("pipeline.max_body_length must be >= 0")
	}

	if err := ValidateURL(cfg.LLM.Endpoint); err != nil {
		return fmt.Errorf("llm.endpoint: %w", err)
	}
	if cfg.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if cfg.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be > 0")
	}

	if cfg.Storage.OutputDir == "" {
		return fmt.Errorf("storage.output_dir is required")
	}
	if cfg.Storage.Mongo.Enabled && cfg.Storage.Mongo.URI == "" {
		return fmt.Errorf("storage.mongo.uri is required when mongo is enabled")
	}
	if cfg.Storage.SQLite.Enabled && cfg.Storage.SQLite.Path == "" {
		return fmt.Errorf("storage.sqlite.path is required when sqlite is enabled")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks that a URL is absolute http(s) with a host.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
