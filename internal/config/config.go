package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for briefbot.
type Config struct {
	ItemsPerSource int            `mapstructure:"items_per_source" yaml:"items_per_source"`
	SitesFile      string         `mapstructure:"sites_file"       yaml:"sites_file"`
	Sources        SourcesConfig  `mapstructure:"sources"          yaml:"sources"`
	Browser        BrowserConfig  `mapstructure:"browser"          yaml:"browser"`
	Fetcher        FetcherConfig  `mapstructure:"fetcher"          yaml:"fetcher"`
	Proxy          ProxyConfig    `mapstructure:"proxy"            yaml:"proxy"`
	Pipeline       PipelineConfig `mapstructure:"pipeline"         yaml:"pipeline"`
	LLM            LLMConfig      `mapstructure:"llm"              yaml:"llm"`
	Storage        StorageConfig  `mapstructure:"storage"          yaml:"storage"`
	Logging        LoggingConfig  `mapstructure:"logging"          yaml:"logging"`
	Metrics        MetricsConfig  `mapstructure:"metrics"          yaml:"metrics"`
}

// SourcesConfig enables and sizes each source.
type SourcesConfig struct {
	Reddit    ForumConfig `mapstructure:"reddit"      yaml:"reddit"`
	LinkedIn  FeedConfig  `mapstructure:"linkedin"    yaml:"linkedin"`
	Futurism  SiteConfig  `mapstructure:"futurism"    yaml:"futurism"`
	TheNeuron SiteConfig  `mapstructure:"theneuron"   yaml:"theneuron"`
	Web       WebConfig   `mapstructure:"web_sources" yaml:"web_sources"`
}

// ForumConfig controls the discussion forum source.
type ForumConfig struct {
	Enabled    bool     `mapstructure:"enabled"    yaml:"enabled"`
	Subreddits []string `mapstructure:"subreddits" yaml:"subreddits"`
	Items      int      `mapstructure:"items"      yaml:"items"`
}

// FeedConfig controls the authenticated social feed source.
type FeedConfig struct {
	Enabled    bool   `mapstructure:"enabled"     yaml:"enabled"`
	Email      string `mapstructure:"email"       yaml:"email"`
	Password   string `mapstructure:"password"    yaml:"password"`
	Items      int    `mapstructure:"items"       yaml:"items"`
	ProfileDir string `mapstructure:"profile_dir" yaml:"profile_dir"`
	Headless   bool   `mapstructure:"headless"    yaml:"headless"`
}

// SiteConfig controls a single descriptor-driven site with its own section.
type SiteConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Items   int  `mapstructure:"items"   yaml:"items"`
}

// WebConfig controls the descriptor-driven sites grouped under one section.
type WebConfig struct {
	Enabled bool     `mapstructure:"enabled" yaml:"enabled"`
	Items   int      `mapstructure:"items"   yaml:"items"`
	Sources []string `mapstructure:"sources" yaml:"sources"`
}

// BrowserConfig controls page loading for the web sources.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless"            yaml:"headless"`
	Stealth           bool          `mapstructure:"stealth"             yaml:"stealth"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"  yaml:"navigation_timeout"`
	DetailTimeout     time.Duration `mapstructure:"detail_timeout"      yaml:"detail_timeout"`
	UserAgent         string        `mapstructure:"user_agent"          yaml:"user_agent"`
	DetailConcurrency int           `mapstructure:"detail_concurrency"  yaml:"detail_concurrency"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
}

// FetcherConfig selects the page loader.
type FetcherConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
}

// ProxyConfig controls proxy rotation.
type ProxyConfig struct {
	Enabled  bool     `mapstructure:"enabled"  yaml:"enabled"`
	Rotation string   `mapstructure:"rotation" yaml:"rotation"`
	URLs     []string `mapstructure:"urls"     yaml:"urls"`
}

// PipelineConfig controls record post-processing.
type PipelineConfig struct {
	MaxBodyLength int  `mapstructure:"max_body_length" yaml:"max_body_length"`
	RedactPII     bool `mapstructure:"redact_pii"      yaml:"redact_pii"`
}

// LLMConfig controls the briefing generator.
type LLMConfig struct {
	Endpoint    string        `mapstructure:"endpoint"    yaml:"endpoint"`
	Model       string        `mapstructure:"model"       yaml:"model"`
	APIKey      string        `mapstructure:"api_key"     yaml:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout"     yaml:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"  yaml:"max_tokens"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	Referer     string        `mapstructure:"referer"     yaml:"referer"`
	Title       string        `mapstructure:"title"       yaml:"title"`

	// SystemPromptFile replaces the built-in briefing instructions.
	SystemPromptFile string `mapstructure:"system_prompt_file" yaml:"system_prompt_file"`
}

// StorageConfig controls output files and archives.
type StorageConfig struct {
	OutputDir string       `mapstructure:"output_dir" yaml:"output_dir"`
	Records   bool         `mapstructure:"records"    yaml:"records"`
	Mongo     MongoConfig  `mapstructure:"mongo"      yaml:"mongo"`
	SQLite    SQLiteConfig `mapstructure:"sqlite"     yaml:"sqlite"`
}

// MongoConfig controls the MongoDB record archive.
type MongoConfig struct {
	Enabled    bool   `mapstructure:"enabled"    yaml:"enabled"`
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// SQLiteConfig controls the SQLite record archive.
type SQLiteConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ItemsPerSource: 5,
		Sources: SourcesConfig{
			Reddit: ForumConfig{
				Enabled:    true,
				Subreddits: []string{"ClaudeAI", "OpenAI"},
			},
			LinkedIn: FeedConfig{
				Enabled:    false,
				Items:      20,
				ProfileDir: ".linkedin_browser_profile",
			},
			Futurism:  SiteConfig{Enabled: true},
			TheNeuron: SiteConfig{Enabled: true},
			Web: WebConfig{
				Enabled: true,
				Sources: []string{"theverge", "techcrunch"},
			},
		},
		Browser: BrowserConfig{
			Headless:          true,
			NavigationTimeout: 30 * time.Second,
			DetailTimeout:     20 * time.Second,
			UserAgent:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
			DetailConcurrency: 1,
			RequestsPerSecond: 1,
		},
		Fetcher: FetcherConfig{
			Type: "browser",
		},
		Proxy: ProxyConfig{
			Rotation: "round_robin",
		},
		Pipeline: PipelineConfig{
			MaxBodyLength: 2000,
		},
		LLM: LLMConfig{
			Endpoint:    "https://openrouter.ai/api/v1",
			Model:       "anthropic/claude-sonnet-4.5",
			Timeout:     180 * time.Second,
			MaxTokens:   8000,
			Temperature: 0.4,
			Referer:     "https://github.com/IshaanNene/briefbot",
			Title:       "briefbot",
		},
		Storage: StorageConfig{
			OutputDir: "./output",
			Records:   true,
			Mongo: MongoConfig{
				Database:   "briefbot",
				Collection: "records",
			},
			SQLite: SQLiteConfig{
				Path: "./output/records.db",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Port: 9090,
			Path: "/metrics",
		},
	}
}

// ItemsFor returns the per-source budget, falling back to ItemsPerSource.
func (c *Config) ItemsFor(items int) int {
	if items > 0 {
		return items
	}
	return c.ItemsPerSource
}
