package main

import (
	"fmt"
	"log/slog"

	"github.com/IshaanNene/briefbot/internal/ai"
	"github.com/IshaanNene/briefbot/internal/config"
	"github.com/IshaanNene/briefbot/internal/engine"
	"github.com/IshaanNene/briefbot/internal/fetcher"
	"github.com/IshaanNene/briefbot/internal/observability"
	"github.com/IshaanNene/briefbot/internal/pipeline"
	"github.com/IshaanNene/briefbot/internal/session"
	"github.com/IshaanNene/briefbot/internal/site"
	"github.com/IshaanNene/briefbot/internal/source"
	"github.com/IshaanNene/briefbot/internal/storage"
)

// openerFor selects the page loader of the web and forum sources.
func openerFor(cfg *config.Config, logger *slog.Logger) fetcher.Opener {
	if cfg.Fetcher.Type == "http" {
		return fetcher.OpenHTTP(logger)
	}
	return fetcher.OpenRod(logger)
}

func launchOptions(cfg *config.Config, logger *slog.Logger) fetcher.LaunchOptions {
	opts := fetcher.LaunchOptions{
		Headless:  cfg.Browser.Headless,
		UserAgent: cfg.Browser.UserAgent,
		Timeout:   cfg.Browser.NavigationTimeout,
	}
	if cfg.Browser.Stealth {
		opts.Stealth = fetcher.DefaultStealthConfig()
	}
	if cfg.Proxy.Enabled && len(cfg.Proxy.URLs) > 0 {
		opts.Proxy = fetcher.NewProxyManager(cfg.Proxy.URLs, cfg.Proxy.Rotation, logger)
	}
	return opts
}

// buildRegistry loads the builtin descriptors and applies the sites file.
func buildRegistry(cfg *config.Config) (*site.Registry, error) {
	descs := site.Builtin()
	if cfg.SitesFile != "" {
		var err error
		descs, err = site.LoadOverrides(cfg.SitesFile, descs)
		if err != nil {
			return nil, err
		}
	}
	return site.NewRegistry(descs...)
}

func newSessionManager(cfg *config.Config, logger *slog.Logger) *session.Manager {
	// The feed always needs a real browser for the login flow.
	return session.NewManager(cfg.Sources.LinkedIn.ProfileDir, fetcher.OpenRod(logger), logger,
		session.WithHeadless(cfg.Sources.LinkedIn.Headless),
	)
}

// buildSources creates every scraper the run can use.
func buildSources(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (engine.Sources, error) {
	registry, err := buildRegistry(cfg)
	if err != nil {
		return engine.Sources{}, fmt.Errorf("site registry: %w", err)
	}

	opener := openerFor(cfg, logger)
	launch := launchOptions(cfg, logger)

	web := source.NewWebScraper(registry, opener, logger,
		source.WithLaunchOptions(launch),
		source.WithDetailConcurrency(cfg.Browser.DetailConcurrency),
		source.WithRequestRate(cfg.Browser.RequestsPerSecond),
		source.WithTimeouts(cfg.Browser.NavigationTimeout, cfg.Browser.DetailTimeout),
		source.WithWebMetrics(metrics),
	)
	forum := source.NewForumScraper(opener, launch, metrics, logger)
	feed := source.NewFeedScraper(newSessionManager(cfg, logger), nil, metrics, logger)

	return engine.Sources{Forum: forum, Feed: feed, Web: web}, nil
}

// buildBriefer creates the LLM client and the briefing generator.
func buildBriefer(cfg *config.Config, logger *slog.Logger) (*ai.Briefer, error) {
	client := ai.NewLLMClient(ai.LLMConfig{
		Endpoint:    cfg.LLM.Endpoint,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		Referer:     cfg.LLM.Referer,
		Title:       cfg.LLM.Title,
	}, logger)

	var opts []ai.BrieferOption
	if cfg.LLM.SystemPromptFile != "" {
		prompt, err := ai.LoadSystemPrompt(cfg.LLM.SystemPromptFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ai.WithSystemPrompt(prompt))
	}
	return ai.NewBriefer(client, logger, opts...), nil
}

// buildArchive opens the record archives selected in the config. It
// returns nil when none is enabled.
func buildArchive(cfg *config.Config, recordsPath string, logger *slog.Logger) (storage.Storage, error) {
	var backends []storage.Storage
	closeAll := func() {
		for _, b := range backends {
			_ = b.Close()
		}
	}

	if cfg.Storage.Records {
		s, err := storage.NewJSONLStorage(recordsPath, logger)
		if err != nil {
			return nil, err
		}
		backends = append(backends, s)
	}
	if cfg.Storage.SQLite.Enabled {
		s, err := storage.NewSQLiteStorage(cfg.Storage.SQLite.Path, logger)
		if err != nil {
			closeAll()
			return nil, err
		}
		backends = append(backends, s)
	}
	if cfg.Storage.Mongo.Enabled {
		s, err := storage.NewMongoStorage(cfg.Storage.Mongo.URI, cfg.Storage.Mongo.Database, cfg.Storage.Mongo.Collection, logger)
		if err != nil {
			closeAll()
			return nil, err
		}
		backends = append(backends, s)
	}

	if len(backends) == 0 {
		return nil, nil
	}
	return storage.NewMultiStorage(backends, logger), nil
}

func newOrchestrator(cfg *config.Config, sources engine.Sources, metrics *observability.Metrics, logger *slog.Logger, opts ...engine.Option) *engine.Orchestrator {
	opts = append([]engine.Option{
		engine.WithMetrics(metrics),
		engine.WithPipeline(pipeline.Default(cfg.Pipeline.MaxBodyLength, cfg.Pipeline.RedactPII, logger)),
	}, opts...)
	return engine.New(cfg, sources, logger, opts...)
}
