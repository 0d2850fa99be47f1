package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/briefbot/internal/engine"
	"github.com/IshaanNene/briefbot/internal/observability"
	"github.com/IshaanNene/briefbot/internal/session"
	"github.com/IshaanNene/briefbot/internal/storage"
)

var (
	noBrief      bool
	scrapeFormat string
	scrapeOutput string
)

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down...", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// runCmd creates the "run" subcommand.
func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Collect news from every enabled source and write the briefing",
		Long: `Run every enabled source in order (reddit, linkedin, futurism, theneuron,
web_sources), save the raw collection and ask the LLM for a briefing.

Outputs in the output directory:
  raw_news_<timestamp>.md   every collected item, unprocessed
  briefing_<timestamp>.md   the generated briefing
  records_<timestamp>.jsonl the records, when storage.records is set`,
		Args: cobra.NoArgs,
		RunE: runBriefing,
	}
	cmd.Flags().BoolVar(&noBrief, "no-brief", false, "only collect and save the raw news")
	return cmd
}

func runBriefing(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	if !noBrief && cfg.LLM.APIKey == "" {
		return errors.New("llm.api_key is required (set BRIEFBOT_LLM_API_KEY) or pass --no-brief")
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		metrics.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path)
	}

	out, err := storage.NewOutputWriter(cfg.Storage.OutputDir, logger)
	if err != nil {
		return err
	}

	sources, err := buildSources(cfg, metrics, logger)
	if err != nil {
		return err
	}
	var opts []engine.Option
	if !noBrief {
		briefer, err := buildBriefer(cfg, logger)
		if err != nil {
			return err
		}
		opts = append(opts, engine.WithBriefer(briefer))
	}
	orch := newOrchestrator(cfg, sources, metrics, logger, opts...)

	start := time.Now()
	logger.Info("starting run", "sources", orch.Enabled(), "output", out.Dir())

	batch, runErr := orch.Run(ctx)
	if runErr != nil {
		logger.Warn("run interrupted", "error", runErr)
	}
	if batch.Empty() {
		fmt.Println("\nNo news collected. All sources failed, found nothing or are disabled.")
		return runErr
	}

	ts := batch.StartedAt
	rawPath, err := out.WriteRawNews(batch.Sections, batch.TotalSourceCount, ts)
	if err != nil {
		return err
	}

	archive, err := buildArchive(cfg, out.RecordsPath(ts), logger)
	if err != nil {
		logger.Warn("record archive unavailable", "error", err)
	}
	if archive != nil {
		records := batch.Records()
		if err := archive.Store(batch.RunID, records); err != nil {
			logger.Warn("storing records failed", "error", err)
		} else {
			metrics.RecordsStored.Add(int64(len(records)))
		}
		if err := archive.Close(); err != nil {
			logger.Warn("closing archive failed", "error", err)
		}
	}

	fmt.Printf("\nCollected %d sources in %d sections (%s)\n",
		batch.TotalSourceCount, len(batch.Sections), time.Since(start).Round(time.Second))
	fmt.Printf("   Raw news:  %s\n", rawPath)

	if noBrief || runErr != nil {
		return runErr
	}

	text, err := orch.Briefing(ctx, batch)
	if err != nil {
		return err
	}
	briefPath, err := out.WriteBriefing(text, ts)
	if err != nil {
		return err
	}

	stats := metrics.Snapshot()
	logger.Info("run complete",
		"elapsed", time.Since(start),
		"records", stats["records_extracted"],
		"dropped", stats["records_dropped"],
		"failed_sources", stats["sources_failed"],
	)
	fmt.Printf("   Briefing:  %s\n", briefPath)
	return nil
}

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [source]",
		Short: "Scrape a single source and export its records",
		Long: `Scrape one source without generating a briefing. The source is a run
source (reddit, linkedin, futurism, theneuron, web_sources) or the key of a
single registered site such as theverge. Disabled sources still run.`,
		Args: cobra.ExactArgs(1),
		RunE: runScrape,
	}
	cmd.Flags().StringVarP(&scrapeFormat, "format", "f", "jsonl", "output format: json, jsonl, csv")
	cmd.Flags().StringVarP(&scrapeOutput, "output", "o", "", "output file (default: <output_dir>/<source>_<timestamp>.<format>)")
	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)
	key := args[0]

	ctx, cancel := signalContext(logger)
	defer cancel()

	metrics := observability.NewMetrics(logger)
	sources, err := buildSources(cfg, metrics, logger)
	if err != nil {
		return err
	}
	orch := newOrchestrator(cfg, sources, metrics, logger)

	section, err := orch.ScrapeSource(ctx, key)
	if err != nil {
		return err
	}

	path := scrapeOutput
	if path == "" {
		name := fmt.Sprintf("%s_%s.%s", key, time.Now().Format(storage.TimestampLayout), scrapeFormat)
		path = filepath.Join(cfg.Storage.OutputDir, name)
	}
	store, err := storage.NewFileStorage(scrapeFormat, path, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	if err := store.Store(key, section.Records); err != nil {
		_ = store.Close()
		return err
	}
	if err := store.Close(); err != nil {
		return err
	}

	fmt.Printf("%s: %d records -> %s\n", section.Name, len(section.Records), path)
	return nil
}

// loginCmd creates the "login" subcommand.
func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in to the social feed and keep the browser profile",
		Long: `Open the feed browser with a window, log in with the configured
credentials and wait for any security challenge to be solved by hand.
Later runs reuse the stored session from the profile directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.Logging)
			fc := cfg.Sources.LinkedIn
			creds := session.Credentials{Email: fc.Email, Password: fc.Password}

			ctx, cancel := signalContext(logger)
			defer cancel()

			// Interactive: challenges need a visible window.
			cfg.Sources.LinkedIn.Headless = false
			m := newSessionManager(cfg, logger)
			if err := m.Open(ctx); err != nil {
				return err
			}
			defer m.Close()

			if err := m.Authenticate(ctx, creds); err != nil {
				return fmt.Errorf("login failed (%s): %w", m.State(), err)
			}
			fmt.Printf("Logged in. Session stored in %s\n", m.ProfilePath())
			return nil
		},
	}
}
