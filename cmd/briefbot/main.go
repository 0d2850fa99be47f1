package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/briefbot/internal/config"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "briefbot",
		Short: "briefbot collects AI news and writes a daily briefing",
		Long: `briefbot scrapes forums, a social feed and news sites, then asks an LLM
to condense everything into one markdown briefing.

Sources run one after another. A source that fails or finds nothing is
skipped; the rest of the run continues.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(sourcesCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setupLogger creates a structured logger from the logging config.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("briefbot %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			src := cfg.Sources
			fmt.Printf("Sources:\n")
			fmt.Printf("  Items per source:  %d\n", cfg.ItemsPerSource)
			fmt.Printf("  Reddit:            %v %v\n", src.Reddit.Enabled, src.Reddit.Subreddits)
			fmt.Printf("  LinkedIn:          %v (credentials: %v)\n", src.LinkedIn.Enabled, src.LinkedIn.Email != "" && src.LinkedIn.Password != "")
			fmt.Printf("  Futurism:          %v\n", src.Futurism.Enabled)
			fmt.Printf("  The Neuron:        %v\n", src.TheNeuron.Enabled)
			fmt.Printf("  Web sources:       %v %v\n", src.Web.Enabled, src.Web.Sources)
			fmt.Printf("  Sites file:        %s\n", cfg.SitesFile)
			fmt.Printf("\nBrowser:\n")
			fmt.Printf("  Fetcher:           %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Headless:          %v\n", cfg.Browser.Headless)
			fmt.Printf("  Stealth:           %v\n", cfg.Browser.Stealth)
			fmt.Printf("  Listing timeout:   %s\n", cfg.Browser.NavigationTimeout)
			fmt.Printf("  Detail timeout:    %s\n", cfg.Browser.DetailTimeout)
			fmt.Printf("  Concurrency:       %d\n", cfg.Browser.DetailConcurrency)
			fmt.Printf("\nProxy:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Proxy.Enabled)
			fmt.Printf("  Rotation:          %s\n", cfg.Proxy.Rotation)
			fmt.Printf("  Count:             %d\n", len(cfg.Proxy.URLs))
			fmt.Printf("\nLLM:\n")
			fmt.Printf("  Endpoint:          %s\n", cfg.LLM.Endpoint)
			fmt.Printf("  Model:             %s\n", cfg.LLM.Model)
			fmt.Printf("  API key set:       %v\n", cfg.LLM.APIKey != "")
			fmt.Printf("  Max tokens:        %d\n", cfg.LLM.MaxTokens)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Output dir:        %s\n", cfg.Storage.OutputDir)
			fmt.Printf("  Records:           %v\n", cfg.Storage.Records)
			fmt.Printf("  MongoDB:           %v\n", cfg.Storage.Mongo.Enabled)
			fmt.Printf("  SQLite:            %v (%s)\n", cfg.Storage.SQLite.Enabled, cfg.Storage.SQLite.Path)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}
