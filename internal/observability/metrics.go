package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters of a briefing run.
type Metrics struct {
	// Page metrics
	PagesLoaded     atomic.Int64
	PagesFailed     atomic.Int64
	LinksDiscovered atomic.Int64

	// Record metrics
	RecordsExtracted atomic.Int64
	RecordsSkipped   atomic.Int64
	RecordsDropped   atomic.Int64
	RecordsStored    atomic.Int64

	// Source metrics
	SourcesRun    atomic.Int64
	SourcesFailed atomic.Int64
	SourcesEmpty  atomic.Int64

	// Session metrics
	LoginsSubmitted atomic.Int64
	ChallengePolls  atomic.Int64

	// Briefing metrics
	BriefingsGenerated atomic.Int64
	BriefingErrors     atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

type metricLine struct {
	name  string
	help  string
	value int64
}

func (m *Metrics) lines() []metricLine {
	return []metricLine{
		{"briefbot_pages_loaded_total", "Pages loaded successfully", m.PagesLoaded.Load()},
		{"briefbot_pages_failed_total", "Page loads that failed", m.PagesFailed.Load()},
		{"briefbot_links_discovered_total", "Article links discovered on listings", m.LinksDiscovered.Load()},
		{"briefbot_records_extracted_total", "Records extracted", m.RecordsExtracted.Load()},
		{"briefbot_records_skipped_total", "Items skipped during extraction", m.RecordsSkipped.Load()},
		{"briefbot_records_dropped_total", "Records dropped by the pipeline", m.RecordsDropped.Load()},
		{"briefbot_records_stored_total", "Records written to storage", m.RecordsStored.Load()},
		{"briefbot_sources_run_total", "Sources attempted", m.SourcesRun.Load()},
		{"briefbot_sources_failed_total", "Sources that failed", m.SourcesFailed.Load()},
		{"briefbot_sources_empty_total", "Sources that produced nothing", m.SourcesEmpty.Load()},
		{"briefbot_logins_submitted_total", "Login forms submitted", m.LoginsSubmitted.Load()},
		{"briefbot_challenge_polls_total", "Verification challenge polls", m.ChallengePolls.Load()},
		{"briefbot_briefings_generated_total", "Briefings generated", m.BriefingsGenerated.Load()},
		{"briefbot_briefing_errors_total", "Briefing generation failures", m.BriefingErrors.Load()},
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	for _, metric := range m.lines() {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer serves the metrics endpoint until ctx is done.
func (m *Metrics) StartServer(ctx context.Context, port int, path string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return srv
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"pages_loaded":        m.PagesLoaded.Load(),
		"pages_failed":        m.PagesFailed.Load(),
		"links_discovered":    m.LinksDiscovered.Load(),
		"records_extracted":   m.RecordsExtracted.Load(),
		"records_skipped":     m.RecordsSkipped.Load(),
		"records_dropped":     m.RecordsDropped.Load(),
		"records_stored":      m.RecordsStored.Load(),
		"sources_run":         m.SourcesRun.Load(),
		"sources_failed":      m.SourcesFailed.Load(),
		"sources_empty":       m.SourcesEmpty.Load(),
		"logins_submitted":    m.LoginsSubmitted.Load(),
		"challenge_polls":     m.ChallengePolls.Load(),
		"briefings_generated": m.BriefingsGenerated.Load(),
		"briefing_errors":     m.BriefingErrors.Load(),
	}
}
