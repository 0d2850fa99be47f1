package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/IshaanNene/briefbot/internal/types"
)

// OutputWriter writes the markdown artifacts of a run into one directory.
type OutputWriter struct {
	dir    string
	logger *slog.Logger
}

// NewOutputWriter creates the output directory if needed.
func NewOutputWriter(dir string, logger *slog.Logger) (*OutputWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &types.StorageError{Backend: "markdown", Err: fmt.Errorf("create output dir: %w", err)}
	}
	return &OutputWriter{dir: dir, logger: logger.With("component", "output_writer")}, nil
}

// Dir returns the output directory.
func (w *OutputWriter) Dir() string {
	return w.dir
}

// RecordsPath returns the JSONL path of the run started at ts.
func (w *OutputWriter) RecordsPath(ts time.Time) string {
	return filepath.Join(w.dir, "records_"+ts.Format(TimestampLayout)+".jsonl")
}

// WriteRawNews writes every section unprocessed, in batch order.
func (w *OutputWriter) WriteRawNews(sections []types.Section, totalSources int, ts time.Time) (string, error) {
	var b strings.Builder
	b.WriteString("# Raw News Collection\n")
	fmt.Fprintf(&b, "**Date:** %s\n", ts.Format("02.01.2006 15:04"))
	fmt.Fprintf(&b, "**Sources:** %d (%d categories)\n\n---\n\n", totalSources, len(sections))
	b.WriteString("*This file holds every collected item without briefing or summary.*\n\n---\n\n")
	for _, s := range sections {
		fmt.Fprintf(&b, "# %s\n\n%s\n\n---\n\n", s.Name, s.Content)
	}

	path := filepath.Join(w.dir, "raw_news_"+ts.Format(TimestampLayout)+".md")
	return path, w.write(path, b.String())
}

// WriteBriefing writes the generated briefing as markdown.
func (w *OutputWriter) WriteBriefing(text string, ts time.Time) (string, error) {
	path := filepath.Join(w.dir, "briefing_"+ts.Format(TimestampLayout)+".md")
	return path, w.write(path, text)
}

func (w *OutputWriter) write(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return &types.StorageError{Backend: "markdown", Err: err}
	}
	w.logger.Info("file written", "path", path, "bytes", len(content))
	return nil
}
