// Package storage persists the results of a run: the raw news collection
// and the briefing as markdown, and the records as JSON lines or in an
// archive database.
package storage

import (
	"github.com/IshaanNene/briefbot/internal/types"
)

// Storage is the interface for all record backends.
type Storage interface {
	// Store persists a batch of records for one run.
	Store(runID string, records []*types.Record) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// TimestampLayout names the files of one run.
const TimestampLayout = "2006-01-02_15-04"

// recordDoc is the flat document shape shared by the JSON and archive
// backends.
type recordDoc struct {
	RunID     string            `json:"run_id,omitempty"     bson:"run_id,omitempty"`
	Title     string            `json:"title"                bson:"title"`
	Author    string            `json:"author,omitempty"     bson:"author,omitempty"`
	Excerpt   string            `json:"excerpt,omitempty"    bson:"excerpt,omitempty"`
	Body      string            `json:"body"                 bson:"body"`
	URL       string            `json:"url"                  bson:"url"`
	Source    string            `json:"source"               bson:"source"`
	Extra     map[string]string `json:"extra,omitempty"      bson:"extra,omitempty"`
	ScrapedAt string            `json:"scraped_at"           bson:"scraped_at"`
}

func toDoc(runID string, rec *types.Record) recordDoc {
	return recordDoc{
		RunID:     runID,
		Title:     rec.Title,
		Author:    rec.Author,
		Excerpt:   rec.Excerpt,
		Body:      rec.Body,
		URL:       rec.URL,
		Source:    rec.Source,
		Extra:     rec.Extra,
		ScrapedAt: rec.ScrapedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
