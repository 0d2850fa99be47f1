package types

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

// Extra field keys shared by the source adapters.
const (
	ExtraCategory  = "category"
	ExtraScore     = "score"
	ExtraComments  = "comments"
	ExtraTimeAgo   = "time_ago"
	ExtraHeadline  = "headline"
	ExtraReactions = "reactions"
	ExtraSubreddit = "subreddit"
	ExtraPublished = "published"
	ExtraCanonical = "canonical"
)

// ExcerptLength is the default length of Record.Excerpt before the ellipsis.
const ExcerptLength = 300

// Record is one normalized item acquired from a source.
type Record struct {
	// Title is the item headline. Never empty.
	Title string

	// Author is the byline, if the source exposes one.
	Author string

	// Excerpt is a short prefix of Body for previews.
	Excerpt string

	// Body is the extracted text, bounded by the source's length budget.
	Body string

	// URL is the absolute address the item was read from. It is the
	// provenance citation used downstream.
	URL string

	// Source is the display name of the producing source.
	Source string

	// Extra holds source-specific fields such as score or relative time.
	Extra map[string]string

	// ScrapedAt is when the record was built.
	ScrapedAt time.Time
}

// NewRecord builds a Record from the required fields. It returns
// ErrIncompleteRecord when either the title or the body is blank, so a
// partial extraction can never surface as a Record.
func NewRecord(title, body, url, source string) (*Record, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return nil, ErrIncompleteRecord
	}
	return &Record{
		Title:     title,
		Body:      body,
		Excerpt:   Excerpt(body, ExcerptLength),
		URL:       url,
		Source:    source,
		Extra:     make(map[string]string),
		ScrapedAt: time.Now(),
	}, nil
}

// Set stores a source-specific field. Empty values are ignored.
func (r *Record) Set(key, value string) {
	if value == "" {
		return
	}
	if r.Extra == nil {
		r.Extra = make(map[string]string)
	}
	r.Extra[key] = value
}

// Get returns a source-specific field, or "" when absent.
func (r *Record) Get(key string) string {
	return r.Extra[key]
}

// GetOr returns a source-specific field, or fallback when absent.
func (r *Record) GetOr(key, fallback string) string {
	if v, ok := r.Extra[key]; ok && v != "" {
		return v
	}
	return fallback
}

// ToJSON serializes the record for line-oriented dumps.
func (r *Record) ToJSON() ([]byte, error) {
	return json.Marshal(struct {
		Title     string            `json:"title"`
		Author    string            `json:"author,omitempty"`
		Excerpt   string            `json:"excerpt,omitempty"`
		Body      string            `json:"body"`
		URL       string            `json:"url"`
		Source    string            `json:"source"`
		Extra     map[string]string `json:"extra,omitempty"`
		ScrapedAt time.Time         `json:"scraped_at"`
	}{
		Title:     r.Title,
		Author:    r.Author,
		Excerpt:   r.Excerpt,
		Body:      r.Body,
		URL:       r.URL,
		Source:    r.Source,
		Extra:     r.Extra,
		ScrapedAt: r.ScrapedAt,
	})
}

// Clone creates a deep copy of the record.
func (r *Record) Clone() *Record {
	clone := *r
	clone.Extra = make(map[string]string, len(r.Extra))
	for k, v := range r.Extra {
		clone.Extra[k] = v
	}
	return &clone
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// Excerpt returns the first n runes of s followed by "..." when s is longer.
func Excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return Truncate(s, n) + "..."
}
