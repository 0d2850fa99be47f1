// Package pipeline post-processes Records between the scrapers and the
// briefing prompt.
package pipeline

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/IshaanNene/briefbot/internal/types"
)

// Middleware processes a record and returns the (possibly modified) record.
// Return nil to drop the record from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a record. Return nil to drop the record.
	Process(rec *types.Record) (*types.Record, error)
}

// Resetter is implemented by middleware that keeps state between records.
type Resetter interface {
	Reset()
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the record through all middleware in order.
func (p *Pipeline) Process(rec *types.Record) (*types.Record, error) {
	current := rec

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage:  mw.Name(),
				Record: current,
				Err:    err,
			}
		}
		if result == nil {
			p.logger.Debug("record dropped", "stage", mw.Name(), "url", rec.URL)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// ProcessAll runs every record through the chain, preserving order. Records
// that are dropped or fail a stage are left out; dropped counts both.
func (p *Pipeline) ProcessAll(records []*types.Record) (kept []*types.Record, dropped int) {
	kept = make([]*types.Record, 0, len(records))
	for _, rec := range records {
		out, err := p.Process(rec)
		if err != nil {
			p.logger.Warn("record rejected", "url", rec.URL, "error", err)
			dropped++
			continue
		}
		if out == nil {
			dropped++
			continue
		}
		kept = append(kept, out)
	}
	return kept, dropped
}

// Reset clears the state of every stateful middleware.
func (p *Pipeline) Reset() {
	for _, mw := range p.middlewares {
		if r, ok := mw.(Resetter); ok {
			r.Reset()
		}
	}
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// --- Built-in Middleware ---

// RequiredFieldsMiddleware drops records with a blank title, body or URL.
type RequiredFieldsMiddleware struct{}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(rec *types.Record) (*types.Record, error) {
	if strings.TrimSpace(rec.Title) == "" || strings.TrimSpace(rec.Body) == "" || rec.URL == "" {
		return nil, nil
	}
	return rec, nil
}

// DedupMiddleware drops records whose URL was already seen.
type DedupMiddleware struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDedupMiddleware() *DedupMiddleware {
	return &DedupMiddleware{
		seen: make(map[string]struct{}),
	}
}

func (m *DedupMiddleware) Name() string { return "dedup" }

func (m *DedupMiddleware) Process(rec *types.Record) (*types.Record, error) {
	key := strings.TrimRight(rec.URL, "/")

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.seen[key]; exists {
		return nil, nil
	}
	m.seen[key] = struct{}{}
	return rec, nil
}

// Reset forgets every seen URL.
func (m *DedupMiddleware) Reset() {
	m.mu.Lock()
	m.seen = make(map[string]struct{})
	m.mu.Unlock()
}

// TrimMiddleware trims whitespace from all string fields.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(rec *types.Record) (*types.Record, error) {
	rec.Title = strings.TrimSpace(rec.Title)
	rec.Author = strings.TrimSpace(rec.Author)
	rec.Body = strings.TrimSpace(rec.Body)
	rec.URL = strings.TrimSpace(rec.URL)
	for key, val := range rec.Extra {
		rec.Extra[key] = strings.TrimSpace(val)
	}
	return rec, nil
}

// MaxLengthMiddleware caps the body to a rune budget and refreshes the
// excerpt.
type MaxLengthMiddleware struct {
	Max int
}

func (m *MaxLengthMiddleware) Name() string { return "max_length" }

func (m *MaxLengthMiddleware) Process(rec *types.Record) (*types.Record, error) {
	if m.Max > 0 {
		rec.Body = types.Truncate(rec.Body, m.Max)
		rec.Excerpt = types.Excerpt(rec.Body, types.ExcerptLength)
	}
	return rec, nil
}
