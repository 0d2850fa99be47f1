// Package engine runs the content sources in a fixed order and aggregates
// their formatted output into a Batch for the briefing generator.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/IshaanNene/briefbot/internal/clock"
	"github.com/IshaanNene/briefbot/internal/config"
	"github.com/IshaanNene/briefbot/internal/observability"
	"github.com/IshaanNene/briefbot/internal/pipeline"
	"github.com/IshaanNene/briefbot/internal/session"
	"github.com/IshaanNene/briefbot/internal/source"
	"github.com/IshaanNene/briefbot/internal/types"
)

// Section names of the aggregated batch.
const (
	SectionReddit    = "Reddit"
	SectionLinkedIn  = "LinkedIn"
	SectionFuturism  = "Futurism"
	SectionTheNeuron = "The Neuron"
	SectionWeb       = "Web News"
)

// Source keys accepted by ScrapeSource, in run order.
const (
	SourceReddit    = "reddit"
	SourceLinkedIn  = "linkedin"
	SourceFuturism  = "futurism"
	SourceTheNeuron = "theneuron"
	SourceWeb       = "web_sources"
)

// ErrEmptyBatch is returned by Briefing when there is nothing to brief.
var ErrEmptyBatch = errors.New("no news collected or all sources disabled")

// State represents the orchestrator's lifecycle state.
type State int32

const (
	StateIdle    State = 0
	StateRunning State = 1
	StateBriefed State = 2
	StateStopped State = 3
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateBriefed:
		return "briefed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ForumSource scrapes discussion forums.
type ForumSource interface {
	Scrape(ctx context.Context, subreddits []string, postsPerSub int) ([]*types.Record, error)
}

// FeedSource scrapes the authenticated social feed.
type FeedSource interface {
	Scrape(ctx context.Context, creds session.Credentials, maxPosts int) ([]*types.Record, error)
}

// WebSource scrapes descriptor-driven news sites by key.
type WebSource interface {
	Scrape(ctx context.Context, key string, maxArticles int) ([]*types.Record, error)

	// SiteName returns the display name registered for key.
	SiteName(key string) (string, bool)
}

// Briefer turns the sections of a batch into a briefing.
type Briefer interface {
	Brief(ctx context.Context, sections []types.Section, totalSources int) (string, error)
}

// Sources bundles the scrapers. A nil scraper disables its sources.
type Sources struct {
	Forum ForumSource
	Feed  FeedSource
	Web   WebSource
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithPipeline sets the record pipeline applied before formatting.
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(o *Orchestrator) { o.pipeline = p }
}

// WithBriefer sets the briefing generator.
func WithBriefer(b Briefer) Option {
	return func(o *Orchestrator) { o.briefer = b }
}

// WithMetrics reports source counters to m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithClock replaces the clock used for batch timestamps.
func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// Orchestrator runs every enabled source sequentially.
type Orchestrator struct {
	cfg      *config.Config
	sources  Sources
	pipeline *pipeline.Pipeline
	briefer  Briefer
	metrics  *observability.Metrics
	clock    clock.Clock
	state    atomic.Int32
	logger   *slog.Logger
}

// New creates an Orchestrator for cfg.
func New(cfg *config.Config, sources Sources, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:     cfg,
		sources: sources,
		clock:   clock.New(),
		logger:  logger.With("component", "orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = observability.NewMetrics(logger)
	}
	return o
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Metrics returns the counters of this orchestrator.
func (o *Orchestrator) Metrics() *observability.Metrics {
	return o.metrics
}

// step is one source of the run.
type step struct {
	key     string
	enabled bool
	run     func(ctx context.Context) (types.Section, error)
}

func (o *Orchestrator) steps() []step {
	src := o.cfg.Sources
	return []step{
		{SourceReddit, src.Reddit.Enabled && o.sources.Forum != nil, o.runForum},
		{SourceLinkedIn, src.LinkedIn.Enabled && o.sources.Feed != nil, o.runFeed},
		{SourceFuturism, src.Futurism.Enabled && o.sources.Web != nil, o.runSite(SourceFuturism, SectionFuturism, src.Futurism.Items)},
		{SourceTheNeuron, src.TheNeuron.Enabled && o.sources.Web != nil, o.runSite(SourceTheNeuron, SectionTheNeuron, src.TheNeuron.Items)},
		{SourceWeb, src.Web.Enabled && o.sources.Web != nil, o.runWeb},
	}
}

// Enabled returns the keys of the sources a run would visit.
func (o *Orchestrator) Enabled() []string {
	var keys []string
	for _, s := range o.steps() {
		if s.enabled {
			keys = append(keys, s.key)
		}
	}
	return keys
}

// Run visits every enabled source in order and aggregates the sections.
// Source failures are logged and contained; the error is only set when ctx
// ends the run early, and the partial batch is still returned.
func (o *Orchestrator) Run(ctx context.Context) (*Batch, error) {
	o.state.Store(int32(StateRunning))
	defer o.state.CompareAndSwap(int32(StateRunning), int32(StateStopped))

	batch := &Batch{RunID: uuid.NewString(), StartedAt: o.clock.Now()}
	logger := o.logger.With("run_id", batch.RunID)
	logger.Info("run starting", "sources", o.Enabled())

	for _, s := range o.steps() {
		if !s.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			batch.FinishedAt = o.clock.Now()
			return batch, err
		}

		section, err := o.runStep(ctx, s)
		if err != nil {
			o.metrics.SourcesFailed.Add(1)
			logger.Warn("source failed", "source", s.key, "error", err)
			continue
		}
		if len(section.Records) == 0 {
			o.metrics.SourcesEmpty.Add(1)
			logger.Info("source produced nothing", "source", s.key)
			continue
		}
		batch.add(section)
		logger.Info("source collected",
			"source", s.key,
			"section", section.Name,
			"records", len(section.Records),
			"sub_sources", section.SourceCount,
		)
	}

	batch.FinishedAt = o.clock.Now()
	logger.Info("run finished",
		"sections", len(batch.Sections),
		"sources", batch.TotalSourceCount,
		"duration", batch.FinishedAt.Sub(batch.StartedAt),
	)
	return batch, nil
}

// ScrapeSource runs one source regardless of whether it is enabled. The key
// is a run source key or the key of a single registered web site.
func (o *Orchestrator) ScrapeSource(ctx context.Context, key string) (types.Section, error) {
	for _, s := range o.steps() {
		if s.key == key {
			return o.runStep(ctx, s)
		}
	}
	if o.sources.Web == nil {
		return types.Section{}, fmt.Errorf("%w: %s", types.ErrUnknownSource, key)
	}
	name, ok := o.sources.Web.SiteName(key)
	if !ok {
		name = key
	}
	return o.runStep(ctx, step{key: key, enabled: true, run: o.runSite(key, name, o.cfg.Sources.Web.Items)})
}

// runStep contains panics and errors of one source.
func (o *Orchestrator) runStep(ctx context.Context, s step) (section types.Section, err error) {
	o.metrics.SourcesRun.Add(1)
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("source panicked", "source", s.key, "panic", r, "stack", string(debug.Stack()))
			section, err = types.Section{}, &types.SourceError{Source: s.key, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	section, err = s.run(ctx)
	if err != nil {
		return types.Section{}, &types.SourceError{Source: s.key, Err: err}
	}
	return section, nil
}

func (o *Orchestrator) runForum(ctx context.Context) (types.Section, error) {
	cfg := o.cfg.Sources.Reddit
	if o.sources.Forum == nil {
		return types.Section{}, types.ErrUnknownSource
	}
	records, err := o.sources.Forum.Scrape(ctx, cfg.Subreddits, o.cfg.ItemsFor(cfg.Items))
	if err != nil {
		return types.Section{}, err
	}
	records = o.process(records)
	return types.Section{
		Name:        SectionReddit,
		Content:     source.FormatForum(records),
		SourceCount: len(cfg.Subreddits),
		Records:     records,
	}, nil
}

func (o *Orchestrator) runFeed(ctx context.Context) (types.Section, error) {
	cfg := o.cfg.Sources.LinkedIn
	if o.sources.Feed == nil {
		return types.Section{}, types.ErrUnknownSource
	}
	creds := session.Credentials{Email: cfg.Email, Password: cfg.Password}
	records, err := o.sources.Feed.Scrape(ctx, creds, o.cfg.ItemsFor(cfg.Items))
	if err != nil {
		return types.Section{}, err
	}
	records = o.process(records)
	return types.Section{
		Name:        SectionLinkedIn,
		Content:     source.FormatFeed(records),
		SourceCount: 1,
		Records:     records,
	}, nil
}

// runSite scrapes one registered site into its own section.
func (o *Orchestrator) runSite(key, name string, items int) func(context.Context) (types.Section, error) {
	return func(ctx context.Context) (types.Section, error) {
		if o.sources.Web == nil {
			return types.Section{}, types.ErrUnknownSource
		}
		records, err := o.sources.Web.Scrape(ctx, key, o.cfg.ItemsFor(items))
		if err != nil {
			return types.Section{}, err
		}
		records = o.process(records)
		return types.Section{
			Name:        name,
			Content:     source.FormatForDownstream(records, name),
			SourceCount: 1,
			Records:     records,
		}, nil
	}
}

// runWeb scrapes every configured site into the shared web section. A site
// that fails only loses its own articles.
func (o *Orchestrator) runWeb(ctx context.Context) (types.Section, error) {
	cfg := o.cfg.Sources.Web
	if o.sources.Web == nil {
		return types.Section{}, types.ErrUnknownSource
	}

	var all []*types.Record
	for _, key := range cfg.Sources {
		if err := ctx.Err(); err != nil {
			return types.Section{}, err
		}
		records, err := o.scrapeSite(ctx, key, o.cfg.ItemsFor(cfg.Items))
		if err != nil {
			o.metrics.SourcesFailed.Add(1)
			o.logger.Warn("web site failed", "site", key, "error", err)
			continue
		}
		o.logger.Info("web site collected", "site", key, "records", len(records))
		all = append(all, records...)
	}

	all = o.process(all)
	return types.Section{
		Name:        SectionWeb,
		Content:     source.FormatForDownstream(all, "Web"),
		SourceCount: len(cfg.Sources),
		Records:     all,
	}, nil
}

func (o *Orchestrator) scrapeSite(ctx context.Context, key string, items int) (records []*types.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			records, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return o.sources.Web.Scrape(ctx, key, items)
}

// process runs the records of one source through the pipeline. Dedup state
// does not carry over between sources.
func (o *Orchestrator) process(records []*types.Record) []*types.Record {
	if o.pipeline == nil || len(records) == 0 {
		return records
	}
	o.pipeline.Reset()
	kept, dropped := o.pipeline.ProcessAll(records)
	o.metrics.RecordsDropped.Add(int64(dropped))
	return kept
}

// Briefing generates the briefing for batch. An empty batch or a missing
// briefer never reaches the generator.
func (o *Orchestrator) Briefing(ctx context.Context, batch *Batch) (string, error) {
	if batch.Empty() {
		return "", ErrEmptyBatch
	}
	if o.briefer == nil {
		return "", errors.New("no briefing generator configured")
	}

	text, err := o.briefer.Brief(ctx, batch.Sections, batch.TotalSourceCount)
	if err != nil {
		o.metrics.BriefingErrors.Add(1)
		return "", fmt.Errorf("briefing: %w", err)
	}
	o.metrics.BriefingsGenerated.Add(1)
	o.state.Store(int32(StateBriefed))
	return text, nil
}
