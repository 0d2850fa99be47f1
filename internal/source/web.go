// Package source implements the scrapers behind each content source and the
// formatting of their Records for the briefing prompt.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/IshaanNene/briefbot/internal/clock"
	"github.com/IshaanNene/briefbot/internal/fetcher"
	"github.com/IshaanNene/briefbot/internal/observability"
	"github.com/IshaanNene/briefbot/internal/parser"
	"github.com/IshaanNene/briefbot/internal/site"
	"github.com/IshaanNene/briefbot/internal/types"
)

// Default navigation timeouts.
const (
	DefaultListingTimeout = 30 * time.Second
	DefaultDetailTimeout  = 20 * time.Second
)

// WebScraper scrapes descriptor-driven news sites.
type WebScraper struct {
	registry       *site.Registry
	opener         fetcher.Opener
	launch         fetcher.LaunchOptions
	clock          clock.Clock
	metrics        *observability.Metrics
	concurrency    int
	requestRate    rate.Limit
	listingTimeout time.Duration
	detailTimeout  time.Duration
	logger         *slog.Logger
}

// WebOption configures the WebScraper.
type WebOption func(*WebScraper)

// WithDetailConcurrency bounds parallel article extraction within a source.
func WithDetailConcurrency(n int) WebOption {
	return func(s *WebScraper) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithRequestRate caps article page loads per second. Zero disables the cap.
func WithRequestRate(perSecond float64) WebOption {
	return func(s *WebScraper) {
		if perSecond > 0 {
			s.requestRate = rate.Limit(perSecond)
		} else {
			s.requestRate = rate.Inf
		}
	}
}

// WithTimeouts sets the listing and detail navigation timeouts.
func WithTimeouts(listing, detail time.Duration) WebOption {
	return func(s *WebScraper) {
		if listing > 0 {
			s.listingTimeout = listing
		}
		if detail > 0 {
			s.detailTimeout = detail
		}
	}
}

// WithLaunchOptions sets how the browser is launched for each source.
func WithLaunchOptions(opts fetcher.LaunchOptions) WebOption {
	return func(s *WebScraper) { s.launch = opts }
}

// WithWebClock replaces the clock used for settle delays.
func WithWebClock(c clock.Clock) WebOption {
	return func(s *WebScraper) { s.clock = c }
}

// WithWebMetrics reports page and record counters to m.
func WithWebMetrics(m *observability.Metrics) WebOption {
	return func(s *WebScraper) { s.metrics = m }
}

// NewWebScraper creates a WebScraper over the given registry.
func NewWebScraper(registry *site.Registry, opener fetcher.Opener, logger *slog.Logger, opts ...WebOption) *WebScraper {
	s := &WebScraper{
		registry:       registry,
		opener:         opener,
		launch:         fetcher.LaunchOptions{Headless: true},
		clock:          clock.New(),
		concurrency:    1,
		requestRate:    rate.Inf,
		listingTimeout: DefaultListingTimeout,
		detailTimeout:  DefaultDetailTimeout,
		logger:         logger.With("component", "web_scraper"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics(logger)
	}
	return s
}

// SiteName returns the display name of the descriptor registered under key.
func (s *WebScraper) SiteName(key string) (string, bool) {
	d, ok := s.registry.Get(key)
	if !ok || d.DisplayName == "" {
		return "", false
	}
	return d.DisplayName, true
}

// Scrape returns up to maxArticles Records from the source registered under
// key, in listing order. Listing problems and per-article failures only
// shrink the result; the error is reserved for a browser that cannot start.
func (s *WebScraper) Scrape(ctx context.Context, key string, maxArticles int) ([]*types.Record, error) {
	d, ok := s.registry.Get(key)
	if !ok {
		s.logger.Warn("unknown source", "source", key)
		return nil, nil
	}
	logger := s.logger.With("source", d.Key)

	browser, err := s.opener(ctx, s.launch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Key, err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			logger.Debug("browser close failed", "error", err)
		}
	}()

	links := s.discover(ctx, browser, d, maxArticles, logger)
	if len(links) == 0 {
		logger.Warn("no article links found", "listing", d.ListingURL)
		return nil, nil
	}
	logger.Info("article links discovered", "count", len(links))

	records := s.extractAll(ctx, browser, d, links, logger)
	logger.Info("source scraped", "records", len(records), "links", len(links))
	return records, nil
}

// discover loads the listing page and collects article links.
func (s *WebScraper) discover(ctx context.Context, browser fetcher.Browser, d site.Descriptor, maxArticles int, logger *slog.Logger) []string {
	page, err := browser.NewPage(ctx)
	if err != nil {
		logger.Warn("open listing page", "error", err)
		return nil
	}
	defer page.Close()

	html, err := s.load(ctx, page, d.ListingURL, s.listingTimeout, d.ListingSettleDelay)
	if err != nil {
		logger.Warn("listing load failed", "url", d.ListingURL, "error", err)
		return nil
	}
	doc, err := parser.Parse(html)
	if err != nil {
		logger.Warn("listing parse failed", "url", d.ListingURL, "error", err)
		return nil
	}

	links := parser.DiscoverLinks(d, doc, maxArticles)
	s.metrics.LinksDiscovered.Add(int64(len(links)))
	return links
}

// extractAll visits every link with bounded parallelism. Results keep the
// order of links; failed items leave a hole that is compacted away.
func (s *WebScraper) extractAll(ctx context.Context, browser fetcher.Browser, d site.Descriptor, links []string, logger *slog.Logger) []*types.Record {
	results := make([]*types.Record, len(links))
	limiter := rate.NewLimiter(s.requestRate, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, link := range links {
		i, link := i, link
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return nil
			}
			rec, err := s.extractOne(gctx, browser, d, link)
			if err != nil {
				s.metrics.RecordsSkipped.Add(1)
				logger.Warn("article skipped", "url", link, "error", err)
				return nil
			}
			s.metrics.RecordsExtracted.Add(1)
			results[i] = rec
			return nil
		})
	}
	_ = g.Wait()

	records := make([]*types.Record, 0, len(results))
	for _, rec := range results {
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records
}

// extractOne loads one article page and extracts its Record. A panic in the
// page driver is turned into an error so siblings continue.
func (s *WebScraper) extractOne(ctx context.Context, browser fetcher.Browser, d site.Descriptor, link string) (rec *types.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("extract panic: %v", r)
		}
	}()

	page, err := browser.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	html, err := s.load(ctx, page, link, s.detailTimeout, d.SettleDelay)
	if err != nil {
		return nil, err
	}
	doc, err := parser.Parse(html)
	if err != nil {
		return nil, &types.ParseError{URL: link, Err: err}
	}
	return parser.ExtractArticle(d, doc, link)
}

// load navigates, waits for the settle delay and returns the rendered HTML.
func (s *WebScraper) load(ctx context.Context, page fetcher.Page, url string, timeout, settle time.Duration) (string, error) {
	if err := page.Navigate(ctx, url, timeout); err != nil {
		s.metrics.PagesFailed.Add(1)
		return "", err
	}
	if err := s.clock.Sleep(ctx, settle); err != nil {
		return "", err
	}
	html, err := page.HTML(ctx)
	if err != nil {
		s.metrics.PagesFailed.Add(1)
		return "", &types.FetchError{URL: url, Err: err}
	}
	s.metrics.PagesLoaded.Add(1)
	return html, nil
}
