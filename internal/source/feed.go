package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/briefbot/internal/clock"
	"github.com/IshaanNene/briefbot/internal/observability"
	"github.com/IshaanNene/briefbot/internal/parser"
	"github.com/IshaanNene/briefbot/internal/session"
	"github.com/IshaanNene/briefbot/internal/types"
)

// Feed scrolling parameters. Posts are lazy-loaded below the fold.
const (
	feedReadyTimeout = 8 * time.Second
	feedScrolls      = 4
	feedScrollStep   = 600
	feedScrollPause  = 1500 * time.Millisecond
)

// FeedScraper reads the authenticated social feed through a session.Manager.
type FeedScraper struct {
	manager *session.Manager
	clock   clock.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewFeedScraper creates a FeedScraper. A nil clock uses the wall clock.
func NewFeedScraper(manager *session.Manager, c clock.Clock, metrics *observability.Metrics, logger *slog.Logger) *FeedScraper {
	if c == nil {
		c = clock.New()
	}
	if metrics == nil {
		metrics = observability.NewMetrics(logger)
	}
	return &FeedScraper{
		manager: manager,
		clock:   c,
		metrics: metrics,
		logger:  logger.With("component", "feed_scraper"),
	}
}

// Scrape logs in when needed and returns up to maxPosts feed posts. Missing
// credentials yield no records without opening a browser, and a session that
// ends in Failed yields no records either. Only a browser that cannot be
// opened, or a cancelled context, is returned as an error. The browser is
// always closed and the profile kept for the next run.
func (s *FeedScraper) Scrape(ctx context.Context, creds session.Credentials, maxPosts int) ([]*types.Record, error) {
	if !creds.Valid() {
		s.logger.Warn("feed credentials not configured, skipping")
		return nil, nil
	}
	if maxPosts <= 0 {
		return nil, nil
	}

	if err := s.manager.Open(ctx); err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	defer func() {
		if err := s.manager.Close(); err != nil {
			s.logger.Debug("session close failed", "error", err)
		}
	}()

	err := s.manager.Authenticate(ctx, creds)
	s.recordLogin()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("feed login failed, skipping", "state", s.manager.State(), "error", err)
		return nil, nil
	}

	page := s.manager.Page()
	if page == nil {
		return nil, fmt.Errorf("feed: %w", session.ErrNotOpen)
	}

	if !s.waitForFeed(ctx) {
		s.logger.Warn("feed items did not appear in time, reading page anyway")
	}
	for i := 0; i < feedScrolls; i++ {
		if err := page.ScrollBy(ctx, feedScrollStep); err != nil {
			s.logger.Debug("scroll failed", "error", err)
			break
		}
		if err := s.clock.Sleep(ctx, feedScrollPause); err != nil {
			return nil, err
		}
	}

	html, err := page.HTML(ctx)
	if err != nil {
		s.metrics.PagesFailed.Add(1)
		return nil, &types.FetchError{URL: parser.FeedURL, Err: err}
	}
	s.metrics.PagesLoaded.Add(1)

	doc, err := parser.Parse(html)
	if err != nil {
		return nil, &types.ParseError{URL: parser.FeedURL, Err: err}
	}
	records, skipped := parser.ParseFeed(doc, maxPosts)
	s.metrics.RecordsExtracted.Add(int64(len(records)))
	s.metrics.RecordsSkipped.Add(int64(skipped))
	s.logger.Info("feed scraped", "posts", len(records), "skipped", skipped)
	return records, nil
}

// waitForFeed waits for any of the feed item selectors in turn.
func (s *FeedScraper) waitForFeed(ctx context.Context) bool {
	page := s.manager.Page()
	for _, sel := range parser.FeedItemChain {
		err := page.WaitElement(ctx, sel, feedReadyTimeout)
		if err == nil {
			return true
		}
		if errors.Is(err, context.Canceled) {
			return false
		}
	}
	return false
}

func (s *FeedScraper) recordLogin() {
	for _, t := range s.manager.History() {
		if t.To == session.LoginSubmitted {
			s.metrics.LoginsSubmitted.Add(1)
		}
	}
	s.metrics.ChallengePolls.Add(int64(s.manager.ChallengePolls()))
}
