package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/briefbot/internal/fetcher"
	"github.com/IshaanNene/briefbot/internal/observability"
	"github.com/IshaanNene/briefbot/internal/parser"
	"github.com/IshaanNene/briefbot/internal/types"
)

// forumReadyTimeout bounds the wait for the first listing entry.
const forumReadyTimeout = 10 * time.Second

// ForumScraper reads the newest posts of discussion forums. Each subreddit
// is visited in its own page of one shared browser.
type ForumScraper struct {
	opener  fetcher.Opener
	launch  fetcher.LaunchOptions
	timeout time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewForumScraper creates a ForumScraper.
func NewForumScraper(opener fetcher.Opener, launch fetcher.LaunchOptions, metrics *observability.Metrics, logger *slog.Logger) *ForumScraper {
	if metrics == nil {
		metrics = observability.NewMetrics(logger)
	}
	return &ForumScraper{
		opener:  opener,
		launch:  launch,
		timeout: DefaultListingTimeout,
		metrics: metrics,
		logger:  logger.With("component", "forum_scraper"),
	}
}

// Scrape returns up to postsPerSub posts for every subreddit, in the order
// given. A subreddit that fails to load contributes nothing.
func (s *ForumScraper) Scrape(ctx context.Context, subreddits []string, postsPerSub int) ([]*types.Record, error) {
	if len(subreddits) == 0 || postsPerSub <= 0 {
		return nil, nil
	}

	browser, err := s.opener(ctx, s.launch)
	if err != nil {
		return nil, fmt.Errorf("forum: %w", err)
	}
	defer browser.Close()

	var all []*types.Record
	for _, sub := range subreddits {
		if err := ctx.Err(); err != nil {
			return all, nil
		}
		posts, err := s.scrapeOne(ctx, browser, sub, postsPerSub)
		if err != nil {
			s.metrics.PagesFailed.Add(1)
			s.logger.Warn("subreddit skipped", "subreddit", sub, "error", err)
			continue
		}
		s.metrics.PagesLoaded.Add(1)
		s.metrics.RecordsExtracted.Add(int64(len(posts)))
		s.logger.Info("subreddit scraped", "subreddit", sub, "posts", len(posts))
		all = append(all, posts...)
	}
	return all, nil
}

func (s *ForumScraper) scrapeOne(ctx context.Context, browser fetcher.Browser, sub string, max int) ([]*types.Record, error) {
	page, err := browser.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	listing := parser.ForumListingURL(sub)
	if err := page.Navigate(ctx, listing, s.timeout); err != nil {
		return nil, err
	}
	if err := page.WaitElement(ctx, parser.ForumReadySelector, forumReadyTimeout); err != nil {
		return nil, err
	}
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, &types.FetchError{URL: listing, Err: err}
	}
	doc, err := parser.Parse(html)
	if err != nil {
		return nil, &types.ParseError{URL: listing, Err: err}
	}
	return parser.ParseForumListing(doc, sub, max), nil
}
