package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/briefbot/internal/site"
	"github.com/IshaanNene/briefbot/internal/types"
)

// Feed page selectors for the authenticated social feed.
var (
	FeedItemChain = site.Chain("div.feed-shared-update-v2", "[data-urn*='activity']", "main article")
	feedAuthor    = site.Chain("span.update-components-actor__name span[aria-hidden='true']")
	feedHeadline  = site.Chain("span.update-components-actor__description")
	feedContent   = site.Chain("div.feed-shared-update-v2__description", "span.break-words")
	feedTime      = site.Chain("span.update-components-actor__sub-description")
	feedReactions = site.Chain("span.social-details-social-counts__reactions-count")
	feedComments  = site.Chain("button[aria-label*='comment']")
)

const (
	// FeedURL is the landing page of the authenticated feed.
	FeedURL          = "https://www.linkedin.com/feed/"
	feedUpdatePrefix = "https://www.linkedin.com/feed/update/"

	// FeedSource is the display name of feed records.
	FeedSource = "LinkedIn"

	// MaxFeedBody bounds the body of a feed post.
	MaxFeedBody = 500
)

// ParseFeed extracts up to maxPosts posts from a feed snapshot. Items that
// fail to parse are counted in skipped and otherwise ignored.
func ParseFeed(doc *goquery.Document, maxPosts int) (records []*types.Record, skipped int) {
	Select(doc.Selection, FeedItemChain).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if len(records) >= maxPosts {
			return false
		}
		rec, err := ParseFeedItem(item)
		if err != nil {
			skipped++
			return true
		}
		records = append(records, rec)
		return true
	})
	return records, skipped
}

// ParseFeedItem turns one feed update element into a Record.
func ParseFeedItem(item *goquery.Selection) (rec *types.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("feed item: %v", r)
		}
	}()

	author := SelectText(item, feedAuthor)
	if author == "" {
		author = "Unknown"
	}

	body := types.Truncate(strings.TrimSpace(Select(item, feedContent).First().Text()), MaxFeedBody)
	if body == "" {
		return nil, &types.ParseError{Selector: feedContent.String(), Err: types.ErrEmptyBody}
	}

	postURL := FeedURL
	if urn, ok := item.Attr("data-urn"); ok && urn != "" {
		postURL = feedUpdatePrefix + urn + "/"
	}

	rec, err = types.NewRecord(author, body, postURL, FeedSource)
	if err != nil {
		return nil, err
	}
	rec.Author = author
	rec.Set(types.ExtraHeadline, NormalizeSpace(FirstLine(Select(item, feedHeadline).First().Text())))
	rec.Set(types.ExtraTimeAgo, timeAgo(Select(item, feedTime).First().Text()))
	rec.Set(types.ExtraReactions, orDefault(SelectText(item, feedReactions), "0"))
	rec.Set(types.ExtraComments, orDefault(SelectText(item, feedComments), "0"))
	return rec, nil
}

// timeAgo keeps the relative time in front of the visibility bullet.
func timeAgo(s string) string {
	before, _, _ := strings.Cut(s, "•")
	return NormalizeSpace(before)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
