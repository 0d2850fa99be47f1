package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/briefbot/internal/site"
	"github.com/IshaanNene/briefbot/internal/types"
)

const (
	// ForumOrigin is the base for relative forum links.
	ForumOrigin = "https://old.reddit.com"

	// ForumSource is the display name shared by every subreddit.
	ForumSource = "Reddit"

	// ForumReadySelector signals that a listing has rendered.
	ForumReadySelector = "div.thing"
)

var (
	forumItems    = site.Chain("div.thing.link")
	forumTitle    = site.Chain("a.title")
	forumAuthor   = site.Chain("a.author")
	forumScore    = site.Chain("div.score.unvoted")
	forumComments = site.Chain("a.comments")
	forumTime     = site.Chain("time")
)

// ForumListingURL returns the newest-first listing of a subreddit.
func ForumListingURL(subreddit string) string {
	return ForumOrigin + "/r/" + subreddit + "/new/"
}

// ParseForumListing reads up to maxPosts posts of one subreddit listing.
// Posts without a title are skipped. The post title doubles as the body
// since listings carry no text.
func ParseForumListing(doc *goquery.Document, subreddit string, maxPosts int) []*types.Record {
	var records []*types.Record
	Select(doc.Selection, forumItems).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if len(records) >= maxPosts {
			return false
		}
		title := SelectText(item, forumTitle)
		href, _ := SelectAttr(item, forumTitle, "href")
		link := strings.TrimSpace(href)
		if strings.HasPrefix(link, "/") {
			link = ForumOrigin + link
		}

		rec, err := types.NewRecord(title, title, link, ForumSource)
		if err != nil {
			return true
		}
		rec.Author = orDefault(SelectText(item, forumAuthor), "[deleted]")
		score, _ := SelectAttr(item, forumScore, "title")
		timeAgo, _ := SelectAttr(item, forumTime, "title")
		rec.Set(types.ExtraSubreddit, subreddit)
		rec.Set(types.ExtraScore, orDefault(strings.TrimSpace(score), "?"))
		rec.Set(types.ExtraComments, orDefault(SelectText(item, forumComments), "0 comments"))
		rec.Set(types.ExtraTimeAgo, timeAgo)
		records = append(records, rec)
		return true
	})
	return records
}
