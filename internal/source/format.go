package source

import (
	"fmt"
	"strings"

	"github.com/IshaanNene/briefbot/internal/types"
)

// EmptyMessage is the block produced for a source without records.
func EmptyMessage(sourceName string) string {
	return fmt.Sprintf("No articles found from %s.", sourceName)
}

// FormatForDownstream renders article Records as one text block. Fields are
// always emitted in the same order: title, author, source, category, URL,
// body. Author and category lines only appear when set.
func FormatForDownstream(records []*types.Record, sourceName string) string {
	if len(records) == 0 {
		return EmptyMessage(sourceName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s News\n\n", sourceName)
	b.WriteString("IMPORTANT: use the article URLs as source links in your summary!\n")

	for i, rec := range records {
		fmt.Fprintf(&b, "\n## Article #%d: %s\n", i+1, rec.Title)
		if rec.Author != "" {
			fmt.Fprintf(&b, "- **Author:** %s\n", rec.Author)
		}
		if rec.Source != "" {
			fmt.Fprintf(&b, "- **Source:** %s\n", rec.Source)
		}
		if c := rec.Get(types.ExtraCategory); c != "" {
			fmt.Fprintf(&b, "- **Category:** %s\n", c)
		}
		fmt.Fprintf(&b, "- **ARTICLE-URL:** %s\n\n", rec.URL)
		fmt.Fprintf(&b, "**Content:**\n%s\n\n---\n", rec.Body)
	}
	return b.String()
}

// FormatForum renders forum posts grouped under one heading.
func FormatForum(records []*types.Record) string {
	if len(records) == 0 {
		return EmptyMessage("Reddit")
	}

	subs := make(map[string]bool)
	for _, rec := range records {
		subs[rec.Get(types.ExtraSubreddit)] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Reddit Posts from %d Subreddits\n", len(subs))
	for i, rec := range records {
		fmt.Fprintf(&b, "\n## %d. r/%s: %s\n", i+1, rec.Get(types.ExtraSubreddit), rec.Title)
		fmt.Fprintf(&b, "- **Author:** u/%s\n", rec.Author)
		fmt.Fprintf(&b, "- **Score:** %s | **Comments:** %s\n",
			rec.GetOr(types.ExtraScore, "?"), rec.GetOr(types.ExtraComments, "0 comments"))
		fmt.Fprintf(&b, "- **Link:** %s\n", rec.URL)
	}
	return b.String()
}

// FormatFeed renders social feed posts.
func FormatFeed(records []*types.Record) string {
	if len(records) == 0 {
		return EmptyMessage("LinkedIn")
	}

	var b strings.Builder
	b.WriteString("# LinkedIn Feed Posts\n\n")
	b.WriteString("IMPORTANT: use the post URLs as source links in your summary!\n")
	for i, rec := range records {
		fmt.Fprintf(&b, "\n## Post #%d: %s\n", i+1, rec.Author)
		fmt.Fprintf(&b, "- **Position:** %s\n", rec.Get(types.ExtraHeadline))
		fmt.Fprintf(&b, "- **Time:** %s\n", rec.Get(types.ExtraTimeAgo))
		fmt.Fprintf(&b, "- **Reactions:** %s | **Comments:** %s\n",
			rec.GetOr(types.ExtraReactions, "0"), rec.GetOr(types.ExtraComments, "0"))
		fmt.Fprintf(&b, "- **POST-URL:** %s\n\n", rec.URL)
		fmt.Fprintf(&b, "**Content:**\n%s\n\n---\n", rec.Body)
	}
	return b.String()
}
