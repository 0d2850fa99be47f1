package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/briefbot/internal/site"
	"github.com/IshaanNene/briefbot/internal/types"
)

const listingHTML = `<!DOCTYPE html>
<html><body>
  <nav><a href="/about">About</a></nav>
  <main>
    <a class="story" href="/a/1">One</a>
    <a class="story" href="/tag/ai">Tag</a>
    <a class="story" href="/a/2#comments">Two</a>
    <a class="story" href="/a/1">One again</a>
    <a class="story" href="javascript:void(0)">JS</a>
    <a class="story" href="">Empty</a>
  </main>
</body></html>`

const articleHTML = `<!DOCTYPE html>
<html><body>
  <h1>
     Robots   learn
     to read
  </h1>
  <span class="byline">Jane Doe</span>
  <a class="category" href="/category/ai"><span>Machine Learning</span></a>
  <article>
    <p>This paragraph is long enough to be kept by the extractor.</p>
    <p>short</p>
    <p>A second paragraph that also clears the fragment threshold.</p>
  </article>
  <div class="fallback"><p>This fallback paragraph should never be merged in.</p></div>
</body></html>`

func testDescriptor() site.Descriptor {
	return site.Descriptor{
		Key:               "example",
		DisplayName:       "Example News",
		ListingURL:        "https://news.example.com/latest",
		LinkSelector:      site.Chain("a.story"),
		TitleSelector:     site.Chain("h1"),
		AuthorSelector:    site.Chain(".byline"),
		ContentSelector:   site.Chain("article p", ".fallback p"),
		CategorySelector:  site.Chain("a[href*='/category/'] span"),
		ExcludePatterns:   []string{"/tag/"},
		MinFragmentLength: 30,
		MaxFragments:      12,
		MaxBodyLength:     2000,
	}
}

func mustParse(t testing.TB, html string) *goquery.Document {
	t.Helper()
	doc, err := Parse(html)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

// --- Link discovery ---

func TestDiscoverLinksDedupAndExclude(t *testing.T) {
	doc := mustParse(t, listingHTML)
	links := DiscoverLinks(testDescriptor(), doc, 5)

	want := []string{
		"https://news.example.com/a/1",
		"https://news.example.com/a/2",
	}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %d: %v", len(want), len(links), links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("link %d: expected %q, got %q", i, want[i], links[i])
		}
	}
}

func TestDiscoverLinksBound(t *testing.T) {
	doc := mustParse(t, listingHTML)

	if links := DiscoverLinks(testDescriptor(), doc, 1); len(links) != 1 {
		t.Errorf("expected 1 link, got %v", links)
	}
	if links := DiscoverLinks(testDescriptor(), doc, 0); len(links) != 0 {
		t.Errorf("expected no links for zero budget, got %v", links)
	}
}

func TestDiscoverLinksSkipsListingItself(t *testing.T) {
	d := testDescriptor()
	d.ListingURL = "https://news.example.com/newsletter"
	d.LinkSelector = site.Chain("a[href^='/newsletter']")
	doc := mustParse(t, `<a href="/newsletter">Index</a><a href="/newsletter/">Index</a><a href="/newsletter/issue-9">Issue</a>`)

	links := DiscoverLinks(d, doc, 10)
	if len(links) != 1 || links[0] != "https://news.example.com/newsletter/issue-9" {
		t.Errorf("unexpected links: %v", links)
	}
}

func TestDiscoverLinksSameSite(t *testing.T) {
	d := testDescriptor()
	d.ListingURL = "https://www.futurism.com/category/ai"
	d.LinkSelector = site.Chain("article a")
	d.SameSite = true
	doc := mustParse(t, `<article>
  <a href="/the-byte/robot-chef">Story</a>
  <a href="https://twitter.com/futurism">Follow</a>
  <a href="https://sponsor.example.net/futurism.com/deal">Partner</a>
  <a href="https://shop.futurism.com/item">Shop</a>
</article>`)

	links := DiscoverLinks(d, doc, 10)
	want := []string{"https://www.futurism.com/the-byte/robot-chef", "https://shop.futurism.com/item"}
	if len(links) != len(want) {
		t.Fatalf("expected %v, got %v", want, links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("link %d: expected %q, got %q", i, want[i], links[i])
		}
	}

	d.SameSite = false
	if links := DiscoverLinks(d, doc, 10); len(links) != 4 {
		t.Errorf("expected off-site links without SameSite, got %v", links)
	}
}

func TestDiscoverLinksNoMatch(t *testing.T) {
	d := testDescriptor()
	d.LinkSelector = site.Chain("a.missing")
	if links := DiscoverLinks(d, mustParse(t, listingHTML), 5); len(links) != 0 {
		t.Errorf("expected empty result, got %v", links)
	}
}

// --- Selector chains ---

func TestSelectFirstMatchingEntryWins(t *testing.T) {
	doc := mustParse(t, articleHTML)

	got := SelectTexts(doc.Selection, site.Chain("section p", "article p", ".fallback p"))
	if len(got) != 3 {
		t.Fatalf("expected the 3 article paragraphs only, got %d: %v", len(got), got)
	}
	for _, text := range got {
		if strings.Contains(text, "fallback") {
			t.Errorf("later chain entry leaked into the result: %q", text)
		}
	}
}

func TestSelectXPathEntry(t *testing.T) {
	doc := mustParse(t, articleHTML)

	got := SelectText(doc.Selection, site.Chain("h2", "xpath://span[@class='byline']"))
	if got != "Jane Doe" {
		t.Errorf("expected 'Jane Doe', got %q", got)
	}

	if n := Select(doc.Selection, site.Chain("xpath://article/p")).Length(); n != 3 {
		t.Errorf("expected 3 xpath matches, got %d", n)
	}
	if n := Select(doc.Selection, site.Chain("xpath://p[")).Length(); n != 0 {
		t.Errorf("invalid xpath should match nothing, got %d", n)
	}
}

func TestSelectScopedToSubtree(t *testing.T) {
	doc := mustParse(t, articleHTML)
	article := doc.Find("article")

	if n := Select(article, site.Chain("xpath://p")).Length(); n != 3 {
		t.Errorf("expected xpath scoped to article (3), got %d", n)
	}
}

// --- Article extraction ---

func TestExtractArticle(t *testing.T) {
	doc := mustParse(t, articleHTML)
	rec, err := ExtractArticle(testDescriptor(), doc, "https://news.example.com/a/1")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if rec.Title != "Robots learn to read" {
		t.Errorf("title not normalized: %q", rec.Title)
	}
	if rec.Author != "Jane Doe" {
		t.Errorf("expected author 'Jane Doe', got %q", rec.Author)
	}
	if rec.Source != "Example News" {
		t.Errorf("expected source display name, got %q", rec.Source)
	}
	want := "This paragraph is long enough to be kept by the extractor.\n\n" +
		"A second paragraph that also clears the fragment threshold."
	if rec.Body != want {
		t.Errorf("unexpected body:\n%q", rec.Body)
	}
	if got := rec.Get(types.ExtraCategory); got != "Machine Learning" {
		t.Errorf("expected category, got %q", got)
	}
}

func TestExtractArticleMissingBody(t *testing.T) {
	d := testDescriptor()
	d.ContentSelector = site.Chain(".does-not-exist p")
	doc := mustParse(t, articleHTML)

	rec, err := ExtractArticle(d, doc, "https://news.example.com/a/1")
	if rec != nil {
		t.Fatalf("expected no record, got %+v", rec)
	}
	var pe *types.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if !errors.Is(err, types.ErrEmptyBody) {
		t.Errorf("expected ErrEmptyBody, got %v", err)
	}
}

func TestExtractArticleMissingTitle(t *testing.T) {
	doc := mustParse(t, `<article><p>Plenty of body text but no heading anywhere on the page.</p></article>`)
	_, err := ExtractArticle(testDescriptor(), doc, "https://news.example.com/a/3")
	if !errors.Is(err, types.ErrNoTitle) {
		t.Errorf("expected ErrNoTitle, got %v", err)
	}
}

func TestExtractArticleAuthorFallback(t *testing.T) {
	long := strings.Repeat("x", 150)
	doc := mustParse(t, `<h1>T</h1><span class="byline">`+long+`</span><article><p>`+strings.Repeat("word ", 10)+`</p></article>`)

	rec, err := ExtractArticle(testDescriptor(), doc, "https://news.example.com/a/4")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec.Author != "Example News" {
		t.Errorf("expected display name fallback, got %q", rec.Author)
	}
}

func TestBodyLimits(t *testing.T) {
	var b strings.Builder
	b.WriteString("<article>")
	for i := 0; i < 20; i++ {
		b.WriteString("<p>" + strings.Repeat("abcdefghij", 5) + "</p>")
	}
	b.WriteString("</article>")
	doc := mustParse(t, b.String())

	d := testDescriptor()
	d.MaxFragments = 3
	d.MaxBodyLength = 1000
	body := Body(doc.Selection, d)
	if n := strings.Count(body, "\n\n"); n != 2 {
		t.Errorf("expected 3 fragments, got %d separators", n)
	}

	d.MaxFragments = 20
	d.MaxBodyLength = 120
	if body := Body(doc.Selection, d); len([]rune(body)) != 120 {
		t.Errorf("expected body capped at 120 runes, got %d", len([]rune(body)))
	}
}

func TestCategoryDefault(t *testing.T) {
	d := testDescriptor()
	d.CategorySelector = site.Chain(".nothing")
	d.DefaultCategory = "AI"
	if got := Category(mustParse(t, articleHTML).Selection, d); got != "AI" {
		t.Errorf("expected default category, got %q", got)
	}
}

// --- Feed and forum listings ---

const feedHTML = `<main>
  <div class="feed-shared-update-v2" data-urn="urn:li:activity:111">
    <span class="update-components-actor__name"><span aria-hidden="true">Ada Lovelace</span></span>
    <span class="update-components-actor__description">Engineer at Analytical Engines
      Former mathematician</span>
    <span class="update-components-actor__sub-description">2h • Edited</span>
    <div class="feed-shared-update-v2__description">Shipping the difference engine today.</div>
    <span class="social-details-social-counts__reactions-count">42</span>
    <button aria-label="7 comments on Ada's post">7 comments</button>
  </div>
  <div class="feed-shared-update-v2" data-urn="urn:li:activity:222">
    <span class="update-components-actor__name"><span aria-hidden="true">No Body</span></span>
  </div>
  <div class="feed-shared-update-v2">
    <span class="break-words">Post without urn and without author.</span>
  </div>
</main>`

func TestParseFeed(t *testing.T) {
	records, skipped := ParseFeed(mustParse(t, feedHTML), 10)
	if skipped != 1 {
		t.Errorf("expected 1 skipped item, got %d", skipped)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Author != "Ada Lovelace" || first.Title != "Ada Lovelace" {
		t.Errorf("unexpected author/title: %q / %q", first.Author, first.Title)
	}
	if first.URL != "https://www.linkedin.com/feed/update/urn:li:activity:111/" {
		t.Errorf("unexpected url %q", first.URL)
	}
	if got := first.Get(types.ExtraHeadline); got != "Engineer at Analytical Engines" {
		t.Errorf("unexpected headline %q", got)
	}
	if got := first.Get(types.ExtraTimeAgo); got != "2h" {
		t.Errorf("unexpected time %q", got)
	}
	if first.Get(types.ExtraReactions) != "42" || first.Get(types.ExtraComments) != "7 comments" {
		t.Errorf("unexpected counts: %v", first.Extra)
	}

	second := records[1]
	if second.Author != "Unknown" || second.URL != FeedURL {
		t.Errorf("unexpected defaults: %q %q", second.Author, second.URL)
	}
	if second.Get(types.ExtraReactions) != "0" {
		t.Errorf("expected reactions default 0, got %q", second.Get(types.ExtraReactions))
	}
}

func TestParseFeedBudget(t *testing.T) {
	records, _ := ParseFeed(mustParse(t, feedHTML), 1)
	if len(records) != 1 {
		t.Errorf("expected 1 record, got %d", len(records))
	}
}

const forumHTML = `<div id="siteTable">
  <div class="thing link">
    <div class="score unvoted" title="128">128</div>
    <a class="title" href="/r/golang/comments/abc/generics_are_here/">Generics are here</a>
    <a class="author">gopher</a>
    <time title="Tue Oct 13 2026">3 hours ago</time>
    <a class="comments">14 comments</a>
  </div>
  <div class="thing link">
    <a class="title" href="https://example.com/outside">External link post</a>
  </div>
  <div class="thing link"><a class="title" href="/r/golang/x"></a></div>
</div>`

func TestParseForumListing(t *testing.T) {
	records := ParseForumListing(mustParse(t, forumHTML), "golang", 10)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.URL != "https://old.reddit.com/r/golang/comments/abc/generics_are_here/" {
		t.Errorf("relative link not resolved: %q", first.URL)
	}
	if first.Author != "gopher" || first.Get(types.ExtraScore) != "128" {
		t.Errorf("unexpected fields: %+v", first)
	}
	if first.Get(types.ExtraTimeAgo) != "Tue Oct 13 2026" {
		t.Errorf("unexpected time %q", first.Get(types.ExtraTimeAgo))
	}

	second := records[1]
	if second.Author != "[deleted]" || second.Get(types.ExtraScore) != "?" || second.Get(types.ExtraComments) != "0 comments" {
		t.Errorf("defaults not applied: %+v", second)
	}
	if second.Get(types.ExtraSubreddit) != "golang" {
		t.Errorf("subreddit missing")
	}
}

func TestForumListingURL(t *testing.T) {
	if got := ForumListingURL("ClaudeAI"); got != "https://old.reddit.com/r/ClaudeAI/new/" {
		t.Errorf("unexpected url %q", got)
	}
}

// --- Benchmarks ---

func BenchmarkDiscoverLinks(b *testing.B) {
	doc := mustParse(b, listingHTML)
	d := testDescriptor()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DiscoverLinks(d, doc, 10)
	}
}

func BenchmarkExtractArticle(b *testing.B) {
	doc := mustParse(b, articleHTML)
	d := testDescriptor()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ExtractArticle(d, doc, "https://news.example.com/a/1")
	}
}

// --- Page metadata ---

const metadataHTML = `<html><head>
  <link rel="canonical" href="https://news.example.com/a/1">
  <meta property="og:title" content="OG headline">
  <meta name="author" content="Meta Author">
  <meta name="description" content="Meta description">
  <script type="application/ld+json">{"@context":"https://schema.org","@graph":[
    {"@type":"WebPage","name":"page"},
    {"@type":"NewsArticle","headline":"LD headline","datePublished":"2026-03-02T07:00:00Z",
     "author":[{"@type":"Person","name":"Ada"},{"@type":"Person","name":"Grace"}]}
  ]}</script>
  <script type="application/ld+json">{ not json</script>
</head><body><h1>Title</h1></body></html>`

func TestPageMetadataPrefersJSONLD(t *testing.T) {
	m := PageMetadata(mustParse(t, metadataHTML))

	if m.Headline != "LD headline" {
		t.Errorf("expected JSON-LD headline, got %q", m.Headline)
	}
	if m.Author != "Ada, Grace" {
		t.Errorf("expected joined authors, got %q", m.Author)
	}
	if m.Published != "2026-03-02T07:00:00Z" {
		t.Errorf("unexpected published %q", m.Published)
	}
	if m.Description != "Meta description" {
		t.Errorf("expected meta description fallback, got %q", m.Description)
	}
	if m.Canonical != "https://news.example.com/a/1" {
		t.Errorf("unexpected canonical %q", m.Canonical)
	}
}

func TestPageMetadataMetaOnly(t *testing.T) {
	m := PageMetadata(mustParse(t, `<html><head>
  <meta property="og:title" content="OG headline">
  <meta property="article:published_time" content="2026-01-05">
  <meta property="og:url" content="https://news.example.com/a/9">
</head></html>`))

	if m.Headline != "OG headline" || m.Published != "2026-01-05" || m.Canonical != "https://news.example.com/a/9" {
		t.Errorf("unexpected metadata %+v", m)
	}
	if m.Author != "" {
		t.Errorf("expected no author, got %q", m.Author)
	}
}

func TestExtractArticleStructuredExtras(t *testing.T) {
	html := strings.Replace(articleHTML, "<html>",
		`<html><head><meta property="article:published_time" content="2026-03-02">`+
			`<link rel="canonical" href="https://news.example.com/a/1?amp=1"></head>`, 1)
	rec, err := ExtractArticle(testDescriptor(), mustParse(t, html), "https://news.example.com/a/1")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got := rec.Get(types.ExtraPublished); got != "2026-03-02" {
		t.Errorf("expected published extra, got %q", got)
	}
	if got := rec.Get(types.ExtraCanonical); got != "https://news.example.com/a/1?amp=1" {
		t.Errorf("expected canonical extra, got %q", got)
	}
	if rec.Author != "Jane Doe" {
		t.Errorf("author chain must win, got %q", rec.Author)
	}
}
