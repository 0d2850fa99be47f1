package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/briefbot/internal/site"
)

// DiscoverLinks collects up to maxLinks article URLs from a listing page.
//
// Hrefs are read from the elements matched by the descriptor's link chain in
// document order, resolved against the site origin and stripped of their
// fragment. Duplicates (exact match on the absolute form), excluded URLs,
// off-site URLs of same-site descriptors and the listing page itself are
// skipped.
func DiscoverLinks(d site.Descriptor, doc *goquery.Document, maxLinks int) []string {
	if maxLinks <= 0 || doc == nil {
		return nil
	}

	base, err := url.Parse(d.ListingURL)
	if err != nil {
		return nil
	}
	listing := strings.TrimRight(d.ListingURL, "/")

	seen := make(map[string]bool)
	var links []string

	Select(doc.Selection, d.LinkSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		abs, ok := resolveHref(base, href)
		if !ok || seen[abs] {
			return true
		}
		if d.Excluded(abs) || !d.OnSite(abs) || strings.TrimRight(abs, "/") == listing {
			return true
		}
		seen[abs] = true
		links = append(links, abs)
		return len(links) < maxLinks
	})

	return links
}

// resolveHref turns an href into an absolute http(s) URL without fragment.
func resolveHref(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" ||
		strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	resolved.Fragment = ""
	return resolved.String(), true
}
