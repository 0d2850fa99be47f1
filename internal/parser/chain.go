package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/briefbot/internal/site"
)

// Select evaluates chain against the subtree rooted at sel and returns the
// matches of the first entry that matches at least one element. Later
// entries are never consulted once one matches. An empty selection is
// returned when nothing matches.
func Select(sel *goquery.Selection, chain site.SelectorChain) *goquery.Selection {
	for _, entry := range chain {
		if m := selectEntry(sel, entry); m.Length() > 0 {
			return m
		}
	}
	return sel.FilterNodes()
}

// selectEntry runs one chain entry, CSS by default or XPath with the prefix.
func selectEntry(sel *goquery.Selection, entry string) *goquery.Selection {
	expr, isXPath := strings.CutPrefix(entry, site.XPathPrefix)
	if !isXPath {
		return sel.Find(entry)
	}

	var found []*html.Node
	seen := make(map[*html.Node]bool)
	for _, root := range sel.Nodes {
		nodes, err := htmlquery.QueryAll(root, expr)
		if err != nil {
			return sel.FilterNodes()
		}
		for _, n := range nodes {
			if n != root && !seen[n] {
				seen[n] = true
				found = append(found, n)
			}
		}
	}
	return sel.FindNodes(found...)
}

// SelectText returns the whitespace-normalized text of the first element
// matched by chain, or "" when nothing matches.
func SelectText(sel *goquery.Selection, chain site.SelectorChain) string {
	return NormalizeSpace(Select(sel, chain).First().Text())
}

// SelectAttr returns attr of the first element matched by chain.
func SelectAttr(sel *goquery.Selection, chain site.SelectorChain, attr string) (string, bool) {
	return Select(sel, chain).First().Attr(attr)
}

// SelectTexts returns the normalized text of every element matched by chain.
func SelectTexts(sel *goquery.Selection, chain site.SelectorChain) []string {
	var out []string
	Select(sel, chain).Each(func(_ int, s *goquery.Selection) {
		out = append(out, NormalizeSpace(s.Text()))
	})
	return out
}
