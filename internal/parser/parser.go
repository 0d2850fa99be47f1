// Package parser turns rendered HTML into links and Records.
//
// Every function here is pure: it works on an already parsed document and
// never touches the network, so the page loading and settle timing stay in
// the source scrapers.
package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Parse builds a queryable document from rendered HTML.
func Parse(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// NormalizeSpace collapses every run of whitespace to a single space.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FirstLine returns the first non-blank line of s, trimmed.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
