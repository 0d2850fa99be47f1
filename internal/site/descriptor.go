// Package site holds the declarative descriptions of the scraped sources.
//
// A Descriptor is plain data: a listing address plus selector chains for
// link discovery, title, author and body. Adding a new news site means adding
// a Descriptor, never new scraping code.
package site

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/xpath"
)

// XPathPrefix marks a SelectorChain entry as an XPath expression.
const XPathPrefix = "xpath:"

// Extraction defaults shared by most news sites.
const (
	DefaultMinFragmentLength = 30
	DefaultMaxFragments      = 12
	DefaultMaxBodyLength     = 2000
	DefaultSettleDelay       = 1 * time.Second
	DefaultListingSettle     = 2 * time.Second

	// MaxAuthorLength rejects author matches that are really whole blocks of text.
	MaxAuthorLength = 100
)

// SelectorChain is an ordered list of alternative queries for one field.
// The first entry that matches at least one element wins; later entries are
// not consulted.
type SelectorChain []string

// Chain builds a SelectorChain from its entries.
func Chain(entries ...string) SelectorChain {
	return SelectorChain(entries)
}

// String renders the chain for logs.
func (c SelectorChain) String() string {
	return strings.Join(c, " | ")
}

// Compile checks that every entry parses as CSS or, with XPathPrefix, as XPath.
func (c SelectorChain) Compile() error {
	for _, entry := range c {
		if expr, ok := strings.CutPrefix(entry, XPathPrefix); ok {
			if _, err := xpath.Compile(expr); err != nil {
				return fmt.Errorf("xpath %q: %w", expr, err)
			}
			continue
		}
		if _, err := cascadia.ParseGroup(entry); err != nil {
			return fmt.Errorf("css %q: %w", entry, err)
		}
	}
	return nil
}

// IsEmpty reports whether the chain has no entries.
func (c SelectorChain) IsEmpty() bool {
	return len(c) == 0
}

// Descriptor specifies how to scrape one descriptor-driven source.
type Descriptor struct {
	Key         string
	DisplayName string
	ListingURL  string

	LinkSelector     SelectorChain
	TitleSelector    SelectorChain
	AuthorSelector   SelectorChain
	ContentSelector  SelectorChain
	CategorySelector SelectorChain

	// DefaultCategory is used when CategorySelector matches nothing.
	DefaultCategory string

	// ExcludePatterns rejects any discovered URL containing one of them.
	ExcludePatterns []string

	// SameSite keeps only links on the listing host or one of its
	// subdomains. A leading "www." of the listing host is ignored.
	SameSite bool

	// SettleDelay is waited after each detail page reaches DOM readiness.
	SettleDelay time.Duration
	// ListingSettleDelay is waited after the listing page loads.
	ListingSettleDelay time.Duration

	MinFragmentLength int
	MaxFragments      int
	MaxBodyLength     int
}

// Origin returns scheme://host of the listing URL.
func (d Descriptor) Origin() *url.URL {
	u, err := url.Parse(d.ListingURL)
	if err != nil {
		return &url.URL{}
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}
}

// Excluded reports whether rawURL contains one of the exclude patterns.
func (d Descriptor) Excluded(rawURL string) bool {
	for _, p := range d.ExcludePatterns {
		if p != "" && strings.Contains(rawURL, p) {
			return true
		}
	}
	return false
}

// OnSite reports whether rawURL belongs to the listing's site. It always
// holds when SameSite is off.
func (d Descriptor) OnSite(rawURL string) bool {
	if !d.SameSite {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	site := strings.TrimPrefix(strings.ToLower(d.Origin().Hostname()), "www.")
	host := strings.ToLower(u.Hostname())
	return site != "" && (host == site || strings.HasSuffix(host, "."+site))
}

// withDefaults fills zero-valued tuning fields.
func (d Descriptor) withDefaults() Descriptor {
	if d.SettleDelay == 0 {
		d.SettleDelay = DefaultSettleDelay
	}
	if d.ListingSettleDelay == 0 {
		d.ListingSettleDelay = DefaultListingSettle
	}
	if d.MinFragmentLength == 0 {
		d.MinFragmentLength = DefaultMinFragmentLength
	}
	if d.MaxFragments == 0 {
		d.MaxFragments = DefaultMaxFragments
	}
	if d.MaxBodyLength == 0 {
		d.MaxBodyLength = DefaultMaxBodyLength
	}
	return d
}

// Validate checks the invariants every registered descriptor must hold.
func (d Descriptor) Validate() error {
	if d.Key == "" {
		return fmt.Errorf("descriptor has no key")
	}
	if d.DisplayName == "" {
		return fmt.Errorf("descriptor %q has no display name", d.Key)
	}
	u, err := url.Parse(d.ListingURL)
	if err != nil {
		return fmt.Errorf("descriptor %q: invalid listing URL: %w", d.Key, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("descriptor %q: listing URL %q is not absolute", d.Key, d.ListingURL)
	}
	if d.LinkSelector.IsEmpty() || d.TitleSelector.IsEmpty() || d.ContentSelector.IsEmpty() {
		return fmt.Errorf("descriptor %q: link, title and content selectors are required", d.Key)
	}
	for name, chain := range map[string]SelectorChain{
		"links":    d.LinkSelector,
		"title":    d.TitleSelector,
		"author":   d.AuthorSelector,
		"content":  d.ContentSelector,
		"category": d.CategorySelector,
	} {
		if err := chain.Compile(); err != nil {
			return fmt.Errorf("descriptor %q: %s selector: %w", d.Key, name, err)
		}
	}
	return nil
}

// clone copies the slices so callers cannot mutate registry state.
func (d Descriptor) clone() Descriptor {
	d.LinkSelector = append(SelectorChain(nil), d.LinkSelector...)
	d.TitleSelector = append(SelectorChain(nil), d.TitleSelector...)
	d.AuthorSelector = append(SelectorChain(nil), d.AuthorSelector...)
	d.ContentSelector = append(SelectorChain(nil), d.ContentSelector...)
	d.CategorySelector = append(SelectorChain(nil), d.CategorySelector...)
	d.ExcludePatterns = append([]string(nil), d.ExcludePatterns...)
	return d
}
