// Package fetcher loads pages for the scrapers.
//
// Two Browser implementations exist: RodBrowser drives a real Chromium
// through the DevTools protocol and HTTPBrowser fetches static HTML over
// net/http. Scrapers only see the Browser and Page interfaces.
package fetcher

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupported is returned by pages that cannot perform an interaction.
var ErrUnsupported = errors.New("operation not supported by this browser")

// Browser opens pages. Implementations must allow concurrent NewPage calls.
type Browser interface {
	// NewPage opens a blank tab.
	NewPage(ctx context.Context) (Page, error)

	// Close releases the browser. Persistent profiles stay on disk.
	Close() error

	// Type returns the browser type identifier.
	Type() string
}

// Page is a single tab.
type Page interface {
	// Navigate loads url and returns once the DOM content is loaded or the
	// timeout elapses.
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	// HTML returns the rendered document.
	HTML(ctx context.Context) (string, error)

	// URL returns the current address, after redirects.
	URL(ctx context.Context) (string, error)

	// WaitElement blocks until selector matches or timeout elapses.
	WaitElement(ctx context.Context, selector string, timeout time.Duration) error

	// Fill replaces the value of the input matched by selector.
	Fill(ctx context.Context, selector, text string) error

	// Click clicks the first element matched by selector.
	Click(ctx context.Context, selector string) error

	// ClickText clicks the first element matching selector whose text
	// matches the regular expression pattern.
	ClickText(ctx context.Context, selector, pattern string, timeout time.Duration) error

	// ScrollBy scrolls the viewport vertically by dy pixels.
	ScrollBy(ctx context.Context, dy int) error

	Close() error
}

// Opener launches a Browser. Scrapers take one so tests can swap in fakes.
type Opener func(ctx context.Context, opts LaunchOptions) (Browser, error)

// LaunchOptions configures a browser launch.
type LaunchOptions struct {
	Headless bool

	// UserDataDir is a persistent profile directory. Empty means a
	// throwaway profile.
	UserDataDir string

	// Stealth applies anti-detection patches to every page.
	Stealth *StealthConfig

	UserAgent string
	Proxy     *ProxyManager

	// Timeout bounds plain HTTP requests.
	Timeout time.Duration
}
