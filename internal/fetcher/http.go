package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/briefbot/internal/types"
)

// maxBodySize caps a single static page.
const maxBodySize = 10 * 1024 * 1024

const defaultHTTPUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// HTTPBrowser implements Browser with plain HTTP requests. It serves sites
// whose listing and article markup is present without running scripts.
// Pages cannot click or type.
type HTTPBrowser struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// OpenHTTP is an Opener backed by HTTPBrowser.
func OpenHTTP(logger *slog.Logger) Opener {
	return func(_ context.Context, opts LaunchOptions) (Browser, error) {
		return NewHTTPBrowser(opts, logger)
	}
}

// NewHTTPBrowser creates a new HTTP-backed browser.
func NewHTTPBrowser(opts LaunchOptions, logger *slog.Logger) (*HTTPBrowser, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // decompression incl. brotli happens in decompressReader
	}
	if opts.Proxy != nil && opts.Proxy.Count() > 0 {
		transport.Proxy = opts.Proxy.ProxyFunc()
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = defaultHTTPUserAgent
	}

	return &HTTPBrowser{
		client: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   opts.Timeout,
		},
		userAgent: ua,
		logger:    logger.With("component", "http_browser"),
	}, nil
}

// NewPage opens an empty page.
func (b *HTTPBrowser) NewPage(_ context.Context) (Page, error) {
	return &httpPage{browser: b}, nil
}

// Close releases idle connections.
func (b *HTTPBrowser) Close() error {
	b.client.CloseIdleConnections()
	return nil
}

// Type returns the browser type identifier.
func (b *HTTPBrowser) Type() string {
	return "http"
}

// fetch executes a GET and returns the decoded body and final URL.
func (b *HTTPBrowser) fetch(ctx context.Context, rawURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", &types.FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", b.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	start := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		return "", "", &types.FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", "", &types.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	reader, err := decompressReader(resp, io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", "", &types.FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", "", &types.FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}

	b.logger.Debug("fetch complete",
		"url", rawURL,
		"status", resp.StatusCode,
		"size", len(body),
		"duration", time.Since(start),
	)
	return string(body), resp.Request.URL.String(), nil
}

// decompressReader wraps a reader with the appropriate decompressor.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

// httpPage holds the last fetched document.
type httpPage struct {
	browser *HTTPBrowser

	mu   sync.Mutex
	html string
	url  string
}

func (p *httpPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	html, finalURL, err := p.browser.fetch(ctx, url)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.html, p.url = html, finalURL
	p.mu.Unlock()
	return nil
}

func (p *httpPage) HTML(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html, nil
}

func (p *httpPage) URL(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

// WaitElement checks the fetched document once; static pages never change.
func (p *httpPage) WaitElement(_ context.Context, selector string, _ time.Duration) error {
	p.mu.Lock()
	html := p.html
	p.mu.Unlock()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return fmt.Errorf("wait for %s: no match", selector)
	}
	return nil
}

func (p *httpPage) Fill(context.Context, string, string) error { return ErrUnsupported }

func (p *httpPage) Click(context.Context, string) error { return ErrUnsupported }

func (p *httpPage) ClickText(context.Context, string, string, time.Duration) error {
	return ErrUnsupported
}

func (p *httpPage) ScrollBy(context.Context, int) error { return nil }

func (p *httpPage) Close() error { return nil }
