package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/briefbot/internal/types"
)

// elementTimeout bounds element lookups for interactions.
const elementTimeout = 10 * time.Second

// RodBrowser implements Browser using Chromium via Rod.
type RodBrowser struct {
	browser  *rod.Browser
	opts     LaunchOptions
	proxyURL *url.URL
	logger   *slog.Logger
}

// OpenRod is an Opener backed by RodBrowser.
func OpenRod(logger *slog.Logger) Opener {
	return func(ctx context.Context, opts LaunchOptions) (Browser, error) {
		return NewRodBrowser(ctx, opts, logger)
	}
}

// NewRodBrowser launches Chromium and connects to it.
func NewRodBrowser(ctx context.Context, opts LaunchOptions, logger *slog.Logger) (*RodBrowser, error) {
	rb := &RodBrowser{
		opts:   opts,
		logger: logger.With("component", "rod_browser"),
	}

	if opts.UserDataDir != "" {
		if err := os.MkdirAll(opts.UserDataDir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: profile dir: %v", types.ErrBrowserLaunch, err)
		}
	}

	controlURL, err := rb.launch()
	if err != nil {
		if rb.proxyURL != nil {
			opts.Proxy.MarkFailed(rb.proxyURL, err)
		}
		return nil, fmt.Errorf("%w: %v", types.ErrBrowserLaunch, err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: connect: %v", types.ErrBrowserLaunch, err)
	}
	rb.browser = browser

	rb.logger.Info("browser ready",
		"headless", opts.Headless,
		"profile", opts.UserDataDir,
		"stealth", opts.Stealth != nil,
	)
	return rb, nil
}

// launch starts a Chromium instance with appropriate flags.
func (rb *RodBrowser) launch() (string, error) {
	l := launcher.New().
		Headless(rb.opts.Headless).
		Set("disable-gpu").
		Set("no-sandbox").
		Set("disable-setuid-sandbox")

	if rb.opts.UserDataDir != "" {
		l = l.UserDataDir(rb.opts.UserDataDir)
	}

	if rb.opts.Proxy != nil {
		if proxyURL := rb.opts.Proxy.Next(); proxyURL != nil {
			rb.proxyURL = proxyURL
			l = l.Proxy(proxyURL.String())
		}
	}

	if sc := rb.opts.Stealth; sc != nil {
		if ws := sc.WindowSize(); ws != "" {
			l = l.Set("window-size", ws)
		}
		for name, value := range sc.ExtraFlags {
			if value == "" {
				l = l.Set(flags.Flag(name))
			} else {
				l = l.Set(flags.Flag(name), value)
			}
		}
	}

	return l.Launch()
}

// NewPage opens a blank tab, stealth-patched when configured.
func (rb *RodBrowser) NewPage(ctx context.Context) (Page, error) {
	var (
		page *rod.Page
		err  error
	)
	if rb.opts.Stealth != nil {
		page, err = stealth.Page(rb.browser)
	} else {
		page, err = rb.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	ua := rb.opts.UserAgent
	if sc := rb.opts.Stealth; sc != nil {
		if sc.UserAgent != "" {
			ua = sc.UserAgent
		}
		rb.emulate(page, sc)
	}
	if ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			rb.logger.Warn("failed to set user agent", "error", err)
		}
	}

	return &rodPage{page: page, logger: rb.logger}, nil
}

// emulate applies viewport, locale and timezone overrides. Failures are
// logged; the page is still usable.
func (rb *RodBrowser) emulate(page *rod.Page, sc *StealthConfig) {
	if sc.ViewportWidth > 0 && sc.ViewportHeight > 0 {
		err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             sc.ViewportWidth,
			Height:            sc.ViewportHeight,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			rb.logger.Warn("failed to set viewport", "error", err)
		}
	}
	if sc.Locale != "" {
		if err := (proto.EmulationSetLocaleOverride{Locale: sc.Locale}).Call(page); err != nil {
			rb.logger.Warn("failed to set locale", "locale", sc.Locale, "error", err)
		}
	}
	if sc.Timezone != "" {
		if err := (proto.EmulationSetTimezoneOverride{TimezoneID: sc.Timezone}).Call(page); err != nil {
			rb.logger.Warn("failed to set timezone", "timezone", sc.Timezone, "error", err)
		}
	}
}

// Close shuts the browser down. The profile directory is left in place.
func (rb *RodBrowser) Close() error {
	if rb.browser == nil {
		return nil
	}
	return rb.browser.Close()
}

// Type returns the browser type identifier.
func (rb *RodBrowser) Type() string {
	return "browser"
}

// rodPage adapts a *rod.Page to Page.
type rodPage struct {
	page   *rod.Page
	logger *slog.Logger
}

func (p *rodPage) Navigate(ctx context.Context, rawURL string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page := p.page.Context(navCtx)
	wait := page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := page.Navigate(rawURL); err != nil {
		return &types.FetchError{URL: rawURL, Err: err}
	}
	wait()

	if err := navCtx.Err(); err != nil {
		return &types.FetchError{URL: rawURL, Err: err}
	}
	return nil
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

func (p *rodPage) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (p *rodPage) WaitElement(ctx context.Context, selector string, timeout time.Duration) error {
	_, err := p.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return nil
}

func (p *rodPage) Fill(ctx context.Context, selector, text string) error {
	el, err := p.page.Context(ctx).Timeout(elementTimeout).Element(selector)
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("select %s: %w", selector, err)
	}
	return el.Input(text)
}

func (p *rodPage) Click(ctx context.Context, selector string) error {
	el, err := p.page.Context(ctx).Timeout(elementTimeout).Element(selector)
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *rodPage) ClickText(ctx context.Context, selector, pattern string, timeout time.Duration) error {
	el, err := p.page.Context(ctx).Timeout(timeout).ElementR(selector, pattern)
	if err != nil {
		return fmt.Errorf("element not found: %s /%s/: %w", selector, pattern, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *rodPage) ScrollBy(ctx context.Context, dy int) error {
	_, err := p.page.Context(ctx).Eval(fmt.Sprintf(`() => window.scrollBy(0, %d)`, dy))
	return err
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
