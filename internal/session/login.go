package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/IshaanNene/briefbot/internal/fetcher"
)

// cookieBannerTimeout bounds the wait for each consent button.
const cookieBannerTimeout = 2 * time.Second

// Authenticate runs the state machine until it reaches Authenticated or
// Failed. It returns nil only in the Authenticated state.
func (m *Manager) Authenticate(ctx context.Context, creds Credentials) error {
	page := m.Page()
	if page == nil {
		return ErrNotOpen
	}

	if err := page.Navigate(ctx, m.cfg.FeedURL, m.cfg.NavigationTimeout); err != nil {
		return m.fail(fmt.Errorf("%w: open feed: %v", ErrLoginFailed, err))
	}
	if err := m.clock.Sleep(ctx, m.cfg.LandingSettle); err != nil {
		return m.fail(err)
	}
	m.dismissCookies(ctx, page)

	landing, err := page.URL(ctx)
	if err != nil {
		return m.fail(fmt.Errorf("%w: read url: %v", ErrLoginFailed, err))
	}
	if !m.matches(landing, m.cfg.LoginSignals) {
		m.transition(Authenticated, "stored session accepted")
		return nil
	}

	m.transition(LoginSubmitted, "redirected to "+landing)
	if !creds.Valid() {
		return m.fail(fmt.Errorf("%w: no credentials configured", ErrLoginFailed))
	}
	if err := m.submitLogin(ctx, page, creds); err != nil {
		return m.fail(fmt.Errorf("%w: %v", ErrLoginFailed, err))
	}

	current, err := m.awaitLogin(ctx, page)
	if err != nil {
		return m.fail(err)
	}
	if m.isFeed(current) {
		m.dismissCookies(ctx, page)
		m.transition(Authenticated, "login accepted")
		return nil
	}
	if !m.matches(current, m.cfg.ChallengeSignals) {
		return m.fail(fmt.Errorf("%w: still at %s after %s", ErrLoginFailed, current, m.cfg.LoginWait))
	}

	m.transition(AwaitingChallenge, "challenge at "+current)
	m.logger.Warn("verification required, complete it in the browser window",
		"timeout", time.Duration(m.cfg.ChallengePolls)*m.cfg.ChallengeInterval,
	)
	if err := m.awaitChallenge(ctx, page); err != nil {
		return m.fail(err)
	}
	m.dismissCookies(ctx, page)
	m.transition(Authenticated, "challenge completed")
	return nil
}

// submitLogin opens the login form, fills it and submits it.
func (m *Manager) submitLogin(ctx context.Context, page fetcher.Page, creds Credentials) error {
	if err := page.Navigate(ctx, m.cfg.LoginURL, m.cfg.NavigationTimeout); err != nil {
		return fmt.Errorf("open login: %w", err)
	}
	if err := page.WaitElement(ctx, m.cfg.UsernameSelector, m.cfg.FieldTimeout); err != nil {
		return err
	}
	if err := page.Fill(ctx, m.cfg.UsernameSelector, creds.Email); err != nil {
		return err
	}
	if err := m.clock.Sleep(ctx, m.cfg.UsernamePause); err != nil {
		return err
	}
	if err := page.Fill(ctx, m.cfg.PasswordSelector, creds.Password); err != nil {
		return err
	}
	if err := m.clock.Sleep(ctx, m.cfg.PasswordPause); err != nil {
		return err
	}
	return page.Click(ctx, m.cfg.SubmitSelector)
}

// awaitLogin polls until the feed or a challenge shows up, or LoginWait
// elapses. It returns the last observed URL.
func (m *Manager) awaitLogin(ctx context.Context, page fetcher.Page) (string, error) {
	deadline := m.clock.Now().Add(m.cfg.LoginWait)
	for {
		current, err := page.URL(ctx)
		if err != nil {
			return "", fmt.Errorf("%w: read url: %v", ErrLoginFailed, err)
		}
		if m.isFeed(current) || m.matches(current, m.cfg.ChallengeSignals) {
			return current, nil
		}
		if !m.clock.Now().Before(deadline) {
			return current, nil
		}
		if err := m.clock.Sleep(ctx, m.cfg.LoginPoll); err != nil {
			return "", err
		}
	}
}

// awaitChallenge polls once per interval, at most ChallengePolls times.
// The URL is checked after each sleep; a completion after the last check is
// not observed.
func (m *Manager) awaitChallenge(ctx context.Context, page fetcher.Page) error {
	for i := 1; i <= m.cfg.ChallengePolls; i++ {
		if err := m.clock.Sleep(ctx, m.cfg.ChallengeInterval); err != nil {
			return err
		}
		m.mu.Lock()
		m.polls = i
		m.mu.Unlock()

		current, err := page.URL(ctx)
		if err != nil {
			m.logger.Debug("challenge poll failed", "poll", i, "error", err)
			continue
		}
		if m.isFeed(current) {
			return nil
		}
	}
	return fmt.Errorf("%w after %d polls", ErrChallengeTimeout, m.cfg.ChallengePolls)
}

// dismissCookies clicks any visible consent button. Failures are ignored.
func (m *Manager) dismissCookies(ctx context.Context, page fetcher.Page) {
	for _, sel := range m.cfg.CookieSelectors {
		if err := page.WaitElement(ctx, sel, cookieBannerTimeout); err != nil {
			continue
		}
		if err := page.Click(ctx, sel); err == nil {
			m.logger.Debug("cookie banner dismissed", "selector", sel)
			return
		}
	}
	if m.cfg.CookieButtonText == "" {
		return
	}
	if err := page.ClickText(ctx, "button", m.cfg.CookieButtonText, cookieBannerTimeout); err == nil {
		m.logger.Debug("cookie banner dismissed", "text", m.cfg.CookieButtonText)
	}
}

func (m *Manager) fail(err error) error {
	m.transition(Failed, err.Error())
	return err
}

func (m *Manager) isFeed(rawURL string) bool {
	return m.cfg.FeedSignal != "" && strings.Contains(rawURL, m.cfg.FeedSignal)
}

func (m *Manager) matches(rawURL string, signals []string) bool {
	for _, s := range signals {
		if s != "" && strings.Contains(rawURL, s) {
			return true
		}
	}
	return false
}
