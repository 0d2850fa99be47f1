// Package session negotiates the login of the authenticated feed source.
//
// A Manager owns one browser bound to a persistent profile directory. It
// first tries to reuse the cookies stored in that profile and only submits
// the login form when the site redirects to it. A verification challenge is
// left to the human in front of the visible window while the Manager polls
// for its completion.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/IshaanNene/briefbot/internal/clock"
	"github.com/IshaanNene/briefbot/internal/fetcher"
)

// Config holds the addresses, selectors and timings of the login flow.
type Config struct {
	FeedURL  string
	LoginURL string

	// URL substrings that identify each page kind.
	LoginSignals     []string
	ChallengeSignals []string
	FeedSignal       string

	UsernameSelector string
	PasswordSelector string
	SubmitSelector   string

	// CookieSelectors are clicked best-effort to dismiss consent banners.
	CookieSelectors []string
	// CookieButtonText matches consent buttons by label.
	CookieButtonText string

	NavigationTimeout time.Duration
	FieldTimeout      time.Duration
	LandingSettle     time.Duration
	UsernamePause     time.Duration
	PasswordPause     time.Duration

	LoginWait         time.Duration
	LoginPoll         time.Duration
	ChallengePolls    int
	ChallengeInterval time.Duration
}

// DefaultConfig returns the LinkedIn login flow.
func DefaultConfig() Config {
	return Config{
		FeedURL:           "https://www.linkedin.com/feed/",
		LoginURL:          "https://www.linkedin.com/login",
		LoginSignals:      []string{"login", "authwall"},
		ChallengeSignals:  []string{"checkpoint", "security", "challenge"},
		FeedSignal:        "/feed",
		UsernameSelector:  "#username",
		PasswordSelector:  "#password",
		SubmitSelector:    `button[type="submit"]`,
		CookieSelectors:   []string{"button[action-type='ACCEPT']"},
		CookieButtonText:  "^\\s*(Accept|Akzeptieren)",
		NavigationTimeout: 30 * time.Second,
		FieldTimeout:      10 * time.Second,
		LandingSettle:     3 * time.Second,
		UsernamePause:     500 * time.Millisecond,
		PasswordPause:     300 * time.Millisecond,
		LoginWait:         30 * time.Second,
		LoginPoll:         500 * time.Millisecond,
		ChallengePolls:    60,
		ChallengeInterval: time.Second,
	}
}

// Option configures the Manager.
type Option func(*Manager)

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithConfig replaces the login flow configuration.
func WithConfig(cfg Config) Option {
	return func(m *Manager) { m.cfg = cfg }
}

// WithHeadless runs the session browser without a window. Challenges then
// cannot be solved by hand.
func WithHeadless(headless bool) Option {
	return func(m *Manager) { m.headless = headless }
}

// Manager drives the login state machine over a persistent browser profile.
type Manager struct {
	profilePath string
	opener      fetcher.Opener
	cfg         Config
	clock       clock.Clock
	headless    bool
	logger      *slog.Logger

	mu      sync.Mutex
	state   State
	history []Transition
	polls   int

	browser fetcher.Browser
	page    fetcher.Page
}

// NewManager creates a Manager for the profile at profilePath.
func NewManager(profilePath string, opener fetcher.Opener, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		profilePath: profilePath,
		opener:      opener,
		cfg:         DefaultConfig(),
		clock:       clock.New(),
		logger:      logger.With("component", "session"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ProfilePath returns the persistent profile directory.
func (m *Manager) ProfilePath() string {
	return m.profilePath
}

// Open creates the profile directory if needed and launches the browser.
func (m *Manager) Open(ctx context.Context) error {
	if err := os.MkdirAll(m.profilePath, 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	browser, err := m.opener(ctx, fetcher.LaunchOptions{
		Headless:    m.headless,
		UserDataDir: m.profilePath,
		Stealth:     fetcher.DefaultStealthConfig(),
	})
	if err != nil {
		return err
	}
	page, err := browser.NewPage(ctx)
	if err != nil {
		_ = browser.Close()
		return fmt.Errorf("open session page: %w", err)
	}

	m.mu.Lock()
	m.browser, m.page = browser, page
	m.state = Anonymous
	m.history = nil
	m.polls = 0
	m.mu.Unlock()
	return nil
}

// Page returns the session page. It is nil before Open.
func (m *Manager) Page() fetcher.Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page
}

// Close shuts the browser down and keeps the profile on disk.
func (m *Manager) Close() error {
	m.mu.Lock()
	browser := m.browser
	m.browser, m.page = nil, nil
	m.mu.Unlock()

	if browser == nil {
		return nil
	}
	return browser.Close()
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// History returns every transition of the current session in order.
func (m *Manager) History() []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Transition(nil), m.history...)
}

// ChallengePolls returns how many challenge polls have run.
func (m *Manager) ChallengePolls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls
}

func (m *Manager) transition(to State, reason string) {
	m.mu.Lock()
	from := m.state
	m.state = to
	m.history = append(m.history, Transition{From: from, To: to, Reason: reason, At: m.clock.Now()})
	m.mu.Unlock()

	m.logger.Info("session state changed", "from", from, "to", to, "reason", reason)
}
