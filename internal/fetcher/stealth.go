package fetcher

import "fmt"

// StealthConfig configures anti-detection and fingerprint presentation.
type StealthConfig struct {
	UserAgent string

	ViewportWidth  int
	ViewportHeight int

	// Locale override (e.g., "de-DE")
	Locale string

	// Timezone override (e.g., "Europe/Berlin")
	Timezone string

	// ExtraFlags are passed to Chromium at launch.
	ExtraFlags map[string]string
}

// Mac desktop Chrome used by the authenticated feed session.
const desktopChromeUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// DefaultStealthConfig returns the fingerprint of a German desktop Chrome.
// The values must stay stable between runs so a persistent profile keeps
// looking like the same machine.
func DefaultStealthConfig() *StealthConfig {
	return &StealthConfig{
		UserAgent:      desktopChromeUA,
		ViewportWidth:  1280,
		ViewportHeight: 800,
		Locale:         "de-DE",
		Timezone:       "Europe/Berlin",
		ExtraFlags: map[string]string{
			"disable-blink-features":   "AutomationControlled",
			"disable-infobars":         "",
			"disable-dev-shm-usage":    "",
			"no-first-run":             "",
			"no-default-browser-check": "",
		},
	}
}

// WindowSize renders the viewport as a Chromium window-size flag value.
func (sc *StealthConfig) WindowSize() string {
	if sc.ViewportWidth == 0 || sc.ViewportHeight == 0 {
		return ""
	}
	return fmt.Sprintf("%d,%d", sc.ViewportWidth, sc.ViewportHeight)
}
