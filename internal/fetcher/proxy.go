package fetcher

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
)

// Proxy rotation strategies.
const (
	RotationRoundRobin = "round_robin"
	RotationRandom     = "random"
)

// ProxyManager rotates outbound proxies for both browser launches and
// static HTTP fetches.
type ProxyManager struct {
	proxies  []*proxyEntry
	rotation string
	index    atomic.Int64
	mu       sync.RWMutex
	logger   *slog.Logger
}

type proxyEntry struct {
	URL     *url.URL
	Healthy bool
	LastErr error
}

// NewProxyManager parses rawURLs, skipping invalid entries.
func NewProxyManager(rawURLs []string, rotation string, logger *slog.Logger) *ProxyManager {
	pm := &ProxyManager{
		proxies:  make([]*proxyEntry, 0, len(rawURLs)),
		rotation: rotation,
		logger:   logger.With("component", "proxy_manager"),
	}
	for _, raw := range rawURLs {
		if err := pm.AddProxy(raw); err != nil {
			pm.logger.Warn("invalid proxy URL", "url", raw, "error", err)
		}
	}
	pm.logger.Debug("proxy manager initialized", "count", len(pm.proxies), "rotation", rotation)
	return pm
}

// ProxyFunc returns an http.Transport-compatible proxy function.
func (pm *ProxyManager) ProxyFunc() func(*http.Request) (*url.URL, error) {
	return func(*http.Request) (*url.URL, error) {
		return pm.Next(), nil
	}
}

// Next returns the next healthy proxy, or nil for a direct connection.
func (pm *ProxyManager) Next() *url.URL {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	healthy := make([]*proxyEntry, 0, len(pm.proxies))
	for _, p := range pm.proxies {
		if p.Healthy {
			healthy = append(healthy, p)
		}
	}
	if len(healthy) == 0 {
		return nil
	}

	if pm.rotation == RotationRandom {
		return healthy[rand.Intn(len(healthy))].URL
	}
	idx := (pm.index.Add(1) - 1) % int64(len(healthy))
	return healthy[idx].URL
}

// MarkFailed takes a proxy out of rotation.
func (pm *ProxyManager) MarkFailed(proxyURL *url.URL, err error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	for _, p := range pm.proxies {
		if p.URL.String() == proxyURL.String() {
			p.Healthy = false
			p.LastErr = err
			pm.logger.Warn("proxy marked unhealthy", "proxy", proxyURL.Host, "error", err)
			return
		}
	}
}

// AddProxy adds a proxy URL at runtime.
func (pm *ProxyManager) AddProxy(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid proxy URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid proxy URL %q: missing scheme or host", rawURL)
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.proxies = append(pm.proxies, &proxyEntry{URL: u, Healthy: true})
	return nil
}

// Count returns the total number of proxies.
func (pm *ProxyManager) Count() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.proxies)
}
