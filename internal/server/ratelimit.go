package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SlidingWindow limits each client to rpm requests in the trailing
// 60 seconds. Timestamps older than the window are pruned on every
// check.
type SlidingWindow struct {
	mu       sync.Mutex
	rpm      int
	requests map[string][]time.Time
}

// NewSlidingWindow builds a limiter allowing rpm requests per minute
// per client id.
func NewSlidingWindow(rpm int) *SlidingWindow {
	return &SlidingWindow{
		rpm:      rpm,
		requests: make(map[string][]time.Time),
	}
}

// Allow records one request for the client and reports whether it is
// within the limit.
func (s *SlidingWindow) Allow(clientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-time.Minute)

	window := s.requests[clientID][:0]
	for _, t := range s.requests[clientID] {
		if t.After(cutoff) {
			window = append(window, t)
		}
	}
	if len(window) >= s.rpm {
		s.requests[clientID] = window
		return false
	}
	s.requests[clientID] = append(window, now)
	return true
}

// upgradeClientTTL is how long an idle client stays in the upgrade
// limiter table before a sweep drops it.
const upgradeClientTTL = 10 * time.Minute

// UpgradeLimiter throttles WebSocket upgrade attempts per client IP.
// Subscriptions reconnect in bursts when a broadcast drops them, so
// this uses a refilling token bucket sized from the configured
// request budget rather than the hard sliding window the submission
// path gets. Idle clients are swept lazily when the table grows past
// its high-water mark; there is no background goroutine.
type UpgradeLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	clients  map[string]*upgradeClient
	sweepAt  int
	onReject func(ip string)
}

type upgradeClient struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// NewUpgradeLimiter sizes the per-IP bucket from the same
// requests-per-minute budget as the submission window. onReject is
// invoked with the client IP for every refused upgrade; nil disables
// it.
func NewUpgradeLimiter(rpm int, onReject func(ip string)) *UpgradeLimiter {
	perSec := float64(rpm) / 60
	if perSec <= 0 {
		perSec = 1
	}
	burst := rpm / 10
	if burst < 5 {
		burst = 5
	}
	return &UpgradeLimiter{
		limit:    rate.Limit(perSec),
		burst:    burst,
		clients:  make(map[string]*upgradeClient),
		sweepAt:  64,
		onReject: onReject,
	}
}

// Allow reports whether the client may attempt another upgrade now.
func (u *UpgradeLimiter) Allow(ip string) bool {
	u.mu.Lock()
	c, ok := u.clients[ip]
	if !ok {
		if len(u.clients) >= u.sweepAt {
			u.sweep()
		}
		c = &upgradeClient{bucket: rate.NewLimiter(u.limit, u.burst)}
		u.clients[ip] = c
	}
	c.lastSeen = time.Now()
	u.mu.Unlock()

	if c.bucket.Allow() {
		return true
	}
	if u.onReject != nil {
		u.onReject(ip)
	}
	return false
}

// sweep drops clients idle past the TTL and raises the high-water
// mark. Caller holds the lock.
func (u *UpgradeLimiter) sweep() {
	cutoff := time.Now().Add(-upgradeClientTTL)
	for ip, c := range u.clients {
		if c.lastSeen.Before(cutoff) {
			delete(u.clients, ip)
		}
	}
	u.sweepAt = 2*len(u.clients) + 64
}

// clientIP extracts the client address, honouring X-Forwarded-For
// from a fronting proxy.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}
