package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"movie-api/internal/models"

	"golang.org/x/time/rate"
)

func setRateLimitHeaders(w http.ResponseWriter, snapshot *models.UsageSnapshot) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(snapshot.DailyCeiling))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(snapshot.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(snapshot.ResetsAt.Unix(), 10))
	if snapshot.Remaining == 0 {
		wait := int(math.Ceil(time.Until(snapshot.ResetsAt).Seconds()))
		if wait < 1 {
			wait = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(wait))
	}
}

// IPThrottle is a per-client-IP token bucket in front of the public account
// routes. It is local to the process and only sheds bursts; the persistent
// action limiter enforces the real signup and resend policies.
type IPThrottle struct {
	mu           sync.Mutex
	entries      map[string]*throttleEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
	trusted      []netip.Prefix
}

type throttleEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type IPThrottleOption func(*IPThrottle)

func WithIdleTTL(d time.Duration) IPThrottleOption {
	return func(t *IPThrottle) { t.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) IPThrottleOption {
	return func(t *IPThrottle) { t.cleanupEvery = d }
}

// WithTrustedProxies lets peers inside these prefixes report the client
// address through X-Forwarded-For. The header is ignored for anyone else.
func WithTrustedProxies(prefixes ...netip.Prefix) IPThrottleOption {
	return func(t *IPThrottle) { t.trusted = prefixes }
}

func NewIPThrottle(rps float64, burst int, opts ...IPThrottleOption) *IPThrottle {
	t := &IPThrottle{
		entries:      make(map[string]*throttleEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *IPThrottle) limiter(key string) *rate.Limiter {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if ent, ok := t.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}
	lim := rate.NewLimiter(t.rps, t.burst)
	t.entries[key] = &throttleEntry{lim: lim, lastSeen: now}
	return lim
}

// Cleanup drops limiters that have been idle longer than the idle TTL.
func (t *IPThrottle) Cleanup() {
	cutoff := time.Now().Add(-t.idleTTL)

	t.mu.Lock()
	defer t.mu.Unlock()
	for key, ent := range t.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(t.entries, key)
		}
	}
}

// Run cleans up periodically until ctx is done.
func (t *IPThrottle) Run(ctx context.Context) {
	ticker := time.NewTicker(t.cleanupEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Cleanup()
		}
	}
}

func (t *IPThrottle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.limiter(clientIP(r, t.trusted)).Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSONError(w, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many requests, slow down", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the connecting peer unless it is a trusted proxy. Behind
// one, X-Forwarded-For is walked from the right and the first hop outside the
// trusted prefixes wins, so client-written entries to its left never count.
func clientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := remoteHost(r)
	addr, err := netip.ParseAddr(peer)
	if err != nil || !isTrusted(addr.Unmap(), trusted) {
		return peer
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		hopAddr, err := netip.ParseAddr(hop)
		if err != nil {
			return peer
		}
		peer = hopAddr.Unmap().String()
		if !isTrusted(hopAddr.Unmap(), trusted) {
			return peer
		}
	}
	return peer
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isTrusted(addr netip.Addr, trusted []netip.Prefix) bool {
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
