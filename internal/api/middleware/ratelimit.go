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

	"github.com/eventsignup/server/internal/config"
	"golang.org/x/time/rate"
)

type RateLimitTier string

const (
	TierPublic RateLimitTier = "public"
	// TierLogin covers login and signup submissions.
	TierLogin RateLimitTier = "login"
)

// loginRefill is how often a spent login attempt comes back.
const loginRefill = 3 * time.Minute

// limiterIdleTTL drops buckets of clients that have gone quiet.
const limiterIdleTTL = 15 * time.Minute

type rateLimitTierKey struct{}

func WithRateLimitTier(ctx context.Context, tier RateLimitTier) context.Context {
	return context.WithValue(ctx, rateLimitTierKey{}, tier)
}

// WithRateLimitTierHandler selects the tier for the RateLimit middleware
// wrapped inside it.
func WithRateLimitTierHandler(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithRateLimitTier(r.Context(), tier)))
		})
	}
}

func tierFromContext(ctx context.Context) RateLimitTier {
	if tier, ok := ctx.Value(rateLimitTierKey{}).(RateLimitTier); ok {
		return tier
	}
	return TierPublic
}

// tierPolicy is a token bucket: burst tokens, one back every refill.
type tierPolicy struct {
	burst  int
	refill time.Duration
}

// retryAfter is the Retry-After value in whole seconds.
func (p tierPolicy) retryAfter() string {
	return strconv.Itoa(int(math.Ceil(p.refill.Seconds())))
}

func policies(cfg config.RateLimitConfig) map[RateLimitTier]tierPolicy {
	out := make(map[RateLimitTier]tierPolicy, 2)
	if cfg.PublicPerMinute > 0 {
		out[TierPublic] = tierPolicy{burst: cfg.PublicPerMinute, refill: time.Minute / time.Duration(cfg.PublicPerMinute)}
	}
	if cfg.LoginPer15Minutes > 0 {
		out[TierLogin] = tierPolicy{burst: cfg.LoginPer15Minutes, refill: loginRefill}
	}
	return out
}

// RateLimit returns a middleware backed by one limiter store. Apply the same
// returned middleware at several points to share counters. A tier with a
// zero limit is not limited; health probes never are.
func RateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	store := newLimiterStore(cfg)
	trusted := parsePrefixes(cfg.TrustedProxyCIDRs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" {
				next.ServeHTTP(w, r)
				return
			}

			tier := tierFromContext(r.Context())
			limiter, policy := store.limiter(tier, clientAddr(r, trusted))
			if limiter == nil || limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			LoggerFromContext(r.Context()).Warn().
				Str("tier", string(tier)).
				Str("path", r.URL.Path).
				Msg("rate limited")
			w.Header().Set("Retry-After", policy.retryAfter())
			http.Error(w, "Too many requests, please try again later.", http.StatusTooManyRequests)
		})
	}
}

type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	policies map[RateLimitTier]tierPolicy
	stop     chan struct{}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(cfg config.RateLimitConfig) *limiterStore {
	store := &limiterStore{
		limiters: make(map[string]*limiterEntry),
		policies: policies(cfg),
		stop:     make(chan struct{}),
	}
	go store.sweep(5 * time.Minute)
	return store
}

// limiter returns the bucket for one client in one tier, or nil when the tier
// is not limited.
func (s *limiterStore) limiter(tier RateLimitTier, client string) (*rate.Limiter, tierPolicy) {
	policy, ok := s.policies[tier]
	if !ok {
		return nil, tierPolicy{}
	}

	key := string(tier) + "|" + client
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Every(policy.refill), policy.burst)}
		s.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter, policy
}

func (s *limiterStore) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stop:
			return
		}
	}
}

func (s *limiterStore) cleanup() {
	cutoff := time.Now().Add(-limiterIdleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(s.limiters, key)
		}
	}
}

func (s *limiterStore) Stop() {
	close(s.stop)
}

// ClientIP is the address used for rate limiting and audit lines. Forwarding
// headers are only believed when the peer is inside a trusted proxy CIDR.
func ClientIP(r *http.Request, trustedProxyCIDRs []string) string {
	return clientKey(r, trustedProxyCIDRs)
}

func clientKey(r *http.Request, trustedProxyCIDRs []string) string {
	return clientAddr(r, parsePrefixes(trustedProxyCIDRs))
}

func clientAddr(r *http.Request, trusted []netip.Prefix) string {
	if r == nil {
		return ""
	}

	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	if !fromTrustedProxy(peer, trusted) {
		return peer
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return peer
}

// parsePrefixes skips entries that are not valid CIDRs.
func parsePrefixes(cidrs []string) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		if prefix, err := netip.ParsePrefix(strings.TrimSpace(cidr)); err == nil {
			out = append(out, prefix.Masked())
		}
	}
	return out
}

func fromTrustedProxy(peer string, trusted []netip.Prefix) bool {
	if len(trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(peer)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
