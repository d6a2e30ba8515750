package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

// Limit is a token bucket refilled at PerSecond with room for Burst tokens.
// A zero Limit lets everything through.
type Limit struct {
	PerSecond float64
	Burst     int
}

func (l Limit) unlimited() bool { return l.PerSecond <= 0 || l.Burst <= 0 }

// retryAfter is the whole number of seconds until one token refills
func (l Limit) retryAfter() string {
	secs := math.Ceil(1 / l.PerSecond)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(int(secs))
}

// RateLimitConfig sets the request budgets of the public API.
type RateLimitConfig struct {
	Client  Limit         // every request, per client IP
	Control Limit         // match control routes, per client IP
	Attack  Limit         // attack route, per player
	IdleTTL time.Duration // buckets idle this long are dropped
}

// DefaultRateLimitConfig keeps match control well below the general budget
var DefaultRateLimitConfig = RateLimitConfig{
	Client:  Limit{PerSecond: 10, Burst: 20},
	Control: Limit{PerSecond: 1, Burst: 5},
	Attack:  Limit{PerSecond: 20, Burst: 20},
	IdleTTL: 10 * time.Minute,
}

// Rate limit tiers, also used in stats and rejection metrics
const (
	TierClient  = "client"
	TierControl = "control"
	TierAttack  = "attack"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// bucketSet holds one token bucket per key for a single tier.
type bucketSet struct {
	limit Limit

	mu      sync.Mutex
	buckets map[string]*bucket

	allowed  atomic.Uint64
	rejected atomic.Uint64
}

func newBucketSet(limit Limit) *bucketSet {
	return &bucketSet{limit: limit, buckets: make(map[string]*bucket)}
}

func (s *bucketSet) allow(key string, now time.Time) bool {
	if s.limit.unlimited() {
		s.allowed.Add(1)
		return true
	}

	s.mu.Lock()
	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(s.limit.PerSecond), s.limit.Burst)}
		s.buckets[key] = b
	}
	b.lastSeen = now
	ok = b.limiter.AllowN(now, 1)
	s.mu.Unlock()

	if ok {
		s.allowed.Add(1)
	} else {
		s.rejected.Add(1)
	}
	return ok
}

func (s *bucketSet) sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, b := range s.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(s.buckets, key)
			n++
		}
	}
	return n
}

func (s *bucketSet) keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// RateLimiter applies the API's request budgets. A background sweep drops
// idle buckets until Stop.
type RateLimiter struct {
	tiers map[string]*bucketSet
	ttl   time.Duration
	now   func() time.Time

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a limiter and starts its sweep goroutine
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return newRateLimiter(cfg, time.Now)
}

func newRateLimiter(cfg RateLimitConfig, now func() time.Time) *RateLimiter {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultRateLimitConfig.IdleTTL
	}
	rl := &RateLimiter{
		tiers: map[string]*bucketSet{
			TierClient:  newBucketSet(cfg.Client),
			TierControl: newBucketSet(cfg.Control),
			TierAttack:  newBucketSet(cfg.Attack),
		},
		ttl:      cfg.IdleTTL,
		now:      now,
		stopChan: make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Stop ends the sweep goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
}

// Allow spends one token from key's bucket in tier. Unknown tiers allow.
func (rl *RateLimiter) Allow(tier, key string) bool {
	s, ok := rl.tiers[tier]
	if !ok {
		return true
	}
	return s.allow(key, rl.now())
}

// Sweep drops buckets idle for longer than the TTL and returns how many went
func (rl *RateLimiter) Sweep() int {
	cutoff := rl.now().Add(-rl.ttl)
	n := 0
	for _, s := range rl.tiers {
		n += s.sweep(cutoff)
	}
	return n
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stopChan:
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}

// Middleware limits every request by client IP
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return rl.limit(TierClient, GetClientIP, next)
}

// ControlMiddleware applies the match control budget by client IP
func (rl *RateLimiter) ControlMiddleware(next http.Handler) http.Handler {
	return rl.limit(TierControl, GetClientIP, next)
}

// AttackMiddleware limits attacks per player named in the route
func (rl *RateLimiter) AttackMiddleware(next http.Handler) http.Handler {
	return rl.limit(TierAttack, func(r *http.Request) string {
		return chi.URLParam(r, "player")
	}, next)
}

func (rl *RateLimiter) limit(tier string, key func(*http.Request) string, next http.Handler) http.Handler {
	s := rl.tiers[tier]
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.allow(key(r), rl.now()) {
			RecordConnectionRejected(tier + "_rate_limit")
			w.Header().Set("Retry-After", s.limit.retryAfter())
			writeError(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Stats returns allowed and rejected counts plus live buckets per tier
func (rl *RateLimiter) Stats() map[string]map[string]uint64 {
	out := make(map[string]map[string]uint64, len(rl.tiers))
	for name, s := range rl.tiers {
		out[name] = map[string]uint64{
			"allowed":  s.allowed.Load(),
			"rejected": s.rejected.Load(),
			"keys":     uint64(s.keys()),
		}
	}
	return out
}

// GetClientIP returns the caller's address: the first X-Forwarded-For hop,
// then X-Real-IP, then the connection's remote host.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// WebSocketRateLimiter caps concurrent WebSocket connections per IP
type WebSocketRateLimiter struct {
	maxPerIP int

	mu   sync.Mutex
	open map[string]int

	rejected atomic.Uint64
}

// NewWebSocketRateLimiter creates a connection limiter
func NewWebSocketRateLimiter(maxPerIP int) *WebSocketRateLimiter {
	return &WebSocketRateLimiter{maxPerIP: maxPerIP, open: make(map[string]int)}
}

// Allow reserves a connection slot for ip
func (l *WebSocketRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open[ip] >= l.maxPerIP {
		l.rejected.Add(1)
		return false
	}
	l.open[ip]++
	return true
}

// Release frees a slot taken by Allow
func (l *WebSocketRateLimiter) Release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := l.open[ip]; n > 1 {
		l.open[ip] = n - 1
	} else {
		delete(l.open, ip)
	}
}

// GetConnectionCount returns the open connections for ip
func (l *WebSocketRateLimiter) GetConnectionCount(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open[ip]
}

// GetStats returns rejections and the number of IPs holding connections
func (l *WebSocketRateLimiter) GetStats() map[string]uint64 {
	l.mu.Lock()
	ips := len(l.open)
	l.mu.Unlock()
	return map[string]uint64{
		"rejected": l.rejected.Load(),
		"ips":      uint64(ips),
	}
}

// OriginPolicy decides which browser origins may open a WebSocket. Entries
// may end in ":*" to accept any port, or start with "*." to accept subdomains.
type OriginPolicy struct {
	patterns []string
}

// DefaultAllowedOrigins accepts local development hosts only
var DefaultAllowedOrigins = []string{
	"http://localhost:*",
	"http://127.0.0.1:*",
}

// NewOriginPolicy builds a policy; a nil list uses DefaultAllowedOrigins
func NewOriginPolicy(patterns []string) *OriginPolicy {
	if patterns == nil {
		patterns = DefaultAllowedOrigins
	}
	return &OriginPolicy{patterns: patterns}
}

// Patterns returns the configured origin patterns
func (p *OriginPolicy) Patterns() []string {
	return p.patterns
}

// Allowed checks origin against the policy
func (p *OriginPolicy) Allowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, pattern := range p.patterns {
		if pattern == "*" || pattern == origin {
			return true
		}
		if strings.HasSuffix(pattern, ":*") {
			host := strings.TrimSuffix(pattern, ":*")
			if origin == host || strings.HasPrefix(origin, host+":") {
				return true
			}
		}
		if idx := strings.Index(pattern, "*."); idx >= 0 {
			scheme, domain := pattern[:idx], pattern[idx+1:]
			if strings.HasPrefix(origin, scheme) && strings.HasSuffix(origin, domain) {
				return true
			}
		}
	}
	return false
}
