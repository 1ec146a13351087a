package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// LoginAttemptsPerMinute bounds POST /api/login per client IP.
const LoginAttemptsPerMinute = 20

// windowEntry tracks request counts per IP within a fixed window.
type windowEntry struct {
	count     int
	windowEnd time.Time
}

// windowLimiter is a per-IP fixed-window counter.
type windowLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*windowEntry
}

func newWindowLimiter(limit int, window time.Duration) *windowLimiter {
	l := &windowLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		entries: make(map[string]*windowEntry),
	}
	register(l)
	return l
}

// allow counts one request for ip and reports whether it fits the window,
// plus the time the current window ends.
func (l *windowLimiter) allow(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[ip]
	if !ok || now.After(entry.windowEnd) {
		entry = &windowEntry{windowEnd: now.Add(l.window)}
		l.entries[ip] = entry
	}
	entry.count++
	return entry.count <= l.limit, entry.windowEnd
}

func (l *windowLimiter) purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	purged := 0
	for ip, entry := range l.entries {
		if now.After(entry.windowEnd) {
			delete(l.entries, ip)
			purged++
		}
	}
	return purged
}

func (l *windowLimiter) handler(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, windowEnd := l.allow(c.ClientIP())
		if !ok {
			retry := int(time.Until(windowEnd).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(message))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts per IP per minute.
func LoginRateLimiter(limit int) gin.HandlerFunc {
	return newWindowLimiter(limit, time.Minute).handler("Too many login attempts. Try again in a minute.")
}

// RateLimiter returns a general-purpose per-IP limiter. A non-positive limit disables it.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return newWindowLimiter(limit, window).handler("Too many requests. Try again shortly.")
}

// ── Purge goroutine ───────────────────────────────────────────────────────────

const purgeInterval = 5 * time.Minute

var (
	limitersMu sync.Mutex
	limiters   []*windowLimiter
	purgeOnce  sync.Once
)

func register(l *windowLimiter) {
	limitersMu.Lock()
	limiters = append(limiters, l)
	limitersMu.Unlock()
	purgeOnce.Do(func() { go purgeExpiredEntries() })
}

func purgeExpiredEntries() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		limitersMu.Lock()
		snapshot := append([]*windowLimiter(nil), limiters...)
		limitersMu.Unlock()

		purged := 0
		for _, l := range snapshot {
			purged += l.purge()
		}
		if purged > 0 {
			log.Debug().Int("entries_purged", purged).Int("limiters", len(snapshot)).Msg("rate limiter maps purged")
		}
	}
}
