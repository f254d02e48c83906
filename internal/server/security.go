package server

import (
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/osse101/chunkward/internal/logger"
)

// AuthMiddleware requires the operator API key on every non-public path
func AuthMiddleware(apiKey string, trustedProxies []string, monitor *ActivityMonitor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			providedKey := r.Header.Get(HeaderAPIKey)
			if subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiKey)) != 1 {
				ip := extractIP(r, trustedProxies)
				if monitor != nil {
					monitor.RecordFailedAuth(ip)
				}

				logger.FromContext(r.Context()).Warn(LogMsgAuthFailed,
					"path", r.URL.Path,
					"has_key", providedKey != "",
					"ip", ip)

				http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware rejects clients that exceed the monitor's request budget
func RateLimitMiddleware(trustedProxies []string, monitor *ActivityMonitor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !monitor.RecordRequest(extractIP(r, trustedProxies)) {
				http.Error(w, ErrMsgTooManyRequests, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestSizeLimitMiddleware limits request body size
func RequestSizeLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersMiddleware adds security headers to responses
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set(HeaderContentType, HeaderValueNoSniff)
			h.Set(HeaderFrameOptions, HeaderValueDeny)
			h.Set(HeaderReferrerPolicy, HeaderValueReferrerNoReferrer)
			// Answers reflect live in-memory state
			h.Set(HeaderCacheControl, HeaderValueCacheControlNoStore)
			next.ServeHTTP(w, r)
		})
	}
}

// ActivityMonitor counts requests and failed authentications per client IP over a
// fixed window
type ActivityMonitor struct {
	mu          sync.Mutex
	window      time.Duration
	limit       int
	now         func() time.Time
	failedAuth  map[string]int
	requests    map[string]int
	windowStart time.Time
}

// NewActivityMonitor allows limit requests per IP in each window
func NewActivityMonitor(window time.Duration, limit int) *ActivityMonitor {
	m := &ActivityMonitor{
		window:     window,
		limit:      limit,
		now:        time.Now,
		failedAuth: make(map[string]int),
		requests:   make(map[string]int),
	}
	m.windowStart = m.now()
	return m
}

// RecordFailedAuth records a failed authentication attempt
func (m *ActivityMonitor) RecordFailedAuth(ip string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rollLocked()
	m.failedAuth[ip]++
	if m.failedAuth[ip] == FailedAuthAlertThreshold {
		slog.Warn(SecurityAlertFailedAuth, "ip", ip, "count", m.failedAuth[ip])
	}
}

// RecordRequest counts a request and reports whether it is within the limit
func (m *ActivityMonitor) RecordRequest(ip string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rollLocked()
	m.requests[ip]++
	if n := m.requests[ip]; n > m.limit {
		// Log once per hundred rejected requests
		if (n-m.limit)%100 == 1 {
			slog.Warn(SecurityAlertHighRate, "ip", ip, "count_in_window", n)
		}
		return false
	}
	return true
}

// rollLocked starts a new window once the current one has elapsed
func (m *ActivityMonitor) rollLocked() {
	if now := m.now(); now.Sub(m.windowStart) >= m.window {
		m.requests = make(map[string]int)
		m.failedAuth = make(map[string]int)
		m.windowStart = now
	}
}

func isPublicPath(path string) bool {
	for _, p := range PublicPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// extractIP returns the client address. X-Forwarded-For is honored only when the direct
// peer is a trusted proxy, and then only its rightmost hop.
func extractIP(r *http.Request, trustedProxies []string) string {
	remoteIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remoteIP = r.RemoteAddr
	}

	for _, proxy := range trustedProxies {
		if proxy != remoteIP {
			continue
		}
		if forwarded := r.Header.Get(HeaderForwardedFor); forwarded != "" {
			hops := strings.Split(forwarded, ",")
			return strings.TrimSpace(hops[len(hops)-1])
		}
		break
	}

	return remoteIP
}
