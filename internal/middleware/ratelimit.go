package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
}

func newIPLimiter(r rate.Limit, burst int) *ipLimiter {
	return &ipLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    burst,
	}
}

func (ipl *ipLimiter) get(ip string, now time.Time) *rate.Limiter {
	ipl.mu.Lock()
	defer ipl.mu.Unlock()

	// Forget idle clients so the map does not grow without bound.
	for k, v := range ipl.visitors {
		if now.Sub(v.lastSeen) > 10*time.Minute {
			delete(ipl.visitors, k)
		}
	}

	v, ok := ipl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(ipl.rate, ipl.burst)}
		ipl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// RateLimit limits requests per client IP. Put chi's RealIP in front of it
// when running behind a proxy.
func RateLimit(perMinute, burst int) func(http.Handler) http.Handler {
	il := newIPLimiter(rate.Every(time.Minute/time.Duration(max(perMinute, 1))), burst)
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			if host, _, err := net.SplitHostPort(ip); err == nil {
				ip = host
			}
			if !il.get(ip, time.Now()).Allow() {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			h.ServeHTTP(w, r)
		})
	}
}
