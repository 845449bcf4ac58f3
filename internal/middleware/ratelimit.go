package middleware

import (
	"net/http"
	"sync"
	"time"

	"clipforge/internal/quota"
)

type bucket struct {
	count int
	until time.Time
}

// RateLimit throttles request bursts per caller fingerprint. This is distinct
// from the generation quota: the quota counts lifetime successes, this only
// smooths request rates.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	var mu sync.Mutex
	buckets := make(map[string]*bucket)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := quota.FromRequest(r).Key()
			mu.Lock()
			b, ok := buckets[key]
			now := time.Now()
			if !ok || now.After(b.until) {
				b = &bucket{count: 0, until: now.Add(per)}
				buckets[key] = b
			}
			if b.count >= limit {
				mu.Unlock()
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			b.count++
			mu.Unlock()
			next.ServeHTTP(w, r)
		})
	}
}
