package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"lyrics-downloader-go/logcolors"
	"lyrics-downloader-go/middleware"
	"lyrics-downloader-go/stats"
)

func limitMiddleware(next http.Handler, limiter *middleware.IPRateLimiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ipLimiter := limiter.GetLimiter(r.RemoteAddr)

		if !ipLimiter.Allow() {
			stats.Get().RecordRateLimitRejected()
			log.Warnf("%s IP %s exceeded rate limit", logcolors.LogRateLimit, r.RemoteAddr)
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.GetLimit()))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "1")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.GetLimit()))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", limiter.Tokens(r.RemoteAddr)))
		ctx := context.WithValue(r.Context(), rateLimitTypeKey, "normal")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// startSchedulers runs the periodic maintenance work: sweeping expired
// cache entries and dropping finished jobs past their retention.
func startSchedulers() *cron.Cron {
	c := cron.New()

	interval := fmt.Sprintf("@every %ds", conf.Configuration.CacheInvalidationIntervalInSeconds)
	c.AddFunc(interval, func() {
		invalidateLyricsCache()
		if removed := catalogCache.Sweep(); removed > 0 {
			log.Infof("%s Swept %d expired catalog entries", logcolors.LogCacheSweep, removed)
		}
	})

	c.AddFunc("@every 1m", func() {
		jobManager.Sweep()
	})

	c.Start()
	log.Infof("%s Maintenance schedulers started (cache sweep %s)", logcolors.LogServer, interval)
	return c
}
