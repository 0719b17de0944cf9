package restapi

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/cbmason/trainspotting/internal/clock"
	"github.com/cbmason/trainspotting/internal/models"
)

const (
	limiterIdleTimeout = 10 * time.Minute
	limiterSweepPeriod = 5 * time.Minute
)

// rateLimitClient is one caller's limiter and when it was last used.
type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // Unix nanoseconds
}

// RateLimitMiddleware limits requests per caller. Callers are identified
// by API key, or by remote address when no key is sent.
type RateLimitMiddleware struct {
	mu         sync.RWMutex
	clients    map[string]*rateLimitClient
	limit      rate.Limit
	burst      int
	exemptKeys map[string]bool
	clock      clock.Clock

	sweepTicker *time.Ticker
	stopChan    chan struct{}
	stopOnce    sync.Once
}

// NewRateLimitMiddleware allows requestsPerInterval requests per interval
// per caller, with the same burst. Zero blocks every request and a
// negative value disables limiting.
func NewRateLimitMiddleware(requestsPerInterval int, interval time.Duration, exemptKeys []string, c clock.Clock) *RateLimitMiddleware {
	var limit rate.Limit
	switch {
	case requestsPerInterval < 0:
		limit = rate.Inf
	case requestsPerInterval == 0:
		limit = 0
	default:
		limit = rate.Every(interval / time.Duration(requestsPerInterval))
	}
	if c == nil {
		c = clock.RealClock{}
	}

	exempt := make(map[string]bool, len(exemptKeys))
	for _, key := range exemptKeys {
		if key = strings.TrimSpace(key); key != "" {
			exempt[key] = true
		}
	}

	rl := &RateLimitMiddleware{
		clients:     make(map[string]*rateLimitClient),
		limit:       limit,
		burst:       max(requestsPerInterval, 0),
		exemptKeys:  exempt,
		clock:       c,
		sweepTicker: time.NewTicker(limiterSweepPeriod),
		stopChan:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Handler returns the HTTP middleware.
func (rl *RateLimitMiddleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.URL.Query().Get("key")
			if rl.exemptKeys[key] {
				next.ServeHTTP(w, r)
				return
			}
			if !rl.limiterFor(callerID(r, key)).Allow() {
				rl.sendRateLimitExceeded(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func callerID(r *http.Request, key string) string {
	if key != "" {
		return "key:" + key
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}

func (rl *RateLimitMiddleware) limiterFor(id string) *rate.Limiter {
	now := rl.clock.Now().UnixNano()

	rl.mu.RLock()
	client, ok := rl.clients[id]
	rl.mu.RUnlock()
	if ok {
		client.lastSeen.Store(now)
		return client.limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if client, ok = rl.clients[id]; !ok {
		client = &rateLimitClient{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[id] = client
	}
	client.lastSeen.Store(now)
	return client.limiter
}

func (rl *RateLimitMiddleware) retryAfter() time.Duration {
	switch rl.limit {
	case 0:
		return time.Hour
	case rate.Inf:
		return time.Second
	default:
		return max(time.Second, time.Duration(float64(time.Second)/float64(rl.limit)))
	}
}

func (rl *RateLimitMiddleware) sendRateLimitExceeded(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(int(rl.retryAfter().Seconds())))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.WriteHeader(http.StatusTooManyRequests)

	response := models.ResponseModel{
		Code:        http.StatusTooManyRequests,
		CurrentTime: models.ResponseCurrentTime(rl.clock),
		Text:        "Rate limit exceeded. Please try again later.",
		Version:     2,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("failed to encode rate limit response", "error", err)
	}
}

// sweep drops limiters idle for longer than limiterIdleTimeout.
func (rl *RateLimitMiddleware) sweep() {
	cutoff := rl.clock.Now().Add(-limiterIdleTimeout).UnixNano()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for id, client := range rl.clients {
		if client.lastSeen.Load() < cutoff {
			delete(rl.clients, id)
		}
	}
}

func (rl *RateLimitMiddleware) sweepLoop() {
	for {
		select {
		case <-rl.sweepTicker.C:
			rl.sweep()
		case <-rl.stopChan:
			return
		}
	}
}

// Stop ends the sweep goroutine. Safe to call multiple times.
func (rl *RateLimitMiddleware) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopChan)
		rl.sweepTicker.Stop()
	})
}
