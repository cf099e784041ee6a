package http

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	rateLimitWindow   = time.Minute
	rateLimitRequests = 60
	rateLimitIdle     = 10 * time.Minute
)

// rateLimiter counts write requests per client IP in fixed one minute windows.
type rateLimiter struct {
	mu       sync.Mutex
	windows  map[string]*clientWindow
	rejected atomic.Int64
	stopOnce sync.Once
	stopCh   chan struct{}
}

type clientWindow struct {
	start    time.Time
	lastSeen time.Time
	count    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		windows: make(map[string]*clientWindow),
		stopCh:  make(chan struct{}),
	}
	go rl.sweep(5 * time.Minute)
	return rl
}

func (rl *rateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			rl.evictIdle(now)
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *rateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, w := range rl.windows {
		if now.Sub(w.lastSeen) > rateLimitIdle {
			delete(rl.windows, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// allow reports whether ip may make another request at now.
func (rl *rateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[ip]
	if !ok || now.Sub(w.start) >= rateLimitWindow {
		rl.windows[ip] = &clientWindow{start: now, lastSeen: now, count: 1}
		return true
	}
	w.lastSeen = now
	w.count++
	if w.count > rateLimitRequests {
		rl.rejected.Add(1)
		return false
	}
	return true
}
