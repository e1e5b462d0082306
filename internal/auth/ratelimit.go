package auth

import (
	"strings"
	"sync"
	"time"
)

// RateLimitConfig tunes the login limiter. Zero fields take the defaults
// from DefaultRateLimitConfig.
type RateLimitConfig struct {
	MaxAttempts     int
	WindowDuration  time.Duration
	LockoutDuration time.Duration
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig allows 5 failures per 15 minutes and then locks the
// IP+email pair out for 30 minutes.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxAttempts:     5,
		WindowDuration:  15 * time.Minute,
		LockoutDuration: 30 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	d := DefaultRateLimitConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.WindowDuration <= 0 {
		c.WindowDuration = d.WindowDuration
	}
	if c.LockoutDuration <= 0 {
		c.LockoutDuration = d.LockoutDuration
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	return c
}

// failures is the state kept for one IP+email pair. The window starts at the
// first failure.
type failures struct {
	count       int
	since       time.Time
	lockedUntil time.Time
}

func (f *failures) locked(now time.Time) bool {
	return now.Before(f.lockedUntil)
}

// RateLimiter counts failed logins per client IP and email and locks the pair
// out once the limit is reached within the window.
type RateLimiter struct {
	cfg RateLimitConfig

	mu       sync.RWMutex
	attempts map[string]*failures

	done     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter starts a limiter and its background sweeper. Call Stop to
// end the sweeper.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		cfg:      cfg.withDefaults(),
		attempts: make(map[string]*failures),
		done:     make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Stop ends the background sweeper. Further calls do nothing.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// Email case is ignored for counting even though login matches it exactly.
func limiterKey(ip, email string) string {
	return ip + "|" + strings.ToLower(email)
}

// Allow reports whether a login attempt may proceed and, if not, how long the
// caller should wait.
func (rl *RateLimiter) Allow(ip, email string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.RLock()
	defer rl.mu.RUnlock()

	f, ok := rl.attempts[limiterKey(ip, email)]
	switch {
	case !ok:
		return true, 0
	case f.locked(now):
		return false, f.lockedUntil.Sub(now)
	case now.Sub(f.since) > rl.cfg.WindowDuration:
		return true, 0
	case f.count < rl.cfg.MaxAttempts:
		return true, 0
	}
	return false, rl.cfg.LockoutDuration
}

// RecordFailure counts a failed attempt and reports whether it triggered a
// lockout.
func (rl *RateLimiter) RecordFailure(ip, email string) (bool, time.Duration) {
	now := time.Now()
	key := limiterKey(ip, email)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	f, ok := rl.attempts[key]
	if !ok || now.Sub(f.since) > rl.cfg.WindowDuration {
		f = &failures{since: now}
		rl.attempts[key] = f
	}
	f.count++

	if f.count < rl.cfg.MaxAttempts {
		return false, 0
	}
	f.lockedUntil = now.Add(rl.cfg.LockoutDuration)
	return true, rl.cfg.LockoutDuration
}

// RecordSuccess forgets earlier failures for the pair.
func (rl *RateLimiter) RecordSuccess(ip, email string) {
	rl.mu.Lock()
	delete(rl.attempts, limiterKey(ip, email))
	rl.mu.Unlock()
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.done:
			return
		}
	}
}

// cleanup drops pairs whose window and lockout have both passed.
func (rl *RateLimiter) cleanup() {
	now := time.Now()
	horizon := rl.cfg.WindowDuration + rl.cfg.LockoutDuration

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, f := range rl.attempts {
		if now.Sub(f.since) > horizon && !f.locked(now) {
			delete(rl.attempts, key)
		}
	}
}
