package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// TokenLimiter bounds the number of model tokens spent per minute.
type TokenLimiter struct {
	mu          sync.Mutex
	maxPerMin   int
	remaining   int
	windowStart time.Time
	now         func() time.Time
}

// NewTokenLimiter creates a limiter allowing maxPerMinute tokens per rolling minute window.
func NewTokenLimiter(maxPerMinute int) *TokenLimiter {
	return &TokenLimiter{
		maxPerMin:   maxPerMinute,
		remaining:   maxPerMinute,
		windowStart: time.Now(),
		now:         time.Now,
	}
}

// Wait blocks until tokens are available in the current window or ctx is done.
func (l *TokenLimiter) Wait(ctx context.Context, tokens int) error {
	if l.maxPerMin <= 0 {
		return nil
	}
	if tokens > l.maxPerMin {
		return fmt.Errorf("request needs %d tokens, limit is %d per minute", tokens, l.maxPerMin)
	}

	for {
		l.mu.Lock()
		l.refill()
		if l.remaining >= tokens {
			l.remaining -= tokens
			l.mu.Unlock()
			return nil
		}
		wait := time.Minute - l.now().Sub(l.windowStart)
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// GetRemaining returns the tokens left in the current window.
func (l *TokenLimiter) GetRemaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	return l.remaining
}

func (l *TokenLimiter) refill() {
	if l.now().Sub(l.windowStart) >= time.Minute {
		l.windowStart = l.now()
		l.remaining = l.maxPerMin
	}
}
