package netsuite

import (
	"context"
	"sync"
	"time"
)

// RequestLimiter throttles outbound ERP calls. It enforces two independent
// constraints: a cap on requests in any rolling sixty second window, and a
// minimum delay between consecutive requests. NetSuite meters both
// concurrency and per-minute volume, so a burst that fits the window can
// still trip the remote limiter without the interval floor.
type RequestLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	minInterval       time.Duration

	// sent holds the send times still inside the rolling window.
	sent []time.Time
	last time.Time

	now func() time.Time
}

const limiterWindow = time.Minute

// NewRequestLimiter creates a limiter. requestsPerMinute must be positive;
// minInterval of zero disables the interval floor.
func NewRequestLimiter(requestsPerMinute int, minInterval time.Duration) *RequestLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	return &RequestLimiter{
		requestsPerMinute: requestsPerMinute,
		minInterval:       minInterval,
		sent:              make([]time.Time, 0, requestsPerMinute),
		now:               time.Now,
	}
}

// Acquire blocks until a request slot is available or ctx is done. On
// success the slot is consumed immediately; the caller must issue the
// request without further delay.
func (l *RequestLimiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		wait := l.waitTime(now)
		if wait <= 0 {
			l.record(now)
			l.mu.Unlock()
			return nil
		}
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

// waitTime returns how long the caller must wait before the next slot.
// Caller holds l.mu.
func (l *RequestLimiter) waitTime(now time.Time) time.Duration {
	var wait time.Duration

	if l.minInterval > 0 && !l.last.IsZero() {
		if d := l.minInterval - now.Sub(l.last); d > wait {
			wait = d
		}
	}

	l.evict(now)
	if len(l.sent) >= l.requestsPerMinute {
		// The oldest request leaves the window first.
		if d := l.sent[0].Add(limiterWindow).Sub(now); d > wait {
			wait = d
		}
	}

	return wait
}

// record marks a request as sent. Caller holds l.mu.
func (l *RequestLimiter) record(now time.Time) {
	l.sent = append(l.sent, now)
	l.last = now
}

// evict drops send times that left the rolling window. Caller holds l.mu.
func (l *RequestLimiter) evict(now time.Time) {
	cutoff := now.Add(-limiterWindow)
	i := 0
	for i < len(l.sent) && !l.sent[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.sent = append(l.sent[:0], l.sent[i:]...)
	}
}
