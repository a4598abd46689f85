// Package ratelimit throttles copy throughput with a token bucket that can
// be shared by every copy an executor performs.
package ratelimit

import (
	"context"
	"io"
	"sync"
	"time"
)

// minBurst keeps small limits from degenerating into tiny reads
const minBurst = 64 * 1024

// Limiter is a token bucket measured in bytes. A nil *Limiter never waits.
type Limiter struct {
	bytesPerSecond int64
	burst          int64

	mu     sync.Mutex
	tokens float64
	last   time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter creates a limiter allowing bytesPerSecond on average with bursts
// of one second worth of data (at least 64 KiB). It returns nil, meaning no
// limit, when bytesPerSecond is not positive.
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	burst := bytesPerSecond
	if burst < minBurst {
		burst = minBurst
	}

	return &Limiter{
		bytesPerSecond: bytesPerSecond,
		burst:          burst,
		tokens:         float64(burst),
		last:           time.Now(),
		now:            time.Now,
		sleep:          sleepContext,
	}
}

// Rate returns the configured bytes per second
func (l *Limiter) Rate() int64 {
	if l == nil {
		return 0
	}
	return l.bytesPerSecond
}

// Burst returns the largest amount that can be taken without waiting
func (l *Limiter) Burst() int64 {
	if l == nil {
		return 0
	}
	return l.burst
}

// Wait takes n bytes from the bucket, blocking while it is in debt.
// It returns early with the context error if ctx ends.
func (l *Limiter) Wait(ctx context.Context, n int64) error {
	if l == nil || n <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := l.now()
	l.tokens += now.Sub(l.last).Seconds() * float64(l.bytesPerSecond)
	if l.tokens > float64(l.burst) {
		l.tokens = float64(l.burst)
	}
	l.last = now
	l.tokens -= float64(n)
	deficit := -l.tokens
	l.mu.Unlock()

	if deficit <= 0 {
		return ctx.Err()
	}
	wait := time.Duration(deficit / float64(l.bytesPerSecond) * float64(time.Second))
	return l.sleep(ctx, wait)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Reader charges every read against a Limiter
type Reader struct {
	ctx     context.Context
	reader  io.Reader
	limiter *Limiter
}

// NewReader wraps reader. With a nil limiter reader is returned unchanged.
func NewReader(ctx context.Context, reader io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return reader
	}
	return &Reader{ctx: ctx, reader: reader, limiter: limiter}
}

// Read reads at most one burst and then pays for what was read
func (r *Reader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	if int64(len(p)) > r.limiter.burst {
		p = p[:r.limiter.burst]
	}

	n, err := r.reader.Read(p)
	if n > 0 {
		if werr := r.limiter.Wait(r.ctx, int64(n)); werr != nil {
			return n, werr
		}
	}
	return n, err
}
