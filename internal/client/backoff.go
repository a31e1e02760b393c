package client

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

var errAttemptsSpent = errors.New("client: dial attempts spent")

// BackoffConfig spaces dial attempts. Each delay grows by Multiplier up to
// MaxDelay; with Jitter the delay is drawn from its upper half.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Delay returns the pause after failed attempt n (1-based). spread in [0,1)
// picks the point inside the jitter window and is ignored without Jitter.
func (b BackoffConfig) Delay(attempt int, spread float64) time.Duration {
	d := b.InitialDelay
	if d <= 0 {
		return 0
	}
	growth := b.Multiplier
	if growth < 1 {
		growth = 1
	}
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * growth)
		if b.MaxDelay > 0 && d >= b.MaxDelay {
			break
		}
	}
	if b.MaxDelay > 0 && d > b.MaxDelay {
		d = b.MaxDelay
	}
	if b.Jitter {
		half := d / 2
		d = half + time.Duration(float64(d-half)*spread)
	}
	return d
}

// dialRetry tracks one Dial's attempt budget.
type dialRetry struct {
	backoff  BackoffConfig
	attempts int
	rng      *rand.Rand
}

func newDialRetry(cfg Config) *dialRetry {
	return &dialRetry{
		backoff:  cfg.Backoff,
		attempts: cfg.MaxAttempts,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// wait blocks before the attempt after failed attempt n. It returns
// errAttemptsSpent once the budget is used and ctx.Err() if ctx ends first.
func (r *dialRetry) wait(ctx context.Context, attempt int) (time.Duration, error) {
	if attempt >= r.attempts {
		return 0, errAttemptsSpent
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	delay := r.backoff.Delay(attempt, r.rng.Float64())
	if delay <= 0 {
		return 0, nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return delay, ctx.Err()
	case <-timer.C:
		return delay, nil
	}
}
