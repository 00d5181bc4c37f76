package probers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/sergeii/mcscan/internal/core/entities/status"
	"github.com/sergeii/mcscan/internal/core/entities/target"
	"github.com/sergeii/mcscan/internal/metrics"
	"github.com/sergeii/mcscan/internal/prober/probers/statusprober"
)

var ErrProbeAborted = errors.New("probe aborted before it started")

type Prober interface {
	Probe(context.Context, target.Target, time.Duration) (status.ServerStatus, error)
}

type Func func(context.Context, target.Target, time.Duration) (status.ServerStatus, error)

func (f Func) Probe(ctx context.Context, tgt target.Target, timeout time.Duration) (status.ServerStatus, error) {
	return f(ctx, tgt, timeout)
}

// WithRetries retries probes that failed to reach the server.
// The n-th retry is delayed by backoff * 2^(n-1)
func WithRetries(
	p Prober,
	retries int,
	backoff time.Duration,
	clock clockwork.Clock,
	metrics *metrics.Collector,
) Prober {
	if retries <= 0 {
		return p
	}
	return Func(func(ctx context.Context, tgt target.Target, timeout time.Duration) (status.ServerStatus, error) {
		svrStatus, err := p.Probe(ctx, tgt, timeout)
		for attempt := 0; attempt < retries; attempt++ {
			if err == nil || !errors.Is(err, statusprober.ErrUnreachable) || ctx.Err() != nil {
				break
			}
			select {
			case <-ctx.Done():
				return status.Blank, err
			case <-clock.After(backoff << attempt):
			}
			metrics.ProbeRetries.Inc()
			svrStatus, err = p.Probe(ctx, tgt, timeout)
		}
		return svrStatus, err
	})
}

// WithRateLimit delays every probe until the limiter allows another connection.
// A nil limiter leaves the prober as is
func WithRateLimit(p Prober, limiter *rate.Limiter) Prober {
	if limiter == nil {
		return p
	}
	return Func(func(ctx context.Context, tgt target.Target, timeout time.Duration) (status.ServerStatus, error) {
		if err := limiter.Wait(ctx); err != nil {
			return status.Blank, fmt.Errorf("%w: %w", ErrProbeAborted, err)
		}
		return p.Probe(ctx, tgt, timeout)
	})
}

// NewLimiter returns a limiter allowing perSecond probes per second,
// or nil when perSecond is not positive
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
}
