package transport

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/orchardws/owslog/metrics"
)

// RateLimitedSink caps how many records per second reach the inner sink.
// Records over budget are dropped, counted, and reported as a delivery
// failure with ErrRateLimited. It uses a simple fixed-rate limiter shared
// by all callers.
type RateLimitedSink struct {
	inner   Sink
	limiter *rate.Limiter
}

// NewRateLimitedSink wraps inner with a limiter allowing perSecond records
// with the given burst.
func NewRateLimitedSink(inner Sink, perSecond float64, burst int) *RateLimitedSink {
	return &RateLimitedSink{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Name implements Sink.
func (s *RateLimitedSink) Name() string { return s.inner.Name() }

// Send forwards the payload unless the rate budget is exhausted.
func (s *RateLimitedSink) Send(ctx context.Context, payload []byte) error {
	if !s.limiter.Allow() {
		metrics.RecordsDroppedTotal.WithLabelValues("rate_limited").Inc()
		return &DeliveryError{Sink: s.Name(), Err: ErrRateLimited}
	}
	return s.inner.Send(ctx, payload)
}

// Close implements Sink.
func (s *RateLimitedSink) Close() error { return s.inner.Close() }
