// Package transport delivers formatted OWS1 payloads to their destination.
// The core sink POSTs one JSON document per record to a collection endpoint;
// wrappers add rate capping, and a console sink covers local development.
package transport

import (
	"context"
	"errors"
	"fmt"
)

// Sink accepts one formatted payload per call and attempts delivery.
// Implementations must be safe for concurrent use. Send returns a
// *DeliveryError on failure; callers report it through their diagnostic
// channel and move on. There is no retry and no ordering guarantee.
type Sink interface {
	// Name identifies the sink in diagnostics and metrics.
	Name() string
	Send(ctx context.Context, payload []byte) error
	Close() error
}

// ErrRateLimited marks a record dropped by a rate-capped sink.
var ErrRateLimited = errors.New("record rate limit exceeded")

// DeliveryError reports a failed delivery attempt. It is never returned to
// a log-call site; the logger reports it once per attempt and discards the
// record.
type DeliveryError struct {
	Sink string
	// StatusCode is the HTTP status when the endpoint answered with a
	// non-success status, 0 otherwise.
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s delivery failed: endpoint returned status %d", e.Sink, e.StatusCode)
	}
	return fmt.Sprintf("%s delivery failed: %v", e.Sink, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
