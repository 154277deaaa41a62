package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/orchardws/owslog/metrics"
)

const sinkNameHTTP = "http"

// HTTPSink delivers payloads with one HTTP(S) POST per record. The
// underlying http.Client is shared across calls so connections are reused;
// each attempt is bounded by the caller's context.
type HTTPSink struct {
	endpoint string
	client   *http.Client
}

// HTTPSinkOption configures an HTTPSink.
type HTTPSinkOption func(*HTTPSink)

// WithHTTPClient replaces the default client, e.g. to set a proxy or
// custom TLS configuration.
func WithHTTPClient(client *http.Client) HTTPSinkOption {
	return func(s *HTTPSink) {
		s.client = client
	}
}

// NewHTTPSink creates a sink POSTing to endpoint. The endpoint is assumed
// to be validated by config.Config.Validate.
func NewHTTPSink(endpoint string, opts ...HTTPSinkOption) *HTTPSink {
	s := &HTTPSink{
		endpoint: endpoint,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        16,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Sink.
func (s *HTTPSink) Name() string { return sinkNameHTTP }

// Send POSTs one payload. A network error, context timeout, or non-2xx
// response yields a *DeliveryError; the payload is not retried.
func (s *HTTPSink) Send(ctx context.Context, payload []byte) error {
	start := time.Now()
	err := s.post(ctx, payload)
	metrics.DeliveryDuration.WithLabelValues(sinkNameHTTP).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DeliveriesTotal.WithLabelValues(sinkNameHTTP, "failure").Inc()
		return err
	}
	metrics.DeliveriesTotal.WithLabelValues(sinkNameHTTP, "success").Inc()
	return nil
}

func (s *HTTPSink) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return &DeliveryError{Sink: sinkNameHTTP, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &DeliveryError{Sink: sinkNameHTTP, Err: err}
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeliveryError{Sink: sinkNameHTTP, StatusCode: resp.StatusCode}
	}
	return nil
}

// Close releases idle connections.
func (s *HTTPSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
