package transport

import (
	"context"
	"io"
	"os"
	"sync"
)

// ConsoleSink writes each payload as one line to a writer, stderr by
// default. It is the development fallback when no collection endpoint is
// configured.
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleSink creates a sink writing to w; a nil w means stderr.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleSink{w: w}
}

// Name implements Sink.
func (s *ConsoleSink) Name() string { return "console" }

// Send writes the payload followed by a newline.
func (s *ConsoleSink) Send(_ context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(payload); err != nil {
		return &DeliveryError{Sink: s.Name(), Err: err}
	}
	if _, err := s.w.Write([]byte{'\n'}); err != nil {
		return &DeliveryError{Sink: s.Name(), Err: err}
	}
	return nil
}

// Close implements Sink.
func (s *ConsoleSink) Close() error { return nil }
