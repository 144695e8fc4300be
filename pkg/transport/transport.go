// Package transport delivers packed Records to a collector over one of two
// interchangeable local IPC backends: a SysV message queue keyed by a
// filesystem path, or short-lived loopback TCP connections with a fixed
// ASCII length header.
//
// Both backends share one failure policy: the first delivery failure trips a
// sticky breaker and every later Send returns immediately without touching
// the network. The monitored process pays the connection cost at most once
// per lifetime; recovery only happens on process restart.
package transport

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/saworbit/iotrace/pkg/record"
)

// ErrBreakerTripped is returned by Send once a previous delivery has failed.
var ErrBreakerTripped = errors.New("transport: breaker tripped, delivery disabled")

// ErrUnsupported is returned when a backend is not available on this platform.
var ErrUnsupported = errors.New("transport: backend not supported on this platform")

// Transport hands Records to the collector. Implementations never block
// beyond the ambient timeout of the underlying IPC and never retry.
type Transport interface {
	// Send delivers one record, best effort.
	Send(*record.Record) error
	// OwnsFD reports whether fd is the transport's own outbound descriptor,
	// so the recorder can exclude self-observation.
	OwnsFD(fd int) bool
	// Failed reports whether the sticky breaker has tripped.
	Failed() bool
	Close() error
}

// New selects the backend: a non-empty mqPath picks the message queue,
// otherwise records go to the loopback socket collector.
func New(mqPath string) (Transport, error) {
	if mqPath != "" {
		return NewMQ(mqPath)
	}
	return NewSocket(""), nil
}

// breaker is the sticky failure counter shared by both backends. Any
// nonzero count disables all future sends for the life of the process.
type breaker struct {
	failures atomic.Int32
}

func (b *breaker) trip() { b.failures.Add(1) }

// Failed reports whether any delivery has ever failed.
func (b *breaker) Failed() bool { return b.failures.Load() > 0 }

// HeaderLen is the width of the ASCII decimal length header that precedes
// each payload on the socket backend.
const HeaderLen = 10

// WriteFrame writes the 10-byte ASCII length header followed by the payload.
func WriteFrame(w io.Writer, payload []byte) error {
	var header [HeaderLen]byte
	copy(header[:], strconv.Itoa(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed payload written by WriteFrame.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [HeaderLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	text := strings.TrimRight(string(header[:]), "\x00 ")
	n, err := strconv.Atoi(text)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("bad frame header %q", text)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}
	return payload, nil
}
