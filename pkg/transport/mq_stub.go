//go:build !linux

package transport

import "github.com/saworbit/iotrace/pkg/record"

// MQTransport is unavailable outside Linux; the socket backend still works.
type MQTransport struct {
	breaker
}

// NewMQ reports ErrUnsupported on non-Linux platforms.
func NewMQ(string) (*MQTransport, error) { return nil, ErrUnsupported }

func (t *MQTransport) Send(*record.Record) error { return ErrUnsupported }
func (t *MQTransport) OwnsFD(int) bool           { return false }
func (t *MQTransport) Close() error              { return nil }

// MQReader is unavailable outside Linux.
type MQReader struct{}

// NewMQReader reports ErrUnsupported on non-Linux platforms.
func NewMQReader(string) (*MQReader, error) { return nil, ErrUnsupported }

func (q *MQReader) Receive() ([]byte, error) { return nil, ErrUnsupported }
func (q *MQReader) Poll() ([]byte, error)    { return nil, ErrUnsupported }
