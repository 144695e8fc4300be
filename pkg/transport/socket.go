package transport

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/saworbit/iotrace/pkg/record"
)

// CollectorPort is the well-known loopback port the collector listens on.
const CollectorPort = 8001

// DefaultCollectorAddr is the loopback-only collector address. Records are
// never routed off-host: the transport sits in the monitored process's data
// path and a remote dependency there is an unacceptable failure mode.
const DefaultCollectorAddr = "127.0.0.1:8001"

const (
	dialTimeout = 1 * time.Second
	ackTimeout  = 100 * time.Millisecond
)

// SocketTransport sends each record on a fresh short-lived loopback TCP
// connection: 10-byte ASCII length header, raw packed record, close.
type SocketTransport struct {
	breaker
	addr string

	// descriptor of the in-flight connection, FDNone between sends;
	// consulted by the recorder to skip self-observation.
	liveFD atomic.Int32
}

// NewSocket returns a socket transport. An empty addr selects the default
// loopback collector address.
func NewSocket(addr string) *SocketTransport {
	if addr == "" {
		addr = DefaultCollectorAddr
	}
	t := &SocketTransport{addr: addr}
	t.liveFD.Store(record.FDNone)
	return t
}

// Send connects, frames and writes the record, then reads a best-effort
// acknowledgment. Any failure trips the breaker permanently.
func (t *SocketTransport) Send(r *record.Record) error {
	if t.Failed() {
		return ErrBreakerTripped
	}

	conn, err := net.DialTimeout("tcp", t.addr, dialTimeout)
	if err != nil {
		t.trip()
		return fmt.Errorf("dial collector %s: %w", t.addr, err)
	}
	defer func() {
		t.liveFD.Store(record.FDNone)
		conn.Close()
	}()

	if tc, ok := conn.(*net.TCPConn); ok {
		// no coalescing delay; the record must leave before the call returns
		_ = tc.SetNoDelay(true)
		if sc, scErr := tc.SyscallConn(); scErr == nil {
			_ = sc.Control(func(fd uintptr) { t.liveFD.Store(int32(fd)) })
		}
	}

	if err := WriteFrame(conn, r.Marshal()); err != nil {
		t.trip()
		return err
	}

	// the collector replies with a short ack; correctness does not depend
	// on it, so a missing ack is not a failure
	var ack [2]byte
	_ = conn.SetReadDeadline(time.Now().Add(ackTimeout))
	_, _ = conn.Read(ack[:])

	return nil
}

// OwnsFD reports whether fd is the transport's current outbound socket.
func (t *SocketTransport) OwnsFD(fd int) bool {
	return fd != record.FDNone && int32(fd) == t.liveFD.Load()
}

// Close is a no-op; connections are per-send.
func (t *SocketTransport) Close() error { return nil }
