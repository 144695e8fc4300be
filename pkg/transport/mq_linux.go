//go:build linux

package transport

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/saworbit/iotrace/pkg/record"
)

// mqProjectID is the fixed project byte mixed into the queue key, shared
// with the collector so both sides derive the same queue from the path.
const mqProjectID = 'm'

// mqMessageType tags every record message on the queue.
const mqMessageType = int64(1)

// mtypeLen is the size of the native long message-type header.
const mtypeLen = 8

// MQTransport enqueues records on a SysV message queue whose key is derived
// from a filesystem path. Enqueue is non-blocking: a full or unavailable
// queue is a delivery failure, never a stall in the host process.
type MQTransport struct {
	breaker
	path string

	openOnce sync.Once
	qid      int
	openErr  error
}

// NewMQ returns a message-queue transport for the given path. The queue
// itself is opened lazily on first send.
func NewMQ(path string) (*MQTransport, error) {
	if path == "" {
		return nil, fmt.Errorf("transport: message queue path is empty")
	}
	return &MQTransport{path: path, qid: -1}, nil
}

// Send copies the record into a tagged message and enqueues it without
// blocking. Any failure trips the breaker permanently.
func (t *MQTransport) Send(r *record.Record) error {
	if t.Failed() {
		return ErrBreakerTripped
	}

	t.openOnce.Do(func() {
		t.qid, t.openErr = openQueue(t.path)
	})
	if t.openErr != nil {
		t.trip()
		return fmt.Errorf("open message queue at %s: %w", t.path, t.openErr)
	}

	buf := make([]byte, mtypeLen+record.Size)
	*(*int64)(unsafe.Pointer(&buf[0])) = mqMessageType
	copy(buf[mtypeLen:], r.Marshal())

	_, _, errno := unix.Syscall6(unix.SYS_MSGSND,
		uintptr(t.qid),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(record.Size),
		uintptr(unix.IPC_NOWAIT),
		0, 0)
	if errno != 0 {
		t.trip()
		return fmt.Errorf("msgsnd: %w", errno)
	}
	return nil
}

// OwnsFD always reports false; the queue is not a file descriptor the
// interception layer can observe.
func (t *MQTransport) OwnsFD(int) bool { return false }

// Close is a no-op; the queue outlives the process by design.
func (t *MQTransport) Close() error { return nil }

// MQReader is the collector-side counterpart of MQTransport.
type MQReader struct {
	qid int
}

// NewMQReader opens (creating if absent) the queue derived from path.
func NewMQReader(path string) (*MQReader, error) {
	qid, err := openQueue(path)
	if err != nil {
		return nil, fmt.Errorf("open message queue at %s: %w", path, err)
	}
	return &MQReader{qid: qid}, nil
}

// Receive blocks for the next tagged message and returns its raw payload.
func (q *MQReader) Receive() ([]byte, error) {
	return q.receive(0)
}

// Poll returns the next payload without blocking, or nil when the queue is
// empty.
func (q *MQReader) Poll() ([]byte, error) {
	payload, err := q.receive(unix.IPC_NOWAIT)
	if err == unix.ENOMSG {
		return nil, nil
	}
	return payload, err
}

func (q *MQReader) receive(flags int) ([]byte, error) {
	buf := make([]byte, mtypeLen+record.Size)
	n, _, errno := unix.Syscall6(unix.SYS_MSGRCV,
		uintptr(q.qid),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(record.Size),
		0, // any message type
		uintptr(flags),
		0)
	if errno != 0 {
		if errno == unix.ENOMSG {
			return nil, unix.ENOMSG
		}
		return nil, fmt.Errorf("msgrcv: %w", errno)
	}
	return buf[mtypeLen : mtypeLen+int(n)], nil
}

func openQueue(path string) (int, error) {
	key, err := pathKey(path, mqProjectID)
	if err != nil {
		return -1, err
	}
	qid, _, errno := unix.Syscall(unix.SYS_MSGGET,
		uintptr(key),
		uintptr(unix.IPC_CREAT|0o664),
		0)
	if errno != 0 {
		return -1, fmt.Errorf("msgget: %w", errno)
	}
	return int(qid), nil
}

// pathKey derives a SysV IPC key from a path the way ftok(3) does: low
// bits of the inode, low byte of the device, and the project id.
func pathKey(path string, proj byte) (int, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, fmt.Errorf("stat queue path: %w", err)
	}
	key := uint32(st.Ino&0xffff) | uint32(st.Dev&0xff)<<16 | uint32(proj)<<24
	return int(key), nil
}
