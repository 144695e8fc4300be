//go:build linux

package interpose

import (
	"bytes"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/saworbit/iotrace/pkg/monitor"
	"github.com/saworbit/iotrace/pkg/record"
	"github.com/saworbit/iotrace/pkg/taxonomy"
)

type captureTransport struct {
	sent []*record.Record
}

func (c *captureTransport) Send(r *record.Record) error { c.sent = append(c.sent, r); return nil }
func (c *captureTransport) OwnsFD(fd int) bool          { return false }
func (c *captureTransport) Failed() bool                { return false }
func (c *captureTransport) Close() error                { return nil }

// last returns the most recent record with the given op, or fails the test.
func (c *captureTransport) last(t *testing.T, op taxonomy.Operation) *record.Record {
	t.Helper()
	for i := len(c.sent) - 1; i >= 0; i-- {
		if taxonomy.Operation(c.sent[i].Op) == op {
			return c.sent[i]
		}
	}
	t.Fatalf("no %s record captured", op)
	return nil
}

func testFS(t *testing.T, o *origin) (*FS, *captureTransport) {
	t.Helper()
	tr := &captureTransport{}
	mon, err := monitor.Attach(&monitor.Config{Facility: "test", Domains: "ALL"}, tr)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	return newWithOrigin(mon, o), tr
}

func TestOpenTransparency(t *testing.T) {
	var gotPath string
	var gotFlags int
	o := &origin{
		open: func(path string, flags int, mode uint32) (int, error) {
			gotPath, gotFlags = path, flags
			return 7, nil
		},
	}
	fs, tr := testFS(t, o)

	fd, err := fs.Open("/data/file.bin", unix.O_RDWR, 0o644)
	if err != nil || fd != 7 {
		t.Fatalf("Open = (%d, %v), want (7, nil)", fd, err)
	}
	if gotPath != "/data/file.bin" || gotFlags != unix.O_RDWR {
		t.Errorf("original saw (%q, %#x)", gotPath, gotFlags)
	}

	rec := tr.last(t, taxonomy.Open)
	if rec.FD != 7 || rec.GetS1() != "/data/file.bin" || rec.ErrorCode != 0 {
		t.Errorf("record = fd %d s1 %q err %d", rec.FD, rec.GetS1(), rec.ErrorCode)
	}
}

func TestFailedOpenIsRecorded(t *testing.T) {
	o := &origin{
		open: func(path string, flags int, mode uint32) (int, error) {
			return -1, unix.ENOENT
		},
	}
	fs, tr := testFS(t, o)

	fd, err := fs.Open("/no/such", unix.O_RDONLY, 0)
	if err != unix.ENOENT || fd != -1 {
		t.Fatalf("Open = (%d, %v), want (-1, ENOENT)", fd, err)
	}

	rec := tr.last(t, taxonomy.Open)
	if rec.FD != record.FDNone {
		t.Errorf("failed open fd = %d, want %d", rec.FD, record.FDNone)
	}
	if rec.ErrorCode != int32(unix.ENOENT) {
		t.Errorf("errcode = %d, want %d", rec.ErrorCode, int32(unix.ENOENT))
	}
}

func TestReadWriteBytes(t *testing.T) {
	o := &origin{
		read: func(fd int, p []byte) (int, error) {
			return copy(p, "12345"), nil
		},
		write: func(fd int, p []byte) (int, error) {
			return len(p), nil
		},
	}
	fs, tr := testFS(t, o)

	buf := make([]byte, 16)
	n, err := fs.Read(9, buf)
	if n != 5 || err != nil {
		t.Fatalf("Read = (%d, %v)", n, err)
	}
	if rec := tr.last(t, taxonomy.Read); rec.Bytes != 5 || rec.FD != 9 {
		t.Errorf("read record bytes %d fd %d", rec.Bytes, rec.FD)
	}

	if _, err := fs.Write(9, []byte("abcdefg")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if rec := tr.last(t, taxonomy.Write); rec.Bytes != 7 {
		t.Errorf("write record bytes = %d, want 7", rec.Bytes)
	}
}

func TestFailedReadReportsZeroBytes(t *testing.T) {
	o := &origin{
		read: func(fd int, p []byte) (int, error) {
			return -1, unix.EBADF
		},
	}
	fs, tr := testFS(t, o)

	if _, err := fs.Read(9, make([]byte, 8)); err != unix.EBADF {
		t.Fatalf("Read error = %v, want EBADF", err)
	}
	rec := tr.last(t, taxonomy.Read)
	if rec.Bytes != 0 || rec.ErrorCode != int32(unix.EBADF) {
		t.Errorf("record bytes %d errcode %d", rec.Bytes, rec.ErrorCode)
	}
}

func TestFallocateBytesConvention(t *testing.T) {
	var failNext bool
	o := &origin{
		fallocate: func(fd int, mode uint32, off, length int64) error {
			if failNext {
				return unix.ENOSPC
			}
			return nil
		},
	}
	fs, tr := testFS(t, o)

	if err := fs.Fallocate(6, 0, 0, 4096); err != nil {
		t.Fatalf("Fallocate: %v", err)
	}
	if rec := tr.last(t, taxonomy.Allocate); rec.Bytes != 4096 {
		t.Errorf("successful fallocate bytes = %d, want 4096", rec.Bytes)
	}

	failNext = true
	if err := fs.Fallocate(6, 0, 0, 4096); err != unix.ENOSPC {
		t.Fatalf("Fallocate error = %v, want ENOSPC", err)
	}
	rec := tr.last(t, taxonomy.Allocate)
	if rec.Bytes != 0 || rec.ErrorCode != int32(unix.ENOSPC) {
		t.Errorf("failed fallocate bytes %d errcode %d", rec.Bytes, rec.ErrorCode)
	}
}

func TestRenameArguments(t *testing.T) {
	o := &origin{
		rename: func(oldpath, newpath string) error { return nil },
	}
	fs, tr := testFS(t, o)

	if err := fs.Rename("/a/old", "/a/new"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	rec := tr.last(t, taxonomy.Rename)
	if rec.GetS1() != "/a/old" || rec.GetS2() != "/a/new" {
		t.Errorf("rename record s1 %q s2 %q", rec.GetS1(), rec.GetS2())
	}
}

func TestSyncHasNoDescriptor(t *testing.T) {
	o := &origin{sync: func() {}}
	fs, tr := testFS(t, o)

	fs.Sync()
	if rec := tr.last(t, taxonomy.Sync); rec.FD != record.FDNone {
		t.Errorf("sync record fd = %d, want %d", rec.FD, record.FDNone)
	}
}

func TestErrnoOf(t *testing.T) {
	if got := errnoOf(nil); got != 0 {
		t.Errorf("errnoOf(nil) = %d", got)
	}
	if got := errnoOf(unix.EACCES); got != int(unix.EACCES) {
		t.Errorf("errnoOf(EACCES) = %d", got)
	}
	if got := errnoOf(bytes.ErrTooLarge); got != -1 {
		t.Errorf("errnoOf(non-errno) = %d, want -1", got)
	}
}

// End-to-end against the real filesystem.
func TestRealFilesystemSmoke(t *testing.T) {
	tr := &captureTransport{}
	mon, err := monitor.Attach(&monitor.Config{Facility: "test", Domains: "ALL"}, tr)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	fs, err := New(mon)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path := filepath.Join(t.TempDir(), "smoke.txt")
	fd, err := fs.Open(path, unix.O_CREAT|unix.O_RDWR, 0o644)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	payload := []byte("payload\n")
	if n, err := fs.Write(fd, payload); err != nil || n != len(payload) {
		t.Fatalf("Write = (%d, %v)", n, err)
	}
	if _, err := fs.Seek(fd, 0, unix.SEEK_SET); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	buf := make([]byte, len(payload))
	if n, err := fs.Read(fd, buf); err != nil || n != len(payload) {
		t.Fatalf("Read = (%d, %v)", n, err)
	}
	if !bytes.Equal(buf, payload) {
		t.Errorf("read back %q, want %q", buf, payload)
	}
	if err := fs.Close(fd); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := fs.Unlink(path); err != nil {
		t.Fatalf("Unlink: %v", err)
	}

	for _, op := range []taxonomy.Operation{
		taxonomy.Open, taxonomy.Write, taxonomy.Seek,
		taxonomy.Read, taxonomy.Close, taxonomy.Unlink,
	} {
		tr.last(t, op)
	}
}
