//go:build linux

package interpose

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/saworbit/iotrace/pkg/record"
)

// Open opens path with the given flags and permission bits.
func (f *FS) Open(path string, flags int, mode uint32) (int, error) {
	start := time.Now()
	fd, err := f.orig.open(path, flags, mode)
	end := time.Now()
	f.report("open", fdOr(fd, err), path, "", start, end, err, 0)
	return fd, err
}

// Creat creates or truncates path for writing.
func (f *FS) Creat(path string, mode uint32) (int, error) {
	start := time.Now()
	fd, err := f.orig.open(path, unix.O_CREAT|unix.O_WRONLY|unix.O_TRUNC, mode)
	end := time.Now()
	f.report("creat", fdOr(fd, err), path, "", start, end, err, 0)
	return fd, err
}

// Close closes a descriptor.
func (f *FS) Close(fd int) error {
	start := time.Now()
	err := f.orig.close(fd)
	end := time.Now()
	f.report("close", fd, "", "", start, end, err, 0)
	return err
}

// Read reads from fd into p.
func (f *FS) Read(fd int, p []byte) (int, error) {
	start := time.Now()
	n, err := f.orig.read(fd, p)
	end := time.Now()
	f.report("read", fd, "", "", start, end, err, countOr(n, err))
	return n, err
}

// Pread reads from fd at offset.
func (f *FS) Pread(fd int, p []byte, offset int64) (int, error) {
	start := time.Now()
	n, err := f.orig.pread(fd, p, offset)
	end := time.Now()
	f.report("pread", fd, "", "", start, end, err, countOr(n, err))
	return n, err
}

// Write writes p to fd.
func (f *FS) Write(fd int, p []byte) (int, error) {
	start := time.Now()
	n, err := f.orig.write(fd, p)
	end := time.Now()
	f.report("write", fd, "", "", start, end, err, countOr(n, err))
	return n, err
}

// Pwrite writes p to fd at offset.
func (f *FS) Pwrite(fd int, p []byte, offset int64) (int, error) {
	start := time.Now()
	n, err := f.orig.pwrite(fd, p, offset)
	end := time.Now()
	f.report("pwrite", fd, "", "", start, end, err, countOr(n, err))
	return n, err
}

// Seek repositions the file offset.
func (f *FS) Seek(fd int, offset int64, whence int) (int64, error) {
	start := time.Now()
	off, err := f.orig.seek(fd, offset, whence)
	end := time.Now()
	f.report("seek", fd, "", "", start, end, err, 0)
	return off, err
}

// Fsync flushes fd's data and metadata to stable storage.
func (f *FS) Fsync(fd int) error {
	start := time.Now()
	err := f.orig.fsync(fd)
	end := time.Now()
	f.report("fsync", fd, "", "", start, end, err, 0)
	return err
}

// Fdatasync flushes fd's data to stable storage.
func (f *FS) Fdatasync(fd int) error {
	start := time.Now()
	err := f.orig.fdatasync(fd)
	end := time.Now()
	f.report("fdatasync", fd, "", "", start, end, err, 0)
	return err
}

// Sync commits all filesystem buffers.
func (f *FS) Sync() {
	start := time.Now()
	f.orig.sync()
	end := time.Now()
	f.report("sync", record.FDNone, "", "", start, end, nil, 0)
}

// Syncfs commits the filesystem containing fd.
func (f *FS) Syncfs(fd int) error {
	start := time.Now()
	err := f.orig.syncfs(fd)
	end := time.Now()
	f.report("syncfs", fd, "", "", start, end, err, 0)
	return err
}

// Flush forces fd's buffered data out, reported as a FLUSH rather than a
// SYNC so buffered and direct flushes stay distinguishable downstream.
func (f *FS) Flush(fd int) error {
	start := time.Now()
	err := f.orig.fsync(fd)
	end := time.Now()
	f.report("flush", fd, "", "", start, end, err, 0)
	return err
}

// Truncate sets the size of the file at path.
func (f *FS) Truncate(path string, length int64) error {
	start := time.Now()
	err := f.orig.truncate(path, length)
	end := time.Now()
	f.report("truncate", record.FDNone, path, "", start, end, err, 0)
	return err
}

// Ftruncate sets the size of the open file fd.
func (f *FS) Ftruncate(fd int, length int64) error {
	start := time.Now()
	err := f.orig.ftruncate(fd, length)
	end := time.Now()
	f.report("ftruncate", fd, "", "", start, end, err, 0)
	return err
}

// Fallocate manipulates file space for fd. A zero return is success and
// the requested length is reported as bytes transferred; on failure the
// errno is reported and bytes stays zero.
func (f *FS) Fallocate(fd int, mode uint32, off, length int64) error {
	start := time.Now()
	err := f.orig.fallocate(fd, mode, off, length)
	end := time.Now()
	var bytes int64
	if err == nil {
		bytes = length
	}
	f.report("fallocate", fd, "", "", start, end, err, bytes)
	return err
}

// Dup duplicates a descriptor.
func (f *FS) Dup(fd int) (int, error) {
	start := time.Now()
	nfd, err := f.orig.dup(fd)
	end := time.Now()
	f.report("dup", fd, "", "", start, end, err, 0)
	return nfd, err
}

// Fcntl performs a descriptor control operation with an int argument.
func (f *FS) Fcntl(fd int, cmd, arg int) (int, error) {
	start := time.Now()
	rc, err := f.orig.fcntl(uintptr(fd), cmd, arg)
	end := time.Now()
	f.report("fcntl", fd, "", "", start, end, err, 0)
	return rc, err
}

// Flock applies or removes an advisory lock on fd.
func (f *FS) Flock(fd, how int) error {
	start := time.Now()
	err := f.orig.flock(fd, how)
	end := time.Now()
	f.report("flock", fd, "", "", start, end, err, 0)
	return err
}

// fdOr reports the returned descriptor, or FDNone when the call failed.
func fdOr(fd int, err error) int {
	if err != nil {
		return record.FDNone
	}
	return fd
}

// countOr reports the byte count of a successful data-moving call.
func countOr(n int, err error) int64 {
	if err != nil || n < 0 {
		return 0
	}
	return int64(n)
}
