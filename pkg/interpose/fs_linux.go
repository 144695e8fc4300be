//go:build linux

package interpose

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/saworbit/iotrace/pkg/monitor"
)

// FS is the instrumented I/O surface. Every method is a transparent
// pass-through to the original primitive plus one Record submission; return
// values and error state are exactly those of the original call.
type FS struct {
	mon  *monitor.Monitor
	orig *origin
}

// New builds the wrapper layer over the process-wide original bindings.
func New(mon *monitor.Monitor) (*FS, error) {
	return &FS{mon: mon, orig: defaultOrigin()}, nil
}

// newWithOrigin is the test seam: same wrappers, caller-supplied originals.
func newWithOrigin(mon *monitor.Monitor, o *origin) *FS {
	return &FS{mon: mon, orig: o}
}

// origin holds the original entry points, one callable per intercepted
// name. Resolved once per process and never re-resolved.
type origin struct {
	open      func(path string, flags int, mode uint32) (int, error)
	close     func(fd int) error
	read      func(fd int, p []byte) (int, error)
	pread     func(fd int, p []byte, offset int64) (int, error)
	write     func(fd int, p []byte) (int, error)
	pwrite    func(fd int, p []byte, offset int64) (int, error)
	seek      func(fd int, offset int64, whence int) (int64, error)
	fsync     func(fd int) error
	fdatasync func(fd int) error
	sync      func()
	syncfs    func(fd int) error

	setxattr     func(path, attr string, data []byte, flags int) error
	lsetxattr    func(path, attr string, data []byte, flags int) error
	fsetxattr    func(fd int, attr string, data []byte, flags int) error
	getxattr     func(path, attr string, dest []byte) (int, error)
	lgetxattr    func(path, attr string, dest []byte) (int, error)
	fgetxattr    func(fd int, attr string, dest []byte) (int, error)
	listxattr    func(path string, dest []byte) (int, error)
	llistxattr   func(path string, dest []byte) (int, error)
	flistxattr   func(fd int, dest []byte) (int, error)
	removexattr  func(path, attr string) error
	lremovexattr func(path, attr string) error
	fremovexattr func(fd int, attr string) error

	mount   func(source, target, fstype string, flags uintptr, data string) error
	unmount func(target string, flags int) error

	stat      func(path string, st *unix.Stat_t) error
	lstat     func(path string, st *unix.Stat_t) error
	fstat     func(fd int, st *unix.Stat_t) error
	access    func(path string, mode uint32) error
	faccessat func(dirfd int, path string, mode uint32, flags int) error
	chmod     func(path string, mode uint32) error
	fchmod    func(fd int, mode uint32) error
	fchmodat  func(dirfd int, path string, mode uint32, flags int) error
	chown     func(path string, uid, gid int) error
	fchown    func(fd int, uid, gid int) error
	lchown    func(path string, uid, gid int) error
	fchownat  func(dirfd int, path string, uid, gid, flags int) error
	utimes    func(path string, tv []unix.Timeval) error

	rename   func(oldpath, newpath string) error
	link     func(oldpath, newpath string) error
	unlink   func(path string) error
	readlink func(path string, buf []byte) (int, error)
	mkdir    func(path string, mode uint32) error
	rmdir    func(path string) error
	chdir    func(path string) error
	chroot   func(path string) error
	mknod    func(path string, mode uint32, dev int) error
	flock    func(fd, how int) error
	dup      func(fd int) (int, error)
	fcntl    func(fd uintptr, cmd, arg int) (int, error)

	truncate  func(path string, length int64) error
	ftruncate func(fd int, length int64) error
	fallocate func(fd int, mode uint32, off, length int64) error

	getdents func(fd int, buf []byte) (int, error)

	socket  func(domain, typ, proto int) (int, error)
	bind    func(fd int, sa unix.Sockaddr) error
	connect func(fd int, sa unix.Sockaddr) error
	accept  func(fd int) (int, unix.Sockaddr, error)
}

var (
	resolveOnce sync.Once
	resolved    *origin
)

// defaultOrigin resolves the original bindings lazily, caches them for the
// process lifetime, and is safe under concurrent first calls.
func defaultOrigin() *origin {
	resolveOnce.Do(func() { resolved = resolveOrigin() })
	return resolved
}

func resolveOrigin() *origin {
	return &origin{
		open:      unix.Open,
		close:     unix.Close,
		read:      unix.Read,
		pread:     unix.Pread,
		write:     unix.Write,
		pwrite:    unix.Pwrite,
		seek:      unix.Seek,
		fsync:     unix.Fsync,
		fdatasync: unix.Fdatasync,
		sync:      unix.Sync,
		syncfs:    unix.Syncfs,

		setxattr:     unix.Setxattr,
		lsetxattr:    unix.Lsetxattr,
		fsetxattr:    unix.Fsetxattr,
		getxattr:     unix.Getxattr,
		lgetxattr:    unix.Lgetxattr,
		fgetxattr:    unix.Fgetxattr,
		listxattr:    unix.Listxattr,
		llistxattr:   unix.Llistxattr,
		flistxattr:   unix.Flistxattr,
		removexattr:  unix.Removexattr,
		lremovexattr: unix.Lremovexattr,
		fremovexattr: unix.Fremovexattr,

		mount:   unix.Mount,
		unmount: unix.Unmount,

		stat:      unix.Stat,
		lstat:     unix.Lstat,
		fstat:     unix.Fstat,
		access:    unix.Access,
		faccessat: unix.Faccessat,
		chmod:     unix.Chmod,
		fchmod:    unix.Fchmod,
		fchmodat:  unix.Fchmodat,
		chown:     unix.Chown,
		fchown:    unix.Fchown,
		lchown:    unix.Lchown,
		fchownat:  unix.Fchownat,
		utimes:    unix.Utimes,

		rename:   unix.Rename,
		link:     unix.Link,
		unlink:   unix.Unlink,
		readlink: unix.Readlink,
		mkdir:    unix.Mkdir,
		rmdir:    unix.Rmdir,
		chdir:    unix.Chdir,
		chroot:   unix.Chroot,
		mknod:    unix.Mknod,
		flock:    unix.Flock,
		dup:      unix.Dup,
		fcntl:    unix.FcntlInt,

		truncate:  unix.Truncate,
		ftruncate: unix.Ftruncate,
		fallocate: unix.Fallocate,

		getdents: unix.Getdents,

		socket:  unix.Socket,
		bind:    unix.Bind,
		connect: unix.Connect,
		accept:  acceptFD,
	}
}

func acceptFD(fd int) (int, unix.Sockaddr, error) {
	return unix.Accept(fd)
}

// report submits one observation under the name's table classification.
func (f *FS) report(name string, fd int, s1, s2 string,
	start, end time.Time, err error, bytes int64) {
	cs := classify(name)
	f.mon.Record(cs.Domain, cs.Op, fd, s1, s2, start, end, errnoOf(err), bytes)
}

// errnoOf derives the platform error number: 0 on success, the errno when
// one is available, -1 for errors with no errno.
func errnoOf(err error) int {
	if err == nil {
		return 0
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return -1
}

// absPath normalizes an identifier to absolute form for recording only;
// callers always receive results for the path they passed.
func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
