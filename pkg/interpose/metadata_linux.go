//go:build linux

package interpose

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/saworbit/iotrace/pkg/record"
)

// Stat fills st for the file at path.
func (f *FS) Stat(path string, st *unix.Stat_t) error {
	start := time.Now()
	err := f.orig.stat(path, st)
	end := time.Now()
	f.report("stat", record.FDNone, path, "", start, end, err, 0)
	return err
}

// Lstat fills st for path without following a final symlink.
func (f *FS) Lstat(path string, st *unix.Stat_t) error {
	start := time.Now()
	err := f.orig.lstat(path, st)
	end := time.Now()
	f.report("lstat", record.FDNone, path, "", start, end, err, 0)
	return err
}

// Fstat fills st for the open descriptor fd.
func (f *FS) Fstat(fd int, st *unix.Stat_t) error {
	start := time.Now()
	err := f.orig.fstat(fd, st)
	end := time.Now()
	f.report("fstat", fd, "", "", start, end, err, 0)
	return err
}

// Access checks accessibility of path for the given mode.
func (f *FS) Access(path string, mode uint32) error {
	start := time.Now()
	err := f.orig.access(path, mode)
	end := time.Now()
	f.report("access", record.FDNone, path, "", start, end, err, 0)
	return err
}

// Faccessat checks accessibility of path relative to dirfd.
func (f *FS) Faccessat(dirfd int, path string, mode uint32, flags int) error {
	start := time.Now()
	err := f.orig.faccessat(dirfd, path, mode, flags)
	end := time.Now()
	f.report("faccessat", dirfd, path, "", start, end, err, 0)
	return err
}

// Chmod changes the mode of the file at path.
func (f *FS) Chmod(path string, mode uint32) error {
	start := time.Now()
	err := f.orig.chmod(path, mode)
	end := time.Now()
	f.report("chmod", record.FDNone, path, "", start, end, err, 0)
	return err
}

// Fchmod changes the mode of the open descriptor fd.
func (f *FS) Fchmod(fd int, mode uint32) error {
	start := time.Now()
	err := f.orig.fchmod(fd, mode)
	end := time.Now()
	f.report("fchmod", fd, "", "", start, end, err, 0)
	return err
}

// Fchmodat changes the mode of path relative to dirfd.
func (f *FS) Fchmodat(dirfd int, path string, mode uint32, flags int) error {
	start := time.Now()
	err := f.orig.fchmodat(dirfd, path, mode, flags)
	end := time.Now()
	f.report("fchmodat", dirfd, path, "", start, end, err, 0)
	return err
}

// Chown changes ownership of the file at path.
func (f *FS) Chown(path string, uid, gid int) error {
	start := time.Now()
	err := f.orig.chown(path, uid, gid)
	end := time.Now()
	f.report("chown", record.FDNone, path, "", start, end, err, 0)
	return err
}

// Fchown changes ownership of the open descriptor fd.
func (f *FS) Fchown(fd int, uid, gid int) error {
	start := time.Now()
	err := f.orig.fchown(fd, uid, gid)
	end := time.Now()
	f.report("fchown", fd, "", "", start, end, err, 0)
	return err
}

// Lchown changes ownership of path without following a final symlink.
func (f *FS) Lchown(path string, uid, gid int) error {
	start := time.Now()
	err := f.orig.lchown(path, uid, gid)
	end := time.Now()
	f.report("lchown", record.FDNone, path, "", start, end, err, 0)
	return err
}

// Fchownat changes ownership of path relative to dirfd.
func (f *FS) Fchownat(dirfd int, path string, uid, gid, flags int) error {
	start := time.Now()
	err := f.orig.fchownat(dirfd, path, uid, gid, flags)
	end := time.Now()
	f.report("fchownat", dirfd, path, "", start, end, err, 0)
	return err
}

// Utimes sets access and modification times of path.
func (f *FS) Utimes(path string, tv []unix.Timeval) error {
	start := time.Now()
	err := f.orig.utimes(path, tv)
	end := time.Now()
	f.report("utimes", record.FDNone, path, "", start, end, err, 0)
	return err
}

// Rename moves oldpath to newpath.
func (f *FS) Rename(oldpath, newpath string) error {
	start := time.Now()
	err := f.orig.rename(oldpath, newpath)
	end := time.Now()
	f.report("rename", record.FDNone, oldpath, newpath, start, end, err, 0)
	return err
}

// Link creates newpath as a hard link to oldpath.
func (f *FS) Link(oldpath, newpath string) error {
	start := time.Now()
	err := f.orig.link(oldpath, newpath)
	end := time.Now()
	f.report("link", record.FDNone, oldpath, newpath, start, end, err, 0)
	return err
}

// Unlink removes the file at path.
func (f *FS) Unlink(path string) error {
	start := time.Now()
	err := f.orig.unlink(path)
	end := time.Now()
	f.report("unlink", record.FDNone, path, "", start, end, err, 0)
	return err
}

// Readlink reads the target of the symlink at path into buf.
func (f *FS) Readlink(path string, buf []byte) (int, error) {
	start := time.Now()
	n, err := f.orig.readlink(path, buf)
	end := time.Now()
	f.report("readlink", record.FDNone, path, "", start, end, err, 0)
	return n, err
}

// Mkdir creates a directory at path.
func (f *FS) Mkdir(path string, mode uint32) error {
	start := time.Now()
	err := f.orig.mkdir(path, mode)
	end := time.Now()
	f.report("mkdir", record.FDNone, path, "", start, end, err, 0)
	return err
}

// Rmdir removes the directory at path.
func (f *FS) Rmdir(path string) error {
	start := time.Now()
	err := f.orig.rmdir(path)
	end := time.Now()
	f.report("rmdir", record.FDNone, path, "", start, end, err, 0)
	return err
}

// Chdir changes the working directory. The recorded path is normalized to
// absolute form; the caller's argument is passed through untouched.
func (f *FS) Chdir(path string) error {
	start := time.Now()
	err := f.orig.chdir(path)
	end := time.Now()
	f.report("chdir", record.FDNone, absPath(path), "", start, end, err, 0)
	return err
}

// Chroot changes the root directory. Recorded in absolute form.
func (f *FS) Chroot(path string) error {
	start := time.Now()
	err := f.orig.chroot(path)
	end := time.Now()
	f.report("chroot", record.FDNone, absPath(path), "", start, end, err, 0)
	return err
}

// Mknod creates a filesystem node at path.
func (f *FS) Mknod(path string, mode uint32, dev int) error {
	start := time.Now()
	err := f.orig.mknod(path, mode, dev)
	end := time.Now()
	f.report("mknod", record.FDNone, path, "", start, end, err, 0)
	return err
}

// Mount attaches the filesystem on source at target.
func (f *FS) Mount(source, target, fstype string, flags uintptr, data string) error {
	start := time.Now()
	err := f.orig.mount(source, target, fstype, flags, data)
	end := time.Now()
	f.report("mount", record.FDNone, source, target, start, end, err, 0)
	return err
}

// Unmount detaches the filesystem mounted at target.
func (f *FS) Unmount(target string, flags int) error {
	start := time.Now()
	err := f.orig.unmount(target, flags)
	end := time.Now()
	f.report("umount", record.FDNone, target, "", start, end, err, 0)
	return err
}
