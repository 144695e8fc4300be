//go:build linux

package interpose

import (
	"bytes"
	"encoding/binary"
	"sort"
	"time"

	"golang.org/x/sys/unix"

	"github.com/saworbit/iotrace/pkg/record"
)

// Directory streams are plain descriptors here: Opendir returns the fd the
// remaining dir calls operate on.

// Opendir opens the directory at name and returns its descriptor.
func (f *FS) Opendir(name string) (int, error) {
	start := time.Now()
	fd, err := f.orig.open(name, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	end := time.Now()
	f.report("opendir", fdOr(fd, err), name, "", start, end, err, 0)
	return fd, err
}

// Fdopendir adopts an already-open directory descriptor, verifying it
// refers to a directory.
func (f *FS) Fdopendir(fd int) error {
	start := time.Now()
	var st unix.Stat_t
	err := f.orig.fstat(fd, &st)
	if err == nil && st.Mode&unix.S_IFMT != unix.S_IFDIR {
		err = unix.ENOTDIR
	}
	end := time.Now()
	f.report("fdopendir", fd, "", "", start, end, err, 0)
	return err
}

// Closedir closes a directory descriptor.
func (f *FS) Closedir(fd int) error {
	start := time.Now()
	err := f.orig.close(fd)
	end := time.Now()
	f.report("closedir", fd, "", "", start, end, err, 0)
	return err
}

// Readdir reads raw directory entries into buf, returning the byte count.
func (f *FS) Readdir(fd int, buf []byte) (int, error) {
	start := time.Now()
	n, err := f.orig.getdents(fd, buf)
	end := time.Now()
	f.report("readdir", fd, "", "", start, end, err, 0)
	return n, err
}

// Seekdir repositions the directory stream to a location previously
// returned by Telldir.
func (f *FS) Seekdir(fd int, loc int64) error {
	start := time.Now()
	_, err := f.orig.seek(fd, loc, unix.SEEK_SET)
	end := time.Now()
	f.report("seekdir", fd, "", "", start, end, err, 0)
	return err
}

// Telldir returns the current location in the directory stream.
func (f *FS) Telldir(fd int) (int64, error) {
	start := time.Now()
	loc, err := f.orig.seek(fd, 0, unix.SEEK_CUR)
	end := time.Now()
	f.report("telldir", fd, "", "", start, end, err, 0)
	return loc, err
}

// Rewinddir resets the directory stream to its beginning.
func (f *FS) Rewinddir(fd int) error {
	start := time.Now()
	_, err := f.orig.seek(fd, 0, unix.SEEK_SET)
	end := time.Now()
	f.report("rewinddir", fd, "", "", start, end, err, 0)
	return err
}

// Scandir reads the whole directory at name and returns its entry names
// sorted, "." and ".." excluded.
func (f *FS) Scandir(name string) ([]string, error) {
	start := time.Now()
	names, err := f.scan(name)
	end := time.Now()
	f.report("scandir", record.FDNone, name, "", start, end, err, 0)
	return names, err
}

func (f *FS) scan(name string) ([]string, error) {
	fd, err := f.orig.open(name, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		return nil, err
	}
	defer f.orig.close(fd)

	var names []string
	buf := make([]byte, 8192)
	for {
		n, err := f.orig.getdents(fd, buf)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
		names = append(names, direntNames(buf[:n])...)
	}
	sort.Strings(names)
	return names, nil
}

// direntNames walks a getdents buffer of linux_dirent64 entries.
func direntNames(buf []byte) []string {
	const (
		reclenOff = 16
		nameOff   = 19
	)
	var names []string
	for len(buf) >= nameOff {
		reclen := int(binary.LittleEndian.Uint16(buf[reclenOff:]))
		if reclen < nameOff || reclen > len(buf) {
			break
		}
		name := buf[nameOff:reclen]
		if i := bytes.IndexByte(name, 0); i >= 0 {
			name = name[:i]
		}
		if s := string(name); s != "." && s != ".." {
			names = append(names, s)
		}
		buf = buf[reclen:]
	}
	return names
}
