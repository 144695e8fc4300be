//go:build linux

package interpose

import (
	"time"

	"github.com/saworbit/iotrace/pkg/record"
)

// Setxattr sets the extended attribute attr on the file at path.
func (f *FS) Setxattr(path, attr string, data []byte, flags int) error {
	start := time.Now()
	err := f.orig.setxattr(path, attr, data, flags)
	end := time.Now()
	f.report("setxattr", record.FDNone, path, attr, start, end, err, 0)
	return err
}

// Lsetxattr sets attr on path without following a final symlink.
func (f *FS) Lsetxattr(path, attr string, data []byte, flags int) error {
	start := time.Now()
	err := f.orig.lsetxattr(path, attr, data, flags)
	end := time.Now()
	f.report("lsetxattr", record.FDNone, path, attr, start, end, err, 0)
	return err
}

// Fsetxattr sets attr on the open descriptor fd.
func (f *FS) Fsetxattr(fd int, attr string, data []byte, flags int) error {
	start := time.Now()
	err := f.orig.fsetxattr(fd, attr, data, flags)
	end := time.Now()
	f.report("fsetxattr", fd, attr, "", start, end, err, 0)
	return err
}

// Getxattr reads attr of the file at path into dest.
func (f *FS) Getxattr(path, attr string, dest []byte) (int, error) {
	start := time.Now()
	n, err := f.orig.getxattr(path, attr, dest)
	end := time.Now()
	f.report("getxattr", record.FDNone, path, attr, start, end, err, 0)
	return n, err
}

// Lgetxattr reads attr of path without following a final symlink.
func (f *FS) Lgetxattr(path, attr string, dest []byte) (int, error) {
	start := time.Now()
	n, err := f.orig.lgetxattr(path, attr, dest)
	end := time.Now()
	f.report("lgetxattr", record.FDNone, path, attr, start, end, err, 0)
	return n, err
}

// Fgetxattr reads attr of the open descriptor fd.
func (f *FS) Fgetxattr(fd int, attr string, dest []byte) (int, error) {
	start := time.Now()
	n, err := f.orig.fgetxattr(fd, attr, dest)
	end := time.Now()
	f.report("fgetxattr", fd, attr, "", start, end, err, 0)
	return n, err
}

// Listxattr lists attribute names of the file at path.
func (f *FS) Listxattr(path string, dest []byte) (int, error) {
	start := time.Now()
	n, err := f.orig.listxattr(path, dest)
	end := time.Now()
	f.report("listxattr", record.FDNone, path, "", start, end, err, 0)
	return n, err
}

// Llistxattr lists attribute names of path without following a symlink.
func (f *FS) Llistxattr(path string, dest []byte) (int, error) {
	start := time.Now()
	n, err := f.orig.llistxattr(path, dest)
	end := time.Now()
	f.report("llistxattr", record.FDNone, path, "", start, end, err, 0)
	return n, err
}

// Flistxattr lists attribute names of the open descriptor fd.
func (f *FS) Flistxattr(fd int, dest []byte) (int, error) {
	start := time.Now()
	n, err := f.orig.flistxattr(fd, dest)
	end := time.Now()
	f.report("flistxattr", fd, "", "", start, end, err, 0)
	return n, err
}

// Removexattr removes attr from the file at path.
func (f *FS) Removexattr(path, attr string) error {
	start := time.Now()
	err := f.orig.removexattr(path, attr)
	end := time.Now()
	f.report("removexattr", record.FDNone, path, attr, start, end, err, 0)
	return err
}

// Lremovexattr removes attr from path without following a symlink.
func (f *FS) Lremovexattr(path, attr string) error {
	start := time.Now()
	err := f.orig.lremovexattr(path, attr)
	end := time.Now()
	f.report("lremovexattr", record.FDNone, path, attr, start, end, err, 0)
	return err
}

// Fremovexattr removes attr from the open descriptor fd.
func (f *FS) Fremovexattr(fd int, attr string) error {
	start := time.Now()
	err := f.orig.fremovexattr(fd, attr)
	end := time.Now()
	f.report("fremovexattr", fd, attr, "", start, end, err, 0)
	return err
}
