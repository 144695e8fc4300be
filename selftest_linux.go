//go:build linux

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/saworbit/iotrace/pkg/interpose"
	"github.com/saworbit/iotrace/pkg/monitor"
)

// runSelftest drives a fixed sequence of instrumented calls against a
// scratch directory so a running collector can be verified end to end.
func runSelftest(dir, facility, mqPath string) error {
	scratch, err := os.MkdirTemp(dir, "iotrace-selftest-*")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	cfg := monitor.DefaultConfig()
	cfg.Facility = facility
	cfg.Domains = "ALL"
	cfg.MQPath = mqPath

	mon, err := monitor.Attach(cfg, nil)
	if err != nil {
		return err
	}
	defer mon.Detach()

	fs, err := interpose.New(mon)
	if err != nil {
		return err
	}

	sub := filepath.Join(scratch, "data")
	if err := fs.Mkdir(sub, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	path := filepath.Join(sub, "probe.txt")
	fd, err := fs.Open(path, unix.O_CREAT|unix.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}

	payload := []byte("iotrace selftest payload\n")
	if _, err := fs.Write(fd, payload); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := fs.Fsync(fd); err != nil {
		return fmt.Errorf("fsync: %w", err)
	}
	if _, err := fs.Seek(fd, 0, unix.SEEK_SET); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	buf := make([]byte, len(payload))
	if _, err := fs.Read(fd, buf); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if err := fs.Close(fd); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	var st unix.Stat_t
	if err := fs.Stat(path, &st); err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	if err := fs.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}

	renamed := filepath.Join(sub, "probe.renamed")
	if err := fs.Rename(path, renamed); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	// xattrs are optional on some filesystems, keep going without them
	if err := fs.Setxattr(renamed, "user.iotrace", []byte("1"), 0); err != nil {
		log.Printf("[selftest] setxattr skipped: %v", err)
	}

	names, err := fs.Scandir(sub)
	if err != nil {
		return fmt.Errorf("scandir: %w", err)
	}

	// one deliberate failure so the error path shows up in the stream
	if _, err := fs.Open(filepath.Join(sub, "missing"), unix.O_RDONLY, 0); err == nil {
		return fmt.Errorf("expected ENOENT for missing file")
	}

	if err := fs.Unlink(renamed); err != nil {
		return fmt.Errorf("unlink: %w", err)
	}
	if err := fs.Rmdir(sub); err != nil {
		return fmt.Errorf("rmdir: %w", err)
	}

	log.Printf("[selftest] completed against %s (%d entries listed)", scratch, len(names))
	return nil
}
