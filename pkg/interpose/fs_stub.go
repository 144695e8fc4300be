//go:build !linux

package interpose

import "github.com/saworbit/iotrace/pkg/monitor"

// FS is unavailable outside Linux; the collector-side tooling still builds.
type FS struct{}

// New reports ErrUnsupported on non-Linux platforms.
func New(*monitor.Monitor) (*FS, error) { return nil, ErrUnsupported }
