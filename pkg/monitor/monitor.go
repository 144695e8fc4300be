// Package monitor decides whether an observed call is reported and, if so,
// assembles the Record and hands it to the transport. It owns the
// per-process control state: facility id, domain filter mask, the pause
// gate, and the lifecycle START/STOP records.
package monitor

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/saworbit/iotrace/pkg/record"
	"github.com/saworbit/iotrace/pkg/taxonomy"
	"github.com/saworbit/iotrace/pkg/transport"
)

// stdio descriptors are never reported except for lifecycle records.
const maxStdioFD = 2

// Monitor is the explicitly-owned per-process context: built once at
// attach, torn down at detach, process-wide lifetime. All methods are safe
// for concurrent use from the host's threads; calls report independently
// with no cross-thread ordering guarantee.
type Monitor struct {
	facility string
	mask     uint32
	pid      int32
	tr       transport.Transport

	startOnOpen      string
	elapsedTriggerMS float64
	paused           atomic.Bool
}

// Attach builds the monitor, selecting the transport from the config when
// tr is nil, and emits the synthetic START record. A nil cfg loads from the
// environment.
func Attach(cfg *Config, tr transport.Transport) (*Monitor, error) {
	if cfg == nil {
		cfg = LoadFromEnv()
	}
	if tr == nil {
		var err error
		tr, err = transport.New(cfg.MQPath)
		if err != nil {
			return nil, err
		}
	}

	m := &Monitor{
		facility:         truncateFacility(cfg.Facility),
		mask:             taxonomy.ParseDomainMask(cfg.Domains),
		pid:              int32(os.Getpid()),
		tr:               tr,
		startOnOpen:      cfg.StartOnOpen,
		elapsedTriggerMS: cfg.StartOnElapsedMS,
	}
	m.paused.Store(cfg.paused())

	m.lifecycle(taxonomy.Start)
	return m, nil
}

// Detach emits the synthetic STOP record and releases the transport.
func (m *Monitor) Detach() {
	m.lifecycle(taxonomy.Stop)
	_ = m.tr.Close()
}

// Transport exposes the underlying transport, mainly for the interception
// layer's self-exclusion bookkeeping.
func (m *Monitor) Transport() transport.Transport { return m.tr }

// Record applies the eligibility filter to one observed call and, when it
// passes, assembles a Record and submits it. Exclusions are evaluated in a
// fixed order and short-circuit; every internal failure is swallowed so the
// host process never sees a fault from its own telemetry.
func (m *Monitor) Record(dom taxonomy.Domain, op taxonomy.Operation, fd int,
	s1, s2 string, start, end time.Time, errCode int, bytes int64) {

	// 1. a prior transport failure disables reporting for good
	if m.tr.Failed() {
		return
	}

	// 2. never observe the transport's own socket
	if m.tr.OwnsFD(fd) {
		return
	}

	// 3. stdin/stdout/stderr are noise, lifecycle records excepted
	if fd >= 0 && fd <= maxStdioFD && op != taxonomy.Start && op != taxonomy.Stop {
		return
	}

	// 4. domain filter
	if m.mask&dom.Bit() == 0 {
		return
	}

	// 5. opens of the current or parent directory are noise
	if op == taxonomy.Open && (s1 == "." || s1 == "..") {
		return
	}

	elapsed := end.Sub(start).Seconds() * 1000
	if elapsed < 0 {
		elapsed = 0 // clock went backwards; report zero rather than nonsense
	}

	// 6. pause gate: drop unless this call is the configured resume
	// trigger; the triggering call itself is delivered and the transition
	// to ACTIVE is one-way
	if m.paused.Load() {
		if !m.resumes(op, s1, elapsed) {
			return
		}
		m.paused.Store(false)
	}

	rec := &record.Record{
		Timestamp: end.Unix(),
		Elapsed:   elapsed,
		PID:       m.pid,
		Domain:    int32(dom),
		Op:        int32(op),
		ErrorCode: int32(errCode),
		FD:        int32(fd),
		Bytes:     bytes,
	}
	rec.SetFacility(m.facility)
	rec.SetS1(s1)
	rec.SetS2(s2)

	// delivery failure trips the transport's breaker; nothing to do here
	_ = m.tr.Send(rec)
}

// resumes reports whether this call satisfies a configured resume trigger.
func (m *Monitor) resumes(op taxonomy.Operation, s1 string, elapsedMS float64) bool {
	if m.startOnOpen != "" && op == taxonomy.Open && strings.Contains(s1, m.startOnOpen) {
		return true
	}
	if m.elapsedTriggerMS >= minElapsedTriggerMS && elapsedMS > m.elapsedTriggerMS {
		return true
	}
	return false
}

// lifecycle emits a START or STOP record carrying the command line and the
// parent pid, the shape the offline visualizer reconstructs lineage from.
func (m *Monitor) lifecycle(op taxonomy.Operation) {
	now := time.Now()
	m.Record(taxonomy.DomainOf(op), op, record.FDNone,
		strings.Join(os.Args, " "), strconv.Itoa(os.Getppid()),
		now, now, 0, 0)
}
