package monitor

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/saworbit/iotrace/pkg/record"
	"github.com/saworbit/iotrace/pkg/taxonomy"
)

// fakeTransport captures every delivered record in memory.
type fakeTransport struct {
	sent    []*record.Record
	failed  bool
	ownedFD int
	closed  bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{ownedFD: record.FDNone}
}

func (f *fakeTransport) Send(r *record.Record) error {
	f.sent = append(f.sent, r)
	return nil
}

func (f *fakeTransport) OwnsFD(fd int) bool { return fd != record.FDNone && fd == f.ownedFD }
func (f *fakeTransport) Failed() bool       { return f.failed }
func (f *fakeTransport) Close() error       { f.closed = true; return nil }

func attach(t *testing.T, cfg *Config) (*Monitor, *fakeTransport) {
	t.Helper()
	tr := newFakeTransport()
	m, err := Attach(cfg, tr)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	return m, tr
}

// ops returns the operation sequence delivered so far.
func (f *fakeTransport) ops() []taxonomy.Operation {
	var ops []taxonomy.Operation
	for _, r := range f.sent {
		ops = append(ops, taxonomy.Operation(r.Op))
	}
	return ops
}

func now2() (time.Time, time.Time) {
	n := time.Now()
	return n, n.Add(time.Millisecond)
}

func TestAttachEmitsStart(t *testing.T) {
	m, tr := attach(t, &Config{Facility: "test", Domains: "ALL"})

	if len(tr.sent) != 1 {
		t.Fatalf("got %d records after attach, want 1 START", len(tr.sent))
	}
	start := tr.sent[0]
	if taxonomy.Operation(start.Op) != taxonomy.Start {
		t.Fatalf("first record op = %s, want START", taxonomy.Operation(start.Op))
	}
	if start.FD != record.FDNone {
		t.Errorf("START fd = %d, want %d", start.FD, record.FDNone)
	}
	if start.GetS1() == "" {
		t.Error("START must carry the command line")
	}
	if _, err := strconv.Atoi(start.GetS2()); err != nil {
		t.Errorf("START s2 = %q, want numeric parent pid", start.GetS2())
	}

	m.Detach()
	if got := tr.ops(); len(got) != 2 || got[1] != taxonomy.Stop {
		t.Errorf("ops after detach = %v, want [START STOP]", got)
	}
	if !tr.closed {
		t.Error("Detach must close the transport")
	}
}

func TestRecordAssemblesFields(t *testing.T) {
	m, tr := attach(t, &Config{Facility: "unitX", Domains: "ALL"})
	start, end := now2()

	m.Record(taxonomy.FileOpenClose, taxonomy.Open, record.FDNone,
		"/no/such/file", "", start, end, 2, 0)

	rec := tr.sent[len(tr.sent)-1]
	if taxonomy.Operation(rec.Op) != taxonomy.Open {
		t.Fatalf("op = %s, want OPEN", taxonomy.Operation(rec.Op))
	}
	if rec.ErrorCode != 2 {
		t.Errorf("errcode = %d, want 2 (ENOENT)", rec.ErrorCode)
	}
	if rec.GetFacility() != "unit" {
		t.Errorf("facility = %q, want %q (truncated to four chars)", rec.GetFacility(), "unit")
	}
	if rec.GetS1() != "/no/such/file" {
		t.Errorf("s1 = %q", rec.GetS1())
	}
	if rec.Elapsed <= 0 {
		t.Errorf("elapsed = %g, want > 0", rec.Elapsed)
	}
}

func TestNegativeElapsedClampsToZero(t *testing.T) {
	m, tr := attach(t, &Config{Facility: "t", Domains: "ALL"})
	end := time.Now()
	start := end.Add(time.Second) // clock went backwards

	m.Record(taxonomy.FileRead, taxonomy.Read, 5, "", "", start, end, 0, 10)
	rec := tr.sent[len(tr.sent)-1]
	if rec.Elapsed != 0 {
		t.Errorf("elapsed = %g, want 0", rec.Elapsed)
	}
}

func TestDomainFilter(t *testing.T) {
	m, tr := attach(t, &Config{Facility: "t", Domains: "FILE_READ,PROCESSES"})
	start, end := now2()

	m.Record(taxonomy.FileRead, taxonomy.Read, 5, "", "", start, end, 0, 10)
	m.Record(taxonomy.FileWrite, taxonomy.Write, 5, "", "", start, end, 0, 10)

	got := tr.ops()
	want := []taxonomy.Operation{taxonomy.Start, taxonomy.Read}
	if len(got) != len(want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ops = %v, want %v", got, want)
		}
	}
}

func TestEmptyDomainsMonitorsNothing(t *testing.T) {
	m, tr := attach(t, &Config{Facility: "t"})
	start, end := now2()

	m.Record(taxonomy.FileRead, taxonomy.Read, 5, "", "", start, end, 0, 10)
	if len(tr.sent) != 0 {
		t.Errorf("got %d records with an empty mask, want 0 (START included)", len(tr.sent))
	}
}

func TestStdioDescriptorsDropped(t *testing.T) {
	m, tr := attach(t, &Config{Facility: "t", Domains: "ALL"})
	start, end := now2()

	for fd := 0; fd <= 2; fd++ {
		m.Record(taxonomy.FileWrite, taxonomy.Write, fd, "", "", start, end, 0, 1)
	}
	m.Record(taxonomy.FileWrite, taxonomy.Write, 3, "", "", start, end, 0, 1)

	got := tr.ops()
	if len(got) != 2 || got[1] != taxonomy.Write {
		t.Errorf("ops = %v, want [START WRITE] (stdio writes dropped)", got)
	}
}

func TestTransportFDExcluded(t *testing.T) {
	m, tr := attach(t, &Config{Facility: "t", Domains: "ALL"})
	tr.ownedFD = 9
	start, end := now2()

	m.Record(taxonomy.FileWrite, taxonomy.Write, 9, "", "", start, end, 0, 1)
	if len(tr.sent) != 1 {
		t.Errorf("write on the transport's own fd was reported")
	}
}

func TestDotOpensDropped(t *testing.T) {
	m, tr := attach(t, &Config{Facility: "t", Domains: "ALL"})
	start, end := now2()

	m.Record(taxonomy.FileOpenClose, taxonomy.Open, 4, ".", "", start, end, 0, 0)
	m.Record(taxonomy.FileOpenClose, taxonomy.Open, 4, "..", "", start, end, 0, 0)
	// a CLOSE of "." is not an OPEN and must pass
	m.Record(taxonomy.FileOpenClose, taxonomy.Close, 4, ".", "", start, end, 0, 0)

	got := tr.ops()
	if len(got) != 2 || got[1] != taxonomy.Close {
		t.Errorf("ops = %v, want [START CLOSE]", got)
	}
}

func TestFailedTransportStopsReporting(t *testing.T) {
	m, tr := attach(t, &Config{Facility: "t", Domains: "ALL"})
	tr.failed = true
	start, end := now2()

	m.Record(taxonomy.FileRead, taxonomy.Read, 5, "", "", start, end, 0, 1)
	if len(tr.sent) != 1 {
		t.Error("record delivered after the breaker tripped")
	}
}

func TestStartOnOpenGate(t *testing.T) {
	m, tr := attach(t, &Config{Facility: "t", Domains: "ALL", StartOnOpen: "target.txt"})
	start, end := now2()

	// START itself is suppressed while paused
	if len(tr.sent) != 0 {
		t.Fatalf("got %d records while paused, want 0", len(tr.sent))
	}

	m.Record(taxonomy.FileOpenClose, taxonomy.Open, 4, "/tmp/other.txt", "", start, end, 0, 0)
	m.Record(taxonomy.FileRead, taxonomy.Read, 4, "", "", start, end, 0, 8)
	if len(tr.sent) != 0 {
		t.Fatal("records delivered before the resume trigger")
	}

	// the triggering open is itself delivered
	m.Record(taxonomy.FileOpenClose, taxonomy.Open, 4, "/tmp/sub/target.txt", "", start, end, 0, 0)
	m.Record(taxonomy.FileRead, taxonomy.Read, 4, "", "", start, end, 0, 8)

	got := tr.ops()
	want := []taxonomy.Operation{taxonomy.Open, taxonomy.Read}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ops = %v, want %v", got, want)
	}
	if !strings.Contains(tr.sent[0].GetS1(), "target.txt") {
		t.Errorf("first delivered record s1 = %q, want the triggering open", tr.sent[0].GetS1())
	}
}

func TestStartOnElapsedGate(t *testing.T) {
	m, tr := attach(t, &Config{Facility: "t", Domains: "ALL", StartOnElapsedMS: 5})
	start := time.Now()

	m.Record(taxonomy.FileRead, taxonomy.Read, 4, "", "", start, start.Add(time.Millisecond), 0, 8)
	if len(tr.sent) != 0 {
		t.Fatal("fast call resumed the monitor")
	}

	m.Record(taxonomy.FileRead, taxonomy.Read, 4, "", "", start, start.Add(20*time.Millisecond), 0, 8)
	m.Record(taxonomy.FileWrite, taxonomy.Write, 4, "", "", start, start.Add(time.Millisecond), 0, 8)

	got := tr.ops()
	want := []taxonomy.Operation{taxonomy.Read, taxonomy.Write}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ops = %v, want %v (slow call resumes, later calls flow)", got, want)
	}
}
