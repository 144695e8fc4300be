package record

import (
	"bytes"
	"strings"
	"testing"

	"github.com/saworbit/iotrace/pkg/taxonomy"
)

func sample() *Record {
	r := &Record{
		Timestamp: 1700000000,
		Elapsed:   1.25,
		PID:       4242,
		Domain:    int32(taxonomy.FileRead),
		Op:        int32(taxonomy.Read),
		ErrorCode: 0,
		FD:        7,
		Bytes:     512,
	}
	r.SetFacility("ci")
	r.SetS1("/var/tmp/input.dat")
	r.SetS2("")
	return r
}

func TestMarshalSize(t *testing.T) {
	data := sample().Marshal()
	if len(data) != Size {
		t.Fatalf("packed record is %d bytes, want %d", len(data), Size)
	}
}

func TestRoundTrip(t *testing.T) {
	orig := sample()
	data := orig.Marshal()

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if *got != *orig {
		t.Error("decoded record differs from original")
	}
	if !bytes.Equal(got.Marshal(), data) {
		t.Error("re-encoded record differs byte-for-byte")
	}
}

func TestUnmarshalRejectsWrongSize(t *testing.T) {
	for _, n := range []int{0, 1, Size - 1, Size + 1} {
		if _, err := Unmarshal(make([]byte, n)); err == nil {
			t.Errorf("Unmarshal accepted %d bytes", n)
		}
	}
}

func TestStringFieldsTruncateWithTrailingNUL(t *testing.T) {
	r := &Record{}
	long := strings.Repeat("x", PathLen+100)
	r.SetS1(long)
	if got := r.GetS1(); len(got) != PathLen-1 {
		t.Errorf("S1 length = %d, want %d", len(got), PathLen-1)
	}
	if r.S1[PathLen-1] != 0 {
		t.Error("S1 is not NUL-terminated after truncation")
	}

	// shorter value must fully replace the longer one
	r.SetS1("/short")
	if got := r.GetS1(); got != "/short" {
		t.Errorf("GetS1() = %q after overwrite", got)
	}

	r.SetS2(strings.Repeat("y", AuxLen*2))
	if got := r.GetS2(); len(got) != AuxLen-1 {
		t.Errorf("S2 length = %d, want %d", len(got), AuxLen-1)
	}
}

func TestStringLine(t *testing.T) {
	line := sample().String()
	for _, want := range []string{"ci", "FILE_READ", "READ", "/var/tmp/input.dat", "4242"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q does not contain %q", line, want)
		}
	}
}

func TestFDNone(t *testing.T) {
	r := sample()
	r.FD = FDNone
	got, err := Unmarshal(r.Marshal())
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.FD != FDNone {
		t.Errorf("FD = %d, want %d", got.FD, FDNone)
	}
}
