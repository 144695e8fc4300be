// Package record defines the fixed-layout telemetry unit describing one
// observed call. A Record carries no pointers, so its packed encoding can be
// copied across process boundaries and decoded byte-for-byte by a collector
// built against the same layout.
package record

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/saworbit/iotrace/pkg/taxonomy"
)

const (
	// FacilityLen bounds the facility field; only the first four characters
	// are significant, the rest keeps the layout stable.
	FacilityLen = 256

	// PathLen bounds the primary string argument (typically a path).
	PathLen = 4096

	// AuxLen bounds the secondary string argument (mode, target, name).
	AuxLen = 256
)

// Size is the exact length in bytes of a packed Record.
const Size = FacilityLen + 8 + 8 + 4 + 4 + 4 + 4 + 4 + 8 + PathLen + AuxLen

// FDNone marks a record whose call had no associated file descriptor.
const FDNone = -1

// Record is one observation. Field order is the wire layout; all multi-byte
// fields are little-endian in the packed form.
type Record struct {
	Facility  [FacilityLen]byte
	Timestamp int64   // seconds since epoch at call completion
	Elapsed   float64 // call duration, milliseconds
	PID       int32
	Domain    int32
	Op        int32
	ErrorCode int32 // 0 on success, platform errno otherwise
	FD        int32 // FDNone when not applicable
	Bytes     int64 // payload size for data-moving operations
	S1        [PathLen]byte
	S2        [AuxLen]byte
}

// Marshal returns the packed little-endian encoding, exactly Size bytes.
func (r *Record) Marshal() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, Size))
	// binary.Write cannot fail on a fixed-size struct into a bytes.Buffer.
	_ = binary.Write(buf, binary.LittleEndian, r)
	return buf.Bytes()
}

// Unmarshal decodes a packed Record. The input must be exactly Size bytes.
func Unmarshal(data []byte) (*Record, error) {
	if len(data) != Size {
		return nil, fmt.Errorf("record: payload is %d bytes, want %d", len(data), Size)
	}
	var r Record
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &r); err != nil {
		return nil, fmt.Errorf("record: decode: %w", err)
	}
	return &r, nil
}

// SetFacility copies s into the facility field, bounded and NUL-terminated.
func (r *Record) SetFacility(s string) { setString(r.Facility[:], s) }

// SetS1 copies s into the primary string field, bounded and NUL-terminated.
func (r *Record) SetS1(s string) { setString(r.S1[:], s) }

// SetS2 copies s into the secondary string field, bounded and NUL-terminated.
func (r *Record) SetS2(s string) { setString(r.S2[:], s) }

// GetFacility returns the facility field up to the first NUL.
func (r *Record) GetFacility() string { return cstring(r.Facility[:]) }

// GetS1 returns the primary string field up to the first NUL.
func (r *Record) GetS1() string { return cstring(r.S1[:]) }

// GetS2 returns the secondary string field up to the first NUL.
func (r *Record) GetS2() string { return cstring(r.S2[:]) }

// String renders the record as the single human-readable line used by the
// collector's printer.
func (r *Record) String() string {
	return fmt.Sprintf("%-4s %10d %6d %-16s %-12s %5d %5d %10d %9.3f %s %s",
		r.GetFacility(),
		r.Timestamp,
		r.PID,
		taxonomy.Domain(r.Domain),
		taxonomy.Operation(r.Op),
		r.FD,
		r.ErrorCode,
		r.Bytes,
		r.Elapsed,
		r.GetS1(),
		r.GetS2(),
	)
}

func setString(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	// leave at least one trailing NUL
	if len(s) > len(dst)-1 {
		s = s[:len(dst)-1]
	}
	copy(dst, s)
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
