package interpose

import (
	"testing"

	"github.com/saworbit/iotrace/pkg/taxonomy"
)

func TestClassifyKnownNames(t *testing.T) {
	tests := []struct {
		name string
		want CallSpec
	}{
		{"open", CallSpec{taxonomy.FileOpenClose, taxonomy.Open}},
		{"creat", CallSpec{taxonomy.FileOpenClose, taxonomy.Open}},
		{"pwrite", CallSpec{taxonomy.FileWrite, taxonomy.Write}},
		{"pread", CallSpec{taxonomy.FileRead, taxonomy.Read}},
		{"fdatasync", CallSpec{taxonomy.Syncs, taxonomy.Sync}},
		{"flush", CallSpec{taxonomy.Syncs, taxonomy.Flush}},
		{"lsetxattr", CallSpec{taxonomy.Xattrs, taxonomy.Setxattr}},
		{"umount", CallSpec{taxonomy.FileSystems, taxonomy.Umount}},
		{"fstat", CallSpec{taxonomy.FileMetadata, taxonomy.Stat}},
		{"rename", CallSpec{taxonomy.Misc, taxonomy.Rename}},
		{"fallocate", CallSpec{taxonomy.FileSpace, taxonomy.Allocate}},
		{"scandir", CallSpec{taxonomy.DirMetadata, taxonomy.Scandir}},
		{"accept", CallSpec{taxonomy.Sockets, taxonomy.Accept}},
	}
	for _, tt := range tests {
		if got := classify(tt.name); got != tt.want {
			t.Errorf("classify(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestClassifyUnknownName(t *testing.T) {
	cs := classify("no_such_call")
	if cs.Domain != taxonomy.Misc {
		t.Errorf("unknown name classified into %s, want MISC", cs.Domain)
	}
	if cs.Op.String() != "UNKNOWN" {
		t.Errorf("unknown name op renders as %q, want UNKNOWN", cs.Op.String())
	}
}

// Every table entry must agree with the taxonomy's own op-to-domain mapping.
func TestCallTableConsistent(t *testing.T) {
	for name, cs := range calls {
		if want := taxonomy.DomainOf(cs.Op); cs.Domain != want {
			t.Errorf("calls[%q] puts %s in %s, taxonomy says %s", name, cs.Op, cs.Domain, want)
		}
		if cs.Op.String() == "UNKNOWN" {
			t.Errorf("calls[%q] maps to an unnamed operation", name)
		}
	}
}
