package collector

import (
	"fmt"
	"io"
	"sync"
)

// headerEvery is how many record lines appear between repeated headers.
const headerEvery = 20

// Printer renders records as aligned human-readable lines, re-printing the
// column header periodically so a scrolling capture stays legible.
type Printer struct {
	mu    sync.Mutex
	w     io.Writer
	count int
}

// NewPrinter writes rendered records to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print renders one record line, preceded by a header every headerEvery
// lines.
func (p *Printer) Print(line fmt.Stringer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.count%headerEvery == 0 {
		fmt.Fprintf(p.w, "%-4s %10s %6s %-16s %-12s %5s %5s %10s %9s %s\n",
			"FAC", "TIMESTAMP", "PID", "DOMAIN", "OP", "FD", "ERR", "BYTES", "MS", "ARGS")
	}
	p.count++
	fmt.Fprintln(p.w, line.String())
}
