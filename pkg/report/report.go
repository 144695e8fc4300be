// Package report derives a process-relationship diagram from a captured
// record sequence: one column per observed process (from START/STOP
// lifecycle records) and one arrow per observed CONNECT, paired with the
// BIND that claimed the port.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/saworbit/iotrace/pkg/record"
	"github.com/saworbit/iotrace/pkg/taxonomy"
)

// Layout constants, in pixels.
const (
	mainColSep = 30
	colWidth   = 10
	topStart   = 200
	minHeight  = 10
)

// Column is one process lane in the diagram.
type Column struct {
	PID     int
	PPID    int
	Command string
	Exe     string

	Top     int
	Left    int
	Height  int
	Primary bool
}

// Arrow is one observed connection between two columns.
type Arrow struct {
	FromX       int
	ToX         int
	Y           int
	Description string
}

// Diagram is the derived layout, ready for rendering.
type Diagram struct {
	Columns []Column
	Arrows  []Arrow
	Bottom  int
}

// Build walks the record sequence once and derives the diagram. Processes
// with no parent column become primary lanes; children indent under their
// parent. Connections resolve through the port registered by the matching
// BIND.
func Build(records []*record.Record) *Diagram {
	d := &Diagram{}
	top := topStart
	primaries := 0
	portOwner := map[int]int{} // port -> column index

	for _, rec := range records {
		top++
		switch taxonomy.Operation(rec.Op) {
		case taxonomy.Start:
			col := Column{
				PID:     int(rec.PID),
				Command: rec.GetS1(),
				Exe:     exeName(rec.GetS1()),
				Top:     top,
			}
			if ppid, err := strconv.Atoi(rec.GetS2()); err == nil {
				col.PPID = ppid
			}
			if parent := d.columnByPID(col.PPID); parent >= 0 {
				col.Left = d.Columns[parent].Left + colWidth*2/3
			} else {
				col.Primary = true
				col.Left = mainColSep/2 + mainColSep*primaries
				primaries++
			}
			d.Columns = append(d.Columns, col)

		case taxonomy.Stop:
			if i := d.columnByPID(int(rec.PID)); i >= 0 {
				h := top - d.Columns[i].Top
				if h < minHeight {
					top += minHeight - h
					h = minHeight
				}
				d.Columns[i].Height = h
			}

		case taxonomy.Bind:
			if i := d.columnByPID(int(rec.PID)); i >= 0 {
				if port, ok := addrPort(rec.GetS1()); ok {
					portOwner[port] = i
				}
			}

		case taxonomy.Connect:
			src := d.columnByPID(int(rec.PID))
			port, ok := addrPort(rec.GetS1())
			if src < 0 || !ok {
				break
			}
			dst, bound := portOwner[port]
			if !bound {
				break
			}
			d.Arrows = append(d.Arrows, Arrow{
				FromX:       d.Columns[src].Left + colWidth/2,
				ToX:         d.Columns[dst].Left + colWidth/2,
				Y:           top + 5,
				Description: fmt.Sprintf("connect to %s", rec.GetS1()),
			})
			top += 10
		}
	}

	top += 20
	for i := range d.Columns {
		// never saw a STOP; extend the lane to the bottom
		if d.Columns[i].Height < minHeight {
			d.Columns[i].Height = top - d.Columns[i].Top
		}
	}
	d.Bottom = top
	return d
}

func (d *Diagram) columnByPID(pid int) int {
	for i := range d.Columns {
		if d.Columns[i].PID == pid {
			return i
		}
	}
	return -1
}

// exeName extracts a short executable name from a recorded command line.
func exeName(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return command
	}
	return filepath.Base(fields[0])
}

// addrPort parses the port out of a recorded "ip:port" address.
func addrPort(addr string) (int, bool) {
	i := strings.LastIndexByte(addr, ':')
	if i < 0 {
		return 0, false
	}
	port, err := strconv.Atoi(addr[i+1:])
	if err != nil || port <= 0 || port >= 1<<16 {
		return 0, false
	}
	return port, true
}

// ReadDump loads a flat file of consecutive packed records. A trailing
// partial record is ignored rather than failing the whole dump.
func ReadDump(path string) ([]*record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dump: %w", err)
	}

	var records []*record.Record
	for len(data) >= record.Size {
		rec, err := record.Unmarshal(data[:record.Size])
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		data = data[record.Size:]
	}
	return records, nil
}
