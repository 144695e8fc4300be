package report

import (
	"fmt"
	"html/template"
	"io"
)

var pageTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><title>iotrace report</title>
<style>
  body { font-family: sans-serif; }
  .lane { position: absolute; border: solid black 1px; background: white; z-index: 3; }
  .lane:hover { background: yellow; border-color: red; }
  .lane .tip, .arrow .tip { display: none; }
  .lane:hover .tip, .arrow:hover .tip {
    display: block; position: fixed; right: 0; bottom: 0;
    width: 420px; background: pink; padding: 0.5em; z-index: 9;
  }
  .label { position: absolute; transform: rotate(-90deg); font-size: 10px; width: 200px; text-align: left; }
  .arrow { position: absolute; border-top: solid black 1px; z-index: 6; }
  .arrow:hover { border-top: solid red 2px; }
</style>
</head>
<body>
{{- range .Columns}}
<div class="lane" style="width:{{$.ColWidth}}px;height:{{.Height}}px;top:{{.Top}}px;left:{{.Left}}px">&nbsp;
  <div class="tip"><p>Command: {{.Command}}</p><p>PID: {{.PID}}, PPID: {{.PPID}}</p></div>
</div>
{{- if .Primary}}
<div class="label" style="top:{{.LabelTop}}px;left:{{.LabelLeft}}px">{{.Exe}}</div>
{{- end}}
{{- end}}
{{- range .Arrows}}
<div class="arrow" style="width:{{.Width}}px;height:10px;top:{{.Y}}px;left:{{.FromX}}px">&nbsp;
  <div class="tip"><p>{{.Description}}</p></div>
</div>
{{- end}}
</body>
</html>
`))

type htmlColumn struct {
	Column
	LabelTop  int
	LabelLeft int
}

type htmlArrow struct {
	Arrow
	Width int
}

type htmlPage struct {
	ColWidth int
	Columns  []htmlColumn
	Arrows   []htmlArrow
}

// WriteHTML renders the diagram as a standalone HTML page.
func (d *Diagram) WriteHTML(w io.Writer) error {
	page := htmlPage{ColWidth: colWidth}
	for _, c := range d.Columns {
		page.Columns = append(page.Columns, htmlColumn{
			Column:    c,
			LabelTop:  c.Top - 110,
			LabelLeft: c.Left - 9*colWidth,
		})
	}
	for _, a := range d.Arrows {
		width := a.ToX - a.FromX
		if width < 0 {
			a.FromX, width = a.ToX, -width
		}
		page.Arrows = append(page.Arrows, htmlArrow{Arrow: a, Width: width})
	}

	if err := pageTmpl.Execute(w, page); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
