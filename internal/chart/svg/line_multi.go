package svg

import (
	"fmt"
	"html/template"
	"strings"
)

var palette = []string{"#2563eb", "#16a34a", "#f59e0b", "#dc2626", "#7c3aed"}

// LineMulti renders several series sharing one x axis, each with dots, plus a legend.
func LineMulti(width, height int, series []Series, labels []string, opts MultiOpts) (template.HTML, error) {
	if len(series) == 0 || len(labels) == 0 {
		return "", fmt.Errorf("svg: series required")
	}
	var all []float64
	for _, s := range series {
		if len(s.Values) != len(labels) {
			return "", fmt.Errorf("svg: series %q has %d values for %d labels", s.Label, len(s.Values), len(labels))
		}
		all = append(all, s.Values...)
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	ticks := opts.TickCount
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	legend := legendHeight
	if opts.HideLegend {
		legend = 0
	}
	minVal, maxVal := bounds(all)
	f, err := newFrame(width, height, opts.Padding, legend, len(labels), minVal, maxVal)
	if err != nil {
		return "", err
	}
	axis := fallback(opts.AxisColor, "#475569")

	var b strings.Builder
	writeHeader(&b, width, height, fallback(opts.Title, "Line chart"), fallback(opts.Description, "Series comparison"), "multi")
	f.writeGrid(&b, ticks, axis, fallback(opts.GridColor, "#e2e8f0"))

	for i, s := range series {
		color := fallback(s.Color, palette[i%len(palette)])
		fmt.Fprintf(&b, "<g aria-label=\"%s\">", template.HTMLEscapeString(s.Label))
		fmt.Fprintf(&b, "<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\"></path>", f.path(s.Values), color)
		for j, v := range s.Values {
			fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"></circle>", f.x(j), f.y(v), color)
		}
		b.WriteString("</g>")
	}

	if !opts.HideLegend {
		x := f.padding
		y := f.padding
		for i, s := range series {
			color := fallback(s.Color, palette[i%len(palette)])
			fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", x, y, color)
			fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\">%s</text>", x+14, y+9, axis, template.HTMLEscapeString(s.Label))
			x += 24 + float64(len(s.Label))*6
		}
	}

	f.writeLabels(&b, labels, axis)
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// Empty renders the chart frame with a centred message and no series.
func Empty(width, height int, message string, opts MultiOpts) (template.HTML, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	ticks := opts.TickCount
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	f, err := newFrame(width, height, opts.Padding, 0, 0, 0, 0)
	if err != nil {
		return "", err
	}
	axis := fallback(opts.AxisColor, "#475569")

	var b strings.Builder
	writeHeader(&b, width, height, fallback(opts.Title, "Line chart"), fallback(opts.Description, "Series comparison"), "empty")
	f.writeGrid(&b, ticks, axis, fallback(opts.GridColor, "#e2e8f0"))
	fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"12\" text-anchor=\"middle\">%s</text>",
		f.padding+f.width/2, f.top+f.height/2, axis, template.HTMLEscapeString(fallback(message, "No data")))
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
