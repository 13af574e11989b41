package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// Line renders a single series line chart with an optional filled area.
func Line(width, height int, series []float64, labels []string, opts LineOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("svg: series required")
	}
	if len(series) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match series")
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
	minVal, maxVal := bounds(series)
	f, err := newFrame(width, height, opts.Padding, 0, len(series), minVal, maxVal)
	if err != nil {
		return "", err
	}
	stroke := fallback(opts.StrokeColor, "#2563eb")
	axis := fallback(opts.AxisColor, "#475569")

	var b strings.Builder
	writeHeader(&b, width, height, fallback(opts.Title, "Line chart"), fallback(opts.Description, "Trend data"), "line")
	f.writeGrid(&b, ticks, axis, fallback(opts.GridColor, "#cbd5f5"))

	path := f.path(series)
	if opts.FillColor != "" {
		fmt.Fprintf(&b, "<path d=\"%s L%.2f %.2f L%.2f %.2f Z\" fill=\"%s\" stroke=\"none\" aria-hidden=\"true\"></path>",
			path, f.x(len(series)-1), f.baseline(), f.x(0), f.baseline(), opts.FillColor)
	}
	fmt.Fprintf(&b, "<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\"></path>", path, stroke)
	if opts.ShowDots {
		for i, v := range series {
			fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"></circle>", f.x(i), f.y(v), stroke)
		}
	}
	f.writeLabels(&b, labels, axis)
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
