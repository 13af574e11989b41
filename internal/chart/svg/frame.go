package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// frame holds the plot geometry shared by every renderer.
type frame struct {
	padding float64
	top     float64
	width   float64
	height  float64
	points  int
	min     float64
	max     float64
}

func newFrame(width, height int, padding, top float64, points int, minVal, maxVal float64) (frame, error) {
	if padding <= 0 {
		padding = DefaultPadding
	}
	f := frame{
		padding: padding,
		top:     padding + top,
		width:   float64(width) - 2*padding,
		height:  float64(height) - 2*padding - top,
		points:  points,
		min:     math.Min(minVal, 0),
		max:     math.Max(maxVal, 0),
	}
	if f.width <= 0 || f.height <= 0 {
		return frame{}, fmt.Errorf("svg: viewport too small")
	}
	if almostEqual(f.max, f.min) {
		f.max = f.min + 1
	}
	return f, nil
}

func (f frame) x(i int) float64 {
	if f.points <= 1 {
		return f.padding + f.width/2
	}
	return f.padding + float64(i)*f.width/float64(f.points-1)
}

func (f frame) y(v float64) float64 {
	return f.top + f.height - (v-f.min)*f.height/(f.max-f.min)
}

func (f frame) baseline() float64 { return f.top + f.height }

func (f frame) path(values []float64) string {
	var b strings.Builder
	for i, v := range values {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		} else {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s%.2f %.2f", cmd, f.x(i), f.y(v))
	}
	return b.String()
}

func (f frame) writeGrid(b *strings.Builder, ticks int, axisColor, gridColor string) {
	for i := 0; i <= ticks; i++ {
		ratio := float64(i) / float64(ticks)
		y := f.baseline() - ratio*f.height
		value := f.min + (f.max-f.min)*ratio
		fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", f.padding, y, f.padding+f.width, y, gridColor)
		fmt.Fprintf(b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", f.padding-6, y+4, axisColor, template.HTMLEscapeString(formatTick(value)))
	}
	fmt.Fprintf(b, "<g stroke=\"%s\" aria-label=\"Axes\">", axisColor)
	fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", f.padding, f.top, f.padding, f.baseline())
	fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", f.padding, f.baseline(), f.padding+f.width, f.baseline())
	b.WriteString("</g>")
}

func (f frame) writeLabels(b *strings.Builder, labels []string, axisColor string) {
	for i, label := range labels {
		fmt.Fprintf(b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", f.x(i), f.baseline()+14, axisColor, template.HTMLEscapeString(label))
	}
}

func writeHeader(b *strings.Builder, width, height int, title, desc, kind string) {
	titleID := makeID(title, kind+"-title")
	descID := makeID(title, kind+"-desc")
	fmt.Fprintf(b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID)
	fmt.Fprintf(b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(title))
	fmt.Fprintf(b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(desc))
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func bounds(values []float64) (float64, float64) {
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	return minVal, maxVal
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return cleaned + "-" + suffix
}

func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	case almostEqual(v, math.Round(v)):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}
