// Package svg renders small server-side charts as inline SVG.
package svg

// LineOpts customises the single series renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
}

// Series is one named line of a multi series chart.
type Series struct {
	Label  string
	Color  string
	Values []float64
}

// MultiOpts customises the multi series renderer.
type MultiOpts struct {
	Title       string
	Description string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
	HideLegend  bool
}

// Defaults shared by the renderers.
const (
	DefaultWidth   = 720
	DefaultHeight  = 280
	DefaultPadding = 32.0
	DefaultTicks   = 5

	legendHeight = 18.0
)
