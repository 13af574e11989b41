package svg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineProducesSVG(t *testing.T) {
	html, err := Line(400, 200, []float64{3, 5, 4}, []string{"2025-01-01", "2025-01-02", "2025-01-03"}, LineOpts{
		Title:     "Done orders",
		ShowDots:  true,
		FillColor: "rgba(75,192,192,0.2)",
	})
	require.NoError(t, err)
	out := string(html)
	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.Contains(t, out, "aria-labelledby=\"done-orders-line-title done-orders-line-desc\"")
	assert.Equal(t, 3, strings.Count(out, "<circle"))
	assert.Contains(t, out, "Z\" fill=\"rgba(75,192,192,0.2)\"")
}

func TestLineRejectsMismatch(t *testing.T) {
	_, err := Line(400, 200, []float64{1, 2}, []string{"a"}, LineOpts{})
	assert.Error(t, err)
	_, err = Line(400, 200, nil, nil, LineOpts{})
	assert.Error(t, err)
	_, err = Line(40, 40, []float64{1}, []string{"a"}, LineOpts{Padding: 30})
	assert.Error(t, err)
}

func TestLineMultiDrawsEverySeries(t *testing.T) {
	series := []Series{
		{Label: "Draft", Color: "rgb(128,128,128)", Values: []float64{1, 0, 2}},
		{Label: "Done", Color: "rgb(75,192,192)", Values: []float64{0, 4, 1}},
	}
	html, err := LineMulti(0, 0, series, []string{"d1", "d2", "d3"}, MultiOpts{Title: "MO Status"})
	require.NoError(t, err)
	out := string(html)
	assert.Equal(t, 2, strings.Count(out, "stroke-linejoin"))
	assert.Equal(t, 6, strings.Count(out, "<circle"))
	assert.Equal(t, 2, strings.Count(out, "<rect"))
	assert.Contains(t, out, ">Draft</text>")
	assert.Contains(t, out, "stroke=\"rgb(128,128,128)\"")
}

func TestLineMultiAllZeroStillRenders(t *testing.T) {
	series := []Series{{Label: "Cancelled", Values: []float64{0, 0}}}
	html, err := LineMulti(300, 200, series, []string{"a", "b"}, MultiOpts{HideLegend: true})
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<rect")
	assert.NotContains(t, string(html), "NaN")
}

func TestLineMultiValidatesLengths(t *testing.T) {
	_, err := LineMulti(300, 200, []Series{{Label: "x", Values: []float64{1}}}, []string{"a", "b"}, MultiOpts{})
	assert.Error(t, err)
	_, err = LineMulti(300, 200, nil, []string{"a"}, MultiOpts{})
	assert.Error(t, err)
}

func TestEmptyRendersFrameWithMessage(t *testing.T) {
	html, err := Empty(0, 0, "Nothing here", MultiOpts{Title: "MO Status"})
	require.NoError(t, err)
	out := string(html)
	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.Contains(t, out, ">Nothing here</text>")
	assert.NotContains(t, out, "<circle")
	assert.NotContains(t, out, "NaN")
}
