package mostatus

import (
	"html/template"

	"github.com/odyssey-erp/mrp-dashboard/internal/chart/svg"
)

// Point is one day of state counts.
type Point struct {
	Date      string `json:"date"`
	Draft     int    `json:"draft"`
	Confirmed int    `json:"confirmed"`
	Progress  int    `json:"progress"`
	Done      int    `json:"done"`
	Cancel    int    `json:"cancel"`
}

// Count returns the count for a state.
func (p Point) Count(s State) int {
	switch s {
	case StateDraft:
		return p.Draft
	case StateConfirmed:
		return p.Confirmed
	case StateProgress:
		return p.Progress
	case StateDone:
		return p.Done
	case StateCancel:
		return p.Cancel
	default:
		return 0
	}
}

func (p *Point) add(s State) {
	switch s {
	case StateDraft:
		p.Draft++
	case StateConfirmed:
		p.Confirmed++
	case StateProgress:
		p.Progress++
	case StateDone:
		p.Done++
	case StateCancel:
		p.Cancel++
	}
}

// Dataset is one state's series.
type Dataset struct {
	State           State  `json:"state"`
	Label           string `json:"label"`
	Data            []int  `json:"data"`
	BorderColor     string `json:"borderColor"`
	BackgroundColor string `json:"backgroundColor"`
}

// ChartData holds the labels and the five state datasets.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// BuildChartData maps points onto five datasets, each as long as points.
func BuildChartData(points []Point) ChartData {
	chart := ChartData{Labels: make([]string, len(points))}
	for i, p := range points {
		chart.Labels[i] = p.Date
	}
	for _, s := range orderedStates {
		data := make([]int, len(points))
		for i, p := range points {
			data[i] = p.Count(s)
		}
		chart.Datasets = append(chart.Datasets, Dataset{
			State:           s,
			Label:           s.Label(),
			Data:            data,
			BorderColor:     s.Color(),
			BackgroundColor: s.Fill(),
		})
	}
	return chart
}

// ChartRenderer draws chart data.
type ChartRenderer interface {
	Render(chart ChartData) (template.HTML, error)
}

// SVGRenderer renders charts with the inline SVG line renderer.
type SVGRenderer struct {
	Width  int
	Height int
}

// Render implements ChartRenderer. A chart without days renders an empty frame.
func (r SVGRenderer) Render(chart ChartData) (template.HTML, error) {
	opts := svg.MultiOpts{
		Title:       "Manufacturing Orders Status",
		Description: "Daily manufacturing order counts per state",
		TickCount:   4,
	}
	if len(chart.Labels) == 0 {
		return svg.Empty(r.Width, r.Height, "No manufacturing orders in this range", opts)
	}
	series := make([]svg.Series, 0, len(chart.Datasets))
	for _, ds := range chart.Datasets {
		values := make([]float64, len(ds.Data))
		for i, v := range ds.Data {
			values[i] = float64(v)
		}
		series = append(series, svg.Series{Label: ds.Label, Color: ds.BorderColor, Values: values})
	}
	return svg.LineMulti(r.Width, r.Height, series, chart.Labels, opts)
}
