package mostatus

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/odyssey-erp/mrp-dashboard/internal/action"
	"github.com/odyssey-erp/mrp-dashboard/internal/chart/svg"
	"github.com/odyssey-erp/mrp-dashboard/internal/notify"
	"github.com/odyssey-erp/mrp-dashboard/internal/orm"
)

// WorkorderDomain matches open work orders: in progress, ready or waiting, or pending
// on an order that left draft. A positive workcenterID restricts it to that work center.
func WorkorderDomain(workcenterID int64) orm.Domain {
	d := orm.Domain{
		orm.Or(), orm.Where("state", orm.OpEq, "progress"),
		orm.Or(), orm.Where("state", orm.OpEq, "ready"),
		orm.Or(), orm.Where("state", orm.OpEq, "waiting"),
		orm.Both(), orm.Where("state", orm.OpEq, "pending"), orm.Where("production_state", orm.OpNe, "draft"),
	}
	if workcenterID > 0 {
		d = d.And(orm.Where("workcenter_id", orm.OpEq, workcenterID))
	}
	return d
}

// WorkcenterLoad summarises the open work orders of one work center.
type WorkcenterLoad struct {
	Workcenter       orm.Many2One `json:"workcenter"`
	Count            int          `json:"count_workorders"`
	DurationExpected float64      `json:"duration_expected"`
}

// WorkorderGraph is the per work center chart data, one entry per work center.
type WorkorderGraph struct {
	Workcenters []string  `json:"workcenters"`
	Count       []int     `json:"count"`
	Duration    []float64 `json:"duration"`
}

// WorkcenterLoads groups the open work orders by work center. Work orders without a
// work center are left out.
func (s *Service) WorkcenterLoads(ctx context.Context, n notify.Notifier) []WorkcenterLoad {
	loads, err := s.workcenterLoads(ctx)
	if err != nil {
		s.logger.Warn("load work orders", slog.Any("error", err))
		_ = n.Notify(ctx, notify.New(notify.TypeDanger, "Error", fmt.Sprintf("Error loading work orders: %v", err)))
		return []WorkcenterLoad{}
	}
	return loads
}

func (s *Service) workcenterLoads(ctx context.Context) ([]WorkcenterLoad, error) {
	raw, err := s.client.Call(ctx, ModelWorkorder, "read_group",
		[]any{WorkorderDomain(0), []string{"workcenter_id", "duration_expected"}, []string{"workcenter_id"}},
		map[string]any{"lazy": false})
	if err != nil {
		return nil, err
	}
	groups, err := orm.DecodeRecords(raw)
	if err != nil {
		return nil, fmt.Errorf("decode work order groups: %w", err)
	}
	loads := make([]WorkcenterLoad, 0, len(groups))
	for _, g := range groups {
		wc := g.Many2One("workcenter_id")
		if !wc.Valid() {
			continue
		}
		count := g.Int64("__count")
		if !g.Has("__count") {
			count = g.Int64("workcenter_id_count")
		}
		loads = append(loads, WorkcenterLoad{
			Workcenter:       wc,
			Count:            int(count),
			DurationExpected: g.Float("duration_expected"),
		})
	}
	return loads, nil
}

// WorkcenterLoad counts the open work orders of one work center and sums their
// expected duration. The work center name is taken from the first work order.
func (s *Service) WorkcenterLoad(ctx context.Context, n notify.Notifier, workcenterID int64) (WorkcenterLoad, error) {
	rows, err := s.client.SearchRead(ctx, ModelWorkorder, WorkorderDomain(workcenterID),
		[]string{"workcenter_id", "duration_expected"}, orm.SearchOptions{})
	if err != nil {
		s.logger.Warn("load work center", slog.Int64("workcenter_id", workcenterID), slog.Any("error", err))
		_ = n.Notify(ctx, notify.New(notify.TypeDanger, "Error", fmt.Sprintf("Error loading work orders: %v", err)))
		return WorkcenterLoad{}, err
	}
	load := WorkcenterLoad{Workcenter: orm.Many2One{ID: workcenterID}, Count: len(rows)}
	for _, row := range rows {
		if load.Workcenter.Name == "" {
			if wc := row.Many2One("workcenter_id"); wc.ID == workcenterID {
				load.Workcenter = wc
			}
		}
		load.DurationExpected += row.Float("duration_expected")
	}
	return load, nil
}

// BuildWorkorderGraph lays the loads out as parallel chart arrays.
func BuildWorkorderGraph(loads []WorkcenterLoad) WorkorderGraph {
	g := WorkorderGraph{
		Workcenters: make([]string, 0, len(loads)),
		Count:       make([]int, 0, len(loads)),
		Duration:    make([]float64, 0, len(loads)),
	}
	for _, l := range loads {
		g.Workcenters = append(g.Workcenters, l.Workcenter.Name)
		g.Count = append(g.Count, l.Count)
		g.Duration = append(g.Duration, l.DurationExpected)
	}
	return g
}

// RenderWorkorderGraph draws the open work order count per work center.
func RenderWorkorderGraph(g WorkorderGraph, width, height int) (template.HTML, error) {
	if len(g.Workcenters) == 0 {
		return svg.Empty(width, height, "No open work orders", svg.MultiOpts{
			Title:       "Work Orders",
			Description: "Open work orders per work center",
		})
	}
	values := make([]float64, len(g.Count))
	for i, c := range g.Count {
		values[i] = float64(c)
	}
	return svg.Line(width, height, values, g.Workcenters, svg.LineOpts{
		Title:       "Work Orders",
		Description: "Open work orders per work center",
		ShowDots:    true,
		TickCount:   4,
	})
}

// WorkorderAction opens the open work orders of a work center grouped by state.
func WorkorderAction(wc orm.Many2One) action.Descriptor {
	name := "Work Orders"
	if wc.Name != "" {
		name = "Work Orders - " + wc.Name
	}
	d := action.OpenList(name, ModelWorkorder, WorkorderDomain(wc.ID))
	d["context"] = map[string]any{"group_by": "state"}
	return d
}
