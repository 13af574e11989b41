package mostatus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/odyssey-erp/mrp-dashboard/internal/action"
	"github.com/odyssey-erp/mrp-dashboard/internal/notify"
	"github.com/odyssey-erp/mrp-dashboard/internal/orm"
)

// OperationTile is one tile of the operations dashboard: the counters of a picking type.
type OperationTile struct {
	Name       string        `json:"name"`
	Color      int           `json:"color"`
	Type       OperationType `json:"operation_type"`
	Model      string        `json:"model"`
	Todo       int           `json:"count_todo"`
	Waiting    int           `json:"count_waiting"`
	Late       int           `json:"count_late"`
	InProgress int           `json:"count_in_progress"`
}

type tileSpec struct {
	code  string
	name  string
	color int
}

var defaultTiles = []tileSpec{
	{codeManufacturing, "Manufacturing Operations", 5},
	{codeOutgoing, "Finished Products", 6},
	{codeIncoming, "Raw Materials", 7},
}

func tileFor(t OperationType) tileSpec {
	for _, spec := range defaultTiles {
		if spec.code == t.Code {
			return tileSpec{code: t.Code, name: spec.name, color: spec.color}
		}
	}
	return tileSpec{code: t.Code, name: t.Name}
}

func typeDomain(t OperationType) orm.Domain {
	return orm.Domain{orm.Where("picking_type_id", orm.OpEq, t.ID)}
}

// OperationCountDomain returns the filter behind one tile counter.
func OperationCountDomain(t OperationType, kind CountKind, now time.Time) orm.Domain {
	base := typeDomain(t)
	cutoff := now.Format(orm.DatetimeLayout)
	if DocumentModel(t.Code) == ModelProduction {
		switch kind {
		case KindReady:
			return base.And(
				orm.Where("state", orm.OpIn, []string{"confirmed", "planned"}),
				orm.Where("reservation_state", orm.OpEq, "assigned"))
		case KindWaiting:
			return base.And(
				orm.Where("state", orm.OpIn, []string{"confirmed", "planned"}),
				orm.Where("reservation_state", orm.OpEq, "waiting"))
		case KindLate:
			return base.And(
				orm.Where("state", orm.OpIn, []string{"confirmed", "planned", "progress"}),
				orm.Where("date_start", orm.OpLt, cutoff))
		case KindInProgress:
			return base.And(orm.Where("state", orm.OpEq, "progress"))
		}
		return base
	}
	switch kind {
	case KindReady:
		return base.And(orm.Where("state", orm.OpIn, []string{"assigned"}))
	case KindWaiting:
		return base.And(orm.Where("state", orm.OpIn, []string{"confirmed", "waiting"}))
	case KindLate:
		return base.And(
			orm.Where("state", orm.OpNotIn, []string{"done", "cancel"}),
			orm.Where("scheduled_date", orm.OpLt, cutoff))
	case KindInProgress:
		return base.And(orm.Where("state", orm.OpEq, "assigned"))
	}
	return base
}

// OperationActionDomain returns the filter of the list opened from a counter. It is
// wider than the counter itself so that drafts and orders about to close are listed.
func OperationActionDomain(t OperationType, kind CountKind, now time.Time) orm.Domain {
	base := typeDomain(t)
	cutoff := now.Format(orm.DatetimeLayout)
	if DocumentModel(t.Code) == ModelProduction {
		return base.And(CardAll.KindDomain(kind, now)...)
	}
	switch kind {
	case KindReady:
		return base.And(orm.Where("state", orm.OpIn, []string{"assigned", "confirmed"}))
	case KindWaiting:
		return base.And(orm.Where("state", orm.OpIn, []string{"confirmed", "waiting", "draft"}))
	case KindLate:
		return base.And(
			orm.Where("state", orm.OpNotIn, []string{"done", "cancel"}),
			orm.Where("scheduled_date", orm.OpLt, cutoff))
	case KindInProgress:
		return base.And(orm.Where("state", orm.OpEq, "assigned"))
	}
	return base
}

// OperationAction builds the list action behind a tile. KindAll opens every document
// of the type with the default filter of its model.
func OperationAction(t OperationType, kind CountKind, now time.Time) action.Descriptor {
	model := DocumentModel(t.Code)
	if kind == KindAll {
		name, filter := "Transfers", "search_default_available"
		if model == ModelProduction {
			name, filter = "Manufacturing Orders", "search_default_todo"
		}
		d := action.OpenList(name, model, typeDomain(t))
		d["context"] = map[string]any{filter: 1}
		return d
	}
	d := action.OpenList(kindTitles[kind], model, OperationActionDomain(t, kind, now)).WithViews("list", "form", "kanban")
	d["context"] = map[string]any{}
	return d
}

// OperationTiles builds the default tiles: manufacturing, finished products and raw
// materials, each on the first picking type with that code. A tile whose counters
// fail is dropped and reported.
func (s *Service) OperationTiles(ctx context.Context, n notify.Notifier, now time.Time) []OperationTile {
	types := s.OperationTypes(ctx, n)
	tiles := make([]OperationTile, 0, len(defaultTiles))
	for _, spec := range defaultTiles {
		for _, t := range types {
			if t.Code != spec.code {
				continue
			}
			if tile, err := s.operationTile(ctx, t, now); err != nil {
				s.reportTile(ctx, n, t, err)
			} else {
				tiles = append(tiles, tile)
			}
			break
		}
	}
	return tiles
}

// OperationTile computes the tile of a single picking type. The boolean is false when
// the type is unknown or its counters could not be loaded.
func (s *Service) OperationTile(ctx context.Context, n notify.Notifier, typeID int64, now time.Time) (OperationTile, bool) {
	t, ok := s.FindOperationType(ctx, n, typeID)
	if !ok {
		return OperationTile{}, false
	}
	tile, err := s.operationTile(ctx, t, now)
	if err != nil {
		s.reportTile(ctx, n, t, err)
		return OperationTile{}, false
	}
	return tile, true
}

// FindOperationType looks a picking type up among the dashboard's types.
func (s *Service) FindOperationType(ctx context.Context, n notify.Notifier, typeID int64) (OperationType, bool) {
	if typeID <= 0 {
		return OperationType{}, false
	}
	for _, t := range s.OperationTypes(ctx, n) {
		if t.ID == typeID {
			return t, true
		}
	}
	return OperationType{}, false
}

func (s *Service) operationTile(ctx context.Context, t OperationType, now time.Time) (OperationTile, error) {
	spec := tileFor(t)
	model := DocumentModel(t.Code)
	tile := OperationTile{Name: spec.name, Color: spec.color, Type: t, Model: model}
	targets := []struct {
		kind CountKind
		dst  *int
	}{
		{KindReady, &tile.Todo},
		{KindWaiting, &tile.Waiting},
		{KindLate, &tile.Late},
		{KindInProgress, &tile.InProgress},
	}
	for _, target := range targets {
		n, err := s.client.SearchCount(ctx, model, OperationCountDomain(t, target.kind, now))
		if err != nil {
			return OperationTile{}, fmt.Errorf("count %s/%s: %w", t.Code, target.kind, err)
		}
		*target.dst = n
	}
	return tile, nil
}

func (s *Service) reportTile(ctx context.Context, n notify.Notifier, t OperationType, err error) {
	s.logger.Warn("operation tile", slog.Int64("type_id", t.ID), slog.Any("error", err))
	_ = n.Notify(ctx, notify.New(notify.TypeDanger, "Error", fmt.Sprintf("Error loading %s counters: %v", t.Name, err)))
}
