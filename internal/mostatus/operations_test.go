package mostatus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/mrp-dashboard/internal/action"
	"github.com/odyssey-erp/mrp-dashboard/internal/notify"
	"github.com/odyssey-erp/mrp-dashboard/internal/orm"
	"github.com/odyssey-erp/mrp-dashboard/internal/orm/ormtest"
)

var (
	manufacturingType = OperationType{ID: 1, Name: "Manufacturing", Code: "mrp_operation"}
	receiptType       = OperationType{ID: 2, Name: "Receipts", Code: "incoming"}
)

func tilesFake(countErr error) *ormtest.Fake {
	return &ormtest.Fake{
		SearchReadFunc: func(model string, domain orm.Domain, fields []string, opts orm.SearchOptions) ([]orm.Record, error) {
			return ormtest.Rows(`[
				{"id": 2, "name": "Receipts", "code": "incoming", "warehouse_id": [1, "WH"]},
				{"id": 1, "name": "Manufacturing", "code": "mrp_operation", "warehouse_id": [1, "WH"]},
				{"id": 5, "name": "Second Manufacturing", "code": "mrp_operation", "warehouse_id": [2, "WH2"]}
			]`), nil
		},
		SearchCountFunc: func(model string, domain orm.Domain) (int, error) {
			if countErr != nil && model == ModelPicking {
				return 0, countErr
			}
			return len(domain), nil
		},
	}
}

func TestOperationCountDomainManufacturing(t *testing.T) {
	late := OperationCountDomain(manufacturingType, KindLate, cardNow)
	assert.Equal(t, orm.Domain{
		orm.Where("picking_type_id", orm.OpEq, int64(1)),
		orm.Where("state", orm.OpIn, []string{"confirmed", "planned", "progress"}),
		orm.Where("date_start", orm.OpLt, "2025-04-10 14:30:00"),
	}, late)

	ready := OperationCountDomain(manufacturingType, KindReady, cardNow)
	assert.Equal(t, orm.Where("reservation_state", orm.OpEq, "assigned"), ready[2])
}

func TestOperationCountDomainTransfers(t *testing.T) {
	late := OperationCountDomain(receiptType, KindLate, cardNow)
	assert.Equal(t, orm.Domain{
		orm.Where("picking_type_id", orm.OpEq, int64(2)),
		orm.Where("state", orm.OpNotIn, []string{"done", "cancel"}),
		orm.Where("scheduled_date", orm.OpLt, "2025-04-10 14:30:00"),
	}, late)
	assert.Equal(t, orm.Where("state", orm.OpEq, "assigned"), OperationCountDomain(receiptType, KindInProgress, cardNow)[1])
}

func TestOperationActionWidensCounters(t *testing.T) {
	d := OperationAction(manufacturingType, KindInProgress, cardNow)
	assert.Equal(t, "In Progress", d["name"])
	assert.Equal(t, ModelProduction, d["res_model"])
	assert.Equal(t, orm.Domain{
		orm.Where("picking_type_id", orm.OpEq, int64(1)),
		orm.Where("state", orm.OpIn, []string{"progress", "to_close"}),
	}, d["domain"])
	assert.Len(t, d["views"], 3)

	d = OperationAction(receiptType, KindWaiting, cardNow)
	assert.Equal(t, ModelPicking, d["res_model"])
	assert.Equal(t, orm.Where("state", orm.OpIn, []string{"confirmed", "waiting", "draft"}), d["domain"].(orm.Domain)[1])
}

func TestOperationActionOverviewContext(t *testing.T) {
	d := OperationAction(manufacturingType, KindAll, cardNow)
	assert.Equal(t, "Manufacturing Orders", d["name"])
	assert.Equal(t, map[string]any{"search_default_todo": 1}, d["context"])

	d = OperationAction(receiptType, KindAll, cardNow)
	assert.Equal(t, "Transfers", d["name"])
	assert.Equal(t, map[string]any{"search_default_available": 1}, d["context"])
	assert.Equal(t, orm.Domain{orm.Where("picking_type_id", orm.OpEq, int64(2))}, d["domain"])
}

func TestOperationTilesUseFirstTypePerCode(t *testing.T) {
	fake := tilesFake(nil)
	svc := NewService(fake, nil, nil, nil, nil)

	tiles := svc.OperationTiles(context.Background(), notify.Discard, cardNow)
	require.Len(t, tiles, 2)
	assert.Equal(t, "Manufacturing Operations", tiles[0].Name)
	assert.Equal(t, 5, tiles[0].Color)
	assert.Equal(t, int64(1), tiles[0].Type.ID)
	assert.Equal(t, ModelProduction, tiles[0].Model)
	assert.Equal(t, 3, tiles[0].Todo)
	assert.Equal(t, 2, tiles[0].InProgress)

	assert.Equal(t, "Raw Materials", tiles[1].Name)
	assert.Equal(t, 7, tiles[1].Color)
	assert.Equal(t, ModelPicking, tiles[1].Model)
	assert.Len(t, fake.CallsTo(ModelPicking), 4)
}

func TestOperationTilesReportFailedCounters(t *testing.T) {
	svc := NewService(tilesFake(errors.New("timeout")), nil, nil, nil, nil)
	out := action.NewOutbox(notify.Discard)

	tiles := svc.OperationTiles(context.Background(), out, cardNow)
	require.Len(t, tiles, 1)
	assert.Equal(t, "Manufacturing Operations", tiles[0].Name)

	notices := out.Snapshot().Notices
	require.Len(t, notices, 1)
	assert.Equal(t, notify.TypeDanger, notices[0].Type)
	assert.Contains(t, notices[0].Message, "Error loading Receipts counters")
}

func TestOperationTileUnknownType(t *testing.T) {
	svc := NewService(tilesFake(nil), nil, nil, nil, nil)
	_, ok := svc.OperationTile(context.Background(), notify.Discard, 99, cardNow)
	assert.False(t, ok)

	tile, ok := svc.OperationTile(context.Background(), notify.Discard, 5, cardNow)
	require.True(t, ok)
	assert.Equal(t, "Manufacturing Operations", tile.Name)
	assert.Equal(t, "Second Manufacturing", tile.Type.Name)
}
