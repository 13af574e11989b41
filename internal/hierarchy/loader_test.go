package hierarchy

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/mrp-dashboard/internal/action"
	"github.com/odyssey-erp/mrp-dashboard/internal/notify"
	"github.com/odyssey-erp/mrp-dashboard/internal/orm"
	"github.com/odyssey-erp/mrp-dashboard/internal/orm/ormtest"
)

func deliveryBackend(productErr error) *ormtest.Fake {
	return &ormtest.Fake{
		SearchReadFunc: func(model string, domain orm.Domain, fields []string, opts orm.SearchOptions) ([]orm.Record, error) {
			switch model {
			case ModelPicking:
				return ormtest.Rows(`[{"id": 4, "name": "WH/OUT/0004", "origin": "WH/MO/0007",
					"partner_id": [9, "Deco Addict"], "state": "assigned",
					"scheduled_date": "2025-03-04 10:00:00", "date_done": false, "move_ids": [40, 41]}]`), nil
			case ModelMove:
				return ormtest.Rows(`[
					{"id": 40, "product_id": [100, "Thinner"], "product_uom_qty": 2, "quantity": 2,
					 "product_uom": [1, "Units"], "state": "assigned", "price_unit": 0},
					{"id": 41, "product_id": [101, "Primer"], "product_uom_qty": 1, "quantity": 0,
					 "product_uom": [1, "Units"], "state": "confirmed", "price_unit": 7.5}
				]`), nil
			case ModelProduct:
				if productErr != nil && domain[0].Value == int64(101) {
					return nil, productErr
				}
				return ormtest.Rows(`[{"id": 100, "list_price": 12, "standard_price": 4,
					"default_code": "AA-065", "description": false, "description_sale": "Solvent"}]`), nil
			}
			return nil, nil
		},
	}
}

func TestLoadDeliveriesEnrichesMoves(t *testing.T) {
	fake := deliveryBackend(nil)
	loader := NewLoader(fake, nil)

	deliveries := loader.LoadDeliveries(context.Background(), notify.Discard, []int64{4})
	require.Len(t, deliveries, 1)
	d := deliveries[0]
	assert.Equal(t, "WH/OUT/0004", d.Name)
	assert.Equal(t, "Deco Addict", d.Partner.Name)
	assert.Empty(t, d.DateDone)
	require.Len(t, d.Moves, 2)

	m := d.Moves[0]
	assert.Equal(t, 12.0, m.PriceUnit)
	assert.Equal(t, 4.0, m.CostUnit)
	assert.Equal(t, "AA-065", m.InternalRef)
	assert.Equal(t, "Solvent", m.ProductDescription)
	assert.Equal(t, "[AA-065] Thinner", m.DisplayName)
	assert.Equal(t, 7.5, d.Moves[1].PriceUnit)

	assert.Len(t, fake.CallsTo(ModelProduct), 2)
}

func TestLoadDeliveriesProductFailureFallsBack(t *testing.T) {
	loader := NewLoader(deliveryBackend(errors.New("access denied")), nil)

	deliveries := loader.LoadDeliveries(context.Background(), notify.Discard, []int64{4})
	require.Len(t, deliveries, 1)
	require.Len(t, deliveries[0].Moves, 2)
	m := deliveries[0].Moves[1]
	assert.Equal(t, 0.0, m.CostUnit)
	assert.Equal(t, "Primer", m.DisplayName)
	assert.Empty(t, m.InternalRef)
	assert.Empty(t, m.ProductDescription)
	assert.Equal(t, 7.5, m.PriceUnit)
	assert.Equal(t, "[AA-065] Thinner", deliveries[0].Moves[0].DisplayName)
}

func TestLoadDeliveriesEmptyLookupFallsBack(t *testing.T) {
	fake := deliveryBackend(nil)
	inner := fake.SearchReadFunc
	fake.SearchReadFunc = func(model string, domain orm.Domain, fields []string, opts orm.SearchOptions) ([]orm.Record, error) {
		if model == ModelProduct {
			return nil, nil
		}
		return inner(model, domain, fields, opts)
	}
	deliveries := NewLoader(fake, nil).LoadDeliveries(context.Background(), notify.Discard, []int64{4})
	require.Len(t, deliveries, 1)
	assert.Equal(t, "Thinner", deliveries[0].Moves[0].DisplayName)
	assert.Equal(t, 0.0, deliveries[0].Moves[0].PriceUnit)
}

func TestLoadDeliveriesPickingErrorGivesEmpty(t *testing.T) {
	fake := &ormtest.Fake{
		SearchReadFunc: func(model string, domain orm.Domain, fields []string, opts orm.SearchOptions) ([]orm.Record, error) {
			return nil, errors.New("timeout")
		},
	}
	out := action.NewOutbox(nil)
	deliveries := NewLoader(fake, nil).LoadDeliveries(context.Background(), out, []int64{4})
	assert.NotNil(t, deliveries)
	assert.Empty(t, deliveries)
	notices := out.Snapshot().Notices
	require.Len(t, notices, 1)
	assert.Equal(t, notify.TypeDanger, notices[0].Type)
	assert.False(t, notices[0].Sticky)
	assert.Equal(t, "Error loading deliveries: timeout", notices[0].Message)

	assert.Empty(t, NewLoader(fake, nil).LoadDeliveries(context.Background(), notify.Discard, nil))
	assert.Len(t, fake.Calls(), 1)
}

func TestLoadOverviewRemote(t *testing.T) {
	fake := &ormtest.Fake{
		CallFunc: func(model, method string, args []any) (json.RawMessage, error) {
			assert.Equal(t, ModelProduction, model)
			assert.Equal(t, MethodOverview, method)
			assert.Equal(t, []any{int64(7)}, args)
			return json.RawMessage(`{"summary": {"id": 7, "name": "Table"},
				"components": [{"summary": {"id": "bom_12", "mo_cost": 5}}]}`), nil
		},
	}
	ov := NewLoader(fake, nil).LoadOverview(context.Background(), notify.Discard, 7)
	require.NotNil(t, ov)
	assert.Equal(t, Text("Table"), ov.Summary.Name)
	assert.Equal(t, ID("bom_12"), ov.Components[0].Summary.ID)
	assert.NotNil(t, ov.Components[0].SubMOs)
	assert.NotNil(t, ov.Operations)
}

func TestLoadOverviewNullAndZero(t *testing.T) {
	fake := &ormtest.Fake{}
	loader := NewLoader(fake, nil)
	assert.Nil(t, loader.LoadOverview(context.Background(), notify.Discard, 0))
	assert.Empty(t, fake.Calls())

	assert.Nil(t, loader.LoadOverview(context.Background(), notify.Discard, 7))
	assert.Len(t, fake.Calls(), 1)
}

func TestLoadOverviewFallback(t *testing.T) {
	fake := &ormtest.Fake{
		CallFunc: func(model, method string, args []any) (json.RawMessage, error) {
			return nil, &orm.RPCError{Message: "method does not exist"}
		},
		SearchReadFunc: func(model string, domain orm.Domain, fields []string, opts orm.SearchOptions) ([]orm.Record, error) {
			switch model {
			case ModelProduction:
				return ormtest.Rows(`[{"id": 7, "name": "WH/MO/0007", "product_id": [5, "Table"],
					"product_qty": 3, "product_uom_id": [1, "Units"], "state": "confirmed", "move_raw_ids": [70]}]`), nil
			case ModelMove:
				return ormtest.Rows(`[{"id": 70, "product_id": [100, "Leg"], "product_uom_qty": 12,
					"quantity": 0, "state": "confirmed", "reserved_availability": 4}]`), nil
			case ModelProduct:
				return ormtest.Rows(`[{"id": 100, "default_code": "LEG-1", "description": "Oak leg", "standard_price": 9}]`), nil
			}
			return nil, nil
		},
	}
	ov := NewLoader(fake, nil).LoadOverview(context.Background(), notify.Discard, 7)
	require.NotNil(t, ov)
	assert.Equal(t, Text("Table"), ov.Summary.Name)
	assert.Equal(t, Text("Confirmed"), ov.Summary.FormattedState)
	assert.Equal(t, 0.0, ov.Summary.MOCost)
	require.Len(t, ov.Components, 1)
	c := ov.Components[0]
	assert.Equal(t, Text("[LEG-1] Leg"), c.Summary.Name)
	assert.Equal(t, Text("Units"), c.Summary.UoMName)
	assert.Equal(t, 4.0, c.Summary.QuantityReserved)
	assert.Equal(t, 0.0, c.Summary.MOCost)
	assert.Empty(t, c.SubMOs)
	assert.NotNil(t, c.SubMOs)
	assert.Equal(t, 0.0, MOTotalCost(ov))
}

func TestLoadRunsBothHalves(t *testing.T) {
	fake := deliveryBackend(nil)
	fake.CallFunc = func(model, method string, args []any) (json.RawMessage, error) {
		return json.RawMessage(`{"summary": {"name": "Table"}, "components": []}`), nil
	}
	res := NewLoader(fake, nil).Load(context.Background(), notify.Discard, Request{MOID: 7, DeliveryIDs: []int64{4}})
	assert.Len(t, res.Deliveries, 1)
	require.NotNil(t, res.Overview)
	assert.Equal(t, Text("Table"), res.Overview.Summary.Name)
}

func TestLoadDeliveriesMoveErrorNotifies(t *testing.T) {
	inner := deliveryBackend(nil).SearchReadFunc
	fake := &ormtest.Fake{
		SearchReadFunc: func(model string, domain orm.Domain, fields []string, opts orm.SearchOptions) ([]orm.Record, error) {
			if model == ModelMove {
				return nil, errors.New("moves unavailable")
			}
			return inner(model, domain, fields, opts)
		},
	}
	out := action.NewOutbox(nil)
	assert.Empty(t, NewLoader(fake, nil).LoadDeliveries(context.Background(), out, []int64{4}))
	require.Len(t, out.Snapshot().Notices, 1)
	assert.Contains(t, out.Snapshot().Notices[0].Message, "moves unavailable")
}

func TestLoadOverviewFallbackFailureNotifies(t *testing.T) {
	fake := &ormtest.Fake{
		CallFunc: func(model, method string, args []any) (json.RawMessage, error) {
			return nil, errors.New("backend down")
		},
		SearchReadFunc: func(model string, domain orm.Domain, fields []string, opts orm.SearchOptions) ([]orm.Record, error) {
			return nil, errors.New("backend down")
		},
	}
	out := action.NewOutbox(nil)
	assert.Nil(t, NewLoader(fake, nil).LoadOverview(context.Background(), out, 7))
	notices := out.Snapshot().Notices
	require.Len(t, notices, 1)
	assert.Equal(t, "Error loading MO overview: backend down", notices[0].Message)
}

func TestLoadOverviewFallbackSuccessIsQuiet(t *testing.T) {
	fake := &ormtest.Fake{
		CallFunc: func(model, method string, args []any) (json.RawMessage, error) {
			return nil, errors.New("method missing")
		},
		SearchReadFunc: func(model string, domain orm.Domain, fields []string, opts orm.SearchOptions) ([]orm.Record, error) {
			return ormtest.Rows(`[{"id": 7, "name": "WH/MO/0007", "product_id": [5, "Table"], "state": "draft"}]`), nil
		},
	}
	out := action.NewOutbox(nil)
	require.NotNil(t, NewLoader(fake, nil).LoadOverview(context.Background(), out, 7))
	assert.Empty(t, out.Snapshot().Notices)
}
