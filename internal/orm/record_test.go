package orm

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAccessorsTolerateFalse(t *testing.T) {
	rows, err := DecodeRecords(json.RawMessage(`[{
		"id": 41,
		"name": "WH/OUT/0041",
		"origin": false,
		"partner_id": [9, "Deco Addict"],
		"move_ids": [101, 102],
		"price_unit": 12.5,
		"scheduled_date": "2025-03-04 10:15:00",
		"date_done": false
	}]`))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	rec := rows[0]

	assert.Equal(t, int64(41), rec.ID())
	assert.Equal(t, "", rec.String("origin"))
	assert.False(t, rec.Has("origin"))
	assert.True(t, rec.Has("name"))
	assert.Equal(t, Many2One{ID: 9, Name: "Deco Addict"}, rec.Many2One("partner_id"))
	assert.False(t, rec.Many2One("origin").Valid())
	assert.Equal(t, []int64{101, 102}, rec.IDs("move_ids"))
	assert.Equal(t, 12.5, rec.Float("price_unit"))
	assert.Equal(t, 0.0, rec.Float("missing"))
	assert.Equal(t, time.Date(2025, 3, 4, 10, 15, 0, 0, time.UTC), rec.Time("scheduled_date"))
	assert.True(t, rec.Time("date_done").IsZero())
}

func TestDomainMarshal(t *testing.T) {
	raw, err := json.Marshal(Domain{
		Where("code", OpIn, []string{"mrp_operation", "incoming"}),
		Where("date", OpGte, "2025-01-01"),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[["code","in",["mrp_operation","incoming"]],["date",">=","2025-01-01"]]`, string(raw))

	var empty Domain
	raw, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestDomainAndDoesNotAlias(t *testing.T) {
	base := make(Domain, 1, 4)
	base[0] = Where("state", OpEq, "done")
	a := base.And(Where("id", OpEq, 1))
	b := base.And(Where("id", OpEq, 2))
	assert.Equal(t, 1, a[1].Value)
	assert.Equal(t, 2, b[1].Value)
	assert.Len(t, base, 1)
}

func TestDomainMarshalPrefixOperators(t *testing.T) {
	raw, err := json.Marshal(Domain{
		Or(), Where("state", OpEq, "ready"),
		Both(), Where("state", OpEq, "pending"), Where("production_state", OpNe, "draft"),
		Where("workcenter_id", OpEq, 3),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `["|",["state","=","ready"],"&",["state","=","pending"],["production_state","!=","draft"],["workcenter_id","=",3]]`, string(raw))
	assert.True(t, Or().IsOperator())
	assert.False(t, Where("", OpEq, 1).IsOperator())
}
