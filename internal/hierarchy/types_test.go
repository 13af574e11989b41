package hierarchy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var ids []ID
	require.NoError(t, json.Unmarshal([]byte(`[12, "bom_12", false, null]`), &ids))
	assert.Equal(t, []ID{"12", "bom_12", "", ""}, ids)
	assert.Equal(t, int64(12), ids[0].Int64())
	assert.Equal(t, int64(0), ids[1].Int64())

	raw, err := json.Marshal([]ID{"12", "bom_12"})
	require.NoError(t, err)
	assert.JSONEq(t, `[12, "bom_12"]`, string(raw))
}

func TestTextToleratesFalse(t *testing.T) {
	var s OrderSummary
	require.NoError(t, json.Unmarshal([]byte(`{"name": false, "uom_name": "Units", "customer_name": null}`), &s))
	assert.Equal(t, Text(""), s.Name)
	assert.Equal(t, Text("Units"), s.UoMName)
	assert.Equal(t, Text(""), s.CustomerName)
}

func TestNormalizeFillsCollections(t *testing.T) {
	var ov Overview
	require.NoError(t, json.Unmarshal([]byte(`{"summary": {"name": "Chair"}, "components": [{"summary": {"id": 1}}]}`), &ov))
	ov.normalize()
	require.NotNil(t, ov.Operations)
	assert.NotNil(t, ov.Operations.Details)
	assert.NotNil(t, ov.Components[0].SubMOs)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "[AA-065] Thinner 3A", FormatProductName("Thinner 3A", "AA-065"))
	assert.Equal(t, "Thinner 3A", FormatProductName("Thinner 3A", "  "))

	assert.Equal(t, "In Progress", FormatState("progress"))
	assert.Equal(t, "Cancelled", FormatState("cancel"))
	assert.Equal(t, "assigned", FormatState("assigned"))

	assert.Equal(t, "primary", StatusColor("progress"))
	assert.Equal(t, "danger", StatusColor("unavailable"))
	assert.Equal(t, "secondary", StatusColor("weird"))

	assert.Equal(t, "badge badge-pill badge-primary", StatusBadgeClass("assigned"))
	assert.Equal(t, "badge badge-pill badge-secondary", StatusBadgeClass(""))
}
