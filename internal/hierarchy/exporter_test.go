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
	"github.com/odyssey-erp/mrp-dashboard/internal/orm/ormtest"
)

func exportWith(t *testing.T, result json.RawMessage, callErr error, moID int64) (action.Envelope, *ormtest.Fake, error) {
	t.Helper()
	fake := &ormtest.Fake{
		CallFunc: func(model, method string, args []any) (json.RawMessage, error) {
			assert.Equal(t, ModelProduction, model)
			assert.Equal(t, MethodExport, method)
			assert.Equal(t, []any{moID}, args)
			return result, callErr
		},
	}
	out := action.NewOutbox(nil)
	err := NewExporter(fake, nil).Export(context.Background(), out, out, moID)
	return out.Snapshot(), fake, err
}

func TestExportOpensURL(t *testing.T) {
	env, _, err := exportWith(t, json.RawMessage(`{"type": "ir.actions.act_url", "url": "/x", "target": "new"}`), nil, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"/x"}, env.URLs)
	assert.Empty(t, env.Actions)
	require.Len(t, env.Notices, 2)
	assert.Equal(t, notify.TypeInfo, env.Notices[0].Type)
	assert.Equal(t, "Exporting...", env.Notices[0].Title)
	assert.Equal(t, notify.TypeSuccess, env.Notices[1].Type)
	assert.Equal(t, "Export Success", env.Notices[1].Title)
}

func TestExportForwardsOtherActions(t *testing.T) {
	raw := json.RawMessage(`{"type": "ir.actions.client", "tag": "display_notification",
		"params": {"title": "No data", "type": "warning"}, "custom_key": 3}`)
	env, _, err := exportWith(t, raw, nil, 7)
	require.NoError(t, err)
	assert.Empty(t, env.URLs)
	require.Len(t, env.Actions, 1)
	assert.Equal(t, action.Decode(raw), env.Actions[0])
	require.Len(t, env.Notices, 1)
}

func TestExportWithoutOrderWarns(t *testing.T) {
	env, fake, err := exportWith(t, nil, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, fake.Calls())
	require.Len(t, env.Notices, 1)
	assert.Equal(t, notify.TypeWarning, env.Notices[0].Type)
	assert.Equal(t, "Export Error", env.Notices[0].Title)
}

func TestExportFailureNotifies(t *testing.T) {
	env, _, err := exportWith(t, nil, errors.New("xlsxwriter missing"), 7)
	require.Error(t, err)
	require.Len(t, env.Notices, 2)
	assert.Equal(t, notify.TypeDanger, env.Notices[1].Type)
	assert.Contains(t, env.Notices[1].Message, "xlsxwriter missing")
	assert.Empty(t, env.URLs)
	assert.Empty(t, env.Actions)
}
