package action

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/mrp-dashboard/internal/notify"
)

func TestDecodeKeepsUnknownKeys(t *testing.T) {
	d := Decode([]byte(`{"type":"ir.actions.act_url","url":"/web/content/42","target":"self","extra":{"a":1}}`))
	require.NotNil(t, d)
	assert.True(t, d.IsURL())
	assert.Equal(t, "/web/content/42", d.URL())
	assert.Equal(t, "self", d["target"])
	assert.Contains(t, d, "extra")

	assert.Nil(t, Decode([]byte(`true`)))
}

func TestOpenRecordShape(t *testing.T) {
	d := OpenRecord("stock.picking", 17)
	assert.Equal(t, TypeWindow, d.Type())
	assert.Equal(t, "stock.picking", d["res_model"])
	assert.Equal(t, int64(17), d["res_id"])
	assert.Equal(t, "current", d["target"])
	assert.Equal(t, []any{[]any{false, "form"}}, d["views"])
}

type failingExecutor struct{ Outbox }

func (f *failingExecutor) DoAction(context.Context, Descriptor) error {
	return errors.New("access denied")
}

func TestWithViewsKeepsOrder(t *testing.T) {
	d := OpenList("Late Operations", "stock.picking", nil).WithViews("list", "form", "kanban")
	assert.Equal(t, []any{[]any{false, "list"}, []any{false, "form"}, []any{false, "kanban"}}, d["views"])
	assert.Equal(t, TypeWindow, d.Type())
}

func TestNavigatorMockSentinelNeverNavigates(t *testing.T) {
	out := NewOutbox(nil)
	nav := NewNavigator(out, out)

	require.NoError(t, nav.Open(context.Background(), "mrp.production", MockRecordID))

	env := out.Snapshot()
	assert.Empty(t, env.Actions)
	require.Len(t, env.Notices, 1)
	assert.Equal(t, "Mock Data", env.Notices[0].Title)
	assert.Equal(t, notify.TypeInfo, env.Notices[0].Type)
}

func TestNavigatorOpensRecord(t *testing.T) {
	out := NewOutbox(nil)
	nav := NewNavigator(out, out)

	require.NoError(t, nav.Open(context.Background(), "mrp.production", 12))
	require.NoError(t, nav.Open(context.Background(), "mrp.production", 0))

	env := out.Snapshot()
	require.Len(t, env.Actions, 1)
	assert.Equal(t, int64(12), env.Actions[0]["res_id"])
	assert.Empty(t, env.Notices)
}

func TestNavigatorReportsFailure(t *testing.T) {
	out := NewOutbox(nil)
	nav := NewNavigator(&failingExecutor{}, out)

	err := nav.Open(context.Background(), "stock.picking", 3)
	require.Error(t, err)
	env := out.Snapshot()
	require.Len(t, env.Notices, 1)
	assert.Equal(t, "Error opening document: access denied", env.Notices[0].Message)
	assert.Equal(t, notify.TypeDanger, env.Notices[0].Type)
}

func TestOutboxForwardsNotices(t *testing.T) {
	var forwarded int
	out := NewOutbox(notify.NotifierFunc(func(context.Context, notify.Notice) error {
		forwarded++
		return nil
	}))
	require.NoError(t, out.Notify(context.Background(), notify.New(notify.TypeInfo, "a", "b")))
	require.NoError(t, out.OpenURL(context.Background(), "/web/content/1"))
	assert.Equal(t, 1, forwarded)
	assert.Equal(t, []string{"/web/content/1"}, out.Snapshot().URLs)
}
