package action

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/mrp-dashboard/internal/notify"
)

// MockRecordID marks rows of demonstration data that have no backing record.
const MockRecordID int64 = 9999

// Navigator opens records in the host UI.
type Navigator struct {
	exec     Executor
	notifier notify.Notifier
}

// NewNavigator constructs a Navigator.
func NewNavigator(exec Executor, notifier notify.Notifier) *Navigator {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Navigator{exec: exec, notifier: notifier}
}

// Open navigates to the form view of model/id. Mock rows only raise an info notice
// and non-positive ids are ignored.
func (n *Navigator) Open(ctx context.Context, model string, id int64) error {
	if id == MockRecordID {
		return n.notifier.Notify(ctx, notify.New(notify.TypeInfo, "Mock Data",
			"This is demonstration data. Real records will open when data is available."))
	}
	if id <= 0 || model == "" {
		return nil
	}
	if err := n.exec.DoAction(ctx, OpenRecord(model, id)); err != nil {
		_ = n.notifier.Notify(ctx, notify.New(notify.TypeDanger, "Error",
			fmt.Sprintf("Error opening document: %v", err)))
		return err
	}
	return nil
}
