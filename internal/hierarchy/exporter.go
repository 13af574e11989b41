package hierarchy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/mrp-dashboard/internal/action"
	"github.com/odyssey-erp/mrp-dashboard/internal/notify"
	"github.com/odyssey-erp/mrp-dashboard/internal/orm"
)

// Exporter runs the backend's Excel export for an order.
type Exporter struct {
	client orm.Client
	logger *slog.Logger
}

// NewExporter constructs an Exporter.
func NewExporter(client orm.Client, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{client: client, logger: logger}
}

// Export asks the backend for the export action. A download link is opened and
// confirmed; any other action is handed to exec as returned.
func (e *Exporter) Export(ctx context.Context, exec action.Executor, n notify.Notifier, moID int64) error {
	if n == nil {
		n = notify.Discard
	}
	if moID == 0 {
		return n.Notify(ctx, notify.New(notify.TypeWarning, "Export Error", "No manufacturing order to export."))
	}
	_ = n.Notify(ctx, notify.New(notify.TypeInfo, "Exporting...", "Generating the Excel file, please wait."))

	raw, err := e.client.Call(ctx, ModelProduction, MethodExport, []any{moID}, nil)
	if err != nil {
		e.logger.Error("export overview", slog.Any("error", err), slog.Int64("mo_id", moID))
		_ = n.Notify(ctx, notify.New(notify.TypeDanger, "Export Error", fmt.Sprintf("Export failed: %v", err)))
		return err
	}

	desc := action.Decode(raw)
	if desc.IsURL() {
		if err := exec.OpenURL(ctx, desc.URL()); err != nil {
			return err
		}
		return n.Notify(ctx, notify.New(notify.TypeSuccess, "Export Success", "The Excel file has been created."))
	}
	return exec.DoAction(ctx, desc)
}
