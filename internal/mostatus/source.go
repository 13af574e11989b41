package mostatus

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/mrp-dashboard/internal/orm"
)

// Backend models read and written by the dashboard.
const (
	ModelSnapshot    = "custom.mo.dashboard"
	ModelProduction  = "mrp.production"
	ModelPicking     = "stock.picking"
	ModelPickingType = "stock.picking.type"
	ModelWorkorder   = "mrp.workorder"
)

var snapshotFields = []string{"date", "draft", "confirmed", "progress", "done", "cancel"}

// Source regenerates and reads the daily state snapshot.
type Source interface {
	// Generate rebuilds the snapshot rows for every day of r.
	Generate(ctx context.Context, r DateRange) error
	// Points returns the snapshot rows of r ordered by date ascending.
	Points(ctx context.Context, r DateRange) ([]Point, error)
}

// RemoteSource delegates snapshot generation to the backend model.
type RemoteSource struct {
	client orm.Client
}

// NewRemoteSource constructs a RemoteSource.
func NewRemoteSource(client orm.Client) *RemoteSource {
	return &RemoteSource{client: client}
}

// Generate implements Source.
func (s *RemoteSource) Generate(ctx context.Context, r DateRange) error {
	if _, err := s.client.Call(ctx, ModelSnapshot, "generate_data", []any{r.StartString(), r.EndString()}, nil); err != nil {
		return fmt.Errorf("generate snapshot: %w", err)
	}
	return nil
}

// Points implements Source.
func (s *RemoteSource) Points(ctx context.Context, r DateRange) ([]Point, error) {
	rows, err := s.client.SearchRead(ctx, ModelSnapshot, orm.Domain{
		orm.Where("date", orm.OpGte, r.StartString()),
		orm.Where("date", orm.OpLte, r.EndString()),
	}, snapshotFields, orm.SearchOptions{Order: "date asc"})
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	points := make([]Point, 0, len(rows))
	for _, row := range rows {
		points = append(points, Point{
			Date:      row.String("date"),
			Draft:     int(row.Int64("draft")),
			Confirmed: int(row.Int64("confirmed")),
			Progress:  int(row.Int64("progress")),
			Done:      int(row.Int64("done")),
			Cancel:    int(row.Int64("cancel")),
		})
	}
	return points, nil
}
