package mostatus

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/mrp-dashboard/internal/notify"
	"github.com/odyssey-erp/mrp-dashboard/internal/orm"
)

const (
	recentLimit = 15

	codeManufacturing = "mrp_operation"
	codeIncoming      = "incoming"
	codeOutgoing      = "outgoing"
)

// RecentMO is a manufacturing order with a finish date.
type RecentMO struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Product      orm.Many2One `json:"product"`
	Quantity     float64      `json:"product_qty"`
	UoM          orm.Many2One `json:"product_uom"`
	DateStart    string       `json:"date_start"`
	DateFinished string       `json:"date_finished"`
	State        string       `json:"state"`
	StatusText   string       `json:"status_text"`
	StatusClass  string       `json:"status_class"`
}

// OperationType is a picking type shown in the drill-down selector.
type OperationType struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Code      string       `json:"code"`
	Warehouse orm.Many2One `json:"warehouse"`
}

// OperationDoc is a manufacturing order or transfer of an operation type.
type OperationDoc struct {
	ID          int64        `json:"id"`
	Model       string       `json:"model"`
	Name        string       `json:"name"`
	Date        string       `json:"date"`
	Product     orm.Many2One `json:"product"`
	Quantity    float64      `json:"quantity"`
	UoM         orm.Many2One `json:"uom"`
	Warehouse   orm.Many2One `json:"warehouse"`
	State       string       `json:"state"`
	StatusText  string       `json:"status_text"`
	StatusClass string       `json:"status_class"`
}

// DocumentModel returns the model listing documents of a picking type code.
func DocumentModel(code string) string {
	if code == codeManufacturing {
		return ModelProduction
	}
	return ModelPicking
}

// Service loads everything the status dashboard displays. Failures are reported to
// the supplied notifier and degrade to empty results, except for the chart whose
// error is returned so the caller can keep the previous one.
type Service struct {
	client   orm.Client
	source   Source
	cache    *Cache
	renderer ChartRenderer
	logger   *slog.Logger
	group    singleflight.Group
	now      func() time.Time
}

// NewService constructs the dashboard service.
func NewService(client orm.Client, source Source, cache *Cache, renderer ChartRenderer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if renderer == nil {
		renderer = SVGRenderer{}
	}
	return &Service{
		client:   client,
		source:   source,
		cache:    cache,
		renderer: renderer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.now() }

// Regenerate rebuilds the snapshot for r. Concurrent requests for the same range share
// one regeneration.
func (s *Service) Regenerate(ctx context.Context, r DateRange) error {
	_, err, _ := s.group.Do("generate:"+r.String(), func() (any, error) {
		return nil, s.source.Generate(ctx, r)
	})
	return err
}

// LoadChart regenerates the snapshot for r and returns the chart built from it.
func (s *Service) LoadChart(ctx context.Context, n notify.Notifier, r DateRange) (ChartData, error) {
	chart, err := s.loadChart(ctx, r)
	if err != nil {
		s.logger.Error("load chart", slog.String("range", r.String()), slog.Any("error", err))
		_ = n.Notify(ctx, notify.New(notify.TypeDanger, "Error",
			fmt.Sprintf("Error loading dashboard data: %v", err)).AsSticky())
		return ChartData{}, err
	}
	return chart, nil
}

func (s *Service) loadChart(ctx context.Context, r DateRange) (ChartData, error) {
	if err := s.Regenerate(ctx, r); err != nil {
		return ChartData{}, err
	}
	points, err := s.source.Points(ctx, r)
	if err != nil {
		return ChartData{}, err
	}
	return BuildChartData(points), nil
}

// RenderChart draws the chart, reporting render failures as sticky notices.
func (s *Service) RenderChart(ctx context.Context, n notify.Notifier, chart ChartData) (template.HTML, error) {
	html, err := s.renderer.Render(chart)
	if err != nil {
		_ = n.Notify(ctx, notify.New(notify.TypeDanger, "Error",
			fmt.Sprintf("Error rendering chart: %v", err)).AsSticky())
		return "", err
	}
	return html, nil
}

// RecentMOs returns the last finished manufacturing orders.
func (s *Service) RecentMOs(ctx context.Context, n notify.Notifier) []RecentMO {
	rows, err := s.client.SearchRead(ctx, ModelProduction,
		orm.Domain{orm.Where("date_finished", orm.OpNe, false)},
		[]string{"name", "product_id", "product_qty", "product_uom_id", "date_start", "date_finished", "state"},
		orm.SearchOptions{Order: "date_finished desc", Limit: recentLimit})
	if err != nil {
		s.logger.Warn("load recent orders", slog.Any("error", err))
		_ = n.Notify(ctx, notify.New(notify.TypeDanger, "Error", fmt.Sprintf("Error loading recent MOs: %v", err)))
		return []RecentMO{}
	}
	out := make([]RecentMO, 0, len(rows))
	for _, row := range rows {
		state := row.String("state")
		out = append(out, RecentMO{
			ID:           row.ID(),
			Name:         row.String("name"),
			Product:      row.Many2One("product_id"),
			Quantity:     row.Float("product_qty"),
			UoM:          row.Many2One("product_uom_id"),
			DateStart:    row.String("date_start"),
			DateFinished: row.String("date_finished"),
			State:        state,
			StatusText:   StatusText(state),
			StatusClass:  StatusClass(state),
		})
	}
	return out
}

// OperationTypes returns the manufacturing, receipt and delivery picking types.
func (s *Service) OperationTypes(ctx context.Context, n notify.Notifier) []OperationType {
	types, err := s.operationTypes(ctx)
	if err != nil {
		s.logger.Warn("load operation types", slog.Any("error", err))
		_ = n.Notify(ctx, notify.New(notify.TypeDanger, "Error", fmt.Sprintf("Error loading operation types: %v", err)))
		return []OperationType{}
	}
	return types
}

func (s *Service) operationTypes(ctx context.Context) ([]OperationType, error) {
	key, err := s.cache.Key(ctx, "operation_types")
	if err != nil {
		return nil, err
	}
	var types []OperationType
	err = s.cache.FetchJSON(ctx, key, &types, func(ctx context.Context) (any, error) {
		rows, err := s.client.SearchRead(ctx, ModelPickingType,
			orm.Domain{orm.Where("code", orm.OpIn, []string{codeManufacturing, codeIncoming, codeOutgoing})},
			[]string{"name", "code", "warehouse_id"}, orm.SearchOptions{})
		if err != nil {
			return nil, err
		}
		out := make([]OperationType, 0, len(rows))
		for _, row := range rows {
			out = append(out, OperationType{
				ID:        row.ID(),
				Name:      row.String("name"),
				Code:      row.String("code"),
				Warehouse: row.Many2One("warehouse_id"),
			})
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return types, nil
}

// OperationDocuments lists the documents of a picking type. An unknown or zero type
// yields an empty list.
func (s *Service) OperationDocuments(ctx context.Context, n notify.Notifier, typeID int64) []OperationDoc {
	if typeID <= 0 {
		return []OperationDoc{}
	}
	var selected *OperationType
	for _, t := range s.OperationTypes(ctx, n) {
		if t.ID == typeID {
			t := t
			selected = &t
			break
		}
	}
	if selected == nil {
		return []OperationDoc{}
	}

	model := DocumentModel(selected.Code)
	fields := []string{"name", "scheduled_date", "product_id", "product_uom_qty", "product_uom_id", "warehouse_id", "state"}
	dateField, qtyField := "scheduled_date", "product_uom_qty"
	if model == ModelProduction {
		fields = []string{"name", "date_start", "product_id", "product_qty", "product_uom_id", "warehouse_id", "state"}
		dateField, qtyField = "date_start", "product_qty"
	}

	rows, err := s.client.SearchRead(ctx, model,
		orm.Domain{orm.Where("picking_type_id", orm.OpEq, selected.ID)},
		fields, orm.SearchOptions{Order: "name desc"})
	if err != nil {
		s.logger.Warn("load operation documents", slog.Int64("type_id", typeID), slog.Any("error", err))
		_ = n.Notify(ctx, notify.New(notify.TypeDanger, "Error", fmt.Sprintf("Error loading documents: %v", err)))
		return []OperationDoc{}
	}
	docs := make([]OperationDoc, 0, len(rows))
	for _, row := range rows {
		state := row.String("state")
		docs = append(docs, OperationDoc{
			ID:          row.ID(),
			Model:       model,
			Name:        row.String("name"),
			Date:        row.String(dateField),
			Product:     row.Many2One("product_id"),
			Quantity:    row.Float(qtyField),
			UoM:         row.Many2One("product_uom_id"),
			Warehouse:   row.Many2One("warehouse_id"),
			State:       state,
			StatusText:  StatusText(state),
			StatusClass: StatusClass(state),
		})
	}
	return docs
}

// Load assembles a full dashboard for r. A chart failure keeps the empty chart.
func (s *Service) Load(ctx context.Context, n notify.Notifier, r DateRange, selectedType int64) Dashboard {
	d := NewDashboard(r)
	if chart, err := s.LoadChart(ctx, n, r); err == nil {
		d = d.WithChart(chart)
	}
	d = d.WithRecent(s.RecentMOs(ctx, n)).WithOperationTypes(s.OperationTypes(ctx, n))
	d = d.SelectOperationType(selectedType)
	if selectedType > 0 {
		d = d.WithOperationDocs(s.OperationDocuments(ctx, n, selectedType))
	}
	return d
}
