package hierarchy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/mrp-dashboard/internal/notify"
	"github.com/odyssey-erp/mrp-dashboard/internal/orm"
)

// Backend models read by the loader.
const (
	ModelProduction = "mrp.production"
	ModelPicking    = "stock.picking"
	ModelMove       = "stock.move"
	ModelProduct    = "product.product"
)

// Backend methods invoked on mrp.production.
const (
	MethodOverview = "get_mo_overview_data"
	MethodExport   = "action_export_mo_overview_excel"
)

var (
	pickingFields = []string{"name", "origin", "partner_id", "state", "scheduled_date", "date_done", "move_ids"}
	moveFields    = []string{
		"product_id", "description_picking", "product_uom_qty", "quantity", "product_uom",
		"state", "location_id", "location_dest_id", "price_unit",
	}
	productPriceFields = []string{"list_price", "standard_price", "default_code", "description", "description_sale"}

	productionFields  = []string{"name", "product_id", "product_qty", "product_uom_id", "state", "move_raw_ids"}
	rawMoveFields     = []string{"product_id", "product_uom_qty", "quantity", "state", "reserved_availability"}
	productInfoFields = []string{"default_code", "description", "description_sale", "standard_price"}
)

// Request selects what the viewer shows.
type Request struct {
	MOID        int64   `json:"mo_id" validate:"gte=0"`
	DeliveryIDs []int64 `json:"delivery_ids" validate:"dive,gt=0"`
}

// Result is everything the viewer needs to render one request.
type Result struct {
	Deliveries []Delivery `json:"deliveries"`
	Overview   *Overview  `json:"overview"`
}

// Loader fetches deliveries and the manufacturing order overview from the backend.
type Loader struct {
	client orm.Client
	logger *slog.Logger
}

// NewLoader constructs a Loader.
func NewLoader(client orm.Client, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{client: client, logger: logger}
}

// Load fetches deliveries and the overview in parallel. Neither half can fail the other;
// failures are reported to n instead.
func (l *Loader) Load(ctx context.Context, n notify.Notifier, req Request) Result {
	var res Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res.Deliveries = l.LoadDeliveries(gctx, n, req.DeliveryIDs)
		return nil
	})
	g.Go(func() error {
		res.Overview = l.LoadOverview(gctx, n, req.MOID)
		return nil
	})
	_ = g.Wait()
	return res
}

// LoadDeliveries reads the pickings, their moves and the product of each move. A failed
// product lookup only blanks that move's enrichment; a picking-level failure yields an
// empty list.
func (l *Loader) LoadDeliveries(ctx context.Context, n notify.Notifier, ids []int64) []Delivery {
	if len(ids) == 0 {
		return []Delivery{}
	}
	rows, err := l.client.SearchRead(ctx, ModelPicking, orm.Domain{orm.Where("id", orm.OpIn, ids)}, pickingFields, orm.SearchOptions{})
	if err != nil {
		l.logger.Error("load deliveries", slog.Any("error", err), slog.Any("ids", ids))
		l.report(ctx, n, "Error loading deliveries: %v", err)
		return []Delivery{}
	}

	deliveries := make([]Delivery, 0, len(rows))
	for _, row := range rows {
		d := Delivery{
			ID:            row.ID(),
			Name:          row.String("name"),
			Origin:        row.String("origin"),
			Partner:       row.Many2One("partner_id"),
			State:         row.String("state"),
			ScheduledDate: row.String("scheduled_date"),
			DateDone:      row.String("date_done"),
			MoveIDs:       row.IDs("move_ids"),
			Moves:         []Move{},
		}
		if len(d.MoveIDs) > 0 {
			moves, err := l.loadMoves(ctx, d.MoveIDs)
			if err != nil {
				l.logger.Error("load deliveries", slog.Any("error", err), slog.String("delivery", d.Name))
				l.report(ctx, n, "Error loading deliveries: %v", err)
				return []Delivery{}
			}
			d.Moves = moves
		}
		deliveries = append(deliveries, d)
	}
	return deliveries
}

func (l *Loader) loadMoves(ctx context.Context, ids []int64) ([]Move, error) {
	rows, err := l.client.SearchRead(ctx, ModelMove, orm.Domain{orm.Where("id", orm.OpIn, ids)}, moveFields, orm.SearchOptions{})
	if err != nil {
		return nil, err
	}
	moves := make([]Move, 0, len(rows))
	for _, row := range rows {
		m := Move{
			ID:                 row.ID(),
			Product:            row.Many2One("product_id"),
			DescriptionPicking: row.String("description_picking"),
			ProductUOMQty:      row.Float("product_uom_qty"),
			Quantity:           row.Float("quantity"),
			UoM:                row.Many2One("product_uom"),
			State:              row.String("state"),
			Location:           row.Many2One("location_id"),
			LocationDest:       row.Many2One("location_dest_id"),
			PriceUnit:          row.Float("price_unit"),
		}
		if m.Product.Valid() {
			l.enrichMove(ctx, &m)
		}
		moves = append(moves, m)
	}
	return moves, nil
}

// enrichMove fills pricing and labels from the move's product.
func (l *Loader) enrichMove(ctx context.Context, m *Move) {
	rows, err := l.client.SearchRead(ctx, ModelProduct, orm.Domain{orm.Where("id", orm.OpEq, m.Product.ID)}, productPriceFields, orm.SearchOptions{})
	if err != nil {
		l.logger.Warn("load product", slog.Any("error", err), slog.String("product", m.Product.Name))
	}
	if err != nil || len(rows) == 0 {
		m.CostUnit = 0
		m.InternalRef = ""
		m.ProductDescription = ""
		m.DisplayName = m.Product.Name
		return
	}
	p := rows[0]
	if m.PriceUnit == 0 {
		m.PriceUnit = p.Float("list_price")
	}
	m.CostUnit = p.Float("standard_price")
	m.InternalRef = p.String("default_code")
	m.ProductDescription = productDescription(p)
	m.DisplayName = FormatProductName(m.Product.Name, m.InternalRef)
}

func productDescription(p orm.Record) string {
	if d := p.String("description"); d != "" {
		return d
	}
	return p.String("description_sale")
}

// LoadOverview asks the backend for the order tree. When the backend method fails a
// reduced tree is built from the order and its raw moves.
func (l *Loader) LoadOverview(ctx context.Context, n notify.Notifier, moID int64) *Overview {
	if moID == 0 {
		return nil
	}
	ov, err := l.remoteOverview(ctx, moID)
	if err != nil {
		l.logger.Warn("load overview, using fallback", slog.Any("error", err), slog.Int64("mo_id", moID))
		ov, err = l.fallbackOverview(ctx, moID)
		if err != nil {
			l.logger.Error("build fallback overview", slog.Any("error", err), slog.Int64("mo_id", moID))
			l.report(ctx, n, "Error loading MO overview: %v", err)
			return nil
		}
	}
	ov.normalize()
	return ov
}

func (l *Loader) report(ctx context.Context, n notify.Notifier, format string, err error) {
	if n == nil {
		return
	}
	if nerr := n.Notify(ctx, notify.New(notify.TypeDanger, "Error", fmt.Sprintf(format, err))); nerr != nil {
		l.logger.Warn("notify", slog.Any("error", nerr))
	}
}

func (l *Loader) remoteOverview(ctx context.Context, moID int64) (*Overview, error) {
	raw, err := l.client.Call(ctx, ModelProduction, MethodOverview, []any{moID}, nil)
	if err != nil {
		return nil, err
	}
	var ov *Overview
	if err := json.Unmarshal(raw, &ov); err != nil {
		return nil, err
	}
	return ov, nil
}

func (l *Loader) fallbackOverview(ctx context.Context, moID int64) (*Overview, error) {
	rows, err := l.client.SearchRead(ctx, ModelProduction, orm.Domain{orm.Where("id", orm.OpEq, moID)}, productionFields, orm.SearchOptions{})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	mo := rows[0]
	state := mo.String("state")
	ov := &Overview{
		Summary: OrderSummary{
			ID:             IDFromInt(mo.ID()),
			Name:           Text(mo.Many2One("product_id").Name),
			MOName:         Text(mo.String("name")),
			Quantity:       mo.Float("product_qty"),
			UoMName:        Text(mo.Many2One("product_uom_id").Name),
			State:          Text(state),
			FormattedState: Text(FormatState(state)),
		},
		Components: []Component{},
	}

	rawIDs := mo.IDs("move_raw_ids")
	if len(rawIDs) == 0 {
		return ov, nil
	}
	moves, err := l.client.SearchRead(ctx, ModelMove, orm.Domain{orm.Where("id", orm.OpIn, rawIDs)}, rawMoveFields, orm.SearchOptions{})
	if err != nil {
		return nil, err
	}
	for _, mv := range moves {
		product := mv.Many2One("product_id")
		name, description := product.Name, ""
		if product.Valid() {
			info, err := l.client.SearchRead(ctx, ModelProduct, orm.Domain{orm.Where("id", orm.OpEq, product.ID)}, productInfoFields, orm.SearchOptions{})
			if err != nil {
				l.logger.Warn("load component product", slog.Any("error", err), slog.String("product", product.Name))
			} else if len(info) > 0 {
				name = FormatProductName(product.Name, info[0].String("default_code"))
				description = productDescription(info[0])
			}
		}
		moveState := mv.String("state")
		ov.Components = append(ov.Components, Component{
			Summary: ComponentSummary{
				ID:               IDFromInt(mv.ID()),
				Name:             Text(name),
				ProductID:        IDFromInt(product.ID),
				Quantity:         mv.Float("product_uom_qty"),
				UoMName:          "Units",
				QuantityReserved: mv.Float("reserved_availability"),
				State:            Text(moveState),
				FormattedState:   Text(FormatState(moveState)),
				Description:      Text(strings.TrimSpace(description)),
			},
			SubMOs: []SubMO{},
		})
	}
	return ov, nil
}
