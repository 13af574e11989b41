// Package hierarchy builds the delivery and manufacturing cost hierarchy shown next to a
// manufacturing order: the linked deliveries with priced moves, the order's component
// tree with sub-orders, and the cost roll-up over both.
package hierarchy

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/odyssey-erp/mrp-dashboard/internal/orm"
)

// ID identifies a node of the tree. The backend emits numeric ids for records and
// string ids such as "bom_12" for rows synthesised from bills of materials.
type ID string

// IDFromInt converts a record id.
func IDFromInt(id int64) ID { return ID(strconv.FormatInt(id, 10)) }

// Int64 returns the numeric id, or 0 for synthetic ids.
func (id ID) Int64() int64 {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// UnmarshalJSON accepts numbers, strings, false and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*id = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*id = ID(strings.TrimSuffix(n.String(), ".0"))
		return nil
	}
}

// MarshalJSON emits numeric ids as numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Text is a string field that tolerates the backend's false for empty values.
type Text string

// UnmarshalJSON accepts strings, false and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = ""
		return nil
	}
	*t = Text(s)
	return nil
}

// Delivery is an outgoing transfer linked to the manufacturing order.
type Delivery struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Origin        string       `json:"origin"`
	Partner       orm.Many2One `json:"partner"`
	State         string       `json:"state"`
	ScheduledDate string       `json:"scheduled_date"`
	DateDone      string       `json:"date_done"`
	MoveIDs       []int64      `json:"move_ids"`
	Moves         []Move       `json:"moves"`
}

// Move is a delivery line enriched with product pricing.
type Move struct {
	ID                 int64        `json:"id"`
	Product            orm.Many2One `json:"product"`
	DescriptionPicking string       `json:"description_picking"`
	ProductUOMQty      float64      `json:"product_uom_qty"`
	Quantity           float64      `json:"quantity"`
	UoM                orm.Many2One `json:"product_uom"`
	State              string       `json:"state"`
	Location           orm.Many2One `json:"location"`
	LocationDest       orm.Many2One `json:"location_dest"`
	PriceUnit          float64      `json:"price_unit"`
	CostUnit           float64      `json:"cost_unit"`
	InternalRef        string       `json:"product_internal_ref"`
	ProductDescription string       `json:"product_description"`
	DisplayName        string       `json:"product_display_name"`
}

// Overview is the manufacturing order tree returned by the backend.
type Overview struct {
	Summary           OrderSummary       `json:"summary"`
	Components        []Component        `json:"components"`
	Operations        *Operations        `json:"operations"`
	LaborTransactions []LaborTransaction `json:"labor_transactions,omitempty"`
	CostSummary       *MOCostSummary     `json:"cost_summary,omitempty"`
}

// OrderSummary describes the manufacturing order itself.
type OrderSummary struct {
	ID             ID      `json:"id"`
	Name           Text    `json:"name"`
	MOName         Text    `json:"mo_name"`
	Quantity       float64 `json:"quantity"`
	UoMName        Text    `json:"uom_name"`
	State          Text    `json:"state"`
	FormattedState Text    `json:"formatted_state"`
	MOCost         float64 `json:"mo_cost"`
	UnitCost       float64 `json:"unit_cost"`
	RealCost       float64 `json:"real_cost"`
	CustomerName   Text    `json:"customer_name"`
	TechnicianTeam Text    `json:"technician_team"`
	SalesTeam      Text    `json:"sales_team"`
	TotalLaborCost float64 `json:"total_labor_cost"`
	ShippingCost   float64 `json:"shipping_cost"`
}

// Component is one raw material line and the sub-orders producing it.
type Component struct {
	Summary ComponentSummary `json:"summary"`
	SubMOs  []SubMO          `json:"sub_mos"`
}

// ComponentSummary describes a component line.
type ComponentSummary struct {
	ID               ID      `json:"id"`
	Name             Text    `json:"name"`
	ProductID        ID      `json:"product_id"`
	Quantity         float64 `json:"quantity"`
	UoMName          Text    `json:"uom_name"`
	QuantityOnHand   float64 `json:"quantity_on_hand"`
	QuantityFree     float64 `json:"quantity_free"`
	QuantityReserved float64 `json:"quantity_reserved"`
	State            Text    `json:"state"`
	FormattedState   Text    `json:"formatted_state"`
	MOCost           float64 `json:"mo_cost"`
	UnitCost         float64 `json:"unit_cost"`
	Description      Text    `json:"description"`
}

// SubMO is a child manufacturing order producing a component.
type SubMO struct {
	ID             ID             `json:"id"`
	Name           Text           `json:"name"`
	ProductName    Text           `json:"product_name"`
	Quantity       float64        `json:"quantity"`
	UoMName        Text           `json:"uom_name"`
	State          Text           `json:"state"`
	FormattedState Text           `json:"formatted_state"`
	Components     []SubComponent `json:"components"`
	TotalCost      float64        `json:"total_cost"`
}

// SubComponent is a material line of a sub-order.
type SubComponent struct {
	ID             ID      `json:"id"`
	Name           Text    `json:"name"`
	ProductID      ID      `json:"product_id"`
	Quantity       float64 `json:"quantity"`
	UoMName        Text    `json:"uom_name"`
	State          Text    `json:"state"`
	FormattedState Text    `json:"formatted_state"`
	UnitCost       float64 `json:"unit_cost"`
	TotalCost      float64 `json:"total_cost"`
}

// Operations holds the work order totals and lines.
type Operations struct {
	Summary OperationsSummary `json:"summary"`
	Details []OperationDetail `json:"details"`
}

// OperationsSummary totals the work orders.
type OperationsSummary struct {
	Quantity float64 `json:"quantity"`
	MOCost   float64 `json:"mo_cost"`
	RealCost float64 `json:"real_cost"`
	UoMName  Text    `json:"uom_name"`
}

// OperationDetail is one work order.
type OperationDetail struct {
	Name             Text    `json:"name"`
	Workcenter       Text    `json:"workcenter"`
	DurationExpected float64 `json:"duration_expected"`
	Duration         float64 `json:"duration"`
	State            Text    `json:"state"`
}

// LaborTransaction is a recorded labour charge.
type LaborTransaction struct {
	ID          ID      `json:"id"`
	Date        Text    `json:"date"`
	Amount      float64 `json:"amount"`
	Description Text    `json:"description"`
	UserName    Text    `json:"user_name"`
}

// MOCostSummary is the backend's own cost split including labour and shipping.
type MOCostSummary struct {
	MaterialCost      float64 `json:"material_cost"`
	LaborCost         float64 `json:"labor_cost"`
	ShippingCost      float64 `json:"shipping_cost"`
	SubMOLaborCost    float64 `json:"sub_mo_labor_cost"`
	SubMOShippingCost float64 `json:"sub_mo_shipping_cost"`
	TotalCost         float64 `json:"total_cost"`
}

// normalize replaces missing collections with empty ones.
func (o *Overview) normalize() {
	if o == nil {
		return
	}
	if o.Components == nil {
		o.Components = []Component{}
	}
	if o.Operations == nil {
		o.Operations = &Operations{}
	}
	if o.Operations.Details == nil {
		o.Operations.Details = []OperationDetail{}
	}
	for i := range o.Components {
		if o.Components[i].SubMOs == nil {
			o.Components[i].SubMOs = []SubMO{}
		}
		for j := range o.Components[i].SubMOs {
			if o.Components[i].SubMOs[j].Components == nil {
				o.Components[i].SubMOs[j].Components = []SubComponent{}
			}
		}
	}
}
