package hierarchy

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CostBreakdown splits the order cost by source. Totals are derived on every call and
// never stored on the tree.
type CostBreakdown struct {
	ComponentsCost float64 `json:"components_cost"`
	SubMOsCost     float64 `json:"sub_mos_cost"`
	OperationsCost float64 `json:"operations_cost"`
	TotalMOCost    float64 `json:"total_mo_cost"`
	DeliveriesCost float64 `json:"deliveries_cost"`
	GrandTotal     float64 `json:"grand_total"`
}

// CostSummary compares the order cost with the delivery cost.
type CostSummary struct {
	MOCost               float64 `json:"mo_cost"`
	DeliveriesCost       float64 `json:"deliveries_cost"`
	GrandTotal           float64 `json:"grand_total"`
	MOPercentage         float64 `json:"mo_percentage"`
	DeliveriesPercentage float64 `json:"deliveries_percentage"`
}

type rollup struct {
	components decimal.Decimal
	subMOs     decimal.Decimal
	operations decimal.Decimal
}

func (r rollup) total() decimal.Decimal {
	return r.components.Add(r.subMOs).Add(r.operations)
}

// rollupOverview sums direct component costs and one level of sub-order totals. The
// order's own summary cost is left out because it already contains its components.
func rollupOverview(ov *Overview) rollup {
	r := rollup{components: decimal.Zero, subMOs: decimal.Zero, operations: decimal.Zero}
	if ov == nil {
		return r
	}
	for _, c := range ov.Components {
		r.components = r.components.Add(decimal.NewFromFloat(c.Summary.MOCost))
		for _, sub := range c.SubMOs {
			r.subMOs = r.subMOs.Add(decimal.NewFromFloat(sub.TotalCost))
		}
	}
	if ov.Operations != nil {
		r.operations = decimal.NewFromFloat(ov.Operations.Summary.MOCost)
	}
	return r
}

func deliveriesCost(deliveries []Delivery) decimal.Decimal {
	total := decimal.Zero
	for _, d := range deliveries {
		for _, m := range d.Moves {
			total = total.Add(decimal.NewFromFloat(m.ProductUOMQty).Mul(decimal.NewFromFloat(m.CostUnit)))
		}
	}
	return total
}

// MOTotalCost is the components, sub-order and operations cost of the order.
func MOTotalCost(ov *Overview) float64 {
	return rollupOverview(ov).total().InexactFloat64()
}

// DeliveriesTotalCost is the sum of quantity times unit cost over every delivery move.
func DeliveriesTotalCost(deliveries []Delivery) float64 {
	return deliveriesCost(deliveries).InexactFloat64()
}

// Breakdown rolls up the tree and the deliveries. It returns nil without an overview.
func Breakdown(ov *Overview, deliveries []Delivery) *CostBreakdown {
	if ov == nil {
		return nil
	}
	r := rollupOverview(ov)
	mo := r.total()
	del := deliveriesCost(deliveries)
	return &CostBreakdown{
		ComponentsCost: r.components.InexactFloat64(),
		SubMOsCost:     r.subMOs.InexactFloat64(),
		OperationsCost: r.operations.InexactFloat64(),
		TotalMOCost:    mo.InexactFloat64(),
		DeliveriesCost: del.InexactFloat64(),
		GrandTotal:     mo.Add(del).InexactFloat64(),
	}
}

// Summary returns the order and delivery cost shares. Percentages are zero when the
// grand total is not positive.
func Summary(ov *Overview, deliveries []Delivery) CostSummary {
	mo := rollupOverview(ov).total()
	del := deliveriesCost(deliveries)
	grand := mo.Add(del)
	out := CostSummary{
		MOCost:         mo.InexactFloat64(),
		DeliveriesCost: del.InexactFloat64(),
		GrandTotal:     grand.InexactFloat64(),
	}
	if grand.IsPositive() {
		out.MOPercentage = mo.Div(grand).Mul(hundred).InexactFloat64()
		out.DeliveriesPercentage = del.Div(grand).Mul(hundred).InexactFloat64()
	}
	return out
}
