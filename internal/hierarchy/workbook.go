package hierarchy

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook.
const (
	SheetSummary    = "MO Cost Summary"
	SheetOperations = "Labor & Operations"
	SheetComponents = "Components"
	SheetDeliveries = "Deliveries"
)

const moneyFormat = "#,##0.00"

// sheetWriter appends rows to one sheet and keeps the first error.
type sheetWriter struct {
	f      *excelize.File
	name   string
	row    int
	header int
	money  int
	err    error
}

func (s *sheetWriter) write(style int, values ...any) {
	s.row++
	if s.err != nil {
		return
	}
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, s.row)
		if err != nil {
			s.err = err
			return
		}
		if err := s.f.SetCellValue(s.name, cell, v); err != nil {
			s.err = err
			return
		}
		cellStyle := style
		if cellStyle == 0 {
			if _, ok := v.(float64); ok {
				cellStyle = s.money
			}
		}
		if cellStyle != 0 {
			if err := s.f.SetCellStyle(s.name, cell, cell, cellStyle); err != nil {
				s.err = err
				return
			}
		}
	}
}

func (s *sheetWriter) heading(values ...any) { s.write(s.header, values...) }

func (s *sheetWriter) line(values ...any) { s.write(0, values...) }

func (s *sheetWriter) blank() { s.row++ }

func (s *sheetWriter) finish(lastCol string, width float64) error {
	if s.err != nil {
		return s.err
	}
	if err := s.f.SetColWidth(s.name, "A", lastCol, width); err != nil {
		return err
	}
	return s.f.SetPanes(s.name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// WriteWorkbook renders the order tree, its cost breakdown and the deliveries as an
// xlsx workbook.
func WriteWorkbook(w io.Writer, ov *Overview, deliveries []Delivery) error {
	if ov == nil {
		ov = &Overview{}
	}
	ov.normalize()

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	header, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return fmt.Errorf("workbook style: %w", err)
	}
	numFmt := moneyFormat
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("workbook style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	for _, name := range []string{SheetOperations, SheetComponents, SheetDeliveries} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}
	sheet := func(name string) *sheetWriter {
		return &sheetWriter{f: f, name: name, header: header, money: money}
	}

	if err := writeSummarySheet(sheet(SheetSummary), ov, deliveries); err != nil {
		return fmt.Errorf("%s: %w", SheetSummary, err)
	}
	if err := writeOperationsSheet(sheet(SheetOperations), ov); err != nil {
		return fmt.Errorf("%s: %w", SheetOperations, err)
	}
	if err := writeComponentsSheet(sheet(SheetComponents), ov); err != nil {
		return fmt.Errorf("%s: %w", SheetComponents, err)
	}
	if err := writeDeliveriesSheet(sheet(SheetDeliveries), deliveries); err != nil {
		return fmt.Errorf("%s: %w", SheetDeliveries, err)
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeSummarySheet(s *sheetWriter, ov *Overview, deliveries []Delivery) error {
	sum := ov.Summary
	s.heading("MO INFORMATION", "", "")
	s.line("Manufacturing Order", string(sum.MOName), "")
	s.line("Product", string(sum.Name), "")
	s.line("Quantity", sum.Quantity, string(sum.UoMName))
	s.line("State", FormatState(string(sum.State)), "")
	s.line("Customer", string(sum.CustomerName), "")
	s.blank()

	b := Breakdown(ov, deliveries)
	s.heading("COST BREAKDOWN", "Amount (THB)", "Description")
	s.line("Components", b.ComponentsCost, "Direct component cost")
	s.line("Sub MOs", b.SubMOsCost, "Sub manufacturing order totals")
	s.line("Operations", b.OperationsCost, "Work order cost")
	s.line("Total MO Cost", b.TotalMOCost, "Components, sub MOs and operations")
	s.line("Deliveries", b.DeliveriesCost, "Delivered quantity at unit cost")
	s.heading("TOTAL COST", b.GrandTotal, "Grand total")

	if cs := ov.CostSummary; cs != nil {
		s.blank()
		s.heading("RECORDED COSTS", "Amount (THB)", "")
		s.line("Material", cs.MaterialCost, "")
		s.line("Labor", cs.LaborCost, "")
		s.line("Shipping", cs.ShippingCost, "")
		s.line("Sub MO labor", cs.SubMOLaborCost, "")
		s.line("Sub MO shipping", cs.SubMOShippingCost, "")
		s.heading("TOTAL", cs.TotalCost, "")
	}

	if len(ov.LaborTransactions) > 0 {
		s.blank()
		s.heading("LABOR TRANSACTION HISTORY", "", "", "")
		s.heading("Date", "Amount (THB)", "Description", "By User")
		total := 0.0
		for _, t := range ov.LaborTransactions {
			s.line(string(t.Date), t.Amount, string(t.Description), string(t.UserName))
			total += t.Amount
		}
		s.heading("LABOR TOTAL", total, "", "")
	}
	return s.finish("D", 28)
}

func writeOperationsSheet(s *sheetWriter, ov *Overview) error {
	s.heading("Work Order", "Workcenter", "Expected (min)", "Duration (min)", "State")
	for _, op := range ov.Operations.Details {
		s.line(string(op.Name), string(op.Workcenter), op.DurationExpected, op.Duration, FormatState(string(op.State)))
	}
	s.blank()
	sum := ov.Operations.Summary
	s.heading("OPERATIONS TOTAL", string(sum.UoMName), sum.Quantity, sum.MOCost, sum.RealCost)
	return s.finish("E", 20)
}

func writeComponentsSheet(s *sheetWriter, ov *Overview) error {
	s.heading("Level", "Reference", "Product", "Quantity", "UoM", "State", "Unit Cost", "Total Cost")
	for _, c := range ov.Components {
		cs := c.Summary
		s.line(0, "", string(cs.Name), cs.Quantity, string(cs.UoMName), FormatState(string(cs.State)), cs.UnitCost, cs.MOCost)
		for _, sub := range c.SubMOs {
			s.line(1, string(sub.Name), string(sub.ProductName), sub.Quantity, string(sub.UoMName), FormatState(string(sub.State)), "", sub.TotalCost)
			for _, sc := range sub.Components {
				s.line(2, "", string(sc.Name), sc.Quantity, string(sc.UoMName), FormatState(string(sc.State)), sc.UnitCost, sc.TotalCost)
			}
		}
	}
	return s.finish("H", 18)
}

func writeDeliveriesSheet(s *sheetWriter, deliveries []Delivery) error {
	s.heading("Delivery", "Partner", "State", "Scheduled", "Product", "Quantity", "Unit Price", "Unit Cost", "Total Cost")
	for _, d := range deliveries {
		if len(d.Moves) == 0 {
			s.line(d.Name, d.Partner.Name, d.State, d.ScheduledDate)
			continue
		}
		for _, m := range d.Moves {
			name := m.DisplayName
			if name == "" {
				name = m.Product.Name
			}
			s.line(d.Name, d.Partner.Name, d.State, d.ScheduledDate, name, m.ProductUOMQty, m.PriceUnit, m.CostUnit, m.ProductUOMQty*m.CostUnit)
		}
	}
	return s.finish("I", 18)
}
