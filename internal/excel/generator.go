package excel

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/aslanbek/gigpay/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.EarningsReport) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Earnings"
	file.SetSheetName("Sheet1", sheet)
	if err := g.writeEarnings(file, sheet, report); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeEarnings(file *excelize.File, sheet string, report model.EarningsReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Period start")
	set("B1", formatPeriodBound(report.PeriodStart))
	set("A2", "Period end")
	set("B2", formatPeriodBound(report.PeriodEnd))
	set("A3", "Best profession")
	if report.Best != nil {
		set("B3", report.Best.Profession)
		set("A4", "Best earnings")
		set("B4", formatAmount(report.Best.Total))
	} else {
		set("B3", "-")
	}

	tableRow := 6
	set(fmt.Sprintf("A%d", tableRow), "Profession")
	set(fmt.Sprintf("B%d", tableRow), "Earnings")

	for i, row := range report.Rows {
		line := tableRow + 1 + i
		set(fmt.Sprintf("A%d", line), row.Profession)
		set(fmt.Sprintf("B%d", line), formatAmount(row.Total))
	}

	_ = file.SetColWidth(sheet, "A", "A", 32)
	_ = file.SetColWidth(sheet, "B", "B", 18)
	return nil
}

func formatPeriodBound(t *time.Time) string {
	if t == nil {
		return "all time"
	}
	return t.Format("2006-01-02")
}

func formatAmount(value decimal.Decimal) string {
	return value.StringFixed(2)
}
