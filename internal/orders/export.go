package orders

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	detailSheet  = "Commissions"
	summarySheet = "Summary"
	moneyFormat  = "#,##0.00"
)

var detailColumns = []string{
	"Order ID", "Crop", "Grade", "Quantity", "Supplier", "Supplier Phone",
	"Supplier Commission", "Buyer Commission", "Total Commission",
	"Order Status", "Payment Status", "Created At",
}

var summaryColumns = []string{
	"Payment Status", "Orders", "Supplier Commission", "Buyer Commission", "Total Commission",
}

// ExportCommissions renders the commission report as an XLSX workbook
func ExportCommissions(details []CommissionDetail, summary []CommissionSummary) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", detailSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := file.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	header, err := file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	format := moneyFormat
	money, err := file.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return nil, fmt.Errorf("failed to create number style: %w", err)
	}

	if err := writeHeader(file, detailSheet, detailColumns, header); err != nil {
		return nil, err
	}
	for i, d := range details {
		row := []any{d.ID, "", "", "", "", "",
			d.SupplierCommissionAmount.InexactFloat64(),
			d.BuyerCommissionAmount.InexactFloat64(),
			d.TotalCommission.InexactFloat64(),
			string(d.Status), string(d.PaymentStatus),
			d.CreatedAt.Format("2006-01-02 15:04"),
		}
		if d.Trade != nil {
			row[1], row[2], row[3] = d.Trade.Crop, d.Trade.Grade, d.Trade.Quantity.InexactFloat64()
		}
		if d.Supplier != nil {
			row[4], row[5] = d.Supplier.FirmName, d.Supplier.Phone
		}
		if err := writeRow(file, detailSheet, i+2, row); err != nil {
			return nil, err
		}
		if err := styleRange(file, detailSheet, 7, 9, i+2, money); err != nil {
			return nil, err
		}
	}

	if err := writeHeader(file, summarySheet, summaryColumns, header); err != nil {
		return nil, err
	}
	for i, s := range summary {
		row := []any{
			string(s.PaymentStatus), s.OrderCount,
			s.TotalSupplierCommission.InexactFloat64(),
			s.TotalBuyerCommission.InexactFloat64(),
			s.TotalCommission.InexactFloat64(),
		}
		if err := writeRow(file, summarySheet, i+2, row); err != nil {
			return nil, err
		}
		if err := styleRange(file, summarySheet, 3, 5, i+2, money); err != nil {
			return nil, err
		}
	}

	if len(details) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(detailColumns), 1)
		if err := file.AutoFilter(detailSheet, "A1:"+last, nil); err != nil {
			return nil, fmt.Errorf("failed to set auto filter: %w", err)
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func writeHeader(file *excelize.File, sheet string, columns []string, style int) error {
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := file.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(len(col)) * 1.2
		if width < 12 {
			width = 12
		}
		if err := file.SetColWidth(sheet, name, name, width); err != nil {
			return fmt.Errorf("failed to size column: %w", err)
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, 1)
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := file.SetCellStyle(sheet, first, last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return file.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeRow(file *excelize.File, sheet string, row int, values []any) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := file.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func styleRange(file *excelize.File, sheet string, fromCol, toCol, row, style int) error {
	from, _ := excelize.CoordinatesToCellName(fromCol, row)
	to, _ := excelize.CoordinatesToCellName(toCol, row)
	return file.SetCellStyle(sheet, from, to, style)
}
