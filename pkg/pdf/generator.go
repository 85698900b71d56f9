package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Color is an RGB fill or text color
type Color struct {
	R, G, B int
}

// Options configures page layout and styling
type Options struct {
	PageSize       string
	FontFamily     string
	FontSize       float64
	TitleFontSize  float64
	HeaderColor    Color
	AlternateColor Color
	Margin         float64
}

// DefaultOptions returns A4 portrait with Arial and the blue table header
func DefaultOptions() Options {
	return Options{
		PageSize:       "A4",
		FontFamily:     "Arial",
		FontSize:       10,
		TitleFontSize:  16,
		HeaderColor:    Color{R: 68, G: 114, B: 196},
		AlternateColor: Color{R: 242, G: 242, B: 242},
		Margin:         15,
	}
}

// Party is an addressed block such as "Bill From"
type Party struct {
	Label string
	Lines []string
}

// Column is one table column. Align uses the gofpdf codes "L", "C" or "R".
type Column struct {
	Label string
	Width float64
	Align string
}

// Total is a label/value line printed below the table
type Total struct {
	Label string
	Value string
	Bold  bool
}

// Document is everything a single-page business document needs
type Document struct {
	Title   string
	Meta    []Total
	Parties []Party
	Columns []Column
	Rows    [][]string
	Totals  []Total
	Footer  string
}

// Render lays the document out and returns the PDF bytes. It touches no files.
func Render(doc Document, opts Options) ([]byte, error) {
	if len(doc.Columns) == 0 {
		return nil, fmt.Errorf("document has no columns")
	}
	for i, row := range doc.Rows {
		if len(row) != len(doc.Columns) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(doc.Columns))
		}
	}

	pdf := gofpdf.New("P", "mm", opts.PageSize, "")
	pdf.SetMargins(opts.Margin, opts.Margin, opts.Margin)
	pdf.SetAutoPageBreak(true, opts.Margin)
	pdf.SetTitle(doc.Title, false)
	if doc.Footer != "" {
		pdf.SetFooterFunc(func() {
			pdf.SetY(-15)
			pdf.SetFont(opts.FontFamily, "I", 8)
			pdf.SetTextColor(128, 128, 128)
			pdf.CellFormat(0, 10, doc.Footer, "", 0, "C", false, 0, "")
		})
	}
	pdf.AddPage()

	pdf.SetFont(opts.FontFamily, "B", opts.TitleFontSize)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, doc.Title, "", 1, "C", false, 0, "")

	pdf.SetFont(opts.FontFamily, "", opts.FontSize-1)
	pdf.SetTextColor(100, 100, 100)
	for _, m := range doc.Meta {
		pdf.CellFormat(0, 5, m.Label+": "+m.Value, "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	addParties(pdf, doc.Parties, opts)

	addTable(pdf, doc.Columns, doc.Rows, opts)

	pdf.Ln(4)
	pageWidth, _ := pdf.GetPageSize()
	valueWidth := 40.0
	labelWidth := pageWidth - 2*opts.Margin - valueWidth
	for _, t := range doc.Totals {
		style := ""
		if t.Bold {
			style = "B"
		}
		pdf.SetFont(opts.FontFamily, style, opts.FontSize)
		pdf.CellFormat(labelWidth, 6, t.Label, "", 0, "R", false, 0, "")
		pdf.CellFormat(valueWidth, 6, t.Value, "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// addParties prints the address blocks two per row
func addParties(pdf *gofpdf.Fpdf, parties []Party, opts Options) {
	pageWidth, _ := pdf.GetPageSize()
	half := (pageWidth - 2*opts.Margin) / 2

	for i := 0; i < len(parties); i += 2 {
		pair := parties[i:min(i+2, len(parties))]
		top := pdf.GetY()
		bottom := top
		for j, p := range pair {
			pdf.SetXY(opts.Margin+float64(j)*half, top)
			pdf.SetFont(opts.FontFamily, "B", opts.FontSize)
			pdf.SetTextColor(0, 0, 0)
			pdf.CellFormat(half, 6, p.Label, "", 2, "L", false, 0, "")
			pdf.SetFont(opts.FontFamily, "", opts.FontSize)
			pdf.MultiCell(half-4, 5, strings.Join(p.Lines, "\n"), "", "L", false)
			if y := pdf.GetY(); y > bottom {
				bottom = y
			}
		}
		pdf.SetXY(opts.Margin, bottom+4)
	}
}

func addTable(pdf *gofpdf.Fpdf, columns []Column, rows [][]string, opts Options) {
	pdf.SetFont(opts.FontFamily, "B", opts.FontSize)
	pdf.SetFillColor(opts.HeaderColor.R, opts.HeaderColor.G, opts.HeaderColor.B)
	pdf.SetTextColor(255, 255, 255)
	for _, c := range columns {
		pdf.CellFormat(c.Width, 8, c.Label, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(opts.FontFamily, "", opts.FontSize)
	pdf.SetTextColor(0, 0, 0)
	for i, row := range rows {
		if i%2 == 1 {
			pdf.SetFillColor(opts.AlternateColor.R, opts.AlternateColor.G, opts.AlternateColor.B)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		for j, c := range columns {
			align := c.Align
			if align == "" {
				align = "L"
			}
			pdf.CellFormat(c.Width, 7, row[j], "1", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
	}
}
