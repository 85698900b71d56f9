package invoices

import (
	"strconv"
	"strings"

	"agri-broker/broker-portal/broker-portal-backend/pkg/notify"
	"agri-broker/broker-portal/broker-portal-backend/pkg/pdf"
)

// core PDF fonts are Latin-1 only, so amounts use "Rs." instead of the rupee sign
const currency = "Rs. "

// Render lays out inv as a one-page PDF. It is pure: no clock, no files.
func Render(inv Invoice) ([]byte, error) {
	doc := pdf.Document{
		Title: "TAX INVOICE",
		Meta: []pdf.Total{
			{Label: "Invoice No", Value: inv.Number()},
			{Label: "Order", Value: inv.OrderID},
		},
		Parties: []pdf.Party{
			{Label: "Bill From", Lines: lines(inv.BillFrom)},
			{Label: "Bill To", Lines: lines(inv.BillTo)},
			{Label: "Ship From", Lines: lines(inv.ShipFrom)},
			{Label: "Ship To", Lines: lines(inv.ShipTo)},
		},
		Columns: []pdf.Column{
			{Label: "#", Width: 12, Align: "C"},
			{Label: "Crop", Width: 68},
			{Label: "Qty (qtl)", Width: 30, Align: "R"},
			{Label: "Price/qtl", Width: 35, Align: "R"},
			{Label: "Amount", Width: 35, Align: "R"},
		},
		Totals: []pdf.Total{
			{Label: "Subtotal", Value: amount(notify.Money(inv.TotalAmount))},
			{Label: "Tax", Value: amount(notify.Money(inv.TaxAmount))},
			{Label: "Shipping", Value: amount(notify.Money(inv.ShippingCharges))},
			{Label: "Total Payable", Value: amount(notify.Money(inv.FinalAmount)), Bold: true},
		},
		Footer: "This is a computer generated invoice",
	}
	if inv.PONumber != "" {
		doc.Meta = append(doc.Meta, pdf.Total{Label: "PO Number", Value: inv.PONumber})
	}
	if !inv.CreatedAt.IsZero() {
		doc.Meta = append(doc.Meta, pdf.Total{Label: "Date", Value: inv.CreatedAt.Format("02 Jan 2006")})
	}

	for i, item := range inv.Items {
		doc.Rows = append(doc.Rows, []string{
			strconv.Itoa(i + 1),
			item.Crop,
			item.Quantity.String(),
			notify.Money(item.Price),
			notify.Money(item.TotalAmount),
		})
	}

	return pdf.Render(doc, pdf.DefaultOptions())
}

func lines(s string) []string {
	parts := strings.Split(strings.TrimSpace(s), "\n")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func amount(s string) string {
	return currency + s
}
