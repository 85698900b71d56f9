package invoices

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Status is the lifecycle state of an invoice
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// NotAssigned is shown for invoices still waiting on a supplier number
const NotAssigned = "Not Assigned"

// Item is one invoiced line
type Item struct {
	Crop        string          `json:"crop"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Invoice is issued by a broker for an order. ShipFrom holds the supplier
// who must supply the invoice number, which can be set only once.
type Invoice struct {
	ID              string                    `gorm:"type:varchar(36);primaryKey" json:"id"`
	InvoiceNumber   *string                   `gorm:"size:100;uniqueIndex" json:"invoice_number"`
	OrderID         string                    `gorm:"type:varchar(36);not null;index" json:"order_id"`
	BrokerID        string                    `gorm:"type:varchar(36);not null;index" json:"broker_id"`
	BillFrom        string                    `gorm:"type:text;not null" json:"bill_from"`
	ShipFrom        string                    `gorm:"type:text;not null" json:"ship_from"`
	BillTo          string                    `gorm:"type:text;not null" json:"bill_to"`
	ShipTo          string                    `gorm:"type:text;not null" json:"ship_to"`
	Items           datatypes.JSONSlice[Item] `json:"items"`
	TotalAmount     decimal.Decimal           `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	TaxAmount       decimal.Decimal           `gorm:"type:decimal(12,2);not null" json:"tax_amount"`
	ShippingCharges decimal.Decimal           `gorm:"type:decimal(12,2);not null" json:"shipping_charges"`
	FinalAmount     decimal.Decimal           `gorm:"type:decimal(12,2);not null" json:"final_amount"`
	PONumber        string                    `gorm:"column:po_number;size:40" json:"po_number,omitempty"`
	Status          Status                    `gorm:"size:20;not null;default:pending" json:"status"`
	FileName        string                    `gorm:"size:100" json:"file_name,omitempty"`
	InvoiceURL      string                    `gorm:"size:500" json:"invoice_url,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Status == "" {
		i.Status = StatusPending
	}
	return nil
}

// Number is the supplier invoice number or NotAssigned
func (i *Invoice) Number() string {
	if i.InvoiceNumber == nil || *i.InvoiceNumber == "" {
		return NotAssigned
	}
	return *i.InvoiceNumber
}

// Party is the name and address shown for one side of an invoice
type Party struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Summary is the list view of an invoice
type Summary struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	OrderID       string          `json:"order_id"`
	Status        Status          `json:"status"`
	FinalAmount   decimal.Decimal `json:"final_amount"`
	Supplier      Party           `json:"supplier"`
	InvoiceURL    string          `json:"invoice_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SummaryOf builds the list view of inv
func SummaryOf(inv *Invoice) Summary {
	return Summary{
		ID:            inv.ID,
		InvoiceNumber: inv.Number(),
		OrderID:       inv.OrderID,
		Status:        inv.Status,
		FinalAmount:   inv.FinalAmount,
		Supplier:      Party{Name: inv.BillFrom, Address: inv.ShipFrom},
		InvoiceURL:    inv.InvoiceURL,
		CreatedAt:     inv.CreatedAt,
	}
}
