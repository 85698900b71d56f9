package credit

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"agri-broker/broker-portal/broker-portal-backend/internal/trades"
)

// BuyerStatus marks whether a buyer can receive purchase orders
type BuyerStatus string

const (
	BuyerActive   BuyerStatus = "active"
	BuyerInactive BuyerStatus = "inactive"
)

// Buyer is a purchaser financed by one financer. 0 ≤ AvailableCredit ≤ CreditLimit.
type Buyer struct {
	ID              string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	FinancerID      string          `gorm:"type:varchar(36);not null;index" json:"financer_id"`
	Name            string          `gorm:"size:255;not null" json:"name"`
	CreditLimit     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"credit_limit"`
	AvailableCredit decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"available_credit"`
	Status          BuyerStatus     `gorm:"size:20;not null;default:active" json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (b *Buyer) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = BuyerActive
	}
	return nil
}

// Financer is the credit roll-up of a financer user's buyers
type Financer struct {
	ID               string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID           string          `gorm:"type:varchar(36);not null;uniqueIndex" json:"user_id"`
	TotalCreditLimit decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_credit_limit"`
	AvailableCredit  decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"available_credit"`
	BuyerCount       int64           `gorm:"-" json:"buyer_count"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (f *Financer) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// POStatus is the lifecycle state of a purchase order
type POStatus string

const (
	POPending   POStatus = "pending"
	POAccepted  POStatus = "accepted"
	PORejected  POStatus = "rejected"
	POCompleted POStatus = "completed"
)

// PurchaseOrder commits buyer credit against a trade
type PurchaseOrder struct {
	ID          string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	PONumber    string          `gorm:"column:po_number;size:40;not null;uniqueIndex" json:"po_number"`
	TradeID     string          `gorm:"type:varchar(36);not null;index" json:"trade_id"`
	OrderID     *string         `gorm:"type:varchar(36);index" json:"order_id"`
	BuyerID     string          `gorm:"type:varchar(36);not null;index" json:"buyer_id"`
	BrokerID    string          `gorm:"type:varchar(36);not null;index" json:"broker_id"`
	SupplierID  *string         `gorm:"type:varchar(36)" json:"supplier_id"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"quantity"`
	PricePerQtl decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price_per_qtl"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status      POStatus        `gorm:"size:20;not null;default:pending" json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Buyer *Buyer        `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	Trade *trades.Trade `gorm:"foreignKey:TradeID" json:"trade,omitempty"`
}

func (p *PurchaseOrder) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = POPending
	}
	return nil
}

// FinancerDetails is the financer contact shown on a financed buyer option
type FinancerDetails struct {
	FirmName string  `json:"firm_name"`
	Phone    string  `json:"phone"`
	Email    *string `json:"email,omitempty"`
}

// BuyerOption is one selectable buyer for a purchase order. Every buyer is
// offered twice: financed through its financer, and direct without credit.
type BuyerOption struct {
	ID              string           `json:"id"`
	BuyerID         string           `json:"buyer_id"`
	Name            string           `json:"name"`
	FinancerID      string           `json:"financer_id"`
	Status          BuyerStatus      `json:"status"`
	CreditLimit     *decimal.Decimal `json:"credit_limit"`
	AvailableCredit *decimal.Decimal `json:"available_credit"`
	WithFinancing   bool             `json:"with_financing"`
	FinancerDetails *FinancerDetails `json:"financer_details"`
}
