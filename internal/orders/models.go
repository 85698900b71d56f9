package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"agri-broker/broker-portal/broker-portal-backend/internal/trades"
	"agri-broker/broker-portal/broker-portal-backend/internal/users"
	"agri-broker/broker-portal/broker-portal-backend/pkg/workflows"
)

// Status is the lifecycle state of an order
type Status string

const (
	StatusPending          Status = "pending"
	StatusSupplierAccepted Status = "supplier_accepted"
	StatusBrokerAccepted   Status = "broker_accepted"
	StatusNegotiating      Status = "negotiating"
	StatusConfirmed        Status = "confirmed"
	StatusFinanced         Status = "financed"
	StatusDelivered        Status = "delivered"
	StatusCompleted        Status = "completed"
)

// Transitions is shared by the chat and API confirmation paths
var Transitions = workflows.NewStateMachine("order", map[Status][]Status{
	StatusPending:          {StatusSupplierAccepted, StatusNegotiating, StatusConfirmed},
	StatusSupplierAccepted: {StatusBrokerAccepted, StatusNegotiating, StatusConfirmed},
	StatusBrokerAccepted:   {StatusConfirmed},
	StatusNegotiating:      {StatusNegotiating, StatusConfirmed},
	StatusConfirmed:        {StatusFinanced},
	StatusFinanced:         {StatusDelivered},
	StatusDelivered:        {StatusCompleted},
})

// CommissionStatuses are the order states that count towards commission reports
var CommissionStatuses = []Status{StatusConfirmed, StatusFinanced, StatusDelivered, StatusCompleted}

// Order is the transactional record created once a supplier responds to a trade
type Order struct {
	ID                       string              `gorm:"type:varchar(36);primaryKey" json:"id"`
	TradeID                  string              `gorm:"type:varchar(36);not null;index" json:"trade_id"`
	SupplierID               string              `gorm:"type:varchar(36);not null;index" json:"supplier_id"`
	BrokerID                 string              `gorm:"type:varchar(36);not null;index" json:"broker_id"`
	Quantity                 decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"quantity"`
	PricePerQtl              decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"price_per_qtl"`
	CounterOffer             decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"counter_offer"`
	TotalAmount              decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	SupplierCommissionRate   decimal.Decimal     `gorm:"type:decimal(5,2);not null" json:"supplier_commission_rate"`
	SupplierCommissionAmount decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"supplier_commission_amount"`
	BuyerCommissionRate      decimal.Decimal     `gorm:"type:decimal(5,2);not null" json:"buyer_commission_rate"`
	BuyerCommissionAmount    decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"buyer_commission_amount"`
	TotalCommission          decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"total_commission"`
	Status                   Status              `gorm:"size:30;not null;default:pending;index" json:"status"`
	PaymentStatus            PaymentStatus       `gorm:"size:30;not null;default:pending" json:"payment_status"`
	CreatedAt                time.Time           `gorm:"index" json:"created_at"`
	UpdatedAt                time.Time           `json:"updated_at"`

	Trade    *trades.Trade `gorm:"foreignKey:TradeID" json:"trade,omitempty"`
	Supplier *users.User   `gorm:"foreignKey:SupplierID" json:"-"`
	Broker   *users.User   `gorm:"foreignKey:BrokerID" json:"-"`
}

// BeforeCreate fills defaults and computes commissions. Commissions are
// never recomputed after the order exists.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = PaymentPending
	}
	o.applyCommission()
	return nil
}

func (o *Order) applyCommission() {
	c := Compute(o.TotalAmount, Rates{Supplier: o.SupplierCommissionRate, Buyer: o.BuyerCommissionRate})
	o.SupplierCommissionAmount = c.Supplier
	o.BuyerCommissionAmount = c.Buyer
	o.TotalCommission = c.Total
}

// EffectivePrice is the counter offer when one was made, else the trade price
func (o *Order) EffectivePrice() decimal.Decimal {
	if o.CounterOffer.Valid {
		return o.CounterOffer.Decimal
	}
	return o.PricePerQtl
}

// NewAcceptance builds the order for a supplier accepting trade at its listed price
func NewAcceptance(trade *trades.Trade, supplierID string, rates Rates) *Order {
	return &Order{
		TradeID:                trade.ID,
		SupplierID:             supplierID,
		BrokerID:               trade.BrokerID,
		Quantity:               trade.Quantity,
		PricePerQtl:            trade.Price,
		TotalAmount:            trade.Price.Mul(trade.Quantity).Round(2),
		SupplierCommissionRate: rates.Supplier,
		BuyerCommissionRate:    rates.Buyer,
		Status:                 StatusSupplierAccepted,
	}
}

// NewCounter builds the order for a supplier countering trade at price.
// Counter orders carry no commission rates.
func NewCounter(trade *trades.Trade, supplierID string, price decimal.Decimal) *Order {
	return &Order{
		TradeID:      trade.ID,
		SupplierID:   supplierID,
		BrokerID:     trade.BrokerID,
		Quantity:     trade.Quantity,
		PricePerQtl:  trade.Price,
		CounterOffer: decimal.NewNullDecimal(price),
		TotalAmount:  price.Mul(trade.Quantity).Round(2),
		Status:       StatusNegotiating,
	}
}
