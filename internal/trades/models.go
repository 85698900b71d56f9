package trades

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"agri-broker/broker-portal/broker-portal-backend/internal/users"
	"agri-broker/broker-portal/broker-portal-backend/pkg/notify"
	"agri-broker/broker-portal/broker-portal-backend/pkg/workflows"
)

// Status is the lifecycle state of a trade
type Status string

const (
	StatusActive      Status = "active"
	StatusExpired     Status = "expired"
	StatusNegotiating Status = "negotiating"
	StatusConfirmed   Status = "confirmed"
)

// Transitions only moves a trade forward. Expired and confirmed are terminal.
var Transitions = workflows.NewStateMachine("trade", map[Status][]Status{
	StatusActive:      {StatusNegotiating, StatusConfirmed, StatusExpired},
	StatusNegotiating: {StatusConfirmed, StatusExpired},
})

// Trade is a broker's offer to sell a crop lot, priced per quintal
type Trade struct {
	ID        string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Crop      string          `gorm:"size:100;not null" json:"crop"`
	Grade     string          `gorm:"size:50;not null" json:"grade"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"quantity"`
	ValidTill time.Time       `gorm:"not null;index" json:"valid_till"`
	Status    Status          `gorm:"size:20;not null;default:active;index" json:"status"`
	BrokerID  string          `gorm:"type:varchar(36);not null;index" json:"broker_id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	Broker *users.User `gorm:"foreignKey:BrokerID" json:"-"`
}

func (t *Trade) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = StatusActive
	}
	return nil
}

// Alert renders the trade for a supplier broadcast
func (t *Trade) Alert() notify.TradeAlert {
	return notify.TradeAlert{
		ID:        t.ID,
		Crop:      t.Crop,
		Grade:     t.Grade,
		Price:     t.Price,
		Quantity:  t.Quantity,
		ValidTill: t.ValidTill,
	}
}

// Expired reports whether the validity window has passed at now
func (t *Trade) Expired(now time.Time) bool {
	return t.ValidTill.Before(now)
}

// Summary is the subset of a trade shown next to broadcast logs and purchase orders
type Summary struct {
	Crop      string          `json:"crop"`
	Grade     string          `json:"grade"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	ValidTill time.Time       `json:"valid_till"`
}

// SummaryOf returns nil for a nil trade
func SummaryOf(t *Trade) *Summary {
	if t == nil {
		return nil
	}
	return &Summary{Crop: t.Crop, Grade: t.Grade, Price: t.Price, Quantity: t.Quantity, ValidTill: t.ValidTill}
}
