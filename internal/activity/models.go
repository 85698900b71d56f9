package activity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"agri-broker/broker-portal/broker-portal-backend/internal/users"
)

// LogType names the business event behind a log entry
type LogType string

const (
	TypeTradeAccept      LogType = "trade_accept"
	TypeCounterOffer     LogType = "counter_offer"
	TypePOAccept         LogType = "po_accept"
	TypeInvoiceGenerated LogType = "invoice_generated"
	TypeTradeCreated     LogType = "trade_created"
	TypeTradeExpired     LogType = "trade_expired"
	TypeTradeBroadcast   LogType = "trade_broadcast"
)

// EntityType names the record a log entry refers to
type EntityType string

const (
	EntityTrade         EntityType = "trade"
	EntityOrder         EntityType = "order"
	EntityPurchaseOrder EntityType = "purchase_order"
	EntityInvoice       EntityType = "invoice"
)

// ActorType is the kind of party that caused the event
type ActorType string

const (
	ActorSupplier ActorType = "supplier"
	ActorBroker   ActorType = "broker"
	ActorFinancer ActorType = "financer"
	ActorSystem   ActorType = "system"
)

// Log is an append-only business event addressed to a broker's inbox.
// Only Read changes after creation.
type Log struct {
	ID         string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	BrokerID   string            `gorm:"type:varchar(36);not null;index" json:"broker_id"`
	Type       LogType           `gorm:"size:30;not null;index" json:"type"`
	Message    string            `gorm:"type:text;not null" json:"message"`
	EntityType EntityType        `gorm:"size:20;not null;index:idx_logs_entity" json:"entity_type"`
	EntityID   string            `gorm:"type:varchar(36);not null;index:idx_logs_entity" json:"entity_id"`
	ActorID    string            `gorm:"type:varchar(36)" json:"actor_id"`
	ActorType  ActorType         `gorm:"size:20;not null" json:"actor_type"`
	Read       bool              `gorm:"column:is_read;not null;default:false" json:"read"`
	Details    datatypes.JSONMap `json:"details,omitempty"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`

	Actor *users.User `gorm:"foreignKey:ActorID" json:"-"`
}

func (l *Log) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// Entry is the API view of a log with its actor contact
type Entry struct {
	Log
	Actor *users.Contact `json:"actor,omitempty"`
}

func entriesOf(logs []Log) []Entry {
	out := make([]Entry, 0, len(logs))
	for _, l := range logs {
		out = append(out, Entry{Log: l, Actor: users.ContactOf(l.Actor)})
	}
	return out
}

// HistoryPage is one page of a broker's log history
type HistoryPage struct {
	Logs        []Entry `json:"logs"`
	Total       int64   `json:"total"`
	Pages       int     `json:"pages"`
	CurrentPage int     `json:"current_page"`
}
