package trades

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"agri-broker/broker-portal/broker-portal-backend/internal/activity"
	"agri-broker/broker-portal/broker-portal-backend/internal/users"
	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
	"agri-broker/broker-portal/broker-portal-backend/pkg/notify"
)

// Recorder is the slice of the activity log trades need
type Recorder interface {
	Record(ctx context.Context, entry *activity.Log) error
	Exists(ctx context.Context, logType activity.LogType, entityType activity.EntityType, entityID string) (bool, error)
	ListByType(ctx context.Context, brokerID string, logType activity.LogType) ([]activity.Log, error)
}

// Alerter sends the three-message trade alert to a supplier
type Alerter interface {
	SendTrade(ctx context.Context, phone string, alert notify.TradeAlert) bool
}

// CreateRequest is the body of POST /broker/trade
type CreateRequest struct {
	Crop      string          `json:"crop" binding:"required"`
	Grade     string          `json:"grade" binding:"required"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	ValidTill time.Time       `json:"valid_till"`
}

// BroadcastResult is returned after a successful broadcast
type BroadcastResult struct {
	Message       string `json:"message"`
	SupplierCount int    `json:"supplier_count"`
}

// BroadcastRecord is a broadcast log with the trade it announced
type BroadcastRecord struct {
	activity.Log
	Trade *Summary `json:"trade,omitempty"`
}

// Service implements the broker and supplier trade operations
type Service struct {
	repo     Repository
	users    users.Repository
	recorder Recorder
	alerter  Alerter
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, userRepo users.Repository, recorder Recorder, alerter Alerter, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		users:    userRepo,
		recorder: recorder,
		alerter:  alerter,
		logger:   logger,
		now:      time.Now,
	}
}

// Advance moves trade to the next status through the transition table and
// persists it. A concurrent change of the stored status is reported as a conflict.
func Advance(ctx context.Context, repo Repository, trade *Trade, to Status) error {
	next, err := Transitions.Transition(trade.Status, to)
	if err != nil {
		return apperrors.Validation("Trade cannot move from %s to %s", trade.Status, to)
	}
	updated, err := repo.UpdateStatus(ctx, trade.ID, trade.Status, next)
	if err != nil {
		return err
	}
	if !updated {
		return apperrors.Conflict("Trade status changed concurrently")
	}
	trade.Status = next
	return nil
}

// Create stores a new active trade and alerts the broker's own suppliers
func (s *Service) Create(ctx context.Context, brokerID string, req CreateRequest) (*Trade, error) {
	if strings.TrimSpace(req.Crop) == "" || strings.TrimSpace(req.Grade) == "" {
		return nil, apperrors.Validation("crop and grade are required")
	}
	price, quantity := req.Price.Round(2), req.Quantity.Round(2)
	if !price.IsPositive() {
		return nil, apperrors.Validation("price must be positive")
	}
	if !quantity.IsPositive() {
		return nil, apperrors.Validation("quantity must be positive")
	}
	if req.ValidTill.IsZero() {
		return nil, apperrors.Validation("valid_till is required")
	}

	trade := &Trade{
		Crop:      strings.TrimSpace(req.Crop),
		Grade:     strings.TrimSpace(req.Grade),
		Price:     price,
		Quantity:  quantity,
		ValidTill: req.ValidTill,
		Status:    StatusActive,
		BrokerID:  brokerID,
	}
	if err := s.repo.Create(ctx, trade); err != nil {
		return nil, err
	}

	err := s.recorder.Record(ctx, &activity.Log{
		BrokerID:   brokerID,
		Type:       activity.TypeTradeCreated,
		Message:    "New " + trade.Crop + " trade created",
		EntityType: activity.EntityTrade,
		EntityID:   trade.ID,
		ActorID:    brokerID,
		ActorType:  activity.ActorBroker,
		Details: datatypes.JSONMap{
			"price":    notify.Money(trade.Price),
			"quantity": trade.Quantity.String(),
		},
	})
	if err != nil {
		return nil, err
	}

	suppliers, err := s.users.ListSuppliersOfBroker(ctx, brokerID)
	if err != nil {
		return nil, err
	}
	alert := trade.Alert()
	for _, supplier := range suppliers {
		s.alerter.SendTrade(ctx, supplier.Phone, alert)
	}

	s.logger.Info("Trade created",
		zap.String("trade_id", trade.ID),
		zap.String("broker_id", brokerID),
		zap.Int("suppliers_notified", len(suppliers)),
	)
	return trade, nil
}

// ListByBroker returns the broker's trades, newest first
func (s *Service) ListByBroker(ctx context.Context, brokerID string) ([]Trade, error) {
	return s.repo.ListByBroker(ctx, brokerID)
}

// ListActive returns every trade suppliers can still respond to
func (s *Service) ListActive(ctx context.Context) ([]Trade, error) {
	return s.repo.ListByStatus(ctx, StatusActive)
}

// Broadcast alerts every supplier about a trade. A trade is broadcast at most once.
func (s *Service) Broadcast(ctx context.Context, brokerID, tradeID string) (*BroadcastResult, error) {
	if tradeID == "" {
		return nil, apperrors.Validation("Trade ID is required")
	}

	trade, err := s.repo.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, apperrors.NotFound("Trade not found")
	}
	if trade.BrokerID != brokerID {
		return nil, apperrors.Forbidden("Unauthorized to broadcast this trade")
	}

	done, err := s.recorder.Exists(ctx, activity.TypeTradeBroadcast, activity.EntityTrade, trade.ID)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, apperrors.Validation("Trade already broadcasted")
	}
	if trade.Expired(s.now()) {
		return nil, apperrors.Validation("Trade validity has expired")
	}

	suppliers, err := s.users.ListByRole(ctx, users.RoleSupplier)
	if err != nil {
		return nil, err
	}
	if len(suppliers) == 0 {
		return nil, apperrors.Validation("No active suppliers found")
	}

	alert := trade.Alert()
	delivered := 0
	for _, supplier := range suppliers {
		if s.alerter.SendTrade(ctx, supplier.Phone, alert) {
			delivered++
		}
	}

	err = s.recorder.Record(ctx, &activity.Log{
		BrokerID:   brokerID,
		Type:       activity.TypeTradeBroadcast,
		Message:    "Trade broadcast to suppliers",
		EntityType: activity.EntityTrade,
		EntityID:   trade.ID,
		ActorID:    brokerID,
		ActorType:  activity.ActorBroker,
		Details: datatypes.JSONMap{
			"supplier_count": len(suppliers),
			"delivered":      delivered,
		},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Trade broadcast",
		zap.String("trade_id", trade.ID),
		zap.Int("suppliers", len(suppliers)),
		zap.Int("delivered", delivered),
	)
	return &BroadcastResult{Message: "Trade broadcasted successfully", SupplierCount: len(suppliers)}, nil
}

// BroadcastHistory lists the broker's broadcasts with trade details, newest first
func (s *Service) BroadcastHistory(ctx context.Context, brokerID string) ([]BroadcastRecord, error) {
	logs, err := s.recorder.ListByType(ctx, brokerID, activity.TypeTradeBroadcast)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(logs))
	for _, l := range logs {
		ids = append(ids, l.EntityID)
	}
	tradesByID, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	records := make([]BroadcastRecord, 0, len(logs))
	for _, l := range logs {
		records = append(records, BroadcastRecord{Log: l, Trade: SummaryOf(tradesByID[l.EntityID])})
	}
	return records, nil
}
