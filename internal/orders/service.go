package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"agri-broker/broker-portal/broker-portal-backend/internal/trades"
	"agri-broker/broker-portal/broker-portal-backend/internal/users"
	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
	"agri-broker/broker-portal/broker-portal-backend/pkg/notify"
)

// Notifier sends a best-effort message to a phone
type Notifier interface {
	Notify(ctx context.Context, phone, body string) bool
}

// CreateRequest is the body of POST /supplier/orders
type CreateRequest struct {
	TradeID  string          `json:"trade_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// NegotiateRequest is the body of PUT /supplier/orders/:orderId/negotiate
type NegotiateRequest struct {
	CounterOffer decimal.Decimal `json:"counter_offer"`
}

// PaymentRequest is the body of PUT /broker/commissions/:orderId/payment
type PaymentRequest struct {
	PaymentFrom PaymentSide `json:"payment_from" binding:"required"`
}

// CommissionDetail is one order of the commission report
type CommissionDetail struct {
	ID                       string          `json:"id"`
	TradeID                  string          `json:"trade_id"`
	SupplierCommissionAmount decimal.Decimal `json:"supplier_commission_amount"`
	BuyerCommissionAmount    decimal.Decimal `json:"buyer_commission_amount"`
	TotalCommission          decimal.Decimal `json:"total_commission"`
	PaymentStatus            PaymentStatus   `json:"payment_status"`
	Status                   Status          `json:"status"`
	CreatedAt                time.Time       `json:"created_at"`
	Supplier                 *users.Contact  `json:"supplier,omitempty"`
	Trade                    *trades.Summary `json:"trade,omitempty"`
}

// Service implements the order and commission operations of the API
type Service struct {
	repo     Repository
	trades   trades.Repository
	notifier Notifier
	rates    Rates
	logger   *zap.Logger
}

func NewService(repo Repository, tradeRepo trades.Repository, notifier Notifier, rates Rates, logger *zap.Logger) *Service {
	return &Service{repo: repo, trades: tradeRepo, notifier: notifier, rates: rates, logger: logger}
}

// Rates returns the default commission rates applied to new orders
func (s *Service) Rates() Rates {
	return s.rates
}

func (s *Service) get(ctx context.Context, id string) (*Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.NotFound("Order not found")
	}
	return order, nil
}

// Confirm moves a broker's order to confirmed and tells the supplier
func (s *Service) Confirm(ctx context.Context, brokerID, orderID string) (*Order, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BrokerID != brokerID {
		return nil, apperrors.Forbidden("Unauthorized to confirm this order")
	}

	next, err := Transitions.Transition(order.Status, StatusConfirmed)
	if err != nil {
		return nil, apperrors.Validation("Order cannot be confirmed from status %s", order.Status)
	}
	order.Status = next
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, err
	}

	if order.Supplier != nil {
		s.notifier.Notify(ctx, order.Supplier.Phone,
			notify.OrderConfirmation(order.ID, order.Quantity, order.TotalAmount, string(order.Status)))
	}

	s.logger.Info("Order confirmed", zap.String("order_id", order.ID), zap.String("broker_id", brokerID))
	return order, nil
}

// RecordPayment applies a commission payment from one side
func (s *Service) RecordPayment(ctx context.Context, brokerID, orderID string, side PaymentSide) (*Order, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BrokerID != brokerID {
		return nil, apperrors.Forbidden("Unauthorized to update this order")
	}

	next, err := NextPaymentStatus(order.PaymentStatus, side)
	if err != nil {
		return nil, err
	}
	if next == order.PaymentStatus {
		return order, nil
	}

	order.PaymentStatus = next
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, err
	}
	s.logger.Info("Commission payment recorded",
		zap.String("order_id", order.ID),
		zap.String("payment_from", string(side)),
		zap.String("payment_status", string(next)),
	)
	return order, nil
}

// CommissionSummary totals the broker's commissions per payment status
func (s *Service) CommissionSummary(ctx context.Context, brokerID string) ([]CommissionSummary, error) {
	return s.repo.SummarizeCommissions(ctx, brokerID, CommissionStatuses)
}

// CommissionDetails lists the broker's commission-bearing orders
func (s *Service) CommissionDetails(ctx context.Context, brokerID string) ([]CommissionDetail, error) {
	list, err := s.repo.ListByBroker(ctx, brokerID, CommissionStatuses)
	if err != nil {
		return nil, err
	}

	details := make([]CommissionDetail, 0, len(list))
	for i := range list {
		o := &list[i]
		details = append(details, CommissionDetail{
			ID:                       o.ID,
			TradeID:                  o.TradeID,
			SupplierCommissionAmount: o.SupplierCommissionAmount,
			BuyerCommissionAmount:    o.BuyerCommissionAmount,
			TotalCommission:          o.TotalCommission,
			PaymentStatus:            o.PaymentStatus,
			Status:                   o.Status,
			CreatedAt:                o.CreatedAt,
			Supplier:                 users.ContactOf(o.Supplier),
			Trade:                    trades.SummaryOf(o.Trade),
		})
	}
	return details, nil
}

// Create opens a pending order for a supplier against an active trade
func (s *Service) Create(ctx context.Context, supplierID string, req CreateRequest) (*Order, error) {
	trade, err := s.trades.GetByID(ctx, req.TradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, apperrors.NotFound("Trade not found")
	}
	if trade.Status != trades.StatusActive {
		return nil, apperrors.Validation("Trade is no longer active")
	}

	quantity := req.Quantity
	if quantity.IsZero() {
		quantity = trade.Quantity
	}
	if quantity = quantity.Round(2); !quantity.IsPositive() {
		return nil, apperrors.Validation("quantity must be positive")
	}

	order := &Order{
		TradeID:                trade.ID,
		SupplierID:             supplierID,
		BrokerID:               trade.BrokerID,
		Quantity:               quantity,
		PricePerQtl:            trade.Price,
		TotalAmount:            trade.Price.Mul(quantity).Round(2),
		SupplierCommissionRate: s.rates.Supplier,
		BuyerCommissionRate:    s.rates.Buyer,
		Status:                 StatusPending,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Negotiate records a supplier's counter offer on an existing order and tells the broker
func (s *Service) Negotiate(ctx context.Context, supplierID, orderID string, req NegotiateRequest) (*Order, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SupplierID != supplierID {
		return nil, apperrors.Forbidden("Unauthorized to negotiate this order")
	}
	offer := req.CounterOffer.Round(2)
	if !offer.IsPositive() {
		return nil, apperrors.Validation("counter_offer must be positive")
	}

	next, err := Transitions.Transition(order.Status, StatusNegotiating)
	if err != nil {
		return nil, apperrors.Validation("Order cannot be negotiated from status %s", order.Status)
	}
	order.Status = next
	order.CounterOffer = decimal.NewNullDecimal(offer)
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, err
	}

	if order.Broker != nil {
		s.notifier.Notify(ctx, order.Broker.Phone, notify.NegotiationUpdate(order.ID, order.CounterOffer.Decimal))
	}
	return order, nil
}

// LatestForTrade returns the newest order of a trade, or nil
func (s *Service) LatestForTrade(ctx context.Context, tradeID string) (*Order, error) {
	return s.repo.LatestForTrade(ctx, tradeID)
}
