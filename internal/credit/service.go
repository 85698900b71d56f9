package credit

import (
	"context"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"agri-broker/broker-portal/broker-portal-backend/internal/orders"
	"agri-broker/broker-portal/broker-portal-backend/internal/trades"
	"agri-broker/broker-portal/broker-portal-backend/internal/users"
	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
	"agri-broker/broker-portal/broker-portal-backend/pkg/notify"
)

// Notifier sends a best-effort message to a phone
type Notifier interface {
	Notify(ctx context.Context, phone, body string) bool
}

// AddBuyerRequest is the body of POST /financer/buyers
type AddBuyerRequest struct {
	Name        string          `json:"name" binding:"required"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// UpdateCreditRequest is the body of PUT /financer/buyers/:id/credit
type UpdateCreditRequest struct {
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// CreatePORequest is the body of POST /broker/trades/:tradeId/purchase-orders
type CreatePORequest struct {
	BuyerID  string          `json:"buyer_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Service manages buyer credit and the purchase orders drawn against it
type Service struct {
	repo     Repository
	trades   trades.Repository
	orders   orders.Repository
	users    users.Repository
	notifier Notifier
	logger   *zap.Logger
}

func NewService(
	repo Repository,
	tradeRepo trades.Repository,
	orderRepo orders.Repository,
	userRepo users.Repository,
	notifier Notifier,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:     repo,
		trades:   tradeRepo,
		orders:   orderRepo,
		users:    userRepo,
		notifier: notifier,
		logger:   logger,
	}
}

// AddBuyer registers a buyer with its full limit available
func (s *Service) AddBuyer(ctx context.Context, financerID string, req AddBuyerRequest) (*Buyer, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.Validation("name is required")
	}
	if req.CreditLimit.IsNegative() {
		return nil, apperrors.Validation("credit_limit cannot be negative")
	}

	limit := req.CreditLimit.Round(2)
	buyer := &Buyer{
		FinancerID:      financerID,
		Name:            strings.TrimSpace(req.Name),
		CreditLimit:     limit,
		AvailableCredit: limit,
		Status:          BuyerActive,
	}
	if err := s.repo.CreateBuyer(ctx, buyer); err != nil {
		return nil, err
	}
	s.logger.Info("Buyer added", zap.String("buyer_id", buyer.ID), zap.String("financer_id", financerID))
	return buyer, nil
}

func (s *Service) ListBuyers(ctx context.Context, financerID string) ([]Buyer, error) {
	return s.repo.ListBuyers(ctx, financerID)
}

// UpdateCreditLimit replaces the limit and shifts available credit by the same delta
func (s *Service) UpdateCreditLimit(ctx context.Context, financerID, buyerID string, req UpdateCreditRequest) (*Buyer, error) {
	buyer, err := s.repo.GetBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if buyer == nil {
		return nil, apperrors.NotFound("Buyer not found")
	}
	if buyer.FinancerID != financerID {
		return nil, apperrors.Forbidden("Unauthorized to update this buyer")
	}

	limit := req.CreditLimit.Round(2)
	if limit.IsNegative() {
		return nil, apperrors.Validation("credit_limit cannot be negative")
	}
	available := buyer.AvailableCredit.Add(limit.Sub(buyer.CreditLimit))
	if available.IsNegative() {
		return nil, apperrors.Validation("Credit limit is below the credit already committed")
	}

	buyer.CreditLimit = limit
	buyer.AvailableCredit = available
	if err := s.repo.SaveBuyer(ctx, buyer); err != nil {
		return nil, err
	}
	return buyer, nil
}

// CreatePurchaseOrder draws quantity × trade price from the buyer's available credit
func (s *Service) CreatePurchaseOrder(ctx context.Context, brokerID, tradeID string, req CreatePORequest) (*PurchaseOrder, error) {
	quantity := req.Quantity.Round(2)
	if !quantity.IsPositive() {
		return nil, apperrors.Validation("quantity must be positive")
	}

	trade, err := s.trades.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, apperrors.NotFound("Trade not found")
	}
	if trade.BrokerID != brokerID {
		return nil, apperrors.Forbidden("Unauthorized to raise purchase orders for this trade")
	}

	buyer, err := s.repo.GetBuyer(ctx, req.BuyerID)
	if err != nil {
		return nil, err
	}
	if buyer == nil {
		return nil, apperrors.NotFound("Buyer not found")
	}
	if buyer.Status != BuyerActive {
		return nil, apperrors.Validation("Buyer is not active")
	}

	total := quantity.Mul(trade.Price).Round(2)
	if total.GreaterThan(buyer.AvailableCredit) {
		return nil, apperrors.Validation("Insufficient credit limit")
	}

	po := &PurchaseOrder{
		PONumber:    "PO-" + ulid.Make().String(),
		TradeID:     trade.ID,
		BuyerID:     buyer.ID,
		BrokerID:    brokerID,
		Quantity:    quantity,
		PricePerQtl: trade.Price,
		TotalAmount: total,
		Status:      POPending,
	}

	latest, err := s.orders.LatestForTrade(ctx, trade.ID)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		po.OrderID = &latest.ID
		po.SupplierID = &latest.SupplierID
	}

	debited, err := s.repo.CreatePurchaseOrder(ctx, po)
	if err != nil {
		return nil, err
	}

	if latest != nil && latest.Supplier != nil {
		s.notifier.Notify(ctx, latest.Supplier.Phone,
			notify.PurchaseOrder(po.PONumber, po.Quantity, po.PricePerQtl, po.TotalAmount))
	}

	s.logger.Info("Purchase order created",
		zap.String("po_number", po.PONumber),
		zap.String("buyer_id", buyer.ID),
		zap.String("available_credit", debited.AvailableCredit.StringFixed(2)),
	)
	return po, nil
}

// ListPurchaseOrders returns purchase orders against the financer's buyers
func (s *Service) ListPurchaseOrders(ctx context.Context, financerID string) ([]PurchaseOrder, error) {
	return s.repo.ListPurchaseOrders(ctx, financerID)
}

// ListAllBuyers returns a financed and a direct option for every buyer
func (s *Service) ListAllBuyers(ctx context.Context) ([]BuyerOption, error) {
	buyers, err := s.repo.ListAllBuyers(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	ids := make([]string, 0, len(buyers))
	for _, b := range buyers {
		if !seen[b.FinancerID] {
			seen[b.FinancerID] = true
			ids = append(ids, b.FinancerID)
		}
	}
	financers, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	options := make([]BuyerOption, 0, 2*len(buyers))
	for i := range buyers {
		b := &buyers[i]

		var details *FinancerDetails
		firm := ""
		if f := financers[b.FinancerID]; f != nil && f.Role == users.RoleFinancer {
			details = &FinancerDetails{FirmName: f.FirmName, Phone: f.Phone, Email: f.Email}
			firm = f.FirmName
		}

		limit, available := b.CreditLimit, b.AvailableCredit
		options = append(options,
			BuyerOption{
				ID:              b.ID,
				BuyerID:         b.ID,
				Name:            fmt.Sprintf("%s (%s Credit limit %s)", b.Name, firm, notify.Money(limit)),
				FinancerID:      b.FinancerID,
				Status:          b.Status,
				CreditLimit:     &limit,
				AvailableCredit: &available,
				WithFinancing:   true,
				FinancerDetails: details,
			},
			BuyerOption{
				ID:         b.ID + "-direct",
				BuyerID:    b.ID,
				Name:       b.Name,
				FinancerID: b.FinancerID,
				Status:     b.Status,
			},
		)
	}
	return options, nil
}

// Summary refreshes and returns the financer's credit roll-up
func (s *Service) Summary(ctx context.Context, financerID string) (*Financer, error) {
	return s.repo.RefreshFinancer(ctx, financerID)
}
