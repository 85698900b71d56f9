package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommissionSummary aggregates commission amounts for one payment status
type CommissionSummary struct {
	PaymentStatus           PaymentStatus   `json:"payment_status"`
	TotalSupplierCommission decimal.Decimal `json:"total_supplier_commission"`
	TotalBuyerCommission    decimal.Decimal `json:"total_buyer_commission"`
	TotalCommission         decimal.Decimal `json:"total_commission"`
	OrderCount              int64           `json:"order_count"`
}

// Repository persists orders. Lookups return nil, nil when nothing matches.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	Save(ctx context.Context, order *Order) error
	LatestForTrade(ctx context.Context, tradeID string) (*Order, error)
	ListByBroker(ctx context.Context, brokerID string, statuses []Status) ([]Order, error)
	SummarizeCommissions(ctx context.Context, brokerID string, statuses []Status) ([]CommissionSummary, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, order *Order) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *gormRepository) GetByID(ctx context.Context, id string) (*Order, error) {
	var order Order
	err := r.db.WithContext(ctx).
		Preload("Trade").
		Preload("Supplier").
		Preload("Broker").
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// Save writes the order row only; preloaded associations are left alone
func (r *gormRepository) Save(ctx context.Context, order *Order) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(order).Error; err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (r *gormRepository) LatestForTrade(ctx context.Context, tradeID string) (*Order, error) {
	var order Order
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Where("trade_id = ?", tradeID).
		Order("created_at DESC").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest order: %w", err)
	}
	return &order, nil
}

func (r *gormRepository) ListByBroker(ctx context.Context, brokerID string, statuses []Status) ([]Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Trade").
		Preload("Supplier").
		Where("broker_id = ?", brokerID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var list []Order
	if err := query.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return list, nil
}

func (r *gormRepository) SummarizeCommissions(ctx context.Context, brokerID string, statuses []Status) ([]CommissionSummary, error) {
	var rows []CommissionSummary
	err := r.db.WithContext(ctx).Model(&Order{}).
		Select("payment_status, " +
			"SUM(supplier_commission_amount) AS total_supplier_commission, " +
			"SUM(buyer_commission_amount) AS total_buyer_commission, " +
			"SUM(total_commission) AS total_commission, " +
			"COUNT(*) AS order_count").
		Where("broker_id = ? AND status IN ?", brokerID, statuses).
		Group("payment_status").
		Order("payment_status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to summarize commissions: %w", err)
	}
	return rows, nil
}
