package credit

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
)

// Repository persists buyers, financers and purchase orders.
// Lookups return nil, nil when nothing matches.
type Repository interface {
	CreateBuyer(ctx context.Context, buyer *Buyer) error
	GetBuyer(ctx context.Context, id string) (*Buyer, error)
	SaveBuyer(ctx context.Context, buyer *Buyer) error
	ListBuyers(ctx context.Context, financerID string) ([]Buyer, error)
	ListAllBuyers(ctx context.Context) ([]Buyer, error)
	CreatePurchaseOrder(ctx context.Context, po *PurchaseOrder) (*Buyer, error)
	ListPurchaseOrders(ctx context.Context, financerID string) ([]PurchaseOrder, error)
	RefreshFinancer(ctx context.Context, userID string) (*Financer, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateBuyer(ctx context.Context, buyer *Buyer) error {
	if err := r.db.WithContext(ctx).Create(buyer).Error; err != nil {
		return fmt.Errorf("failed to create buyer: %w", err)
	}
	return nil
}

func (r *gormRepository) GetBuyer(ctx context.Context, id string) (*Buyer, error) {
	var buyer Buyer
	err := r.db.WithContext(ctx).First(&buyer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get buyer: %w", err)
	}
	return &buyer, nil
}

func (r *gormRepository) SaveBuyer(ctx context.Context, buyer *Buyer) error {
	if err := r.db.WithContext(ctx).Save(buyer).Error; err != nil {
		return fmt.Errorf("failed to save buyer: %w", err)
	}
	return nil
}

func (r *gormRepository) ListBuyers(ctx context.Context, financerID string) ([]Buyer, error) {
	var list []Buyer
	err := r.db.WithContext(ctx).Where("financer_id = ?", financerID).Order("created_at DESC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list buyers: %w", err)
	}
	return list, nil
}

func (r *gormRepository) ListAllBuyers(ctx context.Context) ([]Buyer, error) {
	var list []Buyer
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list buyers: %w", err)
	}
	return list, nil
}

// CreatePurchaseOrder inserts po and debits the buyer's available credit in
// one transaction. The credit check is repeated against the row read inside
// the transaction. It returns the debited buyer.
func (r *gormRepository) CreatePurchaseOrder(ctx context.Context, po *PurchaseOrder) (*Buyer, error) {
	var buyer Buyer
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&buyer, "id = ?", po.BuyerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Buyer not found")
			}
			return fmt.Errorf("failed to get buyer: %w", err)
		}
		if po.TotalAmount.GreaterThan(buyer.AvailableCredit) {
			return apperrors.Validation("Insufficient credit limit")
		}

		if err := tx.Omit(clause.Associations).Create(po).Error; err != nil {
			return fmt.Errorf("failed to create purchase order: %w", err)
		}

		buyer.AvailableCredit = buyer.AvailableCredit.Sub(po.TotalAmount)
		err := tx.Model(&Buyer{}).Where("id = ?", buyer.ID).
			Update("available_credit", buyer.AvailableCredit).Error
		if err != nil {
			return fmt.Errorf("failed to debit buyer credit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &buyer, nil
}

// ListPurchaseOrders returns the purchase orders placed against a financer's buyers
func (r *gormRepository) ListPurchaseOrders(ctx context.Context, financerID string) ([]PurchaseOrder, error) {
	var list []PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Buyer").
		Preload("Trade").
		Where("buyer_id IN (?)", r.db.Model(&Buyer{}).Select("id").Where("financer_id = ?", financerID)).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}
	return list, nil
}

type creditTotals struct {
	TotalCreditLimit decimal.NullDecimal
	AvailableCredit  decimal.NullDecimal
	BuyerCount       int64
}

// RefreshFinancer recomputes the financer roll-up from its buyers and stores it
func (r *gormRepository) RefreshFinancer(ctx context.Context, userID string) (*Financer, error) {
	var totals creditTotals
	err := r.db.WithContext(ctx).Model(&Buyer{}).
		Select("SUM(credit_limit) AS total_credit_limit, SUM(available_credit) AS available_credit, COUNT(*) AS buyer_count").
		Where("financer_id = ?", userID).
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to total buyer credit: %w", err)
	}

	financer := Financer{UserID: userID}
	err = r.db.WithContext(ctx).Where("user_id = ?", userID).FirstOrInit(&financer).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get financer: %w", err)
	}
	financer.TotalCreditLimit = totals.TotalCreditLimit.Decimal
	financer.AvailableCredit = totals.AvailableCredit.Decimal
	if err := r.db.WithContext(ctx).Save(&financer).Error; err != nil {
		return nil, fmt.Errorf("failed to save financer: %w", err)
	}
	financer.BuyerCount = totals.BuyerCount
	return &financer, nil
}
