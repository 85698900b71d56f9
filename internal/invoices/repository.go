package invoices

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Repository persists invoices. Lookups return nil, nil when nothing matches.
type Repository interface {
	Create(ctx context.Context, invoice *Invoice) error
	GetByID(ctx context.Context, id string) (*Invoice, error)
	GetByNumber(ctx context.Context, number string) (*Invoice, error)
	SetNumber(ctx context.Context, id, number string) (bool, error)
	ListByBroker(ctx context.Context, brokerID string) ([]Invoice, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, invoice *Invoice) error {
	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *gormRepository) first(ctx context.Context, query string, arg any) (*Invoice, error) {
	var invoice Invoice
	err := r.db.WithContext(ctx).First(&invoice, query, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &invoice, nil
}

func (r *gormRepository) GetByID(ctx context.Context, id string) (*Invoice, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *gormRepository) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	return r.first(ctx, "invoice_number = ?", number)
}

// SetNumber stores number only while the invoice has none. It reports
// whether a row was updated.
func (r *gormRepository) SetNumber(ctx context.Context, id, number string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Invoice{}).
		Where("id = ? AND invoice_number IS NULL", id).
		Update("invoice_number", number)
	if result.Error != nil {
		return false, fmt.Errorf("failed to set invoice number: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *gormRepository) ListByBroker(ctx context.Context, brokerID string) ([]Invoice, error) {
	var list []Invoice
	err := r.db.WithContext(ctx).Where("broker_id = ?", brokerID).Order("created_at DESC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return list, nil
}
