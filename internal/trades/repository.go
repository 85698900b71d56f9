package trades

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Repository persists trades. GetByID returns nil, nil for an unknown id.
type Repository interface {
	Create(ctx context.Context, trade *Trade) error
	GetByID(ctx context.Context, id string) (*Trade, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*Trade, error)
	ListByBroker(ctx context.Context, brokerID string) ([]Trade, error)
	ListByStatus(ctx context.Context, status Status) ([]Trade, error)
	ListLapsed(ctx context.Context, now time.Time, statuses ...Status) ([]Trade, error)
	UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, trade *Trade) error {
	if err := r.db.WithContext(ctx).Create(trade).Error; err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}
	return nil
}

func (r *gormRepository) GetByID(ctx context.Context, id string) (*Trade, error) {
	var trade Trade
	err := r.db.WithContext(ctx).Preload("Broker").First(&trade, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return &trade, nil
}

func (r *gormRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*Trade, error) {
	result := make(map[string]*Trade, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var list []Trade
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to get trades: %w", err)
	}
	for i := range list {
		result[list[i].ID] = &list[i]
	}
	return result, nil
}

func (r *gormRepository) ListByBroker(ctx context.Context, brokerID string) ([]Trade, error) {
	var list []Trade
	err := r.db.WithContext(ctx).Where("broker_id = ?", brokerID).Order("created_at DESC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return list, nil
}

func (r *gormRepository) ListByStatus(ctx context.Context, status Status) ([]Trade, error) {
	var list []Trade
	err := r.db.WithContext(ctx).Where("status = ?", status).Order("valid_till ASC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s trades: %w", status, err)
	}
	return list, nil
}

// ListLapsed returns trades in one of statuses whose validity ended before now
func (r *gormRepository) ListLapsed(ctx context.Context, now time.Time, statuses ...Status) ([]Trade, error) {
	var list []Trade
	err := r.db.WithContext(ctx).
		Where("status IN ? AND valid_till < ?", statuses, now).
		Order("valid_till ASC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lapsed trades: %w", err)
	}
	return list, nil
}

// UpdateStatus is a compare-and-set on status. It reports false when the
// trade was no longer in from.
func (r *gormRepository) UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Trade{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update trade status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
