package activity

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Repository persists log entries
type Repository interface {
	Create(ctx context.Context, entry *Log) error
	GetByID(ctx context.Context, id string) (*Log, error)
	ListUnread(ctx context.Context, brokerID string) ([]Log, error)
	CountUnread(ctx context.Context, brokerID string) (int64, error)
	MarkRead(ctx context.Context, brokerID string, ids []string) (int64, error)
	History(ctx context.Context, brokerID string, offset, limit int) ([]Log, int64, error)
	ListByType(ctx context.Context, brokerID string, logType LogType) ([]Log, error)
	Exists(ctx context.Context, logType LogType, entityType EntityType, entityID string) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, entry *Log) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create log: %w", err)
	}
	return nil
}

func (r *gormRepository) GetByID(ctx context.Context, id string) (*Log, error) {
	var entry Log
	err := r.db.WithContext(ctx).Preload("Actor").First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get log: %w", err)
	}
	return &entry, nil
}

func (r *gormRepository) ListUnread(ctx context.Context, brokerID string) ([]Log, error) {
	var logs []Log
	err := r.db.WithContext(ctx).
		Preload("Actor").
		Where("broker_id = ? AND is_read = ?", brokerID, false).
		Order("created_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unread logs: %w", err)
	}
	return logs, nil
}

func (r *gormRepository) CountUnread(ctx context.Context, brokerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Log{}).
		Where("broker_id = ? AND is_read = ?", brokerID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread logs: %w", err)
	}
	return count, nil
}

// MarkRead only touches entries addressed to brokerID
func (r *gormRepository) MarkRead(ctx context.Context, brokerID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&Log{}).
		Where("broker_id = ? AND id IN ?", brokerID, ids).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark logs read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormRepository) History(ctx context.Context, brokerID string, offset, limit int) ([]Log, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Log{}).Where("broker_id = ?", brokerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count logs: %w", err)
	}

	var logs []Log
	err := r.db.WithContext(ctx).
		Preload("Actor").
		Where("broker_id = ?", brokerID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list logs: %w", err)
	}
	return logs, total, nil
}

// ListByType lists entries of one type. An empty brokerID lists every broker's entries.
func (r *gormRepository) ListByType(ctx context.Context, brokerID string, logType LogType) ([]Log, error) {
	query := r.db.WithContext(ctx).Preload("Actor").Where("type = ?", logType)
	if brokerID != "" {
		query = query.Where("broker_id = ?", brokerID)
	}
	var logs []Log
	if err := query.Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s logs: %w", logType, err)
	}
	return logs, nil
}

func (r *gormRepository) Exists(ctx context.Context, logType LogType, entityType EntityType, entityID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Log{}).
		Where("type = ? AND entity_type = ? AND entity_id = ?", logType, entityType, entityID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check logs: %w", err)
	}
	return count > 0, nil
}
