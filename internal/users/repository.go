package users

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"agri-broker/broker-portal/broker-portal-backend/pkg/notify"
)

// Repository reads and writes users. Lookups return nil, nil when nothing matches.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByPhone(ctx context.Context, phone string, role Role) (*User, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*User, error)
	ListByRole(ctx context.Context, role Role) ([]User, error)
	ListSuppliersOfBroker(ctx context.Context, brokerID string) ([]User, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed user repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, user *User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *gormRepository) first(ctx context.Context, query *gorm.DB) (*User, error) {
	var user User
	err := query.WithContext(ctx).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *gormRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.first(ctx, r.db.Where("id = ?", id))
}

func (r *gormRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.first(ctx, r.db.Where("email = ?", email))
}

// GetByPhone matches on the last ten digits. An empty role matches any role.
func (r *gormRepository) GetByPhone(ctx context.Context, phone string, role Role) (*User, error) {
	query := r.db.Where("phone = ?", notify.LastTen(phone))
	if role != "" {
		query = query.Where("role = ?", role)
	}
	return r.first(ctx, query.Order("created_at ASC"))
}

func (r *gormRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*User, error) {
	result := make(map[string]*User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var list []User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	for i := range list {
		result[list[i].ID] = &list[i]
	}
	return result, nil
}

func (r *gormRepository) ListByRole(ctx context.Context, role Role) ([]User, error) {
	var list []User
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return list, nil
}

func (r *gormRepository) ListSuppliersOfBroker(ctx context.Context, brokerID string) ([]User, error) {
	var list []User
	err := r.db.WithContext(ctx).
		Where("role = ? AND broker_id = ?", RoleSupplier, brokerID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return list, nil
}
