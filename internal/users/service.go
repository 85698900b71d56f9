package users

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
	"agri-broker/broker-portal/broker-portal-backend/pkg/notify"
)

// AddSupplierRequest registers a supplier under the calling broker
type AddSupplierRequest struct {
	FirmName  string `json:"firm_name" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
	Address   string `json:"address"`
	PanNumber string `json:"pan_number"`
	UpiID     string `json:"upi_id"`
}

// Service manages a broker's supplier directory
type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// AddSupplier creates a supplier owned by brokerID
func (s *Service) AddSupplier(ctx context.Context, brokerID string, req AddSupplierRequest) (*User, error) {
	if strings.TrimSpace(req.FirmName) == "" {
		return nil, apperrors.Validation("firm_name is required")
	}
	if len(notify.LastTen(req.Phone)) != 10 {
		return nil, apperrors.Validation("phone must contain at least 10 digits")
	}

	existing, err := s.repo.GetByPhone(ctx, req.Phone, RoleSupplier)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflict("A supplier with this phone number already exists")
	}

	supplier := &User{
		Role:      RoleSupplier,
		FirmName:  strings.TrimSpace(req.FirmName),
		Phone:     req.Phone,
		Address:   req.Address,
		PanNumber: req.PanNumber,
		UpiID:     req.UpiID,
		BrokerID:  &brokerID,
	}
	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, err
	}

	s.logger.Info("Supplier added",
		zap.String("supplier_id", supplier.ID),
		zap.String("broker_id", brokerID),
	)
	return supplier, nil
}

// ListSuppliers returns every supplier, newest first
func (s *Service) ListSuppliers(ctx context.Context) ([]User, error) {
	return s.repo.ListByRole(ctx, RoleSupplier)
}

// GetSupplier returns a supplier by id
func (s *Service) GetSupplier(ctx context.Context, id string) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Role != RoleSupplier {
		return nil, apperrors.NotFound("Supplier not found")
	}
	return user, nil
}
