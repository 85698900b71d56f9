package server

import (
	"fmt"

	"gorm.io/gorm"

	"agri-broker/broker-portal/broker-portal-backend/internal/activity"
	"agri-broker/broker-portal/broker-portal-backend/internal/credit"
	"agri-broker/broker-portal/broker-portal-backend/internal/invoices"
	"agri-broker/broker-portal/broker-portal-backend/internal/orders"
	"agri-broker/broker-portal/broker-portal-backend/internal/trades"
	"agri-broker/broker-portal/broker-portal-backend/internal/users"
)

// Models lists every persisted type in dependency order
func Models() []any {
	return []any{
		&users.User{},
		&trades.Trade{},
		&orders.Order{},
		&credit.Buyer{},
		&credit.Financer{},
		&credit.PurchaseOrder{},
		&activity.Log{},
		&invoices.Invoice{},
	}
}

// Migrate creates or updates the schema for all models
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
