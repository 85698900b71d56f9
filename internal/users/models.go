package users

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"agri-broker/broker-portal/broker-portal-backend/pkg/notify"
)

// Role is the actor class of a user
type Role string

const (
	RoleBroker   Role = "broker"
	RoleSupplier Role = "supplier"
	RoleFarmer   Role = "farmer"
	RoleFinancer Role = "financer"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleBroker, RoleSupplier, RoleFarmer, RoleFinancer:
		return true
	}
	return false
}

// User is any party of the brokerage. Suppliers registered by a broker
// carry that broker's id.
type User struct {
	ID           string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email        *string           `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	Password     string            `gorm:"size:255" json:"-"`
	Role         Role              `gorm:"size:20;not null;index" json:"role"`
	FirmName     string            `gorm:"size:255;not null" json:"firm_name"`
	Phone        string            `gorm:"size:20;not null;index" json:"phone"`
	Address      string            `gorm:"type:text" json:"address"`
	PanNumber    string            `gorm:"size:20" json:"pan_number,omitempty"`
	AadharNumber string            `gorm:"size:20" json:"aadhar_number,omitempty"`
	UpiID        string            `gorm:"size:100" json:"upi_id,omitempty"`
	BankInfo     datatypes.JSONMap `json:"bank_info,omitempty"`
	BrokerID     *string           `gorm:"type:varchar(36);index" json:"broker_id,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// BeforeCreate assigns the id and stores the phone as its last ten digits
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Phone = notify.LastTen(u.Phone)
	return nil
}

// Contact is the public projection of a user shown on trades, orders and logs
type Contact struct {
	ID       string `json:"id"`
	FirmName string `json:"firm_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address,omitempty"`
}

// ContactOf returns nil for a nil user
func ContactOf(u *User) *Contact {
	if u == nil {
		return nil
	}
	return &Contact{ID: u.ID, FirmName: u.FirmName, Phone: u.Phone, Address: u.Address}
}
