package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User roles
const (
	RoleAdmin     = "admin"
	RoleAffiliate = "affiliate"
)

// User statuses
const (
	UserStatusPending   = "pending"
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
	UserStatusInactive  = "inactive"
)

// User represents an account in the system. Affiliates own links and earn
// commissions; admins manage approvals, payouts and fraud review.
type User struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	Name           string           `gorm:"size:255;not null" json:"name"`
	Email          string           `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password       string           `gorm:"size:255" json:"-"`
	Role           string           `gorm:"size:20;default:affiliate" json:"role"`
	Avatar         string           `gorm:"size:500" json:"avatar,omitempty"`
	CommissionRate *decimal.Decimal `gorm:"type:decimal(5,2)" json:"commission_rate,omitempty"`
	Status         string           `gorm:"size:20;default:pending;index" json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
