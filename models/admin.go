package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	AdminRoleSuper = "super_admin"
	AdminRoleAdmin = "admin"
)

// Admin is a back-office account. Permissions are "resource:action" strings
// and may use wildcards ("bookings:*", "*").
type Admin struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string         `gorm:"size:100;not null" json:"name"`
	Email        string         `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"`
	Role         string         `gorm:"size:20;not null;default:'admin'" json:"role"`
	Permissions  pq.StringArray `gorm:"type:text[]" json:"permissions"`
	IsActive     bool           `gorm:"default:true" json:"isActive"`
	LastLoginAt  *time.Time     `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (a *Admin) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

// EffectivePermissions is what goes into the admin's token.
func (a *Admin) EffectivePermissions() []string {
	if a.Role == AdminRoleSuper {
		return []string{"*"}
	}
	return append([]string(nil), a.Permissions...)
}

// Admin permissions checked by the admin routes.
const (
	PermUsersRead          = "users:read"
	PermUsersUpdate        = "users:update"
	PermMSMERead           = "msme:read"
	PermMSMEApprove        = "msme:approve"
	PermFuelSurchargeRead  = "fuel_surcharges:read"
	PermFuelSurchargeWrite = "fuel_surcharges:write"
	PermBookingsRead       = "bookings:read"
	PermBookingsUpdate     = "bookings:update"
	PermBookingsExport     = "bookings:export"
	PermWalletCredit       = "wallet:credit"
	PermAdminsManage       = "admins:manage"
)
