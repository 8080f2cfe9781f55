// models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a customer account. WalletBalance is kept in rupees and only ever
// changed together with a WalletTransaction row.
type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string    `gorm:"size:100;not null" json:"name"`
	Email         string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone         string    `gorm:"size:15;uniqueIndex;not null" json:"phone"`
	PasswordHash  string    `gorm:"size:255;not null" json:"-"`
	CompanyName   string    `gorm:"size:150" json:"companyName,omitempty"`
	GSTIN         string    `gorm:"size:15" json:"gstin,omitempty"`
	PhoneVerified bool      `gorm:"default:false" json:"phoneVerified"`
	WalletBalance float64   `gorm:"type:numeric(12,2);default:0;not null" json:"walletBalance"`
	IsActive      bool      `gorm:"default:true" json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
