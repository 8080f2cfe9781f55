package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OTPCode is a one-time login code. Only the bcrypt hash is stored.
type OTPCode struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Phone     string    `gorm:"size:15;index;not null"`
	CodeHash  string    `gorm:"size:255;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	Attempts  int       `gorm:"default:0"`
	Consumed  bool      `gorm:"default:false"`
	CreatedAt time.Time
}

func (o *OTPCode) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return
}

// Usable reports whether the code can still be tried at now.
func (o *OTPCode) Usable(now time.Time, maxAttempts int) bool {
	return !o.Consumed && now.Before(o.ExpiresAt) && o.Attempts < maxAttempts
}
