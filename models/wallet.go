package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	WalletCredit = "CREDIT"
	WalletDebit  = "DEBIT"
)

// WalletTransaction is one movement of a user's wallet balance.
type WalletTransaction struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"userId"`
	Type         string     `gorm:"size:6;not null" json:"type"`
	Amount       float64    `gorm:"type:numeric(12,2);not null" json:"amount"`
	BalanceAfter float64    `gorm:"type:numeric(12,2);not null" json:"balanceAfter"`
	BookingID    *uuid.UUID `gorm:"type:uuid;index" json:"bookingId,omitempty"`
	Reference    string     `gorm:"size:64" json:"reference,omitempty"`
	Note         string     `gorm:"size:255" json:"note,omitempty"`
	CreatedBy    *uuid.UUID `gorm:"type:uuid" json:"createdBy,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

func (w *WalletTransaction) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}
