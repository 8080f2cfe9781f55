package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FuelSurcharge overrides the fuel percentage of one vendor from
// EffectiveFrom until EffectiveTo (open-ended when nil).
type FuelSurcharge struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VendorCode    string    `gorm:"size:20;index;not null" json:"vendorCode"`
	Percentage    float64   `gorm:"type:numeric(5,2);not null" json:"percentage"`
	EffectiveFrom JSONTime  `gorm:"not null" json:"effectiveFrom"`
	EffectiveTo   *JSONTime `json:"effectiveTo,omitempty"`
	IsActive      bool      `gorm:"default:true" json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (f *FuelSurcharge) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return
}

// ActiveAt reports whether the surcharge applies at t.
func (f *FuelSurcharge) ActiveAt(t time.Time) bool {
	if !f.IsActive || t.Before(time.Time(f.EffectiveFrom)) {
		return false
	}
	return f.EffectiveTo == nil || t.Before(time.Time(*f.EffectiveTo))
}
