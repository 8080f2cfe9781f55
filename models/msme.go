package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MSMEPending  = "PENDING"
	MSMEApproved = "APPROVED"
	MSMERejected = "REJECTED"
)

// MSMERegistration is a customer's Udyam registration submitted for review.
type MSMERegistration struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;index;not null" json:"userId"`
	User            *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	EnterpriseName  string     `gorm:"size:200;not null" json:"enterpriseName"`
	UdyamNumber     string     `gorm:"size:32;uniqueIndex;not null" json:"udyamNumber"`
	Category        string     `gorm:"size:10;not null" json:"category"`
	PAN             string     `gorm:"size:10" json:"pan,omitempty"`
	CertificateURL  string     `gorm:"size:500" json:"certificateUrl"`
	Status          string     `gorm:"size:10;index;not null;default:'PENDING'" json:"status"`
	RejectionReason string     `gorm:"size:500" json:"rejectionReason,omitempty"`
	ReviewedBy      *uuid.UUID `gorm:"type:uuid" json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (m *MSMERegistration) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = MSMEPending
	}
	return
}
