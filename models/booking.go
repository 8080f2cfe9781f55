package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	BookingCreated   = "CREATED"
	BookingBooked    = "BOOKED"
	BookingPickedUp  = "PICKED_UP"
	BookingInTransit = "IN_TRANSIT"
	BookingDelivered = "DELIVERED"
	BookingCancelled = "CANCELLED"
	BookingFailed    = "FAILED"
)

// BookingStatuses lists every status an admin may set.
var BookingStatuses = []string{
	BookingCreated, BookingBooked, BookingPickedUp, BookingInTransit,
	BookingDelivered, BookingCancelled, BookingFailed,
}

// Booking is a submitted shipment. Payload holds the full booking payload as
// built at submission; the flat columns exist for listing and filtering.
type Booking struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BookingNo        string         `gorm:"size:32;uniqueIndex;not null" json:"bookingNo"`
	UserID           uuid.UUID      `gorm:"type:uuid;index;not null" json:"userId"`
	Flow             string         `gorm:"size:10;index;not null" json:"flow"`
	ShipmentType     string         `gorm:"size:15;not null" json:"shipmentType"`
	Status           string         `gorm:"size:15;index;not null" json:"status"`
	AWB              string         `gorm:"size:40;index" json:"awb,omitempty"`
	VendorCode       string         `gorm:"size:20" json:"vendorCode,omitempty"`
	VendorName       string         `gorm:"size:60" json:"vendorName,omitempty"`
	OriginPincode    string         `gorm:"size:10" json:"originPincode"`
	OriginCity       string         `gorm:"size:80" json:"originCity"`
	DestPincode      string         `gorm:"size:16" json:"destPincode"`
	DestCity         string         `gorm:"size:80" json:"destCity"`
	DestCountry      string         `gorm:"size:60" json:"destCountry"`
	SenderName       string         `gorm:"size:100" json:"senderName"`
	ReceiverName     string         `gorm:"size:100" json:"receiverName"`
	Pieces           int            `json:"pieces"`
	ActualWeight     float64        `gorm:"type:numeric(10,3)" json:"actualWeight"`
	VolumetricWeight float64        `gorm:"type:numeric(10,3)" json:"volumetricWeight"`
	ChargeableWeight float64        `gorm:"type:numeric(10,3)" json:"chargeableWeight"`
	Amount           float64        `gorm:"type:numeric(12,2)" json:"amount"`
	PaymentMode      string         `gorm:"size:10" json:"paymentMode"`
	IsCOD            bool           `json:"isCOD"`
	CODAmount        float64        `gorm:"type:numeric(12,2)" json:"codAmount"`
	Payload          datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`
	CourierResponse  datatypes.JSON `gorm:"type:jsonb" json:"courierResponse,omitempty"`
	DocumentURLs     pq.StringArray `gorm:"type:text[]" json:"documentUrls"`
	Remarks          string         `gorm:"size:500" json:"remarks,omitempty"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = BookingCreated
	}
	return
}
