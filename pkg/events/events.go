// Package events publishes booking lifecycle events to Kafka and delivers
// customer notifications (OTP codes, booking confirmations) over RabbitMQ.
package events

import "time"

const (
	TypeBookingCreated       = "booking.created"
	TypeBookingStatusChanged = "booking.status_changed"
)

// BookingEvent is the message published for every booking state change.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"bookingId"`
	BookingNo  string    `json:"bookingNo"`
	UserID     string    `json:"userId"`
	Flow       string    `json:"flow"`
	Status     string    `json:"status"`
	AWB        string    `json:"awb,omitempty"`
	VendorCode string    `json:"vendorCode,omitempty"`
	Amount     float64   `json:"amount"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Notification is a message for one recipient. Channel is "sms" or "email".
type Notification struct {
	Channel   string            `json:"channel"`
	To        string            `json:"to"`
	Template  string            `json:"template"`
	Data      map[string]string `json:"data"`
	CreatedAt time.Time         `json:"createdAt"`
}

const (
	TemplateOTP              = "otp"
	TemplateBookingConfirmed = "booking_confirmed"
)
