// Package payloads holds the typed event bodies carried inside outbox
// envelopes. Downstream consumers decode into these structs, so field
// changes need a version bump on the emitting side.
package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/selfydev/selfy-backend/pkg/enums"
)

// BookingStatusEvent is emitted for every booking lifecycle transition.
type BookingStatusEvent struct {
	BookingID     uuid.UUID           `json:"booking_id"`
	BookingNumber int64               `json:"booking_number"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	Status        enums.BookingStatus `json:"status"`
	ScheduledAt   time.Time           `json:"scheduled_at"`
	IsCorporate   bool                `json:"is_corporate"`
	Reason        string              `json:"reason,omitempty"`
}

// BookingInvoicedEvent extends the status payload with billing fields read
// by the billing export.
type BookingInvoicedEvent struct {
	BookingStatusEvent
	InvoiceNumber string    `json:"invoice_number"`
	InvoiceSentAt time.Time `json:"invoice_sent_at"`
}

// BookingClonedEvent records the relationship between source and clone.
type BookingClonedEvent struct {
	SourceBookingID uuid.UUID `json:"source_booking_id"`
	NewBookingID    uuid.UUID `json:"new_booking_id"`
	ScheduledAt     time.Time `json:"scheduled_at"`
}

// PaymentCreatedEvent is emitted when a charge is recorded against a booking.
type PaymentCreatedEvent struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	AmountCents int64     `json:"amount_cents"`
	DepositOnly bool      `json:"deposit_only"`
	ExternalRef string    `json:"external_ref"`
}

// SeatEvent is emitted when an organization seat is assigned or removed.
type SeatEvent struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	UserID         uuid.UUID `json:"user_id"`
	SeatID         uuid.UUID `json:"seat_id"`
	Active         bool      `json:"active"`
}

// PackageExpiredEvent is emitted by the expiry sweep when a corporate
// package passes its expiration date.
type PackageExpiredEvent struct {
	PackageID      uuid.UUID `json:"package_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	ExpiredAt      time.Time `json:"expired_at"`
	UnusedCredits  int       `json:"unused_credits"`
	DeactivatedBy  string    `json:"deactivated_by"`
}
