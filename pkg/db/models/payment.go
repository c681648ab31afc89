package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/selfydev/selfy-backend/pkg/enums"
)

// Payment records a charge taken against a booking. Amounts are stored in
// minor units (cents); ExternalRef is the processor's payment id.
type Payment struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID   uuid.UUID           `gorm:"column:booking_id;type:uuid;not null;index"`
	AmountCents int64               `gorm:"column:amount_cents;not null"`
	Currency    enums.Currency      `gorm:"column:currency;type:currency;not null;default:'USD'"`
	Status      enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	DepositOnly bool                `gorm:"column:deposit_only;not null;default:false"`
	ExternalRef string              `gorm:"column:external_ref;not null"`
	ProcessedBy uuid.UUID           `gorm:"column:processed_by;type:uuid;not null"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
