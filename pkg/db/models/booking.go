package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/selfydev/selfy-backend/pkg/enums"
)

// Booking is the central scheduled-service entity. It is never physically
// deleted; cancellation is a status, not a removal.
type Booking struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingNumber  int64               `gorm:"column:booking_number;not null;default:nextval('booking_number_seq');uniqueIndex"`
	CustomerID     uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	ProductID      uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	OrganizationID *uuid.UUID          `gorm:"column:organization_id;type:uuid"`
	PackageID      *uuid.UUID          `gorm:"column:package_id;type:uuid"`
	Status         enums.BookingStatus `gorm:"column:status;type:booking_status;not null;default:'pending'"`
	ScheduledAt    time.Time           `gorm:"column:scheduled_at;not null"`
	CompletedAt    *time.Time          `gorm:"column:completed_at"`
	IsCorporate    bool                `gorm:"column:is_corporate;not null;default:false"`
	QuoteRequested bool                `gorm:"column:quote_requested;not null;default:false"`
	InvoiceNumber  *string             `gorm:"column:invoice_number;uniqueIndex"`
	InvoiceSentAt  *time.Time          `gorm:"column:invoice_sent_at"`
	Notes          *string             `gorm:"column:notes"`
	Customer       *User               `gorm:"foreignKey:CustomerID"`
	Product        *Product            `gorm:"foreignKey:ProductID"`
	Package        *CorporatePackage   `gorm:"foreignKey:PackageID"`
	AddOns         []AddOn             `gorm:"many2many:booking_add_ons"`
	Payments       []Payment           `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
	Timeline       []TimelineEntry     `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
