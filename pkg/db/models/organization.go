package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is a corporate account. SeatCap limits the number of active
// seats in org_seats.
type Organization struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	SeatCap      int       `gorm:"column:seat_cap;not null"`
	BillingEmail string    `gorm:"column:billing_email;not null"`
	Active       bool      `gorm:"column:active;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
