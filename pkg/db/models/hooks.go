package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Postgres fills ids from gen_random_uuid(). The SQLite dev database has no
// equivalent default, so ids are assigned client-side when missing.

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	// booking_number comes from a sequence on Postgres. SQLite has no
	// sequences, so dev databases take a time-derived number instead.
	if b.BookingNumber == 0 && tx.Dialector.Name() == "sqlite" {
		b.BookingNumber = time.Now().UTC().UnixMicro() % 1_000_000_000
	}
	return nil
}

func (e *TimelineEntry) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}

func (e *OutboxEvent) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

func (d *OutboxDLQ) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}

func (s *OrgSeat) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

func (p *CorporatePackage) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (o *Organization) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (a *AddOn) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
