package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/selfydev/selfy-backend/pkg/enums"
)

// TimelineEntry is one row of a booking's append-only audit trail. Entries
// are only ever inserted; there is no update or delete path.
type TimelineEntry struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID uuid.UUID            `gorm:"column:booking_id;type:uuid;not null;index"`
	ActorID   uuid.UUID            `gorm:"column:actor_id;type:uuid;not null"`
	Action    enums.TimelineAction `gorm:"column:action;type:timeline_action;not null"`
	Details   string               `gorm:"column:details;not null;default:''"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
}
