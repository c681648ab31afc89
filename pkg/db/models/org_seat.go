package models

import (
	"time"

	"github.com/google/uuid"
)

// OrgSeat links a user to an organization. A user holds at most one seat
// per organization, enforced by a unique index on (organization_id, user_id).
type OrgSeat struct {
	ID             uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID     `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:idx_org_seats_org_user"`
	UserID         uuid.UUID     `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_org_seats_org_user"`
	IsActive       bool          `gorm:"column:is_active;not null;default:true"`
	AssignedBy     uuid.UUID     `gorm:"column:assigned_by;type:uuid;not null"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID"`
	User           *User         `gorm:"foreignKey:UserID"`
	CreatedAt      time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
