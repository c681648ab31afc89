package models

import (
	"time"

	"github.com/google/uuid"
)

// CorporatePackage is a prepaid credit bundle owned by an organization.
// used_credits never exceeds total_credits; the check constraint lives in
// the migration and the consume path enforces it again with a guarded
// UPDATE, so a violation here always means a bug.
type CorporatePackage struct {
	ID                       uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID           uuid.UUID     `gorm:"column:organization_id;type:uuid;not null;index"`
	TotalCredits             int           `gorm:"column:total_credits;not null"`
	UsedCredits              int           `gorm:"column:used_credits;not null;default:0"`
	PermanentDiscountPercent int           `gorm:"column:permanent_discount_percent;not null;default:0"`
	ExpiresAt                *time.Time    `gorm:"column:expires_at"`
	Active                   bool          `gorm:"column:active;not null;default:true"`
	Organization             *Organization `gorm:"foreignKey:OrganizationID"`
	CreatedAt                time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

// RemainingCredits reports credits still available on the package.
func (p *CorporatePackage) RemainingCredits() int {
	return p.TotalCredits - p.UsedCredits
}
