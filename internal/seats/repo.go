package seats

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/selfydev/selfy-backend/pkg/db/models"
)

// Repository manages persistence for organization seats.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindSeat(ctx context.Context, orgID, userID uuid.UUID) (*models.OrgSeat, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.OrgSeat, error)
	CountActive(ctx context.Context, orgID uuid.UUID) (int64, error)
	InsertWithinCap(ctx context.Context, seat *models.OrgSeat) (bool, error)
	Deactivate(ctx context.Context, orgID, userID uuid.UUID) (bool, error)
	Reactivate(ctx context.Context, orgID, userID uuid.UUID) (bool, error)
	FindOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a seats repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindSeat(ctx context.Context, orgID, userID uuid.UUID) (*models.OrgSeat, error) {
	var seat models.OrgSeat
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&seat).Error; err != nil {
		return nil, err
	}
	return &seat, nil
}

func (r *repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.OrgSeat, error) {
	var seats []models.OrgSeat
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&seats).Error; err != nil {
		return nil, err
	}
	return seats, nil
}

func (r *repository) CountActive(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrgSeat{}).
		Where("organization_id = ? AND is_active = ?", orgID, true).
		Count(&count).Error
	return count, err
}

// InsertWithinCap inserts a seat only while the active seat count is below
// the organization's cap. The guard runs in the same statement so two
// concurrent assignments cannot both land on the last slot. A false return
// means the cap was full.
func (r *repository) InsertWithinCap(ctx context.Context, seat *models.OrgSeat) (bool, error) {
	if seat.ID == uuid.Nil {
		seat.ID = uuid.New()
	}
	result := r.db.WithContext(ctx).Exec(`
		INSERT INTO org_seats (id, organization_id, user_id, is_active, assigned_by)
		SELECT ?, ?, ?, true, ?
		WHERE (
			SELECT count(*) FROM org_seats
			WHERE organization_id = ? AND is_active = true
		) < (
			SELECT seat_cap FROM organizations WHERE id = ?
		)`,
		seat.ID, seat.OrganizationID, seat.UserID, seat.AssignedBy,
		seat.OrganizationID, seat.OrganizationID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) Deactivate(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OrgSeat{}).
		Where("organization_id = ? AND user_id = ? AND is_active = ?", orgID, userID, true).
		Update("is_active", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Reactivate flips an inactive seat back on, guarded by the same cap check
// as InsertWithinCap.
func (r *repository) Reactivate(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE org_seats SET is_active = true, updated_at = ?
		WHERE organization_id = ? AND user_id = ? AND is_active = false
		AND (
			SELECT count(*) FROM org_seats
			WHERE organization_id = ? AND is_active = true
		) < (
			SELECT seat_cap FROM organizations WHERE id = ?
		)`,
		time.Now().UTC(), orgID, userID, orgID, orgID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) FindOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).
		Where("id = ?", orgID).
		First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}
