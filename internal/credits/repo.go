package credits

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/selfydev/selfy-backend/pkg/db/models"
)

// Repository manages persistence for corporate packages.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindPackage(ctx context.Context, packageID uuid.UUID) (*models.CorporatePackage, error)
	ListActiveByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.CorporatePackage, error)
	ConsumeCredit(ctx context.Context, packageID uuid.UUID) (bool, error)
	RestoreCredit(ctx context.Context, packageID uuid.UUID) (bool, error)
	FindExpired(ctx context.Context, now time.Time) ([]models.CorporatePackage, error)
	DeactivateTx(tx *gorm.DB, packageID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a credits repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindPackage(ctx context.Context, packageID uuid.UUID) (*models.CorporatePackage, error) {
	var pkg models.CorporatePackage
	if err := r.db.WithContext(ctx).
		Where("id = ?", packageID).
		First(&pkg).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *repository) ListActiveByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.CorporatePackage, error) {
	var pkgs []models.CorporatePackage
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND active = ?", orgID, true).
		Order("created_at ASC").
		Find(&pkgs).Error; err != nil {
		return nil, err
	}
	return pkgs, nil
}

// ConsumeCredit increments used_credits only while credits remain and the
// package is live. The guard in the WHERE clause makes the increment safe
// under concurrent consumers; a false return means no credit was taken.
func (r *repository) ConsumeCredit(ctx context.Context, packageID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CorporatePackage{}).
		Where("id = ? AND active = ? AND used_credits < total_credits", packageID, true).
		Where("expires_at IS NULL OR expires_at > ?", time.Now().UTC()).
		Update("used_credits", gorm.Expr("used_credits + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RestoreCredit returns one previously consumed credit.
func (r *repository) RestoreCredit(ctx context.Context, packageID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CorporatePackage{}).
		Where("id = ? AND used_credits > 0", packageID).
		Update("used_credits", gorm.Expr("used_credits - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindExpired returns active packages whose expiry has passed.
func (r *repository) FindExpired(ctx context.Context, now time.Time) ([]models.CorporatePackage, error) {
	var expired []models.CorporatePackage
	err := r.db.WithContext(ctx).
		Where("active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, now).
		Order("expires_at ASC").
		Find(&expired).Error
	if err != nil {
		return nil, err
	}
	return expired, nil
}

// DeactivateTx flips active off for a single package. The active guard makes
// the update idempotent when two worker instances race on the same row.
func (r *repository) DeactivateTx(tx *gorm.DB, packageID uuid.UUID) (bool, error) {
	result := tx.
		Model(&models.CorporatePackage{}).
		Where("id = ? AND active = ?", packageID, true).
		Update("active", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
