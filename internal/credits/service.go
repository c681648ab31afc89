package credits

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/selfydev/selfy-backend/pkg/db/models"
	pkgerrors "github.com/selfydev/selfy-backend/pkg/errors"
)

// Service exposes the credit ledger operations used by booking approval.
type Service interface {
	// TryConsume deducts exactly one credit from the package inside the
	// caller's transaction. It returns the remaining balance after the
	// deduction. CodeCreditExhausted means no credit was available.
	TryConsume(ctx context.Context, tx *gorm.DB, packageID uuid.UUID) (int, error)
	// Restore returns one credit, used when a consuming transition is
	// reversed administratively.
	Restore(ctx context.Context, tx *gorm.DB, packageID uuid.UUID) error
	Balance(ctx context.Context, packageID uuid.UUID) (*models.CorporatePackage, error)
}

type service struct {
	repo Repository
}

// NewService wires a credits service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("credits repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) TryConsume(ctx context.Context, tx *gorm.DB, packageID uuid.UUID) (int, error) {
	if packageID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "package id required")
	}
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}

	consumed, err := repo.ConsumeCredit(ctx, packageID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume credit")
	}
	if !consumed {
		// Distinguish a missing package from an exhausted or expired one.
		pkg, findErr := repo.FindPackage(ctx, packageID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return 0, pkgerrors.New(pkgerrors.CodeNotFound, "corporate package not found")
			}
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load corporate package")
		}
		return 0, pkgerrors.New(pkgerrors.CodeCreditExhausted,
			fmt.Sprintf("package %s has no usable credits", pkg.ID))
	}

	pkg, err := repo.FindPackage(ctx, packageID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload corporate package")
	}
	return pkg.RemainingCredits(), nil
}

func (s *service) Restore(ctx context.Context, tx *gorm.DB, packageID uuid.UUID) error {
	if packageID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "package id required")
	}
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	restored, err := repo.RestoreCredit(ctx, packageID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore credit")
	}
	if !restored {
		return pkgerrors.New(pkgerrors.CodeInvalidOperation, "no consumed credits to restore")
	}
	return nil
}

func (s *service) Balance(ctx context.Context, packageID uuid.UUID) (*models.CorporatePackage, error) {
	if packageID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "package id required")
	}
	pkg, err := s.repo.FindPackage(ctx, packageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "corporate package not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load corporate package")
	}
	return pkg, nil
}
