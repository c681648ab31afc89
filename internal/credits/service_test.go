package credits

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/selfydev/selfy-backend/pkg/db/models"
	pkgerrors "github.com/selfydev/selfy-backend/pkg/errors"
)

type fakeRepository struct {
	consumeFn func(ctx context.Context, packageID uuid.UUID) (bool, error)
	restoreFn func(ctx context.Context, packageID uuid.UUID) (bool, error)
	findFn    func(ctx context.Context, packageID uuid.UUID) (*models.CorporatePackage, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) FindPackage(ctx context.Context, packageID uuid.UUID) (*models.CorporatePackage, error) {
	if f.findFn != nil {
		return f.findFn(ctx, packageID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListActiveByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.CorporatePackage, error) {
	return nil, nil
}

func (f *fakeRepository) ConsumeCredit(ctx context.Context, packageID uuid.UUID) (bool, error) {
	if f.consumeFn != nil {
		return f.consumeFn(ctx, packageID)
	}
	return false, nil
}

func (f *fakeRepository) RestoreCredit(ctx context.Context, packageID uuid.UUID) (bool, error) {
	if f.restoreFn != nil {
		return f.restoreFn(ctx, packageID)
	}
	return false, nil
}

func (f *fakeRepository) FindExpired(ctx context.Context, now time.Time) ([]models.CorporatePackage, error) {
	return nil, nil
}

func (f *fakeRepository) DeactivateTx(tx *gorm.DB, packageID uuid.UUID) (bool, error) {
	return false, nil
}

func TestTryConsumeReturnsRemaining(t *testing.T) {
	pkgID := uuid.New()
	repo := &fakeRepository{
		consumeFn: func(ctx context.Context, id uuid.UUID) (bool, error) {
			if id != pkgID {
				t.Fatalf("unexpected package id %s", id)
			}
			return true, nil
		},
		findFn: func(ctx context.Context, id uuid.UUID) (*models.CorporatePackage, error) {
			return &models.CorporatePackage{ID: pkgID, TotalCredits: 10, UsedCredits: 4}, nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	remaining, err := svc.TryConsume(context.Background(), nil, pkgID)
	if err != nil {
		t.Fatalf("TryConsume error: %v", err)
	}
	if remaining != 6 {
		t.Fatalf("expected 6 remaining, got %d", remaining)
	}
}

func TestTryConsumeExhausted(t *testing.T) {
	pkgID := uuid.New()
	repo := &fakeRepository{
		consumeFn: func(ctx context.Context, id uuid.UUID) (bool, error) {
			return false, nil
		},
		findFn: func(ctx context.Context, id uuid.UUID) (*models.CorporatePackage, error) {
			return &models.CorporatePackage{ID: pkgID, TotalCredits: 5, UsedCredits: 5}, nil
		},
	}
	svc, _ := NewService(repo)

	_, err := svc.TryConsume(context.Background(), nil, pkgID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeCreditExhausted) {
		t.Fatalf("expected CodeCreditExhausted, got %v", err)
	}
}

func TestTryConsumeMissingPackage(t *testing.T) {
	repo := &fakeRepository{
		consumeFn: func(ctx context.Context, id uuid.UUID) (bool, error) {
			return false, nil
		},
	}
	svc, _ := NewService(repo)

	_, err := svc.TryConsume(context.Background(), nil, uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected CodeNotFound, got %v", err)
	}
}

func TestTryConsumeValidatesID(t *testing.T) {
	svc, _ := NewService(&fakeRepository{})
	if _, err := svc.TryConsume(context.Background(), nil, uuid.Nil); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected CodeValidation, got %v", err)
	}
}

func TestRestore(t *testing.T) {
	restored := false
	repo := &fakeRepository{
		restoreFn: func(ctx context.Context, id uuid.UUID) (bool, error) {
			restored = true
			return true, nil
		},
	}
	svc, _ := NewService(repo)

	if err := svc.Restore(context.Background(), nil, uuid.New()); err != nil {
		t.Fatalf("Restore error: %v", err)
	}
	if !restored {
		t.Fatal("expected repo restore to be called")
	}
}

func TestRestoreNothingConsumed(t *testing.T) {
	repo := &fakeRepository{
		restoreFn: func(ctx context.Context, id uuid.UUID) (bool, error) {
			return false, nil
		},
	}
	svc, _ := NewService(repo)

	err := svc.Restore(context.Background(), nil, uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidOperation) {
		t.Fatalf("expected CodeInvalidOperation, got %v", err)
	}
}
