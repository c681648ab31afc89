package timeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/selfydev/selfy-backend/pkg/db/models"
	"github.com/selfydev/selfy-backend/pkg/enums"
)

// Service defines operations that record booking audit entries.
type Service interface {
	Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.TimelineEntry, error)
	History(ctx context.Context, bookingID uuid.UUID) ([]models.TimelineEntry, error)
}

type service struct {
	repo Repository
}

// AppendInput captures the immutable data an audit entry requires.
type AppendInput struct {
	BookingID uuid.UUID
	ActorID   uuid.UUID
	Action    enums.TimelineAction
	Details   string
}

// NewService wires a timeline service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("timeline repository required")
	}
	return &service{repo: repo}, nil
}

// Append inserts an audit entry. When tx is non-nil the insert joins the
// caller's transaction so the entry commits with the transition it records.
func (s *service) Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.TimelineEntry, error) {
	if input.BookingID == uuid.Nil {
		return nil, fmt.Errorf("booking id is required")
	}
	if input.ActorID == uuid.Nil {
		return nil, fmt.Errorf("actor id is required")
	}
	if !input.Action.IsValid() {
		return nil, fmt.Errorf("invalid timeline action %q", input.Action)
	}

	entry := &models.TimelineEntry{
		BookingID: input.BookingID,
		ActorID:   input.ActorID,
		Action:    input.Action,
		Details:   input.Details,
	}

	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	if err := repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) History(ctx context.Context, bookingID uuid.UUID) ([]models.TimelineEntry, error) {
	if bookingID == uuid.Nil {
		return nil, fmt.Errorf("booking id is required")
	}
	return s.repo.ListByBookingID(ctx, bookingID)
}
