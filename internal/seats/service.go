package seats

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/selfydev/selfy-backend/internal/roles"
	dbpkg "github.com/selfydev/selfy-backend/pkg/db"
	"github.com/selfydev/selfy-backend/pkg/db/models"
	"github.com/selfydev/selfy-backend/pkg/enums"
	pkgerrors "github.com/selfydev/selfy-backend/pkg/errors"
	"github.com/selfydev/selfy-backend/pkg/outbox"
	"github.com/selfydev/selfy-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Actor identifies the caller of a seat operation.
type Actor struct {
	UserID         uuid.UUID
	Role           enums.UserRole
	OrganizationID *uuid.UUID
}

// AssignInput carries the data needed to grant a seat.
type AssignInput struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Actor          Actor
}

// RemoveInput carries the data needed to revoke a seat.
type RemoveInput struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Actor          Actor
}

// Service manages organization seat membership under the capacity cap.
type Service interface {
	Assign(ctx context.Context, input AssignInput) (*models.OrgSeat, error)
	Remove(ctx context.Context, input RemoveInput) error
	Roster(ctx context.Context, orgID uuid.UUID, actor Actor) ([]models.OrgSeat, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds a seats service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("seats repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

// Seat mutations are a platform admin operation. Corporate admins see
// their roster but cannot grow or shrink it themselves.
func (s *service) authorize(actor Actor) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !roles.AtLeast(actor.Role, enums.UserRoleAdmin) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "seat management requires admin")
	}
	return nil
}

func (s *service) Assign(ctx context.Context, input AssignInput) (*models.OrgSeat, error) {
	if input.OrganizationID == uuid.Nil || input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id and user id required")
	}
	if err := s.authorize(input.Actor); err != nil {
		return nil, err
	}

	seat := &models.OrgSeat{
		OrganizationID: input.OrganizationID,
		UserID:         input.UserID,
		AssignedBy:     input.Actor.UserID,
		IsActive:       true,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindOrganization(ctx, input.OrganizationID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
		}

		existing, err := repo.FindSeat(ctx, input.OrganizationID, input.UserID)
		switch {
		case err == nil && existing.IsActive:
			return pkgerrors.New(pkgerrors.CodeDuplicate, "user already holds a seat")
		case err == nil:
			// Inactive seat exists; reactivate it inside the cap guard.
			ok, reErr := repo.Reactivate(ctx, input.OrganizationID, input.UserID)
			if reErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, reErr, "reactivate seat")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeCapacityExceeded, "organization seat cap reached")
			}
			seat = existing
			seat.IsActive = true
		case errors.Is(err, gorm.ErrRecordNotFound):
			ok, insErr := repo.InsertWithinCap(ctx, seat)
			if insErr != nil {
				if dbpkg.IsUniqueViolation(insErr, "idx_org_seats_org_user") {
					return pkgerrors.New(pkgerrors.CodeDuplicate, "user already holds a seat")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, insErr, "insert seat")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeCapacityExceeded, "organization seat cap reached")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seat")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSeatAssigned,
			AggregateType: enums.AggregateOrgSeat,
			AggregateID:   seat.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: payloads.SeatEvent{
				OrganizationID: input.OrganizationID,
				UserID:         input.UserID,
				SeatID:         seat.ID,
				Active:         true,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return seat, nil
}

func (s *service) Remove(ctx context.Context, input RemoveInput) error {
	if input.OrganizationID == uuid.Nil || input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "organization id and user id required")
	}
	if err := s.authorize(input.Actor); err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		seat, err := repo.FindSeat(ctx, input.OrganizationID, input.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "seat not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seat")
		}

		ok, err := repo.Deactivate(ctx, input.OrganizationID, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate seat")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInvalidOperation, "seat already inactive")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSeatRemoved,
			AggregateType: enums.AggregateOrgSeat,
			AggregateID:   seat.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: payloads.SeatEvent{
				OrganizationID: input.OrganizationID,
				UserID:         input.UserID,
				SeatID:         seat.ID,
				Active:         false,
			},
		})
	})
}

func (s *service) Roster(ctx context.Context, orgID uuid.UUID, actor Actor) ([]models.OrgSeat, error) {
	if orgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id required")
	}
	if err := s.authorizeRead(actor, orgID); err != nil {
		return nil, err
	}
	return s.repo.ListByOrganization(ctx, orgID)
}

// Roster reads are open to any member of the organization plus staff.
func (s *service) authorizeRead(actor Actor, orgID uuid.UUID) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if roles.IsStaff(actor.Role) {
		return nil
	}
	if actor.OrganizationID == nil || *actor.OrganizationID != orgID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "roster limited to own organization")
	}
	return nil
}

func buildActor(actor Actor) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID:         actor.UserID,
		OrganizationID: actor.OrganizationID,
		Role:           string(actor.Role),
	}
}
