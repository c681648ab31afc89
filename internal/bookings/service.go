package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/selfydev/selfy-backend/internal/credits"
	"github.com/selfydev/selfy-backend/internal/roles"
	"github.com/selfydev/selfy-backend/internal/timeline"
	dbpkg "github.com/selfydev/selfy-backend/pkg/db"
	"github.com/selfydev/selfy-backend/pkg/db/models"
	"github.com/selfydev/selfy-backend/pkg/enums"
	pkgerrors "github.com/selfydev/selfy-backend/pkg/errors"
	"github.com/selfydev/selfy-backend/pkg/logger"
	"github.com/selfydev/selfy-backend/pkg/metrics"
	"github.com/selfydev/selfy-backend/pkg/outbox"
	"github.com/selfydev/selfy-backend/pkg/outbox/payloads"
	"github.com/selfydev/selfy-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type seatChecker interface {
	FindSeat(ctx context.Context, orgID, userID uuid.UUID) (*models.OrgSeat, error)
}

// Service drives the booking lifecycle state machine. Customer
// notifications are not produced here; the notifications consumer derives
// them from the emitted events after commit.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Booking, error)
	Approve(ctx context.Context, input TransitionInput) (*models.Booking, error)
	Reject(ctx context.Context, input TransitionInput) (*models.Booking, error)
	Complete(ctx context.Context, input TransitionInput) (*models.Booking, error)
	MarkNoShow(ctx context.Context, input TransitionInput) (*models.Booking, error)
	Invoice(ctx context.Context, input TransitionInput) (*models.Booking, error)
	Clone(ctx context.Context, input CloneInput) (*models.Booking, error)
	Get(ctx context.Context, id uuid.UUID, actor Actor) (*models.Booking, error)
	History(ctx context.Context, id uuid.UUID, actor Actor) ([]models.TimelineEntry, error)
	List(ctx context.Context, actor Actor, params pagination.Params, filters ListFilters) (*BookingList, error)
	// FindBookingTx loads a booking inside the caller's transaction. Used by
	// services that need to read booking state while holding their own tx.
	FindBookingTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Booking, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	credits  credits.Service
	timeline timeline.Service
	seats    seatChecker
	metrics  *metrics.BookingMetrics
	logg     *logger.Logger
}

// NewService wires the booking lifecycle service. Metrics and the logger
// are optional; everything else is required.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, creditsSvc credits.Service, timelineSvc timeline.Service, seats seatChecker, bookingMetrics *metrics.BookingMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if creditsSvc == nil {
		return nil, fmt.Errorf("credits service required")
	}
	if timelineSvc == nil {
		return nil, fmt.Errorf("timeline service required")
	}
	if seats == nil {
		return nil, fmt.Errorf("seat checker required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outboxSvc,
		credits:  creditsSvc,
		timeline: timelineSvc,
		seats:    seats,
		metrics:  bookingMetrics,
		logg:     logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Booking, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.CustomerID == uuid.Nil {
		input.CustomerID = input.Actor.UserID
	}
	if input.CustomerID != input.Actor.UserID && !roles.IsStaff(input.Actor.Role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot book on behalf of another customer")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.ScheduledAt.IsZero() || !input.ScheduledAt.After(time.Now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduled_at must be in the future")
	}
	if input.PackageID != nil && input.OrganizationID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "package bookings require an organization")
	}

	isCorporate := input.OrganizationID != nil
	if isCorporate {
		if err := s.checkSeat(ctx, *input.OrganizationID, input.CustomerID); err != nil {
			return nil, err
		}
		if input.PackageID != nil {
			pkg, err := s.credits.Balance(ctx, *input.PackageID)
			if err != nil {
				return nil, err
			}
			if pkg.OrganizationID != *input.OrganizationID {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "package belongs to a different organization")
			}
		}
	}

	booking := &models.Booking{
		CustomerID:     input.CustomerID,
		ProductID:      input.ProductID,
		OrganizationID: input.OrganizationID,
		PackageID:      input.PackageID,
		Status:         enums.BookingStatusPending,
		ScheduledAt:    input.ScheduledAt,
		IsCorporate:    isCorporate,
		QuoteRequested: input.QuoteRequested,
		Notes:          input.Notes,
	}
	for _, addOnID := range input.AddOnIDs {
		booking.AddOns = append(booking.AddOns, models.AddOn{ID: addOnID})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.repo.WithTx(tx).Create(ctx, booking)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert booking")
		}
		booking = created

		if _, err := s.timeline.Append(ctx, tx, timeline.AppendInput{
			BookingID: booking.ID,
			ActorID:   input.Actor.UserID,
			Action:    enums.TimelineActionCreated,
			Details:   fmt.Sprintf("booking %d created", booking.BookingNumber),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append timeline")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingCreated,
			AggregateType: enums.AggregateBooking,
			AggregateID:   booking.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data:          s.statusEvent(booking, ""),
		})
	})
	if err != nil {
		s.metrics.IncRejected(errorCode(err))
		return nil, err
	}
	s.metrics.IncTransition(string(enums.BookingStatusPending))
	return booking, nil
}

// Approve moves a pending booking to confirmed. Admin only. For
// package-backed corporate bookings exactly one credit is consumed in the
// same transaction, so a lost status race also rolls back the deduction.
func (s *service) Approve(ctx context.Context, input TransitionInput) (*models.Booking, error) {
	return s.transition(ctx, input, transitionSpec{
		action:    enums.TimelineActionApproved,
		eventType: enums.EventBookingApproved,
		target:    enums.BookingStatusConfirmed,
		minRole:   enums.UserRoleAdmin,
		allowedFrom: []enums.BookingStatus{
			enums.BookingStatusPending,
		},
		beforeUpdate: func(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
			if booking.PackageID == nil {
				return nil
			}
			remaining, err := s.credits.TryConsume(ctx, tx, *booking.PackageID)
			if err != nil {
				return err
			}
			if s.logg != nil {
				s.logg.Info(ctx, fmt.Sprintf("consumed credit for booking %d, %d remaining", booking.BookingNumber, remaining))
			}
			return nil
		},
	})
}

// Reject moves a pending booking to cancelled. Admin only. A booking that
// was already confirmed cannot be rejected and no audit entry is written for
// the attempt.
func (s *service) Reject(ctx context.Context, input TransitionInput) (*models.Booking, error) {
	return s.transition(ctx, input, transitionSpec{
		action:    enums.TimelineActionRejected,
		eventType: enums.EventBookingRejected,
		target:    enums.BookingStatusCancelled,
		minRole:   enums.UserRoleAdmin,
		allowedFrom: []enums.BookingStatus{
			enums.BookingStatusPending,
		},
	})
}

// Complete accepts any non-terminal booking, not only confirmed ones.
// Product has not decided whether walk-in completion of a pending booking is
// legitimate, so the permissive rule stands for now.
func (s *service) Complete(ctx context.Context, input TransitionInput) (*models.Booking, error) {
	now := time.Now()
	return s.transition(ctx, input, transitionSpec{
		action:    enums.TimelineActionCompleted,
		eventType: enums.EventBookingCompleted,
		target:    enums.BookingStatusCompleted,
		minRole:   enums.UserRoleStaff,
		allowedFrom: []enums.BookingStatus{
			enums.BookingStatusPending,
			enums.BookingStatusConfirmed,
		},
		updates: map[string]any{"completed_at": now},
	})
}

func (s *service) MarkNoShow(ctx context.Context, input TransitionInput) (*models.Booking, error) {
	return s.transition(ctx, input, transitionSpec{
		action:    enums.TimelineActionNoShow,
		eventType: enums.EventBookingNoShow,
		target:    enums.BookingStatusNoShow,
		minRole:   enums.UserRoleStaff,
		allowedFrom: []enums.BookingStatus{
			enums.BookingStatusPending,
			enums.BookingStatusConfirmed,
		},
	})
}

// transitionSpec describes one edge of the lifecycle state machine.
type transitionSpec struct {
	action       enums.TimelineAction
	eventType    enums.OutboxEventType
	target       enums.BookingStatus
	minRole      enums.UserRole
	allowedFrom  []enums.BookingStatus
	updates      map[string]any
	beforeUpdate func(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
}

func (s *service) transition(ctx context.Context, input TransitionInput, spec transitionSpec) (*models.Booking, error) {
	if err := requireAuthority(input.Actor, spec.minRole); err != nil {
		s.metrics.IncRejected(errorCode(err))
		return nil, err
	}
	if input.BookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}

	var booking *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := s.FindBookingTx(ctx, tx, input.BookingID)
		if err != nil {
			return err
		}
		booking = loaded

		from, ok := matchStatus(booking.Status, spec.allowedFrom)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("booking is %s, cannot move to %s", booking.Status, spec.target))
		}

		if spec.beforeUpdate != nil {
			if err := spec.beforeUpdate(ctx, tx, booking); err != nil {
				return err
			}
		}

		moved, err := s.repo.WithTx(tx).UpdateStatusGuarded(ctx, booking.ID, from, spec.target, spec.updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking status")
		}
		if !moved {
			// Another request won the race between our read and the update.
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("booking left %s concurrently", from))
		}
		booking.Status = spec.target
		if completedAt, ok := spec.updates["completed_at"].(time.Time); ok {
			booking.CompletedAt = &completedAt
		}

		if _, err := s.timeline.Append(ctx, tx, timeline.AppendInput{
			BookingID: booking.ID,
			ActorID:   input.Actor.UserID,
			Action:    spec.action,
			Details:   input.Reason,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append timeline")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     spec.eventType,
			AggregateType: enums.AggregateBooking,
			AggregateID:   booking.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data:          s.statusEvent(booking, input.Reason),
		})
	})
	if err != nil {
		s.metrics.IncRejected(errorCode(err))
		return nil, err
	}

	s.metrics.IncTransition(string(spec.target))
	return booking, nil
}

// Invoice stamps a corporate booking that passed confirmation with a unique
// invoice number and moves it to the invoiced terminal state. A number
// collision is reported as retryable so the caller can resubmit.
func (s *service) Invoice(ctx context.Context, input TransitionInput) (*models.Booking, error) {
	if err := requireAuthority(input.Actor, enums.UserRoleStaff); err != nil {
		s.metrics.IncRejected(errorCode(err))
		return nil, err
	}
	if input.BookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}

	now := time.Now()
	number := invoiceNumber(now)

	var booking *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := s.FindBookingTx(ctx, tx, input.BookingID)
		if err != nil {
			return err
		}
		booking = loaded

		if !booking.IsCorporate {
			return pkgerrors.New(pkgerrors.CodeInvalidOperation, "only corporate bookings can be invoiced")
		}
		from, ok := matchStatus(booking.Status, []enums.BookingStatus{
			enums.BookingStatusConfirmed,
			enums.BookingStatusCompleted,
			enums.BookingStatusNoShow,
		})
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("booking is %s, cannot invoice", booking.Status))
		}

		repo := s.repo.WithTx(tx)
		moved, err := repo.UpdateStatusGuarded(ctx, booking.ID, from, enums.BookingStatusInvoiced, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("booking left %s concurrently", from))
		}

		claimed, err := repo.ClaimInvoiceNumber(ctx, booking.ID, number, now)
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "idx_bookings_invoice_number") {
				return pkgerrors.New(pkgerrors.CodeConflict, "invoice number collision, retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stamp invoice number")
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "booking already carries an invoice number")
		}
		booking.Status = enums.BookingStatusInvoiced
		booking.InvoiceNumber = &number
		booking.InvoiceSentAt = &now

		if _, err := s.timeline.Append(ctx, tx, timeline.AppendInput{
			BookingID: booking.ID,
			ActorID:   input.Actor.UserID,
			Action:    enums.TimelineActionInvoiced,
			Details:   fmt.Sprintf("invoice %s issued", number),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append timeline")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingInvoiced,
			AggregateType: enums.AggregateBooking,
			AggregateID:   booking.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: payloads.BookingInvoicedEvent{
				BookingStatusEvent: s.statusEvent(booking, input.Reason),
				InvoiceNumber:      number,
				InvoiceSentAt:      now,
			},
		})
	})
	if err != nil {
		s.metrics.IncRejected(errorCode(err))
		return nil, err
	}

	s.metrics.IncTransition(string(enums.BookingStatusInvoiced))
	return booking, nil
}

// Clone creates a fresh pending booking that copies the source booking's
// product, add-ons and corporate linkage onto a new schedule slot.
func (s *service) Clone(ctx context.Context, input CloneInput) (*models.Booking, error) {
	if input.BookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	if input.ScheduledAt.IsZero() || !input.ScheduledAt.After(time.Now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduled_at must be in the future")
	}

	source, err := s.repo.FindDetail(ctx, input.BookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if source.CustomerID != input.Actor.UserID && !roles.IsStaff(input.Actor.Role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot clone another customer's booking")
	}

	clone := &models.Booking{
		CustomerID:     source.CustomerID,
		ProductID:      source.ProductID,
		OrganizationID: source.OrganizationID,
		PackageID:      source.PackageID,
		Status:         enums.BookingStatusPending,
		ScheduledAt:    input.ScheduledAt,
		IsCorporate:    source.IsCorporate,
		QuoteRequested: source.QuoteRequested,
		Notes:          source.Notes,
	}
	for _, addOn := range source.AddOns {
		clone.AddOns = append(clone.AddOns, models.AddOn{ID: addOn.ID})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.repo.WithTx(tx).Create(ctx, clone)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert booking")
		}
		clone = created

		if _, err := s.timeline.Append(ctx, tx, timeline.AppendInput{
			BookingID: clone.ID,
			ActorID:   input.Actor.UserID,
			Action:    enums.TimelineActionCloned,
			Details:   fmt.Sprintf("cloned from booking %d", source.BookingNumber),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append timeline")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingCloned,
			AggregateType: enums.AggregateBooking,
			AggregateID:   clone.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: payloads.BookingClonedEvent{
				SourceBookingID: source.ID,
				NewBookingID:    clone.ID,
				ScheduledAt:     input.ScheduledAt,
			},
		})
	})
	if err != nil {
		s.metrics.IncRejected(errorCode(err))
		return nil, err
	}
	s.metrics.IncTransition(string(enums.BookingStatusPending))
	return clone, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, actor Actor) (*models.Booking, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	booking, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if err := authorizeRead(booking, actor); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *service) History(ctx context.Context, id uuid.UUID, actor Actor) ([]models.TimelineEntry, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if err := authorizeRead(booking, actor); err != nil {
		return nil, err
	}
	return s.timeline.History(ctx, id)
}

// List scopes results by the caller's authority. Staff see everything,
// corporate admins see their organization, everyone else sees their own
// bookings.
func (s *service) List(ctx context.Context, actor Actor, params pagination.Params, filters ListFilters) (*BookingList, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	switch {
	case roles.IsStaff(actor.Role):
		return s.repo.List(ctx, params, filters)
	case roles.IsCorporateAdmin(actor.Role) && actor.OrganizationID != nil:
		return s.repo.ListByOrganization(ctx, *actor.OrganizationID, params, filters)
	default:
		return s.repo.ListByCustomer(ctx, actor.UserID, params, filters)
	}
}

func (s *service) FindBookingTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Booking, error) {
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	booking, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	return booking, nil
}

func (s *service) checkSeat(ctx context.Context, orgID, userID uuid.UUID) error {
	seat, err := s.seats.FindSeat(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "customer has no seat in this organization")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load org seat")
	}
	if seat == nil || !seat.IsActive {
		return pkgerrors.New(pkgerrors.CodeForbidden, "customer's seat is not active")
	}
	return nil
}

func (s *service) statusEvent(booking *models.Booking, reason string) payloads.BookingStatusEvent {
	return payloads.BookingStatusEvent{
		BookingID:     booking.ID,
		BookingNumber: booking.BookingNumber,
		CustomerID:    booking.CustomerID,
		Status:        booking.Status,
		ScheduledAt:   booking.ScheduledAt,
		IsCorporate:   booking.IsCorporate,
		Reason:        reason,
	}
}

func requireAuthority(actor Actor, min enums.UserRole) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !roles.AtLeast(actor.Role, min) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient authority for this transition")
	}
	return nil
}

func authorizeRead(booking *models.Booking, actor Actor) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if roles.IsStaff(actor.Role) {
		return nil
	}
	if booking.CustomerID == actor.UserID {
		return nil
	}
	if booking.OrganizationID != nil && actor.OrganizationID != nil &&
		*booking.OrganizationID == *actor.OrganizationID &&
		roles.AtLeast(actor.Role, enums.UserRoleCorporateMember) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view this booking")
}

func matchStatus(current enums.BookingStatus, allowed []enums.BookingStatus) (enums.BookingStatus, bool) {
	for _, candidate := range allowed {
		if candidate == current {
			return candidate, true
		}
	}
	return "", false
}

func errorCode(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return string(pkgerrors.CodeInternal)
}
