package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"
	"gorm.io/gorm"

	"github.com/selfydev/selfy-backend/internal/roles"
	"github.com/selfydev/selfy-backend/internal/timeline"
	"github.com/selfydev/selfy-backend/pkg/db/models"
	"github.com/selfydev/selfy-backend/pkg/enums"
	pkgerrors "github.com/selfydev/selfy-backend/pkg/errors"
	"github.com/selfydev/selfy-backend/pkg/logger"
	"github.com/selfydev/selfy-backend/pkg/outbox"
	"github.com/selfydev/selfy-backend/pkg/outbox/payloads"
	"github.com/selfydev/selfy-backend/pkg/square"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type bookingFinder interface {
	FindBookingTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Booking, error)
}

type charger interface {
	CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error)
}

// Actor identifies the caller creating a payment intent.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// CreateInput carries a charge request against a booking.
type CreateInput struct {
	BookingID   uuid.UUID
	Total       decimal.Decimal
	Currency    enums.Currency
	DepositOnly bool
	SourceID    string
	Actor       Actor
}

// Service records charges taken against bookings.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Payment, error)
	ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]models.Payment, error)
}

type service struct {
	repo     Repository
	bookings bookingFinder
	tx       txRunner
	outbox   outboxPublisher
	timeline timeline.Service
	charger  charger
	logg     *logger.Logger
}

// NewService builds a payments service with the required dependencies.
func NewService(repo Repository, bookings bookingFinder, tx txRunner, outboxSvc outboxPublisher, timelineSvc timeline.Service, charger charger, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if bookings == nil {
		return nil, fmt.Errorf("booking finder required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if timelineSvc == nil {
		return nil, fmt.Errorf("timeline service required")
	}
	if charger == nil {
		return nil, fmt.Errorf("payment processor required")
	}
	return &service{
		repo:     repo,
		bookings: bookings,
		tx:       tx,
		outbox:   outboxSvc,
		timeline: timelineSvc,
		charger:  charger,
		logg:     logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Payment, error) {
	if input.BookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Total.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", currency))
	}

	// Preconditions are checked before the processor call so a rejected
	// request never charges anyone. The in-transaction reload below guards
	// against the booking changing between this check and the write.
	target, err := s.bookings.FindBookingTx(ctx, nil, input.BookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, err
	}
	if target.IsCorporate {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOperation, "corporate bookings are settled by invoice")
	}
	if target.CustomerID != input.Actor.UserID && !roles.IsStaff(input.Actor.Role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the booking's customer or staff can pay")
	}
	if target.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOperation, "booking no longer accepts payments")
	}

	amountCents := ChargeAmountCents(input.Total, input.DepositOnly)

	// Charge the processor before touching local state. The processor call
	// carries its own idempotency key, so a retry after a local failure
	// will not double-charge.
	external, err := s.charger.CreatePayment(ctx, square.PaymentCreateParams{
		AmountCents: amountCents,
		Currency:    string(currency),
		SourceID:    input.SourceID,
		ReferenceID: input.BookingID.String(),
	})
	if err != nil {
		return nil, err
	}
	externalRef := ""
	if external != nil && external.GetID() != nil {
		externalRef = *external.GetID()
	}

	payment := &models.Payment{
		BookingID:   input.BookingID,
		AmountCents: amountCents,
		Currency:    currency,
		Status:      enums.PaymentStatusPending,
		DepositOnly: input.DepositOnly,
		ExternalRef: externalRef,
		ProcessedBy: input.Actor.UserID,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		booking, err := s.bookings.FindBookingTx(ctx, tx, input.BookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if booking.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeInvalidOperation, "booking no longer accepts payments")
		}

		if _, err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert payment")
		}

		if _, err := s.timeline.Append(ctx, tx, timeline.AppendInput{
			BookingID: booking.ID,
			ActorID:   input.Actor.UserID,
			Action:    enums.TimelineActionPaymentCreated,
			Details:   fmt.Sprintf("charged %d cents (%s)", amountCents, currency),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append timeline")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentCreated,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			Actor: &outbox.ActorRef{
				UserID: input.Actor.UserID,
				Role:   string(input.Actor.Role),
			},
			Data: payloads.PaymentCreatedEvent{
				PaymentID:   payment.ID,
				BookingID:   input.BookingID,
				AmountCents: amountCents,
				DepositOnly: input.DepositOnly,
				ExternalRef: externalRef,
			},
		})
	})
	if err != nil {
		// The processor charge succeeded but the local record did not land.
		// Surface the external ref so operators can reconcile manually.
		if s.logg != nil {
			fields := map[string]any{
				"booking_id":   input.BookingID.String(),
				"external_ref": externalRef,
				"amount_cents": amountCents,
			}
			s.logg.Error(s.logg.WithFields(ctx, fields), "payment charged externally but not recorded", err)
		}
		return nil, err
	}
	return payment, nil
}

func (s *service) ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]models.Payment, error) {
	if bookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	return s.repo.ListByBookingID(ctx, bookingID)
}
