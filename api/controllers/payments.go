package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/selfydev/selfy-backend/api/responses"
	"github.com/selfydev/selfy-backend/api/validators"
	"github.com/selfydev/selfy-backend/internal/bookings"
	"github.com/selfydev/selfy-backend/internal/payments"
	"github.com/selfydev/selfy-backend/pkg/db/models"
	"github.com/selfydev/selfy-backend/pkg/enums"
	pkgerrors "github.com/selfydev/selfy-backend/pkg/errors"
	"github.com/selfydev/selfy-backend/pkg/logger"
)

type bookingReader interface {
	Get(ctx context.Context, id uuid.UUID, actor bookings.Actor) (*models.Booking, error)
}

type paymentCreateRequest struct {
	BookingID   string `json:"booking_id" validate:"required"`
	Total       string `json:"total" validate:"required"`
	Currency    string `json:"currency"`
	DepositOnly bool   `json:"deposit_only"`
	SourceID    string `json:"source_id" validate:"required"`
}

func (req paymentCreateRequest) toInput(actor payments.Actor) (payments.CreateInput, error) {
	bookingID, err := uuid.Parse(strings.TrimSpace(req.BookingID))
	if err != nil {
		return payments.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking_id")
	}

	total, err := decimal.NewFromString(strings.TrimSpace(req.Total))
	if err != nil {
		return payments.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid total")
	}
	if total.IsNegative() || total.IsZero() {
		return payments.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "total must be positive")
	}

	currency := enums.CurrencyUSD
	if raw := strings.TrimSpace(req.Currency); raw != "" {
		currency, err = enums.ParseCurrency(raw)
		if err != nil {
			return payments.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
	}

	return payments.CreateInput{
		BookingID:   bookingID,
		Total:       total,
		Currency:    currency,
		DepositOnly: req.DepositOnly,
		SourceID:    strings.TrimSpace(req.SourceID),
		Actor:       actor,
	}, nil
}

// CreatePayment charges a booking through the card processor and records the
// resulting payment row.
func CreatePayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		claims, err := requireClaims(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req paymentCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := req.toInput(payments.Actor{UserID: claims.UserID, Role: claims.Role})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}

// ListBookingPayments returns payments recorded against a booking.
func ListBookingPayments(svc payments.Service, bookingsSvc bookingReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		claims, err := requireClaims(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookingID, err := validators.ParseUUIDParam(r, "bookingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Visibility piggybacks on booking read authorization.
		if bookingsSvc != nil {
			if _, err := bookingsSvc.Get(r.Context(), bookingID, bookingActor(claims)); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		list, err := svc.ListForBooking(r.Context(), bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
