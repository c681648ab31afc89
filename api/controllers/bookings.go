package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/selfydev/selfy-backend/api/responses"
	"github.com/selfydev/selfy-backend/api/validators"
	"github.com/selfydev/selfy-backend/internal/bookings"
	"github.com/selfydev/selfy-backend/pkg/auth"
	"github.com/selfydev/selfy-backend/pkg/enums"
	pkgerrors "github.com/selfydev/selfy-backend/pkg/errors"
	"github.com/selfydev/selfy-backend/pkg/logger"
	"github.com/selfydev/selfy-backend/pkg/pagination"
)

const maxNotesLength = 2000

type bookingCreateRequest struct {
	CustomerID     string    `json:"customer_id"`
	ProductID      string    `json:"product_id" validate:"required"`
	ScheduledAt    time.Time `json:"scheduled_at" validate:"required"`
	OrganizationID string    `json:"organization_id"`
	PackageID      string    `json:"package_id"`
	QuoteRequested bool      `json:"quote_requested"`
	AddOnIDs       []string  `json:"add_on_ids"`
	Notes          string    `json:"notes"`
}

func (req bookingCreateRequest) toInput(actor bookings.Actor) (bookings.CreateInput, error) {
	input := bookings.CreateInput{
		ScheduledAt:    req.ScheduledAt,
		QuoteRequested: req.QuoteRequested,
		Actor:          actor,
	}

	productID, err := uuid.Parse(strings.TrimSpace(req.ProductID))
	if err != nil {
		return bookings.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id")
	}
	input.ProductID = productID

	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		customerID, err := uuid.Parse(raw)
		if err != nil {
			return bookings.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer_id")
		}
		input.CustomerID = customerID
	}

	if raw := strings.TrimSpace(req.OrganizationID); raw != "" {
		orgID, err := uuid.Parse(raw)
		if err != nil {
			return bookings.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid organization_id")
		}
		input.OrganizationID = &orgID
	}

	if raw := strings.TrimSpace(req.PackageID); raw != "" {
		packageID, err := uuid.Parse(raw)
		if err != nil {
			return bookings.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid package_id")
		}
		input.PackageID = &packageID
	}

	for _, raw := range req.AddOnIDs {
		addOnID, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return bookings.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid add_on_ids entry")
		}
		input.AddOnIDs = append(input.AddOnIDs, addOnID)
	}

	if notes := validators.SanitizeString(req.Notes, maxNotesLength); notes != "" {
		input.Notes = &notes
	}

	return input, nil
}

type bookingTransitionRequest struct {
	Reason string `json:"reason"`
}

type bookingCloneRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

func bookingActor(claims *auth.AccessTokenClaims) bookings.Actor {
	return bookings.Actor{
		UserID:         claims.UserID,
		Role:           claims.Role,
		OrganizationID: claims.OrganizationID,
	}
}

// CreateBooking handles new booking requests for both retail and corporate
// customers.
func CreateBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		claims, err := requireClaims(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req bookingCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := req.toInput(bookingActor(claims))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, booking)
	}
}

func bookingTransition(svc bookings.Service, logg *logger.Logger, run func(r *http.Request, input bookings.TransitionInput) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
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

		var req bookingTransitionRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		input := bookings.TransitionInput{
			BookingID: bookingID,
			Reason:    validators.SanitizeString(req.Reason, maxNotesLength),
			Actor:     bookingActor(claims),
		}

		result, err := run(r, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ApproveBooking confirms a pending booking, consuming a package credit for
// corporate package bookings.
func ApproveBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return bookingTransition(svc, logg, func(r *http.Request, input bookings.TransitionInput) (any, error) {
		return svc.Approve(r.Context(), input)
	})
}

// RejectBooking declines a pending booking with an optional reason.
func RejectBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return bookingTransition(svc, logg, func(r *http.Request, input bookings.TransitionInput) (any, error) {
		return svc.Reject(r.Context(), input)
	})
}

// CompleteBooking marks a confirmed booking as fulfilled.
func CompleteBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return bookingTransition(svc, logg, func(r *http.Request, input bookings.TransitionInput) (any, error) {
		return svc.Complete(r.Context(), input)
	})
}

// NoShowBooking records that the customer missed a confirmed booking.
func NoShowBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return bookingTransition(svc, logg, func(r *http.Request, input bookings.TransitionInput) (any, error) {
		return svc.MarkNoShow(r.Context(), input)
	})
}

// InvoiceBooking issues an invoice for a completed corporate booking.
func InvoiceBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return bookingTransition(svc, logg, func(r *http.Request, input bookings.TransitionInput) (any, error) {
		return svc.Invoice(r.Context(), input)
	})
}

// CloneBooking creates a new pending booking copied from an existing one at a
// new time slot.
func CloneBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
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

		var req bookingCloneRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Clone(r.Context(), bookings.CloneInput{
			BookingID:   bookingID,
			ScheduledAt: req.ScheduledAt,
			Actor:       bookingActor(claims),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, booking)
	}
}

// GetBooking returns a single booking visible to the caller.
func GetBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
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

		booking, err := svc.Get(r.Context(), bookingID, bookingActor(claims))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

// BookingTimeline returns the audit trail for a booking.
func BookingTimeline(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
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

		entries, err := svc.History(r.Context(), bookingID, bookingActor(claims))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

// ListBookings returns a paginated booking list scoped by the caller's role.
func ListBookings(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		claims, err := requireClaims(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		filters, err := parseBookingFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), bookingActor(claims), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func parseBookingFilters(r *http.Request) (bookings.ListFilters, error) {
	var filters bookings.ListFilters

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseBookingStatus(raw)
		if err != nil {
			return bookings.ListFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("corporate")); raw != "" {
		isCorporate, err := validators.ParseQueryBool(r, "corporate")
		if err != nil {
			return bookings.ListFilters{}, err
		}
		filters.IsCorporate = &isCorporate
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return bookings.ListFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from filter")
		}
		filters.From = &from
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return bookings.ListFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to filter")
		}
		filters.To = &to
	}

	return filters, nil
}
