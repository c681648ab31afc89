package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/selfydev/selfy-backend/api/responses"
	"github.com/selfydev/selfy-backend/api/validators"
	"github.com/selfydev/selfy-backend/internal/seats"
	"github.com/selfydev/selfy-backend/pkg/auth"
	pkgerrors "github.com/selfydev/selfy-backend/pkg/errors"
	"github.com/selfydev/selfy-backend/pkg/logger"
)

type seatAssignRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func seatActor(claims *auth.AccessTokenClaims) seats.Actor {
	return seats.Actor{
		UserID:         claims.UserID,
		Role:           claims.Role,
		OrganizationID: claims.OrganizationID,
	}
}

// AssignSeat grants an organization seat to a user.
func AssignSeat(svc seats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "seats service unavailable"))
			return
		}

		claims, err := requireClaims(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orgID, err := validators.ParseUUIDParam(r, "orgID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req seatAssignRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := uuid.Parse(strings.TrimSpace(req.UserID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user_id"))
			return
		}

		seat, err := svc.Assign(r.Context(), seats.AssignInput{
			OrganizationID: orgID,
			UserID:         userID,
			Actor:          seatActor(claims),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, seat)
	}
}

// RemoveSeat revokes a user's organization seat.
func RemoveSeat(svc seats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "seats service unavailable"))
			return
		}

		claims, err := requireClaims(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orgID, err := validators.ParseUUIDParam(r, "orgID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := validators.ParseUUIDParam(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Remove(r.Context(), seats.RemoveInput{
			OrganizationID: orgID,
			UserID:         userID,
			Actor:          seatActor(claims),
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

// ListSeats returns the active seat roster for an organization.
func ListSeats(svc seats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "seats service unavailable"))
			return
		}

		claims, err := requireClaims(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orgID, err := validators.ParseUUIDParam(r, "orgID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		roster, err := svc.Roster(r.Context(), orgID, seatActor(claims))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, roster)
	}
}
