package controllers

import (
	"net/http"

	"github.com/selfydev/selfy-backend/api/responses"
	"github.com/selfydev/selfy-backend/api/validators"
	"github.com/selfydev/selfy-backend/internal/credits"
	"github.com/selfydev/selfy-backend/internal/roles"
	pkgerrors "github.com/selfydev/selfy-backend/pkg/errors"
	"github.com/selfydev/selfy-backend/pkg/logger"
)

// PackageBalance returns a corporate package with its remaining credit count.
// Staff can read any package; corporate admins only their own organization's.
func PackageBalance(svc credits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "credits service unavailable"))
			return
		}

		claims, err := requireClaims(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		packageID, err := validators.ParseUUIDParam(r, "packageID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pkg, err := svc.Balance(r.Context(), packageID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !roles.IsStaff(claims.Role) {
			if !roles.IsCorporateAdmin(claims.Role) || claims.OrganizationID == nil || *claims.OrganizationID != pkg.OrganizationID {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "package belongs to a different organization"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]any{
			"package":   pkg,
			"remaining": pkg.RemainingCredits(),
		})
	}
}
