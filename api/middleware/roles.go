package middleware

import (
	"net/http"

	"github.com/selfydev/selfy-backend/api/responses"
	"github.com/selfydev/selfy-backend/internal/roles"
	"github.com/selfydev/selfy-backend/pkg/enums"
	pkgerrors "github.com/selfydev/selfy-backend/pkg/errors"
	"github.com/selfydev/selfy-backend/pkg/logger"
)

// RequireRole rejects requests whose authenticated role sits below the
// minimum authority.
func RequireRole(min enums.UserRole, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			if !roles.AtLeast(claims.Role, min) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient authority"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
