package controllers

import (
	"net/http"

	"github.com/selfydev/selfy-backend/api/middleware"
	"github.com/selfydev/selfy-backend/pkg/auth"
	pkgerrors "github.com/selfydev/selfy-backend/pkg/errors"
)

// requireClaims pulls the authenticated token claims out of the request
// context. Handlers behind the auth middleware always have them; a nil result
// means the route was wired without it.
func requireClaims(r *http.Request) (*auth.AccessTokenClaims, error) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return claims, nil
}
