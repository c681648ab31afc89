package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/selfydev/selfy-backend/pkg/auth"
	"github.com/selfydev/selfy-backend/pkg/config"
	"github.com/selfydev/selfy-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "middleware-test-secret",
		Issuer:            "selfy-test",
		ExpirationMinutes: 30,
	}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, role enums.UserRole, orgID *uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:         uuid.New(),
		Role:           role,
		OrganizationID: orgID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	handlerCalled := false
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatal("handler should not run without credentials")
	}
}

func TestAuthRejectsMalformedToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthSeedsClaimsContext(t *testing.T) {
	cfg := testJWTConfig()
	orgID := uuid.New()
	token := mintTestToken(t, cfg, enums.UserRoleCorporateAdmin, &orgID)

	var gotRole enums.UserRole
	var gotOrg string
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			t.Fatal("expected claims in context")
		}
		gotRole = claims.Role
		gotOrg = OrgIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotRole != enums.UserRoleCorporateAdmin {
		t.Fatalf("unexpected role %s", gotRole)
	}
	if gotOrg != orgID.String() {
		t.Fatalf("unexpected org %s", gotOrg)
	}
}

func TestRequireRoleBlocksLowerAuthority(t *testing.T) {
	cfg := testJWTConfig()
	token := mintTestToken(t, cfg, enums.UserRoleCustomer, nil)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})
	handler := Auth(cfg, nil)(RequireRole(enums.UserRoleStaff, nil)(inner))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/x/approve", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRequireRoleAdmitsEqualOrHigher(t *testing.T) {
	cfg := testJWTConfig()

	for _, role := range []enums.UserRole{enums.UserRoleStaff, enums.UserRoleAdmin} {
		token := mintTestToken(t, cfg, role, nil)
		called := false
		handler := Auth(cfg, nil)(RequireRole(enums.UserRoleStaff, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		})))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/x/approve", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)

		if !called {
			t.Fatalf("%s: expected handler to run", role)
		}
	}
}

func TestRequireRoleWithoutClaims(t *testing.T) {
	handler := RequireRole(enums.UserRoleStaff, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/x/approve", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
