package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/selfydev/selfy-backend/internal/bookings"
	"github.com/selfydev/selfy-backend/internal/notifications"
	"github.com/selfydev/selfy-backend/internal/payments"
	"github.com/selfydev/selfy-backend/internal/seats"
	pkgAuth "github.com/selfydev/selfy-backend/pkg/auth"
	"github.com/selfydev/selfy-backend/pkg/config"
	"github.com/selfydev/selfy-backend/pkg/db/models"
	"github.com/selfydev/selfy-backend/pkg/enums"
	"github.com/selfydev/selfy-backend/pkg/logger"
	"github.com/selfydev/selfy-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubStore struct {
	data map[string]string
}

func newStubStore() *stubStore {
	return &stubStore{data: make(map[string]string)}
}

func (s *stubStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := s.data[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (s *stubStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	str, _ := value.(string)
	s.data[key] = str
	return true, nil
}

func (s *stubStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("stub:%s:%s", scope, id)
}

func (s *stubStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

type stubBookings struct{}

func (stubBookings) Create(context.Context, bookings.CreateInput) (*models.Booking, error) {
	return &models.Booking{}, nil
}

func (stubBookings) Approve(context.Context, bookings.TransitionInput) (*models.Booking, error) {
	return &models.Booking{Status: enums.BookingStatusConfirmed}, nil
}

func (stubBookings) Reject(context.Context, bookings.TransitionInput) (*models.Booking, error) {
	return &models.Booking{Status: enums.BookingStatusCancelled}, nil
}

func (stubBookings) Complete(context.Context, bookings.TransitionInput) (*models.Booking, error) {
	return &models.Booking{Status: enums.BookingStatusCompleted}, nil
}

func (stubBookings) MarkNoShow(context.Context, bookings.TransitionInput) (*models.Booking, error) {
	return &models.Booking{Status: enums.BookingStatusNoShow}, nil
}

func (stubBookings) Invoice(context.Context, bookings.TransitionInput) (*models.Booking, error) {
	return &models.Booking{Status: enums.BookingStatusInvoiced}, nil
}

func (stubBookings) Clone(context.Context, bookings.CloneInput) (*models.Booking, error) {
	return &models.Booking{}, nil
}

func (stubBookings) Get(context.Context, uuid.UUID, bookings.Actor) (*models.Booking, error) {
	return &models.Booking{}, nil
}

func (stubBookings) History(context.Context, uuid.UUID, bookings.Actor) ([]models.TimelineEntry, error) {
	return nil, nil
}

func (stubBookings) List(context.Context, bookings.Actor, pagination.Params, bookings.ListFilters) (*bookings.BookingList, error) {
	return &bookings.BookingList{}, nil
}

func (stubBookings) FindBookingTx(context.Context, *gorm.DB, uuid.UUID) (*models.Booking, error) {
	return &models.Booking{}, nil
}

type stubPayments struct{}

func (stubPayments) Create(context.Context, payments.CreateInput) (*models.Payment, error) {
	return &models.Payment{}, nil
}

func (stubPayments) ListForBooking(context.Context, uuid.UUID) ([]models.Payment, error) {
	return nil, nil
}

type stubSeats struct{}

func (stubSeats) Assign(context.Context, seats.AssignInput) (*models.OrgSeat, error) {
	return &models.OrgSeat{}, nil
}

func (stubSeats) Remove(context.Context, seats.RemoveInput) error {
	return nil
}

func (stubSeats) Roster(context.Context, uuid.UUID, seats.Actor) ([]models.OrgSeat, error) {
	return nil, nil
}

type stubNotifications struct{}

func (stubNotifications) List(context.Context, notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotifications) MarkRead(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func (stubNotifications) MarkAllRead(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotifications) PurgeRead(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type stubCredits struct{}

func (stubCredits) TryConsume(context.Context, *gorm.DB, uuid.UUID) (int, error) {
	return 0, nil
}

func (stubCredits) Restore(context.Context, *gorm.DB, uuid.UUID) error {
	return nil
}

func (stubCredits) Balance(context.Context, uuid.UUID) (*models.CorporatePackage, error) {
	return &models.CorporatePackage{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "selfy-test",
			ExpirationMinutes: 30,
		},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "router-test"})
	router := NewRouter(
		cfg,
		logg,
		stubPinger{},
		stubPinger{},
		newStubStore(),
		stubBookings{},
		stubPayments{},
		stubSeats{},
		stubNotifications{},
		stubCredits{},
	)
	return router, cfg
}

func mintToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if env := resp.Header().Get("X-Selfy-Env"); env != "test" {
		t.Fatalf("expected env header test got %q", env)
	}
}

func TestHealthReady(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestBookingsRequireAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestBookingsListAuthenticated(t *testing.T) {
	router, cfg := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d, body %s", resp.Code, resp.Body.String())
	}
}

func TestApproveRequiresAdminRole(t *testing.T) {
	router, cfg := newTestRouter(t)

	for i, role := range []enums.UserRole{enums.UserRoleCustomer, enums.UserRoleStaff} {
		url := fmt.Sprintf("/api/v1/bookings/%s/approve", uuid.New())
		req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{}`))
		req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, role))
		req.Header.Set("Idempotency-Key", fmt.Sprintf("router-approve-%d", i))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		if resp.Code != http.StatusForbidden {
			t.Fatalf("role %s: expected 403 got %d, body %s", role, resp.Code, resp.Body.String())
		}
	}
}

func TestApproveAllowsAdmin(t *testing.T) {
	router, cfg := newTestRouter(t)

	url := fmt.Sprintf("/api/v1/bookings/%s/approve", uuid.New())
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.UserRoleAdmin))
	req.Header.Set("Idempotency-Key", "router-approve-admin")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d, body %s", resp.Code, resp.Body.String())
	}
}

func TestCompleteAllowsStaff(t *testing.T) {
	router, cfg := newTestRouter(t)

	url := fmt.Sprintf("/api/v1/bookings/%s/complete", uuid.New())
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.UserRoleStaff))
	req.Header.Set("Idempotency-Key", "router-complete-staff")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d, body %s", resp.Code, resp.Body.String())
	}
}

func TestCreateBookingRequiresIdempotencyKey(t *testing.T) {
	router, cfg := newTestRouter(t)

	body := `{"product_id":"` + uuid.NewString() + `","scheduled_at":"2030-01-02T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d, body %s", resp.Code, resp.Body.String())
	}
}
