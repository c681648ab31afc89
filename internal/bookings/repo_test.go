package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/selfydev/selfy-backend/pkg/db/models"
	"github.com/selfydev/selfy-backend/pkg/enums"
	"github.com/selfydev/selfy-backend/pkg/migrate"
	"github.com/selfydev/selfy-backend/pkg/pagination"
)

func setupBookingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	for _, stmt := range migrate.SQLiteSchema() {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newCustomer(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := &models.User{
		ID:        uuid.New(),
		Email:     uuid.NewString() + "@customers.example",
		FirstName: "Test",
		LastName:  "Customer",
		Role:      enums.UserRoleCustomer,
		Active:    true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newProduct(t *testing.T, db *gorm.DB) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:          uuid.New(),
		Name:        "Deep Clean",
		Price:       decimal.NewFromInt(150),
		Currency:    enums.CurrencyUSD,
		DurationMin: 90,
		Active:      true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func newBooking(t *testing.T, db *gorm.DB, customer *models.User, product *models.Product, number int64, status enums.BookingStatus, created time.Time) *models.Booking {
	t.Helper()

	booking := &models.Booking{
		ID:            uuid.New(),
		BookingNumber: number,
		CustomerID:    customer.ID,
		ProductID:     product.ID,
		Status:        status,
		ScheduledAt:   created.Add(48 * time.Hour),
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	require.NoError(t, db.Create(booking).Error)
	return booking
}

func TestRepositoryUpdateStatusGuarded_staleStatus(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)

	customer := newCustomer(t, db)
	product := newProduct(t, db)
	booking := newBooking(t, db, customer, product, 9001, enums.BookingStatusPending, time.Now().UTC())

	ok, err := repo.UpdateStatusGuarded(context.Background(), booking.ID, enums.BookingStatusPending, enums.BookingStatusConfirmed, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	// A second actor still holding the pending snapshot loses the race.
	ok, err = repo.UpdateStatusGuarded(context.Background(), booking.ID, enums.BookingStatusPending, enums.BookingStatusCancelled, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err := repo.FindByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusConfirmed, reloaded.Status)
}

func TestRepositoryUpdateStatusGuarded_extraColumns(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)

	customer := newCustomer(t, db)
	product := newProduct(t, db)
	booking := newBooking(t, db, customer, product, 9002, enums.BookingStatusConfirmed, time.Now().UTC())

	completedAt := time.Now().UTC().Truncate(time.Second)
	ok, err := repo.UpdateStatusGuarded(context.Background(), booking.ID, enums.BookingStatusConfirmed, enums.BookingStatusCompleted, map[string]any{
		"completed_at": completedAt,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded, err := repo.FindByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusCompleted, reloaded.Status)
	require.NotNil(t, reloaded.CompletedAt)
	assert.WithinDuration(t, completedAt, *reloaded.CompletedAt, time.Second)
}

func TestRepositoryClaimInvoiceNumber_secondClaim(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)

	customer := newCustomer(t, db)
	product := newProduct(t, db)
	booking := newBooking(t, db, customer, product, 9003, enums.BookingStatusConfirmed, time.Now().UTC())

	sentAt := time.Now().UTC()
	ok, err := repo.ClaimInvoiceNumber(context.Background(), booking.ID, "INV-2026-9003", sentAt)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ClaimInvoiceNumber(context.Background(), booking.ID, "INV-2026-9999", sentAt)
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err := repo.FindByID(context.Background(), booking.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.InvoiceNumber)
	assert.Equal(t, "INV-2026-9003", *reloaded.InvoiceNumber)
}

func TestRepositoryListByCustomer_pagination(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)

	customer := newCustomer(t, db)
	product := newProduct(t, db)

	now := time.Now().UTC()
	newBooking(t, db, customer, product, 9004, enums.BookingStatusPending, now.Add(-time.Hour))
	newest := newBooking(t, db, customer, product, 9005, enums.BookingStatusPending, now)

	list, err := repo.ListByCustomer(context.Background(), customer.ID, pagination.Params{Limit: 1}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, list.Bookings, 1)
	assert.Equal(t, newest.ID, list.Bookings[0].ID)
	assert.NotEmpty(t, list.NextCursor)

	second, err := repo.ListByCustomer(context.Background(), customer.ID, pagination.Params{Limit: 1, Cursor: list.NextCursor}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, second.Bookings, 1)
	assert.Equal(t, int64(9004), second.Bookings[0].BookingNumber)
	assert.Empty(t, second.NextCursor)
}
