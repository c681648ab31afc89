package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/selfydev/selfy-backend/pkg/db/models"
	"github.com/selfydev/selfy-backend/pkg/enums"
	"github.com/selfydev/selfy-backend/pkg/pagination"
)

// Repository defines persistence operations for bookings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	// UpdateStatusGuarded moves the booking from one status to another in a
	// single statement. False means the booking was not in the expected
	// status when the update ran.
	UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from, to enums.BookingStatus, updates map[string]any) (bool, error)
	// ClaimInvoiceNumber stamps the invoice fields only when no invoice
	// number is present yet.
	ClaimInvoiceNumber(ctx context.Context, id uuid.UUID, invoiceNumber string, sentAt time.Time) (bool, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters ListFilters) (*BookingList, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID, params pagination.Params, filters ListFilters) (*BookingList, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*BookingList, error)
}

// ListFilters narrows booking list queries.
type ListFilters struct {
	Status      *enums.BookingStatus
	IsCorporate *bool
	From        *time.Time
	To          *time.Time
}

// BookingList is one page of bookings plus the cursor for the next page.
type BookingList struct {
	Bookings   []models.Booking
	NextCursor string
}
