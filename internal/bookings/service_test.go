package bookings

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/selfydev/selfy-backend/internal/timeline"
	"github.com/selfydev/selfy-backend/pkg/db/models"
	"github.com/selfydev/selfy-backend/pkg/enums"
	pkgerrors "github.com/selfydev/selfy-backend/pkg/errors"
	"github.com/selfydev/selfy-backend/pkg/outbox"
	"github.com/selfydev/selfy-backend/pkg/pagination"
)

type fakeRepo struct {
	bookings   map[uuid.UUID]*models.Booking
	nextNumber int64
	claimErr   error
	listCalls  []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{bookings: map[uuid.UUID]*models.Booking{}, nextNumber: 1001}
}

func (f *fakeRepo) put(booking *models.Booking) *models.Booking {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if booking.BookingNumber == 0 {
		booking.BookingNumber = f.nextNumber
		f.nextNumber++
	}
	f.bookings[booking.ID] = booking
	return booking
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	return f.put(booking), nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, ok := f.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeRepo) FindDetail(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeRepo) UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from, to enums.BookingStatus, updates map[string]any) (bool, error) {
	booking, ok := f.bookings[id]
	if !ok || booking.Status != from {
		return false, nil
	}
	booking.Status = to
	if completedAt, ok := updates["completed_at"].(time.Time); ok {
		booking.CompletedAt = &completedAt
	}
	return true, nil
}

func (f *fakeRepo) ClaimInvoiceNumber(ctx context.Context, id uuid.UUID, invoiceNumber string, sentAt time.Time) (bool, error) {
	if f.claimErr != nil {
		return false, f.claimErr
	}
	booking, ok := f.bookings[id]
	if !ok || booking.InvoiceNumber != nil {
		return false, nil
	}
	booking.InvoiceNumber = &invoiceNumber
	booking.InvoiceSentAt = &sentAt
	return true, nil
}

func (f *fakeRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters ListFilters) (*BookingList, error) {
	f.listCalls = append(f.listCalls, "customer")
	return &BookingList{}, nil
}

func (f *fakeRepo) ListByOrganization(ctx context.Context, orgID uuid.UUID, params pagination.Params, filters ListFilters) (*BookingList, error) {
	f.listCalls = append(f.listCalls, "organization")
	return &BookingList{}, nil
}

func (f *fakeRepo) List(ctx context.Context, params pagination.Params, filters ListFilters) (*BookingList, error) {
	f.listCalls = append(f.listCalls, "all")
	return &BookingList{}, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

// fakeCredits mirrors the ledger semantics: consume decrements a balance,
// and a rolled back transaction would restore it. Because the fake tx runner
// cannot roll back, rollbacks assert on booking status instead.
type fakeCredits struct {
	packages map[uuid.UUID]*models.CorporatePackage
	consumed int
}

func (f *fakeCredits) TryConsume(ctx context.Context, tx *gorm.DB, packageID uuid.UUID) (int, error) {
	pkg, ok := f.packages[packageID]
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "corporate package not found")
	}
	if pkg.UsedCredits >= pkg.TotalCredits {
		return 0, pkgerrors.New(pkgerrors.CodeCreditExhausted, "package has no usable credits")
	}
	pkg.UsedCredits++
	f.consumed++
	return pkg.TotalCredits - pkg.UsedCredits, nil
}

func (f *fakeCredits) Restore(ctx context.Context, tx *gorm.DB, packageID uuid.UUID) error {
	if pkg, ok := f.packages[packageID]; ok && pkg.UsedCredits > 0 {
		pkg.UsedCredits--
	}
	return nil
}

func (f *fakeCredits) Balance(ctx context.Context, packageID uuid.UUID) (*models.CorporatePackage, error) {
	pkg, ok := f.packages[packageID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "corporate package not found")
	}
	return pkg, nil
}

type fakeTimeline struct {
	entries []timeline.AppendInput
}

func (f *fakeTimeline) Append(ctx context.Context, tx *gorm.DB, input timeline.AppendInput) (*models.TimelineEntry, error) {
	f.entries = append(f.entries, input)
	return &models.TimelineEntry{}, nil
}

func (f *fakeTimeline) History(ctx context.Context, bookingID uuid.UUID) ([]models.TimelineEntry, error) {
	var entries []models.TimelineEntry
	for _, input := range f.entries {
		if input.BookingID == bookingID {
			entries = append(entries, models.TimelineEntry{
				BookingID: input.BookingID,
				ActorID:   input.ActorID,
				Action:    input.Action,
				Details:   input.Details,
			})
		}
	}
	return entries, nil
}

type fakeSeats struct {
	seats map[string]*models.OrgSeat
}

func seatKey(orgID, userID uuid.UUID) string {
	return orgID.String() + "/" + userID.String()
}

func (f *fakeSeats) FindSeat(ctx context.Context, orgID, userID uuid.UUID) (*models.OrgSeat, error) {
	seat, ok := f.seats[seatKey(orgID, userID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return seat, nil
}

type fixture struct {
	repo     *fakeRepo
	outbox   *fakeOutbox
	credits  *fakeCredits
	timeline *fakeTimeline
	seats    *fakeSeats
	svc      Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newFakeRepo(),
		outbox:   &fakeOutbox{},
		credits:  &fakeCredits{packages: map[uuid.UUID]*models.CorporatePackage{}},
		timeline: &fakeTimeline{},
		seats:    &fakeSeats{seats: map[string]*models.OrgSeat{}},
	}
	svc, err := NewService(f.repo, fakeTxRunner{}, f.outbox, f.credits, f.timeline, f.seats, nil, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	f.svc = svc
	return f
}

func staffActor() Actor {
	return Actor{UserID: uuid.New(), Role: enums.UserRoleStaff}
}

func adminActor() Actor {
	return Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
}

func (f *fixture) seedBooking(booking *models.Booking) *models.Booking {
	return f.repo.put(booking)
}

func (f *fixture) seedPackage(orgID uuid.UUID, total, used int) uuid.UUID {
	id := uuid.New()
	f.credits.packages[id] = &models.CorporatePackage{
		ID:             id,
		OrganizationID: orgID,
		TotalCredits:   total,
		UsedCredits:    used,
		Active:         true,
	}
	return id
}

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)
	customerID := uuid.New()

	booking, err := f.svc.Create(context.Background(), CreateInput{
		ProductID:   uuid.New(),
		ScheduledAt: time.Now().Add(48 * time.Hour),
		Actor:       Actor{UserID: customerID, Role: enums.UserRoleCustomer},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if booking.Status != enums.BookingStatusPending {
		t.Fatalf("new booking should be pending, got %s", booking.Status)
	}
	if booking.CustomerID != customerID {
		t.Fatal("customer id should default to the actor")
	}
	if booking.IsCorporate {
		t.Fatal("booking without an organization must not be corporate")
	}
	if len(f.timeline.entries) != 1 || f.timeline.entries[0].Action != enums.TimelineActionCreated {
		t.Fatalf("expected CREATED timeline entry, got %+v", f.timeline.entries)
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventBookingCreated {
		t.Fatalf("expected booking_created event, got %+v", f.outbox.events)
	}
}

func TestCreateRejectsPastSchedule(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateInput{
		ProductID:   uuid.New(),
		ScheduledAt: time.Now().Add(-time.Hour),
		Actor:       Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected CodeValidation, got %v", err)
	}
}

func TestCreateCorporateRequiresActiveSeat(t *testing.T) {
	f := newFixture(t)
	orgID := uuid.New()
	customerID := uuid.New()

	input := CreateInput{
		ProductID:      uuid.New(),
		ScheduledAt:    time.Now().Add(48 * time.Hour),
		OrganizationID: &orgID,
		Actor:          Actor{UserID: customerID, Role: enums.UserRoleCorporateMember, OrganizationID: &orgID},
	}

	if _, err := f.svc.Create(context.Background(), input); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("no seat: expected CodeForbidden, got %v", err)
	}

	f.seats.seats[seatKey(orgID, customerID)] = &models.OrgSeat{IsActive: false}
	if _, err := f.svc.Create(context.Background(), input); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("inactive seat: expected CodeForbidden, got %v", err)
	}

	f.seats.seats[seatKey(orgID, customerID)] = &models.OrgSeat{IsActive: true}
	booking, err := f.svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("active seat: Create error: %v", err)
	}
	if !booking.IsCorporate {
		t.Fatal("booking under an organization must be corporate")
	}
}

func TestCreateRejectsForeignPackage(t *testing.T) {
	f := newFixture(t)
	orgID := uuid.New()
	customerID := uuid.New()
	f.seats.seats[seatKey(orgID, customerID)] = &models.OrgSeat{IsActive: true}
	packageID := f.seedPackage(uuid.New(), 10, 0)

	_, err := f.svc.Create(context.Background(), CreateInput{
		ProductID:      uuid.New(),
		ScheduledAt:    time.Now().Add(48 * time.Hour),
		OrganizationID: &orgID,
		PackageID:      &packageID,
		Actor:          Actor{UserID: customerID, Role: enums.UserRoleCorporateMember, OrganizationID: &orgID},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected CodeValidation, got %v", err)
	}
}

func TestApproveConsumesOneCredit(t *testing.T) {
	f := newFixture(t)
	orgID := uuid.New()
	packageID := f.seedPackage(orgID, 10, 0)
	booking := f.seedBooking(&models.Booking{
		CustomerID:     uuid.New(),
		OrganizationID: &orgID,
		PackageID:      &packageID,
		Status:         enums.BookingStatusPending,
		IsCorporate:    true,
	})

	approved, err := f.svc.Approve(context.Background(), TransitionInput{BookingID: booking.ID, Actor: adminActor()})
	if err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	if approved.Status != enums.BookingStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", approved.Status)
	}
	if f.credits.consumed != 1 {
		t.Fatalf("expected exactly one credit consumed, got %d", f.credits.consumed)
	}
	if len(f.timeline.entries) != 1 || f.timeline.entries[0].Action != enums.TimelineActionApproved {
		t.Fatalf("expected APPROVED timeline entry, got %+v", f.timeline.entries)
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventBookingApproved {
		t.Fatalf("expected booking_approved event, got %+v", f.outbox.events)
	}
}

func TestApproveTwiceFailsWithoutSecondDeduction(t *testing.T) {
	f := newFixture(t)
	orgID := uuid.New()
	packageID := f.seedPackage(orgID, 10, 0)
	booking := f.seedBooking(&models.Booking{
		CustomerID:     uuid.New(),
		OrganizationID: &orgID,
		PackageID:      &packageID,
		Status:         enums.BookingStatusPending,
		IsCorporate:    true,
	})

	if _, err := f.svc.Approve(context.Background(), TransitionInput{BookingID: booking.ID, Actor: adminActor()}); err != nil {
		t.Fatalf("first Approve error: %v", err)
	}
	_, err := f.svc.Approve(context.Background(), TransitionInput{BookingID: booking.ID, Actor: adminActor()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("second Approve: expected CodeStateConflict, got %v", err)
	}
	if f.credits.consumed != 1 {
		t.Fatalf("second Approve must not consume a credit, total consumed %d", f.credits.consumed)
	}
	if len(f.timeline.entries) != 1 {
		t.Fatalf("failed Approve must not append an audit entry, got %d", len(f.timeline.entries))
	}
}

func TestApproveExhaustedPackageLeavesBookingPending(t *testing.T) {
	f := newFixture(t)
	orgID := uuid.New()
	packageID := f.seedPackage(orgID, 5, 5)
	booking := f.seedBooking(&models.Booking{
		CustomerID:     uuid.New(),
		OrganizationID: &orgID,
		PackageID:      &packageID,
		Status:         enums.BookingStatusPending,
		IsCorporate:    true,
	})

	_, err := f.svc.Approve(context.Background(), TransitionInput{BookingID: booking.ID, Actor: adminActor()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeCreditExhausted) {
		t.Fatalf("expected CodeCreditExhausted, got %v", err)
	}
	stored := f.repo.bookings[booking.ID]
	if stored.Status != enums.BookingStatusPending {
		t.Fatalf("booking must stay pending, got %s", stored.Status)
	}
	if len(f.timeline.entries) != 0 {
		t.Fatal("no audit entry for a failed approval")
	}
	if len(f.outbox.events) != 0 {
		t.Fatal("no event for a failed approval")
	}
}

func TestApproveRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	orgID := uuid.New()
	packageID := f.seedPackage(orgID, 10, 0)
	booking := f.seedBooking(&models.Booking{
		CustomerID:     uuid.New(),
		OrganizationID: &orgID,
		PackageID:      &packageID,
		Status:         enums.BookingStatusPending,
		IsCorporate:    true,
	})

	for _, role := range []enums.UserRole{enums.UserRoleStaff, enums.UserRoleCorporateAdmin} {
		_, err := f.svc.Approve(context.Background(), TransitionInput{
			BookingID: booking.ID,
			Actor:     Actor{UserID: uuid.New(), Role: role},
		})
		if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
			t.Fatalf("role %s: expected CodeForbidden, got %v", role, err)
		}
	}
	if f.credits.consumed != 0 {
		t.Fatalf("a refused approval must not consume credits, got %d", f.credits.consumed)
	}
	if f.repo.bookings[booking.ID].Status != enums.BookingStatusPending {
		t.Fatal("booking must stay pending")
	}
}

func TestRejectRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	booking := f.seedBooking(&models.Booking{CustomerID: uuid.New(), Status: enums.BookingStatusPending})

	_, err := f.svc.Reject(context.Background(), TransitionInput{BookingID: booking.ID, Actor: adminActor()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected CodeForbidden, got %v", err)
	}
	if f.repo.bookings[booking.ID].Status != enums.BookingStatusPending {
		t.Fatal("booking must stay pending")
	}
}

func TestRejectPendingBooking(t *testing.T) {
	f := newFixture(t)
	booking := f.seedBooking(&models.Booking{CustomerID: uuid.New(), Status: enums.BookingStatusPending})

	rejected, err := f.svc.Reject(context.Background(), TransitionInput{
		BookingID: booking.ID,
		Reason:    "slot unavailable",
		Actor:     adminActor(),
	})
	if err != nil {
		t.Fatalf("Reject error: %v", err)
	}
	if rejected.Status != enums.BookingStatusCancelled {
		t.Fatalf("expected cancelled, got %s", rejected.Status)
	}
	if len(f.timeline.entries) != 1 || f.timeline.entries[0].Details != "slot unavailable" {
		t.Fatalf("expected REJECTED entry with reason, got %+v", f.timeline.entries)
	}
}

func TestRejectConfirmedBookingFailsSilently(t *testing.T) {
	f := newFixture(t)
	booking := f.seedBooking(&models.Booking{CustomerID: uuid.New(), Status: enums.BookingStatusConfirmed})

	_, err := f.svc.Reject(context.Background(), TransitionInput{BookingID: booking.ID, Actor: adminActor()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected CodeStateConflict, got %v", err)
	}
	if len(f.timeline.entries) != 0 {
		t.Fatal("a refused rejection must not append an audit entry")
	}
	if f.repo.bookings[booking.ID].Status != enums.BookingStatusConfirmed {
		t.Fatal("booking must remain confirmed")
	}
}

func TestCompleteSetsCompletedAt(t *testing.T) {
	f := newFixture(t)
	booking := f.seedBooking(&models.Booking{CustomerID: uuid.New(), Status: enums.BookingStatusConfirmed})

	completed, err := f.svc.Complete(context.Background(), TransitionInput{BookingID: booking.ID, Actor: staffActor()})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if completed.Status != enums.BookingStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
	if completed.CompletedAt == nil {
		t.Fatal("completed_at must be stamped")
	}
}

func TestCompletePendingBookingAllowed(t *testing.T) {
	f := newFixture(t)
	booking := f.seedBooking(&models.Booking{CustomerID: uuid.New(), Status: enums.BookingStatusPending})

	completed, err := f.svc.Complete(context.Background(), TransitionInput{BookingID: booking.ID, Actor: staffActor()})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if completed.Status != enums.BookingStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
}

func TestCompleteTerminalBookingRejected(t *testing.T) {
	f := newFixture(t)
	booking := f.seedBooking(&models.Booking{CustomerID: uuid.New(), Status: enums.BookingStatusCancelled})

	_, err := f.svc.Complete(context.Background(), TransitionInput{BookingID: booking.ID, Actor: staffActor()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected CodeStateConflict, got %v", err)
	}
}

func TestMarkNoShow(t *testing.T) {
	f := newFixture(t)
	booking := f.seedBooking(&models.Booking{CustomerID: uuid.New(), Status: enums.BookingStatusConfirmed})

	marked, err := f.svc.MarkNoShow(context.Background(), TransitionInput{BookingID: booking.ID, Actor: staffActor()})
	if err != nil {
		t.Fatalf("MarkNoShow error: %v", err)
	}
	if marked.Status != enums.BookingStatusNoShow {
		t.Fatalf("expected no_show, got %s", marked.Status)
	}
	if marked.CompletedAt != nil {
		t.Fatal("no_show must not stamp completed_at")
	}
}

func TestInvoiceCorporateBooking(t *testing.T) {
	f := newFixture(t)
	orgID := uuid.New()
	booking := f.seedBooking(&models.Booking{
		CustomerID:     uuid.New(),
		OrganizationID: &orgID,
		Status:         enums.BookingStatusCompleted,
		IsCorporate:    true,
	})

	invoiced, err := f.svc.Invoice(context.Background(), TransitionInput{BookingID: booking.ID, Actor: staffActor()})
	if err != nil {
		t.Fatalf("Invoice error: %v", err)
	}
	if invoiced.Status != enums.BookingStatusInvoiced {
		t.Fatalf("expected invoiced, got %s", invoiced.Status)
	}
	if invoiced.InvoiceNumber == nil || !strings.HasPrefix(*invoiced.InvoiceNumber, fmt.Sprintf("INV-%d-", time.Now().Year())) {
		t.Fatalf("unexpected invoice number %v", invoiced.InvoiceNumber)
	}
	if invoiced.InvoiceSentAt == nil {
		t.Fatal("invoice_sent_at must be stamped")
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventBookingInvoiced {
		t.Fatalf("expected booking_invoiced event, got %+v", f.outbox.events)
	}
}

func TestInvoiceNoShowBooking(t *testing.T) {
	f := newFixture(t)
	booking := f.seedBooking(&models.Booking{
		CustomerID:  uuid.New(),
		Status:      enums.BookingStatusNoShow,
		IsCorporate: true,
	})

	invoiced, err := f.svc.Invoice(context.Background(), TransitionInput{BookingID: booking.ID, Actor: staffActor()})
	if err != nil {
		t.Fatalf("Invoice error: %v", err)
	}
	if invoiced.Status != enums.BookingStatusInvoiced {
		t.Fatalf("expected invoiced, got %s", invoiced.Status)
	}
}

func TestInvoiceNonCorporateRejected(t *testing.T) {
	f := newFixture(t)
	booking := f.seedBooking(&models.Booking{CustomerID: uuid.New(), Status: enums.BookingStatusCompleted})

	_, err := f.svc.Invoice(context.Background(), TransitionInput{BookingID: booking.ID, Actor: staffActor()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidOperation) {
		t.Fatalf("expected CodeInvalidOperation, got %v", err)
	}
}

func TestInvoiceConfirmedBooking(t *testing.T) {
	f := newFixture(t)
	booking := f.seedBooking(&models.Booking{
		CustomerID:  uuid.New(),
		Status:      enums.BookingStatusConfirmed,
		IsCorporate: true,
	})

	invoiced, err := f.svc.Invoice(context.Background(), TransitionInput{BookingID: booking.ID, Actor: staffActor()})
	if err != nil {
		t.Fatalf("Invoice error: %v", err)
	}
	if invoiced.Status != enums.BookingStatusInvoiced {
		t.Fatalf("expected invoiced, got %s", invoiced.Status)
	}
}

func TestInvoicePendingBookingRejected(t *testing.T) {
	f := newFixture(t)
	booking := f.seedBooking(&models.Booking{
		CustomerID:  uuid.New(),
		Status:      enums.BookingStatusPending,
		IsCorporate: true,
	})

	_, err := f.svc.Invoice(context.Background(), TransitionInput{BookingID: booking.ID, Actor: staffActor()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected CodeStateConflict, got %v", err)
	}
}

func TestInvoiceNumberCollisionIsRetryable(t *testing.T) {
	f := newFixture(t)
	f.repo.claimErr = fmt.Errorf(`duplicate key value violates unique constraint "idx_bookings_invoice_number"`)
	booking := f.seedBooking(&models.Booking{
		CustomerID:  uuid.New(),
		Status:      enums.BookingStatusCompleted,
		IsCorporate: true,
	})

	_, err := f.svc.Invoice(context.Background(), TransitionInput{BookingID: booking.ID, Actor: staffActor()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected retryable CodeConflict, got %v", err)
	}
	if !pkgerrors.MetadataFor(pkgerrors.CodeConflict).Retryable {
		t.Fatal("invoice collisions must surface as retryable")
	}
}

func TestCloneCopiesBooking(t *testing.T) {
	f := newFixture(t)
	orgID := uuid.New()
	packageID := uuid.New()
	customerID := uuid.New()
	source := f.seedBooking(&models.Booking{
		CustomerID:     customerID,
		ProductID:      uuid.New(),
		OrganizationID: &orgID,
		PackageID:      &packageID,
		Status:         enums.BookingStatusCompleted,
		IsCorporate:    true,
		AddOns:         []models.AddOn{{ID: uuid.New()}, {ID: uuid.New()}},
	})

	newSlot := time.Now().Add(72 * time.Hour)
	clone, err := f.svc.Clone(context.Background(), CloneInput{
		BookingID:   source.ID,
		ScheduledAt: newSlot,
		Actor:       Actor{UserID: customerID, Role: enums.UserRoleCorporateMember},
	})
	if err != nil {
		t.Fatalf("Clone error: %v", err)
	}
	if clone.ID == source.ID {
		t.Fatal("clone must be a new booking")
	}
	if clone.Status != enums.BookingStatusPending {
		t.Fatalf("clone must start pending, got %s", clone.Status)
	}
	if clone.ProductID != source.ProductID || !clone.IsCorporate || clone.PackageID == nil || *clone.PackageID != packageID {
		t.Fatalf("clone did not copy source fields: %+v", clone)
	}
	if len(clone.AddOns) != 2 {
		t.Fatalf("clone must copy add-ons, got %d", len(clone.AddOns))
	}
	if clone.InvoiceNumber != nil || clone.CompletedAt != nil {
		t.Fatal("clone must not carry terminal-state fields")
	}
	if len(f.timeline.entries) != 1 || f.timeline.entries[0].Action != enums.TimelineActionCloned {
		t.Fatalf("expected CLONED timeline entry, got %+v", f.timeline.entries)
	}
}

func TestCloneForeignBookingForbidden(t *testing.T) {
	f := newFixture(t)
	source := f.seedBooking(&models.Booking{CustomerID: uuid.New(), Status: enums.BookingStatusCompleted})

	_, err := f.svc.Clone(context.Background(), CloneInput{
		BookingID:   source.ID,
		ScheduledAt: time.Now().Add(72 * time.Hour),
		Actor:       Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected CodeForbidden, got %v", err)
	}
}

func TestGetAuthorization(t *testing.T) {
	f := newFixture(t)
	orgID := uuid.New()
	customerID := uuid.New()
	booking := f.seedBooking(&models.Booking{
		CustomerID:     customerID,
		OrganizationID: &orgID,
		Status:         enums.BookingStatusPending,
		IsCorporate:    true,
	})

	if _, err := f.svc.Get(context.Background(), booking.ID, Actor{UserID: customerID, Role: enums.UserRoleCustomer}); err != nil {
		t.Fatalf("owner read should succeed: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), booking.ID, Actor{
		UserID: uuid.New(), Role: enums.UserRoleCorporateMember, OrganizationID: &orgID,
	}); err != nil {
		t.Fatalf("org member read should succeed: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), booking.ID, Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("stranger read: expected CodeForbidden, got %v", err)
	}
	if _, err := f.svc.Get(context.Background(), uuid.New(), staffActor()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("missing booking: expected CodeNotFound, got %v", err)
	}
}

func TestHistoryOrderedByAppend(t *testing.T) {
	f := newFixture(t)
	booking := f.seedBooking(&models.Booking{CustomerID: uuid.New(), Status: enums.BookingStatusPending})
	admin := adminActor()

	if _, err := f.svc.Approve(context.Background(), TransitionInput{BookingID: booking.ID, Actor: admin}); err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	if _, err := f.svc.Complete(context.Background(), TransitionInput{BookingID: booking.ID, Actor: admin}); err != nil {
		t.Fatalf("Complete error: %v", err)
	}

	history, err := f.svc.History(context.Background(), booking.ID, admin)
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if len(history) != 2 ||
		history[0].Action != enums.TimelineActionApproved ||
		history[1].Action != enums.TimelineActionCompleted {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestListScopesByAuthority(t *testing.T) {
	f := newFixture(t)
	orgID := uuid.New()

	cases := []struct {
		actor Actor
		want  string
	}{
		{staffActor(), "all"},
		{Actor{UserID: uuid.New(), Role: enums.UserRoleCorporateAdmin, OrganizationID: &orgID}, "organization"},
		{Actor{UserID: uuid.New(), Role: enums.UserRoleCorporateMember, OrganizationID: &orgID}, "customer"},
		{Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}, "customer"},
	}
	for _, tc := range cases {
		f.repo.listCalls = nil
		if _, err := f.svc.List(context.Background(), tc.actor, pagination.Params{Limit: 20}, ListFilters{}); err != nil {
			t.Fatalf("List error for %s: %v", tc.actor.Role, err)
		}
		if len(f.repo.listCalls) != 1 || f.repo.listCalls[0] != tc.want {
			t.Fatalf("role %s: expected %s scope, got %+v", tc.actor.Role, tc.want, f.repo.listCalls)
		}
	}
}
