package timeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/selfydev/selfy-backend/pkg/db/models"
	"github.com/selfydev/selfy-backend/pkg/enums"
)

type fakeRepository struct {
	createFn func(ctx context.Context, entry *models.TimelineEntry) error
	listFn   func(ctx context.Context, bookingID uuid.UUID) ([]models.TimelineEntry, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, entry *models.TimelineEntry) error {
	if f.createFn != nil {
		return f.createFn(ctx, entry)
	}
	return nil
}

func (f *fakeRepository) ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.TimelineEntry, error) {
	if f.listFn != nil {
		return f.listFn(ctx, bookingID)
	}
	return nil, nil
}

func TestService_Append(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	input := AppendInput{
		BookingID: uuid.New(),
		ActorID:   uuid.New(),
		Action:    enums.TimelineActionApproved,
		Details:   "approved by staff",
	}

	var created *models.TimelineEntry
	repo.createFn = func(ctx context.Context, entry *models.TimelineEntry) error {
		created = entry
		return nil
	}

	got, err := svc.Append(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if created == nil {
		t.Fatal("expected timeline entry to be created")
	}
	if created.BookingID != input.BookingID || created.ActorID != input.ActorID || created.Action != input.Action {
		t.Fatalf("unexpected entry data: %+v", created)
	}
	if created.Details != input.Details {
		t.Fatalf("details mismatch: %q", created.Details)
	}
	if got != created {
		t.Fatal("service should return created entry")
	}
}

func TestService_AppendValidation(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	tests := []struct {
		name  string
		input AppendInput
	}{
		{
			name: "missing booking id",
			input: AppendInput{
				ActorID: uuid.New(),
				Action:  enums.TimelineActionCreated,
			},
		},
		{
			name: "missing actor id",
			input: AppendInput{
				BookingID: uuid.New(),
				Action:    enums.TimelineActionCreated,
			},
		},
		{
			name: "invalid action",
			input: AppendInput{
				BookingID: uuid.New(),
				ActorID:   uuid.New(),
				Action:    enums.TimelineAction("DELETED"),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Append(context.Background(), nil, tc.input); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestService_AppendPropagatesRepoError(t *testing.T) {
	wantErr := errors.New("insert failed")
	repo := &fakeRepository{
		createFn: func(ctx context.Context, entry *models.TimelineEntry) error {
			return wantErr
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	_, err = svc.Append(context.Background(), nil, AppendInput{
		BookingID: uuid.New(),
		ActorID:   uuid.New(),
		Action:    enums.TimelineActionCreated,
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected repo error, got %v", err)
	}
}

func TestService_History(t *testing.T) {
	bookingID := uuid.New()
	repo := &fakeRepository{
		listFn: func(ctx context.Context, id uuid.UUID) ([]models.TimelineEntry, error) {
			if id != bookingID {
				t.Fatalf("unexpected booking id %s", id)
			}
			return []models.TimelineEntry{
				{Action: enums.TimelineActionCreated},
				{Action: enums.TimelineActionApproved},
			}, nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	entries, err := svc.History(context.Background(), bookingID)
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}
