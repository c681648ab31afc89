package bookings

import (
	"time"

	"github.com/google/uuid"

	"github.com/selfydev/selfy-backend/pkg/enums"
	"github.com/selfydev/selfy-backend/pkg/outbox"
)

// Actor identifies the caller of a booking operation.
type Actor struct {
	UserID         uuid.UUID
	Role           enums.UserRole
	OrganizationID *uuid.UUID
}

// CreateInput captures a new booking request.
type CreateInput struct {
	CustomerID     uuid.UUID
	ProductID      uuid.UUID
	ScheduledAt    time.Time
	OrganizationID *uuid.UUID
	PackageID      *uuid.UUID
	QuoteRequested bool
	AddOnIDs       []uuid.UUID
	Notes          *string
	Actor          Actor
}

// TransitionInput carries the data required for a lifecycle transition.
type TransitionInput struct {
	BookingID uuid.UUID
	Reason    string
	Actor     Actor
}

// CloneInput requests a new pending booking copied from an existing one.
type CloneInput struct {
	BookingID   uuid.UUID
	ScheduledAt time.Time
	Actor       Actor
}

func buildActor(actor Actor) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID:         actor.UserID,
		OrganizationID: actor.OrganizationID,
		Role:           string(actor.Role),
	}
}
