package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateBooking          OutboxAggregateType = "booking"
	AggregateCorporatePackage OutboxAggregateType = "corporate_package"
	AggregateOrgSeat          OutboxAggregateType = "org_seat"
	AggregatePayment          OutboxAggregateType = "payment"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateBooking,
	AggregateCorporatePackage,
	AggregateOrgSeat,
	AggregatePayment,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventBookingCreated   OutboxEventType = "booking_created"
	EventBookingApproved  OutboxEventType = "booking_approved"
	EventBookingRejected  OutboxEventType = "booking_rejected"
	EventBookingCompleted OutboxEventType = "booking_completed"
	EventBookingNoShow    OutboxEventType = "booking_no_show"
	EventBookingInvoiced  OutboxEventType = "booking_invoiced"
	EventBookingCloned    OutboxEventType = "booking_cloned"
	EventPackageExpired   OutboxEventType = "package_expired"
	EventPaymentCreated   OutboxEventType = "payment_created"
	EventSeatAssigned     OutboxEventType = "seat_assigned"
	EventSeatRemoved      OutboxEventType = "seat_removed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventBookingCreated,
	EventBookingApproved,
	EventBookingRejected,
	EventBookingCompleted,
	EventBookingNoShow,
	EventBookingInvoiced,
	EventBookingCloned,
	EventPackageExpired,
	EventPaymentCreated,
	EventSeatAssigned,
	EventSeatRemoved,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
