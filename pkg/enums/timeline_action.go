package enums

// TimelineAction labels an entry in a booking's append-only audit trail.
type TimelineAction string

const (
	TimelineActionCreated        TimelineAction = "CREATED"
	TimelineActionApproved       TimelineAction = "APPROVED"
	TimelineActionRejected       TimelineAction = "REJECTED"
	TimelineActionCompleted      TimelineAction = "COMPLETED"
	TimelineActionNoShow         TimelineAction = "NO_SHOW"
	TimelineActionInvoiced       TimelineAction = "INVOICED"
	TimelineActionCloned         TimelineAction = "CLONED"
	TimelineActionPaymentCreated TimelineAction = "PAYMENT_CREATED"
)

var validTimelineActions = []TimelineAction{
	TimelineActionCreated,
	TimelineActionApproved,
	TimelineActionRejected,
	TimelineActionCompleted,
	TimelineActionNoShow,
	TimelineActionInvoiced,
	TimelineActionCloned,
	TimelineActionPaymentCreated,
}

// String implements fmt.Stringer.
func (t TimelineAction) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TimelineAction.
func (t TimelineAction) IsValid() bool {
	for _, candidate := range validTimelineActions {
		if candidate == t {
			return true
		}
	}
	return false
}
