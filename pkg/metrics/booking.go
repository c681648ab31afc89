package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics tracks lifecycle transition outcomes.
type BookingMetrics struct {
	transitions *prometheus.CounterVec
	rejected    *prometheus.CounterVec
}

// NewBookingMetrics registers booking transition metrics on the provided registerer.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	if reg == nil {
		return &BookingMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_transitions_total",
		Help: "Booking status transitions applied, labeled by target status.",
	}, []string{"to_status"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_transitions_rejected_total",
		Help: "Booking transitions refused, labeled by error code.",
	}, []string{"code"})
	reg.MustRegister(transitions, rejected)
	return &BookingMetrics{
		transitions: transitions,
		rejected:    rejected,
	}
}

// IncTransition records a successful transition into the given status.
func (b *BookingMetrics) IncTransition(toStatus string) {
	if b == nil || b.transitions == nil {
		return
	}
	b.transitions.WithLabelValues(normalizeLabel(toStatus)).Inc()
}

// IncRejected records a transition refused with the given error code.
func (b *BookingMetrics) IncRejected(code string) {
	if b == nil || b.rejected == nil {
		return
	}
	b.rejected.WithLabelValues(normalizeLabel(code)).Inc()
}
