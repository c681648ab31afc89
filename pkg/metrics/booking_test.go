package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name, labelValue string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var family *dto.MetricFamily
	for _, candidate := range families {
		if candidate.GetName() == name {
			family = candidate
			break
		}
	}
	if family == nil {
		return 0
	}
	for _, metric := range family.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetValue() == labelValue {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestBookingMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.IncTransition("confirmed")
	m.IncTransition("confirmed")
	m.IncRejected("STATE_CONFLICT")

	if got := counterValue(t, reg, "booking_transitions_total", "confirmed"); got != 2 {
		t.Fatalf("transitions: got %v", got)
	}
	if got := counterValue(t, reg, "booking_transitions_rejected_total", "STATE_CONFLICT"); got != 1 {
		t.Fatalf("rejected: got %v", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	m := NewBookingMetrics(nil)
	m.IncTransition("completed")

	c := NewCronJobMetrics(nil)
	c.ObserveDuration("expire_packages", time.Second)
	c.IncSuccess("expire_packages")
	c.IncFailure("")
}

func TestCronJobMetricsLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCronJobMetrics(reg)

	c.IncSuccess("expire_packages")
	c.IncFailure("")

	if got := counterValue(t, reg, "cron_job_runs_total", "expire_packages"); got != 1 {
		t.Fatalf("success: got %v", got)
	}
	if got := counterValue(t, reg, "cron_job_runs_total", "unknown"); got != 1 {
		t.Fatalf("failure fallback label: got %v", got)
	}
}
