package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AnalysesRequested    prometheus.Counter
	PlansGenerated       prometheus.Counter
	DisclosuresRequested *prometheus.CounterVec
	FieldsDisclosed      *prometheus.CounterVec
	CallbacksRejected    prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		AnalysesRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_plan_analyses_requested_total",
			Help: "Total number of learning-style analyses requested",
		}),
		PlansGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_plans_generated_total",
			Help: "Total number of learning plans submitted by the analysis service",
		}),
		DisclosuresRequested: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sigil_plan_field_disclosures_requested_total",
			Help: "Plan field disclosure requests issued, by field",
		}, []string{"field"}),
		FieldsDisclosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sigil_plan_fields_disclosed_total",
			Help: "Plan fields whose cleartext was disclosed, by field",
		}, []string{"field"}),
		CallbacksRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_plan_callbacks_rejected_total",
			Help: "Plan disclosure callbacks rejected (unknown request, bad proof)",
		}),
	}
}

func (m *Metrics) IncrementAnalysesRequested() { m.AnalysesRequested.Inc() }
func (m *Metrics) IncrementPlansGenerated()    { m.PlansGenerated.Inc() }
func (m *Metrics) IncrementDisclosuresRequested(field string) {
	m.DisclosuresRequested.WithLabelValues(field).Inc()
}
func (m *Metrics) IncrementFieldsDisclosed(field string) {
	m.FieldsDisclosed.WithLabelValues(field).Inc()
}
func (m *Metrics) IncrementCallbacksRejected() { m.CallbacksRejected.Inc() }
