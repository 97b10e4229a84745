package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ProfilesSubmitted    prometheus.Counter
	DisclosuresRequested prometheus.Counter
	ProfilesDisclosed    prometheus.Counter
	CallbacksRejected    prometheus.Counter
	PendingDisclosures   prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		ProfilesSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_profiles_submitted_total",
			Help: "Total number of encrypted profiles submitted to the vault",
		}),
		DisclosuresRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_profile_disclosures_requested_total",
			Help: "Total number of full-profile disclosure requests issued",
		}),
		ProfilesDisclosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_profiles_disclosed_total",
			Help: "Total number of profiles whose cleartext was disclosed",
		}),
		CallbacksRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_profile_callbacks_rejected_total",
			Help: "Total number of disclosure callbacks rejected (unknown request, bad proof, arity mismatch)",
		}),
		PendingDisclosures: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sigil_profile_pending_disclosures",
			Help: "Current number of profiles awaiting a disclosure callback",
		}),
	}
}

func (m *Metrics) IncrementProfilesSubmitted()    { m.ProfilesSubmitted.Inc() }
func (m *Metrics) IncrementProfilesDisclosed() {
	m.ProfilesDisclosed.Inc()
	m.PendingDisclosures.Dec()
}
func (m *Metrics) IncrementDisclosuresRequested() {
	m.DisclosuresRequested.Inc()
	m.PendingDisclosures.Inc()
}
func (m *Metrics) IncrementCallbacksRejected() { m.CallbacksRejected.Inc() }
