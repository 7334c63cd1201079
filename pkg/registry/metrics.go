package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated by a Registry. All methods
// are nil-safe so an unconfigured registry skips instrumentation.
type Metrics struct {
	ActiveForms  prometheus.Gauge
	FieldUpdates *prometheus.CounterVec
	Validations  *prometheus.CounterVec
	Submissions  *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on reg. Passing nil uses
// the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ActiveForms: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "formstate",
			Name:      "active_forms",
			Help:      "Number of form instances currently held by the registry",
		}),
		FieldUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formstate",
			Name:      "field_updates_total",
			Help:      "Field value updates by incremental validation outcome",
		}, []string{"form_id", "result"}),
		Validations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formstate",
			Name:      "validations_total",
			Help:      "Whole-form validations by outcome",
		}, []string{"form_id", "result"}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formstate",
			Name:      "submissions_total",
			Help:      "Submission attempts by outcome",
		}, []string{"form_id", "result"}),
	}
}

func (m *Metrics) setActive(n int) {
	if m == nil || m.ActiveForms == nil {
		return
	}
	m.ActiveForms.Set(float64(n))
}

func (m *Metrics) fieldUpdated(formID string, valid bool) {
	if m == nil || m.FieldUpdates == nil {
		return
	}
	m.FieldUpdates.WithLabelValues(formID, outcome(valid)).Inc()
}

func (m *Metrics) validated(formID string, valid bool) {
	if m == nil || m.Validations == nil {
		return
	}
	m.Validations.WithLabelValues(formID, outcome(valid)).Inc()
}

func (m *Metrics) submitted(formID string, valid bool) {
	if m == nil || m.Submissions == nil {
		return
	}
	m.Submissions.WithLabelValues(formID, outcome(valid)).Inc()
}

func outcome(valid bool) string {
	if valid {
		return "valid"
	}
	return "invalid"
}
