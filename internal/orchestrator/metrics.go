package orchestrator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	campaignmodels "leadflow/internal/campaign/models"
)

// Run outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

type Metrics struct {
	Runs          *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	PhaseDuration *prometheus.HistogramVec
	Prospects     *prometheus.CounterVec
}

// NewMetrics registers the run metrics with reg, or the default registerer
// when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadflow_campaign_runs_total",
			Help: "Campaign runs by outcome (succeeded, failed, rejected)",
		}, []string{"outcome"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "leadflow_campaign_run_duration_seconds",
			Help:    "Wall time of a full campaign run",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
		}),
		PhaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leadflow_campaign_phase_duration_seconds",
			Help:    "Wall time of each run phase by final status",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"phase", "status"}),
		Prospects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadflow_prospect_outcomes_total",
			Help: "Per-prospect outcomes by phase",
		}, []string{"phase", "outcome"}),
	}
}

func (m *Metrics) observeRun(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(d.Seconds())
}

func (m *Metrics) observePhase(phase campaignmodels.Phase, status campaignmodels.PhaseStatus, d time.Duration) {
	if m == nil {
		return
	}
	m.PhaseDuration.WithLabelValues(string(phase), string(status)).Observe(d.Seconds())
}

func (m *Metrics) addProspects(phase campaignmodels.Phase, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Prospects.WithLabelValues(string(phase), outcome).Add(float64(n))
}
