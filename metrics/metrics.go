// Package metrics exports match statistics to Prometheus.
//
// [Recorder] implements [referee.Observer]; pass it to [referee.WithObserver].
// [Serve] exposes a registry on /metrics for scraping during long tournaments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmora/referee"
)

const namespace = "referee"

// Recorder counts turns and outcomes.
type Recorder struct {
	matches  *prometheus.CounterVec
	moves    *prometheus.CounterVec
	disqual  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ referee.Observer = (*Recorder)(nil)

// New creates a Recorder and registers its collectors with reg.
// Panics if the collectors are already registered, like prometheus.MustRegister.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		matches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "matches_total",
				Help:      "Matches played, by how they ended",
			},
			[]string{"outcome"},
		),
		moves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "moves_total",
				Help:      "Validated responses, by agent",
			},
			[]string{"agent"},
		),
		disqual: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "disqualifications_total",
				Help:      "Disqualifications, by agent and cause",
			},
			[]string{"agent", "cause"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "turn_duration_seconds",
				Help:      "Time from sending a move to receiving the reply",
				Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2, 5, 10},
			},
			[]string{"agent", "tier"},
		),
	}
	reg.MustRegister(r.matches, r.moves, r.disqual, r.duration)
	return r
}

// TurnCompleted records one validated response.
func (r *Recorder) TurnCompleted(agent, _ string, timing referee.TurnTiming) {
	tier := "turn"
	if timing.Startup {
		tier = "startup"
	}
	r.moves.WithLabelValues(agent).Inc()
	r.duration.WithLabelValues(agent, tier).Observe(timing.Elapsed.Seconds())
}

// MatchEnded records the outcome.
func (r *Recorder) MatchEnded(o referee.Outcome) {
	r.matches.WithLabelValues(string(o.Kind)).Inc()
	if o.Disqualified() {
		r.disqual.WithLabelValues(o.Agent, string(o.Kind)).Inc()
	}
}
