package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder carries the dashboard's Prometheus collectors.
type Recorder struct {
	Transitions          *prometheus.CounterVec
	TransitionRejections *prometheus.CounterVec
	Logins               *prometheus.CounterVec
	Searches             *prometheus.CounterVec
	Notifications        prometheus.Counter
}

// New creates the collectors and registers them on reg. A nil registerer
// leaves them unregistered.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanflow_transitions_total",
				Help: "Borrower status transitions applied, by action",
			},
			[]string{"action"},
		),
		TransitionRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanflow_transition_rejections_total",
				Help: "Borrower status transitions rejected, by action",
			},
			[]string{"action"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanflow_logins_total",
				Help: "Login attempts, by result",
			},
			[]string{"result"},
		),
		Searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanflow_searches_total",
				Help: "Borrower searches, by result",
			},
			[]string{"result"},
		),
		Notifications: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "loanflow_notifications_total",
				Help: "Notifications appended to dashboard logs",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(r.Transitions, r.TransitionRejections, r.Logins, r.Searches, r.Notifications)
	}
	return r
}

// Nop returns unregistered collectors for callers that do not export metrics.
func Nop() *Recorder {
	return New(nil)
}
