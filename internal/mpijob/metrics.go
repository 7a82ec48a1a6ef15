package mpijob

import "github.com/prometheus/client_golang/prometheus"

var (
	refreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mpijob",
			Subsystem: "client",
			Name:      "refresh_total",
			Help:      "Job snapshot refreshes by result",
		},
		[]string{"result"},
	)

	phaseTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mpijob",
			Subsystem: "client",
			Name:      "phase_transitions_total",
			Help:      "Phase changes observed while monitoring jobs",
		},
		[]string{"phase"},
	)

	storeCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mpijob",
			Subsystem: "client",
			Name:      "operations_total",
			Help:      "Client operations by kind and result",
		},
		[]string{"op", "result"},
	)
)

func init() {
	prometheus.MustRegister(refreshTotal, phaseTransitionsTotal, storeCallsTotal)
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func observeOp(op string, err error) {
	storeCallsTotal.WithLabelValues(op, resultLabel(err)).Inc()
}
