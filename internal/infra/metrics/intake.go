package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		intakeStepsTotal,
		eventsCreatedTotal,
		intakeAbortedTotal,
	)
}

var (
	intakeStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_steps_total",
			Help: "Intake conversation messages by input kind and outcome.",
		},
		[]string{"input", "outcome"}, // outcome: started|advanced|rejected|saved|ignored|...
	)

	eventsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "events_created_total",
			Help: "Total number of events persisted from confirmed drafts.",
		},
	)

	intakeAbortedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_aborted_total",
			Help: "Intake conversations that ended without an event.",
		},
		[]string{"reason"}, // cancelled|stopped|denied
	)
)

func IncIntakeStep(input, outcome string) {
	intakeStepsTotal.WithLabelValues(norm(input), norm(outcome)).Inc()
}

func IncEventsCreated() {
	eventsCreatedTotal.Inc()
}

func IncIntakeAborted(reason string) {
	intakeAbortedTotal.WithLabelValues(norm(reason)).Inc()
}
