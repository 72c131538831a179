package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		notificationsSentTotal,
		dispatchRunsTotal,
		dispatchDurationSeconds,
	)
}

var (
	notificationsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notification messages by kind and delivery status.",
		},
		[]string{"kind", "status"}, // kind: events|birthday_group|birthday_individual, status: sent|failed
	)

	dispatchRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_runs_total",
			Help: "Notification checks run, labeled by trigger source.",
		},
		[]string{"check", "source"}, // source: command|http|cron
	)

	dispatchDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_duration_seconds",
			Help:    "Duration of a full notification check.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"check"},
	)
)

func AddNotifications(kind string, sent, failed int) {
	notificationsSentTotal.WithLabelValues(norm(kind), "sent").Add(float64(sent))
	notificationsSentTotal.WithLabelValues(norm(kind), "failed").Add(float64(failed))
}

func IncDispatchRun(check, source string) {
	dispatchRunsTotal.WithLabelValues(norm(check), norm(source)).Inc()
}

func ObserveDispatchDuration(check string, seconds float64) {
	dispatchDurationSeconds.WithLabelValues(norm(check)).Observe(seconds)
}
