package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		buildInfo,
		personsRegisteredTotal,
		telegramUpdatesTotal,
		telegramRateLimitedTotal,
		telegramSendErrorsTotal,
	)
}

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "A constant metric with labels for version and commit hash.",
		},
		[]string{"version", "commit"},
	)

	personsRegisteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "persons_registered_total",
			Help: "Total number of chats registered through /start.",
		},
	)

	telegramUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_total",
			Help: "Incoming messages by command; plain text is labeled 'text'.",
		},
		[]string{"command"},
	)

	telegramRateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limited_total",
			Help: "Trigger commands rejected by the per-user rate limit.",
		},
	)

	telegramSendErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_send_errors_total",
			Help: "Outgoing messages the Bot API rejected.",
		},
	)
)

func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit).Set(1)
}

func IncPersonsRegistered() {
	personsRegisteredTotal.Inc()
}

func IncTelegramUpdate(command string) {
	if command == "" {
		command = "text"
	}
	telegramUpdatesTotal.WithLabelValues(norm(command)).Inc()
}

func IncRateLimited() {
	telegramRateLimitedTotal.Inc()
}

func IncSendError() {
	telegramSendErrorsTotal.Inc()
}
