package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(hookRequestsTotal) }

var hookRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hook_requests_total",
		Help: "HTTP hook requests by route and status code.",
	},
	[]string{"route", "code"},
)

func IncHookRequest(route, code string) {
	hookRequestsTotal.WithLabelValues(route, code).Inc()
}
