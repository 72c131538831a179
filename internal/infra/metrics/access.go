package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(accessChecks) }

var accessChecks = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "access_checks_total",
		Help: "Access decisions for restricted commands.",
	},
	[]string{"action", "result"},
)

// IncAccessCheck records one access decision for an action.
func IncAccessCheck(action string, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	accessChecks.WithLabelValues(norm(action), result).Inc()
}
