package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(poolConns) }

var poolConns = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "store_pool_connections",
		Help: "Postgres pool connections by state.",
	},
	[]string{"state"},
)

func SetDBPoolStats(total, idle, inUse int32) {
	for state, n := range map[string]int32{"total": total, "idle": idle, "acquired": inUse} {
		poolConns.WithLabelValues(state).Set(float64(n))
	}
}
