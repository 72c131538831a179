// Package metrics holds the Prometheus collectors of the bot. Each file
// enqueues its collectors from init; MustRegister publishes them.
package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pending      []prometheus.Collector
	registerOnce sync.Once
)

func register(cs ...prometheus.Collector) { pending = append(pending, cs...) }

// MustRegister adds every enqueued collector to the default registry. Later
// calls are no-ops.
func MustRegister() {
	registerOnce.Do(func() { prometheus.MustRegister(pending...) })
}

// norm keeps label values stable regardless of input casing.
func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
