package intentpool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	acquireTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otto_pool_acquire_total",
		Help: "Processor acquisitions by model and result (hit, miss, error)",
	}, []string{"model", "result"})

	evictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otto_pool_evictions_total",
		Help: "Idle processors evicted to make room for another model, by evicted model",
	}, []string{"model"})

	idleWorkers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "otto_pool_idle_workers",
		Help: "Idle processors by model",
	}, []string{"model"})
)
