package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PendingCounter reports queued listens per service.
type PendingCounter interface {
	PendingCounts(ctx context.Context) (map[string]int, error)
}

var pendingDesc = prometheus.NewDesc(
	prometheus.BuildFQName(namespace, "", "pending_listens"),
	"Listens waiting in the retry queue",
	[]string{"service"}, nil,
)

// PendingCollector reads the retry queue size at scrape time.
type PendingCollector struct {
	store   PendingCounter
	timeout time.Duration
}

// NewPendingCollector creates a collector over store.
func NewPendingCollector(store PendingCounter) *PendingCollector {
	return &PendingCollector{store: store, timeout: 2 * time.Second}
}

func (c *PendingCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- pendingDesc
}

func (c *PendingCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	counts, err := c.store.PendingCounts(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(pendingDesc, err)
		return
	}
	for service, n := range counts {
		ch <- prometheus.MustNewConstMetric(pendingDesc, prometheus.GaugeValue, float64(n), service)
	}
}
