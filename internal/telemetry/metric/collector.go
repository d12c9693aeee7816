package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PendingCounter returns the number of swaps waiting for a round.
type PendingCounter func(ctx context.Context) (int, error)

// PendingCollector reports the pending swap count at scrape time.
type PendingCollector struct {
	count   PendingCounter
	timeout time.Duration
	desc    *prometheus.Desc
}

// NewPendingCollector creates a collector backed by count.
func NewPendingCollector(count PendingCounter) *PendingCollector {
	return &PendingCollector{
		count:   count,
		timeout: 5 * time.Second,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "swaps", "pending"),
			"Swaps accepted and waiting for the next round",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *PendingCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *PendingCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	n, err := c.count(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.desc, err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n))
}
