package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kubev2v/threadpool/pkg/threadpool"
)

const namespace = "threadpool"

type StatsSource interface {
	Stats() threadpool.Stats
}

// PoolCollector exports one Stats snapshot per scrape.
type PoolCollector struct {
	src StatsSource

	size      *prometheus.Desc
	idle      *prometheus.Desc
	active    *prometheus.Desc
	pending   *prometheus.Desc
	submitted *prometheus.Desc
	completed *prometheus.Desc
	failed    *prometheus.Desc
}

func NewPoolCollector(src StatsSource) *PoolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil)
	}
	return &PoolCollector{
		src:       src,
		size:      desc("workers", "Number of worker threads in the pool."),
		idle:      desc("workers_idle", "Worker threads waiting for a job."),
		active:    desc("workers_active", "Worker threads running a job."),
		pending:   desc("jobs_pending", "Jobs waiting for an idle worker."),
		submitted: desc("jobs_submitted_total", "Jobs accepted by the pool."),
		completed: desc("jobs_completed_total", "Jobs that finished successfully."),
		failed:    desc("jobs_failed_total", "Jobs that failed."),
	}
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.size
	ch <- c.idle
	ch <- c.active
	ch <- c.pending
	ch <- c.submitted
	ch <- c.completed
	ch <- c.failed
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(s.Size))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.Idle))
	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(s.Active))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(s.Pending))
	ch <- prometheus.MustNewConstMetric(c.submitted, prometheus.CounterValue, float64(s.Submitted))
	ch <- prometheus.MustNewConstMetric(c.completed, prometheus.CounterValue, float64(s.Completed))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(s.Failed))
}

// NewRegistry returns a registry with the pool collector and the Go runtime
// and process collectors.
func NewRegistry(src StatsSource) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NewPoolCollector(src),
	)
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
