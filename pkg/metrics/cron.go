package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronJobMetrics tracks housekeeping runs per job. A nil or unregistered
// value drops every observation.
type CronJobMetrics struct {
	duration    *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	pruned      *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cron_job_duration_seconds",
			Help:    "Wall time of a single cron job run.",
			Buckets: []float64{.05, .1, .5, 1, 5, 15, 60, 300},
		}, []string{"job"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cron_job_runs_total",
			Help: "Cron job runs by result.",
		}, []string{"job", "result"}),
		pruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cron_rows_pruned_total",
			Help: "Rows deleted by retention jobs.",
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cron_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.duration, m.runs, m.pruned, m.lastSuccess)
	return m
}

func (c *CronJobMetrics) enabled() bool {
	return c != nil && c.runs != nil
}

func (c *CronJobMetrics) ObserveDuration(job string, d time.Duration) {
	if !c.enabled() {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(d.Seconds())
}

func (c *CronJobMetrics) IncSuccess(job string) {
	if !c.enabled() {
		return
	}
	job = normalizeLabel(job)
	c.runs.WithLabelValues(job, ResultOK).Inc()
	c.lastSuccess.WithLabelValues(job).SetToCurrentTime()
}

func (c *CronJobMetrics) IncFailure(job string) {
	if !c.enabled() {
		return
	}
	c.runs.WithLabelValues(normalizeLabel(job), ResultError).Inc()
}

// AddPruned ignores non-positive counts.
func (c *CronJobMetrics) AddPruned(job string, rows int64) {
	if !c.enabled() || rows <= 0 {
		return
	}
	c.pruned.WithLabelValues(normalizeLabel(job)).Add(float64(rows))
}
