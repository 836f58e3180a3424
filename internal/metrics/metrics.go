// Package metrics exposes plugin registry activity to Prometheus.
package metrics

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vrsandeep/plugin-host/internal/registry"
)

const namespace = "plugin_host"

// Collector is a registry Reporter and ScanObserver that keeps Prometheus
// metrics in its own registry.
type Collector struct {
	reg *prometheus.Registry

	outcomes     *prometheus.CounterVec
	scans        prometheus.Counter
	scanDuration prometheus.Histogram
}

var (
	_ registry.Reporter     = (*Collector)(nil)
	_ registry.ScanObserver = (*Collector)(nil)
)

// New registers the collector's metrics. activeCount backs the active plugin
// gauge and may be nil.
func New(activeCount func() int) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	c := &Collector{
		reg: reg,
		outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plugin_outcomes_total",
				Help:      "Plugin lifecycle outcomes by resulting state and error kind",
			},
			[]string{"state", "kind"},
		),
		scans: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Completed plugin directory scans",
		}),
		scanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Duration of plugin directory scans",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if activeCount != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_plugins",
			Help:      "Plugins currently active",
		}, func() float64 { return float64(activeCount()) })
	}
	reg.MustRegister(collectors.NewGoCollector())
	return c
}

// WatchDB exports connection pool statistics for db.
func (c *Collector) WatchDB(db *sql.DB, name string) {
	c.reg.MustRegister(collectors.NewDBStatsCollector(db, name))
}

func (c *Collector) Report(o registry.Outcome) {
	c.outcomes.WithLabelValues(string(o.State), o.Kind).Inc()
}

func (c *Collector) ScanCompleted(report *registry.ScanReport) {
	c.scans.Inc()
	c.scanDuration.Observe(report.Duration.Seconds())
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

// Handler serves the collected metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{Registry: c.reg})
}
