// Package metrics exports session state and activity counters to Prometheus.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"clusterwatch/cluster"
	"clusterwatch/engine"
	"clusterwatch/stats"
)

const namespace = "clusterwatch"

// SnapshotSource is satisfied by *engine.Session.
type SnapshotSource interface {
	Snapshot() *engine.Snapshot
}

// Collector reads the latest snapshot and the tracker at scrape time, so
// nothing is pushed from the session loop.
type Collector struct {
	source  SnapshotSource
	tracker *stats.Tracker

	emergency     *prometheus.Desc
	brokerActive  *prometheus.Desc
	bannerVisible *prometheus.Desc
	components    *prometheus.Desc
	leader        *prometheus.Desc
	alerts        *prometheus.Desc
	unreadAlerts  *prometheus.Desc
	errorLogs     *prometheus.Desc
	throughput    *prometheus.Desc
	latency       *prometheus.Desc
	toggles       *prometheus.Desc
	alertsTotal   *prometheus.Desc
	errorLogTotal *prometheus.Desc
	samplesTotal  *prometheus.Desc
	emergencies   *prometheus.Desc
}

// NewCollector builds a collector over source and tracker. Either may be nil.
func NewCollector(source SnapshotSource, tracker *stats.Tracker) *Collector {
	name := func(subsystem, metric string) string {
		return prometheus.BuildFQName(namespace, subsystem, metric)
	}
	return &Collector{
		source:  source,
		tracker: tracker,
		emergency: prometheus.NewDesc(name("cluster", "emergency"),
			"1 when any component in any group is not active", nil, nil),
		brokerActive: prometheus.NewDesc(name("cluster", "broker_active"),
			"1 when no broker is inactive", nil, nil),
		bannerVisible: prometheus.NewDesc(name("cluster", "banner_visible"),
			"1 while the emergency banner is shown", nil, nil),
		components: prometheus.NewDesc(name("cluster", "components"),
			"Components per group and status", []string{"group", "status"}, nil),
		leader: prometheus.NewDesc(name("cluster", "controller_leader"),
			"ID of the leading controller, 0 when none", nil, nil),
		alerts: prometheus.NewDesc(name("alerts", "retained"),
			"Alerts currently retained", nil, nil),
		unreadAlerts: prometheus.NewDesc(name("alerts", "unread"),
			"Retained alerts not yet read", nil, nil),
		errorLogs: prometheus.NewDesc(name("error_log", "retained"),
			"Error log lines currently retained", nil, nil),
		throughput: prometheus.NewDesc(name("topics", "messages_per_second_mean"),
			"Mean messages per second over retained samples", nil, nil),
		latency: prometheus.NewDesc(name("topics", "latency_ms_mean"),
			"Mean latency in milliseconds over retained samples", nil, nil),
		toggles: prometheus.NewDesc(name("session", "toggles_total"),
			"Toggle requests by group and outcome", []string{"group", "outcome"}, nil),
		alertsTotal: prometheus.NewDesc(name("session", "alerts_total"),
			"Alerts raised by severity", []string{"severity"}, nil),
		errorLogTotal: prometheus.NewDesc(name("session", "error_log_lines_total"),
			"Synthetic error log lines by level", []string{"level"}, nil),
		samplesTotal: prometheus.NewDesc(name("session", "topic_samples_total"),
			"Throughput samples generated", nil, nil),
		emergencies: prometheus.NewDesc(name("session", "emergencies_total"),
			"Transitions into emergency", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.emergency, c.brokerActive, c.bannerVisible, c.components, c.leader,
		c.alerts, c.unreadAlerts, c.errorLogs, c.throughput, c.latency,
		c.toggles, c.alertsTotal, c.errorLogTotal, c.samplesTotal, c.emergencies,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.source != nil {
		if snap := c.source.Snapshot(); snap != nil {
			c.collectSnapshot(ch, snap)
		}
	}
	if c.tracker != nil {
		c.collectTracker(ch)
	}
}

func (c *Collector) collectSnapshot(ch chan<- prometheus.Metric, snap *engine.Snapshot) {
	ch <- prometheus.MustNewConstMetric(c.emergency, prometheus.GaugeValue, boolValue(snap.IsEmergency))
	ch <- prometheus.MustNewConstMetric(c.brokerActive, prometheus.GaugeValue, boolValue(snap.BrokerActive))
	ch <- prometheus.MustNewConstMetric(c.bannerVisible, prometheus.GaugeValue, boolValue(snap.Banner.Visible))
	for _, gh := range snap.Health.Groups {
		group := string(gh.Group)
		ch <- prometheus.MustNewConstMetric(c.components, prometheus.GaugeValue, float64(gh.Active), group, string(cluster.StatusActive))
		ch <- prometheus.MustNewConstMetric(c.components, prometheus.GaugeValue, float64(gh.Total-gh.Active), group, string(cluster.StatusInactive))
	}
	ch <- prometheus.MustNewConstMetric(c.leader, prometheus.GaugeValue, float64(snap.Leader))
	ch <- prometheus.MustNewConstMetric(c.alerts, prometheus.GaugeValue, float64(len(snap.Alerts)))
	ch <- prometheus.MustNewConstMetric(c.unreadAlerts, prometheus.GaugeValue, float64(snap.AlertSummary.Unread))
	ch <- prometheus.MustNewConstMetric(c.errorLogs, prometheus.GaugeValue, float64(len(snap.ErrorLogs)))
	ch <- prometheus.MustNewConstMetric(c.throughput, prometheus.GaugeValue, snap.Throughput.MeanMessagesPerSecond)
	ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, snap.Throughput.MeanLatency)
}

func (c *Collector) collectTracker(ch chan<- prometheus.Metric) {
	for key, n := range c.tracker.GetToggleCounts() {
		group, outcome, ok := strings.Cut(key, "|")
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.toggles, prometheus.CounterValue, float64(n), group, outcome)
	}
	for severity, n := range c.tracker.GetAlertCounts() {
		ch <- prometheus.MustNewConstMetric(c.alertsTotal, prometheus.CounterValue, float64(n), severity)
	}
	for level, n := range c.tracker.GetErrorLogCounts() {
		ch <- prometheus.MustNewConstMetric(c.errorLogTotal, prometheus.CounterValue, float64(n), level)
	}
	ch <- prometheus.MustNewConstMetric(c.samplesTotal, prometheus.CounterValue, float64(c.tracker.TopicSamples()))
	ch <- prometheus.MustNewConstMetric(c.emergencies, prometheus.CounterValue, float64(c.tracker.Emergencies()))
}

// NewRegistry returns a registry holding the collector plus the Go runtime
// and process collectors.
func NewRegistry(c *Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
