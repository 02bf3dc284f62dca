package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"clusterwatch/cluster"
	"clusterwatch/engine"
	"clusterwatch/stats"
)

type fixedSource struct{ snap *engine.Snapshot }

func (f fixedSource) Snapshot() *engine.Snapshot { return f.snap }

func gather(t *testing.T, c *Collector) map[string]*dto.MetricFamily {
	t.Helper()
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestCollectorExportsSnapshotGauges(t *testing.T) {
	state := cluster.SeedState()
	state.Brokers[1].Status = cluster.StatusInactive
	health := cluster.DeriveStatus(state)
	snap := &engine.Snapshot{
		Cluster:      state,
		Health:       health,
		IsEmergency:  health.IsEmergency,
		BrokerActive: health.BrokerActive,
		Leader:       state.Leader(),
		Banner:       engine.BannerState{Visible: true},
	}
	families := gather(t, NewCollector(fixedSource{snap: snap}, nil))

	if got := families["clusterwatch_cluster_emergency"].GetMetric()[0].GetGauge().GetValue(); got != 1 {
		t.Fatalf("expected emergency gauge 1, got %v", got)
	}
	if got := families["clusterwatch_cluster_broker_active"].GetMetric()[0].GetGauge().GetValue(); got != 0 {
		t.Fatalf("expected broker_active gauge 0, got %v", got)
	}
	if got := families["clusterwatch_cluster_controller_leader"].GetMetric()[0].GetGauge().GetValue(); got != 1 {
		t.Fatalf("expected leader 1, got %v", got)
	}
	found := false
	for _, m := range families["clusterwatch_cluster_components"].GetMetric() {
		if labelValue(m, "group") == "brokers" && labelValue(m, "status") == "inactive" {
			found = true
			if m.GetGauge().GetValue() != 1 {
				t.Fatalf("expected 1 inactive broker, got %v", m.GetGauge().GetValue())
			}
		}
	}
	if !found {
		t.Fatalf("expected inactive broker series")
	}
	if _, ok := families["clusterwatch_session_toggles_total"]; ok {
		t.Fatalf("expected no tracker series without a tracker")
	}
}

func TestCollectorExportsTrackerCounters(t *testing.T) {
	tr := stats.NewTracker()
	tr.IncrementToggle("connectors", stats.OutcomeApplied)
	tr.IncrementToggle("connectors", stats.OutcomeApplied)
	tr.IncrementErrorLog("ERROR")
	tr.IncrementEmergency()
	families := gather(t, NewCollector(nil, tr))

	toggles := families["clusterwatch_session_toggles_total"].GetMetric()
	if len(toggles) != 1 || toggles[0].GetCounter().GetValue() != 2 {
		t.Fatalf("unexpected toggle series %+v", toggles)
	}
	if labelValue(toggles[0], "outcome") != "applied" {
		t.Fatalf("expected outcome label applied")
	}
	if got := families["clusterwatch_session_emergencies_total"].GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected 1 emergency, got %v", got)
	}
	if _, ok := families["clusterwatch_cluster_emergency"]; ok {
		t.Fatalf("expected no snapshot series without a source")
	}
}
