package ui

import (
	"strings"
	"testing"
	"time"

	"clusterwatch/alerts"
	"clusterwatch/cluster"
	"clusterwatch/engine"
	"clusterwatch/telemetry"
)

func testSnapshot(state cluster.State) *engine.Snapshot {
	h := cluster.DeriveStatus(state)
	return &engine.Snapshot{
		Cluster:      state,
		Health:       h,
		IsEmergency:  h.IsEmergency,
		BrokerActive: h.BrokerActive,
		Leader:       state.Leader(),
	}
}

func brokerDown() cluster.State {
	s := cluster.SeedState()
	s.Brokers[1].Status = cluster.StatusInactive
	return s
}

func TestFormatBanner(t *testing.T) {
	snap := testSnapshot(brokerDown())
	if got := formatBanner(snap, plainPalette); got != "" {
		t.Fatalf("expected hidden banner, got %q", got)
	}
	snap.Banner = engine.BannerState{Visible: true}
	got := formatBanner(snap, plainPalette)
	if !strings.Contains(got, "EMERGENCY: 1 broker down") {
		t.Fatalf("unexpected banner %q", got)
	}
}

func TestFormatHeaderFreshness(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	snap := testSnapshot(cluster.SeedState())
	snap.LastSampleAt = now.Add(-100 * time.Millisecond)
	got := formatHeader(snap, now, plainPalette)
	if !strings.Contains(got, "HEALTHY") || !strings.Contains(got, "Brokers 3/3") {
		t.Fatalf("unexpected header %q", got)
	}
	if !strings.Contains(got, "●") {
		t.Fatalf("expected fresh marker in %q", got)
	}
	snap.LastSampleAt = now.Add(-2 * time.Second)
	if got := formatHeader(snap, now, plainPalette); !strings.Contains(got, "○") {
		t.Fatalf("expected stale marker in %q", got)
	}

	down := testSnapshot(brokerDown())
	if got := formatHeader(down, now, plainPalette); !strings.Contains(got, "EMERGENCY") || !strings.Contains(got, "Brokers 2/3") {
		t.Fatalf("unexpected emergency header %q", got)
	}
}

func TestFormatComponentsCursor(t *testing.T) {
	snap := testSnapshot(cluster.SeedState())
	got := formatComponents(snap, 3, plainPalette)
	lines := strings.Split(got, "\n")
	var cursor []string
	for _, line := range lines {
		if strings.HasPrefix(line, "> ") {
			cursor = append(cursor, line)
		}
	}
	if len(cursor) != 1 || !strings.Contains(cursor[0], "Controller 1") || !strings.Contains(cursor[0], "leader") {
		t.Fatalf("unexpected cursor rows %q", cursor)
	}
	if !strings.Contains(got, "Schema Registry 2/2") {
		t.Fatalf("expected registry group title in %q", got)
	}
}

func TestFormatAlertsTruncatesAndMarksUnread(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	events := []alerts.Event{
		{ID: 3, Severity: alerts.SeverityError, Title: "Broker 2 Stopped", Timestamp: now.Add(-time.Minute)},
		{ID: 2, Severity: alerts.SeveritySuccess, Title: "Broker 2 Started", Timestamp: now.Add(-2 * time.Minute), IsRead: true},
		{ID: 1, Severity: alerts.SeverityInfo, Title: "old", Timestamp: now.Add(-time.Hour)},
	}
	got := formatAlerts(events, now, 2, plainPalette)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", got)
	}
	if !strings.HasPrefix(lines[0], "*error") || !strings.Contains(lines[0], "1 minute ago") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], " success") {
		t.Fatalf("unexpected read line %q", lines[1])
	}
	if got := formatAlerts(nil, now, 2, plainPalette); got != "no alerts" {
		t.Fatalf("unexpected empty rendering %q", got)
	}
}

func TestFormatThroughputAndSignatures(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	got := formatThroughput([]telemetry.TopicSample{
		{Timestamp: now, MessagesPerSecond: 12345, Latency: 4.5, TopicName: "payments", Partition: 2},
	}, 5, plainPalette)
	if !strings.Contains(got, "12,345") || !strings.Contains(got, "payments") || !strings.Contains(got, "p2") {
		t.Fatalf("unexpected throughput line %q", got)
	}
	sig := formatSignatures([]telemetry.Signature{{Source: "broker-1", Count: 3}, {Source: "zk", Count: 1}}, 1)
	if sig != "Distinct: 3x broker-1" {
		t.Fatalf("unexpected signatures %q", sig)
	}
}

func TestFormatNotice(t *testing.T) {
	if got := formatNotice(engine.Notice{}, plainPalette); got != "" {
		t.Fatalf("expected empty notice, got %q", got)
	}
	got := formatNotice(engine.Notice{Open: true, Severity: alerts.SeverityError, Message: "Invalid broker index: 7"}, plainPalette)
	if got != "Invalid broker index: 7  (Esc to dismiss)" {
		t.Fatalf("unexpected notice %q", got)
	}
}
