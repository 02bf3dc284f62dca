package alerts

import (
	"strings"
	"testing"
	"time"

	"clusterwatch/cluster"
)

func TestRecordTransitionSeverity(t *testing.T) {
	l := NewLog(DefaultRetention)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	stop := cluster.Transition{Group: cluster.GroupBrokers, ID: 2, From: cluster.StatusActive, To: cluster.StatusInactive}
	start := cluster.Transition{Group: cluster.GroupBrokers, ID: 2, From: cluster.StatusInactive, To: cluster.StatusActive}
	first := l.Record(stop, now)
	second := l.Record(start, now)

	if first.Severity != SeverityError || second.Severity != SeveritySuccess {
		t.Fatalf("expected error then success, got %s then %s", first.Severity, second.Severity)
	}
	if first.Title != "Broker 2 Stopped" || second.Title != "Broker 2 Started" {
		t.Fatalf("unexpected titles %q / %q", first.Title, second.Title)
	}
	if second.ID <= first.ID {
		t.Fatalf("expected monotonic ids, got %d then %d", first.ID, second.ID)
	}
	events := l.Events()
	if len(events) != 2 || events[0].ID != second.ID {
		t.Fatalf("expected newest alert first, got %+v", events)
	}
}

func TestTransitionWordingPerGroup(t *testing.T) {
	cases := []struct {
		tr    cluster.Transition
		title string
		msg   string
	}{
		{
			cluster.Transition{Group: cluster.GroupConnectors, ID: 1, Name: "mysql-sink", To: cluster.StatusActive},
			"Connector mysql-sink Started",
			"Connector mysql-sink has been started.",
		},
		{
			cluster.Transition{Group: cluster.GroupSchemaRegistry, ID: 1, Mode: cluster.ModePrimary, To: cluster.StatusInactive},
			"Schema Registry 1 (primary) Stopped",
			"Schema Registry 1 has been stopped.",
		},
		{
			cluster.Transition{Group: cluster.GroupControllers, ID: 1, To: cluster.StatusInactive, Leader: &cluster.LeaderChange{From: 1, To: 2}},
			"Controller 1 Stopped",
			"Controller 1 has been stopped. Controller 2 is now the leader.",
		},
		{
			cluster.Transition{Group: cluster.GroupControllers, ID: 3, To: cluster.StatusInactive, Leader: &cluster.LeaderChange{From: 3}},
			"Controller 3 Stopped",
			"Controller 3 has been stopped. No active controller is available to lead.",
		},
	}
	for _, tc := range cases {
		if got := TransitionTitle(tc.tr); got != tc.title {
			t.Fatalf("expected title %q, got %q", tc.title, got)
		}
		if got := TransitionMessage(tc.tr); got != tc.msg {
			t.Fatalf("expected message %q, got %q", tc.msg, got)
		}
	}
}

func TestLogRetention(t *testing.T) {
	l := NewLog(3)
	now := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		l.Append(SeverityInfo, "t", "m", now)
	}
	if l.Len() != 3 {
		t.Fatalf("expected retention cap of 3, got %d", l.Len())
	}
}

func TestMarkAllReadAndClear(t *testing.T) {
	l := NewLog(10)
	now := time.Unix(100, 0)
	l.Append(SeverityError, "a", "a", now)
	l.Append(SeverityWarning, "b", "b", now)
	before := l.Events()

	if n := l.MarkAllRead(); n != 2 {
		t.Fatalf("expected 2 alerts marked read, got %d", n)
	}
	if before[0].IsRead {
		t.Fatalf("expected previously handed out view to stay unread")
	}
	sum := Summarize(l.Events())
	if !sum.HasErrors || !sum.HasWarnings || sum.Unread != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if n := l.MarkAllRead(); n != 0 {
		t.Fatalf("expected no changes on second mark, got %d", n)
	}
	l.Clear()
	if l.Len() != 0 {
		t.Fatalf("expected empty log after clear")
	}
	if sum := Summarize(l.Events()); sum.HasErrors || sum.HasWarnings {
		t.Fatalf("expected empty summary after clear, got %+v", sum)
	}
}

func TestSeedKeepsIDsMonotonic(t *testing.T) {
	l := NewLog(10)
	seedTime := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	l.Seed([]Event{{ID: seedTime.UnixMilli(), Severity: SeverityInfo, Title: "seeded"}})
	ev := l.Append(SeverityInfo, "next", "", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if ev.ID <= seedTime.UnixMilli() {
		t.Fatalf("expected new id above seeded id, got %d", ev.ID)
	}
	if !strings.Contains(l.Events()[1].Title, "seeded") {
		t.Fatalf("expected seeded alert to be retained behind the new one")
	}
}
