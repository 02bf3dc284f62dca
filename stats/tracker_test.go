package stats

import (
	"strings"
	"sync"
	"testing"
)

func TestTrackerCountsConcurrently(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.IncrementToggle("brokers", OutcomeApplied)
				tr.IncrementAlert("error")
			}
		}()
	}
	wg.Wait()
	if got := tr.GetToggleCounts()["brokers|applied"]; got != 800 {
		t.Fatalf("expected 800 toggles, got %d", got)
	}
	if got := tr.GetAlertCounts()["error"]; got != 800 {
		t.Fatalf("expected 800 alerts, got %d", got)
	}
}

func TestTrackerIgnoresBlankKeys(t *testing.T) {
	tr := NewTracker()
	tr.IncrementToggle("", OutcomeInvalid)
	tr.IncrementErrorLog("  ")
	if len(tr.GetToggleCounts()) != 0 || len(tr.GetErrorLogCounts()) != 0 {
		t.Fatalf("expected blank keys to be ignored")
	}
}

func TestTrackerSnapshotLinesAndReset(t *testing.T) {
	tr := NewTracker()
	tr.IncrementToggle("connectors", OutcomeApplied)
	tr.IncrementToggle("brokers", OutcomeInvalid)
	tr.IncrementEmergency()
	tr.IncrementBannerShow()
	tr.IncrementTopicSample()

	lines := tr.SnapshotLines()
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if lines[0] != "Toggles: brokers|invalid=1, connectors|applied=1" {
		t.Fatalf("unexpected toggle line %q", lines[0])
	}
	if lines[1] != "Alerts: (none)" {
		t.Fatalf("unexpected alert line %q", lines[1])
	}
	if !strings.Contains(lines[3], "Emergencies: 1") {
		t.Fatalf("unexpected edge line %q", lines[3])
	}

	tr.Reset()
	if tr.Emergencies() != 0 || len(tr.GetToggleCounts()) != 0 || tr.TopicSamples() != 0 {
		t.Fatalf("expected counters cleared after reset")
	}
}

func TestNilTrackerIsSafe(t *testing.T) {
	var tr *Tracker
	tr.IncrementToggle("brokers", OutcomeApplied)
	tr.IncrementAlert("error")
	tr.IncrementErrorLog("WARN")
	tr.IncrementTopicSample()
	tr.IncrementEmergency()
	tr.IncrementBannerShow()
}
