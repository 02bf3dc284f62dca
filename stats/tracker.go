// Package stats tracks session counters (toggles per group and outcome, alerts
// per severity, error log lines per level, throughput samples, emergency and
// banner edges) for the dashboard stats pane and the metrics exporter.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Toggle outcomes.
const (
	OutcomeApplied = "applied"
	OutcomeInvalid = "invalid"
	OutcomeFault   = "fault"
)

// Tracker tracks session statistics.
type Tracker struct {
	// counters live in sync.Map + atomic.Uint64 so the event loop and readers
	// never contend on a mutex
	toggleCounts   sync.Map // "group|outcome" -> *atomic.Uint64
	alertCounts    sync.Map // severity -> *atomic.Uint64
	errorLogCounts sync.Map // level -> *atomic.Uint64
	start          atomic.Int64
	topicSamples   atomic.Uint64
	emergencies    atomic.Uint64
	bannerShows    atomic.Uint64
}

// NewTracker creates a new stats tracker
func NewTracker() *Tracker {
	t := &Tracker{}
	t.start.Store(time.Now().UnixNano())
	return t
}

// IncrementToggle counts a toggle request for group with the given outcome.
func (t *Tracker) IncrementToggle(group, outcome string) {
	if t == nil {
		return
	}
	group = strings.TrimSpace(group)
	outcome = strings.TrimSpace(outcome)
	if group == "" || outcome == "" {
		return
	}
	incrementCounter(&t.toggleCounts, group+"|"+outcome)
}

// IncrementAlert counts an alert by severity.
func (t *Tracker) IncrementAlert(severity string) {
	if t == nil {
		return
	}
	incrementCounter(&t.alertCounts, severity)
}

// IncrementErrorLog counts a synthetic error log line by level.
func (t *Tracker) IncrementErrorLog(level string) {
	if t == nil {
		return
	}
	incrementCounter(&t.errorLogCounts, level)
}

// IncrementTopicSample counts a throughput sample.
func (t *Tracker) IncrementTopicSample() {
	if t == nil {
		return
	}
	t.topicSamples.Add(1)
}

// IncrementEmergency counts a rising edge of the emergency flag.
func (t *Tracker) IncrementEmergency() {
	if t == nil {
		return
	}
	t.emergencies.Add(1)
}

// IncrementBannerShow counts an emergency banner display.
func (t *Tracker) IncrementBannerShow() {
	if t == nil {
		return
	}
	t.bannerShows.Add(1)
}

// GetToggleCounts returns a copy of toggle counts keyed "group|outcome".
func (t *Tracker) GetToggleCounts() map[string]uint64 {
	return copyCounts(&t.toggleCounts)
}

// GetAlertCounts returns a copy of alert counts keyed by severity.
func (t *Tracker) GetAlertCounts() map[string]uint64 {
	return copyCounts(&t.alertCounts)
}

// GetErrorLogCounts returns a copy of error log counts keyed by level.
func (t *Tracker) GetErrorLogCounts() map[string]uint64 {
	return copyCounts(&t.errorLogCounts)
}

// TopicSamples returns the cumulative number of throughput samples.
func (t *Tracker) TopicSamples() uint64 {
	return t.topicSamples.Load()
}

// Emergencies returns the cumulative number of emergency rising edges.
func (t *Tracker) Emergencies() uint64 {
	return t.emergencies.Load()
}

// BannerShows returns the cumulative number of banner displays.
func (t *Tracker) BannerShows() uint64 {
	return t.bannerShows.Load()
}

// GetUptime returns how long the tracker has been running
func (t *Tracker) GetUptime() time.Duration {
	start := t.start.Load()
	return time.Since(time.Unix(0, start))
}

// Reset resets all counters
func (t *Tracker) Reset() {
	for _, m := range []*sync.Map{&t.toggleCounts, &t.alertCounts, &t.errorLogCounts} {
		m.Range(func(key, _ any) bool {
			m.Delete(key)
			return true
		})
	}
	t.topicSamples.Store(0)
	t.emergencies.Store(0)
	t.bannerShows.Store(0)
	t.start.Store(time.Now().UnixNano())
}

// SnapshotLines returns human-readable stats ready for console display.
func (t *Tracker) SnapshotLines() []string {
	lines := make([]string, 0, 4)
	lines = append(lines, formatMapCounts("Toggles", &t.toggleCounts))
	lines = append(lines, formatMapCounts("Alerts", &t.alertCounts))
	lines = append(lines, formatMapCounts("Error log", &t.errorLogCounts))
	lines = append(lines, fmt.Sprintf("Emergencies: %d  Banner shows: %d  Samples: %d",
		t.Emergencies(), t.BannerShows(), t.TopicSamples()))
	return lines
}

func copyCounts(m *sync.Map) map[string]uint64 {
	counts := make(map[string]uint64)
	m.Range(func(key, value any) bool {
		counts[key.(string)] = value.(*atomic.Uint64).Load()
		return true
	})
	return counts
}

func formatMapCounts(label string, counts *sync.Map) string {
	snapshot := copyCounts(counts)
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	builder.WriteString(label)
	builder.WriteString(": ")
	if len(keys) == 0 {
		builder.WriteString("(none)")
		return builder.String()
	}
	for i, k := range keys {
		if i > 0 {
			builder.WriteString(", ")
		}
		fmt.Fprintf(&builder, "%s=%d", k, snapshot[k])
	}
	return builder.String()
}

func incrementCounter(m *sync.Map, key string) {
	if strings.TrimSpace(key) == "" {
		return
	}
	if value, ok := m.Load(key); ok {
		value.(*atomic.Uint64).Add(1)
		return
	}
	counter := &atomic.Uint64{}
	actual, loaded := m.LoadOrStore(key, counter)
	if loaded {
		actual.(*atomic.Uint64).Add(1)
		return
	}
	counter.Add(1)
}
