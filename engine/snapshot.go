package engine

import (
	"time"

	"clusterwatch/alerts"
	"clusterwatch/cluster"
	"clusterwatch/telemetry"
)

// Notice is the transient user-visible message raised for rejected intents.
type Notice struct {
	Open     bool            `json:"open"`
	Severity alerts.Severity `json:"severity,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// Snapshot is an immutable view of a session after one loop step. Slices are
// shared between snapshots and must not be modified by readers.
type Snapshot struct {
	Seq          uint64                    `json:"seq"`
	GeneratedAt  time.Time                 `json:"generatedAt"`
	Cluster      cluster.State             `json:"cluster"`
	Health       cluster.Health            `json:"health"`
	IsEmergency  bool                      `json:"isEmergency"`
	BrokerActive bool                      `json:"brokerActive"`
	Leader       int                       `json:"leader"`
	Banner       BannerState               `json:"banner"`
	Notice       Notice                    `json:"notice"`
	Alerts       []alerts.Event            `json:"alerts"`
	AlertSummary alerts.Summary            `json:"alertSummary"`
	ErrorLogs    []telemetry.ErrorLogEntry `json:"errorLogs"`
	Signatures   []telemetry.Signature     `json:"errorSignatures"`
	TopicSamples []telemetry.TopicSample   `json:"topicSamples"`
	Throughput   telemetry.Throughput      `json:"throughput"`
	LastSampleAt time.Time                 `json:"lastSampleAt"`
	ErrorLogging bool                      `json:"errorLogging"`
}

// SampleFresh reports whether the newest throughput sample arrived within the
// freshness window before now.
func (s *Snapshot) SampleFresh(now time.Time) bool {
	if s == nil || s.LastSampleAt.IsZero() {
		return false
	}
	age := now.Sub(s.LastSampleAt)
	return age >= 0 && age < telemetry.FreshWindow
}

// buildSnapshot captures loop-owned state. Only the loop goroutine calls it.
func (s *Session) buildSnapshot(now time.Time) *Snapshot {
	s.seq++
	events := s.alerts.Events()
	logs := s.errors.Entries()
	samples := s.topics.Samples()
	return &Snapshot{
		Seq:          s.seq,
		GeneratedAt:  now,
		Cluster:      s.state,
		Health:       s.health,
		IsEmergency:  s.health.IsEmergency,
		BrokerActive: s.health.BrokerActive,
		Leader:       s.state.Leader(),
		Banner:       s.banner.state(),
		Notice:       s.notice,
		Alerts:       events,
		AlertSummary: alerts.Summarize(events),
		ErrorLogs:    logs,
		Signatures:   telemetry.Signatures(logs),
		TopicSamples: samples,
		Throughput:   telemetry.Summarize(samples),
		LastSampleAt: s.topics.LastSampleAt(),
		ErrorLogging: s.errorTicker != nil,
	}
}
