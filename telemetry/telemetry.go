// Package telemetry synthesizes the dashboard's two simulated streams: error
// log lines emitted while the cluster is in emergency, and topic throughput
// samples emitted continuously. Randomness comes from an injected source so a
// fixed seed reproduces the same stream.
package telemetry

import (
	"math/rand/v2"
	"sort"
	"time"

	"github.com/zeebo/xxh3"

	"clusterwatch/buffer"
	"clusterwatch/idgen"
)

const (
	// ErrorLogRetention keeps one new entry plus the previous fifty.
	ErrorLogRetention = 51
	// TopicRetention is the number of throughput samples kept.
	TopicRetention = 50
	// ErrorLevelProbability is the chance a synthetic entry is ERROR rather than WARN.
	ErrorLevelProbability = 0.7
	// FreshWindow is how long the newest sample counts as just arrived.
	FreshWindow = 500 * time.Millisecond
)

var (
	ErrorSources = []string{"broker-1", "connector-mysql", "schema-registry"}

	ErrorMessages = []string{
		"Connection timeout occurred during operation",
		"Out of memory exception in worker thread",
		"Failed to process message batch",
		"Unexpected connection close",
		"Resource limit exceeded",
	}

	TopicNames = []string{"payments", "logs", "users", "events"}
)

// Level is the severity of an error log line.
type Level string

const (
	LevelError Level = "ERROR"
	LevelWarn  Level = "WARN"
)

// ErrorLogEntry is one immutable log line.
type ErrorLogEntry struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Level       Level     `json:"level"`
	Source      string    `json:"source"`
	Message     string    `json:"message"`
	Fingerprint uint64    `json:"fingerprint"`
}

// TopicSample is one immutable throughput measurement.
type TopicSample struct {
	Timestamp         time.Time `json:"timestamp"`
	MessagesPerSecond int       `json:"messagesPerSecond"`
	Latency           float64   `json:"latency"`
	TopicName         string    `json:"topicName"`
	Partition         int       `json:"partition"`
}

// Fingerprint identifies an error signature independent of time and level.
func Fingerprint(source, message string) uint64 {
	return xxh3.HashString(source + "|" + message)
}

// NewRand builds the generator random source. A zero seed draws one from the
// runtime so every session differs.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// ErrorStream owns the error log and synthesizes new entries.
type ErrorStream struct {
	rng     *rand.Rand
	ids     idgen.Monotonic
	entries *buffer.Recent[ErrorLogEntry]
}

// NewErrorStream creates an empty stream retaining at most retention entries.
func NewErrorStream(rng *rand.Rand, retention int) *ErrorStream {
	if rng == nil {
		rng = NewRand(0)
	}
	if retention <= 0 {
		retention = ErrorLogRetention
	}
	return &ErrorStream{rng: rng, entries: buffer.NewRecent[ErrorLogEntry](retention)}
}

// SeedHistory installs the startup sample lines shown before any live
// emergency: three entries spaced a minute apart, newest first.
func (s *ErrorStream) SeedHistory(now time.Time) {
	seed := []struct {
		age     time.Duration
		level   Level
		source  string
		message string
	}{
		{120 * time.Second, LevelError, "schema-registry", "Failed to serialize schema for topic payment-events"},
		{60 * time.Second, LevelWarn, "connector-mysql", "Slow query execution detected, took 4.3s to complete"},
		{0, LevelError, "broker-1", "Connection refused to zookeeper instance at 10.0.1.5:2181"},
	}
	for _, e := range seed {
		at := now.Add(-e.age)
		s.entries.Push(ErrorLogEntry{
			ID:          s.ids.Next(at),
			Timestamp:   at,
			Level:       e.level,
			Source:      e.source,
			Message:     e.message,
			Fingerprint: Fingerprint(e.source, e.message),
		})
	}
}

// Next synthesizes one entry, prepends it and returns it.
func (s *ErrorStream) Next(now time.Time) ErrorLogEntry {
	level := LevelWarn
	if s.rng.Float64() < ErrorLevelProbability {
		level = LevelError
	}
	source := ErrorSources[s.rng.IntN(len(ErrorSources))]
	message := ErrorMessages[s.rng.IntN(len(ErrorMessages))]
	entry := ErrorLogEntry{
		ID:          s.ids.Next(now),
		Timestamp:   now,
		Level:       level,
		Source:      source,
		Message:     message,
		Fingerprint: Fingerprint(source, message),
	}
	s.entries.Push(entry)
	return entry
}

// Entries returns retained entries, newest first (read-only).
func (s *ErrorStream) Entries() []ErrorLogEntry {
	return s.entries.Items()
}

// Total returns how many entries were ever emitted, seeds included.
func (s *ErrorStream) Total() uint64 {
	return s.entries.Total()
}

// Signature groups retained entries that share a fingerprint.
type Signature struct {
	Fingerprint uint64    `json:"fingerprint"`
	Source      string    `json:"source"`
	Message     string    `json:"message"`
	Count       int       `json:"count"`
	LastSeen    time.Time `json:"lastSeen"`
}

// Signatures counts distinct error signatures, most frequent first.
func Signatures(entries []ErrorLogEntry) []Signature {
	index := make(map[uint64]int, len(entries))
	var out []Signature
	for _, e := range entries {
		if i, ok := index[e.Fingerprint]; ok {
			out[i].Count++
			if e.Timestamp.After(out[i].LastSeen) {
				out[i].LastSeen = e.Timestamp
			}
			continue
		}
		index[e.Fingerprint] = len(out)
		out = append(out, Signature{
			Fingerprint: e.Fingerprint,
			Source:      e.Source,
			Message:     e.Message,
			Count:       1,
			LastSeen:    e.Timestamp,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// TopicStream owns the throughput sample log.
type TopicStream struct {
	rng     *rand.Rand
	samples *buffer.Recent[TopicSample]
}

// NewTopicStream creates an empty stream retaining at most retention samples.
func NewTopicStream(rng *rand.Rand, retention int) *TopicStream {
	if rng == nil {
		rng = NewRand(0)
	}
	if retention <= 0 {
		retention = TopicRetention
	}
	return &TopicStream{rng: rng, samples: buffer.NewRecent[TopicSample](retention)}
}

// Next synthesizes one sample, prepends it and returns it.
func (s *TopicStream) Next(now time.Time) TopicSample {
	sample := TopicSample{
		Timestamp:         now,
		MessagesPerSecond: 500 + s.rng.IntN(1000),
		Latency:           1 + s.rng.Float64()*5,
		TopicName:         TopicNames[s.rng.IntN(len(TopicNames))],
		Partition:         1 + s.rng.IntN(5),
	}
	s.samples.Push(sample)
	return sample
}

// Samples returns retained samples, newest first (read-only).
func (s *TopicStream) Samples() []TopicSample {
	return s.samples.Items()
}

// LastSampleAt is the timestamp of the newest sample, zero when empty.
func (s *TopicStream) LastSampleAt() time.Time {
	if newest, ok := s.samples.Newest(); ok {
		return newest.Timestamp
	}
	return time.Time{}
}

// Throughput aggregates the retained sample window.
type Throughput struct {
	Samples               int     `json:"samples"`
	MeanMessagesPerSecond float64 `json:"meanMessagesPerSecond"`
	PeakMessagesPerSecond int     `json:"peakMessagesPerSecond"`
	MeanLatency           float64 `json:"meanLatency"`
}

// Summarize computes window aggregates over samples.
func Summarize(samples []TopicSample) Throughput {
	t := Throughput{Samples: len(samples)}
	if len(samples) == 0 {
		return t
	}
	var mps, lat float64
	for _, s := range samples {
		mps += float64(s.MessagesPerSecond)
		lat += s.Latency
		if s.MessagesPerSecond > t.PeakMessagesPerSecond {
			t.PeakMessagesPerSecond = s.MessagesPerSecond
		}
	}
	t.MeanMessagesPerSecond = mps / float64(len(samples))
	t.MeanLatency = lat / float64(len(samples))
	return t
}
