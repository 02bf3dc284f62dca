// Package alerts holds the dashboard's status-change alert log: discrete
// events prepended newest first whenever a component is started or stopped.
package alerts

import (
	"fmt"
	"time"

	"clusterwatch/buffer"
	"clusterwatch/cluster"
	"clusterwatch/idgen"
)

// DefaultRetention bounds the alert log the same way the telemetry streams
// are bounded.
const DefaultRetention = 50

// Severity classifies an alert.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeveritySuccess, SeverityError, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// Event is a single immutable alert.
type Event struct {
	ID        int64     `json:"id" yaml:"id"`
	Severity  Severity  `json:"severity" yaml:"severity"`
	Title     string    `json:"title" yaml:"title"`
	Message   string    `json:"message" yaml:"message"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	IsRead    bool      `json:"isRead" yaml:"is_read"`
}

// Summary is derived from the retained alerts.
type Summary struct {
	HasErrors   bool `json:"hasErrors"`
	HasWarnings bool `json:"hasWarnings"`
	Unread      int  `json:"unread"`
}

// Summarize scans events for error/warning presence and unread count.
func Summarize(events []Event) Summary {
	var s Summary
	for _, ev := range events {
		switch ev.Severity {
		case SeverityError:
			s.HasErrors = true
		case SeverityWarning:
			s.HasWarnings = true
		}
		if !ev.IsRead {
			s.Unread++
		}
	}
	return s
}

// Log is the bounded newest-first alert sequence.
type Log struct {
	events *buffer.Recent[Event]
	ids    idgen.Monotonic
}

// NewLog creates an empty log keeping at most retention alerts.
func NewLog(retention int) *Log {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Log{events: buffer.NewRecent[Event](retention)}
}

// Seed installs initial alerts (newest first) from a data source.
func (l *Log) Seed(events []Event) {
	for _, ev := range events {
		l.ids.Observe(ev.ID)
	}
	l.events.Replace(events)
}

// Append creates and prepends a new alert.
func (l *Log) Append(sev Severity, title, message string, now time.Time) Event {
	ev := Event{
		ID:        l.ids.Next(now),
		Severity:  sev,
		Title:     title,
		Message:   message,
		Timestamp: now,
	}
	l.events.Push(ev)
	return ev
}

// Record appends the alert describing a toggle transition.
func (l *Log) Record(tr cluster.Transition, now time.Time) Event {
	sev := SeverityError
	if tr.Started() {
		sev = SeveritySuccess
	}
	return l.Append(sev, TransitionTitle(tr), TransitionMessage(tr), now)
}

// MarkAllRead flags every retained alert as read and returns how many changed.
// Events are immutable, so read copies replace the originals.
func (l *Log) MarkAllRead() int {
	current := l.events.Items()
	next := make([]Event, len(current))
	changed := 0
	for i, ev := range current {
		if !ev.IsRead {
			ev.IsRead = true
			changed++
		}
		next[i] = ev
	}
	if changed > 0 {
		l.events.Replace(next)
	}
	return changed
}

// Restore reinstates a view previously returned by Events. IDs issued in
// between are not reused.
func (l *Log) Restore(events []Event) {
	l.events.Replace(events)
}

// Clear drops all retained alerts.
func (l *Log) Clear() {
	l.events.Reset()
}

// Events returns the retained alerts, newest first (read-only).
func (l *Log) Events() []Event {
	return l.events.Items()
}

// Len returns the number of retained alerts.
func (l *Log) Len() int {
	return l.events.Len()
}

// TransitionTitle renders the alert title for a toggle.
func TransitionTitle(tr cluster.Transition) string {
	verb := "Stopped"
	if tr.Started() {
		verb = "Started"
	}
	return subject(tr, true) + " " + verb
}

// TransitionMessage renders the alert body for a toggle, including any
// controller leadership change.
func TransitionMessage(tr cluster.Transition) string {
	verb := "stopped"
	if tr.Started() {
		verb = "started"
	}
	msg := fmt.Sprintf("%s has been %s.", subject(tr, false), verb)
	if tr.Leader != nil {
		if tr.Leader.To == 0 {
			msg += " No active controller is available to lead."
		} else {
			msg += fmt.Sprintf(" Controller %d is now the leader.", tr.Leader.To)
		}
	}
	return msg
}

func subject(tr cluster.Transition, withMode bool) string {
	switch tr.Group {
	case cluster.GroupConnectors:
		if tr.Name != "" {
			return "Connector " + tr.Name
		}
	case cluster.GroupSchemaRegistry:
		if withMode && tr.Mode != "" {
			return fmt.Sprintf("Schema Registry %d (%s)", tr.ID, tr.Mode)
		}
	}
	return fmt.Sprintf("%s %d", tr.Group.Label(), tr.ID)
}
