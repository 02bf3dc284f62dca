package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"clusterwatch/alerts"
	"clusterwatch/cluster"
	"clusterwatch/engine"
	"clusterwatch/telemetry"
)

// palette holds the tview color tags used by the formatters. plainPalette
// renders the same text without color.
type palette struct {
	ok     string
	bad    string
	warn   string
	accent string
	dim    string
	banner string
	reset  string
}

var (
	colorPalette = palette{
		ok:     "[green]",
		bad:    "[red]",
		warn:   "[yellow]",
		accent: "[#ff69b4]",
		dim:    "[gray]",
		banner: "[white:red:b]",
		reset:  "[-:-:-]",
	}
	plainPalette = palette{}
)

func (p palette) status(s cluster.Status) string {
	if s == cluster.StatusActive {
		return p.ok + "● active" + p.reset
	}
	return p.bad + "○ inactive" + p.reset
}

// component is one selectable registry row.
type component struct {
	group cluster.Group
	index int
}

// components flattens the registry in display order.
func components(s cluster.State) []component {
	var out []component
	for _, g := range cluster.Groups {
		n, _ := s.Len(g)
		for i := 0; i < n; i++ {
			out = append(out, component{group: g, index: i})
		}
	}
	return out
}

func formatBanner(snap *engine.Snapshot, p palette) string {
	if snap == nil || !snap.Banner.Visible {
		return ""
	}
	var down []string
	for _, gh := range snap.Health.Groups {
		if gh.Down() {
			down = append(down, fmt.Sprintf("%d %s down", gh.Total-gh.Active, strings.ToLower(gh.Group.Label())))
		}
	}
	return p.banner + " EMERGENCY: " + strings.Join(down, ", ") + " " + p.reset
}

func formatHeader(snap *engine.Snapshot, now time.Time, p palette) string {
	if snap == nil {
		return "waiting for session..."
	}
	state := p.ok + "HEALTHY" + p.reset
	if snap.IsEmergency {
		state = p.bad + "EMERGENCY" + p.reset
	}
	brokers := snap.Health.Group(cluster.GroupBrokers)
	leader := "none"
	if snap.Leader > 0 {
		leader = fmt.Sprintf("controller %d", snap.Leader)
	}
	fresh := p.dim + "○" + p.reset
	if snap.SampleFresh(now) {
		fresh = p.ok + "●" + p.reset
	}
	alertLine := fmt.Sprintf("%d alerts, %d unread", len(snap.Alerts), snap.AlertSummary.Unread)
	if snap.AlertSummary.HasErrors {
		alertLine = p.bad + alertLine + p.reset
	} else if snap.AlertSummary.HasWarnings {
		alertLine = p.warn + alertLine + p.reset
	}
	return fmt.Sprintf("Cluster %s  Brokers %d/%d  Leader %s  %s\n%s %s msg/s avg  peak %s  latency %.2f ms",
		state, brokers.Active, brokers.Total, leader, alertLine,
		fresh,
		humanize.Comma(int64(snap.Throughput.MeanMessagesPerSecond+0.5)),
		humanize.Comma(int64(snap.Throughput.PeakMessagesPerSecond)),
		snap.Throughput.MeanLatency)
}

func formatComponent(s cluster.State, c component, p palette) string {
	switch c.group {
	case cluster.GroupBrokers:
		b := s.Brokers[c.index]
		return fmt.Sprintf("Broker %-3d %s  health %3d%%", b.ID, p.status(b.Status), b.Health)
	case cluster.GroupControllers:
		ctl := s.Controllers[c.index]
		line := fmt.Sprintf("Controller %-3d %s", ctl.ID, p.status(ctl.Status))
		if ctl.IsLeader {
			line += "  " + p.accent + "leader" + p.reset
		}
		return line
	case cluster.GroupConnectors:
		k := s.Connectors[c.index]
		return fmt.Sprintf("Connector %-18s %s  %s", k.Name, p.status(k.Status), k.Type)
	case cluster.GroupSchemaRegistry:
		sr := s.SchemaRegistry[c.index]
		return fmt.Sprintf("Registry %-3d %s  %s", sr.ID, p.status(sr.Status), sr.Mode)
	}
	return ""
}

// formatComponents renders the registry with a cursor on row selected.
func formatComponents(snap *engine.Snapshot, selected int, p palette) string {
	if snap == nil {
		return ""
	}
	var b strings.Builder
	var last cluster.Group
	for i, c := range components(snap.Cluster) {
		if c.group != last {
			if i > 0 {
				b.WriteByte('\n')
			}
			gh := snap.Health.Group(c.group)
			fmt.Fprintf(&b, "%s%s%s %d/%d\n", p.accent, groupTitle(c.group), p.reset, gh.Active, gh.Total)
			last = c.group
		}
		cursor := "  "
		if i == selected {
			cursor = "> "
		}
		b.WriteString(cursor)
		b.WriteString(formatComponent(snap.Cluster, c, p))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func groupTitle(g cluster.Group) string {
	switch g {
	case cluster.GroupBrokers:
		return "Brokers"
	case cluster.GroupControllers:
		return "Controllers"
	case cluster.GroupConnectors:
		return "Connectors"
	case cluster.GroupSchemaRegistry:
		return "Schema Registry"
	}
	return string(g)
}

func formatAlerts(events []alerts.Event, now time.Time, max int, p palette) string {
	if len(events) == 0 {
		return p.dim + "no alerts" + p.reset
	}
	if max > 0 && len(events) > max {
		events = events[:max]
	}
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		color := p.ok
		switch ev.Severity {
		case alerts.SeverityError:
			color = p.bad
		case alerts.SeverityWarning:
			color = p.warn
		case alerts.SeverityInfo:
			color = p.dim
		}
		unread := " "
		if !ev.IsRead {
			unread = "*"
		}
		lines = append(lines, fmt.Sprintf("%s%s%-7s%s %s  %s%s%s",
			unread, color, ev.Severity, p.reset, ev.Title,
			p.dim, humanize.RelTime(ev.Timestamp, now, "ago", "from now"), p.reset))
	}
	return strings.Join(lines, "\n")
}

func formatErrorLogs(entries []telemetry.ErrorLogEntry, max int, p palette) string {
	if len(entries) == 0 {
		return p.dim + "no errors logged" + p.reset
	}
	if max > 0 && len(entries) > max {
		entries = entries[:max]
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		color := p.warn
		if e.Level == telemetry.LevelError {
			color = p.bad
		}
		lines = append(lines, fmt.Sprintf("%s %s%-5s%s %-16s %s",
			e.Timestamp.Format("15:04:05"), color, e.Level, p.reset, e.Source, e.Message))
	}
	return strings.Join(lines, "\n")
}

func formatSignatures(sigs []telemetry.Signature, max int) string {
	if len(sigs) == 0 {
		return ""
	}
	if max > 0 && len(sigs) > max {
		sigs = sigs[:max]
	}
	parts := make([]string, 0, len(sigs))
	for _, s := range sigs {
		parts = append(parts, fmt.Sprintf("%dx %s", s.Count, s.Source))
	}
	return "Distinct: " + strings.Join(parts, ", ")
}

func formatThroughput(samples []telemetry.TopicSample, max int, p palette) string {
	if len(samples) == 0 {
		return p.dim + "waiting for samples" + p.reset
	}
	if max > 0 && len(samples) > max {
		samples = samples[:max]
	}
	lines := make([]string, 0, len(samples))
	for _, s := range samples {
		lines = append(lines, fmt.Sprintf("%s %-9s p%d %7s msg/s %5.2f ms",
			s.Timestamp.Format("15:04:05"), s.TopicName, s.Partition,
			humanize.Comma(int64(s.MessagesPerSecond)), s.Latency))
	}
	return strings.Join(lines, "\n")
}

func formatNotice(n engine.Notice, p palette) string {
	if !n.Open {
		return ""
	}
	color := p.warn
	if n.Severity == alerts.SeverityError {
		color = p.bad
	}
	return color + n.Message + p.reset + p.dim + "  (Esc to dismiss)" + p.reset
}
