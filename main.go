// Command clusterwatch runs the simulated messaging-cluster health dashboard:
// a session engine fed by a seed data source, rendered by a terminal
// dashboard and optionally exposed over an admin HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"clusterwatch/admin"
	"clusterwatch/config"
	"clusterwatch/engine"
	"clusterwatch/metrics"
	"clusterwatch/source"
	"clusterwatch/stats"
	"clusterwatch/ui"
)

const (
	defaultConfigPath = "data/config"
	envConfigPath     = "CW_CONFIG_PATH"

	// paneStatsInterval paces the dashboard stats pane; the configured
	// stats interval only paces what is written to the log.
	paneStatsInterval = time.Second
)

// Version will be set at build time
var Version = "dev"

// Purpose: Report whether stdout is a TTY for UI gating.
// Key aspects: Uses term.IsTerminal on stdout fd.
// Upstream: selectSurface.
// Downstream: term.IsTerminal.
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Purpose: Load configuration from env/default locations.
// Key aspects: Tries env override first, then the default config dir; only a
// missing directory falls through to the next candidate.
// Upstream: main startup.
// Downstream: config.Load.
func loadClusterConfig() (*config.Config, string, error) {
	candidates := make([]string, 0, 2)
	if envPath := strings.TrimSpace(os.Getenv(envConfigPath)); envPath != "" {
		candidates = append(candidates, envPath)
	}
	candidates = append(candidates, defaultConfigPath)

	var lastErr error
	for _, path := range candidates {
		cfg, err := config.Load(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				lastErr = err
				continue
			}
			return nil, path, err
		}
		return cfg, cfg.LoadedFrom, nil
	}
	return nil, "", fmt.Errorf("unable to load config; tried %s (last error: %v)", strings.Join(candidates, ", "), lastErr)
}

// Purpose: Pick the presentation surface for the configured mode.
// Key aspects: tview needs an interactive console; auto falls back to headless.
// Upstream: main startup.
// Downstream: ui.NewDashboard.
func selectSurface(cfg config.UIConfig, actions ui.Actions, tty bool) ui.Surface {
	switch cfg.Mode {
	case config.UIModeHeadless:
		log.Printf("UI disabled (mode=headless)")
		return nil
	case config.UIModeTview:
		if !tty {
			log.Printf("UI disabled (tview requires an interactive console)")
			return nil
		}
	case config.UIModeAuto:
		if !tty {
			log.Printf("UI disabled (stdout is not a terminal)")
			return nil
		}
	default:
		log.Printf("UI mode %q not recognized; defaulting to headless", cfg.Mode)
		return nil
	}
	return ui.NewDashboard(cfg, actions)
}

// Purpose: Build the initial data source from config.
// Upstream: main startup.
// Downstream: source.Static, source.File, source.HTTP.
func newDataSource(cfg config.SourceConfig) source.DataSource {
	switch cfg.Kind {
	case config.SourceFile:
		return source.File{Path: cfg.File}
	case config.SourceHTTP:
		return source.HTTP{URL: cfg.URL, UserAgent: "clusterwatch/" + Version}
	}
	return source.Static{Fail: cfg.Fail}
}

// Purpose: Translate simulation config into engine options.
// Upstream: main startup.
// Downstream: engine.New.
func sessionOptions(cfg config.SimulationConfig, tracker *stats.Tracker) engine.Options {
	opts := engine.DefaultOptions()
	opts.BannerDuration = cfg.BannerDuration
	opts.NoticeDuration = cfg.NoticeDuration
	opts.ErrorLogInterval = cfg.ErrorLogInterval
	opts.TopicInterval = cfg.TopicInterval
	opts.ErrorLogRetention = cfg.ErrorLogRetention
	opts.TopicRetention = cfg.TopicRetention
	opts.AlertRetention = cfg.AlertRetention
	opts.LeaderElection = cfg.LeaderElection
	opts.SeedErrorLogs = cfg.SeedErrorLogs
	opts.Seed = cfg.Seed
	opts.Tracker = tracker
	opts.Logf = log.Printf
	return opts
}

// Purpose: Program entrypoint; wires config, logging, session, UI and admin.
// Key aspects: The session owns all timers; cancelling ctx tears it down.
// Upstream: OS process start.
// Downstream: engine.Session, ui.Surface, admin.Server.
func main() {
	cfg, configSource, err := loadClusterConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	fanout, logErr := setupLogging(cfg.Logging, os.Stdout)
	defer fanout.Close()
	// The fanout stamps each line itself.
	log.SetFlags(0)
	log.SetOutput(fanout)
	if logErr != nil {
		log.Printf("Logging: file logging disabled: %v", logErr)
	}
	log.Printf("Loaded configuration from %s", configSource)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracker := stats.NewTracker()

	fetchCtx, fetchCancel := context.WithTimeout(ctx, cfg.Source.Timeout)
	initial, initialAlerts := source.LoadInitial(fetchCtx, newDataSource(cfg.Source), log.Printf)
	fetchCancel()

	session := engine.New(initial, initialAlerts, sessionOptions(cfg.Simulation, tracker))

	surface := selectSurface(cfg.UI, session, isStdoutTTY())
	var surfaceDone <-chan struct{}
	if surface != nil {
		surface.WaitReady()
		defer surface.Stop()
		fanout.SetConsole(surface.SystemWriter(), false)
		surface.SetStats([]string{"Initializing..."})
		surfaceDone = surface.Done()
	} else {
		cfg.Print()
	}

	log.Printf("%s v%s starting...", cfg.Server.Name, Version)
	session.Start(ctx)
	if surface != nil {
		go forwardSnapshots(ctx, session, surface)
	}

	if cfg.Admin.Enabled {
		collector := metrics.NewCollector(session, tracker)
		srv := admin.NewServer(session, admin.Options{
			CORSOrigins: cfg.Admin.CORSOrigins,
			MaxStreams:  cfg.Admin.MaxStreams,
			Gatherer:    metrics.NewRegistry(collector),
			Logf:        log.Printf,
		})
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Admin.Listen); err != nil {
				log.Printf("Admin: server stopped: %v", err)
			}
		}()
	}

	go displayStats(ctx, cfg.Server.StatsInterval, tracker, session, surface, fanout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if surface == nil {
		log.Println("Dashboard is running headless. Press Ctrl+C to stop.")
	}
	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case <-surfaceDone:
		log.Printf("UI: quit requested")
	}
	log.Println("Shutting down gracefully...")
	cancel()
	session.Wait()
	log.Println("Dashboard stopped")
}

// Purpose: Push every published snapshot to the surface.
// Key aspects: A one-slot subscription drops stale frames; the channel closes
// when the session stops.
// Upstream: main.
// Downstream: engine.Session.Subscribe and ui.Surface.SetSnapshot.
func forwardSnapshots(ctx context.Context, session *engine.Session, surface ui.Surface) {
	ch, unsubscribe := session.Subscribe(1)
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			surface.SetSnapshot(snap)
		}
	}
}

// Purpose: Periodically render session counters.
// Key aspects: With a surface the pane refreshes every second and lines go
// to the log file only at the configured interval; headless output goes
// through the logger. A zero interval disables headless output.
// Upstream: main.
// Downstream: stats.Tracker, logFanout.WriteFileOnly, ui.Surface.SetStats.
func displayStats(ctx context.Context, interval time.Duration, tracker *stats.Tracker, session *engine.Session, surface ui.Surface, fanout *logFanout) {
	step := interval
	if surface != nil {
		step = paneStatsInterval
	}
	if step <= 0 {
		return
	}
	var gc gcWindow
	var lastLogged time.Time
	for sleepWithContext(ctx, step) {
		now := time.Now()
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		lines := []string{
			formatUptimeLine(tracker.GetUptime(), now),
			formatSessionLine(session.Snapshot()),
		}
		lines = append(lines, tracker.SnapshotLines()...)
		lines = append(lines, formatRuntimeLine(&mem, runtime.NumGoroutine(), &gc))

		if surface == nil {
			for _, line := range lines {
				log.Print(line)
			}
			continue
		}
		surface.SetStats(lines)
		if interval > 0 && now.Sub(lastLogged) >= interval {
			lastLogged = now
			for _, line := range lines {
				fanout.WriteFileOnly(line, now)
			}
		}
	}
}

// Purpose: Sleep for d unless ctx is cancelled first.
// Key aspects: Timer-based wait with cancellation.
// Upstream: displayStats.
// Downstream: time.NewTimer.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func formatUptimeLine(uptime time.Duration, now time.Time) string {
	return fmt.Sprintf("Uptime: %s (started %s)", formatDurationShort(uptime), humanize.Time(now.Add(-uptime)))
}

// formatSessionLine summarizes health, alert and stream state.
func formatSessionLine(snap *engine.Snapshot) string {
	if snap == nil {
		return "Session: (no snapshot)"
	}
	state := "healthy"
	if snap.IsEmergency {
		state = "EMERGENCY"
	}
	var active, total int
	for _, gh := range snap.Health.Groups {
		active += gh.Active
		total += gh.Total
	}
	return fmt.Sprintf("Session: %s  components %d/%d active  alerts %d (%d unread)  error log %d  samples %d",
		state, active, total, len(snap.Alerts), snap.AlertSummary.Unread, len(snap.ErrorLogs), len(snap.TopicSamples))
}

// Purpose: Format a short duration for stats display.
// Key aspects: Uses d/h/m/s units with coarse granularity.
// Upstream: formatUptimeLine.
// Downstream: time.Duration math.
func formatDurationShort(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int(d / time.Minute)
	d -= time.Duration(minutes) * time.Minute
	switch {
	case days > 0:
		return fmt.Sprintf("%dd%dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh%dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%ds", int(d/time.Second))
}
