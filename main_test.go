package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clusterwatch/cluster"
	"clusterwatch/config"
	"clusterwatch/engine"
	"clusterwatch/source"
	"clusterwatch/stats"
)

func TestLoadClusterConfigPrefersEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "server.yaml"), []byte("server:\n  name: from-env\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(envConfigPath, dir)

	cfg, from, err := loadClusterConfig()
	if err != nil {
		t.Fatalf("loadClusterConfig: %v", err)
	}
	if from != dir || cfg.Server.Name != "from-env" {
		t.Fatalf("expected env config, got name=%q from=%q", cfg.Server.Name, from)
	}
}

func TestLoadClusterConfigFallsBackWhenEnvMissing(t *testing.T) {
	t.Setenv(envConfigPath, filepath.Join(t.TempDir(), "missing"))

	cfg, from, err := loadClusterConfig()
	if err != nil {
		t.Fatalf("loadClusterConfig: %v", err)
	}
	if from != defaultConfigPath {
		t.Fatalf("expected fallback to %s, got %s", defaultConfigPath, from)
	}
	if cfg.Simulation.BannerDuration != 4*time.Second {
		t.Fatalf("unexpected banner duration %s", cfg.Simulation.BannerDuration)
	}
}

func TestLoadClusterConfigReportsInvalidEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ui.yaml"), []byte("ui:\n  mode: ansi\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(envConfigPath, dir)
	if _, from, err := loadClusterConfig(); err == nil || from != dir {
		t.Fatalf("expected validation error from %s, got from=%q err=%v", dir, from, err)
	}
}

func TestSelectSurfaceWithoutTTY(t *testing.T) {
	for _, mode := range []string{config.UIModeAuto, config.UIModeTview, config.UIModeHeadless, "bogus"} {
		if s := selectSurface(config.UIConfig{Mode: mode}, nil, false); s != nil {
			t.Fatalf("mode %s: expected no surface without a terminal", mode)
		}
	}
}

func TestNewDataSource(t *testing.T) {
	if ds, ok := newDataSource(config.SourceConfig{Kind: config.SourceFile, File: "seed.yaml"}).(source.File); !ok || ds.Path != "seed.yaml" {
		t.Fatalf("expected file source, got %#v", ds)
	}
	if ds, ok := newDataSource(config.SourceConfig{Kind: config.SourceHTTP, URL: "http://peer/api/state"}).(source.HTTP); !ok || ds.URL != "http://peer/api/state" || ds.UserAgent == "" {
		t.Fatalf("expected http source, got %#v", ds)
	}
	if ds, ok := newDataSource(config.SourceConfig{Kind: config.SourceStatic, Fail: true}).(source.Static); !ok || !ds.Fail {
		t.Fatalf("expected failing static source, got %#v", ds)
	}
}

func TestSessionOptionsFromConfig(t *testing.T) {
	sim := config.Defaults().Simulation
	sim.LeaderElection = false
	sim.Seed = 42
	sim.NoticeDuration = 2 * time.Second
	tracker := stats.NewTracker()
	opts := sessionOptions(sim, tracker)
	if opts.LeaderElection || opts.Seed != 42 || opts.Tracker != tracker {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.NoticeDuration != 2*time.Second {
		t.Fatalf("expected notice duration 2s, got %s", opts.NoticeDuration)
	}
	if opts.ErrorLogRetention != 51 || opts.TopicRetention != 50 || opts.AlertRetention != 50 {
		t.Fatalf("unexpected retention %d/%d/%d", opts.ErrorLogRetention, opts.TopicRetention, opts.AlertRetention)
	}
}

func TestSleepWithContext(t *testing.T) {
	if !sleepWithContext(context.Background(), time.Millisecond) {
		t.Fatalf("expected sleep to complete")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if sleepWithContext(ctx, time.Hour) {
		t.Fatalf("expected cancelled sleep to return false")
	}
}

func TestFormatDurationShort(t *testing.T) {
	cases := map[time.Duration]string{
		12 * time.Second:                 "12s",
		3*time.Minute + 5*time.Second:    "3m",
		2*time.Hour + 7*time.Minute:      "2h7m",
		50*time.Hour + 30*time.Minute:    "2d2h",
		-(4*time.Minute + 1*time.Second): "4m",
	}
	for d, want := range cases {
		if got := formatDurationShort(d); got != want {
			t.Fatalf("%s: expected %s, got %s", d, want, got)
		}
	}
}

func TestFormatSessionLine(t *testing.T) {
	if got := formatSessionLine(nil); got != "Session: (no snapshot)" {
		t.Fatalf("unexpected nil line %q", got)
	}
	state := cluster.SeedState()
	state.Connectors[0].Status = cluster.StatusInactive
	h := cluster.DeriveStatus(state)
	snap := &engine.Snapshot{Cluster: state, Health: h, IsEmergency: h.IsEmergency}
	got := formatSessionLine(snap)
	if !strings.Contains(got, "EMERGENCY") || !strings.Contains(got, "components 9/10 active") {
		t.Fatalf("unexpected session line %q", got)
	}
}
