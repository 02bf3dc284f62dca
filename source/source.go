// Package source provides the inbound data sources that seed a dashboard
// session: the fixed mock that stands in for a cluster API, and a YAML seed
// file. LoadInitial applies the fallback policy when a source is unavailable.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"clusterwatch/alerts"
	"clusterwatch/cluster"
)

// ErrUnavailable marks a failed initial fetch. Callers recover by using the
// built-in seed state.
var ErrUnavailable = errors.New("data source unavailable")

// DataSource supplies the initial registry and alerts for a session.
type DataSource interface {
	FetchInitialClusterState(ctx context.Context) (cluster.State, error)
	FetchInitialAlerts(ctx context.Context) ([]alerts.Event, error)
}

// Static returns the fixed mock data. Fail forces every fetch to report
// ErrUnavailable, which exercises the fallback path.
type Static struct {
	Fail bool
}

func (s Static) FetchInitialClusterState(ctx context.Context) (cluster.State, error) {
	if err := ctx.Err(); err != nil {
		return cluster.State{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if s.Fail {
		return cluster.State{}, fmt.Errorf("%w: static source configured to fail", ErrUnavailable)
	}
	return cluster.SeedState(), nil
}

func (s Static) FetchInitialAlerts(ctx context.Context) ([]alerts.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if s.Fail {
		return nil, fmt.Errorf("%w: static source configured to fail", ErrUnavailable)
	}
	return nil, nil
}

// seedFile is the YAML layout read by File.
type seedFile struct {
	cluster.State `yaml:",inline"`
	Alerts        []alerts.Event `yaml:"alerts"`
}

// File reads the registry and alerts from a YAML seed file.
type File struct {
	Path string
}

func (f File) load(ctx context.Context) (seedFile, error) {
	var out seedFile
	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	path := strings.TrimSpace(f.Path)
	if path == "" {
		return out, fmt.Errorf("%w: seed file path is empty", ErrUnavailable)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("%w: read %s: %v", ErrUnavailable, path, err)
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w: parse %s: %v", ErrUnavailable, path, err)
	}
	return out, nil
}

func (f File) FetchInitialClusterState(ctx context.Context) (cluster.State, error) {
	seed, err := f.load(ctx)
	if err != nil {
		return cluster.State{}, err
	}
	if err := cluster.Validate(seed.State); err != nil {
		return cluster.State{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, f.Path, err)
	}
	return seed.State, nil
}

func (f File) FetchInitialAlerts(ctx context.Context) ([]alerts.Event, error) {
	seed, err := f.load(ctx)
	if err != nil {
		return nil, err
	}
	for i, ev := range seed.Alerts {
		if !ev.Severity.Valid() {
			return nil, fmt.Errorf("%w: %s: alert %d has invalid severity %q", ErrUnavailable, f.Path, i, ev.Severity)
		}
	}
	return seed.Alerts, nil
}

// LoadInitial fetches the registry and alerts from ds. Failures are logged via
// logf and replaced by the built-in seed state and an empty alert list; they
// are never returned to the caller.
func LoadInitial(ctx context.Context, ds DataSource, logf func(format string, args ...any)) (cluster.State, []alerts.Event) {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	if ds == nil {
		logf("Source: no data source configured; using built-in seed state")
		return cluster.SeedState(), nil
	}
	state, err := ds.FetchInitialClusterState(ctx)
	if err != nil {
		logf("Source: cluster state fetch failed, using built-in seed state: %v", err)
		state = cluster.SeedState()
	}
	events, err := ds.FetchInitialAlerts(ctx)
	if err != nil {
		logf("Source: alert fetch failed, starting with no alerts: %v", err)
		events = nil
	}
	return state, events
}
