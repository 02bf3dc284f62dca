package ui

import (
	"context"
	"io"

	"clusterwatch/cluster"
	"clusterwatch/engine"
)

// Surface abstracts the local presentation so alternative renderers can plug in.
// Implementations must be safe for concurrent calls from the snapshot and
// stats loops.
type Surface interface {
	WaitReady()
	Stop()
	// Done is closed when the user quits the surface.
	Done() <-chan struct{}
	SetStats(lines []string)
	SetSnapshot(snap *engine.Snapshot)
	AppendSystem(line string)
	SystemWriter() io.Writer
}

// Actions are the intents a surface can raise. *engine.Session satisfies it.
type Actions interface {
	Toggle(ctx context.Context, g cluster.Group, index int) error
	MarkAlertsRead(ctx context.Context) (int, error)
	ClearAlerts(ctx context.Context) error
	DismissNotice(ctx context.Context) error
}
