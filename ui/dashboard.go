package ui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"clusterwatch/cluster"
	"clusterwatch/config"
	"clusterwatch/engine"
)

const (
	paneWriterMaxBytes = 64 * 1024
	systemLineMaxBytes = 4 * 1024
	actionTimeout      = 2 * time.Second
	alertRows          = 12
	errorRows          = 12
	sampleRows         = 12
)

var (
	uiBorderColor = tcell.ColorGray
	uiTitleColor  = tcell.ColorHotPink
)

// Dashboard is the tview surface: emergency banner, health header, component
// registry with a toggle cursor, alert log, error log, throughput samples,
// stats and system log.
type Dashboard struct {
	app       *tview.Application
	scheduler *frameScheduler
	actions   Actions
	dispatch  func(func())
	pal       palette
	metrics   *Metrics
	now       func() time.Time

	ready    chan struct{}
	done     chan struct{}
	quitOnce sync.Once
	stopOnce sync.Once

	bannerView     *tview.TextView
	headerView     *tview.TextView
	noticeView     *tview.TextView
	componentsView *tview.TextView
	alertsView     *tview.TextView
	errorsView     *tview.TextView
	throughputView *tview.TextView
	statsView      *tview.TextView
	systemView     *tview.TextView

	mu    sync.Mutex
	snap  *engine.Snapshot
	sel   selection
	stats []string

	system        *LineBuffer
	systemScratch []LogLine
}

// NewDashboard builds the dashboard and starts the tview application.
func NewDashboard(cfg config.UIConfig, actions Actions) *Dashboard {
	d := newDashboard(cfg, actions)
	d.scheduler = newFrameScheduler(func(fn func()) { d.app.QueueUpdateDraw(fn) },
		cfg.RefreshInterval, 100*time.Millisecond, d.metrics.ObserveFrame)
	d.scheduler.Start()
	go func() {
		if err := d.app.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "dashboard error: %v\n", err)
		}
		d.quit()
	}()
	return d
}

// newDashboard wires views and key bindings without starting anything. Pane
// updates run inline until a scheduler is attached.
func newDashboard(cfg config.UIConfig, actions Actions) *Dashboard {
	pal := plainPalette
	if cfg.Color {
		pal = colorPalette
	}
	lines := cfg.SystemLogLines
	if lines <= 0 {
		lines = 200
	}
	d := &Dashboard{
		app:            tview.NewApplication(),
		actions:        actions,
		dispatch:       func(fn func()) { go fn() },
		pal:            pal,
		metrics:        NewMetrics(),
		now:            time.Now,
		ready:          make(chan struct{}),
		done:           make(chan struct{}),
		bannerView:     tview.NewTextView().SetDynamicColors(true).SetWrap(false).SetTextAlign(tview.AlignCenter),
		headerView:     tview.NewTextView().SetDynamicColors(true).SetWrap(false),
		noticeView:     tview.NewTextView().SetDynamicColors(true).SetWrap(false),
		componentsView: newBoxedTextView("Components"),
		alertsView:     newBoxedTextView("Alerts"),
		errorsView:     newBoxedTextView("Error Log"),
		throughputView: newBoxedTextView("Topic Throughput"),
		statsView:      newBoxedTextView("Stats"),
		systemView:     newBoxedTextView("System"),
		system:         NewLineBuffer(lines, systemLineMaxBytes),
	}
	d.statsView.SetTextColor(tcell.ColorYellow)

	middle := tview.NewFlex().
		AddItem(d.componentsView, 0, 1, false).
		AddItem(d.alertsView, 0, 1, false)
	bottom := tview.NewFlex().
		AddItem(d.errorsView, 0, 1, false).
		AddItem(d.throughputView, 0, 1, false)
	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.bannerView, 1, 0, false).
		AddItem(d.headerView, 2, 0, false).
		AddItem(d.noticeView, 1, 0, false).
		AddItem(middle, 16, 0, false).
		AddItem(bottom, 0, 1, false).
		AddItem(d.statsView, 7, 0, false).
		AddItem(d.systemView, 8, 0, false).
		AddItem(buildFooter(pal), 1, 0, false)

	var once sync.Once
	d.app.SetRoot(root, true).EnableMouse(false)
	d.app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		once.Do(func() { close(d.ready) })
		return false
	})
	d.app.SetInputCapture(d.handleKey)
	return d
}

func newBoxedTextView(title string) *tview.TextView {
	tv := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	tv.SetBorder(true)
	tv.SetTitle(" " + title + " ").SetTitleAlign(tview.AlignLeft)
	tv.SetBorderColor(uiBorderColor)
	tv.SetTitleColor(uiTitleColor)
	return tv
}

func buildFooter(p palette) *tview.TextView {
	key := func(k string) string { return p.accent + k + p.reset }
	return tview.NewTextView().SetDynamicColors(true).SetText(
		key("↑↓") + " select  " + key("Enter") + " toggle  " +
			key("b/c/n/s") + " jump group  " + key("r") + " mark read  " +
			key("x") + " clear alerts  " + key("Esc") + " dismiss  " + key("q") + " quit")
}

func (d *Dashboard) schedule(id string, fn func()) {
	if d.scheduler == nil {
		fn()
		return
	}
	d.scheduler.Schedule(id, fn)
}

func (d *Dashboard) WaitReady() {
	if d == nil {
		return
	}
	select {
	case <-d.ready:
	case <-d.done:
	}
}

// Done is closed when the user quits or the application exits.
func (d *Dashboard) Done() <-chan struct{} {
	return d.done
}

func (d *Dashboard) quit() {
	d.quitOnce.Do(func() { close(d.done) })
}

func (d *Dashboard) Stop() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		d.quit()
		if d.scheduler != nil {
			d.scheduler.Stop()
		}
		d.app.Stop()
	})
}

func (d *Dashboard) SetStats(lines []string) {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.stats = append(d.stats[:0], lines...)
	d.mu.Unlock()
	d.schedule("stats", d.renderStats)
}

func (d *Dashboard) SetSnapshot(snap *engine.Snapshot) {
	if d == nil || snap == nil {
		return
	}
	d.mu.Lock()
	if d.snap == nil {
		d.sel.reset(snap.Cluster)
	}
	d.snap = snap
	d.mu.Unlock()
	d.schedule("snapshot", d.renderSnapshot)
}

func (d *Dashboard) AppendSystem(line string) {
	if d == nil {
		return
	}
	d.system.Append(LogLine{Timestamp: d.now(), Text: line})
	d.schedule("system", d.renderSystem)
}

func (d *Dashboard) renderSnapshot() {
	d.mu.Lock()
	snap, selected := d.snap, d.sel.pos
	d.mu.Unlock()
	if snap == nil {
		return
	}
	now := d.now()
	d.bannerView.SetText(formatBanner(snap, d.pal))
	d.headerView.SetText(formatHeader(snap, now, d.pal))
	d.noticeView.SetText(formatNotice(snap.Notice, d.pal))
	d.componentsView.SetText(formatComponents(snap, selected, d.pal))
	d.alertsView.SetTitle(fmt.Sprintf(" Alerts (%d unread) ", snap.AlertSummary.Unread))
	d.alertsView.SetText(formatAlerts(snap.Alerts, now, alertRows, d.pal))
	errTitle := " Error Log "
	if sig := formatSignatures(snap.Signatures, 3); sig != "" {
		errTitle = " Error Log | " + sig + " "
	}
	d.errorsView.SetTitle(errTitle)
	d.errorsView.SetText(formatErrorLogs(snap.ErrorLogs, errorRows, d.pal))
	d.throughputView.SetText(formatThroughput(snap.TopicSamples, sampleRows, d.pal))
}

func (d *Dashboard) renderComponents() {
	d.mu.Lock()
	snap, selected := d.snap, d.sel.pos
	d.mu.Unlock()
	d.componentsView.SetText(formatComponents(snap, selected, d.pal))
}

func (d *Dashboard) renderStats() {
	d.mu.Lock()
	lines := append([]string(nil), d.stats...)
	d.mu.Unlock()
	lines = append(lines, d.metrics.Line())
	d.statsView.SetText(strings.Join(lines, "\n"))
}

func (d *Dashboard) renderSystem() {
	snap := d.system.Snapshot(d.systemScratch)
	d.systemScratch = snap.Lines
	var b strings.Builder
	for i, line := range snap.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line.Timestamp.Format("15:04:05 "))
		b.WriteString(tview.Escape(line.Text))
	}
	d.systemView.SetText(b.String())
	d.systemView.ScrollToEnd()
}

// handleKey implements the dashboard key bindings.
func (d *Dashboard) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyCtrlC:
		d.quit()
		return nil
	case tcell.KeyUp:
		d.moveCursor(-1)
		return nil
	case tcell.KeyDown:
		d.moveCursor(1)
		return nil
	case tcell.KeyEnter:
		d.toggleSelected()
		return nil
	case tcell.KeyEsc:
		d.run("dismiss notice", func(ctx context.Context) error { return d.actions.DismissNotice(ctx) })
		return nil
	}
	switch event.Rune() {
	case 'q', 'Q':
		d.quit()
		return nil
	case 'k':
		d.moveCursor(-1)
		return nil
	case 'j':
		d.moveCursor(1)
		return nil
	case ' ':
		d.toggleSelected()
		return nil
	case 'b':
		d.jump(cluster.GroupBrokers)
		return nil
	case 'c':
		d.jump(cluster.GroupControllers)
		return nil
	case 'n':
		d.jump(cluster.GroupConnectors)
		return nil
	case 's':
		d.jump(cluster.GroupSchemaRegistry)
		return nil
	case 'r':
		d.run("mark alerts read", func(ctx context.Context) error {
			_, err := d.actions.MarkAlertsRead(ctx)
			return err
		})
		return nil
	case 'x':
		d.run("clear alerts", func(ctx context.Context) error { return d.actions.ClearAlerts(ctx) })
		return nil
	}
	return event
}

func (d *Dashboard) moveCursor(delta int) {
	d.mu.Lock()
	d.sel.move(delta)
	d.mu.Unlock()
	d.schedule("components", d.renderComponents)
}

func (d *Dashboard) jump(g cluster.Group) {
	d.mu.Lock()
	d.sel.jump(g)
	d.mu.Unlock()
	d.schedule("components", d.renderComponents)
}

func (d *Dashboard) toggleSelected() {
	d.mu.Lock()
	c, ok := d.sel.current()
	d.mu.Unlock()
	if !ok {
		return
	}
	d.run(fmt.Sprintf("toggle %s[%d]", c.group, c.index), func(ctx context.Context) error {
		return d.actions.Toggle(ctx, c.group, c.index)
	})
}

// run hands an intent to the session off the UI goroutine. Rejections the
// session already reports as a notice are not logged again.
func (d *Dashboard) run(what string, fn func(ctx context.Context) error) {
	if d.actions == nil {
		return
	}
	d.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		err := fn(ctx)
		d.metrics.ObserveAction(err)
		if err != nil && !errors.Is(err, cluster.ErrInvalidIndex) {
			log.Printf("UI: %s failed: %v", what, err)
		}
	})
}

func (d *Dashboard) SystemWriter() io.Writer {
	if d == nil {
		return nil
	}
	return &paneWriter{dash: d}
}

// paneWriter splits log output into lines for the system pane.
type paneWriter struct {
	dash *Dashboard
	mu   sync.Mutex
	// buf holds any partial line, bounded when no newline arrives.
	buf []byte
}

func (w *paneWriter) Write(p []byte) (int, error) {
	if w == nil || w.dash == nil {
		return len(p), nil
	}
	w.mu.Lock()
	w.buf = append(w.buf, p...)
	if excess := len(w.buf) - paneWriterMaxBytes; excess > 0 {
		w.buf = w.buf[excess:]
	}
	var lines []string
	for {
		idx := bytes.IndexByte(w.buf, '\n')
		if idx == -1 {
			break
		}
		lines = append(lines, string(bytes.TrimRight(w.buf[:idx], "\r")))
		w.buf = w.buf[idx+1:]
	}
	w.mu.Unlock()
	for _, line := range lines {
		w.dash.AppendSystem(line)
	}
	return len(p), nil
}
