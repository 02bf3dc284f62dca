// Package engine runs one dashboard session: it owns the cluster registry,
// alert log, telemetry streams, emergency banner and their timers, and
// publishes an immutable Snapshot after every step.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"clusterwatch/alerts"
	"clusterwatch/cluster"
	"clusterwatch/stats"
	"clusterwatch/telemetry"
)

var (
	// ErrMutationFault wraps any failure inside the update path other than an
	// invalid index. The attempted mutation is discarded.
	ErrMutationFault = errors.New("unexpected mutation fault")
	// ErrSessionClosed is returned by intents after teardown.
	ErrSessionClosed = errors.New("session closed")
)

const (
	DefaultErrorLogInterval = 4 * time.Second
	DefaultTopicInterval    = time.Second
	DefaultNoticeDuration   = 6 * time.Second
	defaultIntentBuffer     = 16
)

// Options tunes a session. Zero values fall back to DefaultOptions.
type Options struct {
	BannerDuration    time.Duration
	NoticeDuration    time.Duration
	ErrorLogInterval  time.Duration
	TopicInterval     time.Duration
	ErrorLogRetention int
	TopicRetention    int
	AlertRetention    int
	LeaderElection    bool
	SeedErrorLogs     bool
	IntentBuffer      int
	// Rand drives both telemetry streams. Nil builds one from Seed.
	Rand *rand.Rand
	Seed uint64
	// Tracker counts session activity; nil disables counting.
	Tracker *stats.Tracker
	// Logf receives engine log lines; nil uses log.Printf.
	Logf func(format string, args ...any)
}

// DefaultOptions returns the stock session timings and retention caps.
func DefaultOptions() Options {
	return Options{
		BannerDuration:    DefaultBannerDuration,
		NoticeDuration:    DefaultNoticeDuration,
		ErrorLogInterval:  DefaultErrorLogInterval,
		TopicInterval:     DefaultTopicInterval,
		ErrorLogRetention: telemetry.ErrorLogRetention,
		TopicRetention:    telemetry.TopicRetention,
		AlertRetention:    alerts.DefaultRetention,
		LeaderElection:    true,
		SeedErrorLogs:     true,
		IntentBuffer:      defaultIntentBuffer,
	}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.BannerDuration <= 0 {
		o.BannerDuration = def.BannerDuration
	}
	if o.NoticeDuration <= 0 {
		o.NoticeDuration = def.NoticeDuration
	}
	if o.ErrorLogInterval <= 0 {
		o.ErrorLogInterval = def.ErrorLogInterval
	}
	if o.TopicInterval <= 0 {
		o.TopicInterval = def.TopicInterval
	}
	if o.ErrorLogRetention <= 0 {
		o.ErrorLogRetention = def.ErrorLogRetention
	}
	if o.TopicRetention <= 0 {
		o.TopicRetention = def.TopicRetention
	}
	if o.AlertRetention <= 0 {
		o.AlertRetention = def.AlertRetention
	}
	if o.IntentBuffer <= 0 {
		o.IntentBuffer = def.IntentBuffer
	}
	if o.Rand == nil {
		o.Rand = telemetry.NewRand(o.Seed)
	}
	if o.Logf == nil {
		o.Logf = log.Printf
	}
	return o
}

type intent struct {
	apply func(now time.Time) error
	reply chan error
}

type toggleFunc func(cluster.State, cluster.Group, int, cluster.ToggleOptions) (cluster.State, cluster.Transition, error)

// Session is the explicit state container for one dashboard.
//
// Concurrency contract:
// - Only the loop goroutine started by Start reads or writes session state.
// - Intents are handed to the loop over a channel and answered on a reply channel.
// - Snapshot and Subscribe are safe from any goroutine.
type Session struct {
	opts    Options
	clock   Clock
	logf    func(format string, args ...any)
	tracker *stats.Tracker
	toggle  toggleFunc

	intents chan intent
	done    chan struct{}
	started atomic.Bool

	// loop-owned
	state       cluster.State
	health      cluster.Health
	emergency   bool
	alerts      *alerts.Log
	errors      *telemetry.ErrorStream
	topics      *telemetry.TopicStream
	banner      banner
	errorTicker Ticker
	topicTicker Ticker
	notice      Notice
	noticeTimer Timer
	seq         uint64

	current atomic.Pointer[Snapshot]

	subsMu  sync.Mutex
	subs    map[int]chan *Snapshot
	nextSub int
	closed  bool
}

// Purpose: Construct a session from the initial registry and alerts.
// Key aspects: Uses the wall clock; nothing runs until Start.
// Upstream: main after source.LoadInitial.
// Downstream: Start, intents, Snapshot, Subscribe.
func New(initial cluster.State, initialAlerts []alerts.Event, opts Options) *Session {
	return newSession(initial, initialAlerts, opts, SystemClock)
}

func newSession(initial cluster.State, initialAlerts []alerts.Event, opts Options, clock Clock) *Session {
	opts = opts.normalized()
	s := &Session{
		opts:    opts,
		clock:   clock,
		logf:    opts.Logf,
		tracker: opts.Tracker,
		toggle:  cluster.Toggle,
		intents: make(chan intent, opts.IntentBuffer),
		done:    make(chan struct{}),
		state:   initial,
		alerts:  alerts.NewLog(opts.AlertRetention),
		errors:  telemetry.NewErrorStream(opts.Rand, opts.ErrorLogRetention),
		topics:  telemetry.NewTopicStream(opts.Rand, opts.TopicRetention),
		banner:  newBanner(opts.BannerDuration),
		subs:    make(map[int]chan *Snapshot),
	}
	s.alerts.Seed(initialAlerts)
	s.health = cluster.DeriveStatus(initial)
	now := clock.Now()
	if opts.SeedErrorLogs {
		s.errors.SeedHistory(now)
	}
	s.current.Store(s.buildSnapshot(now))
	return s
}

// Purpose: Start the session loop.
// Key aspects: Arms the throughput ticker, treats an initial emergency as a
// rising edge, and tears everything down when ctx is cancelled.
// Upstream: main startup.
// Downstream: toggle handlers, timer handlers, publish.
func (s *Session) Start(ctx context.Context) {
	if s == nil || !s.started.CompareAndSwap(false, true) {
		return
	}
	s.start(s.clock.Now())
	go func() {
		defer s.teardown()
		for {
			select {
			case <-ctx.Done():
				return
			case in := <-s.intents:
				now := s.clock.Now()
				in.reply <- s.dispatch(in.apply, now)
				s.publish(now)
			case <-s.banner.C():
				now := s.clock.Now()
				s.onBannerDeadline(now)
				s.publish(now)
			case <-timerC(s.noticeTimer):
				now := s.clock.Now()
				s.onNoticeDeadline()
				s.publish(now)
			case <-tickerC(s.errorTicker):
				now := s.clock.Now()
				s.onErrorTick(now)
				s.publish(now)
			case <-tickerC(s.topicTicker):
				now := s.clock.Now()
				s.onTopicTick(now)
				s.publish(now)
			}
		}
	}()
}

func (s *Session) start(now time.Time) {
	s.topicTicker = s.clock.NewTicker(s.opts.TopicInterval)
	s.observe(now)
	s.publish(now)
}

// Done is closed once the loop has stopped and every timer is released.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until teardown completes.
func (s *Session) Wait() {
	<-s.done
}

func (s *Session) teardown() {
	s.banner.hide()
	s.dismissNotice()
	s.stopErrorTicker()
	if s.topicTicker != nil {
		s.topicTicker.Stop()
		s.topicTicker = nil
	}
	s.subsMu.Lock()
	s.closed = true
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subsMu.Unlock()
	s.logf("Engine: session stopped")
	close(s.done)
}

// dispatch runs one intent, converting a panic into ErrMutationFault. A
// recovered intent leaves the registry, alert log and emergency edge exactly
// as they were before it ran.
func (s *Session) dispatch(apply func(time.Time) error, now time.Time) (err error) {
	prevState := s.state
	prevHealth := s.health
	prevEmergency := s.emergency
	prevAlerts := s.alerts.Events()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrMutationFault, r)
			s.state = prevState
			s.health = prevHealth
			s.alerts.Restore(prevAlerts)
			s.rollbackEdge(prevEmergency)
			s.logf("Engine: recovered from mutation panic: %v", r)
			s.raise(alerts.SeverityError, fmt.Sprintf("Failed to update component status: %v", r))
		}
	}()
	return apply(now)
}

// rollbackEdge puts the banner and error log generator back in line with
// the restored emergency flag. A half-applied rising edge is undone; an
// emergency that held before keeps its generator but never re-shows the
// banner.
func (s *Session) rollbackEdge(emergency bool) {
	if emergency {
		s.startErrorTicker()
	} else {
		s.banner.hide()
		s.stopErrorTicker()
	}
	s.emergency = emergency
}

// observe recomputes health and feeds edges of the emergency flag to the
// banner and the error log generator.
func (s *Session) observe(now time.Time) {
	s.health = cluster.DeriveStatus(s.state)
	emergency := s.health.IsEmergency
	switch {
	case emergency && !s.emergency:
		s.banner.show(s.clock, now)
		s.startErrorTicker()
		s.tracker.IncrementEmergency()
		s.tracker.IncrementBannerShow()
		s.logf("Engine: cluster entered emergency (%s)", describeDown(s.health))
	case !emergency && s.emergency:
		s.banner.hide()
		s.stopErrorTicker()
		s.logf("Engine: cluster recovered")
	}
	s.emergency = emergency
}

func (s *Session) startErrorTicker() {
	if s.errorTicker != nil {
		return
	}
	s.errorTicker = s.clock.NewTicker(s.opts.ErrorLogInterval)
}

func (s *Session) stopErrorTicker() {
	if s.errorTicker == nil {
		return
	}
	s.errorTicker.Stop()
	s.errorTicker = nil
}

func (s *Session) onBannerDeadline(now time.Time) {
	if s.banner.hide() {
		s.logf("Engine: emergency banner expired at %s", now.Format("15:04:05"))
	}
}

func (s *Session) onErrorTick(now time.Time) {
	if !s.emergency {
		return
	}
	entry := s.errors.Next(now)
	s.tracker.IncrementErrorLog(string(entry.Level))
}

func (s *Session) onTopicTick(now time.Time) {
	s.topics.Next(now)
	s.tracker.IncrementTopicSample()
}

// applyToggle is the loop-side body of every toggle intent.
func (s *Session) applyToggle(g cluster.Group, index int, now time.Time) error {
	next, tr, err := s.toggle(s.state, g, index, cluster.ToggleOptions{LeaderElection: s.opts.LeaderElection})
	if err != nil {
		noun := strings.ToLower(g.Label())
		if errors.Is(err, cluster.ErrInvalidIndex) {
			s.tracker.IncrementToggle(string(g), stats.OutcomeInvalid)
			s.raise(alerts.SeverityError, fmt.Sprintf("Invalid %s index: %d", noun, index))
			return err
		}
		s.tracker.IncrementToggle(string(g), stats.OutcomeFault)
		s.raise(alerts.SeverityError, fmt.Sprintf("Failed to update %s status: %v", noun, err))
		return fmt.Errorf("%w: %w", ErrMutationFault, err)
	}
	s.state = next
	ev := s.alerts.Record(tr, now)
	s.observe(now)
	s.tracker.IncrementToggle(string(g), stats.OutcomeApplied)
	s.tracker.IncrementAlert(string(ev.Severity))
	return nil
}

// raise opens a notice, replacing any current one and restarting its
// auto-hide deadline.
func (s *Session) raise(sev alerts.Severity, message string) {
	if s.noticeTimer != nil {
		s.noticeTimer.Stop()
	}
	s.notice = Notice{Open: true, Severity: sev, Message: message}
	s.noticeTimer = s.clock.NewTimer(s.opts.NoticeDuration)
}

func (s *Session) dismissNotice() {
	if s.noticeTimer != nil {
		s.noticeTimer.Stop()
		s.noticeTimer = nil
	}
	s.notice = Notice{}
}

func (s *Session) onNoticeDeadline() {
	s.noticeTimer = nil
	s.notice = Notice{}
}

// publish stores a fresh snapshot and fans it out. A subscriber that has not
// drained its previous snapshot gets the stale one replaced.
func (s *Session) publish(now time.Time) {
	snap := s.buildSnapshot(now)
	s.current.Store(snap)
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// Snapshot returns the latest published snapshot.
func (s *Session) Snapshot() *Snapshot {
	return s.current.Load()
}

// Subscribe returns a channel receiving every published snapshot, starting
// with the current one. Slow readers only ever see the newest snapshot.
// The channel is closed by cancel or by teardown.
func (s *Session) Subscribe(buffer int) (<-chan *Snapshot, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan *Snapshot, buffer)
	s.subsMu.Lock()
	if s.closed {
		s.subsMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	if snap := s.current.Load(); snap != nil {
		ch <- snap
	}
	s.subsMu.Unlock()
	cancel := func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func describeDown(h cluster.Health) string {
	var parts []string
	for _, gh := range h.Groups {
		if gh.Down() {
			parts = append(parts, fmt.Sprintf("%s %d/%d active", gh.Group, gh.Active, gh.Total))
		}
	}
	return strings.Join(parts, ", ")
}
