package engine

import "time"

// DefaultBannerDuration is how long the emergency banner stays up after the
// cluster enters emergency.
const DefaultBannerDuration = 4 * time.Second

// BannerState is the published view of the emergency banner.
type BannerState struct {
	Visible bool `json:"visible"`
	// Until is nil while the banner is hidden.
	Until *time.Time `json:"until,omitempty"`
}

// banner is a two-state machine: hidden, or visible until a deadline. It owns
// the deadline timer; hiding always stops it so an old deadline cannot fire.
type banner struct {
	duration time.Duration
	visible  bool
	until    time.Time
	timer    Timer
}

func newBanner(d time.Duration) banner {
	if d <= 0 {
		d = DefaultBannerDuration
	}
	return banner{duration: d}
}

// show arms the deadline. Callers invoke it on the rising edge only, so an
// already visible banner is never extended.
func (b *banner) show(clock Clock, now time.Time) {
	if b.visible {
		return
	}
	b.visible = true
	b.until = now.Add(b.duration)
	b.timer = clock.NewTimer(b.duration)
}

// hide cancels the pending deadline. It reports whether the banner was visible.
func (b *banner) hide() bool {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	was := b.visible
	b.visible = false
	b.until = time.Time{}
	return was
}

// C is the armed deadline channel, nil while hidden.
func (b *banner) C() <-chan time.Time {
	if b.timer == nil {
		return nil
	}
	return b.timer.C()
}

func (b *banner) state() BannerState {
	st := BannerState{Visible: b.visible}
	if b.visible {
		until := b.until
		st.Until = &until
	}
	return st
}
