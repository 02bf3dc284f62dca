package engine

import (
	"context"
	"time"

	"clusterwatch/cluster"
)

// do hands fn to the loop and waits for its result. Intents queue until
// Start runs; ctx bounds the wait.
func (s *Session) do(ctx context.Context, fn func(now time.Time) error) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	in := intent{apply: fn, reply: make(chan error, 1)}
	select {
	case s.intents <- in:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-in.reply:
		return err
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Toggle flips record index of group g. It returns an error wrapping
// cluster.ErrInvalidIndex when index is out of range (state unchanged, a
// notice is raised) and ErrMutationFault for any other failure.
func (s *Session) Toggle(ctx context.Context, g cluster.Group, index int) error {
	return s.do(ctx, func(now time.Time) error {
		return s.applyToggle(g, index, now)
	})
}

func (s *Session) ToggleBroker(ctx context.Context, index int) error {
	return s.Toggle(ctx, cluster.GroupBrokers, index)
}

func (s *Session) ToggleController(ctx context.Context, index int) error {
	return s.Toggle(ctx, cluster.GroupControllers, index)
}

func (s *Session) ToggleConnector(ctx context.Context, index int) error {
	return s.Toggle(ctx, cluster.GroupConnectors, index)
}

func (s *Session) ToggleSchemaRegistry(ctx context.Context, index int) error {
	return s.Toggle(ctx, cluster.GroupSchemaRegistry, index)
}

// MarkAlertsRead flags every retained alert as read and returns how many changed.
func (s *Session) MarkAlertsRead(ctx context.Context) (int, error) {
	var changed int
	err := s.do(ctx, func(time.Time) error {
		changed = s.alerts.MarkAllRead()
		return nil
	})
	return changed, err
}

// ClearAlerts empties the alert log.
func (s *Session) ClearAlerts(ctx context.Context) error {
	return s.do(ctx, func(time.Time) error {
		s.alerts.Clear()
		return nil
	})
}

// DismissNotice closes the current notice before its auto-hide deadline.
func (s *Session) DismissNotice(ctx context.Context) error {
	return s.do(ctx, func(time.Time) error {
		s.dismissNotice()
		return nil
	})
}
