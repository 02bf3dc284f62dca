package cluster

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIndex is returned when a toggle targets an index outside its group.
	ErrInvalidIndex = errors.New("invalid index")
	// ErrUnknownGroup is returned for a group name outside Groups.
	ErrUnknownGroup = errors.New("unknown component group")
)

// ToggleOptions tunes side effects of Toggle.
type ToggleOptions struct {
	// LeaderElection moves controller leadership when the leader stops or
	// when a controller starts while nobody leads. When false, leadership is
	// left as-is and zero or multiple leaders are allowed as a fault state.
	LeaderElection bool
}

// LeaderChange records a leadership move between controller IDs (0 = none).
type LeaderChange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Transition describes one successful toggle.
type Transition struct {
	Group  Group         `json:"group"`
	Index  int           `json:"index"`
	ID     int           `json:"id"`
	Name   string        `json:"name,omitempty"`
	Mode   RegistryMode  `json:"mode,omitempty"`
	From   Status        `json:"from"`
	To     Status        `json:"to"`
	Leader *LeaderChange `json:"leader,omitempty"`
}

// Started reports whether the component became active.
func (t Transition) Started() bool {
	return t.To == StatusActive
}

// Toggle flips the status of record index in group g and returns the new
// State. The input State is never modified; only the touched group is copied.
func Toggle(s State, g Group, index int, opts ToggleOptions) (State, Transition, error) {
	n, ok := s.Len(g)
	if !ok {
		return s, Transition{}, fmt.Errorf("%w: %q", ErrUnknownGroup, g)
	}
	if index < 0 || index >= n {
		return s, Transition{}, fmt.Errorf("%w: %s[%d] (size %d)", ErrInvalidIndex, g, index, n)
	}

	next := s
	tr := Transition{Group: g, Index: index}
	switch g {
	case GroupBrokers:
		brokers := append([]Broker(nil), s.Brokers...)
		b := &brokers[index]
		tr.ID, tr.From = b.ID, b.Status
		b.Status = b.Status.Toggled()
		if b.Status == StatusActive {
			b.Health = 100
		} else {
			b.Health = 0
		}
		tr.To = b.Status
		next.Brokers = brokers
	case GroupControllers:
		controllers := append([]Controller(nil), s.Controllers...)
		c := &controllers[index]
		tr.ID, tr.From = c.ID, c.Status
		c.Status = c.Status.Toggled()
		tr.To = c.Status
		if opts.LeaderElection {
			tr.Leader = reelect(controllers, index)
		}
		next.Controllers = controllers
	case GroupConnectors:
		connectors := append([]Connector(nil), s.Connectors...)
		c := &connectors[index]
		tr.ID, tr.Name, tr.From = c.ID, c.Name, c.Status
		c.Status = c.Status.Toggled()
		tr.To = c.Status
		next.Connectors = connectors
	case GroupSchemaRegistry:
		nodes := append([]SchemaRegistryNode(nil), s.SchemaRegistry...)
		sr := &nodes[index]
		tr.ID, tr.Mode, tr.From = sr.ID, sr.Mode, sr.Status
		sr.Status = sr.Status.Toggled()
		tr.To = sr.Status
		next.SchemaRegistry = nodes
	}
	return next, tr, nil
}

// reelect adjusts leadership in place after controllers[toggled] changed
// status. A stopped leader hands over to the first active controller; a
// started controller takes over only when nobody leads.
func reelect(controllers []Controller, toggled int) *LeaderChange {
	c := &controllers[toggled]
	if c.Status != StatusActive {
		if !c.IsLeader {
			return nil
		}
		c.IsLeader = false
		change := &LeaderChange{From: c.ID}
		for i := range controllers {
			if controllers[i].Status == StatusActive {
				controllers[i].IsLeader = true
				change.To = controllers[i].ID
				break
			}
		}
		return change
	}
	for _, other := range controllers {
		if other.IsLeader {
			return nil
		}
	}
	c.IsLeader = true
	return &LeaderChange{To: c.ID}
}
