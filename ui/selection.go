package ui

import "clusterwatch/cluster"

// selection is the component cursor of the dashboard. The registry shape is
// fixed for a session, so the cursor only needs clamping when the first
// snapshot arrives.
type selection struct {
	rows []component
	pos  int
}

func (s *selection) reset(state cluster.State) {
	s.rows = components(state)
	if s.pos >= len(s.rows) {
		s.pos = len(s.rows) - 1
	}
	if s.pos < 0 {
		s.pos = 0
	}
}

func (s *selection) move(delta int) {
	if len(s.rows) == 0 {
		return
	}
	s.pos = (s.pos + delta + len(s.rows)) % len(s.rows)
}

// jump moves to the first row of g.
func (s *selection) jump(g cluster.Group) bool {
	for i, c := range s.rows {
		if c.group == g {
			s.pos = i
			return true
		}
	}
	return false
}

func (s *selection) current() (component, bool) {
	if s.pos < 0 || s.pos >= len(s.rows) {
		return component{}, false
	}
	return s.rows[s.pos], true
}
