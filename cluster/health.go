package cluster

// GroupHealth counts active records in one group.
type GroupHealth struct {
	Group  Group `json:"group"`
	Active int   `json:"active"`
	Total  int   `json:"total"`
}

// Down reports whether any record in the group is not active.
func (g GroupHealth) Down() bool {
	return g.Active < g.Total
}

// Health is the system-wide view derived from a State.
type Health struct {
	// IsEmergency is true iff any record in any group is not active.
	IsEmergency bool `json:"isEmergency"`
	// BrokerActive is true iff no broker is inactive.
	BrokerActive  bool          `json:"brokerActive"`
	AnyBrokerDown bool          `json:"anyBrokerDown"`
	Groups        []GroupHealth `json:"groups"`
}

// Group returns the counts for g.
func (h Health) Group(g Group) GroupHealth {
	for _, gh := range h.Groups {
		if gh.Group == g {
			return gh
		}
	}
	return GroupHealth{Group: g}
}

// DeriveStatus computes Health from s. It is pure and total: an empty
// registry is healthy.
func DeriveStatus(s State) Health {
	h := Health{Groups: make([]GroupHealth, 0, len(Groups))}
	for _, g := range Groups {
		gh := GroupHealth{Group: g}
		for _, st := range s.Statuses(g) {
			gh.Total++
			if st == StatusActive {
				gh.Active++
			}
		}
		if gh.Down() {
			h.IsEmergency = true
			if g == GroupBrokers {
				h.AnyBrokerDown = true
			}
		}
		h.Groups = append(h.Groups, gh)
	}
	h.BrokerActive = !h.AnyBrokerDown
	return h
}
