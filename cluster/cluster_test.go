package cluster

import (
	"errors"
	"testing"
)

func TestDeriveStatusAllActive(t *testing.T) {
	h := DeriveStatus(SeedState())
	if h.IsEmergency {
		t.Fatalf("expected no emergency for all-active seed")
	}
	if !h.BrokerActive {
		t.Fatalf("expected brokerActive=true for all-active seed")
	}
	if got := h.Group(GroupBrokers); got.Active != 3 || got.Total != 3 {
		t.Fatalf("expected 3/3 brokers active, got %+v", got)
	}
}

func TestDeriveStatusAnyGroupDown(t *testing.T) {
	cases := []struct {
		name         string
		mutate       func(*State)
		brokerActive bool
	}{
		{"broker", func(s *State) { s.Brokers[2].Status = StatusInactive }, false},
		{"controller", func(s *State) { s.Controllers[0].Status = StatusInactive }, true},
		{"connector", func(s *State) { s.Connectors[1].Status = StatusInactive }, true},
		{"schema registry", func(s *State) { s.SchemaRegistry[1].Status = StatusInactive }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := SeedState()
			tc.mutate(&s)
			h := DeriveStatus(s)
			if !h.IsEmergency {
				t.Fatalf("expected emergency when a %s is down", tc.name)
			}
			if h.BrokerActive != tc.brokerActive {
				t.Fatalf("expected brokerActive=%v, got %v", tc.brokerActive, h.BrokerActive)
			}
			if h.AnyBrokerDown == h.BrokerActive {
				t.Fatalf("anyBrokerDown must be the negation of brokerActive")
			}
		})
	}
}

func TestDeriveStatusEmptyRegistry(t *testing.T) {
	h := DeriveStatus(State{})
	if h.IsEmergency || !h.BrokerActive {
		t.Fatalf("expected empty registry to be healthy, got %+v", h)
	}
}

func TestToggleBrokerFlipsStatusAndHealth(t *testing.T) {
	seed := SeedState()
	next, tr, err := Toggle(seed, GroupBrokers, 0, ToggleOptions{})
	if err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if next.Brokers[0].Status != StatusInactive || next.Brokers[0].Health != 0 {
		t.Fatalf("expected broker 0 inactive with health 0, got %+v", next.Brokers[0])
	}
	if seed.Brokers[0].Status != StatusActive {
		t.Fatalf("expected input state to be left untouched")
	}
	if tr.ID != 1 || tr.From != StatusActive || tr.To != StatusInactive || tr.Started() {
		t.Fatalf("unexpected transition: %+v", tr)
	}

	back, tr, err := Toggle(next, GroupBrokers, 0, ToggleOptions{})
	if err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if back.Brokers[0] != seed.Brokers[0] {
		t.Fatalf("expected double toggle to restore %+v, got %+v", seed.Brokers[0], back.Brokers[0])
	}
	if !tr.Started() {
		t.Fatalf("expected second transition to start the broker")
	}
}

func TestToggleInvalidIndex(t *testing.T) {
	seed := SeedState()
	for _, idx := range []int{-1, 3, 5} {
		next, _, err := Toggle(seed, GroupBrokers, idx, ToggleOptions{})
		if !errors.Is(err, ErrInvalidIndex) {
			t.Fatalf("index %d: expected ErrInvalidIndex, got %v", idx, err)
		}
		for i := range seed.Brokers {
			if next.Brokers[i] != seed.Brokers[i] {
				t.Fatalf("index %d: broker %d changed to %+v", idx, i, next.Brokers[i])
			}
		}
	}
}

func TestToggleUnknownGroup(t *testing.T) {
	_, _, err := Toggle(SeedState(), Group("zookeepers"), 0, ToggleOptions{})
	if !errors.Is(err, ErrUnknownGroup) {
		t.Fatalf("expected ErrUnknownGroup, got %v", err)
	}
}

func TestToggleCarriesGroupFields(t *testing.T) {
	_, tr, err := Toggle(SeedState(), GroupConnectors, 0, ToggleOptions{})
	if err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if tr.Name != "mysql-sink" {
		t.Fatalf("expected connector name in transition, got %q", tr.Name)
	}
	_, tr, err = Toggle(SeedState(), GroupSchemaRegistry, 1, ToggleOptions{})
	if err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if tr.Mode != ModeBackup || tr.ID != 2 {
		t.Fatalf("expected backup node 2, got %+v", tr)
	}
}

func TestLeaderReelection(t *testing.T) {
	opts := ToggleOptions{LeaderElection: true}
	s := SeedState()

	s, tr, err := Toggle(s, GroupControllers, 0, opts)
	if err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if tr.Leader == nil || tr.Leader.From != 1 || tr.Leader.To != 2 {
		t.Fatalf("expected leadership 1->2, got %+v", tr.Leader)
	}
	if s.Leader() != 2 || s.Controllers[0].IsLeader {
		t.Fatalf("expected controller 2 to lead, got %+v", s.Controllers)
	}

	s, _, _ = Toggle(s, GroupControllers, 1, opts)
	s, tr, _ = Toggle(s, GroupControllers, 2, opts)
	if tr.Leader == nil || tr.Leader.From != 3 || tr.Leader.To != 0 {
		t.Fatalf("expected leadership 3->none, got %+v", tr.Leader)
	}
	if s.Leader() != 0 {
		t.Fatalf("expected no leader with all controllers down")
	}

	s, tr, _ = Toggle(s, GroupControllers, 1, opts)
	if tr.Leader == nil || tr.Leader.To != 2 {
		t.Fatalf("expected restarted controller 2 to take leadership, got %+v", tr.Leader)
	}
	_, tr, _ = Toggle(s, GroupControllers, 0, opts)
	if tr.Leader != nil {
		t.Fatalf("expected no leadership change while controller 2 leads, got %+v", tr.Leader)
	}
}

func TestLeaderElectionDisabledAllowsLeaderlessState(t *testing.T) {
	s, tr, err := Toggle(SeedState(), GroupControllers, 0, ToggleOptions{})
	if err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if tr.Leader != nil {
		t.Fatalf("expected no leader change, got %+v", tr.Leader)
	}
	if !s.Controllers[0].IsLeader {
		t.Fatalf("expected stopped controller to keep its leader flag")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(SeedState()); err != nil {
		t.Fatalf("expected seed to validate, got %v", err)
	}
	bad := SeedState()
	bad.Brokers[1].ID = 1
	if err := Validate(bad); err == nil {
		t.Fatalf("expected duplicate broker id to be rejected")
	}
	bad = SeedState()
	bad.Connectors[0].Type = "bridge"
	if err := Validate(bad); err == nil {
		t.Fatalf("expected unknown connector type to be rejected")
	}
	bad = SeedState()
	bad.Brokers[0].Health = 140
	if err := Validate(bad); err == nil {
		t.Fatalf("expected out-of-range health to be rejected")
	}
	if err := Validate(State{}); err == nil {
		t.Fatalf("expected empty registry to be rejected")
	}
}

func TestParseGroup(t *testing.T) {
	cases := map[string]Group{
		"brokers":         GroupBrokers,
		"Controller":      GroupControllers,
		"connectors":      GroupConnectors,
		"schema-registry": GroupSchemaRegistry,
		"schemaRegistry":  GroupSchemaRegistry,
	}
	for in, want := range cases {
		got, ok := ParseGroup(in)
		if !ok || got != want {
			t.Fatalf("ParseGroup(%q) = %q,%v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseGroup("zookeeper"); ok {
		t.Fatalf("expected unknown group to fail")
	}
}
