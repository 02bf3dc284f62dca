package engine

import (
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"

	"clusterwatch/cluster"
)

func TestHiddenBannerOmitsDeadline(t *testing.T) {
	json := jsoniter.ConfigCompatibleWithStandardLibrary
	s, clock := newStartedSession(t, cluster.SeedState(), testOptions())

	hidden, err := json.Marshal(s.Snapshot().Banner)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(hidden) != `{"visible":false}` {
		t.Fatalf("unexpected hidden banner JSON %s", hidden)
	}

	_ = toggleAt(s, cluster.GroupBrokers, 0, clock.Now())
	shown, err := json.Marshal(s.Snapshot().Banner)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(shown), `"until":"2025-06-01T12:00:04Z"`) {
		t.Fatalf("expected deadline in visible banner JSON, got %s", shown)
	}
}
