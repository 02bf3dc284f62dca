package buffer

import "testing"

func TestRecentRetainsNewestFirst(t *testing.T) {
	r := NewRecent[int](51)
	for i := 1; i <= 52; i++ {
		r.Push(i)
	}
	if r.Len() != 51 {
		t.Fatalf("expected 51 retained values, got %d", r.Len())
	}
	items := r.Items()
	for i, v := range items {
		if want := 52 - i; v != want {
			t.Fatalf("expected items[%d]=%d, got %d", i, want, v)
		}
	}
	if r.Total() != 52 {
		t.Fatalf("expected total 52, got %d", r.Total())
	}
}

func TestRecentViewsAreStable(t *testing.T) {
	r := NewRecent[string](2)
	r.Push("a")
	r.Push("b")
	view := r.Items()
	r.Push("c")
	if view[0] != "b" || view[1] != "a" {
		t.Fatalf("expected earlier view to stay [b a], got %v", view)
	}
	if got := r.Items(); got[0] != "c" || got[1] != "b" {
		t.Fatalf("expected [c b], got %v", got)
	}
}

func TestRecentReplaceTruncates(t *testing.T) {
	r := NewRecent[int](3)
	src := []int{9, 8, 7, 6}
	r.Replace(src)
	if r.Len() != 3 {
		t.Fatalf("expected 3 values after replace, got %d", r.Len())
	}
	src[0] = 100
	if r.Items()[0] != 9 {
		t.Fatalf("expected replace to copy caller slice")
	}
	r.Reset()
	if _, ok := r.Newest(); ok {
		t.Fatalf("expected empty log after reset")
	}
}

func TestRecentClampsCapacity(t *testing.T) {
	r := NewRecent[int](0)
	r.Push(1)
	r.Push(2)
	if r.Cap() != 1 || r.Len() != 1 || r.Items()[0] != 2 {
		t.Fatalf("expected single newest value, got cap=%d items=%v", r.Cap(), r.Items())
	}
}
