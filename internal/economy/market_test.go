package economy

import (
	"testing"

	"github.com/redmesa/solward/internal/agents"
)

func TestAddAssignsUniqueStableIDs(t *testing.T) {
	m := NewMarket()
	a := m.Add("s1", agents.NewGood(agents.GoodFood, 0.5, "shrooms"), 10, 1)
	b := m.Add("s2", agents.NewGood(agents.GoodFun, 0.7, "tv"), 20, 1)

	if a.ID == "" || b.ID == "" {
		t.Fatal("expected non-empty listing ids")
	}
	if a.ID == b.ID {
		t.Fatal("listing ids must be unique")
	}

	got, ok := m.Get(a.ID)
	if !ok || got.SellerID != "s1" || got.Price != 10 {
		t.Errorf("Get(%q) = %+v ok=%v", a.ID, got, ok)
	}
}

func TestRemove(t *testing.T) {
	m := NewMarket()
	a := m.Add("s1", agents.NewGood(agents.GoodFood, 0.5, "shrooms"), 10, 1)
	b := m.Add("s2", agents.NewGood(agents.GoodRest, 0.6, "pillow"), 15, 1)

	if !m.Remove(a.ID) {
		t.Fatal("Remove returned false for existing listing")
	}
	if m.Remove(a.ID) {
		t.Fatal("second Remove of same id should return false")
	}
	if m.Len() != 1 {
		t.Fatalf("market has %d listings, want 1", m.Len())
	}
	if m.Listings[0].ID != b.ID {
		t.Error("remaining listing should be the one not removed")
	}
}

func TestFilteredPreservesOrder(t *testing.T) {
	m := NewMarket()
	m.Add("s1", agents.NewGood(agents.GoodFood, 0.2, "a"), 1, 1)
	m.Add("s1", agents.NewGood(agents.GoodFun, 0.3, "b"), 2, 1)
	m.Add("s2", agents.NewGood(agents.GoodFood, 0.4, "c"), 3, 2)

	food := agents.GoodFood
	got := m.Filtered(&food)
	if len(got) != 2 {
		t.Fatalf("filtered count = %d, want 2", len(got))
	}
	if got[0].Good.Name != "a" || got[1].Good.Name != "c" {
		t.Errorf("order not preserved: %q, %q", got[0].Good.Name, got[1].Good.Name)
	}

	all := m.Filtered(nil)
	if len(all) != 3 {
		t.Fatalf("unfiltered count = %d, want 3", len(all))
	}
}
