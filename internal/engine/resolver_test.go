package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/redmesa/solward/internal/agents"
)

// stubSource returns scripted draws: Float values feed Float and Range (as
// the fraction of the interval), ints feed IntN. Exhausted scripts yield
// zeroes, so Range returns lo.
type stubSource struct {
	floats []float64
	ints   []int
}

func (s *stubSource) Float() float64 {
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *stubSource) Range(lo, hi float64) float64 {
	return lo + s.Float()*(hi-lo)
}

func (s *stubSource) IntN(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

func newTestAgent(name string, credits float64) *agents.Agent {
	return &agents.Agent{
		ID:      "id-" + name,
		Name:    name,
		Alive:   true,
		Credits: credits,
		Needs:   agents.Needs{Food: 0.5, Rest: 0.5, Fun: 0.5},
		Memory:  agents.DefaultMemory,
	}
}

func TestCraftClampsBudgetToCredits(t *testing.T) {
	st := NewState()
	a := newTestAgent("ada", 50)
	st.Agents = append(st.Agents, a)
	r := NewResolver(&stubSource{})

	req := agents.ActionRequest{Type: agents.ActionCraft, Craft: &agents.CraftParams{
		GoodType: agents.GoodFun, Name: "Dust Harp", Materials: 200,
	}}
	entry, err := r.Resolve(st, a, req)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if entry.Err != "" {
		t.Fatalf("entry carries error %q", entry.Err)
	}
	if a.Credits != 0 {
		t.Errorf("credits = %v, want 0 (budget clamped to balance)", a.Credits)
	}
	if len(a.Goods) != 1 {
		t.Fatalf("inventory has %d goods, want 1", len(a.Goods))
	}
	// quality = 0.3 + min(0.5, 50/200) + 0 with a zeroed random source
	if got := a.Goods[0].Quality; got != 0.55 {
		t.Errorf("quality = %v, want 0.55", got)
	}
	if len(st.Inventions[st.Day]) != 1 {
		t.Errorf("invention log has %d entries, want 1", len(st.Inventions[st.Day]))
	}
}

func TestBuyOwnListingRejected(t *testing.T) {
	st := NewState()
	a := newTestAgent("ada", 100)
	st.Agents = append(st.Agents, a)
	l := st.Market.Add(a.ID, agents.NewGood(agents.GoodFun, 0.5, "tv"), 10, 1)
	r := NewResolver(&stubSource{})

	entry, err := r.Resolve(st, a, agents.ActionRequest{
		Type: agents.ActionBuy, Buy: &agents.BuyParams{ListingID: l.ID},
	})
	if !errors.Is(err, ErrOwnListing) {
		t.Fatalf("err = %v, want ErrOwnListing", err)
	}
	if entry.Err == "" {
		t.Error("rejected entry should carry the reason")
	}
	if a.Credits != 100 || st.Market.Len() != 1 || len(a.Goods) != 0 {
		t.Error("rejected buy must not mutate state")
	}
}

func TestBuyTransfersExactlyOnce(t *testing.T) {
	st := NewState()
	buyer := newTestAgent("buyer", 100)
	seller := newTestAgent("seller", 0)
	st.Agents = append(st.Agents, buyer, seller)
	l := st.Market.Add(seller.ID, agents.NewGood(agents.GoodFood, 0.5, "shrooms"), 40, 1)
	r := NewResolver(&stubSource{})

	if _, err := r.Resolve(st, buyer, agents.ActionRequest{
		Type: agents.ActionBuy, Buy: &agents.BuyParams{ListingID: l.ID},
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if buyer.Credits != 60 {
		t.Errorf("buyer credits = %v, want 60", buyer.Credits)
	}
	if seller.Credits != 40 {
		t.Errorf("seller credits = %v, want 40", seller.Credits)
	}
	if len(buyer.Goods) != 1 || buyer.Goods[0].Name != "shrooms" {
		t.Errorf("good not transferred, inventory %+v", buyer.Goods)
	}
	if st.Market.Len() != 0 {
		t.Error("listing not removed")
	}
	if buyer.Needs.Food != 0.7 {
		t.Errorf("food = %v, want 0.7 after FOOD purchase bump", buyer.Needs.Food)
	}

	_, err := r.Resolve(st, buyer, agents.ActionRequest{
		Type: agents.ActionBuy, Buy: &agents.BuyParams{ListingID: l.ID},
	})
	if !errors.Is(err, ErrNoListing) {
		t.Errorf("second buy err = %v, want ErrNoListing", err)
	}
}

func TestBuyRejectsUnaffordable(t *testing.T) {
	st := NewState()
	buyer := newTestAgent("buyer", 10)
	seller := newTestAgent("seller", 0)
	st.Agents = append(st.Agents, buyer, seller)
	l := st.Market.Add(seller.ID, agents.NewGood(agents.GoodFun, 0.5, "tv"), 500, 1)
	r := NewResolver(&stubSource{})

	_, err := r.Resolve(st, buyer, agents.ActionRequest{
		Type: agents.ActionBuy, Buy: &agents.BuyParams{ListingID: l.ID},
	})
	if !errors.Is(err, ErrUnaffordable) {
		t.Fatalf("err = %v, want ErrUnaffordable", err)
	}
	if buyer.Credits != 10 || st.Market.Len() != 1 {
		t.Error("rejected buy must not mutate state")
	}
}

func TestBuyAnyPicksAffordableForeignListing(t *testing.T) {
	st := NewState()
	buyer := newTestAgent("buyer", 50)
	seller := newTestAgent("seller", 0)
	st.Agents = append(st.Agents, buyer, seller)
	st.Market.Add(buyer.ID, agents.NewGood(agents.GoodFun, 0.5, "own"), 10, 1)
	st.Market.Add(seller.ID, agents.NewGood(agents.GoodFun, 0.5, "pricy"), 900, 1)
	ok := st.Market.Add(seller.ID, agents.NewGood(agents.GoodFun, 0.5, "fair"), 30, 1)
	r := NewResolver(&stubSource{})

	if _, err := r.Resolve(st, buyer, agents.ActionRequest{
		Type: agents.ActionBuy, Buy: &agents.BuyParams{ListingID: agents.BuyListingAny},
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(buyer.Goods) != 1 || buyer.Goods[0].Name != "fair" {
		t.Errorf("bought %+v, want the affordable foreign listing", buyer.Goods)
	}
	if _, found := st.Market.Get(ok.ID); found {
		t.Error("bought listing still on market")
	}
}

func TestBuyFromDeadSellerLeavesProceedsOut(t *testing.T) {
	st := NewState()
	buyer := newTestAgent("buyer", 100)
	st.Agents = append(st.Agents, buyer)
	dead := newTestAgent("ghost", 5)
	dead.Alive = false
	st.DeadAgents = append(st.DeadAgents, dead)
	l := st.Market.Add(dead.ID, agents.NewGood(agents.GoodRest, 0.5, "pillow"), 20, 1)
	r := NewResolver(&stubSource{})

	if _, err := r.Resolve(st, buyer, agents.ActionRequest{
		Type: agents.ActionBuy, Buy: &agents.BuyParams{ListingID: l.ID},
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if buyer.Credits != 80 {
		t.Errorf("buyer credits = %v, want 80", buyer.Credits)
	}
	if dead.Credits != 5 {
		t.Errorf("dead seller credits = %v, want unchanged 5", dead.Credits)
	}
}

func TestSellFuzzyMatchesWithinTwoEdits(t *testing.T) {
	st := NewState()
	a := newTestAgent("ada", 0)
	a.Goods = append(a.Goods, agents.NewGood(agents.GoodFood, 0.6, "Martian Mushrooms"))
	st.Agents = append(st.Agents, a)
	r := NewResolver(&stubSource{})

	if _, err := r.Resolve(st, a, agents.ActionRequest{
		Type: agents.ActionSell, Sell: &agents.SellParams{GoodName: "Martian Mushroom", Price: 25},
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(a.Goods) != 0 {
		t.Error("sold good still in inventory")
	}
	if st.Market.Len() != 1 || st.Market.Listings[0].Price != 25 {
		t.Errorf("market = %+v, want one listing at 25", st.Market.Listings)
	}
}

func TestSellRejectsDistantName(t *testing.T) {
	st := NewState()
	a := newTestAgent("ada", 0)
	a.Goods = append(a.Goods, agents.NewGood(agents.GoodFood, 0.6, "Martian Mushrooms"))
	st.Agents = append(st.Agents, a)
	r := NewResolver(&stubSource{})

	_, err := r.Resolve(st, a, agents.ActionRequest{
		Type: agents.ActionSell, Sell: &agents.SellParams{GoodName: "Pillow", Price: 25},
	})
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("err = %v, want ErrNoMatch", err)
	}
	if len(a.Goods) != 1 || st.Market.Len() != 0 {
		t.Error("rejected sell must not mutate state")
	}
}

func TestWorkAndRestEffects(t *testing.T) {
	st := NewState()
	a := newTestAgent("ada", 0)
	st.Agents = append(st.Agents, a)
	r := NewResolver(&stubSource{})

	if _, err := r.Resolve(st, a, agents.ActionRequest{Type: agents.ActionWork}); err != nil {
		t.Fatalf("work: %v", err)
	}
	if a.Credits != 100 {
		t.Errorf("credits = %v, want 100", a.Credits)
	}
	if a.Needs.Rest != 0.4 || a.Needs.Fun != 0.45 {
		t.Errorf("needs after work = %+v", a.Needs)
	}

	if _, err := r.Resolve(st, a, agents.ActionRequest{Type: agents.ActionRest}); err != nil {
		t.Fatalf("rest: %v", err)
	}
	if a.Needs.Rest != 0.9 || a.Needs.Fun != 0.5 {
		t.Errorf("needs after rest = %+v", a.Needs)
	}
}

func TestHarvestYieldsFoodGood(t *testing.T) {
	st := NewState()
	a := newTestAgent("ada", 0)
	st.Agents = append(st.Agents, a)
	r := NewResolver(&stubSource{floats: []float64{0.5}})

	if _, err := r.Resolve(st, a, agents.ActionRequest{Type: agents.ActionHarvest}); err != nil {
		t.Fatalf("harvest: %v", err)
	}
	if len(a.Goods) != 1 {
		t.Fatalf("inventory has %d goods, want 1", len(a.Goods))
	}
	g := a.Goods[0]
	if g.Type != agents.GoodFood || g.Name != HarvestGoodName {
		t.Errorf("harvested %+v", g)
	}
	// midpoint of the 0.3..0.9 quality roll
	if math.Abs(g.Quality-0.6) > 1e-9 {
		t.Errorf("quality = %v, want 0.6", g.Quality)
	}
	if a.Needs.Food != 0.65 {
		t.Errorf("food = %v, want 0.65", a.Needs.Food)
	}
}

func TestThinkAndComposeFillLogs(t *testing.T) {
	st := NewState()
	a := newTestAgent("ada", 0)
	st.Agents = append(st.Agents, a)
	r := NewResolver(&stubSource{})

	if _, err := r.Resolve(st, a, agents.ActionRequest{
		Type: agents.ActionThink, Think: &agents.ThinkParams{Thoughts: "what if domes were round"},
	}); err != nil {
		t.Fatalf("think: %v", err)
	}
	if len(st.Ideas[st.Day]) != 1 {
		t.Fatalf("idea log has %d entries, want 1", len(st.Ideas[st.Day]))
	}

	if _, err := r.Resolve(st, a, agents.ActionRequest{
		Type: agents.ActionCompose, Compose: &agents.ComposeParams{Title: "Red Sand", Genre: "Ambient", BPM: 80},
	}); err != nil {
		t.Fatalf("compose: %v", err)
	}
	songs := st.Songs[st.Day]
	if len(songs) != 1 || songs[0].Song.Title != "Red Sand" || songs[0].AgentName != "ada" {
		t.Errorf("song log = %+v", songs)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"abc", "ab", 1},
		{"kitten", "sitting", 3},
		{"Pillow", "pillow", 1},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
