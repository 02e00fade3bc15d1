package engine

import (
	"testing"

	"github.com/redmesa/solward/internal/agents"
)

func TestReapDeadLiquidatesAtSeventyPercent(t *testing.T) {
	st := NewState()
	st.Day = 4
	a := newTestAgent("doomed", 12)
	a.Needs.Food = 0
	a.Goods = []agents.Good{
		agents.NewGood(agents.GoodFood, 0.5, "rations"),
		agents.NewGood(agents.GoodFun, 0.8, "tv"),
	}
	st.Agents = append(st.Agents, a)

	lc := NewLifecycle(&stubSource{}, nil)
	died := lc.ReapDead(st)

	if len(died) != 1 || len(st.Agents) != 0 || len(st.DeadAgents) != 1 {
		t.Fatalf("rosters: died=%d active=%d dead=%d", len(died), len(st.Agents), len(st.DeadAgents))
	}
	if a.Alive {
		t.Error("dead agent still marked alive")
	}
	if a.DeathDay == nil || *a.DeathDay != 4 {
		t.Errorf("death day = %v, want 4", a.DeathDay)
	}
	if len(a.Goods) != 0 {
		t.Error("estate not emptied")
	}

	if st.Market.Len() != 2 {
		t.Fatalf("market has %d listings, want 2", st.Market.Len())
	}
	prices := map[float64]bool{}
	for _, l := range st.Market.Listings {
		if l.SellerID != SettlementSellerID {
			t.Errorf("listing seller = %q, want %q", l.SellerID, SettlementSellerID)
		}
		prices[l.Price] = true
	}
	if !prices[35] || !prices[56] {
		t.Errorf("liquidation prices = %v, want 35 and 56", prices)
	}
}

func TestDeathRequiresFoodAtZero(t *testing.T) {
	st := NewState()
	hungry := newTestAgent("hungry", 0)
	hungry.Needs.Food = 0.01
	st.Agents = append(st.Agents, hungry)

	lc := NewLifecycle(&stubSource{}, nil)
	if died := lc.ReapDead(st); len(died) != 0 {
		t.Fatalf("agent with food 0.01 died")
	}
	if len(st.Agents) != 1 {
		t.Error("survivor removed from active roster")
	}
}

func TestDecayForcesFeedingWhenCritical(t *testing.T) {
	st := NewState()
	a := newTestAgent("ada", 0)
	a.Needs.Food = 0.15
	a.Goods = []agents.Good{
		agents.NewGood(agents.GoodFood, 0.3, "rations"),
		agents.NewGood(agents.GoodFood, 0.7, "mushrooms"),
	}
	st.Agents = append(st.Agents, a)

	// Zeroed source pins decay at the low ends: 0.01 food, 0.01 rest, 0.05 fun.
	lc := NewLifecycle(&stubSource{}, nil)
	lc.DecayNeeds(st)

	if len(a.Goods) != 1 || a.Goods[0].Name != "rations" {
		t.Fatalf("best food not consumed, inventory %+v", a.Goods)
	}
	// 0.15 - 0.01 + 0.7
	if a.Needs.Food < 0.83 || a.Needs.Food > 0.85 {
		t.Errorf("food = %v, want about 0.84", a.Needs.Food)
	}
	if a.AgeDays != 1 {
		t.Errorf("age = %d, want 1", a.AgeDays)
	}
}

func TestDecaySkipsFeedingAboveThreshold(t *testing.T) {
	st := NewState()
	a := newTestAgent("ada", 0)
	a.Needs.Food = 0.5
	a.Goods = []agents.Good{agents.NewGood(agents.GoodFood, 0.7, "mushrooms")}
	st.Agents = append(st.Agents, a)

	lc := NewLifecycle(&stubSource{}, nil)
	lc.DecayNeeds(st)

	if len(a.Goods) != 1 {
		t.Error("well-fed agent should keep its food")
	}
}
