package engine

import (
	"log/slog"

	"github.com/redmesa/solward/internal/agents"
	"github.com/redmesa/solward/internal/entropy"
)

// SettlementSellerID marks listings owned by the settlement itself, created
// when a dead agent's estate is liquidated. Purchases from these listings
// take credits out of circulation.
const SettlementSellerID = "settlement"

// Lifecycle handles the parts of an agent's day that happen to it rather
// than by it: needs decay, emergency feeding, and death.
type Lifecycle struct {
	src entropy.Source
	log *slog.Logger
}

// NewLifecycle creates a lifecycle manager.
func NewLifecycle(src entropy.Source, log *slog.Logger) *Lifecycle {
	if log == nil {
		log = slog.Default()
	}
	return &Lifecycle{src: src, log: log}
}

// DecayNeeds applies the start-of-day decay to every active agent and
// force-feeds anyone critically hungry who still holds food.
func (lc *Lifecycle) DecayNeeds(st *State) {
	for _, a := range st.Agents {
		a.Needs.AddFood(-lc.src.Range(0.01, 0.02))
		a.Needs.AddRest(-lc.src.Range(0.01, 0.015))
		a.Needs.AddFun(-lc.src.Range(0.05, 0.1))
		a.AgeDays++

		if a.Needs.Food < 0.2 {
			lc.forceFeed(a)
		}
	}
}

// forceFeed consumes the agent's best food good, if any. Survival overrides
// whatever the agent was saving it for.
func (lc *Lifecycle) forceFeed(a *agents.Agent) {
	i := a.BestFoodIndex()
	if i < 0 {
		return
	}
	g := a.RemoveGood(i)
	a.Needs.AddFood(g.Quality)
	lc.log.Info("force-fed starving agent",
		"agent", a.Name, "good", g.Name, "quality", g.Quality, "food", a.Needs.Food)
}

// ReapDead moves agents whose food need has hit zero to the dead roster and
// liquidates their estates. Each good lists under the settlement at 70% of
// quality*100, truncated at each step.
func (lc *Lifecycle) ReapDead(st *State) []*agents.Agent {
	var died []*agents.Agent
	survivors := st.Agents[:0]
	for _, a := range st.Agents {
		if a.Needs.Food > 0 {
			survivors = append(survivors, a)
			continue
		}

		a.Alive = false
		day := st.Day
		a.DeathDay = &day
		for len(a.Goods) > 0 {
			g := a.RemoveGood(0)
			base := int(g.Quality * 100)
			price := int(float64(base) * 0.7)
			st.Market.Add(SettlementSellerID, g, float64(price), st.Day)
		}
		st.DeadAgents = append(st.DeadAgents, a)
		died = append(died, a)
		lc.log.Info("agent died of starvation", "agent", a.Name, "day", st.Day)
	}
	st.Agents = survivors
	return died
}
