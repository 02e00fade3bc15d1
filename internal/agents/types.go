package agents

// DefaultMemory is how many past actions an agent keeps in its history.
const DefaultMemory = 5

// Agent is an economic actor in the settlement.
type Agent struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	AgeDays     int     `json:"age_days"`
	DeathDay    *int    `json:"death_day,omitempty"`
	Alive       bool    `json:"is_alive"`
	Personality string  `json:"personality"`
	Credits     float64 `json:"credits"`
	Needs       Needs   `json:"needs"`
	Goods       []Good  `json:"goods"`

	// Bounded action history, most recent last.
	History []HistoryEntry `json:"history,omitempty"`
	Memory  int            `json:"memory"`
}

// HistoryEntry snapshots an agent's situation alongside the action it took.
type HistoryEntry struct {
	Day     int           `json:"day"`
	Credits float64       `json:"credits"`
	Needs   Needs         `json:"needs"`
	Request ActionRequest `json:"request"`
}

// Record appends an entry to the agent's history, trimming to Memory entries.
func (a *Agent) Record(e HistoryEntry) {
	a.History = append(a.History, e)
	limit := a.Memory
	if limit <= 0 {
		limit = DefaultMemory
	}
	if len(a.History) > limit {
		a.History = a.History[len(a.History)-limit:]
	}
}

// RemoveGood removes the good at index i from the agent's inventory and
// returns it. The caller owns the returned good.
func (a *Agent) RemoveGood(i int) Good {
	g := a.Goods[i]
	a.Goods = append(a.Goods[:i], a.Goods[i+1:]...)
	return g
}

// BestFoodIndex returns the index of the highest-quality food good, or -1.
// Ties resolve to the earliest inventory position.
func (a *Agent) BestFoodIndex() int {
	best := -1
	for i, g := range a.Goods {
		if g.Type != GoodFood {
			continue
		}
		if best == -1 || g.Quality > a.Goods[best].Quality {
			best = i
		}
	}
	return best
}
