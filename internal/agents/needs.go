// Package agents provides the agent data model: needs, goods, actions, and
// the spawner that generates new citizens.
package agents

// Needs tracks how satisfied an agent is on each axis.
// All values range from 0.0 (completely unmet) to 1.0 (fully satisfied)
// and are clamped on every mutation.
type Needs struct {
	Food float64 `json:"food"`
	Rest float64 `json:"rest"`
	Fun  float64 `json:"fun"`
}

// AddFood adjusts the food need by delta, clamping to [0, 1].
func (n *Needs) AddFood(delta float64) { n.Food = clamp01(n.Food + delta) }

// AddRest adjusts the rest need by delta, clamping to [0, 1].
func (n *Needs) AddRest(delta float64) { n.Rest = clamp01(n.Rest + delta) }

// AddFun adjusts the fun need by delta, clamping to [0, 1].
func (n *Needs) AddFun(delta float64) { n.Fun = clamp01(n.Fun + delta) }

// Clamp forces all needs back into [0, 1]. Mutation helpers already clamp;
// this guards values arriving from outside (snapshots, API updates).
func (n *Needs) Clamp() {
	n.Food = clamp01(n.Food)
	n.Rest = clamp01(n.Rest)
	n.Fun = clamp01(n.Fun)
}

// Describe renders needs as the short phrases used in decision prompts.
func (n Needs) Describe() string {
	var food, rest, fun string
	switch {
	case n.Food < 0.2:
		food = "Starving"
	case n.Food < 0.4:
		food = "Hungry"
	case n.Food < 0.6:
		food = "Somewhat hungry"
	case n.Food < 0.8:
		food = "Ate well"
	default:
		food = "Overfed"
	}
	switch {
	case n.Rest < 0.2:
		rest = "Exhausted"
	case n.Rest < 0.4:
		rest = "Tired"
	case n.Rest < 0.6:
		rest = "Average energy"
	case n.Rest < 0.8:
		rest = "Energetic"
	default:
		rest = "Supercharged"
	}
	switch {
	case n.Fun < 0.2:
		fun = "Bored to death"
	case n.Fun < 0.4:
		fun = "Pretty bored"
	case n.Fun < 0.6:
		fun = "Kinda bored"
	default:
		fun = "Having fun"
	}
	return food + ", " + rest + ", " + fun
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
