package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/redmesa/solward/internal/agents"
	"github.com/redmesa/solward/internal/economy"
	"github.com/redmesa/solward/internal/entropy"
)

// WorkIncome is the fixed daily wage for a settlement job.
const WorkIncome = 100

// HarvestGoodName names the food good a farm shift yields.
const HarvestGoodName = "Martian Mushrooms"

// Rejection reasons for BUY and SELL. A rejected action mutates nothing but
// still logs, so the day loop moves on to the next agent.
var (
	ErrNoListing    = errors.New("listing not found")
	ErrUnaffordable = errors.New("insufficient credits for listing")
	ErrOwnListing   = errors.New("cannot buy own listing")
	ErrNoMatch      = errors.New("no matching good in inventory")
)

// Resolver applies a normalized action request to the simulation state.
type Resolver struct {
	src entropy.Source
}

// NewResolver creates a resolver drawing randomness from src.
func NewResolver(src entropy.Source) *Resolver {
	return &Resolver{src: src}
}

// Resolve applies the request's effects to the agent and state. The returned
// entry is always valid to log; on a non-nil error no state was mutated and
// the entry carries the rejection reason.
func (r *Resolver) Resolve(st *State, a *agents.Agent, req agents.ActionRequest) (ActionLogEntry, error) {
	entry := ActionLogEntry{AgentID: a.ID, Day: st.Day, Request: req}

	var err error
	switch req.Type {
	case agents.ActionRest:
		a.Needs.AddRest(0.5)
		a.Needs.AddFun(0.05)

	case agents.ActionWork:
		a.Credits += WorkIncome
		a.Needs.AddRest(-0.1)
		a.Needs.AddFun(-0.05)

	case agents.ActionHarvest:
		g := agents.NewGood(agents.GoodFood, r.src.Range(0.3, 0.9), HarvestGoodName)
		a.Goods = append(a.Goods, g)
		a.Needs.AddFood(0.15)
		a.Needs.AddRest(-0.1)

	case agents.ActionCraft:
		r.craft(st, a, req.Craft)

	case agents.ActionSell:
		err = r.sell(st, a, req.Sell)

	case agents.ActionBuy:
		err = r.buy(st, a, req.Buy)

	case agents.ActionThink:
		st.Ideas[st.Day] = append(st.Ideas[st.Day], Idea{AgentID: a.ID, Text: req.Think.Thoughts})
		a.Needs.AddRest(0.1)
		a.Needs.AddFun(r.src.Range(0.05, 0.5))

	case agents.ActionCompose:
		st.Songs[st.Day] = append(st.Songs[st.Day], SongEntry{
			AgentID:   a.ID,
			AgentName: a.Name,
			Song: Song{
				Title:       req.Compose.Title,
				Genre:       req.Compose.Genre,
				BPM:         req.Compose.BPM,
				Tags:        req.Compose.Tags,
				Description: req.Compose.Description,
			},
		})
		a.Needs.AddRest(0.1)
		a.Needs.AddFun(r.src.Range(0.25, 1.0))

	default:
		err = fmt.Errorf("unknown action type %q", req.Type)
	}

	if err != nil {
		entry.Err = err.Error()
	}
	return entry, err
}

// craft spends a materials budget on a new good. An over-budget spend clamps
// to the agent's balance rather than failing, so crafting with whatever is
// on hand always works.
func (r *Resolver) craft(st *State, a *agents.Agent, p *agents.CraftParams) {
	budget := math.Min(p.Materials, a.Credits)
	if budget < 0 {
		budget = 0
	}
	a.Credits -= budget

	quality := 0.3 + math.Min(0.5, budget/200) + r.src.Range(0, 0.2)
	g := agents.NewGood(p.GoodType, quality, p.Name)
	a.Goods = append(a.Goods, g)
	st.Inventions[st.Day] = append(st.Inventions[st.Day], Invention{AgentID: a.ID, Good: g})

	a.Needs.AddRest(-0.1)
	a.Needs.AddFood(-0.05)
	a.Needs.AddFun(0.1)
}

func (r *Resolver) sell(st *State, a *agents.Agent, p *agents.SellParams) error {
	i := matchGood(a.Goods, p.GoodName)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrNoMatch, p.GoodName)
	}
	g := a.RemoveGood(i)
	st.Market.Add(a.ID, g, p.Price, st.Day)

	a.Needs.AddFood(-0.05)
	a.Needs.AddRest(-0.05)
	a.Needs.AddFun(0.1)
	return nil
}

func (r *Resolver) buy(st *State, a *agents.Agent, p *agents.BuyParams) error {
	var listing economy.Listing
	if p.ListingID == agents.BuyListingAny {
		var candidates []economy.Listing
		for _, l := range st.Market.Listings {
			if l.SellerID != a.ID && l.Price <= a.Credits {
				candidates = append(candidates, l)
			}
		}
		if len(candidates) == 0 {
			return fmt.Errorf("%w: no affordable listing", ErrNoListing)
		}
		listing = candidates[r.src.IntN(len(candidates))]
	} else {
		var ok bool
		listing, ok = st.Market.Get(p.ListingID)
		if !ok {
			return fmt.Errorf("%w: %q", ErrNoListing, p.ListingID)
		}
	}

	if listing.SellerID == a.ID {
		return fmt.Errorf("%w: %q", ErrOwnListing, listing.ID)
	}
	if a.Credits < listing.Price {
		return fmt.Errorf("%w: have %.0f, need %.0f", ErrUnaffordable, a.Credits, listing.Price)
	}

	st.Market.Remove(listing.ID)
	a.Credits -= listing.Price
	// Proceeds to dead or settlement sellers leave circulation.
	if seller := st.ActiveAgentByID(listing.SellerID); seller != nil {
		seller.Credits += listing.Price
	}
	a.Goods = append(a.Goods, listing.Good)

	switch listing.Good.Type {
	case agents.GoodFood:
		a.Needs.AddFood(0.2)
	case agents.GoodFun:
		a.Needs.AddFun(0.25)
	}
	a.Needs.AddRest(-0.05)
	return nil
}

// matchGood finds the inventory index whose name is within edit distance 2
// of the requested name, preferring the first minimal-distance match in
// inventory order. Returns -1 when nothing is close enough.
func matchGood(goods []agents.Good, name string) int {
	best, bestDist := -1, 3
	for i, g := range goods {
		if d := levenshtein(g.Name, name); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// levenshtein computes the edit distance between two strings using a single
// rolling row.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	prev := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur := make([]int, len(rb)+1)
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev = cur
	}
	return prev[len(rb)]
}
