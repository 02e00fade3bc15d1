package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redmesa/solward/internal/agents"
	"github.com/redmesa/solward/internal/engine"
)

// Decider asks the model what an agent should do with its day. Implements
// engine.Decider.
type Decider struct {
	client *Client
}

// NewDecider creates a decision collaborator.
func NewDecider(client *Client) *Decider {
	return &Decider{client: client}
}

// actionWire is the flat shape the model responds with. The tagged
// ActionRequest is built from it based on the declared type.
type actionWire struct {
	Type      string `json:"type"`
	Reasoning string `json:"reasoning"`

	GoodType  string  `json:"good_type,omitempty"`
	Name      string  `json:"name,omitempty"`
	Materials float64 `json:"materials,omitempty"`

	GoodName string  `json:"good_name,omitempty"`
	Price    float64 `json:"price,omitempty"`

	ListingID string `json:"listing_id,omitempty"`

	Thoughts string `json:"thoughts,omitempty"`

	Title       string   `json:"title,omitempty"`
	Genre       string   `json:"genre,omitempty"`
	BPM         int      `json:"bpm,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Decide requests one action for the agent.
func (d *Decider) Decide(ctx context.Context, st *engine.State, a *agents.Agent) (agents.ActionRequest, error) {
	if !d.client.Enabled() {
		return agents.ActionRequest{}, fmt.Errorf("LLM client not configured")
	}

	text, err := d.client.Complete(ctx, decisionSystemPrompt(a), decisionUserPrompt(st, a), 600)
	if err != nil {
		return agents.ActionRequest{}, fmt.Errorf("decide for %s: %w", a.Name, err)
	}

	obj, err := extractObject(text)
	if err != nil {
		return agents.ActionRequest{}, fmt.Errorf("decide for %s: %w", a.Name, err)
	}

	var w actionWire
	if err := json.Unmarshal([]byte(obj), &w); err != nil {
		return agents.ActionRequest{}, fmt.Errorf("parse decision: %w", err)
	}
	return w.toRequest(), nil
}

func (w actionWire) toRequest() agents.ActionRequest {
	req := agents.ActionRequest{
		Type:      agents.ActionType(strings.ToUpper(strings.TrimSpace(w.Type))),
		Reasoning: w.Reasoning,
	}
	switch req.Type {
	case agents.ActionCraft:
		req.Craft = &agents.CraftParams{
			GoodType:  agents.GoodType(strings.ToUpper(w.GoodType)),
			Name:      w.Name,
			Materials: w.Materials,
		}
	case agents.ActionSell:
		req.Sell = &agents.SellParams{GoodName: w.GoodName, Price: w.Price}
	case agents.ActionBuy:
		req.Buy = &agents.BuyParams{ListingID: w.ListingID}
	case agents.ActionThink:
		req.Think = &agents.ThinkParams{Thoughts: w.Thoughts}
	case agents.ActionCompose:
		req.Compose = &agents.ComposeParams{
			Title:       w.Title,
			Genre:       w.Genre,
			BPM:         w.BPM,
			Tags:        w.Tags,
			Description: w.Description,
		}
	}
	return req
}

func decisionSystemPrompt(a *agents.Agent) string {
	return fmt.Sprintf(
		`You are %s, a citizen of Solward, a small human settlement on Mars.
Your personality: %s.

Each sol you choose exactly one action. Respond ONLY with a JSON object:
- "type": one of "REST", "WORK", "BUY", "SELL", "HARVEST", "CRAFT", "THINK", "COMPOSE"
- "reasoning": one sentence explaining why
Plus the fields the action needs:
- CRAFT: "good_type" (FOOD/REST/FUN), "name", "materials" (credits to spend)
- SELL: "good_name" (a good you own), "price"
- BUY: "listing_id" (from the market below, or "any")
- THINK: "thoughts"
- COMPOSE: "title", "genre", "bpm", "tags", "description"

What each action does:
- REST: recover energy
- WORK: earn 100 credits at the settlement works
- HARVEST: a farm shift, yields food
- CRAFT: invent an item, better with a bigger materials budget
- SELL: list one of your goods on the market
- BUY: purchase a listing you can afford (not your own)
- THINK: spend the day on an idea
- COMPOSE: write a song for the settlement`,
		a.Name, a.Personality,
	)
}

func decisionUserPrompt(st *engine.State, a *agents.Agent) string {
	var b strings.Builder

	fmt.Fprintf(&b, "It is sol %d. You have %.0f credits. You feel: %s.\n\n",
		st.Day, a.Credits, a.Needs.Describe())

	if len(a.Goods) > 0 {
		b.WriteString("You own:\n")
		for _, g := range a.Goods {
			fmt.Fprintf(&b, "- %s\n", g)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("You own nothing.\n\n")
	}

	if listings := st.Market.Filtered(nil); len(listings) > 0 {
		b.WriteString("On the market:\n")
		for _, l := range listings {
			fmt.Fprintf(&b, "- id=%s %s for %.0f credits\n", l.ID, l.Good, l.Price)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("The market is empty.\n\n")
	}

	if len(a.History) > 0 {
		b.WriteString("Your recent days:\n")
		for _, h := range a.History {
			fmt.Fprintf(&b, "- sol %d: %s\n", h.Day, h.Request.Type)
		}
		b.WriteString("\n")
	}

	b.WriteString("What do you do today? Respond with a single JSON object.")
	return b.String()
}
