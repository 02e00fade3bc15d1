package agents

import (
	"errors"
	"fmt"

	"github.com/redmesa/solward/internal/entropy"
)

// ActionType enumerates what an agent can do with its day.
type ActionType string

const (
	ActionRest    ActionType = "REST"    // Recover energy
	ActionWork    ActionType = "WORK"    // Settlement job, fixed wage
	ActionBuy     ActionType = "BUY"     // Purchase a market listing
	ActionSell    ActionType = "SELL"    // List an owned good for sale
	ActionHarvest ActionType = "HARVEST" // Farm shift, yields a food good
	ActionCraft   ActionType = "CRAFT"   // Invent a new item
	ActionThink   ActionType = "THINK"   // Spend the day thinking
	ActionCompose ActionType = "COMPOSE" // Write a song
)

// AllActionTypes lists every action type in a fixed order.
var AllActionTypes = []ActionType{
	ActionRest, ActionWork, ActionBuy, ActionSell,
	ActionHarvest, ActionCraft, ActionThink, ActionCompose,
}

// Valid reports whether t is a defined action type.
func (t ActionType) Valid() bool {
	switch t {
	case ActionRest, ActionWork, ActionBuy, ActionSell,
		ActionHarvest, ActionCraft, ActionThink, ActionCompose:
		return true
	}
	return false
}

// ErrMissingField marks an action request that lacks a required parameter.
// Such requests are rejected; the agent idles that slot.
var ErrMissingField = errors.New("missing required action field")

// CraftParams parameterizes a CRAFT action.
type CraftParams struct {
	GoodType  GoodType `json:"good_type"`
	Name      string   `json:"name"`
	Materials float64  `json:"materials"` // Credits to spend on materials
}

// SellParams parameterizes a SELL action.
type SellParams struct {
	GoodName string  `json:"good_name"`
	Price    float64 `json:"price"`
}

// BuyListingAny asks the resolver to pick any affordable listing.
const BuyListingAny = "any"

// BuyParams parameterizes a BUY action.
type BuyParams struct {
	ListingID string `json:"listing_id"`
}

// ThinkParams parameterizes a THINK action.
type ThinkParams struct {
	Thoughts string `json:"thoughts"`
}

// ComposeParams parameterizes a COMPOSE action.
type ComposeParams struct {
	Title       string   `json:"title"`
	Genre       string   `json:"genre"`
	BPM         int      `json:"bpm"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
}

// ActionRequest is a decided action: a type plus exactly the parameters that
// type needs. REST, WORK, and HARVEST carry no parameters.
type ActionRequest struct {
	Type      ActionType `json:"type"`
	Reasoning string     `json:"reasoning,omitempty"`

	Craft   *CraftParams   `json:"craft,omitempty"`
	Sell    *SellParams    `json:"sell,omitempty"`
	Buy     *BuyParams     `json:"buy,omitempty"`
	Think   *ThinkParams   `json:"think,omitempty"`
	Compose *ComposeParams `json:"compose,omitempty"`
}

// Normalize fills in sensible defaults for optional parameters and rejects
// requests missing required ones. It is the single defaulting step between
// the decision collaborator and the resolver: after a nil error, the request
// carries everything its action type needs.
func (r *ActionRequest) Normalize(src entropy.Source) error {
	if !r.Type.Valid() {
		return fmt.Errorf("unknown action type %q", r.Type)
	}

	switch r.Type {
	case ActionCraft:
		if r.Craft == nil {
			r.Craft = &CraftParams{}
		}
		if !r.Craft.GoodType.Valid() {
			r.Craft.GoodType = AllGoodTypes[src.IntN(len(AllGoodTypes))]
		}
		if r.Craft.Materials < 0 {
			r.Craft.Materials = 0
		}
		if r.Craft.Name == "" {
			r.Craft.Name = CraftName(src, r.Craft.GoodType)
		}

	case ActionThink:
		if r.Think == nil {
			r.Think = &ThinkParams{}
		}
		if r.Think.Thoughts == "" {
			r.Think.Thoughts = DefaultThought(src)
		}

	case ActionCompose:
		if r.Compose == nil {
			r.Compose = &ComposeParams{}
		}
		if r.Compose.Title == "" {
			r.Compose.Title = "Untitled Mars Melody"
		}
		if r.Compose.Genre == "" {
			r.Compose.Genre = "Mars Ambient"
		}
		if r.Compose.BPM <= 0 {
			r.Compose.BPM = 60 + src.IntN(121)
		}
		if len(r.Compose.Tags) == 0 {
			r.Compose.Tags = []string{"mars", "electronic", "ambient"}
		}

	case ActionSell:
		if r.Sell == nil || r.Sell.GoodName == "" {
			return fmt.Errorf("SELL needs a good name: %w", ErrMissingField)
		}
		if r.Sell.Price < 0 {
			// Price floor; zero-price listings are legal.
			r.Sell.Price = 0
		}

	case ActionBuy:
		if r.Buy == nil || r.Buy.ListingID == "" {
			return fmt.Errorf("BUY needs a listing id: %w", ErrMissingField)
		}
	}

	return nil
}
