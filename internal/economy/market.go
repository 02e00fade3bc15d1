// Package economy provides the settlement's global market: an ordered
// collection of listings intermediating all buying and selling.
package economy

import (
	"github.com/google/uuid"

	"github.com/redmesa/solward/internal/agents"
)

// Listing is an offer to sell one good at a price. A good on the market is
// never simultaneously in any agent's inventory.
type Listing struct {
	ID          string      `json:"id"`
	SellerID    string      `json:"seller_id"`
	Good        agents.Good `json:"good"`
	Price       float64     `json:"price"`
	ListedOnDay int         `json:"listed_on_day"`
}

// Market holds all active listings in insertion order. The order carries no
// meaning but stays stable so iteration is deterministic.
type Market struct {
	Listings []Listing `json:"listings"`
}

// NewMarket creates an empty market.
func NewMarket() *Market {
	return &Market{}
}

// Add creates a listing for the given good and appends it to the market.
func (m *Market) Add(sellerID string, good agents.Good, price float64, day int) Listing {
	l := Listing{
		ID:          uuid.NewString(),
		SellerID:    sellerID,
		Good:        good,
		Price:       price,
		ListedOnDay: day,
	}
	m.Listings = append(m.Listings, l)
	return l
}

// Remove deletes the listing with the given id, preserving the order of the
// rest. Returns false if no such listing exists.
func (m *Market) Remove(id string) bool {
	for i, l := range m.Listings {
		if l.ID == id {
			m.Listings = append(m.Listings[:i], m.Listings[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the listing with the given id.
func (m *Market) Get(id string) (Listing, bool) {
	for _, l := range m.Listings {
		if l.ID == id {
			return l, true
		}
	}
	return Listing{}, false
}

// Filtered returns listings of the given good type in market order.
// A nil filter returns a copy of all listings.
func (m *Market) Filtered(filter *agents.GoodType) []Listing {
	out := make([]Listing, 0, len(m.Listings))
	for _, l := range m.Listings {
		if filter == nil || l.Good.Type == *filter {
			out = append(out, l)
		}
	}
	return out
}

// Len returns the number of active listings.
func (m *Market) Len() int { return len(m.Listings) }
