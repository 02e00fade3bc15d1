package agents

import "fmt"

// GoodType enumerates the kinds of tradeable goods.
type GoodType string

const (
	GoodFood GoodType = "FOOD"
	GoodRest GoodType = "REST"
	GoodFun  GoodType = "FUN"
)

// AllGoodTypes lists every good type in a fixed order.
var AllGoodTypes = []GoodType{GoodFood, GoodRest, GoodFun}

// Valid reports whether t is a defined good type.
func (t GoodType) Valid() bool {
	switch t {
	case GoodFood, GoodRest, GoodFun:
		return true
	}
	return false
}

// Good is an owned item. Quality is clamped to [0, 1] at construction and
// never changes afterwards; ownership moves between an agent's inventory
// and the market, never both at once.
type Good struct {
	Type    GoodType `json:"type"`
	Quality float64  `json:"quality"`
	Name    string   `json:"name,omitempty"`
}

// NewGood creates a good with its quality clamped to [0, 1].
func NewGood(t GoodType, quality float64, name string) Good {
	return Good{Type: t, Quality: clamp01(quality), Name: name}
}

func (g Good) String() string {
	name := g.Name
	if name == "" {
		name = fmt.Sprintf("Unnamed %s item", g.Type)
	}
	return fmt.Sprintf("%s [%s] (%.2f quality)", name, g.Type, g.Quality)
}
