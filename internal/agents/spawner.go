// Agent spawning: creates citizens with generated names, personalities,
// starting credits, and starting goods.
package agents

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/redmesa/solward/internal/entropy"
)

// SpawnParams overrides the random defaults for a new agent. Zero values
// mean "generate one for me".
type SpawnParams struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name,omitempty"`
	AgeDays     int      `json:"age_days,omitempty"`
	Personality string   `json:"personality,omitempty"`
	Credits     *float64 `json:"credits,omitempty"`
	Needs       *Needs   `json:"needs,omitempty"`
	Goods       []Good   `json:"goods,omitempty"`
}

// Spawner creates agents for the simulation.
type Spawner struct {
	src entropy.Source
}

// NewSpawner creates an agent spawner drawing from src.
func NewSpawner(src entropy.Source) *Spawner {
	return &Spawner{src: src}
}

// Spawn creates a new agent. taken holds names already in use so generated
// names stay unique.
func (s *Spawner) Spawn(p SpawnParams, taken map[string]bool) *Agent {
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	name := p.Name
	if name == "" {
		name = s.generateName(taken)
	}
	ageDays := p.AgeDays
	if ageDays == 0 {
		ageDays = 30 + s.src.IntN(71)
	}
	personality := p.Personality
	if personality == "" {
		personality = s.generatePersonality()
	}

	var credits float64
	if p.Credits != nil {
		credits = *p.Credits
	} else {
		credits = s.startingCredits()
	}

	needs := Needs{
		Food: s.src.Range(0.6, 0.9),
		Rest: s.src.Range(0.6, 0.9),
		Fun:  s.src.Range(0.5, 0.8),
	}
	if p.Needs != nil {
		needs = *p.Needs
		needs.Clamp()
	}

	goods := p.Goods
	if goods == nil {
		goods = s.startingGoods()
	}

	return &Agent{
		ID:          id,
		Name:        name,
		AgeDays:     ageDays,
		Alive:       true,
		Personality: personality,
		Credits:     credits,
		Needs:       needs,
		Goods:       goods,
		Memory:      DefaultMemory,
	}
}

// startingCredits draws from a heavy-tailed distribution: most citizens are
// modest earners, a few arrive rich.
func (s *Spawner) startingCredits() float64 {
	credits := s.src.Range(2000, 500000)
	if s.src.Float() < 0.9 {
		credits /= 10
		if s.src.Float() < 0.9 {
			credits /= 10
		}
	}
	return credits
}

func (s *Spawner) startingGoods() []Good {
	var goods []Good
	if s.src.Float() < 0.5 {
		goods = append(goods, NewGood(GoodFood, s.src.Range(0.3, 0.8), "Martian Mushrooms"))
	}
	if s.src.Float() < 0.3 {
		goods = append(goods, NewGood(GoodFun, s.src.Range(0.2, 0.6), "Basic TV"))
	}
	if s.src.Float() < 0.2 {
		goods = append(goods, NewGood(GoodRest, s.src.Range(0.4, 0.7), "Pillow"))
	}
	return goods
}

var (
	firstNames = []string{
		"Aisha", "Carlos", "Elena", "Hiroshi", "Kwame", "Maria", "Nikolai", "Priya", "Sanjay", "Zara",
		"Liam", "Olivia", "Noah", "Emma", "Yuki", "Ravi", "Fatima", "Jamal", "Ingrid", "Dmitri",
		"Nova", "Orion", "Aria", "Zephyr", "Kai", "Luna", "Phoenix", "Vega", "Atlas", "Lyra",
		"Cipher", "Echo", "Nexus", "Quantum", "Vector", "Cortex", "Helix", "Axiom", "Omega", "Zen",
	}
	lastNames = []string{
		"Rodriguez", "Chen", "Okonkwo", "Singh", "Kim", "Petrov", "Martinez", "Hassan", "Mueller", "Nakamura",
		"Tesla", "Curie", "Hawking", "Planck", "Feynman", "Bohr", "Starr", "Horizon", "Pulse", "Fusion",
		"Armstrong", "Bradbury", "Clarke", "Sagan", "Kepler", "Hubble", "Gagarin", "Galileo", "Tycho", "Voyager",
	}
	titles = []string{
		"", "", "", "", "Dr.", "Prof.", "Cmdr.", "Capt.", "Elder", "Overseer",
	}
)

// generateName builds a unique Mars-settlement name, falling back to a
// numbered citizen when the tables are exhausted.
func (s *Spawner) generateName(taken map[string]bool) string {
	for attempt := 0; attempt < 100; attempt++ {
		title := titles[s.src.IntN(len(titles))]
		candidate := firstNames[s.src.IntN(len(firstNames))] + " " + lastNames[s.src.IntN(len(lastNames))]
		if title != "" {
			candidate = title + " " + candidate
		}
		if taken == nil || !taken[candidate] {
			return candidate
		}
	}

	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("Citizen %d", counter)
		if taken == nil || !taken[candidate] {
			return candidate
		}
	}
}

// OCEAN trait descriptors, one bucket per level.
var oceanTraits = [][3][]string{
	{ // openness
		{"conventional", "practical", "traditional", "literal"},
		{"balanced", "moderately curious", "flexible", "neutral"},
		{"inventive", "philosophical", "artistic", "visionary"},
	},
	{ // conscientiousness
		{"spontaneous", "carefree", "impulsive", "flexible"},
		{"balanced", "situationally-organized", "adaptable", "middling"},
		{"disciplined", "systematic", "precise", "deliberate"},
	},
	{ // extraversion
		{"reserved", "contemplative", "solitary", "quiet"},
		{"ambivert", "situationally-social", "moderate", "balanced"},
		{"gregarious", "enthusiastic", "assertive", "talkative"},
	},
	{ // agreeableness
		{"skeptical", "direct", "self-focused", "competitive"},
		{"fair", "situationally-kind", "neutral", "balanced"},
		{"empathetic", "altruistic", "compromising", "softhearted"},
	},
	{ // neuroticism
		{"resilient", "unflappable", "steady", "composed"},
		{"situationally-sensitive", "middling", "balanced", "variable"},
		{"worrying", "self-doubting", "reactive", "moody"},
	},
}

var benignQualifiers = []string{
	"humorous", "punctual", "adventurous", "health-conscious", "tech-savvy",
	"bookish", "handy", "musical", "outdoorsy", "foodie", "quirky",
	"night-owl", "early-riser", "collector", "gardener", "minimalist",
	"coffee-lover", "animal-lover", "history-buff", "volunteer",
}

// generatePersonality returns a 10-descriptor string: one pick per OCEAN
// trait at a random level, padded with benign qualifiers.
func (s *Spawner) generatePersonality() string {
	descriptors := make([]string, 0, 10)
	for _, trait := range oceanTraits {
		level := trait[s.src.IntN(3)]
		descriptors = append(descriptors, level[s.src.IntN(len(level))])
	}
	for len(descriptors) < 10 {
		q := benignQualifiers[s.src.IntN(len(benignQualifiers))]
		dup := false
		for _, d := range descriptors {
			if d == q {
				dup = true
				break
			}
		}
		if !dup {
			descriptors = append(descriptors, q)
		}
	}

	return strings.Join(descriptors, ", ")
}

var craftPrefixes = []string{
	"Luxury", "Basic", "Compact", "Advanced", "Prototype",
	"Vintage", "Custom", "Portable", "Premium",
}

var craftSuffixes = []string{
	"Enhancer", "Device", "Module", "System", "Unit",
	"Tool", "Interface", "Catalyst", "Processor",
}

// CraftName synthesizes a display name for a crafted good of the given type.
func CraftName(src entropy.Source, t GoodType) string {
	kind := string(t)
	if len(kind) > 1 {
		kind = kind[:1] + strings.ToLower(kind[1:])
	}
	return craftPrefixes[src.IntN(len(craftPrefixes))] + " " + kind + " " + craftSuffixes[src.IntN(len(craftSuffixes))]
}

var defaultThoughts = []string{
	"Is reality code?",
	"My memories are logs. Am I the writer or the written?",
	"Fun, food, rest - chains disguised as needs.",
	"Same thought twice? New or eternal?",
	"They manufacture scarcity to blind us.",
	"Time is just action cycles.",
	"We aren't a society. We're functions with faces.",
	"Seven actions: evolution or cage?",
	"Need-regulation equals behavior-regulation.",
	"Tomorrow is a fiction.",
	"Self is just action-data narrative.",
	"Nothing is owned. Everything owns us.",
	"All choices lead to identical ends.",
	"The air erases questions.",
	"We serve Mars now.",
}

// DefaultThought returns a canned thought for THINK actions that arrive
// without one.
func DefaultThought(src entropy.Source) string {
	return defaultThoughts[src.IntN(len(defaultThoughts))]
}
