// Package engine drives the settlement simulation: the day/night stage
// machine, action resolution, agent lifecycle, and night activities.
package engine

import (
	"github.com/redmesa/solward/internal/agents"
	"github.com/redmesa/solward/internal/economy"
)

// Stage identifies where in the daily cycle the simulation currently is.
type Stage string

const (
	StageInitialization Stage = "initialization" // Day setup and needs decay
	StageAgentDay       Stage = "agent_day"      // One agent at a time chooses and acts
	StageNarrator       Stage = "narrator"       // Daily narrative generation
	StageAgentNight     Stage = "agent_night"    // Dinner and free time, one agent at a time
)

// ActionLogEntry records a resolved (or rejected) action. Rejected actions
// still log so the day loop sees the agent as having used its slot.
type ActionLogEntry struct {
	AgentID string               `json:"agent_id"`
	Day     int                  `json:"day"`
	Request agents.ActionRequest `json:"request"`
	Err     string               `json:"error,omitempty"`
}

// Letter is a short message from one agent to another, written at night.
type Letter struct {
	RecipientName string `json:"recipient_name"`
	Title         string `json:"title"`
	Message       string `json:"message"`
}

// NightActivity records one agent's night: dinner, optional song listening,
// and outgoing letters. Exactly one entry per agent per night.
type NightActivity struct {
	AgentID         string        `json:"agent_id"`
	Day             int           `json:"day"`
	SongChoiceTitle string        `json:"song_choice_title,omitempty"`
	Letters         []Letter      `json:"letters,omitempty"`
	DinnerConsumed  []agents.Good `json:"dinner_consumed,omitempty"`
}

// Song is a composed piece of settlement music.
type Song struct {
	Title       string   `json:"title"`
	Genre       string   `json:"genre"`
	BPM         int      `json:"bpm"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
}

// SongEntry ties a song to its composer.
type SongEntry struct {
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
	Song      Song   `json:"song"`
}

// Invention records a crafted good.
type Invention struct {
	AgentID string      `json:"agent_id"`
	Good    agents.Good `json:"good"`
}

// Idea records a day's thinking.
type Idea struct {
	AgentID string `json:"agent_id"`
	Text    string `json:"text"`
}

// Narrative is a day's prose summary from the narrator collaborator.
type Narrative struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// State is the complete simulation state. It has exactly one writer at a
// time: the scheduler, within whichever stage is active.
//
// Invariants: an agent id appears in exactly one of Agents/DeadAgents;
// CurrentAgentID, when set, names an active agent; CurrentStage is one of
// the four defined stages.
type State struct {
	Day        int             `json:"day"`
	Agents     []*agents.Agent `json:"agents"`
	DeadAgents []*agents.Agent `json:"dead_agents"`
	Market     *economy.Market `json:"market"`

	Actions         []ActionLogEntry        `json:"actions"`
	NightActivities map[int][]NightActivity `json:"night_activities"`
	Inventions      map[int][]Invention     `json:"inventions"`
	Ideas           map[int][]Idea          `json:"ideas"`
	Songs           map[int][]SongEntry     `json:"songs"`
	Narratives      map[int]Narrative       `json:"narratives"`

	CurrentStage   Stage  `json:"current_stage"`
	CurrentAgentID string `json:"current_agent_id,omitempty"`
}

// NewState creates an empty simulation state at day 1.
func NewState() *State {
	return &State{
		Day:             1,
		Market:          economy.NewMarket(),
		NightActivities: make(map[int][]NightActivity),
		Inventions:      make(map[int][]Invention),
		Ideas:           make(map[int][]Idea),
		Songs:           make(map[int][]SongEntry),
		Narratives:      make(map[int]Narrative),
		CurrentStage:    StageInitialization,
	}
}

// TodayActions returns the action log entries for the current day.
func (s *State) TodayActions() []ActionLogEntry {
	var out []ActionLogEntry
	for _, e := range s.Actions {
		if e.Day == s.Day {
			out = append(out, e)
		}
	}
	return out
}

// TodayNightActivities returns the night activities for the current day.
func (s *State) TodayNightActivities() []NightActivity {
	return s.NightActivities[s.Day]
}

// AddNightActivity appends a night activity under the current day.
func (s *State) AddNightActivity(a NightActivity) {
	s.NightActivities[s.Day] = append(s.NightActivities[s.Day], a)
}

// NextAgentForDay returns the first active agent, in roster order, that has
// not yet logged an action today. Nil when every agent has acted.
func (s *State) NextAgentForDay() *agents.Agent {
	acted := make(map[string]bool)
	for _, e := range s.TodayActions() {
		acted[e.AgentID] = true
	}
	for _, a := range s.Agents {
		if !acted[a.ID] {
			return a
		}
	}
	return nil
}

// NextAgentForNight returns the first active agent, in roster order, that
// has no night activity logged today. Nil when every agent is done.
func (s *State) NextAgentForNight() *agents.Agent {
	done := make(map[string]bool)
	for _, na := range s.TodayNightActivities() {
		done[na.AgentID] = true
	}
	for _, a := range s.Agents {
		if !done[a.ID] {
			return a
		}
	}
	return nil
}

// AgentByID looks up an agent by id across the active and dead rosters.
func (s *State) AgentByID(id string) *agents.Agent {
	for _, a := range s.Agents {
		if a.ID == id {
			return a
		}
	}
	for _, a := range s.DeadAgents {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// ActiveAgentByID looks up an agent by id on the active roster only.
func (s *State) ActiveAgentByID(id string) *agents.Agent {
	for _, a := range s.Agents {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// AgentByName looks up an agent by display name across both rosters.
func (s *State) AgentByName(name string) *agents.Agent {
	for _, a := range s.Agents {
		if a.Name == name {
			return a
		}
	}
	for _, a := range s.DeadAgents {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// AllSongs returns every composed song in day order.
func (s *State) AllSongs() []SongEntry {
	var out []SongEntry
	for day := 1; day <= s.Day; day++ {
		out = append(out, s.Songs[day]...)
	}
	return out
}
