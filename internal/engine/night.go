package engine

import (
	"fmt"
	"log/slog"

	"github.com/redmesa/solward/internal/agents"
	"github.com/redmesa/solward/internal/entropy"
)

// dinnerThreshold is the food level below which an agent eats at night.
const dinnerThreshold = 0.95

var letterTopics = []string{
	"the dust storms last week",
	"a strange light over the ridge",
	"the taste of this year's mushroom crop",
	"whether the settlement needs a second farm dome",
	"an idea for a new kind of chair",
	"the song everyone keeps humming",
	"how quiet the nights have gotten",
}

// NightProcessor runs dinner and free time for one agent.
type NightProcessor struct {
	src entropy.Source
	log *slog.Logger
}

// NewNightProcessor creates a night processor.
func NewNightProcessor(src entropy.Source, log *slog.Logger) *NightProcessor {
	if log == nil {
		log = slog.Default()
	}
	return &NightProcessor{src: src, log: log}
}

// Process runs the agent's whole night and records a single activity entry:
// dinner first, then free time (maybe listen to a song, write a few letters).
func (np *NightProcessor) Process(st *State, a *agents.Agent) NightActivity {
	activity := NightActivity{AgentID: a.ID, Day: st.Day}

	for a.Needs.Food < dinnerThreshold {
		i := a.BestFoodIndex()
		if i < 0 {
			break
		}
		g := a.RemoveGood(i)
		a.Needs.AddFood(g.Quality)
		activity.DinnerConsumed = append(activity.DinnerConsumed, g)
	}

	if songs := st.AllSongs(); len(songs) > 0 {
		pick := songs[np.src.IntN(len(songs))]
		activity.SongChoiceTitle = pick.Song.Title
		a.Needs.AddFun(0.1)
	}

	activity.Letters = np.writeLetters(st, a)

	st.AddNightActivity(activity)
	np.log.Debug("night processed",
		"agent", a.Name, "ate", len(activity.DinnerConsumed), "letters", len(activity.Letters))
	return activity
}

// writeLetters composes 1 to 3 letters to random other active agents. Each
// letter bumps both sender's and recipient's fun a little.
func (np *NightProcessor) writeLetters(st *State, a *agents.Agent) []Letter {
	var others []*agents.Agent
	for _, o := range st.Agents {
		if o.ID != a.ID {
			others = append(others, o)
		}
	}
	if len(others) == 0 {
		return nil
	}

	n := 1 + np.src.IntN(3)
	letters := make([]Letter, 0, n)
	for i := 0; i < n; i++ {
		to := others[np.src.IntN(len(others))]
		topic := letterTopics[np.src.IntN(len(letterTopics))]
		letters = append(letters, Letter{
			RecipientName: to.Name,
			Title:         fmt.Sprintf("About %s", topic),
			Message:       fmt.Sprintf("Dear %s, I have been thinking about %s. We should talk tomorrow. Yours, %s", to.Name, topic, a.Name),
		})
		a.Needs.AddFun(0.05)
		to.Needs.AddFun(0.05)
	}
	return letters
}
