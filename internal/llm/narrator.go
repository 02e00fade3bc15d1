package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redmesa/solward/internal/engine"
)

// Narrator turns a day's event log into a short narrative. Implements
// engine.Narrator; failures are advisory and the engine skips the day's
// narrative.
type Narrator struct {
	client *Client
}

// NewNarrator creates a narrative collaborator.
func NewNarrator(client *Client) *Narrator {
	return &Narrator{client: client}
}

const narratorSystem = `You are the chronicler of Solward, a small human settlement on Mars.
Given today's event log, write a short narrative of the day.
Respond ONLY with a JSON object: {"title": "...", "content": "..."}.
Title under ten words; content two to four paragraphs, grounded in the events given.`

// Narrate summarizes the current day.
func (n *Narrator) Narrate(ctx context.Context, st *engine.State) (engine.Narrative, error) {
	if !n.client.Enabled() {
		return engine.Narrative{}, fmt.Errorf("LLM client not configured")
	}

	text, err := n.client.Complete(ctx, narratorSystem, daySummary(st), 1000)
	if err != nil {
		return engine.Narrative{}, fmt.Errorf("narrate sol %d: %w", st.Day, err)
	}

	obj, err := extractObject(text)
	if err != nil {
		return engine.Narrative{}, fmt.Errorf("narrate sol %d: %w", st.Day, err)
	}

	var out engine.Narrative
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return engine.Narrative{}, fmt.Errorf("parse narrative: %w", err)
	}
	if out.Title == "" || out.Content == "" {
		return engine.Narrative{}, fmt.Errorf("narrative missing title or content")
	}
	return out, nil
}

// daySummary renders the day's logs as the prompt the chronicler works from.
func daySummary(st *engine.State) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Sol %d. %d citizens alive, %d dead.\n\n", st.Day, len(st.Agents), len(st.DeadAgents))

	b.WriteString("Today's actions:\n")
	for _, e := range st.TodayActions() {
		a := st.AgentByID(e.AgentID)
		name := e.AgentID
		if a != nil {
			name = a.Name
		}
		if e.Err != "" {
			fmt.Fprintf(&b, "- %s tried to %s but failed (%s)\n", name, e.Request.Type, e.Err)
			continue
		}
		fmt.Fprintf(&b, "- %s chose %s", name, e.Request.Type)
		if e.Request.Reasoning != "" {
			fmt.Fprintf(&b, ": %s", e.Request.Reasoning)
		}
		b.WriteString("\n")
	}

	if inv := st.Inventions[st.Day]; len(inv) > 0 {
		b.WriteString("\nNew inventions:\n")
		for _, i := range inv {
			a := st.AgentByID(i.AgentID)
			name := i.AgentID
			if a != nil {
				name = a.Name
			}
			fmt.Fprintf(&b, "- %s made %s\n", name, i.Good)
		}
	}

	if ideas := st.Ideas[st.Day]; len(ideas) > 0 {
		b.WriteString("\nIdeas aired:\n")
		for _, i := range ideas {
			a := st.AgentByID(i.AgentID)
			name := i.AgentID
			if a != nil {
				name = a.Name
			}
			fmt.Fprintf(&b, "- %s: %s\n", name, i.Text)
		}
	}

	if songs := st.Songs[st.Day]; len(songs) > 0 {
		b.WriteString("\nSongs composed:\n")
		for _, s := range songs {
			fmt.Fprintf(&b, "- %q (%s, %d bpm) by %s\n", s.Song.Title, s.Song.Genre, s.Song.BPM, s.AgentName)
		}
	}

	fmt.Fprintf(&b, "\nThe market holds %d listings.\n", st.Market.Len())
	b.WriteString("\nWrite the day's narrative.")
	return b.String()
}
