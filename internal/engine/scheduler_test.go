package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redmesa/solward/internal/agents"
	"github.com/redmesa/solward/internal/entropy"
)

type fixedDecider struct {
	req agents.ActionRequest
}

func (d fixedDecider) Decide(context.Context, *State, *agents.Agent) (agents.ActionRequest, error) {
	return d.req, nil
}

type failingDecider struct {
	calls int
}

func (d *failingDecider) Decide(context.Context, *State, *agents.Agent) (agents.ActionRequest, error) {
	d.calls++
	return agents.ActionRequest{}, errors.New("collaborator unavailable")
}

type fixedNarrator struct {
	n   Narrative
	err error
}

func (n fixedNarrator) Narrate(context.Context, *State) (Narrative, error) {
	return n.n, n.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noSleep(context.Context, time.Duration) error { return nil }

func newTestSimulation(t *testing.T, d Decider, n Narrator, agentCount int) *Simulation {
	t.Helper()
	sim := New(Options{
		Source:   entropy.NewSeeded(7),
		Decider:  d,
		Narrator: n,
		Retry:    &RetryPolicy{MaxAttempts: 3, Backoff: 0, Sleep: noSleep},
		Logger:   quietLogger(),
	})
	for i := 0; i < agentCount; i++ {
		sim.CreateAgent(agents.SpawnParams{})
	}
	return sim
}

func TestDayLoopResolvesEachAgentOnce(t *testing.T) {
	sim := newTestSimulation(t, fixedDecider{agents.ActionRequest{Type: agents.ActionRest}}, nil, 3)

	if err := sim.ProcessDay(context.Background()); err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}

	actions := sim.State.TodayActions()
	if len(actions) != 3 {
		t.Fatalf("day produced %d actions, want 3", len(actions))
	}
	seen := make(map[string]bool)
	for _, e := range actions {
		if seen[e.AgentID] {
			t.Errorf("agent %s acted twice", e.AgentID)
		}
		seen[e.AgentID] = true
	}
	if sim.State.CurrentAgentID != "" {
		t.Error("current agent id not cleared after the day")
	}
}

func TestExhaustedDeciderFallsBack(t *testing.T) {
	d := &failingDecider{}
	sim := newTestSimulation(t, d, nil, 1)

	if err := sim.ProcessDay(context.Background()); err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	if d.calls != 3 {
		t.Errorf("decider called %d times, want 3", d.calls)
	}

	actions := sim.State.TodayActions()
	if len(actions) != 1 {
		t.Fatalf("day produced %d actions, want 1", len(actions))
	}
	if got := actions[0].Request.Type; got != agents.ActionRest && got != agents.ActionHarvest {
		t.Errorf("fallback action type = %q", got)
	}
	if actions[0].Err != "" {
		t.Errorf("fallback action logged error %q", actions[0].Err)
	}
}

func TestInvalidRequestIdlesSlot(t *testing.T) {
	// SELL with no good name fails validation; the agent idles but the day
	// still terminates.
	sim := newTestSimulation(t, fixedDecider{agents.ActionRequest{Type: agents.ActionSell}}, nil, 2)

	if err := sim.ProcessDay(context.Background()); err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	actions := sim.State.TodayActions()
	if len(actions) != 2 {
		t.Fatalf("day produced %d actions, want 2", len(actions))
	}
	for _, e := range actions {
		if e.Err == "" {
			t.Error("invalid action should log its rejection")
		}
	}
}

func TestNarratorFailureIsNonFatal(t *testing.T) {
	sim := newTestSimulation(t,
		fixedDecider{agents.ActionRequest{Type: agents.ActionRest}},
		fixedNarrator{err: errors.New("narrator offline")}, 1)

	if err := sim.ProcessDay(context.Background()); err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	if _, ok := sim.State.Narratives[sim.State.Day]; ok {
		t.Error("failed narration should leave no narrative")
	}
}

func TestNarrativeRecordedOnSuccess(t *testing.T) {
	sim := newTestSimulation(t,
		fixedDecider{agents.ActionRequest{Type: agents.ActionRest}},
		fixedNarrator{n: Narrative{Title: "Sol 1", Content: "A quiet day."}}, 1)

	if err := sim.ProcessDay(context.Background()); err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	n := sim.State.Narratives[1]
	if n.Title != "Sol 1" {
		t.Errorf("narrative = %+v", n)
	}
}

func TestNightRollsDayOver(t *testing.T) {
	sim := newTestSimulation(t, fixedDecider{agents.ActionRequest{Type: agents.ActionRest}}, nil, 2)

	var hookDay int
	sim.OnDayEnd = func(st *State) error {
		hookDay = st.Day
		return nil
	}

	if err := sim.ProcessDay(context.Background()); err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	if err := sim.ProcessNight(context.Background()); err != nil {
		t.Fatalf("ProcessNight: %v", err)
	}

	if hookDay != 1 {
		t.Errorf("day-end hook saw day %d, want 1 (before rollover)", hookDay)
	}
	if sim.State.Day != 2 {
		t.Errorf("day = %d, want 2", sim.State.Day)
	}
	if sim.State.CurrentStage != StageInitialization {
		t.Errorf("stage = %q, want initialization", sim.State.CurrentStage)
	}
	if len(sim.State.NightActivities[1]) != 2 {
		t.Errorf("night log has %d entries, want 2", len(sim.State.NightActivities[1]))
	}
}

func TestRunStopsWhenAllDead(t *testing.T) {
	sim := newTestSimulation(t, fixedDecider{agents.ActionRequest{Type: agents.ActionRest}}, nil, 1)
	sim.State.Agents[0].Needs.Food = 0.011
	sim.State.Agents[0].Goods = nil

	// First day's decay kills the only agent; the run must stop early.
	if err := sim.Run(context.Background(), 10); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sim.State.Agents) != 0 || len(sim.State.DeadAgents) != 1 {
		t.Fatalf("rosters: active=%d dead=%d", len(sim.State.Agents), len(sim.State.DeadAgents))
	}
	if sim.State.Day > 3 {
		t.Errorf("run continued to day %d after extinction", sim.State.Day)
	}
}

func TestKillAgentLiquidatesEstate(t *testing.T) {
	sim := newTestSimulation(t, fixedDecider{agents.ActionRequest{Type: agents.ActionRest}}, nil, 1)
	a := sim.State.Agents[0]
	a.Goods = []agents.Good{agents.NewGood(agents.GoodFun, 0.5, "tv")}

	if err := sim.KillAgent(a.ID); err != nil {
		t.Fatalf("KillAgent: %v", err)
	}
	if len(sim.State.Agents) != 0 || len(sim.State.DeadAgents) != 1 {
		t.Error("agent not moved to dead roster")
	}
	if sim.State.Market.Len() != 1 || sim.State.Market.Listings[0].SellerID != SettlementSellerID {
		t.Errorf("estate not liquidated: %+v", sim.State.Market.Listings)
	}
	if err := sim.KillAgent(a.ID); err == nil {
		t.Error("killing a dead agent should fail")
	}
}

func TestUpdateAgentAppliesPartialChanges(t *testing.T) {
	sim := newTestSimulation(t, fixedDecider{agents.ActionRequest{Type: agents.ActionRest}}, nil, 1)
	a := sim.State.Agents[0]

	credits := 777.0
	food := 1.5 // out of range, must clamp
	if err := sim.UpdateAgent(a.ID, AgentUpdate{Credits: &credits, Food: &food}); err != nil {
		t.Fatalf("UpdateAgent: %v", err)
	}
	if a.Credits != 777 {
		t.Errorf("credits = %v, want 777", a.Credits)
	}
	if a.Needs.Food != 1 {
		t.Errorf("food = %v, want clamped to 1", a.Needs.Food)
	}

	if err := sim.UpdateAgent("nope", AgentUpdate{}); err == nil {
		t.Error("updating an unknown agent should fail")
	}
}

func TestAddAgentRejectsDuplicateID(t *testing.T) {
	sim := newTestSimulation(t, fixedDecider{agents.ActionRequest{Type: agents.ActionRest}}, nil, 1)
	a := sim.State.Agents[0]

	if err := sim.AddAgent(&agents.Agent{ID: a.ID, Name: "clone"}); err == nil {
		t.Error("duplicate id should be rejected")
	}
	if err := sim.AddAgent(&agents.Agent{ID: "fresh", Name: "fresh", Alive: true}); err != nil {
		t.Errorf("AddAgent: %v", err)
	}
	if len(sim.State.Agents) != 2 {
		t.Errorf("roster size = %d, want 2", len(sim.State.Agents))
	}
}
