package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redmesa/solward/internal/agents"
	"github.com/redmesa/solward/internal/entropy"
)

// Decider chooses an agent's next action given the current state. Typically
// backed by an LLM; tests plug in deterministic implementations.
type Decider interface {
	Decide(ctx context.Context, st *State, a *agents.Agent) (agents.ActionRequest, error)
}

// Narrator turns a day's events into a prose summary. Failures are advisory
// only and never abort the day.
type Narrator interface {
	Narrate(ctx context.Context, st *State) (Narrative, error)
}

// RetryPolicy bounds retries around a Decider call. Sleep is injectable so
// tests run with zero delay.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	Sleep       func(context.Context, time.Duration) error
}

// DefaultRetryPolicy retries up to three times, thirty seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 30 * time.Second}
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FallbackAction is the deterministic action used when the decider is
// exhausted: address the most urgent need, defaulting to rest.
func FallbackAction(a *agents.Agent) agents.ActionRequest {
	switch {
	case a.Needs.Food < 0.3:
		return agents.ActionRequest{Type: agents.ActionHarvest, Reasoning: "fallback: critically hungry"}
	case a.Needs.Rest < 0.3:
		return agents.ActionRequest{Type: agents.ActionRest, Reasoning: "fallback: exhausted"}
	default:
		return agents.ActionRequest{Type: agents.ActionRest, Reasoning: "fallback: default rest"}
	}
}

// Simulation owns the state and runs the daily cycle. All mutation happens
// through it, one stage at a time; there is never more than one writer.
type Simulation struct {
	State *State

	src      entropy.Source
	resolver *Resolver
	life     *Lifecycle
	night    *NightProcessor
	spawner  *agents.Spawner

	decider  Decider
	narrator Narrator
	retry    RetryPolicy

	log *slog.Logger

	// OnDayEnd, when set, runs at the end of ProcessNight before the day
	// counter increments. Used by hosts to snapshot state.
	OnDayEnd func(*State) error
}

// Options configures a Simulation.
type Options struct {
	Source   entropy.Source
	Decider  Decider
	Narrator Narrator // optional
	Retry    *RetryPolicy
	Logger   *slog.Logger
}

// New creates a simulation with a fresh state.
func New(opts Options) *Simulation {
	return NewWithState(NewState(), opts)
}

// NewWithState creates a simulation around an existing state, e.g. one
// loaded from a snapshot.
func NewWithState(st *State, opts Options) *Simulation {
	src := opts.Source
	if src == nil {
		src = entropy.NewSeeded(time.Now().UnixNano())
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	retry := DefaultRetryPolicy()
	if opts.Retry != nil {
		retry = *opts.Retry
	}
	return &Simulation{
		State:    st,
		src:      src,
		resolver: NewResolver(src),
		life:     NewLifecycle(src, log),
		night:    NewNightProcessor(src, log),
		spawner:  agents.NewSpawner(src),
		decider:  opts.Decider,
		narrator: opts.Narrator,
		retry:    retry,
		log:      log,
	}
}

// ProcessDay runs the day half of the cycle: needs decay, one action per
// active agent, narration, then the death check.
func (s *Simulation) ProcessDay(ctx context.Context) error {
	st := s.State

	st.CurrentStage = StageInitialization
	st.CurrentAgentID = ""
	s.life.DecayNeeds(st)
	s.log.Info("day started", "day", st.Day, "agents", len(st.Agents))

	st.CurrentStage = StageAgentDay
	for {
		a := st.NextAgentForDay()
		if a == nil {
			break
		}
		st.CurrentAgentID = a.ID

		req, derr := s.decideWithRetry(ctx, a)
		before := agents.HistoryEntry{Day: st.Day, Credits: a.Credits, Needs: a.Needs, Request: req}

		// An invalid request still logs, so the agent idles its slot
		// instead of stalling the loop.
		entry := ActionLogEntry{AgentID: a.ID, Day: st.Day, Request: req}
		if derr != nil {
			entry.Err = derr.Error()
			s.log.Warn("action invalid", "agent", a.Name, "type", req.Type, "err", derr)
		} else {
			var rerr error
			entry, rerr = s.resolver.Resolve(st, a, req)
			if rerr != nil {
				s.log.Warn("action rejected", "agent", a.Name, "type", req.Type, "err", rerr)
			} else {
				s.log.Info("action resolved", "agent", a.Name, "type", req.Type)
			}
		}
		st.Actions = append(st.Actions, entry)
		a.Record(before)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	st.CurrentAgentID = ""

	st.CurrentStage = StageNarrator
	s.narrate(ctx)

	if died := s.life.ReapDead(st); len(died) > 0 {
		s.log.Info("death check complete", "died", len(died), "remaining", len(st.Agents))
	}
	return nil
}

// decideWithRetry asks the decider for an action, retrying collaborator
// failures per policy and finally substituting a deterministic fallback so
// the day loop always terminates. A request that arrives but fails
// validation is returned with its error; the caller rejects that slot.
func (s *Simulation) decideWithRetry(ctx context.Context, a *agents.Agent) (agents.ActionRequest, error) {
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		req, err := s.decider.Decide(ctx, s.State, a)
		if err == nil {
			return req, req.Normalize(s.src)
		}
		s.log.Warn("decision attempt failed",
			"agent", a.Name, "attempt", attempt, "max", s.retry.MaxAttempts, "err", err)
		if attempt < s.retry.MaxAttempts {
			if serr := s.retry.sleep(ctx, s.retry.Backoff); serr != nil {
				break
			}
		}
	}
	req := FallbackAction(a)
	s.log.Info("using fallback action", "agent", a.Name, "type", req.Type)
	return req, req.Normalize(s.src)
}

func (s *Simulation) narrate(ctx context.Context) {
	if s.narrator == nil {
		return
	}
	n, err := s.narrator.Narrate(ctx, s.State)
	if err != nil {
		s.log.Warn("narration failed, skipping", "day", s.State.Day, "err", err)
		return
	}
	s.State.Narratives[s.State.Day] = n
	s.log.Info("narrative recorded", "day", s.State.Day, "title", n.Title)
}

// ProcessNight runs dinner and free time for every active agent, then rolls
// the day over.
func (s *Simulation) ProcessNight(ctx context.Context) error {
	st := s.State

	st.CurrentStage = StageAgentNight
	for {
		a := st.NextAgentForNight()
		if a == nil {
			break
		}
		st.CurrentAgentID = a.ID
		s.night.Process(st, a)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	st.CurrentAgentID = ""

	if s.OnDayEnd != nil {
		if err := s.OnDayEnd(st); err != nil {
			return fmt.Errorf("day %d end hook: %w", st.Day, err)
		}
	}

	st.CurrentStage = StageInitialization
	st.Day++
	return nil
}

// Run executes full days until maxDays have passed, every agent is dead, or
// the context is cancelled.
func (s *Simulation) Run(ctx context.Context, maxDays int) error {
	for day := 0; day < maxDays; day++ {
		if len(s.State.Agents) == 0 {
			s.log.Info("all agents dead, stopping", "day", s.State.Day)
			return nil
		}
		if err := s.ProcessDay(ctx); err != nil {
			return err
		}
		if err := s.ProcessNight(ctx); err != nil {
			return err
		}
	}
	return nil
}

// CreateAgent spawns a new agent and adds it to the active roster.
func (s *Simulation) CreateAgent(p agents.SpawnParams) *agents.Agent {
	taken := make(map[string]bool)
	for _, a := range s.State.Agents {
		taken[a.Name] = true
	}
	for _, a := range s.State.DeadAgents {
		taken[a.Name] = true
	}
	a := s.spawner.Spawn(p, taken)
	s.State.Agents = append(s.State.Agents, a)
	s.log.Info("agent created", "agent", a.Name, "credits", a.Credits)
	return a
}

// AddAgent adds a pre-built agent to the active roster. It rejects ids
// already present on either roster.
func (s *Simulation) AddAgent(a *agents.Agent) error {
	if a.ID == "" {
		return fmt.Errorf("agent has no id")
	}
	if s.State.AgentByID(a.ID) != nil {
		return fmt.Errorf("agent id %q already exists", a.ID)
	}
	s.State.Agents = append(s.State.Agents, a)
	return nil
}

// KillAgent removes the agent from the active roster, liquidating its goods
// the same way starvation does.
func (s *Simulation) KillAgent(id string) error {
	a := s.State.ActiveAgentByID(id)
	if a == nil {
		return fmt.Errorf("no active agent %q", id)
	}
	a.Needs.Food = 0
	s.life.ReapDead(s.State)
	return nil
}

// AgentUpdate is a partial agent update; nil fields are left unchanged.
type AgentUpdate struct {
	Credits *float64
	Food    *float64
	Rest    *float64
	Fun     *float64
	Goods   []agents.Good
}

// UpdateAgent applies a partial update to an active agent.
func (s *Simulation) UpdateAgent(id string, u AgentUpdate) error {
	a := s.State.ActiveAgentByID(id)
	if a == nil {
		return fmt.Errorf("no active agent %q", id)
	}
	if u.Credits != nil {
		a.Credits = *u.Credits
	}
	if u.Food != nil {
		a.Needs.Food = *u.Food
	}
	if u.Rest != nil {
		a.Needs.Rest = *u.Rest
	}
	if u.Fun != nil {
		a.Needs.Fun = *u.Fun
	}
	if u.Goods != nil {
		a.Goods = u.Goods
	}
	a.Needs.Clamp()
	return nil
}

// AgentByID exposes roster lookup to hosts.
func (s *Simulation) AgentByID(id string) *agents.Agent { return s.State.AgentByID(id) }

// AgentByName exposes name lookup to hosts.
func (s *Simulation) AgentByName(name string) *agents.Agent { return s.State.AgentByName(name) }
