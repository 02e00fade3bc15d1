// Command solward runs the Solward settlement simulation: a closed Mars
// economy of LLM-driven agents working, trading, and surviving sol by sol.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/redmesa/solward/internal/agents"
	"github.com/redmesa/solward/internal/api"
	"github.com/redmesa/solward/internal/config"
	"github.com/redmesa/solward/internal/engine"
	"github.com/redmesa/solward/internal/entropy"
	"github.com/redmesa/solward/internal/llm"
	"github.com/redmesa/solward/internal/persistence"
)

func main() {
	var (
		agentCount int
		days       int
		credits    float64
		seed       int64
		dbPath     string
		outputDir  string
		port       int
		resume     bool
	)

	root := &cobra.Command{
		Use:   "solward",
		Short: "Run the Solward Mars settlement simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(runOptions{
				agentCount: agentCount,
				days:       days,
				credits:    credits,
				seed:       seed,
				dbPath:     dbPath,
				outputDir:  outputDir,
				port:       port,
				resume:     resume,
			})
		},
	}

	root.Flags().IntVar(&agentCount, "agents", 5, "number of agents to spawn")
	root.Flags().IntVar(&days, "days", 30, "number of sols to simulate")
	root.Flags().Float64Var(&credits, "credits", 0, "starting credits per agent (0 = random)")
	root.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time-based)")
	root.Flags().StringVar(&dbPath, "db", "data/solward.db", "SQLite database path")
	root.Flags().StringVar(&outputDir, "output", "output", "directory for per-day state snapshots")
	root.Flags().IntVar(&port, "port", 8080, "HTTP API port (0 = disabled)")
	root.Flags().BoolVar(&resume, "resume", false, "resume from the latest snapshot in the output dir")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

type runOptions struct {
	agentCount int
	days       int
	credits    float64
	seed       int64
	dbPath     string
	outputDir  string
	port       int
	resume     bool
}

func run(opts runOptions) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()

	src := pickSource(cfg, opts.seed)

	if err := os.MkdirAll(filepath.Dir(opts.dbPath), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := persistence.Open(opts.dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	slog.Info("database opened", "path", opts.dbPath)

	llmClient := llm.NewClient(cfg.AnthropicAPIKey, cfg.ModelName)

	simOpts := engine.Options{
		Source:  src,
		Decider: llm.NewDecider(llmClient),
		Logger:  logger,
	}
	if llmClient.Enabled() {
		simOpts.Narrator = llm.NewNarrator(llmClient)
		slog.Info("LLM collaborators enabled")
	} else {
		// No collaborator to retry; fall back immediately.
		simOpts.Retry = &engine.RetryPolicy{MaxAttempts: 1}
		slog.Warn("running without LLM, all agents use fallback actions")
	}

	sim, err := buildSimulation(simOpts, opts)
	if err != nil {
		return err
	}

	sim.OnDayEnd = func(st *engine.State) error {
		if err := persistence.WriteSnapshot(opts.outputDir, st); err != nil {
			return err
		}
		if err := db.SaveState(st); err != nil {
			return err
		}
		return nil
	}

	if opts.port > 0 {
		server := &api.Server{Sim: sim, Port: opts.port, AdminKey: cfg.AdminKey}
		server.Start()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	slog.Info("simulation starting",
		"agents", len(sim.State.Agents), "days", opts.days, "first_day", sim.State.Day)

	runErr := sim.Run(ctx, opts.days)
	if runErr != nil && ctx.Err() != nil {
		slog.Info("interrupted, state saved through the last completed sol")
		runErr = nil
	}

	report(sim.State, time.Since(start))
	return runErr
}

// pickSource chooses the entropy source: seeded when a seed is given,
// random.org when configured, time-seeded otherwise.
func pickSource(cfg config.Config, seed int64) entropy.Source {
	if seed != 0 {
		slog.Info("using seeded entropy", "seed", seed)
		return entropy.NewSeeded(seed)
	}
	if client := entropy.NewClient(cfg.RandomOrgKey); client != nil {
		slog.Info("using random.org entropy")
		return client
	}
	return entropy.NewSeeded(time.Now().UnixNano())
}

func buildSimulation(simOpts engine.Options, opts runOptions) (*engine.Simulation, error) {
	if opts.resume {
		path, day, err := persistence.LatestSnapshot(opts.outputDir)
		if err != nil {
			return nil, fmt.Errorf("find snapshot: %w", err)
		}
		if path != "" {
			st, err := persistence.ReadSnapshot(path)
			if err != nil {
				return nil, fmt.Errorf("resume: %w", err)
			}
			st.Day = day + 1
			slog.Info("resumed from snapshot", "path", path, "next_day", st.Day)
			return engine.NewWithState(st, simOpts), nil
		}
		slog.Warn("no snapshot found, starting fresh")
	}

	sim := engine.New(simOpts)
	for i := 0; i < opts.agentCount; i++ {
		var p agents.SpawnParams
		if opts.credits > 0 {
			c := opts.credits
			p.Credits = &c
		}
		sim.CreateAgent(p)
	}
	return sim, nil
}

// report prints the end-of-run summary.
func report(st *engine.State, elapsed time.Duration) {
	var totalCredits float64
	richest := ""
	var richestCredits float64
	for _, a := range st.Agents {
		totalCredits += a.Credits
		if a.Credits > richestCredits {
			richest, richestCredits = a.Name, a.Credits
		}
	}

	fmt.Println()
	fmt.Printf("Simulation finished after %s, reaching sol %d.\n", elapsed.Round(time.Second), st.Day-1)
	fmt.Printf("  Citizens:   %d alive, %d dead\n", len(st.Agents), len(st.DeadAgents))
	fmt.Printf("  Credits in circulation: %s\n", humanize.Commaf(totalCredits))
	if richest != "" {
		fmt.Printf("  Wealthiest: %s with %s credits\n", richest, humanize.Commaf(richestCredits))
	}
	fmt.Printf("  Market listings: %d\n", st.Market.Len())
	fmt.Printf("  Songs composed:  %d\n", len(st.AllSongs()))
	for _, a := range st.DeadAgents {
		if a.DeathDay != nil {
			fmt.Printf("  In memoriam: %s, died sol %d\n", a.Name, *a.DeathDay)
		}
	}
}
