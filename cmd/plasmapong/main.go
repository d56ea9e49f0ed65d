package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/arcade-rl/plasmapong/internal/browser"
	"github.com/arcade-rl/plasmapong/pkg/config"
	"github.com/arcade-rl/plasmapong/pkg/core"
	"github.com/arcade-rl/plasmapong/pkg/env"
	"github.com/arcade-rl/plasmapong/pkg/eventing"
	"github.com/arcade-rl/plasmapong/pkg/policy"
	"github.com/arcade-rl/plasmapong/pkg/record"
	"github.com/arcade-rl/plasmapong/pkg/replay"
	"github.com/arcade-rl/plasmapong/pkg/rollout"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "plasmapong",
		Short: "plasmapong drives the browser-hosted Plasma Pong game as a reinforcement-learning environment.",
	}

	for _, envFile := range []string{
		".env",
		"../../.env",
	} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	rootCmd.AddCommand(newRolloutCmd())
	rootCmd.AddCommand(newProbeCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRolloutCmd() *cobra.Command {
	var (
		episodes   int
		maxSteps   int
		policyName string
		seed       int64
		dumpLast   int
	)
	cmd := &cobra.Command{
		Use:   "rollout",
		Short: "Play episodes against the game with a built-in policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRollout(episodes, maxSteps, policyName, seed, dumpLast)
		},
	}
	cmd.Flags().IntVar(&episodes, "episodes", 1, "number of episodes to play")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "safety cap on steps per episode (0 = none)")
	cmd.Flags().StringVar(&policyName, "policy", "random", "policy to play: random or idle")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random policy seed (0 = time-based)")
	cmd.Flags().IntVar(&dumpLast, "dump-last", 0, "log the last N step records after the run")
	return cmd
}

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Connect to the game, reset once and report its state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe()
		},
	}
}

func runRollout(episodes, maxSteps int, policyName string, seed int64, dumpLast int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	pol, err := buildPolicy(policyName, seed, log)
	if err != nil {
		return err
	}

	environment, cleanup, err := buildEnvironment(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := []rollout.Option{rollout.WithLogger(log)}

	broker := eventing.NewBroker()
	defer broker.Reset()
	events := make(chan eventing.Event, 64)
	if err := broker.Subscribe("cli", events); err != nil {
		return err
	}
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for ev := range events {
			log.Info("rollout event", "kind", string(ev.Kind), "episode", ev.Episode,
				"step", ev.Step, "reward", ev.Reward, "return", ev.Return, "outcome", ev.Outcome)
		}
	}()
	opts = append(opts, rollout.WithBroker(broker))

	if cfg.RecordPath != "" {
		store := record.NewStore(cfg.RecordPath)
		if err := store.Init(ctx); err != nil {
			return fmt.Errorf("open record store: %w", err)
		}
		defer store.Close()
		opts = append(opts, rollout.WithRecorder(store))
		log.Info("recording rollout", "path", cfg.RecordPath)
	}

	var buffer *replay.Buffer
	if dumpLast > 0 {
		buffer = replay.NewBuffer(dumpLast)
		opts = append(opts, rollout.WithBuffer(buffer))
	}

	runner := rollout.NewRunner(environment, pol, rollout.Config{
		Episodes: episodes,
		MaxSteps: maxSteps,
	}, opts...)

	summary, runErr := runner.Run(ctx)

	if err := broker.Unsubscribe("cli"); err == nil {
		close(events)
		<-drained
	}

	log.Info("rollout complete", "run_id", summary.RunID,
		"episodes", len(summary.Episodes), "total_steps", summary.TotalSteps,
		"total_reward", summary.TotalReward)
	if buffer != nil {
		for _, r := range buffer.Recent() {
			log.Info("step record", "episode", r.Episode, "step", r.Step,
				"action", r.Action.String(), "reward", r.Reward, "terminated", r.Terminated)
		}
	}
	if runErr != nil {
		log.Error("rollout failed", "error", runErr)
		return runErr
	}
	return nil
}

func runProbe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	session, err := browser.NewSession(ctx, browser.Config{
		GameURL:      cfg.GameURL,
		Headless:     cfg.Headless,
		WindowWidth:  cfg.WindowWidth,
		WindowHeight: cfg.WindowHeight,
		Logger:       log,
	})
	if err != nil {
		return err
	}
	environment := env.New(session, envOptions(cfg, log)...)
	defer environment.Close()

	obs, _, err := environment.Reset(ctx, 0, nil)
	if err != nil {
		return err
	}
	state, err := session.ReadState(ctx)
	if err != nil {
		return err
	}
	log.Info("probe ok", "observation_bytes", len(obs.Pixels),
		"self_life", state.SelfLife, "opponent_life", state.OpponentLife,
		"display", state.Display)
	return nil
}

func buildEnvironment(ctx context.Context, cfg *config.Config, log *slog.Logger) (core.Environment, func(), error) {
	session, err := browser.NewSession(ctx, browser.Config{
		GameURL:      cfg.GameURL,
		Headless:     cfg.Headless,
		WindowWidth:  cfg.WindowWidth,
		WindowHeight: cfg.WindowHeight,
		Logger:       log,
	})
	if err != nil {
		return nil, nil, err
	}
	environment := env.New(session, envOptions(cfg, log)...)
	return environment, func() {
		if err := environment.Close(); err != nil {
			log.Warn("closing environment", "error", err)
		}
	}, nil
}

func envOptions(cfg *config.Config, log *slog.Logger) []env.Option {
	return []env.Option{
		env.WithLogger(log),
		env.WithSettleInterval(cfg.SettleInterval),
		env.WithPageLoadWait(cfg.PageLoadWait),
		env.WithReadinessBound(cfg.ReadinessTimeout, cfg.ReadinessPollInterval),
	}
}

func buildPolicy(name string, seed int64, log *slog.Logger) (policy.Policy, error) {
	switch name {
	case "random":
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		log.Debug("using random policy", "seed", seed)
		return policy.Random(seed), nil
	case "idle":
		return policy.Scripted(), nil
	default:
		return nil, fmt.Errorf("unknown policy %q", name)
	}
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}
