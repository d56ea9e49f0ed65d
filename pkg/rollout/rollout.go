// Package rollout drives episodes of a policy against an environment. It is
// the glue a training loop would occupy; the adapter underneath does not know
// it exists.
package rollout

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arcade-rl/plasmapong/pkg/core"
	"github.com/arcade-rl/plasmapong/pkg/eventing"
	"github.com/arcade-rl/plasmapong/pkg/policy"
	"github.com/arcade-rl/plasmapong/pkg/replay"
)

// Episode outcomes.
const (
	OutcomeTerminated = "terminated"
	OutcomeStepLimit  = "step_limit"
)

// Recorder persists rollout outcomes. Satisfied by record.Store.
type Recorder interface {
	StartEpisode(ctx context.Context, runID string, episode int) (string, error)
	RecordStep(ctx context.Context, episodeID string, step int, action core.Action, reward int, terminated bool) error
	FinishEpisode(ctx context.Context, episodeID string, steps, totalReward int, outcome string) error
}

// Config sets how much to run.
type Config struct {
	// Episodes is how many episodes to play.
	Episodes int
	// MaxSteps caps a single episode as a safety bound. Zero means no cap;
	// the environment itself never truncates.
	MaxSteps int
}

// Runner plays episodes and aggregates their results.
type Runner struct {
	env    core.Environment
	policy policy.Policy
	cfg    Config

	log      *slog.Logger
	broker   *eventing.Broker
	recorder Recorder
	buffer   *replay.Buffer

	runID string
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

// WithBroker publishes progress events to the given broker.
func WithBroker(b *eventing.Broker) Option {
	return func(r *Runner) {
		r.broker = b
	}
}

// WithRecorder persists episodes and steps through the given recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithBuffer retains recent step records in the given replay buffer.
func WithBuffer(b *replay.Buffer) Option {
	return func(r *Runner) {
		r.buffer = b
	}
}

// NewRunner builds a runner for the given environment and policy.
func NewRunner(env core.Environment, pol policy.Policy, cfg Config, opts ...Option) *Runner {
	r := &Runner{
		env:    env,
		policy: pol,
		cfg:    cfg,
		log:    slog.Default(),
		runID:  "run-" + uuid.New().String(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunID identifies this runner's episodes in events and recorded rows.
func (r *Runner) RunID() string {
	return r.runID
}

// EpisodeResult summarizes one played episode.
type EpisodeResult struct {
	Episode     int
	Steps       int
	TotalReward int
	Outcome     string
}

// Summary aggregates a whole run.
type Summary struct {
	RunID       string
	Episodes    []EpisodeResult
	TotalSteps  int
	TotalReward int
}

// Run plays the configured number of episodes. Environment and policy errors
// end the run; the partial summary up to the failing episode is returned
// alongside the error.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: r.runID}

	for episode := 0; episode < r.cfg.Episodes; episode++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		result, err := r.playEpisode(ctx, episode)
		if err != nil {
			return summary, err
		}
		summary.Episodes = append(summary.Episodes, result)
		summary.TotalSteps += result.Steps
		summary.TotalReward += result.TotalReward
	}

	return summary, nil
}

func (r *Runner) playEpisode(ctx context.Context, episode int) (EpisodeResult, error) {
	obs, _, err := r.env.Reset(ctx, 0, nil)
	if err != nil {
		return EpisodeResult{}, err
	}

	var episodeID string
	if r.recorder != nil {
		episodeID, err = r.recorder.StartEpisode(ctx, r.runID, episode)
		if err != nil {
			return EpisodeResult{}, err
		}
	}
	r.publish(eventing.Event{Kind: eventing.KindEpisodeStarted, Episode: episode})
	r.log.Info("episode started", "run_id", r.runID, "episode", episode)

	result := EpisodeResult{Episode: episode, Outcome: OutcomeStepLimit}
	for {
		action, err := r.policy.Act(ctx, obs)
		if err != nil {
			return result, err
		}
		tr, err := r.env.Step(ctx, action)
		if err != nil {
			return result, err
		}

		step := result.Steps
		result.Steps++
		result.TotalReward += tr.Reward

		if r.buffer != nil {
			r.buffer.Add(replay.Record{
				Episode:    episode,
				Step:       step,
				Action:     action,
				Reward:     tr.Reward,
				Terminated: tr.Terminated,
			})
		}
		if r.recorder != nil {
			if err := r.recorder.RecordStep(ctx, episodeID, step, action, tr.Reward, tr.Terminated); err != nil {
				return result, err
			}
		}
		if tr.Reward != 0 || tr.Terminated {
			r.publish(eventing.Event{
				Kind:       eventing.KindStep,
				Episode:    episode,
				Step:       step,
				Action:     action,
				Reward:     tr.Reward,
				Return:     result.TotalReward,
				Terminated: tr.Terminated,
			})
		}

		if tr.Terminated {
			result.Outcome = OutcomeTerminated
			break
		}
		if r.cfg.MaxSteps > 0 && result.Steps >= r.cfg.MaxSteps {
			break
		}
		obs = tr.Observation
	}

	if r.recorder != nil {
		if err := r.recorder.FinishEpisode(ctx, episodeID, result.Steps, result.TotalReward, result.Outcome); err != nil {
			return result, err
		}
	}
	r.publish(eventing.Event{
		Kind:    eventing.KindEpisodeFinished,
		Episode: episode,
		Step:    result.Steps,
		Return:  result.TotalReward,
		Outcome: result.Outcome,
	})
	r.log.Info("episode finished", "run_id", r.runID, "episode", episode,
		"steps", result.Steps, "return", result.TotalReward, "outcome", result.Outcome)

	return result, nil
}

func (r *Runner) publish(ev eventing.Event) {
	if r.broker == nil {
		return
	}
	ev.RunID = r.runID
	ev.Timestamp = time.Now()
	if err := r.broker.Publish(ev); err != nil {
		r.log.Warn("dropping rollout event", "kind", string(ev.Kind), "error", err)
	}
}
