package rollout

import (
	"context"
	"log/slog"
	"testing"

	"github.com/arcade-rl/plasmapong/pkg/core"
	"github.com/arcade-rl/plasmapong/pkg/eventing"
	"github.com/arcade-rl/plasmapong/pkg/policy"
	"github.com/arcade-rl/plasmapong/pkg/replay"
)

// fakeEnv replays a scripted list of per-episode transition sequences.
type fakeEnv struct {
	episodes [][]core.Transition
	episode  int
	step     int
	resets   int
}

func (e *fakeEnv) Reset(ctx context.Context, seed int64, options core.Info) (core.Observation, core.Info, error) {
	if e.resets > 0 {
		e.episode++
	}
	e.resets++
	e.step = 0
	return core.NewObservation(), core.Info{}, nil
}

func (e *fakeEnv) Step(ctx context.Context, action core.Action) (core.Transition, error) {
	tr := e.episodes[e.episode][e.step]
	e.step++
	return tr, nil
}

func (e *fakeEnv) Render(ctx context.Context, mode core.RenderMode) (*core.Observation, error) {
	return nil, nil
}

func (e *fakeEnv) Close() error { return nil }

type recordedStep struct {
	episodeID string
	step      int
	reward    int
}

type fakeRecorder struct {
	started  int
	finished int
	steps    []recordedStep
	outcomes []string
}

func (r *fakeRecorder) StartEpisode(ctx context.Context, runID string, episode int) (string, error) {
	r.started++
	return "ep", nil
}

func (r *fakeRecorder) RecordStep(ctx context.Context, episodeID string, step int, action core.Action, reward int, terminated bool) error {
	r.steps = append(r.steps, recordedStep{episodeID: episodeID, step: step, reward: reward})
	return nil
}

func (r *fakeRecorder) FinishEpisode(ctx context.Context, episodeID string, steps, totalReward int, outcome string) error {
	r.finished++
	r.outcomes = append(r.outcomes, outcome)
	return nil
}

func quiet(reward int, terminated bool) core.Transition {
	return core.Transition{Observation: core.NewObservation(), Reward: reward, Terminated: terminated, Info: core.Info{}}
}

func TestRunnerPlaysEpisodesToTermination(t *testing.T) {
	env := &fakeEnv{episodes: [][]core.Transition{
		{quiet(0, false), quiet(1, false), quiet(-1, true)},
		{quiet(1, true)},
	}}
	recorder := &fakeRecorder{}
	buffer := replay.NewBuffer(10)

	runner := NewRunner(env, policy.Scripted(core.ActionNone), Config{Episodes: 2},
		WithLogger(slog.New(slog.DiscardHandler)),
		WithRecorder(recorder),
		WithBuffer(buffer),
	)
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(summary.Episodes) != 2 {
		t.Fatalf("got %d episode results, want 2", len(summary.Episodes))
	}
	if summary.TotalSteps != 4 {
		t.Errorf("total steps: got %d, want 4", summary.TotalSteps)
	}
	if summary.TotalReward != 1 {
		t.Errorf("total reward: got %d, want 1", summary.TotalReward)
	}
	for i, want := range []EpisodeResult{
		{Episode: 0, Steps: 3, TotalReward: 0, Outcome: OutcomeTerminated},
		{Episode: 1, Steps: 1, TotalReward: 1, Outcome: OutcomeTerminated},
	} {
		if summary.Episodes[i] != want {
			t.Errorf("episode %d: got %+v, want %+v", i, summary.Episodes[i], want)
		}
	}

	if recorder.started != 2 || recorder.finished != 2 {
		t.Errorf("recorder saw %d starts and %d finishes, want 2 and 2", recorder.started, recorder.finished)
	}
	if len(recorder.steps) != 4 {
		t.Errorf("recorder saw %d steps, want 4", len(recorder.steps))
	}
	if buffer.Len() != 4 {
		t.Errorf("buffer retained %d records, want 4", buffer.Len())
	}
}

func TestRunnerStepLimit(t *testing.T) {
	steps := make([]core.Transition, 10)
	for i := range steps {
		steps[i] = quiet(0, false)
	}
	env := &fakeEnv{episodes: [][]core.Transition{steps}}
	recorder := &fakeRecorder{}

	runner := NewRunner(env, policy.Scripted(core.ActionNone), Config{Episodes: 1, MaxSteps: 5},
		WithLogger(slog.New(slog.DiscardHandler)),
		WithRecorder(recorder),
	)
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.TotalSteps != 5 {
		t.Errorf("total steps: got %d, want 5", summary.TotalSteps)
	}
	if recorder.outcomes[0] != OutcomeStepLimit {
		t.Errorf("outcome: got %q, want %q", recorder.outcomes[0], OutcomeStepLimit)
	}
}

func TestRunnerPublishesProgressEvents(t *testing.T) {
	env := &fakeEnv{episodes: [][]core.Transition{
		{quiet(0, false), quiet(1, false), quiet(0, true)},
	}}
	broker := eventing.NewBroker()
	t.Cleanup(broker.Reset)
	events := make(chan eventing.Event, 16)
	if err := broker.Subscribe("test", events); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	runner := NewRunner(env, policy.Scripted(core.ActionNone), Config{Episodes: 1},
		WithLogger(slog.New(slog.DiscardHandler)),
		WithBroker(broker),
	)
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	close(events)

	var kinds []eventing.Kind
	for ev := range events {
		if ev.RunID != runner.RunID() {
			t.Errorf("event carries run ID %q, want %q", ev.RunID, runner.RunID())
		}
		kinds = append(kinds, ev.Kind)
	}
	// Started, the rewarding step, the terminal step, finished. Quiet steps
	// stay off the wire.
	want := []eventing.Kind{
		eventing.KindEpisodeStarted,
		eventing.KindStep,
		eventing.KindStep,
		eventing.KindEpisodeFinished,
	}
	if len(kinds) != len(want) {
		t.Fatalf("got events %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d: got %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestRunnerStopsOnCancelledContext(t *testing.T) {
	env := &fakeEnv{episodes: [][]core.Transition{{quiet(0, true)}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(env, policy.Scripted(core.ActionNone), Config{Episodes: 1},
		WithLogger(slog.New(slog.DiscardHandler)),
	)
	if _, err := runner.Run(ctx); err == nil {
		t.Error("expected an error from a cancelled run")
	}
}
