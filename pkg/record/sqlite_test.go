package record

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/arcade-rl/plasmapong/pkg/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "rollouts.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	epID, err := store.StartEpisode(ctx, "run-1", 0)
	if err != nil {
		t.Fatalf("StartEpisode failed: %v", err)
	}
	for i, reward := range []int{0, 1, -1} {
		if err := store.RecordStep(ctx, epID, i, core.ActionPush, reward, i == 2); err != nil {
			t.Fatalf("RecordStep %d failed: %v", i, err)
		}
	}
	if err := store.FinishEpisode(ctx, epID, 3, 0, "terminated"); err != nil {
		t.Fatalf("FinishEpisode failed: %v", err)
	}

	episodes, err := store.Episodes(ctx, "run-1")
	if err != nil {
		t.Fatalf("Episodes failed: %v", err)
	}
	if len(episodes) != 1 {
		t.Fatalf("got %d episodes, want 1", len(episodes))
	}
	ep := episodes[0]
	if ep.ID != epID || ep.Steps != 3 || ep.TotalReward != 0 || ep.Outcome != "terminated" {
		t.Errorf("unexpected episode row: %+v", ep)
	}

	n, err := store.StepCount(ctx, epID)
	if err != nil {
		t.Fatalf("StepCount failed: %v", err)
	}
	if n != 3 {
		t.Errorf("got %d step rows, want 3", n)
	}
}

func TestStoreEpisodesAreOrdered(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for ep := 0; ep < 3; ep++ {
		id, err := store.StartEpisode(ctx, "run-2", ep)
		if err != nil {
			t.Fatalf("StartEpisode %d failed: %v", ep, err)
		}
		if err := store.FinishEpisode(ctx, id, ep+1, ep, "step_limit"); err != nil {
			t.Fatalf("FinishEpisode %d failed: %v", ep, err)
		}
	}

	episodes, err := store.Episodes(ctx, "run-2")
	if err != nil {
		t.Fatalf("Episodes failed: %v", err)
	}
	if len(episodes) != 3 {
		t.Fatalf("got %d episodes, want 3", len(episodes))
	}
	for i, ep := range episodes {
		if ep.Episode != i {
			t.Errorf("episode %d out of order: %+v", i, ep)
		}
	}
}

func TestStoreRequiresInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "unused.db"))
	if _, err := store.StartEpisode(context.Background(), "run", 0); err == nil {
		t.Error("expected an error using an uninitialized store")
	}
}

func TestInitIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
}
