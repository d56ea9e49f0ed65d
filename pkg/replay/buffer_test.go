package replay

import (
	"testing"

	"github.com/arcade-rl/plasmapong/pkg/core"
)

func TestBuffer(t *testing.T) {
	t.Run("evicts oldest at capacity", func(t *testing.T) {
		b := NewBuffer(3)
		for i := 0; i < 5; i++ {
			b.Add(Record{Step: i, Action: core.ActionNone})
		}
		recent := b.Recent()
		if len(recent) != 3 {
			t.Fatalf("retained %d records, want 3", len(recent))
		}
		for i, r := range recent {
			if want := i + 2; r.Step != want {
				t.Errorf("record %d: got step %d, want %d", i, r.Step, want)
			}
		}
	})

	t.Run("recent returns a copy", func(t *testing.T) {
		b := NewBuffer(2)
		b.Add(Record{Step: 0, Reward: 1})

		recent := b.Recent()
		recent[0].Reward = -1

		if got := b.Recent()[0].Reward; got != 1 {
			t.Errorf("mutating the returned slice leaked into the buffer: reward %d", got)
		}
	})

	t.Run("capacity floor is one", func(t *testing.T) {
		b := NewBuffer(0)
		b.Add(Record{Step: 0})
		b.Add(Record{Step: 1})
		if b.Len() != 1 {
			t.Errorf("retained %d records, want 1", b.Len())
		}
		if b.Recent()[0].Step != 1 {
			t.Error("expected only the newest record to survive")
		}
	})
}
