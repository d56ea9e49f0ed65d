package env

import (
	"testing"

	"github.com/arcade-rl/plasmapong/pkg/core"
)

func TestTransitionSignal(t *testing.T) {
	start := core.LifeCounters{Self: 5, Opponent: 5}

	tests := []struct {
		name           string
		prev           core.LifeCounters
		curr           core.GameState
		wantReward     int
		wantTerminated bool
	}{
		{
			name:       "opponent life drop scores",
			prev:       start,
			curr:       core.GameState{SelfLife: 5, OpponentLife: 4, Display: true},
			wantReward: 1,
		},
		{
			name:       "self life drop concedes",
			prev:       start,
			curr:       core.GameState{SelfLife: 4, OpponentLife: 5, Display: true},
			wantReward: -1,
		},
		{
			name: "no change is neutral",
			prev: start,
			curr: core.GameState{SelfLife: 5, OpponentLife: 5, Display: true},
		},
		{
			name:           "display off terminates without reward",
			prev:           start,
			curr:           core.GameState{SelfLife: 5, OpponentLife: 5, Display: false},
			wantTerminated: true,
		},
		{
			name:       "simultaneous exchange scores",
			prev:       start,
			curr:       core.GameState{SelfLife: 4, OpponentLife: 4, Display: true},
			wantReward: 1,
		},
		{
			name:           "terminal poll still reports the last delta",
			prev:           start,
			curr:           core.GameState{SelfLife: 4, OpponentLife: 5, Display: false},
			wantReward:     -1,
			wantTerminated: true,
		},
		{
			name:       "multiple drops collapse to one reward unit",
			prev:       start,
			curr:       core.GameState{SelfLife: 5, OpponentLife: 2, Display: true},
			wantReward: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reward, terminated := TransitionSignal(tt.prev, tt.curr)
			if reward != tt.wantReward {
				t.Errorf("reward: got %d, want %d", reward, tt.wantReward)
			}
			if terminated != tt.wantTerminated {
				t.Errorf("terminated: got %v, want %v", terminated, tt.wantTerminated)
			}
		})
	}
}
