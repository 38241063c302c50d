package lifecycle_test

import (
	"testing"
	"time"

	"github.com/Rohan-Singla/solfund-backend/internal/lifecycle"
)

var now = time.Unix(1_700_000_000, 0)

func TestClassify(t *testing.T) {
	future := now.Unix() + 3600
	past := now.Unix() - 3600

	tests := []struct {
		name      string
		goal      uint64
		raised    uint64
		deadline  int64
		withdrawn bool
		want      lifecycle.State
	}{
		{"active before deadline", 10, 4, future, false, lifecycle.StateActive},
		{"funded at goal", 10, 10, future, false, lifecycle.StateFunded},
		{"funded over goal", 10, 15, future, false, lifecycle.StateFunded},
		{"funded beats expired", 10, 10, past, false, lifecycle.StateFunded},
		{"expired under goal", 10, 4, past, false, lifecycle.StateExpired},
		{"expired exactly at deadline", 10, 4, now.Unix(), false, lifecycle.StateExpired},
		{"settled beats funded", 10, 10, future, true, lifecycle.StateSettled},
		{"settled beats expired", 10, 4, past, true, lifecycle.StateSettled},
		{"zero goal is immediately funded", 0, 0, future, false, lifecycle.StateFunded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lifecycle.Classify(tt.goal, tt.raised, tt.deadline, tt.withdrawn, now)
			if got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFundedPrecedenceHoldsForAnyClock(t *testing.T) {
	// Reaching the goal always wins, no matter where the clock sits relative
	// to the deadline.
	deadline := now.Unix()
	for _, offset := range []int64{-86400 * 30, -1, 0, 1, 86400 * 30} {
		at := time.Unix(deadline+offset, 0)
		if got := lifecycle.Classify(10, 10, deadline, false, at); got != lifecycle.StateFunded {
			t.Errorf("Classify at offset %d = %s, want funded", offset, got)
		}
	}
}

func TestAllows(t *testing.T) {
	tests := []struct {
		state  lifecycle.State
		action lifecycle.Action
		want   bool
	}{
		{lifecycle.StateActive, lifecycle.ActionContribute, true},
		{lifecycle.StateActive, lifecycle.ActionWithdraw, false},
		{lifecycle.StateActive, lifecycle.ActionRefund, false},
		{lifecycle.StateFunded, lifecycle.ActionWithdraw, true},
		{lifecycle.StateFunded, lifecycle.ActionContribute, false},
		{lifecycle.StateExpired, lifecycle.ActionRefund, true},
		{lifecycle.StateExpired, lifecycle.ActionContribute, false},
		{lifecycle.StateSettled, lifecycle.ActionContribute, false},
		{lifecycle.StateSettled, lifecycle.ActionRefund, false},
		{lifecycle.StateSettled, lifecycle.ActionWithdraw, false},
	}

	for _, tt := range tests {
		if got := tt.state.Allows(tt.action); got != tt.want {
			t.Errorf("%s.Allows(%s) = %v, want %v", tt.state, tt.action, got, tt.want)
		}
	}
}

func TestDaysRemaining(t *testing.T) {
	tests := []struct {
		name     string
		state    lifecycle.State
		deadline int64
		want     int
	}{
		{"full day", lifecycle.StateActive, now.Unix() + 86400, 1},
		{"partial day rounds up", lifecycle.StateActive, now.Unix() + 1, 1},
		{"ten and a bit days", lifecycle.StateActive, now.Unix() + 10*86400 + 60, 11},
		{"deadline passed", lifecycle.StateActive, now.Unix() - 1, 0},
		{"funded clamps to zero", lifecycle.StateFunded, now.Unix() + 86400, 0},
		{"settled clamps to zero", lifecycle.StateSettled, now.Unix() + 86400, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.DaysRemaining(tt.deadline, now); got != tt.want {
				t.Errorf("DaysRemaining() = %d, want %d", got, tt.want)
			}
		})
	}
}
