// internal/lifecycle/lifecycle.go
//
// Pure classification of a campaign given ledger-sourced fields and a clock.
// State is recomputed on every read and never persisted.
package lifecycle

import "time"

type State int

const (
	StateActive State = iota
	StateFunded
	StateExpired
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateFunded:
		return "funded"
	case StateExpired:
		return "expired"
	case StateSettled:
		return "settled"
	}
	return "unknown"
}

// Action is a mutating operation gated by lifecycle state.
type Action string

const (
	ActionContribute Action = "contribute"
	ActionRefund     Action = "refund"
	ActionWithdraw   Action = "withdraw"
)

const secondsPerDay = 86400

// Classify derives the lifecycle state of a campaign. Precedence matters:
// a withdrawn campaign is settled no matter what, and reaching the goal wins
// over the deadline, so a campaign funded at the last second stays Funded
// forever rather than flipping to Expired.
func Classify(goal, raised uint64, deadline int64, withdrawn bool, now time.Time) State {
	switch {
	case withdrawn:
		return StateSettled
	case raised >= goal:
		return StateFunded
	case now.Unix() >= deadline:
		return StateExpired
	default:
		return StateActive
	}
}

// Allows reports whether an action is permitted in this state. Settled
// campaigns permit no further ledger action.
func (s State) Allows(a Action) bool {
	switch s {
	case StateActive:
		return a == ActionContribute
	case StateFunded:
		return a == ActionWithdraw
	case StateExpired:
		return a == ActionRefund
	}
	return false
}

// DaysRemaining is the number of days until the deadline, rounded up. Once a
// campaign is no longer active there is nothing left to count down, so the
// result is clamped to zero for every other state.
func (s State) DaysRemaining(deadline int64, now time.Time) int {
	if s != StateActive {
		return 0
	}
	left := deadline - now.Unix()
	if left <= 0 {
		return 0
	}
	return int((left + secondsPerDay - 1) / secondsPerDay)
}
