package searchctl_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/search/searchctl"
)

// TestLimits_DefaultPercentages checks the soft/hard budget formula (spec §4.7) with the
// documented default percentages, substituted when none are supplied.
func TestLimits_DefaultPercentages(t *testing.T) {
	tc := searchctl.TimeControl{
		White:    60 * time.Second,
		WhiteInc: 1 * time.Second,
	}

	soft, hard := tc.Limits(board.White)

	// soft = 60s*0.02/30 + 1s*0.75 - 0 = 40ms + 750ms = 790ms
	assert.Equal(t, 790*time.Millisecond, soft)
	// hard = min(60s*0.5, 5*790ms) - 0 = min(30s, 3.95s) = 3.95s
	assert.Equal(t, 3950*time.Millisecond, hard)
}

// TestLimits_MovesToGoBelowEstimateIsIgnored checks that a GUI-supplied movestogo smaller than
// the built-in estimate does not shrink the divisor below the estimate (spec §4.7
// "max(moves_to_go, est_moves_left)").
func TestLimits_MovesToGoBelowEstimateIsIgnored(t *testing.T) {
	withFew := searchctl.TimeControl{White: 60 * time.Second, MovesToGo: 5}
	withMany := searchctl.TimeControl{White: 60 * time.Second, MovesToGo: 100}

	softFew, _ := withFew.Limits(board.White)
	softMany, _ := withMany.Limits(board.White)

	// 5 < estMovesToGo(30), so it is clamped up to 30 -- same divisor as movestogo=30.
	thirty := searchctl.TimeControl{White: 60 * time.Second, MovesToGo: 30}
	softThirty, _ := thirty.Limits(board.White)
	assert.Equal(t, softThirty, softFew)

	// 100 > 30, so it is honored as-is and yields a smaller per-move budget.
	assert.Less(t, softMany, softFew)
}

// TestLimits_MoveOverheadReducesBothBudgets checks that move overhead is subtracted from both
// the soft and hard limit (spec §4.7). Hard's 5*soft cap is computed from the already
// overhead-adjusted soft value and then has overhead subtracted a second time, so the two
// budgets are checked against hand-computed values rather than a linear "minus overhead"
// relation to the overhead-free run.
func TestLimits_MoveOverheadReducesBothBudgets(t *testing.T) {
	base := searchctl.TimeControl{White: 600 * time.Second, HardPct: 0.5}
	withOverhead := base
	withOverhead.MoveOverhead = 200 * time.Millisecond

	softBase, hardBase := base.Limits(board.White)
	assert.Equal(t, 400*time.Millisecond, softBase)
	assert.Equal(t, 2000*time.Millisecond, hardBase)

	softOver, hardOver := withOverhead.Limits(board.White)
	assert.Equal(t, 200*time.Millisecond, softOver)  // 400ms - 200ms overhead
	assert.Equal(t, 800*time.Millisecond, hardOver) // min(300s, 5*200ms) - 200ms
}

// TestLimits_HardNeverBelowSoft checks the floor: a hard deadline that would fall under the
// soft budget (e.g. from a large move overhead) is clamped up to soft instead of going negative
// relative to it, so deepen() never races its own mid-iteration stop against its own
// between-iteration stop.
func TestLimits_HardNeverBelowSoft(t *testing.T) {
	tc := searchctl.TimeControl{
		White:        1 * time.Second,
		MoveOverhead: 900 * time.Millisecond,
		HardPct:      0.5,
	}

	soft, hard := tc.Limits(board.White)
	assert.GreaterOrEqual(t, hard, soft)
}

// TestLimits_BlackUsesBlackClock checks that Limits reads the requested side's own clock and
// increment, not White's.
func TestLimits_BlackUsesBlackClock(t *testing.T) {
	tc := searchctl.TimeControl{
		White:    5 * time.Second,
		Black:    50 * time.Second,
		BlackInc: 2 * time.Second,
	}

	whiteSoft, _ := tc.Limits(board.White)
	blackSoft, _ := tc.Limits(board.Black)
	assert.Greater(t, blackSoft, whiteSoft)
}

// TestLimits_NeverNegative checks that a soft budget which would otherwise go negative (e.g.
// move overhead exceeding the computed slice) is floored at zero rather than producing a
// negative duration the iterative driver would have to special-case.
func TestLimits_NeverNegative(t *testing.T) {
	tc := searchctl.TimeControl{
		White:        1 * time.Millisecond,
		MoveOverhead: 1 * time.Second,
	}

	soft, _ := tc.Limits(board.White)
	assert.Equal(t, time.Duration(0), soft)
}
