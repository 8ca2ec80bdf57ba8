package searchctl

import (
	"fmt"
	"time"

	"github.com/kestrel-chess/kestrel/pkg/board"
)

// TimeControl carries one side's clock state for a "go" command (spec §6 "wtime btime winc
// binc movestogo"), plus the engine-wide knobs that shape how much of it a single move may
// spend (spec §6 "Move Overhead", "Soft Time Percent", "Hard Time Percent").
type TimeControl struct {
	White, Black       time.Duration
	WhiteInc, BlackInc time.Duration
	MovesToGo          int // 0 == unknown, estimate remaining moves

	MoveOverhead time.Duration
	SoftPct      float64 // e.g. 0.02
	HardPct      float64 // e.g. 0.5
}

// estMovesToGo is the assumed remaining game length when the GUI does not supply movestogo
// (spec §4.7 "max(moves_to_go, est_moves_left)").
const estMovesToGo = 30

// Limits returns the soft and hard time budgets for the side to move (spec §4.7):
//
//	soft = remaining*soft_pct/max(moves_to_go, est_moves_left) + increment*0.75 - move_overhead
//	hard = min(remaining*hard_pct, 5*soft) - move_overhead
//
// The soft limit is consulted between iterative-deepening iterations; the hard limit is the
// deadline that triggers an immediate cooperative stop mid-iteration.
func (t TimeControl) Limits(c board.Color) (soft, hard time.Duration) {
	remaining, inc := t.White, t.WhiteInc
	if c == board.Black {
		remaining, inc = t.Black, t.BlackInc
	}

	movesToGo := t.MovesToGo
	if movesToGo < estMovesToGo {
		movesToGo = estMovesToGo
	}

	softPct, hardPct := t.SoftPct, t.HardPct
	if softPct <= 0 {
		softPct = 0.02
	}
	if hardPct <= 0 {
		hardPct = 0.5
	}

	soft = time.Duration(float64(remaining)*softPct/float64(movesToGo)) + time.Duration(float64(inc)*0.75) - t.MoveOverhead
	if soft < 0 {
		soft = 0
	}

	hard = time.Duration(float64(remaining) * hardPct)
	if cap5 := 5 * soft; cap5 < hard {
		hard = cap5
	}
	hard -= t.MoveOverhead
	if hard < soft {
		hard = soft
	}
	return soft, hard
}

func (t TimeControl) String() string {
	if t.MovesToGo == 0 {
		return fmt.Sprintf("%.1f<>%.1f", t.White.Seconds(), t.Black.Seconds())
	}
	return fmt.Sprintf("%.1f<>%.1f[moves=%v]", t.White.Seconds(), t.Black.Seconds(), t.MovesToGo)
}
