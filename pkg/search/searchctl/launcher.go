// Package searchctl wires the negamax search engine to iterative deepening, aspiration windows,
// multi-PV, time management, and lazy-SMP worker pools: the root driver spec §4.6/§4.7 describes.
package searchctl

import (
	"context"
	"fmt"
	"strings"

	"github.com/seekerror/stdlib/pkg/lang"

	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/game"
	"github.com/kestrel-chess/kestrel/pkg/search"
)

// Options hold the dynamic parameters of one "go" command (spec §6 "go ...").
type Options struct {
	// DepthLimit, if set, limits the search to the given ply depth.
	DepthLimit lang.Optional[uint]
	// NodeLimit, if set, halts the search once this many nodes have been visited.
	NodeLimit lang.Optional[uint64]
	// TimeControl, if set, limits the search to the given time parameters.
	TimeControl lang.Optional[TimeControl]
	// SearchMoves, if non-empty, restricts the root to only these moves.
	SearchMoves []board.Move
	// MultiPV is how many root principal variations to report; 1 if unset.
	MultiPV int
	// Threads is the number of lazy-SMP worker threads to use; 1 if unset.
	Threads int
}

func (o Options) String() string {
	var ret []string
	if v, ok := o.DepthLimit.V(); ok {
		ret = append(ret, fmt.Sprintf("depth=%v", v))
	}
	if v, ok := o.NodeLimit.V(); ok {
		ret = append(ret, fmt.Sprintf("nodes=%v", v))
	}
	if v, ok := o.TimeControl.V(); ok {
		ret = append(ret, fmt.Sprintf("time=%v", v))
	}
	if o.MultiPV > 1 {
		ret = append(ret, fmt.Sprintf("multipv=%v", o.MultiPV))
	}
	if o.Threads > 1 {
		ret = append(ret, fmt.Sprintf("threads=%v", o.Threads))
	}
	return fmt.Sprintf("[%v]", strings.Join(ret, ", "))
}

// Launcher manages searches against a shared transposition table.
type Launcher interface {
	// Launch starts a new search from b, which the launcher owns exclusively until the returned
	// Handle is halted. It returns a channel of PV updates, one (or MultiPV many, per depth) per
	// completed iterative-deepening iteration; the channel is closed once the search halts.
	Launch(ctx context.Context, b *game.Board, tt search.TranspositionTable, opt Options) (Handle, <-chan search.PV)
}

// Handle lets the engine stop an in-flight search and recover its last reported result.
type Handle interface {
	// Halt stops the search, if running, and returns the best PV found so far. Idempotent.
	Halt() search.PV
}
