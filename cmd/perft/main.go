// perft is a movegen debugging tool. See: https://www.chessprogramming.org/Perft_Results.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/board/fen"
	"github.com/seekerror/logw"
)

var (
	depth    = flag.Int("depth", 4, "Search depth")
	position = flag.String("fen", "", "Start position (default to standard)")
	divide   = flag.Bool("divide", false, "Divide counts by initial move")
)

func main() {
	ctx := context.Background()
	flag.Parse()

	if *position == "" {
		*position = fen.Initial
	}

	zt := board.NewZobristTable(1)
	pos, _, _, err := fen.Decode(zt, *position)
	if err != nil {
		logw.Exitf(ctx, "Invalid fen '%v': %v", *position, err)
	}

	for i := 1; i <= *depth; i++ {
		start := time.Now()
		var nodes uint64
		if *divide && i == *depth {
			nodes = dividePerft(pos, i)
		} else {
			nodes = pos.Perft(i)
		}
		duration := time.Since(start)

		fmt.Printf("perft,%v,%v,%v,%v\n", *position, i, nodes, duration.Microseconds())
	}
}

// dividePerft prints the node count contributed by each legal move at the root, then returns
// the total: the standard debugging aid for isolating a movegen divergence (spec §1 perft).
func dividePerft(pos *board.Position, depth int) uint64 {
	var total uint64
	for _, m := range pos.LegalMoves() {
		if !pos.Make(m) {
			continue
		}
		var count uint64
		if depth == 1 {
			count = 1
		} else {
			count = pos.Perft(depth - 1)
		}
		pos.Unmake()

		fmt.Printf("%v: %v\n", m, count)
		total += count
	}
	return total
}
