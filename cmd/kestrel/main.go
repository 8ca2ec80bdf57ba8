// kestrel is a UCI chess engine: bitboard move generation, tapered evaluation, and an
// alpha-beta search with iterative deepening, aspiration windows, multi-PV, and lazy-SMP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/seekerror/logw"

	"github.com/kestrel-chess/kestrel/pkg/engine"
	"github.com/kestrel-chess/kestrel/pkg/engine/uci"
)

var (
	hash         = flag.Uint("hash", 16, "Transposition table size in MB")
	threads      = flag.Uint("threads", 1, "Number of lazy-SMP search workers")
	moveOverhead = flag.Duration("move_overhead", 50*time.Millisecond, "Time reserved per move for GUI/OS latency")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: kestrel [options]

KESTREL is a UCI chess engine.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	e := engine.New(ctx, "kestrel", "kestrel-chess",
		engine.WithOptions(engine.Options{
			Hash:         *hash,
			Threads:      *threads,
			MultiPV:      1,
			MoveOverhead: *moveOverhead,
		}),
	)

	in := engine.ReadStdinLines(ctx)
	switch <-in {
	case uci.ProtocolName:
		driver, out := uci.NewDriver(ctx, e, in)
		go engine.WriteStdoutLines(ctx, out)

		<-driver.Closed()

	default:
		flag.Usage()
		logw.Exitf(ctx, "Protocol not supported")
	}
}
