package uci_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-chess/kestrel/pkg/engine"
	"github.com/kestrel-chess/kestrel/pkg/engine/uci"
)

const drainTimeout = 5 * time.Second

// collectUntil reads lines off out until pred returns true for one of them (inclusive), or
// drainTimeout elapses, whichever comes first. It returns every line seen.
func collectUntil(t *testing.T, out <-chan string, pred func(line string) bool) []string {
	t.Helper()
	var lines []string
	deadline := time.After(drainTimeout)
	for {
		select {
		case line, ok := <-out:
			if !ok {
				return lines
			}
			lines = append(lines, line)
			if pred(line) {
				return lines
			}
		case <-deadline:
			t.Fatalf("timed out waiting for matching line; got so far: %v", lines)
			return lines
		}
	}
}

func newTestDriver(t *testing.T) (*uci.Driver, chan string, <-chan string) {
	t.Helper()
	e := engine.New(context.Background(), "kestrel-test", "tester", engine.WithZobrist(1))
	in := make(chan string, 16)
	d, out := uci.NewDriver(context.Background(), e, in)
	return d, in, out
}

// TestHandshake_SendsIdOptionsThenUciok checks the protocol handshake order (spec §6 "id" /
// "option" / "uciok" must precede any other output).
func TestHandshake_SendsIdOptionsThenUciok(t *testing.T) {
	_, _, out := newTestDriver(t)

	lines := collectUntil(t, out, func(l string) bool { return l == "uciok" })
	require.NotEmpty(t, lines)

	assert.True(t, strings.HasPrefix(lines[0], "id name kestrel-test"))
	assert.True(t, strings.HasPrefix(lines[1], "id author tester"))
	assert.Equal(t, "uciok", lines[len(lines)-1])

	var sawHash bool
	for _, l := range lines {
		if strings.HasPrefix(l, "option name Hash") {
			sawHash = true
		}
	}
	assert.True(t, sawHash)
}

// TestIsReady_AlwaysAnswered checks that "isready" gets "readyok" even before any position is
// set (spec §6 "isready").
func TestIsReady_AlwaysAnswered(t *testing.T) {
	_, in, out := newTestDriver(t)
	collectUntil(t, out, func(l string) bool { return l == "uciok" })

	in <- "isready"
	collectUntil(t, out, func(l string) bool { return l == "readyok" })
}

// TestGoDepth_EmitsBestmove drives a depth-limited search from the start position through to its
// "bestmove" line (spec §6 "go depth D" / "bestmove").
func TestGoDepth_EmitsBestmove(t *testing.T) {
	_, in, out := newTestDriver(t)
	collectUntil(t, out, func(l string) bool { return l == "uciok" })

	in <- "position startpos"
	in <- "go depth 2"

	lines := collectUntil(t, out, func(l string) bool { return strings.HasPrefix(l, "bestmove") })
	best := lines[len(lines)-1]
	fields := strings.Fields(best)
	require.Len(t, fields, 2)
	assert.NotEqual(t, "0000", fields[1])
	assert.Len(t, fields[1], 4) // e.g. "e2e4": from-square + to-square, no promotion at depth 2
}

// TestGoDepth_FromFEN checks "position fen ... moves ..." parses correctly and the resulting
// search still reports a bestmove.
func TestGoDepth_FromFEN(t *testing.T) {
	_, in, out := newTestDriver(t)
	collectUntil(t, out, func(l string) bool { return l == "uciok" })

	in <- "position fen rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1 moves e2e4 e7e5"
	in <- "go depth 1"

	lines := collectUntil(t, out, func(l string) bool { return strings.HasPrefix(l, "bestmove") })
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "bestmove"))
}

// TestStop_HaltsSearchAndReportsBestmove checks that "stop" halts an unbounded search and
// produces exactly one bestmove line (spec §6 "stop").
func TestStop_HaltsSearchAndReportsBestmove(t *testing.T) {
	_, in, out := newTestDriver(t)
	collectUntil(t, out, func(l string) bool { return l == "uciok" })

	in <- "position startpos"
	in <- "go infinite"
	in <- "stop"

	lines := collectUntil(t, out, func(l string) bool { return strings.HasPrefix(l, "bestmove") })
	count := 0
	for _, l := range lines {
		if strings.HasPrefix(l, "bestmove") {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

// TestPerft_ReportsNodeCount checks "perft depth N" against a known node count (spec §6
// "perft depth N").
func TestPerft_ReportsNodeCount(t *testing.T) {
	_, in, out := newTestDriver(t)
	collectUntil(t, out, func(l string) bool { return l == "uciok" })

	in <- "perft depth 2"
	lines := collectUntil(t, out, func(l string) bool { return strings.Contains(l, "perft") })
	assert.Equal(t, "info string perft depth 2 nodes 400", lines[len(lines)-1])
}

// TestQuit_ClosesDriver checks that "quit" terminates the command loop and closes the output
// channel (spec §6 "quit").
func TestQuit_ClosesDriver(t *testing.T) {
	d, in, out := newTestDriver(t)
	collectUntil(t, out, func(l string) bool { return l == "uciok" })

	in <- "quit"

	select {
	case <-d.Closed():
	case <-time.After(drainTimeout):
		t.Fatal("driver did not close after quit")
	}

	for range out {
	} // drain to confirm close, rather than block
}
