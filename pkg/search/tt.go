package search

import (
	"context"
	"fmt"
	"math/bits"
	"sync/atomic"

	"github.com/seekerror/logw"

	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/eval"
)

// Bound classifies how a stored score relates to the true minimax value, per the usual
// alpha-beta bookkeeping: Exact came from a PV node, Lower from a beta cutoff (fail-high),
// Upper from a node that failed low (no move improved alpha).
type Bound uint8

const (
	Exact Bound = iota
	Lower
	Upper
)

func (b Bound) String() string {
	switch b {
	case Exact:
		return "Exact"
	case Lower:
		return "Lower"
	case Upper:
		return "Upper"
	default:
		return "?"
	}
}

// Entry is one transposition table record, returned by Probe in already-unpacked form.
type Entry struct {
	Bound Bound
	Depth int
	Score eval.Score
	Move  board.Move
	Age   uint8
}

// TranspositionTable caches search results keyed by position hash. Implementations must be
// safe for concurrent Probe/Store from multiple lazy-SMP search workers without a lock.
type TranspositionTable interface {
	Probe(hash board.ZobristHash) (Entry, bool)
	Store(hash board.ZobristHash, e Entry)
	NewSearch()
	Size() uint64
	Used() float64
}

// TranspositionTableFactory allocates a table of approximately sizeBytes, matching
// NewTranspositionTable's signature. Engine wiring holds one of these rather than a concrete
// constructor so a `setoption name Hash` resize can reallocate without the engine package
// depending on locklessTable directly.
type TranspositionTableFactory func(ctx context.Context, sizeBytes uint64) TranspositionTable

// entries per bucket. Store scans the bucket and replaces the least valuable slot, trading a
// small linear scan for a much lower collision rate than a single slot per hash bucket (spec
// §4.5 "N-way bucketed").
const bucketWidth = 4

// slot is one lockless entry: two 64-bit words written/read without a lock, per the XOR
// technique (spec §4.5 "lock-free"). Store writes data first, then key = hash XOR data. Probe
// loads both (in either order) and recomputes hash' = key XOR data; a concurrent writer
// interleaving with a reader produces a torn combination whose hash' will not match, and the
// slot is treated as a miss rather than returning corrupted data.
type slot struct {
	key  uint64 // atomically accessed
	data uint64 // atomically accessed
}

// data word layout, low to high: bound:2, depth:8, age:8, move:16, score:16 (signed, biased).
const (
	boundShift = 0
	depthShift = 2
	ageShift   = 10
	moveShift  = 18
	scoreShift = 34

	boundMask = 0x3
	depthMask = 0xff
	ageMask   = 0xff
	moveMask  = 0xffff
	scoreMask = 0xffff

	scoreBias = 1 << 15
)

func packEntry(e Entry) uint64 {
	s := uint64(int64(e.Score)+scoreBias) & scoreMask
	return (uint64(e.Bound)&boundMask)<<boundShift |
		(uint64(e.Depth)&depthMask)<<depthShift |
		(uint64(e.Age)&ageMask)<<ageShift |
		(uint64(e.Move.Pack())&moveMask)<<moveShift |
		s<<scoreShift
}

func unpackEntry(data uint64) Entry {
	score := eval.Score(int64((data>>scoreShift)&scoreMask) - scoreBias)
	return Entry{
		Bound: Bound((data >> boundShift) & boundMask),
		Depth: int((data >> depthShift) & depthMask),
		Age:   uint8((data >> ageShift) & ageMask),
		Move:  board.UnpackMove(uint16((data >> moveShift) & moveMask)),
		Score: score,
	}
}

// locklessTable is the lock-free, bucketed transposition table (spec §4.5).
type locklessTable struct {
	buckets []slot // bucketWidth slots per logical bucket, flattened
	mask    uint64 // (number of logical buckets - 1)
	age     uint32
	used    int64
}

// NewTranspositionTable allocates a table with a power-of-two number of buckets sized to about
// sizeBytes (rounded up to the next power of two).
func NewTranspositionTable(ctx context.Context, sizeBytes uint64) TranspositionTable {
	const bytesPerSlot = 16 // two uint64 words
	bytesPerBucket := uint64(bucketWidth * bytesPerSlot)

	buckets := sizeBytes / bytesPerBucket
	if buckets == 0 {
		buckets = 1
	}
	n := uint64(1) << bits.Len64(buckets-1)
	if n == 0 {
		n = 1
	}

	logw.Infof(ctx, "Allocating %vMB TT with %v buckets x %v entries", sizeBytes>>20, n, bucketWidth)

	return &locklessTable{
		buckets: make([]slot, n*bucketWidth),
		mask:    n - 1,
	}
}

func (t *locklessTable) bucketBase(hash board.ZobristHash) int {
	return int(uint64(hash)&t.mask) * bucketWidth
}

func (t *locklessTable) Probe(hash board.ZobristHash) (Entry, bool) {
	base := t.bucketBase(hash)
	for i := 0; i < bucketWidth; i++ {
		s := &t.buckets[base+i]
		key := atomic.LoadUint64(&s.key)
		data := atomic.LoadUint64(&s.data)
		if key^data == uint64(hash) && (key != 0 || data != 0) {
			return unpackEntry(data), true
		}
	}
	return Entry{}, false
}

func (t *locklessTable) Store(hash board.ZobristHash, e Entry) {
	e.Age = uint8(atomic.LoadUint32(&t.age))
	data := packEntry(e)

	base := t.bucketBase(hash)
	var victim *slot
	worst := 0
	haveVictim := false
	for i := 0; i < bucketWidth; i++ {
		s := &t.buckets[base+i]
		key := atomic.LoadUint64(&s.key)
		existing := atomic.LoadUint64(&s.data)

		if key == 0 && existing == 0 {
			victim = s // empty slot: always preferred, stop looking
			haveVictim = true
			break
		}
		if key^existing == uint64(hash) {
			victim = s
			haveVictim = true
			break // same position: always refresh in place
		}

		v := replacementValue(unpackEntry(existing), uint8(atomic.LoadUint32(&t.age)))
		if !haveVictim || v < worst {
			worst = v
			victim = s
			haveVictim = true
		}
	}

	wasEmpty := atomic.LoadUint64(&victim.key) == 0 && atomic.LoadUint64(&victim.data) == 0
	atomic.StoreUint64(&victim.data, data)
	atomic.StoreUint64(&victim.key, uint64(hash)^data)
	if wasEmpty {
		atomic.AddInt64(&t.used, 1)
	}
}

// replacementValue ranks existing entries for eviction: older entries and shallower searches
// are cheaper to lose. Entries from the current search generation are kept unless depth is
// shallow, so a still-relevant PV line is not evicted mid-search.
func replacementValue(e Entry, currentAge uint8) int {
	ageGap := int(currentAge) - int(e.Age)
	if ageGap < 0 {
		ageGap += 256
	}
	return e.Depth - ageGap*8
}

// NewSearch bumps the table's generation counter so Store's replacement policy favors entries
// from prior searches for eviction (spec §4.5 "age-based replacement").
func (t *locklessTable) NewSearch() {
	atomic.AddUint32(&t.age, 1)
}

func (t *locklessTable) Size() uint64 {
	return uint64(len(t.buckets)) * 16
}

func (t *locklessTable) Used() float64 {
	used := atomic.LoadInt64(&t.used)
	return float64(used) / float64(len(t.buckets))
}

func (t *locklessTable) String() string {
	return fmt.Sprintf("TT[%v @ %v%%]", t.Size(), int(100*t.Used()))
}

// NoTranspositionTable is a Nop implementation, useful for perft and for A/B-testing search
// heuristics without TT interference.
type NoTranspositionTable struct{}

func (NoTranspositionTable) Probe(board.ZobristHash) (Entry, bool) { return Entry{}, false }
func (NoTranspositionTable) Store(board.ZobristHash, Entry)        {}
func (NoTranspositionTable) NewSearch()                            {}
func (NoTranspositionTable) Size() uint64                          { return 0 }
func (NoTranspositionTable) Used() float64                         { return 0 }
