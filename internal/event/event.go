package event

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/GoCodeAlone/lincheck-go/pkg/vclock"
)

// Engine assertion failures: internal invariant violations, fatal to the
// run. These are never surfaced as Inconsistencies.
var (
	ErrParentPositionMismatch              = errors.New("event: parent.threadPosition + 1 != event.threadPosition")
	ErrCausalityCycle                      = errors.New("event: dependency would create a causality cycle with the parent")
	ErrExclusiveWriteWithoutExclusiveParent = errors.New("event: exclusive write's parent is not an exclusive read-response to the same location")
)

// BinaryLiftingK bounds the ancestor jump-table depth: K=10 gives a max
// stride of 512 hops per lookup.
const BinaryLiftingK = 10

// FrontierSnapshot is a frozen copy of the frontier at event-creation time,
// stored on the event so backtracking can rebuild an execution in
// O(threads). It is an opaque map here; internal/execution defines the
// richer Frontier type this is projected from.
type FrontierSnapshot map[ThreadID]EventID

// Event is an atomic action: immutable once constructed, identified by a
// monotonically assigned EventID. Parent and Dependencies are stored as
// EventID indices into the owning arena (internal/driver's event arena),
// not pointers, so backtracking never has to chase or invalidate pointer
// aliases.
type Event struct {
	ID             EventID
	Label          Label
	ThreadID       ThreadID
	ThreadPosition int
	Parent         EventID // -1 for thread roots
	HasParent      bool
	Dependencies   []EventID
	CausalityClock vclock.VectorClock[ThreadID]
	Frontier       FrontierSnapshot
	Visited        bool

	jumps [BinaryLiftingK]EventID
}

// Arena resolves EventIDs to *Event for ancestor-walk purposes. Both
// internal/execution.Execution and internal/driver's arena implement it
// over their event lists.
type Arena interface {
	EventByID(id EventID) (*Event, bool)
}

// NewRoot constructs a thread-root event (ThreadPosition 0, no parent).
func NewRoot(id EventID, tid ThreadID, label Label, clock vclock.VectorClock[ThreadID], frontier FrontierSnapshot) *Event {
	e := &Event{
		ID:             id,
		Label:          label,
		ThreadID:       tid,
		ThreadPosition: 0,
		Parent:         -1,
		HasParent:      false,
		CausalityClock: clock,
		Frontier:       frontier,
	}
	for i := range e.jumps {
		e.jumps[i] = -1
	}
	return e
}

// NewChild constructs an event whose program-order predecessor is parent,
// validating that threadPosition = parent.threadPosition + 1, and
// computing its binary-lifting jump table from the arena. id must be
// greater than parent.ID, enforced by the caller which owns allocation
// order.
func NewChild(arena Arena, id EventID, parent *Event, label Label, clock vclock.VectorClock[ThreadID], frontier FrontierSnapshot) (*Event, error) {
	if parent == nil {
		return nil, fmt.Errorf("event: NewChild requires a non-nil parent: %w", ErrParentPositionMismatch)
	}
	e := &Event{
		ID:             id,
		Label:          label,
		ThreadID:       parent.ThreadID,
		ThreadPosition: parent.ThreadPosition + 1,
		Parent:         parent.ID,
		HasParent:      true,
		CausalityClock: clock,
		Frontier:       frontier,
	}
	e.jumps[0] = parent.ID
	for i := 1; i < BinaryLiftingK; i++ {
		prev := e.jumps[i-1]
		if prev < 0 {
			e.jumps[i] = -1
			continue
		}
		mid, ok := arena.EventByID(prev)
		if !ok {
			e.jumps[i] = -1
			continue
		}
		e.jumps[i] = mid.jumps[i-1]
	}
	return e, nil
}

// predCache memoizes PredNth results per (arena, event, n) so repeated
// ancestor queries during checking don't re-walk jump tables. Bounded and
// rebuilt on backtracking reset, the same rebuild-on-reset discipline the
// index's race-status fields follow.
//
// The key includes arena itself (every Arena implementation in this
// codebase — internal/driver's arena, internal/execution.Execution — is a
// pointer, so it's a valid, comparable map key on its own) precisely so
// that two Engines alive in the same process, each with their own arena
// and their own EventID numbering starting back at 0, never share a cache
// entry: an (EventID, n) pair from one engine's arena cannot satisfy a
// lookup keyed by a different engine's arena, even before either ever
// calls ResetPredCache.
type predCacheKey struct {
	arena Arena
	event EventID
	n     int
}

var predCache, _ = lru.New(4096)

// ResetPredCache clears the memoization cache. Called by the driver on
// every backtracking reset, since cached ancestors may reference truncated
// events. Purges every arena's entries, not just the caller's — cheap
// since the cache is bounded, and correctness no longer depends on timing
// it precisely (see predCacheKey).
func ResetPredCache() {
	predCache.Purge()
}

// PredNth returns the n-th program-order predecessor of e (n=0 is e
// itself), composing binary-lifting jump pointers in O(log n). Returns
// (nil, false) if n exceeds e's thread position.
func PredNth(arena Arena, e *Event, n int) (*Event, bool) {
	if n == 0 {
		return e, true
	}
	if n > e.ThreadPosition {
		return nil, false
	}
	if cached, ok := predCache.Get(predCacheKey{arena, e.ID, n}); ok {
		id := cached.(EventID)
		return arena.EventByID(id)
	}

	cur := e
	remaining := n
	for remaining > 0 {
		bit := 0
		for (1<<uint(bit+1)) <= remaining && bit+1 < BinaryLiftingK {
			bit++
		}
		jump := cur.jumps[bit]
		if jump < 0 {
			return nil, false
		}
		next, ok := arena.EventByID(jump)
		if !ok {
			return nil, false
		}
		remaining -= 1 << uint(bit)
		cur = next
	}
	predCache.Add(predCacheKey{arena, e.ID, n}, cur.ID)
	return cur, true
}

// PredNthNaive walks the parent chain one hop at a time; used by tests to
// check PredNth's round-trip property against a straightforward reference.
func PredNthNaive(arena Arena, e *Event, n int) (*Event, bool) {
	cur := e
	for i := 0; i < n; i++ {
		if !cur.HasParent {
			return nil, false
		}
		p, ok := arena.EventByID(cur.Parent)
		if !ok {
			return nil, false
		}
		cur = p
	}
	return cur, true
}
