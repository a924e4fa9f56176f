// Package objregistry maps the runtime identity of allocated objects and
// mutexes to stable ObjectIDs, so the event model can refer to locations
// by a small integer rather than carrying pointers or reflect.Value
// around.
package objregistry

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/GoCodeAlone/lincheck-go/internal/event"
)

// Sentinel registry errors, same flat-block convention as the rest of the
// engine's packages.
var (
	ErrDuplicateRegistryEntry = errors.New("objregistry: object already registered")
	ErrObjectNotFound         = errors.New("objregistry: object not found")
)

// Reserved ObjectIDs. NULL represents the absence of an object (a nil
// pointer dereference target); STATIC represents a location with no
// runtime allocation event, such as a global variable observed before its
// first instrumented access.
const (
	NULL   event.ObjectID = 0
	STATIC event.ObjectID = 1
)

// Entry records how an ObjectID was minted and which event (if any)
// allocated it.
type Entry struct {
	ID         event.ObjectID
	Allocation *event.Event // nil for NULL/STATIC or pre-existing objects
}

// Registry assigns stable ObjectIDs to runtime objects, keyed either by
// pointer identity (uintptr) when one is available, or by a synthesized
// key for objects the runtime can only describe by value.
type Registry struct {
	mu       sync.RWMutex
	byPtr    map[uintptr]event.ObjectID
	byValue  map[string]event.ObjectID
	entries  map[event.ObjectID]*Entry
	nextFree event.ObjectID
}

// New returns a registry with the reserved NULL and STATIC IDs already
// populated.
func New() *Registry {
	r := &Registry{
		byPtr:    make(map[uintptr]event.ObjectID),
		byValue:  make(map[string]event.ObjectID),
		entries:  make(map[event.ObjectID]*Entry),
		nextFree: STATIC + 1,
	}
	r.entries[NULL] = &Entry{ID: NULL}
	r.entries[STATIC] = &Entry{ID: STATIC}
	return r
}

// RegisterPointer assigns (or returns the existing) ObjectID for the
// object at ptr, recording alloc as its allocation event. Returns
// ErrDuplicateRegistryEntry if ptr is already registered with a different
// allocation event.
func (r *Registry) RegisterPointer(ptr uintptr, alloc *event.Event) (event.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.byPtr[ptr]; exists {
		if r.entries[id].Allocation != alloc {
			return 0, ErrDuplicateRegistryEntry
		}
		return id, nil
	}

	id := r.nextFree
	r.nextFree++
	r.byPtr[ptr] = id
	r.entries[id] = &Entry{ID: id, Allocation: alloc}
	return id, nil
}

// RegisterValue assigns (or returns the existing) ObjectID for an object
// the runtime can only identify by a value key (e.g. a primitive observed
// only through its allocation event, with no stable pointer). valueKey
// must uniquely identify the object within the exploration.
func (r *Registry) RegisterValue(valueKey string, alloc *event.Event) event.ObjectID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.byValue[valueKey]; exists {
		return id
	}

	id := r.nextFree
	r.nextFree++
	r.byValue[valueKey] = id
	r.entries[id] = &Entry{ID: id, Allocation: alloc}
	return id
}

// RegisterExternal mints an ObjectID for an object observed to pre-exist
// the exploration (no allocation event), using uuid.New to derive a
// synthetic pointer-less key when the caller has no stable identity to
// offer.
func (r *Registry) RegisterExternal() event.ObjectID {
	return r.RegisterValue("external:"+uuid.NewString(), nil)
}

// Lookup returns the Entry for id.
func (r *Registry) Lookup(id event.ObjectID) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return e, nil
}

// Reset discards every registration except the reserved NULL/STATIC IDs.
// The driver does not call it when it backtracks.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byPtr = make(map[uintptr]event.ObjectID)
	r.byValue = make(map[string]event.ObjectID)
	r.entries = map[event.ObjectID]*Entry{
		NULL:   {ID: NULL},
		STATIC: {ID: STATIC},
	}
	r.nextFree = STATIC + 1
}
