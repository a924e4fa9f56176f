// Package event implements the event and label model: the central data
// type shared by every other package in the engine. Labels
// are a closed tagged union, implemented the idiomatic Go way — one
// exported struct per variant, all satisfying a narrow Label interface via
// an unexported marker method, so the set of variants can never grow
// outside this file.
package event

// ThreadID identifies one managed thread of the program under test.
type ThreadID int

// EventID is the monotonically assigned total enumeration order.
type EventID int

// ObjectID identifies an allocated object. Reserved values live in
// internal/objregistry; the type alias lives here since labels reference
// it.
type ObjectID int

// Location identifies a memory location: an allocated object plus a field
// or array-index offset within it. Two reads/writes race only if their
// Location values are equal.
type Location struct {
	Object ObjectID
	Offset int
}

// MutexID identifies a lock/monitor object, reusing ObjectID's numbering
// space (a mutex is just an object with lock-specific labels applied to
// it).
type MutexID = ObjectID

// Kind tags which Label variant a value holds, giving O(1) category tests
// without a type switch on every hot path.
type Kind int

const (
	KindInitialization Kind = iota
	KindObjectAllocation
	KindThreadStart
	KindThreadFinish
	KindThreadFork
	KindThreadJoin
	KindRead
	KindWrite
	KindReadModifyWrite
	KindLock
	KindUnlock
	KindWait
	KindNotify
	KindPark
	KindUnpark
	KindActorSpan
	KindRandom
	KindCoroutineSuspend
)

// RequestResponseKind distinguishes the three phases a blocking access can
// be labelled with: Request, Response, or Receive.
type RequestResponseKind int

const (
	Request RequestResponseKind = iota
	Response
	Receive
)

// ActorSpanKind tags which phase of an actor span a label represents.
type ActorSpanKind int

const (
	ActorStart ActorSpanKind = iota
	ActorEnd
	ActorSpanPoint
)

// Label is the closed tagged union of atomic-action labels. Every variant
// below implements it; isLabel is unexported so no other package can add a
// variant.
type Label interface {
	isLabel()
	Kind() Kind

	// IsRequest/IsResponse/IsReceive/IsSend classify a label's role in a
	// synchronization.
	IsRequest() bool
	IsResponse() bool
	IsReceive() bool
	IsSend() bool

	// IsTotal labels (e.g. ThreadFork, Notify with broadcast) may
	// synchronize with any causally-unordered candidate, not just one
	// program-order-adjacent one; used to filter synchronization
	// candidates during event creation.
	IsTotal() bool

	// IsBlocking reports whether this label's issuing thread cannot make
	// further progress until a response/receive materializes.
	IsBlocking() bool
}

type base struct{}

func (base) isLabel() {}

// ---- Initialization ----

// Initialization is the unique root label: every execution has exactly one.
// It synchronizes with a read of any location (supplying the default value,
// whether or not the location has writers), with the lock request of a
// mutex that has never been locked, and with the main ThreadStart request.
type Initialization struct{ base }

func (Initialization) Kind() Kind        { return KindInitialization }
func (Initialization) IsRequest() bool   { return false }
func (Initialization) IsResponse() bool  { return false }
func (Initialization) IsReceive() bool   { return false }
func (Initialization) IsSend() bool      { return true }
func (Initialization) IsTotal() bool     { return true }
func (Initialization) IsBlocking() bool  { return false }

// ---- Object allocation ----

type ObjectAllocation struct {
	base
	Object ObjectID
}

func (ObjectAllocation) Kind() Kind       { return KindObjectAllocation }
func (ObjectAllocation) IsRequest() bool  { return false }
func (ObjectAllocation) IsResponse() bool { return false }
func (ObjectAllocation) IsReceive() bool  { return false }
func (ObjectAllocation) IsSend() bool     { return true }
func (ObjectAllocation) IsTotal() bool    { return false }
func (ObjectAllocation) IsBlocking() bool { return false }

// ---- Thread lifecycle ----

type ThreadStart struct {
	base
	Thread ThreadID
	Main   bool
	Phase  RequestResponseKind // Request or Response (never Receive)
}

func (ThreadStart) Kind() Kind          { return KindThreadStart }
func (l ThreadStart) IsRequest() bool   { return l.Phase == Request }
func (l ThreadStart) IsResponse() bool  { return l.Phase == Response }
func (ThreadStart) IsReceive() bool     { return false }
func (l ThreadStart) IsSend() bool      { return l.Phase == Response }
func (ThreadStart) IsTotal() bool       { return false }
func (l ThreadStart) IsBlocking() bool  { return l.Phase == Request }

type ThreadFinish struct {
	base
	Thread ThreadID
}

func (ThreadFinish) Kind() Kind       { return KindThreadFinish }
func (ThreadFinish) IsRequest() bool  { return false }
func (ThreadFinish) IsResponse() bool { return false }
func (ThreadFinish) IsReceive() bool  { return false }
func (ThreadFinish) IsSend() bool     { return true }
func (ThreadFinish) IsTotal() bool    { return false }
func (ThreadFinish) IsBlocking() bool { return false }

type ThreadFork struct {
	base
	Thread     ThreadID
	ForkedTids []ThreadID
}

func (ThreadFork) Kind() Kind       { return KindThreadFork }
func (ThreadFork) IsRequest() bool  { return false }
func (ThreadFork) IsResponse() bool { return false }
func (ThreadFork) IsReceive() bool  { return false }
func (ThreadFork) IsSend() bool     { return true }
func (ThreadFork) IsTotal() bool    { return true }
func (ThreadFork) IsBlocking() bool { return false }

type ThreadJoin struct {
	base
	Thread    ThreadID
	JoinedSet []ThreadID
	Phase     RequestResponseKind
}

func (ThreadJoin) Kind() Kind          { return KindThreadJoin }
func (l ThreadJoin) IsRequest() bool   { return l.Phase == Request }
func (l ThreadJoin) IsResponse() bool  { return l.Phase == Response }
func (ThreadJoin) IsReceive() bool     { return false }
func (l ThreadJoin) IsSend() bool      { return l.Phase == Response }
func (ThreadJoin) IsTotal() bool       { return false }
func (l ThreadJoin) IsBlocking() bool  { return l.Phase == Request }

// ---- Memory access ----

type Read struct {
	base
	Loc       Location
	Tag       TypeTag
	Exclusive bool
	Phase     RequestResponseKind
	Value     any // populated on Response/Receive
}

func (Read) Kind() Kind          { return KindRead }
func (l Read) IsRequest() bool   { return l.Phase == Request }
func (l Read) IsResponse() bool  { return l.Phase == Response }
func (l Read) IsReceive() bool   { return l.Phase == Receive }
func (l Read) IsSend() bool      { return l.Phase != Request }
func (Read) IsTotal() bool       { return false }
func (l Read) IsBlocking() bool  { return l.Phase == Request }
func (l Read) Location() Location { return l.Loc }
func (l Read) ExclusiveAccess() bool { return l.Exclusive }

type Write struct {
	base
	Loc       Location
	Value     any
	Tag       TypeTag
	Exclusive bool
}

func (Write) Kind() Kind              { return KindWrite }
func (Write) IsRequest() bool         { return false }
func (Write) IsResponse() bool        { return false }
func (Write) IsReceive() bool         { return false }
func (Write) IsSend() bool            { return true }
func (Write) IsTotal() bool           { return false }
func (Write) IsBlocking() bool        { return false }
func (l Write) Location() Location    { return l.Loc }
func (l Write) ExclusiveAccess() bool { return l.Exclusive }

type ReadModifyWrite struct {
	base
	Loc    Location
	OldV   any
	NewV   any
}

func (ReadModifyWrite) Kind() Kind           { return KindReadModifyWrite }
func (ReadModifyWrite) IsRequest() bool      { return false }
func (ReadModifyWrite) IsResponse() bool     { return false }
func (ReadModifyWrite) IsReceive() bool      { return false }
func (ReadModifyWrite) IsSend() bool         { return true }
func (ReadModifyWrite) IsTotal() bool        { return false }
func (ReadModifyWrite) IsBlocking() bool     { return false }
func (l ReadModifyWrite) Location() Location { return l.Loc }
func (ReadModifyWrite) ExclusiveAccess() bool { return true }

// ---- Locks ----

type Lock struct {
	base
	Mutex   MutexID
	Phase   RequestResponseKind
	Reentry bool
}

func (Lock) Kind() Kind         { return KindLock }
func (l Lock) IsRequest() bool  { return l.Phase == Request }
func (l Lock) IsResponse() bool { return l.Phase == Response }
func (Lock) IsReceive() bool    { return false }
func (l Lock) IsSend() bool     { return l.Phase == Response }
func (Lock) IsTotal() bool      { return false }
func (l Lock) IsBlocking() bool { return l.Phase == Request }

type Unlock struct {
	base
	Mutex   MutexID
	Reentry bool
}

func (Unlock) Kind() Kind       { return KindUnlock }
func (Unlock) IsRequest() bool  { return false }
func (Unlock) IsResponse() bool { return false }
func (Unlock) IsReceive() bool  { return false }
func (Unlock) IsSend() bool     { return true }
func (Unlock) IsTotal() bool    { return false }
func (Unlock) IsBlocking() bool { return false }

// ---- Wait / Notify ----

type Wait struct {
	base
	Mutex     MutexID
	Phase     RequestResponseKind
	Unlocking bool // coalesced unlock-and-wait
	Locking   bool // coalesced wakeup-and-lock
}

func (Wait) Kind() Kind         { return KindWait }
func (l Wait) IsRequest() bool  { return l.Phase == Request }
func (l Wait) IsResponse() bool { return l.Phase == Response }
func (Wait) IsReceive() bool    { return false }
func (l Wait) IsSend() bool     { return l.Phase == Response }
func (Wait) IsTotal() bool      { return false }
func (l Wait) IsBlocking() bool { return l.Phase == Request }

type Notify struct {
	base
	Mutex     MutexID
	Broadcast bool
}

func (Notify) Kind() Kind       { return KindNotify }
func (Notify) IsRequest() bool  { return false }
func (Notify) IsResponse() bool { return false }
func (Notify) IsReceive() bool  { return false }
func (Notify) IsSend() bool     { return true }
func (l Notify) IsTotal() bool  { return l.Broadcast }
func (Notify) IsBlocking() bool { return false }

// ---- Park / Unpark ----

type Park struct {
	base
	Thread ThreadID
	Phase  RequestResponseKind
}

func (Park) Kind() Kind         { return KindPark }
func (l Park) IsRequest() bool  { return l.Phase == Request }
func (l Park) IsResponse() bool { return l.Phase == Response }
func (Park) IsReceive() bool    { return false }
func (l Park) IsSend() bool     { return l.Phase == Response }
func (Park) IsTotal() bool      { return false }
func (l Park) IsBlocking() bool { return l.Phase == Request }

type Unpark struct {
	base
	Target ThreadID
}

func (Unpark) Kind() Kind       { return KindUnpark }
func (Unpark) IsRequest() bool  { return false }
func (Unpark) IsResponse() bool { return false }
func (Unpark) IsReceive() bool  { return false }
func (Unpark) IsSend() bool     { return true }
func (Unpark) IsTotal() bool    { return false }
func (Unpark) IsBlocking() bool { return false }

// ---- Actor spans ----

type ActorSpan struct {
	base
	Thread ThreadID
	Actor  ObjectID
	Phase  ActorSpanKind
}

func (ActorSpan) Kind() Kind       { return KindActorSpan }
func (ActorSpan) IsRequest() bool  { return false }
func (ActorSpan) IsResponse() bool { return false }
func (ActorSpan) IsReceive() bool  { return false }
func (ActorSpan) IsSend() bool     { return true }
func (ActorSpan) IsTotal() bool    { return false }
func (ActorSpan) IsBlocking() bool { return false }

// ---- Misc ----

type Random struct {
	base
	Value int64
}

func (Random) Kind() Kind       { return KindRandom }
func (Random) IsRequest() bool  { return false }
func (Random) IsResponse() bool { return false }
func (Random) IsReceive() bool  { return false }
func (Random) IsSend() bool     { return true }
func (Random) IsTotal() bool    { return false }
func (Random) IsBlocking() bool { return false }

type CoroutineSuspend struct {
	base
	Thread ThreadID
}

func (CoroutineSuspend) Kind() Kind       { return KindCoroutineSuspend }
func (CoroutineSuspend) IsRequest() bool  { return false }
func (CoroutineSuspend) IsResponse() bool { return false }
func (CoroutineSuspend) IsReceive() bool  { return false }
func (CoroutineSuspend) IsSend() bool     { return true }
func (CoroutineSuspend) IsTotal() bool    { return false }
func (CoroutineSuspend) IsBlocking() bool { return false }

// Locationer is implemented by labels tied to a memory location.
type Locationer interface {
	Location() Location
}

// Exclusiver is implemented by labels that can be an exclusive access.
type Exclusiver interface {
	ExclusiveAccess() bool
}

// IsExclusiveWrite reports whether l is a Write or ReadModifyWrite with
// exclusive semantics.
func IsExclusiveWrite(l Label) bool {
	switch v := l.(type) {
	case Write:
		return v.Exclusive
	case ReadModifyWrite:
		return true
	default:
		return false
	}
}

// IsExclusiveReadResponse reports whether l is a Read in Response phase
// with exclusive semantics — the required parent shape of an exclusive
// write.
func IsExclusiveReadResponse(l Label) bool {
	r, ok := l.(Read)
	return ok && r.Exclusive && r.Phase == Response
}

// SameLocation reports whether both labels are location-bearing and refer
// to the same location.
func SameLocation(a, b Label) bool {
	la, aok := a.(Locationer)
	lb, bok := b.(Locationer)
	return aok && bok && la.Location() == lb.Location()
}
