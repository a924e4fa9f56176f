package eventindex

import "github.com/GoCodeAlone/lincheck-go/internal/event"

// locationBuckets partitions one location's accesses by phase.
type locationBuckets struct {
	reads  []*event.Event // read requests
	reeads []*event.Event // read responses (kept distinct from requests)
	writes []*event.Event
}

// MemoryAccessIndex partitions memory accesses by location and tracks,
// per location, whether the read/write and write/write race-free
// invariants still hold, per the insertion-time update rules: a write
// keeps W/W race-freedom iff it is causality-ordered after the previous
// latest write, and R/W race-freedom iff it is ordered after every read
// request seen so far; a read keeps race-freedom by comparing against
// just the last write when no W/W race exists yet, or against every write
// once one does.
type MemoryAccessIndex struct {
	causallyAfter func(earlier, later *event.Event) bool
	buckets       map[event.Location]*locationBuckets
	rwRaceFree    map[event.Location]bool
	wwRaceFree    map[event.Location]bool
}

// NewMemoryAccessIndex builds a tracker using causallyAfter(x, y) to mean
// "x happens before y" (i.e. event.CausalityOrder{}.LessOrEqual(x, y)).
func NewMemoryAccessIndex(causallyAfter func(earlier, later *event.Event) bool) *MemoryAccessIndex {
	return &MemoryAccessIndex{
		causallyAfter: causallyAfter,
		buckets:       make(map[event.Location]*locationBuckets),
		rwRaceFree:    make(map[event.Location]bool),
		wwRaceFree:    make(map[event.Location]bool),
	}
}

func (m *MemoryAccessIndex) bucketFor(loc event.Location) *locationBuckets {
	b, ok := m.buckets[loc]
	if !ok {
		b = &locationBuckets{}
		m.buckets[loc] = b
		m.rwRaceFree[loc] = true
		m.wwRaceFree[loc] = true
	}
	return b
}

// InsertWrite records a write at loc and updates the location's race
// status.
func (m *MemoryAccessIndex) InsertWrite(loc event.Location, w *event.Event) {
	b := m.bucketFor(loc)

	if last := lastOf(b.writes); last != nil && !m.causallyAfter(last, w) {
		m.wwRaceFree[loc] = false
	}
	for _, r := range b.reads {
		if !m.causallyAfter(r, w) {
			m.rwRaceFree[loc] = false
			break
		}
	}
	b.writes = append(b.writes, w)
}

// InsertRead records a read request at loc and updates the location's
// race status.
func (m *MemoryAccessIndex) InsertRead(loc event.Location, r *event.Event) {
	b := m.bucketFor(loc)

	if m.wwRaceFree[loc] {
		if last := lastOf(b.writes); last != nil && !m.causallyAfter(last, r) {
			m.rwRaceFree[loc] = false
		}
	} else {
		for _, w := range b.writes {
			if !m.causallyAfter(w, r) {
				m.rwRaceFree[loc] = false
				break
			}
		}
	}
	b.reads = append(b.reads, r)
}

// InsertReadResponse records a read response at loc without affecting
// race status (only requests bound the read/write race check).
func (m *MemoryAccessIndex) InsertReadResponse(loc event.Location, r *event.Event) {
	b := m.bucketFor(loc)
	b.reeads = append(b.reeads, r)
}

// IsReadWriteRaceFree reports whether loc has been race-free for every
// read/write pair inserted so far.
func (m *MemoryAccessIndex) IsReadWriteRaceFree(loc event.Location) bool {
	return m.rwRaceFree[loc]
}

// IsWriteWriteRaceFree reports whether loc has been race-free for every
// write/write pair inserted so far.
func (m *MemoryAccessIndex) IsWriteWriteRaceFree(loc event.Location) bool {
	return m.wwRaceFree[loc]
}

// Writes returns loc's writes in insertion order.
func (m *MemoryAccessIndex) Writes(loc event.Location) []*event.Event {
	return m.bucketFor(loc).writes
}

// Reads returns loc's read requests in insertion order.
func (m *MemoryAccessIndex) Reads(loc event.Location) []*event.Event {
	return m.bucketFor(loc).reads
}

func lastOf(events []*event.Event) *event.Event {
	if len(events) == 0 {
		return nil
	}
	return events[len(events)-1]
}
