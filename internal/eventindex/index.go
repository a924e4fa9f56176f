// Package eventindex provides a secondary index over an execution's
// events, keyed by (Category, Key), plus the memory-access race tracker
// consistency checkers consult on every insert.
package eventindex

import (
	"github.com/hashicorp/go-memdb"

	"github.com/GoCodeAlone/lincheck-go/internal/event"
)

// Category classifies what an indexedEvent's Key identifies, so unrelated
// namespaces (locations, mutexes, threads) never collide in the table.
type Category string

const (
	CategoryLocation Category = "location"
	CategoryMutex    Category = "mutex"
	CategoryThread   Category = "thread"
)

// indexedEvent is the row go-memdb stores: the event plus its
// classification, so the schema's compound index can look it up by
// (Category, Key) in O(1) and by ID directly.
type indexedEvent struct {
	ID       int
	Category string
	Key      string
	Event    *event.Event
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			"events": {
				Name: "events",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "ID"},
					},
					"category_key": {
						Name:   "category_key",
						Unique: false,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.StringFieldIndex{Field: "Category"},
								&memdb.StringFieldIndex{Field: "Key"},
							},
						},
					},
				},
			},
		},
	}
}

// Index is the secondary index over an execution's events: an O(1)
// position lookup per event plus an O(1) list retrieval per (category,
// key).
type Index struct {
	db   *memdb.MemDB
	next int
	// pos maps an EventID to its insertion sequence number, giving O(1)
	// position-within-index lookups without a table scan.
	pos map[event.EventID]int
}

// New returns an empty index.
func New() *Index {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		panic("eventindex: invalid schema: " + err.Error())
	}
	return &Index{db: db, pos: make(map[event.EventID]int)}
}

// Insert files e under category/key.
func (idx *Index) Insert(category Category, key string, e *event.Event) {
	txn := idx.db.Txn(true)
	row := &indexedEvent{ID: idx.next, Category: string(category), Key: key, Event: e}
	if err := txn.Insert("events", row); err != nil {
		txn.Abort()
		panic("eventindex: insert failed: " + err.Error())
	}
	txn.Commit()
	idx.pos[e.ID] = idx.next
	idx.next++
}

// Position returns e's insertion sequence number in the index.
func (idx *Index) Position(id event.EventID) (int, bool) {
	p, ok := idx.pos[id]
	return p, ok
}

// ByKey returns every event filed under (category, key), in insertion
// order.
func (idx *Index) ByKey(category Category, key string) []*event.Event {
	txn := idx.db.Txn(false)
	it, err := txn.Get("events", "category_key", string(category), key)
	if err != nil {
		return nil
	}
	var out []*event.Event
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(*indexedEvent).Event)
	}
	return out
}

// Reset discards all indexed events, used on backtracking.
func (idx *Index) Reset() {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		panic("eventindex: invalid schema: " + err.Error())
	}
	idx.db = db
	idx.next = 0
	idx.pos = make(map[event.EventID]int)
}
