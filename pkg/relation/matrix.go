// Package relation implements a dense boolean relation matrix over a fixed
// node set: union, transitive closure, transpose, irreflexivity, and a
// topological-export view consumed by pkg/graph. Grounded on the
// teacher's registry/registry.go dependency-graph idiom (an adjacency
// structure keyed by a stable index), generalized to any enumerable node
// type via the Enumerator indirection below.
package relation

import "github.com/GoCodeAlone/lincheck-go/pkg/graph"

// Enumerator gives a bijection between a node type T and a dense integer
// range [0,N), so the matrix can be stored as a flat bit array regardless
// of what T actually is (events, mutexes, threads, ...).
type Enumerator[T any] struct {
	nodes   []T
	toIndex map[any]int
}

// NewEnumerator builds an Enumerator over the given nodes, indexed in the
// order provided. nodes must be comparable when stored as map keys; the
// panic on duplicate nodes catches a caller bug, not a data inconsistency.
func NewEnumerator[T any](nodes []T) *Enumerator[T] {
	e := &Enumerator[T]{
		nodes:   append([]T(nil), nodes...),
		toIndex: make(map[any]int, len(nodes)),
	}
	for i, n := range nodes {
		if _, dup := e.toIndex[any(n)]; dup {
			panic("relation: duplicate node in enumerator")
		}
		e.toIndex[any(n)] = i
	}
	return e
}

// N returns the number of enumerated nodes.
func (e *Enumerator[T]) N() int { return len(e.nodes) }

// ToIndex returns the dense index for a node, or (-1, false) if unknown.
func (e *Enumerator[T]) ToIndex(n T) (int, bool) {
	idx, ok := e.toIndex[any(n)]
	return idx, ok
}

// FromIndex returns the node at a dense index.
func (e *Enumerator[T]) FromIndex(i int) T { return e.nodes[i] }

// Matrix is an N×N dense boolean relation, backed by one bool slice per
// row for cache-friendly row scans (closure and union are row-major).
type Matrix[T any] struct {
	enum *Enumerator[T]
	rows [][]bool
}

// New constructs an empty (all-false) relation over the given node set.
func New[T any](enum *Enumerator[T]) *Matrix[T] {
	n := enum.N()
	rows := make([][]bool, n)
	for i := range rows {
		rows[i] = make([]bool, n)
	}
	return &Matrix[T]{enum: enum, rows: rows}
}

// Enumerator returns the node enumerator backing this matrix.
func (m *Matrix[T]) Enumerator() *Enumerator[T] { return m.enum }

// Set records whether x relates to y.
func (m *Matrix[T]) Set(x, y T, v bool) {
	xi, yi := m.mustIndex(x), m.mustIndex(y)
	m.rows[xi][yi] = v
}

// Get reports whether x relates to y.
func (m *Matrix[T]) Get(x, y T) bool {
	xi, yi := m.mustIndex(x), m.mustIndex(y)
	return m.rows[xi][yi]
}

func (m *Matrix[T]) mustIndex(n T) int {
	idx, ok := m.enum.ToIndex(n)
	if !ok {
		panic("relation: node not in enumerator")
	}
	return idx
}

// Union sets m[x][y] ||= other[x][y] for all x,y, in place. Both matrices
// must share the same enumerator (same N, same node identities).
func (m *Matrix[T]) Union(other *Matrix[T]) {
	n := m.enum.N()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if other.rows[i][j] {
				m.rows[i][j] = true
			}
		}
	}
}

// TransitiveClosure saturates m in place via Floyd–Warshall and reports
// whether any edge was added. Re-running after further edges are added is
// safe and is how callers fixed-point a closure rule.
func (m *Matrix[T]) TransitiveClosure() (changed bool) {
	n := m.enum.N()
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if !m.rows[i][k] {
				continue
			}
			for j := 0; j < n; j++ {
				if m.rows[k][j] && !m.rows[i][j] {
					m.rows[i][j] = true
					changed = true
				}
			}
		}
	}
	return changed
}

// SaturateRule applies a custom 3-node derivation rule to fixed point: for
// every (x,y,z) with rule(x,y,z) true, m[x][z] is set. Used by the
// coherence-saturation stage of the sequential consistency checker.
func (m *Matrix[T]) SaturateRule(rule func(x, y, z int) bool) (changed bool) {
	n := m.enum.N()
	for {
		roundChanged := false
		for x := 0; x < n; x++ {
			for y := 0; y < n; y++ {
				for z := 0; z < n; z++ {
					if !m.rows[x][z] && rule(x, y, z) {
						m.rows[x][z] = true
						roundChanged = true
					}
				}
			}
		}
		if !roundChanged {
			return changed
		}
		changed = true
	}
}

// TransitiveReduction removes edges implied by transitivity through some
// other edge, leaving the minimal relation with the same reachability.
func (m *Matrix[T]) TransitiveReduction() {
	n := m.enum.N()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if !m.rows[i][j] {
				continue
			}
			for k := 0; k < n; k++ {
				if k != i && k != j && m.rows[i][k] && m.rows[k][j] {
					m.rows[i][j] = false
					break
				}
			}
		}
	}
}

// Irreflexive reports whether no node relates to itself — the acyclicity
// test used throughout the consistency checkers.
func (m *Matrix[T]) Irreflexive() bool {
	n := m.enum.N()
	for i := 0; i < n; i++ {
		if m.rows[i][i] {
			return false
		}
	}
	return true
}

// Transpose returns the relation with all edges reversed.
func (m *Matrix[T]) Transpose() *Matrix[T] {
	n := m.enum.N()
	out := New(m.enum)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.rows[j][i] = m.rows[i][j]
		}
	}
	return out
}

// AddTotalOrdering sets the upper triangle induced by the given total
// order: for every i<j in the list's order, order[i] relates to order[j].
func (m *Matrix[T]) AddTotalOrdering(order []T) {
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			m.Set(order[i], order[j], true)
		}
	}
}

// Successors returns the dense indices j for which m[x][j] holds.
func (m *Matrix[T]) Successors(xi int) []int {
	n := m.enum.N()
	var out []int
	for j := 0; j < n; j++ {
		if m.rows[xi][j] {
			out = append(out, j)
		}
	}
	return out
}

// AsGraph exports the relation as a pkg/graph.Adjacency, for topological
// sort and enumeration of linear extensions.
func (m *Matrix[T]) AsGraph() *graph.Adjacency {
	n := m.enum.N()
	adj := graph.NewAdjacency(n)
	for i := 0; i < n; i++ {
		for _, j := range m.Successors(i) {
			adj.AddEdge(i, j)
		}
	}
	return adj
}
