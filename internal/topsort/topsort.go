// Package topsort implements the TopologicalSorter: it orders a set of
// tables so that, as much as a possible given cycles, a table's parents are
// generated before it, and it identifies the cycles that force deferred FK
// resolution.
//
// The algorithm is a standard two-pass condensation: Tarjan's
// strongly-connected-components pass over the FK graph (parent → child
// edges), followed by Kahn's algorithm over the resulting SCC-DAG. Both
// passes iterate in a fixed, input-derived order so the result is
// deterministic for a fixed input, mirroring the teacher's own dependency
// resolver in spirit (github.com/tomfevang/go-seed-my-db's
// internal/depgraph), generalized here to tolerate cycles instead of
// failing on them.
package topsort

import (
	"fmt"
	"sort"

	"github.com/dbsynth/dbsynth/internal/schema"
)

// Cycle is an unordered set of table names forming one strongly-connected
// component of size > 1, or a single self-referencing table.
type Cycle map[string]bool

// Result is the TopologicalSorter's output.
type Result struct {
	// Order is every table name, ordered so that within the acyclic part of
	// the graph a parent precedes its children. Tables belonging to the
	// same cycle are adjacent, sorted by ascending byte-wise name.
	Order []string

	// Cycles holds every SCC of size > 1, plus every single-table SCC with
	// a self-loop.
	Cycles []Cycle
}

type tarjanState struct {
	index   map[string]int
	lowlink map[string]int
	onStack map[string]bool
	stack   []string
	next    int
	sccs    [][]string
}

// Sort builds the graph from tables' foreign keys (edge P -> T for each FK
// from T to a parent P present in tables), computes its SCCs, condenses
// them into a DAG, and linearizes that DAG with Kahn's algorithm.
//
// tables must be non-nil; a nil slice is a fatal usage error.
func Sort(tables []*schema.Table) (*Result, error) {
	if tables == nil {
		return nil, fmt.Errorf("topsort: nil table list")
	}

	present := make(map[string]bool, len(tables))
	order := make([]string, 0, len(tables))
	for _, t := range tables {
		present[t.Name] = true
		order = append(order, t.Name)
	}

	// adjacency: parent -> children (edge direction parent -> child).
	adj := make(map[string][]string, len(tables))
	byName := make(map[string]*schema.Table, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
		if _, ok := adj[t.Name]; !ok {
			adj[t.Name] = nil
		}
	}
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			if !present[fk.ParentTable] {
				continue
			}
			adj[fk.ParentTable] = append(adj[fk.ParentTable], t.Name)
		}
	}

	sccs := tarjan(order, adj)

	sccOf := make(map[string]int, len(order))
	for i, comp := range sccs {
		for _, name := range comp {
			sccOf[name] = i
		}
	}

	// Build the SCC-DAG: edge compI -> compJ when an original edge crosses
	// components.
	sccAdj := make([][]int, len(sccs))
	sccAdjSeen := make([]map[int]bool, len(sccs))
	for i := range sccs {
		sccAdjSeen[i] = make(map[int]bool)
	}
	indegree := make([]int, len(sccs))
	for _, name := range order {
		from := sccOf[name]
		for _, to := range adj[name] {
			toComp := sccOf[to]
			if toComp == from {
				continue
			}
			if !sccAdjSeen[from][toComp] {
				sccAdjSeen[from][toComp] = true
				sccAdj[from] = append(sccAdj[from], toComp)
				indegree[toComp]++
			}
		}
	}

	// Kahn's algorithm, seeded with zero-indegree components in ascending
	// index order (index order here reflects Tarjan's own deterministic
	// discovery order, not name order).
	queue := make([]int, 0, len(sccs))
	for i := 0; i < len(sccs); i++ {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	sort.Ints(queue)

	var linear []int
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		linear = append(linear, c)
		for _, to := range sccAdj[c] {
			indegree[to]--
			if indegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	result := &Result{}
	for _, compIdx := range linear {
		members := append([]string(nil), sccs[compIdx]...)
		sort.Strings(members)
		result.Order = append(result.Order, members...)

		if isCycle(members, byName) {
			cyc := make(Cycle, len(members))
			for _, m := range members {
				cyc[m] = true
			}
			result.Cycles = append(result.Cycles, cyc)
		}
	}

	return result, nil
}

func isCycle(members []string, byName map[string]*schema.Table) bool {
	if len(members) > 1 {
		return true
	}
	if len(members) == 1 {
		t := byName[members[0]]
		for _, fk := range t.ForeignKeys {
			if fk.ParentTable == t.Name {
				return true
			}
		}
	}
	return false
}

// tarjan runs Tarjan's SCC algorithm over adj, visiting nodes in the order
// given so the discovery (and therefore output) order is deterministic.
func tarjan(order []string, adj map[string][]string) [][]string {
	st := &tarjanState{
		index:   make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
	}
	for _, name := range order {
		if _, visited := st.index[name]; !visited {
			st.strongconnect(name, adj)
		}
	}
	return st.sccs
}

func (st *tarjanState) strongconnect(v string, adj map[string][]string) {
	st.index[v] = st.next
	st.lowlink[v] = st.next
	st.next++
	st.stack = append(st.stack, v)
	st.onStack[v] = true

	for _, w := range adj[v] {
		if _, visited := st.index[w]; !visited {
			st.strongconnect(w, adj)
			if st.lowlink[w] < st.lowlink[v] {
				st.lowlink[v] = st.lowlink[w]
			}
		} else if st.onStack[w] {
			if st.index[w] < st.lowlink[v] {
				st.lowlink[v] = st.index[w]
			}
		}
	}

	if st.lowlink[v] == st.index[v] {
		var comp []string
		for {
			n := len(st.stack) - 1
			w := st.stack[n]
			st.stack = st.stack[:n]
			st.onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		st.sccs = append(st.sccs, comp)
	}
}

// RequiresDeferredDueToNonNullableCycles reports whether any cycle in
// result contains a table with an FK into another member of the same
// cycle where at least one FK-child column is non-nullable. When true, the
// orchestrator is forced into deferred-update mode for every table in that
// cycle (and, per the orchestrator's simpler global policy, for the whole
// run) since a straight-line insert order cannot satisfy the FK without it.
func RequiresDeferredDueToNonNullableCycles(result *Result, tableMap map[string]*schema.Table) bool {
	for _, cycle := range result.Cycles {
		for name := range cycle {
			t, ok := tableMap[name]
			if !ok {
				continue
			}
			for _, fk := range t.ForeignKeys {
				if !cycle[fk.ParentTable] {
					continue
				}
				if fkHasNonNullableChild(t, fk) {
					return true
				}
			}
		}
	}
	return false
}

func fkHasNonNullableChild(t *schema.Table, fk schema.ForeignKey) bool {
	for _, col := range fk.ChildColumns() {
		c, ok := t.Column(col)
		if ok && !c.Nullable {
			return true
		}
	}
	return false
}
