package process

import "slices"

// DependencyTree is a snapshot of the parent/child relation between live
// pids.
type DependencyTree struct {
	parent   map[int]int
	children map[int][]int
}

// BuildDependencyTree indexes a pid -> parent pid map. Children are kept in
// ascending pid order.
func BuildDependencyTree(parents map[int]int) *DependencyTree {
	dt := &DependencyTree{
		parent:   make(map[int]int, len(parents)),
		children: make(map[int][]int),
	}
	for pid, ppid := range parents {
		dt.parent[pid] = ppid
		if ppid != pid {
			dt.children[ppid] = append(dt.children[ppid], pid)
		}
	}
	for _, kids := range dt.children {
		slices.Sort(kids)
	}
	return dt
}

// ChildrenOf returns the direct children of pid.
func (dt *DependencyTree) ChildrenOf(pid int) []int {
	return dt.children[pid]
}

// ParentOf returns the parent of pid, or 0 when unknown.
func (dt *DependencyTree) ParentOf(pid int) int {
	return dt.parent[pid]
}

// levels groups the descendants of pid by depth: children first, then
// grandchildren, and so on. Cycles in a stale snapshot are cut. A descendant
// for which spare returns true is left out together with its own subtree and
// listed in spared.
func (dt *DependencyTree) levels(pid int, spare func(int) bool) (out [][]int, spared []int) {
	seen := map[int]bool{pid: true}
	frontier := []int{pid}
	for len(frontier) > 0 {
		var next []int
		for _, p := range frontier {
			for _, c := range dt.children[p] {
				if seen[c] {
					continue
				}
				seen[c] = true
				if spare != nil && spare(c) {
					spared = append(spared, c)
					continue
				}
				next = append(next, c)
			}
		}
		if len(next) > 0 {
			out = append(out, next)
		}
		frontier = next
	}
	return out, spared
}

// AllDescendants returns every descendant of pid, nearest generation first.
func (dt *DependencyTree) AllDescendants(pid int) []int {
	var out []int
	lv, _ := dt.levels(pid, nil)
	for _, level := range lv {
		out = append(out, level...)
	}
	return out
}

// SafeTerminationOrder lists the descendants of pid, deepest generation
// first, and ends with pid itself.
func (dt *DependencyTree) SafeTerminationOrder(pid int) []int {
	order, _ := dt.TerminationOrderSparing(pid, nil)
	return order
}

// TerminationOrderSparing is SafeTerminationOrder minus every descendant for
// which spare returns true and the subtree below it. The spared pids are
// returned in ascending order.
func (dt *DependencyTree) TerminationOrderSparing(pid int, spare func(int) bool) (order, spared []int) {
	var lv [][]int
	lv, spared = dt.levels(pid, spare)
	for i := len(lv) - 1; i >= 0; i-- {
		order = append(order, lv[i]...)
	}
	slices.Sort(spared)
	return append(order, pid), spared
}
