package closure

import "testing"

func sccContains(sccs [][]uint32, members ...uint32) bool {
	want := make(map[uint32]bool, len(members))
	for _, m := range members {
		want[m] = true
	}
	for _, scc := range sccs {
		if len(scc) != len(members) {
			continue
		}
		got := make(map[uint32]bool, len(scc))
		for _, n := range scc {
			got[n] = true
		}
		match := true
		for m := range want {
			if !got[m] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func TestTarjanSinglecyclesAreSingletons(t *testing.T) {
	// 0 -> 1 -> 2 (a simple chain, no cycles)
	adj := [][]uint32{{1}, {2}, {}}
	sccs := tarjanSCCs(adj)
	if len(sccs) != 3 {
		t.Fatalf("expected 3 singleton SCCs, got %d", len(sccs))
	}
	// sinks-first ordering: node 2 (no outgoing edges) must be emitted before node 0.
	posOf := make(map[uint32]int)
	for i, scc := range sccs {
		posOf[scc[0]] = i
	}
	if posOf[2] >= posOf[0] {
		t.Errorf("expected sink node 2 to be emitted before source node 0, got positions %v", posOf)
	}
}

func TestTarjanDetectsCycle(t *testing.T) {
	// 0 -> 1 -> 2 -> 0 is one strongly connected component.
	adj := [][]uint32{{1}, {2}, {0}}
	sccs := tarjanSCCs(adj)
	if len(sccs) != 1 {
		t.Fatalf("expected 1 SCC for a 3-cycle, got %d", len(sccs))
	}
	if !sccContains(sccs, 0, 1, 2) {
		t.Errorf("expected the single SCC to contain all three nodes, got %v", sccs)
	}
}

func TestTarjanMixedGraph(t *testing.T) {
	// 0 -> 1 <-> 2, 1 -> 3 (a cycle between 1 and 2, plus an independent sink 3)
	adj := [][]uint32{{1}, {2, 3}, {1}, {}}
	sccs := tarjanSCCs(adj)
	if len(sccs) != 3 {
		t.Fatalf("expected 3 SCCs (two singletons + one pair), got %d: %v", len(sccs), sccs)
	}
	if !sccContains(sccs, 1, 2) {
		t.Errorf("expected {1,2} to form one SCC, got %v", sccs)
	}
}
