package closure

// tarjanSCCs computes the strongly connected components of a graph given as
// an adjacency list over dense node indices, returning them in the order
// Tarjan's algorithm naturally identifies them: each SCC is emitted only
// after every SCC it points to has already been emitted, i.e. sinks first —
// exactly the order Build needs to accumulate descendants bottom-up.
//
// Implemented iteratively (an explicit stack standing in for the recursive
// call stack) since the hierarchy can be hundreds of thousands of nodes deep
// in pathological or cyclic inputs.
func tarjanSCCs(adj [][]uint32) [][]uint32 {
	n := len(adj)
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var stack []uint32
	var sccs [][]uint32
	nextIndex := 0

	type frame struct {
		node    uint32
		childAt int
	}

	for start := uint32(0); int(start) < n; start++ {
		if index[start] != -1 {
			continue
		}
		var call []frame
		call = append(call, frame{node: start, childAt: 0})
		index[start] = nextIndex
		lowlink[start] = nextIndex
		nextIndex++
		stack = append(stack, start)
		onStack[start] = true

		for len(call) > 0 {
			top := &call[len(call)-1]
			v := top.node
			if top.childAt < len(adj[v]) {
				w := adj[v][top.childAt]
				top.childAt++
				if index[w] == -1 {
					index[w] = nextIndex
					lowlink[w] = nextIndex
					nextIndex++
					stack = append(stack, w)
					onStack[w] = true
					call = append(call, frame{node: w, childAt: 0})
				} else if onStack[w] {
					if index[w] < lowlink[v] {
						lowlink[v] = index[w]
					}
				}
				continue
			}
			// all children of v explored; pop v's frame and propagate lowlink to its parent
			call = call[:len(call)-1]
			if len(call) > 0 {
				parent := &call[len(call)-1]
				if lowlink[v] < lowlink[parent.node] {
					lowlink[parent.node] = lowlink[v]
				}
			}
			if lowlink[v] == index[v] {
				var scc []uint32
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					scc = append(scc, w)
					if w == v {
						break
					}
				}
				sccs = append(sccs, scc)
			}
		}
	}
	return sccs
}
