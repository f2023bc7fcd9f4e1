package graph

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Graph is a weighted graph stored as simple adjacency arrays. It is the
// read-only oracle the partition and optimiser layers work against: once
// construction is finished the engine only queries it.
//
// Self-loops are kept out of the adjacency arrays and tracked separately,
// so neighbour iteration never yields the vertex itself. For undirected
// graphs a self-loop contributes twice to the vertex strength, once to the
// total weight.
type Graph struct {
	numNodes int
	directed bool

	outAdj [][]int
	outWgt [][]float64
	inAdj  [][]int // aliases outAdj for undirected graphs
	inWgt  [][]float64

	selfLoop    []float64
	nodeWeight  []float64
	strengthOut []float64
	strengthIn  []float64

	totalWeight float64
}

// NewGraph creates an undirected graph with n vertices and unit node weights.
func NewGraph(n int) *Graph {
	g := &Graph{
		numNodes:    n,
		outAdj:      make([][]int, n),
		outWgt:      make([][]float64, n),
		selfLoop:    make([]float64, n),
		nodeWeight:  make([]float64, n),
		strengthOut: make([]float64, n),
		strengthIn:  make([]float64, n),
	}
	g.inAdj = g.outAdj
	g.inWgt = g.outWgt
	for i := range g.nodeWeight {
		g.nodeWeight[i] = 1
	}
	return g
}

// NewDirectedGraph creates a directed graph with n vertices and unit node
// weights.
func NewDirectedGraph(n int) *Graph {
	g := NewGraph(n)
	g.directed = true
	g.inAdj = make([][]int, n)
	g.inWgt = make([][]float64, n)
	return g
}

// AddEdge adds an edge (or arc, for directed graphs) with the given
// non-negative weight. Self-loops are permitted.
func (g *Graph) AddEdge(u, v int, weight float64) error {
	if u < 0 || u >= g.numNodes || v < 0 || v >= g.numNodes {
		return fmt.Errorf("graph: vertex out of range: u=%d, v=%d, n=%d", u, v, g.numNodes)
	}
	if weight < 0 {
		return fmt.Errorf("graph: negative edge weight %g on edge %d-%d", weight, u, v)
	}

	if u == v {
		g.selfLoop[u] += weight
		if g.directed {
			g.strengthOut[u] += weight
			g.strengthIn[u] += weight
		} else {
			// Both endpoints land on u.
			g.strengthOut[u] += 2 * weight
			g.strengthIn[u] += 2 * weight
		}
		g.totalWeight += weight
		return nil
	}

	g.outAdj[u] = append(g.outAdj[u], v)
	g.outWgt[u] = append(g.outWgt[u], weight)
	g.strengthOut[u] += weight
	if g.directed {
		g.inAdj[v] = append(g.inAdj[v], u)
		g.inWgt[v] = append(g.inWgt[v], weight)
		g.strengthIn[v] += weight
	} else {
		g.outAdj[v] = append(g.outAdj[v], u)
		g.outWgt[v] = append(g.outWgt[v], weight)
		g.strengthOut[v] += weight
		g.strengthIn[u] += weight
		g.strengthIn[v] += weight
	}
	g.totalWeight += weight
	return nil
}

// SetNodeWeight overrides the weight of a vertex (default 1).
func (g *Graph) SetNodeWeight(v int, weight float64) error {
	if v < 0 || v >= g.numNodes {
		return fmt.Errorf("graph: vertex %d out of range [0,%d)", v, g.numNodes)
	}
	if weight < 0 {
		return fmt.Errorf("graph: negative node weight %g for vertex %d", weight, v)
	}
	g.nodeWeight[v] = weight
	return nil
}

// NumNodes returns the number of vertices.
func (g *Graph) NumNodes() int { return g.numNodes }

// Directed reports whether edges are directed.
func (g *Graph) Directed() bool { return g.directed }

// TotalWeight returns the summed edge weight, each edge counted once.
func (g *Graph) TotalWeight() float64 { return g.totalWeight }

// TotalNodeWeight returns the summed node weight.
func (g *Graph) TotalNodeWeight() float64 { return floats.Sum(g.nodeWeight) }

// Neighbors returns the out-neighbours of v and their edge weights.
// Self-loops are excluded; use SelfLoop for those. The returned slices are
// owned by the graph and must not be modified.
func (g *Graph) Neighbors(v int) ([]int, []float64) {
	if v < 0 || v >= g.numNodes {
		return nil, nil
	}
	return g.outAdj[v], g.outWgt[v]
}

// InNeighbors returns the in-neighbours of v and their arc weights. For
// undirected graphs this is identical to Neighbors.
func (g *Graph) InNeighbors(v int) ([]int, []float64) {
	if v < 0 || v >= g.numNodes {
		return nil, nil
	}
	return g.inAdj[v], g.inWgt[v]
}

// Strength returns the weighted degree of v. Self-loops count twice for
// undirected graphs, matching the usual degree convention.
func (g *Graph) Strength(v int) float64 { return g.strengthOut[v] }

// StrengthOut returns the out-strength of v, self-loop included.
func (g *Graph) StrengthOut(v int) float64 { return g.strengthOut[v] }

// StrengthIn returns the in-strength of v, self-loop included.
func (g *Graph) StrengthIn(v int) float64 { return g.strengthIn[v] }

// SelfLoop returns the total self-loop weight of v.
func (g *Graph) SelfLoop(v int) float64 { return g.selfLoop[v] }

// NodeWeight returns the node weight of v.
func (g *Graph) NodeWeight(v int) float64 { return g.nodeWeight[v] }

// Clone creates a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	clone := &Graph{
		numNodes:    g.numNodes,
		directed:    g.directed,
		outAdj:      make([][]int, g.numNodes),
		outWgt:      make([][]float64, g.numNodes),
		selfLoop:    append([]float64(nil), g.selfLoop...),
		nodeWeight:  append([]float64(nil), g.nodeWeight...),
		strengthOut: append([]float64(nil), g.strengthOut...),
		strengthIn:  append([]float64(nil), g.strengthIn...),
		totalWeight: g.totalWeight,
	}
	for i := 0; i < g.numNodes; i++ {
		clone.outAdj[i] = append([]int(nil), g.outAdj[i]...)
		clone.outWgt[i] = append([]float64(nil), g.outWgt[i]...)
	}
	if g.directed {
		clone.inAdj = make([][]int, g.numNodes)
		clone.inWgt = make([][]float64, g.numNodes)
		for i := 0; i < g.numNodes; i++ {
			clone.inAdj[i] = append([]int(nil), g.inAdj[i]...)
			clone.inWgt[i] = append([]float64(nil), g.inWgt[i]...)
		}
	} else {
		clone.inAdj = clone.outAdj
		clone.inWgt = clone.outWgt
	}
	return clone
}

// Validate checks internal consistency of the adjacency arrays.
func (g *Graph) Validate() error {
	for i := 0; i < g.numNodes; i++ {
		if len(g.outAdj[i]) != len(g.outWgt[i]) {
			return fmt.Errorf("graph: adjacency and weight arrays inconsistent for vertex %d", i)
		}
		for j, u := range g.outAdj[i] {
			if u < 0 || u >= g.numNodes {
				return fmt.Errorf("graph: invalid neighbour %d for vertex %d", u, i)
			}
			if g.outWgt[i][j] < 0 {
				return fmt.Errorf("graph: negative weight %g on edge %d-%d", g.outWgt[i][j], i, u)
			}
		}
		if g.nodeWeight[i] < 0 {
			return fmt.Errorf("graph: negative node weight %g for vertex %d", g.nodeWeight[i], i)
		}
	}
	return nil
}
