package partition

import (
	"fmt"
	"sort"

	"github.com/Gorn41/leidenalg/pkg/graph"
)

// quotientGraph collapses g into a coarser graph whose vertices are the
// values of components. The edge weight between two super-nodes is the
// summed weight of the edges between their members; within-component
// weight becomes a self-loop, so strengths and the total weight are
// preserved. Super-node weights are the summed member node weights.
// Edge insertion order is sorted so that construction is deterministic.
func quotientGraph(g *graph.Graph, components []int) (*graph.Graph, error) {
	n := g.NumNodes()
	if len(components) != n {
		return nil, fmt.Errorf("%w: component vector length %d does not match %d vertices", ErrInvalidArgument, len(components), n)
	}
	nSuper := 0
	for v, c := range components {
		if c < 0 {
			return nil, fmt.Errorf("%w: component[%d] = %d", ErrInvalidArgument, v, c)
		}
		if c+1 > nSuper {
			nSuper = c + 1
		}
	}

	var ag *graph.Graph
	if g.Directed() {
		ag = graph.NewDirectedGraph(nSuper)
	} else {
		ag = graph.NewGraph(nSuper)
	}

	superWeight := make([]float64, nSuper)
	selfWeight := make([]float64, nSuper)
	edges := make(map[[2]int]float64)
	for v := 0; v < n; v++ {
		cv := components[v]
		superWeight[cv] += g.NodeWeight(v)
		selfWeight[cv] += g.SelfLoop(v)

		adj, wgt := g.Neighbors(v)
		for i, u := range adj {
			cu := components[u]
			key := [2]int{cv, cu}
			if !g.Directed() && cu < cv {
				key = [2]int{cu, cv}
			}
			edges[key] += wgt[i]
		}
	}

	keys := make([][2]int, 0, len(edges))
	for k := range edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	for _, k := range keys {
		w := edges[k]
		if !g.Directed() {
			// Undirected adjacency listed every edge from both endpoints.
			w /= 2
		}
		if w == 0 {
			continue
		}
		if err := ag.AddEdge(k[0], k[1], w); err != nil {
			return nil, err
		}
	}
	for c := 0; c < nSuper; c++ {
		if selfWeight[c] > 0 {
			if err := ag.AddEdge(c, c, selfWeight[c]); err != nil {
				return nil, err
			}
		}
		if err := ag.SetNodeWeight(c, superWeight[c]); err != nil {
			return nil, err
		}
	}
	return ag, nil
}
