package graph

import (
	"fmt"
	"sort"

	ggraph "gonum.org/v1/gonum/graph"
)

// NewFromGonum converts a gonum weighted undirected graph into a Graph.
// Vertices are renumbered to a dense zero-based range; the returned slice
// maps each dense index back to the original gonum node ID. Node ordering
// is by ascending gonum ID, so the conversion is deterministic.
func NewFromGonum(src ggraph.WeightedUndirected) (*Graph, []int64, error) {
	var ids []int64
	nodes := src.Nodes()
	for nodes.Next() {
		ids = append(ids, nodes.Node().ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	index := make(map[int64]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	g := NewGraph(len(ids))
	for _, uid := range ids {
		from := src.From(uid)
		for from.Next() {
			vid := from.Node().ID()
			if vid < uid {
				continue // each edge added once
			}
			w, ok := src.Weight(uid, vid)
			if !ok {
				return nil, nil, fmt.Errorf("graph: missing weight for edge %d-%d", uid, vid)
			}
			if err := g.AddEdge(index[uid], index[vid], w); err != nil {
				return nil, nil, err
			}
		}
	}
	return g, ids, nil
}
