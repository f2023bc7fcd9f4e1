package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gorn41/leidenalg/pkg/graph"
)

// triangle returns K3 with unit weights.
func triangle(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.NewGraph(3)
	require.NoError(t, g.AddEdge(0, 1, 1))
	require.NoError(t, g.AddEdge(1, 2, 1))
	require.NoError(t, g.AddEdge(0, 2, 1))
	return g
}

// twoTriangles returns two disjoint unit-weight triangles on 6 vertices.
func twoTriangles(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.NewGraph(6)
	for _, e := range [][2]int{{0, 1}, {1, 2}, {0, 2}, {3, 4}, {4, 5}, {3, 5}} {
		require.NoError(t, g.AddEdge(e[0], e[1], 1))
	}
	return g
}

func TestSingletonInit(t *testing.T) {
	p, err := NewModularity(triangle(t), nil)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2}, p.Membership())
	assert.Equal(t, 3, p.NCommunities())
	assert.Equal(t, 3, p.NUsedCommunities())
	for c := 0; c < 3; c++ {
		assert.Equal(t, 1, p.CommunityNodes(c))
		assert.InDelta(t, 1, p.CommunitySize(c), 1e-12)
	}
	assert.InDelta(t, 0, p.TotalInternalWeight(), 1e-12)
}

func TestInitValidation(t *testing.T) {
	g := triangle(t)

	_, err := NewModularity(g, []int{0, 1})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewModularity(g, []int{0, 1, 3})
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = NewModularity(g, []int{0, -1, 0})
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestMoveNodeAggregates(t *testing.T) {
	g := twoTriangles(t)
	p, err := NewModularity(g, nil)
	require.NoError(t, err)

	require.NoError(t, p.MoveNode(0, 1))
	require.NoError(t, p.MoveNode(2, 1))
	require.NoError(t, p.MoveNode(3, 4))

	// Incremental aggregates must agree with a from-scratch rebuild.
	fresh, err := NewModularity(g, p.Membership())
	require.NoError(t, err)
	for c := 0; c < p.NCommunities(); c++ {
		assert.Equal(t, fresh.CommunityNodes(c), p.CommunityNodes(c), "cnodes[%d]", c)
		assert.InDelta(t, fresh.CommunitySize(c), p.CommunitySize(c), 1e-12, "csize[%d]", c)
		assert.InDelta(t, fresh.winAt(c), p.winAt(c), 1e-12, "win[%d]", c)
		assert.InDelta(t, fresh.kOutAt(c), p.kOutAt(c), 1e-12, "kout[%d]", c)
		assert.InDelta(t, fresh.kInAt(c), p.kInAt(c), 1e-12, "kin[%d]", c)
	}
	assert.InDelta(t, fresh.totalIn, p.totalIn, 1e-12)
	assert.InDelta(t, fresh.totalPairs, p.totalPairs, 1e-12)
	assert.Equal(t, fresh.NUsedCommunities(), p.NUsedCommunities())
}

func TestMoveNodeValidation(t *testing.T) {
	p, err := NewModularity(triangle(t), nil)
	require.NoError(t, err)

	require.ErrorIs(t, p.MoveNode(-1, 0), ErrInvalidArgument)
	require.ErrorIs(t, p.MoveNode(0, 4), ErrInvalidArgument)
	// Growing past one slot per vertex is rejected.
	require.ErrorIs(t, p.MoveNode(0, 3), ErrInvalidArgument)
}

func TestEmptyCommunityReuse(t *testing.T) {
	p, err := NewModularity(triangle(t), nil)
	require.NoError(t, err)

	_, ok := p.EmptyCommunity()
	assert.False(t, ok)

	require.NoError(t, p.MoveNode(0, 1))
	slot, ok := p.EmptyCommunity()
	require.True(t, ok)
	assert.Equal(t, 0, slot)
	assert.Equal(t, 2, p.NUsedCommunities())
	assert.Equal(t, 3, p.NCommunities())

	// Reviving the slot drops it from the free list; the mover's old
	// community empties instead.
	require.NoError(t, p.MoveNode(2, slot))
	slot, ok = p.EmptyCommunity()
	require.True(t, ok)
	assert.Equal(t, 2, slot)
	assert.Equal(t, 2, p.NUsedCommunities())
	assert.Equal(t, []int{1, 1, 0}, p.Membership())
}

func TestNeighCommWeights(t *testing.T) {
	g := twoTriangles(t)
	p, err := NewCPM(g, []int{0, 0, 1, 2, 2, 2}, 1)
	require.NoError(t, err)

	comms, weights := p.NeighCommWeights(0, nil)
	require.Len(t, comms, 2)
	// First-seen order: neighbour 1 (community 0) precedes neighbour 2.
	assert.Equal(t, []int{0, 1}, comms)
	assert.InDelta(t, 1, weights[0], 1e-12)
	assert.InDelta(t, 1, weights[1], 1e-12)

	// Constrained to its own group, vertex 2's neighbours in the other
	// group disappear.
	within := []int{0, 0, 1, 1, 1, 1}
	comms, _ = p.NeighCommWeights(2, within)
	assert.Empty(t, comms)

	comms, weights = p.NeighCommWeights(4, within)
	require.Equal(t, []int{2}, comms)
	assert.InDelta(t, 2, weights[0], 1e-12)
}

func TestRenumberCommunities(t *testing.T) {
	g := twoTriangles(t)
	p, err := NewModularity(g, []int{5, 5, 5, 2, 2, 2})
	require.NoError(t, err)
	require.Equal(t, 6, p.NCommunities())

	p.RenumberCommunities()
	assert.Equal(t, 2, p.NCommunities())
	assert.Equal(t, []int{1, 1, 1, 0, 0, 0}, p.Membership())
}

func TestRenumberCommunitiesFixed(t *testing.T) {
	g := twoTriangles(t)
	p, err := NewModularity(g, []int{4, 4, 4, 1, 1, 1})
	require.NoError(t, err)

	initial := []int{4, 4, 4, 1, 1, 1}
	isFixed := []bool{true, false, false, false, false, false}
	p.RenumberCommunitiesFixed(initial, isFixed)

	// Vertex 0 keeps its initial community id, the rest compact around it.
	assert.Equal(t, []int{4, 4, 4, 0, 0, 0}, p.Membership())
}

func TestSetMembership(t *testing.T) {
	p, err := NewModularity(triangle(t), nil)
	require.NoError(t, err)

	require.NoError(t, p.SetMembership([]int{0, 0, 0}))
	assert.Equal(t, 1, p.NUsedCommunities())
	assert.InDelta(t, 3, p.TotalInternalWeight(), 1e-12)

	require.ErrorIs(t, p.SetMembership([]int{0, 0}), ErrInvalidArgument)
}

func TestCloneIndependence(t *testing.T) {
	p, err := NewCPM(triangle(t), nil, 0.5)
	require.NoError(t, err)

	c := p.Clone().(*CPM)
	require.NoError(t, c.MoveNode(0, 1))

	assert.Equal(t, []int{0, 1, 2}, p.Membership())
	assert.Equal(t, []int{1, 1, 2}, c.Membership())
	assert.InDelta(t, 0.5, c.ResolutionParameter(), 1e-12)
}

func TestResolutionValidation(t *testing.T) {
	g := triangle(t)
	_, err := NewCPM(g, nil, -0.1)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewRBConfiguration(g, nil, -1)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewRBER(g, nil, -1)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func allVariants(t *testing.T, g *graph.Graph) map[string]VertexPartition {
	t.Helper()
	mod, err := NewModularity(g, nil)
	require.NoError(t, err)
	cpm, err := NewCPM(g, nil, 0.1)
	require.NoError(t, err)
	rbc, err := NewRBConfiguration(g, nil, 0.7)
	require.NoError(t, err)
	rber, err := NewRBER(g, nil, 1)
	require.NoError(t, err)
	sig, err := NewSignificance(g, nil)
	require.NoError(t, err)
	sup, err := NewSurprise(g, nil)
	require.NoError(t, err)
	return map[string]VertexPartition{
		"modularity": mod, "cpm": cpm, "rbconfiguration": rbc,
		"rber": rber, "significance": sig, "surprise": sup,
	}
}

func TestAggregatePreservesQuality(t *testing.T) {
	g := twoTriangles(t)
	membership := []int{0, 0, 1, 2, 2, 2}

	for name, p := range allVariants(t, g) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, p.SetMembership(membership))
			before := p.Quality()

			// Collapse by community; the coarse partition starts from the
			// collapsed membership, one community per super-node.
			coarse, err := Aggregate(p, p.Membership(), []int{0, 1, 2})
			require.NoError(t, err)

			assert.Equal(t, 3, coarse.Graph().NumNodes())
			assert.InDelta(t, before, coarse.Quality(), 1e-9*(1+abs(before)))
		})
	}
}

func TestAggregateRefined(t *testing.T) {
	// Super-nodes finer than the partition seeded back into their parent
	// communities keep the quality unchanged.
	g := twoTriangles(t)
	p, err := NewModularity(g, []int{0, 0, 0, 1, 1, 1})
	require.NoError(t, err)
	before := p.Quality()

	components := []int{0, 0, 1, 2, 3, 3} // subdivides both communities
	coarse, err := Aggregate(p, components, []int{0, 0, 1, 1})
	require.NoError(t, err)

	assert.Equal(t, 4, coarse.Graph().NumNodes())
	assert.InDelta(t, before, coarse.Quality(), 1e-12)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
