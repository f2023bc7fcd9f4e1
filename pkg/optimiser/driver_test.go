package optimiser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gorn41/leidenalg/pkg/graph"
	"github.com/Gorn41/leidenalg/pkg/partition"
)

// bridgedTriangles returns two unit-weight triangles joined by one weak
// edge, a graph that needs an aggregation level to converge.
func bridgedTriangles(t *testing.T) *graph.Graph {
	t.Helper()
	g := twoTriangles(t)
	require.NoError(t, g.AddEdge(2, 3, 0.5))
	return g
}

func TestOptimiseEmptyGraph(t *testing.T) {
	o := newTestOptimiser(t)
	p, err := partition.NewModularity(graph.NewGraph(0), nil)
	require.NoError(t, err)

	quality, err := o.OptimisePartition(context.Background(), p, -1, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, quality)
	assert.Empty(t, p.Membership())
}

func TestOptimiseIsolatedVertices(t *testing.T) {
	o := newTestOptimiser(t)
	p, err := partition.NewModularity(graph.NewGraph(3), nil)
	require.NoError(t, err)

	quality, err := o.OptimisePartition(context.Background(), p, -1, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, quality)
	assert.Equal(t, 3, p.NUsedCommunities())
}

func TestOptimiseTriangle(t *testing.T) {
	o := newTestOptimiser(t)
	p, err := partition.NewModularity(triangle(t), nil)
	require.NoError(t, err)

	quality, err := o.OptimisePartition(context.Background(), p, -1, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, quality, 1e-9)
	assert.Equal(t, 1, p.NUsedCommunities())
	assert.Equal(t, []int{0, 0, 0}, p.Membership())
}

func TestOptimiseTriangleWithoutRefinement(t *testing.T) {
	o := newTestOptimiser(t, func(cfg *Config) {
		cfg.Set("optimiser.refine_partition", false)
	})
	p, err := partition.NewModularity(triangle(t), nil)
	require.NoError(t, err)

	quality, err := o.OptimisePartition(context.Background(), p, -1, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, quality, 1e-9)
	assert.Equal(t, 1, p.NUsedCommunities())
}

func TestOptimiseTwoTrianglesCPM(t *testing.T) {
	o := newTestOptimiser(t)
	p, err := partition.NewCPM(twoTriangles(t), nil, 0.1)
	require.NoError(t, err)

	quality, err := o.OptimisePartition(context.Background(), p, -1, nil)
	require.NoError(t, err)
	assert.InDelta(t, 4.2, quality, 1e-9)
	assert.Equal(t, 2, p.NUsedCommunities())
	for c := 0; c < p.NCommunities(); c++ {
		assert.InDelta(t, 3, p.CommunitySize(c), 1e-12)
	}
}

func TestOptimiseFixedMembership(t *testing.T) {
	o := newTestOptimiser(t)
	p, err := partition.NewModularity(triangle(t), nil)
	require.NoError(t, err)
	initial := p.Quality()

	quality, err := o.OptimisePartition(context.Background(), p, -1, []bool{true, true, true})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, p.Membership())
	assert.InDelta(t, initial, quality, 1e-12)
}

func TestOptimisePartiallyFixed(t *testing.T) {
	o := newTestOptimiser(t)
	p, err := partition.NewModularity(triangle(t), nil)
	require.NoError(t, err)

	_, err = o.OptimisePartition(context.Background(), p, -1, []bool{true, false, false})
	require.NoError(t, err)
	// The fixed vertex keeps its initial community id; the others join it.
	assert.Equal(t, 0, p.MembershipOf(0))
	assert.Equal(t, 1, p.NUsedCommunities())
}

func TestOptimiseDeterminism(t *testing.T) {
	g := bridgedTriangles(t)

	run := func() ([]int, float64) {
		o := newTestOptimiser(t)
		p, err := partition.NewModularity(g.Clone(), nil)
		require.NoError(t, err)
		q, err := o.OptimisePartition(context.Background(), p, -1, nil)
		require.NoError(t, err)
		return p.Membership(), q
	}

	m1, q1 := run()
	m2, q2 := run()
	assert.Equal(t, m1, m2)
	assert.Equal(t, q1, q2)
}

func TestOptimiseNIterationsBound(t *testing.T) {
	o := newTestOptimiser(t)
	p, err := partition.NewModularity(bridgedTriangles(t), nil)
	require.NoError(t, err)
	initial := p.Quality()

	quality, err := o.OptimisePartition(context.Background(), p, 1, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, quality, initial)
}

func TestOptimiseMaxCommSize(t *testing.T) {
	o := newTestOptimiser(t)
	require.NoError(t, o.SetMaxCommSize(3))

	p, err := partition.NewModularity(complete(t, 6), nil)
	require.NoError(t, err)
	_, err = o.OptimisePartition(context.Background(), p, -1, nil)
	require.NoError(t, err)

	for c := 0; c < p.NCommunities(); c++ {
		assert.LessOrEqual(t, p.CommunitySize(c), 3.0)
	}
}

func TestOptimiseCancelled(t *testing.T) {
	o := newTestOptimiser(t)
	p, err := partition.NewModularity(triangle(t), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	quality, err := o.OptimisePartition(ctx, p, -1, nil)
	require.ErrorIs(t, err, context.Canceled)
	// The partition is left in a valid, if unoptimised, state.
	assert.InDelta(t, p.Quality(), quality, 1e-12)
	for _, c := range p.Membership() {
		assert.GreaterOrEqual(t, c, 0)
		assert.Less(t, c, p.NCommunities())
	}
}

func TestOptimiseMultiplexMatchesSingleLayer(t *testing.T) {
	g := bridgedTriangles(t)

	oSingle := newTestOptimiser(t)
	pSingle, err := partition.NewModularity(g.Clone(), nil)
	require.NoError(t, err)
	qSingle, err := oSingle.OptimisePartition(context.Background(), pSingle, -1, nil)
	require.NoError(t, err)

	oMulti := newTestOptimiser(t)
	p1, err := partition.NewModularity(g.Clone(), nil)
	require.NoError(t, err)
	p2, err := partition.NewModularity(g.Clone(), nil)
	require.NoError(t, err)
	qMulti, err := oMulti.OptimisePartitionMultiplex(context.Background(),
		[]partition.VertexPartition{p1, p2}, []float64{1, 2}, -1, nil)
	require.NoError(t, err)

	// Identical layers scale every gain by the same positive factor, so
	// the optimisation path and final membership coincide.
	assert.Equal(t, pSingle.Membership(), p1.Membership())
	assert.Equal(t, p1.Membership(), p2.Membership())
	assert.InDelta(t, 3*qSingle, qMulti, 1e-9)
}

func TestOptimiseMultiplexValidation(t *testing.T) {
	o := newTestOptimiser(t)
	g := triangle(t)
	p1, err := partition.NewModularity(g, nil)
	require.NoError(t, err)

	_, err = o.OptimisePartitionMultiplex(context.Background(),
		[]partition.VertexPartition{p1}, []float64{1, 1}, -1, nil)
	require.ErrorIs(t, err, partition.ErrInvalidArgument)

	_, err = o.OptimisePartitionMultiplex(context.Background(),
		nil, nil, -1, nil)
	require.ErrorIs(t, err, partition.ErrInvalidArgument)
}

func TestOptimiseHierarchical(t *testing.T) {
	o := newTestOptimiser(t)
	p, err := partition.NewModularity(bridgedTriangles(t), nil)
	require.NoError(t, err)

	var h Hierarchy
	quality, err := o.OptimisePartitionHierarchical(context.Background(),
		[]partition.VertexPartition{p}, []float64{1}, nil, &h)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(h), 2)

	// Level sizes shrink, qualities never drop.
	for i := 1; i < len(h); i++ {
		assert.LessOrEqual(t, h[i].Graph().NumNodes(), h[i-1].Graph().NumNodes())
		assert.GreaterOrEqual(t, h[i].Quality(), h[i-1].Quality()-1e-9)
	}
	assert.InDelta(t, quality, h[len(h)-1].Quality(), 1e-9)
	assert.Equal(t, 2, p.NUsedCommunities())
}

func TestOptimiseHierarchicalNilHierarchy(t *testing.T) {
	o := newTestOptimiser(t)
	p, err := partition.NewModularity(triangle(t), nil)
	require.NoError(t, err)

	_, err = o.OptimisePartitionHierarchical(context.Background(),
		[]partition.VertexPartition{p}, []float64{1}, nil, nil)
	require.ErrorIs(t, err, partition.ErrInvalidArgument)
}

func TestOptimiseHierarchicalDeterminism(t *testing.T) {
	g := bridgedTriangles(t)

	run := func() (int, []int) {
		o := newTestOptimiser(t)
		p, err := partition.NewModularity(g.Clone(), nil)
		require.NoError(t, err)
		var h Hierarchy
		_, err = o.OptimisePartitionHierarchical(context.Background(),
			[]partition.VertexPartition{p}, []float64{1}, nil, &h)
		require.NoError(t, err)
		return len(h), p.Membership()
	}

	l1, m1 := run()
	l2, m2 := run()
	assert.Equal(t, l1, l2)
	assert.Equal(t, m1, m2)
}
