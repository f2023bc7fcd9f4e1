package optimiser

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/Gorn41/leidenalg/pkg/partition"
)

// Hierarchy is the ordered sequence of partition snapshots produced by
// hierarchical optimisation, element 0 being the finest (base-graph)
// level. The hierarchy owns its snapshots exclusively.
type Hierarchy []partition.VertexPartition

// OptimisePartition optimises the given partition with the multi-level
// loop: run the optimise routine, refine and aggregate on improvement,
// recurse on the coarser level. nIterations bounds the number of
// optimise-plus-aggregate rounds; a negative value runs until a round
// yields no improvement. The partition ends up holding the final
// membership, mapped back to base vertices, and the final quality is
// returned.
//
// Cancellation is cooperative: when ctx is done the current state is kept,
// membership is still propagated, and ctx.Err is returned alongside the
// attained quality.
func (o *Optimiser) OptimisePartition(ctx context.Context, p partition.VertexPartition, nIterations int, isFixed []bool) (float64, error) {
	return o.optimiseLayers(ctx, []partition.VertexPartition{p}, []float64{1}, nIterations, isFixed, nil)
}

// OptimisePartitionMultiplex optimises partitions over graphs sharing one
// vertex set in lock-step: a move is scored by the layer-weighted sum of
// the per-layer quality changes and applied to every layer. Layer weights
// may be negative. The layer-weighted final quality is returned.
func (o *Optimiser) OptimisePartitionMultiplex(ctx context.Context, partitions []partition.VertexPartition, layerWeights []float64, nIterations int, isFixed []bool) (float64, error) {
	return o.optimiseLayers(ctx, partitions, layerWeights, nIterations, isFixed, nil)
}

// OptimisePartitionHierarchical is OptimisePartitionMultiplex running
// until no round improves, recording a snapshot of the first layer at
// every level into hierarchy: the initial partition first, then each
// aggregated level. The last snapshot carries the final membership.
func (o *Optimiser) OptimisePartitionHierarchical(ctx context.Context, partitions []partition.VertexPartition, layerWeights []float64, isFixed []bool, hierarchy *Hierarchy) (float64, error) {
	if hierarchy == nil {
		return 0, fmt.Errorf("%w: nil hierarchy", partition.ErrInvalidArgument)
	}
	return o.optimiseLayers(ctx, partitions, layerWeights, -1, isFixed, hierarchy)
}

// optimiseLayers is the multi-level driver shared by the three public
// entry points.
func (o *Optimiser) optimiseLayers(ctx context.Context, ps []partition.VertexPartition, layerWeights []float64, nIterations int, isFixed []bool, hierarchy *Hierarchy) (float64, error) {
	isFixed, err := o.checkLayers(ps, layerWeights, isFixed)
	if err != nil {
		return 0, err
	}

	// Every driver run restarts the generator so results depend only on
	// the inputs and the configured seed.
	o.rng = rand.New(rand.NewSource(o.seed))

	logger := o.logger.With().Str("run_id", uuid.NewString()).Logger()
	n := ps[0].Graph().NumNodes()
	initialMemb := ps[0].Membership()
	anyFixed := false
	for _, f := range isFixed {
		if f {
			anyFixed = true
			break
		}
	}

	logger.Info().
		Int("nodes", n).
		Int("layers", len(ps)).
		Int("communities", ps[0].NUsedCommunities()).
		Msg("Starting optimisation")

	if hierarchy != nil {
		*hierarchy = Hierarchy{ps[0].Clone()}
	}

	cur := append([]partition.VertexPartition(nil), ps...)
	fixedCur := append([]bool(nil), isFixed...)
	var comps [][]int
	var ctxErr error
	iter := 0

	for {
		if nIterations >= 0 && iter >= nIterations {
			break
		}
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}

		delta, err := o.runMoves(ctx, cur, layerWeights, fixedCur, moveOptions{
			considerComms: o.considerComms,
			considerEmpty: o.considerEmpty,
			pinOnMove:     o.optimiseRoutine == RoutineMergeNodes,
		})
		if err != nil {
			if ctx.Err() != nil {
				ctxErr = ctx.Err()
				break
			}
			return 0, err
		}
		logger.Debug().
			Int("level", len(comps)).
			Float64("delta", delta).
			Int("communities", cur[0].NUsedCommunities()).
			Msg("Level converged")
		if delta <= 0 {
			break
		}
		iter++

		for _, p := range cur {
			p.RenumberCommunities()
		}
		comp := cur[0].Membership()
		nSuper := cur[0].NCommunities()
		coarseSeed := make([]int, nSuper)
		for i := range coarseSeed {
			coarseSeed[i] = i
		}

		if o.refinePartition {
			constraint := cur[0].Membership()
			ref := make([]partition.VertexPartition, len(cur))
			for l := range cur {
				ref[l], err = cur[l].CreateLike(cur[l].Graph(), nil)
				if err != nil {
					return 0, err
				}
			}
			if _, err = o.runMoves(ctx, ref, layerWeights, fixedCur, moveOptions{
				considerComms: o.refineConsiderComms,
				pinOnMove:     o.refineRoutine == RoutineMergeNodes,
				constraint:    constraint,
			}); err != nil && ctx.Err() == nil {
				return 0, err
			}
			for _, p := range ref {
				p.RenumberCommunities()
			}
			comp = ref[0].Membership()
			nSuper = ref[0].NCommunities()
			// Super-nodes that refined the same community start there, so
			// the coarse level begins at exactly the converged quality.
			coarseSeed = make([]int, nSuper)
			for v, s := range comp {
				coarseSeed[s] = constraint[v]
			}
		}

		nCur := cur[0].Graph().NumNodes()
		if nSuper >= nCur {
			logger.Debug().Int("level", len(comps)).Msg("No compression, stopping")
			break
		}

		coarseFixed := make([]bool, nSuper)
		for v, f := range fixedCur {
			if f {
				coarseFixed[comp[v]] = true
			}
		}
		coarse := make([]partition.VertexPartition, len(cur))
		for l := range cur {
			coarse[l], err = partition.Aggregate(cur[l], comp, coarseSeed)
			if err != nil {
				return 0, err
			}
		}

		logger.Info().
			Int("level", len(comps)+1).
			Int("nodes", nCur).
			Int("super_nodes", nSuper).
			Float64("compression_ratio", float64(nSuper)/float64(nCur)).
			Msg("Graph aggregated")

		comps = append(comps, comp)
		cur = coarse
		fixedCur = coarseFixed
		if hierarchy != nil {
			*hierarchy = append(*hierarchy, cur[0].Clone())
		}
	}

	if hierarchy != nil && len(*hierarchy) > 0 {
		// The loop pushes each level right after aggregation; refresh the
		// last snapshot so it carries that level's converged membership.
		(*hierarchy)[len(*hierarchy)-1] = cur[0].Clone()
	}

	// Map the final membership back to base vertices by composing the
	// per-level component maps.
	if len(comps) > 0 {
		chain := append([]int(nil), comps[0]...)
		for i := 1; i < len(comps); i++ {
			for v := range chain {
				chain[v] = comps[i][chain[v]]
			}
		}
		final := cur[0].Membership()
		memb := make([]int, n)
		for v := range memb {
			memb[v] = final[chain[v]]
		}
		for _, p := range ps {
			if err := p.SetMembership(memb); err != nil {
				return 0, err
			}
		}
	}

	if anyFixed {
		for _, p := range ps {
			p.RenumberCommunitiesFixed(initialMemb, isFixed)
		}
	} else {
		for _, p := range ps {
			p.RenumberCommunities()
		}
	}

	qualities := make([]float64, len(ps))
	for l, p := range ps {
		qualities[l] = p.Quality()
	}
	quality := floats.Dot(layerWeights, qualities)
	if math.IsNaN(quality) || math.IsInf(quality, 0) {
		return quality, fmt.Errorf("%w: layer-weighted quality is %g", partition.ErrNumeric, quality)
	}

	logger.Info().
		Int("levels", len(comps)+1).
		Int("communities", ps[0].NUsedCommunities()).
		Float64("quality", quality).
		Msg("Optimisation completed")

	return quality, ctxErr
}
