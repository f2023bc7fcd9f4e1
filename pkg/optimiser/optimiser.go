package optimiser

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/Gorn41/leidenalg/pkg/partition"
)

// Optimiser runs the Leiden-family local-moving optimisation over one or
// more partitions. It is single-threaded: a given Optimiser must not be
// shared across goroutines while a call is in flight. All randomness is
// drawn from one seeded generator, used only for visit-order shuffles and
// random-candidate selection, so runs are deterministic per seed.
type Optimiser struct {
	considerComms       ConsiderComms
	refineConsiderComms ConsiderComms
	optimiseRoutine     Routine
	refineRoutine       Routine
	considerEmpty       bool
	refinePartition     bool
	maxCommSize         int
	seed                int64

	rng     *rand.Rand
	logger  zerolog.Logger
	tracker *MoveTracker

	moveCount int
}

// New creates an Optimiser from the given configuration. A nil cfg uses
// the defaults of NewConfig.
func New(cfg *Config) (*Optimiser, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	considerComms, err := ParseConsiderComms(cfg.ConsiderComms())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", partition.ErrInvalidArgument, err)
	}
	refineConsiderComms, err := ParseConsiderComms(cfg.RefineConsiderComms())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", partition.ErrInvalidArgument, err)
	}
	optimiseRoutine, err := ParseRoutine(cfg.OptimiseRoutine())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", partition.ErrInvalidArgument, err)
	}
	refineRoutine, err := ParseRoutine(cfg.RefineRoutine())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", partition.ErrInvalidArgument, err)
	}
	if cfg.MaxCommSize() < 0 {
		return nil, fmt.Errorf("%w: negative max_comm_size %d", partition.ErrInvalidArgument, cfg.MaxCommSize())
	}

	o := &Optimiser{
		considerComms:       considerComms,
		refineConsiderComms: refineConsiderComms,
		optimiseRoutine:     optimiseRoutine,
		refineRoutine:       refineRoutine,
		considerEmpty:       cfg.ConsiderEmptyCommunity(),
		refinePartition:     cfg.RefinePartition(),
		maxCommSize:         cfg.MaxCommSize(),
		seed:                cfg.RandomSeed(),
		logger:              cfg.CreateLogger(),
	}
	o.rng = rand.New(rand.NewSource(o.seed))

	if cfg.EnableMoveTracking() {
		tracker, err := NewMoveTracker(cfg.TrackingOutputFile())
		if err != nil {
			return nil, fmt.Errorf("create move tracker: %w", err)
		}
		o.tracker = tracker
	}
	return o, nil
}

// Close releases the move tracker, if any.
func (o *Optimiser) Close() {
	o.tracker.Close()
}

// ConsiderComms returns the candidate mode of the optimisation phase.
func (o *Optimiser) ConsiderComms() ConsiderComms { return o.considerComms }

// SetConsiderComms sets the candidate mode of the optimisation phase.
func (o *Optimiser) SetConsiderComms(c ConsiderComms) { o.considerComms = c }

// RefineConsiderComms returns the candidate mode of the refinement phase.
func (o *Optimiser) RefineConsiderComms() ConsiderComms { return o.refineConsiderComms }

// SetRefineConsiderComms sets the candidate mode of the refinement phase.
func (o *Optimiser) SetRefineConsiderComms(c ConsiderComms) { o.refineConsiderComms = c }

// OptimiseRoutine returns the routine used for optimising.
func (o *Optimiser) OptimiseRoutine() Routine { return o.optimiseRoutine }

// SetOptimiseRoutine sets the routine used for optimising.
func (o *Optimiser) SetOptimiseRoutine(r Routine) { o.optimiseRoutine = r }

// RefineRoutine returns the routine used for refining.
func (o *Optimiser) RefineRoutine() Routine { return o.refineRoutine }

// SetRefineRoutine sets the routine used for refining.
func (o *Optimiser) SetRefineRoutine(r Routine) { o.refineRoutine = r }

// ConsiderEmptyCommunity reports whether moves into an empty community are
// scored.
func (o *Optimiser) ConsiderEmptyCommunity() bool { return o.considerEmpty }

// SetConsiderEmptyCommunity sets whether moves into an empty community are
// scored.
func (o *Optimiser) SetConsiderEmptyCommunity(b bool) { o.considerEmpty = b }

// RefinePartition reports whether the partition is refined before
// aggregation.
func (o *Optimiser) RefinePartition() bool { return o.refinePartition }

// SetRefinePartition sets whether the partition is refined before
// aggregation.
func (o *Optimiser) SetRefinePartition(b bool) { o.refinePartition = b }

// MaxCommSize returns the community size bound; zero means unbounded.
func (o *Optimiser) MaxCommSize() int { return o.maxCommSize }

// SetMaxCommSize sets the community size bound; zero means unbounded.
func (o *Optimiser) SetMaxCommSize(size int) error {
	if size < 0 {
		return fmt.Errorf("%w: negative max_comm_size %d", partition.ErrInvalidArgument, size)
	}
	o.maxCommSize = size
	return nil
}

// RNGSeed returns the random seed.
func (o *Optimiser) RNGSeed() int64 { return o.seed }

// SetRNGSeed sets the random seed and resets the generator.
func (o *Optimiser) SetRNGSeed(seed int64) {
	o.seed = seed
	o.rng = rand.New(rand.NewSource(seed))
}

// moveOptions parameterise one run of the shared pass loop.
type moveOptions struct {
	considerComms ConsiderComms
	considerEmpty bool
	// pinOnMove gives merge semantics: a vertex only leaves a community
	// it occupies alone, and stays put once it has moved.
	pinOnMove bool
	// constraint restricts moves to communities reachable through
	// neighbours in the same constraint group.
	constraint []int
}

// MoveNodes greedily reassigns vertices to the candidate community (chosen
// per ConsiderComms, plus an empty community when ConsiderEmptyCommunity is
// set) with the largest positive quality gain, pass after pass, until a
// pass makes no move. It returns the total quality change.
func (o *Optimiser) MoveNodes(p partition.VertexPartition, isFixed []bool) (float64, error) {
	layers, weights := []partition.VertexPartition{p}, []float64{1}
	isFixed, err := o.checkLayers(layers, weights, isFixed)
	if err != nil {
		return 0, err
	}
	return o.runMoves(context.Background(), layers, weights, isFixed, moveOptions{
		considerComms: o.considerComms,
		considerEmpty: o.considerEmpty,
	})
}

// MergeNodes is the merge variant of MoveNodes used by Leiden refinement:
// vertices only leave communities they occupy alone and are pinned for the
// remainder of the run once moved.
func (o *Optimiser) MergeNodes(p partition.VertexPartition, isFixed []bool) (float64, error) {
	layers, weights := []partition.VertexPartition{p}, []float64{1}
	isFixed, err := o.checkLayers(layers, weights, isFixed)
	if err != nil {
		return 0, err
	}
	return o.runMoves(context.Background(), layers, weights, isFixed, moveOptions{
		considerComms: o.considerComms,
		considerEmpty: o.considerEmpty,
		pinOnMove:     true,
	})
}

// MoveNodesConstrained is MoveNodes restricted so vertices only move to
// communities of neighbours sharing their community in constraint.
func (o *Optimiser) MoveNodesConstrained(p partition.VertexPartition, constraint []int) (float64, error) {
	layers, weights := []partition.VertexPartition{p}, []float64{1}
	isFixed, err := o.checkLayers(layers, weights, nil)
	if err != nil {
		return 0, err
	}
	if err := o.checkConstraint(p, constraint); err != nil {
		return 0, err
	}
	return o.runMoves(context.Background(), layers, weights, isFixed, moveOptions{
		considerComms: o.refineConsiderComms,
		constraint:    constraint,
	})
}

// MergeNodesConstrained is MergeNodes restricted by constraint, the
// refinement routine of the Leiden algorithm.
func (o *Optimiser) MergeNodesConstrained(p partition.VertexPartition, constraint []int) (float64, error) {
	layers, weights := []partition.VertexPartition{p}, []float64{1}
	isFixed, err := o.checkLayers(layers, weights, nil)
	if err != nil {
		return 0, err
	}
	if err := o.checkConstraint(p, constraint); err != nil {
		return 0, err
	}
	return o.runMoves(context.Background(), layers, weights, isFixed, moveOptions{
		considerComms: o.refineConsiderComms,
		pinOnMove:     true,
		constraint:    constraint,
	})
}

func (o *Optimiser) checkConstraint(p partition.VertexPartition, constraint []int) error {
	if len(constraint) != p.Graph().NumNodes() {
		return fmt.Errorf("%w: constraint length %d does not match %d vertices",
			partition.ErrInvalidArgument, len(constraint), p.Graph().NumNodes())
	}
	return nil
}

// checkLayers validates a lock-step layer set and normalises isFixed.
func (o *Optimiser) checkLayers(layers []partition.VertexPartition, weights []float64, isFixed []bool) ([]bool, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: no partitions given", partition.ErrInvalidArgument)
	}
	if len(layers) != len(weights) {
		return nil, fmt.Errorf("%w: %d partitions but %d layer weights",
			partition.ErrInvalidArgument, len(layers), len(weights))
	}
	n := layers[0].Graph().NumNodes()
	first := layers[0].Membership()
	for l := 1; l < len(layers); l++ {
		if layers[l].Graph().NumNodes() != n {
			return nil, fmt.Errorf("%w: layer %d has %d vertices, expected %d",
				partition.ErrInvalidArgument, l, layers[l].Graph().NumNodes(), n)
		}
		memb := layers[l].Membership()
		for v := range memb {
			if memb[v] != first[v] {
				return nil, fmt.Errorf("%w: layer %d membership differs from layer 0 at vertex %d",
					partition.ErrInvalidArgument, l, v)
			}
		}
	}
	if isFixed == nil {
		isFixed = make([]bool, n)
	} else if len(isFixed) != n {
		return nil, fmt.Errorf("%w: is_fixed length %d does not match %d vertices",
			partition.ErrInvalidArgument, len(isFixed), n)
	}
	return isFixed, nil
}

// runMoves is the shared pass loop behind the move and merge routines,
// operating on lock-step layers. It returns the layer-weighted quality
// change. Cancellation is checked between passes; the partitions are left
// in the last fully-applied state.
func (o *Optimiser) runMoves(ctx context.Context, layers []partition.VertexPartition, weights []float64, isFixed []bool, opt moveOptions) (float64, error) {
	p0 := layers[0]
	n := p0.Graph().NumNodes()
	if n == 0 {
		return 0, nil
	}

	initial := layerQuality(layers, weights)
	running := initial
	var pinned []bool
	if opt.pinOnMove {
		pinned = make([]bool, n)
	}

	for {
		if err := ctx.Err(); err != nil {
			return running - initial, err
		}
		moves := 0
		for _, v := range o.rng.Perm(n) {
			if isFixed[v] {
				continue
			}
			if pinned != nil && pinned[v] {
				continue
			}
			from := p0.MembershipOf(v)
			if opt.pinOnMove && p0.CommunityNodes(from) != 1 {
				continue
			}

			best, bestGain := from, 0.0
			for _, c := range o.candidates(layers, v, opt) {
				if c == from {
					continue
				}
				if o.maxCommSize > 0 &&
					p0.CommunitySize(c)+p0.Graph().NodeWeight(v) > float64(o.maxCommSize) {
					continue
				}
				gain := 0.0
				for l := range layers {
					gain += weights[l] * layers[l].DiffMove(v, c)
				}
				if math.IsNaN(gain) || math.IsInf(gain, 0) {
					continue
				}
				if gain > bestGain {
					best, bestGain = c, gain
				}
			}

			if best != from && bestGain > 0 {
				for l := range layers {
					if err := layers[l].MoveNode(v, best); err != nil {
						return running - initial, err
					}
				}
				if pinned != nil {
					pinned[v] = true
				}
				moves++
				running += bestGain
				o.moveCount++
				o.tracker.LogMove(o.moveCount, v, from, best, bestGain, running)
			}
		}
		if moves == 0 {
			break
		}
	}
	return layerQuality(layers, weights) - initial, nil
}

// candidates builds the candidate community list for vertex v in
// deterministic first-seen order.
func (o *Optimiser) candidates(layers []partition.VertexPartition, v int, opt moveOptions) []int {
	p0 := layers[0]
	var cands []int

	switch opt.considerComms {
	case AllNeighComms, RandNeighComm:
		seen := make(map[int]bool)
		for _, p := range layers {
			comms, _ := p.NeighCommWeights(v, opt.constraint)
			for _, c := range comms {
				if !seen[c] {
					seen[c] = true
					cands = append(cands, c)
				}
			}
		}
		if opt.considerComms == RandNeighComm && len(cands) > 0 {
			cands = []int{cands[o.rng.Intn(len(cands))]}
		}
	case AllComms, RandComm:
		if opt.constraint != nil {
			// Within a constraint group only neighbour communities can be
			// reached; scanning unrelated communities would leak across
			// groups.
			seen := make(map[int]bool)
			for _, p := range layers {
				comms, _ := p.NeighCommWeights(v, opt.constraint)
				for _, c := range comms {
					if !seen[c] {
						seen[c] = true
						cands = append(cands, c)
					}
				}
			}
		} else {
			for c := 0; c < p0.NCommunities(); c++ {
				if p0.CommunityNodes(c) > 0 {
					cands = append(cands, c)
				}
			}
		}
		if opt.considerComms == RandComm && len(cands) > 0 {
			cands = []int{cands[o.rng.Intn(len(cands))]}
		}
	}

	if opt.considerEmpty && opt.constraint == nil {
		n := p0.Graph().NumNodes()
		if p0.NUsedCommunities() < n {
			if slot, ok := p0.EmptyCommunity(); ok {
				cands = append(cands, slot)
			} else if p0.NCommunities() < n {
				cands = append(cands, p0.NCommunities())
			}
		}
	}
	return cands
}

func layerQuality(layers []partition.VertexPartition, weights []float64) float64 {
	q := 0.0
	for l := range layers {
		q += weights[l] * layers[l].Quality()
	}
	return q
}
