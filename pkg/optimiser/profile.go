package optimiser

import (
	"context"
	"fmt"
	"sort"

	"github.com/Gorn41/leidenalg/pkg/partition"
)

// ProfileFactory constructs a fresh singleton partition of a
// linear-resolution variant at the given resolution parameter.
type ProfileFactory func(resolution float64) (partition.LinearResolution, error)

// ProfileOptions tune the resolution profile bisection.
type ProfileOptions struct {
	// MinDiffBisect is the minimal difference in total internal weight
	// between two resolutions for the interval to be subdivided further.
	MinDiffBisect float64
	// MinDiffResolution is the minimal width of a subdivided interval.
	MinDiffResolution float64
	// NIterations is passed through to OptimisePartition per resolution;
	// zero selects the default of -1.
	NIterations int
}

func (po *ProfileOptions) withDefaults() ProfileOptions {
	opts := ProfileOptions{MinDiffBisect: 1, MinDiffResolution: 1e-3, NIterations: -1}
	if po != nil {
		if po.MinDiffBisect > 0 {
			opts.MinDiffBisect = po.MinDiffBisect
		}
		if po.MinDiffResolution > 0 {
			opts.MinDiffResolution = po.MinDiffResolution
		}
		if po.NIterations != 0 {
			opts.NIterations = po.NIterations
		}
	}
	return opts
}

// ResolutionProfile optimises partitions across a range of resolution
// parameters, bisecting the interval while the total internal weight of
// the optima still differs. It returns the distinct optima sorted by
// resolution.
func (o *Optimiser) ResolutionProfile(ctx context.Context, factory ProfileFactory, minRes, maxRes float64, popts *ProfileOptions) ([]partition.LinearResolution, error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: nil profile factory", partition.ErrInvalidArgument)
	}
	if minRes < 0 || maxRes <= minRes {
		return nil, fmt.Errorf("%w: invalid resolution range [%g,%g]", partition.ErrInvalidArgument, minRes, maxRes)
	}
	opts := popts.withDefaults()

	results := make(map[float64]partition.LinearResolution)
	eval := func(res float64) (partition.LinearResolution, error) {
		p, err := factory(res)
		if err != nil {
			return nil, err
		}
		if _, err := o.OptimisePartition(ctx, p, opts.NIterations, nil); err != nil {
			return nil, err
		}
		results[res] = p
		return p, nil
	}

	lo, err := eval(minRes)
	if err != nil {
		return nil, err
	}
	hi, err := eval(maxRes)
	if err != nil {
		return nil, err
	}

	var build func(minRes, maxRes float64, lo, hi partition.LinearResolution) error
	build = func(minRes, maxRes float64, lo, hi partition.LinearResolution) error {
		if maxRes-minRes < opts.MinDiffResolution {
			return nil
		}
		diff := lo.TotalInternalWeight() - hi.TotalInternalWeight()
		if diff < 0 {
			diff = -diff
		}
		if diff < opts.MinDiffBisect {
			return nil
		}
		mid := (minRes + maxRes) / 2
		pm, err := eval(mid)
		if err != nil {
			return err
		}
		if err := build(minRes, mid, lo, pm); err != nil {
			return err
		}
		return build(mid, maxRes, pm, hi)
	}
	if err := build(minRes, maxRes, lo, hi); err != nil {
		return nil, err
	}

	resolutions := make([]float64, 0, len(results))
	for res := range results {
		resolutions = append(resolutions, res)
	}
	sort.Float64s(resolutions)

	var profile []partition.LinearResolution
	for _, res := range resolutions {
		p := results[res]
		if len(profile) > 0 && sameMembership(profile[len(profile)-1], p) {
			continue
		}
		profile = append(profile, p)
	}
	return profile, nil
}

func sameMembership(a, b partition.VertexPartition) bool {
	ma, mb := a.Membership(), b.Membership()
	if len(ma) != len(mb) {
		return false
	}
	for v := range ma {
		if ma[v] != mb[v] {
			return false
		}
	}
	return true
}
