package partition

import (
	"fmt"

	"github.com/Gorn41/leidenalg/pkg/graph"
)

// RBER is the Reichardt-Bornholdt quality with an Erdős–Rényi null:
// CPM-style, with the expected within-community weight taken from a
// uniform random graph of the same density,
//
//	Q = Σ_c [ w_in(c) − γ · p · n(c)² ]
//
// where p = M / n_total² is the graph density in node-weight units.
type RBER struct {
	*base
	resolution float64
}

// NewRBER creates an RBER partition. A nil membership means the singleton
// partition.
func NewRBER(g *graph.Graph, membership []int, resolution float64) (*RBER, error) {
	if resolution < 0 {
		return nil, fmt.Errorf("%w: negative resolution parameter %g", ErrInvalidArgument, resolution)
	}
	b, err := newBase(g, membership)
	if err != nil {
		return nil, err
	}
	return &RBER{base: b, resolution: resolution}, nil
}

func (p *RBER) density() float64 {
	nw := p.g.TotalNodeWeight()
	if nw == 0 {
		return 0
	}
	return p.g.TotalWeight() / (nw * nw)
}

// ResolutionParameter returns γ.
func (p *RBER) ResolutionParameter() float64 { return p.resolution }

// Quality returns the RBER value of the current membership.
func (p *RBER) Quality() float64 {
	dens := p.density()
	q := 0.0
	for c := 0; c < p.nComms; c++ {
		if p.cnodes[c] == 0 {
			continue
		}
		q += p.weightIn[c] - p.resolution*dens*p.csize[c]*p.csize[c]
	}
	return q
}

// DiffMove returns the quality change of moving v into community c.
func (p *RBER) DiffMove(v, c int) float64 {
	return sizeNullDiff(p.base, p.resolution*p.density(), v, c)
}

// Clone returns a deep copy sharing the graph.
func (p *RBER) Clone() VertexPartition {
	return &RBER{base: p.cloneBase(), resolution: p.resolution}
}

// CreateLike constructs an RBER partition on the given graph, keeping γ.
func (p *RBER) CreateLike(g *graph.Graph, membership []int) (VertexPartition, error) {
	return NewRBER(g, membership, p.resolution)
}
