package partition

import (
	"fmt"

	"github.com/Gorn41/leidenalg/pkg/graph"
)

// RBConfiguration is the Reichardt-Bornholdt quality with the
// configuration-model null: modularity with a configurable linear
// resolution parameter γ.
type RBConfiguration struct {
	*base
	resolution float64
}

// NewRBConfiguration creates an RB-configuration partition. A nil
// membership means the singleton partition.
func NewRBConfiguration(g *graph.Graph, membership []int, resolution float64) (*RBConfiguration, error) {
	if resolution < 0 {
		return nil, fmt.Errorf("%w: negative resolution parameter %g", ErrInvalidArgument, resolution)
	}
	b, err := newBase(g, membership)
	if err != nil {
		return nil, err
	}
	return &RBConfiguration{base: b, resolution: resolution}, nil
}

// ResolutionParameter returns γ.
func (p *RBConfiguration) ResolutionParameter() float64 { return p.resolution }

// Quality returns the RB-configuration value of the current membership.
func (p *RBConfiguration) Quality() float64 { return rbQuality(p.base, p.resolution) }

// DiffMove returns the quality change of moving v into community c.
func (p *RBConfiguration) DiffMove(v, c int) float64 { return rbDiff(p.base, p.resolution, v, c) }

// Clone returns a deep copy sharing the graph.
func (p *RBConfiguration) Clone() VertexPartition {
	return &RBConfiguration{base: p.cloneBase(), resolution: p.resolution}
}

// CreateLike constructs an RB-configuration partition on the given graph,
// keeping γ.
func (p *RBConfiguration) CreateLike(g *graph.Graph, membership []int) (VertexPartition, error) {
	return NewRBConfiguration(g, membership, p.resolution)
}
