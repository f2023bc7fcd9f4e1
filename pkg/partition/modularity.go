package partition

import "github.com/Gorn41/leidenalg/pkg/graph"

// Modularity scores a partition by
//
//	Q = (1/M) Σ_c [ w_in(c) − k(c)² / (2M) ]
//
// where M is the total edge weight and k(c) is the community strength in
// edge units (half the summed vertex strengths). The resolution is fixed
// at 1; use RBConfiguration for a configurable resolution.
type Modularity struct {
	*base
}

// NewModularity creates a modularity partition. A nil membership means the
// singleton partition.
func NewModularity(g *graph.Graph, membership []int) (*Modularity, error) {
	b, err := newBase(g, membership)
	if err != nil {
		return nil, err
	}
	return &Modularity{base: b}, nil
}

// Quality returns the modularity of the current membership.
func (p *Modularity) Quality() float64 { return rbQuality(p.base, 1) }

// DiffMove returns the modularity change of moving v into community c.
func (p *Modularity) DiffMove(v, c int) float64 { return rbDiff(p.base, 1, v, c) }

// Clone returns a deep copy sharing the graph.
func (p *Modularity) Clone() VertexPartition { return &Modularity{base: p.cloneBase()} }

// CreateLike constructs a modularity partition on the given graph.
func (p *Modularity) CreateLike(g *graph.Graph, membership []int) (VertexPartition, error) {
	return NewModularity(g, membership)
}

// rbNull is the configuration-model null term of a single community for
// the modularity family.
func rbNull(directed bool, kOut, kIn, m float64) float64 {
	if directed {
		return kOut * kIn / (2 * m)
	}
	h := kOut / 2
	return h * h / (2 * m)
}

// rbQuality evaluates the modularity-family quality at resolution gamma.
func rbQuality(b *base, gamma float64) float64 {
	m := b.g.TotalWeight()
	if m == 0 {
		return 0
	}
	directed := b.g.Directed()
	q := 0.0
	for c := 0; c < b.nComms; c++ {
		if b.cnodes[c] == 0 {
			continue
		}
		q += b.weightIn[c] - gamma*rbNull(directed, b.weightFrom[c], b.weightTo[c], m)
	}
	return q / m
}

// rbDiff evaluates the modularity-family quality delta of moving v into
// community c by recomputing the two affected community terms.
func rbDiff(b *base, gamma float64, v, c int) float64 {
	m := b.g.TotalWeight()
	if m == 0 || v < 0 || v >= len(b.membership) || c < 0 || c > b.nComms {
		return 0
	}
	old := b.membership[v]
	if old == c {
		return 0
	}
	directed := b.g.Directed()
	toOld, fromOld, toNew, fromNew := b.weightsToComms(v, old, c)
	kOut := b.g.StrengthOut(v)
	kIn := b.g.StrengthIn(v)

	dWin := toNew - toOld
	if directed {
		dWin += fromNew - fromOld
	}

	nullBefore := rbNull(directed, b.kOutAt(old), b.kInAt(old), m) +
		rbNull(directed, b.kOutAt(c), b.kInAt(c), m)
	nullAfter := rbNull(directed, b.kOutAt(old)-kOut, b.kInAt(old)-kIn, m) +
		rbNull(directed, b.kOutAt(c)+kOut, b.kInAt(c)+kIn, m)

	return (dWin - gamma*(nullAfter-nullBefore)) / m
}
