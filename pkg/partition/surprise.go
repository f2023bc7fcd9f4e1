package partition

import "github.com/Gorn41/leidenalg/pkg/graph"

// Surprise scores a partition by how unlikely the observed fraction of
// within-community weight is under random placement:
//
//	S = M · D( q ‖ ⟨q⟩ )
//
// where q is the fraction of the total weight that falls inside
// communities, ⟨q⟩ the fraction of vertex pairs inside communities, and D
// the binary Kullback-Leibler divergence. It takes no resolution
// parameter.
type Surprise struct {
	*base
}

// NewSurprise creates a surprise partition. A nil membership means the
// singleton partition.
func NewSurprise(g *graph.Graph, membership []int) (*Surprise, error) {
	b, err := newBase(g, membership)
	if err != nil {
		return nil, err
	}
	return &Surprise{base: b}, nil
}

// surpriseValue evaluates the quality from the two running totals.
func surpriseValue(g *graph.Graph, totalIn, totalPairs float64) float64 {
	m := g.TotalWeight()
	pTot := pairs(g.TotalNodeWeight())
	if m == 0 || pTot <= 0 {
		return 0
	}
	return m * binaryKL(totalIn/m, totalPairs/pTot)
}

// Quality returns the surprise of the current membership.
func (p *Surprise) Quality() float64 {
	return surpriseValue(p.g, p.totalIn, p.totalPairs)
}

// DiffMove returns the surprise change of moving v into community c,
// recomputing the quality from the shifted running totals.
func (p *Surprise) DiffMove(v, c int) float64 {
	if v < 0 || v >= len(p.membership) || c < 0 || c > p.nComms {
		return 0
	}
	old := p.membership[v]
	if old == c {
		return 0
	}
	toOld, fromOld, toNew, fromNew := p.weightsToComms(v, old, c)
	dWin := toNew - toOld
	if p.g.Directed() {
		dWin += fromNew - fromOld
	}
	nv := p.g.NodeWeight(v)
	nOld := p.csizeAt(old)
	nNew := p.csizeAt(c)
	dPairs := pairs(nOld-nv) + pairs(nNew+nv) - pairs(nOld) - pairs(nNew)

	before := surpriseValue(p.g, p.totalIn, p.totalPairs)
	after := surpriseValue(p.g, p.totalIn+dWin, p.totalPairs+dPairs)
	return after - before
}

// Clone returns a deep copy sharing the graph.
func (p *Surprise) Clone() VertexPartition { return &Surprise{base: p.cloneBase()} }

// CreateLike constructs a surprise partition on the given graph.
func (p *Surprise) CreateLike(g *graph.Graph, membership []int) (VertexPartition, error) {
	return NewSurprise(g, membership)
}
