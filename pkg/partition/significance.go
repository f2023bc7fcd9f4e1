package partition

import "github.com/Gorn41/leidenalg/pkg/graph"

// Significance scores a partition by how unlikely its community densities
// are under a uniform random graph of the same overall density:
//
//	S = Σ_c pairs(n(c)) · D( p_c ‖ p )
//
// with pairs(n) = n(n−1)/2, p_c = w_in(c)/pairs(n(c)), p the graph
// density, and D the binary Kullback-Leibler divergence. It takes no
// resolution parameter and is intended for graphs whose edge weights do
// not exceed the pair counts (e.g. unweighted graphs); otherwise the
// quality can become non-finite, which the optimiser reports as a numeric
// error.
type Significance struct {
	*base
}

// NewSignificance creates a significance partition. A nil membership means
// the singleton partition.
func NewSignificance(g *graph.Graph, membership []int) (*Significance, error) {
	b, err := newBase(g, membership)
	if err != nil {
		return nil, err
	}
	return &Significance{base: b}, nil
}

func (p *Significance) density() float64 {
	total := pairs(p.g.TotalNodeWeight())
	if total <= 0 {
		return 0
	}
	return p.g.TotalWeight() / total
}

// significanceTerm is the contribution of one community with size n and
// internal weight w.
func significanceTerm(n, w, dens float64) float64 {
	pr := pairs(n)
	if pr <= 0 {
		return 0
	}
	return pr * binaryKL(w/pr, dens)
}

// Quality returns the significance of the current membership.
func (p *Significance) Quality() float64 {
	dens := p.density()
	if dens == 0 {
		return 0
	}
	q := 0.0
	for c := 0; c < p.nComms; c++ {
		if p.cnodes[c] == 0 {
			continue
		}
		q += significanceTerm(p.csize[c], p.weightIn[c], dens)
	}
	return q
}

// DiffMove returns the significance change of moving v into community c,
// recomputing the two affected community terms.
func (p *Significance) DiffMove(v, c int) float64 {
	if v < 0 || v >= len(p.membership) || c < 0 || c > p.nComms {
		return 0
	}
	old := p.membership[v]
	if old == c {
		return 0
	}
	dens := p.density()
	if dens == 0 {
		return 0
	}
	toOld, fromOld, toNew, fromNew := p.weightsToComms(v, old, c)
	sl := p.g.SelfLoop(v)
	remOld := toOld + sl
	addNew := toNew + sl
	if p.g.Directed() {
		remOld += fromOld
		addNew += fromNew
	}
	nv := p.g.NodeWeight(v)
	nOld, wOld := p.csizeAt(old), p.winAt(old)
	nNew, wNew := p.csizeAt(c), p.winAt(c)

	before := significanceTerm(nOld, wOld, dens) + significanceTerm(nNew, wNew, dens)
	after := significanceTerm(nOld-nv, wOld-remOld, dens) + significanceTerm(nNew+nv, wNew+addNew, dens)
	return after - before
}

// Clone returns a deep copy sharing the graph.
func (p *Significance) Clone() VertexPartition { return &Significance{base: p.cloneBase()} }

// CreateLike constructs a significance partition on the given graph.
func (p *Significance) CreateLike(g *graph.Graph, membership []int) (VertexPartition, error) {
	return NewSignificance(g, membership)
}
