package partition

import (
	"fmt"

	"github.com/Gorn41/leidenalg/pkg/graph"
)

// VertexPartition is the contract every quality variant implements: a
// membership vector over a graph plus per-community aggregates, mutated
// one vertex at a time through MoveNode and scored through Quality and
// DiffMove. The central numerical invariant is that for any vertex v and
// community c,
//
//	Quality(after MoveNode(v, c)) - Quality(before) == DiffMove(v, c)
//
// to within floating tolerance. DiffMove may be called with c equal to
// NCommunities to score a move into a fresh empty community.
type VertexPartition interface {
	// Graph returns the underlying graph oracle, borrowed read-only.
	Graph() *graph.Graph
	// Membership returns a copy of the membership vector.
	Membership() []int
	// MembershipOf returns the community of vertex v.
	MembershipOf(v int) int
	// NCommunities returns the number of community slots, including
	// transiently empty ones. Membership values are always below it.
	NCommunities() int
	// NUsedCommunities returns the number of non-empty communities.
	NUsedCommunities() int
	// CommunitySize returns the summed node weight of community c.
	CommunitySize(c int) float64
	// CommunityNodes returns the number of vertices in community c.
	CommunityNodes(c int) int
	// TotalInternalWeight returns the summed within-community edge weight.
	TotalInternalWeight() float64
	// NeighCommWeights returns, in first-seen order, every distinct
	// community among v's neighbours together with the summed weight of
	// the edges from v into it. The vertex's own community is included
	// when a neighbour belongs to it. If within is non-nil, only
	// neighbours u with within[u] == within[v] are considered.
	NeighCommWeights(v int, within []int) ([]int, []float64)
	// EmptyCommunity returns a transiently empty community slot that can
	// be reused, if one exists.
	EmptyCommunity() (int, bool)
	// Quality returns the full-recomputation value of the quality
	// function under the current membership.
	Quality() float64
	// DiffMove returns the change in Quality that moving v into community
	// c would produce. Moving a vertex to its own community yields 0.
	DiffMove(v, c int) float64
	// MoveNode reassigns v to community c and updates all aggregates in
	// O(deg(v)) time. c == NCommunities() creates a new community slot.
	MoveNode(v, c int) error
	// SetMembership replaces the whole membership vector and recomputes
	// the aggregates from scratch.
	SetMembership(membership []int) error
	// RenumberCommunities compacts community ids so that used slots form
	// a dense zero-based range, preserving ascending slot order.
	RenumberCommunities()
	// RenumberCommunitiesFixed compacts community ids while keeping every
	// fixed vertex on its initial community id.
	RenumberCommunitiesFixed(initial []int, isFixed []bool)
	// Clone returns a deep copy sharing the (read-only) graph.
	Clone() VertexPartition
	// CreateLike constructs a partition of the same quality variant on
	// the given graph. A nil membership means the singleton partition.
	CreateLike(g *graph.Graph, membership []int) (VertexPartition, error)
}

var (
	_ VertexPartition  = (*Modularity)(nil)
	_ VertexPartition  = (*CPM)(nil)
	_ VertexPartition  = (*RBConfiguration)(nil)
	_ VertexPartition  = (*RBER)(nil)
	_ VertexPartition  = (*Significance)(nil)
	_ VertexPartition  = (*Surprise)(nil)
	_ LinearResolution = (*CPM)(nil)
	_ LinearResolution = (*RBConfiguration)(nil)
	_ LinearResolution = (*RBER)(nil)
)

// Aggregate collapses a partition into a new one of the same variant on the
// quotient graph defined by components, which maps every vertex to its
// super-node. The coarse partition starts from coarseMembership (one entry
// per super-node); passing the collapsed membership itself preserves the
// quality value exactly across the level boundary.
func Aggregate(p VertexPartition, components, coarseMembership []int) (VertexPartition, error) {
	ag, err := quotientGraph(p.Graph(), components)
	if err != nil {
		return nil, err
	}
	return p.CreateLike(ag, coarseMembership)
}

// base carries the membership vector and the per-community aggregate
// caches shared by all quality variants. Aggregates live in dense vectors
// indexed by community id; a move into a fresh community appends a slot,
// emptied slots are kept on a free list for reuse until the next
// renumbering pass.
type base struct {
	g          *graph.Graph
	membership []int

	nComms int
	nUsed  int
	empty  []int // free list of emptied slots; entries may be stale

	weightIn   []float64 // within-community edge weight, self-loops included
	weightFrom []float64 // summed out-strength of members
	weightTo   []float64 // summed in-strength of members
	csize      []float64 // summed node weight of members
	cnodes     []int

	totalIn    float64 // sum of weightIn
	totalPairs float64 // sum over communities of csize*(csize-1)/2
}

func newBase(g *graph.Graph, membership []int) (*base, error) {
	b := &base{g: g}
	n := g.NumNodes()
	if membership == nil {
		membership = make([]int, n)
		for v := range membership {
			membership[v] = v
		}
	}
	if err := b.reset(membership); err != nil {
		return nil, err
	}
	return b, nil
}

// reset rebuilds every aggregate from the given membership.
func (b *base) reset(membership []int) error {
	n := b.g.NumNodes()
	if len(membership) != n {
		return fmt.Errorf("%w: membership length %d does not match %d vertices", ErrInvalidArgument, len(membership), n)
	}
	nComms := 0
	for v, c := range membership {
		if c < 0 || c >= n {
			return fmt.Errorf("%w: membership[%d] = %d outside [0,%d)", ErrInvalidState, v, c, n)
		}
		if c+1 > nComms {
			nComms = c + 1
		}
	}

	b.membership = append(b.membership[:0], membership...)
	b.nComms = nComms
	b.weightIn = make([]float64, nComms)
	b.weightFrom = make([]float64, nComms)
	b.weightTo = make([]float64, nComms)
	b.csize = make([]float64, nComms)
	b.cnodes = make([]int, nComms)
	b.empty = b.empty[:0]
	b.totalIn = 0
	b.totalPairs = 0

	internal := make([]float64, nComms)
	for v := 0; v < n; v++ {
		c := b.membership[v]
		b.weightFrom[c] += b.g.StrengthOut(v)
		b.weightTo[c] += b.g.StrengthIn(v)
		b.csize[c] += b.g.NodeWeight(v)
		b.cnodes[c]++
		b.weightIn[c] += b.g.SelfLoop(v)

		adj, wgt := b.g.Neighbors(v)
		for i, u := range adj {
			if b.membership[u] == c {
				internal[c] += wgt[i]
			}
		}
	}
	for c := range internal {
		if b.g.Directed() {
			b.weightIn[c] += internal[c]
		} else {
			// Undirected adjacency stores every internal edge from both
			// ends, so the sweep above counted each one twice.
			b.weightIn[c] += internal[c] / 2
		}
	}

	b.nUsed = 0
	for c := 0; c < nComms; c++ {
		if b.cnodes[c] > 0 {
			b.nUsed++
		} else {
			b.empty = append(b.empty, c)
		}
		b.totalIn += b.weightIn[c]
		b.totalPairs += pairs(b.csize[c])
	}
	return nil
}

func pairs(n float64) float64 { return n * (n - 1) / 2 }

// Graph returns the underlying graph oracle.
func (b *base) Graph() *graph.Graph { return b.g }

// Membership returns a copy of the membership vector.
func (b *base) Membership() []int { return append([]int(nil), b.membership...) }

// MembershipOf returns the community of vertex v.
func (b *base) MembershipOf(v int) int { return b.membership[v] }

// NCommunities returns the number of community slots.
func (b *base) NCommunities() int { return b.nComms }

// NUsedCommunities returns the number of non-empty communities.
func (b *base) NUsedCommunities() int { return b.nUsed }

// CommunitySize returns the summed node weight of community c.
func (b *base) CommunitySize(c int) float64 { return b.csizeAt(c) }

// CommunityNodes returns the number of vertices in community c.
func (b *base) CommunityNodes(c int) int {
	if c < 0 || c >= b.nComms {
		return 0
	}
	return b.cnodes[c]
}

// TotalInternalWeight returns the summed within-community edge weight.
func (b *base) TotalInternalWeight() float64 { return b.totalIn }

func (b *base) winAt(c int) float64 {
	if c < 0 || c >= b.nComms {
		return 0
	}
	return b.weightIn[c]
}

func (b *base) kOutAt(c int) float64 {
	if c < 0 || c >= b.nComms {
		return 0
	}
	return b.weightFrom[c]
}

func (b *base) kInAt(c int) float64 {
	if c < 0 || c >= b.nComms {
		return 0
	}
	return b.weightTo[c]
}

func (b *base) csizeAt(c int) float64 {
	if c < 0 || c >= b.nComms {
		return 0
	}
	return b.csize[c]
}

// NeighCommWeights enumerates the communities among v's neighbours in
// first-seen order with the summed edge weight from v into each. For
// directed graphs the weight combines both directions.
func (b *base) NeighCommWeights(v int, within []int) ([]int, []float64) {
	if v < 0 || v >= len(b.membership) {
		return nil, nil
	}
	var comms []int
	var weights []float64
	index := make(map[int]int)

	visit := func(u int, w float64) {
		if u == v {
			return
		}
		if within != nil && within[u] != within[v] {
			return
		}
		c := b.membership[u]
		i, ok := index[c]
		if !ok {
			i = len(comms)
			index[c] = i
			comms = append(comms, c)
			weights = append(weights, 0)
		}
		weights[i] += w
	}

	adj, wgt := b.g.Neighbors(v)
	for i, u := range adj {
		visit(u, wgt[i])
	}
	if b.g.Directed() {
		adj, wgt = b.g.InNeighbors(v)
		for i, u := range adj {
			visit(u, wgt[i])
		}
	}
	return comms, weights
}

// EmptyCommunity returns a reusable empty community slot, if any.
func (b *base) EmptyCommunity() (int, bool) {
	for len(b.empty) > 0 {
		c := b.empty[len(b.empty)-1]
		if b.cnodes[c] == 0 {
			return c, true
		}
		b.empty = b.empty[:len(b.empty)-1] // stale, the slot was revived
	}
	return 0, false
}

// weightsToComms returns the edge weight between v and the two communities
// a and b in one pass over v's neighbourhood, self-loops excluded.
func (b *base) weightsToComms(v, ca, cb int) (toA, fromA, toB, fromB float64) {
	adj, wgt := b.g.Neighbors(v)
	for i, u := range adj {
		switch b.membership[u] {
		case ca:
			toA += wgt[i]
		case cb:
			toB += wgt[i]
		}
	}
	if !b.g.Directed() {
		return toA, toA, toB, toB
	}
	adj, wgt = b.g.InNeighbors(v)
	for i, u := range adj {
		switch b.membership[u] {
		case ca:
			fromA += wgt[i]
		case cb:
			fromB += wgt[i]
		}
	}
	return toA, fromA, toB, fromB
}

// MoveNode reassigns v to community c, updating all aggregates in
// O(deg(v)). c == NCommunities() appends a fresh slot; the slot count can
// never exceed the vertex count.
func (b *base) MoveNode(v, c int) error {
	n := b.g.NumNodes()
	if v < 0 || v >= n {
		return fmt.Errorf("%w: vertex %d outside [0,%d)", ErrInvalidArgument, v, n)
	}
	if c < 0 || c > b.nComms {
		return fmt.Errorf("%w: community %d outside [0,%d]", ErrInvalidArgument, c, b.nComms)
	}
	if c == b.nComms {
		if b.nComms >= n {
			return fmt.Errorf("%w: cannot grow beyond %d communities", ErrInvalidArgument, n)
		}
		b.nComms++
		b.weightIn = append(b.weightIn, 0)
		b.weightFrom = append(b.weightFrom, 0)
		b.weightTo = append(b.weightTo, 0)
		b.csize = append(b.csize, 0)
		b.cnodes = append(b.cnodes, 0)
	}

	old := b.membership[v]
	if old == c {
		return nil
	}

	toOld, fromOld, toNew, fromNew := b.weightsToComms(v, old, c)
	sl := b.g.SelfLoop(v)
	nw := b.g.NodeWeight(v)

	remOld := toOld + sl
	addNew := toNew + sl
	if b.g.Directed() {
		remOld += fromOld
		addNew += fromNew
	}

	b.totalPairs -= pairs(b.csize[old]) + pairs(b.csize[c])

	b.weightIn[old] -= remOld
	b.weightFrom[old] -= b.g.StrengthOut(v)
	b.weightTo[old] -= b.g.StrengthIn(v)
	b.csize[old] -= nw
	b.cnodes[old]--
	if b.cnodes[old] == 0 {
		b.nUsed--
		b.empty = append(b.empty, old)
	}

	if b.cnodes[c] == 0 {
		b.nUsed++
	}
	b.weightIn[c] += addNew
	b.weightFrom[c] += b.g.StrengthOut(v)
	b.weightTo[c] += b.g.StrengthIn(v)
	b.csize[c] += nw
	b.cnodes[c]++

	b.totalPairs += pairs(b.csize[old]) + pairs(b.csize[c])
	b.totalIn += addNew - remOld

	b.membership[v] = c
	return nil
}

// SetMembership replaces the membership vector and recomputes aggregates.
func (b *base) SetMembership(membership []int) error {
	return b.reset(membership)
}

// RenumberCommunities compacts community ids to a dense zero-based range.
func (b *base) RenumberCommunities() {
	newID := make([]int, b.nComms)
	next := 0
	for c := 0; c < b.nComms; c++ {
		if b.cnodes[c] > 0 {
			newID[c] = next
			next++
		} else {
			newID[c] = -1
		}
	}
	memb := make([]int, len(b.membership))
	for v, c := range b.membership {
		memb[v] = newID[c]
	}
	// reset cannot fail on a relabelling of a valid membership
	_ = b.reset(memb)
}

// RenumberCommunitiesFixed compacts community ids while keeping every
// fixed vertex on its initial community id.
func (b *base) RenumberCommunitiesFixed(initial []int, isFixed []bool) {
	newID := make([]int, b.nComms)
	for c := range newID {
		newID[c] = -1
	}
	reserved := make(map[int]bool)
	for v, fixed := range isFixed {
		if fixed {
			newID[b.membership[v]] = initial[v]
			reserved[initial[v]] = true
		}
	}
	next := 0
	for c := 0; c < b.nComms; c++ {
		if b.cnodes[c] == 0 || newID[c] >= 0 {
			continue
		}
		for reserved[next] {
			next++
		}
		newID[c] = next
		next++
	}
	memb := make([]int, len(b.membership))
	for v, c := range b.membership {
		memb[v] = newID[c]
	}
	_ = b.reset(memb)
}

// cloneBase deep-copies the aggregate state; the graph is shared read-only.
func (b *base) cloneBase() *base {
	return &base{
		g:          b.g,
		membership: append([]int(nil), b.membership...),
		nComms:     b.nComms,
		nUsed:      b.nUsed,
		empty:      append([]int(nil), b.empty...),
		weightIn:   append([]float64(nil), b.weightIn...),
		weightFrom: append([]float64(nil), b.weightFrom...),
		weightTo:   append([]float64(nil), b.weightTo...),
		csize:      append([]float64(nil), b.csize...),
		cnodes:     append([]int(nil), b.cnodes...),
		totalIn:    b.totalIn,
		totalPairs: b.totalPairs,
	}
}
