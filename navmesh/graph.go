package navmesh

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/golang/geo/r2"
)

// SightFunc reports whether the straight segment going from a to b is free
// of obstacles.
type SightFunc func(a, b r2.Point) bool

// AdjacencyMode controls how accepted links are stored.
type AdjacencyMode int

const (
	// Symmetric inserts every accepted link on both leaves.
	Symmetric AdjacencyMode = iota

	// Directed only inserts the link on the receiving leaf of each
	// connection. Both leaves still end up linked because every sibling
	// pair is visited in both orders.
	Directed
)

func (m AdjacencyMode) String() string {
	if m == Directed {
		return "directed"
	}
	return "symmetric"
}

// Leaf is a node of the navigation graph. Neighbors are ids into
// Index.Leaves.
type Leaf struct {
	ID       LeafID
	Region   Region
	Location Direction
	Depth    int

	neighbors   []LeafID
	neighborSet map[LeafID]struct{}
}

func newLeaf(n *Node) *Leaf {
	return &Leaf{
		ID:       n.leaf,
		Region:   n.region,
		Location: n.location,
		Depth:    n.depth,
	}
}

// Neighbors returns the ids of the leaves reachable from this one in one
// step. The slice must not be modified.
func (l *Leaf) Neighbors() []LeafID {
	return l.neighbors
}

// HasNeighbor reports whether id is a neighbor of the leaf.
func (l *Leaf) HasNeighbor(id LeafID) bool {
	_, ok := l.neighborSet[id]
	return ok
}

func (l *Leaf) addNeighbor(id LeafID) bool {
	if l.HasNeighbor(id) {
		return false
	}

	if l.neighborSet == nil {
		l.neighborSet = make(map[LeafID]struct{})
	}
	l.neighborSet[id] = struct{}{}
	l.neighbors = append(l.neighbors, id)
	return true
}

type graphStats struct {
	mode        AdjacencyMode
	links       int
	rejected    int
	sightChecks int
	duration    time.Duration
}

// GraphOption configures BuildAdjacencyGraph.
type GraphOption func(*graphBuilder)

// WithAdjacencyMode sets how accepted links are stored. Default is
// Symmetric.
func WithAdjacencyMode(m AdjacencyMode) GraphOption {
	return func(b *graphBuilder) {
		b.mode = m
	}
}

// BuildAdjacencyGraph links the leaves of the index that touch each other
// and have a clear line of sight between their centers. It must be called
// exactly once, after BuildIndex and before any search.
func BuildAdjacencyGraph(idx *Index, lineOfSight SightFunc, options ...GraphOption) error {
	if idx == nil {
		return errors.New("index is nil").WithType(ErrTypeInvalidIndex)
	}

	if idx.graphBuilt {
		return errors.New("adjacency graph is already built").
			WithType(ErrTypeInvalidIndex).
			WithTag("build_id", idx.BuildID)
	}

	if lineOfSight == nil {
		return errors.New("line of sight query is missing").
			WithType(ErrTypeInvalidIndex)
	}

	b := graphBuilder{
		idx:         idx,
		lineOfSight: lineOfSight,
		rejected:    make(map[[2]LeafID]struct{}),
	}
	for _, o := range options {
		o(&b)
	}

	start := time.Now()
	if err := b.buildGraph(&idx.root); err != nil {
		return errors.New("building adjacency graph failed").
			WithTag("build_id", idx.BuildID).
			Wrap(err)
	}

	idx.graphBuilt = true
	idx.graph = graphStats{
		mode:        b.mode,
		links:       b.links,
		rejected:    len(b.rejected),
		sightChecks: b.sightChecks,
		duration:    time.Since(start),
	}

	instrumentGraphBuild(start, b.links, len(b.rejected))
	return nil
}

// GraphBuilt reports whether BuildAdjacencyGraph completed on the index.
func (idx *Index) GraphBuilt() bool {
	return idx.graphBuilt
}

type graphBuilder struct {
	idx         *Index
	lineOfSight SightFunc
	mode        AdjacencyMode

	links       int
	sightChecks int
	rejected    map[[2]LeafID]struct{}
}

// buildGraph connects every pair of siblings of n, then recurses into the
// children that were split.
func (b *graphBuilder) buildGraph(n *Node) error {
	for i := range n.children {
		child := n.childAt(i)

		for j := range n.children {
			if i == j {
				continue
			}
			other := n.childAt(j)

			rel, err := RelativeDirection(child.location, other.location)
			if err != nil {
				return err
			}

			if err := b.connectChildrenTo(child, other, rel); err != nil {
				return err
			}
		}

		if child.HasChildren() {
			if err := b.buildGraph(child); err != nil {
				return err
			}
		}
	}
	return nil
}

// connectChildrenTo walks down to the leaves of self that face rel and
// offers each of them to other.
func (b *graphBuilder) connectChildrenTo(self, other *Node, rel Direction) error {
	if self.IsLeaf() {
		return b.connectToMe(other, self, rel.Opposite())
	}

	targets, err := facing(self, rel)
	if err != nil {
		return err
	}

	for _, t := range targets {
		if err := b.connectChildrenTo(t, other, rel); err != nil {
			return err
		}
	}
	return nil
}

// connectToMe walks down to the leaves of self that face from and links
// them with leaf.
func (b *graphBuilder) connectToMe(self, leaf *Node, from Direction) error {
	if !leaf.IsLeaf() {
		return errors.New("connecting from a non leaf node").
			WithType(ErrTypeMalformedIndex).
			WithTag("node", leaf.String())
	}

	if self.IsLeaf() {
		b.link(self.leaf, leaf.leaf)
		return nil
	}

	targets, err := facing(self, from)
	if err != nil {
		return err
	}

	for _, t := range targets {
		if err := b.connectToMe(t, leaf, from); err != nil {
			return err
		}
	}
	return nil
}

func (b *graphBuilder) link(receiverID, candidateID LeafID) {
	receiver := b.idx.leaves[receiverID]
	candidate := b.idx.leaves[candidateID]

	if receiver.HasNeighbor(candidateID) {
		return
	}

	key := [2]LeafID{min(receiverID, candidateID), max(receiverID, candidateID)}
	if _, ok := b.rejected[key]; ok {
		return
	}

	a := receiver.Region.Center()
	c := candidate.Region.Center()
	b.sightChecks++
	if !b.lineOfSight(a, c) || !b.lineOfSight(c, a) {
		b.rejected[key] = struct{}{}
		return
	}

	if receiver.addNeighbor(candidateID) {
		b.links++
	}

	if b.mode == Symmetric && candidate.addNeighbor(receiverID) {
		b.links++
	}
}

// facing returns the children of n lying in direction d: one quadrant for a
// composed direction, the two quadrants of the matching side otherwise.
func facing(n *Node, d Direction) ([]*Node, error) {
	if d.IsComposed() {
		c, err := n.Child(d)
		if err != nil {
			return nil, err
		}
		return []*Node{c}, nil
	}

	c1, c2, err := n.EdgeChildren(d)
	if err != nil {
		return nil, err
	}
	return []*Node{c1, c2}, nil
}

// AsymmetricLinks returns the pairs (a, b) where a lists b as a neighbor but
// b does not list a.
func (idx *Index) AsymmetricLinks() [][2]LeafID {
	var pairs [][2]LeafID
	for _, l := range idx.leaves {
		for _, n := range l.neighbors {
			if !idx.leaves[n].HasNeighbor(l.ID) {
				pairs = append(pairs, [2]LeafID{l.ID, n})
			}
		}
	}
	return pairs
}
