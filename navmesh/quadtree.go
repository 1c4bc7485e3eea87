package navmesh

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/golang/geo/r2"
	"github.com/google/uuid"
)

// ObstacleFunc reports whether a region contains at least one obstacle.
type ObstacleFunc func(Region) bool

// LeafID is the position of a leaf in Index.Leaves.
type LeafID int

// NoLeaf is the leaf id of internal nodes.
const NoLeaf LeafID = -1

// Node is a node of the quad-decomposition tree. A node is either a leaf or
// owns exactly four children ordered as Quadrants.
type Node struct {
	region   Region
	location Direction
	depth    int
	leaf     LeafID
	children []Node
}

func (n *Node) Region() Region      { return n.region }
func (n *Node) Location() Direction { return n.location }
func (n *Node) Depth() int          { return n.depth }
func (n *Node) IsLeaf() bool        { return len(n.children) == 0 }
func (n *Node) LeafID() LeafID      { return n.leaf }
func (n *Node) Children() []Node    { return n.children }
func (n *Node) HasChildren() bool   { return len(n.children) != 0 }
func (n *Node) childAt(i int) *Node { return &n.children[i] }
func (n *Node) String() string      { return n.location.String() + n.region.String() }

func (n *Node) quadrant(d Direction) (*Node, error) {
	if n.IsLeaf() {
		return nil, errors.New("leaf has no quadrant").
			WithType(ErrTypeMalformedIndex).
			WithTag("node", n.String())
	}

	i, err := quadrantIndex(d)
	if err != nil {
		return nil, err
	}
	return n.childAt(i), nil
}

// Child returns the child located in the given composed direction.
func (n *Node) Child(d Direction) (*Node, error) {
	return n.quadrant(d)
}

// EdgeChildren returns the two children sharing the side facing the given
// simple direction.
func (n *Node) EdgeChildren(d Direction) (*Node, *Node, error) {
	q1, q2, err := EdgeQuadrants(d)
	if err != nil {
		return nil, nil, err
	}

	c1, err := n.quadrant(q1)
	if err != nil {
		return nil, nil, err
	}
	c2, err := n.quadrant(q2)
	if err != nil {
		return nil, nil, err
	}
	return c1, c2, nil
}

// Index is a quad-decomposition of a bounding region: regions containing
// obstacles are split into four quadrants until they become smaller than the
// minimum size. Once built, the tree is never modified and can be read from
// multiple goroutines.
type Index struct {
	// A unique id of this build.
	BuildID string

	root        Node
	minimumSize float64
	leaves      []*Leaf
	nodeCount   int
	maxDepth    int

	graphBuilt bool
	graph      graphStats
}

// BuildIndex builds the quad-decomposition of the given region. hasObstacle
// decides where subdivision happens: empty regions stay single leaves.
func BuildIndex(bounds Region, minimumSize float64, hasObstacle ObstacleFunc) (*Index, error) {
	if minimumSize <= 0 {
		return nil, errors.New("minimum size must be positive").
			WithType(ErrTypeInvalidIndex).
			WithTag("minimum_size", minimumSize)
	}

	if bounds.Width() <= 0 || bounds.Height() <= 0 {
		return nil, errors.New("bounds must have a surface").
			WithType(ErrTypeInvalidIndex).
			WithTag("bounds", bounds.String())
	}

	if hasObstacle == nil {
		return nil, errors.New("obstacle query is missing").
			WithType(ErrTypeInvalidIndex)
	}

	start := time.Now()

	idx := &Index{
		BuildID:     uuid.NewString(),
		minimumSize: minimumSize,
	}
	if err := idx.build(&idx.root, bounds, NoDirection, 0, hasObstacle); err != nil {
		return nil, err
	}

	instrumentIndexBuild(start, len(idx.leaves))
	return idx, nil
}

func (idx *Index) build(n *Node, region Region, location Direction, depth int, hasObstacle ObstacleFunc) error {
	n.region = region
	n.location = location
	n.depth = depth
	n.leaf = NoLeaf
	idx.nodeCount++

	if depth > idx.maxDepth {
		idx.maxDepth = depth
	}

	if region.Width() < idx.minimumSize ||
		region.Height() < idx.minimumSize ||
		!hasObstacle(region) {
		n.leaf = LeafID(len(idx.leaves))
		idx.leaves = append(idx.leaves, newLeaf(n))
		return nil
	}

	n.children = make([]Node, len(Quadrants))
	for i, q := range Quadrants {
		childRegion, err := region.Quadrant(q)
		if err != nil {
			return err
		}

		if err := idx.build(n.childAt(i), childRegion, q, depth+1, hasObstacle); err != nil {
			return err
		}
	}
	return nil
}

// Root returns the root node.
func (idx *Index) Root() *Node {
	return &idx.root
}

// Bounds returns the indexed region.
func (idx *Index) Bounds() Region {
	return idx.root.region
}

// MinimumSize returns the size under which regions are never split.
func (idx *Index) MinimumSize() float64 {
	return idx.minimumSize
}

// Leaves returns the leaves of the tree. The slice must not be modified.
func (idx *Index) Leaves() []*Leaf {
	return idx.leaves
}

// Leaf returns the leaf with the given id.
func (idx *Index) Leaf(id LeafID) (*Leaf, bool) {
	if id < 0 || int(id) >= len(idx.leaves) {
		return nil, false
	}
	return idx.leaves[id], true
}

// Depth returns the depth of the deepest node, the root being at depth 0.
func (idx *Index) Depth() int {
	return idx.maxDepth
}

// NodeCount returns the number of nodes, leaves included.
func (idx *Index) NodeCount() int {
	return idx.nodeCount
}

// NodeFromPoint returns the leaf node containing p. Points on a shared edge
// resolve to the first containing child in Quadrants order.
func (idx *Index) NodeFromPoint(p r2.Point) (*Node, error) {
	n := &idx.root
	if !n.region.Contains(p) {
		return nil, errors.New("point is outside of the indexed region").
			WithType(ErrTypeOutOfBounds).
			WithTag("x", p.X).
			WithTag("y", p.Y).
			WithTag("bounds", n.region.String())
	}

	for !n.IsLeaf() {
		var next *Node
		for i := range n.children {
			if n.children[i].region.Contains(p) {
				next = &n.children[i]
				break
			}
		}

		if next == nil {
			return nil, errors.New("no child contains the point").
				WithType(ErrTypeMalformedIndex).
				WithTag("x", p.X).
				WithTag("y", p.Y).
				WithTag("node", n.String())
		}
		n = next
	}
	return n, nil
}

// RegionContaining returns the leaf containing p.
func (idx *Index) RegionContaining(p r2.Point) (*Leaf, error) {
	n, err := idx.NodeFromPoint(p)
	if err != nil {
		return nil, err
	}
	return idx.leaves[n.leaf], nil
}

// Walk calls fn on every node in depth-first order, parents before
// children. Returning false skips the children of the visited node.
func (idx *Index) Walk(fn func(*Node) bool) {
	walk(&idx.root, fn)
}

func walk(n *Node, fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for i := range n.children {
		walk(&n.children[i], fn)
	}
}
