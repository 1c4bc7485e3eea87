package navmesh

import (
	"container/heap"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/golang/geo/r2"
)

// DefaultMaxIterations is the default number of frontier pops after which a
// search gives up.
const DefaultMaxIterations = 100000

// Path is the result of a successful search.
type Path struct {
	// The id of the index build the path was computed on.
	BuildID string

	// The leaves to go through, start and goal leaves included.
	Leaves []LeafID

	// The regions of Leaves.
	Regions []Region

	// The number of frontier pops the search performed.
	Iterations int
}

// Hops returns the number of edges of the path.
func (p Path) Hops() int {
	if len(p.Leaves) == 0 {
		return 0
	}
	return len(p.Leaves) - 1
}

// Waypoints returns the centers of the path regions.
func (p Path) Waypoints() []r2.Point {
	points := make([]r2.Point, len(p.Regions))
	for i, r := range p.Regions {
		points[i] = r.Center()
	}
	return points
}

// SearchOption configures FindPath.
type SearchOption func(*searchOptions)

type searchOptions struct {
	heuristic     Heuristic
	maxIterations int
	onPop         func(LeafID)
}

// WithHeuristic sets the heuristic. Default is Euclidean.
func WithHeuristic(h Heuristic) SearchOption {
	return func(o *searchOptions) {
		if h != nil {
			o.heuristic = h
		}
	}
}

// WithMaxIterations sets the maximum number of frontier pops. Values lower
// than 1 keep the default.
func WithMaxIterations(n int) SearchOption {
	return func(o *searchOptions) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithPopHook sets a function called with the leaf of each popped frontier
// entry.
func WithPopHook(f func(LeafID)) SearchOption {
	return func(o *searchOptions) {
		o.onPop = f
	}
}

// FindPath searches the navigation graph for a sequence of leaves going from
// the leaf containing start to a leaf containing goal.
//
// Edges have a unit cost. The frontier is ordered by g+h and entries with an
// equal estimate are popped in insertion order.
func FindPath(idx *Index, start, goal r2.Point, options ...SearchOption) (Path, error) {
	opts := searchOptions{
		heuristic:     Euclidean,
		maxIterations: DefaultMaxIterations,
	}
	for _, o := range options {
		o(&opts)
	}

	if idx == nil || !idx.graphBuilt {
		return Path{}, errors.New("adjacency graph is not built").
			WithType(ErrTypeInvalidIndex)
	}

	startTime := time.Now()

	startLeaf, err := idx.RegionContaining(start)
	if err != nil {
		err = errors.New("resolving start region failed").
			WithType(errors.Type(err)).
			Wrap(err)
		instrumentPathSearch(startTime, err, 0)
		return Path{}, err
	}

	if !idx.Bounds().Contains(goal) {
		err := errors.New("goal is outside of the indexed region").
			WithType(ErrTypeOutOfBounds).
			WithTag("x", goal.X).
			WithTag("y", goal.Y).
			WithTag("bounds", idx.Bounds().String())
		instrumentPathSearch(startTime, err, 0)
		return Path{}, err
	}

	s := search{
		idx:      idx,
		goal:     goal,
		opts:     opts,
		expanded: make([]bool, len(idx.leaves)),
	}
	s.push(&pathStep{leaf: startLeaf.ID}, 0, opts.heuristic(startLeaf.Region.Center(), start))

	path, err := s.run()
	instrumentPathSearch(startTime, err, s.iterations)
	if err != nil {
		return Path{}, err
	}
	return path, nil
}

type search struct {
	idx        *Index
	goal       r2.Point
	opts       searchOptions
	frontier   frontier
	expanded   []bool
	seq        uint64
	iterations int
}

func (s *search) run() (Path, error) {
	for s.frontier.Len() != 0 {
		if s.iterations >= s.opts.maxIterations {
			return Path{}, errors.New("search iteration budget exceeded").
				WithType(ErrTypeIterationBudgetExceeded).
				WithTag("max_iterations", s.opts.maxIterations).
				WithTag("frontier_size", s.frontier.Len())
		}
		s.iterations++

		current := heap.Pop(&s.frontier).(*frontierEntry)
		leaf := s.idx.leaves[current.step.leaf]
		if s.opts.onPop != nil {
			s.opts.onPop(leaf.ID)
		}

		if leaf.Region.Contains(s.goal) {
			return s.path(current.step), nil
		}

		if s.expanded[leaf.ID] {
			continue
		}
		s.expanded[leaf.ID] = true

		g := current.g + 1
		for _, id := range leaf.neighbors {
			neighbor := s.idx.leaves[id]
			step := &pathStep{leaf: id, prev: current.step, length: current.step.length + 1}
			s.push(step, g, s.opts.heuristic(neighbor.Region.Center(), s.goal))
		}
	}

	return Path{}, errors.New("no path to goal").
		WithType(ErrTypeNoPath).
		WithTag("x", s.goal.X).
		WithTag("y", s.goal.Y).
		WithTag("iterations", s.iterations)
}

func (s *search) push(step *pathStep, g int, h float64) {
	heap.Push(&s.frontier, &frontierEntry{
		step: step,
		g:    g,
		h:    h,
		seq:  s.seq,
	})
	s.seq++
}

func (s *search) path(last *pathStep) Path {
	n := last.length + 1
	p := Path{
		BuildID:    s.idx.BuildID,
		Leaves:     make([]LeafID, n),
		Regions:    make([]Region, n),
		Iterations: s.iterations,
	}

	for step, i := last, n-1; step != nil; step, i = step.prev, i-1 {
		p.Leaves[i] = step.leaf
		p.Regions[i] = s.idx.leaves[step.leaf].Region
	}
	return p
}

// pathStep is a node of the path followed by a frontier entry. Entries
// expanded from the same leaf share their path prefix.
type pathStep struct {
	leaf   LeafID
	prev   *pathStep
	length int
}

type frontierEntry struct {
	step *pathStep
	g    int
	h    float64
	seq  uint64
}

func (e *frontierEntry) cost() float64 {
	return float64(e.g) + e.h
}

// frontier is a min-heap ordered by cost then insertion sequence, which pops
// entries in the same order as a list kept sorted by inserting each entry
// after the last one with a lower or equal cost.
type frontier []*frontierEntry

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	ci, cj := f[i].cost(), f[j].cost()
	if ci != cj {
		return ci < cj
	}
	return f[i].seq < f[j].seq
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)   { *f = append(*f, x.(*frontierEntry)) }

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*f = old[:n-1]
	return e
}
