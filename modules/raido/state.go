package raido

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/raido/navmesh"
	"github.com/aukilabs/raido/scene"
	"github.com/golang/geo/r2"
)

const (
	// No navigation index was built yet.
	ErrTypeNotReady = "navigation_not_ready"
)

// Options configures how navigation indexes are built and queried.
type Options struct {
	// Overrides the minimum region size of scenes when greater than 0.
	MinimumSize float64

	// The maximum number of frontier pops of a path search.
	MaxIterations int

	// The heuristic used when a query does not name one.
	Heuristic string

	AdjacencyMode navmesh.AdjacencyMode
}

// Navigation is a navigation index built from a scene. It is never modified
// once built.
type Navigation struct {
	Index   *navmesh.Index
	Scene   *scene.Scene
	BuiltAt time.Time
}

// RegionInfo describes the leaf region containing a point.
type RegionInfo struct {
	BuildID string
	Leaf    *navmesh.Leaf
}

// State owns the current navigation index. Rebuilds swap the whole index at
// once: queries started before a swap complete on the index they started
// with.
type State struct {
	opts             Options
	defaultHeuristic navmesh.Heuristic

	current atomic.Pointer[Navigation]

	buildMutex   sync.Mutex
	rebuildMutex sync.RWMutex
	onRebuild    []func(*Navigation)
}

// NewState returns a state without navigation index.
func NewState(opts Options) (*State, error) {
	h, err := navmesh.ParseHeuristic(opts.Heuristic)
	if err != nil {
		return nil, err
	}

	if opts.MaxIterations <= 0 {
		opts.MaxIterations = navmesh.DefaultMaxIterations
	}

	return &State{
		opts:             opts,
		defaultHeuristic: h,
	}, nil
}

func (s *State) Options() Options {
	return s.opts
}

// OnRebuild registers a function called each time a new navigation index is
// in use.
func (s *State) OnRebuild(f func(*Navigation)) {
	s.rebuildMutex.Lock()
	defer s.rebuildMutex.Unlock()

	s.onRebuild = append(s.onRebuild, f)
}

// Build builds the navigation index of the given scene and makes it the
// current one. The current index is kept when the build fails.
func (s *State) Build(sc *scene.Scene) (*Navigation, error) {
	s.buildMutex.Lock()
	defer s.buildMutex.Unlock()

	start := time.Now()

	minimumSize := sc.MinimumSize
	if s.opts.MinimumSize > 0 {
		minimumSize = s.opts.MinimumSize
	}

	idx, err := navmesh.BuildIndex(sc.Region(), minimumSize, sc.HasObstacle)
	if err != nil {
		return nil, errors.New("building navigation index failed").
			WithType(errors.Type(err)).
			WithTag("minimum_size", minimumSize).
			Wrap(err)
	}

	err = navmesh.BuildAdjacencyGraph(idx, sc.LineOfSight,
		navmesh.WithAdjacencyMode(s.opts.AdjacencyMode))
	if err != nil {
		return nil, errors.New("building navigation graph failed").
			WithType(errors.Type(err)).
			WithTag("build_id", idx.BuildID).
			Wrap(err)
	}

	nav := &Navigation{
		Index:   idx,
		Scene:   sc,
		BuiltAt: time.Now(),
	}
	previous := s.current.Swap(nav)

	stats := idx.Stats()
	entry := logs.WithTag("build_id", idx.BuildID).
		WithTag("leaves", stats.Leaves).
		WithTag("nodes", stats.Nodes).
		WithTag("depth", stats.Depth).
		WithTag("links", stats.Links).
		WithTag("rejected_links", stats.RejectedLinks).
		WithTag("components", stats.Components).
		WithTag("mode", stats.Mode).
		WithTag("duration", time.Since(start))
	if previous != nil {
		entry = entry.WithTag("previous_build_id", previous.Index.BuildID)
	}
	entry.Info("navigation index built")

	s.rebuildMutex.RLock()
	defer s.rebuildMutex.RUnlock()

	for _, f := range s.onRebuild {
		f(nav)
	}
	return nav, nil
}

// Navigation returns the current navigation index.
func (s *State) Navigation() (*Navigation, error) {
	nav := s.current.Load()
	if nav == nil {
		return nil, errors.New("navigation index is not built").
			WithType(ErrTypeNotReady)
	}
	return nav, nil
}

// Ready reports whether a navigation index was built.
func (s *State) Ready() bool {
	return s.current.Load() != nil
}

// FindPath searches a path between two points with the named heuristic. An
// empty name selects the configured heuristic.
func (s *State) FindPath(from, to r2.Point, heuristic string) (navmesh.Path, error) {
	nav, err := s.Navigation()
	if err != nil {
		return navmesh.Path{}, err
	}
	return s.FindPathOn(nav, from, to, heuristic)
}

// FindPathOn is like FindPath but searches the given navigation index. It is
// used to run several queries on the same index.
func (s *State) FindPathOn(nav *Navigation, from, to r2.Point, heuristic string) (navmesh.Path, error) {
	var err error
	h := s.defaultHeuristic
	if heuristic != "" {
		if h, err = navmesh.ParseHeuristic(heuristic); err != nil {
			return navmesh.Path{}, err
		}
	}

	return navmesh.FindPath(nav.Index, from, to,
		navmesh.WithHeuristic(h),
		navmesh.WithMaxIterations(s.opts.MaxIterations),
	)
}

// Region returns the leaf region containing the given point.
func (s *State) Region(at r2.Point) (RegionInfo, error) {
	nav, err := s.Navigation()
	if err != nil {
		return RegionInfo{}, err
	}

	leaf, err := nav.Index.RegionContaining(at)
	if err != nil {
		return RegionInfo{}, err
	}

	return RegionInfo{
		BuildID: nav.Index.BuildID,
		Leaf:    leaf,
	}, nil
}

// GraphInfo returns the statistics of the current navigation index.
func (s *State) GraphInfo() (navmesh.Stats, error) {
	nav, err := s.Navigation()
	if err != nil {
		return navmesh.Stats{}, err
	}
	return nav.Index.Stats(), nil
}
