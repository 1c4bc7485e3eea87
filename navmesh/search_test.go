package navmesh

import (
	"container/heap"
	"math/rand"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

func enclosingWalls() []Region {
	return []Region{
		NewRegion(24, 24, 16, 4),
		NewRegion(24, 36, 16, 4),
		NewRegion(24, 24, 4, 16),
		NewRegion(36, 24, 4, 16),
	}
}

func requireValidPath(t *testing.T, idx *Index, p Path, start, goal r2.Point) {
	require.NotEmpty(t, p.Leaves)
	require.Len(t, p.Regions, len(p.Leaves))
	require.Equal(t, idx.BuildID, p.BuildID)
	require.True(t, p.Regions[0].Contains(start))
	require.True(t, p.Regions[len(p.Regions)-1].Contains(goal))

	for i := 1; i < len(p.Leaves); i++ {
		prev, ok := idx.Leaf(p.Leaves[i-1])
		require.True(t, ok)
		require.True(t, prev.HasNeighbor(p.Leaves[i]))
	}
}

func shortestHops(t *testing.T, idx *Index, from, to LeafID) int {
	shortest := path.DijkstraFrom(simple.Node(from), NewGraphView(idx))
	nodes, _ := shortest.To(int64(to))
	require.NotEmpty(t, nodes)
	return len(nodes) - 1
}

func TestFindPath(t *testing.T) {
	t.Run("open field returns a single region", func(t *testing.T) {
		idx := buildNavigation(t, NewRegion(0, 0, 100, 100), 1, clearSight, nil)
		start := r2.Point{X: 1, Y: 1}
		goal := r2.Point{X: 99, Y: 99}

		p, err := FindPath(idx, start, goal)
		require.NoError(t, err)
		requireValidPath(t, idx, p, start, goal)
		require.Len(t, p.Regions, 1)
		require.Equal(t, NewRegion(0, 0, 100, 100), p.Regions[0])
		require.Zero(t, p.Hops())
		require.Equal(t, 1, p.Iterations)
		require.Equal(t, []r2.Point{{X: 50, Y: 50}}, p.Waypoints())
	})

	t.Run("center obstacle is walked around", func(t *testing.T) {
		obstacle := centerObstacle()
		idx := buildNavigation(t, NewRegion(0, 0, 100, 100), 30, boxSight(obstacle), []Region{obstacle})
		start := r2.Point{X: 1, Y: 1}
		goal := r2.Point{X: 99, Y: 99}

		p, err := FindPath(idx, start, goal)
		require.NoError(t, err)
		requireValidPath(t, idx, p, start, goal)
		require.GreaterOrEqual(t, p.Hops(), 2)
		require.Equal(t, shortestHops(t, idx, p.Leaves[0], p.Leaves[len(p.Leaves)-1]), p.Hops())
		require.Equal(t, 4, p.Hops())
	})

	t.Run("adjacent leaves with clear sight are one hop away", func(t *testing.T) {
		rnd := rand.New(rand.NewSource(3))
		bounds := NewRegion(0, 0, 64, 64)
		idx := buildNavigation(t, bounds, 2, clearSight, randomBoxes(rnd, bounds, 4))

		var checked int
		for _, a := range idx.Leaves() {
			for _, b := range idx.Leaves() {
				if a.ID == b.ID || !sharesEdge(a.Region, b.Region) {
					continue
				}

				p, err := FindPath(idx, a.Region.Center(), b.Region.Center())
				require.NoError(t, err)
				require.Equal(t, 1, p.Hops())
				require.Equal(t, []LeafID{a.ID, b.ID}, p.Leaves)
				checked++
			}
		}
		require.NotZero(t, checked)
	})

	t.Run("enclosed goal returns no path", func(t *testing.T) {
		walls := enclosingWalls()
		idx := buildNavigation(t, NewRegion(0, 0, 64, 64), 1, boxSight(walls...), walls)

		_, err := FindPath(idx, r2.Point{X: 2, Y: 2}, r2.Point{X: 31, Y: 31}, WithMaxIterations(1000000))
		require.Error(t, err)
		require.Equal(t, ErrTypeNoPath, errors.Type(err))
	})

	t.Run("enclosed start reaches an enclosed goal", func(t *testing.T) {
		walls := enclosingWalls()
		idx := buildNavigation(t, NewRegion(0, 0, 64, 64), 1, boxSight(walls...), walls)
		start := r2.Point{X: 29, Y: 29}
		goal := r2.Point{X: 35, Y: 35}

		p, err := FindPath(idx, start, goal)
		require.NoError(t, err)
		requireValidPath(t, idx, p, start, goal)
	})

	t.Run("manhattan heuristic returns a valid path", func(t *testing.T) {
		obstacle := centerObstacle()
		idx := buildNavigation(t, NewRegion(0, 0, 100, 100), 30, boxSight(obstacle), []Region{obstacle})
		start := r2.Point{X: 99, Y: 1}
		goal := r2.Point{X: 1, Y: 99}

		p, err := FindPath(idx, start, goal, WithHeuristic(Manhattan))
		require.NoError(t, err)
		requireValidPath(t, idx, p, start, goal)
		require.GreaterOrEqual(t, p.Hops(), shortestHops(t, idx, p.Leaves[0], p.Leaves[len(p.Leaves)-1]))
	})

	t.Run("out of bounds points return an error", func(t *testing.T) {
		idx := buildNavigation(t, NewRegion(0, 0, 100, 100), 1, clearSight, nil)

		_, err := FindPath(idx, r2.Point{X: -5, Y: 1}, r2.Point{X: 50, Y: 50})
		require.Error(t, err)
		require.Equal(t, ErrTypeOutOfBounds, errors.Type(err))

		_, err = FindPath(idx, r2.Point{X: 50, Y: 50}, r2.Point{X: 101, Y: 50})
		require.Error(t, err)
		require.Equal(t, ErrTypeOutOfBounds, errors.Type(err))
	})

	t.Run("search without graph returns an error", func(t *testing.T) {
		idx, err := BuildIndex(NewRegion(0, 0, 100, 100), 1, boxObstacles())
		require.NoError(t, err)

		_, err = FindPath(idx, r2.Point{X: 1, Y: 1}, r2.Point{X: 2, Y: 2})
		require.Error(t, err)
		require.Equal(t, ErrTypeInvalidIndex, errors.Type(err))
	})
}

func TestFindPathIterationBudget(t *testing.T) {
	walls := enclosingWalls()
	idx := buildNavigation(t, NewRegion(0, 0, 64, 64), 1, boxSight(walls...), walls)

	for _, limit := range []int{1, 5, 50} {
		var pops int
		_, err := FindPath(idx, r2.Point{X: 2, Y: 2}, r2.Point{X: 31, Y: 31},
			WithMaxIterations(limit),
			WithPopHook(func(LeafID) { pops++ }),
		)
		require.Error(t, err)
		require.Equal(t, ErrTypeIterationBudgetExceeded, errors.Type(err))
		require.Equal(t, limit, pops)
	}
}

func TestFindPathRandomLayouts(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	bounds := NewRegion(0, 0, 128, 128)

	for i := 0; i < 10; i++ {
		boxes := randomBoxes(rnd, bounds, 2+rnd.Intn(6))
		idx := buildNavigation(t, bounds, 2, boxSight(boxes...), boxes)

		start := r2.Point{X: rnd.Float64() * 128, Y: rnd.Float64() * 128}
		goal := r2.Point{X: rnd.Float64() * 128, Y: rnd.Float64() * 128}

		startLeaf, err := idx.RegionContaining(start)
		require.NoError(t, err)
		goalLeaf, err := idx.RegionContaining(goal)
		require.NoError(t, err)

		shortest := path.DijkstraFrom(simple.Node(startLeaf.ID), NewGraphView(idx))
		nodes, _ := shortest.To(int64(goalLeaf.ID))

		p, err := FindPath(idx, start, goal)
		if len(nodes) == 0 {
			require.Error(t, err)
			require.Equal(t, ErrTypeNoPath, errors.Type(err))
			continue
		}

		require.NoError(t, err)
		requireValidPath(t, idx, p, start, goal)
		require.GreaterOrEqual(t, p.Hops(), len(nodes)-1)
	}
}

func TestFrontierOrder(t *testing.T) {
	var s search

	s.push(&pathStep{leaf: 1}, 1, 1)
	s.push(&pathStep{leaf: 2}, 0, 2)
	s.push(&pathStep{leaf: 3}, 2, 0)
	s.push(&pathStep{leaf: 4}, 1, 0.5)
	s.push(&pathStep{leaf: 5}, 2, 0)

	var order []LeafID
	for s.frontier.Len() != 0 {
		e := heap.Pop(&s.frontier).(*frontierEntry)
		order = append(order, e.step.leaf)
	}
	require.Equal(t, []LeafID{4, 1, 2, 3, 5}, order)
}

func TestParseHeuristic(t *testing.T) {
	h, err := ParseHeuristic("")
	require.NoError(t, err)
	require.Equal(t, float64(5), h(r2.Point{}, r2.Point{X: 3, Y: 4}))

	h, err = ParseHeuristic("Manhattan")
	require.NoError(t, err)
	require.Equal(t, float64(7), h(r2.Point{}, r2.Point{X: 3, Y: 4}))

	_, err = ParseHeuristic("dijkstra")
	require.Error(t, err)
	require.Equal(t, ErrTypeUnknownHeuristic, errors.Type(err))
}
