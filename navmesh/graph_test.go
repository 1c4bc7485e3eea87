package navmesh

import (
	"math/rand"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/require"
)

func buildNavigation(t *testing.T, bounds Region, minimumSize float64, sight SightFunc, boxes []Region, options ...GraphOption) *Index {
	idx, err := BuildIndex(bounds, minimumSize, boxObstacles(boxes...))
	require.NoError(t, err)

	err = BuildAdjacencyGraph(idx, sight, options...)
	require.NoError(t, err)
	return idx
}

// sharesEdge reports whether both regions touch along a segment of positive
// length.
func sharesEdge(a, b Region) bool {
	overlap := func(lo1, hi1, lo2, hi2 float64) bool {
		return min(hi1, hi2)-max(lo1, lo2) > 0
	}

	if a.MaxX() == b.MinX() || b.MaxX() == a.MinX() {
		return overlap(a.MinY(), a.MaxY(), b.MinY(), b.MaxY())
	}
	if a.MaxY() == b.MinY() || b.MaxY() == a.MinY() {
		return overlap(a.MinX(), a.MaxX(), b.MinX(), b.MaxX())
	}
	return false
}

func TestBuildAdjacencyGraph(t *testing.T) {
	t.Run("siblings of an open split are all linked", func(t *testing.T) {
		idx := buildNavigation(t, NewRegion(0, 0, 100, 100), 60, clearSight, []Region{centerObstacle()})
		require.Len(t, idx.Leaves(), 4)

		for _, l := range idx.Leaves() {
			require.Len(t, l.Neighbors(), 3)
			require.False(t, l.HasNeighbor(l.ID))
		}
	})

	t.Run("blocked line of sight rejects the link", func(t *testing.T) {
		idx := buildNavigation(t, NewRegion(0, 0, 100, 100), 60, boxSight(centerObstacle()), []Region{centerObstacle()})

		sw, err := idx.RegionContaining(r2.Point{X: 10, Y: 10})
		require.NoError(t, err)
		ne, err := idx.RegionContaining(r2.Point{X: 90, Y: 90})
		require.NoError(t, err)
		nw, err := idx.RegionContaining(r2.Point{X: 10, Y: 90})
		require.NoError(t, err)

		require.False(t, sw.HasNeighbor(ne.ID))
		require.False(t, ne.HasNeighbor(sw.ID))
		require.True(t, sw.HasNeighbor(nw.ID))

		stats := idx.Stats()
		require.True(t, stats.GraphBuilt)
		require.Equal(t, 2, stats.RejectedLinks)
		require.Equal(t, 8, stats.Links)
		require.Equal(t, 1, stats.Components)
		require.Zero(t, stats.AsymmetricLinks)
	})

	t.Run("building twice returns an error", func(t *testing.T) {
		idx := buildNavigation(t, NewRegion(0, 0, 100, 100), 60, clearSight, nil)

		err := BuildAdjacencyGraph(idx, clearSight)
		require.Error(t, err)
		require.Equal(t, ErrTypeInvalidIndex, errors.Type(err))
	})

	t.Run("missing line of sight returns an error", func(t *testing.T) {
		idx, err := BuildIndex(NewRegion(0, 0, 100, 100), 1, boxObstacles())
		require.NoError(t, err)

		err = BuildAdjacencyGraph(idx, nil)
		require.Error(t, err)
		require.False(t, idx.GraphBuilt())
	})
}

func TestBuildAdjacencyGraphLinksAdjacentLeaves(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	bounds := NewRegion(0, 0, 64, 64)

	for i := 0; i < 10; i++ {
		boxes := randomBoxes(rnd, bounds, 1+rnd.Intn(5))
		idx := buildNavigation(t, bounds, 2, clearSight, boxes)

		leaves := idx.Leaves()
		for _, a := range leaves {
			for _, b := range leaves {
				if a.ID != b.ID && sharesEdge(a.Region, b.Region) {
					require.True(t, a.HasNeighbor(b.ID), "%s is not linked to %s", a.Region, b.Region)
				}
			}
		}
	}
}

func TestBuildAdjacencyGraphSymmetry(t *testing.T) {
	modes := []AdjacencyMode{Symmetric, Directed}

	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			rnd := rand.New(rand.NewSource(21))
			bounds := NewRegion(0, 0, 64, 64)

			for i := 0; i < 10; i++ {
				boxes := randomBoxes(rnd, bounds, 1+rnd.Intn(5))
				idx := buildNavigation(t, bounds, 2, boxSight(boxes...), boxes, WithAdjacencyMode(mode))

				require.Empty(t, idx.AsymmetricLinks())
				require.Equal(t, mode.String(), idx.Stats().Mode)
			}
		})
	}
}

func TestGraphView(t *testing.T) {
	idx := buildNavigation(t, NewRegion(0, 0, 100, 100), 60, boxSight(centerObstacle()), []Region{centerObstacle()})
	view := NewGraphView(idx)

	require.Equal(t, 4, view.Nodes().Len())
	require.Nil(t, view.Node(4))
	require.NotNil(t, view.Node(0))

	for _, l := range idx.Leaves() {
		require.Equal(t, len(l.Neighbors()), view.From(int64(l.ID)).Len())
		require.Equal(t, len(l.Neighbors()), view.To(int64(l.ID)).Len())

		for _, n := range l.Neighbors() {
			require.True(t, view.HasEdgeFromTo(int64(l.ID), int64(n)))
			require.True(t, view.HasEdgeBetween(int64(n), int64(l.ID)))

			e := view.Edge(int64(l.ID), int64(n))
			require.NotNil(t, e)
			require.Equal(t, int64(n), e.To().ID())
		}
	}

	require.Equal(t, 0, view.From(99).Len())
}
