package navmesh

import (
	"math"
	"math/rand"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/require"
)

func boxObstacles(boxes ...Region) ObstacleFunc {
	return func(r Region) bool {
		for _, b := range boxes {
			if r.OverlapsInterior(b) {
				return true
			}
		}
		return false
	}
}

func clearSight(a, b r2.Point) bool {
	return true
}

// boxSight returns a line of sight query where a segment is blocked when it
// touches any of the boxes.
func boxSight(boxes ...Region) SightFunc {
	return func(a, b r2.Point) bool {
		for _, box := range boxes {
			if segmentTouchesRegion(a, b, box) {
				return false
			}
		}
		return true
	}
}

func segmentTouchesRegion(a, b r2.Point, r Region) bool {
	t0, t1 := 0.0, 1.0
	d := b.Sub(a)

	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return false
			}
			t0 = math.Max(t0, t)
		} else {
			if t < t0 {
				return false
			}
			t1 = math.Min(t1, t)
		}
		return true
	}

	return clip(-d.X, a.X-r.MinX()) &&
		clip(d.X, r.MaxX()-a.X) &&
		clip(-d.Y, a.Y-r.MinY()) &&
		clip(d.Y, r.MaxY()-a.Y) &&
		t0 <= t1
}

func randomBoxes(rnd *rand.Rand, bounds Region, n int) []Region {
	boxes := make([]Region, n)
	for i := range boxes {
		w := 1 + rnd.Float64()*bounds.Width()/8
		h := 1 + rnd.Float64()*bounds.Height()/8
		boxes[i] = NewRegion(
			bounds.MinX()+rnd.Float64()*(bounds.Width()-w),
			bounds.MinY()+rnd.Float64()*(bounds.Height()-h),
			w,
			h,
		)
	}
	return boxes
}

func centerObstacle() Region {
	return NewRegion(45, 45, 10, 10)
}

func TestBuildIndex(t *testing.T) {
	t.Run("empty region is a single leaf", func(t *testing.T) {
		bounds := NewRegion(0, 0, 100, 100)

		idx, err := BuildIndex(bounds, 1, boxObstacles())
		require.NoError(t, err)
		require.NotEmpty(t, idx.BuildID)
		require.Len(t, idx.Leaves(), 1)
		require.Equal(t, bounds, idx.Leaves()[0].Region)
		require.Equal(t, 1, idx.NodeCount())
		require.Equal(t, 0, idx.Depth())
		require.True(t, idx.Root().IsLeaf())
	})

	t.Run("center obstacle splits to depth 2", func(t *testing.T) {
		idx, err := BuildIndex(NewRegion(0, 0, 100, 100), 30, boxObstacles(centerObstacle()))
		require.NoError(t, err)
		require.Equal(t, 2, idx.Depth())
		require.Len(t, idx.Leaves(), 16)
		require.Equal(t, 21, idx.NodeCount())

		for _, l := range idx.Leaves() {
			require.Equal(t, 2, l.Depth)
			require.Equal(t, float64(25), l.Region.Width())
		}
	})

	t.Run("children follow quadrant order", func(t *testing.T) {
		idx, err := BuildIndex(NewRegion(0, 0, 100, 100), 30, boxObstacles(centerObstacle()))
		require.NoError(t, err)

		for i, c := range idx.Root().Children() {
			require.Equal(t, Quadrants[i], c.Location())
		}

		sw, err := idx.Root().Child(SW)
		require.NoError(t, err)
		require.Equal(t, NewRegion(0, 0, 50, 50), sw.Region())

		c1, c2, err := idx.Root().EdgeChildren(E)
		require.NoError(t, err)
		require.Equal(t, NE, c1.Location())
		require.Equal(t, SE, c2.Location())
	})

	t.Run("invalid parameters return an error", func(t *testing.T) {
		_, err := BuildIndex(NewRegion(0, 0, 100, 100), 0, boxObstacles())
		require.Error(t, err)
		require.Equal(t, ErrTypeInvalidIndex, errors.Type(err))

		_, err = BuildIndex(NewRegion(0, 0, 0, 100), 1, boxObstacles())
		require.Error(t, err)
		require.Equal(t, ErrTypeInvalidIndex, errors.Type(err))

		_, err = BuildIndex(NewRegion(0, 0, 100, 100), 1, nil)
		require.Error(t, err)
		require.Equal(t, ErrTypeInvalidIndex, errors.Type(err))
	})
}

func TestBuildIndexTiling(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	bounds := NewRegion(-50, 10, 128, 96)

	for i := 0; i < 20; i++ {
		boxes := randomBoxes(rnd, bounds, 1+rnd.Intn(6))
		minimumSize := 1 + rnd.Float64()*8

		idx, err := BuildIndex(bounds, minimumSize, boxObstacles(boxes...))
		require.NoError(t, err)

		var area float64
		leaves := idx.Leaves()
		for j, l := range leaves {
			require.Equal(t, LeafID(j), l.ID)
			area += l.Region.Area()

			for _, other := range leaves[j+1:] {
				require.False(t, l.Region.OverlapsInterior(other.Region), "%s overlaps %s", l.Region, other.Region)
			}
		}
		require.InDelta(t, bounds.Area(), area, 1e-6)

		idx.Walk(func(n *Node) bool {
			if n.HasChildren() {
				require.GreaterOrEqual(t, n.Region().Width(), minimumSize)
				require.GreaterOrEqual(t, n.Region().Height(), minimumSize)
				require.Len(t, n.Children(), 4)
				require.Equal(t, NoLeaf, n.LeafID())
			} else {
				require.NotEqual(t, NoLeaf, n.LeafID())
			}
			return true
		})

		for j := 0; j < 50; j++ {
			p := r2.Point{
				X: bounds.MinX() + rnd.Float64()*bounds.Width(),
				Y: bounds.MinY() + rnd.Float64()*bounds.Height(),
			}

			l, err := idx.RegionContaining(p)
			require.NoError(t, err)
			require.True(t, l.Region.Contains(p))
		}
	}
}

func TestNodeFromPoint(t *testing.T) {
	idx, err := BuildIndex(NewRegion(0, 0, 100, 100), 30, boxObstacles(centerObstacle()))
	require.NoError(t, err)

	t.Run("returns the containing leaf", func(t *testing.T) {
		n, err := idx.NodeFromPoint(r2.Point{X: 90, Y: 10})
		require.NoError(t, err)
		require.True(t, n.IsLeaf())
		require.Equal(t, NewRegion(75, 0, 25, 25), n.Region())
		require.Equal(t, SE, n.Location())
	})

	t.Run("shared edges resolve to the first child", func(t *testing.T) {
		n, err := idx.NodeFromPoint(r2.Point{X: 50, Y: 50})
		require.NoError(t, err)
		require.Equal(t, NewRegion(25, 25, 25, 25), n.Region())
	})

	t.Run("bounds edges are inside", func(t *testing.T) {
		n, err := idx.NodeFromPoint(r2.Point{X: 100, Y: 100})
		require.NoError(t, err)
		require.Equal(t, NewRegion(75, 75, 25, 25), n.Region())
	})

	t.Run("out of bounds point returns an error", func(t *testing.T) {
		_, err := idx.NodeFromPoint(r2.Point{X: -1, Y: 5})
		require.Error(t, err)
		require.Equal(t, ErrTypeOutOfBounds, errors.Type(err))

		_, err = idx.RegionContaining(r2.Point{X: 50, Y: 100.5})
		require.Error(t, err)
		require.Equal(t, ErrTypeOutOfBounds, errors.Type(err))
	})
}

func TestIndexLeaf(t *testing.T) {
	idx, err := BuildIndex(NewRegion(0, 0, 10, 10), 1, boxObstacles())
	require.NoError(t, err)

	l, ok := idx.Leaf(0)
	require.True(t, ok)
	require.Equal(t, LeafID(0), l.ID)

	_, ok = idx.Leaf(1)
	require.False(t, ok)

	_, ok = idx.Leaf(NoLeaf)
	require.False(t, ok)
}
