package navmesh

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestDirectionOpposite(t *testing.T) {
	for _, d := range Directions {
		require.Equal(t, d, d.Opposite().Opposite())
		require.NotEqual(t, d, d.Opposite())
	}

	require.Equal(t, NoDirection, NoDirection.Opposite())
	require.Equal(t, SW, NE.Opposite())
	require.Equal(t, W, E.Opposite())
}

func TestDirectionKinds(t *testing.T) {
	for _, d := range []Direction{N, E, S, W} {
		require.True(t, d.IsSimple())
		require.False(t, d.IsComposed())
	}

	for _, d := range Quadrants {
		require.True(t, d.IsComposed())
		require.False(t, d.IsSimple())
	}

	require.False(t, NoDirection.Valid())
	require.False(t, Direction(42).Valid())
	require.Equal(t, "none", Direction(42).String())
}

func TestSubtract(t *testing.T) {
	t.Run("returns the other component", func(t *testing.T) {
		for _, c := range Quadrants {
			s1, s2, err := Components(c)
			require.NoError(t, err)

			d, err := Subtract(c, s1)
			require.NoError(t, err)
			require.Equal(t, s2, d)

			d, err = Subtract(c, s2)
			require.NoError(t, err)
			require.Equal(t, s1, d)
		}
	})

	t.Run("subtracting from a simple direction returns an error", func(t *testing.T) {
		_, err := Subtract(N, E)
		require.Error(t, err)
		require.Equal(t, ErrTypeInvalidDirection, errors.Type(err))
	})

	t.Run("subtracting a non component returns an error", func(t *testing.T) {
		_, err := Subtract(NE, S)
		require.Error(t, err)
		require.Equal(t, ErrTypeInvalidDirection, errors.Type(err))
	})
}

func TestFindCommonDirection(t *testing.T) {
	t.Run("is symmetric", func(t *testing.T) {
		for _, d1 := range Directions {
			for _, d2 := range Directions {
				c1, err1 := FindCommonDirection(d1, d2)
				c2, err2 := FindCommonDirection(d2, d1)
				require.Equal(t, c1, c2)
				require.Equal(t, err1 == nil, err2 == nil)
			}
		}
	})

	tests := []struct {
		d1       Direction
		d2       Direction
		expected Direction
	}{
		{d1: NE, d2: SE, expected: E},
		{d1: NE, d2: NW, expected: N},
		{d1: SW, d2: NW, expected: W},
		{d1: SW, d2: SE, expected: S},
	}

	for _, test := range tests {
		t.Run(test.d1.String()+test.d2.String(), func(t *testing.T) {
			d, err := FindCommonDirection(test.d1, test.d2)
			require.NoError(t, err)
			require.Equal(t, test.expected, d)
		})
	}

	t.Run("opposite corners have no common direction", func(t *testing.T) {
		_, err := FindCommonDirection(NE, SW)
		require.Error(t, err)
		require.Equal(t, ErrTypeInvalidDirection, errors.Type(err))
	})
}

func TestRelativeDirection(t *testing.T) {
	t.Run("sibling pairs are opposite", func(t *testing.T) {
		for _, self := range Quadrants {
			for _, other := range Quadrants {
				if self == other {
					continue
				}

				d1, err := RelativeDirection(self, other)
				require.NoError(t, err)

				d2, err := RelativeDirection(other, self)
				require.NoError(t, err)
				require.Equal(t, d1.Opposite(), d2)
			}
		}
	})

	t.Run("returns where other lies", func(t *testing.T) {
		d, err := RelativeDirection(SW, NE)
		require.NoError(t, err)
		require.Equal(t, NE, d)

		d, err = RelativeDirection(SW, NW)
		require.NoError(t, err)
		require.Equal(t, N, d)

		d, err = RelativeDirection(NE, NW)
		require.NoError(t, err)
		require.Equal(t, W, d)
	})

	t.Run("same location returns an error", func(t *testing.T) {
		_, err := RelativeDirection(NE, NE)
		require.Error(t, err)
		require.Equal(t, ErrTypeInvalidDirection, errors.Type(err))
	})
}

func TestEdgeQuadrants(t *testing.T) {
	for _, d := range []Direction{N, E, S, W} {
		q1, q2, err := EdgeQuadrants(d)
		require.NoError(t, err)

		c, err := FindCommonDirection(q1, q2)
		require.NoError(t, err)
		require.Equal(t, d, c)
	}

	_, _, err := EdgeQuadrants(NE)
	require.Error(t, err)
}
