package navmesh

import (
	"math"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/golang/geo/r2"
)

// Heuristic estimates the remaining cost between two planar points.
//
// Edges of the navigation graph all cost 1 whatever the size of the regions
// they join, so a straight line distance can overestimate the number of
// remaining hops. Searches stay valid but may return a path with more hops
// than the shortest one.
type Heuristic func(a, b r2.Point) float64

// Euclidean is the straight line distance.
func Euclidean(a, b r2.Point) float64 {
	return a.Sub(b).Norm()
}

// Manhattan is the sum of the absolute coordinate differences.
func Manhattan(a, b r2.Point) float64 {
	d := a.Sub(b)
	return math.Abs(d.X) + math.Abs(d.Y)
}

// ParseHeuristic returns the heuristic with the given name. An empty name
// selects Euclidean.
func ParseHeuristic(name string) (Heuristic, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "euclidean":
		return Euclidean, nil

	case "manhattan":
		return Manhattan, nil

	default:
		return nil, errors.New("unknown heuristic").
			WithType(ErrTypeUnknownHeuristic).
			WithTag("heuristic", name)
	}
}
