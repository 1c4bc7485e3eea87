package scene

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

const epsilon = 0.0001

// Vec3 is a point or a size in scene space, y being the vertical axis.
type Vec3 [3]float64

func (v Vec3) Vector() r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// Vec2 is a point of the navigated plane, mapped to x and z in scene space.
type Vec2 [2]float64

func (v Vec2) Point() r2.Point {
	return r2.Point{X: v[0], Y: v[1]}
}

// Ray is a segment going from From to To.
type Ray struct {
	From r3.Vector
	To   r3.Vector
}

// PlanarRay returns the ray going from a to b at ground level.
func PlanarRay(a, b r2.Point) Ray {
	return Ray{
		From: r3.Vector{X: a.X, Y: 0, Z: a.Y},
		To:   r3.Vector{X: b.X, Y: 0, Z: b.Y},
	}
}

// At returns the point of the ray at t, t going from 0 at From to 1 at To.
func (r Ray) At(t float64) r3.Vector {
	return r.From.Add(r.To.Sub(r.From).Mul(t))
}

// IntersectBox returns whether the ray hits the box of the given center and
// half extents, and the ray parameter of the first hit.
func IntersectBox(r Ray, center, extents r3.Vector) (bool, float64) {
	minPoint := center.Sub(extents)
	maxPoint := center.Add(extents)
	dir := r.To.Sub(r.From)

	tMin, tMax := 0.0, 1.0
	slabs := [3][4]float64{
		{r.From.X, dir.X, minPoint.X, maxPoint.X},
		{r.From.Y, dir.Y, minPoint.Y, maxPoint.Y},
		{r.From.Z, dir.Z, minPoint.Z, maxPoint.Z},
	}

	for _, s := range slabs {
		from, d, lo, hi := s[0], s[1], s[2], s[3]

		if math.Abs(d) < epsilon {
			if !inRangeWithEpsilon(from, lo, hi, epsilon) {
				return false, -1
			}
			continue
		}

		t1 := (lo - from) / d
		t2 := (hi - from) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false, -1
		}
	}
	return true, tMin
}

// IntersectCylinder returns whether the ray hits the vertical cylinder of
// the given center, radius, and half height.
func IntersectCylinder(r Ray, center r3.Vector, radius, halfHeight float64) bool {
	a := r2.Point{X: r.From.X, Y: r.From.Z}
	b := r2.Point{X: r.To.X, Y: r.To.Z}
	c := r2.Point{X: center.X, Y: center.Z}

	t := closestOnSegment(a, b, c)
	closest := a.Add(b.Sub(a).Mul(t))
	if closest.Sub(c).Norm() > radius {
		return false
	}

	y := r.At(t).Y
	return inRangeWithEpsilon(y, center.Y-halfHeight, center.Y+halfHeight, epsilon)
}

func closestOnSegment(a, b, p r2.Point) float64 {
	ab := b.Sub(a)
	l := ab.Dot(ab)
	if l == 0 {
		return 0
	}
	return math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l))
}

func inRangeWithEpsilon(value, min, max, epsilon float64) bool {
	return value+epsilon >= min && value-epsilon <= max
}
