package navmesh

import (
	"fmt"
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
)

// Region is an axis-aligned rectangle of the navigated plane. Its edges are
// closed: a point lying on an edge is contained by the region.
type Region struct {
	rect r2.Rect
}

// NewRegion returns the region starting at (minX, minY) with the given size.
func NewRegion(minX, minY, width, height float64) Region {
	return Region{
		rect: r2.Rect{
			X: r1.Interval{Lo: minX, Hi: minX + width},
			Y: r1.Interval{Lo: minY, Hi: minY + height},
		},
	}
}

// RegionFromRect wraps an r2 rectangle.
func RegionFromRect(r r2.Rect) Region {
	return Region{rect: r}
}

func (r Region) MinX() float64    { return r.rect.X.Lo }
func (r Region) MinY() float64    { return r.rect.Y.Lo }
func (r Region) MaxX() float64    { return r.rect.X.Hi }
func (r Region) MaxY() float64    { return r.rect.Y.Hi }
func (r Region) Width() float64   { return r.rect.X.Length() }
func (r Region) Height() float64  { return r.rect.Y.Length() }
func (r Region) Center() r2.Point { return r.rect.Center() }
func (r Region) Rect() r2.Rect    { return r.rect }

// Area returns width * height.
func (r Region) Area() float64 {
	return r.Width() * r.Height()
}

// Contains reports whether p lies inside the region or on one of its edges.
func (r Region) Contains(p r2.Point) bool {
	return r.rect.ContainsPoint(p)
}

// Overlaps reports whether both regions share at least one point.
func (r Region) Overlaps(o Region) bool {
	return r.rect.Intersects(o.rect)
}

// OverlapsInterior reports whether both regions share a surface, edges and
// corners excluded.
func (r Region) OverlapsInterior(o Region) bool {
	return r.rect.X.InteriorIntersects(o.rect.X) && r.rect.Y.InteriorIntersects(o.rect.Y)
}

// OverlapsCircle reports whether the disc of the given center and radius
// touches the region.
func (r Region) OverlapsCircle(center r2.Point, radius float64) bool {
	closest := r2.Point{
		X: math.Max(r.rect.X.Lo, math.Min(center.X, r.rect.X.Hi)),
		Y: math.Max(r.rect.Y.Lo, math.Min(center.Y, r.rect.Y.Hi)),
	}
	return closest.Sub(center).Norm() <= radius
}

// Quadrant returns the quarter of the region located in the given composed
// direction. The four quadrants share the region center so they tile the
// region exactly.
func (r Region) Quadrant(d Direction) (Region, error) {
	c := r.Center()
	lo := r.rect.Lo()
	hi := r.rect.Hi()

	switch d {
	case SW:
		return RegionFromRect(r2.RectFromPoints(lo, c)), nil
	case NW:
		return RegionFromRect(r2.RectFromPoints(r2.Point{X: lo.X, Y: c.Y}, r2.Point{X: c.X, Y: hi.Y})), nil
	case SE:
		return RegionFromRect(r2.RectFromPoints(r2.Point{X: c.X, Y: lo.Y}, r2.Point{X: hi.X, Y: c.Y})), nil
	case NE:
		return RegionFromRect(r2.RectFromPoints(c, hi)), nil
	default:
		return Region{}, errors.New("quadrant requires a composed direction").
			WithType(ErrTypeInvalidDirection).
			WithTag("direction", d.String())
	}
}

func (r Region) String() string {
	return fmt.Sprintf("(x:%g y:%g w:%g h:%g)", r.MinX(), r.MinY(), r.Width(), r.Height())
}
