package scene

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/raido/navmesh"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Kind is the shape of an obstacle.
type Kind string

const (
	KindBox      Kind = "box"
	KindCylinder Kind = "cylinder"
)

// Obstacle is a static solid of the scene.
type Obstacle struct {
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	Kind Kind   `yaml:"kind" json:"kind"`

	// The center of the solid.
	Center Vec3 `yaml:"center" json:"center"`

	// Box only, half size on each axis.
	Extents Vec3 `yaml:"extents,omitempty" json:"extents,omitempty"`

	// Cylinder only.
	Radius float64 `yaml:"radius,omitempty" json:"radius,omitempty"`
	Height float64 `yaml:"height,omitempty" json:"height,omitempty"`
}

func (o Obstacle) validate() error {
	switch o.Kind {
	case KindBox:
		for _, e := range o.Extents {
			if e <= 0 {
				return errors.New("box extents must be positive").
					WithType(ErrTypeInvalidScene).
					WithTag("obstacle", o.Name).
					WithTag("extents", o.Extents)
			}
		}

	case KindCylinder:
		if o.Radius <= 0 || o.Height <= 0 {
			return errors.New("cylinder radius and height must be positive").
				WithType(ErrTypeInvalidScene).
				WithTag("obstacle", o.Name).
				WithTag("radius", o.Radius).
				WithTag("height", o.Height)
		}

	default:
		return errors.New("unknown obstacle kind").
			WithType(ErrTypeInvalidScene).
			WithTag("obstacle", o.Name).
			WithTag("kind", o.Kind)
	}
	return nil
}

// OverlapsBox reports whether the obstacle shares a volume with the box of
// the given center and half extents.
func (o Obstacle) OverlapsBox(center, extents r3.Vector) bool {
	c := o.Center.Vector()

	switch o.Kind {
	case KindBox:
		e := o.Extents.Vector()
		return overlaps(c.X-e.X, c.X+e.X, center.X-extents.X, center.X+extents.X) &&
			overlaps(c.Y-e.Y, c.Y+e.Y, center.Y-extents.Y, center.Y+extents.Y) &&
			overlaps(c.Z-e.Z, c.Z+e.Z, center.Z-extents.Z, center.Z+extents.Z)

	case KindCylinder:
		h := o.Height / 2
		if !overlaps(c.Y-h, c.Y+h, center.Y-extents.Y, center.Y+extents.Y) {
			return false
		}

		footprint := navmesh.NewRegion(center.X-extents.X, center.Z-extents.Z, 2*extents.X, 2*extents.Z)
		return footprint.OverlapsCircle(r2.Point{X: c.X, Y: c.Z}, o.Radius)

	default:
		return false
	}
}

// Intersects reports whether the ray hits the obstacle.
func (o Obstacle) Intersects(r Ray) bool {
	switch o.Kind {
	case KindBox:
		hit, _ := IntersectBox(r, o.Center.Vector(), o.Extents.Vector())
		return hit

	case KindCylinder:
		return IntersectCylinder(r, o.Center.Vector(), o.Radius, o.Height/2)

	default:
		return false
	}
}

// Footprint returns the ground region covered by the obstacle.
func (o Obstacle) Footprint() navmesh.Region {
	c := o.Center.Vector()

	switch o.Kind {
	case KindCylinder:
		return navmesh.NewRegion(c.X-o.Radius, c.Z-o.Radius, 2*o.Radius, 2*o.Radius)
	default:
		e := o.Extents.Vector()
		return navmesh.NewRegion(c.X-e.X, c.Z-e.Z, 2*e.X, 2*e.Z)
	}
}

// overlaps reports whether two closed intervals share more than a bound.
func overlaps(lo1, hi1, lo2, hi2 float64) bool {
	return math.Min(hi1, hi2)-math.Max(lo1, lo2) > 0
}
