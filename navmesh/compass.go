package navmesh

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Direction is a point of an 8-direction compass. It is used both as the
// location code of a node inside its parent and as the direction of a node
// seen from another one.
type Direction uint8

const (
	// NoDirection is the location code of the root node.
	NoDirection Direction = iota
	N
	E
	S
	W
	NW
	NE
	SE
	SW
)

// Quadrants lists the composed directions in child order.
var Quadrants = [4]Direction{SW, NW, SE, NE}

// Directions lists every valid direction, simple ones first.
var Directions = [8]Direction{N, E, S, W, NW, NE, SE, SW}

func (d Direction) String() string {
	switch d {
	case N:
		return "N"
	case E:
		return "E"
	case S:
		return "S"
	case W:
		return "W"
	case NW:
		return "NW"
	case NE:
		return "NE"
	case SE:
		return "SE"
	case SW:
		return "SW"
	default:
		return "none"
	}
}

// Valid reports whether d is one of the 8 compass directions.
func (d Direction) Valid() bool {
	return d >= N && d <= SW
}

// IsComposed reports whether d is a corner direction.
func (d Direction) IsComposed() bool {
	return d >= NW && d <= SW
}

// IsSimple reports whether d is a cardinal direction.
func (d Direction) IsSimple() bool {
	return d >= N && d <= W
}

// Opposite returns the direction pointing the other way. NoDirection is its
// own opposite.
func (d Direction) Opposite() Direction {
	switch d {
	case N:
		return S
	case S:
		return N
	case E:
		return W
	case W:
		return E
	case NE:
		return SW
	case SW:
		return NE
	case NW:
		return SE
	case SE:
		return NW
	default:
		return d
	}
}

// Components returns the two simple directions a composed direction is made
// of, vertical component first.
func Components(d Direction) (Direction, Direction, error) {
	switch d {
	case NE:
		return N, E, nil
	case NW:
		return N, W, nil
	case SE:
		return S, E, nil
	case SW:
		return S, W, nil
	default:
		return NoDirection, NoDirection, errors.New("direction is not composed").
			WithType(ErrTypeInvalidDirection).
			WithTag("direction", d.String())
	}
}

// Subtract removes the simple direction from the composed one and returns
// the remaining component. For example Subtract(NE, E) is N.
func Subtract(composed, simple Direction) (Direction, error) {
	a, b, err := Components(composed)
	if err != nil {
		return NoDirection, errors.New("subtracting from a non composed direction").
			WithType(ErrTypeInvalidDirection).
			WithTag("composed", composed.String()).
			WithTag("simple", simple.String()).
			Wrap(err)
	}

	switch simple {
	case a:
		return b, nil
	case b:
		return a, nil
	default:
		return NoDirection, errors.New("direction is not a component").
			WithType(ErrTypeInvalidDirection).
			WithTag("composed", composed.String()).
			WithTag("simple", simple.String())
	}
}

// FindCommonDirection returns the simple direction shared by two distinct,
// non opposite composed directions. For example common(NE, SE) is E.
func FindCommonDirection(d1, d2 Direction) (Direction, error) {
	if !d1.IsComposed() || !d2.IsComposed() || d1 == d2 || d1.Opposite() == d2 {
		return NoDirection, errors.New("directions have no common component").
			WithType(ErrTypeInvalidDirection).
			WithTag("first", d1.String()).
			WithTag("second", d2.String())
	}

	// Two distinct non opposite corners share exactly one component.
	v1, h1, _ := Components(d1)
	v2, _, _ := Components(d2)
	if v1 == v2 {
		return v1, nil
	}
	return h1, nil
}

// RelativeDirection returns where the sibling located at other lies when
// seen from the sibling located at self.
func RelativeDirection(self, other Direction) (Direction, error) {
	switch {
	case other == NW && self == NE:
		return W, nil
	case other == NW && self == SE:
		return NW, nil
	case other == NW && self == SW:
		return N, nil
	case other == NE && self == NW:
		return E, nil
	case other == NE && self == SE:
		return N, nil
	case other == NE && self == SW:
		return NE, nil
	case other == SE && self == SW:
		return E, nil
	case other == SE && self == NE:
		return S, nil
	case other == SE && self == NW:
		return SE, nil
	case other == SW && self == NW:
		return S, nil
	case other == SW && self == SE:
		return W, nil
	case other == SW && self == NE:
		return SW, nil
	}

	return NoDirection, errors.New("unhandled relative location").
		WithType(ErrTypeInvalidDirection).
		WithTag("self", self.String()).
		WithTag("other", other.String())
}

// EdgeQuadrants returns the two quadrants sharing the side of a region that
// faces the given simple direction.
func EdgeQuadrants(d Direction) (Direction, Direction, error) {
	switch d {
	case N:
		return NE, NW, nil
	case S:
		return SE, SW, nil
	case E:
		return NE, SE, nil
	case W:
		return NW, SW, nil
	default:
		return NoDirection, NoDirection, errors.New("edge quadrants require a simple direction").
			WithType(ErrTypeInvalidDirection).
			WithTag("direction", d.String())
	}
}

func quadrantIndex(d Direction) (int, error) {
	for i, q := range Quadrants {
		if q == d {
			return i, nil
		}
	}
	return -1, errors.New("direction is not a quadrant").
		WithType(ErrTypeInvalidDirection).
		WithTag("direction", d.String())
}
