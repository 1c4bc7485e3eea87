package scene

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/raido/navmesh"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/segmentio/encoding/json"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultClearance is the half height of the volume tested above each
	// region.
	DefaultClearance = 3

	// DefaultGridResolution is the size of the broad phase cells.
	DefaultGridResolution = 8
)

// Format is the encoding of a scene file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath returns the format matching the extension of the given
// file.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil

	case ".json":
		return FormatJSON, nil

	default:
		return "", errors.New("unsupported scene file extension").
			WithType(ErrTypeUnsupportedFormat).
			WithTag("path", path)
	}
}

// Bounds is the navigated area of a scene.
type Bounds struct {
	MinX   float64 `yaml:"min_x"  json:"min_x"`
	MinY   float64 `yaml:"min_y"  json:"min_y"`
	Width  float64 `yaml:"width"  json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Probe is a path query run by smoke tests.
type Probe struct {
	Name string `yaml:"name" json:"name"`
	From Vec2   `yaml:"from" json:"from"`
	To   Vec2   `yaml:"to"   json:"to"`

	// When set, whether a path is expected to exist.
	Reachable *bool `yaml:"reachable,omitempty" json:"reachable,omitempty"`
}

// Scene is a static set of obstacles over a navigated area. It answers the
// obstacle and line of sight queries the navigation index is built with.
type Scene struct {
	Bounds      Bounds     `yaml:"bounds"              json:"bounds"`
	MinimumSize float64    `yaml:"minimum_size"        json:"minimum_size"`
	Clearance   float64    `yaml:"clearance,omitempty" json:"clearance,omitempty"`
	Obstacles   []Obstacle `yaml:"obstacles"           json:"obstacles"`
	Probes      []Probe    `yaml:"probes,omitempty"    json:"probes,omitempty"`

	grid *grid
}

// Load reads and validates the scene file at the given path.
func Load(path string) (*Scene, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("reading scene file failed").
			WithTag("path", path).
			Wrap(err)
	}

	s, err := Parse(data, format)
	if err != nil {
		return nil, errors.New("loading scene failed").
			WithType(errors.Type(err)).
			WithTag("path", path).
			Wrap(err)
	}
	return s, nil
}

// Parse decodes and validates a scene.
func Parse(data []byte, format Format) (*Scene, error) {
	var s Scene

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, errors.New("decoding yaml scene failed").
				WithType(ErrTypeInvalidScene).
				Wrap(err)
		}

	case FormatJSON:
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, errors.New("decoding json scene failed").
				WithType(ErrTypeInvalidScene).
				Wrap(err)
		}

	default:
		return nil, errors.New("unsupported scene format").
			WithType(ErrTypeUnsupportedFormat).
			WithTag("format", format)
	}

	if err := s.Init(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Init validates the scene and indexes its obstacles. It must be called on
// scenes that were not created with Load or Parse.
func (s *Scene) Init() error {
	if s.Bounds.Width <= 0 || s.Bounds.Height <= 0 {
		return errors.New("scene bounds must have a surface").
			WithType(ErrTypeInvalidScene).
			WithTag("width", s.Bounds.Width).
			WithTag("height", s.Bounds.Height)
	}

	if s.MinimumSize <= 0 {
		return errors.New("scene minimum size must be positive").
			WithType(ErrTypeInvalidScene).
			WithTag("minimum_size", s.MinimumSize)
	}

	if s.Clearance == 0 {
		s.Clearance = DefaultClearance
	} else if s.Clearance < 0 {
		return errors.New("scene clearance must be positive").
			WithType(ErrTypeInvalidScene).
			WithTag("clearance", s.Clearance)
	}

	g := newGrid(s.Region(), DefaultGridResolution)
	for i, o := range s.Obstacles {
		if err := o.validate(); err != nil {
			return errors.New("invalid obstacle").
				WithType(ErrTypeInvalidScene).
				WithTag("index", i).
				Wrap(err)
		}
		g.insert(i, o.Footprint())
	}

	region := s.Region()
	for _, p := range s.Probes {
		if !region.Contains(p.From.Point()) || !region.Contains(p.To.Point()) {
			return errors.New("probe is outside of the scene bounds").
				WithType(ErrTypeInvalidScene).
				WithTag("probe", p.Name)
		}
	}

	s.grid = g
	return nil
}

// Region returns the navigated area.
func (s *Scene) Region() navmesh.Region {
	return navmesh.NewRegion(s.Bounds.MinX, s.Bounds.MinY, s.Bounds.Width, s.Bounds.Height)
}

// HasObstacle reports whether an obstacle overlaps the box standing on the
// region, from -Clearance to Clearance on the vertical axis.
func (s *Scene) HasObstacle(r navmesh.Region) bool {
	c := r.Center()
	center := r3.Vector{X: c.X, Y: 0, Z: c.Y}
	extents := r3.Vector{X: r.Width() / 2, Y: s.Clearance, Z: r.Height() / 2}

	return s.grid.query(r, make([]bool, len(s.Obstacles)), func(i int) bool {
		return s.Obstacles[i].OverlapsBox(center, extents)
	})
}

// LineOfSight reports whether the ground segment going from a to b does not
// hit any obstacle.
func (s *Scene) LineOfSight(a, b r2.Point) bool {
	ray := PlanarRay(a, b)
	area := navmesh.RegionFromRect(r2.RectFromPoints(a, b))

	hit := s.grid.query(area, make([]bool, len(s.Obstacles)), func(i int) bool {
		return s.Obstacles[i].Intersects(ray)
	})
	return !hit
}

// Occupancy returns the number of obstacles referenced by each broad phase
// cell.
func (s *Scene) Occupancy() []int {
	return s.grid.occupancy()
}
