package navmesh

import (
	"time"
)

// Stats describes the shape of an index and its navigation graph.
type Stats struct {
	BuildID         string        `json:"build_id"`
	Bounds          string        `json:"bounds"`
	MinimumSize     float64       `json:"minimum_size"`
	Nodes           int           `json:"nodes"`
	Leaves          int           `json:"leaves"`
	Depth           int           `json:"depth"`
	GraphBuilt      bool          `json:"graph_built"`
	Mode            string        `json:"mode,omitempty"`
	Links           int           `json:"links"`
	RejectedLinks   int           `json:"rejected_links"`
	SightChecks     int           `json:"sight_checks"`
	Components      int           `json:"components"`
	AsymmetricLinks int           `json:"asymmetric_links"`
	GraphDuration   time.Duration `json:"graph_duration"`
}

// Stats returns the statistics of the index. Graph related fields are zero
// until BuildAdjacencyGraph completes.
func (idx *Index) Stats() Stats {
	s := Stats{
		BuildID:     idx.BuildID,
		Bounds:      idx.Bounds().String(),
		MinimumSize: idx.minimumSize,
		Nodes:       idx.nodeCount,
		Leaves:      len(idx.leaves),
		Depth:       idx.maxDepth,
		GraphBuilt:  idx.graphBuilt,
	}

	if !idx.graphBuilt {
		return s
	}

	s.Mode = idx.graph.mode.String()
	s.Links = idx.graph.links
	s.RejectedLinks = idx.graph.rejected
	s.SightChecks = idx.graph.sightChecks
	s.Components = len(idx.Components())
	s.AsymmetricLinks = len(idx.AsymmetricLinks())
	s.GraphDuration = idx.graph.duration
	return s
}
