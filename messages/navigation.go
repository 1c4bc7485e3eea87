package messages

import (
	"github.com/aukilabs/raido/navmesh"
)

// Message types.
const (
	MsgTypePingRequest  = "ping_request"
	MsgTypePingResponse = "ping_response"

	MsgTypeErrorResponse = "error_response"

	MsgTypeFindPathRequest  = "raido_find_path_request"
	MsgTypeFindPathResponse = "raido_find_path_response"

	MsgTypeRegionRequest  = "raido_region_request"
	MsgTypeRegionResponse = "raido_region_response"

	MsgTypeGraphInfoRequest  = "raido_graph_info_request"
	MsgTypeGraphInfoResponse = "raido_graph_info_response"
)

// Error codes sent with error responses.
const (
	ErrorCodeRateLimited    = "rate_limited"
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeNotReady       = "not_ready"
	ErrorCodeInternal       = "internal_server_error"
)

// Statuses of navigation responses.
const (
	StatusOK                      = "ok"
	StatusNoPath                  = navmesh.ErrTypeNoPath
	StatusOutOfBounds             = navmesh.ErrTypeOutOfBounds
	StatusIterationBudgetExceeded = navmesh.ErrTypeIterationBudgetExceeded
	StatusUnknownHeuristic        = navmesh.ErrTypeUnknownHeuristic
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type PingResponse struct {
	BuildID string `json:"build_id,omitempty"`
}

// Point is a point of the navigated plane encoded as [x, y].
type Point [2]float64

type Region struct {
	LeafID int     `json:"leaf_id"`
	MinX   float64 `json:"min_x"`
	MinY   float64 `json:"min_y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RegionFromLeaf returns the encoded region of a leaf.
func RegionFromLeaf(id navmesh.LeafID, r navmesh.Region) Region {
	return Region{
		LeafID: int(id),
		MinX:   r.MinX(),
		MinY:   r.MinY(),
		Width:  r.Width(),
		Height: r.Height(),
	}
}

type FindPathRequest struct {
	From      Point  `json:"from"`
	To        Point  `json:"to"`
	Heuristic string `json:"heuristic,omitempty"`
}

type FindPathResponse struct {
	Status     string   `json:"status"`
	BuildID    string   `json:"build_id,omitempty"`
	Regions    []Region `json:"regions,omitempty"`
	Waypoints  []Point  `json:"waypoints,omitempty"`
	Hops       int      `json:"hops"`
	Iterations int      `json:"iterations"`
}

// FindPathResponseFromPath returns the response of a successful search.
func FindPathResponseFromPath(p navmesh.Path) FindPathResponse {
	res := FindPathResponse{
		Status:     StatusOK,
		BuildID:    p.BuildID,
		Regions:    make([]Region, len(p.Regions)),
		Waypoints:  make([]Point, len(p.Regions)),
		Hops:       p.Hops(),
		Iterations: p.Iterations,
	}

	for i, r := range p.Regions {
		res.Regions[i] = RegionFromLeaf(p.Leaves[i], r)
	}
	for i, w := range p.Waypoints() {
		res.Waypoints[i] = Point{w.X, w.Y}
	}
	return res
}

type RegionRequest struct {
	At Point `json:"at"`
}

type RegionResponse struct {
	Status    string  `json:"status"`
	BuildID   string  `json:"build_id,omitempty"`
	Region    *Region `json:"region,omitempty"`
	Depth     int     `json:"depth"`
	Neighbors []int   `json:"neighbors,omitempty"`
}

type GraphInfoResponse struct {
	navmesh.Stats
}

// MsgTypeGraphRebuilt notifies connected clients that a new navigation index
// is in use. Previous build ids are no longer answered.
const MsgTypeGraphRebuilt = "raido_graph_rebuilt"

type GraphRebuilt struct {
	BuildID string `json:"build_id"`
	Leaves  int    `json:"leaves"`
}
