package raido

import (
	"context"
	"sync/atomic"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/raido/featureflag"
	"github.com/aukilabs/raido/messages"
	"github.com/aukilabs/raido/models"
	"github.com/aukilabs/raido/navmesh"
	"github.com/golang/geo/r2"
)

const moduleName = "raido"

// QueryStatus returns the response status of a failed query. ok is false when
// the error is not an expected query outcome.
func QueryStatus(err error) (status string, ok bool) {
	switch t := errors.Type(err); t {
	case navmesh.ErrTypeOutOfBounds,
		navmesh.ErrTypeNoPath,
		navmesh.ErrTypeIterationBudgetExceeded,
		navmesh.ErrTypeUnknownHeuristic:
		return t, true

	default:
		return "", false
	}
}

// ErrorCode returns the error response code of an unexpected query error.
func ErrorCode(err error) string {
	if errors.IsType(err, ErrTypeNotReady) {
		return messages.ErrorCodeNotReady
	}
	return messages.ErrorCodeInternal
}

// ClientState holds the navigation statistics of a client.
type ClientState struct {
	Queries  atomic.Int64
	Failures atomic.Int64
}

// Module answers navigation queries sent over a realtime connection.
type Module struct {
	State        *State
	FeatureFlags featureflag.FeatureFlag

	client      *models.Client
	clientState *ClientState
}

func (m *Module) Name() string {
	return moduleName
}

func (m *Module) Init(c *models.Client) {
	m.client = c

	state, ok := c.ModuleState(m.Name())
	if !ok {
		state = &ClientState{}
		c.SetModuleState(m.Name(), state)
	}
	m.clientState = state.(*ClientState)
}

func (m *Module) HandleMsg(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	switch msg.Type {
	case messages.MsgTypeFindPathRequest:
		return m.handleFindPath(ctx, respond, msg)

	case messages.MsgTypeRegionRequest:
		return m.handleRegion(ctx, respond, msg)

	case messages.MsgTypeGraphInfoRequest:
		return m.handleGraphInfo(ctx, respond, msg)

	default:
		return messages.ErrModuleMsgSkip
	}
}

func (m *Module) HandleDisconnect() {
	if m.client == nil || m.clientState == nil {
		return
	}

	logs.WithTag("client_id", m.client.ClientID).
		WithTag("queries", m.clientState.Queries.Load()).
		WithTag("failures", m.clientState.Failures.Load()).
		Debug("navigation client disconnected")
}

func (m *Module) handleFindPath(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.FindPathRequest
	if err := msg.DataTo(&req); err != nil {
		m.respondError(respond, msg, messages.ErrorCodeInvalidMessage, err)
		return nil
	}
	m.countQuery()

	from := r2.Point{X: req.From[0], Y: req.From[1]}
	to := r2.Point{X: req.To[0], Y: req.To[1]}

	path, err := m.State.FindPath(from, to, req.Heuristic)
	if err != nil {
		status, ok := QueryStatus(err)
		if !ok {
			m.respondError(respond, msg, ErrorCode(err), err)
			return nil
		}

		m.countFailure()
		respond.Send(messages.MsgTypeFindPathResponse, msg.RequestID, messages.FindPathResponse{
			Status: status,
		})
		return nil
	}

	res := messages.FindPathResponseFromPath(path)
	m.FeatureFlags.IfSet(featureflag.FlagDisableWaypoints, func() {
		res.Waypoints = nil
	})
	respond.Send(messages.MsgTypeFindPathResponse, msg.RequestID, res)
	return nil
}

func (m *Module) handleRegion(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.RegionRequest
	if err := msg.DataTo(&req); err != nil {
		m.respondError(respond, msg, messages.ErrorCodeInvalidMessage, err)
		return nil
	}
	m.countQuery()

	info, err := m.State.Region(r2.Point{X: req.At[0], Y: req.At[1]})
	if err != nil {
		status, ok := QueryStatus(err)
		if !ok {
			m.respondError(respond, msg, ErrorCode(err), err)
			return nil
		}

		m.countFailure()
		respond.Send(messages.MsgTypeRegionResponse, msg.RequestID, messages.RegionResponse{
			Status: status,
		})
		return nil
	}

	respond.Send(messages.MsgTypeRegionResponse, msg.RequestID, RegionResponse(info))
	return nil
}

func (m *Module) handleGraphInfo(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	m.countQuery()

	stats, err := m.State.GraphInfo()
	if err != nil {
		m.respondError(respond, msg, ErrorCode(err), err)
		return nil
	}

	respond.Send(messages.MsgTypeGraphInfoResponse, msg.RequestID, messages.GraphInfoResponse{
		Stats: stats,
	})
	return nil
}

func (m *Module) respondError(respond messages.ResponseSender, msg messages.Msg, code string, err error) {
	m.countFailure()

	if code == messages.ErrorCodeInternal {
		logs.Error(errors.New("navigation query failed").
			WithTag("msg_type", msg.Type).
			WithTag("request_id", msg.RequestID).
			Wrap(err))
	}

	respond.Send(messages.MsgTypeErrorResponse, msg.RequestID, messages.ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}

func (m *Module) countQuery() {
	if m.clientState != nil {
		m.clientState.Queries.Add(1)
	}
}

func (m *Module) countFailure() {
	if m.clientState != nil {
		m.clientState.Failures.Add(1)
	}
}

// RegionResponse returns the response describing the given region.
func RegionResponse(info RegionInfo) messages.RegionResponse {
	region := messages.RegionFromLeaf(info.Leaf.ID, info.Leaf.Region)

	neighbors := make([]int, len(info.Leaf.Neighbors()))
	for i, id := range info.Leaf.Neighbors() {
		neighbors[i] = int(id)
	}

	return messages.RegionResponse{
		Status:    messages.StatusOK,
		BuildID:   info.BuildID,
		Region:    &region,
		Depth:     info.Leaf.Depth,
		Neighbors: neighbors,
	}
}
