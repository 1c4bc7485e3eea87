package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/aukilabs/raido/messages"
	"github.com/aukilabs/raido/models"
	"github.com/stretchr/testify/require"
)

func TestHandlerHandlePing(t *testing.T) {
	clientA, _, close := NewTestingEnv(t, newTestHandler(testHandlerConfig{}))
	defer close()

	err := NewScenario(clientA).
		Send(messages.MsgTypePingRequest, 1, nil).
		Receive(
			FilterByType(messages.MsgTypePingResponse),
			FilterByRequestID(1),
			func(msg messages.Msg) error {
				var res messages.PingResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)
				require.Empty(t, res.BuildID)
				require.False(t, msg.Timestamp.IsZero())
				return err
			},
		).
		Run(context.Background())
	require.NoError(t, err)
}

func TestHandlerHandlePingWithBuildID(t *testing.T) {
	state := newTestState(t)
	nav, err := state.Navigation()
	require.NoError(t, err)

	clientA, _, close := NewTestingEnv(t, newTestHandler(testHandlerConfig{state: state}))
	defer close()

	err = NewScenario(clientA).
		Send(messages.MsgTypePingRequest, 2, nil).
		Receive(
			FilterByType(messages.MsgTypePingResponse),
			func(msg messages.Msg) error {
				var res messages.PingResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)
				require.Equal(t, nav.Index.BuildID, res.BuildID)
				return err
			},
		).
		Run(context.Background())
	require.NoError(t, err)
}

func TestHandlerInvalidMessage(t *testing.T) {
	clientA, _, close := NewTestingEnv(t, newTestHandler(testHandlerConfig{}))
	defer close()

	err := NewScenario(clientA).
		SendRaw(`{"type": 42`).
		Receive(
			FilterByType(messages.MsgTypeErrorResponse),
			func(msg messages.Msg) error {
				var res messages.ErrorResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)
				require.Equal(t, messages.ErrorCodeInvalidMessage, res.Code)
				return err
			},
		).
		Send(messages.MsgTypePingRequest, 3, nil).
		Receive(
			FilterByType(messages.MsgTypePingResponse),
			FilterByRequestID(3),
		).
		Run(context.Background())
	require.NoError(t, err)
}

func TestHandlerRateLimit(t *testing.T) {
	clientA, _, close := NewTestingEnv(t, newTestHandler(testHandlerConfig{
		queryRate:  0.001,
		queryBurst: 1,
	}))
	defer close()

	err := NewScenario(clientA).
		Send(messages.MsgTypePingRequest, 1, nil).
		Receive(
			FilterByType(messages.MsgTypePingResponse),
			FilterByRequestID(1),
		).
		Send(messages.MsgTypePingRequest, 2, nil).
		Receive(
			FilterByType(messages.MsgTypeErrorResponse),
			FilterByRequestID(2),
			func(msg messages.Msg) error {
				var res messages.ErrorResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)
				require.Equal(t, messages.ErrorCodeRateLimited, res.Code)
				return err
			},
		).
		Run(context.Background())
	require.NoError(t, err)
}

func TestHandlerClientStore(t *testing.T) {
	clients := &models.ClientStore{}

	clientA, clientB, close := NewTestingEnv(t, newTestHandler(testHandlerConfig{
		clients: clients,
	}))
	defer close()

	require.Eventually(t, func() bool {
		return clients.Count() == 2
	}, time.Second, time.Millisecond*10)

	for _, c := range clients.Clients() {
		require.NotEmpty(t, c.ClientID)
	}

	clientA.Close()
	require.Eventually(t, func() bool {
		return clients.Count() == 1
	}, time.Second, time.Millisecond*10)

	clients.Broadcast(messages.MsgTypePingResponse, messages.PingResponse{BuildID: "broadcast"})

	err := NewScenario(clientB).
		Receive(
			FilterByType(messages.MsgTypePingResponse),
			func(msg messages.Msg) error {
				var res messages.PingResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)
				require.Equal(t, "broadcast", res.BuildID)
				return err
			},
		).
		Run(context.Background())
	require.NoError(t, err)
}

func TestHandlerIdleTimeout(t *testing.T) {
	clients := &models.ClientStore{}

	_, _, close := NewTestingEnv(t, func() Handler {
		var h Handler = &NavigationHandler{
			ClientIdleTimeout: time.Millisecond * 50,
			Clients:           clients,
		}
		return HandlerWithLogs(h, time.Second)
	})
	defer close()

	require.Eventually(t, func() bool {
		return clients.Count() == 0
	}, time.Second*2, time.Millisecond*10)
}
