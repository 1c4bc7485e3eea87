package websocket

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/aukilabs/raido/featureflag"
	"github.com/aukilabs/raido/messages"
	"github.com/aukilabs/raido/models"
	"github.com/aukilabs/raido/modules"
	"github.com/aukilabs/raido/modules/raido"
	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"
)

// NavigationHandler represents a service that answers the navigation queries
// of a connected client.
type NavigationHandler struct {
	// The time a client is idle before being disconnected.
	ClientIdleTimeout time.Duration

	// The store that contains all the connected clients.
	Clients *models.ClientStore

	// The modules that handle client queries.
	Modules []modules.Module

	// The navigation state reported in ping responses.
	State *raido.State

	FeatureFlags featureflag.FeatureFlag

	// The number of messages per second a client can send. Zero means no
	// limit.
	QueryRate rate.Limit

	// The number of messages a client can send at once.
	QueryBurst int

	conn          *websocket.Conn
	currentClient *models.Client
	limiter       *rate.Limiter

	clientID string
}

func (h *NavigationHandler) HandleConnect(conn *websocket.Conn, respond messages.ResponseSender) {
	h.conn = conn
	h.clientID = conn.Request().Header.Get(httpcmn.HeaderPosemeshClientID)

	if h.QueryRate > 0 {
		burst := h.QueryBurst
		if burst <= 0 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(h.QueryRate, burst)
	}

	if h.Clients == nil {
		return
	}

	client := models.NewClient(h.Clients.NewID(), h.clientID, respond)
	h.Clients.Add(client)
	h.currentClient = client

	for _, m := range h.Modules {
		m.Init(client)
	}
}

func (h *NavigationHandler) HandlePing(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var res messages.PingResponse
	if h.State != nil {
		if nav, err := h.State.Navigation(); err == nil {
			res.BuildID = nav.Index.BuildID
		}
	}

	respond.Send(messages.MsgTypePingResponse, msg.RequestID, res)
	return nil
}

func (h *NavigationHandler) HandleDisconnect(_ error) {
	client := h.currentClient
	if client == nil {
		return
	}

	for _, m := range h.Modules {
		m.HandleDisconnect()
	}

	h.Clients.Remove(client)
	h.currentClient = nil
}

func (h *NavigationHandler) HandleWithModule(ctx context.Context, m modules.Module, respond messages.ResponseSender, msg messages.Msg) error {
	if h.CurrentClient() == nil {
		return nil
	}

	err := m.HandleMsg(ctx, respond, msg)
	if errors.IsType(err, messages.ErrTypeMsgSkip) {
		return nil
	}
	if err != nil {
		return errors.New("handling message with module failed").
			WithTag("module", m.Name()).
			Wrap(err)
	}
	return nil
}

func (h *NavigationHandler) Receiver() messages.Receiver {
	return func() (messages.Msg, int, error) {
		return messages.Receive(h.conn)
	}
}

func (h *NavigationHandler) Sender() messages.Sender {
	return func(msg messages.Msg) (int, error) {
		return messages.Send(h.conn, msg)
	}
}

func (h *NavigationHandler) Close() {
}

func (h *NavigationHandler) IdleTimeout() time.Duration {
	return h.ClientIdleTimeout
}

func (h *NavigationHandler) Limiter() *rate.Limiter {
	return h.limiter
}

func (h *NavigationHandler) GetModules() []modules.Module {
	return h.Modules
}

func (h *NavigationHandler) CurrentClient() *models.Client {
	return h.currentClient
}

func (h *NavigationHandler) GetClientID() string {
	return h.clientID
}
