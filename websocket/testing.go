package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/aukilabs/hagall-common/logs"
	"github.com/aukilabs/raido/messages"
	"github.com/aukilabs/raido/models"
	"github.com/aukilabs/raido/modules"
	"github.com/aukilabs/raido/modules/raido"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"
)

const defaultScenarioTimeout = 5 * time.Second

// Creates a testing environement to unit test handlers and modules.
func NewTestingEnv(t *testing.T, newHandler func() Handler) (*websocket.Conn, *websocket.Conn, func()) {
	var mutex sync.Mutex
	logger := t.Log

	logs.Encoder = func(v any) ([]byte, error) {
		return json.MarshalIndent(v, "", "  ")
	}

	logs.SetLogger(func(e logs.Entry) {
		mutex.Lock()
		defer mutex.Unlock()

		if logger != nil {
			logger(e)
		}
	})

	errors.Encoder = json.Marshal

	clientA, clientB, close := newTestingEnv(t, newHandler)
	return clientA, clientB, func() {
		mutex.Lock()
		defer mutex.Unlock()
		logger = nil
		close()
	}
}

func newTestingEnv(t *testing.T, newHandler func() Handler) (*websocket.Conn, *websocket.Conn, func()) {
	server := httptest.NewServer(websocket.Server{
		Handshake: func(c *websocket.Config, r *http.Request) error {
			return nil
		},
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			handler := newHandler()
			defer handler.Close()

			Handle(context.Background(), conn, handler)
		},
	})

	newConn := func() *websocket.Conn {
		config, err := websocket.NewConfig(
			strings.ReplaceAll(server.URL, "http://", "ws://"),
			"http://localhost",
		)
		if err != nil {
			t.Fatalf("error initializing web socket: %s", err)
		}

		config.Header.Set("User-Agent", "ted")
		config.Header.Set("X-Forwarded-for", "192.0.0.0")
		config.Header.Set(httpcmn.HeaderPosemeshClientID, uuid.NewString())

		conn, err := websocket.DialConfig(config)
		if err != nil {
			t.Fatalf("error dialing web socket: %s", err)
		}

		return conn
	}

	clientA := newConn()
	clientB := newConn()

	return clientA, clientB, func() {
		clientA.Close()
		clientB.Close()
		server.Close()
	}
}

type testHandlerConfig struct {
	clients    *models.ClientStore
	state      *raido.State
	queryRate  rate.Limit
	queryBurst int
	newModules []func() modules.Module
}

func newTestHandler(conf testHandlerConfig) func() Handler {
	if conf.clients == nil {
		conf.clients = &models.ClientStore{}
	}

	return func() Handler {
		modules := make([]modules.Module, len(conf.newModules))
		for i, nm := range conf.newModules {
			modules[i] = nm()
		}

		var h Handler = &NavigationHandler{
			ClientIdleTimeout: time.Minute,
			Clients:           conf.clients,
			Modules:           modules,
			State:             conf.state,
			QueryRate:         conf.queryRate,
			QueryBurst:        conf.queryBurst,
		}

		h = HandlerWithLogs(h, time.Millisecond*100)
		h = HandlerWithMetrics(h, "https://auki-test.com")
		return h
	}
}

// MsgFilter reports whether a received message is the one a scenario step
// waits for.
type MsgFilter func(messages.Msg) bool

// FilterByType matches messages of the given type.
func FilterByType(msgType string) MsgFilter {
	return func(msg messages.Msg) bool {
		return msg.Type == msgType
	}
}

// FilterByRequestID matches messages answering the given request.
func FilterByRequestID(requestID uint32) MsgFilter {
	return func(msg messages.Msg) bool {
		return msg.RequestID == requestID
	}
}

// Scenario is a sequence of messages sent and expected on a client
// connection.
type Scenario struct {
	conn  *websocket.Conn
	steps []func(context.Context) error
}

func NewScenario(conn *websocket.Conn) *Scenario {
	return &Scenario{conn: conn}
}

// Send sends a message with the given data.
func (s *Scenario) Send(msgType string, requestID uint32, data any) *Scenario {
	s.steps = append(s.steps, func(ctx context.Context) error {
		msg, err := messages.MsgFromData(msgType, requestID, data)
		if err != nil {
			return err
		}

		_, err = messages.Send(s.conn, msg)
		return err
	})
	return s
}

// SendRaw sends the given bytes as a text message.
func (s *Scenario) SendRaw(data string) *Scenario {
	s.steps = append(s.steps, func(ctx context.Context) error {
		return websocket.Message.Send(s.conn, data)
	})
	return s
}

// Receive waits for a message matching all the filters. Non matching
// messages are discarded. The last argument checks the matching message when
// it is a func(messages.Msg) error.
func (s *Scenario) Receive(filters ...any) *Scenario {
	s.steps = append(s.steps, func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		if !ok {
			deadline = time.Now().Add(defaultScenarioTimeout)
		}
		s.conn.SetReadDeadline(deadline)
		defer s.conn.SetReadDeadline(time.Time{})

		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			msg, _, err := messages.Receive(s.conn)
			if err != nil {
				return err
			}

			if handled, err := s.match(msg, filters); handled {
				return err
			}
		}
	})
	return s
}

func (s *Scenario) match(msg messages.Msg, filters []any) (bool, error) {
	var check func(messages.Msg) error

	for _, f := range filters {
		switch f := f.(type) {
		case MsgFilter:
			if !f(msg) {
				return false, nil
			}

		case func(messages.Msg) bool:
			if !f(msg) {
				return false, nil
			}

		case func(messages.Msg) error:
			check = f
		}
	}

	if check == nil {
		return true, nil
	}
	return true, check(msg)
}

// Run runs the scenario steps in order and stops at the first error.
func (s *Scenario) Run(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step(ctx); err != nil {
			return errors.New("scenario step failed").
				WithTag("step", i).
				Wrap(err)
		}
	}
	return nil
}
