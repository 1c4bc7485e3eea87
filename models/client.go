package models

import (
	"sort"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/raido/messages"
)

// Client represents a connection that queries the navigation service.
type Client struct {
	ID uint32

	// The id sent by the client in the posemesh client id header.
	ClientID string

	ConnectedAt time.Time
	Responder   messages.ResponseSender

	moduleMutex  sync.RWMutex
	moduleStates map[string]any
}

func NewClient(id uint32, clientID string, responder messages.ResponseSender) *Client {
	return &Client{
		ID:           id,
		ClientID:     clientID,
		ConnectedAt:  time.Now(),
		Responder:    responder,
		moduleStates: make(map[string]any),
	}
}

func (c *Client) SetModuleState(moduleName string, state any) {
	c.moduleMutex.Lock()
	defer c.moduleMutex.Unlock()

	if c.moduleStates == nil {
		c.moduleStates = make(map[string]any)
	}
	c.moduleStates[moduleName] = state
}

func (c *Client) ModuleState(moduleName string) (any, bool) {
	c.moduleMutex.RLock()
	defer c.moduleMutex.RUnlock()

	state, ok := c.moduleStates[moduleName]
	return state, ok
}

// ClientStore keeps track of the connected clients.
type ClientStore struct {
	initOnce sync.Once
	mutex    sync.RWMutex
	clients  map[uint32]*Client
	ids      SequentialIDGenerator
}

func (s *ClientStore) init() {
	s.clients = make(map[uint32]*Client)
}

func (s *ClientStore) NewID() uint32 {
	return s.ids.New()
}

func (s *ClientStore) Add(c *Client) {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.clients[c.ID] = c

	instrumentIncreaseClientGauge()
	instrumentCountClient()
}

func (s *ClientStore) Remove(c *Client) {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.clients[c.ID]; !ok {
		return
	}

	delete(s.clients, c.ID)
	s.ids.Reuse(c.ID)

	instrumentDecreaseClientGauge()
}

func (s *ClientStore) Get(id uint32) (*Client, bool) {
	s.initOnce.Do(s.init)
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	c, ok := s.clients[id]
	return c, ok
}

// Clients returns the connected clients ordered by id.
func (s *ClientStore) Clients() []*Client {
	s.initOnce.Do(s.init)
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}

	sort.Slice(clients, func(i, j int) bool {
		return clients[i].ID < clients[j].ID
	})
	return clients
}

func (s *ClientStore) Count() int {
	s.initOnce.Do(s.init)
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.clients)
}

// Broadcast sends a message built from the given data to every connected
// client.
func (s *ClientStore) Broadcast(msgType string, data any) {
	msg, err := messages.MsgFromData(msgType, 0, data)
	if err != nil {
		logs.WithTag("msg_type", msgType).Debug(err)
		return
	}

	for _, c := range s.Clients() {
		c.Responder.SendMsg(msg)
	}
}
