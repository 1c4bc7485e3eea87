package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/hagall-common/logs"
	"github.com/aukilabs/raido/messages"
	"github.com/aukilabs/raido/modules"
	"github.com/aukilabs/raido/models"
	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"
)

const (
	sendChanSize    = 512
	receiveChanSize = 64
)

// Handler represents a realtime navigation handler.
type Handler interface {
	// Handles a client connection. respond sends messages to the connected
	// client for the whole connection lifetime.
	HandleConnect(conn *websocket.Conn, respond messages.ResponseSender)

	// Handles a client's disconnection.
	HandleDisconnect(error)

	// Handles a ping request.
	HandlePing(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error

	// Handle a message with a module.
	HandleWithModule(ctx context.Context, module modules.Module, respond messages.ResponseSender, msg messages.Msg) error

	// Creates a message receiver used to receive incoming messages.
	Receiver() messages.Receiver

	// Creates a message sender passed in service methods in order to send
	// messages.
	Sender() messages.Sender

	// Closes the service and releases its allocated resources.
	Close()

	// The time a client is idle before being disconnected.
	IdleTimeout() time.Duration

	// The limiter of the messages handled for the connected client. Nil means
	// no limit.
	Limiter() *rate.Limiter

	// Returns the modules.
	GetModules() []modules.Module

	// The connected client.
	CurrentClient() *models.Client

	// Get ClientID
	GetClientID() string
}

// Handle handles the given service.
func Handle(ctx context.Context, conn *websocket.Conn, h Handler) {
	handler := handler{
		Conn:    conn,
		Handler: h,
	}

	handler.Handle(ctx)
}

type handler struct {
	// The WebSocket connection.
	Conn *websocket.Conn

	// The navigation handler.
	Handler Handler

	sendChan       chan messages.Msg
	receiveChan    chan messages.Msg
	sender         messages.Sender
	receiver       messages.Receiver
	disconnectChan chan error
}

func (h *handler) Handle(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.disconnectChan = make(chan error, 8)
	defer func() {
		for len(h.disconnectChan) != 0 {
			<-h.disconnectChan
		}
	}()

	var wg sync.WaitGroup

	h.sendChan = make(chan messages.Msg, sendChanSize)
	h.sender = h.Handler.Sender()

	var responder = responseSender{
		send:    h.send,
		sendMsg: h.sendMsg,
	}
	h.Handler.HandleConnect(h.Conn, responder)

	wg.Add(1)
	go func() {
		defer wg.Done()
		h.startSending(ctx)
	}()

	h.receiveChan = make(chan messages.Msg, receiveChanSize)
	h.receiver = h.Handler.Receiver()
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.startReceiving(ctx, responder)
	}()

	idleTimeout := h.Handler.IdleTimeout()
	idleTimer := time.NewTimer(idleTimeout)
	defer idleTimer.Stop()

	limiter := h.Handler.Limiter()

	for ctx.Err() == nil {
		select {
		case <-ctx.Done():
			h.disconnect(ctx.Err())

		case <-idleTimer.C:
			h.disconnect(errors.New("idle connection").WithTag("duration", h.Handler.IdleTimeout()))

		case msg := <-h.receiveChan:
			idleTimer.Stop()
			idleTimer.Reset(idleTimeout)

			if limiter != nil && !limiter.Allow() {
				responder.Send(messages.MsgTypeErrorResponse, msg.RequestID, messages.ErrorResponse{
					Code: messages.ErrorCodeRateLimited,
				})
				continue
			}

			if err := h.handleMessage(ctx, msg, responder); err != nil {
				h.disconnect(errors.New("handling message failed").Wrap(err))
			}

		case err := <-h.disconnectChan:
			h.handleDisconnect(err)
			if ctx.Err() == nil {
				// cancel context so go routines can cleanly exit
				cancel()
			}
		}
	}

	wg.Wait()
}

func (h *handler) send(msgType string, requestID uint32, data any) {
	msg, err := messages.MsgFromData(msgType, requestID, data)
	if err != nil {
		logs.WithClientID(h.Handler.GetClientID()).
			WithTag("msg_type", msgType).
			Debug(err)
		return
	}
	h.sendChan <- msg
}

func (h *handler) sendMsg(msg messages.Msg) {
	h.sendChan <- msg
}

func (h *handler) startSending(ctx context.Context) {
	defer func() {
		for len(h.sendChan) != 0 {
			<-h.sendChan
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case msg := <-h.sendChan:
			if _, err := h.sender(msg); err != nil {
				h.disconnect(errors.New("sending message failed").Wrap(err))
				return
			}
		}
	}
}

func (h *handler) startReceiving(ctx context.Context, respond messages.ResponseSender) {
	for {
		select {
		case <-ctx.Done():
			return

		default:
			msg, _, err := h.receiver()
			if errors.IsType(err, messages.ErrTypeMsgInvalid) {
				respond.Send(messages.MsgTypeErrorResponse, 0, messages.ErrorResponse{
					Code: messages.ErrorCodeInvalidMessage,
				})
				continue
			}
			if err != nil {
				h.disconnect(errors.New("receiving message failed").Wrap(err))
				return
			}

			select {
			case <-ctx.Done():
				return

			case h.receiveChan <- msg:
			}
		}
	}
}

func (h *handler) handleMessage(ctx context.Context, msg messages.Msg, responder messages.ResponseSender) error {
	if msg.Type == messages.MsgTypePingRequest {
		return h.Handler.HandlePing(ctx, responder, msg)
	}

	if h.Handler.CurrentClient() == nil {
		return nil
	}

	for _, m := range h.Handler.GetModules() {
		if err := h.Handler.HandleWithModule(ctx, m, responder, msg); err != nil {
			return err
		}
	}
	return nil
}

func (h *handler) disconnect(err error) {
	h.disconnectChan <- err
}

func (h *handler) handleDisconnect(err error) {
	h.Conn.Close()
	h.Handler.HandleDisconnect(err)
}

type responseSender struct {
	send    func(string, uint32, any)
	sendMsg func(messages.Msg)
}

func (r responseSender) Send(msgType string, requestID uint32, data any) {
	r.send(msgType, requestID, data)
}

func (r responseSender) SendMsg(msg messages.Msg) {
	r.sendMsg(msg)
}
