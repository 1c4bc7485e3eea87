package messages

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const (
	// A message handler did not handle the given message.
	ErrTypeMsgSkip = "msg_skip"

	// A message could not be decoded.
	ErrTypeMsgInvalid = "msg_invalid"
)

// ErrModuleMsgSkip is returned by modules that do not handle a message.
var ErrModuleMsgSkip = errors.New("message skipped").WithType(ErrTypeMsgSkip)

// Msg is the envelope of every message exchanged over a WebSocket
// connection.
type Msg struct {
	Type      string          `json:"type"`
	RequestID uint32          `json:"request_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MsgFromData returns a message of the given type carrying data encoded as
// JSON.
func MsgFromData(msgType string, requestID uint32, data any) (Msg, error) {
	msg := Msg{
		Type:      msgType,
		RequestID: requestID,
		Timestamp: time.Now(),
	}

	if data == nil {
		return msg, nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return Msg{}, errors.New("encoding message data failed").
			WithType(ErrTypeMsgInvalid).
			WithTag("msg_type", msgType).
			Wrap(err)
	}
	msg.Data = b
	return msg, nil
}

// DataTo decodes the message data into v.
func (m Msg) DataTo(v any) error {
	if len(m.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(m.Data, v); err != nil {
		return errors.New("decoding message data failed").
			WithType(ErrTypeMsgInvalid).
			WithTag("msg_type", m.Type).
			Wrap(err)
	}
	return nil
}

// ResponseSender sends messages to the client that sent the message being
// handled.
type ResponseSender interface {
	// Sends a message built from the given data. Data that can't be encoded
	// is dropped.
	Send(msgType string, requestID uint32, data any)

	// Sends a message.
	SendMsg(Msg)
}

// Sender writes a message to a connection and returns the number of bytes
// written.
type Sender func(Msg) (int, error)

// Receiver reads a message from a connection and returns the number of bytes
// read.
type Receiver func() (Msg, int, error)

// Send writes the given message to the connection.
func Send(conn *websocket.Conn, msg Msg) (int, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return 0, errors.New("encoding message failed").
			WithType(ErrTypeMsgInvalid).
			WithTag("msg_type", msg.Type).
			Wrap(err)
	}

	if err := websocket.Message.Send(conn, string(b)); err != nil {
		return 0, err
	}
	return len(b), nil
}

// Receive reads a message from the connection.
func Receive(conn *websocket.Conn) (Msg, int, error) {
	var b []byte
	if err := websocket.Message.Receive(conn, &b); err != nil {
		return Msg{}, 0, err
	}

	var msg Msg
	if err := json.Unmarshal(b, &msg); err != nil {
		return Msg{}, len(b), errors.New("decoding message failed").
			WithType(ErrTypeMsgInvalid).
			WithTag("size", len(b)).
			Wrap(err)
	}
	return msg, len(b), nil
}
