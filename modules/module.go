package modules

import (
	"context"

	"github.com/aukilabs/raido/messages"
	"github.com/aukilabs/raido/models"
)

// Module is the interface that describes a module that extends the realtime
// navigation service.
type Module interface {
	// Returns the module name.
	Name() string

	// Initializes the module for the given client.
	Init(*models.Client)

	// Handles a given message. Modules are free to decide whether they handle a
	// message.
	//
	// Returning messages.ErrModuleMsgSkip indicates that handling a message
	// was skipped.
	//
	// Any other returned errors causes the current WebSocket client to be
	// disconnected.
	HandleMsg(context.Context, messages.ResponseSender, messages.Msg) error

	// Handles a client disconnection.
	HandleDisconnect()
}
