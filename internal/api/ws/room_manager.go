package ws

import (
	"context"

	"tabletop/internal/protocol"
)

// RoomManager serialises access to the room state.
type RoomManager interface {
	Apply(fn func())
}

// MessageRouter handles messages that passed the authentication gate.
type MessageRouter interface {
	Authenticate(ctx context.Context, msg protocol.Message, uid string) (bool, error)
	RouteAuth(ctx context.Context, msg protocol.Message, uid string) error
	Route(ctx context.Context, msg protocol.Message, uid string) error
	Disconnect(uid string) error
}
