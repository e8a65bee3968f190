// Package routing dispatches decoded client intents to handlers and turns
// their declarative results into broadcast and persistence side effects.
package routing

import (
	"tabletop/internal/game"
	"tabletop/internal/shared"
)

// StateSource exposes the live room state.
type StateSource interface {
	GetState() *shared.RoomState
}

// Context caches the room state and the sender's DM verdict for the handling
// of a single message. It must not outlive that message.
type Context struct {
	sender  string
	source  StateSource
	players *game.PlayerService

	state       *shared.RoomState
	stateLoaded bool
	isDM        bool
	dmLoaded    bool
}

// SenderUID returns the uid of the connection that sent the message.
func (c *Context) SenderUID() string {
	return c.sender
}

// State returns the room state, loading it on first use.
func (c *Context) State() *shared.RoomState {
	if !c.stateLoaded {
		c.state = c.source.GetState()
		c.stateLoaded = true
	}
	return c.state
}

// IsDM reports whether the sender held DM privilege when first asked. Later
// mutations during the same message do not change the answer.
func (c *Context) IsDM() bool {
	if !c.dmLoaded {
		c.isDM = c.players.IsDM(c.State(), c.sender)
		c.dmLoaded = true
	}
	return c.isDM
}

// ContextFactory builds one Context per inbound message.
type ContextFactory struct {
	source  StateSource
	players *game.PlayerService
}

func NewContextFactory(source StateSource, players *game.PlayerService) *ContextFactory {
	return &ContextFactory{source: source, players: players}
}

func (f *ContextFactory) Create(senderUID string) *Context {
	return &Context{sender: senderUID, source: f.source, players: f.players}
}
