package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tabletop/internal/game"
	"tabletop/internal/protocol"
)

// Peer is one client connection as seen by handlers that reply privately.
type Peer interface {
	Open() bool
	Send(payload []byte) bool
}

// Peers looks up a connection by player uid.
type Peers interface {
	Peer(uid string) (Peer, bool)
}

type handlerFunc func(ctx context.Context, rc *Context, msg protocol.Message) *Result

// Config wires a Router.
type Config struct {
	Services  *game.Services
	State     StateSource
	Peers     Peers
	Broadcast BroadcastFunc
	Save      SaveFunc
	Now       game.Clock
	Logger    zerolog.Logger
}

// Router dispatches a decoded message to exactly one handler and feeds the
// handler's result to the ResultHandler.
type Router struct {
	svc      *game.Services
	contexts *ContextFactory
	enforcer *Enforcer
	results  *ResultHandler
	peers    Peers
	now      game.Clock
	log      zerolog.Logger

	handlers map[protocol.Type]handlerFunc
}

func New(cfg Config) *Router {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	log := cfg.Logger.With().Str("module", "routing").Logger()
	r := &Router{
		svc:      cfg.Services,
		contexts: NewContextFactory(cfg.State, cfg.Services.Players),
		enforcer: NewEnforcer(log),
		results:  NewResultHandler(cfg.Broadcast, cfg.Save),
		peers:    cfg.Peers,
		now:      now,
		log:      log,
	}
	r.handlers = map[protocol.Type]handlerFunc{
		protocol.TypeHeartbeat: r.handleHeartbeat,

		protocol.TypePortrait:         r.handlePortrait,
		protocol.TypeRename:           r.handleRename,
		protocol.TypeMicLevel:         r.handleMicLevel,
		protocol.TypeSetHP:            r.handleSetHP,
		protocol.TypeSetStatusEffects: r.handleSetStatusEffects,

		protocol.TypeMapBackground:    r.handleMapBackground,
		protocol.TypeGridSize:         r.handleGridSize,
		protocol.TypeGridSquareSize:   r.handleGridSquareSize,
		protocol.TypeSetStagingZone:   r.handleSetStagingZone,
		protocol.TypeClearStagingZone: r.handleClearStagingZone,
		protocol.TypeDraw:             r.handleDraw,
		protocol.TypeEraseDrawing:     r.handleEraseDrawing,
		protocol.TypeClearDrawings:    r.handleClearDrawings,
		protocol.TypeCreateProp:       r.handleCreateProp,
		protocol.TypeUpdateProp:       r.handleUpdateProp,
		protocol.TypeDeleteProp:       r.handleDeleteProp,

		protocol.TypeCreateNPC:     r.handleCreateNPC,
		protocol.TypeUpdateNPC:     r.handleUpdateNPC,
		protocol.TypeDeleteNPC:     r.handleDeleteNPC,
		protocol.TypePlaceNPCToken: r.handlePlaceNPCToken,

		protocol.TypeCreateCharacter: r.handleCreateCharacter,
		protocol.TypeDeleteCharacter: r.handleDeleteCharacter,
		protocol.TypeLinkToken:       r.handleLinkToken,

		protocol.TypeAddToken:         r.handleAddToken,
		protocol.TypeMoveToken:        r.handleMoveToken,
		protocol.TypeDeleteToken:      r.handleDeleteToken,
		protocol.TypeUpdateTokenImage: r.handleUpdateTokenImage,
		protocol.TypeSelectObject:     r.handleSelectObject,
		protocol.TypeDeselectObject:   r.handleDeselectObject,

		protocol.TypeDiceRoll:         r.handleDiceRoll,
		protocol.TypeClearRollHistory: r.handleClearRollHistory,

		protocol.TypeStartCombat:   r.handleStartCombat,
		protocol.TypeEndCombat:     r.handleEndCombat,
		protocol.TypeSetInitiative: r.handleSetInitiative,
		protocol.TypeNextTurn:      r.handleNextTurn,

		protocol.TypeSetRoomPassword: r.handleSetRoomPassword,
		protocol.TypeClearAllTokens:  r.handleClearAllTokens,

		protocol.TypeRTCSignal: r.handleRTCSignal,
	}
	return r
}

// SetPeers sets the connection lookup used for private replies. The hub is
// built after the router, so it is attached here.
func (r *Router) SetPeers(p Peers) {
	r.peers = p
}

// Route handles one message from senderUID. Unknown and deprecated tags are
// logged and ignored. The returned error comes from the broadcast or save
// side effect only.
func (r *Router) Route(ctx context.Context, msg protocol.Message, senderUID string) error {
	if msg.T == protocol.TypeToggleDM {
		r.log.Warn().
			Str("uid", senderUID).
			Str("type", string(msg.T)).
			Msg("deprecated message ignored")
		return nil
	}
	h, ok := r.handlers[msg.T]
	if !ok {
		r.log.Debug().
			Str("uid", senderUID).
			Str("type", string(msg.T)).
			Msg("unknown message type")
		return nil
	}
	rc := r.contexts.Create(senderUID)
	if err := r.results.Handle(h(ctx, rc, msg)); err != nil {
		return fmt.Errorf("route %s: %w", msg.T, err)
	}
	return nil
}

// bind decodes the payload, logging malformed input at debug level.
func (r *Router) bind(rc *Context, msg protocol.Message, v any) bool {
	if err := msg.Bind(v); err != nil {
		r.log.Debug().Err(err).Str("uid", rc.SenderUID()).Msg("malformed message")
		return false
	}
	return true
}

// sendTo delivers an outbound message to a single open connection.
func (r *Router) sendTo(uid string, v any) bool {
	if r.peers == nil {
		return false
	}
	peer, ok := r.peers.Peer(uid)
	if !ok || !peer.Open() {
		return false
	}
	payload, err := protocol.Encode(v)
	if err != nil {
		r.log.Error().Err(err).Str("uid", uid).Msg("encode private message")
		return false
	}
	return peer.Send(payload)
}

func (r *Router) nowMillis() int64 {
	return r.now().UnixMilli()
}

// ownerOrDM allows the owner of an object or the DM.
func (r *Router) ownerOrDM(rc *Context, owner, action string) bool {
	if owner == rc.SenderUID() {
		return true
	}
	return r.enforcer.EnforceDMAction(rc.SenderUID(), rc.IsDM(), action)
}
