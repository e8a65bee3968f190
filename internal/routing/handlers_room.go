package routing

import (
	"context"
	"errors"

	"tabletop/internal/game"
	"tabletop/internal/protocol"
)

const (
	reasonRoomPasswordNotDM  = "Only the DM can change the room password."
	reasonRoomPasswordFailed = "Unable to update the room password."
)

// handleSetRoomPassword replies privately in every case; the password is not
// part of the room state so nothing is broadcast.
func (r *Router) handleSetRoomPassword(ctx context.Context, rc *Context, msg protocol.Message) *Result {
	uid := rc.SenderUID()
	if !r.enforcer.EnforceDMAction(uid, rc.IsDM(), "set room password") {
		r.sendRoomPasswordFailure(uid, reasonRoomPasswordNotDM)
		return nil
	}
	var p protocol.RoomPasswordPayload
	if !r.bind(rc, msg, &p) {
		r.sendRoomPasswordFailure(uid, reasonRoomPasswordFailed)
		return nil
	}
	secret, source, err := r.svc.Auth.ValidateRoomPassword(p.Secret)
	if err != nil {
		r.sendRoomPasswordFailure(uid, game.PasswordLengthReason)
		return nil
	}
	if err := r.svc.Auth.SetRoomPassword(ctx, secret); err != nil {
		r.log.Error().Err(err).Str("uid", uid).Msg("set room password")
		r.sendRoomPasswordFailure(uid, reasonRoomPasswordFailed)
		return nil
	}
	r.sendTo(uid, protocol.PasswordUpdated{
		T:         protocol.TypeRoomPasswordUpdated,
		UpdatedAt: r.nowMillis(),
		Source:    source,
	})
	return nil
}

func (r *Router) sendRoomPasswordFailure(uid, reason string) {
	r.sendTo(uid, protocol.Failure{T: protocol.TypeRoomPasswordUpdateFailed, Reason: reason})
}

func (r *Router) handleClearAllTokens(_ context.Context, rc *Context, _ protocol.Message) *Result {
	if !r.enforcer.EnforceDMAction(rc.SenderUID(), rc.IsDM(), "clear all tokens") {
		return nil
	}
	if r.svc.Tokens.RemoveAll(rc.State()) == 0 {
		return nil
	}
	return broadcastAndSave("clear-all-tokens", changed("tokens"))
}

// passwordFailureReason maps auth errors to text safe to show a client.
func passwordFailureReason(err error, fallback string) string {
	switch {
	case errors.Is(err, game.ErrPasswordLength):
		return game.PasswordLengthReason
	case errors.Is(err, game.ErrInvalidPassword):
		return "Incorrect password."
	default:
		return fallback
	}
}
