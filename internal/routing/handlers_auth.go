package routing

import (
	"context"
	"errors"
	"fmt"

	"tabletop/internal/game"
	"tabletop/internal/protocol"
)

const (
	reasonAuthFailed        = "Invalid room password."
	reasonDMElevationFailed = "Unable to verify the DM password."
	reasonDMPasswordNotDM   = "Only the DM can change the DM password."
	reasonDMPasswordFailed  = "Unable to update the DM password."
)

// Authenticate checks the room secret carried by an authenticate message.
// On success the sender joins the room and everyone receives the new state.
// The returned bool tells the connection gate whether to mark the sender
// authenticated; the error comes from the broadcast or save only.
func (r *Router) Authenticate(_ context.Context, msg protocol.Message, uid string) (bool, error) {
	rc := r.contexts.Create(uid)
	var p protocol.AuthenticatePayload
	if !r.bind(rc, msg, &p) || !r.svc.Auth.Authenticate(p.Secret) {
		r.log.Warn().Str("uid", uid).Msg("authentication failed")
		r.sendTo(uid, protocol.Failure{T: protocol.TypeAuthFailed, Reason: reasonAuthFailed})
		return false, nil
	}
	player := r.svc.Players.Join(rc.State(), uid, p.Name, r.nowMillis())
	r.sendTo(uid, protocol.AuthOK{T: protocol.TypeAuthOK, UID: uid, IsDM: player.IsDM})
	if err := r.results.Handle(broadcastAndSave("player-joined", changed("players", uid))); err != nil {
		return true, fmt.Errorf("route %s: %w", msg.T, err)
	}
	return true, nil
}

// RouteAuth handles the DM privilege messages the gate intercepts from
// authenticated connections.
func (r *Router) RouteAuth(ctx context.Context, msg protocol.Message, uid string) error {
	rc := r.contexts.Create(uid)
	var res *Result
	switch msg.T {
	case protocol.TypeElevateToDM:
		res = r.elevateToDM(ctx, rc, msg)
	case protocol.TypeRevokeDM:
		res = r.revokeDM(rc)
	case protocol.TypeSetDMPassword:
		r.setDMPassword(ctx, rc, msg)
	default:
		return nil
	}
	if err := r.results.Handle(res); err != nil {
		return fmt.Errorf("route %s: %w", msg.T, err)
	}
	return nil
}

func (r *Router) elevateToDM(ctx context.Context, rc *Context, msg protocol.Message) *Result {
	uid := rc.SenderUID()
	var p protocol.DMPasswordPayload
	if !r.bind(rc, msg, &p) {
		return nil
	}
	if err := r.svc.Auth.ElevateDM(ctx, p.DMPassword); err != nil {
		r.log.Warn().Err(err).Str("uid", uid).Msg("dm elevation failed")
		r.sendTo(uid, protocol.Failure{
			T:      protocol.TypeDMElevationFailed,
			Reason: passwordFailureReason(err, reasonDMElevationFailed),
		})
		return nil
	}
	if !r.svc.Players.SetDM(rc.State(), uid, true) {
		return nil
	}
	r.sendTo(uid, protocol.DMStatus{T: protocol.TypeDMStatus, IsDM: true})
	return broadcastAndSave("dm-elevated", changed("players", uid))
}

func (r *Router) revokeDM(rc *Context) *Result {
	uid := rc.SenderUID()
	if !r.svc.Players.SetDM(rc.State(), uid, false) {
		return nil
	}
	r.sendTo(uid, protocol.DMStatus{T: protocol.TypeDMStatus, IsDM: false})
	return broadcastAndSave("dm-revoked", changed("players", uid))
}

func (r *Router) setDMPassword(ctx context.Context, rc *Context, msg protocol.Message) {
	uid := rc.SenderUID()
	fail := func(reason string) {
		r.sendTo(uid, protocol.Failure{T: protocol.TypeDMPasswordUpdateFailed, Reason: reason})
	}
	if !r.enforcer.EnforceDMAction(uid, rc.IsDM(), "set DM password") {
		fail(reasonDMPasswordNotDM)
		return
	}
	var p protocol.DMPasswordPayload
	if !r.bind(rc, msg, &p) {
		fail(reasonDMPasswordFailed)
		return
	}
	if err := r.svc.Auth.SetDMPassword(ctx, p.DMPassword); err != nil {
		if !errors.Is(err, game.ErrPasswordLength) {
			r.log.Error().Err(err).Str("uid", uid).Msg("set dm password")
		}
		fail(passwordFailureReason(err, reasonDMPasswordFailed))
		return
	}
	r.sendTo(uid, protocol.PasswordUpdated{T: protocol.TypeDMPasswordUpdated, UpdatedAt: r.nowMillis()})
}

// Disconnect drops the departing player's selection and tells the room.
func (r *Router) Disconnect(uid string) error {
	rc := r.contexts.Create(uid)
	r.svc.Selection.Deselect(rc.State(), uid)
	if err := r.results.Handle(broadcastOnly("player-left", changed("players", uid))); err != nil {
		return fmt.Errorf("disconnect %s: %w", uid, err)
	}
	return nil
}
