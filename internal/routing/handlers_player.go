package routing

import (
	"context"
	"math"

	"tabletop/internal/protocol"
)

// Player self-service. The sender may only touch its own record.

func (r *Router) handleHeartbeat(_ context.Context, rc *Context, _ protocol.Message) *Result {
	r.svc.Players.Heartbeat(rc.State(), rc.SenderUID(), r.nowMillis())
	return nil
}

func (r *Router) handlePortrait(_ context.Context, rc *Context, msg protocol.Message) *Result {
	var p protocol.PortraitPayload
	if !r.bind(rc, msg, &p) {
		return nil
	}
	if !r.svc.Players.SetPortrait(rc.State(), rc.SenderUID(), p.Data) {
		return nil
	}
	return broadcastAndSave("portrait", changed("players", rc.SenderUID()))
}

func (r *Router) handleRename(_ context.Context, rc *Context, msg protocol.Message) *Result {
	var p protocol.RenamePayload
	if !r.bind(rc, msg, &p) || p.Name == nil {
		return nil
	}
	if !r.svc.Players.Rename(rc.State(), rc.SenderUID(), *p.Name) {
		return nil
	}
	return broadcastAndSave("rename", changed("players", rc.SenderUID()))
}

func (r *Router) handleMicLevel(_ context.Context, rc *Context, msg protocol.Message) *Result {
	var p protocol.MicLevelPayload
	if !r.bind(rc, msg, &p) || p.Level == nil || !isFinite(*p.Level) {
		return nil
	}
	if !r.svc.Players.SetMicLevel(rc.State(), rc.SenderUID(), int(math.Round(*p.Level))) {
		return nil
	}
	return broadcastOnly("mic-level", changed("players", rc.SenderUID()))
}

func (r *Router) handleSetHP(_ context.Context, rc *Context, msg protocol.Message) *Result {
	var p protocol.SetHPPayload
	if !r.bind(rc, msg, &p) || p.HP == nil || p.MaxHP == nil {
		return nil
	}
	if !isFinite(*p.HP) || !isFinite(*p.MaxHP) {
		return nil
	}
	hp, maxHP := int(math.Round(*p.HP)), int(math.Round(*p.MaxHP))
	if !r.svc.Players.SetHP(rc.State(), rc.SenderUID(), hp, maxHP) {
		return nil
	}
	return broadcastAndSave("set-hp", changed("players", rc.SenderUID()))
}

func (r *Router) handleSetStatusEffects(_ context.Context, rc *Context, msg protocol.Message) *Result {
	var p protocol.StatusEffectsPayload
	if !r.bind(rc, msg, &p) {
		return nil
	}
	effects := p.Effects
	if effects == nil {
		effects = []string{}
	}
	if !r.svc.Players.SetStatusEffects(rc.State(), rc.SenderUID(), effects) {
		return nil
	}
	return broadcastAndSave("status-effects", changed("players", rc.SenderUID()))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
