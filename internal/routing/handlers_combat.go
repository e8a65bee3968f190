package routing

import (
	"context"

	"tabletop/internal/protocol"
)

func (r *Router) handleStartCombat(_ context.Context, rc *Context, _ protocol.Message) *Result {
	if !r.enforcer.EnforceDMAction(rc.SenderUID(), rc.IsDM(), "start combat") {
		return nil
	}
	if !r.svc.Combat.Start(rc.State()) {
		return nil
	}
	return broadcastAndSave("start-combat", changed("combat"))
}

func (r *Router) handleEndCombat(_ context.Context, rc *Context, _ protocol.Message) *Result {
	if !r.enforcer.EnforceDMAction(rc.SenderUID(), rc.IsDM(), "end combat") {
		return nil
	}
	if !r.svc.Combat.End(rc.State()) {
		return nil
	}
	return broadcastAndSave("end-combat", changed("combat"))
}

func (r *Router) handleSetInitiative(_ context.Context, rc *Context, msg protocol.Message) *Result {
	var p protocol.InitiativePayload
	if !r.bind(rc, msg, &p) || p.Initiative == nil {
		return nil
	}
	owner, ok := r.svc.Characters.Owner(rc.State(), p.CharacterID)
	if !ok || !r.ownerOrDM(rc, owner, "set initiative") {
		return nil
	}
	if !r.svc.Combat.SetInitiative(rc.State(), p.CharacterID, *p.Initiative) {
		return nil
	}
	return broadcastAndSave("set-initiative", changed("combat", p.CharacterID))
}

// handleNextTurn lets the DM or the owner of the acting character end the turn.
func (r *Router) handleNextTurn(_ context.Context, rc *Context, _ protocol.Message) *Result {
	state := rc.State()
	if !state.CombatActive {
		return nil
	}
	owner := ""
	if cur := state.CurrentTurnCharacterID; cur != nil {
		owner, _ = r.svc.Characters.Owner(state, *cur)
	}
	if !r.ownerOrDM(rc, owner, "advance turn") {
		return nil
	}
	if !r.svc.Combat.Next(state) {
		return nil
	}
	return broadcastAndSave("next-turn", changed("combat"))
}
