package routing

import (
	"context"

	"tabletop/internal/protocol"
)

func (r *Router) handleDiceRoll(_ context.Context, rc *Context, msg protocol.Message) *Result {
	var p protocol.DiceRollPayload
	if !r.bind(rc, msg, &p) {
		return nil
	}
	roll, ok := r.svc.Dice.Roll(rc.State(), rc.SenderUID(), p.Formula)
	if !ok {
		return nil
	}
	return broadcastOnly("dice-roll", changed("diceRolls", roll.ID))
}

func (r *Router) handleClearRollHistory(_ context.Context, rc *Context, _ protocol.Message) *Result {
	if !r.enforcer.EnforceDMAction(rc.SenderUID(), rc.IsDM(), "clear roll history") {
		return nil
	}
	if !r.svc.Dice.ClearHistory(rc.State()) {
		return nil
	}
	return broadcastAndSave("clear-roll-history", changed("diceRolls"))
}
