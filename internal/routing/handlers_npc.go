package routing

import (
	"context"

	"tabletop/internal/game"
	"tabletop/internal/protocol"
	"tabletop/internal/shared"
)

func (r *Router) handleCreateNPC(_ context.Context, rc *Context, msg protocol.Message) *Result {
	if !r.enforcer.EnforceDMAction(rc.SenderUID(), rc.IsDM(), "create NPC") {
		return nil
	}
	var p protocol.CreateNPCPayload
	if !r.bind(rc, msg, &p) {
		return nil
	}
	c, ok := r.svc.Characters.CreateNPC(rc.State(), rc.SenderUID(), game.CharacterInput{
		Name:       p.Name,
		HP:         p.HP,
		MaxHP:      p.MaxHP,
		Portrait:   p.Portrait,
		TokenImage: p.TokenImage,
	})
	if !ok {
		return nil
	}
	return broadcastAndSave("create-npc", changed("characters", c.ID))
}

func (r *Router) handleUpdateNPC(_ context.Context, rc *Context, msg protocol.Message) *Result {
	if !r.enforcer.EnforceDMAction(rc.SenderUID(), rc.IsDM(), "update NPC") {
		return nil
	}
	var p protocol.UpdateNPCPayload
	if !r.bind(rc, msg, &p) || !r.isNPC(rc.State(), p.ID) {
		return nil
	}
	ok := r.svc.Characters.Update(rc.State(), p.ID, game.CharacterPatch{
		Name:       p.Name,
		HP:         p.HP,
		MaxHP:      p.MaxHP,
		Portrait:   p.Portrait,
		TokenImage: p.TokenImage,
	})
	if !ok {
		return nil
	}
	return broadcastAndSave("update-npc", changed("characters", p.ID))
}

// handleDeleteNPC removes the NPC, its token and every selection of that
// token in one step.
func (r *Router) handleDeleteNPC(_ context.Context, rc *Context, msg protocol.Message) *Result {
	if !r.enforcer.EnforceDMAction(rc.SenderUID(), rc.IsDM(), "delete NPC") {
		return nil
	}
	var p protocol.IDPayload
	if !r.bind(rc, msg, &p) || !r.isNPC(rc.State(), p.ID) {
		return nil
	}
	if !r.svc.Characters.Delete(rc.State(), p.ID) {
		return nil
	}
	return broadcastAndSave("delete-npc", changed("characters", p.ID))
}

func (r *Router) handlePlaceNPCToken(_ context.Context, rc *Context, msg protocol.Message) *Result {
	if !r.enforcer.EnforceDMAction(rc.SenderUID(), rc.IsDM(), "place NPC token") {
		return nil
	}
	var p protocol.PlaceTokenPayload
	if !r.bind(rc, msg, &p) || !r.isNPC(rc.State(), p.ID) {
		return nil
	}
	t, ok := r.svc.Characters.PlaceToken(rc.State(), p.ID, p.X, p.Y)
	if !ok {
		return nil
	}
	return broadcastAndSave("place-npc-token", changed("tokens", t.ID))
}

func (r *Router) isNPC(state *shared.RoomState, id string) bool {
	c := state.FindCharacter(id)
	return c != nil && c.Type == shared.CharacterTypeNPC
}

// Player characters.

func (r *Router) handleCreateCharacter(_ context.Context, rc *Context, msg protocol.Message) *Result {
	var p protocol.CreateNPCPayload
	if !r.bind(rc, msg, &p) {
		return nil
	}
	c, ok := r.svc.Characters.CreatePlayerCharacter(rc.State(), rc.SenderUID(), game.CharacterInput{
		Name:       p.Name,
		HP:         p.HP,
		MaxHP:      p.MaxHP,
		Portrait:   p.Portrait,
		TokenImage: p.TokenImage,
	})
	if !ok {
		return nil
	}
	return broadcastAndSave("create-character", changed("characters", c.ID))
}

func (r *Router) handleDeleteCharacter(_ context.Context, rc *Context, msg protocol.Message) *Result {
	var p protocol.IDPayload
	if !r.bind(rc, msg, &p) {
		return nil
	}
	owner, ok := r.svc.Characters.Owner(rc.State(), p.ID)
	if !ok || !r.ownerOrDM(rc, owner, "delete character") {
		return nil
	}
	if !r.svc.Characters.Delete(rc.State(), p.ID) {
		return nil
	}
	return broadcastAndSave("delete-character", changed("characters", p.ID))
}

// handleLinkToken attaches a token to a character. The sender must own both
// or be the DM.
func (r *Router) handleLinkToken(_ context.Context, rc *Context, msg protocol.Message) *Result {
	var p protocol.LinkTokenPayload
	if !r.bind(rc, msg, &p) {
		return nil
	}
	state := rc.State()
	charOwner, ok := r.svc.Characters.Owner(state, p.CharacterID)
	if !ok {
		return nil
	}
	tokenOwner, ok := r.svc.Tokens.Owner(state, p.TokenID)
	if !ok {
		return nil
	}
	mine := charOwner == rc.SenderUID() && tokenOwner == rc.SenderUID()
	if !mine && !r.enforcer.EnforceDMAction(rc.SenderUID(), rc.IsDM(), "link token") {
		return nil
	}
	if !r.svc.Characters.LinkToken(state, p.CharacterID, p.TokenID) {
		return nil
	}
	return broadcastAndSave("link-token", changed("characters", p.CharacterID))
}
