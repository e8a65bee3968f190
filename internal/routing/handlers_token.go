package routing

import (
	"context"

	"tabletop/internal/game"
	"tabletop/internal/protocol"
)

func (r *Router) handleAddToken(_ context.Context, rc *Context, msg protocol.Message) *Result {
	var p protocol.AddTokenPayload
	if !r.bind(rc, msg, &p) {
		return nil
	}
	t, ok := r.svc.Tokens.Add(rc.State(), rc.SenderUID(), game.TokenInput{
		X:        p.X,
		Y:        p.Y,
		Color:    p.Color,
		ImageURL: p.ImageURL,
	})
	if !ok {
		return nil
	}
	return broadcastAndSave("add-token", changed("tokens", t.ID))
}

func (r *Router) handleMoveToken(_ context.Context, rc *Context, msg protocol.Message) *Result {
	var p protocol.MoveTokenPayload
	if !r.bind(rc, msg, &p) {
		return nil
	}
	owner, ok := r.svc.Tokens.Owner(rc.State(), p.ID)
	if !ok || !r.ownerOrDM(rc, owner, "move token") {
		return nil
	}
	if !r.svc.Tokens.Move(rc.State(), p.ID, p.X, p.Y) {
		return nil
	}
	return broadcastAndSave("move-token", changed("tokens", p.ID))
}

func (r *Router) handleDeleteToken(_ context.Context, rc *Context, msg protocol.Message) *Result {
	var p protocol.IDPayload
	if !r.bind(rc, msg, &p) {
		return nil
	}
	owner, ok := r.svc.Tokens.Owner(rc.State(), p.ID)
	if !ok || !r.ownerOrDM(rc, owner, "delete token") {
		return nil
	}
	if !r.svc.Tokens.Remove(rc.State(), p.ID) {
		return nil
	}
	return broadcastAndSave("delete-token", changed("tokens", p.ID))
}

func (r *Router) handleUpdateTokenImage(_ context.Context, rc *Context, msg protocol.Message) *Result {
	var p protocol.TokenImagePayload
	if !r.bind(rc, msg, &p) {
		return nil
	}
	owner, ok := r.svc.Tokens.Owner(rc.State(), p.ID)
	if !ok || !r.ownerOrDM(rc, owner, "update token image") {
		return nil
	}
	if !r.svc.Tokens.SetImage(rc.State(), p.ID, p.ImageURL) {
		return nil
	}
	return broadcastAndSave("token-image", changed("tokens", p.ID))
}

// Selections are transient and never saved.

func (r *Router) handleSelectObject(_ context.Context, rc *Context, msg protocol.Message) *Result {
	var p protocol.SelectObjectPayload
	if !r.bind(rc, msg, &p) {
		return nil
	}
	if !r.svc.Selection.Select(rc.State(), rc.SenderUID(), p.ObjectID) {
		return nil
	}
	return broadcastOnly("select-object", changed("selection", rc.SenderUID()))
}

func (r *Router) handleDeselectObject(_ context.Context, rc *Context, _ protocol.Message) *Result {
	if !r.svc.Selection.Deselect(rc.State(), rc.SenderUID()) {
		return nil
	}
	return broadcastOnly("deselect-object", changed("selection", rc.SenderUID()))
}
