package routing

import (
	"context"
	"math"

	"tabletop/internal/game"
	"tabletop/internal/protocol"
	"tabletop/internal/shared"
)

// Map presentation settings are broadcast but not saved on every change.

func (r *Router) handleMapBackground(_ context.Context, rc *Context, msg protocol.Message) *Result {
	if !r.enforcer.EnforceDMAction(rc.SenderUID(), rc.IsDM(), "set map background") {
		return nil
	}
	var p protocol.MapBackgroundPayload
	if !r.bind(rc, msg, &p) {
		return nil
	}
	r.svc.Map.SetBackground(rc.State(), p.Data)
	return broadcastOnly("map-background", changed("map"))
}

func (r *Router) handleGridSize(_ context.Context, rc *Context, msg protocol.Message) *Result {
	if !r.enforcer.EnforceDMAction(rc.SenderUID(), rc.IsDM(), "set grid size") {
		return nil
	}
	var p protocol.GridSizePayload
	if !r.bind(rc, msg, &p) || p.Size == nil || !isFinite(*p.Size) {
		return nil
	}
	if !r.svc.Map.SetGridSize(rc.State(), int(math.Round(*p.Size))) {
		return nil
	}
	return broadcastOnly("grid-size", changed("map"))
}

func (r *Router) handleGridSquareSize(_ context.Context, rc *Context, msg protocol.Message) *Result {
	if !r.enforcer.EnforceDMAction(rc.SenderUID(), rc.IsDM(), "set grid square size") {
		return nil
	}
	var p protocol.GridSizePayload
	if !r.bind(rc, msg, &p) || p.Size == nil {
		return nil
	}
	if !r.svc.Map.SetGridSquareSize(rc.State(), *p.Size) {
		return nil
	}
	return broadcastOnly("grid-square-size", changed("map"))
}

func (r *Router) handleSetStagingZone(_ context.Context, rc *Context, msg protocol.Message) *Result {
	if !r.enforcer.EnforceDMAction(rc.SenderUID(), rc.IsDM(), "set staging zone") {
		return nil
	}
	var p protocol.StagingZonePayload
	if !r.bind(rc, msg, &p) {
		return nil
	}
	zone := shared.StagingZone{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height, Rotation: p.Rotation}
	if !r.svc.Map.SetStagingZone(rc.State(), zone) {
		return nil
	}
	return broadcastAndSave("staging-zone", changed("map"))
}

func (r *Router) handleClearStagingZone(_ context.Context, rc *Context, _ protocol.Message) *Result {
	if !r.enforcer.EnforceDMAction(rc.SenderUID(), rc.IsDM(), "clear staging zone") {
		return nil
	}
	if !r.svc.Map.ClearStagingZone(rc.State()) {
		return nil
	}
	return broadcastAndSave("staging-zone", changed("map"))
}

func (r *Router) handleDraw(_ context.Context, rc *Context, msg protocol.Message) *Result {
	var p protocol.DrawPayload
	if !r.bind(rc, msg, &p) {
		return nil
	}
	d, ok := r.svc.Map.AddDrawing(rc.State(), rc.SenderUID(), p.Drawing)
	if !ok {
		return nil
	}
	return broadcastAndSave("draw", changed("drawings", d.ID))
}

func (r *Router) handleEraseDrawing(_ context.Context, rc *Context, msg protocol.Message) *Result {
	var p protocol.IDPayload
	if !r.bind(rc, msg, &p) {
		return nil
	}
	owner, ok := r.svc.Map.DrawingOwner(rc.State(), p.ID)
	if !ok || !r.ownerOrDM(rc, owner, "erase drawing") {
		return nil
	}
	if !r.svc.Map.RemoveDrawing(rc.State(), p.ID) {
		return nil
	}
	return broadcastAndSave("erase-drawing", changed("drawings", p.ID))
}

func (r *Router) handleClearDrawings(_ context.Context, rc *Context, _ protocol.Message) *Result {
	if !r.enforcer.EnforceDMAction(rc.SenderUID(), rc.IsDM(), "clear drawings") {
		return nil
	}
	if r.svc.Map.ClearDrawings(rc.State()) == 0 {
		return nil
	}
	return broadcastAndSave("clear-drawings", changed("drawings"))
}

func (r *Router) handleCreateProp(_ context.Context, rc *Context, msg protocol.Message) *Result {
	if !r.enforcer.EnforceDMAction(rc.SenderUID(), rc.IsDM(), "create prop") {
		return nil
	}
	var p protocol.PropPayload
	if !r.bind(rc, msg, &p) {
		return nil
	}
	prop, ok := r.svc.Props.Create(rc.State(), propInput(p))
	if !ok {
		return nil
	}
	return broadcastAndSave("create-prop", changed("props", prop.ID))
}

func (r *Router) handleUpdateProp(_ context.Context, rc *Context, msg protocol.Message) *Result {
	if !r.enforcer.EnforceDMAction(rc.SenderUID(), rc.IsDM(), "update prop") {
		return nil
	}
	var p protocol.PropPayload
	if !r.bind(rc, msg, &p) || p.ID == "" {
		return nil
	}
	if !r.svc.Props.Update(rc.State(), p.ID, propInput(p)) {
		return nil
	}
	return broadcastAndSave("update-prop", changed("props", p.ID))
}

func (r *Router) handleDeleteProp(_ context.Context, rc *Context, msg protocol.Message) *Result {
	if !r.enforcer.EnforceDMAction(rc.SenderUID(), rc.IsDM(), "delete prop") {
		return nil
	}
	var p protocol.IDPayload
	if !r.bind(rc, msg, &p) {
		return nil
	}
	if !r.svc.Props.Delete(rc.State(), p.ID) {
		return nil
	}
	return broadcastAndSave("delete-prop", changed("props", p.ID))
}

func propInput(p protocol.PropPayload) game.PropInput {
	return game.PropInput{
		Label:    p.Label,
		ImageURL: p.ImageURL,
		X:        p.X,
		Y:        p.Y,
		Width:    p.Width,
		Height:   p.Height,
		Rotation: p.Rotation,
		ZIndex:   p.ZIndex,
	}
}
