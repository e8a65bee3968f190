package routing

import "tabletop/internal/shared"

// Result tells the router what follow-up a handled message needs. A nil
// Result means nothing happens.
type Result struct {
	Broadcast bool
	Save      bool
	Reason    string
	// SkipBroadcast suppresses the broadcast even when Broadcast is set.
	SkipBroadcast bool
	Delta         *shared.Delta
}

// BroadcastFunc pushes the current state to every ready client.
type BroadcastFunc func(reason string, delta *shared.Delta) error

// SaveFunc persists the current state.
type SaveFunc func() error

// ResultHandler is the single place where handler results turn into side
// effects. Broadcast always runs before save, and an error from either
// callback is returned as is; a failed broadcast skips the save.
type ResultHandler struct {
	broadcast BroadcastFunc
	save      SaveFunc
}

func NewResultHandler(broadcast BroadcastFunc, save SaveFunc) *ResultHandler {
	return &ResultHandler{broadcast: broadcast, save: save}
}

func (h *ResultHandler) Handle(r *Result) error {
	if r == nil {
		return nil
	}
	if r.Broadcast && !r.SkipBroadcast {
		if err := h.broadcast(r.Reason, r.Delta); err != nil {
			return err
		}
	}
	if r.Save {
		if err := h.save(); err != nil {
			return err
		}
	}
	return nil
}

func broadcastOnly(reason string, delta *shared.Delta) *Result {
	return &Result{Broadcast: true, Reason: reason, Delta: delta}
}

func broadcastAndSave(reason string, delta *shared.Delta) *Result {
	return &Result{Broadcast: true, Save: true, Reason: reason, Delta: delta}
}

func changed(entity string, ids ...string) *shared.Delta {
	return &shared.Delta{Entity: entity, IDs: ids}
}
