package game

import "tabletop/internal/shared"

// SelectionService tracks which object each player currently has selected.
type SelectionService struct{}

func (s *SelectionService) Select(state *shared.RoomState, uid, objectID string) bool {
	if uid == "" || objectID == "" {
		return false
	}
	if state.SelectedObjects == nil {
		state.SelectedObjects = map[string]string{}
	}
	state.SelectedObjects[uid] = objectID
	return true
}

// Deselect clears uid's selection. It reports false when nothing was selected.
func (s *SelectionService) Deselect(state *shared.RoomState, uid string) bool {
	if _, ok := state.SelectedObjects[uid]; !ok {
		return false
	}
	delete(state.SelectedObjects, uid)
	return true
}

// ReleaseObject drops objectID from every player's selection and returns how
// many selections were cleared.
func (s *SelectionService) ReleaseObject(state *shared.RoomState, objectID string) int {
	n := 0
	for uid, selected := range state.SelectedObjects {
		if selected == objectID {
			delete(state.SelectedObjects, uid)
			n++
		}
	}
	return n
}
