package game

import (
	"sort"

	"tabletop/internal/shared"
)

// CombatService maintains initiative and turn order.
type CombatService struct{}

func (s *CombatService) SetInitiative(state *shared.RoomState, characterID string, initiative int) bool {
	c := state.FindCharacter(characterID)
	if c == nil {
		return false
	}
	v := initiative
	c.Initiative = &v
	if state.CombatActive {
		s.rebuildOrder(state)
	}
	return true
}

// Start orders every character by initiative (highest first, ties keep
// creation order) and hands the first turn to the head of the order.
func (s *CombatService) Start(state *shared.RoomState) bool {
	if len(state.Characters) == 0 {
		return false
	}
	state.CombatActive = true
	s.rebuildOrder(state)
	first := state.TurnOrder[0]
	state.CurrentTurnCharacterID = &first
	return true
}

func (s *CombatService) End(state *shared.RoomState) bool {
	if !state.CombatActive {
		return false
	}
	state.CombatActive = false
	state.CurrentTurnCharacterID = nil
	state.TurnOrder = []string{}
	return true
}

// Next advances the current turn, wrapping to the top of the order.
func (s *CombatService) Next(state *shared.RoomState) bool {
	if !state.CombatActive || len(state.TurnOrder) == 0 {
		return false
	}
	next := state.TurnOrder[0]
	if cur := state.CurrentTurnCharacterID; cur != nil {
		for i, id := range state.TurnOrder {
			if id == *cur {
				next = state.TurnOrder[(i+1)%len(state.TurnOrder)]
				break
			}
		}
	}
	state.CurrentTurnCharacterID = &next
	return true
}

func (s *CombatService) rebuildOrder(state *shared.RoomState) {
	chars := make([]shared.Character, len(state.Characters))
	copy(chars, state.Characters)
	sort.SliceStable(chars, func(i, j int) bool {
		return initiativeOf(chars[i]) > initiativeOf(chars[j])
	})
	order := make([]string, 0, len(chars))
	for _, c := range chars {
		order = append(order, c.ID)
	}
	state.TurnOrder = order
}

func initiativeOf(c shared.Character) int {
	if c.Initiative == nil {
		return -1 << 31
	}
	return *c.Initiative
}

// removeFromTurnOrder drops id from the order, moving the current turn on
// to the next character when id held it.
func removeFromTurnOrder(state *shared.RoomState, id string) {
	idx := -1
	for i, cid := range state.TurnOrder {
		if cid == id {
			idx = i
			break
		}
	}
	if idx >= 0 {
		state.TurnOrder = append(state.TurnOrder[:idx], state.TurnOrder[idx+1:]...)
	}
	cur := state.CurrentTurnCharacterID
	if cur == nil || *cur != id {
		return
	}
	if len(state.TurnOrder) == 0 {
		state.CurrentTurnCharacterID = nil
		state.CombatActive = false
		return
	}
	if idx < 0 || idx >= len(state.TurnOrder) {
		idx = 0
	}
	next := state.TurnOrder[idx]
	state.CurrentTurnCharacterID = &next
}
