package game

import (
	"strings"

	"tabletop/internal/shared"
)

// CharacterService manages NPCs and player characters.
type CharacterService struct {
	newID  IDFunc
	tokens *TokenService
}

// CharacterInput describes a new character. HP defaults to MaxHP when nil.
type CharacterInput struct {
	Name       string
	HP         *int
	MaxHP      int
	Portrait   string
	TokenImage string
}

// CharacterPatch carries optional updates; nil fields are left untouched.
type CharacterPatch struct {
	Name       *string
	HP         *int
	MaxHP      *int
	Portrait   *string
	TokenImage *string
}

func (s *CharacterService) CreateNPC(state *shared.RoomState, owner string, in CharacterInput) (shared.Character, bool) {
	return s.create(state, shared.CharacterTypeNPC, owner, in)
}

func (s *CharacterService) CreatePlayerCharacter(state *shared.RoomState, owner string, in CharacterInput) (shared.Character, bool) {
	return s.create(state, shared.CharacterTypePlayer, owner, in)
}

func (s *CharacterService) create(state *shared.RoomState, kind, owner string, in CharacterInput) (shared.Character, bool) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.MaxHP <= 0 {
		return shared.Character{}, false
	}
	hp := in.MaxHP
	if in.HP != nil {
		hp = *in.HP
	}
	c := shared.Character{
		ID:         s.newID(),
		Type:       kind,
		Name:       name,
		Owner:      owner,
		HP:         hp,
		MaxHP:      in.MaxHP,
		Portrait:   in.Portrait,
		TokenImage: in.TokenImage,
	}
	state.Characters = append(state.Characters, c)
	return c, true
}

func (s *CharacterService) Update(state *shared.RoomState, id string, patch CharacterPatch) bool {
	c := state.FindCharacter(id)
	if c == nil {
		return false
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return false
	}
	if patch.MaxHP != nil && *patch.MaxHP <= 0 {
		return false
	}
	if patch.Name != nil {
		c.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.MaxHP != nil {
		c.MaxHP = *patch.MaxHP
	}
	if patch.HP != nil {
		c.HP = *patch.HP
	}
	if patch.Portrait != nil {
		c.Portrait = *patch.Portrait
	}
	if patch.TokenImage != nil {
		c.TokenImage = *patch.TokenImage
		if c.TokenID != nil {
			s.tokens.SetImage(state, *c.TokenID, *patch.TokenImage)
		}
	}
	return true
}

// Delete removes a character together with its linked token. The token is
// also cleared from every selection and the character leaves the turn order,
// so no dangling references survive the call.
func (s *CharacterService) Delete(state *shared.RoomState, id string) bool {
	idx := -1
	for i := range state.Characters {
		if state.Characters[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	c := state.Characters[idx]
	state.Characters = append(state.Characters[:idx], state.Characters[idx+1:]...)

	if c.TokenID != nil {
		s.tokens.Remove(state, *c.TokenID)
	}
	// tokens created for this character but never linked
	for _, t := range append([]shared.Token(nil), state.Tokens...) {
		if t.CharacterID == id {
			s.tokens.Remove(state, t.ID)
		}
	}
	s.tokens.selection.ReleaseObject(state, id)
	removeFromTurnOrder(state, id)
	return true
}

// PlaceToken puts the character's token at (x, y), creating it on first use.
func (s *CharacterService) PlaceToken(state *shared.RoomState, id string, x, y float64) (shared.Token, bool) {
	c := state.FindCharacter(id)
	if c == nil {
		return shared.Token{}, false
	}
	if c.TokenID != nil {
		if !s.tokens.Move(state, *c.TokenID, x, y) {
			return shared.Token{}, false
		}
		return *state.FindToken(*c.TokenID), true
	}
	t, ok := s.tokens.Add(state, c.Owner, TokenInput{
		X:           x,
		Y:           y,
		ImageURL:    c.TokenImage,
		CharacterID: c.ID,
	})
	if !ok {
		return shared.Token{}, false
	}
	tokenID := t.ID
	c.TokenID = &tokenID
	return t, true
}

// LinkToken attaches an existing token to a character, detaching it from
// whichever character held it and releasing the character's previous token.
func (s *CharacterService) LinkToken(state *shared.RoomState, characterID, tokenID string) bool {
	c := state.FindCharacter(characterID)
	t := state.FindToken(tokenID)
	if c == nil || t == nil {
		return false
	}
	if c.TokenID != nil && *c.TokenID != tokenID {
		if prev := state.FindToken(*c.TokenID); prev != nil && prev.CharacterID == characterID {
			prev.CharacterID = ""
		}
	}
	for i := range state.Characters {
		other := &state.Characters[i]
		if other.ID != characterID && other.TokenID != nil && *other.TokenID == tokenID {
			other.TokenID = nil
		}
	}
	t.CharacterID = characterID
	id := tokenID
	c.TokenID = &id
	return true
}

// Owner returns the owner uid of a character.
func (s *CharacterService) Owner(state *shared.RoomState, id string) (string, bool) {
	c := state.FindCharacter(id)
	if c == nil {
		return "", false
	}
	return c.Owner, true
}
