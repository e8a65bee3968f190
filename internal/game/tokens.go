package game

import (
	"math"
	"strings"

	"tabletop/internal/shared"
)

const (
	defaultTokenColor = "#3b82f6"
	defaultTokenSize  = 1
)

// TokenService places, moves and removes tokens on the map.
type TokenService struct {
	newID     IDFunc
	selection *SelectionService
}

// TokenInput describes a new token.
type TokenInput struct {
	X           float64
	Y           float64
	Color       string
	ImageURL    string
	CharacterID string
}

func (s *TokenService) Add(state *shared.RoomState, owner string, in TokenInput) (shared.Token, bool) {
	if !finite(in.X) || !finite(in.Y) {
		return shared.Token{}, false
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = defaultTokenColor
	}
	t := shared.Token{
		ID:          s.newID(),
		Owner:       owner,
		X:           in.X,
		Y:           in.Y,
		Color:       color,
		Size:        defaultTokenSize,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		CharacterID: in.CharacterID,
	}
	state.Tokens = append(state.Tokens, t)
	return t, true
}

func (s *TokenService) Move(state *shared.RoomState, id string, x, y float64) bool {
	if !finite(x) || !finite(y) {
		return false
	}
	t := state.FindToken(id)
	if t == nil {
		return false
	}
	t.X = x
	t.Y = y
	return true
}

func (s *TokenService) SetImage(state *shared.RoomState, id, imageURL string) bool {
	t := state.FindToken(id)
	if t == nil {
		return false
	}
	t.ImageURL = strings.TrimSpace(imageURL)
	return true
}

// Remove deletes a token, clears it from every selection and unlinks any
// character pointing at it.
func (s *TokenService) Remove(state *shared.RoomState, id string) bool {
	idx := -1
	for i := range state.Tokens {
		if state.Tokens[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	state.Tokens = append(state.Tokens[:idx], state.Tokens[idx+1:]...)
	s.selection.ReleaseObject(state, id)
	for i := range state.Characters {
		if c := &state.Characters[i]; c.TokenID != nil && *c.TokenID == id {
			c.TokenID = nil
		}
	}
	return true
}

// RemoveAll clears every token and returns how many were removed.
func (s *TokenService) RemoveAll(state *shared.RoomState) int {
	ids := make([]string, 0, len(state.Tokens))
	for _, t := range state.Tokens {
		ids = append(ids, t.ID)
	}
	for _, id := range ids {
		s.Remove(state, id)
	}
	return len(ids)
}

// Owner returns the owner uid of a token.
func (s *TokenService) Owner(state *shared.RoomState, id string) (string, bool) {
	t := state.FindToken(id)
	if t == nil {
		return "", false
	}
	return t.Owner, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
