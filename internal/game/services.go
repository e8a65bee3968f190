// Package game holds the domain services that mutate a room's state.
//
// Every service works on the *shared.RoomState handed to it by the caller and
// reports expected business-rule failures through its return value, never by
// panicking or returning an error. Only AuthService returns errors because it
// touches durable storage.
package game

import (
	"time"

	"github.com/google/uuid"
)

// IDFunc generates identifiers for new entities.
type IDFunc func() string

// Clock returns the current time.
type Clock func() time.Time

// Services bundles one service per entity family.
type Services struct {
	Players    *PlayerService
	Tokens     *TokenService
	Characters *CharacterService
	Map        *MapService
	Dice       *DiceService
	Props      *PropService
	Selection  *SelectionService
	Combat     *CombatService
	Auth       *AuthService
}

// Options tunes the services built by NewServices.
type Options struct {
	NewID          IDFunc
	Now            Clock
	MaxDiceHistory int
	DiceSeed       int64
}

// NewServices wires the stateless services together. The auth service is
// built separately because it needs storage.
func NewServices(opts Options, auth *AuthService) *Services {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	selection := &SelectionService{}
	tokens := &TokenService{newID: opts.NewID, selection: selection}
	return &Services{
		Players:    &PlayerService{},
		Tokens:     tokens,
		Characters: &CharacterService{newID: opts.NewID, tokens: tokens},
		Map:        &MapService{newID: opts.NewID, selection: selection},
		Dice:       NewDiceService(opts.NewID, opts.Now, opts.MaxDiceHistory, opts.DiceSeed),
		Props:      &PropService{newID: opts.NewID, selection: selection},
		Selection:  selection,
		Combat:     &CombatService{},
		Auth:       auth,
	}
}
