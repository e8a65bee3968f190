package game

import (
	"strings"

	"tabletop/internal/shared"
)

const (
	MinMicLevel = 0
	MaxMicLevel = 100

	defaultPlayerName = "Player"
)

// PlayerService mutates player records. A player may only act on its own
// record, so every method takes the acting uid.
type PlayerService struct{}

// Join adds a player for uid or refreshes the name of an existing one. DM
// privilege never carries over into a new session; it takes a fresh
// elevation with the DM password.
func (s *PlayerService) Join(state *shared.RoomState, uid, name string, nowMs int64) *shared.Player {
	name = strings.TrimSpace(name)
	if p := state.FindPlayer(uid); p != nil {
		if name != "" {
			p.Name = name
		}
		p.IsDM = false
		if nowMs > p.LastHeartbeat {
			p.LastHeartbeat = nowMs
		}
		return p
	}
	if name == "" {
		name = defaultPlayerName
	}
	state.Players = append(state.Players, shared.Player{
		UID:           uid,
		Name:          name,
		LastHeartbeat: nowMs,
		StatusEffects: []string{},
	})
	return &state.Players[len(state.Players)-1]
}

// Heartbeat records liveness for uid. Timestamps never move backwards.
func (s *PlayerService) Heartbeat(state *shared.RoomState, uid string, nowMs int64) bool {
	p := state.FindPlayer(uid)
	if p == nil {
		return false
	}
	if nowMs > p.LastHeartbeat {
		p.LastHeartbeat = nowMs
	}
	return true
}

func (s *PlayerService) SetPortrait(state *shared.RoomState, uid, portrait string) bool {
	p := state.FindPlayer(uid)
	if p == nil {
		return false
	}
	p.Portrait = portrait
	return true
}

// Rename sets the display name. An empty name is allowed.
func (s *PlayerService) Rename(state *shared.RoomState, uid, name string) bool {
	p := state.FindPlayer(uid)
	if p == nil {
		return false
	}
	p.Name = name
	return true
}

func (s *PlayerService) SetMicLevel(state *shared.RoomState, uid string, level int) bool {
	if level < MinMicLevel || level > MaxMicLevel {
		return false
	}
	p := state.FindPlayer(uid)
	if p == nil {
		return false
	}
	p.MicLevel = level
	return true
}

// SetHP stores hp and maxHp as given; hp may be negative or above maxHp.
func (s *PlayerService) SetHP(state *shared.RoomState, uid string, hp, maxHP int) bool {
	p := state.FindPlayer(uid)
	if p == nil {
		return false
	}
	p.HP = hp
	p.MaxHP = maxHP
	return true
}

// SetStatusEffects replaces the effect list wholesale.
func (s *PlayerService) SetStatusEffects(state *shared.RoomState, uid string, effects []string) bool {
	p := state.FindPlayer(uid)
	if p == nil {
		return false
	}
	next := make([]string, len(effects))
	copy(next, effects)
	p.StatusEffects = next
	return true
}

func (s *PlayerService) SetDM(state *shared.RoomState, uid string, isDM bool) bool {
	p := state.FindPlayer(uid)
	if p == nil {
		return false
	}
	p.IsDM = isDM
	return true
}

// IsDM reports whether uid is a known player holding DM privilege.
func (s *PlayerService) IsDM(state *shared.RoomState, uid string) bool {
	if state == nil {
		return false
	}
	p := state.FindPlayer(uid)
	return p != nil && p.IsDM
}
