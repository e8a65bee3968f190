package game

import (
	"strings"

	"tabletop/internal/shared"
)

const (
	MinGridSize = 1
	MaxGridSize = 1000

	maxDrawingPoints = 10000
)

// MapService configures the map and owns drawings.
type MapService struct {
	newID     IDFunc
	selection *SelectionService
}

// SetBackground replaces the background image. An empty value clears it.
func (s *MapService) SetBackground(state *shared.RoomState, background string) {
	if strings.TrimSpace(background) == "" {
		state.Map.Background = nil
		return
	}
	bg := background
	state.Map.Background = &bg
}

func (s *MapService) SetGridSize(state *shared.RoomState, size int) bool {
	if size < MinGridSize || size > MaxGridSize {
		return false
	}
	state.Map.GridSize = size
	return true
}

func (s *MapService) SetGridSquareSize(state *shared.RoomState, size float64) bool {
	if !finite(size) || size <= 0 {
		return false
	}
	state.Map.GridSquareSize = size
	return true
}

// SetStagingZone validates the zone before touching state; a rejected zone
// leaves the previous one in place.
func (s *MapService) SetStagingZone(state *shared.RoomState, zone shared.StagingZone) bool {
	for _, v := range []float64{zone.X, zone.Y, zone.Width, zone.Height, zone.Rotation} {
		if !finite(v) {
			return false
		}
	}
	if zone.Width <= 0 || zone.Height <= 0 {
		return false
	}
	z := zone
	state.Map.StagingZone = &z
	return true
}

func (s *MapService) ClearStagingZone(state *shared.RoomState) bool {
	if state.Map.StagingZone == nil {
		return false
	}
	state.Map.StagingZone = nil
	return true
}

// AddDrawing stores a drawing owned by owner under a fresh id.
func (s *MapService) AddDrawing(state *shared.RoomState, owner string, d shared.Drawing) (shared.Drawing, bool) {
	if len(d.Points) == 0 || len(d.Points) > maxDrawingPoints {
		return shared.Drawing{}, false
	}
	for _, p := range d.Points {
		if !finite(p.X) || !finite(p.Y) {
			return shared.Drawing{}, false
		}
	}
	d.ID = s.newID()
	d.Owner = owner
	if d.Type == "" {
		d.Type = "freehand"
	}
	state.Drawings = append(state.Drawings, d)
	return d, true
}

func (s *MapService) RemoveDrawing(state *shared.RoomState, id string) bool {
	for i := range state.Drawings {
		if state.Drawings[i].ID == id {
			state.Drawings = append(state.Drawings[:i], state.Drawings[i+1:]...)
			s.selection.ReleaseObject(state, id)
			return true
		}
	}
	return false
}

func (s *MapService) DrawingOwner(state *shared.RoomState, id string) (string, bool) {
	for _, d := range state.Drawings {
		if d.ID == id {
			return d.Owner, true
		}
	}
	return "", false
}

// ClearDrawings removes every drawing and returns how many were removed.
func (s *MapService) ClearDrawings(state *shared.RoomState) int {
	n := len(state.Drawings)
	for _, d := range state.Drawings {
		s.selection.ReleaseObject(state, d.ID)
	}
	state.Drawings = []shared.Drawing{}
	return n
}
