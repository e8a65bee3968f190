package game

import (
	"strings"

	"tabletop/internal/shared"
)

// PropService manages static scenery objects placed by the DM.
type PropService struct {
	newID     IDFunc
	selection *SelectionService
}

// PropInput describes a prop. On update, nil fields are left untouched.
type PropInput struct {
	Label    *string
	ImageURL *string
	X        *float64
	Y        *float64
	Width    *float64
	Height   *float64
	Rotation *float64
	ZIndex   *int
}

func (s *PropService) Create(state *shared.RoomState, in PropInput) (shared.Prop, bool) {
	p := shared.Prop{Width: 1, Height: 1}
	if !applyProp(&p, in) {
		return shared.Prop{}, false
	}
	p.ID = s.newID()
	state.Props = append(state.Props, p)
	return p, true
}

// Update applies in to a copy first so a rejected update changes nothing.
func (s *PropService) Update(state *shared.RoomState, id string, in PropInput) bool {
	existing := state.FindProp(id)
	if existing == nil {
		return false
	}
	next := *existing
	if !applyProp(&next, in) {
		return false
	}
	*existing = next
	return true
}

func (s *PropService) Delete(state *shared.RoomState, id string) bool {
	for i := range state.Props {
		if state.Props[i].ID == id {
			state.Props = append(state.Props[:i], state.Props[i+1:]...)
			s.selection.ReleaseObject(state, id)
			return true
		}
	}
	return false
}

func applyProp(p *shared.Prop, in PropInput) bool {
	if in.Label != nil {
		p.Label = strings.TrimSpace(*in.Label)
	}
	if in.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	for _, f := range []struct {
		src *float64
		dst *float64
	}{
		{in.X, &p.X}, {in.Y, &p.Y}, {in.Width, &p.Width}, {in.Height, &p.Height}, {in.Rotation, &p.Rotation},
	} {
		if f.src == nil {
			continue
		}
		if !finite(*f.src) {
			return false
		}
		*f.dst = *f.src
	}
	if in.ZIndex != nil {
		p.ZIndex = *in.ZIndex
	}
	return p.Width > 0 && p.Height > 0
}
