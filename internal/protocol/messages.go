// Package protocol defines the JSON messages exchanged with browser clients.
//
// Every inbound message is a flat JSON object whose "t" field names the
// variant; the remaining fields belong to that variant only.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tabletop/internal/shared"
)

// Type is the discriminant tag of a message.
type Type string

// Auth family, handled by the connection gate.
const (
	TypeAuthenticate  Type = "authenticate"
	TypeElevateToDM   Type = "elevate-to-dm"
	TypeRevokeDM      Type = "revoke-dm"
	TypeSetDMPassword Type = "set-dm-password"
)

// Router families.
const (
	TypeHeartbeat Type = "heartbeat"

	TypePortrait         Type = "portrait"
	TypeRename           Type = "rename"
	TypeMicLevel         Type = "mic-level"
	TypeSetHP            Type = "set-hp"
	TypeSetStatusEffects Type = "set-status-effects"

	TypeMapBackground    Type = "map-background"
	TypeGridSize         Type = "grid-size"
	TypeGridSquareSize   Type = "grid-square-size"
	TypeSetStagingZone   Type = "set-staging-zone"
	TypeClearStagingZone Type = "clear-staging-zone"
	TypeDraw             Type = "draw"
	TypeEraseDrawing     Type = "erase-drawing"
	TypeClearDrawings    Type = "clear-drawings"
	TypeCreateProp       Type = "create-prop"
	TypeUpdateProp       Type = "update-prop"
	TypeDeleteProp       Type = "delete-prop"

	TypeCreateNPC     Type = "create-npc"
	TypeUpdateNPC     Type = "update-npc"
	TypeDeleteNPC     Type = "delete-npc"
	TypePlaceNPCToken Type = "place-npc-token"

	TypeCreateCharacter Type = "create-character"
	TypeDeleteCharacter Type = "delete-character"
	TypeLinkToken       Type = "link-token"

	TypeAddToken         Type = "add-token"
	TypeMoveToken        Type = "move-token"
	TypeDeleteToken      Type = "delete-token"
	TypeUpdateTokenImage Type = "update-token-image"
	TypeSelectObject     Type = "select-object"
	TypeDeselectObject   Type = "deselect-object"

	TypeDiceRoll         Type = "dice-roll"
	TypeClearRollHistory Type = "clear-roll-history"

	TypeStartCombat   Type = "start-combat"
	TypeEndCombat     Type = "end-combat"
	TypeSetInitiative Type = "set-initiative"
	TypeNextTurn      Type = "next-turn"

	TypeSetRoomPassword Type = "set-room-password"
	TypeClearAllTokens  Type = "clear-all-tokens"

	TypeRTCSignal Type = "rtc-signal"
)

// TypeToggleDM is the retired DM toggle. It is recognised so it can be
// rejected loudly instead of being treated as an unknown tag.
const TypeToggleDM Type = "toggle-dm"

// IsAuthFamily reports whether t is handled by the connection gate's auth
// service rather than the general router.
func IsAuthFamily(t Type) bool {
	switch t {
	case TypeAuthenticate, TypeElevateToDM, TypeRevokeDM, TypeSetDMPassword:
		return true
	}
	return false
}

// ErrMissingType is returned for frames without a "t" field.
var ErrMissingType = errors.New("message type is required")

// Message is a decoded inbound frame: its tag plus the raw body for lazy
// decoding into the variant payload.
type Message struct {
	T   Type
	Raw json.RawMessage
}

// Decode reads the tag of a raw frame.
func Decode(data []byte) (Message, error) {
	var head struct {
		T string `json:"t"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	t := strings.TrimSpace(head.T)
	if t == "" {
		return Message{}, ErrMissingType
	}
	return Message{T: Type(t), Raw: json.RawMessage(data)}, nil
}

// Bind decodes the message body into the variant payload v.
func (m Message) Bind(v any) error {
	if err := json.Unmarshal(m.Raw, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.T, err)
	}
	return nil
}

// New builds a Message from a variant payload, mainly for tests and
// server-originated intents.
func New(t Type, payload any) (Message, error) {
	body := map[string]any{}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Message{}, fmt.Errorf("encode %s payload: %w", t, err)
		}
		if err := json.Unmarshal(b, &body); err != nil {
			return Message{}, fmt.Errorf("encode %s payload: %w", t, err)
		}
	}
	body["t"] = string(t)
	raw, err := json.Marshal(body)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s message: %w", t, err)
	}
	return Message{T: t, Raw: raw}, nil
}

// Auth payloads.

type AuthenticatePayload struct {
	Secret string `json:"secret"`
	Name   string `json:"name"`
}

type DMPasswordPayload struct {
	DMPassword string `json:"dmPassword"`
}

// Player payloads.

type PortraitPayload struct {
	Data string `json:"data"`
}

type RenamePayload struct {
	Name *string `json:"name"`
}

type MicLevelPayload struct {
	Level *float64 `json:"level"`
}

type SetHPPayload struct {
	HP    *float64 `json:"hp"`
	MaxHP *float64 `json:"maxHp"`
}

type StatusEffectsPayload struct {
	Effects []string `json:"effects"`
}

// Map payloads.

type MapBackgroundPayload struct {
	Data string `json:"data"`
}

type GridSizePayload struct {
	Size *float64 `json:"size"`
}

type StagingZonePayload struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

type DrawPayload struct {
	Drawing shared.Drawing `json:"drawing"`
}

type IDPayload struct {
	ID string `json:"id"`
}

type PropPayload struct {
	ID       string   `json:"id,omitempty"`
	Label    *string  `json:"label,omitempty"`
	ImageURL *string  `json:"imageUrl,omitempty"`
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
	ZIndex   *int     `json:"zIndex,omitempty"`
}

// NPC and character payloads.

type CreateNPCPayload struct {
	Name       string `json:"name"`
	MaxHP      int    `json:"maxHp"`
	HP         *int   `json:"hp,omitempty"`
	Portrait   string `json:"portrait,omitempty"`
	TokenImage string `json:"tokenImage,omitempty"`
}

type UpdateNPCPayload struct {
	ID         string  `json:"id"`
	Name       *string `json:"name,omitempty"`
	HP         *int    `json:"hp,omitempty"`
	MaxHP      *int    `json:"maxHp,omitempty"`
	Portrait   *string `json:"portrait,omitempty"`
	TokenImage *string `json:"tokenImage,omitempty"`
}

type PlaceTokenPayload struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type LinkTokenPayload struct {
	CharacterID string `json:"characterId"`
	TokenID     string `json:"tokenId"`
}

// Token payloads.

type AddTokenPayload struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Color    string  `json:"color,omitempty"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

type MoveTokenPayload struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type TokenImagePayload struct {
	ID       string `json:"id"`
	ImageURL string `json:"imageUrl"`
}

type SelectObjectPayload struct {
	ObjectID string `json:"objectId"`
}

// Dice and combat payloads.

type DiceRollPayload struct {
	Formula string `json:"formula"`
}

type InitiativePayload struct {
	CharacterID string `json:"characterId"`
	Initiative  *int   `json:"initiative"`
}

// Room payloads.

type RoomPasswordPayload struct {
	Secret string `json:"secret"`
}

// RTCSignalPayload carries an opaque signalling blob for one target peer.
type RTCSignalPayload struct {
	Target string          `json:"target"`
	Signal json.RawMessage `json:"signal"`
}
