package shared

const (
	DefaultGridSize       = 50
	DefaultGridSquareSize = 5

	CharacterTypeNPC    = "npc"
	CharacterTypePlayer = "pc"
)

// RoomState is the single authoritative state of a room. It is owned by the
// room service and mutated only through the game package.
type RoomState struct {
	Players                []Player          `json:"players"`
	Characters             []Character       `json:"characters"`
	Tokens                 []Token           `json:"tokens"`
	Map                    MapState          `json:"map"`
	Drawings               []Drawing         `json:"drawings"`
	Props                  []Prop            `json:"props"`
	SelectedObjects        map[string]string `json:"selectedObjects"`
	DiceRolls              []DiceRoll        `json:"diceRolls"`
	CombatActive           bool              `json:"combatActive"`
	CurrentTurnCharacterID *string           `json:"currentTurnCharacterId,omitempty"`
	TurnOrder              []string          `json:"turnOrder"`
	StateVersion           int64             `json:"stateVersion"`
}

type Player struct {
	UID           string   `json:"uid"`
	Name          string   `json:"name"`
	Portrait      string   `json:"portrait"`
	MicLevel      int      `json:"micLevel"`
	LastHeartbeat int64    `json:"lastHeartbeat"` // epoch ms
	HP            int      `json:"hp"`
	MaxHP         int      `json:"maxHp"`
	IsDM          bool     `json:"isDM"`
	StatusEffects []string `json:"statusEffects"`
}

type Character struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"` // "npc" or "pc"
	Name       string  `json:"name"`
	Owner      string  `json:"owner"`
	HP         int     `json:"hp"`
	MaxHP      int     `json:"maxHp"`
	Portrait   string  `json:"portrait,omitempty"`
	TokenImage string  `json:"tokenImage,omitempty"`
	TokenID    *string `json:"tokenId,omitempty"`
	Initiative *int    `json:"initiative,omitempty"`
}

type Token struct {
	ID          string  `json:"id"`
	Owner       string  `json:"owner"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Color       string  `json:"color"`
	Size        int     `json:"size"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	CharacterID string  `json:"characterId,omitempty"`
}

type MapState struct {
	Background     *string      `json:"background"`
	GridSize       int          `json:"gridSize"`
	GridSquareSize float64      `json:"gridSquareSize"`
	StagingZone    *StagingZone `json:"stagingZone,omitempty"`
}

type StagingZone struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Drawing struct {
	ID     string  `json:"id"`
	Owner  string  `json:"owner"`
	Type   string  `json:"type"`
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
}

type Prop struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	ImageURL string  `json:"imageUrl"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	ZIndex   int     `json:"zIndex"`
}

type DiceRoll struct {
	ID         string `json:"id"`
	UID        string `json:"uid"`
	PlayerName string `json:"playerName"`
	Formula    string `json:"formula"`
	Rolls      []int  `json:"rolls"`
	Modifier   int    `json:"modifier"`
	Total      int    `json:"total"`
	Timestamp  int64  `json:"timestamp"`
}

// Snapshot is the broadcast frame carrying the full room state.
type Snapshot struct {
	T            string     `json:"t"`
	State        *RoomState `json:"state"`
	StateVersion int64      `json:"stateVersion"`
	Reason       string     `json:"reason,omitempty"`
	Changed      *Delta     `json:"changed,omitempty"`
}

// Delta names the entities touched by the change that triggered a broadcast.
// Clients may use it to limit re-rendering; the snapshot stays authoritative.
type Delta struct {
	Entity string   `json:"entity"`
	IDs    []string `json:"ids,omitempty"`
}

// NewRoomState returns an empty room with default map settings.
func NewRoomState() *RoomState {
	s := &RoomState{
		Map: MapState{
			GridSize:       DefaultGridSize,
			GridSquareSize: DefaultGridSquareSize,
		},
	}
	s.Normalize()
	return s
}

// Normalize replaces nil collections so the wire format never carries null
// arrays. It is applied to freshly created and restored states.
func (s *RoomState) Normalize() {
	if s.Players == nil {
		s.Players = []Player{}
	}
	for i := range s.Players {
		if s.Players[i].StatusEffects == nil {
			s.Players[i].StatusEffects = []string{}
		}
	}
	if s.Characters == nil {
		s.Characters = []Character{}
	}
	if s.Tokens == nil {
		s.Tokens = []Token{}
	}
	if s.Drawings == nil {
		s.Drawings = []Drawing{}
	}
	if s.Props == nil {
		s.Props = []Prop{}
	}
	if s.SelectedObjects == nil {
		s.SelectedObjects = map[string]string{}
	}
	if s.DiceRolls == nil {
		s.DiceRolls = []DiceRoll{}
	}
	if s.TurnOrder == nil {
		s.TurnOrder = []string{}
	}
	if s.Map.GridSize <= 0 {
		s.Map.GridSize = DefaultGridSize
	}
	if s.Map.GridSquareSize <= 0 {
		s.Map.GridSquareSize = DefaultGridSquareSize
	}
}

func (s *RoomState) FindPlayer(uid string) *Player {
	for i := range s.Players {
		if s.Players[i].UID == uid {
			return &s.Players[i]
		}
	}
	return nil
}

func (s *RoomState) FindCharacter(id string) *Character {
	for i := range s.Characters {
		if s.Characters[i].ID == id {
			return &s.Characters[i]
		}
	}
	return nil
}

func (s *RoomState) FindToken(id string) *Token {
	for i := range s.Tokens {
		if s.Tokens[i].ID == id {
			return &s.Tokens[i]
		}
	}
	return nil
}

func (s *RoomState) FindProp(id string) *Prop {
	for i := range s.Props {
		if s.Props[i].ID == id {
			return &s.Props[i]
		}
	}
	return nil
}
