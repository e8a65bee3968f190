package game

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"tabletop/internal/shared"
)

const (
	MaxDiceCount = 100
	MinDieSides  = 2
	MaxDieSides  = 1000
	MaxModifier  = 10000

	DefaultMaxDiceHistory = 100
)

// ErrMissingDice indicates a formula had no dice terms.
var ErrMissingDice = errors.New("at least one die must be provided")

// ErrInvalidDiceSpec indicates a term has too many dice or an unsupported die size.
var ErrInvalidDiceSpec = errors.New("dice must have 1-100 count and 2-1000 sides")

// ErrInvalidFormula indicates the formula could not be parsed.
var ErrInvalidFormula = errors.New("invalid dice formula")

var termPattern = regexp.MustCompile(`^(\d*)d(\d+)$`)

// DiceSpec describes a die to roll and how many times to roll it.
type DiceSpec struct {
	Sides int
	Count int
}

// Formula is a parsed roll such as 2d6+1d4+3.
type Formula struct {
	Dice     []DiceSpec
	Modifier int
}

// ParseFormula parses "NdM" terms and integer modifiers joined by + or -.
func ParseFormula(raw string) (Formula, error) {
	expr := strings.ToLower(strings.ReplaceAll(raw, " ", ""))
	if expr == "" {
		return Formula{}, ErrMissingDice
	}
	expr = strings.ReplaceAll(expr, "-", "+-")
	var f Formula
	total := 0
	for _, term := range strings.Split(expr, "+") {
		if term == "" {
			continue
		}
		sign := 1
		if strings.HasPrefix(term, "-") {
			sign = -1
			term = term[1:]
		}
		if m := termPattern.FindStringSubmatch(term); m != nil {
			if sign < 0 {
				return Formula{}, fmt.Errorf("%w: negative dice term %q", ErrInvalidFormula, term)
			}
			count := 1
			if m[1] != "" {
				count, _ = strconv.Atoi(m[1])
			}
			sides, err := strconv.Atoi(m[2])
			if err != nil {
				return Formula{}, fmt.Errorf("%w: %q", ErrInvalidFormula, term)
			}
			if count < 1 || sides < MinDieSides || sides > MaxDieSides {
				return Formula{}, ErrInvalidDiceSpec
			}
			total += count
			if total > MaxDiceCount {
				return Formula{}, ErrInvalidDiceSpec
			}
			f.Dice = append(f.Dice, DiceSpec{Sides: sides, Count: count})
			continue
		}
		n, err := strconv.Atoi(term)
		if err != nil || n > MaxModifier {
			return Formula{}, fmt.Errorf("%w: %q", ErrInvalidFormula, term)
		}
		f.Modifier += sign * n
		if f.Modifier > MaxModifier || f.Modifier < -MaxModifier {
			return Formula{}, fmt.Errorf("%w: modifier out of range", ErrInvalidFormula)
		}
	}
	if len(f.Dice) == 0 {
		return Formula{}, ErrMissingDice
	}
	return f, nil
}

// DiceService rolls dice and keeps a bounded roll history in the room.
type DiceService struct {
	newID      IDFunc
	now        Clock
	maxHistory int

	mu  sync.Mutex
	rng *rand.Rand
}

func NewDiceService(newID IDFunc, now Clock, maxHistory int, seed int64) *DiceService {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxDiceHistory
	}
	return &DiceService{
		newID:      newID,
		now:        now,
		maxHistory: maxHistory,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Roll evaluates formula for uid and appends the result to the history.
func (s *DiceService) Roll(state *shared.RoomState, uid, formula string) (shared.DiceRoll, bool) {
	f, err := ParseFormula(formula)
	if err != nil {
		return shared.DiceRoll{}, false
	}

	s.mu.Lock()
	rolls := make([]int, 0, len(f.Dice))
	total := f.Modifier
	for _, spec := range f.Dice {
		for i := 0; i < spec.Count; i++ {
			v := s.rng.Intn(spec.Sides) + 1
			rolls = append(rolls, v)
			total += v
		}
	}
	s.mu.Unlock()

	name := ""
	if p := state.FindPlayer(uid); p != nil {
		name = p.Name
	}
	roll := shared.DiceRoll{
		ID:         s.newID(),
		UID:        uid,
		PlayerName: name,
		Formula:    strings.TrimSpace(formula),
		Rolls:      rolls,
		Modifier:   f.Modifier,
		Total:      total,
		Timestamp:  s.now().UnixMilli(),
	}
	state.DiceRolls = append(state.DiceRolls, roll)
	if len(state.DiceRolls) > s.maxHistory {
		state.DiceRolls = state.DiceRolls[len(state.DiceRolls)-s.maxHistory:]
	}
	return roll, true
}

func (s *DiceService) ClearHistory(state *shared.RoomState) bool {
	if len(state.DiceRolls) == 0 {
		return false
	}
	state.DiceRolls = []shared.DiceRoll{}
	return true
}
