package clock

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrInvalidLives       = errors.New("fixed moves stage needs at least one life")
	ErrInvalidGrowthMoves = errors.New("cumulative stage needs incrementPerMoves >= 1")
	ErrInvalidMoveCap     = errors.New("move cap must not be negative")
)

// Stage is one phase of a time control, e.g. "90 minutes for 40 moves".
type Stage interface {
	StageTime() Duration
	String() string
	Clone() Stage
	Validate() error
}

// Limit returns a move cap for a stage; nil means unlimited moves.
func Limit(n int) *int { return &n }

func capReached(limit *int, moves int) bool {
	return limit != nil && *limit > 0 && moves >= *limit
}

func cloneLimit(limit *int) *int {
	if limit == nil {
		return nil
	}
	return Limit(*limit)
}

func limitString(limit *int) string {
	if limit == nil || *limit <= 0 {
		return "∞"
	}
	return strconv.Itoa(*limit)
}

func validateLimit(limit *int) error {
	if limit != nil && *limit < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMoveCap, *limit)
	}
	return nil
}

// FischerStage adds Increment after every move.
type FischerStage struct {
	Time      Duration `json:"time"`
	Increment Duration `json:"increment"`
	Moves     *int     `json:"moves"`
}

func (s FischerStage) StageTime() Duration { return s.Time }

func (s FischerStage) String() string {
	return JoinClean(s.Time, s.Increment, "|") + " - " + limitString(s.Moves) + " moves"
}

func (s FischerStage) Clone() Stage { return s.clone() }

func (s FischerStage) clone() FischerStage {
	s.Moves = cloneLimit(s.Moves)
	return s
}

func (s FischerStage) Validate() error {
	if err := s.Time.validate(); err != nil {
		return err
	}
	if err := s.Increment.validate(); err != nil {
		return err
	}
	return validateLimit(s.Moves)
}

// DelayStage configures both simple and Bronstein delay timers.
type DelayStage struct {
	Time  Duration `json:"time"`
	Delay Duration `json:"delay"`
	Moves *int     `json:"moves"`
}

func (s DelayStage) StageTime() Duration { return s.Time }

func (s DelayStage) String() string {
	return JoinClean(s.Time, s.Delay, "|") + " - " + limitString(s.Moves) + " moves"
}

func (s DelayStage) Clone() Stage { return s.clone() }

func (s DelayStage) clone() DelayStage {
	s.Moves = cloneLimit(s.Moves)
	return s
}

func (s DelayStage) Validate() error {
	if err := s.Time.validate(); err != nil {
		return err
	}
	if err := s.Delay.validate(); err != nil {
		return err
	}
	return validateLimit(s.Moves)
}

// CumulativeStage grows its increment by IncrementGrowth every IncrementPerMoves moves.
type CumulativeStage struct {
	Time              Duration `json:"time"`
	IncrementBase     Duration `json:"incrementBase"`
	IncrementGrowth   Duration `json:"incrementGrowth"`
	IncrementPerMoves int      `json:"incrementPerMoves"`
	TotalMoves        *int     `json:"totalMoves"`
}

func (s CumulativeStage) StageTime() Duration { return s.Time }

func (s CumulativeStage) String() string {
	return JoinClean(s.Time, s.IncrementBase, "|") + " - " + s.IncrementGrowth.SimpleString() +
		" after " + strconv.Itoa(s.IncrementPerMoves) + " moves"
}

func (s CumulativeStage) Clone() Stage { return s.clone() }

func (s CumulativeStage) clone() CumulativeStage {
	s.TotalMoves = cloneLimit(s.TotalMoves)
	return s
}

func (s CumulativeStage) Validate() error {
	for _, d := range []Duration{s.Time, s.IncrementBase, s.IncrementGrowth} {
		if err := d.validate(); err != nil {
			return err
		}
	}
	if s.IncrementPerMoves < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidGrowthMoves, s.IncrementPerMoves)
	}
	return validateLimit(s.TotalMoves)
}

// FixedMovesStage gives Time per move and Lives attempts to beat it.
type FixedMovesStage struct {
	Time  Duration `json:"time"`
	Lives int      `json:"lives"`
	Moves *int     `json:"moves"`
}

func (s FixedMovesStage) StageTime() Duration { return s.Time }

func (s FixedMovesStage) String() string {
	return s.Time.TimerString() + " x" + strconv.Itoa(s.Lives) + " lives - " + limitString(s.Moves) + " moves"
}

func (s FixedMovesStage) Clone() Stage { return s.clone() }

func (s FixedMovesStage) clone() FixedMovesStage {
	s.Moves = cloneLimit(s.Moves)
	return s
}

func (s FixedMovesStage) Validate() error {
	if err := s.Time.validate(); err != nil {
		return err
	}
	if s.Lives < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidLives, s.Lives)
	}
	return validateLimit(s.Moves)
}
