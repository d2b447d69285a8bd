package clock

import (
	"encoding/json"
	"fmt"
)

// FixedMovesTimer gives every move the full stage time. Running out costs a
// life and refills the time; the stage ends when the lives are gone.
type FixedMovesTimer struct {
	base[FixedMovesStage]
	currentStageLives int
	currentStageMoves int
}

func NewFixedMovesTimer(stages []FixedMovesStage, opts ...Option) (*FixedMovesTimer, error) {
	b, err := newBase(stages, buildOptions(opts))
	if err != nil {
		return nil, err
	}
	t := &FixedMovesTimer{base: b}
	t.currentStageLives = t.stage().Lives
	return t, nil
}

func (t *FixedMovesTimer) Type() PresetType { return FixedMoves }
func (t *FixedMovesTimer) CurrentStageLives() int { return t.currentStageLives }
func (t *FixedMovesTimer) CurrentStageMoves() int { return t.currentStageMoves }

func (t *FixedMovesTimer) AddMove(onEnd func()) {
	if t.exhausted {
		return
	}
	t.currentStageMoves++
	if capReached(t.stage().Moves, t.currentStageMoves) {
		t.advanceOrFinish(onEnd)
		return
	}
	t.currentStageTime = t.fullTime()
}

func (t *FixedMovesTimer) UpdateRemainingTime(timeLeftMs int64, onEnd func()) {
	if t.exhausted {
		return
	}
	t.setStageTime(timeLeftMs)
	if t.currentStageTime > 0 {
		return
	}
	t.currentStageLives--
	if t.currentStageLives > 0 {
		t.currentStageTime = t.fullTime()
		return
	}
	t.advanceOrFinish(onEnd)
}

func (t *FixedMovesTimer) advanceOrFinish(onEnd func()) {
	if t.advance() {
		t.currentStageLives = t.stage().Lives
		t.currentStageMoves = 0
		return
	}
	t.currentStageLives = 0
	t.finish(onEnd)
}

func (t *FixedMovesTimer) Reset() {
	t.resetBase()
	t.currentStageLives = t.stage().Lives
	t.currentStageMoves = 0
}

func (t *FixedMovesTimer) Clone() Timer {
	return &FixedMovesTimer{
		base:              t.cloneBase(),
		currentStageLives: t.currentStageLives,
		currentStageMoves: t.currentStageMoves,
	}
}

func (t *FixedMovesTimer) RemoveStage(index int) error {
	changed, err := t.removeStage(index)
	if err != nil {
		return err
	}
	if changed {
		t.currentStageLives = t.stage().Lives
		t.currentStageMoves = 0
	}
	return nil
}

type fixedMovesJSON struct {
	baseJSON[FixedMovesStage]
	CurrentStageLives int `json:"currentStageLives"`
	CurrentStageMoves int `json:"currentStageMoves"`
}

func (t *FixedMovesTimer) MarshalJSON() ([]byte, error) {
	return json.Marshal(fixedMovesJSON{
		baseJSON:          t.toJSON(FixedMoves),
		CurrentStageLives: t.currentStageLives,
		CurrentStageMoves: t.currentStageMoves,
	})
}

func unmarshalFixedMoves(data []byte, opts []Option) (*FixedMovesTimer, error) {
	var j fixedMovesJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("decode fixed moves timer: %w", err)
	}
	t, err := NewFixedMovesTimer(j.Stages, j.restoreOptions(opts)...)
	if err != nil {
		return nil, err
	}
	if j.CurrentStageLives > 0 || j.Exhausted {
		t.currentStageLives = max(0, j.CurrentStageLives)
	}
	t.currentStageMoves = max(0, j.CurrentStageMoves)
	t.exhausted = j.Exhausted
	return t, nil
}
