package clock

import (
	"encoding/json"
	"fmt"
)

// FischerTimer adds the stage increment after every completed move.
type FischerTimer struct {
	base[FischerStage]
	currentStageMoves int
}

func NewFischerTimer(stages []FischerStage, opts ...Option) (*FischerTimer, error) {
	b, err := newBase(stages, buildOptions(opts))
	if err != nil {
		return nil, err
	}
	return &FischerTimer{base: b}, nil
}

func (t *FischerTimer) Type() PresetType { return FischerIncrement }
func (t *FischerTimer) CurrentStageMoves() int { return t.currentStageMoves }
func (t *FischerTimer) CurrentIncrement() int64 { return t.stage().Increment.Milliseconds() }

func (t *FischerTimer) Reset() {
	t.resetBase()
	t.currentStageMoves = 0
}

func (t *FischerTimer) Clone() Timer {
	return &FischerTimer{base: t.cloneBase(), currentStageMoves: t.currentStageMoves}
}

func (t *FischerTimer) AddMove(onEnd func()) {
	if t.exhausted {
		return
	}
	t.currentStageMoves++
	if inc := t.CurrentIncrement(); inc > 0 {
		t.currentStageTime += inc
	}
	if capReached(t.stage().Moves, t.currentStageMoves) {
		t.advanceOrFinish(onEnd)
	}
}

func (t *FischerTimer) UpdateRemainingTime(timeLeftMs int64, onEnd func()) {
	if t.exhausted {
		return
	}
	t.setStageTime(timeLeftMs)
	if t.currentStageTime == 0 {
		t.advanceOrFinish(onEnd)
	}
}

func (t *FischerTimer) RemoveStage(index int) error {
	changed, err := t.removeStage(index)
	if err != nil {
		return err
	}
	if changed {
		t.currentStageMoves = 0
	}
	return nil
}

func (t *FischerTimer) advanceOrFinish(onEnd func()) {
	if t.advance() {
		t.currentStageMoves = 0
		return
	}
	t.finish(onEnd)
}

type fischerJSON struct {
	baseJSON[FischerStage]
	CurrentStageMoves int `json:"currentStageMoves"`
}

func (t *FischerTimer) MarshalJSON() ([]byte, error) {
	return json.Marshal(fischerJSON{
		baseJSON:          t.toJSON(FischerIncrement),
		CurrentStageMoves: t.currentStageMoves,
	})
}

func unmarshalFischer(data []byte, opts []Option) (*FischerTimer, error) {
	var j fischerJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("decode fischer timer: %w", err)
	}
	t, err := NewFischerTimer(j.Stages, j.restoreOptions(opts)...)
	if err != nil {
		return nil, err
	}
	t.currentStageMoves = max(0, j.CurrentStageMoves)
	t.exhausted = j.Exhausted
	return t, nil
}
