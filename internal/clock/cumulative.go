package clock

import (
	"encoding/json"
	"fmt"
)

// CumulativeTimer adds a growing increment: every IncrementPerMoves moves the
// increment itself grows by IncrementGrowth.
type CumulativeTimer struct {
	base[CumulativeStage]
	currentStageIncrement      int64
	currentStageIncrementMoves int
	currentStageTotalMoves     int
}

func NewCumulativeTimer(stages []CumulativeStage, opts ...Option) (*CumulativeTimer, error) {
	b, err := newBase(stages, buildOptions(opts))
	if err != nil {
		return nil, err
	}
	t := &CumulativeTimer{base: b}
	t.resetCounters()
	return t, nil
}

func (t *CumulativeTimer) Type() PresetType { return CumulativeIncrement }
func (t *CumulativeTimer) CurrentIncrement() int64 { return t.currentStageIncrement }
func (t *CumulativeTimer) CurrentStageMoves() int { return t.currentStageTotalMoves }

// CurrentStageIncrementMoves counts moves since the increment last grew.
func (t *CumulativeTimer) CurrentStageIncrementMoves() int { return t.currentStageIncrementMoves }

func (t *CumulativeTimer) resetCounters() {
	t.currentStageIncrement = t.stage().IncrementBase.Milliseconds()
	t.currentStageIncrementMoves = 0
	t.currentStageTotalMoves = 0
}

func (t *CumulativeTimer) AddMove(onEnd func()) {
	if t.exhausted {
		return
	}
	st := t.stage()
	t.currentStageTime += t.currentStageIncrement
	t.currentStageTotalMoves++
	t.currentStageIncrementMoves++
	if t.currentStageIncrementMoves >= st.IncrementPerMoves {
		t.currentStageIncrementMoves = 0
		t.currentStageIncrement += st.IncrementGrowth.Milliseconds()
	}
	if capReached(st.TotalMoves, t.currentStageTotalMoves) {
		t.advanceOrFinish(onEnd)
	}
}

func (t *CumulativeTimer) UpdateRemainingTime(timeLeftMs int64, onEnd func()) {
	if t.exhausted {
		return
	}
	t.setStageTime(timeLeftMs)
	if t.currentStageTime == 0 {
		t.advanceOrFinish(onEnd)
	}
}

func (t *CumulativeTimer) advanceOrFinish(onEnd func()) {
	if t.advance() {
		t.resetCounters()
		return
	}
	t.finish(onEnd)
}

func (t *CumulativeTimer) Reset() {
	t.resetBase()
	t.resetCounters()
}

func (t *CumulativeTimer) Clone() Timer {
	return &CumulativeTimer{
		base:                       t.cloneBase(),
		currentStageIncrement:      t.currentStageIncrement,
		currentStageIncrementMoves: t.currentStageIncrementMoves,
		currentStageTotalMoves:     t.currentStageTotalMoves,
	}
}

func (t *CumulativeTimer) RemoveStage(index int) error {
	changed, err := t.removeStage(index)
	if err != nil {
		return err
	}
	if changed {
		t.resetCounters()
	}
	return nil
}

type cumulativeJSON struct {
	baseJSON[CumulativeStage]
	CurrentStageIncrement      int64 `json:"currentStageIncrement"`
	CurrentStageIncrementMoves int   `json:"currentStageIncrementMoves"`
	CurrentStageTotalMoves     int   `json:"currentStageTotalMoves"`
}

func (t *CumulativeTimer) MarshalJSON() ([]byte, error) {
	return json.Marshal(cumulativeJSON{
		baseJSON:                   t.toJSON(CumulativeIncrement),
		CurrentStageIncrement:      t.currentStageIncrement,
		CurrentStageIncrementMoves: t.currentStageIncrementMoves,
		CurrentStageTotalMoves:     t.currentStageTotalMoves,
	})
}

func unmarshalCumulative(data []byte, opts []Option) (*CumulativeTimer, error) {
	var j cumulativeJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("decode cumulative timer: %w", err)
	}
	t, err := NewCumulativeTimer(j.Stages, j.restoreOptions(opts)...)
	if err != nil {
		return nil, err
	}
	t.currentStageIncrement = max(0, j.CurrentStageIncrement)
	t.currentStageIncrementMoves = max(0, j.CurrentStageIncrementMoves)
	t.currentStageTotalMoves = max(0, j.CurrentStageTotalMoves)
	t.exhausted = j.Exhausted
	return t, nil
}
