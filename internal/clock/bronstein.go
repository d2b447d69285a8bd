package clock

import (
	"encoding/json"
	"fmt"
	"time"
)

// BronsteinTimer counts down continuously and refunds up to the stage delay
// when the move completes, never above the time the turn started with.
type BronsteinTimer struct {
	base[DelayStage]
	currentStageMoves int
	turn              turnState
}

func NewBronsteinTimer(stages []DelayStage, opts ...Option) (*BronsteinTimer, error) {
	b, err := newBase(stages, buildOptions(opts))
	if err != nil {
		return nil, err
	}
	return &BronsteinTimer{base: b}, nil
}

func (t *BronsteinTimer) Type() PresetType { return BronsteinDelay }
func (t *BronsteinTimer) CurrentStageMoves() int { return t.currentStageMoves }
func (t *BronsteinTimer) CurrentStageDelay() Duration { return t.stage().Delay }
func (t *BronsteinTimer) IsPaused() bool { return t.turn.Paused }
func (t *BronsteinTimer) InTurn() bool { return t.turn.InTurn }

// TurnInitialTime is the stage time snapshotted when the running turn started.
func (t *BronsteinTimer) TurnInitialTime() int64 { return t.turn.TurnInitialTime }

func (t *BronsteinTimer) StartTurn(now time.Time) {
	if t.exhausted {
		return
	}
	t.turn.start(now, t.currentStageTime)
}

func (t *BronsteinTimer) EndTurn() { t.turn.end() }
func (t *BronsteinTimer) PauseTurn(now time.Time) { t.turn.pause(now) }
func (t *BronsteinTimer) ResumeTurn(now time.Time) { t.turn.resume(now) }

// DelayProgress is the share of this turn's refundable delay already spent.
func (t *BronsteinTimer) DelayProgress(time.Time) float64 {
	if !t.turn.InTurn {
		return 0
	}
	spent := t.turn.TurnInitialTime - t.currentStageTime
	return ratio(spent, t.stage().Delay.Milliseconds())
}

func (t *BronsteinTimer) UpdateRemainingTime(timeLeftMs int64, onEnd func()) {
	if t.exhausted {
		return
	}
	t.setStageTime(timeLeftMs)
	if t.currentStageTime > 0 {
		return
	}
	if t.advance() {
		t.currentStageMoves = 0
		if t.turn.InTurn {
			t.turn.TurnInitialTime = t.currentStageTime
		}
		return
	}
	t.turn.end()
	t.finish(onEnd)
}

func (t *BronsteinTimer) AddMove(onEnd func()) {
	defer t.turn.end()
	if t.exhausted {
		return
	}
	if t.turn.InTurn {
		refunded := t.currentStageTime + t.stage().Delay.Milliseconds()
		t.currentStageTime = min(t.turn.TurnInitialTime, refunded)
	}
	t.currentStageMoves++
	if capReached(t.stage().Moves, t.currentStageMoves) {
		if t.advance() {
			t.currentStageMoves = 0
			return
		}
		t.finish(onEnd)
	}
}

func (t *BronsteinTimer) Reset() {
	t.resetBase()
	t.currentStageMoves = 0
	t.turn.end()
}

func (t *BronsteinTimer) Clone() Timer {
	return &BronsteinTimer{
		base:              t.cloneBase(),
		currentStageMoves: t.currentStageMoves,
		turn:              t.turn,
	}
}

func (t *BronsteinTimer) RemoveStage(index int) error {
	changed, err := t.removeStage(index)
	if err != nil {
		return err
	}
	if changed {
		t.currentStageMoves = 0
		t.turn.end()
	}
	return nil
}

func (t *BronsteinTimer) MarshalJSON() ([]byte, error) {
	return json.Marshal(delayJSON{
		baseJSON:          t.toJSON(BronsteinDelay),
		turnState:         t.turn,
		CurrentStageMoves: t.currentStageMoves,
	})
}

func unmarshalBronstein(data []byte, opts []Option) (*BronsteinTimer, error) {
	var j delayJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("decode bronstein timer: %w", err)
	}
	t, err := NewBronsteinTimer(j.Stages, j.restoreOptions(opts)...)
	if err != nil {
		return nil, err
	}
	t.currentStageMoves = max(0, j.CurrentStageMoves)
	t.turn = j.turnState
	t.exhausted = j.Exhausted
	return t, nil
}
