package clock

import (
	"encoding/json"
	"fmt"
	"time"
)

// SimpleDelayTimer holds the clock still for the stage delay at the start of
// each turn, then counts down from the time the turn started with.
type SimpleDelayTimer struct {
	base[DelayStage]
	currentStageMoves int
	turn              turnState
	clock             WallClock
}

func NewSimpleDelayTimer(stages []DelayStage, opts ...Option) (*SimpleDelayTimer, error) {
	o := buildOptions(opts)
	b, err := newBase(stages, o)
	if err != nil {
		return nil, err
	}
	return &SimpleDelayTimer{base: b, clock: o.clock}, nil
}

func (t *SimpleDelayTimer) Type() PresetType { return SimpleDelay }
func (t *SimpleDelayTimer) CurrentStageMoves() int { return t.currentStageMoves }
func (t *SimpleDelayTimer) CurrentStageDelay() Duration { return t.stage().Delay }
func (t *SimpleDelayTimer) IsPaused() bool { return t.turn.Paused }
func (t *SimpleDelayTimer) InTurn() bool { return t.turn.InTurn }

func (t *SimpleDelayTimer) StartTurn(now time.Time) {
	if t.exhausted {
		return
	}
	t.turn.start(now, t.currentStageTime)
}

func (t *SimpleDelayTimer) EndTurn() { t.turn.end() }
func (t *SimpleDelayTimer) PauseTurn(now time.Time) { t.turn.pause(now) }
func (t *SimpleDelayTimer) ResumeTurn(now time.Time) { t.turn.resume(now) }

// DelayProgress is the share of the delay window already used in this turn.
func (t *SimpleDelayTimer) DelayProgress(now time.Time) float64 {
	if !t.turn.InTurn {
		return 0
	}
	return ratio(t.turn.elapsed(now), t.stage().Delay.Milliseconds())
}

// Tick recomputes the remaining time from the turn bookkeeping.
func (t *SimpleDelayTimer) Tick(now time.Time, onEnd func()) {
	if t.exhausted || !t.turn.InTurn {
		return
	}
	elapsed := t.turn.elapsed(now)
	delay := t.stage().Delay.Milliseconds()
	if elapsed < delay {
		t.currentStageTime = t.turn.TurnInitialTime
		return
	}
	t.setStageTime(t.turn.TurnInitialTime - (elapsed - delay))
	if t.currentStageTime > 0 {
		return
	}
	if t.advance() {
		t.currentStageMoves = 0
		// The player is still on move, so the new stage opens a fresh delay window.
		t.turn.start(now, t.currentStageTime)
		return
	}
	t.turn.end()
	t.finish(onEnd)
}

// UpdateRemainingTime defers to Tick while a turn is running, because the
// caller's countdown does not know about the delay window.
func (t *SimpleDelayTimer) UpdateRemainingTime(timeLeftMs int64, onEnd func()) {
	if t.exhausted {
		return
	}
	if t.turn.InTurn {
		t.Tick(t.clock.Now(), onEnd)
		return
	}
	t.setStageTime(timeLeftMs)
	if t.currentStageTime == 0 {
		t.advanceOrFinish(onEnd)
	}
}

func (t *SimpleDelayTimer) AddMove(onEnd func()) {
	defer t.turn.end()
	if t.exhausted {
		return
	}
	t.currentStageMoves++
	if capReached(t.stage().Moves, t.currentStageMoves) {
		t.advanceOrFinish(onEnd)
	}
}

func (t *SimpleDelayTimer) Reset() {
	t.resetBase()
	t.currentStageMoves = 0
	t.turn.end()
}

func (t *SimpleDelayTimer) Clone() Timer {
	return &SimpleDelayTimer{
		base:              t.cloneBase(),
		currentStageMoves: t.currentStageMoves,
		turn:              t.turn,
		clock:             t.clock,
	}
}

func (t *SimpleDelayTimer) RemoveStage(index int) error {
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

func (t *SimpleDelayTimer) advanceOrFinish(onEnd func()) {
	if t.advance() {
		t.currentStageMoves = 0
		return
	}
	t.finish(onEnd)
}

type delayJSON struct {
	baseJSON[DelayStage]
	turnState
	CurrentStageMoves int `json:"currentStageMoves"`
}

func (t *SimpleDelayTimer) MarshalJSON() ([]byte, error) {
	return json.Marshal(delayJSON{
		baseJSON:          t.toJSON(SimpleDelay),
		turnState:         t.turn,
		CurrentStageMoves: t.currentStageMoves,
	})
}

func unmarshalSimpleDelay(data []byte, opts []Option) (*SimpleDelayTimer, error) {
	var j delayJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("decode simple delay timer: %w", err)
	}
	t, err := NewSimpleDelayTimer(j.Stages, j.restoreOptions(opts)...)
	if err != nil {
		return nil, err
	}
	t.currentStageMoves = max(0, j.CurrentStageMoves)
	t.turn = j.turnState
	t.exhausted = j.Exhausted
	return t, nil
}
