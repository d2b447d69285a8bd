package clock

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func sec(s int) Duration { return MustDuration(0, 0, s) }

type endCounter struct{ n int }

func (c *endCounter) fn() func() { return func() { c.n++ } }

func TestFischerIncrementAfterMove(t *testing.T) {
	tm, err := NewFischerTimer([]FischerStage{{Time: sec(60), Increment: sec(1)}})
	if err != nil {
		t.Fatalf("NewFischerTimer: %v", err)
	}
	tm.AddMove(nil)
	if tm.CurrentStageTime() != 61_000 {
		t.Fatalf("expected 61000 after one move, got %d", tm.CurrentStageTime())
	}
	if tm.CurrentStageMoves() != 1 {
		t.Fatalf("moves = %d", tm.CurrentStageMoves())
	}
}

func TestFischerStageAdvanceByMoveCap(t *testing.T) {
	tm, err := NewFischerTimer([]FischerStage{
		{Time: MustDuration(0, 90, 0), Increment: sec(30), Moves: Limit(2)},
		{Time: MustDuration(0, 30, 0), Increment: sec(30)},
	})
	if err != nil {
		t.Fatalf("NewFischerTimer: %v", err)
	}
	var end endCounter
	tm.AddMove(end.fn())
	tm.AddMove(end.fn())
	if tm.CurrentStage() != 1 || tm.CurrentStageTime() != 1_800_000 || tm.CurrentStageMoves() != 0 {
		t.Fatalf("expected stage 1 at full time: stage=%d time=%d moves=%d", tm.CurrentStage(), tm.CurrentStageTime(), tm.CurrentStageMoves())
	}
	if end.n != 0 {
		t.Fatalf("callback fired on stage advance")
	}
}

func TestFischerEndFiresOnce(t *testing.T) {
	tm, _ := NewFischerTimer([]FischerStage{{Time: sec(5)}})
	var end endCounter
	tm.UpdateRemainingTime(-20, end.fn())
	if end.n != 1 || !tm.Exhausted() || tm.CurrentStageTime() != 0 {
		t.Fatalf("expected single end: n=%d exhausted=%v time=%d", end.n, tm.Exhausted(), tm.CurrentStageTime())
	}
	tm.UpdateRemainingTime(0, end.fn())
	tm.AddMove(end.fn())
	if end.n != 1 {
		t.Fatalf("callback fired %d times", end.n)
	}
	if tm.CurrentStageTime() != 0 {
		t.Fatalf("exhausted timer changed: %d", tm.CurrentStageTime())
	}
	tm.Reset()
	if tm.Exhausted() || tm.CurrentStageTime() != 5_000 {
		t.Fatalf("reset: exhausted=%v time=%d", tm.Exhausted(), tm.CurrentStageTime())
	}
}

func TestNilCallbackAllowed(t *testing.T) {
	tm, _ := NewFischerTimer([]FischerStage{{Time: sec(1)}})
	tm.UpdateRemainingTime(0, nil)
	if !tm.Exhausted() {
		t.Fatalf("expected exhausted")
	}
}

func TestConstructorErrors(t *testing.T) {
	if _, err := NewFischerTimer(nil); !errors.Is(err, ErrNoStages) {
		t.Fatalf("expected ErrNoStages, got %v", err)
	}
	if _, err := NewFischerTimer([]FischerStage{{Time: sec(1)}}, WithCurrentStage(3)); !errors.Is(err, ErrStageIndex) {
		t.Fatalf("expected ErrStageIndex, got %v", err)
	}
	if _, err := NewFixedMovesTimer([]FixedMovesStage{{Time: sec(1), Lives: 0}}); !errors.Is(err, ErrInvalidLives) {
		t.Fatalf("expected ErrInvalidLives, got %v", err)
	}
	if _, err := NewCumulativeTimer([]CumulativeStage{{Time: sec(1)}}); !errors.Is(err, ErrInvalidGrowthMoves) {
		t.Fatalf("expected ErrInvalidGrowthMoves, got %v", err)
	}
	tm, err := NewFischerTimer([]FischerStage{{Time: sec(1)}})
	if err != nil || tm.PlayerName() != DefaultPlayerName {
		t.Fatalf("default name: %q %v", tm.PlayerName(), err)
	}
}

func TestFixedMovesLives(t *testing.T) {
	tm, err := NewFixedMovesTimer([]FixedMovesStage{{Time: sec(10), Lives: 2}})
	if err != nil {
		t.Fatalf("NewFixedMovesTimer: %v", err)
	}
	var end endCounter
	tm.UpdateRemainingTime(0, end.fn())
	if end.n != 0 || tm.CurrentStageLives() != 1 || tm.CurrentStageTime() != 10_000 {
		t.Fatalf("first timeout: n=%d lives=%d time=%d", end.n, tm.CurrentStageLives(), tm.CurrentStageTime())
	}
	tm.UpdateRemainingTime(0, end.fn())
	if end.n != 1 || tm.CurrentStageLives() != 0 {
		t.Fatalf("second timeout: n=%d lives=%d", end.n, tm.CurrentStageLives())
	}
}

func TestFixedMovesMoveRefillsTime(t *testing.T) {
	tm, _ := NewFixedMovesTimer([]FixedMovesStage{
		{Time: sec(10), Lives: 3, Moves: Limit(2)},
		{Time: sec(5), Lives: 2},
	})
	tm.UpdateRemainingTime(4_000, nil)
	tm.AddMove(nil)
	if tm.CurrentStageTime() != 10_000 || tm.CurrentStageMoves() != 1 {
		t.Fatalf("after move: time=%d moves=%d", tm.CurrentStageTime(), tm.CurrentStageMoves())
	}
	tm.UpdateRemainingTime(0, nil)
	tm.AddMove(nil)
	if tm.CurrentStage() != 1 || tm.CurrentStageLives() != 2 || tm.CurrentStageTime() != 5_000 {
		t.Fatalf("advance: stage=%d lives=%d time=%d", tm.CurrentStage(), tm.CurrentStageLives(), tm.CurrentStageTime())
	}
}

func TestCumulativeIncrementGrows(t *testing.T) {
	tm, err := NewCumulativeTimer([]CumulativeStage{{
		Time:              sec(0),
		IncrementBase:     sec(5),
		IncrementGrowth:   sec(5),
		IncrementPerMoves: 2,
	}})
	if err != nil {
		t.Fatalf("NewCumulativeTimer: %v", err)
	}
	tm.AddMove(nil)
	tm.AddMove(nil)
	before := tm.CurrentStageTime()
	tm.AddMove(nil)
	if got := tm.CurrentStageTime() - before; got != 10_000 {
		t.Fatalf("third move increment = %d, want 10000", got)
	}
	if tm.CurrentIncrement() != 10_000 || tm.CurrentStageIncrementMoves() != 1 {
		t.Fatalf("increment=%d growthMoves=%d", tm.CurrentIncrement(), tm.CurrentStageIncrementMoves())
	}
}

func TestCumulativeAdvanceResetsIncrement(t *testing.T) {
	tm, _ := NewCumulativeTimer([]CumulativeStage{
		{Time: sec(60), IncrementBase: sec(5), IncrementGrowth: sec(5), IncrementPerMoves: 1, TotalMoves: Limit(2)},
		{Time: sec(30), IncrementBase: sec(3), IncrementGrowth: sec(3), IncrementPerMoves: 1},
	})
	tm.AddMove(nil)
	tm.AddMove(nil)
	if tm.CurrentStage() != 1 || tm.CurrentIncrement() != 3_000 || tm.CurrentStageMoves() != 0 {
		t.Fatalf("stage=%d inc=%d moves=%d", tm.CurrentStage(), tm.CurrentIncrement(), tm.CurrentStageMoves())
	}
}

func TestBronsteinRefundCappedAtTurnStart(t *testing.T) {
	clk := newFakeClock()
	tm, err := NewBronsteinTimer([]DelayStage{{Time: sec(60), Delay: sec(3)}}, WithWallClock(clk))
	if err != nil {
		t.Fatalf("NewBronsteinTimer: %v", err)
	}
	tm.StartTurn(clk.Now())
	tm.UpdateRemainingTime(59_000, nil)
	tm.AddMove(nil)
	if tm.CurrentStageTime() != 60_000 {
		t.Fatalf("refund exceeded snapshot: %d", tm.CurrentStageTime())
	}
	if tm.InTurn() {
		t.Fatalf("turn should end after move")
	}

	tm.StartTurn(clk.Now())
	tm.UpdateRemainingTime(50_000, nil)
	if p := tm.DelayProgress(clk.Now()); p != 1 {
		t.Fatalf("progress = %v", p)
	}
	tm.AddMove(nil)
	if tm.CurrentStageTime() != 53_000 {
		t.Fatalf("expected 53000 after refund, got %d", tm.CurrentStageTime())
	}
}

func TestBronsteinNoRefundOutsideTurn(t *testing.T) {
	tm, _ := NewBronsteinTimer([]DelayStage{{Time: sec(60), Delay: sec(3)}})
	tm.UpdateRemainingTime(40_000, nil)
	tm.AddMove(nil)
	if tm.CurrentStageTime() != 40_000 {
		t.Fatalf("refund without turn: %d", tm.CurrentStageTime())
	}
}

func TestSimpleDelayHoldsDuringDelay(t *testing.T) {
	clk := newFakeClock()
	tm, err := NewSimpleDelayTimer([]DelayStage{{Time: sec(60), Delay: sec(3)}}, WithWallClock(clk))
	if err != nil {
		t.Fatalf("NewSimpleDelayTimer: %v", err)
	}
	tm.StartTurn(clk.Now())
	clk.advance(2 * time.Second)
	tm.UpdateRemainingTime(58_000, nil)
	if tm.CurrentStageTime() != 60_000 {
		t.Fatalf("time moved inside delay: %d", tm.CurrentStageTime())
	}
	if p := tm.DelayProgress(clk.Now()); p < 0.66 || p > 0.67 {
		t.Fatalf("progress = %v", p)
	}
	clk.advance(3 * time.Second)
	tm.Tick(clk.Now(), nil)
	if tm.CurrentStageTime() != 58_000 {
		t.Fatalf("expected 58000 two seconds after delay, got %d", tm.CurrentStageTime())
	}
	tm.AddMove(nil)
	if tm.InTurn() || tm.CurrentStageMoves() != 1 {
		t.Fatalf("after move: inTurn=%v moves=%d", tm.InTurn(), tm.CurrentStageMoves())
	}
}

func TestSimpleDelayPauseFreezes(t *testing.T) {
	clk := newFakeClock()
	tm, _ := NewSimpleDelayTimer([]DelayStage{{Time: sec(60), Delay: sec(3)}}, WithWallClock(clk))
	tm.StartTurn(clk.Now())
	clk.advance(1 * time.Second)
	tm.PauseTurn(clk.Now())
	clk.advance(10 * time.Second)
	if !tm.IsPaused() {
		t.Fatalf("expected paused")
	}
	if p := tm.DelayProgress(clk.Now()); p < 0.33 || p > 0.34 {
		t.Fatalf("progress while paused = %v", p)
	}
	tm.ResumeTurn(clk.Now())
	clk.advance(4 * time.Second)
	tm.Tick(clk.Now(), nil)
	if tm.CurrentStageTime() != 58_000 {
		t.Fatalf("paused time counted: %d", tm.CurrentStageTime())
	}
}

func TestSimpleDelayZeroDelayProgress(t *testing.T) {
	clk := newFakeClock()
	tm, _ := NewSimpleDelayTimer([]DelayStage{{Time: sec(60)}}, WithWallClock(clk))
	if p := tm.DelayProgress(clk.Now()); p != 0 {
		t.Fatalf("progress outside turn = %v", p)
	}
	tm.StartTurn(clk.Now())
	if p := tm.DelayProgress(clk.Now()); p != 1 {
		t.Fatalf("progress with zero delay = %v", p)
	}
}

func TestSimpleDelayRunsOut(t *testing.T) {
	clk := newFakeClock()
	tm, _ := NewSimpleDelayTimer([]DelayStage{{Time: sec(5), Delay: sec(1)}}, WithWallClock(clk))
	var end endCounter
	tm.StartTurn(clk.Now())
	clk.advance(7 * time.Second)
	tm.UpdateRemainingTime(0, end.fn())
	if end.n != 1 || !tm.Exhausted() || tm.InTurn() {
		t.Fatalf("n=%d exhausted=%v inTurn=%v", end.n, tm.Exhausted(), tm.InTurn())
	}
}

func TestRemoveStage(t *testing.T) {
	tm, _ := NewFischerTimer([]FischerStage{
		{Time: sec(30), Moves: Limit(1)},
		{Time: sec(20), Moves: Limit(1)},
		{Time: sec(10)},
	})
	tm.AddMove(nil)
	tm.AddMove(nil)
	if tm.CurrentStage() != 2 {
		t.Fatalf("stage = %d", tm.CurrentStage())
	}
	if err := tm.RemoveStage(2); err != nil {
		t.Fatalf("RemoveStage: %v", err)
	}
	if tm.CurrentStage() != 1 || tm.CurrentStageTime() != 20_000 {
		t.Fatalf("after removing active last: stage=%d time=%d", tm.CurrentStage(), tm.CurrentStageTime())
	}
	if err := tm.RemoveStage(0); err != nil {
		t.Fatalf("RemoveStage(0): %v", err)
	}
	if tm.CurrentStage() != 0 || len(tm.Stages()) != 1 {
		t.Fatalf("after removing earlier stage: stage=%d stages=%d", tm.CurrentStage(), len(tm.Stages()))
	}
	if err := tm.RemoveStage(5); !errors.Is(err, ErrStageIndex) {
		t.Fatalf("expected ErrStageIndex, got %v", err)
	}
	if err := tm.RemoveStage(0); !errors.Is(err, ErrLastStage) {
		t.Fatalf("expected ErrLastStage, got %v", err)
	}
}

func TestRemoveStageKeepsExhaustedTimerAtZero(t *testing.T) {
	tm, _ := NewFischerTimer([]FischerStage{
		{Time: sec(30), Moves: Limit(1)},
		{Time: sec(10)},
	})
	tm.AddMove(nil)
	ended := 0
	tm.UpdateRemainingTime(0, func() { ended++ })
	if !tm.Exhausted() || ended != 1 {
		t.Fatalf("exhausted=%v ended=%d", tm.Exhausted(), ended)
	}
	if err := tm.RemoveStage(1); err != nil {
		t.Fatalf("RemoveStage: %v", err)
	}
	if tm.CurrentStage() != 0 || tm.CurrentStageTime() != 0 || !tm.Exhausted() {
		t.Fatalf("stage=%d time=%d exhausted=%v", tm.CurrentStage(), tm.CurrentStageTime(), tm.Exhausted())
	}
	tm.Reset()
	if tm.Exhausted() || tm.CurrentStageTime() != 30_000 {
		t.Fatalf("after reset: time=%d exhausted=%v", tm.CurrentStageTime(), tm.Exhausted())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tm, _ := NewFischerTimer([]FischerStage{{Time: sec(30), Moves: Limit(3)}, {Time: sec(10)}}, WithPlayerName("White"))
	c := tm.Clone()
	c.SetPlayerName("Black")
	c.AddMove(nil)
	if err := c.RemoveStage(1); err != nil {
		t.Fatalf("RemoveStage: %v", err)
	}
	if tm.PlayerName() != "White" || tm.CurrentStageMoves() != 0 || len(tm.Stages()) != 2 {
		t.Fatalf("source mutated: %q moves=%d stages=%d", tm.PlayerName(), tm.CurrentStageMoves(), len(tm.Stages()))
	}
	st := tm.Stages()[0].(FischerStage)
	*st.Moves = 99
	if *tm.stages[0].Moves != 3 {
		t.Fatalf("Stages leaked internal pointer")
	}
}

func TestCapabilities(t *testing.T) {
	stage := []Stage{DelayStage{Time: sec(10), Delay: sec(1)}}
	for _, typ := range []PresetType{SimpleDelay, BronsteinDelay} {
		tm, err := NewTimer(typ, stage)
		if err != nil {
			t.Fatalf("NewTimer(%v): %v", typ, err)
		}
		if _, ok := tm.(Delayer); !ok {
			t.Fatalf("%v is not a Delayer", typ)
		}
	}
	fm, _ := NewTimer(FixedMoves, []Stage{FixedMovesStage{Time: sec(5), Lives: 1}})
	if _, ok := fm.(LifeCounter); !ok {
		t.Fatalf("fixed moves is not a LifeCounter")
	}
	if _, err := NewTimer(FixedMoves, stage); !errors.Is(err, ErrStageType) {
		t.Fatalf("expected ErrStageType, got %v", err)
	}
}

func TestUnmarshalTimerRoundTrip(t *testing.T) {
	clk := newFakeClock()
	fischer, _ := NewFischerTimer([]FischerStage{{Time: sec(60), Increment: sec(1), Moves: Limit(10)}, {Time: sec(30)}}, WithPlayerName("White"))
	fischer.AddMove(nil)
	simple, _ := NewSimpleDelayTimer([]DelayStage{{Time: sec(60), Delay: sec(3)}}, WithWallClock(clk))
	simple.StartTurn(clk.Now())
	simple.PauseTurn(clk.Now().Add(time.Second))
	bronstein, _ := NewBronsteinTimer([]DelayStage{{Time: sec(60), Delay: sec(3), Moves: Limit(5)}})
	bronstein.UpdateRemainingTime(42_000, nil)
	cumulative, _ := NewCumulativeTimer([]CumulativeStage{{Time: sec(60), IncrementBase: sec(1), IncrementGrowth: sec(1), IncrementPerMoves: 2}})
	cumulative.AddMove(nil)
	fixed, _ := NewFixedMovesTimer([]FixedMovesStage{{Time: sec(10), Lives: 3}})
	fixed.UpdateRemainingTime(0, nil)
	exhausted, _ := NewFischerTimer([]FischerStage{{Time: sec(1)}})
	exhausted.UpdateRemainingTime(0, nil)

	for _, tm := range []Timer{fischer, simple, bronstein, cumulative, fixed, exhausted} {
		data, err := json.Marshal(tm)
		if err != nil {
			t.Fatalf("marshal %v: %v", tm.Type(), err)
		}
		back, err := UnmarshalTimer(data, WithWallClock(clk))
		if err != nil {
			t.Fatalf("UnmarshalTimer %v: %v", tm.Type(), err)
		}
		again, err := json.Marshal(back)
		if err != nil {
			t.Fatalf("re-marshal: %v", err)
		}
		if string(again) != string(data) {
			t.Fatalf("round trip mismatch for %v:\n%s\n%s", tm.Type(), data, again)
		}
		if back.Exhausted() != tm.Exhausted() || back.CurrentStageTime() != tm.CurrentStageTime() {
			t.Fatalf("state lost for %v", tm.Type())
		}
	}
}

func TestUnmarshalTimerUnknownType(t *testing.T) {
	_, err := UnmarshalTimer([]byte(`{"presetTypeId":6,"stages":[]}`))
	var unknown *UnknownPresetTypeError
	if !errors.As(err, &unknown) || unknown.ID != 6 {
		t.Fatalf("expected UnknownPresetTypeError, got %v", err)
	}
	if got := unknown.Error(); got != "unknown preset type: 6 (supported: 1, 2, 3, 4, 5)" {
		t.Fatalf("message: %q", got)
	}
}

func TestDecodeStages(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"time":{"hours":0,"minutes":5,"seconds":0},"delay":{"hours":0,"minutes":0,"seconds":2},"moves":null}`),
	}
	stages, err := DecodeStages(BronsteinDelay, raw)
	if err != nil {
		t.Fatalf("DecodeStages: %v", err)
	}
	st, ok := stages[0].(DelayStage)
	if !ok || st.Time != MustDuration(0, 5, 0) || st.Delay != sec(2) {
		t.Fatalf("stage = %#v", stages[0])
	}
	if _, err := NewTimer(BronsteinDelay, stages); err != nil {
		t.Fatalf("NewTimer: %v", err)
	}
	if _, err := DecodeStages(PresetType(9), raw); err == nil {
		t.Fatalf("expected unknown type error")
	}
	if _, err := DecodeStages(FischerIncrement, []json.RawMessage{json.RawMessage(`[]`)}); err == nil {
		t.Fatalf("expected decode error")
	}
}
