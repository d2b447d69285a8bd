package clock

import (
	"encoding/json"
	"fmt"
	"time"
)

// DefaultPlayerName is used when a timer is built without a player name.
const DefaultPlayerName = "Player"

// Timer is the countdown engine shared by every clock variant. A driver calls
// UpdateRemainingTime on a fixed cadence while the timer is active and AddMove
// once per completed move. onEnd runs synchronously, exactly once, when the
// last stage runs out; the timer is inert afterwards until Reset.
type Timer interface {
	Type() PresetType
	PlayerName() string
	SetPlayerName(name string)
	Stages() []Stage
	CurrentStage() int
	CurrentStageTime() int64
	Exhausted() bool
	Reset()
	Clone() Timer
	AddMove(onEnd func())
	UpdateRemainingTime(timeLeftMs int64, onEnd func())
	RemoveStage(index int) error
	json.Marshaler
}

type MoveCounter interface {
	CurrentStageMoves() int
}

type LifeCounter interface {
	CurrentStageLives() int
}

type Incrementer interface {
	CurrentIncrement() int64
}

// Delayer is implemented by the delay variants, which need to know when a turn
// starts and stops and whether it is paused.
type Delayer interface {
	CurrentStageDelay() Duration
	StartTurn(now time.Time)
	EndTurn()
	PauseTurn(now time.Time)
	ResumeTurn(now time.Time)
	IsPaused() bool
	InTurn() bool
	DelayProgress(now time.Time) float64
}

type Option func(*options)

type options struct {
	playerName   string
	currentStage int
	stageTime    int64
	hasStageTime bool
	clock        WallClock
}

func WithPlayerName(name string) Option {
	return func(o *options) { o.playerName = name }
}

func WithCurrentStage(index int) Option {
	return func(o *options) { o.currentStage = index }
}

// WithCurrentStageTime restores the remaining milliseconds of the current stage.
func WithCurrentStageTime(ms int64) Option {
	return func(o *options) {
		o.stageTime = ms
		o.hasStageTime = true
	}
}

func WithWallClock(c WallClock) Option {
	return func(o *options) { o.clock = c }
}

func buildOptions(opts []Option) options {
	o := options{clock: SystemClock}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.clock == nil {
		o.clock = SystemClock
	}
	return o
}

type stageOf[S any] interface {
	Stage
	clone() S
}

// base carries the bookkeeping every variant shares.
type base[S stageOf[S]] struct {
	stages           []S
	playerName       string
	currentStage     int
	currentStageTime int64
	exhausted        bool
}

func newBase[S stageOf[S]](stages []S, o options) (base[S], error) {
	if len(stages) == 0 {
		return base[S]{}, ErrNoStages
	}
	own := make([]S, len(stages))
	for i, s := range stages {
		if err := s.Validate(); err != nil {
			return base[S]{}, fmt.Errorf("stage %d: %w", i, err)
		}
		own[i] = s.clone()
	}
	if o.currentStage < 0 || o.currentStage >= len(own) {
		return base[S]{}, fmt.Errorf("%w: %d", ErrStageIndex, o.currentStage)
	}
	b := base[S]{
		stages:       own,
		playerName:   o.playerName,
		currentStage: o.currentStage,
	}
	if b.playerName == "" {
		b.playerName = DefaultPlayerName
	}
	if o.hasStageTime {
		b.currentStageTime = max(0, o.stageTime)
	} else {
		b.currentStageTime = b.stage().StageTime().Milliseconds()
	}
	return b, nil
}

func (b *base[S]) PlayerName() string { return b.playerName }
func (b *base[S]) CurrentStage() int { return b.currentStage }
func (b *base[S]) CurrentStageTime() int64 { return b.currentStageTime }
func (b *base[S]) Exhausted() bool { return b.exhausted }

func (b *base[S]) SetPlayerName(name string) { b.playerName = nameOrDefault(name) }

func (b *base[S]) stage() S { return b.stages[b.currentStage] }
func (b *base[S]) fullTime() int64 { return b.stages[b.currentStage].StageTime().Milliseconds() }
func (b *base[S]) hasNextStage() bool { return b.currentStage < len(b.stages)-1 }

func (b *base[S]) setStageTime(ms int64) { b.currentStageTime = max(0, ms) }

func (b *base[S]) cloneBase() base[S] {
	return base[S]{
		stages:           b.cloneStages(),
		playerName:       b.playerName,
		currentStage:     b.currentStage,
		currentStageTime: b.currentStageTime,
		exhausted:        b.exhausted,
	}
}

func (b *base[S]) Stages() []Stage {
	out := make([]Stage, len(b.stages))
	for i, s := range b.stages {
		out[i] = s.clone()
	}
	return out
}

func (b *base[S]) cloneStages() []S {
	out := make([]S, len(b.stages))
	for i, s := range b.stages {
		out[i] = s.clone()
	}
	return out
}

func (b *base[S]) resetBase() {
	b.currentStage = 0
	b.currentStageTime = b.stages[0].StageTime().Milliseconds()
	b.exhausted = false
}

// advance moves to the next stage with its full time; the caller resets its
// own per-stage counters when it returns true.
func (b *base[S]) advance() bool {
	if !b.hasNextStage() {
		return false
	}
	b.currentStage++
	b.currentStageTime = b.fullTime()
	return true
}

// finish marks the timer exhausted and fires onEnd once.
func (b *base[S]) finish(onEnd func()) {
	if b.exhausted {
		return
	}
	b.exhausted = true
	if onEnd != nil {
		onEnd()
	}
}

// removeStage deletes stage index. It reports whether the active stage changed,
// in which case the active stage already holds its full time and the caller
// resets its counters. An exhausted timer stays at zero until Reset.
func (b *base[S]) removeStage(index int) (bool, error) {
	if index < 0 || index >= len(b.stages) {
		return false, fmt.Errorf("%w: %d", ErrStageIndex, index)
	}
	if len(b.stages) == 1 {
		return false, ErrLastStage
	}
	b.stages = append(b.stages[:index:index], b.stages[index+1:]...)

	switch {
	case index < b.currentStage:
		b.currentStage--
		return false, nil
	case index == b.currentStage:
		if b.currentStage >= len(b.stages) {
			b.currentStage = len(b.stages) - 1
		}
		if b.exhausted {
			return false, nil
		}
		b.currentStageTime = b.fullTime()
		return true, nil
	default:
		return false, nil
	}
}

type baseJSON[S any] struct {
	Stages           []S        `json:"stages"`
	PlayerName       string     `json:"playerName"`
	CurrentStage     int        `json:"currentStage"`
	CurrentStageTime int64      `json:"currentStageTime"`
	Exhausted        bool       `json:"exhausted,omitempty"`
	PresetTypeID     PresetType `json:"presetTypeId"`
}

func (b *base[S]) toJSON(t PresetType) baseJSON[S] {
	return baseJSON[S]{
		Stages:           b.cloneStages(),
		PlayerName:       b.playerName,
		CurrentStage:     b.currentStage,
		CurrentStageTime: b.currentStageTime,
		Exhausted:        b.exhausted,
		PresetTypeID:     t,
	}
}

// restoreOptions turns persisted base fields into constructor options;
// explicit opts passed by the caller win.
func (j baseJSON[S]) restoreOptions(opts []Option) []Option {
	restored := []Option{
		WithPlayerName(j.PlayerName),
		WithCurrentStage(j.CurrentStage),
		WithCurrentStageTime(j.CurrentStageTime),
	}
	return append(restored, opts...)
}

func nameOrDefault(name string) string {
	if name == "" {
		return DefaultPlayerName
	}
	return name
}
