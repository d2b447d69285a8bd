// Package match drives a preset's timers through a live game: it decides
// which timer is ticking, feeds elapsed time into it and reports completion.
package match

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-ChessClock/internal/clock"
	"github.com/park285/Cheese-ChessClock/internal/obslog"
	"github.com/park285/Cheese-ChessClock/pkg/clockdto"
)

type Status string

const (
	StatusReady    Status = "ready"
	StatusRunning  Status = "running"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

const (
	ReasonTimeout = "timeout"
	ReasonExpired = "expired"
)

var (
	ErrFinished      = errors.New("match is finished")
	ErrPaused        = errors.New("match is paused")
	ErrNotRunning    = errors.New("match is not running")
	ErrNotOnMove     = errors.New("player is not on move")
	ErrInvalidPlayer = errors.New("invalid player index")
)

// ticker is implemented by timers that compute their own remaining time from
// the wall clock (simple delay).
type ticker interface {
	Tick(now time.Time, onEnd func())
}

// Result is what a finished match leaves behind.
type Result struct {
	Code        string
	PresetID    string
	PresetTitle string
	PresetType  clock.PresetType
	Players     []string
	Loser       int
	Reason      string
	Moves       int
	StartedAt   time.Time
	EndedAt     time.Time
	Preset      []byte
}

// LoserName is empty when nobody lost (expired matches).
func (r Result) LoserName() string {
	if r.Loser < 0 || r.Loser >= len(r.Players) {
		return ""
	}
	return r.Players[r.Loser]
}

// Match is one running clock. Exactly one timer counts down while the match
// is running; all methods are safe for concurrent use.
type Match struct {
	mu sync.Mutex

	code   string
	preset *clock.Preset
	clock  clock.WallClock

	status Status
	active int
	loser  int
	reason string
	moves  int

	turnStartedAt time.Time
	turnBudget    int64
	pausedAt      time.Time
	pausedFor     time.Duration

	createdAt time.Time
	startedAt time.Time
	updatedAt time.Time
	version   uint64
	reported  bool
}

// New clones preset so the caller's copy is never mutated.
func New(code string, preset *clock.Preset, wall clock.WallClock) (*Match, error) {
	if preset == nil || len(preset.Timers) == 0 {
		return nil, clock.ErrNoTimers
	}
	if wall == nil {
		wall = clock.SystemClock
	}
	p := preset.Clone()
	p.Reset()
	now := wall.Now()
	return &Match{
		code:      code,
		preset:    p,
		clock:     wall,
		status:    StatusReady,
		active:    -1,
		loser:     -1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func (m *Match) Code() string { return m.code }

func (m *Match) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Match) UpdatedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updatedAt
}

// SetPlayerNames renames the timers in order; blank entries keep the current name.
func (m *Match) SetPlayerNames(names []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range names {
		if i >= len(m.preset.Timers) {
			break
		}
		if n != "" {
			m.preset.Timers[i].SetPlayerName(n)
		}
	}
	m.touch()
}

// Tap is a press on player's side of the clock. The first tap starts the
// game with the opponent on move; afterwards only the player on move may tap,
// which completes their move and hands the clock over.
func (m *Match) Tap(player int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if player < 0 || player >= len(m.preset.Timers) {
		return fmt.Errorf("%w: %d", ErrInvalidPlayer, player)
	}
	now := m.clock.Now()
	switch m.status {
	case StatusFinished:
		return ErrFinished
	case StatusPaused:
		return ErrPaused
	case StatusReady:
		m.status = StatusRunning
		m.startedAt = now
		m.startTurn(m.next(player), now)
		m.touch()
		return nil
	}
	if player != m.active {
		return fmt.Errorf("%w: %d", ErrNotOnMove, player)
	}
	m.tick(now)
	if m.status == StatusFinished {
		return nil
	}
	t := m.preset.Timers[m.active]
	t.AddMove(m.finisher())
	m.moves++
	if m.status != StatusFinished {
		m.startTurn(m.next(m.active), now)
	}
	m.touch()
	return nil
}

// Tick pushes elapsed time into the active timer. It is a no-op unless the
// match is running and reports whether the match finished during this call.
func (m *Match) Tick() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != StatusRunning {
		return false
	}
	m.tick(m.clock.Now())
	m.touch()
	return m.status == StatusFinished
}

func (m *Match) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.status {
	case StatusFinished:
		return ErrFinished
	case StatusPaused:
		return nil
	case StatusReady:
		return ErrNotRunning
	}
	now := m.clock.Now()
	m.tick(now)
	if m.status == StatusFinished {
		m.touch()
		return nil
	}
	m.status = StatusPaused
	m.pausedAt = now
	if d, ok := m.preset.Timers[m.active].(clock.Delayer); ok {
		d.PauseTurn(now)
	}
	m.touch()
	return nil
}

func (m *Match) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.status {
	case StatusFinished:
		return ErrFinished
	case StatusRunning:
		return nil
	case StatusReady:
		return ErrNotRunning
	}
	now := m.clock.Now()
	m.pausedFor += now.Sub(m.pausedAt)
	m.pausedAt = time.Time{}
	if d, ok := m.preset.Timers[m.active].(clock.Delayer); ok {
		d.ResumeTurn(now)
	}
	m.status = StatusRunning
	m.touch()
	return nil
}

// Restart resets every timer and waits for the first tap again.
func (m *Match) Restart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preset.Reset()
	m.status = StatusReady
	m.active = -1
	m.loser = -1
	m.reason = ""
	m.moves = 0
	m.pausedFor = 0
	m.pausedAt = time.Time{}
	m.startedAt = time.Time{}
	m.reported = false
	m.touch()
}

// Expire finishes a match nobody lost, e.g. when it sat idle too long.
func (m *Match) Expire() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == StatusFinished {
		return
	}
	m.endTurn()
	m.status = StatusFinished
	m.reason = ReasonExpired
	m.touch()
}

// Snapshot is safe to hand to other goroutines.
func (m *Match) Snapshot() clockdto.MatchState {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	st := clockdto.MatchState{
		Code:      m.code,
		PresetID:  m.preset.ID,
		Title:     m.preset.Title,
		Type:      int(m.preset.Type()),
		Status:    string(m.status),
		Active:    m.active,
		Loser:     m.loser,
		Players:   make([]clockdto.PlayerClock, 0, len(m.preset.Timers)),
		Version:   m.version,
		UpdatedAt: m.updatedAt,
	}
	for i, t := range m.preset.Timers {
		st.Players = append(st.Players, playerClock(t, now, i == m.active && m.status != StatusFinished))
	}
	return st
}

// takeResult returns the result of a finished match once.
func (m *Match) takeResult() (Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != StatusFinished || m.reported {
		return Result{}, false
	}
	m.reported = true
	raw, err := m.preset.MarshalJSON()
	if err != nil {
		obslog.L().Warn("match_result_encode_failed", zap.String("code", m.code), zap.Error(err))
		raw = nil
	}
	names := make([]string, len(m.preset.Timers))
	for i, t := range m.preset.Timers {
		names[i] = t.PlayerName()
	}
	return Result{
		Code:        m.code,
		PresetID:    m.preset.ID,
		PresetTitle: m.preset.Title,
		PresetType:  m.preset.Type(),
		Players:     names,
		Loser:       m.loser,
		Reason:      m.reason,
		Moves:       m.moves,
		StartedAt:   m.startedAt,
		EndedAt:     m.updatedAt,
		Preset:      raw,
	}, true
}

func (m *Match) next(player int) int {
	return (player + 1) % len(m.preset.Timers)
}

func (m *Match) startTurn(player int, now time.Time) {
	m.active = player
	m.rebase(now)
	if d, ok := m.preset.Timers[player].(clock.Delayer); ok {
		d.StartTurn(now)
	}
}

func (m *Match) rebase(now time.Time) {
	m.turnStartedAt = now
	m.pausedFor = 0
	m.turnBudget = m.preset.Timers[m.active].CurrentStageTime()
}

func (m *Match) endTurn() {
	if m.active < 0 {
		return
	}
	if d, ok := m.preset.Timers[m.active].(clock.Delayer); ok {
		d.EndTurn()
	}
}

// tick must run with m.mu held and the match running.
func (m *Match) tick(now time.Time) {
	t := m.preset.Timers[m.active]
	if tk, ok := t.(ticker); ok {
		tk.Tick(now, m.finisher())
		return
	}
	spent := now.Sub(m.turnStartedAt) - m.pausedFor
	left := max(0, m.turnBudget-spent.Milliseconds())
	t.UpdateRemainingTime(left, m.finisher())
	if m.status == StatusFinished {
		return
	}
	// A new stage or a lost life refills the timer; count down from there.
	if t.CurrentStageTime() != left {
		m.rebase(now)
	}
}

func (m *Match) finisher() func() {
	return func() {
		m.status = StatusFinished
		m.loser = m.active
		m.reason = ReasonTimeout
	}
}

func (m *Match) touch() {
	m.updatedAt = m.clock.Now()
	m.version++
}

func playerClock(t clock.Timer, now time.Time, active bool) clockdto.PlayerClock {
	stages := t.Stages()
	pc := clockdto.PlayerClock{
		Name:        t.PlayerName(),
		RemainingMs: t.CurrentStageTime(),
		Display:     clock.DurationFromMilliseconds(t.CurrentStageTime()).TimerString(),
		Stage:       t.CurrentStage(),
		StageCount:  len(stages),
		Active:      active,
		Exhausted:   t.Exhausted(),
	}
	if s := t.CurrentStage(); s >= 0 && s < len(stages) {
		pc.StageLabel = stages[s].String()
	}
	if mc, ok := t.(clock.MoveCounter); ok {
		n := mc.CurrentStageMoves()
		pc.Moves = &n
	}
	if lc, ok := t.(clock.LifeCounter); ok {
		n := lc.CurrentStageLives()
		pc.Lives = &n
	}
	if inc, ok := t.(clock.Incrementer); ok {
		n := inc.CurrentIncrement()
		pc.IncrementMs = &n
	}
	if d, ok := t.(clock.Delayer); ok {
		pc.DelayProgress = d.DelayProgress(now)
		pc.Paused = d.IsPaused()
	}
	return pc
}
