package match

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"go.uber.org/zap"

	"github.com/park285/Cheese-ChessClock/internal/clock"
	"github.com/park285/Cheese-ChessClock/internal/obslog"
	"github.com/park285/Cheese-ChessClock/pkg/clockdto"
)

const (
	DefaultTickInterval = 100 * time.Millisecond
	DefaultTTL          = 24 * time.Hour
	DefaultCapacity     = 200
	subscriberBuffer    = 8
	codeAttempts        = 5
)

var (
	ErrNotFound = errors.New("match not found")
	ErrCapacity = errors.New("too many active matches")
)

// ResultSink receives every finished match once.
type ResultSink interface {
	SaveResult(ctx context.Context, res Result) error
}

type RegistryOption func(*Registry)

func WithCapacity(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.capacity = n
		}
	}
}

func WithTTL(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.ttl = d
		}
	}
}

func WithTickInterval(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithResultSink(s ResultSink) RegistryOption {
	return func(r *Registry) { r.sink = s }
}

func WithWallClock(c clock.WallClock) RegistryOption {
	return func(r *Registry) {
		if c != nil {
			r.clock = c
		}
	}
}

func WithMetrics(m *Metrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// WithCodeGenerator replaces the petname code generator.
func WithCodeGenerator(gen func() string) RegistryOption {
	return func(r *Registry) {
		if gen != nil {
			r.newCode = gen
		}
	}
}

type subscriber struct {
	ch chan clockdto.MatchState
}

// Registry holds the live matches, keyed by a short human-readable code.
type Registry struct {
	mu       sync.Mutex
	matches  map[string]*Match
	subs     map[string]map[*subscriber]struct{}
	clock    clock.WallClock
	capacity int
	ttl      time.Duration
	interval time.Duration
	sink     ResultSink
	metrics  *Metrics
	newCode  func() string
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		matches:  make(map[string]*Match),
		subs:     make(map[string]map[*subscriber]struct{}),
		clock:    clock.SystemClock,
		capacity: DefaultCapacity,
		ttl:      DefaultTTL,
		interval: DefaultTickInterval,
		newCode:  func() string { return petname.Generate(2, "-") },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Create starts a new match on a copy of preset.
func (r *Registry) Create(preset *clock.Preset, playerNames []string) (*Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.matches) >= r.capacity {
		return nil, ErrCapacity
	}
	code := ""
	for i := 0; i < codeAttempts; i++ {
		c := r.newCode()
		if _, taken := r.matches[c]; !taken && c != "" {
			code = c
			break
		}
	}
	if code == "" {
		return nil, fmt.Errorf("failed to allocate match code")
	}
	m, err := New(code, preset, r.clock)
	if err != nil {
		return nil, err
	}
	m.SetPlayerNames(playerNames)
	r.matches[code] = m
	r.setActiveGauge()
	obslog.L().Info("match_start", zap.String("code", code), zap.String("preset", preset.ID), zap.Stringer("type", preset.Type()))
	return m, nil
}

func (r *Registry) Get(code string) (*Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	return m, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matches)
}

// Codes lists the live match codes in sorted order.
func (r *Registry) Codes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.matches))
	for c := range r.matches {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Tap(ctx context.Context, code string, player int) (clockdto.MatchState, error) {
	return r.apply(ctx, code, func(m *Match) error {
		if err := m.Tap(player); err != nil {
			return err
		}
		obslog.L().Debug("match_tap", zap.String("code", code), zap.Int("player", player))
		return nil
	})
}

func (r *Registry) Pause(ctx context.Context, code string) (clockdto.MatchState, error) {
	return r.apply(ctx, code, (*Match).Pause)
}

func (r *Registry) Resume(ctx context.Context, code string) (clockdto.MatchState, error) {
	return r.apply(ctx, code, (*Match).Resume)
}

func (r *Registry) Restart(ctx context.Context, code string) (clockdto.MatchState, error) {
	return r.apply(ctx, code, func(m *Match) error {
		m.Restart()
		return nil
	})
}

// Remove drops a match and closes its subscriptions.
func (r *Registry) Remove(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[code]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	r.dropLocked(code)
	return nil
}

func (r *Registry) apply(ctx context.Context, code string, fn func(*Match) error) (clockdto.MatchState, error) {
	m, err := r.Get(code)
	if err != nil {
		return clockdto.MatchState{}, err
	}
	if err := fn(m); err != nil {
		return clockdto.MatchState{}, err
	}
	st := m.Snapshot()
	r.publish(code, st)
	r.report(ctx, m)
	return st, nil
}

// Subscribe streams snapshots of code. A slow reader misses frames rather
// than stalling the tick loop. cancel must be called once the reader is done.
func (r *Registry) Subscribe(code string) (<-chan clockdto.MatchState, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[code]; !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	s := &subscriber{ch: make(chan clockdto.MatchState, subscriberBuffer)}
	if r.subs[code] == nil {
		r.subs[code] = make(map[*subscriber]struct{})
	}
	r.subs[code][s] = struct{}{}
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if set, ok := r.subs[code]; ok {
				if _, ok := set[s]; ok {
					delete(set, s)
					close(s.ch)
				}
			}
		})
	}
	return s.ch, cancel, nil
}

func (r *Registry) publish(code string, st clockdto.MatchState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for s := range r.subs[code] {
		select {
		case s.ch <- st:
		default:
		}
	}
}

// Step ticks every running match once and sweeps idle ones.
func (r *Registry) Step(ctx context.Context) {
	r.mu.Lock()
	live := make([]*Match, 0, len(r.matches))
	for _, m := range r.matches {
		live = append(live, m)
	}
	r.mu.Unlock()

	now := r.clock.Now()
	for _, m := range live {
		if m.Status() == StatusRunning {
			m.Tick()
			if r.metrics != nil {
				r.metrics.Ticks.Inc()
			}
			r.publish(m.Code(), m.Snapshot())
		}
		r.report(ctx, m)
		if now.Sub(m.UpdatedAt()) > r.ttl {
			m.Expire()
			r.report(ctx, m)
			r.mu.Lock()
			r.dropLocked(m.Code())
			r.mu.Unlock()
			obslog.L().Info("match_expired", zap.String("code", m.Code()))
		}
	}
}

// Run ticks until ctx is done.
func (r *Registry) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			r.Step(ctx)
		}
	}
}

func (r *Registry) report(ctx context.Context, m *Match) {
	res, ok := m.takeResult()
	if !ok {
		return
	}
	if r.metrics != nil {
		r.metrics.Finished.WithLabelValues(res.Reason).Inc()
	}
	obslog.L().Info("match_finished",
		zap.String("code", res.Code),
		zap.String("reason", res.Reason),
		zap.String("loser", res.LoserName()),
		zap.Int("moves", res.Moves),
	)
	if r.sink == nil {
		return
	}
	if err := r.sink.SaveResult(ctx, res); err != nil {
		obslog.L().Warn("match_result_save_failed", zap.String("code", res.Code), zap.Error(err))
	}
}

func (r *Registry) dropLocked(code string) {
	delete(r.matches, code)
	for s := range r.subs[code] {
		close(s.ch)
	}
	delete(r.subs, code)
	r.setActiveGauge()
}

func (r *Registry) setActiveGauge() {
	if r.metrics != nil {
		r.metrics.Active.Set(float64(len(r.matches)))
	}
}
