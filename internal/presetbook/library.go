// Package presetbook stores the default and custom time-control presets and
// the saved matches in a kv.Store.
package presetbook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/Cheese-ChessClock/internal/board"
	"github.com/park285/Cheese-ChessClock/internal/clock"
	"github.com/park285/Cheese-ChessClock/internal/kv"
	"github.com/park285/Cheese-ChessClock/internal/obslog"
)

const (
	keyFirstTime     = "firstTime"
	keyDefaults      = "presets.default"
	keyCustom        = "presets.custom"
	keySavedPrefix   = "matches.saved:"
	CustomGroupKey   = "custom"
	customGroupTitle = "Custom"
	customGroupIcon  = "preset_custom"
	customIconColor  = "#1E1E1E"
)

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrMatchNotFound  = errors.New("saved match not found")
	ErrInvalidPreset  = errors.New("invalid preset")
)

// Group is one section of the preset picker (bullet, blitz, custom, ...).
type Group struct {
	Key       string          `json:"key"`
	Icon      string          `json:"icon"`
	IconColor string          `json:"iconColor"`
	Title     string          `json:"title"`
	Presets   []*clock.Preset `json:"presets"`
}

func (g Group) find(id string) *clock.Preset {
	for _, p := range g.Presets {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func emptyCustomGroup() Group {
	return Group{Key: CustomGroupKey, Icon: customGroupIcon, IconColor: customIconColor, Title: customGroupTitle, Presets: []*clock.Preset{}}
}

// SavedMatch is a board position plus the preset to resume it with.
type SavedMatch struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	CreatedAt  time.Time     `json:"createdAt"`
	NextPlayer board.Side    `json:"nextPlayer"`
	Board      string        `json:"board"`
	Preset     *clock.Preset `json:"preset,omitempty"`
}

type Option func(*Library)

// WithCatalogFile overrides the embedded default catalog with a YAML file.
func WithCatalogFile(path string) Option {
	return func(l *Library) { l.catalogPath = strings.TrimSpace(path) }
}

func WithPlayerCount(n int) Option {
	return func(l *Library) {
		if n > 0 {
			l.playerCount = n
		}
	}
}

func WithNow(now func() time.Time) Option {
	return func(l *Library) {
		if now != nil {
			l.now = now
		}
	}
}

type Library struct {
	store       kv.Store
	mu          sync.Mutex
	catalogPath string
	playerCount int
	now         func() time.Time
}

// Open wraps store and seeds the default and custom groups on first run.
func Open(ctx context.Context, store kv.Store, opts ...Option) (*Library, error) {
	if store == nil {
		return nil, errors.New("presetbook: nil store")
	}
	l := &Library{store: store, playerCount: 2, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if err := l.setup(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Library) setup(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, seeded, err := l.store.Get(ctx, keyFirstTime)
	if err != nil {
		return fmt.Errorf("read setup flag: %w", err)
	}
	if seeded {
		return nil
	}
	groups, err := LoadCatalog(l.catalogPath, l.playerCount)
	if err != nil {
		return err
	}
	if err := l.putGroups(ctx, keyDefaults, groups); err != nil {
		return err
	}
	if err := l.putGroups(ctx, keyCustom, []Group{emptyCustomGroup()}); err != nil {
		return err
	}
	if err := l.store.Set(ctx, keyFirstTime, []byte("true"), 0); err != nil {
		return err
	}
	obslog.L().Info("presets_seeded", zap.Int("groups", len(groups)), zap.String("catalog", l.catalogPath))
	return nil
}

func (l *Library) putGroups(ctx context.Context, key string, groups []Group) error {
	raw, err := json.Marshal(groups)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return l.store.Set(ctx, key, raw, 0)
}

func (l *Library) groups(ctx context.Context, key string) ([]Group, error) {
	raw, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var groups []Group
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return groups, nil
}

func (l *Library) DefaultPresets(ctx context.Context) ([]Group, error) {
	return l.groups(ctx, keyDefaults)
}

// CustomPresets always returns at least the (possibly empty) custom group.
func (l *Library) CustomPresets(ctx context.Context) ([]Group, error) {
	groups, err := l.groups(ctx, keyCustom)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		groups = []Group{emptyCustomGroup()}
	}
	return groups, nil
}

func (l *Library) SetCustomPresets(ctx context.Context, groups []Group) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.putGroups(ctx, keyCustom, groups)
}

// Preset looks in the custom groups first, then the defaults.
func (l *Library) Preset(ctx context.Context, id string) (*clock.Preset, error) {
	for _, key := range []string{keyCustom, keyDefaults} {
		groups, err := l.groups(ctx, key)
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			if p := g.find(id); p != nil {
				return p, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, id)
}

// AddCustomPreset marks p custom and appends it to the custom group.
func (l *Library) AddCustomPreset(ctx context.Context, p *clock.Preset) error {
	if p == nil || len(p.Timers) == 0 {
		return ErrInvalidPreset
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	groups, err := l.groups(ctx, keyCustom)
	if err != nil {
		return err
	}
	idx := customIndex(groups)
	if idx < 0 {
		groups = append(groups, emptyCustomGroup())
		idx = len(groups) - 1
	}
	if groups[idx].find(p.ID) != nil {
		return fmt.Errorf("%w: duplicate id %s", ErrInvalidPreset, p.ID)
	}
	stored := p.Clone()
	stored.IsCustom = true
	groups[idx].Presets = append(groups[idx].Presets, stored)
	if err := l.putGroups(ctx, keyCustom, groups); err != nil {
		return err
	}
	p.IsCustom = true
	obslog.L().Info("preset_custom_add", zap.String("id", p.ID), zap.String("title", p.Title), zap.Stringer("type", p.Type()))
	return nil
}

func (l *Library) RemoveCustomPreset(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	groups, err := l.groups(ctx, keyCustom)
	if err != nil {
		return err
	}
	for gi := range groups {
		for pi, p := range groups[gi].Presets {
			if p.ID != id {
				continue
			}
			groups[gi].Presets = append(groups[gi].Presets[:pi], groups[gi].Presets[pi+1:]...)
			if err := l.putGroups(ctx, keyCustom, groups); err != nil {
				return err
			}
			obslog.L().Info("preset_custom_remove", zap.String("id", id))
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrPresetNotFound, id)
}

func customIndex(groups []Group) int {
	for i, g := range groups {
		if g.Key == CustomGroupKey {
			return i
		}
	}
	return -1
}

// SaveMatch validates the board payload and stores the match, filling in the
// id and creation time when missing.
func (l *Library) SaveMatch(ctx context.Context, m SavedMatch) (SavedMatch, error) {
	state, err := board.Deserialize(m.Board)
	if err != nil {
		return SavedMatch{}, err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = l.now().UTC()
	}
	if !m.NextPlayer.Valid() {
		m.NextPlayer = state.SideToMove()
	}
	if strings.TrimSpace(m.Title) == "" {
		m.Title = "Match " + m.CreatedAt.Format("2006-01-02 15:04")
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return SavedMatch{}, fmt.Errorf("encode saved match: %w", err)
	}
	if err := l.store.Set(ctx, keySavedPrefix+m.ID, raw, 0); err != nil {
		return SavedMatch{}, err
	}
	obslog.L().Info("match_saved", zap.String("id", m.ID), zap.String("title", m.Title))
	return m, nil
}

func (l *Library) SavedMatch(ctx context.Context, id string) (SavedMatch, error) {
	raw, ok, err := l.store.Get(ctx, keySavedPrefix+id)
	if err != nil {
		return SavedMatch{}, err
	}
	if !ok {
		return SavedMatch{}, fmt.Errorf("%w: %s", ErrMatchNotFound, id)
	}
	var m SavedMatch
	if err := json.Unmarshal(raw, &m); err != nil {
		return SavedMatch{}, fmt.Errorf("decode saved match: %w", err)
	}
	return m, nil
}

// SavedMatches lists saved matches, newest first.
func (l *Library) SavedMatches(ctx context.Context) ([]SavedMatch, error) {
	keys, err := l.store.Keys(ctx, keySavedPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]SavedMatch, 0, len(keys))
	for _, k := range keys {
		m, err := l.SavedMatch(ctx, strings.TrimPrefix(k, keySavedPrefix))
		if errors.Is(err, ErrMatchNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (l *Library) DeleteSavedMatch(ctx context.Context, id string) error {
	if _, err := l.SavedMatch(ctx, id); err != nil {
		return err
	}
	return l.store.Delete(ctx, keySavedPrefix+id)
}
