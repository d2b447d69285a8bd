package presetbook

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/park285/Cheese-ChessClock/internal/clock"
)

//go:embed defaults.yaml
var defaultFiles embed.FS

type catalogFile struct {
	Groups []catalogGroup `yaml:"groups"`
}

type catalogGroup struct {
	Key       string          `yaml:"key"`
	Icon      string          `yaml:"icon"`
	IconColor string          `yaml:"iconColor"`
	Title     string          `yaml:"title"`
	Presets   []catalogPreset `yaml:"presets"`
}

type catalogPreset struct {
	ID        string         `yaml:"id"`
	Title     string         `yaml:"title"`
	Type      string         `yaml:"type"`
	TextColor string         `yaml:"textColor"`
	BackColor string         `yaml:"backColor"`
	Stages    []catalogStage `yaml:"stages"`
}

type catalogStage struct {
	Time              string `yaml:"time"`
	Increment         string `yaml:"increment"`
	Delay             string `yaml:"delay"`
	IncrementBase     string `yaml:"incrementBase"`
	IncrementGrowth   string `yaml:"incrementGrowth"`
	IncrementPerMoves int    `yaml:"incrementPerMoves"`
	Moves             *int   `yaml:"moves"`
	TotalMoves        *int   `yaml:"totalMoves"`
	Lives             int    `yaml:"lives"`
}

// LoadCatalog builds the default groups from the embedded catalog, then
// applies overridePath if set: groups with a known key are replaced, new keys
// are appended.
func LoadCatalog(overridePath string, playerCount int) ([]Group, error) {
	raw, err := fs.ReadFile(defaultFiles, "defaults.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}
	base, err := parseCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("parse embedded catalog: %w", err)
	}
	if strings.TrimSpace(overridePath) != "" {
		b, err := os.ReadFile(overridePath)
		if err != nil {
			return nil, fmt.Errorf("read preset catalog: %w", err)
		}
		over, err := parseCatalog(b)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", overridePath, err)
		}
		base = mergeCatalog(base, over)
	}

	groups := make([]Group, 0, len(base.Groups))
	for _, g := range base.Groups {
		built, err := g.build(playerCount)
		if err != nil {
			return nil, err
		}
		groups = append(groups, built)
	}
	return groups, nil
}

func parseCatalog(b []byte) (catalogFile, error) {
	var c catalogFile
	if err := yaml.Unmarshal(b, &c); err != nil {
		return catalogFile{}, err
	}
	seen := make(map[string]bool)
	for _, g := range c.Groups {
		if strings.TrimSpace(g.Key) == "" {
			return catalogFile{}, fmt.Errorf("group %q has no key", g.Title)
		}
		if seen[g.Key] {
			return catalogFile{}, fmt.Errorf("duplicate group key %q", g.Key)
		}
		seen[g.Key] = true
	}
	return c, nil
}

func mergeCatalog(base, over catalogFile) catalogFile {
	idx := make(map[string]int, len(base.Groups))
	for i, g := range base.Groups {
		idx[g.Key] = i
	}
	for _, g := range over.Groups {
		if i, ok := idx[g.Key]; ok {
			base.Groups[i] = g
			continue
		}
		base.Groups = append(base.Groups, g)
	}
	return base
}

func (g catalogGroup) build(playerCount int) (Group, error) {
	out := Group{Key: g.Key, Icon: g.Icon, IconColor: g.IconColor, Title: g.Title, Presets: make([]*clock.Preset, 0, len(g.Presets))}
	for i, p := range g.Presets {
		preset, err := p.build(playerCount)
		if err != nil {
			return Group{}, fmt.Errorf("group %s preset %d (%s): %w", g.Key, i, p.Title, err)
		}
		out.Presets = append(out.Presets, preset)
	}
	return out, nil
}

func (p catalogPreset) build(playerCount int) (*clock.Preset, error) {
	typ, err := parseType(p.Type)
	if err != nil {
		return nil, err
	}
	stages := make([]clock.Stage, 0, len(p.Stages))
	for i, s := range p.Stages {
		st, err := s.build(typ)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		stages = append(stages, st)
	}
	timer, err := clock.NewTimer(typ, stages)
	if err != nil {
		return nil, err
	}
	return clock.SamePlayerTimers(timer, p.Title, playerCount,
		clock.WithID(p.ID),
		clock.WithColors(p.TextColor, p.BackColor),
	)
}

// parseType accepts a catalog key ("fischer"), a display name or a numeric id.
func parseType(s string) (clock.PresetType, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		t := clock.PresetType(n)
		if _, ok := t.Info(); !ok {
			return 0, fmt.Errorf("unknown preset type %d", n)
		}
		return t, nil
	}
	t, ok := clock.ParsePresetType(s)
	if !ok {
		return 0, fmt.Errorf("unknown preset type %q", s)
	}
	return t, nil
}

func (s catalogStage) build(typ clock.PresetType) (clock.Stage, error) {
	stageTime, err := parseDuration(s.Time, "")
	if err != nil {
		return nil, fmt.Errorf("time: %w", err)
	}
	switch typ {
	case clock.FischerIncrement:
		inc, err := parseDuration(s.Increment, "0s")
		if err != nil {
			return nil, fmt.Errorf("increment: %w", err)
		}
		return clock.FischerStage{Time: stageTime, Increment: inc, Moves: s.Moves}, nil
	case clock.SimpleDelay, clock.BronsteinDelay:
		delay, err := parseDuration(s.Delay, "0s")
		if err != nil {
			return nil, fmt.Errorf("delay: %w", err)
		}
		return clock.DelayStage{Time: stageTime, Delay: delay, Moves: s.Moves}, nil
	case clock.CumulativeIncrement:
		base, err := parseDuration(s.IncrementBase, "1s")
		if err != nil {
			return nil, fmt.Errorf("incrementBase: %w", err)
		}
		growth, err := parseDuration(s.IncrementGrowth, "1s")
		if err != nil {
			return nil, fmt.Errorf("incrementGrowth: %w", err)
		}
		per := s.IncrementPerMoves
		if per == 0 {
			per = 1
		}
		return clock.CumulativeStage{Time: stageTime, IncrementBase: base, IncrementGrowth: growth, IncrementPerMoves: per, TotalMoves: s.TotalMoves}, nil
	case clock.FixedMoves:
		lives := s.Lives
		if lives == 0 {
			lives = 1
		}
		return clock.FixedMovesStage{Time: stageTime, Lives: lives, Moves: s.Moves}, nil
	default:
		return nil, fmt.Errorf("unknown preset type %d", typ)
	}
}

func parseDuration(s, def string) (clock.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		if def == "" {
			return clock.Duration{}, fmt.Errorf("missing duration")
		}
		s = def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return clock.Duration{}, err
	}
	if d < 0 {
		return clock.Duration{}, clock.ErrNegativeDuration
	}
	return clock.DurationFromStd(d), nil
}
