package clock

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultTextColor = "#787878"
	DefaultBackColor = "#FFFFFF"
)

// Preset is a named time control: one timer per player.
type Preset struct {
	Timers    []Timer
	Title     string
	IsCustom  bool
	TextColor string
	BackColor string
	ID        string
}

type PresetOption func(*Preset)

func WithCustom(custom bool) PresetOption {
	return func(p *Preset) { p.IsCustom = custom }
}

func WithColors(text, back string) PresetOption {
	return func(p *Preset) {
		if text != "" {
			p.TextColor = text
		}
		if back != "" {
			p.BackColor = back
		}
	}
}

func WithID(id string) PresetOption {
	return func(p *Preset) { p.ID = id }
}

func NewPreset(timers []Timer, title string, opts ...PresetOption) (*Preset, error) {
	if len(timers) == 0 {
		return nil, ErrNoTimers
	}
	for i, t := range timers {
		if t == nil {
			return nil, fmt.Errorf("timer %d is nil: %w", i, ErrNoTimers)
		}
	}
	p := &Preset{
		Timers:    timers,
		Title:     title,
		TextColor: DefaultTextColor,
		BackColor: DefaultBackColor,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return p, nil
}

// PlayerNames returns display names for n players: White, Black, then Player N.
func PlayerNames(n int) []string {
	names := make([]string, 0, max(0, n))
	for i := range n {
		switch i {
		case 0:
			names = append(names, "White")
		case 1:
			names = append(names, "Black")
		default:
			names = append(names, "Player "+strconv.Itoa(i+1))
		}
	}
	return names
}

// SamePlayerTimers builds a preset where every player gets a copy of timer.
func SamePlayerTimers(timer Timer, title string, playerCount int, opts ...PresetOption) (*Preset, error) {
	if timer == nil || playerCount < 1 {
		return nil, ErrNoTimers
	}
	timers := make([]Timer, 0, playerCount)
	for _, name := range PlayerNames(playerCount) {
		t := timer.Clone()
		t.SetPlayerName(name)
		timers = append(timers, t)
	}
	return NewPreset(timers, title, opts...)
}

// Type reports the variant of the first timer.
func (p *Preset) Type() PresetType { return p.Timers[0].Type() }

// TitleStrings splits "3 | 2" style titles into display lines.
func (p *Preset) TitleStrings() []string {
	parts := strings.Split(p.Title, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func (p *Preset) Reset() {
	for _, t := range p.Timers {
		t.Reset()
	}
}

func (p *Preset) Clone() *Preset {
	c := *p
	c.Timers = make([]Timer, len(p.Timers))
	for i, t := range p.Timers {
		c.Timers[i] = t.Clone()
	}
	return &c
}

type presetJSON struct {
	Timers    []json.RawMessage `json:"timers"`
	Title     string            `json:"title"`
	IsCustom  bool              `json:"isCustom"`
	TextColor string            `json:"textColor"`
	BackColor string            `json:"backColor"`
	ID        string            `json:"id"`
}

func (p *Preset) MarshalJSON() ([]byte, error) {
	j := presetJSON{
		Timers:    make([]json.RawMessage, len(p.Timers)),
		Title:     p.Title,
		IsCustom:  p.IsCustom,
		TextColor: p.TextColor,
		BackColor: p.BackColor,
		ID:        p.ID,
	}
	for i, t := range p.Timers {
		raw, err := t.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encode timer %d: %w", i, err)
		}
		j.Timers[i] = raw
	}
	return json.Marshal(j)
}

func (p *Preset) UnmarshalJSON(data []byte) error {
	restored, err := UnmarshalPreset(data)
	if err != nil {
		return err
	}
	*p = *restored
	return nil
}

// UnmarshalPreset decodes a preset; opts are applied to every restored timer.
func UnmarshalPreset(data []byte, opts ...Option) (*Preset, error) {
	var j presetJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("decode preset: %w", err)
	}
	timers := make([]Timer, len(j.Timers))
	for i, raw := range j.Timers {
		t, err := UnmarshalTimer(raw, opts...)
		if err != nil {
			return nil, fmt.Errorf("timer %d: %w", i, err)
		}
		timers[i] = t
	}
	return NewPreset(timers, j.Title,
		WithCustom(j.IsCustom),
		WithColors(j.TextColor, j.BackColor),
		WithID(j.ID),
	)
}
