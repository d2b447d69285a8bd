package clockdto

import (
	"encoding/json"
	"time"
)

// TypeView describes one clock variant.
type TypeView struct {
	ID               int    `json:"id"`
	Key              string `json:"key"`
	Name             string `json:"name"`
	ShortDescription string `json:"shortDescription"`
	LongDescription  string `json:"longDescription"`
	Section          string `json:"section"`
}

type GroupView struct {
	Key       string       `json:"key"`
	Icon      string       `json:"icon"`
	IconColor string       `json:"iconColor"`
	Title     string       `json:"title"`
	Presets   []PresetView `json:"presets"`
}

// PresetView is the list form of a preset; Raw carries the persisted JSON
// so clients can round-trip it.
type PresetView struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	TitleLines  []string        `json:"titleLines"`
	Type        int             `json:"type"`
	TypeName    string          `json:"typeName"`
	IsCustom    bool            `json:"isCustom"`
	TextColor   string          `json:"textColor"`
	BackColor   string          `json:"backColor"`
	Stages      []string        `json:"stages"`
	PlayerCount int             `json:"playerCount"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// PlayerClock is one player's face of the clock.
type PlayerClock struct {
	Name          string  `json:"name"`
	RemainingMs   int64   `json:"remainingMs"`
	Display       string  `json:"display"`
	Stage         int     `json:"stage"`
	StageCount    int     `json:"stageCount"`
	StageLabel    string  `json:"stageLabel"`
	Moves         *int    `json:"moves,omitempty"`
	Lives         *int    `json:"lives,omitempty"`
	IncrementMs   *int64  `json:"incrementMs,omitempty"`
	DelayProgress float64 `json:"delayProgress"`
	Paused        bool    `json:"paused"`
	Active        bool    `json:"active"`
	Exhausted     bool    `json:"exhausted"`
}

// MatchState is a point-in-time snapshot of a live match.
type MatchState struct {
	Code      string        `json:"code"`
	PresetID  string        `json:"presetId"`
	Title     string        `json:"title"`
	Type      int           `json:"type"`
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Active    int           `json:"active"`
	Loser     int           `json:"loser"`
	Players   []PlayerClock `json:"players"`
	Version   uint64        `json:"version"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// BoardView describes a decoded board code. URLCode is the same payload in
// the URL-safe alphabet, usable as a path segment.
type BoardView struct {
	Code       string        `json:"code"`
	URLCode    string        `json:"urlCode"`
	SideToMove string        `json:"sideToMove"`
	FEN        string        `json:"fen"`
	Pieces     []PlacedPiece `json:"pieces"`
}

type PlacedPiece struct {
	ID   string `json:"id"`
	Type int    `json:"type"`
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Name string `json:"name"`
}

type SavedMatchView struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"createdAt"`
	NextPlayer string    `json:"nextPlayer"`
	Board      string    `json:"board"`
	PresetID   string    `json:"presetId,omitempty"`
}

type Health struct {
	Status        string `json:"status"`
	ActiveMatches int    `json:"activeMatches"`
	Store         string `json:"store"`
}
