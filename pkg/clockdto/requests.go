package clockdto

import "encoding/json"

type CreateMatchRequest struct {
	PresetID    string   `json:"presetId"`
	PlayerNames []string `json:"playerNames,omitempty"`
}

// TapRequest reports a press on player's side of the clock.
type TapRequest struct {
	Player int `json:"player"`
}

type EncodeBoardRequest struct {
	SideToMove string        `json:"sideToMove"`
	Pieces     []PlacedPiece `json:"pieces,omitempty"`
	FEN        string        `json:"fen,omitempty"`
}

// CustomPresetRequest builds a custom preset from stages in the persisted
// stage JSON shape of the chosen type.
type CustomPresetRequest struct {
	Title       string            `json:"title"`
	Type        int               `json:"type"`
	Stages      []json.RawMessage `json:"stages"`
	PlayerCount int               `json:"playerCount,omitempty"`
	TextColor   string            `json:"textColor,omitempty"`
	BackColor   string            `json:"backColor,omitempty"`
}

type SaveMatchRequest struct {
	Title      string `json:"title"`
	Board      string `json:"board"`
	NextPlayer string `json:"nextPlayer,omitempty"`
	PresetID   string `json:"presetId,omitempty"`
}
