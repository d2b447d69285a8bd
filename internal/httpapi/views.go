package httpapi

import (
	"strings"

	"github.com/park285/Cheese-ChessClock/internal/board"
	"github.com/park285/Cheese-ChessClock/internal/clock"
	"github.com/park285/Cheese-ChessClock/internal/match"
	"github.com/park285/Cheese-ChessClock/internal/presetbook"
	"github.com/park285/Cheese-ChessClock/pkg/clockdto"
)

var (
	toURLAlphabet   = strings.NewReplacer("+", "-", "/", "_")
	fromURLAlphabet = strings.NewReplacer("-", "+", "_", "/")
)

func typeView(info clock.TypeInfo) clockdto.TypeView {
	return clockdto.TypeView{
		ID:               int(info.ID),
		Key:              info.Key,
		Name:             info.Name,
		ShortDescription: info.ShortDescription,
		LongDescription:  info.LongDescription,
		Section:          info.Section,
	}
}

func presetView(p *clock.Preset) clockdto.PresetView {
	v := clockdto.PresetView{
		ID:          p.ID,
		Title:       p.Title,
		TitleLines:  p.TitleStrings(),
		Type:        int(p.Type()),
		TypeName:    p.Type().String(),
		IsCustom:    p.IsCustom,
		TextColor:   p.TextColor,
		BackColor:   p.BackColor,
		PlayerCount: len(p.Timers),
	}
	for _, st := range p.Timers[0].Stages() {
		v.Stages = append(v.Stages, st.String())
	}
	if raw, err := p.MarshalJSON(); err == nil {
		v.Raw = raw
	}
	return v
}

func groupViews(groups []presetbook.Group) []clockdto.GroupView {
	out := make([]clockdto.GroupView, 0, len(groups))
	for _, g := range groups {
		gv := clockdto.GroupView{
			Key:       g.Key,
			Icon:      g.Icon,
			IconColor: g.IconColor,
			Title:     g.Title,
			Presets:   make([]clockdto.PresetView, 0, len(g.Presets)),
		}
		for _, p := range g.Presets {
			gv.Presets = append(gv.Presets, presetView(p))
		}
		out = append(out, gv)
	}
	return out
}

func boardView(st *board.State) clockdto.BoardView {
	code := st.Serialize()
	v := clockdto.BoardView{
		Code:       code,
		URLCode:    toURLAlphabet.Replace(code),
		SideToMove: string(st.SideToMove()),
		FEN:        st.FEN(),
	}
	for _, p := range st.PlacedPieces() {
		v.Pieces = append(v.Pieces, clockdto.PlacedPiece{
			ID:   p.ID,
			Type: int(p.Type),
			Row:  p.Tile.Row,
			Col:  p.Tile.Col,
			Name: p.Type.String(),
		})
	}
	return v
}

// decodeBoardCode accepts the standard and the URL-safe base64 alphabet.
func decodeBoardCode(code string) (*board.State, error) {
	return board.Deserialize(fromURLAlphabet.Replace(strings.TrimSpace(code)))
}

func savedMatchView(m presetbook.SavedMatch) clockdto.SavedMatchView {
	v := clockdto.SavedMatchView{
		ID:         m.ID,
		Title:      m.Title,
		CreatedAt:  m.CreatedAt,
		NextPlayer: string(m.NextPlayer),
		Board:      m.Board,
	}
	if m.Preset != nil {
		v.PresetID = m.Preset.ID
	}
	return v
}

// describe fills the human-readable status line of a snapshot.
func (s *Server) describe(st clockdto.MatchState) clockdto.MatchState {
	name := func(i int) string {
		if i < 0 || i >= len(st.Players) {
			return ""
		}
		return st.Players[i].Name
	}
	switch match.Status(st.Status) {
	case match.StatusReady:
		st.Message = s.msgs.Text("status.ready", map[string]any{"Title": st.Title}, "")
	case match.StatusRunning:
		st.Message = s.msgs.Text("status.running", map[string]any{"Player": name(st.Active)}, "")
	case match.StatusPaused:
		st.Message = s.msgs.Text("status.paused", map[string]any{"Player": name(st.Active)}, "")
	case match.StatusFinished:
		if st.Loser < 0 {
			st.Message = s.msgs.Text("status.expired", nil, "")
		} else {
			st.Message = s.msgs.Text("status.finished", map[string]any{"Player": name(st.Loser)}, "")
		}
	}
	return st
}
