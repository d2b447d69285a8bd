package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/park285/Cheese-ChessClock/internal/board"
	"github.com/park285/Cheese-ChessClock/internal/obslog"
	"github.com/park285/Cheese-ChessClock/internal/presetbook"
	"github.com/park285/Cheese-ChessClock/pkg/clockdto"
)

// encodeBoard builds a board code from a FEN or from a piece list.
func (s *Server) encodeBoard(c *gin.Context) {
	var req clockdto.EncodeBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err.Error()))
		return
	}
	side := board.Side(strings.ToLower(strings.TrimSpace(req.SideToMove)))
	if side != "" && !side.Valid() {
		s.fail(c, badRequest("sideToMove must be white or black"))
		return
	}

	var (
		st  *board.State
		err error
	)
	if strings.TrimSpace(req.FEN) != "" {
		st, err = board.FromFEN(req.FEN)
		if err != nil {
			s.fail(c, badRequest(err.Error()))
			return
		}
		if side != "" {
			st.SetSideToMove(side)
		}
	} else {
		pieces := make([]board.PlacedPiece, 0, len(req.Pieces))
		for _, p := range req.Pieces {
			if p.Type < 0 || p.Type > int(board.BlackKing) {
				s.fail(c, fmt.Errorf("%w: %d", board.ErrInvalidPiece, p.Type))
				return
			}
			pieces = append(pieces, board.PlacedPiece{
				Type: board.Piece(p.Type),
				Tile: board.Tile{Row: p.Row, Col: p.Col},
			})
		}
		st, err = board.New(side, pieces...)
		if err != nil {
			s.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, boardView(st))
}

func (s *Server) decodeBoard(c *gin.Context) {
	st, ok := s.boardParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, boardView(st))
}

func (s *Server) boardFEN(c *gin.Context) {
	st, ok := s.boardParam(c)
	if !ok {
		return
	}
	c.String(http.StatusOK, st.FEN())
}

func (s *Server) boardPNG(c *gin.Context) {
	st, ok := s.boardParam(c)
	if !ok {
		return
	}
	opts := board.RenderOptions{}
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.fail(c, badRequest("size must be a number"))
			return
		}
		opts.SquareSize = n
	}
	opts.Flipped, _ = strconv.ParseBool(c.DefaultQuery("flipped", "false"))
	png, err := st.RenderPNG(c.Request.Context(), opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) boardParam(c *gin.Context) (*board.State, bool) {
	st, err := decodeBoardCode(c.Param("code"))
	if err != nil {
		obslog.L().Debug("board_decode_error", zap.String("code", c.Param("code")), zap.Error(err))
		s.fail(c, err)
		return nil, false
	}
	return st, true
}

func (s *Server) listSavedMatches(c *gin.Context) {
	list, err := s.lib.SavedMatches(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]clockdto.SavedMatchView, 0, len(list))
	for _, m := range list {
		out = append(out, savedMatchView(m))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) saveMatch(c *gin.Context) {
	var req clockdto.SaveMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err.Error()))
		return
	}
	ctx := c.Request.Context()
	m := presetbook.SavedMatch{
		Title:      req.Title,
		Board:      fromURLAlphabet.Replace(strings.TrimSpace(req.Board)),
		NextPlayer: board.Side(strings.ToLower(req.NextPlayer)),
	}
	if req.PresetID != "" {
		p, err := s.lib.Preset(ctx, req.PresetID)
		if err != nil {
			s.fail(c, err)
			return
		}
		m.Preset = p
	}
	saved, err := s.lib.SaveMatch(ctx, m)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, savedMatchView(saved))
}

func (s *Server) getSavedMatch(c *gin.Context) {
	m, err := s.lib.SavedMatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, savedMatchView(m))
}

func (s *Server) deleteSavedMatch(c *gin.Context) {
	if err := s.lib.DeleteSavedMatch(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
