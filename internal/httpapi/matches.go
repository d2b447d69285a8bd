package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/Cheese-ChessClock/internal/obslog"
	"github.com/park285/Cheese-ChessClock/pkg/clockdto"
)

const wsWriteTimeout = 5 * time.Second

func (s *Server) createMatch(c *gin.Context) {
	var req clockdto.CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err.Error()))
		return
	}
	if req.PresetID == "" {
		s.fail(c, badRequest("presetId is required"))
		return
	}
	p, err := s.lib.Preset(c.Request.Context(), req.PresetID)
	if err != nil {
		s.fail(c, err)
		return
	}
	m, err := s.reg.Create(p, req.PlayerNames)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.describe(m.Snapshot()))
}

func (s *Server) getMatch(c *gin.Context) {
	m, err := s.reg.Get(c.Param("code"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.describe(m.Snapshot()))
}

func (s *Server) deleteMatch(c *gin.Context) {
	if err := s.reg.Remove(c.Param("code")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) tap(c *gin.Context) {
	var req clockdto.TapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err.Error()))
		return
	}
	c.Set("player", req.Player)
	s.respond(c, func(ctx context.Context, code string) (clockdto.MatchState, error) {
		return s.reg.Tap(ctx, code, req.Player)
	})
}

func (s *Server) pause(c *gin.Context)   { s.respond(c, s.reg.Pause) }
func (s *Server) resume(c *gin.Context)  { s.respond(c, s.reg.Resume) }
func (s *Server) restart(c *gin.Context) { s.respond(c, s.reg.Restart) }

func (s *Server) respond(c *gin.Context, op func(context.Context, string) (clockdto.MatchState, error)) {
	st, err := op(c.Request.Context(), c.Param("code"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.describe(st))
}

// watchMatch streams MatchState frames until the client leaves or the match
// is removed.
func (s *Server) watchMatch(c *gin.Context) {
	code := c.Param("code")
	m, err := s.reg.Get(code)
	if err != nil {
		s.fail(c, err)
		return
	}
	frames, cancel, err := s.reg.Subscribe(code)
	if err != nil {
		s.fail(c, err)
		return
	}
	defer cancel()

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{InsecureSkipVerify: s.anyOrigin})
	if err != nil {
		obslog.L().Warn("ws_accept_failed", zap.String("code", code), zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")
	ctx := conn.CloseRead(c.Request.Context())

	obslog.L().Debug("ws_watch_start", zap.String("code", code))
	if err := s.writeFrame(ctx, conn, m.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-frames:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "match closed")
				return
			}
			if err := s.writeFrame(ctx, conn, st); err != nil {
				if !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
					obslog.L().Debug("ws_write_failed", zap.String("code", code), zap.Error(err))
				}
				return
			}
		}
	}
}

func (s *Server) writeFrame(ctx context.Context, conn *websocket.Conn, st clockdto.MatchState) error {
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, s.describe(st))
}
