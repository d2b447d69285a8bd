package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/park285/Cheese-ChessClock/internal/clock"
	"github.com/park285/Cheese-ChessClock/pkg/clockdto"
)

func (s *Server) presetTypes(c *gin.Context) {
	types := clock.SupportedTypes()
	out := make([]clockdto.TypeView, 0, len(types))
	for _, info := range types {
		out = append(out, typeView(info))
	}
	c.JSON(http.StatusOK, out)
}

// listPresets returns the default groups followed by the custom group.
func (s *Server) listPresets(c *gin.Context) {
	ctx := c.Request.Context()
	defaults, err := s.lib.DefaultPresets(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	custom, err := s.lib.CustomPresets(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, groupViews(append(defaults, custom...)))
}

func (s *Server) getPreset(c *gin.Context) {
	p, err := s.lib.Preset(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, presetView(p))
}

func (s *Server) addCustomPreset(c *gin.Context) {
	var req clockdto.CustomPresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err.Error()))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.fail(c, badRequest("title is required"))
		return
	}
	typ := clock.PresetType(req.Type)
	stages, err := clock.DecodeStages(typ, req.Stages)
	if err != nil {
		s.fail(c, invalidPreset(err))
		return
	}
	timer, err := clock.NewTimer(typ, stages)
	if err != nil {
		s.fail(c, invalidPreset(err))
		return
	}
	players := req.PlayerCount
	if players < 2 {
		players = s.playerCount
	}
	p, err := clock.SamePlayerTimers(timer, strings.TrimSpace(req.Title), players,
		clock.WithCustom(true),
		clock.WithColors(req.TextColor, req.BackColor),
	)
	if err != nil {
		s.fail(c, invalidPreset(err))
		return
	}
	if err := s.lib.AddCustomPreset(c.Request.Context(), p); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, presetView(p))
}

func (s *Server) removeCustomPreset(c *gin.Context) {
	if err := s.lib.RemoveCustomPreset(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
