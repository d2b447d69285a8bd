// Package httpapi exposes presets, board codes and live matches over HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/park285/Cheese-ChessClock/internal/match"
	"github.com/park285/Cheese-ChessClock/internal/msgcat"
	"github.com/park285/Cheese-ChessClock/internal/obslog"
	"github.com/park285/Cheese-ChessClock/internal/presetbook"
	"github.com/park285/Cheese-ChessClock/pkg/clockdto"
)

type Deps struct {
	Library  *presetbook.Library
	Registry *match.Registry
	Messages *msgcat.Catalog
	// Metrics serves /metrics; nil uses the default Prometheus handler.
	Metrics     http.Handler
	PlayerCount int
	// StoreName is reported by /healthz ("redis" or "memory").
	StoreName string
	// AllowAnyOrigin disables the websocket origin check.
	AllowAnyOrigin bool
}

type Server struct {
	lib         *presetbook.Library
	reg         *match.Registry
	msgs        *msgcat.Catalog
	metrics     http.Handler
	playerCount int
	storeName   string
	anyOrigin   bool
}

func New(d Deps) *Server {
	s := &Server{
		lib:         d.Library,
		reg:         d.Registry,
		msgs:        d.Messages,
		metrics:     d.Metrics,
		playerCount: d.PlayerCount,
		storeName:   d.StoreName,
		anyOrigin:   d.AllowAnyOrigin,
	}
	if s.msgs == nil {
		s.msgs = msgcat.MustDefault()
	}
	if s.metrics == nil {
		s.metrics = promhttp.Handler()
	}
	if s.playerCount < 2 {
		s.playerCount = 2
	}
	return s
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(s.metrics))

	r.GET("/preset-types", s.presetTypes)
	r.GET("/presets", s.listPresets)
	r.GET("/presets/:id", s.getPreset)
	r.POST("/presets/custom", s.addCustomPreset)
	r.DELETE("/presets/custom/:id", s.removeCustomPreset)

	r.POST("/board/encode", s.encodeBoard)
	r.GET("/board/:code", s.decodeBoard)
	r.GET("/board/:code/fen", s.boardFEN)
	r.GET("/board/:code/png", s.boardPNG)

	r.GET("/saved-matches", s.listSavedMatches)
	r.POST("/saved-matches", s.saveMatch)
	r.GET("/saved-matches/:id", s.getSavedMatch)
	r.DELETE("/saved-matches/:id", s.deleteSavedMatch)

	r.POST("/matches", s.createMatch)
	r.GET("/matches/:code", s.getMatch)
	r.DELETE("/matches/:code", s.deleteMatch)
	r.POST("/matches/:code/tap", s.tap)
	r.POST("/matches/:code/pause", s.pause)
	r.POST("/matches/:code/resume", s.resume)
	r.POST("/matches/:code/restart", s.restart)
	r.GET("/matches/:code/ws", s.watchMatch)
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		obslog.L().Debug("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, clockdto.Health{Status: "ok", ActiveMatches: s.reg.Len(), Store: s.storeName})
}
