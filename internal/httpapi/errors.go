package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/park285/Cheese-ChessClock/internal/board"
	"github.com/park285/Cheese-ChessClock/internal/clock"
	"github.com/park285/Cheese-ChessClock/internal/match"
	"github.com/park285/Cheese-ChessClock/internal/obslog"
	"github.com/park285/Cheese-ChessClock/internal/presetbook"
	"github.com/park285/Cheese-ChessClock/pkg/clockdto"
)

// requestError carries a client mistake found by a handler.
type requestError struct {
	code   string
	detail string
}

func (e *requestError) Error() string { return e.detail }

func badRequest(detail string) error {
	return &requestError{code: clockdto.CodeBadRequest, detail: detail}
}

func invalidPreset(err error) error {
	return &requestError{code: clockdto.CodeInvalidPreset, detail: err.Error()}
}

func (s *Server) fail(c *gin.Context, err error) {
	status, body := s.classify(c, err)
	if status >= http.StatusInternalServerError && body.Code == clockdto.CodeInternal {
		obslog.L().Error("http_error", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, body)
}

func (s *Server) classify(c *gin.Context, err error) (int, clockdto.DomainError) {
	id := c.Param("code")
	if id == "" {
		id = c.Param("id")
	}
	notFound := func(what string) (int, clockdto.DomainError) {
		return http.StatusNotFound, s.domainError(clockdto.CodeNotFound, "errors.not_found",
			map[string]any{"What": what, "ID": id}, false)
	}
	conflict := func(code, key string) (int, clockdto.DomainError) {
		return http.StatusConflict, s.domainError(code, key, nil, false)
	}

	var reqErr *requestError
	var unknownType *clock.UnknownPresetTypeError
	switch {
	case errors.As(err, &reqErr):
		key := "errors.bad_request"
		if reqErr.code == clockdto.CodeInvalidPreset {
			key = "errors.invalid_preset"
		}
		return http.StatusBadRequest, s.domainError(reqErr.code, key, map[string]any{"Detail": reqErr.detail}, false)
	case errors.Is(err, match.ErrNotFound):
		return notFound("Match")
	case errors.Is(err, presetbook.ErrPresetNotFound):
		return notFound("Preset")
	case errors.Is(err, presetbook.ErrMatchNotFound):
		return notFound("Saved match")
	case errors.Is(err, match.ErrNotOnMove):
		return http.StatusConflict, s.domainError(clockdto.CodeNotOnMove, "errors.not_on_move",
			map[string]any{"Player": c.GetInt("player")}, false)
	case errors.Is(err, match.ErrPaused):
		return conflict(clockdto.CodePaused, "errors.paused")
	case errors.Is(err, match.ErrNotRunning):
		return conflict(clockdto.CodeNotRunning, "errors.not_running")
	case errors.Is(err, match.ErrFinished):
		return conflict(clockdto.CodeFinished, "errors.finished")
	case errors.Is(err, match.ErrInvalidPlayer):
		return http.StatusBadRequest, s.domainError(clockdto.CodeBadRequest, "errors.bad_request",
			map[string]any{"Detail": err.Error()}, false)
	case errors.Is(err, match.ErrCapacity):
		return http.StatusServiceUnavailable, s.domainError(clockdto.CodeCapacity, "errors.capacity", nil, true)
	case errors.Is(err, board.ErrUnsupportedVersion):
		return http.StatusBadRequest, s.domainError(clockdto.CodeUnsupportedVersion, "errors.invalid_board",
			map[string]any{"Detail": err.Error()}, false)
	case errors.Is(err, board.ErrCorruptPayload), errors.Is(err, board.ErrInvalidPiece), errors.Is(err, board.ErrInvalidTile):
		return http.StatusBadRequest, s.domainError(clockdto.CodeInvalidBoard, "errors.invalid_board",
			map[string]any{"Detail": err.Error()}, false)
	case errors.As(err, &unknownType),
		errors.Is(err, presetbook.ErrInvalidPreset),
		errors.Is(err, clock.ErrNoStages),
		errors.Is(err, clock.ErrNoTimers),
		errors.Is(err, clock.ErrStageType),
		errors.Is(err, clock.ErrNegativeDuration),
		errors.Is(err, clock.ErrInvalidLives),
		errors.Is(err, clock.ErrInvalidGrowthMoves),
		errors.Is(err, clock.ErrInvalidMoveCap):
		return http.StatusBadRequest, s.domainError(clockdto.CodeInvalidPreset, "errors.invalid_preset",
			map[string]any{"Detail": err.Error()}, false)
	default:
		return http.StatusInternalServerError, s.domainError(clockdto.CodeInternal, "errors.internal", nil, true)
	}
}

func (s *Server) domainError(code, key string, data map[string]any, retryable bool) clockdto.DomainError {
	return clockdto.DomainError{
		Code:      code,
		Message:   s.msgs.Text(key, data, code),
		Retryable: retryable,
	}
}
