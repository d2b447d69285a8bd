package clock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrNoStages   = errors.New("stages must have at least one stage")
	ErrStageIndex = errors.New("stage index out of bounds")
	ErrLastStage  = errors.New("cannot remove the only stage")
	ErrNoTimers   = errors.New("preset needs at least one timer")
	ErrStageType  = errors.New("stage does not match timer type")
)

// UnknownPresetTypeError is returned when a persisted presetTypeId has no engine.
type UnknownPresetTypeError struct {
	ID        int
	Supported []int
}

func (e *UnknownPresetTypeError) Error() string {
	ids := make([]string, len(e.Supported))
	for i, id := range e.Supported {
		ids[i] = strconv.Itoa(id)
	}
	return fmt.Sprintf("unknown preset type: %d (supported: %s)", e.ID, strings.Join(ids, ", "))
}
