package clock

import "time"

// turnState is the per-turn bookkeeping of the delay variants. Times are unix
// milliseconds, amounts are milliseconds; it is persisted so a paused game can
// be restored mid-turn.
type turnState struct {
	InTurn              bool  `json:"inTurn,omitempty"`
	Paused              bool  `json:"paused,omitempty"`
	DelayStartTime      int64 `json:"delayStartTime,omitempty"`
	PausedAt            int64 `json:"pausedAt,omitempty"`
	TotalPausedDuration int64 `json:"totalPausedDuration,omitempty"`
	TurnInitialTime     int64 `json:"turnInitialTime,omitempty"`
}

func (s *turnState) start(now time.Time, snapshot int64) {
	*s = turnState{
		InTurn:          true,
		DelayStartTime:  now.UnixMilli(),
		TurnInitialTime: snapshot,
	}
}

func (s *turnState) end() { *s = turnState{} }

func (s *turnState) pause(now time.Time) {
	if !s.InTurn || s.Paused {
		return
	}
	s.Paused = true
	s.PausedAt = now.UnixMilli()
}

func (s *turnState) resume(now time.Time) {
	if !s.Paused {
		return
	}
	s.TotalPausedDuration += max(0, now.UnixMilli()-s.PausedAt)
	s.Paused = false
	s.PausedAt = 0
}

// elapsed is the unpaused time spent in the current turn; while paused the
// reference point is frozen at the pause.
func (s *turnState) elapsed(now time.Time) int64 {
	if !s.InTurn {
		return 0
	}
	ref := now.UnixMilli()
	if s.Paused {
		ref = s.PausedAt
	}
	return max(0, ref-s.DelayStartTime-s.TotalPausedDuration)
}

func ratio(spent, budget int64) float64 {
	if budget <= 0 {
		return 1
	}
	return min(1, max(0, float64(spent)/float64(budget)))
}
