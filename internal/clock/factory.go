package clock

import (
	"encoding/json"
	"fmt"
)

// UnmarshalTimer restores any timer variant from its JSON form, dispatching on
// presetTypeId. opts override the persisted settings (e.g. WithWallClock).
func UnmarshalTimer(data []byte, opts ...Option) (Timer, error) {
	var head struct {
		PresetTypeID int `json:"presetTypeId"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode timer: %w", err)
	}
	switch PresetType(head.PresetTypeID) {
	case FischerIncrement:
		return timerOrNil(unmarshalFischer(data, opts))
	case SimpleDelay:
		return timerOrNil(unmarshalSimpleDelay(data, opts))
	case BronsteinDelay:
		return timerOrNil(unmarshalBronstein(data, opts))
	case CumulativeIncrement:
		return timerOrNil(unmarshalCumulative(data, opts))
	case FixedMoves:
		return timerOrNil(unmarshalFixedMoves(data, opts))
	default:
		return nil, &UnknownPresetTypeError{ID: head.PresetTypeID, Supported: supportedIDs()}
	}
}

// NewTimer builds a timer of type t from loosely typed stages, as produced by
// catalogs. Every stage must be the stage type of that variant.
func NewTimer(t PresetType, stages []Stage, opts ...Option) (Timer, error) {
	switch t {
	case FischerIncrement:
		typed, err := stagesAs[FischerStage](stages)
		if err != nil {
			return nil, err
		}
		return timerOrNil(NewFischerTimer(typed, opts...))
	case SimpleDelay:
		typed, err := stagesAs[DelayStage](stages)
		if err != nil {
			return nil, err
		}
		return timerOrNil(NewSimpleDelayTimer(typed, opts...))
	case BronsteinDelay:
		typed, err := stagesAs[DelayStage](stages)
		if err != nil {
			return nil, err
		}
		return timerOrNil(NewBronsteinTimer(typed, opts...))
	case CumulativeIncrement:
		typed, err := stagesAs[CumulativeStage](stages)
		if err != nil {
			return nil, err
		}
		return timerOrNil(NewCumulativeTimer(typed, opts...))
	case FixedMoves:
		typed, err := stagesAs[FixedMovesStage](stages)
		if err != nil {
			return nil, err
		}
		return timerOrNil(NewFixedMovesTimer(typed, opts...))
	default:
		return nil, &UnknownPresetTypeError{ID: int(t), Supported: supportedIDs()}
	}
}

func stagesAs[S Stage](stages []Stage) ([]S, error) {
	out := make([]S, 0, len(stages))
	for i, s := range stages {
		typed, ok := s.(S)
		if !ok {
			return nil, fmt.Errorf("stage %d is %T: %w", i, s, ErrStageType)
		}
		out = append(out, typed)
	}
	return out, nil
}

// timerOrNil keeps a typed nil pointer from escaping as a non-nil Timer.
func timerOrNil(t Timer, err error) (Timer, error) {
	if err != nil {
		return nil, err
	}
	return t, nil
}

// DecodeStages parses stages in the persisted JSON shape of type t.
func DecodeStages(t PresetType, raw []json.RawMessage) ([]Stage, error) {
	out := make([]Stage, 0, len(raw))
	for i, r := range raw {
		var (
			s   Stage
			err error
		)
		switch t {
		case FischerIncrement:
			s, err = decodeStage[FischerStage](r)
		case SimpleDelay, BronsteinDelay:
			s, err = decodeStage[DelayStage](r)
		case CumulativeIncrement:
			s, err = decodeStage[CumulativeStage](r)
		case FixedMoves:
			s, err = decodeStage[FixedMovesStage](r)
		default:
			return nil, &UnknownPresetTypeError{ID: int(t), Supported: supportedIDs()}
		}
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func decodeStage[S Stage](raw json.RawMessage) (Stage, error) {
	var s S
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return s, nil
}
