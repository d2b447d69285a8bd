package clock

import (
	"sort"
	"strings"
)

// PresetType identifies a clock variant; the numeric ids are persisted as presetTypeId.
type PresetType int

const (
	FischerIncrement    PresetType = 1
	SimpleDelay         PresetType = 2
	BronsteinDelay      PresetType = 3
	CumulativeIncrement PresetType = 4
	FixedMoves          PresetType = 5
)

// TypeInfo is the catalog entry shown when picking a clock type.
type TypeInfo struct {
	ID               PresetType `json:"id"`
	Key              string     `json:"key"`
	Name             string     `json:"name"`
	ShortDescription string     `json:"short_description"`
	LongDescription  string     `json:"long_description"`
	Section          string     `json:"section"`
}

var typeCatalog = map[PresetType]TypeInfo{
	FischerIncrement: {
		ID:               FischerIncrement,
		Key:              "fischer",
		Name:             "Fischer Increment",
		ShortDescription: "Add time after each move",
		LongDescription:  "A fixed increment is added to the player's clock after every completed move.",
		Section:          "popular",
	},
	SimpleDelay: {
		ID:               SimpleDelay,
		Key:              "simple_delay",
		Name:             "Simple Delay",
		ShortDescription: "Delay at start of each move",
		LongDescription:  "The clock waits for the delay before it starts counting down on each move.",
		Section:          "popular",
	},
	BronsteinDelay: {
		ID:               BronsteinDelay,
		Key:              "bronstein",
		Name:             "Bronstein Delay",
		ShortDescription: "Refund time after each move",
		LongDescription:  "Time spent on a move is given back up to the delay, never above the time at the start of the move.",
		Section:          "popular",
	},
	CumulativeIncrement: {
		ID:               CumulativeIncrement,
		Key:              "cumulative",
		Name:             "Cumulative Increment",
		ShortDescription: "Increase increment with every move",
		LongDescription:  "The increment itself grows after a configured number of moves.",
		Section:          "uncommon",
	},
	FixedMoves: {
		ID:               FixedMoves,
		Key:              "fixed_moves",
		Name:             "Fixed Moves",
		ShortDescription: "Fixed seconds per move",
		LongDescription:  "Every move has the same time budget; running out costs a life.",
		Section:          "uncommon",
	},
}

func (t PresetType) Info() (TypeInfo, bool) {
	info, ok := typeCatalog[t]
	return info, ok
}

func (t PresetType) String() string {
	if info, ok := typeCatalog[t]; ok {
		return info.Name
	}
	return "Unknown"
}

// SupportedTypes returns the catalog ordered by id.
func SupportedTypes() []TypeInfo {
	out := make([]TypeInfo, 0, len(typeCatalog))
	for _, info := range typeCatalog {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TypeSections groups the catalog the way the type picker lists it.
func TypeSections() map[string][]TypeInfo {
	out := make(map[string][]TypeInfo)
	for _, info := range SupportedTypes() {
		out[info.Section] = append(out[info.Section], info)
	}
	return out
}

// ParsePresetType accepts a catalog key or display name, case-insensitively.
func ParsePresetType(s string) (PresetType, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "-", "_")
	for id, info := range typeCatalog {
		if v == info.Key || v == strings.ToLower(info.Name) || v == strings.ReplaceAll(strings.ToLower(info.Name), " ", "_") {
			return id, true
		}
	}
	return 0, false
}

func supportedIDs() []int {
	ids := make([]int, 0, len(typeCatalog))
	for id := range typeCatalog {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	return ids
}
