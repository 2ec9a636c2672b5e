package pipeline

import (
	"github.com/pkg/errors"
)

type State int32

const (
	StateIdle State = iota
	StateBuildingArchive
	StateCompressing
	StateDecompressing
	StateExtractingArchive
	StateCompleted
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:              "idle",
	StateBuildingArchive:   "building_archive",
	StateCompressing:       "compressing",
	StateDecompressing:     "decompressing",
	StateExtractingArchive: "extracting_archive",
	StateCompleted:         "completed",
	StateFailed:            "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return errors.Errorf("unknown state: %q", string(text))
}

type Direction string

const (
	DirectionStore    Direction = "store"
	DirectionRetrieve Direction = "retrieve"
)
