package progress

import (
	"math"
)

// Sample is a point-in-time view of an operation's progress. Both fractions
// lie in [0, 1]. Stage covers the whole operation, SubStage only the stage
// that is currently running.
type Sample struct {
	Stage    float64 `json:"stage"`
	SubStage float64 `json:"subStage"`
}

// Done reports whether the sample marks a completed operation.
func (s Sample) Done() bool {
	return s.Stage >= 1
}

// Observer receives samples on the owner side.
type Observer interface {
	Observe(s Sample)
}

type ObserverFunc func(s Sample)

func (f ObserverFunc) Observe(s Sample) {
	f(s)
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
