package codec

type Level int

const (
	MinLevel Level = 0
	MaxLevel Level = 9
	// DefaultLevel matches the historical default of the store command.
	DefaultLevel Level = 9
)

// In reports whether l lies in the inclusive range [lo, hi].
func (l Level) In(lo, hi Level) bool {
	return l >= lo && l <= hi
}
