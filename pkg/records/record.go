package records

import (
	"time"

	"github.com/foomo/discstorage/pkg/codec"
)

// Record describes one stored artifact and the inputs it was built from.
type Record struct {
	Name  string   `json:"name"`
	Files []string `json:"files"`
	// Artifact is the path of the compressed archive.
	Artifact  string      `json:"artifact,omitempty"`
	Kind      codec.Kind  `json:"kind,omitempty"`
	Level     codec.Level `json:"level"`
	Size      int64       `json:"size,omitempty"`
	Entries   int         `json:"entries,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}
