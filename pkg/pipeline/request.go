package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/foomo/discstorage/pkg/codec"
	"github.com/foomo/discstorage/pkg/progress"
)

// StoreRequest archives and compresses Inputs into Output.
type StoreRequest struct {
	// Name of the resulting record, derived from Output when empty.
	Name   string   `json:"name"`
	Inputs []string `json:"inputs"`
	Output string   `json:"output"`
	// Kind defaults to codec.KindHighRatio.
	Kind  codec.Kind  `json:"kind"`
	Level codec.Level `json:"level"`
	// Observer receives progress samples instead of Operation.Progress.
	Observer progress.Observer `json:"-"`
}

// RetrieveRequest restores Artifact into Dest.
type RetrieveRequest struct {
	Artifact string `json:"artifact"`
	Dest     string `json:"dest"`
	// Kind is detected from the artifact header when empty.
	Kind     codec.Kind        `json:"kind,omitempty"`
	Observer progress.Observer `json:"-"`
}

func (o *Orchestrator) validateStore(req *StoreRequest) (codec.Codec, error) {
	var verrs ValidationErrors

	if len(req.Inputs) == 0 {
		verrs = append(verrs, ValidationError{Field: "inputs", Message: "at least one input path is required"})
	}
	for i, input := range req.Inputs {
		if strings.TrimSpace(input) == "" {
			verrs = append(verrs, ValidationError{Field: fmt.Sprintf("inputs[%d]", i), Message: "must not be empty"})
		}
	}
	if strings.TrimSpace(req.Output) == "" {
		verrs = append(verrs, ValidationError{Field: "output", Message: "is required"})
	}

	if req.Kind == "" {
		req.Kind = codec.KindHighRatio
	}
	c, err := o.codecs(req.Kind)
	if err != nil {
		verrs = append(verrs, ValidationError{Field: "kind", Message: err.Error()})
	} else if lo, hi := c.LevelRange(); !req.Level.In(lo, hi) {
		verrs = append(verrs, ValidationError{
			Field:   "level",
			Message: fmt.Sprintf("%d is out of range [%d, %d]", req.Level, lo, hi),
		})
	}

	if len(verrs) > 0 {
		return nil, verrs
	}
	if req.Name == "" {
		req.Name = defaultName(req.Output)
	}
	return c, nil
}

func (o *Orchestrator) validateRetrieve(req *RetrieveRequest) (codec.Codec, error) {
	var (
		verrs ValidationErrors
		c     codec.Codec
	)

	if strings.TrimSpace(req.Artifact) == "" {
		verrs = append(verrs, ValidationError{Field: "artifact", Message: "is required"})
	}
	if strings.TrimSpace(req.Dest) == "" {
		verrs = append(verrs, ValidationError{Field: "dest", Message: "is required"})
	}
	if req.Kind != "" {
		var err error
		if c, err = o.codecs(req.Kind); err != nil {
			verrs = append(verrs, ValidationError{Field: "kind", Message: err.Error()})
		}
	}

	if len(verrs) > 0 {
		return nil, verrs
	}
	return c, nil
}

// defaultName strips the directory and archive suffixes from output.
func defaultName(output string) string {
	name := filepath.Base(output)
	for _, ext := range []string{codec.KindHighRatio.Extension(), codec.KindFast.Extension(), ".tar"} {
		if trimmed := strings.TrimSuffix(name, ext); trimmed != name && trimmed != "" {
			return trimmed
		}
	}
	if ext := filepath.Ext(name); ext != "" && ext != name {
		return strings.TrimSuffix(name, ext)
	}
	return name
}
