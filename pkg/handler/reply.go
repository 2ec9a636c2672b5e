package handler

import (
	"net/http"

	"github.com/foomo/discstorage/pkg/pipeline"
	"github.com/foomo/discstorage/pkg/progress"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Error is the reply body of a rejected request.
type Error struct {
	Code    int                       `json:"code"`
	Message string                    `json:"message"`
	Fields  []pipeline.ValidationError `json:"fields,omitempty"`
}

const (
	ErrorCodeUnknownRoute = iota + 1
	ErrorCodeInvalidJSON
	ErrorCodeValidation
	ErrorCodeNotFound
	ErrorCodeInternal
)

// OperationStatus is the reply of the operations route.
type OperationStatus struct {
	ID        string             `json:"id"`
	Direction pipeline.Direction `json:"direction"`
	State     pipeline.State     `json:"state"`
	Progress  progress.Sample    `json:"progress"`
	Result    *pipeline.Result   `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
}

type startReply struct {
	ID string `json:"id"`
}

func (h *HTTP) writeReply(w http.ResponseWriter, code int, reply interface{}) {
	h.writeJSON(w, code, map[string]interface{}{
		"reply": reply,
	})
}

func (h *HTTP) writeError(w http.ResponseWriter, code int, reply Error) {
	h.writeJSON(w, code, map[string]interface{}{
		"error": reply,
	})
}

func (h *HTTP) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	bytes, err := json.Marshal(v)
	if err != nil {
		h.l.Error("could not encode reply", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(bytes)
}
