package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/foomo/discstorage/pkg/metrics"
	"github.com/foomo/discstorage/pkg/pipeline"
	"github.com/foomo/discstorage/pkg/progress"
	"github.com/foomo/discstorage/pkg/records"
	httputils "github.com/foomo/keel/utils/net/http"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RecordLister is the read side of the record catalog.
type RecordLister interface {
	List(ctx context.Context) ([]records.Record, error)
}

type (
	HTTP struct {
		l            *zap.Logger
		path         string
		orchestrator *pipeline.Orchestrator
		records      RecordLister
		retention    time.Duration
		root         string
		mu           sync.RWMutex
		operations   map[string]*trackedOperation
	}
	HTTPOption func(*HTTP)
)

// trackedOperation keeps the latest sample an observer delivered.
type trackedOperation struct {
	op     *pipeline.Operation
	mu     sync.Mutex
	latest progress.Sample
}

func (t *trackedOperation) Observe(s progress.Sample) {
	t.mu.Lock()
	t.latest = s
	t.mu.Unlock()
}

func (t *trackedOperation) Latest() progress.Sample {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewHTTP returns the operations API
func NewHTTP(l *zap.Logger, orchestrator *pipeline.Orchestrator, opts ...HTTPOption) http.Handler {
	inst := &HTTP{
		l:            l.Named("http"),
		path:         "/discstorage",
		orchestrator: orchestrator,
		retention:    time.Hour,
		operations:   map[string]*trackedOperation{},
	}

	for _, opt := range opts {
		opt(inst)
	}

	if inst.root != "" {
		if abs, err := filepath.Abs(inst.root); err == nil {
			inst.root = abs
		}
		if resolved, err := filepath.EvalSymlinks(inst.root); err == nil {
			inst.root = resolved
		}
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithPath(v string) HTTPOption {
	return func(o *HTTP) {
		o.path = strings.TrimSuffix(v, "/")
	}
}

func WithRecords(v RecordLister) HTTPOption {
	return func(o *HTTP) {
		o.records = v
	}
}

// WithRetention sets how long finished operations stay queryable.
func WithRetention(v time.Duration) HTTPOption {
	return func(o *HTTP) {
		o.retention = v
	}
}

// WithRoot confines every request path to dir. Relative paths are resolved
// against it.
func WithRoot(v string) HTTPOption {
	return func(o *HTTP) {
		o.root = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, h.path+"/") {
		httputils.ServerError(h.l, w, r, http.StatusNotFound, errors.New("not found"))
		return
	}

	start := time.Now()
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, h.path+"/"), "/", 2)
	route := Route(parts[0])
	status := h.route(w, r, route, parts)

	metrics.ServiceRequestCounter.WithLabelValues(string(route), status).Inc()
	metrics.ServiceRequestDuration.WithLabelValues(string(route), status).Observe(time.Since(start).Seconds())
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) route(w http.ResponseWriter, r *http.Request, route Route, parts []string) string {
	switch {
	case route == RouteStore && r.Method == http.MethodPost:
		var req pipeline.StoreRequest
		if !h.decode(w, r, &req) {
			return "error"
		}
		if verrs := h.confineStore(&req); len(verrs) > 0 {
			return h.started(w, nil, nil, verrs)
		}
		tracked := &trackedOperation{}
		req.Observer = tracked
		op, err := h.orchestrator.Store(context.WithoutCancel(r.Context()), req)
		return h.started(w, tracked, op, err)
	case route == RouteRetrieve && r.Method == http.MethodPost:
		var req pipeline.RetrieveRequest
		if !h.decode(w, r, &req) {
			return "error"
		}
		if verrs := h.confineRetrieve(&req); len(verrs) > 0 {
			return h.started(w, nil, nil, verrs)
		}
		tracked := &trackedOperation{}
		req.Observer = tracked
		op, err := h.orchestrator.Retrieve(context.WithoutCancel(r.Context()), req)
		return h.started(w, tracked, op, err)
	case route == RouteOperations && len(parts) == 2 && r.Method == http.MethodGet:
		tracked, ok := h.lookup(parts[1])
		if !ok {
			h.writeError(w, http.StatusNotFound, Error{Code: ErrorCodeNotFound, Message: "unknown operation: " + parts[1]})
			return "error"
		}
		h.writeReply(w, http.StatusOK, h.status(tracked))
		return "success"
	case route == RouteOperations && len(parts) == 2 && r.Method == http.MethodDelete:
		tracked, ok := h.lookup(parts[1])
		if !ok {
			h.writeError(w, http.StatusNotFound, Error{Code: ErrorCodeNotFound, Message: "unknown operation: " + parts[1]})
			return "error"
		}
		tracked.op.Cancel()
		h.writeReply(w, http.StatusAccepted, startReply{ID: tracked.op.ID()})
		return "success"
	case route == RouteRecords && r.Method == http.MethodGet:
		if h.records == nil {
			h.writeReply(w, http.StatusOK, []records.Record{})
			return "success"
		}
		recs, err := h.records.List(r.Context())
		if err != nil {
			h.l.Error("failed to list records", zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, Error{Code: ErrorCodeInternal, Message: "internal error " + err.Error()})
			return "error"
		}
		h.writeReply(w, http.StatusOK, recs)
		return "success"
	case route == RouteStore, route == RouteRetrieve, route == RouteOperations, route == RouteRecords:
		httputils.ServerError(h.l, w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return "error"
	default:
		h.writeError(w, http.StatusNotFound, Error{Code: ErrorCodeUnknownRoute, Message: "unknown route: " + string(route)})
		return "error"
	}
}

func (h *HTTP) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		httputils.BadRequestServerError(h.l, w, r, errors.New("empty request body"))
		return false
	}
	bytes, err := io.ReadAll(r.Body)
	if err != nil {
		httputils.BadRequestServerError(h.l, w, r, errors.Wrap(err, "failed to read incoming request"))
		return false
	}
	if err := json.Unmarshal(bytes, v); err != nil {
		h.l.Error("could not read incoming json", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, Error{Code: ErrorCodeInvalidJSON, Message: "could not read incoming json " + err.Error()})
		return false
	}
	return true
}

func (h *HTTP) started(w http.ResponseWriter, tracked *trackedOperation, op *pipeline.Operation, err error) string {
	var verrs pipeline.ValidationErrors
	if errors.As(err, &verrs) {
		h.writeError(w, http.StatusBadRequest, Error{Code: ErrorCodeValidation, Message: verrs.Error(), Fields: verrs})
		return "error"
	} else if err != nil {
		h.l.Error("failed to start operation", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, Error{Code: ErrorCodeInternal, Message: "internal error " + err.Error()})
		return "error"
	}

	tracked.op = op
	h.mu.Lock()
	h.prune()
	h.operations[op.ID()] = tracked
	h.mu.Unlock()

	h.writeReply(w, http.StatusAccepted, startReply{ID: op.ID()})
	return "success"
}

func (h *HTTP) lookup(id string) (*trackedOperation, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	tracked, ok := h.operations[id]
	return tracked, ok
}

func (h *HTTP) status(tracked *trackedOperation) OperationStatus {
	status := OperationStatus{
		ID:        tracked.op.ID(),
		Direction: tracked.op.Direction(),
		State:     tracked.op.State(),
		Progress:  tracked.Latest(),
	}
	if res, ok := tracked.op.Result(); ok {
		status.State = res.State
		status.Result = &res
		if res.Err != nil {
			status.Error = res.Err.Error()
		}
	}
	return status
}

func (h *HTTP) confineStore(req *pipeline.StoreRequest) pipeline.ValidationErrors {
	var verrs pipeline.ValidationErrors
	for i, input := range req.Inputs {
		req.Inputs[i] = h.confine(&verrs, fmt.Sprintf("inputs[%d]", i), input)
	}
	req.Output = h.confine(&verrs, "output", req.Output)
	return verrs
}

func (h *HTTP) confineRetrieve(req *pipeline.RetrieveRequest) pipeline.ValidationErrors {
	var verrs pipeline.ValidationErrors
	req.Artifact = h.confine(&verrs, "artifact", req.Artifact)
	req.Dest = h.confine(&verrs, "dest", req.Dest)
	return verrs
}

// confine resolves p against the root and records a validation error when it
// leaves the root, symlinks included. Empty paths are left to the orchestrator.
func (h *HTTP) confine(verrs *pipeline.ValidationErrors, field, p string) string {
	if h.root == "" || strings.TrimSpace(p) == "" {
		return p
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(h.root, p)
	}
	p = filepath.Clean(p)

	rel, err := filepath.Rel(h.root, resolveExisting(p))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		*verrs = append(*verrs, pipeline.ValidationError{Field: field, Message: "must be inside " + h.root})
	}
	return p
}

// resolveExisting follows the symlinks of the longest existing prefix of p.
func resolveExisting(p string) string {
	cur, rest := p, ""
	for {
		if resolved, err := filepath.EvalSymlinks(cur); err == nil {
			return filepath.Join(resolved, rest)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return p
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
}

// prune drops finished operations older than the retention. Callers hold mu.
func (h *HTTP) prune() {
	for id, tracked := range h.operations {
		if res, ok := tracked.op.Result(); ok && time.Since(res.FinishedAt) > h.retention {
			delete(h.operations, id)
		}
	}
}
