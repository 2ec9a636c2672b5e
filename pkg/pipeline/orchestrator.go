package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/foomo/discstorage/pkg/archive"
	"github.com/foomo/discstorage/pkg/codec"
	"github.com/foomo/discstorage/pkg/metrics"
	"github.com/foomo/discstorage/pkg/records"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Catalog receives the record of every completed store.
type Catalog interface {
	Add(ctx context.Context, rec records.Record) error
	Delete(ctx context.Context, name string) error
}

type (
	Orchestrator struct {
		l       *zap.Logger
		workDir string
		catalog Catalog
		policy  archive.ConflictPolicy
		codecs  func(kind codec.Kind) (codec.Codec, error)
	}
	Option func(*Orchestrator)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// WithWorkDir sets the directory for intermediate archives.
func WithWorkDir(v string) Option {
	return func(o *Orchestrator) {
		o.workDir = v
	}
}

func WithCatalog(v Catalog) Option {
	return func(o *Orchestrator) {
		o.catalog = v
	}
}

func WithConflictPolicy(v archive.ConflictPolicy) Option {
	return func(o *Orchestrator) {
		o.policy = v
	}
}

func WithCodecFactory(v func(kind codec.Kind) (codec.Codec, error)) Option {
	return func(o *Orchestrator) {
		o.codecs = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, opts ...Option) *Orchestrator {
	inst := &Orchestrator{
		l:       l,
		workDir: os.TempDir(),
		policy:  archive.ConflictRename,
		codecs:  codec.New,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Store validates req and starts archiving and compressing it on a worker.
// Validation failures are returned before any file is touched.
func (o *Orchestrator) Store(ctx context.Context, req StoreRequest) (*Operation, error) {
	c, err := o.validateStore(&req)
	if err != nil {
		return nil, err
	}

	op := newOperation(DirectionStore, req.Observer)
	l := o.l.With(
		zap.String("operation_id", op.ID()),
		zap.String("direction", string(DirectionStore)),
		zap.String("name", req.Name),
		zap.String("kind", req.Kind.String()),
	)
	o.start(ctx, l, op, string(req.Kind), func(ctx context.Context) Result {
		return o.store(ctx, l, op, req, c)
	})
	return op, nil
}

// Retrieve validates req and starts decompressing and extracting it on a worker.
func (o *Orchestrator) Retrieve(ctx context.Context, req RetrieveRequest) (*Operation, error) {
	c, err := o.validateRetrieve(&req)
	if err != nil {
		return nil, err
	}

	op := newOperation(DirectionRetrieve, req.Observer)
	l := o.l.With(
		zap.String("operation_id", op.ID()),
		zap.String("direction", string(DirectionRetrieve)),
		zap.String("artifact", req.Artifact),
	)
	kind := string(req.Kind)
	if kind == "" {
		kind = "auto"
	}
	o.start(ctx, l, op, kind, func(ctx context.Context) Result {
		return o.retrieve(ctx, l, op, req, c)
	})
	return op, nil
}

// TempPath returns the intermediate archive path of the operation with id.
func (o *Orchestrator) TempPath(id string) string {
	return filepath.Join(o.workDir, "discstorage-"+id+".tar")
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (o *Orchestrator) start(ctx context.Context, l *zap.Logger, op *Operation, kind string, fn func(ctx context.Context) Result) {
	direction := string(op.Direction())
	metrics.OperationsRunningGauge.WithLabelValues(direction).Inc()
	l.Info("operation started")

	op.run(ctx, func(ctx context.Context) (res Result) {
		defer func() {
			if r := recover(); r != nil {
				l.Error("worker panic", zap.Any("panic", r), zap.Stack("stack"))
				res = Result{State: StateFailed, Err: errors.Errorf("worker panic: %v", r)}
			}

			duration := time.Since(op.StartedAt())
			status := "success"
			switch {
			case res.Canceled:
				status = "canceled"
				l.Warn("operation canceled", zap.Duration("duration", duration), zap.Error(res.Err))
			case res.State == StateFailed:
				status = "error"
				l.Error("operation failed", zap.Duration("duration", duration), zap.Error(res.Err))
			default:
				l.Info("operation completed", zap.Duration("duration", duration))
			}
			metrics.OperationsRunningGauge.WithLabelValues(direction).Dec()
			metrics.OperationsCounter.WithLabelValues(direction, status, kind).Inc()
			metrics.OperationDuration.WithLabelValues(direction, status).Observe(duration.Seconds())
		}()
		return fn(ctx)
	})
}

// fail builds the failed result. Cancellations keep their cause but also
// match ErrCanceled.
func (o *Orchestrator) fail(op *Operation, err error) Result {
	res := Result{State: StateFailed, Err: err}
	if isCancellation(err) {
		res.Canceled = true
		res.Err = &canceledError{state: op.State(), err: err}
	}
	return res
}

// cleanup removes leftovers of an operation. Missing files are fine.
func (o *Orchestrator) cleanup(l *zap.Logger, paths ...string) {
	var err error
	for _, p := range paths {
		if rmErr := os.Remove(p); rmErr != nil && !os.IsNotExist(rmErr) {
			err = multierr.Append(err, rmErr)
		}
	}
	if err != nil {
		l.Warn("failed to clean up", zap.Strings("paths", paths), zap.Error(err))
	}
}
