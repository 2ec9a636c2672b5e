package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foomo/discstorage/pkg/progress"
	"github.com/foomo/discstorage/pkg/records"
	"github.com/google/uuid"
)

// Result is the terminal outcome of an operation.
type Result struct {
	ID        string    `json:"id"`
	Direction Direction `json:"direction"`
	State     State     `json:"state"`
	// Err is the error that ended the operation, as raised by the failing stage.
	Err      error `json:"-"`
	Canceled bool  `json:"canceled,omitempty"`
	// Record and Artifact are set by a completed store.
	Record   *records.Record `json:"record,omitempty"`
	Artifact string          `json:"artifact,omitempty"`
	// Dir and Files are set by a completed retrieve.
	Dir        string    `json:"dir,omitempty"`
	Files      []string  `json:"files,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Operation is the owner's handle on a running store or retrieve.
type Operation struct {
	id        string
	direction Direction
	startedAt time.Time
	state     atomic.Int32
	progress  *progress.Channel
	observer  progress.Observer
	cancel    context.CancelFunc
	done      chan struct{}
	result    Result
}

func newOperation(direction Direction, observer progress.Observer) *Operation {
	return &Operation{
		id:        uuid.New().String(),
		direction: direction,
		startedAt: time.Now(),
		progress:  progress.NewChannel(),
		observer:  observer,
		done:      make(chan struct{}),
	}
}

func (op *Operation) ID() string {
	return op.id
}

func (op *Operation) Direction() Direction {
	return op.direction
}

func (op *Operation) StartedAt() time.Time {
	return op.startedAt
}

func (op *Operation) State() State {
	return State(op.state.Load())
}

// Progress returns the latest-value stream of samples. It is closed when the
// worker finishes. It returns nil when the request carried an Observer.
func (op *Operation) Progress() <-chan progress.Sample {
	if op.observer != nil {
		return nil
	}
	return op.progress.C()
}

// Done is closed once the result is available.
func (op *Operation) Done() <-chan struct{} {
	return op.done
}

// Result returns the outcome and true once the operation is terminal.
func (op *Operation) Result() (Result, bool) {
	select {
	case <-op.done:
		return op.result, true
	default:
		return Result{}, false
	}
}

// Wait blocks the caller until the operation is terminal or ctx is done.
func (op *Operation) Wait(ctx context.Context) (Result, error) {
	select {
	case <-op.done:
		return op.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Cancel requests cooperative cancellation. The worker stops at the next
// chunk or stage boundary and fails with ErrCanceled.
func (op *Operation) Cancel() {
	if op.cancel != nil {
		op.cancel()
	}
}

func (op *Operation) setState(s State) {
	op.state.Store(int32(s))
}

// run executes fn on a worker goroutine and publishes its result.
func (op *Operation) run(ctx context.Context, fn func(ctx context.Context) Result) {
	ctx, op.cancel = context.WithCancel(ctx)

	var wg sync.WaitGroup
	if op.observer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			progress.Forward(op.progress.C(), op.observer)
		}()
	}

	go func() {
		defer op.cancel()
		res := fn(ctx)
		res.ID = op.id
		res.Direction = op.direction
		res.StartedAt = op.startedAt
		res.FinishedAt = time.Now()

		op.progress.Close()
		wg.Wait()

		op.result = res
		op.setState(res.State)
		close(op.done)
	}()
}
