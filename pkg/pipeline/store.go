package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/foomo/discstorage/pkg/archive"
	"github.com/foomo/discstorage/pkg/codec"
	"github.com/foomo/discstorage/pkg/metrics"
	"github.com/foomo/discstorage/pkg/progress"
	"github.com/foomo/discstorage/pkg/records"
	"go.uber.org/zap"
)

const storeStages = 2

func (o *Orchestrator) store(ctx context.Context, l *zap.Logger, op *Operation, req StoreRequest, c codec.Codec) Result {
	tr := progress.NewTracker(op.progress, storeStages)
	tr.Update(0)

	tmp := o.TempPath(op.ID())
	partial := req.Output + "." + op.ID() + ".partial"
	defer o.cleanup(l, tmp, partial)

	if err := os.MkdirAll(o.workDir, 0o700); err != nil {
		return o.fail(op, ioError("mkdir", o.workDir, err))
	}

	// archive
	op.setState(StateBuildingArchive)
	entries, err := archive.NewBuilder(l.Named("archive")).Build(ctx, tmp, req.Inputs, func(done, total int) {
		tr.Update(float64(done) / float64(total))
	})
	if err != nil {
		return o.fail(op, err)
	}
	if info, err := os.Stat(tmp); err == nil {
		metrics.StageBytesCounter.WithLabelValues(StateBuildingArchive.String()).Add(float64(info.Size()))
	}
	l.Debug("archive built", zap.String("path", tmp), zap.Int("entries", len(entries)))
	tr.Advance()

	if err := ctx.Err(); err != nil {
		return o.fail(op, err)
	}

	// compress
	op.setState(StateCompressing)
	size, err := compressFile(ctx, c, tmp, partial, req.Level, tr.UpdateBytes)
	if err != nil {
		return o.fail(op, err)
	}
	metrics.StageBytesCounter.WithLabelValues(StateCompressing.String()).Add(float64(size))
	l.Debug("archive compressed", zap.String("path", partial), zap.Int64("size", size))

	if err := ctx.Err(); err != nil {
		return o.fail(op, err)
	}

	rec := records.Record{
		Name:      req.Name,
		Files:     append([]string(nil), req.Inputs...),
		Artifact:  absPath(req.Output),
		Kind:      c.Kind(),
		Level:     req.Level,
		Size:      size,
		Entries:   len(entries),
		CreatedAt: time.Now().UTC(),
	}
	if o.catalog != nil {
		if err := o.catalog.Add(ctx, rec); err != nil {
			return o.fail(op, err)
		}
	}

	if err := os.Rename(partial, req.Output); err != nil {
		if o.catalog != nil {
			if rbErr := o.catalog.Delete(context.WithoutCancel(ctx), rec.Name); rbErr != nil {
				l.Warn("failed to roll back record", zap.Error(rbErr))
			}
		}
		return o.fail(op, ioError("rename", req.Output, err))
	}

	tr.Finish()
	return Result{
		State:    StateCompleted,
		Record:   &rec,
		Artifact: req.Output,
	}
}
