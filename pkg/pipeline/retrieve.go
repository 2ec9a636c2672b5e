package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/foomo/discstorage/pkg/archive"
	"github.com/foomo/discstorage/pkg/codec"
	"github.com/foomo/discstorage/pkg/metrics"
	"github.com/foomo/discstorage/pkg/progress"
	"go.uber.org/zap"
)

const retrieveStages = 2

func (o *Orchestrator) retrieve(ctx context.Context, l *zap.Logger, op *Operation, req RetrieveRequest, c codec.Codec) Result {
	tr := progress.NewTracker(op.progress, retrieveStages)
	tr.Update(0)

	tmp := o.TempPath(op.ID())
	defer o.cleanup(l, tmp)

	if err := os.MkdirAll(o.workDir, 0o700); err != nil {
		return o.fail(op, ioError("mkdir", o.workDir, err))
	}

	// decompress
	op.setState(StateDecompressing)
	if c == nil {
		kind, err := detectKind(req.Artifact)
		if err != nil {
			return o.fail(op, err)
		}
		if c, err = o.codecs(kind); err != nil {
			return o.fail(op, err)
		}
		l.Debug("detected codec", zap.String("kind", kind.String()))
	}

	size, err := decompressFile(ctx, c, req.Artifact, tmp, tr.UpdateBytes)
	if err != nil {
		return o.fail(op, err)
	}
	metrics.StageBytesCounter.WithLabelValues(StateDecompressing.String()).Add(float64(size))
	tr.Advance()

	if err := ctx.Err(); err != nil {
		return o.fail(op, err)
	}

	// extract
	op.setState(StateExtractingArchive)
	extractor := archive.NewExtractor(l.Named("archive"), archive.ExtractorWithConflictPolicy(o.policy))
	files, err := extractor.Extract(ctx, tmp, req.Dest, tr.UpdateBytes)
	if err != nil {
		return o.fail(op, err)
	}
	l.Debug("archive extracted", zap.String("dest", req.Dest), zap.Int("files", len(files)))

	tr.Finish()
	return Result{
		State: StateCompleted,
		Dir:   absPath(req.Dest),
		Files: files,
	}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
