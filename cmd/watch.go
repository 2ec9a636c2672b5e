package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/foomo/discstorage/pkg/pipeline"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// watch renders the progress of op on w until it is terminal. An interrupt
// cancels the operation.
func watch(ctx context.Context, l *zap.Logger, op *pipeline.Operation, w io.Writer, quiet bool) pipeline.Result {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var g errgroup.Group
	g.Go(func() error {
		for s := range op.Progress() {
			if !quiet {
				_, _ = fmt.Fprintf(w, "\r%-20s %6.2f%%  (stage %6.2f%%)", op.State(), s.Stage*100, s.SubStage*100)
			}
		}
		if !quiet {
			_, _ = fmt.Fprintln(w)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-op.Done():
		case <-ctx.Done():
			l.Info("interrupted, canceling operation", zap.String("operation_id", op.ID()))
			op.Cancel()
			<-op.Done()
		}
		return nil
	})
	_ = g.Wait()

	res, _ := op.Result()
	return res
}

// formatSize renders a byte count with a binary unit.
func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
