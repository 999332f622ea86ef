package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/md2docx/internal/convert"
)

// Worker converts queued jobs one at a time.
type Worker struct {
	conv  *convert.Service
	stats *ConversionStats
	log   *slog.Logger
}

func NewWorker(conv *convert.Service, stats *ConversionStats, log *slog.Logger) *Worker {
	return &Worker{conv: conv, stats: stats, log: log}
}

// Process runs the conversion for a job and records its outcome. Jobs
// whose caller has already gone away are failed without converting.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	if job.ctx != nil {
		var cancel context.CancelFunc
		ctx, cancel = mergeCancel(ctx, job.ctx)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		log.Warn("job abandoned before start", "error", err)
		job.complete(nil, err, 0)
		return
	}

	job.SetStatus(StatusConverting, "converting")
	start := time.Now()

	pkg, err := w.conv.Convert(ctx, job.req.Markdown, job.req.Config)
	if err != nil {
		log.Error("conversion failed", "error", err)
		w.finish(job, nil, err, time.Since(start))
		return
	}

	job.SetStatus(StatusConverting, "serializing")
	data, err := pkg.Bytes()
	if err != nil {
		log.Error("serialization failed", "error", err)
		w.finish(job, nil, fmt.Errorf("serialize: %w", err), time.Since(start))
		return
	}

	took := time.Since(start)
	log.Info("conversion complete", "bytes", len(data), "duration_ms", took.Milliseconds())
	w.finish(job, data, nil, took)
}

func (w *Worker) finish(job *Job, data []byte, err error, took time.Duration) {
	if w.stats != nil {
		w.stats.Record(took, len(data), err)
	}
	job.complete(data, err, took)
}

// mergeCancel derives a context from caller that is also cancelled when
// worker is.
func mergeCancel(worker, caller context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(caller)
	stop := context.AfterFunc(worker, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
