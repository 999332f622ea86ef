package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/md2docx/internal/config"
	"github.com/dgallion1/md2docx/internal/convert"
)

// ErrQueueFull is returned when the job queue has no free slot.
var ErrQueueFull = errors.New("job queue is full")

// ErrStopped is returned for submissions after Stop.
var ErrStopped = errors.New("pipeline stopped")

// Orchestrator runs conversions on a fixed worker pool fed by a bounded
// queue. Both synchronous conversions and tracked jobs share the queue.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	conv  *convert.Service
	stats *ConversionStats
	log   *slog.Logger
	cfg   config.Config

	mu      sync.RWMutex
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, conv *convert.Service, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		conv:  conv,
		stats: NewConversionStats(time.Hour),
		log:   log,
		cfg:   cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.conv, o.stats, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline. Jobs still queued are failed
// with ErrStopped.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
	for job := range o.queue {
		job.complete(nil, ErrStopped, 0)
	}
}

// Submit queues a tracked job. The job stays retrievable by ID until
// its TTL expires.
func (o *Orchestrator) Submit(job *Job) error {
	if err := o.enqueue(job); err != nil {
		return err
	}
	o.jobs.Put(job)
	return nil
}

// Convert runs one conversion on the pool and waits for its result.
// It does not register the job in the store.
func (o *Orchestrator) Convert(ctx context.Context, req Request) ([]byte, error) {
	job := NewJob(req)
	job.ctx = ctx
	if err := o.enqueue(job); err != nil {
		return nil, err
	}
	select {
	case <-job.Done():
		return job.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (o *Orchestrator) enqueue(job *Job) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		return ErrStopped
	}
	select {
	case o.queue <- job:
		return nil
	default:
		job.complete(nil, ErrQueueFull, 0)
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the conversion latency aggregate.
func (o *Orchestrator) Stats() StatsSnapshot {
	return o.stats.Snapshot()
}

// TrackedJobs returns the number of retained jobs.
func (o *Orchestrator) TrackedJobs() int {
	return o.jobs.Len()
}

// MaxMarkdownBytes returns the conversion input ceiling.
func (o *Orchestrator) MaxMarkdownBytes() int64 {
	return o.conv.MaxBytes()
}
