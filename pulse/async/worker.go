package async

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nerida-ai/courier/errors"
)

const (
	// MaxOrphanedJobsToRecover limits how many orphaned jobs are re-queued
	// on startup to avoid overwhelming the system after a crash
	MaxOrphanedJobsToRecover = 1000

	stopTimeout = 30 * time.Second
)

// WorkerPoolConfig contains configuration for the worker pool
type WorkerPoolConfig struct {
	Workers       int           `json:"workers"`
	PollInterval  time.Duration `json:"poll_interval"`
	RatePerMinute int           `json:"rate_per_minute"` // 0 disables rate limiting
}

// DefaultWorkerPoolConfig returns sensible defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		Workers:      1,
		PollInterval: 5 * time.Second,
	}
}

// WorkerPool polls the queue and executes jobs through registered handlers.
//
// Callers must register handlers before calling Start. The pool derives its
// context from the parent passed at construction, so cancelling the parent
// drains the workers; jobs interrupted mid-flight are re-queued rather than
// failed.
type WorkerPool struct {
	queue      *Queue
	registry   *HandlerRegistry
	limiter    *rate.Limiter // nil when rate limiting is disabled
	poolConfig WorkerPoolConfig
	parentCtx  context.Context
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	logger     *zap.SugaredLogger
	mu         sync.Mutex
}

// NewWorkerPool creates a worker pool over the given database.
func NewWorkerPool(ctx context.Context, db *sql.DB, cfg WorkerPoolConfig, logger *zap.SugaredLogger) *WorkerPool {
	workerCtx, cancel := context.WithCancel(ctx)

	var limiter *rate.Limiter
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), 1)
	}

	return &WorkerPool{
		queue:      NewQueue(db),
		registry:   NewHandlerRegistry(),
		limiter:    limiter,
		poolConfig: cfg,
		parentCtx:  ctx,
		ctx:        workerCtx,
		cancel:     cancel,
		logger:     logger.Named("pulse"),
	}
}

// Start recovers orphaned jobs and begins processing with the worker pool
func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	// Recreate the context if Stop was called before; must happen before
	// spawning workers to avoid races
	select {
	case <-wp.ctx.Done():
		wp.ctx, wp.cancel = context.WithCancel(wp.parentCtx)
		wp.logger.Debugw("Recreated worker context after previous shutdown")
	default:
	}
	wp.mu.Unlock()

	if err := wp.recoverOrphanedJobs(); err != nil {
		wp.logger.Warnw("Failed to recover orphaned jobs", "error", err)
		// Continue starting workers even if recovery fails
	}

	for i := 0; i < wp.poolConfig.Workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// recoverOrphanedJobs re-queues jobs stuck in "running" state. These are
// jobs a previous process was executing when it died ungracefully.
func (wp *WorkerPool) recoverOrphanedJobs() error {
	runningStatus := JobStatusRunning
	orphaned, err := wp.queue.store.ListJobs(&runningStatus, MaxOrphanedJobsToRecover)
	if err != nil {
		return errors.Wrap(err, "failed to list running jobs")
	}

	if len(orphaned) == 0 {
		return nil
	}

	wp.logger.Infow("Re-queuing orphaned jobs from previous run", "count", len(orphaned))

	for _, job := range orphaned {
		job.Status = JobStatusQueued
		job.Error = ""
		if err := wp.queue.UpdateJob(job); err != nil {
			wp.logger.Warnw("Failed to re-queue orphaned job", "job_id", job.ID, "error", err)
		}
	}

	return nil
}

// Stop gracefully stops the worker pool. Workers finish (or re-queue) their
// current job and exit; a timeout prevents shutdown from blocking forever.
func (wp *WorkerPool) Stop() {
	wp.cancel()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.logger.Debugw("Worker pool stopped, all workers exited cleanly")
	case <-time.After(stopTimeout):
		wp.logger.Warnw("Worker pool stop timeout, workers may still be finishing", "timeout", stopTimeout)
	}
}

// worker processes jobs from the queue
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	interval := wp.poolConfig.PollInterval
	if interval <= 0 {
		interval = DefaultWorkerPoolConfig().PollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	errorCount := 0
	const maxConsecutiveErrors = 5
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		select {
		case <-wp.ctx.Done():
			return
		case <-ticker.C:
			if err := wp.processNextJob(); err != nil {
				select {
				case <-wp.ctx.Done():
					return
				default:
				}
				if errors.Is(err, sql.ErrConnDone) {
					// Database closed during shutdown
					return
				}

				errorCount++
				wp.logger.Errorw("Worker error processing job",
					"worker_id", id,
					"error", err,
					"consecutive_errors", errorCount)

				if errorCount >= maxConsecutiveErrors {
					wp.logger.Warnw("Worker backing off after consecutive errors",
						"worker_id", id,
						"backoff", backoff)
					time.Sleep(backoff)
					backoff = min(backoff*2, maxBackoff)
				}
			} else {
				if errorCount > 0 {
					wp.logger.Infow("Worker recovered from errors",
						"worker_id", id,
						"previous_error_count", errorCount)
				}
				errorCount = 0
				backoff = time.Second
			}
		}
	}
}

// processNextJob dequeues one job and runs it through its handler
func (wp *WorkerPool) processNextJob() error {
	select {
	case <-wp.ctx.Done():
		return nil
	default:
	}

	// Rate limit before dequeuing so paced jobs stay queued, not running
	if wp.limiter != nil && !wp.limiter.Allow() {
		return nil
	}

	job, err := wp.queue.Dequeue()
	if err != nil {
		return errors.Wrap(err, "failed to dequeue job")
	}
	if job == nil {
		return nil
	}

	if err := wp.registry.Execute(wp.ctx, job); err != nil {
		select {
		case <-wp.ctx.Done():
			// Shutdown interrupted the job; put it back for the next run
			wp.logger.Warnw("Job interrupted by shutdown, re-queuing", "job_id", job.ID)
			job.Status = JobStatusQueued
			if updateErr := wp.queue.UpdateJob(job); updateErr != nil {
				wp.logger.Errorw("Failed to re-queue interrupted job", "job_id", job.ID, "error", updateErr)
			}
			return nil
		default:
			return wp.queue.FailJob(job.ID, err)
		}
	}

	return wp.queue.CompleteJob(job.ID)
}

// GetQueue returns the job queue (useful for enqueuing jobs)
func (wp *WorkerPool) GetQueue() *Queue {
	return wp.queue
}

// Workers returns the number of concurrent workers configured for this pool
func (wp *WorkerPool) Workers() int {
	return wp.poolConfig.Workers
}

// Registry returns the handler registry for registering job handlers.
// Register before calling Start:
//
//	pool := async.NewWorkerPool(ctx, db, cfg, logger)
//	pool.Registry().Register(handler)
//	pool.Start()
func (wp *WorkerPool) Registry() *HandlerRegistry {
	return wp.registry
}
