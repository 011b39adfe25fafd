package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/gedgraph/internal/config"
	"github.com/dgallion1/gedgraph/internal/graph"
)

// Orchestrator manages the GEDCOM ingestion pipeline.
type Orchestrator struct {
	jobs    *JobStore
	hashes  *HashIndex
	queue   chan *Job
	store   graph.Store
	metrics *Metrics
	log     *slog.Logger
	cfg     config.Config

	// newWorker is overridden in tests to shorten retry backoff.
	newWorker func() *Worker

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
// metrics may be nil.
func NewOrchestrator(cfg config.Config, store graph.Store, metrics *Metrics, log *slog.Logger) *Orchestrator {
	o := &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		hashes:  NewHashIndex(),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		store:   store,
		metrics: metrics,
		log:     log,
		cfg:     cfg,
	}
	o.newWorker = func() *Worker {
		return NewWorker(o.store, o.hashes, o.metrics, o.log, o.cfg.StoreBatchSize, o.cfg.MaxConcurrentStore)
	}
	return o
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := o.newWorker()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.metrics.setQueueDepth(len(o.queue))
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
				if n := o.jobs.Cleanup(); n > 0 {
					o.log.Debug("expired jobs removed", "count", n)
				}
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
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
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return fmt.Errorf("pipeline is stopped")
	}
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		o.metrics.setQueueDepth(len(o.queue))
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		o.metrics.jobFinished(StatusFailed)
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
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

// Store returns the graph store jobs are written to.
func (o *Orchestrator) Store() graph.Store {
	return o.store
}
