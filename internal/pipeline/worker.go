package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/gedgraph/internal/gedcom"
	"github.com/dgallion1/gedgraph/internal/graph"
)

// Worker processes a single GEDCOM ingestion job.
type Worker struct {
	store   graph.Store
	hashes  *HashIndex
	metrics *Metrics
	log     *slog.Logger

	batchSize          int
	maxConcurrentStore int

	// backoff is Backoff outside tests.
	backoff func(attempt int) time.Duration
}

func NewWorker(store graph.Store, hashes *HashIndex, metrics *Metrics, log *slog.Logger, batchSize, maxStore int) *Worker {
	if batchSize <= 0 {
		batchSize = 500
	}
	if maxStore <= 0 {
		maxStore = 1
	}
	return &Worker{
		store:              store,
		hashes:             hashes,
		metrics:            metrics,
		log:                log,
		batchSize:          batchSize,
		maxConcurrentStore: maxStore,
		backoff:            Backoff,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename, "tree_id", job.Options.TreeID)
	status := w.process(ctx, job, log)
	w.metrics.jobFinished(status)
	log.Info("job finished", "status", status)
}

func (w *Worker) process(ctx context.Context, job *Job, log *slog.Logger) JobStatus {
	fail := func(phase string, err error) JobStatus {
		job.AddError(fmt.Sprintf("%s: %s", phase, err))
		job.SetStatus(StatusFailed, phase)
		return StatusFailed
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	start := time.Now()
	opts := []gedcom.Option{gedcom.WithStrict(job.Options.Strict)}
	if job.Options.Charset != "" {
		opts = append(opts, gedcom.WithCharset(job.Options.Charset))
	}
	doc, err := gedcom.Parse(bytes.NewReader(job.FileData()), opts...)
	w.metrics.observePhase("parsing", start)
	if err != nil {
		log.Error("parse failed", "error", err)
		return fail("parse", err)
	}
	job.SetDocument(doc)

	if err := doc.CheckLineage(); err != nil {
		log.Warn("lineage check failed", "error", err)
		job.AddWarning(err.Error())
	}

	// Phase 1.5: Dedup check
	key := job.ContentHash + "/" + job.Options.TreeID
	if job.Options.Force {
		w.hashes.Set(key, job.ID)
	} else if owner, ok := w.hashes.Claim(key, job.ID); !ok {
		log.Info("duplicate file, skipping", "existing_job_id", owner)
		job.AddWarning("already ingested by job " + owner)
		job.SetStatus(StatusDupSkipped, "dedup")
		return StatusDupSkipped
	}

	// Phase 2: Export
	job.SetStatus(StatusExporting, "exporting")
	start = time.Now()
	var exportOpts []graph.ExportOption
	if job.Options.SkipPrivate {
		exportOpts = append(exportOpts, graph.SkipPrivate())
	}
	if job.Options.TreeID != "" {
		exportOpts = append(exportOpts, graph.WithIDPrefix(job.Options.TreeID))
	}
	tree := graph.FromDocument(doc, exportOpts...)
	w.metrics.observePhase("exporting", start)
	job.SetCounts(len(doc.Individuals()), len(doc.FamilyRecords()), len(tree.Persons), len(tree.Relationships))
	log.Info("exported tree", "persons", len(tree.Persons), "relationships", len(tree.Relationships))

	if tree.Empty() {
		job.AddWarning("no individuals to store")
		job.SetStatus(StatusCompleted, "done")
		return StatusCompleted
	}

	// Phase 3: Store persons, then relationships, so every edge finds
	// both endpoints.
	job.SetStatus(StatusStoring, "storing")
	start = time.Now()
	personBatches := chunk(tree.Persons, w.batchSize)
	relBatches := chunk(tree.Relationships, w.batchSize)
	job.SetTotalBatches(len(personBatches) + len(relBatches))

	var failed, stored int
	for _, batches := range [][]graph.Tree{
		treesOf(personBatches, func(p []graph.Person) graph.Tree { return graph.Tree{Persons: p} }),
		treesOf(relBatches, func(r []graph.Relationship) graph.Tree { return graph.Tree{Relationships: r} }),
	} {
		f, s := w.storeBatches(ctx, job, log, batches)
		failed += f
		stored += s
	}
	w.metrics.observePhase("storing", start)

	switch {
	case failed > 0 && stored > 0:
		job.SetStatus(StatusPartial, "done")
		return StatusPartial
	case failed > 0:
		w.hashes.Release(key, job.ID)
		job.SetStatus(StatusFailed, "storing")
		return StatusFailed
	}
	job.SetStatus(StatusCompleted, "done")
	return StatusCompleted
}

// storeBatches saves batches with bounded concurrency and returns how many
// failed and how many were stored.
func (w *Worker) storeBatches(ctx context.Context, job *Job, log *slog.Logger, batches []graph.Tree) (failed, stored int) {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(w.maxConcurrentStore)
	for i, batch := range batches {
		g.Go(func() error {
			err := w.saveWithRetry(ctx, log, batch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Error("store batch failed", "batch", i, "error", err)
				job.AddError(fmt.Sprintf("store batch %d: %s", i, err))
				failed++
				return nil
			}
			job.BatchStored(len(batch.Persons), len(batch.Relationships))
			w.metrics.recordsStored(len(batch.Persons), len(batch.Relationships))
			stored++
			return nil
		})
	}
	_ = g.Wait()
	return failed, stored
}

func (w *Worker) saveWithRetry(ctx context.Context, log *slog.Logger, batch graph.Tree) error {
	var lastErr error
	for attempt := range MaxRetries {
		lastErr = w.store.SaveTree(ctx, batch)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		log.Warn("retryable store error", "attempt", attempt, "error", lastErr)
		if attempt == MaxRetries-1 {
			break
		}
		w.metrics.storeRetried()
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for len(items) > 0 {
		n := min(size, len(items))
		out = append(out, items[:n:n])
		items = items[n:]
	}
	return out
}

func treesOf[T any](batches [][]T, build func([]T) graph.Tree) []graph.Tree {
	out := make([]graph.Tree, len(batches))
	for i, b := range batches {
		out[i] = build(b)
	}
	return out
}
