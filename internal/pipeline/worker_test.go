package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/gedgraph/internal/graph"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func familyGED(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../gedcom/testdata/family.ged")
	require.NoError(t, err)
	return data
}

// flakyStore fails the first failures calls with err, then delegates.
type flakyStore struct {
	graph.Store
	mu       sync.Mutex
	calls    int
	failures int
	err      error
}

func (s *flakyStore) SaveTree(ctx context.Context, t graph.Tree) error {
	s.mu.Lock()
	s.calls++
	fail := s.calls <= s.failures
	s.mu.Unlock()
	if fail {
		return s.err
	}
	return s.Store.SaveTree(ctx, t)
}

func newTestWorker(store graph.Store, metrics *Metrics, batchSize int) *Worker {
	w := NewWorker(store, NewHashIndex(), metrics, discardLogger(), batchSize, 2)
	w.backoff = func(int) time.Duration { return time.Millisecond }
	return w
}

func TestWorker_StoresFamily(t *testing.T) {
	store := graph.NewMemoryStore()
	metrics := NewMetrics()
	w := newTestWorker(store, metrics, 2)
	job := NewJob("family.ged", familyGED(t), JobOptions{Strict: true})

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	require.Equal(t, StatusCompleted, snap.Status, "errors: %v", snap.Progress.Errors)
	assert.Equal(t, 5, snap.Progress.Individuals)
	assert.Equal(t, 2, snap.Progress.Families)
	assert.Equal(t, 5, snap.Progress.PersonsStored)
	assert.Equal(t, 6, snap.Progress.RelationshipsStored)
	// 5 persons and 6 relationships in batches of 2.
	assert.Equal(t, 6, snap.Progress.BatchesTotal)
	assert.Equal(t, 6, snap.Progress.BatchesDone)
	assert.NotNil(t, job.Document())

	tree, err := store.LoadTree(context.Background())
	require.NoError(t, err)
	assert.Len(t, tree.Persons, 5)
	assert.Len(t, tree.Relationships, 6)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.jobsTotal.WithLabelValues(string(StatusCompleted))))
	assert.Equal(t, 6.0, testutil.ToFloat64(metrics.recordsTotal.WithLabelValues("relationship")))
}

func TestWorker_TreeIDAndSkipPrivate(t *testing.T) {
	store := graph.NewMemoryStore()
	w := newTestWorker(store, nil, 100)
	job := NewJob("family.ged", familyGED(t), JobOptions{Strict: true, TreeID: "doe", SkipPrivate: true})

	w.Process(context.Background(), job)
	require.Equal(t, StatusCompleted, job.CurrentStatus())

	tree, err := store.LoadTree(context.Background())
	require.NoError(t, err)
	var ids []string
	for _, p := range tree.Persons {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"doe:I1", "doe:I2", "doe:I3", "doe:I4"}, ids)
}

func TestWorker_ParseFailure(t *testing.T) {
	w := newTestWorker(graph.NewMemoryStore(), nil, 10)
	job := NewJob("bad.ged", []byte("0 HEAD\n2 DATE 1900\n"), JobOptions{Strict: true})

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "parse", snap.Phase)
	require.Len(t, snap.Progress.Errors, 1)
	assert.Contains(t, snap.Progress.Errors[0], "parse:")
	assert.Nil(t, job.Document())
}

func TestWorker_LenientParse(t *testing.T) {
	w := newTestWorker(graph.NewMemoryStore(), nil, 10)
	data := []byte("0 @I1@ INDI\n1 NAME Ann /Lee/\n1 NOTE Lives at\nthe mill\n0 TRLR\n")

	strict := NewJob("a.ged", data, JobOptions{Strict: true})
	w.Process(context.Background(), strict)
	assert.Equal(t, StatusFailed, strict.CurrentStatus())

	lenient := NewJob("a.ged", data, JobOptions{Strict: false})
	w.Process(context.Background(), lenient)
	assert.Equal(t, StatusCompleted, lenient.CurrentStatus())
}

func TestWorker_DuplicateSkipped(t *testing.T) {
	store := graph.NewMemoryStore()
	w := newTestWorker(store, nil, 100)
	data := familyGED(t)

	first := NewJob("family.ged", data, JobOptions{Strict: true})
	w.Process(context.Background(), first)
	require.Equal(t, StatusCompleted, first.CurrentStatus())

	second := NewJob("copy.ged", data, JobOptions{Strict: true})
	w.Process(context.Background(), second)
	assert.Equal(t, StatusDupSkipped, second.CurrentStatus())
	assert.NotNil(t, second.Document(), "duplicates stay queryable")

	forced := NewJob("copy.ged", data, JobOptions{Strict: true, Force: true})
	w.Process(context.Background(), forced)
	assert.Equal(t, StatusCompleted, forced.CurrentStatus())

	otherTree := NewJob("family.ged", data, JobOptions{Strict: true, TreeID: "other"})
	w.Process(context.Background(), otherTree)
	assert.Equal(t, StatusCompleted, otherTree.CurrentStatus())
}

func TestWorker_RetriesRetryableErrors(t *testing.T) {
	store := &flakyStore{
		Store:    graph.NewMemoryStore(),
		failures: 2,
		err:      &graph.RetryableError{Backend: "test", Err: errors.New("unavailable")},
	}
	metrics := NewMetrics()
	w := newTestWorker(store, metrics, 100)
	w.maxConcurrentStore = 1
	job := NewJob("family.ged", familyGED(t), JobOptions{Strict: true})

	w.Process(context.Background(), job)

	assert.Equal(t, StatusCompleted, job.CurrentStatus())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.storeRetries))
}

func TestWorker_PermanentFailureReleasesHash(t *testing.T) {
	store := &flakyStore{
		Store:    graph.NewMemoryStore(),
		failures: 100,
		err:      errors.New("constraint violated"),
	}
	w := newTestWorker(store, nil, 100)
	data := familyGED(t)

	job := NewJob("family.ged", data, JobOptions{Strict: true})
	w.Process(context.Background(), job)
	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Len(t, snap.Progress.Errors, 2)
	// Not retried.
	assert.Equal(t, 2, store.calls)

	store.failures = 0
	again := NewJob("family.ged", data, JobOptions{Strict: true})
	w.Process(context.Background(), again)
	assert.Equal(t, StatusCompleted, again.CurrentStatus())
}

func TestWorker_PartialWhenSomeBatchesFail(t *testing.T) {
	// One person batch fails; the rest and all edges that still have both
	// endpoints are stored.
	store := &flakyStore{
		Store:    graph.NewMemoryStore(),
		failures: 1,
		err:      errors.New("boom"),
	}
	w := newTestWorker(store, nil, 2)
	w.maxConcurrentStore = 1
	job := NewJob("family.ged", familyGED(t), JobOptions{Strict: true})

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusPartial, snap.Status)
	assert.Equal(t, 3, snap.Progress.PersonsStored)
	assert.Len(t, snap.Progress.Errors, 1)
}

func TestWorker_CycleIsWarning(t *testing.T) {
	data := []byte(`0 @A@ INDI
1 FAMC @F1@
1 FAMS @F2@
0 @B@ INDI
1 FAMC @F2@
1 FAMS @F1@
0 @F1@ FAM
1 HUSB @B@
1 CHIL @A@
0 @F2@ FAM
1 HUSB @A@
1 CHIL @B@
0 TRLR
`)
	w := newTestWorker(graph.NewMemoryStore(), nil, 10)
	job := NewJob("cycle.ged", data, JobOptions{Strict: true})
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	require.Len(t, snap.Progress.Warnings, 1)
	assert.Contains(t, snap.Progress.Warnings[0], "ancestry cycle")
}

func TestChunk(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, chunk([]int{1, 2, 3, 4, 5}, 2))
	assert.Nil(t, chunk([]int{}, 3))
}
