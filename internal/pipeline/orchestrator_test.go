package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/gedgraph/internal/config"
	"github.com/dgallion1/gedgraph/internal/graph"
)

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.WorkerCount = 2
	cfg.MaxQueueSize = 4
	return cfg
}

func waitDone(t *testing.T, job *Job) JobSnapshot {
	t.Helper()
	require.Eventually(t, func() bool { return job.CurrentStatus().Done() }, 5*time.Second, 5*time.Millisecond)
	return job.Snapshot()
}

func TestOrchestrator_ProcessesSubmittedJobs(t *testing.T) {
	store := graph.NewMemoryStore()
	o := NewOrchestrator(testConfig(), store, NewMetrics(), discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("family.ged", familyGED(t), JobOptions{Strict: true})
	require.NoError(t, o.Submit(job))
	assert.Same(t, job, o.GetJob(job.ID))

	snap := waitDone(t, job)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Same(t, graph.Store(store), o.Store())

	tree, err := o.Store().LoadTree(context.Background())
	require.NoError(t, err)
	assert.Len(t, tree.Persons, 5)
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQueueSize = 1
	// Not started, so nothing drains the queue.
	o := NewOrchestrator(cfg, graph.NewMemoryStore(), nil, discardLogger())

	require.NoError(t, o.Submit(NewJob("a.ged", []byte("0 HEAD\n"), JobOptions{})))
	assert.Equal(t, 1, o.QueueDepth())

	overflow := NewJob("b.ged", []byte("0 HEAD\n"), JobOptions{})
	err := o.Submit(overflow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue is full")
	assert.Equal(t, StatusFailed, overflow.CurrentStatus())
	// Still visible to status polling.
	assert.NotNil(t, o.GetJob(overflow.ID))
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	o := NewOrchestrator(testConfig(), graph.NewMemoryStore(), nil, discardLogger())
	o.Start(context.Background())
	o.Stop()
	o.Stop()

	assert.Error(t, o.Submit(NewJob("a.ged", nil, JobOptions{})))
}
