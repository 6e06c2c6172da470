package async

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nerida-ai/courier/errors"
	couriertest "github.com/nerida-ai/courier/internal/testing"
)

type countingHandler struct {
	name     string
	executed atomic.Int64
	fail     bool
}

func (h *countingHandler) Execute(_ context.Context, _ *Job) error {
	h.executed.Add(1)
	if h.fail {
		return errors.New("handler failure")
	}
	return nil
}

func (h *countingHandler) Name() string { return h.name }

func testPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{Workers: 1, PollInterval: 10 * time.Millisecond}
}

// waitForStatus polls until the job reaches the wanted status or times out.
func waitForStatus(t *testing.T, q *Queue, jobID string, want JobStatus) *Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := q.GetJob(jobID)
		require.NoError(t, err)
		if job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", jobID, want)
	return nil
}

func TestWorkerPool_ProcessesJob(t *testing.T) {
	pool := NewWorkerPool(context.Background(), couriertest.CreateTestDB(t), testPoolConfig(), zap.NewNop().Sugar())
	handler := &countingHandler{name: PromptHandlerName}
	pool.Registry().Register(handler)

	job := enqueueTestJob(t, pool.GetQueue(), "prm_1")

	pool.Start()
	defer pool.Stop()

	waitForStatus(t, pool.GetQueue(), job.ID, JobStatusCompleted)
	assert.Equal(t, int64(1), handler.executed.Load())
}

func TestWorkerPool_FailingHandler(t *testing.T) {
	pool := NewWorkerPool(context.Background(), couriertest.CreateTestDB(t), testPoolConfig(), zap.NewNop().Sugar())
	pool.Registry().Register(&countingHandler{name: PromptHandlerName, fail: true})

	job := enqueueTestJob(t, pool.GetQueue(), "prm_1")

	pool.Start()
	defer pool.Stop()

	failed := waitForStatus(t, pool.GetQueue(), job.ID, JobStatusFailed)
	assert.Contains(t, failed.Error, "handler failure")
}

func TestWorkerPool_UnregisteredHandler(t *testing.T) {
	pool := NewWorkerPool(context.Background(), couriertest.CreateTestDB(t), testPoolConfig(), zap.NewNop().Sugar())

	job := enqueueTestJob(t, pool.GetQueue(), "prm_1")

	pool.Start()
	defer pool.Stop()

	failed := waitForStatus(t, pool.GetQueue(), job.ID, JobStatusFailed)
	assert.Contains(t, failed.Error, "no handler registered")
}

func TestWorkerPool_RecoversOrphanedJobs(t *testing.T) {
	database := couriertest.CreateTestDB(t)
	queue := NewQueue(database)

	// Simulate a crash: a job left in running state by a dead process
	orphan := enqueueTestJob(t, queue, "prm_orphan")
	_, err := queue.Dequeue()
	require.NoError(t, err)

	pool := NewWorkerPool(context.Background(), database, testPoolConfig(), zap.NewNop().Sugar())
	handler := &countingHandler{name: PromptHandlerName}
	pool.Registry().Register(handler)

	pool.Start()
	defer pool.Stop()

	waitForStatus(t, pool.GetQueue(), orphan.ID, JobStatusCompleted)
	assert.Equal(t, int64(1), handler.executed.Load())
}

func TestWorkerPool_StopAndRestart(t *testing.T) {
	database := couriertest.CreateTestDB(t)
	pool := NewWorkerPool(context.Background(), database, testPoolConfig(), zap.NewNop().Sugar())
	handler := &countingHandler{name: PromptHandlerName}
	pool.Registry().Register(handler)

	pool.Start()
	pool.Stop()

	// A restart must recreate the worker context and keep processing
	job := enqueueTestJob(t, pool.GetQueue(), "prm_after_restart")
	pool.Start()
	defer pool.Stop()

	waitForStatus(t, pool.GetQueue(), job.ID, JobStatusCompleted)
}

func TestHandlerRegistry(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := &countingHandler{name: "agent.prompt"}

	assert.False(t, registry.Has("agent.prompt"))
	registry.Register(handler)
	assert.True(t, registry.Has("agent.prompt"))
	assert.Equal(t, handler, registry.Get("agent.prompt"))
	assert.Equal(t, []string{"agent.prompt"}, registry.Names())

	assert.Panics(t, func() { registry.Register(&countingHandler{name: "agent.prompt"}) })
}

func TestHandlerRegistry_Execute(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := &countingHandler{name: "agent.prompt"}
	registry.Register(handler)

	job, err := NewJob("agent.prompt", "prm_1", nil)
	require.NoError(t, err)
	require.NoError(t, registry.Execute(context.Background(), job))
	assert.Equal(t, int64(1), handler.executed.Load())

	unrouted, err := NewJob("agent.unknown", "prm_2", nil)
	require.NoError(t, err)
	err = registry.Execute(context.Background(), unrouted)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no handler registered")
}
