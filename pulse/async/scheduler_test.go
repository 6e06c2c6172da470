package async

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerida-ai/courier/engine"
	couriertest "github.com/nerida-ai/courier/internal/testing"
)

func TestPromptScheduler_Enqueue(t *testing.T) {
	queue := NewQueue(couriertest.CreateTestDB(t))
	scheduler := NewPromptScheduler(queue)

	payload := engine.JobPayload{
		PromptID:       "prm_1",
		OrganizationID: "org-1",
		ProjectID:      "proj-1",
	}
	require.NoError(t, scheduler.Enqueue(context.Background(), payload))

	jobs, err := queue.ListJobs(nil, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	job := jobs[0]
	assert.Equal(t, PromptHandlerName, job.HandlerName)
	assert.Equal(t, "prm_1", job.Source)
	assert.Equal(t, JobStatusQueued, job.Status)

	var decoded engine.JobPayload
	require.NoError(t, json.Unmarshal(job.Payload, &decoded))
	assert.Equal(t, payload, decoded)
}
