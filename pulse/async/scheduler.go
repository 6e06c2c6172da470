package async

import (
	"context"
	"encoding/json"

	"github.com/nerida-ai/courier/engine"
	"github.com/nerida-ai/courier/errors"
)

// PromptHandlerName routes prompt-answer jobs to their handler.
const PromptHandlerName = "agent.prompt"

// PromptScheduler enqueues prompt-answer jobs. It implements
// engine.Scheduler; one job per created prompt, enqueued by the adapter
// after the engine returns.
type PromptScheduler struct {
	queue *Queue
}

// NewPromptScheduler creates a scheduler over the given queue.
func NewPromptScheduler(queue *Queue) *PromptScheduler {
	return &PromptScheduler{queue: queue}
}

// Enqueue implements engine.Scheduler
func (s *PromptScheduler) Enqueue(_ context.Context, payload engine.JobPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal prompt job payload")
	}

	job, err := NewJob(PromptHandlerName, payload.PromptID, data)
	if err != nil {
		return errors.Wrap(err, "failed to build prompt job")
	}

	return s.queue.Enqueue(job)
}
