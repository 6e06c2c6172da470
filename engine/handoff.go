package engine

import "context"

// JobPayload carries what the answer pipeline needs to pick up a prompt.
type JobPayload struct {
	PromptID       string `json:"prompt_id"`
	OrganizationID string `json:"organization_id"`
	ProjectID      string `json:"project_id"`
}

// Scheduler hands a created prompt to the async answer pipeline.
//
// Enqueue is fire-and-forget: it must not block on job execution, and the
// caller invokes it at most once per successfully created prompt. A failed
// enqueue leaves the prompt durable but unscheduled; recovery is an
// operator concern, not the caller's.
type Scheduler interface {
	Enqueue(ctx context.Context, payload JobPayload) error
}
