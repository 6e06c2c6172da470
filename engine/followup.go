package engine

import (
	"context"

	"github.com/nerida-ai/courier/errors"
	"github.com/nerida-ai/courier/prompt"
)

// FollowUpRequest asks for a new prompt chained onto an existing one.
//
// PromptTS is the platform timestamp of the message the adapter posted to
// carry the synthesized text; it becomes the new prompt's dedup key, so
// redelivered button clicks that reuse the same posted message dedupe the
// same way mentions do.
type FollowUpRequest struct {
	PreviousPromptID string
	Tool             string
	PromptTS         string
	UserID           string // user who clicked; falls back to the previous prompt's user
}

// FollowUpText returns the canned instruction text for a configured
// follow-up tool. Unknown tools are an invalid request: the tool set is
// fixed by configuration, not by callers.
func (e *Engine) FollowUpText(tool string) (string, error) {
	text, ok := e.followUps[tool]
	if !ok {
		return "", errors.NewInvalidRequestError("unknown follow-up tool %q", tool)
	}
	return text, nil
}

// DispatchFollowUp creates a prompt that continues a previous one.
//
// The new prompt inherits organization, project, agent, channel and thread
// from the previous prompt and records the back-reference, keeping the
// linkage graph a forest rooted at user-initiated prompts. Creation goes
// through the same atomic path as SubmitPrompt, so all of its failure
// modes (including ErrDuplicatePrompt) apply here too.
func (e *Engine) DispatchFollowUp(ctx context.Context, req FollowUpRequest) (*SubmitResult, error) {
	if req.PromptTS == "" {
		return nil, errors.NewInvalidRequestError("follow-up message timestamp is required")
	}

	text, err := e.FollowUpText(req.Tool)
	if err != nil {
		return nil, err
	}

	previous, err := e.store.Get(ctx, req.PreviousPromptID)
	if err != nil {
		return nil, err
	}

	userID := req.UserID
	if userID == "" {
		userID = previous.UserID
	}

	p := &prompt.Prompt{
		ID:             prompt.NewID(),
		OrganizationID: previous.OrganizationID,
		ProjectID:      previous.ProjectID,
		AgentID:        previous.AgentID,
		UserID:         userID,
		ChannelID:      previous.ChannelID,
		ThreadKey:      previous.ThreadKey,
		PromptTS:       req.PromptTS,
		Text:           text,
		CreatedFromID:  previous.ID,
		CreatedAt:      e.now(),
	}

	if err := e.store.CreateIfAbsent(ctx, p); err != nil {
		return nil, err
	}

	// A follow-up always lands in an existing thread.
	return &SubmitResult{PromptID: p.ID, NewThread: false}, nil
}
