// Package engine implements prompt correlation: turning chat-platform
// events into durable prompts exactly once, scoring them, and chaining
// follow-ups.
//
// The engine is side-effect-free beyond its stores. It never posts
// messages and never blocks on the answer pipeline; the adapter layers
// platform I/O and job handoff around it.
package engine

import (
	"context"
	"time"

	"github.com/nerida-ai/courier/directory"
	"github.com/nerida-ai/courier/errors"
	"github.com/nerida-ai/courier/identity"
	"github.com/nerida-ai/courier/prompt"
)

// PromptStore is the persistence the engine needs from the prompt package.
type PromptStore interface {
	CreateIfAbsent(ctx context.Context, p *prompt.Prompt) error
	Get(ctx context.Context, promptID string) (*prompt.Prompt, error)
	AddScore(ctx context.Context, promptID string, delta int) error
	SetResponseTimestamp(ctx context.Context, promptID string, responseTS string) error
}

// Engine correlates platform events with durable prompts.
type Engine struct {
	store     PromptStore
	identity  identity.Resolver
	directory directory.Directory
	followUps map[string]string
	now       func() time.Time
}

// New creates an engine. followUps maps follow-up tool names to the
// instruction text synthesized for them.
func New(store PromptStore, resolver identity.Resolver, dir directory.Directory, followUps map[string]string) *Engine {
	return &Engine{
		store:     store,
		identity:  resolver,
		directory: dir,
		followUps: followUps,
		now:       time.Now,
	}
}

// SubmitRequest is one observed platform event that should become a prompt.
type SubmitRequest struct {
	TeamID    string
	ChannelID string
	UserID    string
	MessageTS string
	ThreadTS  string // empty when the message is not inside a thread
	Text      string
}

// SubmitResult reports the durable outcome of a submission.
type SubmitResult struct {
	PromptID  string
	NewThread bool // true when this prompt started a new conversation thread
}

// SubmitPrompt validates the event, resolves identity and agent, and
// performs the atomic check-and-insert on the (channel, message timestamp)
// dedup key.
//
// Any redelivery of the same platform event, concurrent or not, returns
// ErrDuplicatePrompt; exactly one call ever creates the row. Failed
// identity or agent resolution creates nothing.
func (e *Engine) SubmitPrompt(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if req.ChannelID == "" || req.MessageTS == "" {
		return nil, errors.NewInvalidRequestError("channel id and message timestamp are required")
	}

	orgID, err := e.identity.ResolveOrganization(ctx, req.TeamID)
	if err != nil {
		return nil, err
	}

	binding, err := e.directory.FindAgentByChannel(ctx, orgID, req.ChannelID)
	if err != nil {
		return nil, err
	}

	// A message outside a thread roots its own thread.
	threadKey := req.ThreadTS
	newThread := threadKey == ""
	if newThread {
		threadKey = req.MessageTS
	}

	p := &prompt.Prompt{
		ID:             prompt.NewID(),
		OrganizationID: orgID,
		ProjectID:      binding.ProjectID,
		AgentID:        binding.AgentID,
		UserID:         req.UserID,
		ChannelID:      req.ChannelID,
		ThreadKey:      threadKey,
		PromptTS:       req.MessageTS,
		Text:           req.Text,
		CreatedAt:      e.now(),
	}

	if err := e.store.CreateIfAbsent(ctx, p); err != nil {
		return nil, err
	}

	return &SubmitResult{PromptID: p.ID, NewThread: newThread}, nil
}

// FeedbackDirective tells the adapter how to patch the message that
// carried the feedback controls.
type FeedbackDirective struct {
	FragmentID string // the fragment to replace in place
	Upvoted    bool
	ActorID    string // platform user who voted
}

// FeedbackFragmentID identifies the score fragment inside a response message.
const FeedbackFragmentID = "prompt_human_score"

// ApplyFeedback atomically applies a ±1 vote to the prompt's human score
// and returns the rendering directive for the score fragment.
//
// Votes accumulate; a user pressing both buttons nets zero. Deltas other
// than +1 and -1 are rejected before any write.
func (e *Engine) ApplyFeedback(ctx context.Context, promptID, userID string, delta int) (*FeedbackDirective, error) {
	if delta != 1 && delta != -1 {
		return nil, errors.NewInvalidRequestError("feedback delta must be +1 or -1, got %d", delta)
	}

	if err := e.store.AddScore(ctx, promptID, delta); err != nil {
		return nil, err
	}

	return &FeedbackDirective{
		FragmentID: FeedbackFragmentID,
		Upvoted:    delta > 0,
		ActorID:    userID,
	}, nil
}

// LookupPrompt fetches a prompt by ID. Missing prompts return
// ErrPromptNotFound.
func (e *Engine) LookupPrompt(ctx context.Context, promptID string) (*prompt.Prompt, error) {
	return e.store.Get(ctx, promptID)
}

// RecordResponse stamps the prompt with the platform timestamp of the
// reply message posted for it.
func (e *Engine) RecordResponse(ctx context.Context, promptID, responseTS string) error {
	return e.store.SetResponseTimestamp(ctx, promptID, responseTS)
}
