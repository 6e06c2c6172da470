// Package adapter connects platform events to the correlation engine.
//
// The adapter owns everything the engine deliberately does not: posting and
// patching platform messages, stamping response timestamps, and handing
// created prompts to the async scheduler. Expected correlation outcomes
// (duplicates, unmapped workspaces, unconfigured channels, missing prompts)
// are silent no-ops logged at DEBUG; only unexpected failures propagate.
package adapter

import (
	"context"

	"go.uber.org/zap"

	"github.com/nerida-ai/courier/engine"
	"github.com/nerida-ai/courier/errors"
	"github.com/nerida-ai/courier/prompt"
)

// PromptHandler is the engine capability the adapter consumes.
// engine.Engine implements it.
type PromptHandler interface {
	SubmitPrompt(ctx context.Context, req engine.SubmitRequest) (*engine.SubmitResult, error)
	ApplyFeedback(ctx context.Context, promptID, userID string, delta int) (*engine.FeedbackDirective, error)
	DispatchFollowUp(ctx context.Context, req engine.FollowUpRequest) (*engine.SubmitResult, error)
	FollowUpText(tool string) (string, error)
	LookupPrompt(ctx context.Context, promptID string) (*prompt.Prompt, error)
	RecordResponse(ctx context.Context, promptID, responseTS string) error
}

// Messenger is the platform posting boundary. Implementations wrap the
// actual chat platform client; tests use fakes.
type Messenger interface {
	// PostMessage posts into a channel (threaded when threadTS is set) and
	// returns the platform timestamp of the posted message.
	PostMessage(ctx context.Context, channelID, threadTS string, fragments []Fragment) (string, error)

	// UpdateMessage replaces the content of an already-posted message.
	UpdateMessage(ctx context.Context, channelID, messageTS string, fragments []Fragment) error
}

// Mention is a user addressing the agent in a channel message.
type Mention struct {
	TeamID    string
	ChannelID string
	UserID    string
	MessageTS string
	ThreadTS  string // empty when the mention is not inside a thread
	Text      string
}

// Feedback is a vote on a posted answer. Fragments carry the current
// content of the message holding the vote buttons, as delivered with the
// interaction event.
type Feedback struct {
	TeamID    string
	ChannelID string
	UserID    string
	PromptID  string
	Delta     int
	MessageTS string
	Fragments []Fragment
}

// FollowUpClick is a press on one of the follow-up buttons under an answer.
type FollowUpClick struct {
	TeamID   string
	UserID   string
	PromptID string // prompt the clicked answer belongs to
	Tool     string
}

// Adapter routes platform events through the engine and performs the
// platform I/O around each outcome.
type Adapter struct {
	handler   PromptHandler
	messenger Messenger
	scheduler engine.Scheduler
	enabled   bool
	logger    *zap.SugaredLogger
}

// New creates an adapter. enabled gates all event handling; a disabled
// adapter ignores every event (original copilot feature flag).
func New(handler PromptHandler, messenger Messenger, scheduler engine.Scheduler, enabled bool, logger *zap.SugaredLogger) *Adapter {
	return &Adapter{
		handler:   handler,
		messenger: messenger,
		scheduler: scheduler,
		enabled:   enabled,
		logger:    logger.Named("adapter"),
	}
}

// Enabled reports whether the adapter is handling events.
func (a *Adapter) Enabled() bool {
	return a.enabled
}

// HandleMention submits the mention, posts the placeholder reply, stamps
// the response timestamp, and enqueues the answer job.
//
// The enqueue happens exactly once per created prompt: duplicates never get
// this far, and an enqueue failure is surfaced rather than retried so the
// prompt cannot be scheduled twice.
func (a *Adapter) HandleMention(ctx context.Context, ev Mention) error {
	if !a.enabled {
		return nil
	}

	result, err := a.handler.SubmitPrompt(ctx, engine.SubmitRequest{
		TeamID:    ev.TeamID,
		ChannelID: ev.ChannelID,
		UserID:    ev.UserID,
		MessageTS: ev.MessageTS,
		ThreadTS:  ev.ThreadTS,
		Text:      ev.Text,
	})
	if errors.IsExpected(err) {
		a.logger.Debugw("Dropping mention",
			"channel_id", ev.ChannelID,
			"message_ts", ev.MessageTS,
			"reason", err)
		return nil
	}
	if err != nil {
		return err
	}

	// Replies always go into the prompt's thread
	threadTS := ev.ThreadTS
	if threadTS == "" {
		threadTS = ev.MessageTS
	}

	responseTS, err := a.messenger.PostMessage(ctx, ev.ChannelID, threadTS,
		PlaceholderFragments(ev.UserID, result.PromptID, result.NewThread))
	if err != nil {
		return errors.Wrap(err, "failed to post placeholder message")
	}

	if err := a.handler.RecordResponse(ctx, result.PromptID, responseTS); err != nil {
		return err
	}

	return a.enqueue(ctx, result.PromptID)
}

// HandleFeedback applies the vote and patches the score fragment of the
// message that carried the buttons.
func (a *Adapter) HandleFeedback(ctx context.Context, ev Feedback) error {
	if !a.enabled {
		return nil
	}

	directive, err := a.handler.ApplyFeedback(ctx, ev.PromptID, ev.UserID, ev.Delta)
	if errors.IsExpected(err) {
		a.logger.Debugw("Dropping feedback",
			"prompt_id", ev.PromptID,
			"reason", err)
		return nil
	}
	if err != nil {
		return err
	}

	replacement := FeedbackFragment(directive.FragmentID, directive.ActorID, directive.Upvoted)
	fragments, replaced := ReplaceFragmentByID(ev.Fragments, directive.FragmentID, replacement)
	if !replaced {
		// Message carries no score fragment; the vote is still recorded
		a.logger.Debugw("No score fragment to patch", "prompt_id", ev.PromptID)
		return nil
	}

	if err := a.messenger.UpdateMessage(ctx, ev.ChannelID, ev.MessageTS, fragments); err != nil {
		return errors.Wrap(err, "failed to patch feedback message")
	}
	return nil
}

// HandleFollowUp posts the canned follow-up text into the previous prompt's
// thread, creates the chained prompt keyed on the posted message, and
// enqueues the answer job.
func (a *Adapter) HandleFollowUp(ctx context.Context, ev FollowUpClick) error {
	if !a.enabled {
		return nil
	}

	previous, err := a.handler.LookupPrompt(ctx, ev.PromptID)
	if errors.IsExpected(err) {
		a.logger.Debugw("Dropping follow-up click",
			"prompt_id", ev.PromptID,
			"reason", err)
		return nil
	}
	if err != nil {
		return err
	}

	text, err := a.handler.FollowUpText(ev.Tool)
	if err != nil {
		return err
	}

	// The posted message's timestamp becomes the new prompt's dedup key
	promptTS, err := a.messenger.PostMessage(ctx, previous.ChannelID, previous.ThreadKey,
		[]Fragment{{Text: text}})
	if err != nil {
		return errors.Wrap(err, "failed to post follow-up message")
	}

	result, err := a.handler.DispatchFollowUp(ctx, engine.FollowUpRequest{
		PreviousPromptID: previous.ID,
		Tool:             ev.Tool,
		PromptTS:         promptTS,
		UserID:           ev.UserID,
	})
	if errors.IsExpected(err) {
		a.logger.Debugw("Dropping follow-up",
			"prompt_id", ev.PromptID,
			"tool", ev.Tool,
			"reason", err)
		return nil
	}
	if err != nil {
		return err
	}

	if err := a.handler.RecordResponse(ctx, result.PromptID, promptTS); err != nil {
		return err
	}

	return a.enqueue(ctx, result.PromptID)
}

// enqueue hands a created prompt to the answer pipeline.
func (a *Adapter) enqueue(ctx context.Context, promptID string) error {
	created, err := a.handler.LookupPrompt(ctx, promptID)
	if err != nil {
		return err
	}

	err = a.scheduler.Enqueue(ctx, engine.JobPayload{
		PromptID:       created.ID,
		OrganizationID: created.OrganizationID,
		ProjectID:      created.ProjectID,
	})
	if err != nil {
		// The prompt stays durable; only its scheduling failed
		return errors.Wrapf(err, "failed to enqueue prompt %s", promptID)
	}

	a.logger.Infow("Prompt enqueued",
		"prompt_id", created.ID,
		"organization_id", created.OrganizationID,
		"channel_id", created.ChannelID)
	return nil
}
