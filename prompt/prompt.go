// Package prompt owns the durable prompt record and its store.
//
// A Prompt correlates one user request on the messaging platform with an AI
// agent and a conversation thread. The store enforces the dedup contract:
// the pair (channel, platform message timestamp) is unique for the lifetime
// of the system, which is what makes prompt creation idempotent under
// at-least-once event delivery.
package prompt

import (
	"time"

	"github.com/google/uuid"
)

// Prompt is a durable record of one user request.
//
// Platform timestamps (PromptTS, ThreadKey, ResponseTS) are kept as opaque
// strings; courier never interprets their ordering. ThreadKey is the
// thread-root message timestamp, stable across every prompt in one thread.
type Prompt struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	ProjectID      string    `json:"project_id"`
	AgentID        string    `json:"agent_id,omitempty"` // empty only if agent resolution was skipped upstream
	UserID         string    `json:"user_id"`            // external platform user
	ChannelID      string    `json:"channel_id"`
	ThreadKey      string    `json:"thread_key"`
	PromptTS       string    `json:"prompt_ts"` // dedup key together with ChannelID
	Text           string    `json:"text"`
	ResponseTS     string    `json:"response_ts,omitempty"` // set once the placeholder reply is posted
	HumanScore     int       `json:"human_score"`
	CreatedFromID  string    `json:"created_from_id,omitempty"` // back-reference for follow-up prompts
	CreatedAt      time.Time `json:"created_at"`
}

// DedupKey returns the identity of the triggering platform event.
func (p *Prompt) DedupKey() (channelID, promptTS string) {
	return p.ChannelID, p.PromptTS
}

// NewID generates a prompt identifier.
func NewID() string {
	return "prm_" + uuid.NewString()
}
