// Package directory looks up which AI agent owns an external channel.
package directory

import (
	"context"
	"database/sql"

	"github.com/nerida-ai/courier/errors"
)

// AgentBinding describes the agent configured for a channel
type AgentBinding struct {
	AgentID   string `json:"agent_id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

// Directory resolves channels to agents. A channel with no configured agent
// is a valid state: lookups then return ErrAgentNotFound and the caller
// drops the event.
type Directory interface {
	FindAgentByChannel(ctx context.Context, organizationID, channelID string) (*AgentBinding, error)
}

// SQLDirectory is the agents-table implementation of Directory
type SQLDirectory struct {
	db *sql.DB
}

// NewSQLDirectory creates a directory backed by the given database
func NewSQLDirectory(database *sql.DB) *SQLDirectory {
	return &SQLDirectory{db: database}
}

// FindAgentByChannel implements Directory
func (d *SQLDirectory) FindAgentByChannel(ctx context.Context, organizationID, channelID string) (*AgentBinding, error) {
	var binding AgentBinding
	err := d.db.QueryRowContext(ctx, `
		SELECT agent_id, project_id, name
		FROM agents
		WHERE organization_id = ? AND channel_id = ?
	`, organizationID, channelID).Scan(&binding.AgentID, &binding.ProjectID, &binding.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrAgentNotFound, "org %s channel %s", organizationID, channelID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find agent by channel")
	}
	return &binding, nil
}

// Bind configures an agent for a channel. A channel binds to at most one
// agent per organization; rebinding replaces the previous agent.
func (d *SQLDirectory) Bind(ctx context.Context, agentID, organizationID, projectID, channelID, name string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO agents (agent_id, organization_id, project_id, channel_id, name)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (organization_id, channel_id) DO UPDATE SET
			agent_id = excluded.agent_id,
			project_id = excluded.project_id,
			name = excluded.name
	`, agentID, organizationID, projectID, channelID, name)
	if err != nil {
		return errors.Wrap(err, "failed to bind agent to channel")
	}
	return nil
}

// Agent is a configured agent row, for the admin CLI
type Agent struct {
	AgentID        string `json:"agent_id"`
	OrganizationID string `json:"organization_id"`
	ProjectID      string `json:"project_id"`
	ChannelID      string `json:"channel_id"`
	Name           string `json:"name"`
}

// List returns all configured agents
func (d *SQLDirectory) List(ctx context.Context) ([]Agent, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT agent_id, organization_id, project_id, channel_id, name
		FROM agents
		ORDER BY organization_id, channel_id
	`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list agents")
	}
	defer rows.Close()

	var agents []Agent
	for rows.Next() {
		var a Agent
		if err := rows.Scan(&a.AgentID, &a.OrganizationID, &a.ProjectID, &a.ChannelID, &a.Name); err != nil {
			return nil, errors.Wrap(err, "failed to scan agent")
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}
