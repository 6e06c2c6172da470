// Package identity maps external workspace/team identifiers to internal
// users and organizations.
package identity

import (
	"context"
	"database/sql"

	"github.com/nerida-ai/courier/errors"
)

// Resolver resolves an external team to internal identity. The correlation
// engine consumes this interface; implementations decide where the mapping
// lives.
type Resolver interface {
	// ResolveUser returns the internal user linked to the external team.
	// Returns ErrIdentityNotResolved if the team is unmapped.
	ResolveUser(ctx context.Context, teamID string) (string, error)

	// ResolveOrganization returns the internal organization linked to the
	// external team. Returns ErrIdentityNotResolved if the team is unmapped.
	ResolveOrganization(ctx context.Context, teamID string) (string, error)
}

// SQLResolver resolves identity from the workspace_links table. One row per
// installed workspace: the user who installed the integration stands in for
// every platform user until per-user mapping exists.
type SQLResolver struct {
	db *sql.DB
}

// NewSQLResolver creates a resolver backed by the given database
func NewSQLResolver(database *sql.DB) *SQLResolver {
	return &SQLResolver{db: database}
}

// ResolveUser implements Resolver
func (r *SQLResolver) ResolveUser(ctx context.Context, teamID string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM workspace_links WHERE team_id = ?`, teamID,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.Wrapf(errors.ErrIdentityNotResolved, "team %s", teamID)
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve user")
	}
	return userID, nil
}

// ResolveOrganization implements Resolver
func (r *SQLResolver) ResolveOrganization(ctx context.Context, teamID string) (string, error) {
	var orgID string
	err := r.db.QueryRowContext(ctx,
		`SELECT organization_id FROM workspace_links WHERE team_id = ?`, teamID,
	).Scan(&orgID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.Wrapf(errors.ErrIdentityNotResolved, "team %s", teamID)
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve organization")
	}
	return orgID, nil
}

// Link records (or replaces) the mapping for an external team.
func (r *SQLResolver) Link(ctx context.Context, teamID, userID, organizationID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO workspace_links (team_id, user_id, organization_id)
		VALUES (?, ?, ?)
		ON CONFLICT (team_id) DO UPDATE SET
			user_id = excluded.user_id,
			organization_id = excluded.organization_id
	`, teamID, userID, organizationID)
	if err != nil {
		return errors.Wrap(err, "failed to link workspace")
	}
	return nil
}

// Links returns all workspace mappings, for the admin CLI.
func (r *SQLResolver) Links(ctx context.Context) ([]WorkspaceLink, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT team_id, user_id, organization_id FROM workspace_links ORDER BY team_id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list workspace links")
	}
	defer rows.Close()

	var links []WorkspaceLink
	for rows.Next() {
		var l WorkspaceLink
		if err := rows.Scan(&l.TeamID, &l.UserID, &l.OrganizationID); err != nil {
			return nil, errors.Wrap(err, "failed to scan workspace link")
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// WorkspaceLink is one external-team → internal-identity mapping
type WorkspaceLink struct {
	TeamID         string `json:"team_id"`
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
}
