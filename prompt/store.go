package prompt

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nerida-ai/courier/db"
	"github.com/nerida-ai/courier/errors"
)

// Store handles prompt persistence
type Store struct {
	db *sql.DB
}

// NewStore creates a new prompt store
func NewStore(database *sql.DB) *Store {
	return &Store{db: database}
}

const promptColumns = `prompt_id, organization_id, project_id, agent_id, user_id,
	channel_id, thread_key, prompt_ts, prompt_text, response_ts,
	human_score, created_from, created_at`

// CreateIfAbsent inserts a new prompt keyed by (channel_id, prompt_ts).
//
// This is a single atomic check-and-insert: the UNIQUE constraint on the
// dedup key decides the race, so N concurrent calls for the same platform
// event yield exactly one row and N-1 ErrDuplicatePrompt results. There is
// deliberately no SELECT-then-INSERT here.
func (s *Store) CreateIfAbsent(ctx context.Context, p *Prompt) error {
	query := `
		INSERT INTO prompts (` + promptColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	agentID := sql.NullString{String: p.AgentID, Valid: p.AgentID != ""}
	responseTS := sql.NullString{String: p.ResponseTS, Valid: p.ResponseTS != ""}
	createdFrom := sql.NullString{String: p.CreatedFromID, Valid: p.CreatedFromID != ""}

	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		p.OrganizationID,
		p.ProjectID,
		agentID,
		p.UserID,
		p.ChannelID,
		p.ThreadKey,
		p.PromptTS,
		p.Text,
		responseTS,
		p.HumanScore,
		createdFrom,
		p.CreatedAt,
	)

	if db.IsUniqueViolation(err) {
		dup := errors.Wrap(errors.ErrDuplicatePrompt, "create prompt")
		dup = errors.WithDetail(dup, fmt.Sprintf("Channel: %s", p.ChannelID))
		dup = errors.WithDetail(dup, fmt.Sprintf("Prompt timestamp: %s", p.PromptTS))
		return dup
	}
	if err != nil {
		return errors.Wrap(err, "failed to create prompt")
	}

	return nil
}

// Get retrieves a prompt by ID
func (s *Store) Get(ctx context.Context, promptID string) (*Prompt, error) {
	query := `SELECT ` + promptColumns + ` FROM prompts WHERE prompt_id = ?`

	p, err := scanPrompt(s.db.QueryRowContext(ctx, query, promptID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrPromptNotFound, "prompt %s", promptID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get prompt")
	}

	return p, nil
}

// AddScore atomically adds delta to the prompt's human score.
//
// The increment happens inside the UPDATE statement so concurrent votes on
// the same prompt are all reflected; there is no read-modify-write cycle to
// lose.
func (s *Store) AddScore(ctx context.Context, promptID string, delta int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE prompts SET human_score = human_score + ? WHERE prompt_id = ?`,
		delta, promptID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update human score")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return errors.Wrapf(errors.ErrPromptNotFound, "prompt %s", promptID)
	}

	return nil
}

// SetResponseTimestamp stamps the prompt with the platform timestamp of the
// posted placeholder message.
func (s *Store) SetResponseTimestamp(ctx context.Context, promptID string, responseTS string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE prompts SET response_ts = ? WHERE prompt_id = ?`,
		responseTS, promptID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to set response timestamp")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return errors.Wrapf(errors.ErrPromptNotFound, "prompt %s", promptID)
	}

	return nil
}

// ListByThread returns all prompts in a conversation thread, oldest first.
func (s *Store) ListByThread(ctx context.Context, channelID, threadKey string) ([]*Prompt, error) {
	query := `SELECT ` + promptColumns + `
		FROM prompts
		WHERE channel_id = ? AND thread_key = ?
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, channelID, threadKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list prompts by thread")
	}
	defer rows.Close()

	var prompts []*Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan prompt row")
		}
		prompts = append(prompts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating thread prompts")
	}

	return prompts, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanPrompt
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPrompt(row scanner) (*Prompt, error) {
	var p Prompt
	var agentID, responseTS, createdFrom sql.NullString

	err := row.Scan(
		&p.ID,
		&p.OrganizationID,
		&p.ProjectID,
		&agentID,
		&p.UserID,
		&p.ChannelID,
		&p.ThreadKey,
		&p.PromptTS,
		&p.Text,
		&responseTS,
		&p.HumanScore,
		&createdFrom,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.AgentID = agentID.String
	p.ResponseTS = responseTS.String
	p.CreatedFromID = createdFrom.String

	return &p, nil
}
