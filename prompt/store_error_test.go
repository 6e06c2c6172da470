package prompt

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerida-ai/courier/errors"
)

// Store-unavailable failures must propagate as unexpected errors, never be
// misclassified as one of the expected correlation outcomes.

func TestCreateIfAbsent_StoreUnavailable(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectExec("INSERT INTO prompts").
		WillReturnError(errors.New("disk I/O error"))

	store := NewStore(database)
	p := testPrompt("C1", "100.000100")
	p.CreatedAt = time.Now()

	err = store.CreateIfAbsent(context.Background(), p)
	require.Error(t, err)
	assert.False(t, errors.IsDuplicatePrompt(err))
	assert.False(t, errors.IsExpected(err))
	assert.Contains(t, err.Error(), "failed to create prompt")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddScore_StoreUnavailable(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectExec("UPDATE prompts SET human_score").
		WithArgs(1, "prm_x").
		WillReturnError(errors.New("database is locked"))

	store := NewStore(database)
	err = store.AddScore(context.Background(), "prm_x", 1)
	require.Error(t, err)
	assert.False(t, errors.IsExpected(err))

	require.NoError(t, mock.ExpectationsWereMet())
}
