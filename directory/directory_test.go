package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerida-ai/courier/errors"
	couriertest "github.com/nerida-ai/courier/internal/testing"
)

func TestSQLDirectory(t *testing.T) {
	database := couriertest.CreateTestDB(t)
	dir := NewSQLDirectory(database)
	ctx := context.Background()

	require.NoError(t, dir.Bind(ctx, "A1", "org-1", "proj-1", "C1", "Sales Copilot"))

	binding, err := dir.FindAgentByChannel(ctx, "org-1", "C1")
	require.NoError(t, err)
	assert.Equal(t, "A1", binding.AgentID)
	assert.Equal(t, "proj-1", binding.ProjectID)
	assert.Equal(t, "Sales Copilot", binding.Name)
}

func TestSQLDirectory_UnconfiguredChannel(t *testing.T) {
	database := couriertest.CreateTestDB(t)
	dir := NewSQLDirectory(database)

	_, err := dir.FindAgentByChannel(context.Background(), "org-1", "C-quiet")
	require.Error(t, err)
	assert.True(t, errors.IsAgentNotFound(err))
}

func TestSQLDirectory_ScopedByOrganization(t *testing.T) {
	database := couriertest.CreateTestDB(t)
	dir := NewSQLDirectory(database)
	ctx := context.Background()

	require.NoError(t, dir.Bind(ctx, "A1", "org-1", "proj-1", "C1", "Sales Copilot"))

	// Same channel id under a different organization is not configured
	_, err := dir.FindAgentByChannel(ctx, "org-2", "C1")
	require.Error(t, err)
	assert.True(t, errors.IsAgentNotFound(err))
}

func TestSQLDirectory_Rebind(t *testing.T) {
	database := couriertest.CreateTestDB(t)
	dir := NewSQLDirectory(database)
	ctx := context.Background()

	require.NoError(t, dir.Bind(ctx, "A1", "org-1", "proj-1", "C1", "Sales Copilot"))
	require.NoError(t, dir.Bind(ctx, "A2", "org-1", "proj-2", "C1", "Support Copilot"))

	binding, err := dir.FindAgentByChannel(ctx, "org-1", "C1")
	require.NoError(t, err)
	assert.Equal(t, "A2", binding.AgentID)

	agents, err := dir.List(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 1, "rebinding must replace, not add")
}
