package prompt

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerida-ai/courier/errors"
	couriertest "github.com/nerida-ai/courier/internal/testing"
)

func testPrompt(channelID, promptTS string) *Prompt {
	return &Prompt{
		ID:             NewID(),
		OrganizationID: "O1",
		ProjectID:      "P1",
		AgentID:        "A1",
		UserID:         "U1",
		ChannelID:      channelID,
		ThreadKey:      promptTS,
		PromptTS:       promptTS,
		Text:           "how many orders last week?",
		CreatedAt:      time.Now().UTC(),
	}
}

func TestCreateIfAbsent(t *testing.T) {
	database := couriertest.CreateTestDB(t)
	store := NewStore(database)
	ctx := context.Background()

	p := testPrompt("C1", "100.000100")
	require.NoError(t, store.CreateIfAbsent(ctx, p))

	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "C1", got.ChannelID)
	assert.Equal(t, "100.000100", got.PromptTS)
	assert.Equal(t, "A1", got.AgentID)
	assert.Equal(t, 0, got.HumanScore)
	assert.Empty(t, got.ResponseTS)
	assert.Empty(t, got.CreatedFromID)
}

func TestCreateIfAbsent_Duplicate(t *testing.T) {
	database := couriertest.CreateTestDB(t)
	store := NewStore(database)
	ctx := context.Background()

	first := testPrompt("C1", "100.000100")
	require.NoError(t, store.CreateIfAbsent(ctx, first))

	// Redelivery of the same platform event: new prompt ID, same dedup key
	second := testPrompt("C1", "100.000100")
	err := store.CreateIfAbsent(ctx, second)
	require.Error(t, err)
	assert.True(t, errors.IsDuplicatePrompt(err), "expected duplicate prompt, got: %v", err)

	// Only the first row exists
	var count int
	require.NoError(t, database.QueryRow(
		"SELECT COUNT(*) FROM prompts WHERE channel_id = 'C1' AND prompt_ts = '100.000100'",
	).Scan(&count))
	assert.Equal(t, 1, count)

	// Same timestamp in a different channel is a different event
	other := testPrompt("C2", "100.000100")
	require.NoError(t, store.CreateIfAbsent(ctx, other))
}

func TestCreateIfAbsent_RaceSafety(t *testing.T) {
	database := couriertest.CreateTestDB(t)
	store := NewStore(database)
	ctx := context.Background()

	const n = 16
	results := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.CreateIfAbsent(ctx, testPrompt("C1", "200.000001"))
		}()
	}
	wg.Wait()
	close(results)

	successes, duplicates := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.IsDuplicatePrompt(err):
			duplicates++
		default:
			t.Fatalf("unexpected error under concurrent create: %v", err)
		}
	}

	assert.Equal(t, 1, successes, "exactly one concurrent create must win")
	assert.Equal(t, n-1, duplicates)

	var count int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM prompts").Scan(&count))
	assert.Equal(t, 1, count, "store must never hold more than one prompt per dedup key")
}

func TestAddScore(t *testing.T) {
	database := couriertest.CreateTestDB(t)
	store := NewStore(database)
	ctx := context.Background()

	p := testPrompt("C1", "100.000100")
	require.NoError(t, store.CreateIfAbsent(ctx, p))

	require.NoError(t, store.AddScore(ctx, p.ID, 1))
	require.NoError(t, store.AddScore(ctx, p.ID, 1))
	require.NoError(t, store.AddScore(ctx, p.ID, -1))

	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.HumanScore)
}

func TestAddScore_Concurrent(t *testing.T) {
	database := couriertest.CreateTestDB(t)
	store := NewStore(database)
	ctx := context.Background()

	p := testPrompt("C1", "100.000100")
	require.NoError(t, store.CreateIfAbsent(ctx, p))

	// [+1, +1, -1] applied concurrently must land on 1 regardless of interleaving
	deltas := []int{1, 1, -1}
	var wg sync.WaitGroup
	for _, d := range deltas {
		wg.Add(1)
		go func(delta int) {
			defer wg.Done()
			if err := store.AddScore(ctx, p.ID, delta); err != nil {
				t.Errorf("AddScore(%d) failed: %v", delta, err)
			}
		}(d)
	}
	wg.Wait()

	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.HumanScore)
}

func TestAddScore_NotFound(t *testing.T) {
	database := couriertest.CreateTestDB(t)
	store := NewStore(database)

	err := store.AddScore(context.Background(), "prm_missing", 1)
	require.Error(t, err)
	assert.True(t, errors.IsPromptNotFound(err))
}

func TestGet_NotFound(t *testing.T) {
	database := couriertest.CreateTestDB(t)
	store := NewStore(database)

	_, err := store.Get(context.Background(), "prm_missing")
	require.Error(t, err)
	assert.True(t, errors.IsPromptNotFound(err))
}

func TestSetResponseTimestamp(t *testing.T) {
	database := couriertest.CreateTestDB(t)
	store := NewStore(database)
	ctx := context.Background()

	p := testPrompt("C1", "100.000100")
	require.NoError(t, store.CreateIfAbsent(ctx, p))

	require.NoError(t, store.SetResponseTimestamp(ctx, p.ID, "100.000200"))

	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.000200", got.ResponseTS)

	err = store.SetResponseTimestamp(ctx, "prm_missing", "100.000300")
	require.Error(t, err)
	assert.True(t, errors.IsPromptNotFound(err))
}

func TestListByThread(t *testing.T) {
	database := couriertest.CreateTestDB(t)
	store := NewStore(database)
	ctx := context.Background()

	// Two prompts in one thread, one in another
	root := testPrompt("C1", "100.000100")
	require.NoError(t, store.CreateIfAbsent(ctx, root))

	reply := testPrompt("C1", "100.000500")
	reply.ThreadKey = root.ThreadKey
	reply.CreatedAt = root.CreatedAt.Add(time.Second)
	require.NoError(t, store.CreateIfAbsent(ctx, reply))

	elsewhere := testPrompt("C1", "300.000100")
	require.NoError(t, store.CreateIfAbsent(ctx, elsewhere))

	thread, err := store.ListByThread(ctx, "C1", root.ThreadKey)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, root.ID, thread[0].ID, "thread listing is oldest first")
	assert.Equal(t, reply.ID, thread[1].ID)
}
