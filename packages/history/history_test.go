package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/XiangYd616/webtest/packages/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleReport(testID string, success bool) *engine.RunReport {
	status := "completed"
	score := 100
	failed := 0
	if !success {
		score = 50
		failed = 1
	}
	return &engine.RunReport{
		Engine:    engine.EngineName,
		Version:   "test",
		Success:   success,
		TestID:    testID,
		Timestamp: time.Now(),
		Status:    status,
		Score:     score,
		Summary: &engine.BatchSummary{
			Total:               2,
			Successful:          2 - failed,
			Failed:              failed,
			SuccessRate:         "100%",
			AverageResponseTime: 42,
		},
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id, err := store.SaveReport(ctx, sampleReport("run-1", true))
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	entry, err := store.Get(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "run-1", entry.TestID)
	assert.True(t, entry.Success)
	assert.Equal(t, "completed", entry.Status)
	assert.Equal(t, 100, entry.Score)
	assert.Equal(t, 2, entry.Total)
	assert.Equal(t, int64(42), entry.AverageResponseTime)
	assert.WithinDuration(t, time.Now(), entry.CreatedAt, time.Minute)

	require.NotNil(t, entry.Report)
	assert.Equal(t, "run-1", entry.Report.TestID)
	assert.Equal(t, engine.EngineName, entry.Report.Engine)
}

func TestStore_Recent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.SaveReport(ctx, sampleReport("run", i%2 == 0))
		require.NoError(t, err)
	}

	entries, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.Greater(t, entries[0].ID, entries[1].ID)
	assert.Greater(t, entries[1].ID, entries[2].ID)

	// Summaries only; the heavy payload stays unloaded.
	assert.Nil(t, entries[0].Report)
}

func TestStore_Get_NotFound(t *testing.T) {
	store := openStore(t)

	_, err := store.Get(context.Background(), 999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestOpen_ReopensExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	store, err := Open(path)
	require.NoError(t, err)
	id, err := store.SaveReport(context.Background(), sampleReport("persisted", true))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	entry, err := reopened.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "persisted", entry.TestID)
}
