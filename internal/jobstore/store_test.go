package jobstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "jobs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_CreateAndGet(t *testing.T) {
	// Arrange
	store := newTestStore(t)
	ctx := context.Background()

	// Act
	created, err := store.Create(ctx, 1, 1, 7, "abdul_basit", "en.sahih", "nature")
	require.NoError(t, err)
	fetched, err := store.Get(ctx, created.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, StatusQueued, fetched.Status)
	assert.Equal(t, 1, fetched.Surah)
	assert.Equal(t, 7, fetched.EndAyah)
	assert.Equal(t, "abdul_basit", fetched.Reciter)
	assert.False(t, fetched.CreatedAt.IsZero())
}

func TestStore_Get_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "no-such-job")

	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestStore_StatusLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	job, err := store.Create(ctx, 112, 1, 4, "r", "t", "b")
	require.NoError(t, err)

	require.NoError(t, store.MarkProcessing(ctx, job.ID))
	require.NoError(t, store.MarkCompleted(ctx, job.ID, "/out/video.mp4"))

	final, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, final.Status)
	assert.Equal(t, "/out/video.mp4", final.OutputPath)
}

func TestStore_InvalidTransitionRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	job, err := store.Create(ctx, 112, 1, 4, "r", "t", "b")
	require.NoError(t, err)

	// queued -> completed skips processing
	err = store.MarkCompleted(ctx, job.ID, "/out/video.mp4")
	assert.Error(t, err)

	// Completed jobs are terminal
	require.NoError(t, store.MarkProcessing(ctx, job.ID))
	require.NoError(t, store.MarkCompleted(ctx, job.ID, "/out/video.mp4"))
	assert.Error(t, store.MarkFailed(ctx, job.ID, "too late"))
}

func TestStore_MarkFailedFromQueued(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	job, err := store.Create(ctx, 112, 1, 4, "r", "t", "b")
	require.NoError(t, err)

	require.NoError(t, store.MarkFailed(ctx, job.ID, "audio fetch failed"))

	failed, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "audio fetch failed", failed.Error)
}

func TestStore_List(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := store.Create(ctx, 1, 1, 7, "r", "t", "b")
		require.NoError(t, err)
	}

	jobs, err := store.List(ctx, 2)

	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, StatusQueued.CanTransitionTo(StatusProcessing))
	assert.True(t, StatusQueued.CanTransitionTo(StatusFailed))
	assert.True(t, StatusProcessing.CanTransitionTo(StatusCompleted))
	assert.False(t, StatusQueued.CanTransitionTo(StatusCompleted))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusProcessing))
	assert.False(t, StatusFailed.CanTransitionTo(StatusQueued))
}
