//go:build unit

package directory_test

import (
	"testing"
	"time"

	"telehealth-core/internal/infra/directory"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

const heartbeatTTL = 30 * time.Second

func newStore(t *testing.T) *directory.PresenceStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return directory.NewPresenceStore(client, heartbeatTTL)
}

func TestHeartbeatAndSnapshot(t *testing.T) {
	store := newStore(t)
	id := uuid.New()

	require.NoError(t, store.Heartbeat(t.Context(), id, true, testNow))

	entries, err := store.Snapshot(t.Context(), testNow)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].SpecialistID)
	assert.True(t, entries[0].Accepting)
	assert.Zero(t, entries[0].InFlight)
}

func TestSnapshotPrunesStaleHeartbeats(t *testing.T) {
	store := newStore(t)
	stale := uuid.New()
	fresh := uuid.New()

	require.NoError(t, store.Heartbeat(t.Context(), stale, true, testNow))
	require.NoError(t, store.Heartbeat(t.Context(), fresh, true, testNow.Add(heartbeatTTL)))

	entries, err := store.Snapshot(t.Context(), testNow.Add(heartbeatTTL+time.Second))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, fresh, entries[0].SpecialistID)
}

func TestHeartbeatTogglesAccepting(t *testing.T) {
	store := newStore(t)
	id := uuid.New()

	require.NoError(t, store.Heartbeat(t.Context(), id, true, testNow))
	require.NoError(t, store.Heartbeat(t.Context(), id, false, testNow.Add(time.Second)))

	entries, err := store.Snapshot(t.Context(), testNow.Add(2*time.Second))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Accepting)
}

func TestMarkOffline(t *testing.T) {
	store := newStore(t)
	id := uuid.New()

	require.NoError(t, store.Heartbeat(t.Context(), id, true, testNow))
	require.NoError(t, store.MarkOffline(t.Context(), id))

	entries, err := store.Snapshot(t.Context(), testNow)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAssignmentTracking(t *testing.T) {
	store := newStore(t)
	id := uuid.New()
	require.NoError(t, store.Heartbeat(t.Context(), id, true, testNow))

	t.Run("assignments increment in-flight and set last assigned", func(t *testing.T) {
		require.NoError(t, store.RecordAssignment(t.Context(), id, testNow))
		require.NoError(t, store.RecordAssignment(t.Context(), id, testNow.Add(time.Minute)))

		entries, err := store.Snapshot(t.Context(), testNow)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 2, entries[0].InFlight)
		assert.True(t, entries[0].LastAssignedAt.Equal(testNow.Add(time.Minute)))
	})

	t.Run("release decrements down to zero", func(t *testing.T) {
		require.NoError(t, store.ReleaseAssignment(t.Context(), id))
		require.NoError(t, store.ReleaseAssignment(t.Context(), id))

		entries, err := store.Snapshot(t.Context(), testNow)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Zero(t, entries[0].InFlight)
	})

	t.Run("release below zero is harmless", func(t *testing.T) {
		require.NoError(t, store.ReleaseAssignment(t.Context(), id))

		entries, err := store.Snapshot(t.Context(), testNow)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Zero(t, entries[0].InFlight)
	})
}
