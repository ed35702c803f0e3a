package eventstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_AppendAndGetByRunID(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	ts := time.UnixMilli(1_700_000_000_123)
	require.NoError(t, store.Append(ctx, &BaseEvent{
		EventRunID:     "run-1",
		EventType:      TypeBuildStarted,
		EventTimestamp: ts,
		EventPayload:   []byte(`{"config":"kapi.json"}`),
		EventMetadata:  map[string]string{"host": "ci"},
	}))

	events, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.NotZero(t, e.ID())
	assert.Equal(t, "run-1", e.RunID())
	assert.Equal(t, TypeBuildStarted, e.Type())
	assert.True(t, ts.Equal(e.Timestamp()))
	assert.JSONEq(t, `{"config":"kapi.json"}`, string(e.Payload()))
	assert.Equal(t, "ci", e.Metadata()["host"])
}

func TestSQLiteStore_RunsAreSeparated(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	for _, id := range []string{"run-1", "run-2", "run-1"} {
		require.NoError(t, store.Append(ctx, &BaseEvent{EventRunID: id, EventType: TypeStageCompleted}))
	}

	events, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Less(t, events[0].ID(), events[1].ID())

	events, err = store.GetByRunID(ctx, "run-2")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestSQLiteStore_GetRange(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()
	base := time.Now().Add(-time.Hour)

	for i := range 3 {
		require.NoError(t, store.Append(ctx, &BaseEvent{
			EventRunID:     "run",
			EventType:      TypeStageCompleted,
			EventTimestamp: base.Add(time.Duration(i) * 10 * time.Minute),
		}))
	}

	events, err := store.GetRange(ctx, base.Add(5*time.Minute), time.Now())
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestSQLiteStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := t.Context()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	ev, err := NewBuildStarted("run-1", BuildStartedPayload{Config: "kapi.json"})
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, ev))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	events, err := reopened.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
