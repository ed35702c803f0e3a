package eventstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(e *BaseEvent, ts time.Time) *BaseEvent {
	e.EventTimestamp = ts
	return e
}

func TestProject_SucceededAndFailedRuns(t *testing.T) {
	t0 := time.UnixMilli(1_700_000_000_000)

	started1, err := NewBuildStarted("run-1", BuildStartedPayload{Config: "/site/kapi.json", Trigger: "cli"})
	require.NoError(t, err)
	stage, err := NewStageCompleted("run-1", "collect", 250*time.Millisecond)
	require.NoError(t, err)
	finished, err := NewBuildFinished("run-1", BuildFinishedPayload{Files: 12, Collections: 2})
	require.NoError(t, err)

	started2, err := NewBuildStarted("run-2", BuildStartedPayload{Config: "/site/kapi.json"})
	require.NoError(t, err)
	failed, err := NewBuildFailed("run-2", BuildFailedPayload{Stage: "hooks", Error: "apidoc: boom"})
	require.NoError(t, err)

	runs := Project([]Event{
		at(started1, t0),
		at(stage, t0.Add(250*time.Millisecond)),
		at(finished, t0.Add(time.Second)),
		at(started2, t0.Add(time.Minute)),
		at(failed, t0.Add(time.Minute+2*time.Second)),
	})
	require.Len(t, runs, 2)

	newest := runs[0]
	assert.Equal(t, "run-2", newest.RunID)
	assert.Equal(t, StatusFailed, newest.Status)
	assert.Equal(t, "hooks", newest.ErrorStage)
	assert.Equal(t, "apidoc: boom", newest.ErrorMessage)
	assert.Equal(t, 2*time.Second, newest.Duration)

	oldest := runs[1]
	assert.Equal(t, StatusSucceeded, oldest.Status)
	assert.Equal(t, "cli", oldest.Trigger)
	assert.Equal(t, 12, oldest.Files)
	assert.Equal(t, 2, oldest.Collections)
	assert.Equal(t, []StageTiming{{Stage: "collect", Duration: 250 * time.Millisecond}}, oldest.Stages)
	require.NotNil(t, oldest.CompletedAt)
}

func TestProject_RunningAndIgnored(t *testing.T) {
	started, err := NewBuildStarted("run-1", BuildStartedPayload{})
	require.NoError(t, err)

	runs := Project([]Event{
		started,
		&BaseEvent{EventType: TypeBuildFinished},
		&BaseEvent{EventRunID: "run-1", EventType: "unknown"},
	})
	require.Len(t, runs, 1)
	assert.Equal(t, StatusRunning, runs[0].Status)
	assert.Nil(t, runs[0].CompletedAt)
}

func TestHistoryAndRun(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()
	base := time.Now().Add(-10 * time.Minute)

	for i, id := range []string{"a", "b", "c"} {
		ev, err := NewBuildStarted(id, BuildStartedPayload{})
		require.NoError(t, err)
		require.NoError(t, store.Append(ctx, at(ev, base.Add(time.Duration(i)*time.Minute))))
	}

	runs, err := History(ctx, store, time.Time{}, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].RunID)
	assert.Equal(t, "b", runs[1].RunID)

	run, ok, err := Run(ctx, store, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", run.RunID)

	_, ok, err = Run(ctx, store, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
