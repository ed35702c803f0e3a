// Package eventstore records build runs as an append-only event log in SQLite
// and projects it into run summaries.
package eventstore

import (
	"context"
	"encoding/json"
	"sort"
	"time"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// StageTiming is one completed stage of a run.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// RunSummary is the read model of one run.
type RunSummary struct {
	RunID        string        `json:"run_id"`
	Config       string        `json:"config,omitempty"`
	Trigger      string        `json:"trigger,omitempty"`
	Status       string        `json:"status"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	Stages       []StageTiming `json:"stages,omitempty"`
	Files        int           `json:"files"`
	Collections  int           `json:"collections"`
	ErrorStage   string        `json:"error_stage,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// Project folds events into run summaries, newest run first. Events of
// unknown type are ignored.
func Project(events []Event) []*RunSummary {
	runs := make(map[string]*RunSummary)
	var order []*RunSummary

	for _, event := range events {
		runID := event.RunID()
		if runID == "" {
			continue
		}
		summary, ok := runs[runID]
		if !ok {
			summary = &RunSummary{RunID: runID, Status: StatusRunning, StartedAt: event.Timestamp()}
			runs[runID] = summary
			order = append(order, summary)
		}
		apply(summary, event)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].StartedAt.After(order[j].StartedAt)
	})
	return order
}

func apply(summary *RunSummary, event Event) {
	switch event.Type() {
	case TypeBuildStarted:
		summary.StartedAt = event.Timestamp()
		summary.Status = StatusRunning
		var payload BuildStartedPayload
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Config = payload.Config
			summary.Trigger = payload.Trigger
		}

	case TypeStageCompleted:
		var payload StageCompletedPayload
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Stages = append(summary.Stages, StageTiming{
				Stage:    payload.Stage,
				Duration: time.Duration(payload.DurationMS) * time.Millisecond,
			})
		}

	case TypeBuildFinished:
		complete(summary, event, StatusSucceeded)
		var payload BuildFinishedPayload
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Files = payload.Files
			summary.Collections = payload.Collections
		}

	case TypeBuildFailed:
		complete(summary, event, StatusFailed)
		var payload BuildFailedPayload
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.ErrorStage = payload.Stage
			summary.ErrorMessage = payload.Error
		}
	}
}

func complete(summary *RunSummary, event Event, status string) {
	at := event.Timestamp()
	summary.CompletedAt = &at
	summary.Duration = at.Sub(summary.StartedAt)
	summary.Status = status
}

// History returns up to limit recent runs recorded since the given time,
// newest first. A non-positive limit returns every run.
func History(ctx context.Context, store Store, since time.Time, limit int) ([]*RunSummary, error) {
	events, err := store.GetRange(ctx, since, time.Now().Add(time.Hour))
	if err != nil {
		return nil, err
	}
	runs := Project(events)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Run returns the summary of a single run.
func Run(ctx context.Context, store Store, runID string) (*RunSummary, bool, error) {
	events, err := store.GetByRunID(ctx, runID)
	if err != nil {
		return nil, false, err
	}
	runs := Project(events)
	if len(runs) == 0 {
		return nil, false, nil
	}
	return runs[0], true, nil
}
