package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/kapi/internal/foundation/errors"
)

// Event types.
const (
	TypeBuildStarted   = "build.started"
	TypeStageCompleted = "stage.completed"
	TypeBuildFinished  = "build.finished"
	TypeBuildFailed    = "build.failed"
)

// BuildStartedPayload describes the configuration a run was started with.
type BuildStartedPayload struct {
	Config      string `json:"config"`
	Destination string `json:"destination"`
	Trigger     string `json:"trigger,omitempty"`
}

// StageCompletedPayload records one finished stage.
type StageCompletedPayload struct {
	Stage      string `json:"stage"`
	DurationMS int64  `json:"duration_ms"`
}

// BuildFinishedPayload summarises a successful run.
type BuildFinishedPayload struct {
	DurationMS  int64 `json:"duration_ms"`
	Files       int   `json:"files"`
	Collections int   `json:"collections"`
}

// BuildFailedPayload records the stage and error that stopped a run.
type BuildFailedPayload struct {
	Stage      string `json:"stage"`
	Category   string `json:"category,omitempty"`
	Error      string `json:"error"`
	DurationMS int64  `json:"duration_ms"`
}

// NewBuildStarted creates a build.started event.
func NewBuildStarted(runID string, p BuildStartedPayload) (*BaseEvent, error) {
	return newEvent(runID, TypeBuildStarted, p)
}

// NewStageCompleted creates a stage.completed event.
func NewStageCompleted(runID, stage string, d time.Duration) (*BaseEvent, error) {
	return newEvent(runID, TypeStageCompleted, StageCompletedPayload{Stage: stage, DurationMS: d.Milliseconds()})
}

// NewBuildFinished creates a build.finished event.
func NewBuildFinished(runID string, p BuildFinishedPayload) (*BaseEvent, error) {
	return newEvent(runID, TypeBuildFinished, p)
}

// NewBuildFailed creates a build.failed event.
func NewBuildFailed(runID string, p BuildFailedPayload) (*BaseEvent, error) {
	return newEvent(runID, TypeBuildFailed, p)
}

func newEvent(runID, eventType string, body any) (*BaseEvent, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "failed to marshal event payload").
			WithContext("run_id", runID).
			WithContext("type", eventType).
			Build()
	}
	return &BaseEvent{
		EventRunID:     runID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   payload,
	}, nil
}
