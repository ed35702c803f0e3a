package build

import "time"

// Stage names.
const (
	StageRegister  = "register"
	StagePrepare   = "prepare"
	StageCollect   = "collect"
	StageHooks     = "hooks"
	StageLoad      = "load"
	StageTransform = "transform"
	StageWrite     = "write"
)

// Status is the outcome of a run.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// IsSuccess reports whether the run completed.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// StageResult is the timing of one completed stage.
type StageResult struct {
	Name     string
	Duration time.Duration
}

// Report describes a run, successful or not.
type Report struct {
	RunID     string
	Status    Status
	StartedAt time.Time
	Duration  time.Duration

	// Stages lists completed stages in execution order. FailedStage names the
	// stage that stopped the run.
	Stages      []StageResult
	FailedStage string

	// Output is the directory the file set was written to.
	Output string

	Files            int
	Collections      int
	Expanded         int
	Produced         int
	DuplicateSignals int64
}
