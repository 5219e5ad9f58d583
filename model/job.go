package model

// Sync job kinds and statuses.
const (
	JobKindPull   = "pull"
	JobKindPush   = "push"
	JobKindImport = "import"

	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// SyncJob is one recorded pull, push or import run.
type SyncJob struct {
	ID         int    `json:"id"`
	UUID       string `json:"uuid"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	Detail     string `json:"detail"`
	StartedTs  int64  `json:"startedTs"`
	FinishedTs int64  `json:"finishedTs"`
}
