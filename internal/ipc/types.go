package ipc

import "signbridge/internal/api"

// Run mirrors the HTTP API run DTO for internal IPC callers.
type Run = api.Run

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime information.
type StatusResponse struct {
	Running      bool     `json:"running"`
	PID          int      `json:"pid"`
	LedgerDBPath string   `json:"ledger_db_path"`
	LockPath     string   `json:"lock_path"`
	ActiveRun    *Run     `json:"active_run"`
	Languages    []string `json:"languages"`
}

// RunListRequest limits how many recorded runs are returned; zero means all.
type RunListRequest struct {
	Limit int `json:"limit"`
}

// RunListResponse contains recorded runs, most recent first.
type RunListResponse struct {
	Runs []Run `json:"runs"`
}

// RunDescribeRequest fetches a single run by id.
type RunDescribeRequest struct {
	ID string `json:"id"`
}

// RunDescribeResponse contains the requested run.
type RunDescribeResponse struct {
	Run Run `json:"run"`
}

// RunCancelRequest aborts the active run.
type RunCancelRequest struct {
	ID string `json:"id"`
}

// RunCancelResponse reports the cancelled run.
type RunCancelResponse struct {
	Run Run `json:"run"`
}

// RunRetryRequest resumes the active run at its failed stage.
type RunRetryRequest struct {
	ID string `json:"id"`
}

// RunRetryResponse reports the run as retry begins.
type RunRetryResponse struct {
	Run Run `json:"run"`
}

// RunClearRequest removes recorded runs from the ledger. FinishedOnly keeps
// failures for inspection.
type RunClearRequest struct {
	FinishedOnly bool `json:"finished_only"`
}

// RunClearResponse reports how many runs were removed.
type RunClearResponse struct {
	Removed int64 `json:"removed"`
}

// LogTailRequest reads daemon log lines starting at Offset. A negative
// offset returns the last Limit lines. Follow waits up to WaitMillis for
// new lines when none are available.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse carries log lines and the offset to resume from.
type LogTailResponse struct {
	Lines   []string `json:"lines"`
	Offset  int64    `json:"offset"`
	LogPath string   `json:"log_path"`
}
