package syncrun

import "time"

type Status string

const (
	StatusRunning             Status = "running"
	StatusCompleted           Status = "completed"
	StatusCompletedWithErrors Status = "completed_with_errors"
	StatusAborted             Status = "aborted"
)

type Type string

const (
	TypeCompetitionImport Type = "competition_import"
	TypeBroadcastSync     Type = "broadcast_sync"
	TypeResultSync        Type = "result_sync"
)

// Counts aggregates the outcomes of one run. Processed and Skipped count
// work items; Created, Updated and Unchanged count entity writes.
type Counts struct {
	Processed     int `json:"processed"`
	Created       int `json:"created"`
	Updated       int `json:"updated"`
	Unchanged     int `json:"unchanged"`
	Skipped       int `json:"skipped"`
	UpstreamCalls int `json:"upstream_calls"`
}

// Record is the audit trail of one pipeline invocation. Immutable once
// finalized.
type Record struct {
	ID              string
	Type            Type
	Provider        string
	CompetitionCode string
	DryRun          bool
	Status          Status
	StartedAt       time.Time
	FinishedAt      *time.Time
	Counts          Counts
	Diagnostics     []string
	DroppedMessages int
	Metadata        map[string]any
	Error           string
}

func (r Record) IsFinal() bool {
	return r.Status != StatusRunning && r.FinishedAt != nil
}
