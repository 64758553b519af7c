package models

import "time"

// JobRunStatus is the state of a scheduled job execution.
type JobRunStatus string

const (
	JobRunRunning   JobRunStatus = "running"
	JobRunSucceeded JobRunStatus = "succeeded"
	JobRunFailed    JobRunStatus = "failed"
)

// JobRun records one execution of a scheduled job.
type JobRun struct {
	ID         string       `gorm:"type:uuid;primaryKey" json:"id"`
	Job        string       `gorm:"not null;index" json:"job"`
	Status     JobRunStatus `gorm:"not null" json:"status"`
	RunDate    time.Time    `gorm:"type:date;not null" json:"run_date"`
	StartedAt  time.Time    `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
	Processed  int          `json:"processed"`
	Failed     int          `json:"failed"`
	Error      string       `json:"error,omitempty"`
}
