package history

import "time"

// Status represents the lifecycle of a recorded transcription job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var knownStatuses = map[Status]struct{}{
	StatusRunning:   {},
	StatusCompleted: {},
	StatusFailed:    {},
}

// Valid reports whether the status is one quill writes.
func (s Status) Valid() bool {
	_, ok := knownStatuses[s]
	return ok
}

// Entry is a single transcription job recorded in the history database.
type Entry struct {
	ID              int64
	CreatedAt       time.Time
	CompletedAt     *time.Time
	SourceURL       string
	Title           string
	OutputPath      string
	Model           string
	Speakers        string
	Status          Status
	ErrorMessage    string
	DurationSeconds float64
}

// Finished reports whether the entry reached a terminal status.
func (e *Entry) Finished() bool {
	return e.Status == StatusCompleted || e.Status == StatusFailed
}
