package journal

import "time"

// Status represents the lifecycle of a render attempt.
type Status string

const (
	StatusPlanning  Status = "planning"
	StatusSplitting Status = "splitting"
	StatusEncoding  Status = "encoding"
	StatusMerging   Status = "merging"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status ends an attempt.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Record is one render attempt.
type Record struct {
	ID              int64
	RenderID        string
	AudioPath       string
	OutputPath      string
	Profile         string
	DurationSeconds float64
	ChunkCount      int
	Status          Status
	FailureKind     string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}
