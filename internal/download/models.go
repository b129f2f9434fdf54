package download

import (
	"strings"
	"time"
)

// Status is the lifecycle state of one episode within a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func parseStatus(value string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusCompleted:
		return StatusCompleted
	case StatusFailed:
		return StatusFailed
	default:
		return StatusPending
	}
}

// Job is a persisted multi-episode download.
type Job struct {
	ID             string
	ServerClientID string
	ServerName     string
	Library        string
	Show           string
	Folder         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	FinishedAt     time.Time
	Episodes       []JobEpisode
}

// JobEpisode is one entry of a job. RatingKey is re-fetched from the server at
// download time, so the entry stays valid across reconnects.
type JobEpisode struct {
	RatingKey    string
	Title        string
	Season       int
	Index        int
	Status       Status
	ErrorMessage string
}

// Counts tallies episodes by status.
func (j *Job) Counts() (pending, completed, failed int) {
	for _, ep := range j.Episodes {
		switch ep.Status {
		case StatusCompleted:
			completed++
		case StatusFailed:
			failed++
		default:
			pending++
		}
	}
	return pending, completed, failed
}

// Done reports whether every episode completed.
func (j *Job) Done() bool {
	pending, _, failed := j.Counts()
	return pending == 0 && failed == 0
}
