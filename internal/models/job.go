package models

import "time"

// JobStatus is the lifecycle state of a render job.
type JobStatus string

const (
	JobQueued  JobStatus = "QUEUED"
	JobRunning JobStatus = "RUNNING"
	JobDone    JobStatus = "DONE"
	JobFailed  JobStatus = "FAILED"
)

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobQueued, JobRunning, JobDone, JobFailed:
		return true
	}
	return false
}

// Terminal reports whether the job will not change state again.
func (s JobStatus) Terminal() bool {
	return s == JobDone || s == JobFailed
}

// JobParams are the render inputs stored with the job.
type JobParams struct {
	ImageURL     string  `json:"image_url"`
	Length       float64 `json:"length"`
	FrameRate    float64 `json:"frame_rate"`
	ZoomSpeed    float64 `json:"zoom_speed"`
	OutputFormat string  `json:"output_format,omitempty"`
	WebhookURL   string  `json:"webhook_url,omitempty"`
}

// Job is one row of render_jobs.
type Job struct {
	ID             string     `json:"id"`
	Status         JobStatus  `json:"status"`
	Params         JobParams  `json:"params"`
	OutputKey      string     `json:"output_key,omitempty"`
	ThumbKey       string     `json:"thumb_key,omitempty"`
	OutputProvider string     `json:"output_provider,omitempty"`
	ErrorCode      string     `json:"error_code,omitempty"`
	ErrorText      string     `json:"error_text,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// JobOutputs are recorded when a job finishes successfully.
type JobOutputs struct {
	OutputKey string
	ThumbKey  string
	Provider  string
}
