package v1

import "time"

// Payload is POSTed to a job's webhook_url once the job is DONE or FAILED.
// Object keys are provider keys (Drive file ids for gdrive).
type Payload struct {
	JobID          string     `json:"job_id"`
	Status         string     `json:"status"`
	VideoObjectKey string     `json:"video_object_key,omitempty"`
	ThumbObjectKey string     `json:"thumb_object_key,omitempty"`
	Provider       string     `json:"provider,omitempty"`
	Error          *ErrorInfo `json:"error,omitempty"`
	FinishedAt     time.Time  `json:"finished_at"`
}

// ErrorInfo carries the failure code and message of a FAILED job.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
