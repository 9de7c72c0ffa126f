package v1

import "zoomclip/internal/models"

// TransformVideoRequest is the body of POST /v1/image/transform/video.
// Length is seconds, FrameRate frames per second and ZoomSpeed zoom units
// per second. ID defaults to a generated job_<uuid>.
type TransformVideoRequest struct {
	ImageURL     string  `json:"image_url"`
	Length       float64 `json:"length"`
	FrameRate    float64 `json:"frame_rate"`
	ZoomSpeed    float64 `json:"zoom_speed"`
	ID           string  `json:"id,omitempty"`
	WebhookURL   string  `json:"webhook_url,omitempty"`
	OutputFormat string  `json:"output_format,omitempty"`
}

// JobRef is the minimal job view returned on enqueue.
type JobRef struct {
	ID     string           `json:"id"`
	Status models.JobStatus `json:"status"`
}

type TransformVideoResponse struct {
	Job JobRef `json:"job"`
}

type JobResponse struct {
	Job models.Job `json:"job"`
	// VideoURL is a presigned download link when the provider supports one.
	VideoURL string `json:"video_url,omitempty"`
}

type JobListResponse struct {
	Jobs []models.Job `json:"jobs"`
}
