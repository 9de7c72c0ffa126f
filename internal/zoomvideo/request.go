package zoomvideo

import (
	"math"
	"regexp"
	"strings"

	"zoomclip/internal/pkg/errors"
)

var jobIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// MaxTotalFrames caps duration times frame rate so the frame count always
// fits an int32 on the encoder side.
const MaxTotalFrames = math.MaxInt32

// Request is one still-image-to-video render.
type Request struct {
	// ImageSource is an http(s) URL, an object:// key, a file:// URL or a
	// local path.
	ImageSource        string
	DurationSeconds    float64
	FrameRate          float64
	ZoomSpeedPerSecond float64
	// JobID names the output file and must be unique across concurrent builds.
	JobID string
	// WebhookURL is carried for callers that notify on completion. Build
	// ignores it.
	WebhookURL string
	// OutputFormat is square, reels, landscape or auto. Anything else,
	// including "", renders as reels.
	OutputFormat string
}

// Validate rejects requests the encoder cannot render: non-positive duration
// or frame rate, negative zoom speed, fewer than one or more than
// MaxTotalFrames frames, or a job id that is not a safe file name. OutputFormat is never validated.
func (r Request) Validate() error {
	if strings.TrimSpace(r.ImageSource) == "" {
		return errors.ValidationField("image_source", "image source is required")
	}
	if !positive(r.DurationSeconds) {
		return errors.ValidationField("duration_seconds", "duration must be a positive number")
	}
	if !positive(r.FrameRate) {
		return errors.ValidationField("frame_rate", "frame rate must be a positive number")
	}
	if math.IsNaN(r.ZoomSpeedPerSecond) || math.IsInf(r.ZoomSpeedPerSecond, 0) || r.ZoomSpeedPerSecond < 0 {
		return errors.ValidationField("zoom_speed", "zoom speed must be zero or positive")
	}
	if r.DurationSeconds*r.FrameRate > MaxTotalFrames {
		return errors.ValidationField("frame_rate", "duration times frame rate exceeds the maximum frame count")
	}
	if DeriveParams(r.DurationSeconds, r.FrameRate, r.ZoomSpeedPerSecond).TotalFrames < 1 {
		return errors.ValidationField("frame_rate", "duration times frame rate must be at least one frame")
	}
	if !jobIDPattern.MatchString(r.JobID) {
		return errors.ValidationField("job_id", "job id must be non-empty and contain only letters, digits, '-' or '_'")
	}
	return nil
}

func positive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
