package zoomvideo

// ImageDimensions is the pixel size of the fetched source image.
type ImageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Params holds the numbers derived from a request.
type Params struct {
	// TotalFrames is duration*fps truncated toward zero.
	TotalFrames int
	// ZoomFactor is the zoom reached on the last frame.
	ZoomFactor float64
}

// DeriveParams computes frame count and final zoom. The frame count is
// truncated, not rounded: 2.9999 frames is 2 frames.
func DeriveParams(durationSeconds, frameRate, zoomSpeedPerSecond float64) Params {
	return Params{
		TotalFrames: int(durationSeconds * frameRate),
		ZoomFactor:  1 + zoomSpeedPerSecond*durationSeconds,
	}
}
