package zoomvideo

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultEncoder = "ffmpeg"
	VideoCodec     = "libx264"
	PixelFormat    = "yuv420p"
	ContainerExt   = ".mp4"
)

// Command describes one encoder invocation.
type Command struct {
	ImagePath          string
	OutputPath         string
	DurationSeconds    float64
	FrameRate          float64
	ZoomSpeedPerSecond float64
	Preset             Preset
	Params             Params
}

// FilterGraph returns the -vf value: cover-fit scale and crop to the
// intermediate size, then a zoompan that grows linearly from 1 to ZoomFactor
// over TotalFrames while keeping the window centered.
func (c Command) FilterGraph() string {
	size := c.Preset.Intermediate()
	zoom := fmt.Sprintf("min(1+(%s*%s)*on/%d,%s)",
		formatNumber(c.ZoomSpeedPerSecond),
		formatNumber(c.DurationSeconds),
		c.Params.TotalFrames,
		formatNumber(c.Params.ZoomFactor),
	)

	return "scale=" + size + ":force_original_aspect_ratio=cover,crop=" + size + "," +
		"zoompan=z='" + zoom + "':d=" + strconv.Itoa(c.Params.TotalFrames) +
		":x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':s=" + c.Preset.Output()
}

// Args returns the ordered encoder arguments, excluding the binary name.
func (c Command) Args() []string {
	return []string{
		"-framerate", formatNumber(c.FrameRate),
		"-loop", "1",
		"-i", c.ImagePath,
		"-vf", c.FilterGraph(),
		"-c:v", VideoCodec,
		"-t", formatNumber(c.DurationSeconds),
		"-pix_fmt", PixelFormat,
		c.OutputPath,
	}
}

// formatNumber prints the shortest representation that round-trips: 30, 0.1,
// 1.5. Decimal exponents below -4 or from 16 up switch to exponent form
// (1e-05, 1e+16).
func formatNumber(v float64) string {
	e := strconv.FormatFloat(v, 'e', -1, 64)
	if i := strings.LastIndexByte(e, 'e'); i >= 0 {
		if exp, err := strconv.Atoi(e[i+1:]); err == nil && (exp < -4 || exp >= 16) {
			return e
		}
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
