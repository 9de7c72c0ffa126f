// Package thumbnail writes a JPEG poster frame for a rendered zoom video.
package thumbnail

import (
	"context"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"zoomclip/internal/pkg/logger"
	"zoomclip/internal/zoomvideo"
)

// DefaultQuality is the JPEG quality used for thumbnails.
const DefaultQuality = 85

// Thumbnailer writes a poster frame next to each rendered video. It runs as
// the builder's AfterEncode hook, while the fetched source image still exists.
type Thumbnailer struct {
	dir     string
	quality int
	log     *logger.Logger
}

func New(dir string, log *logger.Logger) *Thumbnailer {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Thumbnailer{dir: dir, quality: DefaultQuality, log: log.WithComponent("thumbnail")}
}

// Path is where the thumbnail for jobID is written.
func (t *Thumbnailer) Path(jobID string) string {
	return filepath.Join(t.dir, jobID+".jpg")
}

// Reset removes a thumbnail left over from an earlier run of jobID.
func (t *Thumbnailer) Reset(jobID string) {
	_ = os.Remove(t.Path(jobID))
}

// AfterEncode crops the source to the preset's output size. Failures are
// logged; a job without a thumbnail still succeeds.
func (t *Thumbnailer) AfterEncode(ctx context.Context, inputPath string, res *zoomvideo.Result) {
	log := t.log.FromContext(logger.ContextWithJobID(ctx, res.JobID))
	if err := t.generate(inputPath, res); err != nil {
		log.WithError(err).Warn("thumbnail failed", "input_path", inputPath)
		return
	}
	log.Info("thumbnail created", "path", t.Path(res.JobID))
}

func (t *Thumbnailer) generate(inputPath string, res *zoomvideo.Result) error {
	img, err := imaging.Open(inputPath, imaging.AutoOrientation(true))
	if err != nil {
		return err
	}
	thumb := imaging.Fill(img, res.Preset.OutputWidth, res.Preset.OutputHeight, imaging.Center, imaging.Lanczos)
	return imaging.Save(thumb, t.Path(res.JobID), imaging.JPEGQuality(t.quality))
}
