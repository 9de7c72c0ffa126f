package zoomvideo

import (
	"image"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"zoomclip/internal/pkg/errors"
)

// DimensionReader reports the pixel size of a local image.
type DimensionReader interface {
	Dimensions(path string) (ImageDimensions, error)
}

// ConfigReader decodes only the image header.
type ConfigReader struct{}

func (ConfigReader) Dimensions(path string) (ImageDimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImageDimensions{}, errors.DimensionReadFailed(path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return ImageDimensions{}, errors.DimensionReadFailed(path, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ImageDimensions{}, errors.DimensionReadFailed(path, nil)
	}
	return ImageDimensions{Width: cfg.Width, Height: cfg.Height}, nil
}
