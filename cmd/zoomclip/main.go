// Command zoomclip renders one zoom video synchronously and prints the output
// path.
//
//	zoomclip -image https://example.com/cat.jpg -length 5 -fps 30 -zoom 0.1 -format square
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"zoomclip/internal/config"
	"zoomclip/internal/pkg/errors"
	"zoomclip/internal/pkg/ids"
	"zoomclip/internal/pkg/logger"
	"zoomclip/internal/thumbnail"
	"zoomclip/internal/zoomvideo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("zoomclip", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		image    = fs.String("image", "", "image URL, file:// URL or local path")
		length   = fs.Float64("length", 5, "video length in seconds")
		fps      = fs.Float64("fps", 30, "frames per second")
		zoom     = fs.Float64("zoom", 0.1, "zoom speed per second")
		id       = fs.String("id", "", "job id, defaults to a generated one")
		format   = fs.String("format", zoomvideo.DefaultFormat, "square, reels, landscape or auto")
		outDir   = fs.String("out-dir", config.Env("WORK_DIR", os.TempDir()), "directory for the fetched image and the video")
		ffmpeg   = fs.String("ffmpeg", config.Env("FFMPEG_PATH", zoomvideo.DefaultEncoder), "encoder binary")
		thumb    = fs.Bool("thumbnail", false, "also write <id>.jpg next to the video")
		logLevel = fs.String("log-level", config.Env("LOG_LEVEL", "warn"), "log level")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	log := logger.New(logger.Config{
		Level:       *logLevel,
		Format:      "text",
		Output:      stderr,
		ServiceName: "zoomclip",
	})

	jobID := *id
	if jobID == "" {
		jobID = ids.NewJobID()
	}

	cfg := zoomvideo.Config{
		StorageDir:  *outDir,
		EncoderPath: *ffmpeg,
		Log:         log,
	}
	var thumbs *thumbnail.Thumbnailer
	if *thumb {
		thumbs = thumbnail.New(*outDir, log)
		cfg.AfterEncode = thumbs.AfterEncode
	}

	res, err := zoomvideo.New(cfg).BuildDetailed(ctx, zoomvideo.Request{
		ImageSource:        *image,
		DurationSeconds:    *length,
		FrameRate:          *fps,
		ZoomSpeedPerSecond: *zoom,
		JobID:              jobID,
		OutputFormat:       *format,
	})
	if err != nil {
		fmt.Fprintf(stderr, "%s: %s\n", errors.GetCode(err), err.Error())
		if errors.IsValidation(err) {
			return 2
		}
		return 1
	}

	fmt.Fprintln(stdout, res.OutputPath)
	if thumbs != nil {
		if _, err := os.Stat(thumbs.Path(jobID)); err == nil {
			fmt.Fprintln(stdout, thumbs.Path(jobID))
		}
	}
	return 0
}
