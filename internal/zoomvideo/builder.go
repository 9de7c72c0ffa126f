// Package zoomvideo turns a single still image into a short zoom-in clip by
// computing crop, scale and zoompan parameters and running ffmpeg.
package zoomvideo

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"zoomclip/internal/pkg/errors"
	"zoomclip/internal/pkg/logger"
)

// DefaultStorageDir holds both fetched inputs and rendered outputs.
const DefaultStorageDir = "/tmp"

// Config wires a Builder. Zero values get the production implementations.
type Config struct {
	StorageDir  string
	EncoderPath string

	Fetcher    Fetcher
	Dimensions DimensionReader
	Runner     Runner
	Log        *logger.Logger

	// AfterEncode runs after a successful encode, while the fetched input
	// still exists. It cannot fail the build.
	AfterEncode func(ctx context.Context, inputPath string, res *Result)
}

// Builder renders zoom videos. It holds no per-call state and may be shared.
type Builder struct {
	storageDir  string
	encoderPath string
	fetcher     Fetcher
	dimensions  DimensionReader
	runner      Runner
	log         *logger.Logger
	afterEncode func(ctx context.Context, inputPath string, res *Result)
}

// Result describes a finished render.
type Result struct {
	JobID      string
	OutputPath string
	Dimensions ImageDimensions
	Preset     Preset
	Params     Params
	Args       []string
}

func New(cfg Config) *Builder {
	b := &Builder{
		storageDir:  cfg.StorageDir,
		encoderPath: cfg.EncoderPath,
		fetcher:     cfg.Fetcher,
		dimensions:  cfg.Dimensions,
		runner:      cfg.Runner,
		log:         cfg.Log,
		afterEncode: cfg.AfterEncode,
	}
	if b.storageDir == "" {
		b.storageDir = DefaultStorageDir
	}
	if b.encoderPath == "" {
		b.encoderPath = DefaultEncoder
	}
	if b.fetcher == nil {
		b.fetcher = NewSourceFetcher(nil, nil)
	}
	if b.dimensions == nil {
		b.dimensions = ConfigReader{}
	}
	if b.runner == nil {
		b.runner = ExecRunner{}
	}
	if b.log == nil {
		b.log = logger.NewDefault()
	}
	b.log = b.log.WithComponent("zoomvideo")
	return b
}

// OutputPath is where the video for jobID is written.
func (b *Builder) OutputPath(jobID string) string {
	return filepath.Join(b.storageDir, jobID+ContainerExt)
}

// Build renders req and returns the output path.
func (b *Builder) Build(ctx context.Context, req Request) (string, error) {
	res, err := b.BuildDetailed(ctx, req)
	if err != nil {
		return "", err
	}
	return res.OutputPath, nil
}

// BuildDetailed renders req synchronously. On success the fetched input is
// removed; on any failure it is left in place together with whatever the
// encoder wrote. Errors are logged here and returned unchanged.
func (b *Builder) BuildDetailed(ctx context.Context, req Request) (*Result, error) {
	ctx = logger.ContextWithJobID(ctx, req.JobID)
	log := b.log.FromContext(ctx)

	if err := req.Validate(); err != nil {
		return nil, b.fail(ctx, "zoomvideo.validate", err)
	}
	if err := os.MkdirAll(b.storageDir, 0o755); err != nil {
		return nil, b.fail(ctx, "zoomvideo.storage", errors.Filesystem(b.storageDir, err))
	}

	inputPath, err := b.fetcher.Fetch(ctx, req.ImageSource, b.storageDir, req.JobID)
	if err != nil {
		return nil, b.fail(ctx, "zoomvideo.fetch", err)
	}
	log.Info("downloaded image", "input_path", inputPath)

	dims, err := b.dimensions.Dimensions(inputPath)
	if err != nil {
		return nil, b.fail(ctx, "zoomvideo.dimensions", err)
	}
	log.Info("original dimensions", "width", dims.Width, "height", dims.Height)

	res := &Result{
		JobID:      req.JobID,
		OutputPath: b.OutputPath(req.JobID),
		Dimensions: dims,
		Preset:     ResolvePreset(req.OutputFormat, dims),
		Params:     DeriveParams(req.DurationSeconds, req.FrameRate, req.ZoomSpeedPerSecond),
	}

	log.Info("format resolved",
		"format", req.OutputFormat,
		"preset", res.Preset.Name,
		"intermediate", res.Preset.Intermediate(),
		"output", res.Preset.Output(),
	)
	log.Info("frame plan",
		"duration_s", req.DurationSeconds,
		"fps", req.FrameRate,
		"total_frames", res.Params.TotalFrames,
	)
	log.Info("zoom plan",
		"zoom_speed", req.ZoomSpeedPerSecond,
		"zoom_factor", res.Params.ZoomFactor,
	)

	res.Args = Command{
		ImagePath:          inputPath,
		OutputPath:         res.OutputPath,
		DurationSeconds:    req.DurationSeconds,
		FrameRate:          req.FrameRate,
		ZoomSpeedPerSecond: req.ZoomSpeedPerSecond,
		Preset:             res.Preset,
		Params:             res.Params,
	}.Args()

	// The argument list carries no -y, so a previous render for this job id
	// has to go before ffmpeg sees it.
	if err := os.Remove(res.OutputPath); err != nil && !os.IsNotExist(err) {
		return nil, b.fail(ctx, "zoomvideo.prepare", errors.Filesystem(res.OutputPath, err))
	}

	log.Info("running encoder", "command", b.encoderPath+" "+strings.Join(res.Args, " "))

	run, err := b.runner.Run(ctx, b.encoderPath, res.Args)
	if err != nil {
		return nil, b.fail(ctx, "zoomvideo.encode", errors.WrapWithCode(err, errors.CodeEncodingFailed, "", "encoder did not run to completion"))
	}
	if run.ExitCode != 0 {
		log.Error("encoder failed", "exit_code", run.ExitCode, "stderr", run.Stderr)
		return nil, b.fail(ctx, "zoomvideo.encode", errors.EncodingFailed(run.ExitCode, run.Stderr))
	}
	log.Info("video created", "output_path", res.OutputPath)

	if b.afterEncode != nil {
		b.afterEncode(ctx, inputPath, res)
	}

	if err := os.Remove(inputPath); err != nil {
		return nil, b.fail(ctx, "zoomvideo.cleanup", errors.Filesystem(inputPath, err))
	}

	return res, nil
}

func (b *Builder) fail(ctx context.Context, op string, err error) error {
	var e *errors.Error
	if errors.As(err, &e) && e.Op == "" {
		e.WithOp(op)
	}
	args := []any{
		"op", op,
		"code", string(errors.GetCode(err)),
	}
	for k, v := range errors.GetFields(err) {
		if k == errors.FieldStderr {
			continue
		}
		args = append(args, k, v)
	}
	b.log.LogError(ctx, "build zoom video failed", err, args...)
	return err
}
