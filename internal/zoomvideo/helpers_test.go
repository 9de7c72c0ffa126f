package zoomvideo

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.WriteFile(path, pngBytes(t, w, h), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
}

// stubFetcher drops an empty placeholder file into dir.
type stubFetcher struct {
	err   error
	paths []string
}

func (f *stubFetcher) Fetch(_ context.Context, _ string, dir, jobID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	p := filepath.Join(dir, jobID+"-input.png")
	if err := os.WriteFile(p, nil, 0o644); err != nil {
		return "", err
	}
	f.paths = append(f.paths, p)
	return p, nil
}

type stubDimensions struct {
	dims ImageDimensions
	err  error
}

func (d stubDimensions) Dimensions(string) (ImageDimensions, error) {
	return d.dims, d.err
}

// stubRunner records invocations. On a zero exit code it writes the output
// path (the last argument) the way ffmpeg would.
type stubRunner struct {
	mu       sync.Mutex
	result   RunResult
	err      error
	calls    [][]string
	sawStale bool
}

func (r *stubRunner) Run(_ context.Context, name string, args []string) (RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, append([]string{name}, args...))
	out := args[len(args)-1]
	if _, err := os.Stat(out); err == nil {
		r.sawStale = true
	}
	if r.err != nil {
		return RunResult{}, r.err
	}
	if r.result.ExitCode == 0 {
		if err := os.WriteFile(out, []byte("mp4"), 0o644); err != nil {
			return RunResult{}, err
		}
	} else {
		_ = os.WriteFile(out, []byte("partial"), 0o644)
	}
	return r.result, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
