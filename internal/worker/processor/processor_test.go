package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"zoomclip/internal/adapters/storage/localfs"
	v1 "zoomclip/internal/contracts/webhook/v1"
	"zoomclip/internal/models"
	"zoomclip/internal/pkg/errors"
	"zoomclip/internal/pkg/logger"
	"zoomclip/internal/thumbnail"
	"zoomclip/internal/worker/webhook"
	"zoomclip/internal/zoomvideo"
)

type memJobs struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
}

func newMemJobs(jobs ...*models.Job) *memJobs {
	m := &memJobs{jobs: map[string]*models.Job{}}
	for _, j := range jobs {
		j.Status = models.JobQueued
		m.jobs[j.ID] = j
	}
	return m
}

func (m *memJobs) Get(_ context.Context, id string) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, errors.NotFound("job", id)
	}
	cp := *j
	return &cp, nil
}

func (m *memJobs) MarkRunning(_ context.Context, id string) error {
	return m.set(id, func(j *models.Job) { j.Status = models.JobRunning })
}

func (m *memJobs) MarkDone(_ context.Context, id string, out models.JobOutputs) error {
	return m.set(id, func(j *models.Job) {
		j.Status = models.JobDone
		j.OutputKey = out.OutputKey
		j.ThumbKey = out.ThumbKey
		j.OutputProvider = out.Provider
	})
}

func (m *memJobs) MarkFailed(_ context.Context, id, code, text string) error {
	return m.set(id, func(j *models.Job) {
		j.Status = models.JobFailed
		j.ErrorCode = code
		j.ErrorText = text
	})
}

func (m *memJobs) set(id string, fn func(*models.Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return errors.NotFound("job", id)
	}
	fn(j)
	return nil
}

// fakeBuilder writes a placeholder video and runs the thumbnail hook against
// a real PNG, the way zoomvideo.Builder does.
type fakeBuilder struct {
	dir    string
	thumbs *thumbnail.Thumbnailer
	err    error
	got    zoomvideo.Request
}

func (b *fakeBuilder) BuildDetailed(ctx context.Context, req zoomvideo.Request) (*zoomvideo.Result, error) {
	b.got = req
	if b.err != nil {
		return nil, b.err
	}

	input := filepath.Join(b.dir, req.JobID+"-src.png")
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(0, 0, color.White)
	f, err := os.Create(input)
	if err != nil {
		return nil, err
	}
	_ = png.Encode(f, img)
	f.Close()

	preset, _ := zoomvideo.LookupPreset(zoomvideo.FormatSquare)
	res := &zoomvideo.Result{
		JobID:      req.JobID,
		OutputPath: filepath.Join(b.dir, req.JobID+".mp4"),
		Preset:     preset,
	}
	if err := os.WriteFile(res.OutputPath, []byte("mp4 data"), 0o644); err != nil {
		return nil, err
	}
	if b.thumbs != nil {
		b.thumbs.AfterEncode(ctx, input, res)
	}
	return res, os.Remove(input)
}

type hookRecorder struct {
	mu       sync.Mutex
	payloads []v1.Payload
	srv      *httptest.Server
}

func newHookRecorder(t *testing.T) *hookRecorder {
	h := &hookRecorder{}
	h.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p v1.Payload
		_ = json.NewDecoder(r.Body).Decode(&p)
		h.mu.Lock()
		h.payloads = append(h.payloads, p)
		h.mu.Unlock()
	}))
	t.Cleanup(h.srv.Close)
	return h
}

type fixture struct {
	proc    *Processor
	jobs    *memJobs
	builder *fakeBuilder
	root    string
	workDir string
	hooks   *hookRecorder
	logs    *bytes.Buffer
}

func newFixture(t *testing.T, job *models.Job) *fixture {
	t.Helper()
	workDir := t.TempDir()
	root := t.TempDir()
	hooks := newHookRecorder(t)
	if job.Params.WebhookURL == "" {
		job.Params.WebhookURL = hooks.srv.URL
	}

	logs := &bytes.Buffer{}
	log := logger.New(logger.Config{Level: "error", Output: logs})
	thumbs := thumbnail.New(workDir, log)
	jobs := newMemJobs(job)
	builder := &fakeBuilder{dir: workDir, thumbs: thumbs}

	proc := New(Deps{
		Jobs:    jobs,
		Builder: builder,
		Thumbs:  thumbs,
		SP:      localfs.New(root),
		Webhook: webhook.NewHTTPClient(time.Second),
		Log:     log,
	})
	return &fixture{proc: proc, jobs: jobs, builder: builder, root: root, workDir: workDir, hooks: hooks, logs: logs}
}

func testJob(id string) *models.Job {
	return &models.Job{
		ID: id,
		Params: models.JobParams{
			ImageURL:     "https://example.com/a.png",
			Length:       5,
			FrameRate:    30,
			ZoomSpeed:    0.1,
			OutputFormat: "square",
		},
	}
}

func TestProcessJobSuccess(t *testing.T) {
	fx := newFixture(t, testJob("job_ok"))

	if err := fx.proc.ProcessJob(context.Background(), "job_ok"); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}

	if fx.builder.got.DurationSeconds != 5 || fx.builder.got.OutputFormat != "square" || fx.builder.got.JobID != "job_ok" {
		t.Errorf("unexpected build request: %+v", fx.builder.got)
	}

	job, _ := fx.jobs.Get(context.Background(), "job_ok")
	if job.Status != models.JobDone {
		t.Fatalf("status = %s", job.Status)
	}
	if job.OutputKey != "renders/job_ok/job_ok.mp4" || job.ThumbKey != "renders/job_ok/job_ok.jpg" || job.OutputProvider != "localfs" {
		t.Errorf("unexpected outputs: %+v", job)
	}

	if _, err := os.Stat(filepath.Join(fx.root, "renders", "job_ok", "job_ok.mp4")); err != nil {
		t.Errorf("video not uploaded: %v", err)
	}
	thumb, err := imaging.Open(filepath.Join(fx.root, "renders", "job_ok", "job_ok.jpg"))
	if err != nil {
		t.Fatalf("thumbnail not uploaded: %v", err)
	}
	if b := thumb.Bounds(); b.Dx() != 720 || b.Dy() != 720 {
		t.Errorf("thumbnail size = %dx%d, want 720x720", b.Dx(), b.Dy())
	}

	// localfs keeps the work directory copy.
	if _, err := os.Stat(filepath.Join(fx.workDir, "job_ok.mp4")); err != nil {
		t.Errorf("local output should be kept for localfs: %v", err)
	}

	if len(fx.hooks.payloads) != 1 {
		t.Fatalf("expected one webhook, got %d", len(fx.hooks.payloads))
	}
	p := fx.hooks.payloads[0]
	if p.Status != "DONE" || p.VideoObjectKey != job.OutputKey || p.ThumbObjectKey != job.ThumbKey || p.Error != nil {
		t.Errorf("unexpected payload: %+v", p)
	}
}

func TestProcessJobBuildFailure(t *testing.T) {
	fx := newFixture(t, testJob("job_bad"))
	fx.builder.err = errors.EncodingFailed(1, "invalid data")

	err := fx.proc.ProcessJob(context.Background(), "job_bad")
	if !errors.IsCode(err, errors.CodeEncodingFailed) {
		t.Fatalf("expected ENCODING_FAILED, got %v", err)
	}

	job, _ := fx.jobs.Get(context.Background(), "job_bad")
	if job.Status != models.JobFailed || job.ErrorCode != "ENCODING_FAILED" {
		t.Errorf("unexpected job: %+v", job)
	}

	if len(fx.hooks.payloads) != 1 {
		t.Fatalf("expected one webhook, got %d", len(fx.hooks.payloads))
	}
	p := fx.hooks.payloads[0]
	if p.Status != "FAILED" || p.Error == nil || p.Error.Code != "ENCODING_FAILED" {
		t.Errorf("unexpected payload: %+v", p)
	}

	logs := fx.logs.String()
	for _, want := range []string{`"msg":"job failed"`, `"job_id":"job_bad"`, `"code":"ENCODING_FAILED"`, "processor.go"} {
		if !strings.Contains(logs, want) {
			t.Errorf("failure log missing %s:\n%s", want, logs)
		}
	}
}

func TestProcessJobCanceledStillMarksFailed(t *testing.T) {
	fx := newFixture(t, testJob("job_cancel"))
	fx.builder.err = errors.WrapWithCode(context.Canceled, errors.CodeEncodingFailed, "", "encoder did not run to completion")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_ = fx.proc.ProcessJob(ctx, "job_cancel")

	job, _ := fx.jobs.Get(context.Background(), "job_cancel")
	if job.Status != models.JobFailed {
		t.Errorf("status = %s, want FAILED", job.Status)
	}
	if len(fx.hooks.payloads) != 1 {
		t.Errorf("expected webhook despite canceled context, got %d", len(fx.hooks.payloads))
	}
}

func TestProcessJobSkipsFinished(t *testing.T) {
	fx := newFixture(t, testJob("job_done"))
	_ = fx.jobs.MarkDone(context.Background(), "job_done", models.JobOutputs{OutputKey: "k"})

	if err := fx.proc.ProcessJob(context.Background(), "job_done"); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}
	if fx.builder.got.JobID != "" {
		t.Error("finished jobs must not be rebuilt")
	}
	if len(fx.hooks.payloads) != 0 {
		t.Error("finished jobs must not be re-notified")
	}
}

func TestProcessJobMissing(t *testing.T) {
	fx := newFixture(t, testJob("job_x"))

	err := fx.proc.ProcessJob(context.Background(), "job_missing")
	if !errors.IsNotFound(err) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

type remoteStore struct {
	*localfs.LocalFS
}

func (remoteStore) Provider() string { return "s3" }

func TestCleanupRemovesLocalFilesForRemoteProviders(t *testing.T) {
	workDir := t.TempDir()
	video := filepath.Join(workDir, "v.mp4")
	thumb := filepath.Join(workDir, "v.jpg")
	for _, p := range []string{video, thumb} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	NewCleanup(false, remoteStore{localfs.New(t.TempDir())}, logger.Discard()).CleanupJob(video, thumb)
	if _, err := os.Stat(video); err != nil {
		t.Fatal("cleanup disabled must keep files")
	}

	NewCleanup(true, localfs.New(t.TempDir()), logger.Discard()).CleanupJob(video, thumb)
	if _, err := os.Stat(video); err != nil {
		t.Fatal("localfs must keep files")
	}

	NewCleanup(true, remoteStore{localfs.New(t.TempDir())}, logger.Discard()).CleanupJob(video, thumb, "")
	for _, p := range []string{video, thumb} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s should be removed", p)
		}
	}
}

func TestNotifyWithoutURL(t *testing.T) {
	calls := 0
	n := NewNotify(notifierFunc(func(context.Context, string, v1.Payload) error {
		calls++
		return fmt.Errorf("unreachable")
	}), logger.Discard())

	n.Done(context.Background(), &models.Job{ID: "a"}, models.JobOutputs{})
	if calls != 0 {
		t.Error("no webhook url means no delivery")
	}

	n.Failed(context.Background(), &models.Job{ID: "a", Params: models.JobParams{WebhookURL: "http://x"}}, fmt.Errorf("boom"))
	if calls != 1 {
		t.Error("expected one attempt")
	}
}

type notifierFunc func(ctx context.Context, url string, p v1.Payload) error

func (f notifierFunc) Notify(ctx context.Context, url string, p v1.Payload) error {
	return f(ctx, url, p)
}
