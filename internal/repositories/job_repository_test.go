package repositories

import (
	"context"
	"os"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"

	"zoomclip/internal/models"
	"zoomclip/internal/pkg/errors"
	"zoomclip/internal/pkg/ids"
)

func TestTruncateErrorText(t *testing.T) {
	short := "encoder exited with code 1"
	if got := TruncateErrorText(short); got != short {
		t.Errorf("short text changed: %q", got)
	}

	long := strings.Repeat("x", MaxErrorText+10)
	if got := TruncateErrorText(long); len(got) != MaxErrorText {
		t.Errorf("len = %d, want %d", len(got), MaxErrorText)
	}

	// A multi-byte rune straddling the limit is dropped whole.
	multi := strings.Repeat("a", MaxErrorText-1) + "é" + "tail"
	got := TruncateErrorText(multi)
	if !utf8.ValidString(got) || len(got) != MaxErrorText-1 {
		t.Errorf("len = %d valid = %v", len(got), utf8.ValidString(got))
	}
}

// newTestRepo connects to TEST_DATABASE_URL or skips.
func newTestRepo(t *testing.T) *JobRepository {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	repo := NewJobRepository(pool)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return repo
}

func TestJobLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job := &models.Job{
		ID: ids.NewJobID(),
		Params: models.JobParams{
			ImageURL:  "https://example.com/a.jpg",
			Length:    5,
			FrameRate: 30,
			ZoomSpeed: 0.1,
		},
	}
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, job); !errors.IsCode(err, errors.CodeConflict) {
		t.Errorf("expected CONFLICT on duplicate id, got %v", err)
	}

	got, err := repo.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.JobQueued || got.Params != job.Params {
		t.Errorf("unexpected job: %+v", got)
	}

	if err := repo.MarkRunning(ctx, job.ID); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	if err := repo.MarkDone(ctx, job.ID, models.JobOutputs{OutputKey: "renders/x/x.mp4", Provider: "localfs"}); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if err := repo.MarkFailed(ctx, job.ID, "ENCODING_FAILED", "late"); !errors.IsCode(err, errors.CodeFailedPrecond) {
		t.Errorf("expected FAILED_PRECONDITION for finished job, got %v", err)
	}

	got, _ = repo.Get(ctx, job.ID)
	if got.Status != models.JobDone || got.OutputKey != "renders/x/x.mp4" || got.ThumbKey != "" || got.FinishedAt == nil {
		t.Errorf("unexpected finished job: %+v", got)
	}

	done, err := repo.List(ctx, models.JobDone, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	found := false
	for _, j := range done {
		found = found || j.ID == job.ID
		if j.Status != models.JobDone {
			t.Errorf("status filter leaked %s", j.Status)
		}
	}
	if !found {
		t.Error("expected job in DONE list")
	}
}

func TestMarkFailedAndMissing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job := &models.Job{ID: ids.NewJobID(), Params: models.JobParams{ImageURL: "x", Length: 1, FrameRate: 1}}
	if err := repo.Create(ctx, job); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkFailed(ctx, job.ID, "FETCH_FAILED", strings.Repeat("e", 5000)); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	got, _ := repo.Get(ctx, job.ID)
	if got.Status != models.JobFailed || len(got.ErrorText) != MaxErrorText || got.ErrorCode != "FETCH_FAILED" {
		t.Errorf("unexpected failed job: status=%s code=%s len=%d", got.Status, got.ErrorCode, len(got.ErrorText))
	}

	if _, err := repo.Get(ctx, "no-such-job"); !errors.IsNotFound(err) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
	if err := repo.MarkRunning(ctx, "no-such-job"); !errors.IsNotFound(err) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestDeleteOnlyQueued(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	queued := &models.Job{ID: ids.NewJobID(), Params: models.JobParams{ImageURL: "x", Length: 1, FrameRate: 1}}
	running := &models.Job{ID: ids.NewJobID(), Params: models.JobParams{ImageURL: "x", Length: 1, FrameRate: 1}}
	for _, j := range []*models.Job{queued, running} {
		if err := repo.Create(ctx, j); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.MarkRunning(ctx, running.ID); err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{queued.ID, running.ID, "no-such-job"} {
		if err := repo.Delete(ctx, id); err != nil {
			t.Fatalf("Delete(%s): %v", id, err)
		}
	}
	if _, err := repo.Get(ctx, queued.ID); !errors.IsNotFound(err) {
		t.Errorf("queued job should be gone, got %v", err)
	}
	if _, err := repo.Get(ctx, running.ID); err != nil {
		t.Errorf("running job must survive: %v", err)
	}

	// The id is free again.
	if err := repo.Create(ctx, queued); err != nil {
		t.Errorf("re-create: %v", err)
	}
}
