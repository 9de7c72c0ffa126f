package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apiv1 "zoomclip/internal/contracts/api/v1"
	"zoomclip/internal/httpkit"
	"zoomclip/internal/models"
	"zoomclip/internal/pkg/errors"
	"zoomclip/internal/pkg/ids"
	"zoomclip/internal/zoomvideo"
)

// signedURLTTL is how long a presigned video link stays valid.
const signedURLTTL = 15 * time.Minute

// requestFields maps render request fields to their JSON names.
var requestFields = map[string]string{
	"image_source":     "image_url",
	"duration_seconds": "length",
	"frame_rate":       "frame_rate",
	"zoom_speed":       "zoom_speed",
	"job_id":           "id",
}

// TransformVideo validates and enqueues a render job.
func (h *Handler) TransformVideo(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req apiv1.TransformVideoRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		return errors.Validation("invalid json body").WithField("cause", err.Error())
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = ids.NewJobID()
	}

	render := zoomvideo.Request{
		ImageSource:        strings.TrimSpace(req.ImageURL),
		DurationSeconds:    req.Length,
		FrameRate:          req.FrameRate,
		ZoomSpeedPerSecond: req.ZoomSpeed,
		JobID:              id,
		WebhookURL:         strings.TrimSpace(req.WebhookURL),
		OutputFormat:       req.OutputFormat,
	}
	if err := render.Validate(); err != nil {
		return renameField(err)
	}

	job := &models.Job{
		ID: id,
		Params: models.JobParams{
			ImageURL:     render.ImageSource,
			Length:       render.DurationSeconds,
			FrameRate:    render.FrameRate,
			ZoomSpeed:    render.ZoomSpeedPerSecond,
			OutputFormat: render.OutputFormat,
			WebhookURL:   render.WebhookURL,
		},
	}
	if err := h.jobs.Create(ctx, job); err != nil {
		return err
	}
	if err := h.queue.Push(ctx, job.ID); err != nil {
		// Drop the row so the same id can be submitted again.
		if derr := h.jobs.Delete(context.WithoutCancel(ctx), job.ID); derr != nil {
			h.log.FromContext(ctx).WithError(derr).Error("failed to remove unqueued job", "job_id", job.ID)
		}
		return errors.WrapWithCode(err, errors.CodeUnavailable, "api.enqueue", "queue push failed").
			WithField("job_id", job.ID)
	}

	h.log.FromContext(ctx).Info("job enqueued",
		"job_id", job.ID,
		"output_format", job.Params.OutputFormat,
	)
	httpkit.WriteJSON(w, http.StatusAccepted, apiv1.TransformVideoResponse{
		Job: apiv1.JobRef{ID: job.ID, Status: job.Status},
	})
	return nil
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()

	status := models.JobStatus(strings.ToUpper(strings.TrimSpace(q.Get("status"))))
	if status != "" && !status.Valid() {
		return errors.ValidationField("status", "status must be QUEUED, RUNNING, DONE or FAILED")
	}

	limit := 0
	if s := strings.TrimSpace(q.Get("limit")); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			return errors.ValidationField("limit", "limit must be a positive integer")
		}
		limit = v
	}

	jobs, err := h.jobs.List(r.Context(), status, limit)
	if err != nil {
		return err
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	httpkit.WriteJSON(w, http.StatusOK, apiv1.JobListResponse{Jobs: jobs})
	return nil
}

// GetJob returns the job row, plus a presigned link once the video exists and
// the provider can sign.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	job, err := h.jobs.Get(ctx, chi.URLParam(r, "jobId"))
	if err != nil {
		return err
	}

	resp := apiv1.JobResponse{Job: *job}
	if job.Status == models.JobDone && job.OutputKey != "" && job.OutputProvider == h.sp.Provider() {
		signed, err := h.sp.GetSignedURL(ctx, job.OutputKey, signedURLTTL)
		if err != nil {
			h.log.FromContext(ctx).Warn("sign video url failed", "job_id", job.ID, "error", err.Error())
		} else {
			resp.VideoURL = signed.URL
		}
	}

	httpkit.WriteJSON(w, http.StatusOK, resp)
	return nil
}

// StreamVideo copies the stored video to the response.
func (h *Handler) StreamVideo(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	job, err := h.jobs.Get(ctx, chi.URLParam(r, "jobId"))
	if err != nil {
		return err
	}
	if job.Status != models.JobDone || job.OutputKey == "" {
		return errors.Newf(errors.CodeNotFound, "video for job %s is not ready", job.ID).
			WithField("job_id", job.ID).
			WithField("status", string(job.Status))
	}

	rc, ct, size, err := h.sp.GetObject(ctx, job.OutputKey)
	if err != nil {
		return errors.Wrap(err, "api.stream_video", "video object unavailable")
	}
	defer rc.Close()

	if ct == "" {
		ct = "video/mp4"
	}
	w.Header().Set("Content-Type", ct)
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.log.FromContext(ctx).Warn("video stream interrupted", "job_id", job.ID, "error", err.Error())
	}
	return nil
}

// renameField reports validation failures under the request's JSON names.
func renameField(err error) error {
	var e *errors.Error
	if errors.As(err, &e) {
		if f, ok := e.Fields["field"].(string); ok {
			if name, ok := requestFields[f]; ok {
				e.Fields["field"] = name
			}
		}
	}
	return err
}
