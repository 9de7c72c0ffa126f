package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	v1 "zoomclip/internal/contracts/webhook/v1"
)

func TestNotify(t *testing.T) {
	var got map[string]any
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %s", r.Header.Get("Content-Type"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		if strings.HasSuffix(r.URL.Path, "/fail") {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewHTTPClient(time.Second)
	finished := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	err := c.Notify(context.Background(), srv.URL+"/hook", v1.Payload{
		JobID:          "job_1",
		Status:         "DONE",
		VideoObjectKey: "renders/job_1/job_1.mp4",
		Provider:       "localfs",
		FinishedAt:     finished,
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got["job_id"] != "job_1" || got["status"] != "DONE" || got["finished_at"] != "2026-01-02T03:04:05Z" {
		t.Errorf("unexpected payload: %v", got)
	}
	if _, ok := got["error"]; ok {
		t.Error("error must be omitted for successful jobs")
	}

	err = c.Notify(context.Background(), srv.URL+"/fail", v1.Payload{
		JobID:  "job_2",
		Status: "FAILED",
		Error:  &v1.ErrorInfo{Code: "FETCH_FAILED", Message: "http 404"},
	})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("expected http 502 error, got %v", err)
	}
	if e, _ := got["error"].(map[string]any); e["code"] != "FETCH_FAILED" {
		t.Errorf("unexpected error payload: %v", got["error"])
	}
	if calls != 2 {
		t.Errorf("expected exactly one attempt per notify, got %d calls", calls)
	}
}
