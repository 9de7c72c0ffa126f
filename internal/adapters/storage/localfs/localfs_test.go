package localfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"zoomclip/internal/pkg/errors"
	"zoomclip/internal/ports"
)

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	fs := New(root)

	out, err := fs.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   "renders/job1/job1.mp4",
		ContentType: "video/mp4",
		Reader:      strings.NewReader("fake video"),
	})
	if err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	if out.ObjectKey != "renders/job1/job1.mp4" || out.Size != 10 {
		t.Errorf("unexpected output: %+v", out)
	}
	if _, err := os.Stat(filepath.Join(root, "renders", "job1", "job1.mp4")); err != nil {
		t.Errorf("expected file on disk: %v", err)
	}

	rc, ct, size, err := fs.GetObject(ctx, out.ObjectKey)
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "fake video" || size != 10 || ct != "video/mp4" {
		t.Errorf("got body=%q size=%d ct=%s", body, size, ct)
	}

	if err := fs.DeleteObject(ctx, out.ObjectKey); err != nil {
		t.Fatalf("DeleteObject: %v", err)
	}
	if err := fs.DeleteObject(ctx, out.ObjectKey); err != nil {
		t.Errorf("deleting a missing object should be a no-op: %v", err)
	}

	if _, _, _, err := fs.GetObject(ctx, out.ObjectKey); !errors.IsNotFound(err) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestPutOverwrites(t *testing.T) {
	ctx := context.Background()
	fs := New(t.TempDir())

	for _, body := range []string{"first", "second"} {
		if _, err := fs.PutObject(ctx, ports.PutObjectInput{ObjectKey: "a.bin", Reader: strings.NewReader(body)}); err != nil {
			t.Fatalf("PutObject: %v", err)
		}
	}

	rc, _, _, err := fs.GetObject(ctx, "a.bin")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "second" {
		t.Errorf("got %q", b)
	}

	entries, _ := os.ReadDir(fs.Root())
	if len(entries) != 1 {
		t.Errorf("expected no temp files left, got %d entries", len(entries))
	}
}

func TestSniffsContentType(t *testing.T) {
	ctx := context.Background()
	fs := New(t.TempDir())

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if _, err := fs.PutObject(ctx, ports.PutObjectInput{ObjectKey: "uploads/noext", Reader: strings.NewReader(string(png))}); err != nil {
		t.Fatal(err)
	}

	rc, ct, _, err := fs.GetObject(ctx, "uploads/noext")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	if ct != "image/png" {
		t.Errorf("content type = %s", ct)
	}
	b, _ := io.ReadAll(rc)
	if len(b) != len(png) {
		t.Error("sniffing must not consume the body")
	}
}

func TestRejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	fs := New(t.TempDir())

	for _, key := range []string{"", "/", "../outside", "a/../../outside"} {
		_, err := fs.PutObject(ctx, ports.PutObjectInput{ObjectKey: key, Reader: strings.NewReader("x")})
		if key == "../outside" || key == "a/../../outside" {
			// Cleaned relative to root, these stay inside it.
			if err != nil {
				t.Errorf("key %q: %v", key, err)
			}
			continue
		}
		if !errors.IsValidation(err) {
			t.Errorf("key %q: expected validation error, got %v", key, err)
		}
	}
}

func TestGetSignedURL(t *testing.T) {
	out, err := New(t.TempDir()).GetSignedURL(context.Background(), "x", time.Minute)
	if err != nil || out.URL != "" || out.ExpiresAt.IsZero() {
		t.Errorf("unexpected: %+v, %v", out, err)
	}
}
