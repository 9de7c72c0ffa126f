package storage

import (
	"context"

	"zoomclip/internal/ports"
)

// Provider is the storage contract used across API and Worker.
// It is an alias to ports.StorageProvider to keep call-sites simple.
type Provider = ports.StorageProvider

// Pinger is implemented by providers that can check connectivity cheaply.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks p if it supports it and reports whether a check ran.
func Ping(ctx context.Context, p Provider) (checked bool, err error) {
	pg, ok := p.(Pinger)
	if !ok {
		return false, nil
	}
	return true, pg.Ping(ctx)
}

// VideoKey is where the rendered video for jobID is stored.
func VideoKey(jobID string) string {
	return "renders/" + jobID + "/" + jobID + ".mp4"
}

// ThumbnailKey is where the poster image for jobID is stored.
func ThumbnailKey(jobID string) string {
	return "renders/" + jobID + "/" + jobID + ".jpg"
}
