package processor

import (
	"context"
	"os"

	"zoomclip/internal/pkg/errors"
	"zoomclip/internal/ports"
	"zoomclip/internal/storage"
)

type OutputHandler struct {
	sp ports.StorageProvider
}

func NewOutputHandler(sp ports.StorageProvider) *OutputHandler {
	return &OutputHandler{sp: sp}
}

// Provider names the storage backend outputs go to.
func (oh *OutputHandler) Provider() string { return oh.sp.Provider() }

// Video uploads the rendered clip and returns its provider key.
func (oh *OutputHandler) Video(ctx context.Context, jobID, localPath string) (string, error) {
	return oh.put(ctx, storage.VideoKey(jobID), "video/mp4", localPath)
}

// Thumbnail uploads the poster image. It returns "" and no error when no
// thumbnail was produced.
func (oh *OutputHandler) Thumbnail(ctx context.Context, jobID, localPath string) (string, error) {
	if _, err := os.Stat(localPath); err != nil {
		return "", nil
	}
	return oh.put(ctx, storage.ThumbnailKey(jobID), "image/jpeg", localPath)
}

func (oh *OutputHandler) put(ctx context.Context, key, contentType, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", errors.Filesystem(localPath, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return "", errors.Filesystem(localPath, err)
	}

	res, err := oh.sp.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   key,
		ContentType: contentType,
		Reader:      f,
		Size:        st.Size(),
	})
	if err != nil {
		return "", errors.Wrap(err, "processor.upload", "upload "+key)
	}
	return res.ObjectKey, nil
}
