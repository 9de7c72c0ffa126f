package localfs

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"go.uber.org/multierr"

	"zoomclip/internal/pkg/errors"
	"zoomclip/internal/ports"
)

// LocalFS implements ports.StorageProvider on a directory tree. Object keys
// are slash separated paths below root.
type LocalFS struct {
	root string
}

func New(root string) *LocalFS {
	return &LocalFS{root: root}
}

func (l *LocalFS) Provider() string { return "localfs" }

// Root is the directory objects are stored under.
func (l *LocalFS) Root() string { return l.root }

func (l *LocalFS) PutObject(ctx context.Context, in ports.PutObjectInput) (out ports.PutObjectOutput, err error) {
	dst, err := l.path(in.ObjectKey)
	if err != nil {
		return ports.PutObjectOutput{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return ports.PutObjectOutput{}, errors.Filesystem(filepath.Dir(dst), err)
	}

	// Write next to the destination and rename so readers never see a
	// partial object.
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return ports.PutObjectOutput{}, errors.Filesystem(dst, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, in.Reader)
	err = multierr.Append(err, tmp.Close())
	if err != nil {
		return ports.PutObjectOutput{}, errors.Filesystem(dst, err)
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return ports.PutObjectOutput{}, errors.Filesystem(dst, err)
	}

	return ports.PutObjectOutput{ObjectKey: in.ObjectKey, Size: n}, nil
}

func (l *LocalFS) GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error) {
	p, err := l.path(objectKey)
	if err != nil {
		return nil, "", 0, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", 0, errors.NotFound("object", objectKey)
		}
		return nil, "", 0, errors.Filesystem(p, err)
	}

	if st, statErr := f.Stat(); statErr == nil {
		size = st.Size()
	}

	// Prefer extension-based type. If empty, sniff first bytes.
	contentType = mime.TypeByExtension(filepath.Ext(p))
	if contentType == "" {
		head := make([]byte, 262)
		n, _ := io.ReadFull(f, head)
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return nil, "", 0, errors.Filesystem(p, err)
		}
		if kind, _ := filetype.Match(head[:n]); kind != filetype.Unknown {
			contentType = kind.MIME.Value
		} else {
			contentType = "application/octet-stream"
		}
	}

	return f, contentType, size, nil
}

func (l *LocalFS) DeleteObject(ctx context.Context, objectKey string) error {
	p, err := l.path(objectKey)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Filesystem(p, err)
	}
	return nil
}

// GetSignedURL returns an empty URL; local objects are streamed by the API.
func (l *LocalFS) GetSignedURL(ctx context.Context, objectKey string, expiresIn time.Duration) (ports.SignedURLOutput, error) {
	return ports.SignedURLOutput{URL: "", ExpiresAt: time.Now().UTC().Add(expiresIn)}, nil
}

func (l *LocalFS) path(objectKey string) (string, error) {
	if objectKey == "" {
		return "", errors.ValidationField("object_key", "object key is required")
	}
	clean := filepath.Clean(filepath.FromSlash("/" + objectKey))
	p := filepath.Join(l.root, clean)
	if rel, err := filepath.Rel(l.root, p); err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", errors.ValidationField("object_key", fmt.Sprintf("invalid object key %q", objectKey))
	}
	return p, nil
}
