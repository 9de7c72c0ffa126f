package zoomvideo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"go.uber.org/multierr"

	"zoomclip/internal/pkg/errors"
	"zoomclip/internal/ports"
)

// ObjectScheme prefixes image sources that live in the configured storage
// provider, e.g. object://uploads/cat.jpg.
const ObjectScheme = "object://"

// sniffLen is the header size h2non/filetype needs to recognise every type.
const sniffLen = 262

// unknownImageExt names fetched content whose type could not be sniffed.
const unknownImageExt = "img"

// Fetcher materializes an image source as a local file inside dir and returns
// its path. Implementations must give every call a unique file name.
type Fetcher interface {
	Fetch(ctx context.Context, source, dir, jobID string) (string, error)
}

// SourceFetcher reads http(s) URLs, object:// keys and local paths.
type SourceFetcher struct {
	client  *http.Client
	storage ports.StorageProvider
}

// NewSourceFetcher returns a fetcher. storage may be nil, in which case
// object:// sources fail.
func NewSourceFetcher(client *http.Client, storage ports.StorageProvider) *SourceFetcher {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &SourceFetcher{client: client, storage: storage}
}

func (f *SourceFetcher) Fetch(ctx context.Context, source, dir, jobID string) (string, error) {
	rc, err := f.open(ctx, source)
	if err != nil {
		return "", errors.FetchFailed(source, err)
	}
	defer rc.Close()

	localPath, err := saveImage(rc, dir, jobID)
	if err != nil {
		if errors.IsCode(err, errors.CodeFilesystem) {
			return "", err
		}
		return "", errors.FetchFailed(source, err)
	}
	return localPath, nil
}

func (f *SourceFetcher) open(ctx context.Context, source string) (io.ReadCloser, error) {
	lower := strings.ToLower(source)

	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		res, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		if res.StatusCode < 200 || res.StatusCode >= 300 {
			res.Body.Close()
			return nil, fmt.Errorf("http %d", res.StatusCode)
		}
		return res.Body, nil

	case strings.HasPrefix(lower, ObjectScheme):
		if f.storage == nil {
			return nil, fmt.Errorf("no storage provider configured for %s sources", ObjectScheme)
		}
		rc, _, _, err := f.storage.GetObject(ctx, source[len(ObjectScheme):])
		return rc, err

	default:
		return os.Open(strings.TrimPrefix(source, "file://"))
	}
}

// saveImage copies r into dir as <jobID>-<uuid>.<ext>. The extension comes
// from the sniffed content, or is "img" when the content is not a known image
// type; deciding whether it decodes is left to the dimension reader. Only an
// empty body is rejected here.
func saveImage(r io.Reader, dir, jobID string) (path string, err error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err == io.EOF {
		return "", fmt.Errorf("empty image source")
	}
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", err
	}
	head = head[:n]

	ext := unknownImageExt
	if kind, err := filetype.Image(head); err == nil && kind != filetype.Unknown {
		ext = kind.Extension
	}

	name := filepath.Join(dir, fmt.Sprintf("%s-%s.%s", jobID, uuid.NewString(), ext))
	out, err := os.Create(name)
	if err != nil {
		return "", errors.Filesystem(name, err)
	}
	defer func() {
		err = multierr.Append(err, out.Close())
		if err != nil {
			_ = os.Remove(name)
			path = ""
		}
	}()

	if _, err := out.Write(head); err != nil {
		return "", errors.Filesystem(name, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		return "", err
	}
	return name, nil
}
