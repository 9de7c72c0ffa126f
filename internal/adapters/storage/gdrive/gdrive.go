package gdrive

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	apperrors "zoomclip/internal/pkg/errors"
	"zoomclip/internal/ports"
)

// Client implements ports.StorageProvider backed by Google Drive. Uploads
// use the object key as the Drive file name; the returned key is the Drive
// file id, which Get and Delete expect.
type Client struct {
	srv      *drive.Service
	folderID string
}

// Credentials authorize Drive access with a stored refresh token, as issued by
// cmd/gdrive-auth.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	FolderID     string
}

// OAuthConfig is the drive.file scoped OAuth client for these credentials.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
		RedirectURL:  redirectURL,
	}
}

// New builds a Drive client that refreshes its access token as needed.
func New(ctx context.Context, c Credentials) (*Client, error) {
	conf := OAuthConfig(c.ClientID, c.ClientSecret, "")
	httpClient := conf.Client(ctx, &oauth2.Token{RefreshToken: c.RefreshToken})

	srv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}
	return NewClient(srv, c.FolderID), nil
}

func NewClient(srv *drive.Service, folderID string) *Client {
	return &Client{srv: srv, folderID: folderID}
}

func (c *Client) Provider() string { return "gdrive" }

func (c *Client) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	if in.ObjectKey == "" {
		return ports.PutObjectOutput{}, apperrors.ValidationField("object_key", "object key is required")
	}

	file := &drive.File{
		Name:          in.ObjectKey,
		AppProperties: map[string]string{"object_key": in.ObjectKey},
	}
	if c.folderID != "" {
		file.Parents = []string{c.folderID}
	}

	call := c.srv.Files.Create(file).Fields("id", "size").SupportsAllDrives(true)
	if in.ContentType != "" {
		call = call.Media(in.Reader, googleapi.ContentType(in.ContentType))
	} else {
		call = call.Media(in.Reader)
	}

	created, err := call.Context(ctx).Do()
	if err != nil {
		return ports.PutObjectOutput{}, apperrors.WrapWithCode(err, apperrors.CodeUnavailable, "gdrive.put", "gdrive upload failed")
	}

	size := in.Size
	if created.Size > 0 {
		size = created.Size
	}
	return ports.PutObjectOutput{ObjectKey: created.Id, Size: size}, nil
}

func (c *Client) GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error) {
	resp, err := c.srv.Files.Get(objectKey).
		SupportsAllDrives(true).
		Context(ctx).
		Download()
	if err != nil {
		return nil, "", 0, mapErr(err, objectKey, "gdrive.get")
	}

	return resp.Body, resp.Header.Get("Content-Type"), resp.ContentLength, nil
}

func (c *Client) DeleteObject(ctx context.Context, objectKey string) error {
	err := c.srv.Files.Delete(objectKey).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil && !isNotFound(err) {
		return mapErr(err, objectKey, "gdrive.delete")
	}
	return nil
}

// GetSignedURL returns an empty URL; Drive files are streamed through the API.
func (c *Client) GetSignedURL(ctx context.Context, objectKey string, expiresIn time.Duration) (ports.SignedURLOutput, error) {
	return ports.SignedURLOutput{URL: "", ExpiresAt: time.Now().UTC().Add(expiresIn)}, nil
}

func mapErr(err error, objectKey, op string) error {
	if isNotFound(err) {
		return apperrors.NotFound("object", objectKey)
	}
	return apperrors.WrapWithCode(err, apperrors.CodeUnavailable, op, "gdrive request failed")
}

func isNotFound(err error) bool {
	var gErr *googleapi.Error
	return errors.As(err, &gErr) && gErr.Code == http.StatusNotFound
}
