// Package s3store implements ports.StorageProvider on Amazon S3 or any
// S3-compatible endpoint.
package s3store

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	apperrors "zoomclip/internal/pkg/errors"
	"zoomclip/internal/ports"
)

// Config selects the bucket and optional client overrides. Empty values fall
// back to the standard AWS config and credential chain.
type Config struct {
	Bucket string
	// Prefix is prepended to every object key.
	Prefix   string
	Region   string
	Profile  string
	Endpoint string
	// UsePathStyle forces path-style addressing (MinIO and friends).
	UsePathStyle bool
}

// API is the subset of *s3.Client the store needs.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Presigner signs GET requests.
type Presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type Store struct {
	api     API
	presign Presigner
	bucket  string
	prefix  string
}

// New loads the AWS configuration and builds a store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, s3.NewPresignClient(client), cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient wires a store around an existing client. presign may be nil.
func NewWithClient(api API, presign Presigner, bucket, prefix string) *Store {
	return &Store{
		api:     api,
		presign: presign,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
	}
}

func (s *Store) Provider() string { return "s3" }

func (s *Store) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	if in.ObjectKey == "" {
		return ports.PutObjectOutput{}, apperrors.ValidationField("object_key", "object key is required")
	}

	req := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(in.ObjectKey)),
		Body:   in.Reader,
	}
	if in.ContentType != "" {
		req.ContentType = aws.String(in.ContentType)
	}
	if in.Size > 0 {
		req.ContentLength = aws.Int64(in.Size)
	}

	if _, err := s.api.PutObject(ctx, req); err != nil {
		return ports.PutObjectOutput{}, mapErr(err, in.ObjectKey, "s3.put")
	}
	return ports.PutObjectOutput{ObjectKey: in.ObjectKey, Size: in.Size}, nil
}

func (s *Store) GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(objectKey)),
	})
	if err != nil {
		return nil, "", 0, mapErr(err, objectKey, "s3.get")
	}
	return out.Body, aws.ToString(out.ContentType), aws.ToInt64(out.ContentLength), nil
}

func (s *Store) DeleteObject(ctx context.Context, objectKey string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(objectKey)),
	})
	if err != nil {
		return mapErr(err, objectKey, "s3.delete")
	}
	return nil
}

func (s *Store) GetSignedURL(ctx context.Context, objectKey string, expiresIn time.Duration) (ports.SignedURLOutput, error) {
	if s.presign == nil {
		return ports.SignedURLOutput{ExpiresAt: time.Now().UTC().Add(expiresIn)}, nil
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(objectKey)),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return ports.SignedURLOutput{}, mapErr(err, objectKey, "s3.presign")
	}
	return ports.SignedURLOutput{URL: req.URL, ExpiresAt: time.Now().UTC().Add(expiresIn)}, nil
}

// Ping checks that the bucket is reachable with the current credentials.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return mapErr(err, s.bucket, "s3.ping")
	}
	return nil
}

func (s *Store) key(objectKey string) string {
	objectKey = strings.TrimLeft(objectKey, "/")
	if s.prefix == "" {
		return objectKey
	}
	return path.Join(s.prefix, objectKey)
}

func mapErr(err error, objectKey, op string) error {
	if isNotFound(err) {
		return apperrors.NotFound("object", objectKey)
	}
	return apperrors.WrapWithCode(err, apperrors.CodeUnavailable, op, "s3 request failed")
}

func isNotFound(err error) bool {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
