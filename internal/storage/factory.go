package storage

import (
	"context"
	"fmt"

	"zoomclip/internal/adapters/storage/gdrive"
	"zoomclip/internal/adapters/storage/localfs"
	"zoomclip/internal/adapters/storage/s3store"
	"zoomclip/internal/config"
)

// NewProvider builds the provider named by cfg.Provider.
func NewProvider(ctx context.Context, cfg config.Storage) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderLocalFS, "":
		return localfs.New(cfg.LocalRoot), nil

	case config.ProviderGDrive:
		return gdrive.New(ctx, gdrive.Credentials{
			ClientID:     cfg.GDrive.ClientID,
			ClientSecret: cfg.GDrive.ClientSecret,
			RefreshToken: cfg.GDrive.RefreshToken,
			FolderID:     cfg.GDrive.FolderID,
		})

	case config.ProviderS3:
		return s3store.New(ctx, s3store.Config{
			Bucket:       cfg.S3.Bucket,
			Prefix:       cfg.S3.Prefix,
			Region:       cfg.S3.Region,
			Profile:      cfg.S3.Profile,
			Endpoint:     cfg.S3.Endpoint,
			UsePathStyle: cfg.S3.PathStyle,
		})

	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Provider)
	}
}
