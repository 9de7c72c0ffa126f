// Package config reads zoomclip settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

const (
	ProviderLocalFS = "localfs"
	ProviderGDrive  = "gdrive"
	ProviderS3      = "s3"
)

type GDrive struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	FolderID     string
}

type S3 struct {
	Bucket    string
	Region    string
	Prefix    string
	Profile   string
	Endpoint  string
	PathStyle bool
}

// Storage selects and configures the object store behind ports.StorageProvider.
type Storage struct {
	Provider  string
	LocalRoot string
	GDrive    GDrive
	S3        S3
}

// API configures cmd/api.
type API struct {
	HTTPPort           string
	DatabaseURL        string
	RedisAddr          string
	QueueName          string
	CORSAllowedOrigins string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	Storage            Storage
}

// Worker configures cmd/worker.
type Worker struct {
	DatabaseURL     string
	RedisAddr       string
	QueueName       string
	WorkDir         string
	FFmpegPath      string
	CleanupLocal    bool
	WebhookTimeout  time.Duration
	PopTimeout      time.Duration
	ShutdownTimeout time.Duration
	Storage         Storage
}

// LoadStorage reads STORAGE_PROVIDER and the settings that provider needs.
func LoadStorage() (Storage, error) {
	s := Storage{
		Provider:  strings.ToLower(Env("STORAGE_PROVIDER", ProviderLocalFS)),
		LocalRoot: Env("STORAGE_LOCAL_ROOT", "/data"),
		GDrive: GDrive{
			ClientID:     Env("GDRIVE_CLIENT_ID", ""),
			ClientSecret: Env("GDRIVE_CLIENT_SECRET", ""),
			RefreshToken: Env("GDRIVE_REFRESH_TOKEN", ""),
			FolderID:     Env("GDRIVE_FOLDER_ID", ""),
		},
		S3: S3{
			Bucket:    Env("S3_BUCKET", ""),
			Region:    Env("S3_REGION", ""),
			Prefix:    strings.Trim(Env("S3_PREFIX", ""), "/"),
			Profile:   Env("S3_PROFILE", ""),
			Endpoint:  Env("S3_ENDPOINT", ""),
			PathStyle: BoolEnv("S3_PATH_STYLE", false),
		},
	}

	var err error
	switch s.Provider {
	case ProviderLocalFS:
	case ProviderGDrive:
		err = multierr.Combine(
			required("GDRIVE_CLIENT_ID", s.GDrive.ClientID),
			required("GDRIVE_CLIENT_SECRET", s.GDrive.ClientSecret),
			required("GDRIVE_REFRESH_TOKEN", s.GDrive.RefreshToken),
		)
	case ProviderS3:
		err = required("S3_BUCKET", s.S3.Bucket)
	default:
		err = fmt.Errorf("unknown storage provider: %s", s.Provider)
	}
	return s, err
}

func LoadAPI() (API, error) {
	st, err := LoadStorage()
	c := API{
		HTTPPort:           Env("HTTP_PORT", "8080"),
		DatabaseURL:        Env("DATABASE_URL", ""),
		RedisAddr:          Env("REDIS_ADDR", ""),
		QueueName:          Env("JOB_QUEUE_NAME", "zoomclip:jobs"),
		CORSAllowedOrigins: Env("CORS_ALLOWED_ORIGINS", ""),
		RequestTimeout:     DurationEnv("HTTP_REQUEST_TIMEOUT", 60*time.Second),
		ShutdownTimeout:    DurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		Storage:            st,
	}
	err = multierr.Combine(err,
		required("DATABASE_URL", c.DatabaseURL),
		required("REDIS_ADDR", c.RedisAddr),
	)
	return c, err
}

func LoadWorker() (Worker, error) {
	st, err := LoadStorage()
	c := Worker{
		DatabaseURL:     Env("DATABASE_URL", ""),
		RedisAddr:       Env("REDIS_ADDR", ""),
		QueueName:       Env("JOB_QUEUE_NAME", "zoomclip:jobs"),
		WorkDir:         Env("WORK_DIR", "/tmp"),
		FFmpegPath:      Env("FFMPEG_PATH", "ffmpeg"),
		CleanupLocal:    BoolEnv("CLEANUP_LOCAL", false),
		WebhookTimeout:  DurationEnv("WEBHOOK_TIMEOUT", 30*time.Second),
		PopTimeout:      DurationEnv("QUEUE_POP_TIMEOUT", 5*time.Second),
		ShutdownTimeout: DurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		Storage:         st,
	}
	err = multierr.Combine(err,
		required("DATABASE_URL", c.DatabaseURL),
		required("REDIS_ADDR", c.RedisAddr),
	)
	return c, err
}

func required(key, v string) error {
	if v == "" {
		return fmt.Errorf("missing env: %s", key)
	}
	return nil
}
