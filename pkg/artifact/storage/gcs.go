package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"

	"mercator-hq/storage-helper/pkg/artifact"
)

// GCSConfig configures the Google Cloud Storage backend.
type GCSConfig struct {
	// Bucket holds the package artifacts.
	Bucket string

	// CredentialsFile is a service account key file. Empty uses
	// application default credentials.
	CredentialsFile string

	// Endpoint overrides the JSON API base URL, e.g. for an emulator.
	Endpoint string
}

// GCSBackend implements Backend on the Cloud Storage JSON API.
type GCSBackend struct {
	service *gcs.Service
	bucket  string
	logger  *slog.Logger
}

// NewGCSBackend connects to Cloud Storage. Additional client options are
// appended after the ones derived from cfg.
func NewGCSBackend(ctx context.Context, cfg GCSConfig, opts ...option.ClientOption) (*GCSBackend, error) {
	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := gcs.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, artifact.NewStorageError("gcs", "connect", err)
	}

	return &GCSBackend{
		service: service,
		bucket:  cfg.Bucket,
		logger:  slog.Default().With("component", "artifact.storage.gcs", "bucket", cfg.Bucket),
	}, nil
}

// Name implements Backend.
func (b *GCSBackend) Name() string {
	return "gcs"
}

// List implements Backend. The JSON API lists objects in lexicographic
// order of their names.
func (b *GCSBackend) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object

	call := b.service.Objects.List(b.bucket).
		Prefix(prefix).
		Fields("nextPageToken", "items(name,timeCreated)")

	err := call.Pages(ctx, func(page *gcs.Objects) error {
		for _, item := range page.Items {
			objects = append(objects, Object{
				Name:    item.Name,
				Created: b.parseTime(item.Name, item.TimeCreated),
			})
		}
		return nil
	})
	if err != nil {
		return nil, artifact.NewStorageError("gcs", "list", err)
	}

	return objects, nil
}

// Ping implements Backend.
func (b *GCSBackend) Ping(ctx context.Context) error {
	_, err := b.service.Objects.List(b.bucket).
		MaxResults(1).
		Fields("items(name)").
		Context(ctx).
		Do()
	if err != nil {
		return artifact.NewStorageError("gcs", "ping", err)
	}
	return nil
}

// parseTime returns the zero time when the timestamp is absent or
// malformed, which the grouper treats as missing metadata.
func (b *GCSBackend) parseTime(name, value string) time.Time {
	if value == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		b.logger.Warn("malformed creation time", "object", name, "value", value, "error", err)
		return time.Time{}
	}
	return t
}

// DeletePrefix implements Backend. Objects that disappear between listing
// and deletion are not an error.
func (b *GCSBackend) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	objects, err := b.List(ctx, prefix)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, obj := range objects {
		err := b.service.Objects.Delete(b.bucket, obj.Name).Context(ctx).Do()
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return deleted, artifact.NewStorageError("gcs", "delete", fmt.Errorf("%s: %w", obj.Name, err))
		}
		deleted++
	}

	return deleted, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
