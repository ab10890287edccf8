package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"mercator-hq/storage-helper/pkg/artifact"
)

// maxDeleteBatch is the DeleteObjects limit per request.
const maxDeleteBatch = 1000

// S3API is the subset of the S3 client used by S3Backend.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Config configures the S3 backend.
type S3Config struct {
	// Bucket holds the package artifacts.
	Bucket string

	// Region is the bucket region. Empty uses the SDK's resolution chain.
	Region string

	// Endpoint overrides the service endpoint, e.g. for MinIO.
	Endpoint string

	// UsePathStyle addresses the bucket in the path instead of the host.
	UsePathStyle bool
}

// S3Backend implements Backend on Amazon S3 and compatible stores.
type S3Backend struct {
	api    S3API
	bucket string
	logger *slog.Logger
}

// NewS3Backend loads the default AWS configuration (environment, shared
// config files, instance roles) and creates an S3 backend.
func NewS3Backend(ctx context.Context, cfg S3Config) (*S3Backend, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, artifact.NewStorageError("s3", "connect", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewS3BackendWithAPI(client, cfg.Bucket), nil
}

// NewS3BackendWithAPI creates an S3 backend over an existing client.
func NewS3BackendWithAPI(api S3API, bucket string) *S3Backend {
	return &S3Backend{
		api:    api,
		bucket: bucket,
		logger: slog.Default().With("component", "artifact.storage.s3", "bucket", bucket),
	}
}

// Name implements Backend.
func (b *S3Backend) Name() string {
	return "s3"
}

// List implements Backend. ListObjectsV2 returns keys in ascending UTF-8
// binary order. LastModified stands in for the creation time since S3
// objects are immutable.
func (b *S3Backend) List(ctx context.Context, prefix string) ([]Object, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var objects []Object
	paginator := s3.NewListObjectsV2Paginator(b.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, artifact.NewStorageError("s3", "list", err)
		}

		for _, item := range page.Contents {
			var created time.Time
			if item.LastModified != nil {
				created = *item.LastModified
			}
			objects = append(objects, Object{
				Name:    aws.ToString(item.Key),
				Created: created,
			})
		}
	}

	return objects, nil
}

// Ping implements Backend.
func (b *S3Backend) Ping(ctx context.Context) error {
	_, err := b.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
	})
	if err != nil {
		return artifact.NewStorageError("s3", "ping", err)
	}
	return nil
}

// DeletePrefix implements Backend. Keys are removed in batches; any key
// the service reports as failed fails the call.
func (b *S3Backend) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	objects, err := b.List(ctx, prefix)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for start := 0; start < len(objects); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(objects))

		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, obj := range objects[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(obj.Name)})
		}

		out, err := b.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(b.bucket),
			Delete: &types.Delete{Objects: ids},
		})
		if err != nil {
			return deleted, artifact.NewStorageError("s3", "delete", err)
		}

		deleted += len(out.Deleted)
		if len(out.Errors) > 0 {
			return deleted, artifact.NewStorageError("s3", "delete", batchError(out.Errors))
		}
	}

	return deleted, nil
}

func batchError(errs []types.Error) error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", aws.ToString(e.Key), aws.ToString(e.Message)))
	}
	return fmt.Errorf("%d objects not deleted: %s", len(errs), strings.Join(msgs, "; "))
}
