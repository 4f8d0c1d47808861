package s3

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/williamokano/mysql_backuper/pkg/storage"
)

// MaxDeleteBatch is the DeleteObjects per-request key limit
const MaxDeleteBatch = 1000

// Client is the subset of the S3 API the backend uses
type Client interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type Backend struct {
	name     string
	client   Client
	bucket   string
	uploader *manager.Uploader
}

func init() {
	storage.RegisterBackend("s3", func(ctx context.Context, cfg storage.Config) (storage.Backend, error) {
		return New(ctx, cfg)
	})
}

// New creates a new S3 backend. No request is made until the first upload.
func New(ctx context.Context, cfg storage.Config) (*Backend, error) {
	s3Cfg, err := parseConfig(cfg.Options)
	if err != nil {
		return nil, storage.WrapError(cfg.Name, "init", storage.ErrInvalidConfig, err)
	}

	client, err := newClient(ctx, s3Cfg)
	if err != nil {
		return nil, storage.WrapError(cfg.Name, "init", storage.ErrInvalidConfig, err)
	}

	return NewWithClient(cfg.Name, s3Cfg.Bucket, client), nil
}

// NewWithClient builds a backend over an existing client
func NewWithClient(name, bucket string, client Client) *Backend {
	return &Backend{
		name:     name,
		client:   client,
		bucket:   bucket,
		uploader: manager.NewUploader(client),
	}
}

func newClient(ctx context.Context, s3Cfg *Config) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if s3Cfg.Region != "" {
		opts = append(opts, config.WithRegion(s3Cfg.Region))
	}
	if s3Cfg.HasStaticCredentials() {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3Cfg.AccessKeyID, s3Cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = defaultRegion
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s3Cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s3Cfg.Endpoint)
		}
		o.UsePathStyle = s3Cfg.ForcePathStyle
		// One request per operation; retries belong to storage.WithRetry
		o.Retryer = aws.NopRetryer{}
		o.RetryMaxAttempts = 1
	}), nil
}

func (b *Backend) Name() string { return b.name }
func (b *Backend) Type() string { return "s3" }

// Write uploads a file to S3 under key
func (b *Backend) Write(ctx context.Context, sourcePath, key string) error {
	file, err := os.Open(sourcePath)
	if err != nil {
		return storage.WrapError(b.name, "upload", storage.ErrUploadFailed, storage.Classify(err))
	}
	defer file.Close()

	_, err = b.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return storage.WrapError(b.name, "upload", storage.ErrUploadFailed, classify(err))
	}

	return nil
}

// List returns every object under prefix, all pages aggregated
func (b *Backend) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(b.bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var files []storage.FileInfo

	paginator := s3.NewListObjectsV2Paginator(b.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storage.WrapError(b.name, "list", storage.ErrListFailed, classify(err))
		}

		for _, obj := range page.Contents {
			files = append(files, storage.FileInfo{
				Path:    aws.ToString(obj.Key),
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}

	return files, nil
}

// Delete removes keys in batches of at most MaxDeleteBatch. A failed batch
// marks each of its keys failed and the next batch still runs.
func (b *Backend) Delete(ctx context.Context, keys []string) []storage.DeleteFailure {
	var failures []storage.DeleteFailure

	for start := 0; start < len(keys); start += MaxDeleteBatch {
		end := min(start+MaxDeleteBatch, len(keys))
		failures = append(failures, b.deleteBatch(ctx, keys[start:end])...)
	}

	return failures
}

func (b *Backend) deleteBatch(ctx context.Context, batch []string) []storage.DeleteFailure {
	objects := make([]types.ObjectIdentifier, 0, len(batch))
	for _, key := range batch {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
	}

	out, err := b.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(b.bucket),
		Delete: &types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		wrapped := storage.WrapError(b.name, "delete", storage.ErrDeleteFailed, classify(err))
		failures := make([]storage.DeleteFailure, 0, len(batch))
		for _, key := range batch {
			failures = append(failures, storage.DeleteFailure{Key: key, Err: wrapped})
		}
		return failures
	}

	var failures []storage.DeleteFailure
	for _, e := range out.Errors {
		cause := fmt.Errorf("%s: %s", aws.ToString(e.Code), aws.ToString(e.Message))
		failures = append(failures, storage.DeleteFailure{
			Key: aws.ToString(e.Key),
			Err: storage.WrapError(b.name, "delete", storage.ErrDeleteFailed, cause),
		})
	}

	return failures
}

// Close is a no-op for S3
func (b *Backend) Close() error {
	return nil
}

// classify maps S3 API error codes onto the storage sentinels
func classify(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			return fmt.Errorf("%w: %w", storage.ErrAuthFailed, err)
		case "NoSuchBucket", "InvalidBucketName", "PermanentRedirect":
			return fmt.Errorf("%w: %w", storage.ErrInvalidConfig, err)
		case "SlowDown", "RequestTimeout", "InternalError", "ServiceUnavailable":
			return fmt.Errorf("%w: %w", storage.ErrConnFailed, err)
		}
	}

	return storage.Classify(err)
}
