package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/config"
)

// objectDeleter is the subset of the S3 client used for deletes.
type objectDeleter interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// objectUploader is the subset of the S3 upload manager used for uploads.
type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Storage implements Delegate backed by an S3-compatible service.
type S3Storage struct {
	uploader objectUploader
	deleter  objectDeleter
	prober   Prober
	bucket   string
	baseURL  string
}

// NewS3Storage configures an uploader targeting the provided object store.
func NewS3Storage(ctx context.Context, cfg config.ObjectStoreConfig, prober Prober) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if strings.TrimSpace(cfg.Endpoint) != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return &S3Storage{
		uploader: uploader,
		deleter:  client,
		prober:   prober,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// Upload stores the asset under a fresh key grouped by kind and returns its public location.
func (s *S3Storage) Upload(ctx context.Context, asset Asset) (Uploaded, error) {
	duration, err := probeDuration(ctx, s.prober, asset)
	if err != nil {
		return Uploaded{}, fmt.Errorf("s3 storage probe %s: %w", asset.Name, err)
	}

	f, err := os.Open(asset.Path)
	if err != nil {
		return Uploaded{}, fmt.Errorf("s3 storage open %s: %w", asset.Path, err)
	}
	defer f.Close()

	key := fmt.Sprintf("%s/%s%s", asset.Kind, uuid.NewString(), asset.Ext())

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
		ACL:    s3types.ObjectCannedACLPublicRead,
	}
	if asset.ContentType != "" {
		input.ContentType = aws.String(asset.ContentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return Uploaded{}, fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	return Uploaded{URL: s.location(key), PublicID: key, Duration: duration}, nil
}

// Delete removes the object behind a URL previously returned by Upload.
func (s *S3Storage) Delete(ctx context.Context, url string) error {
	key := s.keyFromURL(url)
	if key == "" {
		return fmt.Errorf("s3 storage: %w: empty key for %q", ErrDeleteFailed, url)
	}

	if _, err := s.deleter.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("s3 storage delete %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) location(key string) string {
	if s.baseURL == "" {
		return key
	}
	return fmt.Sprintf("%s/%s", s.baseURL, key)
}

func (s *S3Storage) keyFromURL(url string) string {
	key := strings.TrimSpace(url)
	if s.baseURL != "" {
		key = strings.TrimPrefix(key, s.baseURL)
	}
	return strings.TrimLeft(key, "/")
}
