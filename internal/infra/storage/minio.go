package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig holds the object storage connection settings.
type MinioConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// MinioStore keeps analysis artifacts in an S3-compatible bucket.
type MinioStore struct {
	client     *minio.Client
	bucketName string
	region     string
	logger     hclog.Logger
}

// NewMinio connects and makes sure the bucket exists.
func NewMinio(ctx context.Context, cfg MinioConfig, logger hclog.Logger) (*MinioStore, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinioStore{client: cli, bucketName: cfg.Bucket, region: cfg.Region, logger: logger}, nil
}

// Upload implements analyses.ArtifactStore.
func (s *MinioStore) Upload(ctx context.Context, localPath, key string) (string, error) {
	_, err := s.client.FPutObject(ctx, s.bucketName, key, localPath, minio.PutObjectOptions{
		ContentType: contentType(localPath),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	// public URL; private buckets need a presigned URL instead
	scheme := "http"
	if s.client.EndpointURL().Scheme == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.client.EndpointURL().Host, s.bucketName, key), nil
}

// UploadAndCleanup uploads then removes the local file.
func (s *MinioStore) UploadAndCleanup(ctx context.Context, localPath, key string) (string, error) {
	url, err := s.Upload(ctx, localPath, key)
	if err != nil {
		return "", err
	}
	// the upload already succeeded, a leftover file is only logged
	if removeErr := os.Remove(localPath); removeErr != nil {
		s.logger.Warn("failed to remove local artifact", "path", localPath, "error", removeErr)
	}
	return url, nil
}

// Open streams an artifact back.
func (s *MinioStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	// GetObject is lazy; Stat surfaces a missing key
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("stat %s: %w", key, err)
	}
	return obj, nil
}

func contentType(localPath string) string {
	switch filepath.Ext(localPath) {
	case ".json", ".sarif":
		return "application/json"
	case ".msgpack":
		return "application/msgpack"
	case ".html":
		return "text/html"
	default:
		return "application/octet-stream"
	}
}

// Check reports whether the bucket is reachable.
func (s *MinioStore) Check(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", s.bucketName)
	}
	return nil
}
