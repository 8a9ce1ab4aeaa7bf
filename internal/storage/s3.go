package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"routewatch/pkg/log"
)

// ListLimit caps a listing at one S3 page worth of keys.
const ListLimit = 1000

// Options holds the connection settings of the S3-compatible endpoint.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

// S3Service is a client for S3-compatible storage.
type S3Service struct {
	client *minio.Client
	region string
}

// NewS3Service builds a client for opts. It does not contact the endpoint.
func NewS3Service(opts Options) (*S3Service, error) {
	if opts.Endpoint == "" || opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, fmt.Errorf("storage endpoint, access key and secret key are required")
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	log.Info("Storage client ready", "endpoint", opts.Endpoint, "region", opts.Region)
	return &S3Service{client: client, region: opts.Region}, nil
}

// CreateBucket makes sure bucketName exists, creating it in the client's
// region when it does not.
func (s *S3Service) CreateBucket(ctx context.Context, bucketName string) (bool, error) {
	exists, err := s.client.BucketExists(ctx, bucketName)
	if err != nil {
		return false, fmt.Errorf("error checking bucket existence: %w", err)
	}
	if exists {
		return false, nil
	}
	if err := s.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return false, fmt.Errorf("failed to create bucket %q: %w", bucketName, err)
	}
	log.Info("Bucket created", "bucket", bucketName)
	return true, nil
}

// PutObject writes body under key, replacing any existing object.
func (s *S3Service) PutObject(ctx context.Context, bucketName, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(
		ctx,
		bucketName,
		key,
		bytes.NewReader(body),
		int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("failed to store object %q: %w", key, err)
	}
	return nil
}

// ListObjects returns the keys under prefix that end in ".json", in listing
// order, stopping after ListLimit keys.
func (s *S3Service) ListObjects(ctx context.Context, bucketName, prefix string) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := []string{}
	seen := 0
	for obj := range s.client.ListObjects(ctx, bucketName, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list %q: %w", prefix, obj.Err)
		}
		if seen++; seen > ListLimit {
			break
		}
		if strings.HasSuffix(obj.Key, ".json") {
			keys = append(keys, obj.Key)
		}
	}
	return keys, nil
}

// GetObject returns the full body of key.
func (s *S3Service) GetObject(ctx context.Context, bucketName, key string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %q: %w", key, err)
	}
	defer object.Close()

	body, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %q: %w", key, err)
	}
	return body, nil
}

// GetJSON fetches key and decodes it as a JSON object. Numbers are kept as
// json.Number so they survive a write-back unchanged.
func (s *S3Service) GetJSON(ctx context.Context, bucketName, key string) (map[string]any, error) {
	body, err := s.GetObject(ctx, bucketName, key)
	if err != nil {
		return nil, err
	}
	return DecodeJSON(body)
}

// DecodeJSON decodes body as a JSON object using json.Number for numbers.
func DecodeJSON(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	return doc, nil
}

// IsNotFound reports whether err is a missing bucket or key.
func IsNotFound(err error) bool {
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return false
	}
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
