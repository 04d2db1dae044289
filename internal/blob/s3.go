package blob

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/keydrop/keydrop/internal/config"
)

// S3Store speaks the S3 object API. A configured endpoint override
// (local object stores such as MinIO) switches the client to path-style
// addressing; otherwise the well-known public endpoint for the region
// is used.
type S3Store struct {
	client *minio.Client
	bucket string
}

// NewS3Store builds the object-storage client from cfg. The bucket is
// not created here; provisioning is a deployment concern.
func NewS3Store(cfg config.Blob) (*S3Store, error) {
	endpoint := cfg.Endpoint
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}

	if endpoint == "" {
		endpoint = "s3." + cfg.Region + ".amazonaws.com"
		opts.Secure = true
	} else {
		// endpoint override implies a local object store
		opts.BucketLookup = minio.BucketLookupPath
	}

	client, err := minio.New(endpoint, opts)
	if err != nil {
		return nil, &ErrBlobStorage{Op: "connect", Key: "", Err: err}
	}

	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

// Store implements [Store].
func (s *S3Store) Store(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return &ErrBlobStorage{Op: "store", Key: key, Err: err}
	}
	return nil
}

// Retrieve implements [Store]. A missing key surfaces as
// [ErrBlobStorage] like any other failure.
func (s *S3Store) Retrieve(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, &ErrBlobStorage{Op: "retrieve", Key: key, Err: err}
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, &ErrBlobStorage{Op: "retrieve", Key: key, Err: err}
	}
	return data, nil
}

// Delete implements [Store].
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return &ErrBlobStorage{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Exists implements [Store]. A NoSuchKey response maps to (false, nil);
// every other failure is an error.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
			return false, nil
		}
		return false, &ErrBlobStorage{Op: "exists", Key: key, Err: err}
	}
	return true, nil
}
