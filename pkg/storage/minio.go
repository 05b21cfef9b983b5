package storage

import (
	"context"
	"fmt"
	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
	"io"
)

const (
	cacheControl = "max-age=3600"
	// S3 rejects multipart parts below 5 MiB.
	minPartSize = 5 * 1024 * 1024
)

// Minio stores assets as objects in a single bucket. Put overwrites.
type Minio struct {
	client   *minio.Client
	bucket   string
	partSize uint64
}

func NewMinio(client *minio.Client, bucket string, partSize int) *Minio {
	s := &Minio{client: client, bucket: bucket}
	if partSize >= minPartSize {
		s.partSize = uint64(partSize)
	}
	return s
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Minio) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		zerolog.Ctx(ctx).Info().Str("bucket", s.bucket).Msg("bucket exists")
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	zerolog.Ctx(ctx).Info().Str("bucket", s.bucket).Msg("bucket created")
	return nil
}

// Put uploads size bytes read from r. The write is confirmed only once
// the whole stream was accepted.
func (s *Minio) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	info, err := s.client.PutObject(ctx, s.bucket, path, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: cacheControl,
		PartSize:     s.partSize,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", path, err)
	}
	if info.Size != size {
		return fmt.Errorf("put object %s: wrote %d of %d bytes", path, info.Size, size)
	}
	zerolog.Ctx(ctx).Info().Str("object", path).Int64("size", info.Size).Msg("object stored")
	return nil
}

// Get reads a whole object into memory along with its content type.
func (s *Minio) Get(ctx context.Context, path string) ([]byte, string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("get object %s: %w", path, err)
	}
	defer obj.Close()

	stat, err := obj.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("stat object %s: %w", path, err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", fmt.Errorf("read object %s: %w", path, err)
	}
	return data, stat.ContentType, nil
}
