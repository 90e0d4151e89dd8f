// AngelaMos | 2026
// avatar.go

package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/carterperez-dev/whome/internal/config"
	"github.com/carterperez-dev/whome/internal/core"
)

var (
	ErrUnsupportedType = fmt.Errorf("unsupported avatar type: %w", core.ErrInvalidInput)
	ErrTooLarge        = fmt.Errorf("avatar too large: %w", core.ErrInvalidInput)
)

var avatarTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Upload is an avatar file as received from a multipart form.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

type objectPutter interface {
	PutObject(
		ctx context.Context,
		bucket, key string,
		reader io.Reader,
		size int64,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
}

type AvatarStore struct {
	client  objectPutter
	bucket  string
	baseURL string
	maxSize int64
}

// NewAvatarStore connects to the bucket and creates it if missing.
func NewAvatarStore(
	ctx context.Context,
	cfg config.StorageConfig,
) (*AvatarStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = scheme + "://" + cfg.Endpoint + "/" + cfg.Bucket
	}

	return newAvatarStore(client, cfg.Bucket, baseURL, cfg.MaxAvatarSize), nil
}

func newAvatarStore(client objectPutter, bucket, baseURL string, maxSize int64) *AvatarStore {
	return &AvatarStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: maxSize,
	}
}

// Save stores the user's avatar under a key derived from the user id, so a
// new upload replaces the previous one, and returns its public URL.
func (s *AvatarStore) Save(
	ctx context.Context,
	userID string,
	upload Upload,
) (string, error) {
	ext := strings.ToLower(path.Ext(upload.Filename))
	contentType, ok := avatarTypes[ext]
	if !ok {
		return "", ErrUnsupportedType
	}
	if upload.Size > s.maxSize {
		return "", ErrTooLarge
	}

	key := "avatars/" + userID + ext
	_, err := s.client.PutObject(ctx, s.bucket, key,
		io.LimitReader(upload.Body, s.maxSize),
		upload.Size,
		minio.PutObjectOptions{
			ContentType:  contentType,
			CacheControl: "public, max-age=300",
		},
	)
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	return s.baseURL + "/" + key, nil
}
