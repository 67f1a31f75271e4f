package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	mediaapp "github.com/uv/backend/internal/application/media"
	"github.com/uv/backend/internal/domain/media"
	infraconfig "github.com/uv/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// S3API is the subset of the S3 client used by S3MediaStorage
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3MediaStorage stores media in an S3-compatible bucket (AWS S3, MinIO,
// RustFS). Object keys mirror local URLs, so "/images/covers/x.png" lives at
// "images/covers/x.png".
type S3MediaStorage struct {
	client            S3API
	presignClient     *s3.PresignClient
	bucket            string
	presignExpiration time.Duration
	backendOptions
}

var (
	_ mediaapp.StorageBackend = (*S3MediaStorage)(nil)
	_ mediaapp.ObjectLocator  = (*S3MediaStorage)(nil)
)

// NewS3MediaStorage creates an S3 backend from configuration.
func NewS3MediaStorage(cfg *infraconfig.StorageConfig, opts ...Option) (*S3MediaStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	s := newS3MediaStorage(client, cfg.Bucket, opts...)
	s.presignClient = s3.NewPresignClient(client)
	if cfg.PresignExpiration > 0 {
		s.presignExpiration = cfg.PresignExpiration
	}
	return s, nil
}

func newS3MediaStorage(client S3API, bucket string, opts ...Option) *S3MediaStorage {
	return &S3MediaStorage{
		client:            client,
		bucket:            bucket,
		presignExpiration: 15 * time.Minute,
		backendOptions:    applyOptions(opts),
	}
}

// Bucket returns the bucket name
func (s *S3MediaStorage) Bucket() string {
	return s.bucket
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *S3MediaStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating storage bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Store uploads the body under "<prefix>/[<subfolder>/]<uuid>.<ext>".
// Seekable bodies are streamed; others are buffered to learn their length.
func (s *S3MediaStorage) Store(ctx context.Context, req mediaapp.StoreRequest) (obj *mediaapp.StoredObject, err error) {
	start := time.Now()
	defer func() {
		var size int64
		if obj != nil {
			size = obj.Size
		}
		s.observer.RecordUpload(time.Since(start), size, err)
	}()

	subfolder, ok := cleanSubfolder(req.Subfolder)
	if !ok {
		return nil, media.NewValidationError("Invalid upload subfolder")
	}

	body, size, err := sizedBody(req.Body)
	if err != nil {
		return nil, media.NewStorageIOError("Could not read upload", err)
	}

	prefix := req.Category.URLPrefix()
	name := newStoredFileName(req.OriginalFileName)
	publicURL := media.BuildURL(prefix, subfolder, name)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey(publicURL)),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(req.MIMEType),
	})
	if err != nil {
		return nil, media.NewStorageIOError("Could not upload file", err)
	}

	return &mediaapp.StoredObject{StoredFileName: name, URL: publicURL, Size: size}, nil
}

// Delete removes the object behind a locally hosted URL and its registry record.
func (s *S3MediaStorage) Delete(ctx context.Context, rawURL string) bool {
	if rawURL == "" || media.IsExternalURL(rawURL) {
		return true
	}
	key, ok := s.Key(rawURL)
	if !ok {
		s.logger.Warn("Refusing to delete unresolvable media URL", zap.String("url", rawURL))
		return false
	}

	start := time.Now()
	removed, err := s.deleteObject(ctx, key)
	s.observer.RecordDelete(time.Since(start), removed, err)
	if err != nil {
		s.logger.Warn("Failed to delete media object", zap.String("key", key), zap.Error(err))
	}

	removeRecord(ctx, s.remover, s.logger, rawURL)
	return removed
}

func (s *S3MediaStorage) deleteObject(ctx context.Context, key string) (bool, error) {
	exists, err := s.exists(ctx, key)
	if err != nil || !exists {
		return false, err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return false, err
	}
	return true, nil
}

func (s *S3MediaStorage) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return false, nil
	}
	// some S3-compatible services only carry the code in the message
	if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchKey") {
		return false, nil
	}
	return false, err
}

// Key resolves a locally hosted URL to its object key
func (s *S3MediaStorage) Key(rawURL string) (string, bool) {
	local, ok := media.ParseLocalURL(rawURL)
	if !ok {
		return "", false
	}
	return local.Prefix + "/" + local.Relative, true
}

// PresignedURL returns a time-limited GET URL for the object behind rawURL
func (s *S3MediaStorage) PresignedURL(ctx context.Context, rawURL string) (string, error) {
	if s.presignClient == nil {
		return "", errors.New("presigning is not configured")
	}
	key, ok := s.Key(rawURL)
	if !ok {
		return "", media.ErrMediaNotFound
	}
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignExpiration))
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return req.URL, nil
}

// Locate points downloads at a presigned URL for the object behind rawURL
func (s *S3MediaStorage) Locate(ctx context.Context, rawURL string) (*mediaapp.ObjectLocation, error) {
	key, ok := s.Key(rawURL)
	if !ok {
		return nil, media.ErrMediaNotFound
	}
	exists, err := s.exists(ctx, key)
	if err != nil {
		return nil, media.NewStorageIOError("Could not look up media object", err)
	}
	if !exists {
		return nil, media.ErrMediaNotFound
	}
	signed, err := s.PresignedURL(ctx, rawURL)
	if err != nil {
		return nil, media.NewStorageIOError("Could not sign media download", err)
	}
	return &mediaapp.ObjectLocation{RedirectURL: signed}, nil
}

func objectKey(publicURL string) string {
	local, _ := media.ParseLocalURL(publicURL)
	return local.Prefix + "/" + local.Relative
}

func sizedBody(r io.Reader) (io.Reader, int64, error) {
	if seeker, ok := r.(io.ReadSeeker); ok {
		cur, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, 0, err
		}
		end, err := seeker.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, err
		}
		if _, err := seeker.Seek(cur, io.SeekStart); err != nil {
			return nil, 0, err
		}
		return seeker, end - cur, nil
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(buf.Bytes()), n, nil
}
