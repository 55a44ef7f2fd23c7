package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/clipforge/backend/internal/config"
	"github.com/clipforge/backend/internal/logging"
)

// PresignedUpload carries everything a browser needs to PUT an object straight
// into the bucket without routing bytes through this service.
type PresignedUpload struct {
	URL   string
	Token string
	Path  string
}

// S3Storage centralizes object persistence against an S3-compatible service:
// direct uploads, presigned browser uploads, downloads and removal.
type S3Storage struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	uploader   *manager.Uploader
	httpClient *http.Client
	bucket     string
	baseURL    string
	presignTTL time.Duration
}

// NewS3Storage configures a client targeting the provided object store.
func NewS3Storage(ctx context.Context, cfg config.ObjectStoreConfig, presignTTL time.Duration) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
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
		client:     client,
		presigner:  s3.NewPresignClient(client),
		uploader:   uploader,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		bucket:     cfg.Bucket,
		baseURL:    strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		presignTTL: presignTTL,
	}, nil
}

// Save uploads the provided content to the configured bucket and returns a public location.
func (s *S3Storage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	key := strings.TrimLeft(name, "/")
	if key == "" {
		return "", fmt.Errorf("s3 storage: empty key")
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   manager.ReadSeekCloser(r),
	})
	if err != nil {
		return "", fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	if s.baseURL == "" {
		return key, nil
	}

	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}

// PresignUpload asks the store to sign a time-limited PUT for the given key.
// The returned token is the signature component of the URL, kept separate for
// clients that submit it as a form field alongside the upload.
func (s *S3Storage) PresignUpload(ctx context.Context, key, contentType string) (PresignedUpload, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return PresignedUpload{}, fmt.Errorf("s3 storage: empty key")
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if strings.TrimSpace(contentType) != "" {
		input.ContentType = aws.String(contentType)
	}

	req, err := s.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return PresignedUpload{}, fmt.Errorf("presign upload %s: %w", key, err)
	}

	return PresignedUpload{
		URL:   req.URL,
		Token: signatureToken(req.URL),
		Path:  key,
	}, nil
}

// Download fetches an object's bytes by key. Store errors surface to the caller.
func (s *S3Storage) Download(ctx context.Context, key string) ([]byte, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return nil, fmt.Errorf("s3 storage: empty key")
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 storage download %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 storage read %s: %w", key, err)
	}

	return data, nil
}

// DownloadURL fetches bytes from an already-signed or public URL.
func (s *S3Storage) DownloadURL(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("download %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read download body: %w", err)
	}

	return data, nil
}

// Delete removes an object by key. Best effort: failures are logged and
// reported through the return value instead of an error.
func (s *S3Storage) Delete(ctx context.Context, key string) bool {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return false
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		logging.FromContext(ctx).Error("delete object", "key", key, "error", err)
		return false
	}

	return true
}

// signatureToken extracts the signature query component from a presigned URL.
func signatureToken(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("X-Amz-Signature")
}
