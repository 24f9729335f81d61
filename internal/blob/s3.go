package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"chirper-api/internal/config"
	"chirper-api/pkg/logger"
)

// S3Store stores media in an S3-compatible bucket. References are public
// URLs of the form <publicURL>/<folder>/<uuid><ext>.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
	log       *logger.Logger
}

// NewS3Store constructs an S3 client for the configured bucket.
func NewS3Store(ctx context.Context, cfg *config.Config, log *logger.Logger) (*S3Store, error) {
	if cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "" || cfg.S3BucketName == "" || cfg.S3PublicURL == "" {
		return nil, fmt.Errorf("missing S3 configuration")
	}

	region := cfg.S3Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:    client,
		bucket:    cfg.S3BucketName,
		publicURL: strings.TrimSuffix(cfg.S3PublicURL, "/"),
		log:       log,
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, f File, folder string) (string, error) {
	key := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), path.Ext(f.Name))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(f.Data),
		ContentType: aws.String(f.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to s3: %w", err)
	}

	s.log.WithField("key", key).Info("uploaded object to s3")
	return fmt.Sprintf("%s/%s", s.publicURL, key), nil
}

func (s *S3Store) UploadMany(ctx context.Context, files []File, folder string) ([]string, error) {
	if err := validateBatch(files); err != nil {
		return nil, err
	}

	refs := make([]string, 0, len(files))
	for _, f := range files {
		ref, err := s.Upload(ctx, f, folder)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *S3Store) Delete(ctx context.Context, ref string) error {
	key := s.keyFromRef(ref)
	if key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from s3: %w", err)
	}

	s.log.WithField("key", key).Info("deleted object from s3")
	return nil
}

func (s *S3Store) Read(ctx context.Context, ref string) ([]byte, error) {
	key := s.keyFromRef(ref)
	if key == "" {
		return nil, fmt.Errorf("invalid s3 reference: %q", ref)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read from s3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3 object body: %w", err)
	}
	return data, nil
}

// keyFromRef strips the public URL prefix to recover the object key.
func (s *S3Store) keyFromRef(ref string) string {
	return strings.TrimPrefix(strings.TrimPrefix(ref, s.publicURL), "/")
}
