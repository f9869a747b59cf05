// Package archive uploads the generated files of wiki instances to S3.
package archive

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// Uploader is the part of the S3 upload manager the archiver needs.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Archiver copies directories to a bucket.
type Archiver struct {
	Bucket   string
	uploader Uploader
	log      *zap.Logger
}

// New returns an archiver using the default AWS credential chain. An empty
// region keeps the region of the environment or shared config.
func New(ctx context.Context, bucket, region string, log *zap.Logger) (*Archiver, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewWithUploader(bucket, manager.NewUploader(s3.NewFromConfig(cfg)), log), nil
}

// NewWithUploader returns an archiver using the given uploader.
func NewWithUploader(bucket string, uploader Uploader, log *zap.Logger) *Archiver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Archiver{Bucket: bucket, uploader: uploader, log: log}
}

// Upload puts every regular file below dir to {prefix}/{relative path} and
// returns the keys written.
func (a *Archiver) Upload(ctx context.Context, dir, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		key := path.Join(prefix, filepath.ToSlash(rel))
		if err := a.put(ctx, p, key); err != nil {
			return err
		}
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return keys, err
	}
	a.log.Info("archived", zap.String("dir", dir), zap.String("bucket", a.Bucket), zap.Int("files", len(keys)))
	return keys, nil
}

func (a *Archiver) put(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	a.log.Debug("uploading", zap.String("file", file), zap.String("key", key))
	_, err = a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("upload %s to s3://%s/%s: %w", file, a.Bucket, key, err)
	}
	return nil
}
