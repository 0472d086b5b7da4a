// Package storage hands out presigned S3 URLs so clients upload chat media
// straight to the bucket; the API never proxies file bytes.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/oggyb/spark/internal/config"
)

// Upload is a presigned PUT the client performs itself.
type Upload struct {
	URL       string
	Key       string
	ExpiresAt time.Time
}

// Presigner signs attachment uploads for one bucket.
type Presigner struct {
	client *s3.PresignClient
	bucket string
	ttl    time.Duration
	now    func() time.Time
}

// NewS3Presigner loads AWS credentials from the default chain (env, shared config, IAM role).
func NewS3Presigner(ctx context.Context, cfg *config.Config) (*Presigner, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewPresigner(s3.NewFromConfig(awsCfg), cfg.S3.Bucket, cfg.S3.UploadTTL), nil
}

func NewPresigner(client *s3.Client, bucket string, ttl time.Duration) *Presigner {
	return &Presigner{
		client: s3.NewPresignClient(client),
		bucket: bucket,
		ttl:    ttl,
		now:    time.Now,
	}
}

// PresignUpload returns a PUT URL for attachments/<conversationID>/<uuid>-<fileName>.
// contentType is signed into the request, so the upload must send the same header.
func (p *Presigner) PresignUpload(ctx context.Context, conversationID, fileName, contentType string) (Upload, error) {
	key := fmt.Sprintf("attachments/%s/%s-%s", conversationID, uuid.NewString(), sanitizeFileName(fileName))

	req, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return Upload{}, fmt.Errorf("presign upload: %w", err)
	}

	return Upload{URL: req.URL, Key: key, ExpiresAt: p.now().Add(p.ttl).UTC()}, nil
}

// sanitizeFileName keeps the base name and replaces anything outside [A-Za-z0-9._-].
func sanitizeFileName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
	if clean == "" || clean == "." || clean == ".." || clean == "/" {
		return "file"
	}
	return clean
}
