// Package storage ships rotated log archives to an S3-compatible
// object store and reads them back for inspection.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/safqa-app/safqagate/internal/config"
	"github.com/safqa-app/safqagate/internal/model"
)

// ArchiveClient talks to the S3-compatible archive bucket.
type ArchiveClient struct {
	client *s3.Client
	bucket string
}

// NewArchiveClient builds a client for the archive store. Returns nil
// if endpoint or bucket are unset, which switches shipping off.
func NewArchiveClient(cfg config.ArchiveConfig) (*ArchiveClient, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, nil
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	client := s3.NewFromConfig(aws.Config{
		Region:      region,
		Credentials: aws.NewCredentialsCache(creds),
	}, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})
	return &ArchiveClient{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket if it does not exist (HeadBucket fails → CreateBucket).
func (c *ArchiveClient) EnsureBucket(ctx context.Context) error {
	if c == nil {
		return nil
	}
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err == nil {
		return nil
	}
	_, createErr := c.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(c.bucket)})
	if createErr != nil {
		var apiErr smithy.APIError
		if errors.As(createErr, &apiErr) {
			switch apiErr.ErrorCode() {
			case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
				return nil
			}
		}
		return createErr
	}
	return nil
}

// Put uploads data to key.
func (c *ArchiveClient) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if c == nil {
		return fmt.Errorf("archive client not configured")
	}
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	return err
}

// ObjectInfo describes one stored archive.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// List returns the archives under prefix. Returns nil, nil on an
// unconfigured client.
func (c *ArchiveClient) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if c == nil {
		return nil, nil
	}
	out, err := c.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, err
	}
	result := make([]ObjectInfo, 0, len(out.Contents))
	for _, o := range out.Contents {
		info := ObjectInfo{Key: aws.ToString(o.Key), Size: aws.ToInt64(o.Size)}
		if o.LastModified != nil {
			info.LastModified = *o.LastModified
		}
		result = append(result, info)
	}
	return result, nil
}

// FetchRecords downloads a gzipped archive by key and decodes its log
// records, one JSON object per line.
func (c *ArchiveClient) FetchRecords(ctx context.Context, key string) ([]model.LogRecord, error) {
	if c == nil {
		return nil, fmt.Errorf("archive client not configured")
	}
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	zr, err := gzip.NewReader(out.Body)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer zr.Close()

	var records []model.LogRecord
	dec := json.NewDecoder(zr)
	for dec.More() {
		var rec model.LogRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ArchiveKey builds the object key for one rotated file, prefixed by
// environment and the day the archive covers.
func ArchiveKey(env string, day time.Time, name string) string {
	if env == "" {
		env = "development"
	}
	return path.Join("logs", env, day.UTC().Format("2006/01/02"), name+".gz")
}

// Shipper copies closed log archives into the archive bucket. Rotation
// happens under the log sink's lock, so Enqueue only hands the path to
// a drain goroutine and returns.
type Shipper struct {
	client *ArchiveClient
	env    string
	logger zerolog.Logger
	queue  chan string
	done   chan struct{}
}

// NewShipper returns a shipper, or nil when the client is nil.
func NewShipper(client *ArchiveClient, env string, logger zerolog.Logger) *Shipper {
	if client == nil {
		return nil
	}
	return &Shipper{
		client: client,
		env:    env,
		logger: logger,
		queue:  make(chan string, 16),
		done:   make(chan struct{}),
	}
}

// Enqueue registers a closed archive for shipping. Safe on a nil
// shipper and never blocks; when the queue is full the archive stays
// local only.
func (s *Shipper) Enqueue(archivePath string) {
	if s == nil {
		return
	}
	select {
	case s.queue <- archivePath:
	default:
		s.logger.Warn().Str("archive", archivePath).Msg("ship queue full, archive skipped")
	}
}

// Start launches the drain goroutine. It exits when ctx is cancelled.
func (s *Shipper) Start(ctx context.Context) {
	if s == nil {
		return
	}
	go func() {
		defer close(s.done)
		for {
			select {
			case <-ctx.Done():
				return
			case archivePath := <-s.queue:
				s.ship(ctx, archivePath)
			}
		}
	}()
}

// Wait blocks until the drain goroutine has stopped.
func (s *Shipper) Wait() {
	if s == nil {
		return
	}
	<-s.done
}

func (s *Shipper) ship(ctx context.Context, archivePath string) {
	raw, err := os.ReadFile(archivePath)
	if err != nil {
		s.logger.Error().Err(err).Str("archive", archivePath).Msg("read archive")
		return
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		s.logger.Error().Err(err).Str("archive", archivePath).Msg("compress archive")
		return
	}
	if err := zw.Close(); err != nil {
		s.logger.Error().Err(err).Str("archive", archivePath).Msg("compress archive")
		return
	}

	name := filepath.Base(archivePath)
	key := ArchiveKey(s.env, archiveDay(name), name)
	if err := s.client.Put(ctx, key, buf.Bytes(), "application/gzip"); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("upload archive")
		return
	}
	s.logger.Info().Str("key", key).Int("bytes", buf.Len()).Msg("archive shipped")
}

// archiveDay recovers the day an archive covers from its date suffix,
// e.g. app.log.json.2026-08-21. Unparseable names fall back to now.
func archiveDay(name string) time.Time {
	if len(name) > 10 {
		if day, err := time.Parse("2006-01-02", name[len(name)-10:]); err == nil {
			return day
		}
	}
	return time.Now().UTC()
}
