package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
	"github.com/johnquangdev/lecture-assistant/pkg/config"
)

// MinIOBlobStore keeps transcript and summary documents as JSON objects in a bucket
type MinIOBlobStore struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// NewMinIOBlobStore connects to MinIO and makes sure the bucket exists
func NewMinIOBlobStore(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (*MinIOBlobStore, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	store := &MinIOBlobStore{
		client: minioClient,
		bucket: cfg.BucketName,
		logger: logger,
	}
	if err := store.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}
	return store, nil
}

// ensureBucket creates the bucket when missing; objects stay private
func (m *MinIOBlobStore) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	if m.logger != nil {
		m.logger.Info("✅ Bucket created", zap.String("bucket", m.bucket))
	}
	return nil
}

func (m *MinIOBlobStore) SaveTranscript(ctx context.Context, lectureID string, t *entities.Transcript) error {
	return m.putJSON(ctx, transcriptKey(lectureID), t)
}

func (m *MinIOBlobStore) LoadTranscript(ctx context.Context, lectureID string) (*entities.Transcript, error) {
	var t entities.Transcript
	if err := m.getJSON(ctx, transcriptKey(lectureID), &t, entities.ErrTranscriptNotFound); err != nil {
		return nil, err
	}
	return &t, nil
}

func (m *MinIOBlobStore) DeleteTranscript(ctx context.Context, lectureID string) error {
	return m.remove(ctx, transcriptKey(lectureID))
}

func (m *MinIOBlobStore) SaveSummary(ctx context.Context, lectureID string, s *entities.Summary) error {
	return m.putJSON(ctx, summaryKey(lectureID), s)
}

func (m *MinIOBlobStore) LoadSummary(ctx context.Context, lectureID string) (*entities.Summary, error) {
	var s entities.Summary
	if err := m.getJSON(ctx, summaryKey(lectureID), &s, entities.ErrSummaryNotFound); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MinIOBlobStore) DeleteSummary(ctx context.Context, lectureID string) error {
	return m.remove(ctx, summaryKey(lectureID))
}

func (m *MinIOBlobStore) putJSON(ctx context.Context, objectName string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s: %w", entities.ErrStorageFailed, objectName, err)
	}
	_, err = m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("%w: failed to upload %s: %w", entities.ErrStorageFailed, objectName, err)
	}
	return nil
}

func (m *MinIOBlobStore) getJSON(ctx context.Context, objectName string, v interface{}, notFound error) error {
	obj, err := m.client.GetObject(ctx, m.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return mapMinIOError(err, notFound)
	}
	defer obj.Close()

	// GetObject is lazy; the missing key surfaces on first read
	data, err := io.ReadAll(obj)
	if err != nil {
		return mapMinIOError(err, notFound)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: failed to decode %s: %w", entities.ErrStorageFailed, objectName, err)
	}
	return nil
}

func (m *MinIOBlobStore) remove(ctx context.Context, objectName string) error {
	// RemoveObject does not fail for missing keys
	if err := m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: failed to remove %s: %w", entities.ErrStorageFailed, objectName, err)
	}
	return nil
}

func mapMinIOError(err error, notFound error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return notFound
	}
	return fmt.Errorf("%w: %w", entities.ErrStorageFailed, err)
}
