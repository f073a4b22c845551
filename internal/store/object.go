package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/rvasanth/cardpipe/internal/config"
	"github.com/rvasanth/cardpipe/internal/model"
)

// ObjectStore is the document backend: one JSON document per record, keyed
// by the generated identifier, in an S3-compatible bucket. Here the pending
// state is kept as the verification string rather than an integer flag.
type ObjectStore struct {
	client *minio.Client
	bucket string
	region string
}

// NewObjectStore creates the client and makes sure the bucket exists.
func NewObjectStore(ctx context.Context, cfg *config.Config) (*ObjectStore, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store: %w", err)
	}
	s := &ObjectStore{client: client, bucket: cfg.S3Bucket, region: cfg.S3Region}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ObjectStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Ping verifies the bucket is reachable, used by the preflight check.
func (s *ObjectStore) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("ping object store: %w", err)
	}
	return nil
}

// Save puts the record as one JSON object under its generated id.
func (s *ObjectStore) Save(ctx context.Context, rec model.NormalizedRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	opts := minio.PutObjectOptions{ContentType: "application/json"}
	if _, err := s.client.PutObject(ctx, s.bucket, objectKey(rec.ID), bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

// Delete removes the record object, compensating a failed archive.
func (s *ObjectStore) Delete(ctx context.Context, id string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey(id), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove record: %w", err)
	}
	return nil
}

// Close is a no-op; the minio client holds no pooled resources that need
// explicit release.
func (s *ObjectStore) Close() {}

func objectKey(id string) string {
	return fmt.Sprintf("pan_cards/%s.json", id)
}
