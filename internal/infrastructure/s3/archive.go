package s3infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ward-notify-api/internal/config"
	"github.com/ward-notify-api/internal/domain"
)

// ArchiveStore writes bulk-deleted notification rows to S3 as JSON objects,
// keyed by user and deletion time, for audit retention.
type ArchiveStore struct {
	client *s3.Client
	bucket string
}

// NewClient creates an S3 client. When cfg.AWSEndpointURL is set (LocalStack),
// it overrides the endpoint and enables path-style addressing.
func NewClient(cfg *config.Config) *s3.Client {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}

	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		panic("failed to load AWS config for S3: " + err.Error())
	}

	clientOpts := []func(*s3.Options){}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(awsCfg, clientOpts...)
}

// NewArchiveStore creates an ArchiveStore with the given S3 client and bucket.
func NewArchiveStore(client *s3.Client, bucket string) *ArchiveStore {
	return &ArchiveStore{client: client, bucket: bucket}
}

// ArchiveDeleted stores a snapshot of the given rows before they are removed.
func (s *ArchiveStore) ArchiveDeleted(ctx context.Context, userID string, rows []domain.Notification) error {
	if len(rows) == 0 {
		return nil
	}
	payload, err := json.Marshal(map[string]interface{}{
		"deleted_by":    userID,
		"deleted_at":    time.Now().UTC(),
		"notifications": rows,
	})
	if err != nil {
		return fmt.Errorf("marshal archive payload: %w", err)
	}
	key := fmt.Sprintf("deleted-notifications/%s/%d.json", userID, time.Now().UTC().UnixNano())
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}
