// Package s3 implements the interaction store on Amazon S3 or any
// S3-compatible object store (MinIO, localstack).
//
// Object layout mirrors the filesystem backend: one JSON object per
// interaction at {prefix}/{session_id}/{uuid}.json. This lets teams share a
// recorded fixture set through a bucket instead of checking files into the
// repository.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/replayd/replayd/internal/logger"
	"github.com/replayd/replayd/pkg/recording"
	"github.com/replayd/replayd/pkg/store"
)

// deleteBatchSize is the S3 DeleteObjects per-request maximum.
const deleteBatchSize = 1000

// Client is the subset of the S3 API the store uses. Satisfied by
// *s3.Client; narrowed for testability.
type Client interface {
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *awss3.DeleteObjectsInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectsOutput, error)
}

// Store persists interactions as JSON objects in a bucket.
type Store struct {
	client    Client
	bucket    string
	keyPrefix string
}

var _ store.Store = (*Store)(nil)

// NewClient creates an S3 client from configuration parameters.
// Static credentials are optional; when absent the default AWS credential
// chain applies.
func NewClient(ctx context.Context, cfg store.S3Config) (*awss3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return client, nil
}

// New creates an S3-backed store. The bucket must already exist.
func New(client Client, bucket, keyPrefix string) (*Store, error) {
	if client == nil {
		return nil, store.NewBackendError("S3 client is required", nil)
	}
	if bucket == "" {
		return nil, store.NewBackendError("S3 bucket name is required", nil)
	}

	return &Store{
		client:    client,
		bucket:    bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
	}, nil
}

// SessionPrefix returns the object-key prefix for a session's interactions.
func (s *Store) SessionPrefix(sessionID string) string {
	if s.keyPrefix == "" {
		return sessionID + "/"
	}
	return s.keyPrefix + "/" + sessionID + "/"
}

// ObjectKey returns the object key for one interaction.
func (s *Store) ObjectKey(sessionID, interactionID string) string {
	return s.SessionPrefix(sessionID) + interactionID + ".json"
}

// Save uploads the interaction as one object.
func (s *Store) Save(ctx context.Context, sessionID string, interaction recording.Interaction) error {
	data, err := json.MarshalIndent(interaction, "", "  ")
	if err != nil {
		return store.NewSerializationError("failed to serialize interaction", err)
	}

	key := s.ObjectKey(sessionID, interaction.ID)
	_, err = s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return store.NewBackendError(fmt.Sprintf("failed to upload interaction to s3://%s/%s", s.bucket, key), err)
	}

	return nil
}

// List pages through the session's key prefix and fetches each .json object.
// Objects that fail to deserialize are logged and skipped, matching the
// filesystem backend's resilience.
func (s *Store) List(ctx context.Context, sessionID string) ([]recording.Interaction, error) {
	prefix := s.SessionPrefix(sessionID)

	var result []recording.Interaction
	paginator := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, store.NewBackendError(fmt.Sprintf("failed to list s3://%s/%s", s.bucket, prefix), err)
		}

		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if path.Ext(key) != ".json" {
				continue
			}

			interaction, err := s.fetch(ctx, key)
			if err != nil {
				return nil, err
			}
			if interaction == nil {
				continue
			}
			result = append(result, *interaction)
		}
	}

	return result, nil
}

// fetch downloads and decodes one interaction object. Returns (nil, nil) for
// malformed objects, which are skipped.
func (s *Store) fetch(ctx context.Context, key string) (*recording.Interaction, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, store.NewBackendError(fmt.Sprintf("failed to fetch s3://%s/%s", s.bucket, key), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, store.NewIOError(fmt.Sprintf("failed to read s3://%s/%s", s.bucket, key), err)
	}

	var interaction recording.Interaction
	if err := json.Unmarshal(data, &interaction); err != nil {
		logger.Warn("skipping malformed interaction object",
			logger.KeyBucket, s.bucket,
			logger.KeyKey, key,
			logger.KeyError, err)
		return nil, nil
	}

	return &interaction, nil
}

// Clear deletes every object under the session's prefix in batches.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	prefix := s.SessionPrefix(sessionID)

	paginator := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var batch []types.ObjectIdentifier
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := s.client.DeleteObjects(ctx, &awss3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{
				Objects: batch,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return store.NewBackendError(fmt.Sprintf("failed to delete interactions under s3://%s/%s", s.bucket, prefix), err)
		}
		batch = batch[:0]
		return nil
	}

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return store.NewBackendError(fmt.Sprintf("failed to list s3://%s/%s", s.bucket, prefix), err)
		}

		for _, object := range page.Contents {
			batch = append(batch, types.ObjectIdentifier{Key: object.Key})
			if len(batch) == deleteBatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}

	return flush()
}

// Close is a no-op; the S3 client holds no local resources.
func (s *Store) Close() error {
	return nil
}
