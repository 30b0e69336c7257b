// Package sweeper deletes aged query result artifacts from the engine's
// output bucket. Every executed statement leaves a CSV and a metadata file
// behind; nothing downstream reads them once the response has been served.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/lotquery/lotquery/internal/observability"
)

// maxDeleteBatch is the object store's hard cap per DeleteObjects call.
const maxDeleteBatch = 1000

type ObjectStore interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type Config struct {
	OutputLocation string
	Interval       time.Duration
	MaxAge         time.Duration
	BatchSize      int
}

type Service struct {
	Store  ObjectStore
	Config Config
	Logger *slog.Logger
	Clock  func() time.Time
}

type Summary struct {
	ObjectsScanned int `json:"objects_scanned"`
	ObjectsDeleted int `json:"objects_deleted"`
	Failures       int `json:"failures"`
}

// ParseOutputLocation splits an s3://bucket/prefix URI into its parts. The
// prefix may be empty; the bucket may not.
func ParseOutputLocation(location string) (bucket, prefix string, err error) {
	trimmed := strings.TrimPrefix(location, "s3://")
	if trimmed == location {
		return "", "", fmt.Errorf("output location %q is not an s3:// URI", location)
	}
	bucket, prefix, _ = strings.Cut(trimmed, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("output location %q has no bucket", location)
	}
	return bucket, prefix, nil
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.ensureDefaults()

	ticker := time.NewTicker(s.Config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			summary, err := s.RunOnce(ctx)
			if err != nil {
				if s.Logger != nil {
					s.Logger.ErrorContext(ctx, "sweep cycle failed", slog.Any("error", err), slog.Any("summary", summary))
				}
				continue
			}
			if s.Logger != nil {
				s.Logger.InfoContext(ctx, "sweep cycle completed", slog.Any("summary", summary))
			}
		}
	}
}

// RunOnce lists the output prefix and deletes every object whose last
// modification is older than MaxAge. Deletion failures are collected rather
// than aborting the cycle so one stuck object cannot block the rest.
func (s *Service) RunOnce(ctx context.Context) (Summary, error) {
	s.ensureDefaults()
	if s.Store == nil {
		return Summary{}, fmt.Errorf("object store is required")
	}

	bucket, prefix, err := ParseOutputLocation(s.Config.OutputLocation)
	if err != nil {
		return Summary{}, err
	}

	cutoff := s.Clock().Add(-s.Config.MaxAge)
	summary := Summary{}
	failures := make([]string, 0)

	batch := make([]s3types.ObjectIdentifier, 0, s.Config.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		deleted, err := s.deleteBatch(ctx, bucket, batch)
		summary.ObjectsDeleted += deleted
		if err != nil {
			summary.Failures++
			failures = append(failures, err.Error())
		}
		batch = batch[:0]
	}

	var continuation *string
	for {
		page, err := s.Store.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			summary.Failures++
			failures = append(failures, fmt.Sprintf("list %s/%s: %v", bucket, prefix, err))
			break
		}

		for _, object := range page.Contents {
			summary.ObjectsScanned++
			if object.Key == nil || object.LastModified == nil {
				continue
			}
			if !object.LastModified.Before(cutoff) {
				continue
			}
			batch = append(batch, s3types.ObjectIdentifier{Key: object.Key})
			if len(batch) >= s.Config.BatchSize {
				flush()
			}
		}

		if page.IsTruncated == nil || !*page.IsTruncated {
			break
		}
		continuation = page.NextContinuationToken
	}
	flush()

	observability.AddSweptArtifacts(summary.ObjectsDeleted)

	if len(failures) > 0 {
		return summary, fmt.Errorf("sweep encountered %d failure(s): %s", len(failures), strings.Join(failures, "; "))
	}
	return summary, nil
}

func (s *Service) deleteBatch(ctx context.Context, bucket string, batch []s3types.ObjectIdentifier) (int, error) {
	objects := make([]s3types.ObjectIdentifier, len(batch))
	copy(objects, batch)

	out, err := s.Store.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &s3types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("delete batch of %d: %w", len(objects), err)
	}

	failed := len(out.Errors)
	deleted := len(objects) - failed
	if failed > 0 {
		first := out.Errors[0]
		return deleted, fmt.Errorf("delete batch: %d object(s) rejected, first: %s %s",
			failed, aws.ToString(first.Key), aws.ToString(first.Message))
	}
	return deleted, nil
}

func (s *Service) ensureDefaults() {
	if s.Config.Interval <= 0 {
		s.Config.Interval = 10 * time.Minute
	}
	if s.Config.MaxAge <= 0 {
		s.Config.MaxAge = 24 * time.Hour
	}
	if s.Config.BatchSize <= 0 || s.Config.BatchSize > maxDeleteBatch {
		s.Config.BatchSize = maxDeleteBatch
	}
	if s.Clock == nil {
		s.Clock = time.Now
	}
}
