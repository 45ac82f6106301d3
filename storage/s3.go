package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/filatag/spool-scanner/interfaces"
)

// logObjectName is the object key (under the configured prefix) holding
// the scan log.
const logObjectName = "scan-log.json"

// S3Store keeps the scan log as a single JSON object in an S3 bucket.
// The object is fetched at startup and rewritten on every append; the
// append service is the only writer, so last-writer-wins is safe.
type S3Store struct {
	client      *s3.S3
	bucketName  string
	prefix      string
	log         *slog.Logger
	locationURI string

	mu      sync.Mutex
	loaded  bool
	entries []interfaces.ScanEntry
	index   map[string]struct{}
}

// NewS3Store creates an S3-backed scan store. If accessKey and secretKey
// are empty the client runs unauthenticated, which only works against
// public or emulated buckets.
func NewS3Store(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Store, error) {
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, prefix, region)
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}

	cfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	} else {
		log.Warn("No S3 credentials provided - writes may fail unless the bucket is public writable")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Store{
		client:      s3.New(sess),
		bucketName:  bucketName,
		prefix:      strings.TrimSuffix(prefix, "/"),
		log:         log,
		locationURI: uri,
		index:       make(map[string]struct{}),
	}, nil
}

// Append implements interfaces.ScanStore.
func (s *S3Store) Append(ctx context.Context, entry interfaces.ScanEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return false, err
	}

	key := entry.DedupeKey()
	if _, dup := s.index[key]; dup {
		return false, nil
	}

	s.entries = append(s.entries, entry)
	if err := s.persistLocked(ctx); err != nil {
		s.entries = s.entries[:len(s.entries)-1]
		return false, err
	}
	s.index[key] = struct{}{}
	return true, nil
}

// List implements interfaces.ScanStore.
func (s *S3Store) List(ctx context.Context) ([]interfaces.ScanEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return nil, err
	}

	out := make([]interfaces.ScanEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Name returns a unique identifier for this store backend.
func (s *S3Store) Name() string {
	return fmt.Sprintf("s3-%s", s.bucketName)
}

// LocationURI returns the URI that identifies this store.
func (s *S3Store) LocationURI() string {
	return s.locationURI
}

// loadLocked fetches the log object once. Caller holds s.mu.
func (s *S3Store) loadLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	result, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.objectKey()),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "404") {
			// Fresh log.
			s.loaded = true
			return nil
		}
		return fmt.Errorf("%w: fetching scan log: %v", interfaces.ErrStoreUnavailable, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return fmt.Errorf("%w: reading scan log: %v", interfaces.ErrStoreUnavailable, err)
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return fmt.Errorf("failed to parse scan log object: %w", err)
	}
	for _, e := range s.entries {
		s.index[e.DedupeKey()] = struct{}{}
	}

	s.loaded = true
	s.log.Info("S3 scan store loaded",
		slog.String("bucket", s.bucketName), slog.Int("entries", len(s.entries)))
	return nil
}

// persistLocked rewrites the log object. Caller holds s.mu.
func (s *S3Store) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("failed to encode scan log: %w", err)
	}

	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(s.objectKey()),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("%w: writing scan log: %v", interfaces.ErrStoreUnavailable, err)
	}
	return nil
}

// objectKey returns the full key for the log object.
func (s *S3Store) objectKey() string {
	if s.prefix == "" {
		return logObjectName
	}
	return path.Join(s.prefix, logObjectName)
}
