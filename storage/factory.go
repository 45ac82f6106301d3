// Package storage provides scan log store backends for the append
// service, created from location URIs.
package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/filatag/spool-scanner/interfaces"
)

// StoreFactory creates scan stores from URI strings.
type StoreFactory struct {
	log *slog.Logger
}

// NewStoreFactory creates a new factory instance.
func NewStoreFactory(logger *slog.Logger) *StoreFactory {
	return &StoreFactory{log: logger}
}

// StoreFor creates a scan store from a location URI.
//
// Supported schemes:
//   - file:// - Local filesystem storage (file:///var/lib/spoolscan/log.json)
//   - s3:// - Amazon S3 or compatible object storage
//     (s3://bucket/prefix?region=...&endpoint=...&accessKey=...&secretKey=...)
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (sf *StoreFactory) StoreFor(locationURI string) (interfaces.ScanStore, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return sf.createFileStore(u)
	case "s3":
		return sf.createS3Store(u)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// createFileStore creates a local file store.
// URI format: file:///var/lib/spoolscan/log.json
func (sf *StoreFactory) createFileStore(u *url.URL) (interfaces.ScanStore, error) {
	sf.log.Debug("Creating file scan store", slog.String("uri", u.String()))

	path := u.Path
	if u.Host != "" {
		// Tolerate file://relative/path by joining host and path.
		path = u.Host + u.Path
	}
	if path == "" {
		return nil, fmt.Errorf("%w: file URI has no path", interfaces.ErrInvalidLocationURI)
	}

	return NewFileStore(path, sf.log)
}

// createS3Store creates an S3 store from the URI host, path and query
// parameters.
func (sf *StoreFactory) createS3Store(u *url.URL) (interfaces.ScanStore, error) {
	sf.log.Debug("Creating S3 scan store", slog.String("bucket", u.Host))

	if u.Host == "" {
		return nil, fmt.Errorf("%w: s3 URI has no bucket", interfaces.ErrInvalidLocationURI)
	}

	q := u.Query()
	region := q.Get("region")
	if region == "" {
		region = "us-east-1"
	}

	return NewS3Store(u.Host, strings.TrimPrefix(u.Path, "/"), region,
		q.Get("endpoint"), q.Get("accessKey"), q.Get("secretKey"), sf.log)
}
