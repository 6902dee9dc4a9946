// Package blob is the document substrate under the ingredient table and the
// JSON history. Each document is one key holding a whole JSON collection;
// callers read it, merge, and write it back.
//
// Backends: local filesystem (default), S3 / MinIO (the "cloud" storage mode)
// and in-memory (tests).
package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Driver identifies a concrete backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// ErrNotFound is returned by Read when the key does not exist.
var ErrNotFound = errors.New("blob: not found")

// Store reads and writes whole documents by key.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Driver() Driver
}

// ParseDriver validates a driver name from configuration.
func ParseDriver(s string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(s))); d {
	case DriverFilesystem, DriverS3, DriverMemory:
		return d, nil
	case "":
		return DriverFilesystem, nil
	default:
		return "", fmt.Errorf("invalid storage driver %q: must be one of: fs, s3, memory", s)
	}
}

// sanitizeKey keeps keys relative and inside the store root.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key %q: contains '..'", key)
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid key %q: absolute", key)
	}
	return key, nil
}
