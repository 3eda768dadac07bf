// Package blob stores backup artifacts on the local filesystem, in memory
// or in an S3-compatible bucket.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/agentstation/airsync/pkg/errors"
)

// Driver identifies a blob backend.
type Driver string

// Supported drivers.
const (
	DriverFilesystem Driver = "fs"
	DriverMemory     Driver = "memory"
	DriverS3         Driver = "s3"
)

// Info describes a stored blob.
type Info struct {
	Key          string    `json:"key" yaml:"key"`
	Size         int64     `json:"size_bytes" yaml:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified" yaml:"last_modified"`
}

// Store is a flat key/value object store. Put overwrites.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// Config selects and configures a backend.
type Config struct {
	Driver Driver   `mapstructure:"driver" yaml:"driver"`
	Root   string   `mapstructure:"root" yaml:"root"`
	S3     S3Config `mapstructure:"s3" yaml:"s3"`
}

// Open returns the backend named by cfg.Driver, defaulting to fs.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		return NewFilesystem(cfg.Root)
	case DriverMemory:
		return NewMemory(), nil
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, errors.NewConfigError("blob", fmt.Sprintf("unknown driver %q", cfg.Driver), nil)
	}
}

// cleanKey rejects keys that are empty, absolute or escape the root.
func cleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.NewValidationError("key", key, "is empty")
	}
	if strings.HasPrefix(key, "/") {
		return "", errors.NewValidationError("key", key, "must be relative")
	}
	clean := path.Clean(key)
	if clean == ".." || strings.HasPrefix(clean, "../") || strings.Contains(key, "..") {
		return "", errors.NewValidationError("key", key, "must not contain '..'")
	}
	return clean, nil
}
