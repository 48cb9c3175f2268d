package storage

import (
	"context"
	"time"
)

// FileMetadata describes an archived file
type FileMetadata struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type"`
	LastModified time.Time         `json:"last_modified"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ListOptions filters a listing
type ListOptions struct {
	Prefix     string `json:"prefix,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// StoreOptions provides options for storing files
type StoreOptions struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Overwrite   bool              `json:"overwrite,omitempty"`
}

// FileStorage archives generated reports such as XLSX exports.
// Keys are slash separated relative paths.
type FileStorage interface {
	Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error
	Retrieve(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// List returns files in key order, newest keys last
	List(ctx context.Context, opts *ListOptions) ([]FileMetadata, error)

	// GenerateURL returns a download location for key
	GenerateURL(ctx context.Context, key string) (string, error)

	Close() error
}

// Config selects and configures a storage backend
type Config struct {
	Type     string `mapstructure:"type"` // "local" or "memory"
	BasePath string `mapstructure:"base_path"`
	BaseURL  string `mapstructure:"base_url"`
}

const defaultMaxResults = 1000
