package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const metadataSuffix = ".meta.json"

// LocalFileStorage stores files below a base directory
type LocalFileStorage struct {
	basePath string
	baseURL  string
}

// NewLocalFileStorage creates the base directory if needed. When baseURL is
// set, GenerateURL returns HTTP links under it instead of file:// paths.
func NewLocalFileStorage(basePath, baseURL string) (*LocalFileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, NewStorageError("init", "", err, false)
	}
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, NewStorageError("init", "", err, false)
	}
	return &LocalFileStorage{
		basePath: absPath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Store writes data through a temp file and rename
func (l *LocalFileStorage) Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error {
	if err := validateKey(key); err != nil {
		return NewStorageError("store", key, err, false)
	}
	if opts == nil {
		opts = &StoreOptions{}
	}

	path := l.path(key)
	if !opts.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return NewStorageError("store", key, ErrFileAlreadyExists, false)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return NewStorageError("store", key, err, true)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return NewStorageError("store", key, err, true)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return NewStorageError("store", key, err, true)
	}

	if len(opts.Metadata) > 0 || opts.ContentType != "" {
		sidecar := FileMetadata{ContentType: opts.ContentType, Metadata: opts.Metadata}
		raw, err := json.Marshal(sidecar)
		if err != nil {
			return NewStorageError("store", key, err, false)
		}
		if err := os.WriteFile(path+metadataSuffix, raw, 0644); err != nil {
			return NewStorageError("store", key, err, true)
		}
	}
	return nil
}

func (l *LocalFileStorage) Retrieve(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, NewStorageError("retrieve", key, err, false)
	}
	data, err := os.ReadFile(l.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, NewStorageError("retrieve", key, ErrFileNotFound, false)
	}
	if err != nil {
		return nil, NewStorageError("retrieve", key, err, true)
	}
	return data, nil
}

func (l *LocalFileStorage) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return NewStorageError("delete", key, err, false)
	}
	path := l.path(key)
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewStorageError("delete", key, ErrFileNotFound, false)
	}
	if err != nil {
		return NewStorageError("delete", key, err, true)
	}
	os.Remove(path + metadataSuffix)
	return nil
}

func (l *LocalFileStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, NewStorageError("exists", key, err, false)
	}
	_, err := os.Stat(l.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, NewStorageError("exists", key, err, true)
	}
	return true, nil
}

func (l *LocalFileStorage) List(ctx context.Context, opts *ListOptions) ([]FileMetadata, error) {
	if opts == nil {
		opts = &ListOptions{}
	}
	limit := opts.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}

	var files []FileMetadata
	err := filepath.WalkDir(l.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, metadataSuffix) || strings.HasSuffix(path, ".tmp") {
			return nil
		}

		rel, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, opts.Prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		meta := l.sidecar(path)
		meta.Key = key
		meta.Size = info.Size()
		meta.LastModified = info.ModTime()
		files = append(files, meta)
		return nil
	})
	if err != nil {
		return nil, NewStorageError("list", opts.Prefix, err, true)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Key < files[j].Key })
	if len(files) > limit {
		files = files[len(files)-limit:]
	}
	return files, nil
}

func (l *LocalFileStorage) GenerateURL(ctx context.Context, key string) (string, error) {
	exists, err := l.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", NewStorageError("url", key, ErrFileNotFound, false)
	}
	if l.baseURL != "" {
		return fmt.Sprintf("%s/%s", l.baseURL, key), nil
	}
	return "file://" + l.path(key), nil
}

func (l *LocalFileStorage) Close() error {
	return nil
}

func (l *LocalFileStorage) path(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(key))
}

// sidecar reads stored metadata, falling back to the extension's MIME type
func (l *LocalFileStorage) sidecar(path string) FileMetadata {
	var meta FileMetadata
	if raw, err := os.ReadFile(path + metadataSuffix); err == nil {
		_ = json.Unmarshal(raw, &meta)
	}
	if meta.ContentType == "" {
		meta.ContentType = contentTypeFor(path)
	}
	return meta
}

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	return nil
}

// XLSXContentType is the MIME type of Excel workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func contentTypeFor(key string) string {
	if strings.EqualFold(filepath.Ext(key), ".xlsx") {
		return XLSXContentType
	}
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
