package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryFileStorage keeps files in process memory. It backs serverless
// deployments without a writable archive and tests.
type MemoryFileStorage struct {
	mu    sync.RWMutex
	files map[string]memoryFile
}

type memoryFile struct {
	data []byte
	meta FileMetadata
}

// NewMemoryFileStorage creates an empty store
func NewMemoryFileStorage() *MemoryFileStorage {
	return &MemoryFileStorage{files: make(map[string]memoryFile)}
}

func (m *MemoryFileStorage) Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error {
	if err := validateKey(key); err != nil {
		return NewStorageError("store", key, err, false)
	}
	if opts == nil {
		opts = &StoreOptions{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.files[key]; exists && !opts.Overwrite {
		return NewStorageError("store", key, ErrFileAlreadyExists, false)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = contentTypeFor(key)
	}
	var metadata map[string]string
	if len(opts.Metadata) > 0 {
		metadata = make(map[string]string, len(opts.Metadata))
		for k, v := range opts.Metadata {
			metadata[k] = v
		}
	}

	m.files[key] = memoryFile{
		data: append([]byte(nil), data...),
		meta: FileMetadata{
			Key:          key,
			Size:         int64(len(data)),
			ContentType:  contentType,
			LastModified: time.Now(),
			Metadata:     metadata,
		},
	}
	return nil
}

func (m *MemoryFileStorage) Retrieve(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.files[key]
	if !ok {
		return nil, NewStorageError("retrieve", key, ErrFileNotFound, false)
	}
	return append([]byte(nil), f.data...), nil
}

func (m *MemoryFileStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[key]; !ok {
		return NewStorageError("delete", key, ErrFileNotFound, false)
	}
	delete(m.files, key)
	return nil
}

func (m *MemoryFileStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[key]
	return ok, nil
}

func (m *MemoryFileStorage) List(ctx context.Context, opts *ListOptions) ([]FileMetadata, error) {
	if opts == nil {
		opts = &ListOptions{}
	}
	limit := opts.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}

	m.mu.RLock()
	files := make([]FileMetadata, 0, len(m.files))
	for key, f := range m.files {
		if strings.HasPrefix(key, opts.Prefix) {
			files = append(files, f.meta)
		}
	}
	m.mu.RUnlock()

	sort.Slice(files, func(i, j int) bool { return files[i].Key < files[j].Key })
	if len(files) > limit {
		files = files[len(files)-limit:]
	}
	return files, nil
}

// GenerateURL returns a memory:// pseudo URL; the handler streams the bytes itself
func (m *MemoryFileStorage) GenerateURL(ctx context.Context, key string) (string, error) {
	if ok, _ := m.Exists(ctx, key); !ok {
		return "", NewStorageError("url", key, ErrFileNotFound, false)
	}
	return "memory://" + key, nil
}

func (m *MemoryFileStorage) Close() error {
	return nil
}
