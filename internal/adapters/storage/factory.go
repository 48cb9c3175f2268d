package storage

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// StorageType names a storage backend
type StorageType string

const (
	StorageTypeLocal  StorageType = "local"
	StorageTypeMemory StorageType = "memory"
)

// New creates the configured backend wrapped with retries. A nil retry
// config disables the wrapper.
func New(config Config, retry *RetryConfig, logger *logrus.Logger) (FileStorage, error) {
	var (
		storage FileStorage
		err     error
	)

	switch StorageType(strings.ToLower(strings.TrimSpace(config.Type))) {
	case StorageTypeLocal, "":
		basePath := config.BasePath
		if basePath == "" {
			basePath = "./data/exports"
		}
		storage, err = NewLocalFileStorage(basePath, config.BaseURL)
	case StorageTypeMemory:
		storage = NewMemoryFileStorage()
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage: %w", config.Type, err)
	}

	if retry != nil {
		storage = NewRetryableFileStorage(storage, retry, logger)
	}
	return storage, nil
}
