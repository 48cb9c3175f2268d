package export

import (
	"context"
	"fmt"
	"path"
	"strings"

	"retail-cockpit-api/internal/adapters/storage"

	"github.com/sirupsen/logrus"
)

const archivePrefix = "exports/"

// Archive describes a stored workbook
type Archive struct {
	Key         string            `json:"key"`
	URL         string            `json:"url"`
	Size        int64             `json:"size"`
	ContentType string            `json:"content_type"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Exporter renders reports and keeps them in file storage
type Exporter struct {
	storage storage.FileStorage
	logger  *logrus.Logger
}

func NewExporter(fs storage.FileStorage, logger *logrus.Logger) *Exporter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Exporter{storage: fs, logger: logger}
}

// ArchiveKey names the stored workbook of a report
func ArchiveKey(r *Report) string {
	label := strings.ReplaceAll(r.Filter.String(), "-", "")
	return fmt.Sprintf("%s%04d/kpi-%s-%s.xlsx",
		archivePrefix, r.Filter.Year, label, r.GeneratedAt.Format("20060102T150405Z"))
}

// Export renders r and stores it, returning the archive entry and the bytes
func (e *Exporter) Export(ctx context.Context, r *Report) (*Archive, []byte, error) {
	data, err := Render(r)
	if err != nil {
		return nil, nil, err
	}

	key := ArchiveKey(r)
	meta := map[string]string{
		"period":       r.Filter.String(),
		"generated_at": r.GeneratedAt.Format("2006-01-02T15:04:05Z"),
	}
	if r.Scope.Area != "" {
		meta["area"] = r.Scope.Area
	}
	if len(r.Scope.Stores) > 0 {
		meta["stores"] = strings.Join(r.Scope.Stores, ",")
	}

	err = e.storage.Store(ctx, key, data, &storage.StoreOptions{
		ContentType: storage.XLSXContentType,
		Metadata:    meta,
		Overwrite:   true,
	})
	if err != nil {
		e.logger.WithError(err).WithField("key", key).Error("Failed to store export")
		return nil, nil, fmt.Errorf("failed to store export: %w", err)
	}

	url, err := e.storage.GenerateURL(ctx, key)
	if err != nil {
		e.logger.WithError(err).WithField("key", key).Warn("Failed to generate export URL")
	}

	e.logger.WithFields(logrus.Fields{
		"key":       key,
		"period":    meta["period"],
		"bytes":     len(data),
		"employees": len(r.Employees),
		"stores":    len(r.Stores),
	}).Info("Exported KPI workbook")

	return &Archive{
		Key:         key,
		URL:         url,
		Size:        int64(len(data)),
		ContentType: storage.XLSXContentType,
		Metadata:    meta,
	}, data, nil
}

// ListArchives returns stored workbooks in descending key order
func (e *Exporter) ListArchives(ctx context.Context, limit int) ([]Archive, error) {
	files, err := e.storage.List(ctx, &storage.ListOptions{Prefix: archivePrefix, MaxResults: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}

	out := make([]Archive, 0, len(files))
	for i := len(files) - 1; i >= 0; i-- {
		f := files[i]
		if path.Ext(f.Key) != ".xlsx" {
			continue
		}
		url, _ := e.storage.GenerateURL(ctx, f.Key)
		out = append(out, Archive{
			Key:         f.Key,
			URL:         url,
			Size:        f.Size,
			ContentType: f.ContentType,
			Metadata:    f.Metadata,
		})
	}
	return out, nil
}

// Retrieve loads a stored workbook
func (e *Exporter) Retrieve(ctx context.Context, key string) ([]byte, error) {
	if !strings.HasPrefix(key, archivePrefix) {
		return nil, storage.NewStorageError("retrieve", key, storage.ErrInvalidKey, false)
	}
	return e.storage.Retrieve(ctx, key)
}
