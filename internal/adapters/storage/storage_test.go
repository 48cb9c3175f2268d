package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func backends(t *testing.T) map[string]FileStorage {
	t.Helper()
	local, err := NewLocalFileStorage(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewLocalFileStorage() error = %v", err)
	}
	return map[string]FileStorage{
		"local":  local,
		"memory": NewMemoryFileStorage(),
	}
}

func TestFileStorage_Lifecycle(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			opts := &StoreOptions{Metadata: map[string]string{"period": "2024-03"}}
			if err := s.Store(ctx, "exports/2024/a.xlsx", []byte("one"), opts); err != nil {
				t.Fatalf("Store() error = %v", err)
			}
			if err := s.Store(ctx, "exports/2024/a.xlsx", []byte("two"), opts); !IsAlreadyExists(err) {
				t.Errorf("expected already exists, got %v", err)
			}
			if err := s.Store(ctx, "exports/2024/a.xlsx", []byte("two"), &StoreOptions{Overwrite: true, Metadata: opts.Metadata}); err != nil {
				t.Fatalf("Store(overwrite) error = %v", err)
			}
			if err := s.Store(ctx, "exports/2024/b.xlsx", []byte("bee"), nil); err != nil {
				t.Fatalf("Store() error = %v", err)
			}
			if err := s.Store(ctx, "other/c.txt", []byte("c"), nil); err != nil {
				t.Fatalf("Store() error = %v", err)
			}

			data, err := s.Retrieve(ctx, "exports/2024/a.xlsx")
			if err != nil || string(data) != "two" {
				t.Errorf("Retrieve() = %q, %v", data, err)
			}

			files, err := s.List(ctx, &ListOptions{Prefix: "exports/"})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(files) != 2 || files[0].Key != "exports/2024/a.xlsx" || files[1].Key != "exports/2024/b.xlsx" {
				t.Fatalf("unexpected listing %+v", files)
			}
			if files[0].Metadata["period"] != "2024-03" || files[0].Size != 3 {
				t.Errorf("metadata did not round trip: %+v", files[0])
			}
			if !strings.Contains(files[0].ContentType, "spreadsheet") {
				t.Errorf("expected xlsx content type, got %q", files[0].ContentType)
			}

			latest, err := s.List(ctx, &ListOptions{Prefix: "exports/", MaxResults: 1})
			if err != nil || len(latest) != 1 || latest[0].Key != "exports/2024/b.xlsx" {
				t.Errorf("MaxResults should keep the last keys, got %+v, %v", latest, err)
			}

			url, err := s.GenerateURL(ctx, "exports/2024/b.xlsx")
			if err != nil || !strings.HasSuffix(url, "exports/2024/b.xlsx") {
				t.Errorf("GenerateURL() = %q, %v", url, err)
			}

			if err := s.Delete(ctx, "exports/2024/a.xlsx"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if ok, _ := s.Exists(ctx, "exports/2024/a.xlsx"); ok {
				t.Error("file should be gone after delete")
			}
			if _, err := s.Retrieve(ctx, "exports/2024/a.xlsx"); !IsNotFound(err) {
				t.Errorf("expected not found, got %v", err)
			}
			if err := s.Delete(ctx, "exports/2024/a.xlsx"); !IsNotFound(err) {
				t.Errorf("expected not found on second delete, got %v", err)
			}
		})
	}
}

func TestFileStorage_InvalidKeys(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		for _, key := range []string{"", "/abs/path", "../escape", "a/../../b"} {
			t.Run(name+" "+key, func(t *testing.T) {
				err := s.Store(ctx, key, []byte("x"), nil)
				if !errors.Is(err, ErrInvalidKey) {
					t.Errorf("expected invalid key, got %v", err)
				}
			})
		}
	}
}

func TestLocalFileStorage_BaseURL(t *testing.T) {
	s, err := NewLocalFileStorage(t.TempDir(), "https://reports.example.com/files/")
	if err != nil {
		t.Fatalf("NewLocalFileStorage() error = %v", err)
	}
	ctx := context.Background()
	if err := s.Store(ctx, "r.xlsx", []byte("x"), nil); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	url, err := s.GenerateURL(ctx, "r.xlsx")
	if err != nil || url != "https://reports.example.com/files/r.xlsx" {
		t.Errorf("GenerateURL() = %q, %v", url, err)
	}
	if _, err := s.GenerateURL(ctx, "missing.xlsx"); !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

// flakyStorage fails Store a fixed number of times
type flakyStorage struct {
	*MemoryFileStorage
	failures  int
	retryable bool
	calls     int
}

func (f *flakyStorage) Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error {
	f.calls++
	if f.calls <= f.failures {
		return NewStorageError("store", key, ErrStorageUnavailable, f.retryable)
	}
	return f.MemoryFileStorage.Store(ctx, key, data, opts)
}

func TestRetryableFileStorage(t *testing.T) {
	quiet := logrus.New()
	quiet.SetLevel(logrus.PanicLevel)
	fast := &RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}

	tests := []struct {
		name      string
		failures  int
		retryable bool
		wantErr   bool
		wantCalls int
	}{
		{"succeeds first time", 0, true, false, 1},
		{"recovers from transient failures", 2, true, false, 3},
		{"gives up after max attempts", 5, true, true, 3},
		{"does not retry permanent errors", 1, false, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &flakyStorage{MemoryFileStorage: NewMemoryFileStorage(), failures: tt.failures, retryable: tt.retryable}
			s := NewRetryableFileStorage(inner, fast, quiet)

			err := s.Store(context.Background(), "k.xlsx", []byte("x"), nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("Store() error = %v, wantErr %v", err, tt.wantErr)
			}
			if inner.calls != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, inner.calls)
			}
		})
	}
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := WithRetry(ctx, nil, func(ctx context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) || called {
		t.Errorf("expected cancellation before the first attempt, got %v (called=%v)", err, called)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"local", Config{Type: "local", BasePath: t.TempDir()}, false},
		{"memory", Config{Type: "MEMORY"}, false},
		{"unknown", Config{Type: "s3"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.config, DefaultRetryConfig(), nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if _, ok := s.(*RetryableFileStorage); !ok {
					t.Errorf("expected retry wrapper, got %T", s)
				}
			}
		})
	}
}
