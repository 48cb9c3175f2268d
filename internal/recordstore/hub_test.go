package recordstore

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"retail-cockpit-api/internal/database"
	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/repositories/sqlite"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// scriptedSource returns its results in order, repeating the last one
type scriptedSource struct {
	mu      sync.Mutex
	results []error
	calls   int
}

func (s *scriptedSource) Load(ctx context.Context) (*models.RawDataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	if err := s.results[i]; err != nil {
		return nil, err
	}
	return &models.RawDataset{
		Employees: []*models.Employee{models.NewEmployee("Ali", "S1")},
		LoadedAt:  time.Now(),
	}, nil
}

func TestHub_DeliversSnapshotsInOrder(t *testing.T) {
	boom := errors.New("connection refused")
	hub := NewHub(&scriptedSource{results: []error{nil, boom, nil}}, testLogger())
	ctx := context.Background()

	var first, second []Snapshot
	unsubscribe := hub.Subscribe(func(s Snapshot) { first = append(first, s) })
	hub.Subscribe(func(s Snapshot) { second = append(second, s) })

	if err := hub.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if err := hub.Refresh(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}

	unsubscribe()
	if err := hub.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if len(first) != 2 || len(second) != 3 {
		t.Fatalf("unexpected delivery counts: %d, %d", len(first), len(second))
	}

	if !second[0].Available() || len(second[0].Dataset.Employees) != 1 {
		t.Errorf("first snapshot should carry the full dataset: %+v", second[0])
	}
	if second[1].Available() || !errors.Is(second[1].Err, ErrUnavailable) || second[1].Dataset != nil {
		t.Errorf("failed load should publish an unavailable state: %+v", second[1])
	}
	if !second[2].Available() {
		t.Error("recovered load should be available again")
	}
	for i := 1; i < len(second); i++ {
		if second[i].Version <= second[i-1].Version {
			t.Errorf("versions out of order: %d after %d", second[i].Version, second[i-1].Version)
		}
	}
}

func TestHub_SubscribeReceivesLatest(t *testing.T) {
	hub := NewHub(&scriptedSource{results: []error{nil}}, testLogger())

	if _, ok := hub.Latest(); ok {
		t.Fatal("no snapshot should exist before the first refresh")
	}

	var got []Snapshot
	hub.Subscribe(func(s Snapshot) { got = append(got, s) })
	if len(got) != 0 {
		t.Fatal("subscriber should not be called before anything is published")
	}

	if err := hub.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	var late []Snapshot
	hub.Subscribe(func(s Snapshot) { late = append(late, s) })
	if len(late) != 1 || !late[0].Available() {
		t.Errorf("late subscriber should get the latest snapshot immediately, got %+v", late)
	}

	hub.Publish(nil)
	latest, _ := hub.Latest()
	if latest.Available() {
		t.Error("publishing a nil dataset should mark data unavailable")
	}
}

func TestHub_RunStopsOnCancel(t *testing.T) {
	source := &scriptedSource{results: []error{nil}}
	hub := NewHub(source, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	source.mu.Lock()
	calls := source.calls
	source.mu.Unlock()
	if calls < 2 {
		t.Errorf("expected periodic refreshes, got %d loads", calls)
	}
}

func TestSQLiteSource_Load(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "source.db"), false, time.Second)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.NewMigrationManager(db, false, testLogger()).Up(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	repos := sqlite.NewSQLiteRepositoryManager(db, testLogger())
	ctx := context.Background()

	employee := models.NewEmployee("Ali", "S1")
	employee.SetTarget(models.NewMonthlyTarget("", 2024, 3, 1000))
	if err := repos.Employees().Create(ctx, employee); err != nil {
		t.Fatalf("Create employee: %v", err)
	}
	if err := repos.Stores().Create(ctx, models.NewStore("S1", "North")); err != nil {
		t.Fatalf("Create store: %v", err)
	}
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := repos.DailyMetrics().Create(ctx, models.NewDailyMetric("Ali", "S1", date, 100, 2)); err != nil {
		t.Fatalf("Create metric: %v", err)
	}
	if err := repos.SalesTransactions().Create(ctx, models.NewSalesTransaction("Ali", "S1", "Pillow", 1, 100, date)); err != nil {
		t.Fatalf("Create transaction: %v", err)
	}

	full, err := NewSQLiteSource(repos, true).Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(full.Employees) != 1 || len(full.Stores) != 1 || len(full.DailyMetrics) != 1 || len(full.Transactions) != 1 {
		t.Fatalf("unexpected dataset sizes %+v", full)
	}
	if full.Employees[0].Targets.Get(2024, 3) == nil {
		t.Error("employee targets should be loaded")
	}
	if full.StoreAreas()["S1"] != "North" {
		t.Error("store areas should be loaded")
	}

	noTx, err := NewSQLiteSource(repos, false).Load(ctx)
	if err != nil || len(noTx.Transactions) != 0 {
		t.Errorf("transactions should be skipped: %d, %v", len(noTx.Transactions), err)
	}

	feed := SourceFunc(func(ctx context.Context) (*models.RawDataset, error) {
		return &models.RawDataset{Transactions: []*models.SalesTransaction{
			models.NewSalesTransaction("Ali", "S1", "Duvet", 1, 500, date),
		}}, nil
	})
	merged, err := MultiSource{NewSQLiteSource(repos, false), feed}.Load(ctx)
	if err != nil {
		t.Fatalf("MultiSource Load() error = %v", err)
	}
	if len(merged.Employees) != 1 || len(merged.Transactions) != 1 || merged.Transactions[0].ItemName != "Duvet" {
		t.Errorf("unexpected merged dataset %+v", merged)
	}

	failing := SourceFunc(func(ctx context.Context) (*models.RawDataset, error) {
		return nil, errors.New("offline")
	})
	if _, err := (MultiSource{NewSQLiteSource(repos, false), failing}).Load(ctx); err == nil {
		t.Error("a failing source should fail the merged load")
	}
}
