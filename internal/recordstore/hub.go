package recordstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"retail-cockpit-api/internal/models"

	"github.com/sirupsen/logrus"
)

// Snapshot is one complete view of the record store. Exactly one of
// Dataset or Err is set.
type Snapshot struct {
	Dataset *models.RawDataset
	Err     error
	Version uint64
}

// Available reports whether the snapshot carries data
func (s Snapshot) Available() bool {
	return s.Err == nil && s.Dataset != nil
}

type subscriber struct {
	id uint64
	fn func(Snapshot)
}

// Hub loads datasets from a Source and fans them out to subscribers.
// Subscribers are called one at a time in publish order and must not call
// back into the hub.
type Hub struct {
	source Source
	logger *logrus.Logger

	mu          sync.Mutex
	subscribers []subscriber
	nextID      uint64
	latest      Snapshot
	version     uint64
	hasLatest   bool

	refreshMu sync.Mutex
}

// NewHub creates a hub over source
func NewHub(source Source, logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.New()
	}
	return &Hub{
		source: source,
		logger: logger,
	}
}

// Subscribe registers fn and immediately delivers the latest snapshot, if any.
// The returned function removes the subscription.
func (h *Hub) Subscribe(fn func(Snapshot)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	h.subscribers = append(h.subscribers, subscriber{id: id, fn: fn})

	if h.hasLatest {
		fn(h.latest)
	}

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, sub := range h.subscribers {
			if sub.id == id {
				h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Latest returns the most recent snapshot and whether one has been published
func (h *Hub) Latest() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest, h.hasLatest
}

// Publish delivers a full dataset to all subscribers
func (h *Hub) Publish(dataset *models.RawDataset) {
	if dataset == nil {
		h.PublishError(fmt.Errorf("%w: empty dataset", ErrUnavailable))
		return
	}
	h.publish(Snapshot{Dataset: dataset})
}

// PublishError delivers an unavailable state carrying err
func (h *Hub) PublishError(err error) {
	if err == nil {
		err = ErrUnavailable
	}
	h.publish(Snapshot{Err: err})
}

func (h *Hub) publish(s Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.version++
	s.Version = h.version
	h.latest = s
	h.hasLatest = true

	for _, sub := range h.subscribers {
		sub.fn(s)
	}
}

// Refresh loads a new dataset and publishes it. A failed load publishes an
// unavailable snapshot and returns the error.
func (h *Hub) Refresh(ctx context.Context) error {
	h.refreshMu.Lock()
	defer h.refreshMu.Unlock()

	start := time.Now()
	dataset, err := h.source.Load(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load record store")
		h.PublishError(fmt.Errorf("%w: %v", ErrUnavailable, err))
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"employees":    len(dataset.Employees),
		"metrics":      len(dataset.DailyMetrics),
		"transactions": len(dataset.Transactions),
		"duration":     time.Since(start),
	}).Debug("Record store loaded")

	h.Publish(dataset)
	return nil
}

// Run refreshes immediately and then every interval until ctx is cancelled
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	_ = h.Refresh(ctx)
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = h.Refresh(ctx)
		}
	}
}
