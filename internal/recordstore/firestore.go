package recordstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"retail-cockpit-api/internal/models"

	"cloud.google.com/go/firestore"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Collections names the Firestore collections making up a dataset.
// An empty name disables that collection.
type Collections struct {
	Employees      string
	Stores         string
	DailyMetrics   string
	Transactions   string
	KingDuvetSales string
}

// DefaultCollections returns the collection names used by the POS sync jobs
func DefaultCollections() Collections {
	return Collections{
		Employees:      "employees",
		Stores:         "stores",
		DailyMetrics:   "dailyMetrics",
		Transactions:   "salesTransactions",
		KingDuvetSales: "kingDuvetSales",
	}
}

func (c Collections) names() []string {
	var names []string
	for _, n := range []string{c.Employees, c.Stores, c.DailyMetrics, c.Transactions, c.KingDuvetSales} {
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}

// NewFirestoreClient connects with explicit service account JSON when given,
// otherwise with application default credentials
func NewFirestoreClient(ctx context.Context, projectID, credentialsJSON string) (*firestore.Client, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return client, nil
}

// watchRetryDelay is how long a failed collection watch waits before reconnecting
const watchRetryDelay = 5 * time.Second

// FirestoreSource reads datasets from Firestore. Once Watch has received a
// snapshot of every collection, Load serves from the watched copy.
type FirestoreSource struct {
	client      *firestore.Client
	collections Collections
	logger      *logrus.Logger

	mu    sync.RWMutex
	cache map[string][]*firestore.DocumentSnapshot
}

// NewFirestoreSource creates a source over client
func NewFirestoreSource(client *firestore.Client, collections Collections, logger *logrus.Logger) *FirestoreSource {
	if logger == nil {
		logger = logrus.New()
	}
	return &FirestoreSource{
		client:      client,
		collections: collections,
		logger:      logger,
		cache:       make(map[string][]*firestore.DocumentSnapshot),
	}
}

// Load returns a full dataset
func (s *FirestoreSource) Load(ctx context.Context) (*models.RawDataset, error) {
	names := s.collections.names()

	s.mu.RLock()
	docs := make(map[string][]*firestore.DocumentSnapshot, len(names))
	for _, name := range names {
		if cached, ok := s.cache[name]; ok {
			docs[name] = cached
		}
	}
	s.mu.RUnlock()

	for _, name := range names {
		if _, ok := docs[name]; ok {
			continue
		}
		fetched, err := s.fetch(ctx, name)
		if err != nil {
			return nil, err
		}
		docs[name] = fetched
	}

	return s.build(docs), nil
}

func (s *FirestoreSource) fetch(ctx context.Context, name string) ([]*firestore.DocumentSnapshot, error) {
	iter := s.client.Collection(name).Documents(ctx)
	defer iter.Stop()

	var docs []*firestore.DocumentSnapshot
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read collection %s: %w", name, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// build decodes documents into a dataset. Malformed documents are logged and skipped.
func (s *FirestoreSource) build(docs map[string][]*firestore.DocumentSnapshot) *models.RawDataset {
	c := s.collections
	dataset := &models.RawDataset{
		Employees:    []*models.Employee{},
		Stores:       []*models.Store{},
		DailyMetrics: []*models.DailyMetric{},
		Transactions: []*models.SalesTransaction{},
		LoadedAt:     time.Now().UTC(),
	}

	for _, doc := range docs[c.Employees] {
		var d employeeDoc
		if err := doc.DataTo(&d); err != nil {
			s.skip(c.Employees, doc, err)
			continue
		}
		e, err := decodeEmployee(doc.Ref.ID, d)
		if err != nil {
			s.skip(c.Employees, doc, err)
			continue
		}
		dataset.Employees = append(dataset.Employees, e)
	}

	for _, doc := range docs[c.Stores] {
		var d storeDoc
		if err := doc.DataTo(&d); err != nil {
			s.skip(c.Stores, doc, err)
			continue
		}
		dataset.Stores = append(dataset.Stores, decodeStore(doc.Ref.ID, d))
	}

	for _, doc := range docs[c.DailyMetrics] {
		var d metricDoc
		if err := doc.DataTo(&d); err != nil {
			s.skip(c.DailyMetrics, doc, err)
			continue
		}
		m, err := decodeMetric(doc.Ref.ID, d)
		if err != nil {
			s.skip(c.DailyMetrics, doc, err)
			continue
		}
		dataset.DailyMetrics = append(dataset.DailyMetrics, m)
	}

	for name, source := range map[string]models.TransactionSource{
		c.Transactions:   models.TransactionSourcePOS,
		c.KingDuvetSales: models.TransactionSourceKingDuvet,
	} {
		if name == "" {
			continue
		}
		for _, doc := range docs[name] {
			var d transactionDoc
			if err := doc.DataTo(&d); err != nil {
				s.skip(name, doc, err)
				continue
			}
			tx, err := decodeTransaction(doc.Ref.ID, d, source)
			if err != nil {
				s.skip(name, doc, err)
				continue
			}
			dataset.Transactions = append(dataset.Transactions, tx)
		}
	}

	return dataset
}

func (s *FirestoreSource) skip(collection string, doc *firestore.DocumentSnapshot, err error) {
	s.logger.WithError(err).WithFields(logrus.Fields{
		"collection": collection,
		"document":   doc.Ref.ID,
	}).Warn("Skipping malformed document")
}

// Watch listens to every collection and refreshes hub whenever one changes,
// once all collections have delivered their first snapshot. It blocks until
// ctx is cancelled.
func (s *FirestoreSource) Watch(ctx context.Context, hub *Hub) {
	names := s.collections.names()

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			s.watchCollection(ctx, name, len(names), hub)
		}(name)
	}
	wg.Wait()
}

func (s *FirestoreSource) watchCollection(ctx context.Context, name string, total int, hub *Hub) {
	log := s.logger.WithField("collection", name)

	for {
		err := s.listen(ctx, name, total, hub)
		if ctx.Err() != nil {
			return
		}

		log.WithError(err).Error("Collection watch failed")
		s.mu.Lock()
		delete(s.cache, name)
		s.mu.Unlock()
		hub.PublishError(fmt.Errorf("%w: watch %s: %v", ErrUnavailable, name, err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(watchRetryDelay):
			log.Info("Reconnecting collection watch")
		}
	}
}

func (s *FirestoreSource) listen(ctx context.Context, name string, total int, hub *Hub) error {
	it := s.client.Collection(name).Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			return err
		}
		docs, err := snap.Documents.GetAll()
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.cache[name] = docs
		primed := len(s.cache) == total
		s.mu.Unlock()

		if primed {
			_ = hub.Refresh(ctx)
		}
	}
}

// Close releases the client
func (s *FirestoreSource) Close() error {
	return s.client.Close()
}
