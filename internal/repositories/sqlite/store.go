package sqlite

import (
	"context"
	"database/sql"
	"time"

	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

const storeColumns = `id, name, area, created_at, updated_at`

// StoreRepository implements the StoreRepository interface for SQLite
type StoreRepository struct {
	*BaseRepository[models.Store]
}

// NewStoreRepository creates a new SQLite store repository
func NewStoreRepository(db *sql.DB, logger *logrus.Logger) repositories.StoreRepository {
	return &StoreRepository{
		BaseRepository: NewBaseRepository[models.Store](db, "stores", "store", logger),
	}
}

func scanStore(row rowScanner) (*models.Store, error) {
	s := &models.Store{}
	if err := row.Scan(&s.ID, &s.Name, &s.Area, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

// Create creates a new store; names are unique
func (r *StoreRepository) Create(ctx context.Context, store *models.Store) error {
	if err := store.Validate(); err != nil {
		return repositories.ValidationError("store", store.ID, err)
	}

	query := `INSERT INTO stores (` + storeColumns + `) VALUES (?, ?, ?, ?, ?)`
	_, err := r.executeExec(ctx, "create", query,
		store.ID, store.Name, store.Area, store.CreatedAt.UTC(), store.UpdatedAt.UTC())
	if repositories.IsDuplicate(err) {
		return repositories.DuplicateError("store", "name", store.Name)
	}
	return err
}

// GetByID retrieves a store by ID
func (r *StoreRepository) GetByID(ctx context.Context, id string) (*models.Store, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}
	query := `SELECT ` + storeColumns + ` FROM stores WHERE id = ?`
	return r.getOne(r.executeQueryRow(ctx, "get_by_id", query, id), id, scanStore)
}

// GetByName retrieves a store by exact name
func (r *StoreRepository) GetByName(ctx context.Context, name string) (*models.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE name = ?`
	return r.getOne(r.executeQueryRow(ctx, "get_by_name", query, name), name, scanStore)
}

// Update updates the store name and area
func (r *StoreRepository) Update(ctx context.Context, store *models.Store) error {
	if err := store.Validate(); err != nil {
		return repositories.ValidationError("store", store.ID, err)
	}

	store.UpdatedAt = time.Now()
	query := `UPDATE stores SET name = ?, area = ?, updated_at = ? WHERE id = ?`
	result, err := r.executeExec(ctx, "update", query, store.Name, store.Area, store.UpdatedAt.UTC(), store.ID)
	if err != nil {
		if repositories.IsDuplicate(err) {
			return repositories.DuplicateError("store", "name", store.Name)
		}
		return err
	}
	return r.checkRowsAffected(result, "update", store.ID)
}

// Delete deletes a store by ID
func (r *StoreRepository) Delete(ctx context.Context, id string) error {
	return r.deleteByID(ctx, id)
}

// List returns every store ordered by name
func (r *StoreRepository) List(ctx context.Context) ([]*models.Store, error) {
	rows, err := r.executeQuery(ctx, "list", `SELECT `+storeColumns+` FROM stores ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return r.collect(rows, "list", scanStore)
}
