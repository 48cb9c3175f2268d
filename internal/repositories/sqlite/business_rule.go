package sqlite

import (
	"context"
	"database/sql"

	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

// BusinessRuleRepository implements the BusinessRuleRepository interface for SQLite
type BusinessRuleRepository struct {
	*BaseRepository[models.BusinessRule]
}

// NewBusinessRuleRepository creates a new SQLite business rule repository
func NewBusinessRuleRepository(db *sql.DB, logger *logrus.Logger) repositories.BusinessRuleRepository {
	return &BusinessRuleRepository{
		BaseRepository: NewBaseRepository[models.BusinessRule](db, "business_rules", "business_rule", logger),
	}
}

// Create stores a rule
func (r *BusinessRuleRepository) Create(ctx context.Context, rule *models.BusinessRule) error {
	if err := rule.Validate(); err != nil {
		return repositories.ValidationError("business_rule", rule.ID, err)
	}
	query := `INSERT INTO business_rules (id, rule, created_by, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.executeExec(ctx, "create", query, rule.ID, rule.Rule, rule.CreatedBy, rule.CreatedAt.UTC())
	return err
}

// List returns rules oldest first
func (r *BusinessRuleRepository) List(ctx context.Context) ([]*models.BusinessRule, error) {
	rows, err := r.executeQuery(ctx, "list", `SELECT id, rule, created_by, created_at FROM business_rules ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return r.collect(rows, "list", func(row rowScanner) (*models.BusinessRule, error) {
		rule := &models.BusinessRule{}
		if err := row.Scan(&rule.ID, &rule.Rule, &rule.CreatedBy, &rule.CreatedAt); err != nil {
			return nil, err
		}
		return rule, nil
	})
}

// Delete removes a rule
func (r *BusinessRuleRepository) Delete(ctx context.Context, id string) error {
	return r.deleteByID(ctx, id)
}
