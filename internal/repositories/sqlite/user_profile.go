package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

const userProfileColumns = `id, uid, name, email, password_hash, role, status, store, employee_id, created_at, updated_at`

// UserProfileRepository implements the UserProfileRepository interface for SQLite
type UserProfileRepository struct {
	*BaseRepository[models.UserProfile]
}

// NewUserProfileRepository creates a new SQLite user profile repository
func NewUserProfileRepository(db *sql.DB, logger *logrus.Logger) repositories.UserProfileRepository {
	return &UserProfileRepository{
		BaseRepository: NewBaseRepository[models.UserProfile](db, "user_profiles", "user", logger),
	}
}

func scanUserProfile(row rowScanner) (*models.UserProfile, error) {
	u := &models.UserProfile{}
	var employeeID sql.NullString
	err := row.Scan(&u.ID, &u.UID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Status,
		&u.Store, &employeeID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if employeeID.Valid {
		u.EmployeeID = &employeeID.String
	}
	return u, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// Create stores a new profile; email and uid are unique
func (r *UserProfileRepository) Create(ctx context.Context, user *models.UserProfile) error {
	if err := user.Validate(); err != nil {
		return repositories.ValidationError("user", user.ID, err)
	}
	if user.UID == "" {
		user.UID = user.ID
	}

	query := `INSERT INTO user_profiles (` + userProfileColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.executeExec(ctx, "create", query,
		user.ID,
		user.UID,
		user.Name,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Role,
		user.Status,
		user.Store,
		nullableString(user.EmployeeID),
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)
	if repositories.IsDuplicate(err) {
		return repositories.DuplicateError("user", "email", user.Email)
	}
	return err
}

// GetByID retrieves a profile by ID
func (r *UserProfileRepository) GetByID(ctx context.Context, id string) (*models.UserProfile, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}
	query := `SELECT ` + userProfileColumns + ` FROM user_profiles WHERE id = ?`
	return r.getOne(r.executeQueryRow(ctx, "get_by_id", query, id), id, scanUserProfile)
}

// GetByUID retrieves a profile by external identity id
func (r *UserProfileRepository) GetByUID(ctx context.Context, uid string) (*models.UserProfile, error) {
	if err := r.validateID(uid); err != nil {
		return nil, err
	}
	query := `SELECT ` + userProfileColumns + ` FROM user_profiles WHERE uid = ?`
	return r.getOne(r.executeQueryRow(ctx, "get_by_uid", query, uid), uid, scanUserProfile)
}

// GetByEmail retrieves a profile by email address
func (r *UserProfileRepository) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	query := `SELECT ` + userProfileColumns + ` FROM user_profiles WHERE email = ?`
	return r.getOne(r.executeQueryRow(ctx, "get_by_email", query, email), email, scanUserProfile)
}

// Update updates a profile, including role, status and password hash
func (r *UserProfileRepository) Update(ctx context.Context, user *models.UserProfile) error {
	if err := user.Validate(); err != nil {
		return repositories.ValidationError("user", user.ID, err)
	}

	user.UpdatedAt = time.Now()
	query := `
		UPDATE user_profiles
		SET name = ?, email = ?, password_hash = ?, role = ?, status = ?, store = ?, employee_id = ?, updated_at = ?
		WHERE id = ?`
	result, err := r.executeExec(ctx, "update", query,
		user.Name,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Role,
		user.Status,
		user.Store,
		nullableString(user.EmployeeID),
		user.UpdatedAt.UTC(),
		user.ID,
	)
	if err != nil {
		if repositories.IsDuplicate(err) {
			return repositories.DuplicateError("user", "email", user.Email)
		}
		return err
	}
	return r.checkRowsAffected(result, "update", user.ID)
}

// Delete deletes a profile by ID
func (r *UserProfileRepository) Delete(ctx context.Context, id string) error {
	return r.deleteByID(ctx, id)
}

// List returns every profile ordered by name
func (r *UserProfileRepository) List(ctx context.Context) ([]*models.UserProfile, error) {
	rows, err := r.executeQuery(ctx, "list", `SELECT `+userProfileColumns+` FROM user_profiles ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	return r.collect(rows, "list", scanUserProfile)
}

// ListByStatus returns the profiles in one status ordered by name
func (r *UserProfileRepository) ListByStatus(ctx context.Context, status models.UserStatus) ([]*models.UserProfile, error) {
	query := `SELECT ` + userProfileColumns + ` FROM user_profiles WHERE status = ? ORDER BY name COLLATE NOCASE`
	rows, err := r.executeQuery(ctx, "list_by_status", query, status)
	if err != nil {
		return nil, err
	}
	return r.collect(rows, "list_by_status", scanUserProfile)
}
