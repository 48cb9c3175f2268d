package repositories

import (
	"errors"
	"fmt"
)

// Common repository errors
var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEntry is returned when a unique key is already taken
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrInvalidID is returned for empty or malformed identifiers
	ErrInvalidID = errors.New("invalid ID")

	// ErrValidation is returned when a record fails validation before persistence
	ErrValidation = errors.New("validation error")

	// ErrTransaction is returned when begin, commit or rollback fails
	ErrTransaction = errors.New("transaction error")

	// ErrConnection is returned when the database cannot be reached
	ErrConnection = errors.New("database connection error")

	// ErrConstraint is returned when a foreign key or check constraint rejects a write
	ErrConstraint = errors.New("constraint violation")
)

// RepositoryError wraps a storage failure with the operation and record it concerns
type RepositoryError struct {
	Op      string
	Entity  string
	ID      string
	Err     error
	Message string
}

func (e *RepositoryError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.ID != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Entity, e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Entity, e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new repository error
func NewRepositoryError(op, entity, id string, err error) *RepositoryError {
	return &RepositoryError{Op: op, Entity: entity, ID: id, Err: err}
}

// NotFoundError reports a missing record
func NotFoundError(entity, id string) *RepositoryError {
	return &RepositoryError{
		Op:      "get",
		Entity:  entity,
		ID:      id,
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

// DuplicateError reports a unique key collision
func DuplicateError(entity, field, value string) *RepositoryError {
	msg := fmt.Sprintf("%s with %s '%s' already exists", entity, field, value)
	if value == "" {
		msg = fmt.Sprintf("%s with this %s already exists", entity, field)
	}
	return &RepositoryError{
		Op:      "create",
		Entity:  entity,
		Err:     ErrDuplicateEntry,
		Message: msg,
	}
}

// ValidationError reports a record rejected before it reached the database
func ValidationError(entity, id string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      "validate",
		Entity:  entity,
		ID:      id,
		Err:     fmt.Errorf("%w: %v", ErrValidation, err),
		Message: fmt.Sprintf("invalid %s: %v", entity, err),
	}
}

// ConstraintError reports a write rejected by a database constraint
func ConstraintError(entity, constraint string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      "constraint",
		Entity:  entity,
		Err:     fmt.Errorf("%w: %v", ErrConstraint, err),
		Message: fmt.Sprintf("%s violates %s", entity, constraint),
	}
}

// TransactionError reports a failed begin, commit or rollback
func TransactionError(op string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Entity:  "transaction",
		Err:     fmt.Errorf("%w: %v", ErrTransaction, err),
		Message: fmt.Sprintf("transaction %s failed: %v", op, err),
	}
}

// ConnectionError reports an unreachable database
func ConnectionError(err error) *RepositoryError {
	return &RepositoryError{
		Op:      "connect",
		Entity:  "database",
		Err:     fmt.Errorf("%w: %v", ErrConnection, err),
		Message: fmt.Sprintf("database connection failed: %v", err),
	}
}

// IsNotFound checks if an error is a "not found" error
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsDuplicate checks if an error is a "duplicate entry" error
func IsDuplicate(err error) bool { return errors.Is(err, ErrDuplicateEntry) }

// IsValidation checks if an error is a "validation" error
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConstraint checks if an error is a "constraint violation" error
func IsConstraint(err error) bool { return errors.Is(err, ErrConstraint) }

// IsTransaction checks if an error is a "transaction" error
func IsTransaction(err error) bool { return errors.Is(err, ErrTransaction) }

// IsConnection checks if an error is a "connection" error
func IsConnection(err error) bool { return errors.Is(err, ErrConnection) }
