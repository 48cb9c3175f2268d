package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EmployeeStatus represents the employment status of a sales employee
type EmployeeStatus string

const (
	EmployeeStatusActive   EmployeeStatus = "active"
	EmployeeStatusInactive EmployeeStatus = "inactive"
)

// Employee represents a sales employee assigned to a store
type Employee struct {
	ID        string         `json:"id" db:"id" validate:"required,uuid"`
	Name      string         `json:"name" db:"name" validate:"required,min=1,max=255"`
	Store     string         `json:"store" db:"store" validate:"required,max=255"`
	Status    EmployeeStatus `json:"status" db:"status" validate:"required,oneof=active inactive"`
	Targets   Targets        `json:"targets,omitempty" db:"-"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// NewEmployee creates a new active employee with generated ID and timestamps
func NewEmployee(name, store string) *Employee {
	now := time.Now()
	return &Employee{
		ID:        uuid.New().String(),
		Name:      SanitizeString(name),
		Store:     SanitizeString(store),
		Status:    EmployeeStatusActive,
		Targets:   make(Targets),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate validates the employee data
func (e *Employee) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("employee ID is required")
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("employee name is required")
	}
	if strings.TrimSpace(e.Store) == "" {
		return fmt.Errorf("employee store is required")
	}
	if e.Status != EmployeeStatusActive && e.Status != EmployeeStatusInactive {
		return fmt.Errorf("invalid employee status: %s", e.Status)
	}
	for _, target := range e.Targets {
		if err := target.Validate(); err != nil {
			return fmt.Errorf("invalid target %s: %w", target.Key(), err)
		}
	}
	return nil
}

// IsActive reports whether the employee is currently active
func (e *Employee) IsActive() bool {
	return e.Status == EmployeeStatusActive
}

// SetTarget attaches a monthly target to the employee
func (e *Employee) SetTarget(target *MonthlyTarget) {
	if e.Targets == nil {
		e.Targets = make(Targets)
	}
	target.EmployeeID = e.ID
	e.Targets.Set(target)
	e.UpdatedAt = time.Now()
}

// Deactivate marks the employee as inactive
func (e *Employee) Deactivate() {
	e.Status = EmployeeStatusInactive
	e.UpdatedAt = time.Now()
}

// Store represents a retail outlet
type Store struct {
	ID        string    `json:"id" db:"id" validate:"required,uuid"`
	Name      string    `json:"name" db:"name" validate:"required,min=1,max=255"`
	Area      string    `json:"area" db:"area" validate:"max=255"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewStore creates a new store with generated ID and timestamps
func NewStore(name, area string) *Store {
	now := time.Now()
	return &Store{
		ID:        uuid.New().String(),
		Name:      SanitizeString(name),
		Area:      SanitizeString(area),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate validates the store data
func (s *Store) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("store ID is required")
	}
	return ValidateStringLength(s.Name, "name", 1, 255)
}
