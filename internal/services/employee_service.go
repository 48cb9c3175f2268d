package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/repositories"
)

// employeeService implements the EmployeeService interface
type employeeService struct {
	repos     repositories.RepositoryManager
	refresher Refresher
	validator *validator.Validate
	logger    *logrus.Logger
}

// NewEmployeeService creates a new employee service instance
func NewEmployeeService(repos repositories.RepositoryManager, refresher Refresher, logger *logrus.Logger) EmployeeService {
	return &employeeService{
		repos:     repos,
		refresher: refresher,
		validator: validator.New(),
		logger:    orDefault(logger),
	}
}

// CreateEmployee creates a new active employee. Names are unique ignoring case
// because daily metrics and transactions reference employees by name.
func (s *employeeService) CreateEmployee(ctx context.Context, req *CreateEmployeeRequest) (*models.Employee, error) {
	if req == nil {
		return nil, invalid("create employee request cannot be nil")
	}
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	employee := models.NewEmployee(req.Name, req.Store)
	if err := s.ensureUniqueName(ctx, employee.Name, ""); err != nil {
		return nil, err
	}

	if err := s.repos.Employees().Create(ctx, employee); err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"employee_id": employee.ID,
		"store":       employee.Store,
	}).Info("Employee created")

	refresh(ctx, s.refresher, s.logger)
	return employee, nil
}

// GetEmployee retrieves an employee with targets by ID
func (s *employeeService) GetEmployee(ctx context.Context, id string) (*models.Employee, error) {
	if id == "" {
		return nil, invalid("employee ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, invalid("invalid employee ID format: %v", err)
	}

	employee, err := s.repos.Employees().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return employee, nil
}

// UpdateEmployee changes name, store or status
func (s *employeeService) UpdateEmployee(ctx context.Context, id string, req *UpdateEmployeeRequest) (*models.Employee, error) {
	if req == nil {
		return nil, invalid("update employee request cannot be nil")
	}
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	employee, err := s.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := models.SanitizeString(*req.Name)
		if !strings.EqualFold(name, employee.Name) {
			if err := s.ensureUniqueName(ctx, name, employee.ID); err != nil {
				return nil, err
			}
		}
		employee.Name = name
	}
	if req.Store != nil {
		employee.Store = models.SanitizeString(*req.Store)
	}
	if req.Status != nil {
		employee.Status = *req.Status
	}

	if err := s.repos.Employees().Update(ctx, employee); err != nil {
		return nil, fmt.Errorf("failed to update employee: %w", err)
	}

	refresh(ctx, s.refresher, s.logger)
	return employee, nil
}

// ListEmployees returns a page of employees and its pagination info
func (s *employeeService) ListEmployees(ctx context.Context, filters *EmployeeFilters) ([]*models.Employee, *models.PaginationResult, error) {
	if filters == nil {
		filters = &EmployeeFilters{}
	}
	if err := validateStruct(s.validator, filters); err != nil {
		return nil, nil, err
	}

	search := models.SearchFilters{
		Store:  filters.Store,
		Active: filters.Active,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}

	employees, err := s.repos.Employees().List(ctx, search)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list employees: %w", err)
	}
	total, err := s.repos.Employees().Count(ctx, search)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count employees: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = total
	}
	return employees, models.NewPaginationResult(total, limit, filters.Offset), nil
}

// SearchEmployees performs a case-insensitive name search
func (s *employeeService) SearchEmployees(ctx context.Context, query string, limit int) ([]*models.Employee, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*models.Employee{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	employees, err := s.repos.Employees().Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search employees: %w", err)
	}
	return employees, nil
}

// SetTargets writes the given months in one transaction. A month with Clear
// set is removed; otherwise its flat amount and daily overrides replace the
// stored target.
func (s *employeeService) SetTargets(ctx context.Context, id string, req *SetTargetsRequest) (*models.Employee, error) {
	if req == nil {
		return nil, invalid("set targets request cannot be nil")
	}
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	employee, err := s.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}

	targets := make([]*models.MonthlyTarget, 0, len(req.Targets))
	var clears []models.YearMonth
	for _, in := range req.Targets {
		ym, err := models.ParseYearMonth(in.Month)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if in.Clear {
			clears = append(clears, ym)
			continue
		}

		target := models.NewMonthlyTarget(employee.ID, ym.Year, int(ym.Month), in.Amount)
		for day, amount := range in.Daily {
			target.SetOverride(day, amount)
		}
		if err := target.Validate(); err != nil {
			return nil, fmt.Errorf("%w: target %s: %v", ErrInvalidInput, ym, err)
		}
		targets = append(targets, target)
	}

	err = s.repos.WithTransaction(ctx, func(ctx context.Context) error {
		for _, ym := range clears {
			err := s.repos.Employees().DeleteTarget(ctx, employee.ID, ym.Year, int(ym.Month))
			if err != nil && !repositories.IsNotFound(err) {
				return err
			}
		}
		for _, target := range targets {
			if err := s.repos.Employees().SaveTarget(ctx, target); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save targets: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"employee_id": employee.ID,
		"saved":       len(targets),
		"cleared":     len(clears),
	}).Info("Employee targets updated")

	refresh(ctx, s.refresher, s.logger)
	return s.GetEmployee(ctx, id)
}

func (s *employeeService) ensureUniqueName(ctx context.Context, name, selfID string) error {
	existing, err := s.repos.Employees().GetByName(ctx, name)
	switch {
	case err == nil && existing.ID != selfID:
		return repositories.DuplicateError("employee", "name", name)
	case err != nil && !repositories.IsNotFound(err):
		return fmt.Errorf("failed to check employee name: %w", err)
	}
	return nil
}

// storeService implements the StoreService interface
type storeService struct {
	repos     repositories.Repositories
	refresher Refresher
	validator *validator.Validate
	logger    *logrus.Logger
}

// NewStoreService creates a new store service instance
func NewStoreService(repos repositories.Repositories, refresher Refresher, logger *logrus.Logger) StoreService {
	return &storeService{
		repos:     repos,
		refresher: refresher,
		validator: validator.New(),
		logger:    orDefault(logger),
	}
}

func (s *storeService) ListStores(ctx context.Context) ([]*models.Store, error) {
	stores, err := s.repos.Stores().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	return stores, nil
}

func (s *storeService) CreateStore(ctx context.Context, req *CreateStoreRequest) (*models.Store, error) {
	if req == nil {
		return nil, invalid("create store request cannot be nil")
	}
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	store := models.NewStore(req.Name, req.Area)
	if err := s.repos.Stores().Create(ctx, store); err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	refresh(ctx, s.refresher, s.logger)
	return store, nil
}
