package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"retail-cockpit-api/internal/export"
	"retail-cockpit-api/internal/repositories"
)

// ServiceContainer holds all service instances
type ServiceContainer struct {
	DashboardService DashboardService
	EmployeeService  EmployeeService
	StoreService     StoreService
	UserService      UserService
	TaskService      TaskService
	RuleService      RuleService
	DataService      DataService

	unsubscribe func()
}

// ServiceConfig holds configuration for services
type ServiceConfig struct {
	Dashboard  DashboardOptions
	BcryptCost int
}

// NewServiceContainer wires every service. feed delivers dataset snapshots to
// the dashboard and refresher republishes them after writes; exporter may be
// nil when no export storage is configured.
func NewServiceContainer(repos repositories.RepositoryManager, feed SnapshotFeed, refresher Refresher, exporter *export.Exporter, config *ServiceConfig, logger *logrus.Logger) (*ServiceContainer, error) {
	if repos == nil {
		return nil, fmt.Errorf("repository manager cannot be nil")
	}
	if config == nil {
		config = &ServiceConfig{}
	}
	logger = orDefault(logger)

	dashboard, unsubscribe := NewDashboardService(feed, config.Dashboard, logger)

	return &ServiceContainer{
		DashboardService: dashboard,
		EmployeeService:  NewEmployeeService(repos, refresher, logger),
		StoreService:     NewStoreService(repos, refresher, logger),
		UserService:      NewUserService(repos, config.BcryptCost, logger),
		TaskService:      NewTaskService(repos, logger),
		RuleService:      NewRuleService(repos.BusinessRules(), logger),
		DataService:      NewDataService(repos, exporter, dashboard, refresher, logger),
		unsubscribe:      unsubscribe,
	}, nil
}

// Validate validates that all services are properly initialized
func (sc *ServiceContainer) Validate() error {
	switch {
	case sc.DashboardService == nil:
		return fmt.Errorf("dashboard service is nil")
	case sc.EmployeeService == nil:
		return fmt.Errorf("employee service is nil")
	case sc.StoreService == nil:
		return fmt.Errorf("store service is nil")
	case sc.UserService == nil:
		return fmt.Errorf("user service is nil")
	case sc.TaskService == nil:
		return fmt.Errorf("task service is nil")
	case sc.RuleService == nil:
		return fmt.Errorf("rule service is nil")
	case sc.DataService == nil:
		return fmt.Errorf("data service is nil")
	}
	return nil
}

// Close ends the dashboard's snapshot subscription
func (sc *ServiceContainer) Close() error {
	if sc.unsubscribe != nil {
		sc.unsubscribe()
		sc.unsubscribe = nil
	}
	return nil
}
