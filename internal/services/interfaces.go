package services

import (
	"context"
	"io"
	"time"

	"retail-cockpit-api/internal/analytics"
	"retail-cockpit-api/internal/export"
	"retail-cockpit-api/internal/importer"
	"retail-cockpit-api/internal/models"
)

// DashboardService serves aggregated views over the latest published dataset
type DashboardService interface {
	// Summary returns KPI cards with employee and store summaries
	Summary(ctx context.Context, q DashboardQuery) (*DashboardSummary, error)

	// EmployeeDetail returns the drill-down of one employee
	EmployeeDetail(ctx context.Context, employeeID string, f analytics.DateFilter, category string) (*analytics.EmployeeDetail, error)

	// Categories returns the category breakdown, optionally for one seller
	Categories(ctx context.Context, q DashboardQuery, seller string) ([]analytics.CategorySales, error)

	// Compare returns deltas against the preceding period
	Compare(ctx context.Context, q DashboardQuery) (*analytics.KPIComparison, error)

	// Chart renders one of the dashboard charts as SVG
	Chart(ctx context.Context, kind ChartKind, q DashboardQuery, employee string) (string, error)

	// Report builds the content of an export workbook
	Report(ctx context.Context, q DashboardQuery) (*export.Report, error)

	// Status reports the state of the published dataset
	Status() DataStatus
}

// EmployeeService manages employees and their targets
type EmployeeService interface {
	CreateEmployee(ctx context.Context, req *CreateEmployeeRequest) (*models.Employee, error)
	GetEmployee(ctx context.Context, id string) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, id string, req *UpdateEmployeeRequest) (*models.Employee, error)
	ListEmployees(ctx context.Context, filters *EmployeeFilters) ([]*models.Employee, *models.PaginationResult, error)
	SearchEmployees(ctx context.Context, query string, limit int) ([]*models.Employee, error)

	// SetTargets replaces the targets of the given months
	SetTargets(ctx context.Context, id string, req *SetTargetsRequest) (*models.Employee, error)
}

// StoreService manages retail outlets
type StoreService interface {
	ListStores(ctx context.Context) ([]*models.Store, error)
	CreateStore(ctx context.Context, req *CreateStoreRequest) (*models.Store, error)
}

// UserService manages accounts, approval and roles
type UserService interface {
	Register(ctx context.Context, req *RegisterRequest) (*models.UserProfile, error)

	// Authenticate checks credentials of an active account
	Authenticate(ctx context.Context, email, password string) (*models.UserProfile, error)

	// ResolveProfile looks a profile up by id, then by uid, and otherwise
	// returns the least-privileged fallback profile
	ResolveProfile(ctx context.Context, identity Identity) (*models.UserProfile, error)

	ListUsers(ctx context.Context) (*UserListing, error)
	ApproveUser(ctx context.Context, id string) (*models.UserProfile, error)
	UpdateRole(ctx context.Context, id string, req *UpdateRoleRequest) (*models.UserProfile, error)

	// EnsureAdmin creates an active admin account when the email is unknown
	EnsureAdmin(ctx context.Context, name, email, password string) error
}

// TaskService delivers tasks from managers to employees
type TaskService interface {
	SendTask(ctx context.Context, sender *models.UserProfile, req *CreateTaskRequest) (*models.Task, error)
	ListTasks(ctx context.Context, user *models.UserProfile, status models.TaskStatus) ([]*models.Task, error)
	CompleteTask(ctx context.Context, user *models.UserProfile, taskID string) (*models.Task, error)
}

// RuleService manages business rules
type RuleService interface {
	ListRules(ctx context.Context) ([]*models.BusinessRule, error)
	CreateRule(ctx context.Context, createdBy string, req *CreateRuleRequest) (*models.BusinessRule, error)
	DeleteRule(ctx context.Context, id string) error
}

// DataService handles bulk data operations
type DataService interface {
	Import(ctx context.Context, kind importer.Kind, r io.Reader, opts importer.Options) (*importer.Result, error)
	RecordMetric(ctx context.Context, req *RecordMetricRequest) (*models.DailyMetric, error)
	ResetData(ctx context.Context) (*ResetResult, error)
	Export(ctx context.Context, q DashboardQuery) (*export.Archive, []byte, error)
	ListExports(ctx context.Context, limit int) ([]export.Archive, error)
	DownloadExport(ctx context.Context, key string) ([]byte, error)
}

// Refresher reloads the published dataset after a write
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Request and response types for service operations

// DashboardQuery selects the period and stores of a dashboard view
type DashboardQuery struct {
	Filter analytics.DateFilter  `json:"filter"`
	Scope  analytics.ScopeFilter `json:"scope"`
}

// DashboardSummary is the payload of the main dashboard
type DashboardSummary struct {
	Filter         analytics.DateFilter        `json:"filter"`
	Scope          analytics.ScopeFilter       `json:"scope"`
	KPIs           analytics.KPIData           `json:"kpis"`
	Comparison     analytics.KPIComparison     `json:"comparison"`
	Employees      []analytics.EmployeeSummary `json:"employees"`
	Stores         []analytics.StoreSummary    `json:"stores"`
	TopPerformers  []analytics.EmployeeSummary `json:"top_performers"`
	Series         []analytics.SeriesPoint     `json:"series"`
	DataVersion    uint64                      `json:"data_version"`
	DataLoadedAt   time.Time                   `json:"data_loaded_at"`
	EmployeeCount  int                         `json:"employee_count"`
	StoreCount     int                         `json:"store_count"`
	BelowThreshold int                         `json:"below_threshold"`
}

// DataStatus describes the published dataset
type DataStatus struct {
	Available    bool      `json:"available"`
	Version      uint64    `json:"version"`
	LoadedAt     time.Time `json:"loaded_at,omitempty"`
	Error        string    `json:"error,omitempty"`
	Employees    int       `json:"employees"`
	Metrics      int       `json:"daily_metrics"`
	Transactions int       `json:"transactions"`
}

// ChartKind names a dashboard chart
type ChartKind string

const (
	ChartSalesByStore ChartKind = "sales-by-store"
	ChartCategories   ChartKind = "categories"
	ChartDailySales   ChartKind = "daily-sales"
	ChartATVTrend     ChartKind = "atv-trend"
)

// Employee service types
type CreateEmployeeRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=255"`
	Store string `json:"store" validate:"required,max=255"`
}

type UpdateEmployeeRequest struct {
	Name   *string                `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Store  *string                `json:"store,omitempty" validate:"omitempty,min=1,max=255"`
	Status *models.EmployeeStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

type EmployeeFilters struct {
	Store  string `json:"store,omitempty"`
	Active *bool  `json:"active,omitempty"`
	Limit  int    `json:"limit,omitempty" validate:"omitempty,min=0,max=1000"`
	Offset int    `json:"offset,omitempty" validate:"omitempty,min=0"`
}

// TargetInput is the target of one month; Daily maps day of month to amount
type TargetInput struct {
	Month  string          `json:"month" validate:"required,len=7"`
	Amount float64         `json:"amount" validate:"gte=0"`
	Daily  map[int]float64 `json:"daily,omitempty"`
	Clear  bool            `json:"clear,omitempty"`
}

type SetTargetsRequest struct {
	Targets []TargetInput `json:"targets" validate:"required,min=1,dive"`
}

// Store service types
type CreateStoreRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
	Area string `json:"area" validate:"max=255"`
}

// User service types
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Store    string `json:"store,omitempty" validate:"max=255"`
}

type UpdateRoleRequest struct {
	Role       models.Role `json:"role" validate:"required,oneof=admin general_manager area_manager employee"`
	Store      *string     `json:"store,omitempty" validate:"omitempty,max=255"`
	EmployeeID *string     `json:"employee_id,omitempty"`
}

// Identity is what a verified token says about its bearer
type Identity struct {
	ID    string
	UID   string
	Email string
	Name  string
}

// UserListing splits accounts by approval state
type UserListing struct {
	Pending []*models.UserProfile `json:"pending"`
	Active  []*models.UserProfile `json:"active"`
}

// Task service types
type CreateTaskRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Title      string `json:"title" validate:"required,min=1,max=255"`
	Message    string `json:"message" validate:"max=4000"`
}

// Rule service types
type CreateRuleRequest struct {
	Rule string `json:"rule" validate:"required,min=1,max=2000"`
}

// Data service types
type RecordMetricRequest struct {
	Employee     string  `json:"employee" validate:"required,max=255"`
	Store        string  `json:"store,omitempty" validate:"max=255"`
	Date         string  `json:"date" validate:"required"`
	TotalSales   float64 `json:"total_sales" validate:"gte=0"`
	Transactions int     `json:"transaction_count" validate:"gte=0"`
	Footfall     *int    `json:"footfall,omitempty" validate:"omitempty,gte=0"`
}

type ResetResult struct {
	MetricsDeleted      int64 `json:"metrics_deleted"`
	TransactionsDeleted int64 `json:"transactions_deleted"`
}
