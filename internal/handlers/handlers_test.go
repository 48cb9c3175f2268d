package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"retail-cockpit-api/internal/adapters/storage"
	"retail-cockpit-api/internal/database"
	"retail-cockpit-api/internal/export"
	"retail-cockpit-api/internal/middleware"
	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/recordstore"
	"retail-cockpit-api/internal/repositories/sqlite"
	"retail-cockpit-api/internal/services"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type testServer struct {
	router *gin.Engine
	hub    *recordstore.Hub
}

// newTestServer wires the full router over a migrated temp database. A nil
// source reads from the database itself.
func newTestServer(t *testing.T, source recordstore.Source) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(filepath.Join(t.TempDir(), "api.db"), false, time.Second)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.NewMigrationManager(db, false, testLogger()).Up(); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	repos := sqlite.NewSQLiteRepositoryManager(db, testLogger())
	if source == nil {
		source = recordstore.NewSQLiteSource(repos, true)
	}
	hub := recordstore.NewHub(source, testLogger())
	exporter := export.NewExporter(storage.NewMemoryFileStorage(), testLogger())

	container, err := services.NewServiceContainer(repos, hub, hub, exporter, &services.ServiceConfig{
		BcryptCost: bcrypt.MinCost,
	}, testLogger())
	if err != nil {
		t.Fatalf("NewServiceContainer() error = %v", err)
	}
	t.Cleanup(func() { container.Close() })

	if err := container.UserService.EnsureAdmin(context.Background(), "Admin", adminEmail, adminPassword); err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}

	router := NewRouter(&RouterConfig{
		Services:    container,
		AuthService: middleware.NewAuthService(&middleware.AuthConfig{JWTSecret: "test-secret"}),
		Logger:      testLogger(),
		Version:     "test",
	})
	return &testServer{router: router, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: email, Password: password})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d, body = %s", email, w.Code, w.Body.String())
	}
	var resp LoginResponse
	decode(t, w, &resp)
	return resp.Token
}

// member registers an account, approves it and optionally assigns a role
func (s *testServer) member(t *testing.T, admin, name, email string, role models.Role) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", services.RegisterRequest{
		Name: name, Email: email, Password: "member-password",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body = %s", email, w.Code, w.Body.String())
	}
	var profile models.UserProfile
	decode(t, w, &profile)

	if w := s.do(t, http.MethodPost, "/api/v1/users/"+profile.ID+"/approve", admin, nil); w.Code != http.StatusOK {
		t.Fatalf("approve %s: status = %d, body = %s", email, w.Code, w.Body.String())
	}
	if role != "" && role != models.RoleEmployee {
		w := s.do(t, http.MethodPut, "/api/v1/users/"+profile.ID+"/role", admin, services.UpdateRoleRequest{Role: role})
		if w.Code != http.StatusOK {
			t.Fatalf("role %s: status = %d, body = %s", email, w.Code, w.Body.String())
		}
	}
	return s.login(t, email, "member-password")
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Service string              `json:"service"`
		Data    services.DataStatus `json:"data"`
	}
	decode(t, w, &body)
	if body.Service != serviceName {
		t.Errorf("service = %q", body.Service)
	}
	if body.Data.Available {
		t.Error("data should not be available before the first load")
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.login(t, adminEmail, adminPassword)

	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", services.RegisterRequest{
		Name: "Sara", Email: "sara@example.com", Password: "sara-password",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body = %s", w.Code, w.Body.String())
	}
	var pending models.UserProfile
	decode(t, w, &pending)
	if pending.Status != models.UserStatusPending || pending.Role != models.RoleEmployee {
		t.Errorf("registered profile = %+v", pending)
	}

	t.Run("duplicate email", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", services.RegisterRequest{
			Name: "Other", Email: "SARA@example.com", Password: "sara-password",
		})
		if w.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", w.Code)
		}
	})

	t.Run("pending login", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "sara@example.com", Password: "sara-password"})
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: adminEmail, Password: "nope"})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	w = s.do(t, http.MethodGet, "/api/v1/users", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list users: status = %d", w.Code)
	}
	var listing services.UserListing
	decode(t, w, &listing)
	if len(listing.Pending) != 1 || listing.Pending[0].ID != pending.ID {
		t.Errorf("pending = %+v", listing.Pending)
	}

	if w := s.do(t, http.MethodPost, "/api/v1/users/"+pending.ID+"/approve", admin, nil); w.Code != http.StatusOK {
		t.Fatalf("approve: status = %d", w.Code)
	}
	token := s.login(t, "sara@example.com", "sara-password")

	w = s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: status = %d", w.Code)
	}
	var me models.UserProfile
	decode(t, w, &me)
	if me.Email != "sara@example.com" || me.Status != models.UserStatusActive {
		t.Errorf("me = %+v", me)
	}

	w = s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", RefreshTokenRequest{Token: token})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d, body = %s", w.Code, w.Body.String())
	}
	var refreshed LoginResponse
	decode(t, w, &refreshed)
	if refreshed.Token == "" || refreshed.User.ID != pending.ID {
		t.Errorf("refreshed = %+v", refreshed)
	}

	if w := s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", RefreshTokenRequest{Token: "garbage"}); w.Code != http.StatusUnauthorized {
		t.Errorf("garbage refresh: status = %d, want 401", w.Code)
	}
}

func TestRoleGuards(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.login(t, adminEmail, adminPassword)
	employee := s.member(t, admin, "Ali", "ali@example.com", models.RoleEmployee)
	area := s.member(t, admin, "Mona", "mona@example.com", models.RoleAreaManager)
	general := s.member(t, admin, "Omar", "omar@example.com", models.RoleGeneralManager)

	createEmployee := func(name string) interface{} {
		return services.CreateEmployeeRequest{Name: name, Store: "Mall"}
	}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		want   int
	}{
		{"no token", http.MethodGet, "/api/v1/employees", "", nil, http.StatusUnauthorized},
		{"employee reads", http.MethodGet, "/api/v1/employees", employee, nil, http.StatusOK},
		{"employee cannot create", http.MethodPost, "/api/v1/employees", employee, createEmployee("Zed"), http.StatusForbidden},
		{"area manager creates", http.MethodPost, "/api/v1/employees", area, createEmployee("Yara"), http.StatusCreated},
		{"employee cannot list users", http.MethodGet, "/api/v1/users", employee, nil, http.StatusForbidden},
		{"area manager cannot list users", http.MethodGet, "/api/v1/users", area, nil, http.StatusForbidden},
		{"general manager lists users", http.MethodGet, "/api/v1/users", general, nil, http.StatusOK},
		{"general manager cannot reset", http.MethodDelete, "/api/v1/data", general, nil, http.StatusForbidden},
		{"admin resets", http.MethodDelete, "/api/v1/data", admin, nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.token, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestUpdateRole_OnlyAdminGrantsAdmin(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.login(t, adminEmail, adminPassword)
	general := s.member(t, admin, "Omar", "omar@example.com", models.RoleGeneralManager)

	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", services.RegisterRequest{
		Name: "Nour", Email: "nour@example.com", Password: "nour-password",
	})
	var target models.UserProfile
	decode(t, w, &target)

	path := "/api/v1/users/" + target.ID + "/role"
	if w := s.do(t, http.MethodPut, path, general, services.UpdateRoleRequest{Role: models.RoleAdmin}); w.Code != http.StatusForbidden {
		t.Errorf("general manager granting admin: status = %d, want 403", w.Code)
	}
	if w := s.do(t, http.MethodPut, path, general, services.UpdateRoleRequest{Role: models.RoleAreaManager}); w.Code != http.StatusOK {
		t.Errorf("general manager granting area manager: status = %d, want 200", w.Code)
	}
	if w := s.do(t, http.MethodPut, path, admin, services.UpdateRoleRequest{Role: "owner"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown role: status = %d, want 400", w.Code)
	}
}

func TestDashboardEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.login(t, adminEmail, adminPassword)

	w := s.do(t, http.MethodPost, "/api/v1/employees", admin, services.CreateEmployeeRequest{Name: "Ali", Store: "Mall"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create employee: status = %d, body = %s", w.Code, w.Body.String())
	}
	var ali models.Employee
	decode(t, w, &ali)

	for _, m := range []services.RecordMetricRequest{
		{Employee: "Ali", Date: "2024-03-01", TotalSales: 1000, Transactions: 4},
		{Employee: "Ali", Date: "2024-03-02", TotalSales: 500, Transactions: 1},
	} {
		if w := s.do(t, http.MethodPost, "/api/v1/metrics", admin, m); w.Code != http.StatusCreated {
			t.Fatalf("record metric: status = %d, body = %s", w.Code, w.Body.String())
		}
	}

	if w := s.do(t, http.MethodPost, "/api/v1/metrics", admin, services.RecordMetricRequest{
		Employee: "Nobody", Date: "2024-03-01", TotalSales: 1,
	}); w.Code != http.StatusNotFound {
		t.Errorf("unknown employee metric: status = %d, want 404", w.Code)
	}

	w = s.do(t, http.MethodGet, "/api/v1/dashboard/summary?year=2024&month=3", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("summary: status = %d, body = %s", w.Code, w.Body.String())
	}
	var summary services.DashboardSummary
	decode(t, w, &summary)
	if len(summary.Employees) != 1 || summary.Employees[0].TotalSales != 1500 {
		t.Errorf("employees = %+v", summary.Employees)
	}
	if summary.KPIs.TotalSales != 1500 || summary.KPIs.TotalTransactions != 5 {
		t.Errorf("kpis = %+v", summary.KPIs)
	}

	tests := []struct {
		name string
		path string
		want int
	}{
		{"whole year", "/api/v1/dashboard/summary?year=2024&month=all", http.StatusOK},
		{"store scope", "/api/v1/dashboard/summary?year=2024&month=3&store=Mall,Outlet", http.StatusOK},
		{"month out of range", "/api/v1/dashboard/summary?year=2024&month=13", http.StatusBadRequest},
		{"bad year", "/api/v1/dashboard/summary?year=abc", http.StatusBadRequest},
		{"employee detail", "/api/v1/dashboard/employees/" + ali.ID + "?year=2024&month=3", http.StatusOK},
		{"categories", "/api/v1/dashboard/categories?year=2024&month=3", http.StatusOK},
		{"compare", "/api/v1/dashboard/compare?year=2024&month=3", http.StatusOK},
		{"status", "/api/v1/dashboard/status", http.StatusOK},
		{"unknown chart", "/api/v1/dashboard/charts/radar?year=2024&month=3", http.StatusBadRequest},
		{"trend of unknown employee", "/api/v1/dashboard/charts/atv-trend?employee=Nobody", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := s.do(t, http.MethodGet, tt.path, admin, nil); w.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", w.Code, tt.want, w.Body.String())
			}
		})
	}

	for _, kind := range []string{"sales-by-store", "categories", "daily-sales"} {
		t.Run("chart "+kind, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/api/v1/dashboard/charts/"+kind+"?year=2024&month=3", admin, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "image/svg+xml") {
				t.Errorf("content type = %q", ct)
			}
			if !strings.Contains(w.Body.String(), "<svg") {
				t.Error("body is not svg")
			}
		})
	}
}

func TestDashboard_Unavailable(t *testing.T) {
	failing := recordstore.SourceFunc(func(ctx context.Context) (*models.RawDataset, error) {
		return nil, errors.New("connection refused")
	})
	s := newTestServer(t, failing)
	admin := s.login(t, adminEmail, adminPassword)

	if err := s.hub.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}

	w := s.do(t, http.MethodGet, "/api/v1/dashboard/summary", admin, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/v1/export", admin, nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("export status = %d, want 503", w.Code)
	}
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	part.Write([]byte(content))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestImport(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.login(t, adminEmail, adminPassword)
	if w := s.do(t, http.MethodPost, "/api/v1/employees", admin, services.CreateEmployeeRequest{Name: "Ali", Store: "Mall"}); w.Code != http.StatusCreated {
		t.Fatalf("create employee: status = %d", w.Code)
	}

	csv := "employee,date,total sales,transactions\nAly,2024-03-01,1000,4\n,2024-03-02,5,1\n"

	upload := func(path, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+admin)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}

	t.Run("dry run", func(t *testing.T) {
		body, ct := multipartBody(t, "march.csv", csv)
		w := upload("/api/v1/import/metrics?dry_run=true", ct, body)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		var result struct {
			DryRun   bool `json:"dry_run"`
			Valid    int  `json:"valid"`
			Imported int  `json:"imported"`
			Skipped  int  `json:"skipped"`
		}
		decode(t, w, &result)
		if !result.DryRun || result.Valid != 1 || result.Imported != 0 || result.Skipped != 1 {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("raw csv body", func(t *testing.T) {
		w := upload("/api/v1/import/metrics", "text/csv", bytes.NewBufferString(csv))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		var result struct {
			Imported int `json:"imported"`
		}
		decode(t, w, &result)
		if result.Imported != 1 {
			t.Errorf("imported = %d, want 1", result.Imported)
		}

		w = s.do(t, http.MethodGet, "/api/v1/dashboard/summary?year=2024&month=3", admin, nil)
		var summary services.DashboardSummary
		decode(t, w, &summary)
		if summary.KPIs.TotalSales != 1000 {
			t.Errorf("total sales after import = %v, want 1000", summary.KPIs.TotalSales)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		body, ct := multipartBody(t, "march.csv", csv)
		if w := upload("/api/v1/import/invoices", ct, body); w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("missing file field", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		mw.WriteField("note", "no file")
		mw.Close()
		if w := upload("/api/v1/import/metrics", mw.FormDataContentType(), &buf); w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("unsupported content type", func(t *testing.T) {
		if w := upload("/api/v1/import/metrics", "application/xml", bytes.NewBufferString("<x/>")); w.Code != http.StatusUnsupportedMediaType {
			t.Errorf("status = %d, want 415", w.Code)
		}
	})
}

func TestExport(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.login(t, adminEmail, adminPassword)
	s.do(t, http.MethodPost, "/api/v1/employees", admin, services.CreateEmployeeRequest{Name: "Ali", Store: "Mall"})
	s.do(t, http.MethodPost, "/api/v1/metrics", admin, services.RecordMetricRequest{Employee: "Ali", Date: "2024-03-01", TotalSales: 1000, Transactions: 4})

	w := s.do(t, http.MethodGet, "/api/v1/export?year=2024&month=3", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != storage.XLSXContentType {
		t.Errorf("content type = %q", ct)
	}
	key := w.Header().Get("X-Export-Key")
	if !strings.HasPrefix(key, "exports/2024/") {
		t.Fatalf("export key = %q", key)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), filepath.Base(key)) {
		t.Errorf("content disposition = %q", w.Header().Get("Content-Disposition"))
	}
	exported := w.Body.Bytes()

	w = s.do(t, http.MethodGet, "/api/v1/exports", admin, nil)
	var archives []export.Archive
	decode(t, w, &archives)
	if len(archives) != 1 || archives[0].Key != key {
		t.Fatalf("archives = %+v", archives)
	}

	tests := []struct {
		name string
		key  string
		want int
	}{
		{"archived", key, http.StatusOK},
		{"missing", "exports/2024/missing.xlsx", http.StatusNotFound},
		{"outside archive", "secrets/key.xlsx", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/api/v1/exports/download?key="+tt.key, admin, nil)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusOK && !bytes.Equal(w.Body.Bytes(), exported) {
				t.Error("downloaded workbook differs from the export")
			}
		})
	}
}

func TestTasksAndRules(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.login(t, adminEmail, adminPassword)

	w := s.do(t, http.MethodPost, "/api/v1/employees", admin, services.CreateEmployeeRequest{Name: "Ali", Store: "Mall"})
	var ali models.Employee
	decode(t, w, &ali)

	// registration links the account to the same-name employee
	employee := s.member(t, admin, "Ali", "ali@example.com", models.RoleEmployee)

	w = s.do(t, http.MethodPost, "/api/v1/tasks", admin, services.CreateTaskRequest{EmployeeID: ali.ID, Title: "Restock"})
	if w.Code != http.StatusCreated {
		t.Fatalf("send task: status = %d, body = %s", w.Code, w.Body.String())
	}
	var task models.Task
	decode(t, w, &task)

	if w := s.do(t, http.MethodPost, "/api/v1/tasks", employee, services.CreateTaskRequest{EmployeeID: ali.ID, Title: "x"}); w.Code != http.StatusForbidden {
		t.Errorf("employee sending task: status = %d, want 403", w.Code)
	}

	w = s.do(t, http.MethodGet, "/api/v1/tasks/mine?status=open", employee, nil)
	var mine []models.Task
	decode(t, w, &mine)
	if len(mine) != 1 || mine[0].ID != task.ID {
		t.Fatalf("open tasks = %+v", mine)
	}

	w = s.do(t, http.MethodPatch, "/api/v1/tasks/"+task.ID+"/done", employee, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("complete: status = %d, body = %s", w.Code, w.Body.String())
	}
	decode(t, w, &task)
	if task.Status != models.TaskStatusDone {
		t.Errorf("task status = %q", task.Status)
	}

	w = s.do(t, http.MethodPost, "/api/v1/rules", admin, services.CreateRuleRequest{Rule: "Greet every customer"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create rule: status = %d, body = %s", w.Code, w.Body.String())
	}
	var rule models.BusinessRule
	decode(t, w, &rule)

	w = s.do(t, http.MethodGet, "/api/v1/rules", admin, nil)
	var rules []models.BusinessRule
	decode(t, w, &rules)
	if len(rules) != 1 {
		t.Errorf("rules = %+v", rules)
	}

	if w := s.do(t, http.MethodPost, "/api/v1/rules", admin, `{"rule":`); w.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", w.Code)
	}
	if w := s.do(t, http.MethodDelete, "/api/v1/rules/"+rule.ID, admin, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete: status = %d, want 204", w.Code)
	}
	if w := s.do(t, http.MethodDelete, "/api/v1/rules/"+uuid.New().String(), admin, nil); w.Code != http.StatusNotFound {
		t.Errorf("delete missing: status = %d, want 404", w.Code)
	}
}
