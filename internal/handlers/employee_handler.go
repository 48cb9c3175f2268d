package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/services"
)

// EmployeeHandler handles employee and target requests
type EmployeeHandler struct {
	employeeService services.EmployeeService
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(employeeService services.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employeeService: employeeService}
}

// EmployeeListResponse is a page of employees
type EmployeeListResponse struct {
	Employees  []*models.Employee       `json:"employees"`
	Pagination *models.PaginationResult `json:"pagination"`
}

// @Summary Create an employee
// @Tags employees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param employee body services.CreateEmployeeRequest true "Employee data"
// @Success 201 {object} models.Employee
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /employees [post]
func (h *EmployeeHandler) CreateEmployee(c *gin.Context) {
	var req services.CreateEmployeeRequest
	if !bindJSON(c, &req) {
		return
	}

	employee, err := h.employeeService.CreateEmployee(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "create employee")
		return
	}
	c.JSON(http.StatusCreated, employee)
}

// @Summary List employees
// @Tags employees
// @Produce json
// @Security BearerAuth
// @Param store query string false "Filter by store"
// @Param active query bool false "Filter by status"
// @Param limit query int false "Limit number of results"
// @Param offset query int false "Offset for pagination" default(0)
// @Success 200 {object} EmployeeListResponse
// @Router /employees [get]
func (h *EmployeeHandler) ListEmployees(c *gin.Context) {
	filters := &services.EmployeeFilters{Store: c.Query("store")}

	if active := c.Query("active"); active != "" {
		if val, err := strconv.ParseBool(active); err == nil {
			filters.Active = &val
		}
	}
	if limit := c.Query("limit"); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil && val > 0 {
			filters.Limit = val
		}
	}
	if offset := c.Query("offset"); offset != "" {
		if val, err := strconv.Atoi(offset); err == nil && val >= 0 {
			filters.Offset = val
		}
	}

	employees, page, err := h.employeeService.ListEmployees(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err, "list employees")
		return
	}
	c.JSON(http.StatusOK, EmployeeListResponse{Employees: employees, Pagination: page})
}

// @Summary Search employees by name
// @Tags employees
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search query"
// @Param limit query int false "Maximum results" default(20)
// @Success 200 {array} models.Employee
// @Router /employees/search [get]
func (h *EmployeeHandler) SearchEmployees(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	employees, err := h.employeeService.SearchEmployees(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err, "search employees")
		return
	}
	c.JSON(http.StatusOK, employees)
}

// @Summary Get an employee
// @Tags employees
// @Produce json
// @Security BearerAuth
// @Param id path string true "Employee ID"
// @Success 200 {object} models.Employee
// @Failure 404 {object} ErrorResponse
// @Router /employees/{id} [get]
func (h *EmployeeHandler) GetEmployee(c *gin.Context) {
	employee, err := h.employeeService.GetEmployee(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "get employee")
		return
	}
	c.JSON(http.StatusOK, employee)
}

// @Summary Update an employee
// @Tags employees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Employee ID"
// @Param employee body services.UpdateEmployeeRequest true "Fields to change"
// @Success 200 {object} models.Employee
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /employees/{id} [put]
func (h *EmployeeHandler) UpdateEmployee(c *gin.Context) {
	var req services.UpdateEmployeeRequest
	if !bindJSON(c, &req) {
		return
	}

	employee, err := h.employeeService.UpdateEmployee(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err, "update employee")
		return
	}
	c.JSON(http.StatusOK, employee)
}

// @Summary Set monthly targets
// @Description Replaces the targets of the given months; a month with clear set is removed
// @Tags employees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Employee ID"
// @Param targets body services.SetTargetsRequest true "Targets"
// @Success 200 {object} models.Employee
// @Failure 400 {object} ErrorResponse
// @Router /employees/{id}/targets [put]
func (h *EmployeeHandler) SetTargets(c *gin.Context) {
	var req services.SetTargetsRequest
	if !bindJSON(c, &req) {
		return
	}

	employee, err := h.employeeService.SetTargets(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err, "set targets")
		return
	}
	c.JSON(http.StatusOK, employee)
}

// StoreHandler handles store requests
type StoreHandler struct {
	storeService services.StoreService
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(storeService services.StoreService) *StoreHandler {
	return &StoreHandler{storeService: storeService}
}

// @Summary List stores
// @Tags stores
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Store
// @Router /stores [get]
func (h *StoreHandler) ListStores(c *gin.Context) {
	stores, err := h.storeService.ListStores(c.Request.Context())
	if err != nil {
		respondError(c, err, "list stores")
		return
	}
	c.JSON(http.StatusOK, stores)
}

// @Summary Create a store
// @Tags stores
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param store body services.CreateStoreRequest true "Store data"
// @Success 201 {object} models.Store
// @Failure 409 {object} ErrorResponse
// @Router /stores [post]
func (h *StoreHandler) CreateStore(c *gin.Context) {
	var req services.CreateStoreRequest
	if !bindJSON(c, &req) {
		return
	}

	store, err := h.storeService.CreateStore(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "create store")
		return
	}
	c.JSON(http.StatusCreated, store)
}
