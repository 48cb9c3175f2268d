package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"retail-cockpit-api/internal/analytics"
	"retail-cockpit-api/internal/services"
)

// DashboardHandler serves the aggregated KPI views
type DashboardHandler struct {
	dashboardService services.DashboardService
	now              func() time.Time
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		now:              time.Now,
	}
}

// parseDateFilter reads year, month and day. Without a year the current month
// is selected; month and day accept "all".
func parseDateFilter(c *gin.Context, now time.Time) (analytics.DateFilter, error) {
	year := c.Query("year")
	if year == "" && c.Query("month") == "" && c.Query("day") == "" {
		return analytics.CurrentMonth(now), nil
	}

	f := analytics.DateFilter{Year: now.Year(), Month: analytics.Period(now.Month())}
	if year != "" {
		y, err := strconv.Atoi(year)
		if err != nil {
			return f, fmt.Errorf("%w: invalid year %q", services.ErrInvalidInput, year)
		}
		f.Year = y
	}

	var err error
	if _, ok := c.GetQuery("month"); ok {
		if f.Month, err = analytics.ParsePeriod(c.Query("month")); err != nil {
			return f, fmt.Errorf("%w: month: %v", services.ErrInvalidInput, err)
		}
	}
	if f.Day, err = analytics.ParsePeriod(c.Query("day")); err != nil {
		return f, fmt.Errorf("%w: day: %v", services.ErrInvalidInput, err)
	}
	return f, nil
}

// parseScope reads area and one or more store parameters
func parseScope(c *gin.Context) analytics.ScopeFilter {
	var stores []string
	for _, s := range c.QueryArray("store") {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				stores = append(stores, part)
			}
		}
	}
	return analytics.ScopeFilter{
		Area:   strings.TrimSpace(c.Query("area")),
		Stores: stores,
	}
}

func parseDashboardQuery(c *gin.Context, now time.Time) (services.DashboardQuery, error) {
	f, err := parseDateFilter(c, now)
	if err != nil {
		return services.DashboardQuery{}, err
	}
	return services.DashboardQuery{Filter: f, Scope: parseScope(c)}, nil
}

// @Summary Dashboard summary
// @Description KPI cards with employee and store summaries for a period and scope
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param year query int false "Year (defaults to the current month)"
// @Param month query string false "Month 1-12 or all"
// @Param day query string false "Day 1-31 or all"
// @Param area query string false "Area"
// @Param store query []string false "Store names"
// @Success 200 {object} services.DashboardSummary
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	q, err := parseDashboardQuery(c, h.now())
	if err != nil {
		respondError(c, err, "build summary")
		return
	}

	summary, err := h.dashboardService.Summary(c.Request.Context(), q)
	if err != nil {
		respondError(c, err, "build summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Employee detail
// @Description Drill-down of one employee including trend and dynamic target
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Employee ID"
// @Param year query int false "Year"
// @Param month query string false "Month 1-12 or all"
// @Param day query string false "Day 1-31 or all"
// @Param category query string false "Focus category"
// @Success 200 {object} analytics.EmployeeDetail
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /dashboard/employees/{id} [get]
func (h *DashboardHandler) EmployeeDetail(c *gin.Context) {
	f, err := parseDateFilter(c, h.now())
	if err != nil {
		respondError(c, err, "build employee detail")
		return
	}

	detail, err := h.dashboardService.EmployeeDetail(c.Request.Context(), c.Param("id"), f, c.Query("category"))
	if err != nil {
		respondError(c, err, "build employee detail")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// @Summary Category breakdown
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param seller query string false "Restrict to one seller"
// @Success 200 {array} analytics.CategorySales
// @Failure 503 {object} ErrorResponse
// @Router /dashboard/categories [get]
func (h *DashboardHandler) Categories(c *gin.Context) {
	q, err := parseDashboardQuery(c, h.now())
	if err != nil {
		respondError(c, err, "build category breakdown")
		return
	}

	categories, err := h.dashboardService.Categories(c.Request.Context(), q, c.Query("seller"))
	if err != nil {
		respondError(c, err, "build category breakdown")
		return
	}
	c.JSON(http.StatusOK, categories)
}

// @Summary Period comparison
// @Description Deltas of the headline figures against the preceding period
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} analytics.KPIComparison
// @Failure 503 {object} ErrorResponse
// @Router /dashboard/compare [get]
func (h *DashboardHandler) Compare(c *gin.Context) {
	q, err := parseDashboardQuery(c, h.now())
	if err != nil {
		respondError(c, err, "compare periods")
		return
	}

	comparison, err := h.dashboardService.Compare(c.Request.Context(), q)
	if err != nil {
		respondError(c, err, "compare periods")
		return
	}
	c.JSON(http.StatusOK, comparison)
}

// @Summary Dashboard chart
// @Description Renders a chart as SVG
// @Tags dashboard
// @Produce image/svg+xml
// @Security BearerAuth
// @Param kind path string true "Chart kind" Enums(sales-by-store, categories, daily-sales, atv-trend)
// @Param employee query string false "Employee ID or name for atv-trend"
// @Success 200 {string} string "SVG markup"
// @Failure 400 {object} ErrorResponse
// @Router /dashboard/charts/{kind} [get]
func (h *DashboardHandler) Chart(c *gin.Context) {
	q, err := parseDashboardQuery(c, h.now())
	if err != nil {
		respondError(c, err, "render chart")
		return
	}

	svg, err := h.dashboardService.Chart(c.Request.Context(), services.ChartKind(c.Param("kind")), q, c.Query("employee"))
	if err != nil {
		respondError(c, err, "render chart")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/svg+xml; charset=utf-8", []byte(svg))
}

// @Summary Data status
// @Description Availability and version of the published dataset
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.DataStatus
// @Router /dashboard/status [get]
func (h *DashboardHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.dashboardService.Status())
}
