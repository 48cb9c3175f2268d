package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"retail-cockpit-api/internal/adapters/storage"
	"retail-cockpit-api/internal/importer"
	"retail-cockpit-api/internal/services"
)

// DataHandler handles imports, manual entry, exports and resets
type DataHandler struct {
	dataService services.DataService
	now         func() time.Time
}

// NewDataHandler creates a new data handler
func NewDataHandler(dataService services.DataService) *DataHandler {
	return &DataHandler{
		dataService: dataService,
		now:         time.Now,
	}
}

// @Summary Record a daily metric
// @Description Manual entry of one employee's sales for a day
// @Tags data
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param metric body services.RecordMetricRequest true "Daily metric"
// @Success 201 {object} models.DailyMetric
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /metrics [post]
func (h *DataHandler) RecordMetric(c *gin.Context) {
	var req services.RecordMetricRequest
	if !bindJSON(c, &req) {
		return
	}

	metric, err := h.dataService.RecordMetric(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "record metric")
		return
	}
	c.JSON(http.StatusCreated, metric)
}

// @Summary Import a file
// @Description Upload a CSV or JSON file of daily metrics or transactions as the "file" form field or as the raw body
// @Tags data
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param kind path string true "Import kind" Enums(metrics, transactions)
// @Param file formData file false "CSV or JSON file"
// @Param format query string false "csv or json; detected from the file name by default"
// @Param dry_run query bool false "Validate without writing"
// @Success 200 {object} importer.Result
// @Failure 400 {object} ErrorResponse
// @Router /import/{kind} [post]
func (h *DataHandler) Import(c *gin.Context) {
	kind, err := importer.ParseKind(c.Param("kind"))
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", services.ErrInvalidInput, err), "import")
		return
	}

	body, name, err := uploadedFile(c)
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", services.ErrInvalidInput, err), "import")
		return
	}
	defer body.Close()

	opts := importer.Options{Format: importer.FormatFromPath(name)}
	if f := c.Query("format"); f != "" {
		if opts.Format, err = importer.ParseFormat(f); err != nil {
			respondError(c, fmt.Errorf("%w: %v", services.ErrInvalidInput, err), "import")
			return
		}
	} else if strings.Contains(c.ContentType(), "json") {
		opts.Format = importer.FormatJSON
	}
	opts.DryRun, _ = strconv.ParseBool(c.Query("dry_run"))

	result, err := h.dataService.Import(c.Request.Context(), kind, body, opts)
	if err != nil {
		respondError(c, err, "import")
		return
	}

	logrus.WithFields(logrus.Fields{
		"kind":     kind,
		"file":     name,
		"imported": result.Imported,
		"skipped":  result.Skipped,
		"user_id":  c.GetString("user_id"),
	}).Info("Import finished")
	c.JSON(http.StatusOK, result)
}

// uploadedFile returns the multipart "file" field, or the request body otherwise
func uploadedFile(c *gin.Context) (io.ReadCloser, string, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("file field is required")
		}
		f, err := header.Open()
		if err != nil {
			return nil, "", fmt.Errorf("cannot read upload: %v", err)
		}
		return f, header.Filename, nil
	}
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil, "", fmt.Errorf("request body is empty")
	}
	return c.Request.Body, c.Query("filename"), nil
}

// @Summary Reset sales data
// @Description Deletes every daily metric and transaction
// @Tags data
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.ResetResult
// @Failure 403 {object} ErrorResponse
// @Router /data [delete]
func (h *DataHandler) ResetData(c *gin.Context) {
	result, err := h.dataService.ResetData(c.Request.Context())
	if err != nil {
		respondError(c, err, "reset data")
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Export the dashboard
// @Description XLSX workbook of the current summaries; the workbook is also archived
// @Tags data
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param year query int false "Year"
// @Param month query string false "Month 1-12 or all"
// @Param day query string false "Day 1-31 or all"
// @Success 200 {file} file
// @Failure 503 {object} ErrorResponse
// @Router /export [get]
func (h *DataHandler) Export(c *gin.Context) {
	q, err := parseDashboardQuery(c, h.now())
	if err != nil {
		respondError(c, err, "export")
		return
	}

	archive, body, err := h.dataService.Export(c.Request.Context(), q)
	if err != nil {
		respondError(c, err, "export")
		return
	}

	c.Header("X-Export-Key", archive.Key)
	sendWorkbook(c, path.Base(archive.Key), body)
}

// @Summary List archived exports
// @Tags data
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum results" default(50)
// @Success 200 {array} export.Archive
// @Router /exports [get]
func (h *DataHandler) ListExports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	archives, err := h.dataService.ListExports(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "list exports")
		return
	}
	c.JSON(http.StatusOK, archives)
}

// @Summary Download an archived export
// @Tags data
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param key query string true "Archive key as listed by /exports"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /exports/download [get]
func (h *DataHandler) DownloadExport(c *gin.Context) {
	key := c.Query("key")
	body, err := h.dataService.DownloadExport(c.Request.Context(), key)
	if err != nil {
		respondError(c, err, "download export")
		return
	}
	sendWorkbook(c, path.Base(key), body)
}

func sendWorkbook(c *gin.Context, filename string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, storage.XLSXContentType, body)
}
