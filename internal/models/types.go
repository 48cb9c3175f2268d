package models

import (
	"time"
)

// Common constants
const (
	// TrendWindowDays is the length of the trailing trend window
	TrendWindowDays = 30

	// DefaultTopProducts is the number of products returned in a category drill-down
	DefaultTopProducts = 5

	// AchievementTargetPercent marks a fully achieved target
	AchievementTargetPercent = 100.0

	// AchievementWarningPercent is the threshold below which achievement is flagged
	AchievementWarningPercent = 80.0
)

// TransactionSource identifies the point-of-sale feed a transaction came from
type TransactionSource string

const (
	TransactionSourcePOS       TransactionSource = "pos"
	TransactionSourceKingDuvet TransactionSource = "king_duvet"
	TransactionSourceImport    TransactionSource = "import"
)

// SearchFilters represents common search and filter parameters
type SearchFilters struct {
	Query     string     `json:"query,omitempty"`
	Store     string     `json:"store,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Active    *bool      `json:"active,omitempty"`
	Limit     int        `json:"limit,omitempty"`
	Offset    int        `json:"offset,omitempty"`
	SortBy    string     `json:"sort_by,omitempty"`
	SortOrder string     `json:"sort_order,omitempty"` // "asc" or "desc"
}

// PaginationResult represents paginated results
type PaginationResult struct {
	Total       int  `json:"total"`
	Limit       int  `json:"limit"`
	Offset      int  `json:"offset"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// NewPaginationResult builds pagination info for a page of results
func NewPaginationResult(total, limit, offset int) *PaginationResult {
	return &PaginationResult{
		Total:       total,
		Limit:       limit,
		Offset:      offset,
		HasNext:     limit > 0 && offset+limit < total,
		HasPrevious: offset > 0,
	}
}

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (ve *ValidationError) Error() string {
	return ve.Message
}
