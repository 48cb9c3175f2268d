package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var (
	// ErrDataUnavailable is returned while the record store cannot provide a dataset
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInvalidInput is returned for requests that fail validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredentials is returned for a wrong email or password
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountPending is returned when an account awaits approval
	ErrAccountPending = errors.New("account pending approval")

	// ErrForbidden is returned when the caller may not act on a record
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned for records missing from the published dataset
	ErrNotFound = errors.New("not found")
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func validateStruct(v *validator.Validate, req interface{}) error {
	if err := v.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// refresh republishes the dataset after a write. The write has already
// succeeded, so a failed reload is only logged.
func refresh(ctx context.Context, r Refresher, logger *logrus.Logger) {
	if r == nil {
		return
	}
	if err := r.Refresh(ctx); err != nil {
		logger.WithError(err).Warn("Failed to refresh dashboard data after write")
	}
}

func orDefault(logger *logrus.Logger) *logrus.Logger {
	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}
