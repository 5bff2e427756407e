package models

import (
	"errors"

	"github.com/linesmerrill/dose-reminder-api/fraction"
)

var (
	// ErrInvalidArgument marks a value outside its valid domain. Setters fail
	// with it instead of clamping.
	ErrInvalidArgument = fraction.ErrInvalidArgument
	// ErrInvalidFormat marks unparsable text.
	ErrInvalidFormat = fraction.ErrInvalidFormat
	// ErrUnsupportedOperation is returned when the date-independent dose is
	// requested for a drug whose dose depends on the date.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrNotFound is returned by the entry store for unknown ids.
	ErrNotFound = errors.New("not found")
)

// HealthCheckResponse is returned by the health endpoint
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
