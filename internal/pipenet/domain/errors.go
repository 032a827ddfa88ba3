package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRunNotFound    = errors.New("sizing run not found")
	ErrRunExists      = errors.New("sizing run already exists")
	ErrInvalidStatus  = errors.New("invalid run status")
	ErrReportNotFound = errors.New("sizing report not found")

	// ErrConfiguration and ErrData are the abort classes: neither is
	// locally recoverable, both end the run for the affected network.
	ErrConfiguration = errors.New("configuration error")
	ErrData          = errors.New("data error")
)

// ConfigurationError names an invalid configuration field.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

func NewConfigurationError(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// DataError names the offending input entity (building, junction, pipe).
type DataError struct {
	Entity string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data error: %s: %s", e.Entity, e.Reason)
}

func (e *DataError) Unwrap() error { return ErrData }

func NewDataError(entity, format string, args ...any) error {
	return &DataError{Entity: entity, Reason: fmt.Sprintf(format, args...)}
}

// UnreachableBuildingError fails a run when a building has no path to the
// plant and the exclude-and-warn policy is not configured.
type UnreachableBuildingError struct {
	BuildingID string
}

func (e *UnreachableBuildingError) Error() string {
	return fmt.Sprintf("data error: building %s has no path to the plant", e.BuildingID)
}

func (e *UnreachableBuildingError) Unwrap() error { return ErrData }

// InvalidTopologyError reports a cycle where a tree topology is assumed.
type InvalidTopologyError struct {
	Detail string
	Nodes  []string
}

func (e *InvalidTopologyError) Error() string {
	return fmt.Sprintf("data error: invalid topology: %s", e.Detail)
}

func (e *InvalidTopologyError) Unwrap() error { return ErrData }
