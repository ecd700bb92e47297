package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when a percentage or average would divide by zero.
	ErrEmptyInput = errors.New("empty input")

	// ErrInsufficientHistory is returned when a forecast has no history to extend.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrInvalidClusterCount is returned for k <= 0.
	ErrInvalidClusterCount = errors.New("cluster count must be positive")

	// ErrInvalidHorizon is returned for a negative forecast horizon.
	ErrInvalidHorizon = errors.New("forecast horizon must not be negative")

	// ErrUnorderedSeries is returned when a daily series is not strictly increasing by date.
	ErrUnorderedSeries = errors.New("daily series is not strictly increasing")
)

// MalformedTimeError reports a record whose time field has no valid hour.
// Hourly aggregation skips such records and keeps going.
type MalformedTimeError struct {
	RecordID string
	Time     string
}

func (e *MalformedTimeError) Error() string {
	return fmt.Sprintf("malformed time %q on record %s", e.Time, e.RecordID)
}
