package domain

import (
	"errors"
	"fmt"
)

var (
	// Fatal processing errors
	ErrExtractionAmbiguous      = errors.New("service period is ambiguous")
	ErrUnsupportedRefundPattern = errors.New("unsupported refund pattern")
	ErrUnexpectedCurrency       = errors.New("unexpected currency")
	ErrUnexpectedFeeShape       = errors.New("unexpected fee shape")
	ErrUnknownTaxStatus         = errors.New("unknown tax status")
	ErrMultiYearBatch           = errors.New("batch spans more than one calendar year")
	ErrMissingPeriod            = errors.New("missing service period")
	ErrMissingAccountNumber     = errors.New("missing ledger account number")
	ErrMissingCustomer          = errors.New("missing customer")
	ErrIncompleteSource         = errors.New("source record is missing a required field")

	// Recognition errors
	ErrInvalidPeriod   = errors.New("period ends before it starts")
	ErrSplitInvariant  = errors.New("month split does not sum to original amount")
	ErrNoAmounts       = errors.New("no amounts to split")
	ErrEmptyPeriodText = errors.New("empty period text")

	// Archive errors
	ErrBatchNotFound = errors.New("batch not found")
)

// ProcessingError is a fatal error tied to the source record that caused it.
type ProcessingError struct {
	Op       string
	SourceID string
	Err      error
}

// NewProcessingError wraps err with its operation and source record.
func NewProcessingError(op, sourceID string, err error) *ProcessingError {
	return &ProcessingError{Op: op, SourceID: sourceID, Err: err}
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.SourceID, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// SourceOf returns the source identifier carried by err, if any.
func SourceOf(err error) string {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.SourceID
	}
	return ""
}
