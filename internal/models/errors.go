package models

import (
	"fmt"
)

// MalformedInputError means a file could not be parsed against the expected
// schema. It aborts the file and the whole batch it belongs to.
type MalformedInputError struct {
	File   string
	Detail string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed input in %s: %s: %v", e.File, e.Detail, e.Err)
	}
	return fmt.Sprintf("malformed input in %s: %s", e.File, e.Detail)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// DuplicateReportError means a report identifier was already committed, or
// appeared twice within the same batch. The whole batch is rejected.
type DuplicateReportError struct {
	ReportID int
	File     string
}

func (e *DuplicateReportError) Error() string {
	return fmt.Sprintf("report id %d from %s was already submitted", e.ReportID, e.File)
}

// AggregationError means report generation failed. It is fatal for that
// request; a partial report is never returned.
type AggregationError struct {
	Detail string
	Err    error
}

func (e *AggregationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("report aggregation failed: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("report aggregation failed: %s", e.Detail)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}
