package domain

import "fmt"

// Error types for consistent error handling across the BFA.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrConflict indicates a resource cannot be changed in its current state
// (e.g. deleting a client that still has bookings).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// RecordError reports a single malformed record found during a reconciliation
// pass. The record itself is passed through unchanged.
type RecordError struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Field      string `json:"field"`
	Value      string `json:"value"`
	Reason     string `json:"reason"`
	Err        error  `json:"-"`
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s %s: invalid %s %q: %s", e.Collection, e.ID, e.Field, e.Value, e.Reason)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
