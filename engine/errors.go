package engine

import "fmt"

// ValidationError is returned when an operation is constructed with
// malformed input, such as a missing table name or an empty key.
type ValidationError struct {
	// Field is the input that failed validation.
	Field string

	// Reason describes why the input was rejected.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tessera: invalid %s: %s", e.Field, e.Reason)
}

// ConflictError is returned when a conditional write fails because the
// server-evaluated condition did not hold. Callers use it to drive
// read-modify-write retry loops.
type ConflictError struct {
	// Condition is the condition expression that failed.
	Condition string

	// ResourceType is the entity type derived from the leading segment
	// of the item's partition key (e.g. "USER" for "USER#123").
	ResourceType string

	cause error
}

func (e *ConflictError) Error() string {
	if e.ResourceType != "" {
		return fmt.Sprintf("tessera: conditional write on %s failed: %s", e.ResourceType, e.Condition)
	}
	return fmt.Sprintf("tessera: conditional write failed: %s", e.Condition)
}

func (e *ConflictError) Unwrap() error { return e.cause }

// DatabaseError is returned for any backend failure other than a failed
// write condition: throttling, missing table, malformed expression,
// network fault. The underlying SDK error is available via Unwrap.
type DatabaseError struct {
	// Op is the engine operation that failed (e.g. "GetItem").
	Op string

	// Table is the table the operation targeted.
	Table string

	cause error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("tessera: %s on table %q failed: %v", e.Op, e.Table, e.cause)
}

func (e *DatabaseError) Unwrap() error { return e.cause }

// InvalidTokenError is returned when a pagination token cannot be decoded.
// A malformed token always fails loudly rather than resuming from an
// empty or different key.
type InvalidTokenError struct {
	cause error
}

func (e *InvalidTokenError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("tessera: invalid pagination token: %v", e.cause)
	}
	return "tessera: invalid pagination token"
}

func (e *InvalidTokenError) Unwrap() error { return e.cause }

// SerializationError is returned when a value cannot be converted to or
// from the DynamoDB wire representation, such as a NaN float or an
// unsupported attribute type.
type SerializationError struct {
	Reason string
}

func (e *SerializationError) Error() string {
	return "tessera: serialization failed: " + e.Reason
}
