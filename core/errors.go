package core

import (
	"errors"
	"fmt"
)

// ErrUnboundRef is returned when resolving a reference that was never bound
// to a store.
var ErrUnboundRef = errors.New("reference is not bound to a store")

// DefinitionError reports a record type whose shape cannot be mapped: no
// identity field, multiple identity fields, or a field of an unsupported
// kind. It is surfaced at first descriptor use.
type DefinitionError struct {
	Type   string
	Reason string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("invalid record type %s: %s", e.Type, e.Reason)
}

// ValidationError reports an operation whose invariants are violated before
// any I/O is attempted, such as an update with an unset identity.
type ValidationError struct {
	Table  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid operation on %s: %s", e.Table, e.Reason)
}

// SchemaError reports a DDL operation against a missing or conflicting
// schema.
type SchemaError struct {
	Table  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error on %s: %s", e.Table, e.Reason)
}

// ConfigurationError reports an invalid backend composition, such as two
// federated constituents claiming the same table.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// BackendError wraps a failure from an underlying storage engine. The engine
// never retries these; retry policy belongs to the backend or the caller.
type BackendError struct {
	Op    string
	Table string
	Err   error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s on %s: %v", e.Op, e.Table, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
