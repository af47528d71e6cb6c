package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors, fatal before any iteration runs
	ErrSchema         = errors.New("table schema invalid")
	ErrNameResolution = errors.New("community name not in canonical ordering")
	ErrEmptyInput     = errors.New("input table has no rows")

	// Join errors, raised while iterating
	ErrJoin = errors.New("permuted pair missing from lookup table")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid run configuration")
)

// NameResolutionError reports an observed-pair community that the canonical
// ordering does not contain.
type NameResolutionError struct {
	Name   string
	Column string // "origin" or "destination"
	Row    int    // 0-based row in the observed-pairs table
}

func (e *NameResolutionError) Error() string {
	return fmt.Sprintf("%v: %q (observed %s, row %d)", ErrNameResolution, e.Name, e.Column, e.Row)
}

func (e *NameResolutionError) Unwrap() error { return ErrNameResolution }

// JoinError reports a permuted (origin, destination) pair with no lookup entry.
type JoinError struct {
	Iteration   int
	Row         int
	Origin      string
	Destination string
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("%v: (%s -> %s) at iteration %d, row %d",
		ErrJoin, e.Origin, e.Destination, e.Iteration, e.Row)
}

func (e *JoinError) Unwrap() error { return ErrJoin }

// SchemaError reports a missing column, a non-numeric value or a
// structurally inconsistent table.
type SchemaError struct {
	Table  string
	Column string
	Row    int // -1 when the problem is not tied to a row
	Reason string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Row >= 0 && e.Column != "":
		return fmt.Sprintf("%v: %s table, column %q, row %d: %s", ErrSchema, e.Table, e.Column, e.Row, e.Reason)
	case e.Column != "":
		return fmt.Sprintf("%v: %s table, column %q: %s", ErrSchema, e.Table, e.Column, e.Reason)
	default:
		return fmt.Sprintf("%v: %s table: %s", ErrSchema, e.Table, e.Reason)
	}
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// Error constructors with context
func NewSchemaError(table, column string, row int, reason string) error {
	return &SchemaError{Table: table, Column: column, Row: row, Reason: reason}
}

func NewConfigError(field, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, reason)
}

// Error checking helpers
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema) || errors.Is(err, ErrEmptyInput)
}

func IsNameResolutionError(err error) bool {
	return errors.Is(err, ErrNameResolution)
}

func IsJoinError(err error) bool {
	return errors.Is(err, ErrJoin)
}
