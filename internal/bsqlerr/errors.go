// Package bsqlerr defines the typed error kinds that cross component
// boundaries in BSQL: catalog, schema, runtime, and protocol errors, plus
// the parser's offset-carrying parse error. Each is a small named struct
// implementing error, matched with errors.As, following the same pattern
// the teacher's own internal/parser.UnsupportedFormatError uses.
package bsqlerr

import "fmt"

// ParseError reports a SQL syntax error at a byte offset, with the set of
// token kinds that would have been accepted there.
type ParseError struct {
	Offset   int
	Found    string
	Expected []string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Parse at %d: unexpected %s, expected %s", e.Offset, e.Found, joinExpected(e.Expected))
}

func joinExpected(expected []string) string {
	if len(expected) == 0 {
		return "end of input"
	}
	out := expected[0]
	for _, e := range expected[1:] {
		out += " or " + e
	}
	return out
}

// CatalogError reports a failure resolving a database or table name.
type CatalogError struct {
	Kind string // UnknownTable, UnknownDatabase, AlreadyExists, UnknownColumn
	Name string
}

func (e *CatalogError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Name) }

func NewUnknownDatabase(name string) error { return &CatalogError{Kind: "UnknownDatabase", Name: name} }
func NewUnknownTable(name string) error    { return &CatalogError{Kind: "UnknownTable", Name: name} }
func NewAlreadyExists(name string) error   { return &CatalogError{Kind: "AlreadyExists", Name: name} }
func NewUnknownColumn(name string) error   { return &CatalogError{Kind: "UnknownColumn", Name: name} }

// SchemaError reports a violation of a column or table invariant.
type SchemaError struct {
	Kind   string // DuplicateColumn, InvalidFlagCombination, TypeMismatch, NullViolation, DuplicatePrimaryKey, ArityMismatch
	Detail string
}

func (e *SchemaError) Error() string {
	if e.Detail == "" {
		return e.Kind
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func NewDuplicateColumn(name string) error { return &SchemaError{Kind: "DuplicateColumn", Detail: name} }
func NewInvalidFlagCombination(detail string) error {
	return &SchemaError{Kind: "InvalidFlagCombination", Detail: detail}
}
func NewTypeMismatch(detail string) error  { return &SchemaError{Kind: "TypeMismatch", Detail: detail} }
func NewNullViolation(column string) error { return &SchemaError{Kind: "NullViolation", Detail: column} }
func NewDuplicatePrimaryKey(detail string) error {
	return &SchemaError{Kind: "DuplicatePrimaryKey", Detail: detail}
}
func NewArityMismatch(detail string) error { return &SchemaError{Kind: "ArityMismatch", Detail: detail} }

// RuntimeError reports a storage-layer failure unrelated to schema shape.
type RuntimeError struct {
	Kind   string // NotFound, IOError, Corruption
	Detail string
}

func (e *RuntimeError) Error() string {
	if e.Detail == "" {
		return e.Kind
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func NewNotFound(detail string) error   { return &RuntimeError{Kind: "NotFound", Detail: detail} }
func NewIOError(detail string) error    { return &RuntimeError{Kind: "IOError", Detail: detail} }
func NewCorruption(detail string) error { return &RuntimeError{Kind: "Corruption", Detail: detail} }

// ProtocolError reports a line-protocol violation. Receiving one closes
// the connection (spec: "Protocol errors close the connection").
type ProtocolError struct {
	Kind   string // Unauthenticated, BadHandshake, AuthFailed
	Detail string
}

func (e *ProtocolError) Error() string {
	if e.Detail == "" {
		return e.Kind
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func NewUnauthenticated() error             { return &ProtocolError{Kind: "Unauthenticated"} }
func NewBadHandshake(detail string) error   { return &ProtocolError{Kind: "BadHandshake", Detail: detail} }
func NewAuthFailed(detail string) error     { return &ProtocolError{Kind: "AuthFailed", Detail: detail} }
