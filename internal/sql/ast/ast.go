// Package ast defines the statement and expression nodes BSQL's parser
// produces (spec.md §4.3), grounded on the node layering of
// ha1tch-tsqlparser/ast and freeeve-machparse/ast: one concrete struct per
// statement kind, a small sealed Expr interface for predicates.
package ast

import "bsql/internal/codec"

// Statement is any top-level statement the parser can produce.
type Statement interface{ statementNode() }

// ColumnDef is one column in a CREATE TABLE statement.
type ColumnDef struct {
	Name  string
	Type  codec.ColumnType
	Flags codec.ColumnFlag
}

// CreateTable is `CREATE TABLE <ident> (...)`.
type CreateTable struct {
	Table   string
	Columns []ColumnDef
}

func (*CreateTable) statementNode() {}

// Insert is `INSERT INTO <ident> [(...)] VALUES (...)`.
type Insert struct {
	Table   string
	Columns []string // nil means "no explicit column list"
	Values  []Literal
}

func (*Insert) statementNode() {}

// OrderDirection is ASC (default) or DESC.
type OrderDirection int

const (
	Ascending OrderDirection = iota
	Descending
)

// Select is `SELECT ... FROM ... [WHERE ...] [ORDER BY ...] [LIMIT ...]`.
type Select struct {
	Columns   []string // nil means "*"
	Table     string
	Where     Expr // nil means no WHERE clause
	OrderBy   string
	OrderDir  OrderDirection
	HasOrder  bool
	HasLimit  bool
	Limit     int
}

func (*Select) statementNode() {}

// Assignment is one `<ident> = <lit>` pair in an UPDATE's SET clause.
type Assignment struct {
	Column string
	Value  Literal
}

// Update is `UPDATE <ident> SET ... [WHERE ...]`.
type Update struct {
	Table       string
	Assignments []Assignment
	Where       Expr
}

func (*Update) statementNode() {}

// Delete is `DELETE FROM <ident> [WHERE ...]`.
type Delete struct {
	Table string
	Where Expr
}

func (*Delete) statementNode() {}

// ShowTables is `SHOW TABLES`.
type ShowTables struct{}

func (*ShowTables) statementNode() {}

// ShowDatabases is `SHOW DATABASES`.
type ShowDatabases struct{}

func (*ShowDatabases) statementNode() {}

// Use is `USE <ident>`.
type Use struct{ Database string }

func (*Use) statementNode() {}

// LiteralKind identifies which kind of literal a Literal node holds.
type LiteralKind int

const (
	LiteralNull LiteralKind = iota
	LiteralInt
	LiteralDecimal
	LiteralString
)

// Literal is a parsed literal value, still in source form (the planner
// coerces it to a value.Value against the target column's declared
// type, per spec.md §4.4).
type Literal struct {
	Kind LiteralKind
	Int  int64
	Dec  float64
	Str  string
}

// Expr is a predicate expression node: BinaryExpr for comparisons/LIKE,
// LogicalExpr for AND/OR.
type Expr interface{ exprNode() }

// CompareOp is a predicate comparison operator.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpLike
)

// BinaryExpr is `<ident> <op> <lit>`.
type BinaryExpr struct {
	Column string
	Op     CompareOp
	Value  Literal
}

func (*BinaryExpr) exprNode() {}

// LogicalOp is AND or OR.
type LogicalOp int

const (
	LogicalAnd LogicalOp = iota
	LogicalOr
)

// LogicalExpr is `<term> (AND|OR) <term>`. Parsed left-associatively with
// AND binding tighter than OR, per spec.md §4.3.
type LogicalExpr struct {
	Op    LogicalOp
	Left  Expr
	Right Expr
}

func (*LogicalExpr) exprNode() {}
