// Package engine implements BSQL's planner and executor (spec.md §4.4,
// §4.5): it turns a parsed statement into a mutation or result against the
// catalog, and owns the per-connection Session and the Execute(session,
// sql) entry point spec.md §6 requires for both the TCP server and the
// out-of-scope interactive-shell collaborator.
package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"bsql/internal/bsqlerr"
	"bsql/internal/catalog"
	"bsql/internal/codec"
	"bsql/internal/sql/ast"
	"bsql/internal/sql/parser"
	"bsql/internal/value"
)

// Engine owns the catalog and is the single object both the server and
// any in-process collaborator execute statements against.
type Engine struct {
	cat *catalog.Catalog
	log *zap.Logger
}

// New returns an Engine over an already-open catalog.
func New(cat *catalog.Catalog, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{cat: cat, log: log}
}

// Execute parses and runs one SQL statement against session's current
// database, per spec.md §6's single entry-point contract.
func (e *Engine) Execute(sess *Session, sql string) SqlResult {
	stmt, err := parser.Parse(sql)
	if err != nil {
		e.log.Warn("parse error", zap.String("sql", sql), zap.Error(err))
		return errResult(err)
	}

	var res SqlResult
	switch s := stmt.(type) {
	case *ast.CreateTable:
		res = e.execCreateTable(sess, s)
	case *ast.Insert:
		res = e.execInsert(sess, s)
	case *ast.Select:
		res = e.execSelect(sess, s)
	case *ast.Update:
		res = e.execUpdate(sess, s)
	case *ast.Delete:
		res = e.execDelete(sess, s)
	case *ast.ShowTables:
		res = e.execShowTables(sess)
	case *ast.ShowDatabases:
		res = e.execShowDatabases()
	case *ast.Use:
		res = e.execUse(sess, s)
	default:
		res = errResult(fmt.Errorf("engine: unhandled statement type %T", stmt))
	}

	if res.Kind == ResultError {
		e.log.Warn("statement error", zap.String("sql", sql), zap.String("user", sess.User), zap.Error(res.Err))
	}
	return res
}

// logMutation records a successful INSERT/UPDATE/DELETE against table's
// first-seen casing (catalog.TableCasedName), so log lines reflect how the
// table was originally created rather than however this statement typed it.
func (e *Engine) logMutation(sess *Session, table, op string, n int) {
	cased, err := e.cat.TableCasedName(sess.Database, table)
	if err != nil {
		cased = table
	}
	e.log.Debug(op, zap.String("database", sess.Database), zap.String("table", cased), zap.Int("rows", n))
}

func columnIndex(cols []codec.Column, name string) (int, bool) {
	for i, c := range cols {
		if strings.EqualFold(c.Name, name) {
			return i, true
		}
	}
	return 0, false
}

// --- CREATE TABLE ---

func (e *Engine) execCreateTable(sess *Session, s *ast.CreateTable) SqlResult {
	seen := make(map[string]bool, len(s.Columns))
	var pkSeen, autoSeen bool
	cols := make([]codec.Column, 0, len(s.Columns))
	for _, cd := range s.Columns {
		key := strings.ToLower(cd.Name)
		if seen[key] {
			return errResult(bsqlerr.NewDuplicateColumn(cd.Name))
		}
		seen[key] = true

		flags := cd.Flags
		if flags.PrimaryKey() {
			if pkSeen {
				return errResult(bsqlerr.NewInvalidFlagCombination("at most one PRIMARY KEY column"))
			}
			pkSeen = true
			flags |= codec.FlagNotNull
		}
		if flags.AutoIncrement() {
			if autoSeen {
				return errResult(bsqlerr.NewInvalidFlagCombination("at most one AUTO_INCREMENT column"))
			}
			autoSeen = true
			if cd.Type != codec.TypeInteger && cd.Type != codec.TypeLong {
				return errResult(bsqlerr.NewInvalidFlagCombination("AUTO_INCREMENT requires INTEGER or LONG"))
			}
			flags |= codec.FlagNotNull
		}
		cols = append(cols, codec.Column{Name: cd.Name, Type: cd.Type, Flags: flags})
	}

	if err := e.cat.CreateTable(sess.Database, s.Table, cols); err != nil {
		return errResult(err)
	}
	return mutationResult(0)
}

// --- INSERT ---

func (e *Engine) execInsert(sess *Session, s *ast.Insert) SqlResult {
	tbl, err := e.cat.Table(sess.Database, s.Table)
	if err != nil {
		return errResult(err)
	}
	cols := tbl.Columns()

	given := make(map[int]ast.Literal, len(s.Values))
	if s.Columns == nil {
		if len(s.Values) != len(cols) {
			return errResult(bsqlerr.NewArityMismatch(fmt.Sprintf("want %d values, got %d", len(cols), len(s.Values))))
		}
		for i, v := range s.Values {
			given[i] = v
		}
	} else {
		if len(s.Columns) != len(s.Values) {
			return errResult(bsqlerr.NewArityMismatch(fmt.Sprintf("%d columns but %d values", len(s.Columns), len(s.Values))))
		}
		for i, name := range s.Columns {
			idx, ok := columnIndex(cols, name)
			if !ok {
				return errResult(bsqlerr.NewUnknownColumn(name))
			}
			given[idx] = s.Values[i]
		}
	}

	row := make([]value.Value, len(cols))
	var genCol string
	var genVal value.Value
	haveGen := false

	for i, col := range cols {
		lit, wasGiven := given[i]
		switch {
		case wasGiven:
			v, err := coerceForColumn(lit, col)
			if err != nil {
				return errResult(err)
			}
			if v.IsNull() && col.NotNull() {
				return errResult(bsqlerr.NewNullViolation(col.Name))
			}
			row[i] = v
			if col.AutoIncrement() && !v.IsNull() {
				genCol, genVal, haveGen = col.Name, v, true
			}
		case col.AutoIncrement():
			next, err := tbl.NextAuto()
			if err != nil {
				return errResult(err)
			}
			v := value.Integer64(next)
			if col.Type == codec.TypeInteger {
				v = value.Integer32(int32(next))
			}
			row[i] = v
			genCol, genVal, haveGen = col.Name, v, true
		case col.NotNull():
			return errResult(bsqlerr.NewNullViolation(col.Name))
		default:
			row[i] = value.Null
		}
	}

	if pkIdx, ok := findPrimaryKey(cols); ok && !row[pkIdx].IsNull() {
		for _, existing := range tbl.Scan() {
			if value.Equals(existing.Values[pkIdx], row[pkIdx]) {
				return errResult(bsqlerr.NewDuplicatePrimaryKey(fmt.Sprintf("%s=%s", cols[pkIdx].Name, row[pkIdx].String())))
			}
		}
	}

	if haveGen {
		if n, isInt := asInt64(genVal); isInt {
			if err := tbl.ObserveAutoValue(n); err != nil {
				return errResult(err)
			}
		}
	}

	if _, err := tbl.Insert(row); err != nil {
		return errResult(err)
	}
	e.logMutation(sess, s.Table, "insert", 1)

	res := mutationResult(1)
	if haveGen {
		res.GeneratedColumn = genCol
		v := genVal
		res.GeneratedID = &v
	}
	return res
}

func findPrimaryKey(cols []codec.Column) (int, bool) {
	for i, c := range cols {
		if c.PrimaryKey() {
			return i, true
		}
	}
	return 0, false
}

func findAutoIncrement(cols []codec.Column) (int, bool) {
	for i, c := range cols {
		if c.AutoIncrement() {
			return i, true
		}
	}
	return 0, false
}

func asInt64(v value.Value) (int64, bool) {
	switch v.Kind {
	case value.KindInteger32:
		return int64(v.I32), true
	case value.KindInteger64:
		return v.I64, true
	default:
		return 0, false
	}
}

// coerceForColumn converts a parsed literal to a Value matching col's
// declared type (spec.md §4.4): INTEGER accepts only integer literals
// that fit int32, LONG accepts any integer literal, REAL accepts integer
// or decimal literals, TEXT accepts only string literals. Anything else
// is TypeMismatch.
func coerceForColumn(lit ast.Literal, col codec.Column) (value.Value, error) {
	if lit.Kind == ast.LiteralNull {
		return value.Null, nil
	}
	switch col.Type {
	case codec.TypeInteger:
		if lit.Kind != ast.LiteralInt {
			return value.Value{}, bsqlerr.NewTypeMismatch(fmt.Sprintf("column %q is INTEGER", col.Name))
		}
		if lit.Int < math.MinInt32 || lit.Int > math.MaxInt32 {
			return value.Value{}, bsqlerr.NewTypeMismatch(fmt.Sprintf("value %d does not fit column %q", lit.Int, col.Name))
		}
		return value.Integer32(int32(lit.Int)), nil
	case codec.TypeLong:
		if lit.Kind != ast.LiteralInt {
			return value.Value{}, bsqlerr.NewTypeMismatch(fmt.Sprintf("column %q is LONG", col.Name))
		}
		return value.Integer64(lit.Int), nil
	case codec.TypeReal:
		switch lit.Kind {
		case ast.LiteralInt:
			return value.Real(float64(lit.Int)), nil
		case ast.LiteralDecimal:
			return value.Real(lit.Dec), nil
		default:
			return value.Value{}, bsqlerr.NewTypeMismatch(fmt.Sprintf("column %q is REAL", col.Name))
		}
	case codec.TypeText:
		if lit.Kind != ast.LiteralString {
			return value.Value{}, bsqlerr.NewTypeMismatch(fmt.Sprintf("column %q is TEXT", col.Name))
		}
		return value.Text(lit.Str), nil
	default:
		return value.Value{}, bsqlerr.NewTypeMismatch(fmt.Sprintf("unknown declared type for column %q", col.Name))
	}
}

// literalToValue converts a literal outside any column's declared type —
// i.e. the right-hand side of a WHERE comparison — per spec.md §4.3's
// plain literal rule: an integer literal is Integer32 if it fits, else
// Integer64; value.Compare handles promoting across numeric kinds.
func literalToValue(lit ast.Literal) value.Value {
	switch lit.Kind {
	case ast.LiteralNull:
		return value.Null
	case ast.LiteralInt:
		if lit.Int >= math.MinInt32 && lit.Int <= math.MaxInt32 {
			return value.Integer32(int32(lit.Int))
		}
		return value.Integer64(lit.Int)
	case ast.LiteralDecimal:
		return value.Real(lit.Dec)
	case ast.LiteralString:
		return value.Text(lit.Str)
	default:
		return value.Null
	}
}

// --- SELECT ---

func (e *Engine) execSelect(sess *Session, s *ast.Select) SqlResult {
	tbl, err := e.cat.Table(sess.Database, s.Table)
	if err != nil {
		return errResult(err)
	}
	cols := tbl.Columns()

	var projIdx []int
	var outCols []string
	if s.Columns == nil {
		for i, c := range cols {
			projIdx = append(projIdx, i)
			outCols = append(outCols, c.Name)
		}
	} else {
		for _, name := range s.Columns {
			idx, ok := columnIndex(cols, name)
			if !ok {
				return errResult(bsqlerr.NewUnknownColumn(name))
			}
			projIdx = append(projIdx, idx)
			outCols = append(outCols, cols[idx].Name)
		}
	}

	rows := tbl.Scan()
	matched := make([][]value.Value, 0, len(rows))
	for _, r := range rows {
		if s.Where == nil {
			matched = append(matched, r.Values)
			continue
		}
		outcome, err := evalExpr(s.Where, r.Values, cols)
		if err != nil {
			return errResult(err)
		}
		if outcome.Pass() {
			matched = append(matched, r.Values)
		}
	}

	if s.HasOrder {
		orderIdx, ok := columnIndex(cols, s.OrderBy)
		if !ok {
			return errResult(bsqlerr.NewUnknownColumn(s.OrderBy))
		}
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := matched[i][orderIdx], matched[j][orderIdx]
			if a.IsNull() && b.IsNull() {
				return false
			}
			if a.IsNull() {
				return false // nulls sort last regardless of direction
			}
			if b.IsNull() {
				return true
			}
			order, ok := value.Compare(a, b)
			if !ok {
				return false
			}
			if s.OrderDir == ast.Descending {
				return order == value.Greater
			}
			return order == value.Less
		})
	}

	if s.HasLimit && s.Limit < len(matched) {
		matched = matched[:s.Limit]
	}

	outRows := make([][]value.Value, len(matched))
	for i, r := range matched {
		row := make([]value.Value, len(projIdx))
		for j, idx := range projIdx {
			row[j] = r[idx]
		}
		outRows[i] = row
	}

	return SqlResult{Kind: ResultRows, Columns: outCols, Rows: outRows}
}

// evalExpr evaluates a predicate against one row's values in schema
// order, short-circuiting AND/OR left-to-right (spec.md §4.4).
func evalExpr(expr ast.Expr, row []value.Value, cols []codec.Column) (Tri, error) {
	switch n := expr.(type) {
	case *ast.BinaryExpr:
		idx, ok := columnIndex(cols, n.Column)
		if !ok {
			return TriUnknown, bsqlerr.NewUnknownColumn(n.Column)
		}
		return compareTri(n.Op, row[idx], literalToValue(n.Value)), nil
	case *ast.LogicalExpr:
		left, err := evalExpr(n.Left, row, cols)
		if err != nil {
			return TriUnknown, err
		}
		if n.Op == ast.LogicalAnd && left == TriFalse {
			return TriFalse, nil
		}
		if n.Op == ast.LogicalOr && left == TriTrue {
			return TriTrue, nil
		}
		right, err := evalExpr(n.Right, row, cols)
		if err != nil {
			return TriUnknown, err
		}
		if n.Op == ast.LogicalAnd {
			return left.And(right), nil
		}
		return left.Or(right), nil
	default:
		return TriUnknown, fmt.Errorf("engine: unhandled predicate node %T", expr)
	}
}

func compareTri(op ast.CompareOp, a, b value.Value) Tri {
	if op == ast.OpLike {
		if a.Kind != value.KindText || b.Kind != value.KindText {
			return TriUnknown
		}
		if likeMatch(a.S, b.S) {
			return TriTrue
		}
		return TriFalse
	}
	order, ok := value.Compare(a, b)
	if !ok {
		return TriUnknown
	}
	var hit bool
	switch op {
	case ast.OpEq:
		hit = order == value.Equal
	case ast.OpNotEq:
		hit = order != value.Equal
	case ast.OpLt:
		hit = order == value.Less
	case ast.OpLtEq:
		hit = order == value.Less || order == value.Equal
	case ast.OpGt:
		hit = order == value.Greater
	case ast.OpGtEq:
		hit = order == value.Greater || order == value.Equal
	}
	if hit {
		return TriTrue
	}
	return TriFalse
}

// --- UPDATE ---

func (e *Engine) execUpdate(sess *Session, s *ast.Update) SqlResult {
	tbl, err := e.cat.Table(sess.Database, s.Table)
	if err != nil {
		return errResult(err)
	}
	cols := tbl.Columns()

	type assignment struct {
		idx int
		val value.Value
	}
	assigns := make([]assignment, 0, len(s.Assignments))
	for _, a := range s.Assignments {
		idx, ok := columnIndex(cols, a.Column)
		if !ok {
			return errResult(bsqlerr.NewUnknownColumn(a.Column))
		}
		v, err := coerceForColumn(a.Value, cols[idx])
		if err != nil {
			return errResult(err)
		}
		if v.IsNull() && cols[idx].NotNull() {
			return errResult(bsqlerr.NewNullViolation(cols[idx].Name))
		}
		assigns = append(assigns, assignment{idx: idx, val: v})
	}

	rows := tbl.Scan()
	type pending struct {
		rowID  int64
		newRow []value.Value
	}
	var updates []pending
	finalRows := make(map[int64][]value.Value, len(rows))
	for _, r := range rows {
		finalRows[r.RowID] = r.Values
	}

	for _, r := range rows {
		if s.Where != nil {
			outcome, err := evalExpr(s.Where, r.Values, cols)
			if err != nil {
				return errResult(err)
			}
			if !outcome.Pass() {
				continue
			}
		}
		newRow := append([]value.Value(nil), r.Values...)
		for _, a := range assigns {
			newRow[a.idx] = a.val
		}
		updates = append(updates, pending{rowID: r.RowID, newRow: newRow})
		finalRows[r.RowID] = newRow
	}

	if pkIdx, ok := findPrimaryKey(cols); ok {
		seen := make(map[string]bool, len(finalRows))
		for _, row := range finalRows {
			pk := row[pkIdx]
			if pk.IsNull() {
				continue
			}
			key := pk.String() + "|" + pk.Kind.String()
			if seen[key] {
				return errResult(bsqlerr.NewDuplicatePrimaryKey(fmt.Sprintf("%s=%s", cols[pkIdx].Name, pk.String())))
			}
			seen[key] = true
		}
	}

	if autoIdx, ok := findAutoIncrement(cols); ok {
		for _, u := range updates {
			if n, isInt := asInt64(u.newRow[autoIdx]); isInt {
				if err := tbl.ObserveAutoValue(n); err != nil {
					return errResult(err)
				}
			}
		}
	}

	for _, u := range updates {
		if err := tbl.Update(u.rowID, u.newRow); err != nil {
			return errResult(err)
		}
	}
	e.logMutation(sess, s.Table, "update", len(updates))

	return mutationResult(len(updates))
}

// --- DELETE ---

func (e *Engine) execDelete(sess *Session, s *ast.Delete) SqlResult {
	tbl, err := e.cat.Table(sess.Database, s.Table)
	if err != nil {
		return errResult(err)
	}
	cols := tbl.Columns()

	rows := tbl.Scan()
	n := 0
	for _, r := range rows {
		if s.Where != nil {
			outcome, err := evalExpr(s.Where, r.Values, cols)
			if err != nil {
				return errResult(err)
			}
			if !outcome.Pass() {
				continue
			}
		}
		if err := tbl.Delete(r.RowID); err != nil {
			return errResult(err)
		}
		n++
	}
	e.logMutation(sess, s.Table, "delete", n)
	return mutationResult(n)
}

// --- SHOW / USE ---

func (e *Engine) execShowTables(sess *Session) SqlResult {
	names, err := e.cat.ListTables(sess.Database)
	if err != nil {
		return errResult(err)
	}
	sort.Strings(names)
	return SqlResult{Kind: ResultNames, NamesLabel: "Tables", Names: names}
}

func (e *Engine) execShowDatabases() SqlResult {
	names := e.cat.ListDatabases()
	sort.Strings(names)
	return SqlResult{Kind: ResultNames, NamesLabel: "Databases", Names: names}
}

func (e *Engine) execUse(sess *Session, s *ast.Use) SqlResult {
	cased, err := e.cat.UseDatabase(s.Database)
	if err != nil {
		return errResult(err)
	}
	sess.Database = cased
	return SqlResult{Kind: ResultUse}
}
