package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bsql/internal/bsqlerr"
	"bsql/internal/codec"
	"bsql/internal/sql/ast"
)

func TestParseCreateTable(t *testing.T) {
	stmt, err := Parse("CREATE TABLE users (id INTEGER PRIMARY KEY AUTO_INCREMENT, name TEXT NOT NULL)")
	require.NoError(t, err)
	ct, ok := stmt.(*ast.CreateTable)
	require.True(t, ok)
	assert.Equal(t, "users", ct.Table)
	require.Len(t, ct.Columns, 2)
	assert.Equal(t, "id", ct.Columns[0].Name)
	assert.Equal(t, codec.TypeInteger, ct.Columns[0].Type)
	assert.True(t, ct.Columns[0].Flags.PrimaryKey())
	assert.True(t, ct.Columns[0].Flags.AutoIncrement())
	assert.True(t, ct.Columns[1].Flags.NotNull())
}

func TestParseInsertWithExplicitColumns(t *testing.T) {
	stmt, err := Parse("INSERT INTO users (name, age) VALUES ('ada', 36)")
	require.NoError(t, err)
	ins, ok := stmt.(*ast.Insert)
	require.True(t, ok)
	assert.Equal(t, []string{"name", "age"}, ins.Columns)
	require.Len(t, ins.Values, 2)
	assert.Equal(t, ast.LiteralString, ins.Values[0].Kind)
	assert.Equal(t, "ada", ins.Values[0].Str)
	assert.Equal(t, ast.LiteralInt, ins.Values[1].Kind)
	assert.Equal(t, int64(36), ins.Values[1].Int)
}

func TestParseInsertNegativeNumber(t *testing.T) {
	stmt, err := Parse("INSERT INTO t VALUES (-5, -1.5)")
	require.NoError(t, err)
	ins := stmt.(*ast.Insert)
	assert.Equal(t, int64(-5), ins.Values[0].Int)
	assert.Equal(t, -1.5, ins.Values[1].Dec)
}

func TestParseSelectStar(t *testing.T) {
	stmt, err := Parse("SELECT * FROM users")
	require.NoError(t, err)
	sel := stmt.(*ast.Select)
	assert.Nil(t, sel.Columns)
	assert.Equal(t, "users", sel.Table)
	assert.Nil(t, sel.Where)
}

func TestParseSelectWithWhereAndOrderLimit(t *testing.T) {
	stmt, err := Parse("SELECT id, name FROM users WHERE age >= 18 AND name LIKE 'a%' ORDER BY id DESC LIMIT 10")
	require.NoError(t, err)
	sel := stmt.(*ast.Select)
	assert.Equal(t, []string{"id", "name"}, sel.Columns)
	require.True(t, sel.HasOrder)
	assert.Equal(t, "id", sel.OrderBy)
	assert.Equal(t, ast.Descending, sel.OrderDir)
	require.True(t, sel.HasLimit)
	assert.Equal(t, 10, sel.Limit)

	logical, ok := sel.Where.(*ast.LogicalExpr)
	require.True(t, ok)
	assert.Equal(t, ast.LogicalAnd, logical.Op)
	right, ok := logical.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpLike, right.Op)
}

func TestParseWhereAndBindsTighterThanOr(t *testing.T) {
	stmt, err := Parse("SELECT * FROM t WHERE a = 1 OR b = 2 AND c = 3")
	require.NoError(t, err)
	sel := stmt.(*ast.Select)
	top, ok := sel.Where.(*ast.LogicalExpr)
	require.True(t, ok)
	assert.Equal(t, ast.LogicalOr, top.Op)
	_, leftIsBinary := top.Left.(*ast.BinaryExpr)
	assert.True(t, leftIsBinary)
	rightAnd, ok := top.Right.(*ast.LogicalExpr)
	require.True(t, ok)
	assert.Equal(t, ast.LogicalAnd, rightAnd.Op)
}

func TestParseUpdate(t *testing.T) {
	stmt, err := Parse("UPDATE users SET name = 'bob', age = 40 WHERE id = 1")
	require.NoError(t, err)
	upd := stmt.(*ast.Update)
	assert.Equal(t, "users", upd.Table)
	require.Len(t, upd.Assignments, 2)
	assert.Equal(t, "name", upd.Assignments[0].Column)
	require.NotNil(t, upd.Where)
}

func TestParseDeleteWithoutWhere(t *testing.T) {
	stmt, err := Parse("DELETE FROM users")
	require.NoError(t, err)
	del := stmt.(*ast.Delete)
	assert.Equal(t, "users", del.Table)
	assert.Nil(t, del.Where)
}

func TestParseShowTablesAndDatabases(t *testing.T) {
	stmt, err := Parse("SHOW TABLES")
	require.NoError(t, err)
	_, ok := stmt.(*ast.ShowTables)
	assert.True(t, ok)

	stmt, err = Parse("SHOW DATABASES")
	require.NoError(t, err)
	_, ok = stmt.(*ast.ShowDatabases)
	assert.True(t, ok)
}

func TestParseUse(t *testing.T) {
	stmt, err := Parse("USE reporting")
	require.NoError(t, err)
	use := stmt.(*ast.Use)
	assert.Equal(t, "reporting", use.Database)
}

func TestParseErrorCarriesOffsetAndExpected(t *testing.T) {
	_, err := Parse("CREATE users (id INTEGER)")
	require.Error(t, err)
	var perr *bsqlerr.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 7, perr.Offset)
	assert.NotEmpty(t, perr.Expected)
}

func TestParseNullLiteralInWhere(t *testing.T) {
	stmt, err := Parse("SELECT * FROM t WHERE x = NULL")
	require.NoError(t, err)
	sel := stmt.(*ast.Select)
	bin := sel.Where.(*ast.BinaryExpr)
	assert.Equal(t, ast.LiteralNull, bin.Value.Kind)
}

func TestParseTrailingSemicolonAccepted(t *testing.T) {
	_, err := Parse("SHOW TABLES;")
	assert.NoError(t, err)
}

func TestParseRejectsTrailingGarbage(t *testing.T) {
	_, err := Parse("SHOW TABLES garbage")
	assert.Error(t, err)
}
