package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bsql/internal/bsqlerr"
	"bsql/internal/catalog"
)

func newTestEngine(t *testing.T) (*Engine, *Session) {
	t.Helper()
	cat, err := catalog.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })
	return New(cat, nil), NewSession(catalog.DefaultDatabase)
}

func TestScenarioOneInsertGeneratedIDAndOrderedSelect(t *testing.T) {
	e, sess := newTestEngine(t)

	res := e.Execute(sess, "CREATE TABLE t (id INTEGER PRIMARY KEY AUTO_INCREMENT, name TEXT NOT NULL)")
	require.Equal(t, ResultMutation, res.Kind)
	assert.Equal(t, 0, res.RowsAffected)

	res = e.Execute(sess, "INSERT INTO t (name) VALUES ('a')")
	require.Equal(t, ResultMutation, res.Kind)
	assert.Equal(t, 1, res.RowsAffected)
	require.NotNil(t, res.GeneratedID)
	assert.Equal(t, "id", res.GeneratedColumn)
	assert.Equal(t, "1", res.GeneratedID.String())

	res = e.Execute(sess, "INSERT INTO t (name) VALUES ('b')")
	assert.Equal(t, "2", res.GeneratedID.String())

	res = e.Execute(sess, "SELECT * FROM t ORDER BY id")
	require.Equal(t, ResultRows, res.Kind)
	assert.Equal(t, []string{"id", "name"}, res.Columns)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "1", res.Rows[0][0].String())
	assert.Equal(t, "a", res.Rows[0][1].String())
	assert.Equal(t, "2", res.Rows[1][0].String())
	assert.Equal(t, "b", res.Rows[1][1].String())
}

func TestScenarioTwoNullViolation(t *testing.T) {
	e, sess := newTestEngine(t)
	e.Execute(sess, "CREATE TABLE t (id INTEGER PRIMARY KEY AUTO_INCREMENT, name TEXT NOT NULL)")

	res := e.Execute(sess, "INSERT INTO t (name) VALUES (NULL)")
	require.Equal(t, ResultError, res.Kind)
	var schemaErr *bsqlerr.SchemaError
	require.ErrorAs(t, res.Err, &schemaErr)
	assert.Equal(t, "NullViolation", schemaErr.Kind)
}

func TestScenarioThreeDuplicatePrimaryKey(t *testing.T) {
	e, sess := newTestEngine(t)
	e.Execute(sess, "CREATE TABLE u (k INTEGER PRIMARY KEY)")

	res := e.Execute(sess, "INSERT INTO u VALUES (5)")
	require.Equal(t, ResultMutation, res.Kind)

	res = e.Execute(sess, "INSERT INTO u VALUES (5)")
	require.Equal(t, ResultError, res.Kind)
	var schemaErr *bsqlerr.SchemaError
	require.ErrorAs(t, res.Err, &schemaErr)
	assert.Equal(t, "DuplicatePrimaryKey", schemaErr.Kind)
}

func TestScenarioFourLikeFilter(t *testing.T) {
	e, sess := newTestEngine(t)
	e.Execute(sess, "CREATE TABLE t (id INTEGER PRIMARY KEY AUTO_INCREMENT, name TEXT NOT NULL)")
	e.Execute(sess, "INSERT INTO t (name) VALUES ('a')")
	e.Execute(sess, "INSERT INTO t (name) VALUES ('b')")
	e.Execute(sess, "INSERT INTO t (name) VALUES ('aa')")

	res := e.Execute(sess, "SELECT name FROM t WHERE name LIKE 'a%' ORDER BY name")
	require.Equal(t, ResultRows, res.Kind)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "a", res.Rows[0][0].String())
	assert.Equal(t, "aa", res.Rows[1][0].String())
}

func TestScenarioFiveUpdateWithComparison(t *testing.T) {
	e, sess := newTestEngine(t)
	e.Execute(sess, "CREATE TABLE t (id INTEGER PRIMARY KEY AUTO_INCREMENT, name TEXT NOT NULL)")
	e.Execute(sess, "INSERT INTO t (name) VALUES ('a')")
	e.Execute(sess, "INSERT INTO t (name) VALUES ('b')")
	e.Execute(sess, "INSERT INTO t (name) VALUES ('c')")

	res := e.Execute(sess, "UPDATE t SET name = 'Z' WHERE id >= 2")
	require.Equal(t, ResultMutation, res.Kind)
	assert.Equal(t, 2, res.RowsAffected)

	res = e.Execute(sess, "SELECT * FROM t ORDER BY id")
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "a", res.Rows[0][1].String())
	assert.Equal(t, "Z", res.Rows[1][1].String())
	assert.Equal(t, "Z", res.Rows[2][1].String())
}

func TestWhereEqualsNullAlwaysUnknown(t *testing.T) {
	e, sess := newTestEngine(t)
	e.Execute(sess, "CREATE TABLE t (id INTEGER PRIMARY KEY AUTO_INCREMENT, name TEXT)")
	e.Execute(sess, "INSERT INTO t (name) VALUES ('a')")
	e.Execute(sess, "INSERT INTO t (name) VALUES (NULL)")

	res := e.Execute(sess, "SELECT * FROM t WHERE name = NULL")
	require.Equal(t, ResultRows, res.Kind)
	assert.Empty(t, res.Rows)
}

func TestDeleteTombstonesAreInvisible(t *testing.T) {
	e, sess := newTestEngine(t)
	e.Execute(sess, "CREATE TABLE t (id INTEGER PRIMARY KEY AUTO_INCREMENT, name TEXT)")
	e.Execute(sess, "INSERT INTO t (name) VALUES ('a')")
	e.Execute(sess, "INSERT INTO t (name) VALUES ('b')")

	res := e.Execute(sess, "DELETE FROM t WHERE name = 'a'")
	require.Equal(t, ResultMutation, res.Kind)
	assert.Equal(t, 1, res.RowsAffected)

	res = e.Execute(sess, "SELECT * FROM t")
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "b", res.Rows[0][1].String())
}

func TestShowTablesAndDatabases(t *testing.T) {
	e, sess := newTestEngine(t)
	e.Execute(sess, "CREATE TABLE b (id INTEGER)")
	e.Execute(sess, "CREATE TABLE a (id INTEGER)")

	res := e.Execute(sess, "SHOW TABLES")
	require.Equal(t, ResultNames, res.Kind)
	assert.Equal(t, "Tables", res.NamesLabel)
	assert.Equal(t, []string{"a", "b"}, res.Names)

	res = e.Execute(sess, "SHOW DATABASES")
	assert.Contains(t, res.Names, catalog.DefaultDatabase)
}

func TestUseUnknownDatabaseLeavesSessionUnchanged(t *testing.T) {
	e, sess := newTestEngine(t)
	res := e.Execute(sess, "USE nope")
	require.Equal(t, ResultError, res.Kind)
	assert.Equal(t, catalog.DefaultDatabase, sess.Database)
}

func TestOrderByNullsLastBothDirections(t *testing.T) {
	e, sess := newTestEngine(t)
	e.Execute(sess, "CREATE TABLE t (id INTEGER PRIMARY KEY AUTO_INCREMENT, score REAL)")
	e.Execute(sess, "INSERT INTO t (score) VALUES (1.0)")
	e.Execute(sess, "INSERT INTO t (score) VALUES (NULL)")
	e.Execute(sess, "INSERT INTO t (score) VALUES (2.0)")

	res := e.Execute(sess, "SELECT id FROM t ORDER BY score ASC")
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "2", res.Rows[2][0].String())

	res = e.Execute(sess, "SELECT id FROM t ORDER BY score DESC")
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "2", res.Rows[2][0].String())
}

func TestLimitAppliedAfterSort(t *testing.T) {
	e, sess := newTestEngine(t)
	e.Execute(sess, "CREATE TABLE t (id INTEGER PRIMARY KEY AUTO_INCREMENT, tag TEXT)")
	e.Execute(sess, "INSERT INTO t (tag) VALUES ('x')")
	e.Execute(sess, "INSERT INTO t (tag) VALUES ('x')")
	e.Execute(sess, "INSERT INTO t (tag) VALUES ('x')")

	res := e.Execute(sess, "SELECT id FROM t ORDER BY id DESC LIMIT 2")
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "3", res.Rows[0][0].String())
	assert.Equal(t, "2", res.Rows[1][0].String())
}
