package table

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bsql/internal/codec"
	"bsql/internal/value"
)

func testColumns() []codec.Column {
	return []codec.Column{
		{Name: "id", Type: codec.TypeInteger, Flags: codec.FlagPrimaryKey | codec.FlagNotNull | codec.FlagAutoIncrement},
		{Name: "name", Type: codec.TypeText, Flags: codec.FlagNotNull},
	}
}

func TestInsertScanRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tbl, err := Create(filepath.Join(dir, "t.tbl"), testColumns())
	require.NoError(t, err)
	defer tbl.Close()

	_, err = tbl.Insert([]value.Value{value.Integer32(1), value.Text("a")})
	require.NoError(t, err)
	_, err = tbl.Insert([]value.Value{value.Integer32(2), value.Text("b")})
	require.NoError(t, err)

	rows := tbl.Scan()
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].Values[1].S)
	assert.Equal(t, "b", rows[1].Values[1].S)
}

func TestDeleteIsTombstonedAndInvisible(t *testing.T) {
	dir := t.TempDir()
	tbl, err := Create(filepath.Join(dir, "t.tbl"), testColumns())
	require.NoError(t, err)
	defer tbl.Close()

	id, err := tbl.Insert([]value.Value{value.Integer32(1), value.Text("a")})
	require.NoError(t, err)
	require.NoError(t, tbl.Delete(id))

	assert.Empty(t, tbl.Scan())
	err = tbl.Delete(id)
	assert.Error(t, err)
}

func TestUpdateAppendsNewVersion(t *testing.T) {
	dir := t.TempDir()
	tbl, err := Create(filepath.Join(dir, "t.tbl"), testColumns())
	require.NoError(t, err)
	defer tbl.Close()

	id, err := tbl.Insert([]value.Value{value.Integer32(1), value.Text("a")})
	require.NoError(t, err)
	require.NoError(t, tbl.Update(id, []value.Value{value.Integer32(1), value.Text("z")}))

	rows := tbl.Scan()
	require.Len(t, rows, 1)
	assert.Equal(t, "z", rows[0].Values[1].S)
}

func TestNextAutoMonotone(t *testing.T) {
	dir := t.TempDir()
	tbl, err := Create(filepath.Join(dir, "t.tbl"), testColumns())
	require.NoError(t, err)
	defer tbl.Close()

	a, err := tbl.NextAuto()
	require.NoError(t, err)
	b, err := tbl.NextAuto()
	require.NoError(t, err)
	assert.Equal(t, int64(1), a)
	assert.Equal(t, int64(2), b)
}

func TestReopenPreservesRowsAndCounter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.tbl")
	tbl, err := Create(path, testColumns())
	require.NoError(t, err)
	_, err = tbl.Insert([]value.Value{value.Integer32(1), value.Text("a")})
	require.NoError(t, err)
	_, err = tbl.NextAuto()
	require.NoError(t, err)
	require.NoError(t, tbl.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	rows := reopened.Scan()
	require.Len(t, rows, 1)
	next, err := reopened.NextAuto()
	require.NoError(t, err)
	assert.Equal(t, int64(2), next)
}

func TestOpenTruncatesPartialTrailingRow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.tbl")
	tbl, err := Create(path, testColumns())
	require.NoError(t, err)
	_, err = tbl.Insert([]value.Value{value.Integer32(1), value.Text("a")})
	require.NoError(t, err)
	require.NoError(t, tbl.Close())

	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0o644)
	require.NoError(t, err)
	// A tag byte claiming a payload far longer than what follows.
	_, err = f.Write([]byte{tagLive, 0x00, 0x00, 0x10, 0x00, 'x', 'y'})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	rows := reopened.Scan()
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].Values[1].S)

	// The file should now accept a fresh append at the truncated boundary.
	_, err = reopened.Insert([]value.Value{value.Integer32(2), value.Text("b")})
	require.NoError(t, err)
	assert.Len(t, reopened.Scan(), 2)
}

func TestCompactPreservesOrderAndDropsTombstones(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.tbl")
	tbl, err := Create(path, testColumns())
	require.NoError(t, err)
	defer tbl.Close()

	id1, _ := tbl.Insert([]value.Value{value.Integer32(1), value.Text("a")})
	_, _ = tbl.Insert([]value.Value{value.Integer32(2), value.Text("b")})
	_, _ = tbl.Insert([]value.Value{value.Integer32(3), value.Text("c")})
	require.NoError(t, tbl.Delete(id1))

	require.NoError(t, tbl.Compact())

	rows := tbl.Scan()
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].Values[1].S)
	assert.Equal(t, "c", rows[1].Values[1].S)
}

func TestShouldCompactThreshold(t *testing.T) {
	dir := t.TempDir()
	tbl, err := Create(filepath.Join(dir, "t.tbl"), testColumns())
	require.NoError(t, err)
	defer tbl.Close()

	id1, _ := tbl.Insert([]value.Value{value.Integer32(1), value.Text("a")})
	id2, _ := tbl.Insert([]value.Value{value.Integer32(2), value.Text("b")})
	_, _ = tbl.Insert([]value.Value{value.Integer32(3), value.Text("c")})
	assert.False(t, tbl.ShouldCompact())

	require.NoError(t, tbl.Delete(id1))
	assert.False(t, tbl.ShouldCompact()) // 2 of 3 live: not below half

	require.NoError(t, tbl.Delete(id2))
	assert.True(t, tbl.ShouldCompact()) // 1 of 3 live
}
