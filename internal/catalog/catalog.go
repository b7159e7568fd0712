// Package catalog implements BSQL's database/table namespace (spec.md
// §4.2): a directory per database, a flat catalog.idx file of table names
// for crash-safe discovery, and case-insensitive-but-first-seen-casing
// name resolution. Grounded on internal/parser/toml's Parser/ParseFile
// facade shape (read a format, hand back a typed value), generalized here
// to the filesystem-is-the-format case.
package catalog

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"bsql/internal/bsqlerr"
	"bsql/internal/codec"
	"bsql/internal/table"
)

const indexFileName = "catalog.idx"

// DefaultDatabase is the database name that always exists (spec.md §3).
const DefaultDatabase = "default"

// database tracks one open database directory: its tables and the
// first-seen casing of its own name and its tables' names.
type database struct {
	mu        sync.RWMutex
	name      string // first-seen casing
	dir       string
	tables    map[string]*table.Table // keyed by lowercase name
	tableCase map[string]string       // lowercase -> first-seen casing
}

// Catalog owns every open database under root.
type Catalog struct {
	mu   sync.RWMutex
	root string
	dbs  map[string]*database // keyed by lowercase name
	dbCase map[string]string
}

// Open opens (creating if necessary) the catalog rooted at root, and
// lazily ensures the default database directory exists, per spec.md §4.2.
func Open(root string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Join(root, "databases"), 0o755); err != nil {
		return nil, bsqlerr.NewIOError(err.Error())
	}
	c := &Catalog{
		root:   root,
		dbs:    make(map[string]*database),
		dbCase: make(map[string]string),
	}
	if _, err := c.openOrCreateDatabase(DefaultDatabase); err != nil {
		return nil, err
	}
	return c, nil
}

// Close closes every open table in every open database.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for _, db := range c.dbs {
		db.mu.Lock()
		for _, tbl := range db.tables {
			if err := tbl.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		db.mu.Unlock()
	}
	return firstErr
}

func lower(s string) string { return strings.ToLower(s) }

// openOrCreateDatabase loads an already-open database, or opens one from
// disk, or creates a fresh directory for it (only ever invoked for
// DefaultDatabase at startup; USE never creates one, see UseDatabase).
func (c *Catalog) openOrCreateDatabase(name string) (*database, error) {
	key := lower(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	if db, ok := c.dbs[key]; ok {
		return db, nil
	}
	dir := filepath.Join(c.root, "databases", name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, bsqlerr.NewIOError(err.Error())
	}
	db, err := loadDatabase(name, dir)
	if err != nil {
		return nil, err
	}
	c.dbs[key] = db
	c.dbCase[key] = name
	return db, nil
}

func loadDatabase(name, dir string) (*database, error) {
	db := &database{
		name:      name,
		dir:       dir,
		tables:    make(map[string]*table.Table),
		tableCase: make(map[string]string),
	}
	names, err := readIndex(filepath.Join(dir, indexFileName))
	if err != nil {
		return nil, err
	}
	for _, tblName := range names {
		tbl, err := table.Open(filepath.Join(dir, tblName+".tbl"))
		if err != nil {
			return nil, err
		}
		db.tables[lower(tblName)] = tbl
		db.tableCase[lower(tblName)] = tblName
	}
	return db, nil
}

func readIndex(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, bsqlerr.NewIOError(err.Error())
	}
	defer f.Close()
	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			names = append(names, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, bsqlerr.NewIOError(err.Error())
	}
	return names, nil
}

// writeIndexLocked rewrites catalog.idx atomically (write-tmp, fsync,
// rename), the same crash-safety discipline internal/table uses for
// compaction. Caller holds db.mu (write side).
func writeIndexLocked(db *database) error {
	path := filepath.Join(db.dir, indexFileName)
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return bsqlerr.NewIOError(err.Error())
	}
	for _, casedName := range db.tableCase {
		if _, err := f.WriteString(casedName + "\n"); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return bsqlerr.NewIOError(err.Error())
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return bsqlerr.NewIOError(err.Error())
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return bsqlerr.NewIOError(err.Error())
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return bsqlerr.NewIOError(err.Error())
	}
	return nil
}

// ListDatabases returns every known database name in first-seen casing.
func (c *Catalog) ListDatabases() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.dbCase))
	for _, name := range c.dbCase {
		out = append(out, name)
	}
	return out
}

// UseDatabase validates that name exists (case-insensitively), returning
// an UnknownDatabase error otherwise. It does not create databases other
// than the always-present default, per spec.md §4.2.
func (c *Catalog) UseDatabase(name string) (string, error) {
	key := lower(name)
	c.mu.RLock()
	db, ok := c.dbs[key]
	c.mu.RUnlock()
	if !ok {
		return "", bsqlerr.NewUnknownDatabase(name)
	}
	return db.name, nil
}

func (c *Catalog) database(name string) (*database, error) {
	key := lower(name)
	c.mu.RLock()
	defer c.mu.RUnlock()
	db, ok := c.dbs[key]
	if !ok {
		return nil, bsqlerr.NewUnknownDatabase(name)
	}
	return db, nil
}

// CreateTable creates table `name` with the given columns in database
// `dbName`. Fails with AlreadyExists if a table of that name (any case)
// already exists.
func (c *Catalog) CreateTable(dbName, name string, columns []codec.Column) error {
	db, err := c.database(dbName)
	if err != nil {
		return err
	}
	key := lower(name)
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.tables[key]; ok {
		return bsqlerr.NewAlreadyExists(name)
	}
	tbl, err := table.Create(filepath.Join(db.dir, name+".tbl"), columns)
	if err != nil {
		return err
	}
	db.tables[key] = tbl
	db.tableCase[key] = name
	if err := writeIndexLocked(db); err != nil {
		return err
	}
	return nil
}

// DropTable removes table `name` from database `dbName`, closing and
// deleting its file.
func (c *Catalog) DropTable(dbName, name string) error {
	db, err := c.database(dbName)
	if err != nil {
		return err
	}
	key := lower(name)
	db.mu.Lock()
	defer db.mu.Unlock()
	tbl, ok := db.tables[key]
	if !ok {
		return bsqlerr.NewUnknownTable(name)
	}
	casedName := db.tableCase[key]
	if err := tbl.Close(); err != nil {
		return err
	}
	delete(db.tables, key)
	delete(db.tableCase, key)
	if err := writeIndexLocked(db); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(db.dir, casedName+".tbl")); err != nil && !os.IsNotExist(err) {
		return bsqlerr.NewIOError(err.Error())
	}
	return nil
}

// ListTables returns every table name (first-seen casing) in dbName.
func (c *Catalog) ListTables(dbName string) ([]string, error) {
	db, err := c.database(dbName)
	if err != nil {
		return nil, err
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]string, 0, len(db.tableCase))
	for _, name := range db.tableCase {
		out = append(out, name)
	}
	return out, nil
}

// Table resolves (dbName, name) to an open table handle, case-insensitively.
func (c *Catalog) Table(dbName, name string) (*table.Table, error) {
	db, err := c.database(dbName)
	if err != nil {
		return nil, err
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	tbl, ok := db.tables[lower(name)]
	if !ok {
		return nil, bsqlerr.NewUnknownTable(name)
	}
	return tbl, nil
}

// TableCasedName returns the first-seen casing of name within dbName.
func (c *Catalog) TableCasedName(dbName, name string) (string, error) {
	db, err := c.database(dbName)
	if err != nil {
		return "", err
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	cased, ok := db.tableCase[lower(name)]
	if !ok {
		return "", bsqlerr.NewUnknownTable(name)
	}
	return cased, nil
}
