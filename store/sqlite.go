package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/theoremus-urban-solutions/gtfs-io/csvio"
	"github.com/theoremus-urban-solutions/gtfs-io/gtfs"
	"github.com/theoremus-urban-solutions/gtfs-io/schema"
	"github.com/theoremus-urban-solutions/gtfs-io/stream"
)

// ErrUnknownImport is returned when a run ID has no imports row.
var ErrUnknownImport = errors.New("unknown import")

// DB wraps the SQLite database holding exported feeds.
type DB struct {
	conn *sql.DB
}

// ImportResult summarizes one Export call.
type ImportResult struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Counts     map[schema.TableName]int
}

// Open opens (or creates) the SQLite file at path and creates one table per
// GTFS table plus the imports log.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS imports (
			run_id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			finished_at DATETIME,
			row_count INTEGER NOT NULL DEFAULT 0
		)`,
	}
	for _, t := range schema.All() {
		stmts = append(stmts, createTable(t),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_run ON %s(run_id)`, t.Name, tableName(t)))
	}
	for _, s := range stmts {
		if _, err := db.conn.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func tableName(t schema.Table) string { return "gtfs_" + string(t.Name) }

func sqlType(c schema.ColumnType) string {
	switch c {
	case schema.TypeInt, schema.TypeIntOrEmpty:
		return "INTEGER"
	case schema.TypeFloat:
		return "REAL"
	}
	return "TEXT"
}

func createTable(t schema.Table) string {
	cols := []string{"run_id TEXT NOT NULL", "seq INTEGER NOT NULL"}
	for _, c := range t.Columns {
		cols = append(cols, fmt.Sprintf("%q %s", c.Name, sqlType(c.Type)))
	}
	cols = append(cols, "PRIMARY KEY (run_id, seq)")
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", tableName(t), strings.Join(cols, ",\n\t"))
}

// Export streams every table of feed into the database under a fresh run ID.
// Each table is written in its own transaction; a failing table is rolled back
// and reported as a *gtfs.TableError while the other tables are still written.
// Absent and blank numeric cells become NULL.
func (db *DB) Export(ctx context.Context, feed *gtfs.LazyFeed) (ImportResult, error) {
	res := ImportResult{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Counts:    make(map[schema.TableName]int),
	}
	if _, err := db.conn.ExecContext(ctx,
		`INSERT INTO imports (run_id, started_at) VALUES (?, ?)`, res.RunID, res.StartedAt); err != nil {
		return res, fmt.Errorf("record import: %w", err)
	}

	var errs []error
	total := 0
	for e := range feed.Tables() {
		n, err := db.exportTable(ctx, res.RunID, e.Table, e.Records)
		if err != nil {
			log.Printf("export of %s failed: %v", e.Name, err)
			errs = append(errs, &gtfs.TableError{Table: e.Name, Err: err})
			continue
		}
		res.Counts[e.Name] = n
		total += n
	}

	res.FinishedAt = time.Now().UTC()
	if _, err := db.conn.ExecContext(ctx,
		`UPDATE imports SET finished_at = ?, row_count = ? WHERE run_id = ?`,
		res.FinishedAt, total, res.RunID); err != nil {
		errs = append(errs, fmt.Errorf("finish import: %w", err))
	}
	log.Printf("import %s wrote %d rows", res.RunID, total)
	return res, errors.Join(errs...)
}

func (db *DB) exportTable(ctx context.Context, runID string, t schema.Table, records *stream.Stream[csvio.Record]) (n int, err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	names := []string{"run_id", "seq"}
	marks := []string{"?", "?"}
	for _, c := range t.Columns {
		names = append(names, fmt.Sprintf("%q", c.Name))
		marks = append(marks, "?")
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tableName(t), strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	args := make([]any, len(names))
	for rec, rerr := range records.All() {
		if rerr != nil {
			return 0, rerr
		}
		args[0], args[1] = runID, n
		for i, c := range t.Columns {
			args[i+2] = sqlValue(rec, c)
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return 0, err
		}
		n++
	}
	return n, tx.Commit()
}

func sqlValue(rec csvio.Record, c schema.Column) any {
	v, ok := rec[c.Name]
	if !ok {
		return nil
	}
	switch v.Kind() {
	case csvio.KindString:
		return v.Str()
	case csvio.KindInt:
		i, _ := v.Int64()
		return i
	case csvio.KindFloat:
		f, _ := v.Float64()
		return f
	}
	return nil
}

// Records reads back one table of an import in insertion order. NULL in an
// int-or-empty column reads as csvio.Empty, in any other column as absent.
func (db *DB) Records(ctx context.Context, runID string, name schema.TableName) ([]csvio.Record, error) {
	t, err := schema.Lookup(name)
	if err != nil {
		return nil, err
	}
	var exists int
	err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM imports WHERE run_id = ?`, runID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownImport, runID)
	}

	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = fmt.Sprintf("%q", c.Name)
	}
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s WHERE run_id = ? ORDER BY seq",
		strings.Join(cols, ", "), tableName(t)), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []csvio.Record{}
	cells := make([]any, len(t.Columns))
	ptrs := make([]any, len(t.Columns))
	for i := range cells {
		ptrs[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(csvio.Record, len(t.Columns))
		for i, c := range t.Columns {
			if v, ok := recordValue(c.Type, cells[i]); ok {
				rec[c.Name] = v
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func recordValue(typ schema.ColumnType, cell any) (csvio.Value, bool) {
	switch x := cell.(type) {
	case nil:
		if typ == schema.TypeIntOrEmpty {
			return csvio.Empty(), true
		}
		return csvio.Value{}, false
	case int64:
		if typ == schema.TypeFloat {
			return csvio.Float(float64(x)), true
		}
		if typ == schema.TypeString {
			return csvio.String(fmt.Sprint(x)), true
		}
		return csvio.Int(x), true
	case float64:
		if typ == schema.TypeInt || typ == schema.TypeIntOrEmpty {
			return csvio.Int(int64(x)), true
		}
		return csvio.Float(x), true
	case string:
		return csvio.String(x), true
	case []byte:
		return csvio.String(string(x)), true
	}
	return csvio.Value{}, false
}

// Feed reads back every table of an import. Tables with no rows in the
// import are left out unless they are required.
func (db *DB) Feed(ctx context.Context, runID string) (*gtfs.LoadedFeed, error) {
	feed := gtfs.NewLoadedFeed()
	for _, t := range schema.All() {
		records, err := db.Records(ctx, runID, t.Name)
		if err != nil {
			return nil, &gtfs.TableError{Table: t.Name, Err: err}
		}
		if len(records) == 0 && !t.Required() {
			continue
		}
		if err := feed.SetTable(t.Name, records); err != nil {
			return nil, err
		}
	}
	return feed, nil
}

// Imports lists recorded imports, newest first.
func (db *DB) Imports(ctx context.Context) ([]ImportResult, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT run_id, started_at, finished_at FROM imports ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ImportResult
	for rows.Next() {
		var r ImportResult
		var finished sql.NullTime
		if err := rows.Scan(&r.RunID, &r.StartedAt, &finished); err != nil {
			return nil, err
		}
		r.FinishedAt = finished.Time
		out = append(out, r)
	}
	return out, rows.Err()
}
