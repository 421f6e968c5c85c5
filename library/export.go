package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// SQLite snapshot
// ---------------------------------------------------------------------------

const snapshotSchemaVersion = 1

// Snapshot is a SQLite copy of a library document, used for reporting with
// ordinary SQL tools. The JSON file stays the source of truth.
type Snapshot struct {
	db *sql.DB

	insertBookStmt     *sql.Stmt
	insertCardStmt     *sql.Stmt
	insertBorrowerStmt *sql.Stmt
}

// OpenSnapshot opens (or creates) the SQLite database at dbPath and applies
// the schema.
func OpenSnapshot(dbPath string) (*Snapshot, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := applySnapshotSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Snapshot{db: db}
	if err := s.prepareStatements(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases prepared statements and closes the DB.
func (s *Snapshot) Close() error {
	for _, stmt := range []*sql.Stmt{s.insertBookStmt, s.insertCardStmt, s.insertBorrowerStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return s.db.Close()
}

func applySnapshotSchema(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value INTEGER);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= snapshotSchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            book_id INTEGER PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            genre TEXT NOT NULL,
            copies INTEGER NOT NULL CHECK (copies >= 0)
        );`,
		`CREATE TABLE IF NOT EXISTS library_cards (
            card_no INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            branch TEXT NOT NULL,
            subscription INTEGER NOT NULL,
            issue_date TEXT NOT NULL
        );`,
		// No foreign keys: the JSON document does not enforce them either.
		`CREATE TABLE IF NOT EXISTS borrowers (
            borrower_id INTEGER PRIMARY KEY,
            card_no INTEGER NOT NULL,
            name TEXT NOT NULL,
            address TEXT NOT NULL,
            phone TEXT NOT NULL,
            book_id INTEGER NOT NULL,
            book_title TEXT NOT NULL,
            issued_date TEXT NOT NULL,
            return_date TEXT NOT NULL
        );`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, snapshotSchemaVersion); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return tx.Commit()
}

func (s *Snapshot) prepareStatements() error {
	var err error
	if s.insertBookStmt, err = s.db.Prepare(`INSERT INTO books(book_id,title,author,genre,copies) VALUES(?,?,?,?,?)`); err != nil {
		return err
	}
	if s.insertCardStmt, err = s.db.Prepare(`INSERT INTO library_cards(card_no,name,branch,subscription,issue_date) VALUES(?,?,?,?,?)`); err != nil {
		return err
	}
	if s.insertBorrowerStmt, err = s.db.Prepare(`INSERT INTO borrowers(borrower_id,card_no,name,address,phone,book_id,book_title,issued_date,return_date) VALUES(?,?,?,?,?,?,?,?,?)`); err != nil {
		return err
	}
	return nil
}

// Write replaces the snapshot contents with d in one transaction.
func (s *Snapshot) Write(ctx context.Context, d *Data) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"borrowers", "library_cards", "books"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, b := range d.Books {
		if _, err := tx.StmtContext(ctx, s.insertBookStmt).ExecContext(ctx, b.ID, b.Title, b.Author, b.Genre, b.Copies); err != nil {
			return fmt.Errorf("insert book %d: %w", b.ID, err)
		}
	}
	for _, c := range d.LibraryCards {
		if _, err := tx.StmtContext(ctx, s.insertCardStmt).ExecContext(ctx, c.CardNo, c.Name, c.Branch, c.Subscription, c.IssueDate.String()); err != nil {
			return fmt.Errorf("insert card %d: %w", c.CardNo, err)
		}
	}
	for _, br := range d.Borrowers {
		if _, err := tx.StmtContext(ctx, s.insertBorrowerStmt).ExecContext(ctx,
			br.BorrowerID, br.CardNo, br.Name, br.Address, br.Phone,
			br.BookID, br.BookTitle, br.IssuedDate.String(), br.ReturnDate.String()); err != nil {
			return fmt.Errorf("insert borrower %d: %w", br.BorrowerID, err)
		}
	}

	counters := map[Counter]int{
		CounterBook:     d.NextBookID,
		CounterCard:     d.NextCardNo,
		CounterBorrower: d.NextBorrowerID,
	}
	for k, v := range counters {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta(key,value) VALUES(?,?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, string(k), v); err != nil {
			return fmt.Errorf("store counter %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// Counter reads a counter stored by Write.
func (s *Snapshot) Counter(ctx context.Context, c Counter) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key=?`, string(c)).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// Count returns the number of rows in one of the snapshot tables.
func (s *Snapshot) Count(ctx context.Context, table string) (int, error) {
	switch table {
	case "books", "library_cards", "borrowers":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ExportSQLite writes d to a SQLite database at dbPath.
func ExportSQLite(ctx context.Context, dbPath string, d *Data) error {
	s, err := OpenSnapshot(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Write(ctx, d)
}

// ---------------------------------------------------------------------------
// YAML
// ---------------------------------------------------------------------------

// MarshalYAML encodes a document as YAML with the data file's key names.
func MarshalYAML(d *Data) ([]byte, error) {
	out, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return out, nil
}

// ExportYAML writes d as YAML to path.
func ExportYAML(path string, d *Data) error {
	out, err := MarshalYAML(d)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Clean(path), out, 0o644); err != nil {
		return fmt.Errorf("write yaml: %w", err)
	}
	return nil
}
