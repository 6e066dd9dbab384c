package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ginjaninja78/registration-report/internal/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps records in a local SQLite database. Each record is stored
// as a JSON object so arbitrary header spellings survive; row ids preserve
// insertion order.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path and ensures the
// records table exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open record db: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS records (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		data       TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create records table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Fetch returns all records in insertion order.
func (s *SQLiteStore) Fetch(ctx context.Context) ([]types.RawRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, data FROM records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := []types.RawRecord{}
	for rows.Next() {
		var (
			id   int64
			data string
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var rec types.RawRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil || rec == nil {
			return nil, fmt.Errorf("%w: record %d is not a JSON object", types.ErrMalformedInput, id)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Append inserts one record.
func (s *SQLiteStore) Append(ctx context.Context, rec types.RawRecord) error {
	if rec == nil {
		rec = types.RawRecord{}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO records (data, created_at) VALUES (?, ?)`,
		string(data), time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}
