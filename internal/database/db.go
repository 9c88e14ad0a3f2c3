package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jgoulah/campusscraper/pkg/models"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DB wraps the database connection
type DB struct {
	conn   *sql.DB
	driver string
}

// StoredSnapshot is a parking snapshot as recorded in the database
type StoredSnapshot struct {
	ID          int64
	RunID       string
	TakenAt     time.Time
	RecordCount int
	Records     []models.ParkingRecord
}

// New opens the database and initializes the schema. driver is "sqlite"
// or "postgres".
func New(driver, dsn string) (*DB, error) {
	switch driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (available: sqlite, postgres)", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn, driver: driver}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.driver == "postgres" {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS parking_snapshots (
			id ` + idColumn + `,
			run_id TEXT NOT NULL UNIQUE,
			taken_at TEXT NOT NULL,
			record_count INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS parking_records (
			snapshot_id BIGINT NOT NULL REFERENCES parking_snapshots(id),
			position INTEGER NOT NULL,
			garage TEXT NOT NULL,
			level TEXT NOT NULL,
			permit_type TEXT NOT NULL,
			available_spaces TEXT NOT NULL,
			PRIMARY KEY (snapshot_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_parking_snapshots_taken_at ON parking_snapshots(taken_at)`,
		`CREATE INDEX IF NOT EXISTS idx_parking_records_garage ON parking_records(garage)`,
	}

	for _, stmt := range schema {
		if _, err := db.conn.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// rebind rewrites ? placeholders as $1, $2... for postgres
func (db *DB) rebind(query string) string {
	if db.driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// InsertSnapshot stores a snapshot and its records in one transaction
func (db *DB) InsertSnapshot(runID string, snapshot models.ParkingSnapshot) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := time.Now().UTC().Format(time.RFC3339)

	var id int64
	err = tx.QueryRow(db.rebind(`
	INSERT INTO parking_snapshots (run_id, taken_at, record_count, created_at)
	VALUES (?, ?, ?, ?)
	RETURNING id
	`), runID, snapshot.Timestamp, snapshot.RecordCount, createdAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting snapshot: %w", err)
	}

	stmt, err := tx.Prepare(db.rebind(`
	INSERT INTO parking_records (snapshot_id, position, garage, level, permit_type, available_spaces)
	VALUES (?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return 0, fmt.Errorf("preparing record insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range snapshot.Data {
		if _, err := stmt.Exec(id, i, r.Garage, r.Level, r.PermitType, r.AvailableSpaces); err != nil {
			return 0, fmt.Errorf("inserting record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing snapshot: %w", err)
	}

	return id, nil
}

// ListSnapshots returns the most recent snapshots, newest first. limit <= 0
// returns all of them. When garage is set only that garage's records are
// loaded.
func (db *DB) ListSnapshots(garage string, limit int) ([]StoredSnapshot, error) {
	query := `
	SELECT id, run_id, taken_at, record_count
	FROM parking_snapshots
	ORDER BY taken_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var results []StoredSnapshot
	for rows.Next() {
		var s StoredSnapshot
		var takenAt string

		if err := rows.Scan(&s.ID, &s.RunID, &takenAt, &s.RecordCount); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		s.TakenAt, err = time.ParseInLocation(models.TimestampLayout, takenAt, time.Local)
		if err != nil {
			return nil, fmt.Errorf("parsing taken_at: %w", err)
		}

		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		records, err := db.listRecords(results[i].ID, garage)
		if err != nil {
			return nil, err
		}
		results[i].Records = records
	}

	return results, nil
}

// listRecords returns a snapshot's records in scrape order
func (db *DB) listRecords(snapshotID int64, garage string) ([]models.ParkingRecord, error) {
	query := `
	SELECT garage, level, permit_type, available_spaces
	FROM parking_records
	WHERE snapshot_id = ?
	`
	args := []any{snapshotID}
	if garage != "" {
		query += " AND garage = ?"
		args = append(args, garage)
	}
	query += " ORDER BY position"

	rows, err := db.conn.Query(db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	records := make([]models.ParkingRecord, 0)
	for rows.Next() {
		var r models.ParkingRecord
		if err := rows.Scan(&r.Garage, &r.Level, &r.PermitType, &r.AvailableSpaces); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}
