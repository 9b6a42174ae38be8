package reports

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/google/uuid"

	"github.com/fernway/transit/errors"
	"github.com/fernway/transit/model"
)

// SQLiteStore is a database/sql-backed Store, trimmed to the single
// table this domain needs.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) a sqlite database at
// path and ensures its schema exists. Pass ":memory:" for an ephemeral
// store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS crowd_reports (
    id TEXT PRIMARY KEY,
    timestamp INTEGER NOT NULL,
    stop_id TEXT NOT NULL,
    line_id TEXT NOT NULL,
    arrival_seconds INTEGER NOT NULL,
    mode TEXT NOT NULL,
    has_coords INTEGER NOT NULL,
    lat REAL NOT NULL,
    lng REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS crowd_reports_stop_ts ON crowd_reports (stop_id, timestamp);
`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating crowd_reports table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, report model.CrowdReport) error {
	if report.ArrivalSeconds < 0 {
		return errors.InvalidInputf("arrival_seconds must be non-negative, got %d", report.ArrivalSeconds)
	}
	if report.ID == "" {
		report.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO crowd_reports (id, timestamp, stop_id, line_id, arrival_seconds, mode, has_coords, lat, lng)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.Timestamp, report.StopID, report.LineID, report.ArrivalSeconds,
		string(report.Mode), report.HasCoords, report.Lat, report.Lng,
	)
	if err != nil {
		return fmt.Errorf("inserting crowd report: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Query(ctx context.Context, stopID, lineID string, since int64) ([]model.CrowdReport, error) {
	query := `SELECT id, timestamp, stop_id, line_id, arrival_seconds, mode, has_coords, lat, lng
FROM crowd_reports WHERE stop_id = ? AND timestamp >= ?`
	args := []interface{}{stopID, since}
	if lineID != "" {
		query += " AND line_id = ?"
		args = append(args, lineID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying crowd reports: %w", err)
	}
	defer rows.Close()

	out := []model.CrowdReport{}
	for rows.Next() {
		var r model.CrowdReport
		var mode string
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.StopID, &r.LineID, &r.ArrivalSeconds, &mode, &r.HasCoords, &r.Lat, &r.Lng); err != nil {
			return nil, fmt.Errorf("scanning crowd report: %w", err)
		}
		r.Mode = model.ReportMode(mode)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating crowd reports: %w", err)
	}

	return out, nil
}
