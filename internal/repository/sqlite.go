// Package repository supplies the externally stored data the query
// pipeline consumes: the station directory, per-date timetable rows and
// live delay entries. Two interchangeable backends exist, embedded SQLite
// and Postgres.
package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lis186/smart-tra-mcp-server-sub000/internal/schedule"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/station"
)

// ErrNotFound marks a lookup that matched nothing, as opposed to a failed
// query.
var ErrNotFound = errors.New("not found")

//go:embed schema.sql
var schemaSQL string

// SQLiteDB wraps a SQL database connection for SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens a SQLite database with WAL mode and a small pool.
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal=WAL&_fk=1&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &SQLiteDB{db: db}, nil
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *SQLiteDB) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// DB returns the underlying connection.
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}

// SQLiteStore implements the station/timetable/delay supply against the
// embedded database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store on an open connection.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Ping tests connectivity, for health checks.
func (r *SQLiteStore) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// GetAllStations bulk-loads the station directory.
func (r *SQLiteStore) GetAllStations(ctx context.Context) ([]station.Record, error) {
	const query = `
		SELECT station_id, name_zh, name_en, address, lat, lon
		FROM stations
		ORDER BY station_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	var records []station.Record
	for rows.Next() {
		var rec station.Record
		var address sql.NullString
		if err := rows.Scan(&rec.ID, &rec.NameZh, &rec.NameEn, &address, &rec.Lat, &rec.Lon); err != nil {
			return nil, fmt.Errorf("failed to scan station: %w", err)
		}
		rec.Address = address.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetTimetable returns the ordered stop rows of every train serving both
// endpoints on the given civil date, origin before destination, grouped per
// train.
func (r *SQLiteStore) GetTimetable(ctx context.Context, originID, destID, date string) ([]schedule.TrainTimetable, error) {
	const query = `
		SELECT t.train_no, t.train_type, t.station_id, t.arrival_time, t.departure_time, t.stop_sequence
		FROM timetable_stops t
		WHERE t.service_date = ?
		  AND t.station_id IN (?, ?)
		  AND t.train_no IN (
			SELECT a.train_no
			FROM timetable_stops a
			JOIN timetable_stops b
			  ON a.train_no = b.train_no AND a.service_date = b.service_date
			WHERE a.service_date = ?
			  AND a.station_id = ? AND b.station_id = ?
			  AND a.stop_sequence < b.stop_sequence
		  )
		ORDER BY t.train_no, t.stop_sequence
	`
	rows, err := r.db.QueryContext(ctx, query, date, originID, destID, date, originID, destID)
	if err != nil {
		return nil, fmt.Errorf("failed to query timetable: %w", err)
	}
	defer rows.Close()
	return scanTimetable(rows)
}

// GetDelaysByStation returns the live delay entries at a station keyed by
// train number. An empty map is a normal answer.
func (r *SQLiteStore) GetDelaysByStation(ctx context.Context, stationID string) (map[string]schedule.LiveStatus, error) {
	const query = `
		SELECT train_no, delay_minutes, status
		FROM live_delays
		WHERE station_id = ?
	`
	rows, err := r.db.QueryContext(ctx, query, stationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query delays: %w", err)
	}
	defer rows.Close()

	delays := make(map[string]schedule.LiveStatus)
	for rows.Next() {
		var trainNo string
		var ls schedule.LiveStatus
		var status sql.NullString
		if err := rows.Scan(&trainNo, &ls.DelayMinutes, &status); err != nil {
			return nil, fmt.Errorf("failed to scan delay: %w", err)
		}
		ls.Status = status.String
		delays[trainNo] = ls
	}
	return delays, rows.Err()
}

// GetTrainDelay returns the freshest live entry for a train across all
// stations, or ErrNotFound.
func (r *SQLiteStore) GetTrainDelay(ctx context.Context, trainNo string) (*schedule.LiveStatus, error) {
	const query = `
		SELECT delay_minutes, status
		FROM live_delays
		WHERE train_no = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var ls schedule.LiveStatus
	var status sql.NullString
	err := r.db.QueryRowContext(ctx, query, trainNo).Scan(&ls.DelayMinutes, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query train delay: %w", err)
	}
	ls.Status = status.String
	return &ls, nil
}

// rowScanner is the subset of sql.Rows / pgx.Rows the grouping code needs.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTimetable(rows rowScanner) ([]schedule.TrainTimetable, error) {
	var trains []schedule.TrainTimetable
	var current *schedule.TrainTimetable
	for rows.Next() {
		var trainNo, trainType, stationID string
		var arr, dep sql.NullString
		var seq int
		if err := rows.Scan(&trainNo, &trainType, &stationID, &arr, &dep, &seq); err != nil {
			return nil, fmt.Errorf("failed to scan timetable row: %w", err)
		}
		if current == nil || current.TrainNo != trainNo {
			trains = append(trains, schedule.TrainTimetable{TrainNo: trainNo, TrainType: trainType})
			current = &trains[len(trains)-1]
		}
		current.Stops = append(current.Stops, schedule.StopTime{
			StationID:     stationID,
			ArrivalTime:   arr.String,
			DepartureTime: dep.String,
			StopSequence:  seq,
		})
	}
	return trains, rows.Err()
}
