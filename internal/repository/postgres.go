package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lis186/smart-tra-mcp-server-sub000/internal/schedule"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/station"
)

// PostgresStore is the pgx-backed variant of the data supply, for
// deployments sharing one central database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and verifies connectivity.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Ping tests connectivity, for health checks.
func (r *PostgresStore) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases the pool.
func (r *PostgresStore) Close() {
	r.pool.Close()
}

// GetAllStations bulk-loads the station directory.
func (r *PostgresStore) GetAllStations(ctx context.Context) ([]station.Record, error) {
	const query = `
		SELECT station_id, name_zh, name_en, address, lat, lon
		FROM stations
		ORDER BY station_id
	`
	rows, err := r.pool.Query(ctx, query)
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

// GetTimetable returns per-train stop rows for trains serving both
// endpoints in travel order on the given date.
func (r *PostgresStore) GetTimetable(ctx context.Context, originID, destID, date string) ([]schedule.TrainTimetable, error) {
	const query = `
		SELECT t.train_no, t.train_type, t.station_id, t.arrival_time, t.departure_time, t.stop_sequence
		FROM timetable_stops t
		WHERE t.service_date = $1
		  AND t.station_id IN ($2, $3)
		  AND t.train_no IN (
			SELECT a.train_no
			FROM timetable_stops a
			JOIN timetable_stops b
			  ON a.train_no = b.train_no AND a.service_date = b.service_date
			WHERE a.service_date = $1
			  AND a.station_id = $2 AND b.station_id = $3
			  AND a.stop_sequence < b.stop_sequence
		  )
		ORDER BY t.train_no, t.stop_sequence
	`
	rows, err := r.pool.Query(ctx, query, date, originID, destID)
	if err != nil {
		return nil, fmt.Errorf("failed to query timetable: %w", err)
	}
	defer rows.Close()
	return scanTimetable(rows)
}

// GetDelaysByStation returns live delay entries at a station keyed by train
// number.
func (r *PostgresStore) GetDelaysByStation(ctx context.Context, stationID string) (map[string]schedule.LiveStatus, error) {
	const query = `
		SELECT train_no, delay_minutes, status
		FROM live_delays
		WHERE station_id = $1
	`
	rows, err := r.pool.Query(ctx, query, stationID)
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

// GetTrainDelay returns the freshest live entry for a train, or
// ErrNotFound.
func (r *PostgresStore) GetTrainDelay(ctx context.Context, trainNo string) (*schedule.LiveStatus, error) {
	const query = `
		SELECT delay_minutes, status
		FROM live_delays
		WHERE train_no = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var ls schedule.LiveStatus
	var status sql.NullString
	err := r.pool.QueryRow(ctx, query, trainNo).Scan(&ls.DelayMinutes, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query train delay: %w", err)
	}
	ls.Status = status.String
	return &ls, nil
}
