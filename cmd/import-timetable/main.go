// Command import-timetable loads a station directory file and per-date
// daily timetable files (TDX JSON shape) into the embedded SQLite store.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/lis186/smart-tra-mcp-server-sub000/internal/clock"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/repository"
)

type stationJSON struct {
	StationID   string `json:"StationID"`
	StationName struct {
		ZhTw string `json:"Zh_tw"`
		En   string `json:"En"`
	} `json:"StationName"`
	StationAddress  string `json:"StationAddress"`
	StationPosition struct {
		PositionLat *float64 `json:"PositionLat"`
		PositionLon *float64 `json:"PositionLon"`
	} `json:"StationPosition"`
}

type timetableJSON struct {
	TrainInfo struct {
		TrainNo       string `json:"TrainNo"`
		TrainTypeName struct {
			ZhTw string `json:"Zh_tw"`
		} `json:"TrainTypeName"`
	} `json:"TrainInfo"`
	StopTimes []struct {
		StopSequence  int    `json:"StopSequence"`
		StationID     string `json:"StationID"`
		ArrivalTime   string `json:"ArrivalTime"`
		DepartureTime string `json:"DepartureTime"`
	} `json:"StopTimes"`
}

func main() {
	_ = godotenv.Load(".env")

	dbPath := flag.String("db", "data/railquery.db", "Path to SQLite database")
	stationsPath := flag.String("stations", "", "Path to stations JSON file")
	timetableDir := flag.String("timetable-dir", "", "Directory of YYYY-MM-DD.json daily timetable files")
	flag.Parse()

	if *stationsPath == "" && *timetableDir == "" {
		log.Fatal("Nothing to do: pass -stations and/or -timetable-dir")
	}

	sqliteDB, err := repository.NewSQLiteDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer sqliteDB.Close()

	ctx := context.Background()
	if err := sqliteDB.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	db := sqliteDB.DB()

	if *stationsPath != "" {
		n, err := importStations(ctx, db, *stationsPath)
		if err != nil {
			log.Fatalf("Failed to import stations: %v", err)
		}
		log.Printf("SUCCESS: %d stations imported from %s", n, *stationsPath)
	}

	if *timetableDir != "" {
		entries, err := os.ReadDir(*timetableDir)
		if err != nil {
			log.Fatalf("Failed to read timetable directory: %v", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			date := strings.TrimSuffix(entry.Name(), ".json")
			if _, err := clock.ParseCivilDate(date); err != nil {
				log.Printf("Skipping %s: file name is not a YYYY-MM-DD date", entry.Name())
				continue
			}
			path := filepath.Join(*timetableDir, entry.Name())
			n, err := importTimetable(ctx, db, path, date)
			if err != nil {
				log.Printf("ERROR importing %s: %v", entry.Name(), err)
				continue
			}
			log.Printf("SUCCESS: %s imported, %d trains", entry.Name(), n)
		}
	}
}

func importStations(ctx context.Context, db *sql.DB, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var stations []stationJSON
	if err := json.Unmarshal(data, &stations); err != nil {
		return 0, fmt.Errorf("invalid stations JSON: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	const upsert = `
		INSERT INTO stations (station_id, name_zh, name_en, address, lat, lon)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (station_id) DO UPDATE SET
			name_zh = excluded.name_zh,
			name_en = excluded.name_en,
			address = excluded.address,
			lat = excluded.lat,
			lon = excluded.lon
	`
	count := 0
	for _, s := range stations {
		if s.StationID == "" || s.StationName.ZhTw == "" {
			log.Printf("Skipping station with missing id or name: %+v", s)
			continue
		}
		if _, err := tx.ExecContext(ctx, upsert,
			s.StationID, s.StationName.ZhTw, s.StationName.En, s.StationAddress,
			s.StationPosition.PositionLat, s.StationPosition.PositionLon); err != nil {
			return 0, fmt.Errorf("station %s: %w", s.StationID, err)
		}
		count++
	}
	return count, tx.Commit()
}

func importTimetable(ctx context.Context, db *sql.DB, path, date string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var trains []timetableJSON
	if err := json.Unmarshal(data, &trains); err != nil {
		return 0, fmt.Errorf("invalid timetable JSON: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// Replace the whole service date so re-imports stay idempotent.
	if _, err := tx.ExecContext(ctx, `DELETE FROM timetable_stops WHERE service_date = ?`, date); err != nil {
		return 0, err
	}

	importID := uuid.NewString()
	const insert = `
		INSERT INTO timetable_stops
			(service_date, train_no, train_type, station_id, arrival_time, departure_time, stop_sequence, import_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	count := 0
	for _, t := range trains {
		if t.TrainInfo.TrainNo == "" || len(t.StopTimes) == 0 {
			continue
		}
		for _, st := range t.StopTimes {
			if _, err := tx.ExecContext(ctx, insert,
				date, t.TrainInfo.TrainNo, t.TrainInfo.TrainTypeName.ZhTw,
				st.StationID, st.ArrivalTime, st.DepartureTime, st.StopSequence, importID); err != nil {
				return 0, fmt.Errorf("train %s stop %d: %w", t.TrainInfo.TrainNo, st.StopSequence, err)
			}
		}
		count++
	}
	return count, tx.Commit()
}
