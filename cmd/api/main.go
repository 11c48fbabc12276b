package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/lis186/smart-tra-mcp-server-sub000/internal/config"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/handlers"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/nlu"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/repository"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/schedule"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/station"
)

// store is the full data supply the handlers consume, satisfied by both
// repository backends.
type store interface {
	handlers.StationRepository
	handlers.TimetableRepository
	handlers.DelayRepository
	handlers.Pinger
}

func main() {
	// Load base .env first, then .env.local (which overrides for local
	// development).
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var (
		st      store
		closeFn func()
	)
	if cfg.DatabaseURL != "" {
		log.Println("Using Postgres storage backend")
		pg, err := repository.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize Postgres store: %v", err)
		}
		st, closeFn = pg, pg.Close
	} else {
		log.Printf("Using SQLite storage backend: %s", cfg.DatabasePath)
		sqliteDB, err := repository.NewSQLiteDB(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite database: %v", err)
		}
		if err := sqliteDB.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		st, closeFn = repository.NewSQLiteStore(sqliteDB.DB()), func() { sqliteDB.Close() }
	}
	defer closeFn()

	// Build the station directory snapshot up front; the reload endpoint
	// rebuilds it without a restart.
	directory := station.NewDirectory(cfg.Rules.Aliases)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	records, err := st.GetAllStations(ctx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to load station directory: %v", err)
	}
	if len(records) == 0 {
		log.Println("WARNING: station directory is empty, run the importer first")
	}
	directory.Load(records)
	log.Printf("Station directory loaded: %d records", len(records))

	extractor := nlu.NewExtractor()
	selector := schedule.NewSelector(schedule.Config{
		LookbackMinutes:    cfg.Rules.Selector.LookbackMinutes,
		DefaultWindowHours: cfg.Rules.Selector.DefaultWindowHours,
		MaxWindowHours:     cfg.Rules.Selector.MaxWindowHours,
		NearMarginMinutes:  cfg.Rules.Selector.NearMarginMinutes,
		MinResults:         cfg.Rules.Selector.MinResults,
		MaxDurationHours:   cfg.Rules.Selector.MaxDurationHours,
	}, log.Printf)

	queryHandler := handlers.NewQueryHandler(extractor, directory, st, st, selector, cfg.MaxResults)
	stationHandler := handlers.NewStationHandler(directory, st)
	departureHandler := handlers.NewDepartureHandler(directory, st, st, selector, cfg.MaxResults)
	trainHandler := handlers.NewTrainHandler(st)
	healthHandler := handlers.NewHealthHandler(st, directory)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Post("/api/query", queryHandler.HandleQuery)
	r.Get("/api/stations/resolve", stationHandler.Resolve)
	r.Post("/api/stations/reload", stationHandler.Reload)
	r.Get("/api/departures", departureHandler.List)
	r.Get("/api/trains/{trainNo}/status", trainHandler.GetStatus)
	r.Get("/health", healthHandler.Get)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	log.Printf("API server starting on :%s", cfg.Port)
	log.Println("Endpoints:")
	log.Println("  POST /api/query")
	log.Println("  GET  /api/stations/resolve")
	log.Println("  POST /api/stations/reload")
	log.Println("  GET  /api/departures")
	log.Println("  GET  /api/trains/{trainNo}/status")
	log.Println("  GET  /health")

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
