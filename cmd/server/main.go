package main

import (
	"context"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"van-route-service/internal/adapters/cache"
	"van-route-service/internal/adapters/googlemaps"
	"van-route-service/internal/api"
	"van-route-service/internal/config"
	"van-route-service/internal/platform/db"
	"van-route-service/internal/platform/metrics"
	"van-route-service/internal/ports"
	"van-route-service/internal/services"
)

// main is the application composition root. It wires concrete adapters
// (Google Maps, the selected geocode cache) behind ports and starts
// the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.MapsAPIKey == "" {
		log.Fatal("MAPS_API_KEY is required")
	}

	metrics.Register()

	geocodeCache, cleanup, err := openGeocodeCache(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	mapsClient, err := googlemaps.New(cfg.MapsAPIKey)
	if err != nil {
		log.Fatal(err)
	}

	resolver := services.NewAddressResolver(mapsClient, geocodeCache)
	matrices := services.NewMatrixBuilder(mapsClient)
	optimizer := services.NewOptimizer()
	optimizer.Balance = cfg.Balance
	optimizer.TimeBudget = cfg.SolveBudget

	planner := services.NewPlanner(resolver, matrices, optimizer)
	router := api.NewRouter(planner, cfg.Fleet)

	// Timeouts are tuned for cold-cache optimization runs: geocoding a
	// full rider list plus the solve budget can take a while.
	log.Printf("Server listening addr=:%s cache=%s", cfg.Port, cfg.CacheBackend)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// openGeocodeCache builds the configured persistent cache, or nil when
// caching is disabled. The returned cleanup closes whatever was opened.
func openGeocodeCache(cfg *config.Config) (ports.GeocodeCache, func(), error) {
	switch cfg.CacheBackend {
	case "none":
		return nil, func() {}, nil

	case "sqlite":
		sqldb, err := db.OpenSqlite(cfg.SqlitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := cache.InitSchema(context.Background(), sqldb); err != nil {
			sqldb.Close()
			return nil, nil, err
		}
		return cache.NewSqliteGeocodeCache(sqldb), func() { sqldb.Close() }, nil

	case "postgres":
		sqldb, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewSQLGeocodeCache(sqldb), func() { sqldb.Close() }, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, nil, err
		}
		return cache.NewRedisGeocodeCache(client, cfg.RedisTTL), func() { client.Close() }, nil
	}

	// config.Load already validated the backend name.
	return nil, func() {}, nil
}
