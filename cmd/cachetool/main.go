// cachetool initializes the geocode cache schema on the configured
// backend so the server can start against a fresh database.
package main

import (
	"context"
	"log"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"van-route-service/internal/adapters/cache"
	"van-route-service/internal/platform/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) != "" {
		pg, err := db.Open(databaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()

		log.Println("Initializing geocode cache schema on postgres...")
		if err := cache.InitSchema(context.Background(), pg); err != nil {
			log.Fatal(err)
		}
		log.Println("Schema ready.")
		return
	}

	path := os.Getenv("SQLITE_PATH")
	if path == "" {
		path = "data/app.db"
	}
	lite, err := db.OpenSqlite(path)
	if err != nil {
		log.Fatal(err)
	}
	defer lite.Close()

	log.Printf("Initializing geocode cache schema on sqlite path=%s...", path)
	if err := cache.InitSchema(context.Background(), lite); err != nil {
		log.Fatal(err)
	}
	log.Println("Schema ready.")
}
