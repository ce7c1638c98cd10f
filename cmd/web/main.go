package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/alexedwards/scs/postgresstore"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/shuffleclub/server/internal/db"
	"github.com/shuffleclub/server/internal/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	database := db.InitDB(databaseURL)
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	middleware.InitAuth()

	sessionManager := scs.New()
	sessionManager.Lifetime = 24 * time.Hour
	sessionManager.Store = postgresstore.New(database.DB)

	router := newRouter(sessionManager, database)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Server starting on http://localhost:" + port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal(err)
	}
}
