// Package main is the entry point for the search backend.
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/aliciarogers01/vrchat-yts-backend/internal/app"
)

func main() {
	// Optional .env for local development; the file is absent in production
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("skipping .env: %v", err)
	}

	application, err := app.New()
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	defer application.Shutdown()

	if err := application.Run(); err != nil {
		log.Printf("server error: %v", err)
		os.Exit(1)
	}
}
