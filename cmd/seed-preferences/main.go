// Seed default preferences for first-run setup. Takes the data
// directory as an optional argument, defaulting to the configured one.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"meal-planner-dashboard/internal/config"
	"meal-planner-dashboard/internal/document"
	"meal-planner-dashboard/internal/preferences"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	dataDir := ""
	if len(os.Args) > 1 {
		dataDir = os.Args[1]
	} else {
		cfg, err := config.NewFromEnv()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		dataDir = cfg.DataDir
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	store, err := document.New(dataDir)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}

	if err := preferences.NewService(store).Seed(); err != nil {
		log.Fatalf("Failed to seed preferences: %v", err)
	}

	fmt.Printf("Wrote default preferences to %s\n", filepath.Join(dataDir, document.Preferences))
}
