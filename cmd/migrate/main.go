package main

import (
	"os"

	"docgen-selection-be/internal/model"
	"docgen-selection-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		color.White("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	// 2. Connect
	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		os.Exit(1)
	}

	color.Cyan("Starting favorites migration...")

	// 3. Extensions (gen_random_uuid)
	color.Yellow("Step 1: Extensions")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		color.Yellow("Warn: Failed to create pgcrypto: %v. Continuing...", err)
	}

	// 4. Tables
	color.Yellow("Step 2: AutoMigrate")
	if err := db.AutoMigrate(&model.Favorite{}); err != nil {
		color.Red("Error: AutoMigrate failed: %v", err)
		os.Exit(1)
	}

	// 5. Shared favorites are listed per section across owners.
	color.Yellow("Step 3: Indexes")
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_favorites_shared ON favorites (doc_type, section_index) WHERE is_shared AND deleted_at IS NULL;`).Error; err != nil {
		color.Yellow("Warn: Failed to create partial index: %v", err)
	}

	color.Green("Migration complete")
}
