package main

import (
	"log"
	"os"

	"ai-examprep-be/internal/model"
	"ai-examprep-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: Extensions (Things GORM AutoMigrate doesn't do)
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.SourceMaterial{},
		&model.MaterialChunk{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: Vector Index, Functions & Views
	log.Println("Step 3: Creating Vector Index and Views...")

	postMigrationSQL := []string{
		// ANN index for cosine distance queries over chunk embeddings
		`CREATE INDEX IF NOT EXISTS idx_material_chunks_embedding
		 ON material_chunks USING hnsw (embedding vector_cosine_ops);`,

		// Function: set_current_timestamp_updated_at
		`CREATE OR REPLACE FUNCTION set_current_timestamp_updated_at() RETURNS trigger LANGUAGE plpgsql AS $$
		DECLARE _new_value TIMESTAMP WITH TIME ZONE;
		BEGIN
		  _new_value := now();
		  IF NEW.updated_at IS DISTINCT FROM _new_value THEN NEW.updated_at = _new_value; END IF;
		  RETURN NEW;
		END; $$;`,

		// View: per-material indexing status against actually stored chunks
		`CREATE OR REPLACE VIEW material_index_status AS
		 SELECT m.id AS material_id, m.source, m.status, m.chunk_count, COUNT(c.id) AS stored_chunks, m.indexed_at
		 FROM source_materials m
		 LEFT JOIN material_chunks c ON m.source = c.source
		 WHERE m.deleted_at IS NULL
		 GROUP BY m.id, m.source, m.status, m.chunk_count, m.indexed_at;`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
